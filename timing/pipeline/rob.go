package pipeline

// ReorderBuffer is a fixed-capacity circular queue of in-flight
// instructions. Three cursors track its occupancy: back (oldest
// not-yet-committed), frontFin (oldest not-yet-finished; finished-but-
// uncommitted entries lie in [back, frontFin)), and front (next free
// slot; allocated entries lie in [back, front)). Occupancy is tracked
// explicitly to disambiguate a full ring from an empty one.
type ReorderBuffer struct {
	entries  []ROBEntry
	capacity uint32
	back     uint32
	frontFin uint32
	front    uint32
	count    uint32
}

// NewReorderBuffer creates an empty ROB with the given capacity.
func NewReorderBuffer(capacity uint32) *ReorderBuffer {
	return &ReorderBuffer{
		entries:  make([]ROBEntry, capacity),
		capacity: capacity,
	}
}

// Capacity returns the ROB's fixed slot count.
func (rb *ReorderBuffer) Capacity() uint32 { return rb.capacity }

// Count returns the number of currently allocated entries.
func (rb *ReorderBuffer) Count() uint32 { return rb.count }

// Full reports whether the ROB has no free slot.
func (rb *ReorderBuffer) Full() bool { return rb.count == rb.capacity }

// Empty reports whether the ROB holds no entries.
func (rb *ReorderBuffer) Empty() bool { return rb.count == 0 }

// Front returns the next-free-slot index (meaningful even when Full).
func (rb *ReorderBuffer) Front() RobIndex { return RobIndex(rb.front) }

// Back returns the oldest not-yet-committed index (meaningful when not Empty).
func (rb *ReorderBuffer) Back() RobIndex { return RobIndex(rb.back) }

// FrontFin returns the oldest not-yet-finished index.
func (rb *ReorderBuffer) FrontFin() RobIndex { return RobIndex(rb.frontFin) }

// Entry returns a pointer to the live entry at idx. Callers must only call
// this with an index known to be allocated.
func (rb *ReorderBuffer) Entry(idx RobIndex) *ROBEntry {
	return &rb.entries[uint32(idx)%rb.capacity]
}

// Reserve allocates entry at the current front slot, assigning it that
// index as its own name_rd. Fails if the ROB is full.
func (rb *ReorderBuffer) Reserve(entry ROBEntry) (RobIndex, bool) {
	if rb.Full() {
		return 0, false
	}
	idx := RobIndex(rb.front)
	entry.Valid = true
	entry.Finished = false
	entry.RefCount = 0
	rb.entries[rb.front] = entry
	rb.front = (rb.front + 1) % rb.capacity
	rb.count++
	return idx, true
}

// MarkFinished records an execute unit's result into the entry at idx and
// advances frontFin past any now-contiguously-finished entries.
func (rb *ReorderBuffer) MarkFinished(idx RobIndex, actPC uint32, actRd int32, hasActRd bool) {
	e := rb.Entry(idx)
	e.ActPC = actPC
	e.ActRd = actRd
	e.HasActRd = hasActRd
	e.Finished = true
	rb.advanceFrontFin()
}

func (rb *ReorderBuffer) advanceFrontFin() {
	// Bound the walk by occupancy rather than by front, which equals back
	// when the ring is full.
	ahead := (rb.frontFin - rb.back + rb.capacity) % rb.capacity
	for ahead < rb.count {
		e := &rb.entries[rb.frontFin]
		if !e.Valid || !e.Finished {
			break
		}
		rb.frontFin = (rb.frontFin + 1) % rb.capacity
		ahead++
	}
}

// PeekFinished returns the oldest entry, if it is finished and has no
// remaining waiting consumers (RefCount == 0) — i.e. it is ready to
// commit. The second return is its index.
func (rb *ReorderBuffer) PeekFinished() (*ROBEntry, RobIndex, bool) {
	if rb.Empty() {
		return nil, 0, false
	}
	e := &rb.entries[rb.back]
	if !e.Finished || e.RefCount != 0 {
		return nil, 0, false
	}
	return e, RobIndex(rb.back), true
}

// Retire pops the entry at back (the caller must have just committed it
// via PeekFinished).
func (rb *ReorderBuffer) Retire() {
	rb.entries[rb.back] = ROBEntry{}
	rb.back = (rb.back + 1) % rb.capacity
	rb.count--
}

// IncRefCount bumps the waiting-consumer count on the producer at idx.
func (rb *ReorderBuffer) IncRefCount(idx RobIndex) {
	rb.Entry(idx).RefCount++
}

// DecRefCount drops the waiting-consumer count on the producer at idx, if
// idx still names a live entry (it may have already been retired).
func (rb *ReorderBuffer) DecRefCount(idx RobIndex) {
	if !rb.contains(idx) {
		return
	}
	e := rb.Entry(idx)
	if e.RefCount > 0 {
		e.RefCount--
	}
}

// contains reports whether idx names a currently allocated slot, i.e. lies
// within [back, front) accounting for wraparound.
func (rb *ReorderBuffer) contains(idx RobIndex) bool {
	if rb.Empty() {
		return false
	}
	offset := (uint32(idx) - rb.back + rb.capacity) % rb.capacity
	span := (rb.front - rb.back + rb.capacity) % rb.capacity
	if span == 0 {
		span = rb.capacity // full ring
	}
	return offset < span
}

// ExecuteBypass broadcasts a just-produced value to any ROB entry whose
// rs1/rs2 is still the pending tag idx.
func (rb *ReorderBuffer) ExecuteBypass(idx RobIndex, value int32) {
	for i := range rb.entries {
		e := &rb.entries[i]
		if !e.Valid {
			continue
		}
		e.Rs1 = e.Rs1.bypass(idx, value)
		e.Rs2 = e.Rs2.bypass(idx, value)
	}
}

// FlushedEntry is a discarded ROB entry along with the index it occupied,
// returned by Flush so the caller can undo any speculative side effects
// (register-file renames, branch-predictor RAS pushes/pops) it caused.
type FlushedEntry struct {
	Idx   RobIndex
	Entry ROBEntry
}

// Flush discards every allocated entry from fromIdx (inclusive) through
// front (exclusive), rolling front back to fromIdx. For each discarded
// entry that still held an unresolved tag as a source, the referenced
// producer's RefCount is decremented (the consumer no longer exists).
// Returns the discarded entries, oldest first, so the caller can clear
// register-file renames and undo predictor side effects.
func (rb *ReorderBuffer) Flush(fromIdx RobIndex) []FlushedEntry {
	var discarded []FlushedEntry
	cur := uint32(fromIdx) % rb.capacity
	for cur != rb.front {
		e := &rb.entries[cur]
		if e.Valid {
			if !e.Rs1.Ready {
				rb.DecRefCount(e.Rs1.Tag)
			}
			if !e.Rs2.Ready {
				rb.DecRefCount(e.Rs2.Tag)
			}
			discarded = append(discarded, FlushedEntry{Idx: RobIndex(cur), Entry: *e})
		}
		rb.entries[cur] = ROBEntry{}
		cur = (cur + 1) % rb.capacity
	}
	removed := (rb.front - uint32(fromIdx) + rb.capacity) % rb.capacity
	rb.front = uint32(fromIdx) % rb.capacity
	rb.count -= removed
	if (rb.frontFin-rb.back+rb.capacity)%rb.capacity > (rb.front-rb.back+rb.capacity)%rb.capacity {
		rb.frontFin = rb.front
	}
	return discarded
}
