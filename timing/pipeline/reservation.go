package pipeline

import "github.com/sarchlab/rv32sim/insts"

// ReservationStation is the unified bag of decoded-but-not-executed
// instructions waiting for operands and a free execute unit.
type ReservationStation struct {
	entries  []Reservation
	capacity uint32
	nextSeq  uint64
}

// NewReservationStation creates an empty RS with the given capacity.
func NewReservationStation(capacity uint32) *ReservationStation {
	return &ReservationStation{capacity: capacity}
}

// Capacity returns the RS's fixed slot count.
func (rs *ReservationStation) Capacity() uint32 { return rs.capacity }

// Len returns the number of currently held reservations.
func (rs *ReservationStation) Len() int { return len(rs.entries) }

// Full reports whether the RS has no free slot.
func (rs *ReservationStation) Full() bool { return uint32(len(rs.entries)) >= rs.capacity }

// Reserve admits a new reservation, failing if the station is full.
func (rs *ReservationStation) Reserve(r Reservation) bool {
	if rs.Full() {
		return false
	}
	r.seq = rs.nextSeq
	rs.nextSeq++
	rs.entries = append(rs.entries, r)
	return true
}

// ExecuteBypass rewrites every reservation whose rs1 or rs2 is the pending
// tag idx to the concrete value.
func (rs *ReservationStation) ExecuteBypass(idx RobIndex, value int32) {
	for i := range rs.entries {
		rs.entries[i].Rs1 = rs.entries[i].Rs1.bypass(idx, value)
		rs.entries[i].Rs2 = rs.entries[i].Rs2.bypass(idx, value)
	}
}

// inOrderConstrained reports whether op must retire in program order
// before any later instruction of the same kind may even issue: loads,
// stores, fences, and the system/CSR group.
func inOrderConstrained(op insts.Op) bool {
	switch insts.UnitOf(op) {
	case insts.UnitMCU:
		return true
	default:
		return false
	}
}

// PeekNext finds the oldest ready reservation whose operation maps to
// kind, without removing it. In-order-constrained operations (MCU: loads,
// stores, fences, system) are only eligible once their ROB entry is the
// oldest not-yet-finished one (frontFin), preserving their program order
// relative to each other. The second return is its slot index, for a
// subsequent Remove once the caller confirms a free execute unit.
func (rs *ReservationStation) PeekNext(kind insts.UnitKind, frontFin RobIndex) (Reservation, int, bool) {
	bestIdx := -1
	var bestSeq uint64

	for i, e := range rs.entries {
		if insts.UnitOf(e.Op) != kind {
			continue
		}
		if !e.ready() {
			continue
		}
		if inOrderConstrained(e.Op) && e.RobEntry != frontFin {
			continue
		}
		if bestIdx == -1 || e.seq < bestSeq {
			bestIdx = i
			bestSeq = e.seq
		}
	}

	if bestIdx == -1 {
		return Reservation{}, -1, false
	}

	return rs.entries[bestIdx], bestIdx, true
}

// Remove deletes the reservation at slot i (as returned by PeekNext).
func (rs *ReservationStation) Remove(i int) {
	rs.entries = append(rs.entries[:i], rs.entries[i+1:]...)
}

// Clear empties the reservation station, used on pipeline flush.
func (rs *ReservationStation) Clear() {
	rs.entries = rs.entries[:0]
}

// CountTagsTo returns how many live reservations still hold idx as a
// pending rs1 or rs2 tag, for comparing against a producer's RefCount.
func (rs *ReservationStation) CountTagsTo(idx RobIndex) int {
	n := 0
	for _, e := range rs.entries {
		if !e.Rs1.Ready && e.Rs1.Tag == idx {
			n++
		}
		if !e.Rs2.Ready && e.Rs2.Tag == idx {
			n++
		}
	}
	return n
}
