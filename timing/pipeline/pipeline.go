// Package pipeline implements the superscalar, out-of-order, speculative
// RV32IM core: register renaming, a reorder buffer, a unified reservation
// station, ALU/BLU/MCU execute units, a branch predictor, in-order commit,
// and precise flush on misprediction.
package pipeline

import (
	"github.com/sarchlab/rv32sim/emu"
	"github.com/sarchlab/rv32sim/insts"
	"github.com/sarchlab/rv32sim/timing/latency"
)

// Stats accumulates the counters reported at the end of a run.
type Stats struct {
	Cycles    uint64
	Committed uint64
	Stalls    uint64
	BPSuccess uint64
	BPFailure uint64
}

// IPC returns committed instructions per cycle, 0 if no cycles elapsed.
func (s Stats) IPC() float64 {
	if s.Cycles == 0 {
		return 0
	}
	return float64(s.Committed) / float64(s.Cycles)
}

// Config bounds the structural resources of a Pipeline.
type Config struct {
	Width       int // max instructions fetched/decoded per tick
	ROBCapacity uint32
	RSCapacity  uint32
	EUDepth     uint8 // non-blocking pipeline depth per execute unit
}

// DefaultConfig returns the structural defaults used when no Config is given.
func DefaultConfig() Config {
	return Config{Width: 4, ROBCapacity: 32, RSCapacity: 16, EUDepth: 4}
}

// Pipeline is the Tomasulo-style out-of-order core: a tick advances every
// stage by exactly one cycle, honoring the two-phase (this-tick-computed,
// next-tick-visible) latching described by the execute units' latency
// counters.
type Pipeline struct {
	cfg Config

	memory *emu.Memory
	regs   *RegisterFile
	rob    *ReorderBuffer
	rs     *ReservationStation
	lsu    *emu.LoadStoreUnit
	lat    *latency.Table
	bp     *BranchPredictor
	fetch  FetchLatch

	eus map[insts.UnitKind]*ExecuteUnit

	pc      uint32
	pending []ExecuteResult

	Halted bool
	Stats  Stats
}

// Option configures a Pipeline at construction.
type Option func(*Pipeline)

// WithConfig overrides the structural defaults.
func WithConfig(cfg Config) Option {
	return func(p *Pipeline) { p.cfg = cfg }
}

// WithTimingConfig overrides the default latency table.
func WithTimingConfig(cfg *latency.TimingConfig) Option {
	return func(p *Pipeline) { p.lat = latency.NewTableWithConfig(cfg) }
}

// NewPipeline creates a Tomasulo pipeline fetching from entry against mem.
func NewPipeline(entry uint32, mem *emu.Memory, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:    DefaultConfig(),
		memory: mem,
		regs:   NewRegisterFile(),
		lsu:    emu.NewLoadStoreUnit(mem),
		lat:    latency.NewTable(),
		pc:     entry,
	}

	for _, opt := range opts {
		opt(p)
	}

	p.rob = NewReorderBuffer(p.cfg.ROBCapacity)
	p.rs = NewReservationStation(p.cfg.RSCapacity)
	p.bp = NewBranchPredictor(entry)
	p.eus = map[insts.UnitKind]*ExecuteUnit{
		insts.UnitALU: NewExecuteUnit(insts.UnitALU, p.cfg.EUDepth),
		insts.UnitBLU: NewExecuteUnit(insts.UnitBLU, p.cfg.EUDepth),
		insts.UnitMCU: NewExecuteUnit(insts.UnitMCU, p.cfg.EUDepth),
	}

	return p
}

// RegisterSnapshot returns the 32 architectural register values.
func (p *Pipeline) RegisterSnapshot() [32]int32 { return p.regs.Snapshot() }

// Finished reports whether the program has run off the end of its image
// (Halted) and every in-flight instruction has drained out through commit,
// i.e. there is no more useful work Tick could do.
func (p *Pipeline) Finished() bool {
	if !p.Halted {
		return false
	}
	if !p.rob.Empty() || len(p.pending) > 0 {
		return false
	}
	for _, eu := range p.eus {
		if eu.InFlightCount() > 0 {
			return false
		}
	}
	return true
}

// Tick advances the core by one cycle. Stage order within a tick mirrors
// hardware priority: the previous tick's execute completions are merged
// first (so commit and issue both see them), then commit, execute, issue,
// decode & rename, and fetch run in that order — issue always precedes
// decode & rename so a reservation inserted this tick cannot be issued
// until the next. Once Halted (fetch or decode ran off the end of the
// image), fetch and decode & rename stop running, but commit, execute, and
// issue keep draining whatever is still in flight.
func (p *Pipeline) Tick() {
	if p.Finished() {
		return
	}

	p.Stats.Cycles++

	p.mergeCompletions()
	p.stageCommit()
	p.stageExecute()
	p.stageIssue()

	if !p.Halted {
		p.stageDecodeRename()
		p.stageFetch()
	}
}

// mergeCompletions applies last tick's execute-unit completions to the ROB
// and RS bypass networks before this tick's commit stage runs.
func (p *Pipeline) mergeCompletions() {
	for _, res := range p.pending {
		p.rob.MarkFinished(res.RobEntry, res.ActPC, res.ActRd, res.HasActRd)
		if res.HasActRd {
			p.rob.ExecuteBypass(res.RobEntry, res.ActRd)
			p.rs.ExecuteBypass(res.RobEntry, res.ActRd)
		}

		e := p.rob.Entry(res.RobEntry)
		if e.hasOrigRs1 {
			p.rob.DecRefCount(e.origRs1Tag)
		}
		if e.hasOrigRs2 {
			p.rob.DecRefCount(e.origRs2Tag)
		}
	}
	p.pending = p.pending[:0]
}

// stageCommit retires the oldest finished, unreferenced ROB entry each
// tick, performing the deferred memory access for loads/stores and writing
// the architectural register file. A misprediction triggers a precise
// flush of everything younger than the committing entry.
func (p *Pipeline) stageCommit() {
	entry, idx, ok := p.rob.PeekFinished()
	if !ok {
		return
	}

	actRd := entry.ActRd
	hasActRd := entry.HasActRd

	if insts.IsLoad(entry.Op) {
		addr := uint32(entry.Rs1.Value + entry.Imm)
		v, _ := p.lsu.Load(entry.Op, addr)
		actRd = v
		hasActRd = true
	} else if insts.IsStore(entry.Op) {
		addr := uint32(entry.Rs1.Value + entry.Imm)
		p.lsu.Store(entry.Op, addr, entry.Rs2.Value)
	}

	if hasActRd && entry.HasRegRd {
		p.regs.WriteCommitted(entry.RegRd, actRd, idx)
	}
	if hasActRd {
		p.rob.ExecuteBypass(idx, actRd)
		p.rs.ExecuteBypass(idx, actRd)
	}

	mispredicted := !p.bp.Resolve(entry)
	resolvedActPC := entry.ActPC
	p.Stats.BPSuccess = p.bp.Stats.Success
	p.Stats.BPFailure = p.bp.Stats.Failure

	p.rob.Retire()
	p.Stats.Committed++

	if mispredicted {
		p.flush(resolvedActPC)
	}
}

// flush discards every in-flight instruction younger than the committing
// entry, undoes their speculative register renames and RAS effects, and
// redirects fetch to actPC.
func (p *Pipeline) flush(actPC uint32) {
	discarded := p.rob.Flush(p.rob.Back())
	for i := len(discarded) - 1; i >= 0; i-- {
		d := discarded[i]
		p.regs.ClearRenamesTo(d.Idx)
		p.bp.UndoRAS(d.Entry.BP)
	}

	for _, eu := range p.eus {
		eu.Flush()
	}
	p.rs.Clear()
	p.fetch.Clear()
	p.pending = p.pending[:0]

	p.bp.ForceUpdate(actPC)
	p.pc = actPC

	// A Halted flag set by decode running into a bad word on the
	// mispredicted (now-discarded) path says nothing about the actual
	// target: resume fetching there.
	p.Halted = false
}

// stageExecute advances every execute unit's pipeline by one step and
// stashes any newly completed results for next tick's merge, then admits
// freshly issued reservations is handled by stageIssue.
func (p *Pipeline) stageExecute() {
	for _, kind := range []insts.UnitKind{insts.UnitALU, insts.UnitBLU, insts.UnitMCU} {
		eu := p.eus[kind]
		if res, ok := eu.AdvancePipeline(); ok {
			p.pending = append(p.pending, res)
		}
	}
}

// stageIssue picks, for each execute unit kind, the oldest ready
// reservation whose destination unit is currently free, computes its
// result immediately (the functional unit's behavior is combinational;
// only its visibility is delayed), and admits it behind its latency
// counter.
func (p *Pipeline) stageIssue() {
	frontFin := p.rob.FrontFin()

	for _, kind := range []insts.UnitKind{insts.UnitALU, insts.UnitBLU, insts.UnitMCU} {
		res, slot, ok := p.rs.PeekNext(kind, frontFin)
		if !ok {
			continue
		}

		entry := p.lat.Lookup(res.Op)
		eu := p.eus[kind]
		if !eu.IsFree(entry.Blocking) {
			p.Stats.Stalls++
			continue
		}

		p.rs.Remove(slot)

		result := Dispatch(res)
		eu.Admit(result, LatencyCounter{Blocking: entry.Blocking, Steps: uint8(entry.Steps)})
	}
}

// stageDecodeRename consumes the fetch latch, renaming destination
// registers and reading source operands (concrete value or pending tag)
// into new ROB and RS entries. Stalls (ROB or RS full) leave the fetch
// latch intact for a future tick.
func (p *Pipeline) stageDecodeRename() {
	if !p.fetch.Valid {
		return
	}

	for len(p.fetch.Words) > 0 {
		if p.rob.Full() || p.rs.Full() {
			p.Stats.Stalls++
			return
		}

		word := p.fetch.Words[0]
		bpData := p.fetch.BP[0]
		instPC := p.fetch.PC

		inst, ok := insts.Decode(word)
		if !ok {
			p.Halted = true
			p.fetch.Words = p.fetch.Words[1:]
			p.fetch.BP = p.fetch.BP[1:]
			p.fetch.PC += 4
			return
		}

		rs1Src, origRs1Tag, hasOrigRs1 := p.readOperand(inst.Rs1)
		rs2Src, origRs2Tag, hasOrigRs2 := p.readOperand(inst.Rs2)

		entry := ROBEntry{
			Op:         inst.Op,
			Fmt:        inst.Fmt,
			PC:         instPC,
			Rs1:        rs1Src,
			Rs2:        rs2Src,
			HasImm:     true,
			Imm:        inst.Imm,
			HasRegRd:   insts.HasRd(inst.Op),
			RegRd:      inst.Rd,
			BP:         bpData,
			origRs1Tag: origRs1Tag,
			origRs2Tag: origRs2Tag,
			hasOrigRs1: hasOrigRs1,
			hasOrigRs2: hasOrigRs2,
		}

		idx, ok := p.rob.Reserve(entry)
		if !ok {
			p.Stats.Stalls++
			return
		}

		if entry.HasRegRd {
			p.regs.Rename(inst.Rd, idx)
		}

		p.rs.Reserve(Reservation{
			RobEntry: idx,
			PC:       instPC,
			Op:       inst.Op,
			Fmt:      inst.Fmt,
			Rs1:      rs1Src,
			Rs2:      rs2Src,
			HasImm:   true,
			Imm:      inst.Imm,
			HasRegRd: entry.HasRegRd,
			RegRd:    inst.Rd,
		})

		p.fetch.Words = p.fetch.Words[1:]
		p.fetch.BP = p.fetch.BP[1:]
		p.fetch.PC += 4
	}

	p.fetch.Clear()
}

// readOperand resolves register r per the rename table: a live rename whose
// producer has already finished with a register result yields that result
// concretely; any other live rename yields a pending tag (and bumps that
// producer's ref count, since this instruction becomes a new waiting
// consumer); otherwise the committed value is concrete immediately.
func (p *Pipeline) readOperand(r uint8) (Source, RobIndex, bool) {
	if tag, renamed := p.regs.IsRenamed(r); renamed {
		if e := p.rob.Entry(tag); e.Finished && e.HasActRd {
			return ConcreteSource(e.ActRd), 0, false
		}
		p.rob.IncRefCount(tag)
		return TaggedSource(tag), tag, true
	}
	return ConcreteSource(p.regs.CommittedValue(r)), 0, false
}

// stageFetch reads up to Width words starting at pc, asks the branch
// predictor to speculate their control flow, and latches them for decode &
// rename. A non-empty fetch latch (stall) blocks further fetch.
func (p *Pipeline) stageFetch() {
	if p.Halted || p.fetch.Valid {
		return
	}

	words := make([]uint32, 0, p.cfg.Width)
	for i := 0; i < p.cfg.Width; i++ {
		addr := p.pc + uint32(4*i)
		if int(addr)+4 > p.memory.Size() {
			break
		}
		w, _ := p.memory.Read32(addr)
		words = append(words, w)
	}

	if len(words) == 0 {
		p.Halted = true
		return
	}

	bpData := p.bp.Predict(p.pc, words, len(words))
	n := len(bpData)
	if n == 0 {
		p.Halted = true
		return
	}

	p.fetch = FetchLatch{Valid: true, PC: p.pc, Words: words[:n], BP: bpData}
	p.pc = p.bp.GetPrediction()
}

// Drain runs ticks until the core halts (fetch ran off the end of the
// image or decode failed) or maxCycles is reached, whichever comes first.
// It returns the number of ticks actually executed.
func (p *Pipeline) Drain(maxCycles uint64) uint64 {
	var n uint64
	for !p.Finished() && n < maxCycles {
		p.Tick()
		n++
	}
	return n
}
