package pipeline

import (
	"github.com/sarchlab/rv32sim/emu"
	"github.com/sarchlab/rv32sim/insts"
)

var branchUnit = emu.NewBranchUnit()

// euSlot is one in-flight instruction inside an execute unit: its already-
// computed result, delayed behind a step counter.
type euSlot struct {
	result  ExecuteResult
	counter LatencyCounter
}

// ExecuteUnit is a functional pipeline handling one category of operations
// (ALU, BLU, or MCU). Non-blocking instructions may overlap up to
// pipelineDepth deep; while any blocking instruction occupies the unit, no
// other instruction (blocking or not) may enter until it drains.
type ExecuteUnit struct {
	Kind          insts.UnitKind
	PipelineDepth uint8

	inFlight []euSlot
}

// NewExecuteUnit creates an execute unit of the given kind and pipeline depth.
func NewExecuteUnit(kind insts.UnitKind, depth uint8) *ExecuteUnit {
	return &ExecuteUnit{Kind: kind, PipelineDepth: depth}
}

// IsFree reports whether the unit can admit one more instruction whose
// latency counter has the given blocking-ness.
func (eu *ExecuteUnit) IsFree(blocking bool) bool {
	for _, s := range eu.inFlight {
		if s.counter.Blocking {
			return false
		}
	}
	if blocking {
		return len(eu.inFlight) == 0
	}
	return uint8(len(eu.inFlight)) < eu.PipelineDepth
}

// Admit enqueues a newly issued instruction's already-computed result,
// delayed behind its latency counter.
func (eu *ExecuteUnit) Admit(result ExecuteResult, counter LatencyCounter) {
	eu.inFlight = append(eu.inFlight, euSlot{result: result, counter: counter})
}

// AdvancePipeline decrements every in-flight slot's step counter by one;
// if the oldest slot reaches zero, it is popped and returned.
func (eu *ExecuteUnit) AdvancePipeline() (ExecuteResult, bool) {
	if len(eu.inFlight) == 0 {
		return ExecuteResult{}, false
	}

	for i := range eu.inFlight {
		if eu.inFlight[i].counter.Steps > 0 {
			eu.inFlight[i].counter.Steps--
		}
	}

	if eu.inFlight[0].counter.Steps == 0 {
		res := eu.inFlight[0].result
		eu.inFlight = eu.inFlight[1:]
		return res, true
	}

	return ExecuteResult{}, false
}

// Flush clears all in-flight instructions, discarding their results.
func (eu *ExecuteUnit) Flush() {
	eu.inFlight = nil
}

// InFlightCount reports how many instructions currently occupy the unit.
func (eu *ExecuteUnit) InFlightCount() int { return len(eu.inFlight) }

// Dispatch computes the architectural effect of a reservation whose
// operands are both concrete, per the format-specific dispatch table.
// Loads and stores perform no memory access here — that is deferred to
// commit — and produce no register result.
func Dispatch(r Reservation) ExecuteResult {
	pc := r.PC

	switch r.Fmt {
	case insts.FormatR:
		result := emu.Compute(r.Op, r.Rs1.Value, r.Rs2.Value)
		return ExecuteResult{RobEntry: r.RobEntry, ActPC: pc + 4, HasActRd: true, ActRd: result}

	case insts.FormatI:
		switch {
		case r.Op == insts.OpJALR:
			target := emu.JALRTarget(r.Rs1.Value, r.Imm)
			return ExecuteResult{RobEntry: r.RobEntry, ActPC: target, HasActRd: true, ActRd: int32(pc + 4)}
		case insts.IsLoad(r.Op), isSystemNoop(r.Op):
			return ExecuteResult{RobEntry: r.RobEntry, ActPC: pc + 4}
		default:
			result := emu.Compute(r.Op, r.Rs1.Value, r.Imm)
			return ExecuteResult{RobEntry: r.RobEntry, ActPC: pc + 4, HasActRd: true, ActRd: result}
		}

	case insts.FormatS:
		return ExecuteResult{RobEntry: r.RobEntry, ActPC: pc + 4}

	case insts.FormatB:
		target := pc + 4
		if branchUnit.Taken(r.Op, r.Rs1.Value, r.Rs2.Value) {
			target = uint32(int32(pc) + r.Imm)
		}
		return ExecuteResult{RobEntry: r.RobEntry, ActPC: target}

	case insts.FormatU:
		rd := r.Imm
		if r.Op == insts.OpAUIPC {
			rd = int32(pc) + r.Imm
		}
		return ExecuteResult{RobEntry: r.RobEntry, ActPC: pc + 4, HasActRd: true, ActRd: rd}

	case insts.FormatJ:
		target := uint32(int32(pc) + r.Imm)
		return ExecuteResult{RobEntry: r.RobEntry, ActPC: target, HasActRd: true, ActRd: int32(pc + 4)}

	default:
		return ExecuteResult{RobEntry: r.RobEntry, ActPC: pc + 4}
	}
}

func isSystemNoop(op insts.Op) bool {
	switch op {
	case insts.OpFENCE, insts.OpFENCEI, insts.OpECALL, insts.OpEBREAK,
		insts.OpCSRRW, insts.OpCSRRS, insts.OpCSRRC,
		insts.OpCSRRWI, insts.OpCSRRSI, insts.OpCSRRCI:
		return true
	default:
		return false
	}
}
