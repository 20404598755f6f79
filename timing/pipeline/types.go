// Package pipeline implements the superscalar, out-of-order, speculative
// RV32IM core: register renaming, a reorder buffer, a unified reservation
// station, ALU/BLU/MCU execute units, a branch predictor, in-order commit,
// and precise flush on misprediction.
package pipeline

import "github.com/sarchlab/rv32sim/insts"

// RobIndex identifies a reorder-buffer slot.
type RobIndex uint32

// noTag marks a Source that carries neither a concrete value nor a rename
// tag — used for the zero-valued / cleared state.
const noTag RobIndex = ^RobIndex(0)

// Source models Either<Word, RobIndex>: an operand that is either a
// concrete value or a pending rename tag awaiting broadcast.
type Source struct {
	Ready bool
	Value int32
	Tag   RobIndex
}

// ConcreteSource returns a ready operand holding value.
func ConcreteSource(value int32) Source {
	return Source{Ready: true, Value: value}
}

// TaggedSource returns a pending operand awaiting the producer at tag.
func TaggedSource(tag RobIndex) Source {
	return Source{Ready: false, Tag: tag}
}

// bypass replaces s with value if s is the pending tag idx.
func (s Source) bypass(idx RobIndex, value int32) Source {
	if !s.Ready && s.Tag == idx {
		return ConcreteSource(value)
	}
	return s
}

// BPData is the side-band the branch predictor writes at fetch time so
// commit-time resolve can undo it precisely on misprediction.
type BPData struct {
	Predicted    bool // predicted control flow redirects relative to pc+4
	PredictedPC  uint32
	UsedHistory  bool // this op consulted the 2-bit history table
	HistoryIndex uint32
	PushedRAS    bool
	PoppedRAS    bool
	RASValue     uint32 // value popped (for undo) or pushed
}

// ROBEntry is one in-flight instruction tracked by the reorder buffer.
type ROBEntry struct {
	Valid    bool
	Finished bool
	RefCount uint32

	Op  insts.Op
	Fmt insts.Format

	PC     uint32 // speculative fetch-time pc
	PredPC uint32 // predicted next pc

	ActPC    uint32 // resolved actual next pc (set at finish)
	HasActRd bool
	ActRd    int32

	HasRegRd bool
	RegRd    uint8

	Rs1, Rs2 Source
	HasImm   bool
	Imm      int32

	BP BPData

	// origRs1Tag/origRs2Tag remember which producer(s) this entry consumed
	// as a tag at decode & rename time, so mergeCompletions decrements that
	// producer's RefCount exactly once when this entry finishes.
	origRs1Tag, origRs2Tag RobIndex
	hasOrigRs1, hasOrigRs2 bool
}

// Reservation is the unified reservation-station entry: a mirror of the
// ROB entry's scheduling-relevant fields, rewritten to concrete values as
// the bypass network resolves its operands.
type Reservation struct {
	RobEntry RobIndex
	PC       uint32
	Op       insts.Op
	Fmt      insts.Format
	Rs1, Rs2 Source
	HasImm   bool
	Imm      int32
	HasRegRd bool
	RegRd    uint8

	seq uint64 // insertion order, for oldest-first tie-breaking
}

// ready reports whether both operands are concrete.
func (r Reservation) ready() bool {
	return r.Rs1.Ready && r.Rs2.Ready
}

// ExecuteResult is what an execute unit produces for a finishing
// instruction, destined for its ROB entry.
type ExecuteResult struct {
	RobEntry RobIndex
	ActPC    uint32
	HasActRd bool
	ActRd    int32
}

// LatencyCounter tracks the remaining steps and blocking behavior of one
// in-flight execute-unit slot.
type LatencyCounter struct {
	Blocking bool
	Steps    uint8
}
