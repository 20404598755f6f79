// Package latency provides the instruction timing model for cycle-accurate
// simulation: how many execute steps each operation takes and whether its
// execute unit is blocking (admits only one in-flight instruction) or
// non-blocking (pipelined, admits a new instruction every step).
package latency

import (
	"github.com/sarchlab/rv32sim/insts"
)

// Entry describes one operation's execute-unit timing.
type Entry struct {
	Steps    uint64
	Blocking bool
}

// Table provides instruction latency lookups.
type Table struct {
	config *TimingConfig
}

// NewTable creates a new latency table with default timing values.
func NewTable() *Table {
	return &Table{
		config: DefaultTimingConfig(),
	}
}

// NewTableWithConfig creates a new latency table with custom timing configuration.
func NewTableWithConfig(config *TimingConfig) *Table {
	return &Table{
		config: config,
	}
}

// Lookup returns the step count and blocking behavior for op.
func (t *Table) Lookup(op insts.Op) Entry {
	switch {
	case isMultiply(op):
		return Entry{Steps: t.config.MultiplyLatency, Blocking: false}
	case isDivide(op):
		return Entry{Steps: t.config.DivideLatency, Blocking: true}
	case insts.IsLoad(op) || insts.IsStore(op):
		return Entry{Steps: t.config.MemoryLatency, Blocking: true}
	case insts.UnitOf(op) == insts.UnitBLU:
		return Entry{Steps: t.config.BranchLatency, Blocking: false}
	case isMisc(op):
		return Entry{Steps: t.config.MiscLatency, Blocking: false}
	default:
		return Entry{Steps: t.config.ALULatency, Blocking: false}
	}
}

// GetLatency returns the step count for op; see Lookup for blocking behavior.
func (t *Table) GetLatency(op insts.Op) uint64 {
	return t.Lookup(op).Steps
}

// IsBlocking reports whether op's execute unit admits only one in-flight
// instruction at a time.
func (t *Table) IsBlocking(op insts.Op) bool {
	return t.Lookup(op).Blocking
}

// Config returns the current timing configuration.
func (t *Table) Config() *TimingConfig {
	return t.config
}

func isMultiply(op insts.Op) bool {
	switch op {
	case insts.OpMUL, insts.OpMULH, insts.OpMULHSU, insts.OpMULHU:
		return true
	default:
		return false
	}
}

func isDivide(op insts.Op) bool {
	switch op {
	case insts.OpDIV, insts.OpDIVU, insts.OpREM, insts.OpREMU:
		return true
	default:
		return false
	}
}

func isMisc(op insts.Op) bool {
	switch op {
	case insts.OpFENCE, insts.OpFENCEI, insts.OpECALL, insts.OpEBREAK,
		insts.OpCSRRW, insts.OpCSRRS, insts.OpCSRRC,
		insts.OpCSRRWI, insts.OpCSRRSI, insts.OpCSRRCI:
		return true
	default:
		return false
	}
}
