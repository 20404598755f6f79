package emu

import (
	"fmt"

	"github.com/sarchlab/rv32sim/insts"
)

// StepResult reports the outcome of executing a single instruction.
type StepResult struct {
	// Halted is true if the reference interpreter could not decode the
	// instruction at PC; this is the reference model's only notion of
	// program completion, since ECALL/EBREAK are architectural no-ops.
	Halted bool

	// Err is set when Halted is true and the halt was not the expected
	// "ran off the end of the image" case.
	Err error
}

// Emulator is a single-cycle, in-order RV32IM interpreter. It commits one
// instruction per Step and exists as the reference model the timing
// pipeline's committed trace is checked against.
type Emulator struct {
	regFile *RegFile
	memory  *Memory
	alu     *ALU
	bu      *BranchUnit
	lsu     *LoadStoreUnit

	instructionCount uint64
	maxInstructions  uint64
}

// EmulatorOption configures an Emulator at construction.
type EmulatorOption func(*Emulator)

// WithStackPointer sets the initial value of x2 and x8 (sp/fp).
func WithStackPointer(value int32) EmulatorOption {
	return func(e *Emulator) {
		e.regFile.X[2] = value
		e.regFile.X[8] = value
	}
}

// WithMaxInstructions bounds the number of committed instructions; 0 means
// no limit. Used by tests to cap runaway programs.
func WithMaxInstructions(max uint64) EmulatorOption {
	return func(e *Emulator) {
		e.maxInstructions = max
	}
}

// NewEmulator creates a new RV32IM reference interpreter.
func NewEmulator(opts ...EmulatorOption) *Emulator {
	regFile := &RegFile{}
	memory := NewMemory()

	e := &Emulator{
		regFile: regFile,
		memory:  memory,
		alu:     NewALU(regFile),
		bu:      NewBranchUnit(),
		lsu:     NewLoadStoreUnit(memory),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// RegFile returns the emulator's register file.
func (e *Emulator) RegFile() *RegFile {
	return e.regFile
}

// Memory returns the emulator's memory.
func (e *Emulator) Memory() *Memory {
	return e.memory
}

// InstructionCount returns the number of instructions committed so far.
func (e *Emulator) InstructionCount() uint64 {
	return e.instructionCount
}

// LoadProgram copies program bytes into memory and sets pc to entry.
func (e *Emulator) LoadProgram(entry uint32, program []byte) {
	e.memory.LoadProgram(entry, program)
	e.regFile.PC = entry
}

// Reset restores the emulator to its zero state, preserving loaded memory.
func (e *Emulator) Reset() {
	e.regFile = &RegFile{}
	e.alu = NewALU(e.regFile)
	e.instructionCount = 0
}

// Step executes a single instruction.
func (e *Emulator) Step() StepResult {
	if e.maxInstructions > 0 && e.instructionCount >= e.maxInstructions {
		return StepResult{Halted: true, Err: fmt.Errorf("max instructions reached")}
	}

	word, _ := e.memory.Read32(e.regFile.PC)
	inst, ok := insts.Decode(word)
	if !ok {
		return StepResult{Halted: true}
	}

	e.execute(inst)
	e.instructionCount++

	return StepResult{}
}

// Run executes instructions until the reference interpreter halts (decode
// failure, i.e. the program ran off the end of its image) or an error
// occurs.
func (e *Emulator) Run() error {
	for {
		result := e.Step()
		if result.Halted {
			return result.Err
		}
	}
}

func (e *Emulator) execute(inst insts.Instruction) {
	pc := e.regFile.PC

	switch inst.Fmt {
	case insts.FormatR:
		rs2 := e.regFile.ReadReg(inst.Rs2)
		e.alu.Exec(inst.Op, inst.Rd, inst.Rs1, rs2)
		e.regFile.PC = pc + 4

	case insts.FormatI:
		switch {
		case inst.Op == insts.OpJALR:
			rs1 := e.regFile.ReadReg(inst.Rs1)
			target := JALRTarget(rs1, inst.Imm)
			e.regFile.WriteReg(inst.Rd, int32(pc+4))
			e.regFile.PC = target
		case insts.IsLoad(inst.Op):
			base := e.regFile.ReadReg(inst.Rs1)
			addr := uint32(base + inst.Imm)
			value, _ := e.lsu.Load(inst.Op, addr)
			e.regFile.WriteReg(inst.Rd, value)
			e.regFile.PC = pc + 4
		case isSystemNoop(inst.Op):
			// FENCE/ECALL/EBREAK/CSR*: decode succeeds, execute is a no-op.
			e.regFile.PC = pc + 4
		default:
			e.alu.Exec(inst.Op, inst.Rd, inst.Rs1, inst.Imm)
			e.regFile.PC = pc + 4
		}

	case insts.FormatS:
		base := e.regFile.ReadReg(inst.Rs1)
		addr := uint32(base + inst.Imm)
		value := e.regFile.ReadReg(inst.Rs2)
		e.lsu.Store(inst.Op, addr, value)
		e.regFile.PC = pc + 4

	case insts.FormatB:
		rs1 := e.regFile.ReadReg(inst.Rs1)
		rs2 := e.regFile.ReadReg(inst.Rs2)
		if e.bu.Taken(inst.Op, rs1, rs2) {
			e.regFile.PC = uint32(int32(pc) + inst.Imm)
		} else {
			e.regFile.PC = pc + 4
		}

	case insts.FormatU:
		if inst.Op == insts.OpAUIPC {
			e.regFile.WriteReg(inst.Rd, int32(pc)+inst.Imm)
		} else {
			e.regFile.WriteReg(inst.Rd, inst.Imm)
		}
		e.regFile.PC = pc + 4

	case insts.FormatJ:
		e.regFile.WriteReg(inst.Rd, int32(pc+4))
		e.regFile.PC = uint32(int32(pc) + inst.Imm)

	default:
		e.regFile.PC = pc + 4
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
