// Package insts provides RV32IM instruction definitions and decoding.
//
// This package implements decoding of 32-bit RISC-V (RV32IM) machine code
// into structured instruction representations, covering:
//   - Base integer (RV32I): arithmetic, logical, shifts, branches, jumps,
//     loads, stores, LUI/AUIPC, and the FENCE/ECALL/EBREAK/CSR* system group.
//   - Standard multiply extension (RV32M): MUL/MULH/MULHSU/MULHU,
//     DIV/DIVU/REM/REMU.
//
// Usage:
//
//	inst, ok := insts.Decode(0x00500093) // ADDI x1, x0, 5
//	if ok {
//		fmt.Printf("op: %v, rd: %d, imm: %d\n", inst.Op, inst.Rd, inst.Imm)
//	}
package insts

// Op represents a decoded RV32IM operation.
type Op uint8

// RV32IM operations.
const (
	OpUnknown Op = iota
	OpLUI
	OpAUIPC
	OpJAL
	OpJALR
	OpBEQ
	OpBNE
	OpBLT
	OpBGE
	OpBLTU
	OpBGEU
	OpLB
	OpLH
	OpLW
	OpLBU
	OpLHU
	OpSB
	OpSH
	OpSW
	OpADDI
	OpSLTI
	OpSLTIU
	OpXORI
	OpORI
	OpANDI
	OpSLLI
	OpSRLI
	OpSRAI
	OpADD
	OpSUB
	OpSLL
	OpSLT
	OpSLTU
	OpXOR
	OpSRL
	OpSRA
	OpOR
	OpAND
	OpFENCE
	OpFENCEI
	OpECALL
	OpEBREAK
	OpCSRRW
	OpCSRRS
	OpCSRRC
	OpCSRRWI
	OpCSRRSI
	OpCSRRCI
	OpMUL
	OpMULH
	OpMULHSU
	OpMULHU
	OpDIV
	OpDIVU
	OpREM
	OpREMU
)

// Format represents the instruction encoding format, which determines how
// the immediate and register operands are extracted.
type Format uint8

// RV32IM instruction formats.
const (
	FormatUnknown Format = iota
	FormatR
	FormatI
	FormatS
	FormatB
	FormatU
	FormatJ
)

var opNames = map[Op]string{
	OpLUI: "LUI", OpAUIPC: "AUIPC", OpJAL: "JAL", OpJALR: "JALR",
	OpBEQ: "BEQ", OpBNE: "BNE", OpBLT: "BLT", OpBGE: "BGE",
	OpBLTU: "BLTU", OpBGEU: "BGEU",
	OpLB: "LB", OpLH: "LH", OpLW: "LW", OpLBU: "LBU", OpLHU: "LHU",
	OpSB: "SB", OpSH: "SH", OpSW: "SW",
	OpADDI: "ADDI", OpSLTI: "SLTI", OpSLTIU: "SLTIU", OpXORI: "XORI",
	OpORI: "ORI", OpANDI: "ANDI", OpSLLI: "SLLI", OpSRLI: "SRLI", OpSRAI: "SRAI",
	OpADD: "ADD", OpSUB: "SUB", OpSLL: "SLL", OpSLT: "SLT", OpSLTU: "SLTU",
	OpXOR: "XOR", OpSRL: "SRL", OpSRA: "SRA", OpOR: "OR", OpAND: "AND",
	OpFENCE: "FENCE", OpFENCEI: "FENCE.I", OpECALL: "ECALL", OpEBREAK: "EBREAK",
	OpCSRRW: "CSRRW", OpCSRRS: "CSRRS", OpCSRRC: "CSRRC",
	OpCSRRWI: "CSRRWI", OpCSRRSI: "CSRRSI", OpCSRRCI: "CSRRCI",
	OpMUL: "MUL", OpMULH: "MULH", OpMULHSU: "MULHSU", OpMULHU: "MULHU",
	OpDIV: "DIV", OpDIVU: "DIVU", OpREM: "REM", OpREMU: "REMU",
}

// String returns the mnemonic for an operation.
func (o Op) String() string {
	if s, ok := opNames[o]; ok {
		return s
	}
	return "UNKNOWN"
}

// FormatOf returns the encoding format for an operation.
func FormatOf(op Op) Format {
	switch op {
	case OpADD, OpSUB, OpSLL, OpSLT, OpSLTU, OpXOR, OpSRL, OpSRA, OpOR, OpAND,
		OpMUL, OpMULH, OpMULHSU, OpMULHU, OpDIV, OpDIVU, OpREM, OpREMU:
		return FormatR
	case OpJALR, OpLB, OpLH, OpLW, OpLBU, OpLHU,
		OpADDI, OpSLTI, OpSLTIU, OpXORI, OpORI, OpANDI, OpSLLI, OpSRLI, OpSRAI,
		OpFENCE, OpFENCEI, OpECALL, OpEBREAK,
		OpCSRRW, OpCSRRS, OpCSRRC, OpCSRRWI, OpCSRRSI, OpCSRRCI:
		return FormatI
	case OpSB, OpSH, OpSW:
		return FormatS
	case OpBEQ, OpBNE, OpBLT, OpBGE, OpBLTU, OpBGEU:
		return FormatB
	case OpLUI, OpAUIPC:
		return FormatU
	case OpJAL:
		return FormatJ
	default:
		return FormatUnknown
	}
}

// UnitKind identifies which execute unit category handles an operation.
type UnitKind uint8

// Execute unit kinds.
const (
	UnitALU UnitKind = iota
	UnitBLU
	UnitMCU
)

// UnitOf returns the execute unit kind that handles the given operation.
func UnitOf(op Op) UnitKind {
	switch op {
	case OpJAL, OpJALR, OpBEQ, OpBNE, OpBLT, OpBGE, OpBLTU, OpBGEU, OpAUIPC:
		return UnitBLU
	case OpLB, OpLH, OpLW, OpLBU, OpLHU, OpSB, OpSH, OpSW,
		OpFENCE, OpFENCEI, OpECALL, OpEBREAK,
		OpCSRRW, OpCSRRS, OpCSRRC, OpCSRRWI, OpCSRRSI, OpCSRRCI:
		return UnitMCU
	default:
		return UnitALU
	}
}

// IsLoad reports whether op is a memory load.
func IsLoad(op Op) bool {
	switch op {
	case OpLB, OpLH, OpLW, OpLBU, OpLHU:
		return true
	default:
		return false
	}
}

// IsStore reports whether op is a memory store.
func IsStore(op Op) bool {
	switch op {
	case OpSB, OpSH, OpSW:
		return true
	default:
		return false
	}
}

// HasRd reports whether an operation writes a destination register.
func HasRd(op Op) bool {
	switch FormatOf(op) {
	case FormatR, FormatI, FormatU, FormatJ:
		return !IsStore(op)
	default:
		return false
	}
}

// Instruction is a fully decoded RV32IM instruction.
type Instruction struct {
	Op   Op
	Fmt  Format
	Rd   uint8 // valid iff HasRd(Op)
	Rs1  uint8 // valid iff format is R, I, S or B
	Rs2  uint8 // valid iff format is R, S or B
	Imm  int32 // valid iff format carries an immediate (I, S, B, U, J)
	Word uint32
}
