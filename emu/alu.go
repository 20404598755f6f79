package emu

import "github.com/sarchlab/rv32sim/insts"

// ALU implements RV32IM integer arithmetic and logic, bound to a register
// file for the single-cycle reference interpreter. The pipeline's ALU
// execute unit reuses the pure Compute function directly.
type ALU struct {
	regFile *RegFile
}

// NewALU creates a new ALU connected to the given register file.
func NewALU(regFile *RegFile) *ALU {
	return &ALU{regFile: regFile}
}

// Exec performs an R-type or I-type arithmetic/logical operation and writes
// the result to rd.
func (a *ALU) Exec(op insts.Op, rd, rs1 uint8, rs2Val int32) {
	op1 := a.regFile.ReadReg(rs1)
	result := Compute(op, op1, rs2Val)
	a.regFile.WriteReg(rd, result)
}

// Compute evaluates an RV32IM ALU operation on two 32-bit operands. For
// I-type instructions rs2 is the sign-extended immediate; for shift
// immediates only the low 5 bits are significant (callers mask ahead of
// time or rely on the shift amount already being in range).
func Compute(op insts.Op, rs1, rs2 int32) int32 {
	u1, u2 := uint32(rs1), uint32(rs2)

	switch op {
	case insts.OpADD, insts.OpADDI:
		return rs1 + rs2
	case insts.OpSUB:
		return rs1 - rs2
	case insts.OpSLL, insts.OpSLLI:
		return int32(u1 << (u2 & 0x1F))
	case insts.OpSLT, insts.OpSLTI:
		return boolToInt32(rs1 < rs2)
	case insts.OpSLTU, insts.OpSLTIU:
		return boolToInt32(u1 < u2)
	case insts.OpXOR, insts.OpXORI:
		return rs1 ^ rs2
	case insts.OpSRL, insts.OpSRLI:
		return int32(u1 >> (u2 & 0x1F))
	case insts.OpSRA, insts.OpSRAI:
		return rs1 >> (u2 & 0x1F)
	case insts.OpOR, insts.OpORI:
		return rs1 | rs2
	case insts.OpAND, insts.OpANDI:
		return rs1 & rs2
	case insts.OpMUL:
		return rs1 * rs2
	case insts.OpMULH:
		return int32((int64(rs1) * int64(rs2)) >> 32)
	case insts.OpMULHU:
		return int32((uint64(u1) * uint64(u2)) >> 32)
	case insts.OpMULHSU:
		return int32((int64(rs1) * int64(uint64(u2))) >> 32)
	case insts.OpDIV:
		return divSigned(rs1, rs2)
	case insts.OpDIVU:
		return divUnsigned(u1, u2)
	case insts.OpREM:
		return remSigned(rs1, rs2)
	case insts.OpREMU:
		return remUnsigned(u1, u2)
	default:
		return 0
	}
}

// divSigned implements RV32M DIV: divide-by-zero yields -1; the signed
// overflow case INT_MIN/-1 yields INT_MIN.
func divSigned(a, b int32) int32 {
	if b == 0 {
		return -1
	}
	if a == minInt32 && b == -1 {
		return minInt32
	}
	return a / b
}

// divUnsigned implements RV32M DIVU: divide-by-zero yields 2^32-1.
func divUnsigned(a, b uint32) int32 {
	if b == 0 {
		return -1 // all ones: 2^32-1 read as unsigned
	}
	return int32(a / b)
}

// remSigned implements RV32M REM: divide-by-zero yields the dividend; the
// signed overflow case INT_MIN/-1 yields a zero remainder.
func remSigned(a, b int32) int32 {
	if b == 0 {
		return a
	}
	if a == minInt32 && b == -1 {
		return 0
	}
	return a % b
}

// remUnsigned implements RV32M REMU: divide-by-zero yields the dividend.
func remUnsigned(a, b uint32) int32 {
	if b == 0 {
		return int32(a)
	}
	return int32(a % b)
}

const minInt32 = int32(-1) << 31

func boolToInt32(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
