package emu

import "github.com/sarchlab/rv32sim/insts"

// BranchUnit evaluates RV32 branch and jump conditions and computes target
// addresses. It holds no register-file-mutating state of its own; the
// register file update (rd = pc+4 for JAL/JALR) is performed by the caller.
type BranchUnit struct{}

// NewBranchUnit creates a new BranchUnit.
func NewBranchUnit() *BranchUnit {
	return &BranchUnit{}
}

// Taken evaluates a B-type condition given the two compared operands.
func (b *BranchUnit) Taken(op insts.Op, rs1, rs2 int32) bool {
	u1, u2 := uint32(rs1), uint32(rs2)
	switch op {
	case insts.OpBEQ:
		return rs1 == rs2
	case insts.OpBNE:
		return rs1 != rs2
	case insts.OpBLT:
		return rs1 < rs2
	case insts.OpBGE:
		return rs1 >= rs2
	case insts.OpBLTU:
		return u1 < u2
	case insts.OpBGEU:
		return u1 >= u2
	default:
		return false
	}
}

// JALRTarget computes the JALR target address: (rs1 + imm) with the
// low bit cleared.
func JALRTarget(rs1, imm int32) uint32 {
	return uint32(rs1+imm) &^ 1
}
