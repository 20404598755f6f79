package emu

import "github.com/sarchlab/rv32sim/insts"

// LoadStoreUnit implements RV32I load and store access.
type LoadStoreUnit struct {
	memory *Memory
}

// NewLoadStoreUnit creates a LoadStoreUnit connected to the given memory.
func NewLoadStoreUnit(memory *Memory) *LoadStoreUnit {
	return &LoadStoreUnit{memory: memory}
}

// Load reads a value for the given load operation at addr, sign- or
// zero-extending it to 32 bits as the opcode requires. The returned bool
// reports whether the access was naturally aligned.
func (lsu *LoadStoreUnit) Load(op insts.Op, addr uint32) (int32, bool) {
	switch op {
	case insts.OpLB:
		return int32(int8(lsu.memory.Read8(addr))), true
	case insts.OpLBU:
		return int32(lsu.memory.Read8(addr)), true
	case insts.OpLH:
		v, aligned := lsu.memory.Read16(addr)
		return int32(int16(v)), aligned
	case insts.OpLHU:
		v, aligned := lsu.memory.Read16(addr)
		return int32(v), aligned
	case insts.OpLW:
		v, aligned := lsu.memory.Read32(addr)
		return int32(v), aligned
	default:
		return 0, true
	}
}

// Store writes value to addr for the given store operation, truncating to
// the operation's width. The returned bool reports natural alignment.
func (lsu *LoadStoreUnit) Store(op insts.Op, addr uint32, value int32) bool {
	switch op {
	case insts.OpSB:
		lsu.memory.Write8(addr, uint8(value))
		return true
	case insts.OpSH:
		return lsu.memory.Write16(addr, uint16(value))
	case insts.OpSW:
		return lsu.memory.Write32(addr, uint32(value))
	default:
		return true
	}
}
