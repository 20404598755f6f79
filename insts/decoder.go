package insts

// Decoder decodes 32-bit RISC-V machine words into Instruction values.
// It is stateless; NewDecoder exists only to match the construction style
// used by the rest of the simulator's components.
type Decoder struct{}

// NewDecoder creates a new RV32IM decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode is a convenience wrapper around the package-level Decode function.
func (d *Decoder) Decode(word uint32) (Instruction, bool) {
	return Decode(word)
}

const regMask = 0x1F

// Decode parses a 32-bit instruction word into a decoded Instruction.
// It returns false if the word does not match any known RV32IM encoding.
func Decode(word uint32) (Instruction, bool) {
	opcode := word & 0x7F
	funct3 := (word >> 12) & 0x7
	funct7 := (word >> 25) & 0x7F

	op, ok := lookupOp(word, opcode, funct3, funct7)
	if !ok {
		return Instruction{}, false
	}

	fmtKind := FormatOf(op)
	inst := Instruction{Op: op, Fmt: fmtKind, Word: word}

	switch fmtKind {
	case FormatR:
		inst.Rd = uint8((word >> 7) & regMask)
		inst.Rs1 = uint8((word >> 15) & regMask)
		inst.Rs2 = uint8((word >> 20) & regMask)
	case FormatI:
		if HasRd(op) {
			inst.Rd = uint8((word >> 7) & regMask)
		}
		inst.Rs1 = uint8((word >> 15) & regMask)
		inst.Imm = immI(word)
		// Shift-immediates (SLLI/SRLI/SRAI) encode the shift amount in the
		// same bit positions as rs2; funct7 already selected SRAI vs SRLI.
		if op == OpSLLI || op == OpSRLI || op == OpSRAI {
			inst.Imm = int32((word >> 20) & regMask)
		}
	case FormatS:
		inst.Rs1 = uint8((word >> 15) & regMask)
		inst.Rs2 = uint8((word >> 20) & regMask)
		inst.Imm = immS(word)
	case FormatB:
		inst.Rs1 = uint8((word >> 15) & regMask)
		inst.Rs2 = uint8((word >> 20) & regMask)
		inst.Imm = immB(word)
	case FormatU:
		inst.Rd = uint8((word >> 7) & regMask)
		inst.Imm = immU(word)
	case FormatJ:
		inst.Rd = uint8((word >> 7) & regMask)
		inst.Imm = immJ(word)
	default:
		return Instruction{}, false
	}

	return inst, true
}

// lookupOp resolves the base opcode together with funct3/funct7 into a
// concrete Operation, following the RV32IM encoding table.
func lookupOp(word, opcode, funct3, funct7 uint32) (Op, bool) {
	switch opcode {
	case 0x37: // LUI
		return OpLUI, true
	case 0x17: // AUIPC
		return OpAUIPC, true
	case 0x6F: // JAL
		return OpJAL, true
	case 0x67: // JALR
		if funct3 == 0x0 {
			return OpJALR, true
		}
	case 0x63: // BRANCH
		switch funct3 {
		case 0x0:
			return OpBEQ, true
		case 0x1:
			return OpBNE, true
		case 0x4:
			return OpBLT, true
		case 0x5:
			return OpBGE, true
		case 0x6:
			return OpBLTU, true
		case 0x7:
			return OpBGEU, true
		}
	case 0x03: // LOAD
		switch funct3 {
		case 0x0:
			return OpLB, true
		case 0x1:
			return OpLH, true
		case 0x2:
			return OpLW, true
		case 0x4:
			return OpLBU, true
		case 0x5:
			return OpLHU, true
		}
	case 0x23: // STORE
		switch funct3 {
		case 0x0:
			return OpSB, true
		case 0x1:
			return OpSH, true
		case 0x2:
			return OpSW, true
		}
	case 0x13: // OP-IMM
		switch funct3 {
		case 0x0:
			return OpADDI, true
		case 0x2:
			return OpSLTI, true
		case 0x3:
			return OpSLTIU, true
		case 0x4:
			return OpXORI, true
		case 0x6:
			return OpORI, true
		case 0x7:
			return OpANDI, true
		case 0x1:
			if funct7 == 0x00 {
				return OpSLLI, true
			}
		case 0x5:
			switch funct7 {
			case 0x00:
				return OpSRLI, true
			case 0x20:
				return OpSRAI, true
			}
		}
	case 0x33: // OP
		switch funct7 {
		case 0x00:
			switch funct3 {
			case 0x0:
				return OpADD, true
			case 0x1:
				return OpSLL, true
			case 0x2:
				return OpSLT, true
			case 0x3:
				return OpSLTU, true
			case 0x4:
				return OpXOR, true
			case 0x5:
				return OpSRL, true
			case 0x6:
				return OpOR, true
			case 0x7:
				return OpAND, true
			}
		case 0x20:
			switch funct3 {
			case 0x0:
				return OpSUB, true
			case 0x5:
				return OpSRA, true
			}
		case 0x01: // RV32M
			switch funct3 {
			case 0x0:
				return OpMUL, true
			case 0x1:
				return OpMULH, true
			case 0x2:
				return OpMULHSU, true
			case 0x3:
				return OpMULHU, true
			case 0x4:
				return OpDIV, true
			case 0x5:
				return OpDIVU, true
			case 0x6:
				return OpREM, true
			case 0x7:
				return OpREMU, true
			}
		}
	case 0x0F: // MISC-MEM
		switch funct3 {
		case 0x0:
			return OpFENCE, true
		case 0x1:
			return OpFENCEI, true
		}
	case 0x73: // SYSTEM
		switch funct3 {
		case 0x0:
			return systemImmOp((word >> 20) & 0xFFF)
		case 0x1:
			return OpCSRRW, true
		case 0x2:
			return OpCSRRS, true
		case 0x3:
			return OpCSRRC, true
		case 0x5:
			return OpCSRRWI, true
		case 0x6:
			return OpCSRRSI, true
		case 0x7:
			return OpCSRRCI, true
		}
	}
	return OpUnknown, false
}

// systemImmOp disambiguates ECALL (imm12=0) from EBREAK (imm12=1) for the
// funct3=0 SYSTEM encodings.
func systemImmOp(imm12 uint32) (Op, bool) {
	switch imm12 {
	case 0x000:
		return OpECALL, true
	case 0x001:
		return OpEBREAK, true
	default:
		return OpUnknown, false
	}
}

// immI sign-extends the 12-bit I-type immediate from instr[31:20].
func immI(w uint32) int32 {
	return int32(w) >> 20
}

// immS concatenates instr[31:25] and instr[11:7] and sign-extends.
func immS(w uint32) int32 {
	raw := ((w >> 25) << 5) | ((w >> 7) & 0x1F)
	return signExtend(raw, 12)
}

// immB concatenates instr[31]|instr[7]|instr[30:25]|instr[11:8]|0 and
// sign-extends the resulting 13-bit value.
func immB(w uint32) int32 {
	raw := (((w >> 31) & 0x1) << 12) |
		(((w >> 7) & 0x1) << 11) |
		(((w >> 25) & 0x3F) << 5) |
		(((w >> 8) & 0xF) << 1)
	return signExtend(raw, 13)
}

// immU returns instr[31:12] shifted into place; bit 31 already carries the
// correct sign into a 32-bit result so no further extension is needed.
func immU(w uint32) int32 {
	return int32(w & 0xFFFFF000)
}

// immJ concatenates instr[31]|instr[19:12]|instr[20]|instr[30:21]|0 and
// sign-extends the resulting 21-bit value.
func immJ(w uint32) int32 {
	raw := (((w >> 31) & 0x1) << 20) |
		(((w >> 12) & 0xFF) << 12) |
		(((w >> 20) & 0x1) << 11) |
		(((w >> 21) & 0x3FF) << 1)
	return signExtend(raw, 21)
}

// signExtend sign-extends the low `bits` bits of raw to a full int32.
func signExtend(raw uint32, bits uint) int32 {
	shift := 32 - bits
	return int32(raw<<shift) >> shift
}
