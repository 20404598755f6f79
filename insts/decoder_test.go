package insts_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rv32sim/insts"
)

var _ = Describe("Decoder", func() {
	Describe("I-type arithmetic", func() {
		It("should decode ADDI x1, x0, 5", func() {
			inst, ok := insts.Decode(0x00500093)

			Expect(ok).To(BeTrue())
			Expect(inst.Op).To(Equal(insts.OpADDI))
			Expect(inst.Fmt).To(Equal(insts.FormatI))
			Expect(inst.Rd).To(Equal(uint8(1)))
			Expect(inst.Rs1).To(Equal(uint8(0)))
			Expect(inst.Imm).To(Equal(int32(5)))
		})

		It("should sign-extend a negative I-type immediate", func() {
			// ADDI x1, x0, -1 -> imm field all ones.
			inst, ok := insts.Decode(0xFFF00093)

			Expect(ok).To(BeTrue())
			Expect(inst.Op).To(Equal(insts.OpADDI))
			Expect(inst.Imm).To(Equal(int32(-1)))
		})
	})

	Describe("R-type arithmetic", func() {
		It("should decode ADD x3, x1, x2", func() {
			inst, ok := insts.Decode(0x002081B3)

			Expect(ok).To(BeTrue())
			Expect(inst.Op).To(Equal(insts.OpADD))
			Expect(inst.Fmt).To(Equal(insts.FormatR))
			Expect(inst.Rd).To(Equal(uint8(3)))
			Expect(inst.Rs1).To(Equal(uint8(1)))
			Expect(inst.Rs2).To(Equal(uint8(2)))
		})

		It("should decode SUB distinctly from ADD via funct7", func() {
			// SUB x3, x1, x2
			inst, ok := insts.Decode(0x402081B3)

			Expect(ok).To(BeTrue())
			Expect(inst.Op).To(Equal(insts.OpSUB))
		})

		It("should decode RV32M MUL", func() {
			// MUL x3, x1, x2
			inst, ok := insts.Decode(0x022081B3)

			Expect(ok).To(BeTrue())
			Expect(inst.Op).To(Equal(insts.OpMUL))
			Expect(insts.UnitOf(inst.Op)).To(Equal(insts.UnitALU))
		})
	})

	Describe("U-type", func() {
		It("should decode LUI x5, 0x12345", func() {
			inst, ok := insts.Decode(0x123452B7)

			Expect(ok).To(BeTrue())
			Expect(inst.Op).To(Equal(insts.OpLUI))
			Expect(inst.Rd).To(Equal(uint8(5)))
			Expect(inst.Imm).To(Equal(int32(0x12345000)))
		})
	})

	Describe("J-type", func() {
		It("should decode JAL x1, +8", func() {
			inst, ok := insts.Decode(0x008000EF)

			Expect(ok).To(BeTrue())
			Expect(inst.Op).To(Equal(insts.OpJAL))
			Expect(inst.Rd).To(Equal(uint8(1)))
			Expect(inst.Imm).To(Equal(int32(8)))
		})

		It("should decode a negative J-type offset", func() {
			// JAL x0, -8 : imm bits encode -8 relative offset.
			inst, ok := insts.Decode(0xFF9FF06F)

			Expect(ok).To(BeTrue())
			Expect(inst.Op).To(Equal(insts.OpJAL))
			Expect(inst.Imm).To(Equal(int32(-8)))
		})
	})

	Describe("B-type", func() {
		It("should decode BNE with a positive offset", func() {
			// BNE x1, x0, +8
			inst, ok := insts.Decode(0x00009463)

			Expect(ok).To(BeTrue())
			Expect(inst.Op).To(Equal(insts.OpBNE))
			Expect(inst.Rs1).To(Equal(uint8(1)))
			Expect(inst.Rs2).To(Equal(uint8(0)))
			Expect(inst.Imm).To(Equal(int32(8)))
		})
	})

	Describe("S-type", func() {
		It("should decode SW x1, 0(x2)", func() {
			inst, ok := insts.Decode(0x00112023)

			Expect(ok).To(BeTrue())
			Expect(inst.Op).To(Equal(insts.OpSW))
			Expect(inst.Rs1).To(Equal(uint8(2)))
			Expect(inst.Rs2).To(Equal(uint8(1)))
			Expect(inst.Imm).To(Equal(int32(0)))
		})
	})

	Describe("JALR", func() {
		It("should decode a return via x1", func() {
			inst, ok := insts.Decode(0x00008067)

			Expect(ok).To(BeTrue())
			Expect(inst.Op).To(Equal(insts.OpJALR))
			Expect(inst.Rs1).To(Equal(uint8(1)))
			Expect(inst.Imm).To(Equal(int32(0)))
		})
	})

	Describe("system instructions", func() {
		It("should decode ECALL as a no-rd, no-operand instruction", func() {
			inst, ok := insts.Decode(0x00000073)

			Expect(ok).To(BeTrue())
			Expect(inst.Op).To(Equal(insts.OpECALL))
			Expect(insts.UnitOf(inst.Op)).To(Equal(insts.UnitMCU))
		})

		It("should decode EBREAK", func() {
			inst, ok := insts.Decode(0x00100073)

			Expect(ok).To(BeTrue())
			Expect(inst.Op).To(Equal(insts.OpEBREAK))
		})
	})

	Describe("unknown encodings", func() {
		It("should fail to decode an all-ones word", func() {
			_, ok := insts.Decode(0xFFFFFFFF)

			Expect(ok).To(BeFalse())
		})
	})
})
