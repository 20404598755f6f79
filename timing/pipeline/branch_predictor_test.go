package pipeline_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rv32sim/insts"
	"github.com/sarchlab/rv32sim/timing/pipeline"
)

func TestBranchPredictor(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "BranchPredictor Suite")
}

func encodeBEQ(rs1, rs2 uint8, imm int32) uint32 {
	u := uint32(imm)
	return ((u >> 12) & 1 << 31) | ((u >> 5 & 0x3f) << 25) |
		uint32(rs2)<<20 | uint32(rs1)<<15 |
		((u >> 1 & 0xf) << 8) | ((u >> 11 & 1) << 7) | 0x63
}

func encodeJAL(rd uint8, imm int32) uint32 {
	u := uint32(imm)
	return ((u >> 20 & 1) << 31) | ((u >> 1 & 0x3ff) << 21) |
		((u >> 11 & 1) << 20) | ((u >> 12 & 0xff) << 12) |
		uint32(rd)<<7 | 0x6f
}

func encodeJALR(rd, rs1 uint8, imm int32) uint32 {
	return uint32(imm)<<20 | uint32(rs1)<<15 | uint32(rd)<<7 | 0x67
}

var _ = Describe("BranchPredictor", func() {
	It("predicts straight-line fall-through for non-control-flow instructions", func() {
		bp := pipeline.NewBranchPredictor(0)
		data := bp.Predict(0, []uint32{0x00000013}, 1) // NOP (ADDI x0,x0,0)
		Expect(data).To(HaveLen(1))
		Expect(data[0].Predicted).To(BeFalse())
		Expect(bp.GetPrediction()).To(Equal(uint32(4)))
	})

	It("predicts an unconditional JAL's target and pushes the return address for a call", func() {
		bp := pipeline.NewBranchPredictor(0)
		word := encodeJAL(1, 100)
		data := bp.Predict(0, []uint32{word}, 1)
		Expect(data[0].Predicted).To(BeTrue())
		Expect(data[0].PredictedPC).To(Equal(uint32(100)))
		Expect(data[0].PushedRAS).To(BeTrue())
		Expect(bp.GetPrediction()).To(Equal(uint32(100)))
	})

	It("predicts a return via the RAS after a call", func() {
		bp := pipeline.NewBranchPredictor(0)
		bp.Predict(0, []uint32{encodeJAL(1, 100)}, 1)

		ret := encodeJALR(0, 1, 0)
		data := bp.Predict(100, []uint32{ret}, 1)
		Expect(data[0].PoppedRAS).To(BeTrue())
		Expect(data[0].RASValue).To(Equal(uint32(4)))
		Expect(bp.GetPrediction()).To(Equal(uint32(4)))
	})

	It("defaults a weakly-not-taken conditional branch to fall-through", func() {
		bp := pipeline.NewBranchPredictor(0)
		word := encodeBEQ(1, 2, 16)
		data := bp.Predict(0, []uint32{word}, 1)
		Expect(data[0].UsedHistory).To(BeTrue())
		Expect(data[0].Predicted).To(BeFalse())
		Expect(bp.GetPrediction()).To(Equal(uint32(4)))
	})

	It("resolves a correct prediction as success and an incorrect one as failure", func() {
		bp := pipeline.NewBranchPredictor(0)

		correct := &pipeline.ROBEntry{PC: 0, ActPC: 4}
		Expect(bp.Resolve(correct)).To(BeTrue())

		wrong := &pipeline.ROBEntry{PC: 0, ActPC: 8}
		Expect(bp.Resolve(wrong)).To(BeFalse())

		Expect(bp.Stats.Success).To(Equal(uint64(1)))
		Expect(bp.Stats.Failure).To(Equal(uint64(1)))
		Expect(bp.Stats.Rate()).To(Equal(0.5))
	})

	It("strengthens the history counter toward taken after repeated taken outcomes", func() {
		bp := pipeline.NewBranchPredictor(0)
		word := encodeBEQ(1, 2, 16)
		// The table index is pc XOR global history, and each taken outcome
		// shifts a 1 into the history: after 8 outcomes it saturates at 0xFF,
		// and the 9th lifts entry 0xFF from weakly-not-taken to taken.
		for i := 0; i < 9; i++ {
			data := bp.Predict(0, []uint32{word}, 1)
			entry := &pipeline.ROBEntry{PC: 0, ActPC: 16, BP: data[0]}
			bp.Resolve(entry)
		}

		data := bp.Predict(0, []uint32{word}, 1)
		Expect(data[0].Predicted).To(BeTrue())
		Expect(data[0].PredictedPC).To(Equal(uint32(16)))
	})

	It("undoes a pushed RAS entry on flush", func() {
		bp := pipeline.NewBranchPredictor(0)
		data := bp.Predict(0, []uint32{encodeJAL(1, 100)}, 1)
		bp.UndoRAS(data[0])

		ret := bp.Predict(100, []uint32{encodeJALR(0, 1, 0)}, 1)
		Expect(ret[0].PoppedRAS).To(BeFalse())
	})

	It("undoes a popped RAS entry on flush by restoring it", func() {
		bp := pipeline.NewBranchPredictor(0)
		bp.Predict(0, []uint32{encodeJAL(1, 100)}, 1)
		popped := bp.Predict(100, []uint32{encodeJALR(0, 1, 0)}, 1)

		bp.UndoRAS(popped[0])

		ret := bp.Predict(200, []uint32{encodeJALR(0, 1, 0)}, 1)
		Expect(ret[0].PoppedRAS).To(BeTrue())
		Expect(ret[0].RASValue).To(Equal(uint32(4)))
	})

	It("never halts decode early, per the reference model", func() {
		bp := pipeline.NewBranchPredictor(0)
		Expect(bp.ShouldHaltDecode(insts.OpECALL)).To(BeFalse())
		Expect(bp.ShouldHaltDecode(insts.OpJAL)).To(BeFalse())
	})

	It("restores the fetch address on ForceUpdate", func() {
		bp := pipeline.NewBranchPredictor(0)
		bp.Predict(0, []uint32{encodeJAL(1, 100)}, 1)
		bp.ForceUpdate(8)
		Expect(bp.GetPrediction()).To(Equal(uint32(8)))
	})
})
