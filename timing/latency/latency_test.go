package latency_test

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rv32sim/insts"
	"github.com/sarchlab/rv32sim/timing/latency"
)

func TestLatency(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Latency Suite")
}

var _ = Describe("Latency", func() {
	var table *latency.Table

	BeforeEach(func() {
		table = latency.NewTable()
	})

	Describe("Default Timing Values", func() {
		It("should have correct ALU latency", func() {
			Expect(table.Config().ALULatency).To(Equal(uint64(1)))
		})

		It("should have correct branch latency", func() {
			Expect(table.Config().BranchLatency).To(Equal(uint64(1)))
		})

		It("should have correct multiply latency", func() {
			Expect(table.Config().MultiplyLatency).To(Equal(uint64(3)))
		})

		It("should have correct divide latency", func() {
			Expect(table.Config().DivideLatency).To(Equal(uint64(7)))
		})

		It("should have correct memory latency", func() {
			Expect(table.Config().MemoryLatency).To(Equal(uint64(3)))
		})
	})

	Describe("ALU instruction latencies", func() {
		It("is 1 step, non-blocking for ADD/SUB/logic/shift/compare", func() {
			for _, op := range []insts.Op{
				insts.OpADD, insts.OpSUB, insts.OpAND, insts.OpOR, insts.OpXOR,
				insts.OpSLT, insts.OpSLTU, insts.OpSLL, insts.OpSRL, insts.OpSRA,
				insts.OpADDI, insts.OpANDI,
			} {
				entry := table.Lookup(op)
				Expect(entry.Steps).To(Equal(uint64(1)), op.String())
				Expect(entry.Blocking).To(BeFalse(), op.String())
			}
		})
	})

	Describe("multiply instruction latencies", func() {
		It("is 3 steps, non-blocking for MUL family", func() {
			for _, op := range []insts.Op{insts.OpMUL, insts.OpMULH, insts.OpMULHSU, insts.OpMULHU} {
				entry := table.Lookup(op)
				Expect(entry.Steps).To(Equal(uint64(3)))
				Expect(entry.Blocking).To(BeFalse())
			}
		})
	})

	Describe("divide instruction latencies", func() {
		It("is 7 steps, blocking for DIV/REM family", func() {
			for _, op := range []insts.Op{insts.OpDIV, insts.OpDIVU, insts.OpREM, insts.OpREMU} {
				entry := table.Lookup(op)
				Expect(entry.Steps).To(Equal(uint64(7)))
				Expect(entry.Blocking).To(BeTrue())
			}
		})
	})

	Describe("branch instruction latencies", func() {
		It("is 1 step, non-blocking for branches and jumps", func() {
			for _, op := range []insts.Op{
				insts.OpBEQ, insts.OpBNE, insts.OpBLT, insts.OpBGE,
				insts.OpBLTU, insts.OpBGEU, insts.OpJAL, insts.OpJALR,
			} {
				entry := table.Lookup(op)
				Expect(entry.Steps).To(Equal(uint64(1)))
				Expect(entry.Blocking).To(BeFalse())
			}
		})
	})

	Describe("memory instruction latencies", func() {
		It("is 3 steps, blocking for loads and stores", func() {
			for _, op := range []insts.Op{
				insts.OpLB, insts.OpLH, insts.OpLW, insts.OpLBU, insts.OpLHU,
				insts.OpSB, insts.OpSH, insts.OpSW,
			} {
				entry := table.Lookup(op)
				Expect(entry.Steps).To(Equal(uint64(3)))
				Expect(entry.Blocking).To(BeTrue())
			}
		})
	})

	Describe("misc instruction latencies", func() {
		It("is 1 step, non-blocking for FENCE/ECALL/EBREAK/CSR*", func() {
			for _, op := range []insts.Op{
				insts.OpFENCE, insts.OpFENCEI, insts.OpECALL, insts.OpEBREAK,
				insts.OpCSRRW, insts.OpCSRRS, insts.OpCSRRC,
				insts.OpCSRRWI, insts.OpCSRRSI, insts.OpCSRRCI,
			} {
				entry := table.Lookup(op)
				Expect(entry.Steps).To(Equal(uint64(1)))
				Expect(entry.Blocking).To(BeFalse())
			}
		})
	})

	Describe("Custom Configuration", func() {
		It("should use custom config values", func() {
			config := &latency.TimingConfig{
				ALULatency:      2,
				BranchLatency:   3,
				MultiplyLatency: 4,
				DivideLatency:   9,
				MemoryLatency:   5,
				MiscLatency:     1,
			}
			customTable := latency.NewTableWithConfig(config)

			Expect(customTable.GetLatency(insts.OpADD)).To(Equal(uint64(2)))
			Expect(customTable.GetLatency(insts.OpLW)).To(Equal(uint64(5)))
			Expect(customTable.GetLatency(insts.OpBEQ)).To(Equal(uint64(3)))
		})
	})
})

var _ = Describe("TimingConfig", func() {
	Describe("Default Config", func() {
		It("should create valid default config", func() {
			config := latency.DefaultTimingConfig()
			Expect(config.Validate()).To(Succeed())
		})
	})

	Describe("Validation", func() {
		It("should reject zero ALU latency", func() {
			config := latency.DefaultTimingConfig()
			config.ALULatency = 0
			Expect(config.Validate()).To(HaveOccurred())
		})

		It("should reject zero branch latency", func() {
			config := latency.DefaultTimingConfig()
			config.BranchLatency = 0
			Expect(config.Validate()).To(HaveOccurred())
		})

		It("should reject zero memory latency", func() {
			config := latency.DefaultTimingConfig()
			config.MemoryLatency = 0
			Expect(config.Validate()).To(HaveOccurred())
		})

		It("should reject zero divide latency", func() {
			config := latency.DefaultTimingConfig()
			config.DivideLatency = 0
			Expect(config.Validate()).To(HaveOccurred())
		})
	})

	Describe("Clone", func() {
		It("should create independent copy", func() {
			original := latency.DefaultTimingConfig()
			clone := original.Clone()

			clone.ALULatency = 100

			Expect(original.ALULatency).To(Equal(uint64(1)))
			Expect(clone.ALULatency).To(Equal(uint64(100)))
		})
	})

	Describe("File Operations", func() {
		var tempDir string

		BeforeEach(func() {
			var err error
			tempDir, err = os.MkdirTemp("", "latency-test")
			Expect(err).NotTo(HaveOccurred())
		})

		AfterEach(func() {
			_ = os.RemoveAll(tempDir)
		})

		It("should save and load config", func() {
			original := latency.DefaultTimingConfig()
			original.ALULatency = 5
			original.MemoryLatency = 10

			path := filepath.Join(tempDir, "timing.json")
			Expect(original.SaveConfig(path)).To(Succeed())

			loaded, err := latency.LoadConfig(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.ALULatency).To(Equal(uint64(5)))
			Expect(loaded.MemoryLatency).To(Equal(uint64(10)))
		})

		It("should return error for non-existent file", func() {
			_, err := latency.LoadConfig("/nonexistent/path/timing.json")
			Expect(err).To(HaveOccurred())
		})

		It("should return error for invalid JSON", func() {
			path := filepath.Join(tempDir, "invalid.json")
			err := os.WriteFile(path, []byte("not valid json"), 0644)
			Expect(err).NotTo(HaveOccurred())

			_, err = latency.LoadConfig(path)
			Expect(err).To(HaveOccurred())
		})
	})
})
