package pipeline

import "github.com/sarchlab/rv32sim/insts"

const (
	historyBits = 8
	tableSize   = 1 << historyBits
	tableMask   = tableSize - 1
)

// BranchPredictorStats tracks prediction outcomes for statistics output.
type BranchPredictorStats struct {
	Success uint64
	Failure uint64
}

// Rate returns the fraction of resolved predictions that were correct.
func (s BranchPredictorStats) Rate() float64 {
	total := s.Success + s.Failure
	if total == 0 {
		return 0
	}
	return float64(s.Success) / float64(total)
}

// BranchPredictor tracks the speculative fetch address (lc), a 2-bit
// global-history bimodal table for conditional branches, and a return
// address stack for JAL/JALR call-return pairs.
type BranchPredictor struct {
	lc      uint32
	oldLc   uint32
	history uint32
	table   [tableSize]uint8

	ras []uint32

	Enabled bool
	Stats   BranchPredictorStats
}

// NewBranchPredictor creates a predictor starting at entry, with the
// history table initialized to weakly-not-taken.
func NewBranchPredictor(entry uint32) *BranchPredictor {
	bp := &BranchPredictor{lc: entry, oldLc: entry, Enabled: true}
	for i := range bp.table {
		bp.table[i] = 1
	}
	return bp
}

// GetPrediction returns the current fetch address.
func (bp *BranchPredictor) GetPrediction() uint32 {
	return bp.lc
}

func (bp *BranchPredictor) historyIndex(pc uint32) uint32 {
	return ((pc >> 2) ^ bp.history) & tableMask
}

// Predict inspects up to w fetched words starting at pc, decoding each to
// adjust the speculative fetch address and recording per-instruction
// BPData so commit-time resolve can undo the prediction precisely. It
// returns the per-instruction side-band data. The packet ends after the
// first instruction with a recorded prediction (a jump, a return, or a
// branch predicted taken), after an undecodable word, or where
// should_halt_decode stops decode, so fewer than w entries may be returned.
func (bp *BranchPredictor) Predict(pc uint32, words []uint32, w int) []BPData {
	bp.oldLc = bp.lc
	bp.lc = pc + uint32(4*w)

	n := len(words)
	if n > w {
		n = w
	}

	data := make([]BPData, 0, n)

	for i := 0; i < n; i++ {
		instPC := pc + uint32(4*i)
		d := BPData{}

		inst, ok := insts.Decode(words[i])
		if !ok {
			bp.lc = instPC + 4
			data = append(data, d)
			break
		}

		switch {
		case inst.Op == insts.OpJAL:
			target := uint32(int32(instPC) + inst.Imm)
			d.Predicted, d.PredictedPC = true, target
			if inst.Rd == 1 {
				d.PushedRAS, d.RASValue = true, instPC+4
				bp.ras = append(bp.ras, instPC+4)
			}
			bp.lc = target

		case inst.Op == insts.OpJALR && inst.Rs1 == 1 && inst.Imm == 0:
			if len(bp.ras) > 0 {
				popped := bp.ras[len(bp.ras)-1]
				bp.ras = bp.ras[:len(bp.ras)-1]
				d.PoppedRAS, d.RASValue = true, popped
				d.Predicted, d.PredictedPC = true, popped
				bp.lc = popped
			} else {
				d.Predicted, d.PredictedPC = true, instPC+4
				bp.lc = instPC + 4
			}

		case insts.FormatOf(inst.Op) == insts.FormatB:
			idx := bp.historyIndex(instPC)
			d.UsedHistory, d.HistoryIndex = true, idx
			if bp.table[idx] >= 2 {
				target := uint32(int32(instPC) + inst.Imm)
				d.Predicted, d.PredictedPC = true, target
				bp.lc = target
			} else {
				bp.lc = instPC + 4
			}

		default:
			bp.lc = instPC + 4
		}

		data = append(data, d)

		if d.Predicted || bp.ShouldHaltDecode(inst.Op) {
			break
		}
	}

	return data
}

// ForceUpdate restores the fetch address after a stall or flush.
func (bp *BranchPredictor) ForceUpdate(pc uint32) {
	bp.oldLc = pc
	bp.lc = pc
}

// Resolve is called at commit with an entry's recorded BPData and its
// actual outcome, updating the 2-bit history table and statistics. It
// reports whether the prediction was correct.
func (bp *BranchPredictor) Resolve(entry *ROBEntry) bool {
	predictedPC := entry.PC + 4
	if entry.BP.Predicted {
		predictedPC = entry.BP.PredictedPC
	}
	correct := predictedPC == entry.ActPC

	if correct {
		bp.Stats.Success++
	} else {
		bp.Stats.Failure++
	}

	if entry.BP.UsedHistory {
		actualTaken := entry.ActPC != entry.PC+4
		idx := entry.BP.HistoryIndex
		if actualTaken && bp.table[idx] < 3 {
			bp.table[idx]++
		} else if !actualTaken && bp.table[idx] > 0 {
			bp.table[idx]--
		}
		bp.history = ((bp.history << 1) | boolToBit(actualTaken)) & tableMask
	}

	return correct
}

// UndoRAS reverses a speculative return-stack push or pop recorded in a
// flushed entry's BPData, restoring the stack to its state before that
// entry was predicted. Callers must undo flushed entries newest-first.
func (bp *BranchPredictor) UndoRAS(d BPData) {
	switch {
	case d.PushedRAS:
		if len(bp.ras) > 0 {
			bp.ras = bp.ras[:len(bp.ras)-1]
		}
	case d.PoppedRAS:
		bp.ras = append(bp.ras, d.RASValue)
	}
}

// ShouldHaltDecode reports whether decode should stop consuming further
// words in this tick after op. The reference predictor never halts early.
func (bp *BranchPredictor) ShouldHaltDecode(op insts.Op) bool {
	return false
}

func boolToBit(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
