package pipeline

// FetchLatch holds the most recently fetched instruction group, together
// with the predictor's side-band data, waiting for decode & rename to
// consume it.
type FetchLatch struct {
	Valid bool
	PC    uint32
	Words []uint32
	BP    []BPData
}

// Clear empties the fetch latch.
func (f *FetchLatch) Clear() {
	f.Valid = false
	f.PC = 0
	f.Words = nil
	f.BP = nil
}
