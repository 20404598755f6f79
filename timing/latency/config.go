package latency

import (
	"encoding/json"
	"fmt"
	"os"
)

// TimingConfig holds the step count for each class of execute-unit work.
type TimingConfig struct {
	// ALULatency is the step count for simple ALU ops (arithmetic, logic,
	// shift, compare). Default: 1 step, non-blocking.
	ALULatency uint64 `json:"alu_latency"`

	// BranchLatency is the step count for BLU resolution (branches, JAL,
	// JALR). Default: 1 step, non-blocking.
	BranchLatency uint64 `json:"branch_latency"`

	// MultiplyLatency is the step count for MUL/MULH/MULHU/MULHSU.
	// Default: 3 steps, non-blocking.
	MultiplyLatency uint64 `json:"multiply_latency"`

	// DivideLatency is the step count for DIV/DIVU/REM/REMU.
	// Default: 7 steps, blocking.
	DivideLatency uint64 `json:"divide_latency"`

	// MemoryLatency is the step count for loads and stores.
	// Default: 3 steps, blocking.
	MemoryLatency uint64 `json:"memory_latency"`

	// MiscLatency is the step count for FENCE/ECALL/EBREAK/CSR* no-ops.
	// Default: 1 step, non-blocking.
	MiscLatency uint64 `json:"misc_latency"`
}

// DefaultTimingConfig returns the latency table values.
func DefaultTimingConfig() *TimingConfig {
	return &TimingConfig{
		ALULatency:      1,
		BranchLatency:   1,
		MultiplyLatency: 3,
		DivideLatency:   7,
		MemoryLatency:   3,
		MiscLatency:     1,
	}
}

// LoadConfig loads a TimingConfig from a JSON file, starting from defaults
// for any field the file omits.
func LoadConfig(path string) (*TimingConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read timing config file: %w", err)
	}

	config := DefaultTimingConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse timing config: %w", err)
	}

	return config, nil
}

// SaveConfig writes a TimingConfig to a JSON file.
func (c *TimingConfig) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize timing config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write timing config file: %w", err)
	}

	return nil
}

// Validate checks that all latency values are valid (> 0).
func (c *TimingConfig) Validate() error {
	if c.ALULatency == 0 {
		return fmt.Errorf("alu_latency must be > 0")
	}
	if c.BranchLatency == 0 {
		return fmt.Errorf("branch_latency must be > 0")
	}
	if c.MultiplyLatency == 0 {
		return fmt.Errorf("multiply_latency must be > 0")
	}
	if c.DivideLatency == 0 {
		return fmt.Errorf("divide_latency must be > 0")
	}
	if c.MemoryLatency == 0 {
		return fmt.Errorf("memory_latency must be > 0")
	}
	if c.MiscLatency == 0 {
		return fmt.Errorf("misc_latency must be > 0")
	}
	return nil
}

// Clone returns a deep copy of the TimingConfig.
func (c *TimingConfig) Clone() *TimingConfig {
	clone := *c
	return &clone
}
