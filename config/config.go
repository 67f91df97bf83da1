// Package config holds the run configuration of the simulator.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sarchlab/mipsim/emu"
	"github.com/sarchlab/mipsim/loader"
)

// Config holds the settings of one simulation run.
type Config struct {
	// MaxInstructions bounds the number of executed instructions.
	// Default: 0 (no limit).
	MaxInstructions uint64 `json:"max_instructions"`

	// Trace prints the register file and decoded fields every cycle.
	// Default: false.
	Trace bool `json:"trace"`

	// LegacySemantics selects the legacy operand and target routing
	// (see emu.WithLegacySemantics) instead of architectural MIPS.
	// Default: false.
	LegacySemantics bool `json:"legacy_semantics"`

	// StackPointer is the initial $sp. Default: 0x7FFFEFFC.
	StackPointer uint32 `json:"stack_pointer"`

	// HeapStart is the initial program break for raw and assembled
	// programs. ELF binaries use the end of their highest segment.
	// Default: 0x10040000.
	HeapStart uint32 `json:"heap_start"`
}

// DefaultConfig returns a Config with SPIM-compatible defaults.
func DefaultConfig() *Config {
	return &Config{
		StackPointer: loader.DefaultStackTop,
		HeapStart:    emu.DefaultHeapStart,
	}
}

// LoadConfig loads a Config from a JSON file. Fields missing from the file
// keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// SaveConfig writes a Config to a JSON file.
func (c *Config) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks that the pointer values are usable.
func (c *Config) Validate() error {
	if c.StackPointer&0x3 != 0 {
		return fmt.Errorf("stack_pointer must be word aligned")
	}
	if c.StackPointer == 0 {
		return fmt.Errorf("stack_pointer must be > 0")
	}
	if c.HeapStart&0x3 != 0 {
		return fmt.Errorf("heap_start must be word aligned")
	}
	if c.HeapStart >= c.StackPointer {
		return fmt.Errorf("heap_start must be below stack_pointer")
	}
	return nil
}

// Clone returns a copy of the Config.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// EmulatorOptions translates the run settings into emulator options.
// Tracing is left to the caller, which owns the output stream.
func (c *Config) EmulatorOptions() []emu.EmulatorOption {
	opts := []emu.EmulatorOption{emu.WithMaxInstructions(c.MaxInstructions)}
	if c.LegacySemantics {
		opts = append(opts, emu.WithLegacySemantics())
	}
	return opts
}
