// Package emu provides functional MIPS32 emulation.
package emu

import "github.com/sarchlab/mipsim/insts"

// Register file layout.
const (
	// NumGPR is the number of general-purpose registers.
	NumGPR = 32
	// RegHI is the index of the HI accumulator.
	RegHI = 32
	// RegLO is the index of the LO accumulator.
	RegLO = 33
	// NumRegs is the total number of addressable slots.
	NumRegs = 34
)

// RegFile represents the MIPS register file.
// It contains 32 general-purpose registers followed by HI and LO.
// Register 0 always reads as 0.
type RegFile struct {
	regs [NumRegs]int32
}

// NewRegFile creates a zeroed register file.
func NewRegFile() *RegFile {
	return &RegFile{}
}

// Read reads a register value.
func (r *RegFile) Read(index int) (int32, error) {
	if index < 0 || index >= NumRegs {
		return 0, &RegisterIndexError{Index: index}
	}
	return r.regs[index], nil
}

// Write writes a register value. Writes to register 0 are discarded.
func (r *RegFile) Write(index int, value int32) error {
	if index < 0 || index >= NumRegs {
		return &RegisterIndexError{Index: index}
	}
	if index == 0 {
		return nil
	}
	r.regs[index] = value
	return nil
}

// read2 reads two registers, as most ALU and branch operations need.
func (r *RegFile) read2(a, b uint8) (int32, int32, error) {
	x, err := r.Read(int(a))
	if err != nil {
		return 0, 0, err
	}
	y, err := r.Read(int(b))
	if err != nil {
		return 0, 0, err
	}
	return x, y, nil
}

// Values returns a copy of every register, HI and LO included.
func (r *RegFile) Values() [NumRegs]int32 {
	return r.regs
}

// Reset zeroes every register.
func (r *RegFile) Reset() {
	r.regs = [NumRegs]int32{}
}

// RegName returns the display name of a register slot.
func RegName(index int) string {
	switch {
	case index >= 0 && index < NumGPR:
		return insts.RegNames[index]
	case index == RegHI:
		return "hi"
	case index == RegLO:
		return "lo"
	default:
		return "?"
	}
}
