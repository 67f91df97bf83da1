package emu

import (
	"errors"

	"github.com/sarchlab/mipsim/insts"
	"github.com/sarchlab/mipsim/translate"
)

var f = translate.From

var (
	// ErrDecode is returned for an opcode or funct with no operation.
	ErrDecode = errors.New(f("unknown operation"))
	// ErrUnimplemented is returned for recognized operations without a handler.
	ErrUnimplemented = errors.New(f("operation not implemented"))
	// ErrOverflow is returned when a trapping add or subtract overflows.
	ErrOverflow = errors.New(f("arithmetic overflow"))
	// ErrRegisterIndex is returned for register indices outside [0, 33].
	ErrRegisterIndex = errors.New(f("register index out of range"))
	// ErrUnaligned is returned for word accesses not on a 4-byte boundary.
	ErrUnaligned = errors.New(f("unaligned word access"))
	// ErrSyscall is returned for unsupported syscall numbers.
	ErrSyscall = errors.New(f("unsupported syscall"))
)

// DecodeError reports a word whose opcode or funct selects no operation.
type DecodeError struct {
	Word insts.Word
}

func (err *DecodeError) Error() string {
	if err.Word.Opcode() == insts.OpcodeSpecial {
		return f("unknown funct %d in word 0x%08x", uint8(err.Word.Funct()), uint32(err.Word))
	}
	return f("unknown opcode %d in word 0x%08x", uint8(err.Word.Opcode()), uint32(err.Word))
}

func (err *DecodeError) Is(target error) bool {
	return target == ErrDecode
}

// RegisterIndexError reports an access to a register that does not exist.
type RegisterIndexError struct {
	Index int
}

func (err *RegisterIndexError) Error() string {
	return f("register index %d out of range", err.Index)
}

func (err *RegisterIndexError) Is(target error) bool {
	return target == ErrRegisterIndex
}

// OverflowError reports a signed overflow in ADD, ADDI or SUB.
type OverflowError struct {
	Op   insts.Op
	A, B int32
}

func (err *OverflowError) Error() string {
	return f("%v overflow: %d, %d", err.Op, err.A, err.B)
}

func (err *OverflowError) Is(target error) bool {
	return target == ErrOverflow
}

// FaultError identifies the instruction and cycle at which a run failed.
type FaultError struct {
	Cycle uint64
	PC    uint32
	Word  insts.Word
	Err   error
}

func (err *FaultError) Error() string {
	return f("cycle %v pc=0x%08x word=0x%08x: %v", err.Cycle, err.PC, uint32(err.Word), err.Err)
}

func (err *FaultError) Unwrap() error {
	return err.Err
}
