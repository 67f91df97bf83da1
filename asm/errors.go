package asm

import (
	"errors"

	"github.com/sarchlab/mipsim/translate"
)

var f = translate.From

var (
	ErrEquateSyntax    = errors.New(f(".equ syntax"))
	ErrEquateDuplicate = errors.New(f(".equ duplicated"))
	ErrLabelDuplicate  = errors.New(f("label duplicated"))
	ErrLabelSyntax     = errors.New(f("label syntax"))
	ErrOperandCount    = errors.New(f("wrong number of operands"))
	ErrImmediateRange  = errors.New(f("immediate out of range"))
	ErrShiftRange      = errors.New(f("shift amount out of range"))
	ErrBranchRange     = errors.New(f("branch target out of range"))
	ErrJumpRange       = errors.New(f("jump target outside the current 256MB region"))
	ErrUnaligned       = errors.New(f("target not word aligned"))
)

type ErrMnemonicUnknown string

func (err ErrMnemonicUnknown) Error() string {
	return f("unknown mnemonic '%v'", string(err))
}

type ErrLabelMissing string

func (err ErrLabelMissing) Error() string {
	return f("label %v missing", string(err))
}

type ErrRegisterInvalid string

func (err ErrRegisterInvalid) Error() string {
	return f("'%v' is not a register", string(err))
}

type ErrParseNumber string

func (err ErrParseNumber) Error() string {
	return f("'%v' is not a number", string(err))
}

type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return f("$(%v) is not a valid expression", string(err))
}

type ErrSyntax struct {
	LineNo int
	Line   string
	Err    error
}

func (err *ErrSyntax) Error() string {
	return f("line %d '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err *ErrSyntax) Unwrap() error {
	return err.Err
}
