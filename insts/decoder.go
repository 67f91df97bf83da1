// Package insts provides MIPS32 instruction definitions and decoding.
package insts

import "fmt"

// Instruction represents a decoded MIPS instruction.
//
// Only the classification is stored; operand fields are read from Word on
// demand so they can never drift from the raw encoding.
type Instruction struct {
	Word   Word   // Raw instruction word
	Op     Op     // Operation
	Class  Class  // Kind of architectural effect
	Format Format // Encoding format
}

// Opcode returns the primary opcode field.
func (i *Instruction) Opcode() Opcode { return i.Word.Opcode() }

// Rs returns the rs register field.
func (i *Instruction) Rs() uint8 { return i.Word.Rs() }

// Rt returns the rt register field.
func (i *Instruction) Rt() uint8 { return i.Word.Rt() }

// Rd returns the rd register field.
func (i *Instruction) Rd() uint8 { return i.Word.Rd() }

// Shamt returns the shift amount field.
func (i *Instruction) Shamt() uint8 { return i.Word.Shamt() }

// Funct returns the function field.
func (i *Instruction) Funct() Funct { return i.Word.Funct() }

// Imm returns the sign-extended immediate.
func (i *Instruction) Imm() int32 { return i.Word.Imm() }

// UImm returns the zero-extended immediate.
func (i *Instruction) UImm() uint32 { return i.Word.UImm() }

// Address returns the 26-bit jump target field.
func (i *Instruction) Address() uint32 { return i.Word.Address() }

// Code returns the SYSCALL code field.
func (i *Instruction) Code() uint32 { return i.Word.Code() }

// String renders the instruction in assembler-like form.
func (i *Instruction) String() string {
	switch i.Format {
	case FormatR:
		return fmt.Sprintf("%s rd=%d rs=%d rt=%d shamt=%d",
			i.Op, i.Rd(), i.Rs(), i.Rt(), i.Shamt())
	case FormatI:
		return fmt.Sprintf("%s rt=%d rs=%d imm=%d", i.Op, i.Rt(), i.Rs(), i.Imm())
	case FormatJ:
		return fmt.Sprintf("%s addr=0x%07X", i.Op, i.Address())
	default:
		return fmt.Sprintf("unknown 0x%08X", uint32(i.Word))
	}
}

// Decoder decodes MIPS machine code into instructions.
type Decoder struct{}

// NewDecoder creates a new MIPS instruction decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode decodes a 32-bit MIPS instruction word.
// Unrecognized encodings yield OpUnknown; Decode itself never fails.
func (d *Decoder) Decode(word uint32) *Instruction {
	w := Word(word)
	inst := &Instruction{Word: w, Op: OpUnknown}

	if w.Opcode() == OpcodeSpecial {
		d.decodeSpecial(w, inst)
	} else {
		d.decodePrimary(w, inst)
	}

	return inst
}

// decodeSpecial decodes R-type words, selected by the funct field.
// Format: 000000 | rs | rt | rd | shamt | funct
func (d *Decoder) decodeSpecial(w Word, inst *Instruction) {
	inst.Format = FormatR

	switch w.Funct() {
	case FunctADD:
		inst.Op, inst.Class = OpADD, ClassALUReg
	case FunctADDU:
		inst.Op, inst.Class = OpADDU, ClassALUReg
	case FunctSUB:
		inst.Op, inst.Class = OpSUB, ClassALUReg
	case FunctSUBU:
		inst.Op, inst.Class = OpSUBU, ClassALUReg
	case FunctAND:
		inst.Op, inst.Class = OpAND, ClassALUReg
	case FunctOR:
		inst.Op, inst.Class = OpOR, ClassALUReg
	case FunctXOR:
		inst.Op, inst.Class = OpXOR, ClassALUReg
	case FunctNOR:
		inst.Op, inst.Class = OpNOR, ClassALUReg
	case FunctSLT:
		inst.Op, inst.Class = OpSLT, ClassALUReg
	case FunctSLTU:
		inst.Op, inst.Class = OpSLTU, ClassALUReg
	case FunctSLL:
		inst.Op, inst.Class = OpSLL, ClassALUReg
	case FunctSRL:
		inst.Op, inst.Class = OpSRL, ClassALUReg
	case FunctSRA:
		inst.Op, inst.Class = OpSRA, ClassALUReg
	case FunctSLLV:
		inst.Op, inst.Class = OpSLLV, ClassALUReg
	case FunctSRLV:
		inst.Op, inst.Class = OpSRLV, ClassALUReg
	case FunctSRAV:
		inst.Op, inst.Class = OpSRAV, ClassALUReg
	case FunctJR:
		inst.Op, inst.Class = OpJR, ClassControl
	case FunctJALR:
		inst.Op, inst.Class = OpJALR, ClassControl
	case FunctMFHI:
		inst.Op, inst.Class = OpMFHI, ClassMove
	case FunctMTHI:
		inst.Op, inst.Class = OpMTHI, ClassMove
	case FunctMFLO:
		inst.Op, inst.Class = OpMFLO, ClassMove
	case FunctMTLO:
		inst.Op, inst.Class = OpMTLO, ClassMove
	case FunctSYSCALL:
		inst.Op, inst.Class = OpSYSCALL, ClassEnv
	default:
		// BREAK, MULT/DIV and reserved codes have no handler.
		inst.Format = FormatUnknown
	}
}

// decodePrimary decodes I-type and J-type words, selected by the opcode.
// I-type: opcode | rs | rt | imm16
// J-type: opcode | addr26
func (d *Decoder) decodePrimary(w Word, inst *Instruction) {
	inst.Format = FormatI

	switch w.Opcode() {
	case OpcodeJ:
		inst.Op, inst.Class, inst.Format = OpJ, ClassControl, FormatJ
	case OpcodeJAL:
		inst.Op, inst.Class, inst.Format = OpJAL, ClassControl, FormatJ
	case OpcodeBEQ:
		inst.Op, inst.Class = OpBEQ, ClassControl
	case OpcodeBNE:
		inst.Op, inst.Class = OpBNE, ClassControl
	case OpcodeBLEZ:
		inst.Op, inst.Class = OpBLEZ, ClassControl
	case OpcodeBGTZ:
		inst.Op, inst.Class = OpBGTZ, ClassControl
	case OpcodeADDI:
		inst.Op, inst.Class = OpADDI, ClassALUImm
	case OpcodeADDIU:
		inst.Op, inst.Class = OpADDIU, ClassALUImm
	case OpcodeSLTI:
		inst.Op, inst.Class = OpSLTI, ClassALUImm
	case OpcodeSLTIU:
		inst.Op, inst.Class = OpSLTIU, ClassALUImm
	case OpcodeANDI:
		inst.Op, inst.Class = OpANDI, ClassALUImm
	case OpcodeORI:
		inst.Op, inst.Class = OpORI, ClassALUImm
	case OpcodeXORI:
		inst.Op, inst.Class = OpXORI, ClassALUImm
	case OpcodeLUI:
		inst.Op, inst.Class = OpLUI, ClassALUImm
	case OpcodeLB:
		inst.Op, inst.Class = OpLB, ClassTransfer
	case OpcodeLH:
		inst.Op, inst.Class = OpLH, ClassTransfer
	case OpcodeLWL:
		inst.Op, inst.Class = OpLWL, ClassTransfer
	case OpcodeLW:
		inst.Op, inst.Class = OpLW, ClassTransfer
	case OpcodeLBU:
		inst.Op, inst.Class = OpLBU, ClassTransfer
	case OpcodeLHU:
		inst.Op, inst.Class = OpLHU, ClassTransfer
	case OpcodeLWR:
		inst.Op, inst.Class = OpLWR, ClassTransfer
	case OpcodeSB:
		inst.Op, inst.Class = OpSB, ClassTransfer
	case OpcodeSH:
		inst.Op, inst.Class = OpSH, ClassTransfer
	case OpcodeSWL:
		inst.Op, inst.Class = OpSWL, ClassTransfer
	case OpcodeSW:
		inst.Op, inst.Class = OpSW, ClassTransfer
	case OpcodeSWR:
		inst.Op, inst.Class = OpSWR, ClassTransfer
	default:
		inst.Format = FormatUnknown
	}
}
