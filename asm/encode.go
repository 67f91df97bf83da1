package asm

import (
	"fmt"

	"github.com/sarchlab/mipsim/insts"
)

// form is the operand layout of a mnemonic.
type form uint8

const (
	formRdRsRt       form = iota // add rd, rs, rt
	formRdRtShamt         // sll rd, rt, shamt
	formRdRtRs            // sllv rd, rt, rs
	formRs                // jr rs
	formRd                // mfhi rd
	formJALR              // jalr [rd,] rs
	formSyscall           // syscall [code]
	formRtRsSigned        // addi rt, rs, simm
	formRtRsUnsigned      // ori rt, rs, uimm
	formRtImm             // lui rt, uimm
	formRtMem             // lw rt, off(rs)
	formRsRtBranch        // beq rs, rt, target
	formRsBranch          // blez rs, target
	formJump              // j target
)

type mnemonic struct {
	opcode insts.Opcode
	funct  insts.Funct
	form   form
}

var mnemonics = map[string]mnemonic{
	"add":  {insts.OpcodeSpecial, insts.FunctADD, formRdRsRt},
	"addu": {insts.OpcodeSpecial, insts.FunctADDU, formRdRsRt},
	"sub":  {insts.OpcodeSpecial, insts.FunctSUB, formRdRsRt},
	"subu": {insts.OpcodeSpecial, insts.FunctSUBU, formRdRsRt},
	"and":  {insts.OpcodeSpecial, insts.FunctAND, formRdRsRt},
	"or":   {insts.OpcodeSpecial, insts.FunctOR, formRdRsRt},
	"xor":  {insts.OpcodeSpecial, insts.FunctXOR, formRdRsRt},
	"nor":  {insts.OpcodeSpecial, insts.FunctNOR, formRdRsRt},
	"slt":  {insts.OpcodeSpecial, insts.FunctSLT, formRdRsRt},
	"sltu": {insts.OpcodeSpecial, insts.FunctSLTU, formRdRsRt},

	"sll":  {insts.OpcodeSpecial, insts.FunctSLL, formRdRtShamt},
	"srl":  {insts.OpcodeSpecial, insts.FunctSRL, formRdRtShamt},
	"sra":  {insts.OpcodeSpecial, insts.FunctSRA, formRdRtShamt},
	"sllv": {insts.OpcodeSpecial, insts.FunctSLLV, formRdRtRs},
	"srlv": {insts.OpcodeSpecial, insts.FunctSRLV, formRdRtRs},
	"srav": {insts.OpcodeSpecial, insts.FunctSRAV, formRdRtRs},

	"jr":      {insts.OpcodeSpecial, insts.FunctJR, formRs},
	"jalr":    {insts.OpcodeSpecial, insts.FunctJALR, formJALR},
	"mfhi":    {insts.OpcodeSpecial, insts.FunctMFHI, formRd},
	"mthi":    {insts.OpcodeSpecial, insts.FunctMTHI, formRs},
	"mflo":    {insts.OpcodeSpecial, insts.FunctMFLO, formRd},
	"mtlo":    {insts.OpcodeSpecial, insts.FunctMTLO, formRs},
	"syscall": {insts.OpcodeSpecial, insts.FunctSYSCALL, formSyscall},

	"addi":  {opcode: insts.OpcodeADDI, form: formRtRsSigned},
	"addiu": {opcode: insts.OpcodeADDIU, form: formRtRsSigned},
	"slti":  {opcode: insts.OpcodeSLTI, form: formRtRsSigned},
	"sltiu": {opcode: insts.OpcodeSLTIU, form: formRtRsSigned},
	"andi":  {opcode: insts.OpcodeANDI, form: formRtRsUnsigned},
	"ori":   {opcode: insts.OpcodeORI, form: formRtRsUnsigned},
	"xori":  {opcode: insts.OpcodeXORI, form: formRtRsUnsigned},
	"lui":   {opcode: insts.OpcodeLUI, form: formRtImm},

	"lb":  {opcode: insts.OpcodeLB, form: formRtMem},
	"lh":  {opcode: insts.OpcodeLH, form: formRtMem},
	"lwl": {opcode: insts.OpcodeLWL, form: formRtMem},
	"lw":  {opcode: insts.OpcodeLW, form: formRtMem},
	"lbu": {opcode: insts.OpcodeLBU, form: formRtMem},
	"lhu": {opcode: insts.OpcodeLHU, form: formRtMem},
	"lwr": {opcode: insts.OpcodeLWR, form: formRtMem},
	"sb":  {opcode: insts.OpcodeSB, form: formRtMem},
	"sh":  {opcode: insts.OpcodeSH, form: formRtMem},
	"swl": {opcode: insts.OpcodeSWL, form: formRtMem},
	"sw":  {opcode: insts.OpcodeSW, form: formRtMem},
	"swr": {opcode: insts.OpcodeSWR, form: formRtMem},

	"beq":  {opcode: insts.OpcodeBEQ, form: formRsRtBranch},
	"bne":  {opcode: insts.OpcodeBNE, form: formRsRtBranch},
	"blez": {opcode: insts.OpcodeBLEZ, form: formRsBranch},
	"bgtz": {opcode: insts.OpcodeBGTZ, form: formRsBranch},
	"j":    {opcode: insts.OpcodeJ, form: formJump},
	"jal":  {opcode: insts.OpcodeJAL, form: formJump},
}

// operandCount is the number of operands each form takes. formJALR and
// formSyscall accept a range and are checked separately.
var operandCount = map[form]int{
	formRdRsRt:       3,
	formRdRtShamt:    3,
	formRdRtRs:       3,
	formRs:           1,
	formRd:           1,
	formRtRsSigned:   3,
	formRtRsUnsigned: 3,
	formRtImm:        2,
	formRtMem:        2,
	formRsRtBranch:   3,
	formRsBranch:     2,
	formJump:         1,
}

// encode turns a placed statement into machine words.
func (asm *Assembler) encode(st statement) ([]uint32, error) {
	name, ops := st.words[0], st.words[1:]

	switch name {
	case ".word":
		return asm.encodeWords(ops)
	case "nop":
		if len(ops) != 0 {
			return nil, ErrOperandCount
		}
		return []uint32{nopWord}, nil
	}

	m, ok := mnemonics[name]
	if !ok {
		return nil, ErrMnemonicUnknown(name)
	}

	if want, fixed := operandCount[m.form]; fixed && len(ops) != want {
		return nil, fmt.Errorf("%w: %s takes %d", ErrOperandCount, name, want)
	}

	word, err := asm.encodeForm(m, ops, st.addr)
	if err != nil {
		return nil, err
	}
	return []uint32{uint32(word)}, nil
}

func (asm *Assembler) encodeWords(ops []string) ([]uint32, error) {
	words := make([]uint32, len(ops))
	for i, op := range ops {
		v, _, err := asm.valueOf(op)
		if err != nil {
			return nil, err
		}
		words[i] = uint32(v)
	}
	return words, nil
}

//nolint:gocyclo // one case per operand layout
func (asm *Assembler) encodeForm(m mnemonic, ops []string, addr uint32) (insts.Word, error) {
	switch m.form {
	case formRdRsRt:
		r, err := asm.registers(ops...)
		if err != nil {
			return 0, err
		}
		return insts.EncodeR(m.opcode, r[1], r[2], r[0], 0, m.funct), nil

	case formRdRtShamt:
		r, err := asm.registers(ops[0], ops[1])
		if err != nil {
			return 0, err
		}
		sa, _, err := asm.valueOf(ops[2])
		if err != nil {
			return 0, err
		}
		if sa < 0 || sa > 31 {
			return 0, fmt.Errorf("%w: %d", ErrShiftRange, sa)
		}
		return insts.EncodeR(m.opcode, 0, r[1], r[0], uint8(sa), m.funct), nil

	case formRdRtRs:
		r, err := asm.registers(ops...)
		if err != nil {
			return 0, err
		}
		return insts.EncodeR(m.opcode, r[2], r[1], r[0], 0, m.funct), nil

	case formRs:
		rs, err := asm.register(ops[0])
		if err != nil {
			return 0, err
		}
		return insts.EncodeR(m.opcode, rs, 0, 0, 0, m.funct), nil

	case formRd:
		rd, err := asm.register(ops[0])
		if err != nil {
			return 0, err
		}
		return insts.EncodeR(m.opcode, 0, 0, rd, 0, m.funct), nil

	case formJALR:
		return asm.encodeJALR(m, ops)

	case formSyscall:
		return asm.encodeSyscall(m, ops)

	case formRtRsSigned, formRtRsUnsigned:
		r, err := asm.registers(ops[0], ops[1])
		if err != nil {
			return 0, err
		}
		var imm uint32
		if m.form == formRtRsSigned {
			imm, err = asm.signed16(ops[2])
		} else {
			imm, err = asm.unsigned16(ops[2])
		}
		if err != nil {
			return 0, err
		}
		return insts.EncodeI(m.opcode, r[1], r[0], imm), nil

	case formRtImm:
		rt, err := asm.register(ops[0])
		if err != nil {
			return 0, err
		}
		imm, err := asm.unsigned16(ops[1])
		if err != nil {
			return 0, err
		}
		return insts.EncodeI(m.opcode, 0, rt, imm), nil

	case formRtMem:
		rt, err := asm.register(ops[0])
		if err != nil {
			return 0, err
		}
		base, offset, err := asm.memory(ops[1])
		if err != nil {
			return 0, err
		}
		return insts.EncodeI(m.opcode, base, rt, offset), nil

	case formRsRtBranch:
		r, err := asm.registers(ops[0], ops[1])
		if err != nil {
			return 0, err
		}
		offset, err := asm.branchOffset(ops[2], addr)
		if err != nil {
			return 0, err
		}
		return insts.EncodeI(m.opcode, r[0], r[1], offset), nil

	case formRsBranch:
		rs, err := asm.register(ops[0])
		if err != nil {
			return 0, err
		}
		offset, err := asm.branchOffset(ops[1], addr)
		if err != nil {
			return 0, err
		}
		return insts.EncodeI(m.opcode, rs, 0, offset), nil

	case formJump:
		index, err := asm.jumpIndex(ops[0], addr)
		if err != nil {
			return 0, err
		}
		return insts.EncodeJ(m.opcode, index), nil

	default:
		return 0, fmt.Errorf("unhandled operand form %d", m.form)
	}
}

// encodeJALR accepts "jalr rs" (linking $ra) and "jalr rd, rs".
func (asm *Assembler) encodeJALR(m mnemonic, ops []string) (insts.Word, error) {
	switch len(ops) {
	case 1:
		rs, err := asm.register(ops[0])
		if err != nil {
			return 0, err
		}
		return insts.EncodeR(m.opcode, rs, 0, insts.RegRA, 0, m.funct), nil
	case 2:
		r, err := asm.registers(ops...)
		if err != nil {
			return 0, err
		}
		return insts.EncodeR(m.opcode, r[1], 0, r[0], 0, m.funct), nil
	default:
		return 0, fmt.Errorf("%w: jalr takes 1 or 2", ErrOperandCount)
	}
}

// encodeSyscall places the optional 20-bit code in bits 25..6.
func (asm *Assembler) encodeSyscall(m mnemonic, ops []string) (insts.Word, error) {
	var code int64
	switch len(ops) {
	case 0:
	case 1:
		var err error
		code, _, err = asm.valueOf(ops[0])
		if err != nil {
			return 0, err
		}
		if code < 0 || code > 0xFFFFF {
			return 0, fmt.Errorf("%w: %d", ErrImmediateRange, code)
		}
	default:
		return 0, fmt.Errorf("%w: syscall takes 0 or 1", ErrOperandCount)
	}
	return insts.EncodeR(m.opcode, 0, 0, 0, 0, m.funct) | insts.Word(code<<6), nil
}
