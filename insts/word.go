package insts

// Word is a raw 32-bit MIPS instruction word.
//
// All field accessors are pure bit extractions; nothing is validated, so any
// 32-bit value yields some set of fields.
type Word uint32

// Opcode returns bits [31:26].
func (w Word) Opcode() Opcode {
	return Opcode(uint32(w) >> 26)
}

// Rs returns the first source register index, bits [25:21].
func (w Word) Rs() uint8 {
	return uint8((uint32(w) >> 21) & 0x1F)
}

// Rt returns the second source (or I-type destination) register, bits [20:16].
func (w Word) Rt() uint8 {
	return uint8((uint32(w) >> 16) & 0x1F)
}

// Rd returns the R-type destination register, bits [15:11].
func (w Word) Rd() uint8 {
	return uint8((uint32(w) >> 11) & 0x1F)
}

// Shamt returns the shift amount, bits [10:6].
func (w Word) Shamt() uint8 {
	return uint8((uint32(w) >> 6) & 0x1F)
}

// Funct returns bits [5:0].
func (w Word) Funct() Funct {
	return Funct(uint32(w) & 0x3F)
}

// Imm returns bits [15:0] sign-extended to 32 bits.
func (w Word) Imm() int32 {
	return int32(int16(uint16(w)))
}

// UImm returns bits [15:0] zero-extended to 32 bits.
func (w Word) UImm() uint32 {
	return uint32(w) & 0xFFFF
}

// Address returns the 26-bit jump target field, bits [25:0].
func (w Word) Address() uint32 {
	return uint32(w) & 0x3FFFFFF
}

// Code returns the SYSCALL/BREAK argument field, bits [25:6].
func (w Word) Code() uint32 {
	return (uint32(w) >> 6) & 0xFFFFF
}

// IsSentinel reports whether the word is the all-zero end-of-program marker.
func (w Word) IsSentinel() bool {
	return w == 0
}

// EncodeR builds an R-type word.
func EncodeR(opcode Opcode, rs, rt, rd, shamt uint8, funct Funct) Word {
	return Word(uint32(opcode&0x3F)<<26 |
		uint32(rs&0x1F)<<21 |
		uint32(rt&0x1F)<<16 |
		uint32(rd&0x1F)<<11 |
		uint32(shamt&0x1F)<<6 |
		uint32(funct&0x3F))
}

// EncodeI builds an I-type word. Only the low 16 bits of imm are kept.
func EncodeI(opcode Opcode, rs, rt uint8, imm uint32) Word {
	return Word(uint32(opcode&0x3F)<<26 |
		uint32(rs&0x1F)<<21 |
		uint32(rt&0x1F)<<16 |
		imm&0xFFFF)
}

// EncodeJ builds a J-type word. Only the low 26 bits of addr are kept.
func EncodeJ(opcode Opcode, addr uint32) Word {
	return Word(uint32(opcode&0x3F)<<26 | addr&0x3FFFFFF)
}
