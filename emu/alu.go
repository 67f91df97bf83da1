package emu

import (
	"math"

	"github.com/sarchlab/mipsim/insts"
)

// AddOverflows reports whether a + b overflows 32-bit signed arithmetic.
func AddOverflows(a, b int32) bool {
	return (a >= 0 && b > math.MaxInt32-a) || (a < 0 && b < math.MinInt32-a)
}

// SubOverflows reports whether a - b overflows 32-bit signed arithmetic.
func SubOverflows(a, b int32) bool {
	if b == math.MinInt32 {
		return a >= 0
	}
	return AddOverflows(a, -b)
}

// ALU implements MIPS arithmetic, logic and shift operations.
type ALU struct {
	regFile *RegFile
}

// NewALU creates a new ALU connected to the given register file.
func NewALU(regFile *RegFile) *ALU {
	return &ALU{regFile: regFile}
}

// binary reads rs and rt, combines them with fn and writes rd.
func (a *ALU) binary(rd, rs, rt uint8, fn func(x, y int32) int32) error {
	x, y, err := a.regFile.read2(rs, rt)
	if err != nil {
		return err
	}
	return a.regFile.Write(int(rd), fn(x, y))
}

// unary reads rs, combines it with fn and writes rt.
func (a *ALU) unary(rt, rs uint8, fn func(x int32) int32) error {
	x, err := a.regFile.Read(int(rs))
	if err != nil {
		return err
	}
	return a.regFile.Write(int(rt), fn(x))
}

// ADD performs checked addition: rd = rs + rt
func (a *ALU) ADD(rd, rs, rt uint8) error {
	x, y, err := a.regFile.read2(rs, rt)
	if err != nil {
		return err
	}
	if AddOverflows(x, y) {
		return &OverflowError{Op: insts.OpADD, A: x, B: y}
	}
	return a.regFile.Write(int(rd), x+y)
}

// ADDU performs wrapping addition: rd = rs + rt
func (a *ALU) ADDU(rd, rs, rt uint8) error {
	return a.binary(rd, rs, rt, func(x, y int32) int32 { return x + y })
}

// SUB performs checked subtraction: rd = rs - rt
func (a *ALU) SUB(rd, rs, rt uint8) error {
	x, y, err := a.regFile.read2(rs, rt)
	if err != nil {
		return err
	}
	if SubOverflows(x, y) {
		return &OverflowError{Op: insts.OpSUB, A: x, B: y}
	}
	return a.regFile.Write(int(rd), x-y)
}

// SUBU performs wrapping subtraction: rd = rs - rt
func (a *ALU) SUBU(rd, rs, rt uint8) error {
	return a.binary(rd, rs, rt, func(x, y int32) int32 { return x - y })
}

// AND performs bitwise AND: rd = rs & rt
func (a *ALU) AND(rd, rs, rt uint8) error {
	return a.binary(rd, rs, rt, func(x, y int32) int32 { return x & y })
}

// OR performs bitwise OR: rd = rs | rt
func (a *ALU) OR(rd, rs, rt uint8) error {
	return a.binary(rd, rs, rt, func(x, y int32) int32 { return x | y })
}

// XOR performs bitwise exclusive OR: rd = rs ^ rt
func (a *ALU) XOR(rd, rs, rt uint8) error {
	return a.binary(rd, rs, rt, func(x, y int32) int32 { return x ^ y })
}

// NOR performs bitwise NOR: rd = ^(rs | rt)
func (a *ALU) NOR(rd, rs, rt uint8) error {
	return a.binary(rd, rs, rt, func(x, y int32) int32 { return ^(x | y) })
}

// SLT sets rd to 1 if rs < rt as signed values.
func (a *ALU) SLT(rd, rs, rt uint8) error {
	return a.binary(rd, rs, rt, func(x, y int32) int32 { return boolToInt32(x < y) })
}

// SLTU sets rd to 1 if rs < rt as unsigned values.
func (a *ALU) SLTU(rd, rs, rt uint8) error {
	return a.binary(rd, rs, rt, func(x, y int32) int32 { return boolToInt32(uint32(x) < uint32(y)) })
}

// SLL shifts rt left by shamt: rd = rt << shamt
func (a *ALU) SLL(rd, rt, shamt uint8) error {
	return a.unary(rd, rt, func(x int32) int32 { return x << (shamt & 0x1F) })
}

// SRL shifts rt right logically by shamt.
func (a *ALU) SRL(rd, rt, shamt uint8) error {
	return a.unary(rd, rt, func(x int32) int32 { return int32(uint32(x) >> (shamt & 0x1F)) })
}

// SRA shifts rt right arithmetically by shamt.
func (a *ALU) SRA(rd, rt, shamt uint8) error {
	return a.unary(rd, rt, func(x int32) int32 { return x >> (shamt & 0x1F) })
}

// SLLV shifts rt left by the low 5 bits of rs.
func (a *ALU) SLLV(rd, rt, rs uint8) error {
	return a.binary(rd, rt, rs, func(x, s int32) int32 { return x << (uint32(s) & 0x1F) })
}

// SRLV shifts rt right logically by the low 5 bits of rs.
func (a *ALU) SRLV(rd, rt, rs uint8) error {
	return a.binary(rd, rt, rs, func(x, s int32) int32 { return int32(uint32(x) >> (uint32(s) & 0x1F)) })
}

// SRAV shifts rt right arithmetically by the low 5 bits of rs.
func (a *ALU) SRAV(rd, rt, rs uint8) error {
	return a.binary(rd, rt, rs, func(x, s int32) int32 { return x >> (uint32(s) & 0x1F) })
}

// ADDI performs checked addition with immediate: rt = rs + imm
func (a *ALU) ADDI(rt, rs uint8, imm int32) error {
	x, err := a.regFile.Read(int(rs))
	if err != nil {
		return err
	}
	if AddOverflows(x, imm) {
		return &OverflowError{Op: insts.OpADDI, A: x, B: imm}
	}
	return a.regFile.Write(int(rt), x+imm)
}

// ADDIU performs wrapping addition with immediate: rt = rs + imm
func (a *ALU) ADDIU(rt, rs uint8, imm int32) error {
	return a.unary(rt, rs, func(x int32) int32 { return x + imm })
}

// SLTI sets rt to 1 if rs < imm as signed values.
func (a *ALU) SLTI(rt, rs uint8, imm int32) error {
	return a.unary(rt, rs, func(x int32) int32 { return boolToInt32(x < imm) })
}

// SLTIU sets rt to 1 if rs < imm as unsigned values.
// The immediate is sign-extended before the unsigned comparison.
func (a *ALU) SLTIU(rt, rs uint8, imm int32) error {
	return a.unary(rt, rs, func(x int32) int32 { return boolToInt32(uint32(x) < uint32(imm)) })
}

// ANDI performs bitwise AND with immediate: rt = rs & imm
func (a *ALU) ANDI(rt, rs uint8, imm uint32) error {
	return a.unary(rt, rs, func(x int32) int32 { return x & int32(imm) })
}

// ORI performs bitwise OR with immediate: rt = rs | imm
func (a *ALU) ORI(rt, rs uint8, imm uint32) error {
	return a.unary(rt, rs, func(x int32) int32 { return x | int32(imm) })
}

// XORI performs bitwise exclusive OR with immediate: rt = rs ^ imm
func (a *ALU) XORI(rt, rs uint8, imm uint32) error {
	return a.unary(rt, rs, func(x int32) int32 { return x ^ int32(imm) })
}

// LUI loads the immediate into the upper half of rt: rt = imm << 16
func (a *ALU) LUI(rt uint8, imm uint32) error {
	return a.regFile.Write(int(rt), int32(imm<<16))
}

// MFHI copies HI into rd.
func (a *ALU) MFHI(rd uint8) error {
	return a.move(int(rd), RegHI)
}

// MTHI copies rs into HI.
func (a *ALU) MTHI(rs uint8) error {
	return a.move(RegHI, int(rs))
}

// MFLO copies LO into rd.
func (a *ALU) MFLO(rd uint8) error {
	return a.move(int(rd), RegLO)
}

// MTLO copies rs into LO.
func (a *ALU) MTLO(rs uint8) error {
	return a.move(RegLO, int(rs))
}

func (a *ALU) move(dst, src int) error {
	value, err := a.regFile.Read(src)
	if err != nil {
		return err
	}
	return a.regFile.Write(dst, value)
}

func boolToInt32(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
