package emu_test

import "github.com/sarchlab/mipsim/insts"

func rtype(rs, rt, rd, shamt uint8, funct insts.Funct) uint32 {
	return uint32(insts.EncodeR(insts.OpcodeSpecial, rs, rt, rd, shamt, funct))
}

func itype(opcode insts.Opcode, rs, rt uint8, imm int32) uint32 {
	return uint32(insts.EncodeI(opcode, rs, rt, uint32(imm)))
}

func add(rd, rs, rt uint8) uint32  { return rtype(rs, rt, rd, 0, insts.FunctADD) }
func addu(rd, rs, rt uint8) uint32 { return rtype(rs, rt, rd, 0, insts.FunctADDU) }
func sub(rd, rs, rt uint8) uint32  { return rtype(rs, rt, rd, 0, insts.FunctSUB) }
func sll(rd, rt, sa uint8) uint32  { return rtype(0, rt, rd, sa, insts.FunctSLL) }
func jr(rs uint8) uint32           { return rtype(rs, 0, 0, 0, insts.FunctJR) }
func jalr(rd, rs uint8) uint32     { return rtype(rs, 0, rd, 0, insts.FunctJALR) }
func mthi(rs uint8) uint32         { return rtype(rs, 0, 0, 0, insts.FunctMTHI) }
func mfhi(rd uint8) uint32         { return rtype(0, 0, rd, 0, insts.FunctMFHI) }
func syscall() uint32              { return rtype(0, 0, 0, 0, insts.FunctSYSCALL) }

func addi(rt, rs uint8, imm int32) uint32  { return itype(insts.OpcodeADDI, rs, rt, imm) }
func addiu(rt, rs uint8, imm int32) uint32 { return itype(insts.OpcodeADDIU, rs, rt, imm) }
func ori(rt, rs uint8, imm int32) uint32   { return itype(insts.OpcodeORI, rs, rt, imm) }
func lui(rt uint8, imm int32) uint32       { return itype(insts.OpcodeLUI, 0, rt, imm) }
func lw(rt, base uint8, off int32) uint32  { return itype(insts.OpcodeLW, base, rt, off) }
func sw(rt, base uint8, off int32) uint32  { return itype(insts.OpcodeSW, base, rt, off) }
func beq(rs, rt uint8, off int32) uint32   { return itype(insts.OpcodeBEQ, rs, rt, off) }
func bne(rs, rt uint8, off int32) uint32   { return itype(insts.OpcodeBNE, rs, rt, off) }
func bgtz(rs uint8, off int32) uint32      { return itype(insts.OpcodeBGTZ, rs, 0, off) }

func j(target uint32) uint32   { return uint32(insts.EncodeJ(insts.OpcodeJ, target>>2)) }
func jal(target uint32) uint32 { return uint32(insts.EncodeJ(insts.OpcodeJAL, target>>2)) }

// nop is "sll $0, $0, 1": the canonical nop is the all-zero sentinel.
func nop() uint32 { return sll(0, 0, 1) }
