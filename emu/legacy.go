package emu

import "github.com/sarchlab/mipsim/insts"

// executeLegacy runs the handlers whose behavior differs under legacy
// semantics. It reports handled=false for every other operation so the
// architectural handler runs instead.
//
// Legacy differences:
//   - ADD, ADDU, SUB, SUBU compute rt op rs and write rs.
//   - LW loads from (rt field + imm) into rs.
//   - BEQ, when taken, targets addr26<<2 and writes the PC to $ra; taken or
//     not it then also performs ADDI.
//   - J targets addr26<<2; JR targets rs<<2.
//   - LUI ORs rs into the result; ANDI, ORI, XORI sign-extend.
//   - SLTIU does nothing.
func (e *Emulator) executeLegacy(inst *insts.Instruction) (handled bool, err error) {
	rs, rt := inst.Rs(), inst.Rt()

	switch inst.Op {
	case insts.OpADD:
		return true, e.alu.ADD(rs, rt, rs)
	case insts.OpADDU:
		return true, e.alu.ADDU(rs, rt, rs)
	case insts.OpSUB:
		return true, e.alu.SUB(rs, rt, rs)
	case insts.OpSUBU:
		return true, e.alu.SUBU(rs, rt, rs)
	case insts.OpLW:
		return true, e.lsu.load(rs, uint32(int32(rt)+inst.Imm()))
	case insts.OpBEQ:
		return true, e.legacyBEQ(inst)
	case insts.OpJ:
		e.delay.Arm(inst.Address() << 2)
		return true, nil
	case insts.OpJR:
		target, err := e.regFile.Read(int(rs))
		if err != nil {
			return true, err
		}
		e.delay.Arm(uint32(target) << 2)
		return true, nil
	case insts.OpLUI:
		return true, e.alu.unary(rt, rs, func(x int32) int32 { return x | int32(inst.UImm()<<16) })
	case insts.OpANDI:
		return true, e.alu.ANDI(rt, rs, uint32(inst.Imm()))
	case insts.OpORI:
		return true, e.alu.ORI(rt, rs, uint32(inst.Imm()))
	case insts.OpXORI:
		return true, e.alu.XORI(rt, rs, uint32(inst.Imm()))
	case insts.OpSLTIU:
		return true, nil
	default:
		return false, nil
	}
}

func (e *Emulator) legacyBEQ(inst *insts.Instruction) error {
	x, y, err := e.regFile.read2(inst.Rs(), inst.Rt())
	if err != nil {
		return err
	}

	if x == y {
		e.delay.Arm(inst.Address() << 2)
		if err := e.regFile.Write(int(insts.RegRA), int32(e.pc)); err != nil {
			return err
		}
	}

	return e.alu.ADDI(inst.Rt(), inst.Rs(), inst.Imm())
}
