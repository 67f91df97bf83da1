package emu

import "github.com/sarchlab/mipsim/insts"

// BranchUnit implements MIPS jumps and branches.
//
// No operation changes the PC directly; each computes a target and arms the
// delay-slot scheduler, so the instruction after the branch always runs.
type BranchUnit struct {
	regFile *RegFile
	delay   *DelaySlot
}

// NewBranchUnit creates a new BranchUnit connected to the given register
// file and delay-slot scheduler.
func NewBranchUnit(regFile *RegFile, delay *DelaySlot) *BranchUnit {
	return &BranchUnit{regFile: regFile, delay: delay}
}

// JumpTarget computes the J/JAL target: the 256MB region of the delay slot
// combined with the 26-bit word address.
func JumpTarget(pc, addr uint32) uint32 {
	return (pc+4)&0xF0000000 | (addr&0x3FFFFFF)<<2
}

// BranchTarget computes a PC-relative target from the delay-slot address.
func BranchTarget(pc uint32, imm int32) uint32 {
	return pc + 4 + uint32(imm<<2)
}

// J jumps to the word address addr within the current region.
func (b *BranchUnit) J(pc, addr uint32) {
	b.delay.Arm(JumpTarget(pc, addr))
}

// JAL jumps like J and stores the return address (pc + 8) in $ra.
func (b *BranchUnit) JAL(pc, addr uint32) error {
	if err := b.regFile.Write(int(insts.RegRA), int32(pc+8)); err != nil {
		return err
	}
	b.J(pc, addr)
	return nil
}

// JR jumps to the address held in rs.
func (b *BranchUnit) JR(rs uint8) error {
	target, err := b.regFile.Read(int(rs))
	if err != nil {
		return err
	}
	b.delay.Arm(uint32(target))
	return nil
}

// JALR jumps to the address held in rs and stores pc + 8 in rd.
func (b *BranchUnit) JALR(pc uint32, rd, rs uint8) error {
	// Read target address first (in case rd == rs)
	target, err := b.regFile.Read(int(rs))
	if err != nil {
		return err
	}
	if err := b.regFile.Write(int(rd), int32(pc+8)); err != nil {
		return err
	}
	b.delay.Arm(uint32(target))
	return nil
}

// BEQ branches if rs == rt.
func (b *BranchUnit) BEQ(pc uint32, rs, rt uint8, imm int32) (bool, error) {
	return b.compare(pc, rs, rt, imm, func(x, y int32) bool { return x == y })
}

// BNE branches if rs != rt.
func (b *BranchUnit) BNE(pc uint32, rs, rt uint8, imm int32) (bool, error) {
	return b.compare(pc, rs, rt, imm, func(x, y int32) bool { return x != y })
}

// BLEZ branches if rs <= 0.
func (b *BranchUnit) BLEZ(pc uint32, rs uint8, imm int32) (bool, error) {
	return b.compare(pc, rs, insts.RegZero, imm, func(x, _ int32) bool { return x <= 0 })
}

// BGTZ branches if rs > 0.
func (b *BranchUnit) BGTZ(pc uint32, rs uint8, imm int32) (bool, error) {
	return b.compare(pc, rs, insts.RegZero, imm, func(x, _ int32) bool { return x > 0 })
}

func (b *BranchUnit) compare(pc uint32, rs, rt uint8, imm int32, taken func(x, y int32) bool) (bool, error) {
	x, y, err := b.regFile.read2(rs, rt)
	if err != nil {
		return false, err
	}
	if !taken(x, y) {
		return false, nil
	}
	b.delay.Arm(BranchTarget(pc, imm))
	return true, nil
}
