package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/mipsim/emu"
)

var _ = Describe("BranchUnit", func() {
	var (
		regFile *emu.RegFile
		delay   *emu.DelaySlot
		bu      *emu.BranchUnit
	)

	BeforeEach(func() {
		regFile = emu.NewRegFile()
		delay = &emu.DelaySlot{}
		bu = emu.NewBranchUnit(regFile, delay)
	})

	Describe("targets", func() {
		It("should keep the region bits of the delay slot for jumps", func() {
			Expect(emu.JumpTarget(0x00400000, 0x0100010)).To(Equal(uint32(0x00400040)))
			Expect(emu.JumpTarget(0x9FFFFFFC, 0x0000001)).To(Equal(uint32(0xA0000004)))
		})

		It("should offset branches from the delay slot", func() {
			Expect(emu.BranchTarget(0x1000, 3)).To(Equal(uint32(0x1010)))
			Expect(emu.BranchTarget(0x1000, -1)).To(Equal(uint32(0x1000)))
		})
	})

	Describe("jumps", func() {
		It("should arm J without touching registers", func() {
			bu.J(0x00400000, 0x0100020)
			Expect(delay.State()).To(Equal(emu.DelayArmed))
			Expect(delay.Target()).To(Equal(uint32(0x00400080)))
			Expect(regFile.Values()).To(Equal([emu.NumRegs]int32{}))
		})

		It("should link pc+8 on JAL", func() {
			Expect(bu.JAL(0x00400010, 0x0100020)).To(Succeed())
			Expect(regFile.Read(31)).To(Equal(int32(0x00400018)))
			Expect(delay.Target()).To(Equal(uint32(0x00400080)))
		})

		It("should jump to a register with JR", func() {
			Expect(regFile.Write(31, 0x00400100)).To(Succeed())
			Expect(bu.JR(31)).To(Succeed())
			Expect(delay.Target()).To(Equal(uint32(0x00400100)))
		})

		It("should read the target before linking on JALR", func() {
			Expect(regFile.Write(8, 0x00400200)).To(Succeed())
			Expect(bu.JALR(0x00400000, 8, 8)).To(Succeed())
			Expect(delay.Target()).To(Equal(uint32(0x00400200)))
			Expect(regFile.Read(8)).To(Equal(int32(0x00400008)))
		})
	})

	Describe("conditional branches", func() {
		BeforeEach(func() {
			Expect(regFile.Write(1, 5)).To(Succeed())
			Expect(regFile.Write(2, 5)).To(Succeed())
			Expect(regFile.Write(3, -1)).To(Succeed())
		})

		It("should arm BEQ only when equal", func() {
			Expect(bu.BEQ(0x1000, 1, 3, 4)).To(BeFalse())
			Expect(delay.State()).To(Equal(emu.DelayNone))

			Expect(bu.BEQ(0x1000, 1, 2, 4)).To(BeTrue())
			Expect(delay.Target()).To(Equal(uint32(0x1014)))
			Expect(regFile.Read(31)).To(Equal(int32(0)))
		})

		It("should arm BNE only when different", func() {
			Expect(bu.BNE(0x1000, 1, 2, 4)).To(BeFalse())
			Expect(bu.BNE(0x1000, 1, 3, -2)).To(BeTrue())
			Expect(delay.Target()).To(Equal(uint32(0x0FFC)))
		})

		It("should compare against zero for BLEZ and BGTZ", func() {
			Expect(bu.BLEZ(0x1000, 3, 1)).To(BeTrue())
			Expect(bu.BLEZ(0x1000, 0, 1)).To(BeTrue())
			Expect(bu.BLEZ(0x1000, 1, 1)).To(BeFalse())
			Expect(bu.BGTZ(0x1000, 1, 1)).To(BeTrue())
			Expect(bu.BGTZ(0x1000, 0, 1)).To(BeFalse())
		})
	})
})
