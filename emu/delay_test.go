package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/mipsim/emu"
)

var _ = Describe("DelaySlot", func() {
	var d *emu.DelaySlot

	BeforeEach(func() {
		d = &emu.DelaySlot{}
	})

	It("should advance sequentially when nothing is pending", func() {
		Expect(d.State()).To(Equal(emu.DelayNone))
		Expect(d.Advance(0x1000)).To(Equal(uint32(0x1004)))
		Expect(d.State()).To(Equal(emu.DelayNone))
	})

	It("should run exactly one delay-slot instruction before the target", func() {
		d.Arm(0x2000)
		Expect(d.State()).To(Equal(emu.DelayArmed))

		// branch at 0x1000: the delay slot at 0x1004 comes next
		Expect(d.Advance(0x1000)).To(Equal(uint32(0x1004)))
		Expect(d.State()).To(Equal(emu.DelayDue))
		Expect(d.Target()).To(Equal(uint32(0x2000)))

		// delay slot at 0x1004: control transfers
		Expect(d.Advance(0x1004)).To(Equal(uint32(0x2000)))
		Expect(d.State()).To(Equal(emu.DelayNone))

		Expect(d.Advance(0x2000)).To(Equal(uint32(0x2004)))
	})

	It("should let a branch in the delay slot replace the pending target", func() {
		d.Arm(0x2000)
		Expect(d.Advance(0x1000)).To(Equal(uint32(0x1004)))

		d.Arm(0x3000)
		Expect(d.Advance(0x1004)).To(Equal(uint32(0x1008)))
		Expect(d.Advance(0x1008)).To(Equal(uint32(0x3000)))
	})

	It("should drop pending transfers on reset", func() {
		d.Arm(0x2000)
		d.Reset()
		Expect(d.State()).To(Equal(emu.DelayNone))
		Expect(d.Advance(0x1000)).To(Equal(uint32(0x1004)))
	})

	It("should name its states", func() {
		Expect(emu.DelayArmed.String()).To(Equal("armed"))
		Expect(emu.DelayDue.String()).To(Equal("due"))
	})
})
