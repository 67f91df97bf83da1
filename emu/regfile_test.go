package emu_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/mipsim/emu"
)

var _ = Describe("RegFile", func() {
	var regFile *emu.RegFile

	BeforeEach(func() {
		regFile = emu.NewRegFile()
	})

	It("should start zeroed", func() {
		Expect(regFile.Values()).To(Equal([emu.NumRegs]int32{}))
	})

	It("should read back every writable register", func() {
		for i := 1; i < emu.NumRegs; i++ {
			Expect(regFile.Write(i, int32(i*1000-7))).To(Succeed())
		}
		for i := 1; i < emu.NumRegs; i++ {
			Expect(regFile.Read(i)).To(Equal(int32(i*1000 - 7)))
		}
	})

	It("should discard writes to register 0", func() {
		Expect(regFile.Write(0, 12345)).To(Succeed())
		Expect(regFile.Read(0)).To(Equal(int32(0)))
	})

	It("should expose HI and LO as slots 32 and 33", func() {
		Expect(regFile.Write(emu.RegHI, -1)).To(Succeed())
		Expect(regFile.Write(emu.RegLO, 2)).To(Succeed())
		Expect(regFile.Values()[32]).To(Equal(int32(-1)))
		Expect(regFile.Values()[33]).To(Equal(int32(2)))
		Expect(emu.RegName(emu.RegHI)).To(Equal("hi"))
		Expect(emu.RegName(31)).To(Equal("ra"))
	})

	DescribeTable("out-of-range indices",
		func(index int) {
			_, err := regFile.Read(index)
			Expect(errors.Is(err, emu.ErrRegisterIndex)).To(BeTrue())

			err = regFile.Write(index, 1)
			Expect(errors.Is(err, emu.ErrRegisterIndex)).To(BeTrue())

			var indexErr *emu.RegisterIndexError
			Expect(errors.As(err, &indexErr)).To(BeTrue())
			Expect(indexErr.Index).To(Equal(index))
		},
		Entry("negative", -1),
		Entry("just past LO", 34),
		Entry("far away", 255),
	)

	It("should reset all registers", func() {
		Expect(regFile.Write(5, 9)).To(Succeed())
		regFile.Reset()
		Expect(regFile.Read(5)).To(Equal(int32(0)))
	})
})
