package insts_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/mipsim/insts"
)

var _ = Describe("Insts Package", func() {
	It("should have an Instruction type", func() {
		var i insts.Instruction
		Expect(i).To(BeZero())
	})

	It("should have a Decoder type", func() {
		decoder := insts.NewDecoder()
		Expect(decoder).ToNot(BeNil())
	})

	It("should name every operation", func() {
		for _, name := range []string{"add", "lw", "jalr", "syscall", "mtlo"} {
			op, ok := insts.OpByName(name)
			Expect(ok).To(BeTrue(), name)
			Expect(op.String()).To(Equal(name))
		}
		_, ok := insts.OpByName("mult")
		Expect(ok).To(BeFalse())
	})
})
