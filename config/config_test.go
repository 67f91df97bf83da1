package config_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/mipsim/config"
	"github.com/sarchlab/mipsim/emu"
)

var _ = Describe("Config", func() {
	Describe("Default Config", func() {
		It("should create valid default config", func() {
			c := config.DefaultConfig()
			Expect(c.Validate()).To(Succeed())
		})

		It("should use SPIM pointer defaults and no budget", func() {
			c := config.DefaultConfig()
			Expect(c.StackPointer).To(Equal(uint32(0x7FFFEFFC)))
			Expect(c.HeapStart).To(Equal(uint32(0x10040000)))
			Expect(c.MaxInstructions).To(BeZero())
			Expect(c.LegacySemantics).To(BeFalse())
		})
	})

	Describe("Validation", func() {
		It("should reject an unaligned stack pointer", func() {
			c := config.DefaultConfig()
			c.StackPointer = 0x7FFFEFFD
			Expect(c.Validate()).To(HaveOccurred())
		})

		It("should reject a zero stack pointer", func() {
			c := config.DefaultConfig()
			c.StackPointer = 0
			Expect(c.Validate()).To(HaveOccurred())
		})

		It("should reject an unaligned heap start", func() {
			c := config.DefaultConfig()
			c.HeapStart = 0x10040002
			Expect(c.Validate()).To(HaveOccurred())
		})

		It("should reject a heap above the stack", func() {
			c := config.DefaultConfig()
			c.HeapStart = 0x7FFFF000
			Expect(c.Validate()).To(HaveOccurred())
		})
	})

	Describe("Clone", func() {
		It("should create independent copy", func() {
			original := config.DefaultConfig()
			clone := original.Clone()

			clone.MaxInstructions = 100

			Expect(original.MaxInstructions).To(BeZero())
			Expect(clone.MaxInstructions).To(Equal(uint64(100)))
		})
	})

	Describe("EmulatorOptions", func() {
		It("should apply the instruction budget", func() {
			c := config.DefaultConfig()
			c.MaxInstructions = 2

			e := emu.NewEmulator(c.EmulatorOptions()...)
			// j 0; nop -- loops forever without a budget
			Expect(e.LoadProgram(0, []uint32{0x08000000, 0x00000040})).To(Succeed())

			result := e.Run()
			Expect(result.Reason).To(Equal(emu.HaltBudget))
			Expect(result.Cycles).To(Equal(uint64(2)))
		})
	})

	Describe("File Operations", func() {
		var tempDir string

		BeforeEach(func() {
			var err error
			tempDir, err = os.MkdirTemp("", "config-test")
			Expect(err).NotTo(HaveOccurred())
		})

		AfterEach(func() {
			_ = os.RemoveAll(tempDir)
		})

		It("should save and load config", func() {
			original := config.DefaultConfig()
			original.MaxInstructions = 5000
			original.LegacySemantics = true

			path := filepath.Join(tempDir, "mipsim.json")
			Expect(original.SaveConfig(path)).To(Succeed())

			loaded, err := config.LoadConfig(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(Equal(original))
		})

		It("should keep defaults for missing fields", func() {
			path := filepath.Join(tempDir, "partial.json")
			Expect(os.WriteFile(path, []byte(`{"trace": true}`), 0644)).To(Succeed())

			loaded, err := config.LoadConfig(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.Trace).To(BeTrue())
			Expect(loaded.StackPointer).To(Equal(uint32(0x7FFFEFFC)))
		})

		It("should return error for non-existent file", func() {
			_, err := config.LoadConfig("/nonexistent/path/mipsim.json")
			Expect(err).To(HaveOccurred())
		})

		It("should return error for invalid JSON", func() {
			path := filepath.Join(tempDir, "invalid.json")
			err := os.WriteFile(path, []byte("not valid json"), 0644)
			Expect(err).NotTo(HaveOccurred())

			_, err = config.LoadConfig(path)
			Expect(err).To(HaveOccurred())
		})
	})
})
