package loader_test

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/mipsim/emu"
	"github.com/sarchlab/mipsim/insts"
	"github.com/sarchlab/mipsim/loader"
)

const (
	emMIPS  = 8
	emX8664 = 62
	ptLoad  = 1
	ptNote  = 4
	pfRX    = 0x5
	pfRW    = 0x6
)

type elfSegment struct {
	typ     uint32
	addr    uint32
	flags   uint32
	data    []byte
	memSize uint32
}

type elfSymbol struct {
	name  string
	value uint32
}

var _ = Describe("ELF Loader", func() {
	var tempDir string

	BeforeEach(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "elf-loader-test")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		_ = os.RemoveAll(tempDir)
	})

	path := func(name string) string {
		return filepath.Join(tempDir, name)
	}

	Describe("Load", func() {
		Context("with a valid little-endian MIPS binary", func() {
			var elfPath string
			code := words(binary.LittleEndian, 0x24080007, 0x00000000)

			BeforeEach(func() {
				elfPath = path("le.elf")
				writeMIPSELF(elfPath, binary.LittleEndian, emMIPS, 0x400000,
					[]elfSegment{{typ: ptLoad, addr: 0x400000, flags: pfRX, data: code}}, nil)
			})

			It("should extract the entry point and byte order", func() {
				prog, err := loader.Load(elfPath)
				Expect(err).NotTo(HaveOccurred())
				Expect(prog.EntryPoint).To(Equal(uint32(0x400000)))
				Expect(prog.ByteOrder).To(Equal(binary.ByteOrder(binary.LittleEndian)))
			})

			It("should load the segment contents", func() {
				prog, err := loader.Load(elfPath)
				Expect(err).NotTo(HaveOccurred())
				Expect(prog.Segments).To(HaveLen(1))
				Expect(prog.Segments[0].VirtAddr).To(Equal(uint32(0x400000)))
				Expect(prog.Segments[0].Data).To(Equal(code))
				Expect(prog.Segments[0].Flags & loader.SegmentFlagExecute).NotTo(BeZero())
			})

			It("should use the default stack and no global pointer", func() {
				prog, err := loader.Load(elfPath)
				Expect(err).NotTo(HaveOccurred())
				Expect(prog.InitialSP).To(Equal(loader.DefaultStackTop))
				Expect(prog.GP).To(BeZero())
			})

			It("should place the heap at the next page", func() {
				prog, err := loader.Load(elfPath)
				Expect(err).NotTo(HaveOccurred())
				Expect(prog.HeapStart).To(Equal(uint32(0x401000)))
			})
		})

		Context("with a big-endian binary carrying a symbol table", func() {
			It("should read the global pointer from _gp", func() {
				elfPath := path("be.elf")
				writeMIPSELF(elfPath, binary.BigEndian, emMIPS, 0x400000,
					[]elfSegment{{typ: ptLoad, addr: 0x400000, flags: pfRX, data: make([]byte, 8)}},
					[]elfSymbol{{name: "main", value: 0x400000}, {name: "_gp", value: 0x10008000}})

				prog, err := loader.Load(elfPath)
				Expect(err).NotTo(HaveOccurred())
				Expect(prog.ByteOrder).To(Equal(binary.ByteOrder(binary.BigEndian)))
				Expect(prog.GP).To(Equal(uint32(0x10008000)))
				Expect(prog.Boot().GP).To(Equal(uint32(0x10008000)))
			})

			It("should leave gp at 0 when _gp is absent", func() {
				elfPath := path("nogp.elf")
				writeMIPSELF(elfPath, binary.BigEndian, emMIPS, 0x400000,
					[]elfSegment{{typ: ptLoad, addr: 0x400000, flags: pfRX, data: make([]byte, 4)}},
					[]elfSymbol{{name: "main", value: 0x400000}})

				prog, err := loader.Load(elfPath)
				Expect(err).NotTo(HaveOccurred())
				Expect(prog.GP).To(BeZero())
			})
		})

		Context("with several segments", func() {
			It("should keep code, data and BSS apart", func() {
				elfPath := path("multi.elf")
				code := make([]byte, 8)
				data := []byte{0x01, 0x02, 0x03, 0x04}
				writeMIPSELF(elfPath, binary.BigEndian, emMIPS, 0x400000, []elfSegment{
					{typ: ptLoad, addr: 0x400000, flags: pfRX, data: code},
					{typ: ptLoad, addr: 0x10010000, flags: pfRW, data: data, memSize: 0x2004},
					{typ: ptNote, addr: 0, flags: 0x4},
				}, nil)

				prog, err := loader.Load(elfPath)
				Expect(err).NotTo(HaveOccurred())
				Expect(prog.Segments).To(HaveLen(2))

				dataSeg := prog.Segments[1]
				Expect(dataSeg.Data).To(Equal(data))
				Expect(dataSeg.MemSize).To(Equal(uint32(0x2004)))
				Expect(dataSeg.Flags & loader.SegmentFlagWrite).NotTo(BeZero())
				Expect(prog.HeapStart).To(Equal(uint32(0x10013000)))
			})

			It("should reject segments that leave no page for the heap", func() {
				elfPath := path("top.elf")
				writeMIPSELF(elfPath, binary.BigEndian, emMIPS, 0xFFFFF000, []elfSegment{
					{typ: ptLoad, addr: 0xFFFFF000, flags: pfRW, data: []byte{1, 2, 3, 4}, memSize: 8},
				}, nil)

				_, err := loader.Load(elfPath)
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("no room for the heap"))
			})

			It("should fall back to the default heap without loadable segments", func() {
				elfPath := path("noload.elf")
				writeMIPSELF(elfPath, binary.BigEndian, emMIPS, 0x400000,
					[]elfSegment{{typ: ptNote, flags: 0x4}}, nil)

				prog, err := loader.Load(elfPath)
				Expect(err).NotTo(HaveOccurred())
				Expect(prog.Segments).To(BeEmpty())
				Expect(prog.HeapStart).To(Equal(emu.DefaultHeapStart))
			})
		})

		Context("with an invalid file", func() {
			It("should return error for non-existent file", func() {
				_, err := loader.Load("/nonexistent/path/to/file.elf")
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("failed to open"))
			})

			It("should return error for non-ELF file", func() {
				notElfPath := path("not-elf.bin")
				Expect(os.WriteFile(notElfPath, []byte("not an elf file"), 0644)).To(Succeed())

				_, err := loader.Load(notElfPath)
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("ELF"))
			})

			It("should reject a 64-bit ELF", func() {
				elfPath := path("elf64.elf")
				createMinimal64BitELF(elfPath)

				_, err := loader.Load(elfPath)
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("not a 32-bit"))
			})

			It("should reject another architecture", func() {
				elfPath := path("x86.elf")
				writeMIPSELF(elfPath, binary.LittleEndian, emX8664, 0, nil, nil)

				_, err := loader.Load(elfPath)
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("not a MIPS"))
			})
		})
	})

	DescribeTable("running a loaded program",
		func(order binary.ByteOrder) {
			elfPath := path("run.elf")
			code := words(order,
				uint32(insts.EncodeI(insts.OpcodeADDIU, 0, 8, 7)),
				uint32(insts.EncodeI(insts.OpcodeADDIU, 8, 9, 5)),
			)
			writeMIPSELF(elfPath, order, emMIPS, 0x400000,
				[]elfSegment{{typ: ptLoad, addr: 0x400000, flags: pfRX, data: code}}, nil)

			prog, err := loader.Load(elfPath)
			Expect(err).NotTo(HaveOccurred())

			memory := emu.NewMemoryWithByteOrder(prog.ByteOrder)
			Expect(prog.LoadInto(memory)).To(Succeed())

			e := emu.NewEmulator(emu.WithMemory(memory), emu.WithBoot(prog.Boot()))
			result := e.Run()

			Expect(result.Reason).To(Equal(emu.HaltSentinel))
			v, err := e.RegFile().Read(9)
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal(int32(12)))
			sp, _ := e.RegFile().Read(int(insts.RegSP))
			Expect(uint32(sp)).To(Equal(loader.DefaultStackTop))
		},
		Entry("big-endian", binary.ByteOrder(binary.BigEndian)),
		Entry("little-endian", binary.ByteOrder(binary.LittleEndian)),
	)
})

func words(order binary.ByteOrder, ws ...uint32) []byte {
	out := make([]byte, 4*len(ws))
	for i, w := range ws {
		order.PutUint32(out[4*i:], w)
	}
	return out
}

// writeMIPSELF writes an ELF32 executable with the given program headers
// and, if symbols is non-empty, a .symtab/.strtab pair.
func writeMIPSELF(path string, order binary.ByteOrder, machine uint16, entry uint32,
	segments []elfSegment, symbols []elfSymbol) {
	const (
		ehsize    = 52
		phentsize = 32
		shentsize = 40
		symsize   = 16
	)

	// ELF Header (52 bytes)
	header := make([]byte, ehsize)
	copy(header[0:4], []byte{0x7f, 'E', 'L', 'F'})
	header[4] = 1 // 32-bit
	if order == binary.ByteOrder(binary.BigEndian) {
		header[5] = 2
	} else {
		header[5] = 1
	}
	header[6] = 1                             // version
	order.PutUint16(header[16:18], 2)         // executable
	order.PutUint16(header[18:20], machine)   // machine
	order.PutUint32(header[20:24], 1)         // version
	order.PutUint32(header[24:28], entry)     // entry
	order.PutUint32(header[28:32], ehsize)    // phoff
	order.PutUint16(header[40:42], ehsize)    // ehsize
	order.PutUint16(header[42:44], phentsize) // phentsize
	order.PutUint16(header[44:46], uint16(len(segments)))

	offset := uint32(ehsize + phentsize*len(segments))
	phdrs := &bytes.Buffer{}
	body := &bytes.Buffer{}
	for _, seg := range segments {
		memSize := seg.memSize
		if memSize == 0 {
			memSize = uint32(len(seg.data))
		}

		ph := make([]byte, phentsize)
		order.PutUint32(ph[0:4], seg.typ)
		order.PutUint32(ph[4:8], offset)
		order.PutUint32(ph[8:12], seg.addr)
		order.PutUint32(ph[12:16], seg.addr)
		order.PutUint32(ph[16:20], uint32(len(seg.data)))
		order.PutUint32(ph[20:24], memSize)
		order.PutUint32(ph[24:28], seg.flags)
		order.PutUint32(ph[28:32], 0x1000)
		phdrs.Write(ph)

		body.Write(seg.data)
		offset += uint32(len(seg.data))
	}

	var sections []byte
	if len(symbols) > 0 {
		// .strtab
		strtab := []byte{0}
		symtab := make([]byte, symsize) // null symbol
		for _, sym := range symbols {
			sym32 := make([]byte, symsize)
			order.PutUint32(sym32[0:4], uint32(len(strtab)))
			order.PutUint32(sym32[4:8], sym.value)
			sym32[12] = 0x10                      // STB_GLOBAL, STT_NOTYPE
			order.PutUint16(sym32[14:16], 0xfff1) // SHN_ABS
			symtab = append(symtab, sym32...)
			strtab = append(append(strtab, sym.name...), 0)
		}
		shstrtab := []byte("\x00.symtab\x00.strtab\x00.shstrtab\x00")

		for body.Len()%4 != 0 {
			body.WriteByte(0)
			offset++
		}
		symtabOff := offset
		body.Write(symtab)
		strtabOff := symtabOff + uint32(len(symtab))
		body.Write(strtab)
		shstrtabOff := strtabOff + uint32(len(strtab))
		body.Write(shstrtab)
		offset = shstrtabOff + uint32(len(shstrtab))
		for body.Len()%4 != 0 {
			body.WriteByte(0)
			offset++
		}

		section := func(name, typ, off, size, link, info, entsize uint32) []byte {
			sh := make([]byte, shentsize)
			order.PutUint32(sh[0:4], name)
			order.PutUint32(sh[4:8], typ)
			order.PutUint32(sh[16:20], off)
			order.PutUint32(sh[20:24], size)
			order.PutUint32(sh[24:28], link)
			order.PutUint32(sh[28:32], info)
			order.PutUint32(sh[32:36], 1)
			order.PutUint32(sh[36:40], entsize)
			return sh
		}
		sections = append(sections, make([]byte, shentsize)...)
		sections = append(sections, section(1, 2, symtabOff, uint32(len(symtab)), 2, 1, symsize)...)
		sections = append(sections, section(9, 3, strtabOff, uint32(len(strtab)), 0, 0, 0)...)
		sections = append(sections, section(17, 3, shstrtabOff, uint32(len(shstrtab)), 0, 0, 0)...)

		order.PutUint32(header[32:36], offset) // shoff
		order.PutUint16(header[46:48], shentsize)
		order.PutUint16(header[48:50], 4) // shnum
		order.PutUint16(header[50:52], 3) // shstrndx
	}

	file, _ := os.Create(path)
	defer func() { _ = file.Close() }()
	_, _ = file.Write(header)
	_, _ = file.Write(phdrs.Bytes())
	_, _ = file.Write(body.Bytes())
	_, _ = file.Write(sections)
}

// createMinimal64BitELF creates a minimal 64-bit ELF to test rejection.
func createMinimal64BitELF(path string) {
	elfHeader := make([]byte, 64)

	copy(elfHeader[0:4], []byte{0x7f, 'E', 'L', 'F'})
	elfHeader[4] = 2                                   // 64-bit
	elfHeader[5] = 1                                   // little endian
	elfHeader[6] = 1                                   // version
	binary.LittleEndian.PutUint16(elfHeader[16:18], 2) // executable
	binary.LittleEndian.PutUint16(elfHeader[18:20], 8) // MIPS (won't matter)
	binary.LittleEndian.PutUint32(elfHeader[20:24], 1) // version
	binary.LittleEndian.PutUint16(elfHeader[52:54], 64)

	file, _ := os.Create(path)
	defer func() { _ = file.Close() }()
	_, _ = file.Write(elfHeader)
}
