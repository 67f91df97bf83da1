// Package loader provides ELF binary loading for MIPS32 executables.
package loader

import (
	"debug/elf"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/sarchlab/mipsim/emu"
)

// SegmentFlags represents memory protection flags for a segment.
type SegmentFlags uint32

const (
	// SegmentFlagExecute indicates the segment is executable.
	SegmentFlagExecute SegmentFlags = 1 << iota
	// SegmentFlagWrite indicates the segment is writable.
	SegmentFlagWrite
	// SegmentFlagRead indicates the segment is readable.
	SegmentFlagRead
)

// DefaultStackTop is the initial stack pointer used by SPIM and MARS.
const DefaultStackTop uint32 = 0x7FFFEFFC

// pageSize aligns the initial program break.
const pageSize = 0x1000

// gpSymbol names the linker-provided global pointer.
const gpSymbol = "_gp"

// Segment represents a loadable segment from an ELF binary.
type Segment struct {
	// VirtAddr is the virtual address where this segment should be loaded.
	VirtAddr uint32
	// Data contains the segment contents from the file.
	Data []byte
	// MemSize is the size in memory (may be larger than len(Data) for BSS).
	MemSize uint32
	// Flags contains the segment protection flags.
	Flags SegmentFlags
}

// Program represents a loaded ELF program ready for execution.
type Program struct {
	// EntryPoint is the virtual address where execution should begin.
	EntryPoint uint32
	// GP is the value of the _gp symbol, or 0 if the binary has none.
	GP uint32
	// InitialSP is the initial stack pointer value.
	InitialSP uint32
	// HeapStart is the page-aligned end of the highest segment.
	HeapStart uint32
	// ByteOrder is the data encoding of the file and of its memory image.
	ByteOrder binary.ByteOrder
	// Segments contains all loadable segments from the ELF file.
	Segments []Segment
}

// Load parses a MIPS32 ELF binary of either byte order and returns a
// Program ready for loading into the emulator's memory.
func Load(path string) (*Program, error) {
	f, err := elf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ELF file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if f.Class != elf.ELFCLASS32 {
		return nil, fmt.Errorf("not a 32-bit ELF file")
	}

	if f.Machine != elf.EM_MIPS {
		return nil, fmt.Errorf("not a MIPS ELF file (machine type: %v)", f.Machine)
	}

	prog := &Program{
		EntryPoint: uint32(f.Entry),
		InitialSP:  DefaultStackTop,
		ByteOrder:  f.ByteOrder,
	}

	var end uint64
	for _, phdr := range f.Progs {
		if phdr.Type != elf.PT_LOAD {
			continue
		}

		seg, err := readSegment(phdr)
		if err != nil {
			return nil, err
		}
		prog.Segments = append(prog.Segments, seg)

		if top := phdr.Vaddr + phdr.Memsz; top > end {
			end = top
		}
	}

	prog.HeapStart = emu.DefaultHeapStart
	if end > 0 {
		heap := (end + pageSize - 1) &^ (pageSize - 1)
		if heap >= emu.AddressSpace {
			return nil, fmt.Errorf("segments end at 0x%x, leaving no room for the heap", end)
		}
		prog.HeapStart = uint32(heap)
	}

	gp, err := lookupSymbol(f, gpSymbol)
	if err != nil {
		return nil, err
	}
	prog.GP = gp

	return prog, nil
}

func readSegment(phdr *elf.Prog) (Segment, error) {
	if phdr.Vaddr+phdr.Memsz > emu.AddressSpace {
		return Segment{}, fmt.Errorf("segment at 0x%x (size %d) exceeds the 32-bit address space",
			phdr.Vaddr, phdr.Memsz)
	}

	data := make([]byte, phdr.Filesz)
	if phdr.Filesz > 0 {
		n, err := phdr.ReadAt(data, 0)
		if err != nil && err != io.EOF {
			return Segment{}, fmt.Errorf("failed to read segment at 0x%x: %w", phdr.Vaddr, err)
		}
		if uint64(n) != phdr.Filesz {
			return Segment{}, fmt.Errorf("short read for segment at 0x%x: got %d bytes, expected %d",
				phdr.Vaddr, n, phdr.Filesz)
		}
	}

	var flags SegmentFlags
	if phdr.Flags&elf.PF_X != 0 {
		flags |= SegmentFlagExecute
	}
	if phdr.Flags&elf.PF_W != 0 {
		flags |= SegmentFlagWrite
	}
	if phdr.Flags&elf.PF_R != 0 {
		flags |= SegmentFlagRead
	}

	return Segment{
		VirtAddr: uint32(phdr.Vaddr),
		Data:     data,
		MemSize:  uint32(phdr.Memsz),
		Flags:    flags,
	}, nil
}

// lookupSymbol returns the value of the named symbol, or 0 when the file
// is stripped or does not define it.
func lookupSymbol(f *elf.File, name string) (uint32, error) {
	symbols, err := f.Symbols()
	if errors.Is(err, elf.ErrNoSymbols) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read symbol table: %w", err)
	}

	for _, sym := range symbols {
		if sym.Name == name {
			return uint32(sym.Value), nil
		}
	}

	return 0, nil
}

// LoadInto copies every segment into memory. Bytes past a segment's file
// data are left as they are; fresh memory reads as zero.
func (p *Program) LoadInto(memory emu.ByteMemory) error {
	for _, seg := range p.Segments {
		if len(seg.Data) == 0 {
			continue
		}
		if err := memory.WriteBytes(seg.VirtAddr, seg.Data); err != nil {
			return fmt.Errorf("failed to load segment at 0x%08x: %w", seg.VirtAddr, err)
		}
	}
	return nil
}

// Boot returns the initial machine state for the program. $ra starts at
// the entry point.
func (p *Program) Boot() emu.Boot {
	return emu.Boot{
		Entry: p.EntryPoint,
		GP:    p.GP,
		SP:    p.InitialSP,
		RA:    p.EntryPoint,
	}
}
