package emu

import (
	"encoding/binary"
	"fmt"

	"github.com/sarchlab/akita/v4/mem/mem"
)

// AddressSpace is the size of the simulated 32-bit address space.
const AddressSpace = uint64(1) << 32

// Memory is the word-granular memory the execution core uses.
type Memory interface {
	// ReadWord reads the aligned word at addr. The signed flag mirrors the
	// load's extension mode and does not change a full-word result.
	ReadWord(addr uint32, signed bool) (uint32, error)
	// WriteWord writes the aligned word at addr.
	WriteWord(addr uint32, value uint32) error
}

// ByteMemory is a Memory that also supports raw byte access, as used by
// the loader and by syscalls that move strings and buffers.
type ByteMemory interface {
	Memory
	ReadBytes(addr uint32, n uint32) ([]byte, error)
	WriteBytes(addr uint32, data []byte) error
}

// StorageMemory is a sparse memory backed by an Akita storage.
// Words are assembled from bytes in the configured byte order.
type StorageMemory struct {
	storage *mem.Storage
	order   binary.ByteOrder
}

// NewMemory creates a big-endian memory covering the full address space.
func NewMemory() *StorageMemory {
	return NewMemoryWithByteOrder(binary.BigEndian)
}

// NewMemoryWithByteOrder creates a memory that packs words in order.
func NewMemoryWithByteOrder(order binary.ByteOrder) *StorageMemory {
	return &StorageMemory{
		storage: mem.NewStorage(AddressSpace),
		order:   order,
	}
}

// ByteOrder returns the byte order used to assemble words.
func (m *StorageMemory) ByteOrder() binary.ByteOrder {
	return m.order
}

// ReadWord reads the aligned word at addr.
func (m *StorageMemory) ReadWord(addr uint32, _ bool) (uint32, error) {
	if addr&0x3 != 0 {
		return 0, fmt.Errorf("%w: read at 0x%08x", ErrUnaligned, addr)
	}

	data, err := m.storage.Read(uint64(addr), 4)
	if err != nil {
		return 0, fmt.Errorf("failed to read word at 0x%08x: %w", addr, err)
	}

	return m.order.Uint32(data), nil
}

// WriteWord writes the aligned word at addr.
func (m *StorageMemory) WriteWord(addr uint32, value uint32) error {
	if addr&0x3 != 0 {
		return fmt.Errorf("%w: write at 0x%08x", ErrUnaligned, addr)
	}

	data := make([]byte, 4)
	m.order.PutUint32(data, value)

	if err := m.storage.Write(uint64(addr), data); err != nil {
		return fmt.Errorf("failed to write word at 0x%08x: %w", addr, err)
	}

	return nil
}

// ReadBytes reads n raw bytes starting at addr.
func (m *StorageMemory) ReadBytes(addr uint32, n uint32) ([]byte, error) {
	if uint64(addr)+uint64(n) > AddressSpace {
		return nil, fmt.Errorf("read of %d bytes at 0x%08x past end of memory", n, addr)
	}

	data, err := m.storage.Read(uint64(addr), uint64(n))
	if err != nil {
		return nil, fmt.Errorf("failed to read %d bytes at 0x%08x: %w", n, addr, err)
	}

	return data, nil
}

// WriteBytes writes raw bytes starting at addr.
func (m *StorageMemory) WriteBytes(addr uint32, data []byte) error {
	if uint64(addr)+uint64(len(data)) > AddressSpace {
		return fmt.Errorf("write of %d bytes at 0x%08x past end of memory", len(data), addr)
	}

	if err := m.storage.Write(uint64(addr), data); err != nil {
		return fmt.Errorf("failed to write %d bytes at 0x%08x: %w", len(data), addr, err)
	}

	return nil
}

// LoadWords writes consecutive words starting at addr.
func LoadWords(m Memory, addr uint32, words []uint32) error {
	for i, word := range words {
		if err := m.WriteWord(addr+uint32(i)*4, word); err != nil {
			return err
		}
	}
	return nil
}

// readBytes reads raw bytes through ByteMemory when available, otherwise
// through aligned big-endian word reads.
func readBytes(m Memory, addr uint32, n uint32) ([]byte, error) {
	if bm, ok := m.(ByteMemory); ok {
		return bm.ReadBytes(addr, n)
	}

	out := make([]byte, 0, n)
	for i := uint32(0); i < n; i++ {
		a := addr + i
		word, err := m.ReadWord(a&^0x3, false)
		if err != nil {
			return nil, err
		}
		shift := (3 - a&0x3) * 8
		out = append(out, byte(word>>shift))
	}
	return out, nil
}

// writeBytes writes raw bytes through ByteMemory when available, otherwise
// by read-modify-write of aligned big-endian words.
func writeBytes(m Memory, addr uint32, data []byte) error {
	if bm, ok := m.(ByteMemory); ok {
		return bm.WriteBytes(addr, data)
	}

	for i, b := range data {
		a := addr + uint32(i)
		word, err := m.ReadWord(a&^0x3, false)
		if err != nil {
			return err
		}
		shift := (3 - a&0x3) * 8
		word = word&^(0xFF<<shift) | uint32(b)<<shift
		if err := m.WriteWord(a&^0x3, word); err != nil {
			return err
		}
	}
	return nil
}

// readCString reads a NUL-terminated string of at most limit bytes.
func readCString(m Memory, addr uint32, limit int) (string, error) {
	var buf []byte
	for i := 0; i < limit; i++ {
		b, err := readBytes(m, addr+uint32(i), 1)
		if err != nil {
			return "", err
		}
		if b[0] == 0 {
			return string(buf), nil
		}
		buf = append(buf, b[0])
	}
	return string(buf), nil
}
