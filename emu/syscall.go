package emu

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/sarchlab/mipsim/insts"
)

// SPIM syscall numbers, selected by $v0.
const (
	SyscallPrintInt    int32 = 1
	SyscallPrintString int32 = 4
	SyscallReadInt     int32 = 5
	SyscallReadString  int32 = 8
	SyscallSbrk        int32 = 9
	SyscallExit        int32 = 10
	SyscallPrintChar   int32 = 11
	SyscallReadChar    int32 = 12
	SyscallOpen        int32 = 13
	SyscallRead        int32 = 14
	SyscallWrite       int32 = 15
	SyscallClose       int32 = 16
	SyscallExit2       int32 = 17
)

// maxStringLen bounds print_string and open path reads.
const maxStringLen = 1 << 16

// ioChunkSize bounds the host buffer used by the read and write syscalls.
const ioChunkSize = 1 << 16

// SyscallResult represents the result of a syscall execution.
type SyscallResult struct {
	// Exited is true if the syscall caused program termination.
	Exited bool

	// ExitCode is the exit status if Exited is true.
	ExitCode int32
}

// SyscallHandler is the interface for handling SYSCALL instructions.
//
// The core forwards only the instruction's code field. The register file
// and memory are lent for the duration of the call and must not be retained.
type SyscallHandler interface {
	Handle(code uint32, regFile *RegFile, memory Memory) (SyscallResult, error)
}

// SyscallHandlerFunc adapts a function to the SyscallHandler interface.
type SyscallHandlerFunc func(code uint32, regFile *RegFile, memory Memory) (SyscallResult, error)

// Handle calls fn.
func (fn SyscallHandlerFunc) Handle(code uint32, regFile *RegFile, memory Memory) (SyscallResult, error) {
	return fn(code, regFile, memory)
}

// DefaultSyscallHandler implements the SPIM/MARS syscall convention:
// call number in $v0, arguments in $a0-$a2, result in $v0.
type DefaultSyscallHandler struct {
	stdin   *bufio.Reader
	stdout  io.Writer
	stderr  io.Writer
	fdTable *FDTable
	brk     uint32
}

// DefaultHeapStart is the initial program break when the loader gives none.
const DefaultHeapStart uint32 = 0x10040000

// NewDefaultSyscallHandler creates a default syscall handler.
func NewDefaultSyscallHandler(stdout, stderr io.Writer) *DefaultSyscallHandler {
	return &DefaultSyscallHandler{
		stdout:  stdout,
		stderr:  stderr,
		fdTable: NewFDTable(),
		brk:     DefaultHeapStart,
	}
}

// SetStdin sets the stdin reader for the syscall handler.
func (h *DefaultSyscallHandler) SetStdin(stdin io.Reader) {
	h.stdin = bufio.NewReader(stdin)
}

// SetHeapStart sets the initial program break used by sbrk.
func (h *DefaultSyscallHandler) SetHeapStart(addr uint32) {
	h.brk = alignWord(addr)
}

// FDTable returns the handler's file descriptor table.
func (h *DefaultSyscallHandler) FDTable() *FDTable {
	return h.fdTable
}

// Close releases every host file opened by the program.
func (h *DefaultSyscallHandler) Close() {
	h.fdTable.CloseAll()
}

// Handle executes the syscall selected by $v0.
func (h *DefaultSyscallHandler) Handle(_ uint32, regFile *RegFile, memory Memory) (SyscallResult, error) {
	num, err := regFile.Read(int(insts.RegV0))
	if err != nil {
		return SyscallResult{}, err
	}

	var a [3]int32
	for i := range a {
		if a[i], err = regFile.Read(int(insts.RegA0) + i); err != nil {
			return SyscallResult{}, err
		}
	}

	switch num {
	case SyscallPrintInt:
		_, err = fmt.Fprintf(h.stdout, "%d", a[0])
		return SyscallResult{}, err
	case SyscallPrintString:
		return SyscallResult{}, h.printString(memory, uint32(a[0]))
	case SyscallPrintChar:
		_, err = h.stdout.Write([]byte{byte(a[0])})
		return SyscallResult{}, err
	case SyscallReadInt:
		return SyscallResult{}, h.readInt(regFile)
	case SyscallReadString:
		return SyscallResult{}, h.readString(memory, uint32(a[0]), a[1])
	case SyscallReadChar:
		return SyscallResult{}, h.readChar(regFile)
	case SyscallSbrk:
		return SyscallResult{}, h.sbrk(regFile, a[0])
	case SyscallOpen:
		return SyscallResult{}, h.open(regFile, memory, uint32(a[0]), a[1])
	case SyscallRead:
		return SyscallResult{}, h.read(regFile, memory, a[0], uint32(a[1]), a[2])
	case SyscallWrite:
		return SyscallResult{}, h.write(regFile, memory, a[0], uint32(a[1]), a[2])
	case SyscallClose:
		_ = h.fdTable.Close(a[0])
		return SyscallResult{}, nil
	case SyscallExit:
		return SyscallResult{Exited: true}, nil
	case SyscallExit2:
		return SyscallResult{Exited: true, ExitCode: a[0]}, nil
	default:
		return SyscallResult{}, fmt.Errorf("%w: %d", ErrSyscall, num)
	}
}

func (h *DefaultSyscallHandler) printString(memory Memory, addr uint32) error {
	s, err := readCString(memory, addr, maxStringLen)
	if err != nil {
		return err
	}
	_, err = io.WriteString(h.stdout, s)
	return err
}

func (h *DefaultSyscallHandler) readLine() (string, error) {
	if h.stdin == nil {
		return "", io.EOF
	}
	line, err := h.stdin.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return line, nil
}

// readInt stores the integer on the next input line in $v0, or 0 on EOF.
func (h *DefaultSyscallHandler) readInt(regFile *RegFile) error {
	line, err := h.readLine()
	if err == io.EOF {
		return regFile.Write(int(insts.RegV0), 0)
	}
	if err != nil {
		return err
	}

	n, err := strconv.ParseInt(strings.TrimSpace(line), 10, 32)
	if err != nil {
		return fmt.Errorf("read_int: %w", err)
	}
	return regFile.Write(int(insts.RegV0), int32(n))
}

// readString reads at most length-1 bytes of a line and NUL-terminates them.
func (h *DefaultSyscallHandler) readString(memory Memory, buf uint32, length int32) error {
	if length < 1 {
		return nil
	}

	line, err := h.readLine()
	if err != nil && err != io.EOF {
		return err
	}
	if len(line) > int(length)-1 {
		line = line[:length-1]
	}

	return writeBytes(memory, buf, append([]byte(line), 0))
}

func (h *DefaultSyscallHandler) readChar(regFile *RegFile) error {
	if h.stdin == nil {
		return regFile.Write(int(insts.RegV0), 0)
	}
	b, err := h.stdin.ReadByte()
	if err == io.EOF {
		return regFile.Write(int(insts.RegV0), 0)
	}
	if err != nil {
		return err
	}
	return regFile.Write(int(insts.RegV0), int32(b))
}

// sbrk returns the old break in $v0 and moves the break by n bytes.
func (h *DefaultSyscallHandler) sbrk(regFile *RegFile, n int32) error {
	old := h.brk
	h.brk = alignWord(uint32(int32(h.brk) + n))
	return regFile.Write(int(insts.RegV0), int32(old))
}

// open maps MARS flags (0 read, 1 write+create, 9 append+create) to host flags.
func (h *DefaultSyscallHandler) open(regFile *RegFile, memory Memory, pathAddr uint32, flags int32) error {
	path, err := readCString(memory, pathAddr, maxStringLen)
	if err != nil {
		return err
	}

	var hostFlags int
	switch flags {
	case 0:
		hostFlags = os.O_RDONLY
	case 1:
		hostFlags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	case 9:
		hostFlags = os.O_WRONLY | os.O_CREATE | os.O_APPEND
	default:
		return regFile.Write(int(insts.RegV0), -1)
	}

	fd, err := h.fdTable.Open(path, hostFlags, 0644)
	if err != nil {
		fd = -1
	}
	return regFile.Write(int(insts.RegV0), fd)
}

func (h *DefaultSyscallHandler) read(regFile *RegFile, memory Memory, fd int32, buf uint32, count int32) error {
	if count < 0 || !h.fdTable.IsOpen(fd) {
		return regFile.Write(int(insts.RegV0), -1)
	}

	chunk := make([]byte, min(int(count), ioChunkSize))
	total := 0
	for total < int(count) {
		want := min(int(count)-total, len(chunk))

		var n int
		var err error
		switch {
		case fd == 0 && h.stdin != nil:
			n, err = h.stdin.Read(chunk[:want])
		case fd == 0:
			err = io.EOF
		default:
			n, err = h.fdTable.Read(fd, chunk[:want])
		}

		if err != nil && err != io.EOF {
			return regFile.Write(int(insts.RegV0), -1)
		}
		if err := writeBytes(memory, buf+uint32(total), chunk[:n]); err != nil {
			return err
		}
		total += n

		// A short read means no more data is available right now.
		if n < want || err == io.EOF {
			break
		}
	}

	return regFile.Write(int(insts.RegV0), int32(total))
}

func (h *DefaultSyscallHandler) write(regFile *RegFile, memory Memory, fd int32, buf uint32, count int32) error {
	if count < 0 || !h.fdTable.IsOpen(fd) {
		return regFile.Write(int(insts.RegV0), -1)
	}

	total := 0
	for total < int(count) {
		want := min(int(count)-total, ioChunkSize)

		data, err := readBytes(memory, buf+uint32(total), uint32(want))
		if err != nil {
			return err
		}

		var n int
		switch fd {
		case 0:
			err = os.ErrInvalid
		case 1:
			n, err = h.stdout.Write(data)
		case 2:
			n, err = h.stderr.Write(data)
		default:
			n, err = h.fdTable.Write(fd, data)
		}

		if err != nil {
			return regFile.Write(int(insts.RegV0), -1)
		}
		total += n
	}

	return regFile.Write(int(insts.RegV0), int32(total))
}

func alignWord(addr uint32) uint32 {
	return (addr + 3) &^ 0x3
}
