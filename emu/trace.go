package emu

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/sarchlab/mipsim/insts"
)

// Snapshot is the machine state observed just before an instruction runs.
type Snapshot struct {
	Cycle uint64
	PC    uint32
	Inst  *insts.Instruction
	Regs  [NumRegs]int32
	Delay DelayState
}

// Tracer receives a snapshot for every executed instruction.
// Tracers observe only; they cannot influence execution.
type Tracer interface {
	Trace(s Snapshot)
}

// registerColumnWidth is the printed width of one "name=0x........" cell.
const registerColumnWidth = 18

// TextTracer prints a register dump and the decoded fields every cycle.
type TextTracer struct {
	w       io.Writer
	columns int
}

// NewTextTracer creates a tracer writing to w. When w is a terminal the
// register dump is laid out to fit its width.
func NewTextTracer(w io.Writer) *TextTracer {
	return &TextTracer{w: w, columns: RegisterColumns(w)}
}

// Trace prints one cycle.
func (t *TextTracer) Trace(s Snapshot) {
	_, _ = fmt.Fprintf(t.w, "\nBegin cycle %d\n", s.Cycle)
	WriteRegisters(t.w, s.Regs, t.columns)

	w := s.Inst.Word
	_, _ = fmt.Fprintf(t.w,
		"pc: 0x%08x word: 0x%08x op: %v opcode: %d rs: %d rt: %d rd: %d shamt: %d funct: %d imm: %d addr: 0x%07x delay: %v\n",
		s.PC, uint32(w), s.Inst.Op, uint8(w.Opcode()), w.Rs(), w.Rt(), w.Rd(),
		w.Shamt(), uint8(w.Funct()), w.Imm(), w.Address(), s.Delay)
}

// RegisterColumns picks how many registers fit on one line of w.
func RegisterColumns(w io.Writer) int {
	const fallback = 4

	file, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(file.Fd())) {
		return fallback
	}

	width, _, err := term.GetSize(int(file.Fd()))
	if err != nil || width < registerColumnWidth {
		return fallback
	}

	return width / registerColumnWidth
}

// WriteRegisters prints every register, columns per line.
func WriteRegisters(w io.Writer, regs [NumRegs]int32, columns int) {
	if columns < 1 {
		columns = 1
	}

	for i, value := range regs {
		_, _ = fmt.Fprintf(w, "%5s=0x%08x", RegName(i), uint32(value))
		if (i+1)%columns == 0 || i == len(regs)-1 {
			_, _ = fmt.Fprintln(w)
		} else {
			_, _ = fmt.Fprint(w, " ")
		}
	}
}
