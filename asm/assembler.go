// Package asm is a small two-pass assembler for MIPS32 source text.
//
// Each line holds optional labels ("loop:"), then one instruction or
// directive. Comments start with '#'. Operands are separated by commas or
// blanks; registers are written "$t0" or "$8"; memory operands are
// "offset($base)". Supported directives:
//
//	.equ NAME VALUE    define an equate
//	.word V [, V...]   emit raw words (numbers, equates or labels)
//
// "$(expr)" anywhere on a line is evaluated at assembly time as a Starlark
// expression over the integer equates and the labels defined so far.
package asm

import (
	"bufio"
	"fmt"
	"io"
	"maps"
	"math"
	"regexp"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/sarchlab/mipsim/emu"
	"github.com/sarchlab/mipsim/insts"
)

// TextBase is the conventional load address of the text segment.
const TextBase uint32 = 0x00400000

// nopWord is "sll $zero, $zero, 1". The all-zero word halts the machine.
const nopWord uint32 = 0x00000040

// Predefined system equates
var sysEquate = map[string]string{
	"LINENO":    "0",
	"TEXT_BASE": fmt.Sprintf("%#x", TextBase),
	"HEAP_BASE": fmt.Sprintf("%#x", emu.DefaultHeapStart),
}

var (
	labelRe  = regexp.MustCompile(`^([A-Za-z_.][\w.]*):`)
	parenRe  = regexp.MustCompile(`\$\([^\$]*\)`)
	memoryRe = regexp.MustCompile(`^(.*)\((\$?\w+)\)$`)
)

// Program is the output of the assembler.
type Program struct {
	Origin uint32            // address of Words[0]
	Words  []uint32          // machine words
	LineNo []int             // source line of each word
	Labels map[string]uint32 // label addresses
}

// Entry returns the address of "main" if defined, else the origin.
func (p *Program) Entry() uint32 {
	if addr, ok := p.Labels["main"]; ok {
		return addr
	}
	return p.Origin
}

// LoadInto writes the program's words at its origin.
func (p *Program) LoadInto(memory emu.Memory) error {
	return emu.LoadWords(memory, p.Origin, p.Words)
}

// Assembler is a two-pass assembler for MIPS32. Labels may be used before
// they are defined, except inside $(...) expressions.
type Assembler struct {
	Origin uint32 // address of the first emitted word

	Label  map[string]uint32 // Map of labels to addresses.
	Equate map[string]string // Map of equates.

	predefine map[string]string
}

// statement is one instruction or .word line, placed at addr.
type statement struct {
	lineNo int
	line   string
	addr   uint32
	words  []string
}

// Assemble assembles src at TextBase.
func Assemble(src string) (*Program, error) {
	asm := &Assembler{Origin: TextBase}
	return asm.Parse(strings.NewReader(src))
}

// Predefine defines an equate visible to every subsequent Parse.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// Parse assembles an input stream into a Program.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {
	scanner := bufio.NewScanner(input)

	var line string
	var lineno int

	defer func() {
		if err != nil {
			prog = nil
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	asm.Label = make(map[string]uint32)
	asm.Equate = maps.Clone(sysEquate)
	maps.Copy(asm.Equate, asm.predefine)

	// Pass 1: place labels and statements.
	var stmts []statement
	addr := asm.Origin
	for scanner.Scan() {
		lineno++
		line = strings.TrimSpace(stripComment(scanner.Text()))

		var words []string
		words, err = asm.parseLine(line, lineno, addr)
		if err != nil {
			return
		}
		if len(words) == 0 {
			continue
		}

		var n int
		n, err = wordCount(words)
		if err != nil {
			return
		}

		stmts = append(stmts, statement{lineNo: lineno, line: line, addr: addr, words: words})
		addr += uint32(4 * n)
	}
	if err = scanner.Err(); err != nil {
		return
	}

	// Pass 2: encode with every label known.
	prog = &Program{Origin: asm.Origin, Labels: maps.Clone(asm.Label)}
	for _, st := range stmts {
		lineno, line = st.lineNo, st.line

		var words []uint32
		words, err = asm.encode(st)
		if err != nil {
			return
		}
		for range words {
			prog.LineNo = append(prog.LineNo, st.lineNo)
		}
		prog.Words = append(prog.Words, words...)
	}

	return
}

func stripComment(text string) string {
	if i := strings.IndexByte(text, '#'); i >= 0 {
		return text[:i]
	}
	return text
}

// parseLine handles expressions, labels and .equ, and returns the words of
// any remaining statement.
func (asm *Assembler) parseLine(line string, lineno int, addr uint32) (words []string, err error) {
	asm.Equate["LINENO"] = strconv.Itoa(lineno)

	// Do $() evaluations
	line = parenRe.ReplaceAllStringFunc(line, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil && err == nil {
			err = _err
		}
		return strconv.FormatInt(value, 10)
	})
	if err != nil {
		return
	}

	for {
		line = strings.TrimSpace(line)
		m := labelRe.FindStringSubmatch(line)
		if m == nil {
			break
		}
		label := m[1]
		if _, ok := asm.Label[label]; ok {
			err = ErrLabelDuplicate
			return
		}
		asm.Label[label] = addr
		line = line[len(m[0]):]
	}

	if line == "" {
		return
	}

	mnemonic := strings.Fields(line)[0]
	rest := line[len(mnemonic):]
	if strings.HasSuffix(mnemonic, ":") {
		err = ErrLabelSyntax
		return
	}

	words = append([]string{strings.ToLower(mnemonic)}, splitOperands(rest)...)

	// .equ CONST VALUE
	if words[0] == ".equ" {
		if len(words) != 3 {
			err = ErrEquateSyntax
			return
		}
		if _, ok := asm.Equate[words[1]]; ok {
			err = ErrEquateDuplicate
			return
		}
		asm.Equate[words[1]] = words[2]
		words = nil
	}

	return
}

func splitOperands(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
}

// wordCount returns how many words a statement emits.
func wordCount(words []string) (int, error) {
	switch words[0] {
	case ".word":
		if len(words) < 2 {
			return 0, ErrOperandCount
		}
		return len(words) - 1, nil
	case "nop":
		return 1, nil
	}

	if _, ok := mnemonics[words[0]]; !ok {
		return 0, ErrMnemonicUnknown(words[0])
	}

	return 1, nil
}

// parenEval does compile-time $(...) evaluations.
func (asm *Assembler) parenEval(expr string) (value int64, err error) {
	thread := starlark.Thread{Name: "asm"}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		v, _err := asm.number(str)
		if _err != nil {
			// Ignore non-integer equates. They may be registers.
			continue
		}
		pred[key] = starlark.MakeInt64(v)
	}
	for key, addr := range asm.Label {
		if _, ok := pred[key]; !ok {
			pred[key] = starlark.MakeUint64(uint64(addr))
		}
	}

	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrParseExpression(expr), err)
		return
	}

	stInt, ok := dict["rc"].(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value, ok = stInt.Int64()
	if !ok || value > math.MaxUint32 || value < math.MinInt32 {
		err = ErrParseExpression(expr)
		return
	}

	return
}

// number parses a literal integer in 32-bit range.
func (asm *Assembler) number(word string) (int64, error) {
	v, err := strconv.ParseInt(word, 0, 64)
	if err != nil || v > math.MaxUint32 || v < math.MinInt32 {
		return 0, ErrParseNumber(word)
	}
	return v, nil
}

// valueOf resolves a number, an equate or a label.
func (asm *Assembler) valueOf(word string) (value int64, isLabel bool, err error) {
	if equ, ok := asm.Equate[word]; ok {
		word = equ
	}

	if addr, ok := asm.Label[word]; ok {
		return int64(addr), true, nil
	}

	value, err = asm.number(word)
	if err != nil && isIdentifier(word) {
		err = ErrLabelMissing(word)
	}

	return
}

func isIdentifier(word string) bool {
	return word != "" && labelRe.MatchString(word+":")
}

func (asm *Assembler) register(word string) (uint8, error) {
	if equ, ok := asm.Equate[word]; ok {
		word = equ
	}
	if !strings.HasPrefix(word, "$") {
		return 0, ErrRegisterInvalid(word)
	}
	reg, ok := insts.RegisterByName(word)
	if !ok {
		return 0, ErrRegisterInvalid(word)
	}
	return reg, nil
}

func (asm *Assembler) registers(words ...string) ([]uint8, error) {
	regs := make([]uint8, len(words))
	for i, word := range words {
		reg, err := asm.register(word)
		if err != nil {
			return nil, err
		}
		regs[i] = reg
	}
	return regs, nil
}

// signed16 resolves an operand that must fit a sign-extended immediate.
func (asm *Assembler) signed16(word string) (uint32, error) {
	v, _, err := asm.valueOf(word)
	if err != nil {
		return 0, err
	}
	if v < math.MinInt16 || v > math.MaxInt16 {
		return 0, fmt.Errorf("%w: %d", ErrImmediateRange, v)
	}
	return uint32(v) & 0xFFFF, nil
}

// unsigned16 resolves an operand that must fit a zero-extended immediate.
func (asm *Assembler) unsigned16(word string) (uint32, error) {
	v, _, err := asm.valueOf(word)
	if err != nil {
		return 0, err
	}
	if v < 0 || v > math.MaxUint16 {
		return 0, fmt.Errorf("%w: %d", ErrImmediateRange, v)
	}
	return uint32(v), nil
}

// memory resolves "offset($base)".
func (asm *Assembler) memory(word string) (base uint8, offset uint32, err error) {
	m := memoryRe.FindStringSubmatch(word)
	if m == nil {
		return 0, 0, ErrRegisterInvalid(word)
	}

	base, err = asm.register(m[2])
	if err != nil {
		return
	}

	if m[1] == "" {
		return base, 0, nil
	}
	offset, err = asm.signed16(m[1])
	return
}

// branchOffset resolves a label to a delay-slot relative word offset. A
// number is taken as the offset itself.
func (asm *Assembler) branchOffset(word string, addr uint32) (uint32, error) {
	v, isLabel, err := asm.valueOf(word)
	if err != nil {
		return 0, err
	}

	if isLabel {
		delta := v - int64(addr) - 4
		if delta&0x3 != 0 {
			return 0, ErrUnaligned
		}
		v = delta >> 2
	}

	if v < math.MinInt16 || v > math.MaxInt16 {
		return 0, fmt.Errorf("%w: %d", ErrBranchRange, v)
	}
	return uint32(v) & 0xFFFF, nil
}

// jumpIndex resolves a label or byte address to the 26-bit J-type field.
func (asm *Assembler) jumpIndex(word string, addr uint32) (uint32, error) {
	v, _, err := asm.valueOf(word)
	if err != nil {
		return 0, err
	}

	target := uint32(v)
	if target&0x3 != 0 {
		return 0, ErrUnaligned
	}
	if (target^(addr+4))&0xF0000000 != 0 {
		return 0, fmt.Errorf("%w: 0x%08x", ErrJumpRange, target)
	}
	return (target >> 2) & 0x3FFFFFF, nil
}
