// Package emu provides functional MIPS32 emulation.
package emu

import (
	"fmt"
	"io"
	"os"

	"github.com/sarchlab/mipsim/insts"
)

// State is the run state of the emulator.
type State uint8

// Run states.
const (
	StateRunning State = iota
	StateHalted
)

func (s State) String() string {
	if s == StateHalted {
		return "halted"
	}
	return "running"
}

// HaltReason explains why the emulator stopped.
type HaltReason uint8

// Halt reasons.
const (
	HaltNone     HaltReason = iota
	HaltSentinel            // fetched the all-zero word
	HaltBudget              // instruction budget exhausted
	HaltExit                // program called exit
	HaltFault               // unrecoverable error
)

func (r HaltReason) String() string {
	switch r {
	case HaltSentinel:
		return "sentinel"
	case HaltBudget:
		return "budget"
	case HaltExit:
		return "exit"
	case HaltFault:
		return "fault"
	default:
		return "none"
	}
}

// StepResult represents the result of executing a single instruction.
type StepResult struct {
	// Halted is true once the emulator has stopped.
	Halted bool

	// Reason explains the halt if Halted is true.
	Reason HaltReason

	// ExitCode is the exit status if Reason is HaltExit.
	ExitCode int32

	// Err is set if Reason is HaltFault. It is always a *FaultError.
	Err error
}

// RunResult summarizes a complete run.
type RunResult struct {
	Reason   HaltReason
	Cycles   uint64
	ExitCode int32
	Err      error
}

// Boot holds the loader-provided initial machine state.
type Boot struct {
	Entry uint32 // initial PC
	GP    uint32 // global pointer ($28)
	SP    uint32 // stack pointer ($29)
	RA    uint32 // return address ($31)
}

// Emulator executes MIPS instructions functionally.
//
// It is the only driver of the machine: it owns the register file, the PC
// and the delay-slot scheduler, and lends them to the execution units for
// one instruction at a time.
type Emulator struct {
	regFile        *RegFile
	memory         Memory
	decoder        *insts.Decoder
	syscallHandler SyscallHandler
	tracer         Tracer

	// Execution units
	alu        *ALU
	lsu        *LoadStoreUnit
	branchUnit *BranchUnit
	delay      *DelaySlot

	// I/O
	stdout io.Writer
	stderr io.Writer

	// Execution state
	pc               uint32
	state            State
	reason           HaltReason
	exitCode         int32
	err              error
	instructionCount uint64
	maxInstructions  uint64
	budgeted         bool // maxInstructions applies, even when 0
	legacy           bool
}

// EmulatorOption is a functional option for configuring the Emulator.
type EmulatorOption func(*Emulator)

// WithStdout sets a custom stdout writer.
func WithStdout(w io.Writer) EmulatorOption {
	return func(e *Emulator) {
		e.stdout = w
	}
}

// WithStderr sets a custom stderr writer.
func WithStderr(w io.Writer) EmulatorOption {
	return func(e *Emulator) {
		e.stderr = w
	}
}

// WithSyscallHandler sets a custom syscall handler.
func WithSyscallHandler(handler SyscallHandler) EmulatorOption {
	return func(e *Emulator) {
		e.syscallHandler = handler
	}
}

// WithMemory sets the memory collaborator.
func WithMemory(memory Memory) EmulatorOption {
	return func(e *Emulator) {
		e.memory = memory
	}
}

// WithTracer installs a per-instruction diagnostics sink.
func WithTracer(tracer Tracer) EmulatorOption {
	return func(e *Emulator) {
		e.tracer = tracer
	}
}

// WithMaxInstructions sets the maximum number of instructions to execute.
// A value of 0 means no limit.
func WithMaxInstructions(limit uint64) EmulatorOption {
	return func(e *Emulator) {
		e.maxInstructions = limit
		e.budgeted = limit > 0
	}
}

// WithInstructionBudget bounds the run to exactly budget instructions.
// Unlike WithMaxInstructions, a budget of 0 halts before the first fetch.
func WithInstructionBudget(budget uint64) EmulatorOption {
	return func(e *Emulator) {
		e.maxInstructions = budget
		e.budgeted = true
	}
}

// WithLegacySemantics switches to the legacy operand routing, where
// ALU results land in rs and jump targets are shifted absolute indices,
// instead of architectural MIPS behavior. See executeLegacy.
func WithLegacySemantics() EmulatorOption {
	return func(e *Emulator) {
		e.legacy = true
	}
}

// WithBoot applies loader-provided initial state.
func WithBoot(boot Boot) EmulatorOption {
	return func(e *Emulator) {
		e.applyBoot(boot)
	}
}

// NewEmulator creates a new MIPS emulator.
func NewEmulator(opts ...EmulatorOption) *Emulator {
	e := &Emulator{
		regFile: NewRegFile(),
		decoder: insts.NewDecoder(),
		delay:   &DelaySlot{},
		stdout:  os.Stdout,
		stderr:  os.Stderr,
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.memory == nil {
		e.memory = NewMemory()
	}

	e.alu = NewALU(e.regFile)
	e.lsu = NewLoadStoreUnit(e.regFile, e.memory)
	e.branchUnit = NewBranchUnit(e.regFile, e.delay)

	if e.syscallHandler == nil {
		e.syscallHandler = NewDefaultSyscallHandler(e.stdout, e.stderr)
	}

	return e
}

// RegFile returns the emulator's register file.
func (e *Emulator) RegFile() *RegFile {
	return e.regFile
}

// Memory returns the emulator's memory.
func (e *Emulator) Memory() Memory {
	return e.memory
}

// PC returns the address of the next instruction to fetch.
func (e *Emulator) PC() uint32 {
	return e.pc
}

// State returns the run state.
func (e *Emulator) State() State {
	return e.state
}

// DelayState returns the state of the delay-slot scheduler.
func (e *Emulator) DelayState() DelayState {
	return e.delay.State()
}

// InstructionCount returns the number of instructions executed.
func (e *Emulator) InstructionCount() uint64 {
	return e.instructionCount
}

// LoadProgram writes words to memory at entry and sets the PC there.
func (e *Emulator) LoadProgram(entry uint32, words []uint32) error {
	if err := LoadWords(e.memory, entry, words); err != nil {
		return fmt.Errorf("failed to load program: %w", err)
	}
	e.pc = entry
	return nil
}

// Boot applies loader-provided initial state: PC, $gp, $sp and $ra.
func (e *Emulator) Boot(boot Boot) {
	e.applyBoot(boot)
}

func (e *Emulator) applyBoot(boot Boot) {
	e.pc = boot.Entry
	_ = e.regFile.Write(int(insts.RegGP), int32(boot.GP))
	_ = e.regFile.Write(int(insts.RegSP), int32(boot.SP))
	_ = e.regFile.Write(int(insts.RegRA), int32(boot.RA))
}

// Reset returns the emulator to a running state with zeroed registers.
// Memory is left untouched.
func (e *Emulator) Reset() {
	e.regFile.Reset()
	e.delay.Reset()
	e.pc = 0
	e.state = StateRunning
	e.reason = HaltNone
	e.exitCode = 0
	e.err = nil
	e.instructionCount = 0
}

// Step executes a single instruction.
// Returns a StepResult indicating whether execution should continue.
func (e *Emulator) Step() StepResult {
	if e.state == StateHalted {
		return e.result()
	}

	// Check instruction limit before executing
	if e.budgeted && e.instructionCount >= e.maxInstructions {
		return e.halt(HaltBudget)
	}

	// 1. Fetch
	word, err := e.memory.ReadWord(e.pc, false)
	if err != nil {
		return e.fault(0, fmt.Errorf("fetch: %w", err))
	}

	if insts.Word(word).IsSentinel() {
		return e.halt(HaltSentinel)
	}

	// 2. Decode
	inst := e.decoder.Decode(word)

	if e.tracer != nil {
		e.tracer.Trace(Snapshot{
			Cycle: e.instructionCount,
			PC:    e.pc,
			Inst:  inst,
			Regs:  e.regFile.Values(),
			Delay: e.delay.State(),
		})
	}

	// 3. Execute
	sys, err := e.execute(inst)
	if err != nil {
		return e.fault(inst.Word, err)
	}

	// 4. Advance PC, honoring a pending delayed transfer
	e.pc = e.delay.Advance(e.pc)
	e.instructionCount++

	if sys.Exited {
		e.exitCode = sys.ExitCode
		return e.halt(HaltExit)
	}

	return StepResult{}
}

// Run executes instructions until the emulator halts.
func (e *Emulator) Run() RunResult {
	for {
		result := e.Step()
		if result.Halted {
			return RunResult{
				Reason:   result.Reason,
				Cycles:   e.instructionCount,
				ExitCode: result.ExitCode,
				Err:      result.Err,
			}
		}
	}
}

func (e *Emulator) halt(reason HaltReason) StepResult {
	e.state = StateHalted
	e.reason = reason
	return e.result()
}

func (e *Emulator) fault(word insts.Word, err error) StepResult {
	e.err = &FaultError{
		Cycle: e.instructionCount,
		PC:    e.pc,
		Word:  word,
		Err:   err,
	}
	_, _ = fmt.Fprintf(e.stderr, "Emulation error: %v\n", e.err)
	return e.halt(HaltFault)
}

func (e *Emulator) result() StepResult {
	return StepResult{
		Halted:   true,
		Reason:   e.reason,
		ExitCode: e.exitCode,
		Err:      e.err,
	}
}

// execute dispatches and executes a decoded instruction.
func (e *Emulator) execute(inst *insts.Instruction) (SyscallResult, error) {
	if e.legacy {
		if handled, err := e.executeLegacy(inst); handled {
			return SyscallResult{}, err
		}
	}

	switch inst.Class {
	case insts.ClassALUReg:
		return SyscallResult{}, e.executeALUReg(inst)
	case insts.ClassALUImm:
		return SyscallResult{}, e.executeALUImm(inst)
	case insts.ClassTransfer:
		return SyscallResult{}, e.executeTransfer(inst)
	case insts.ClassControl:
		return SyscallResult{}, e.executeControl(inst)
	case insts.ClassMove:
		return SyscallResult{}, e.executeMove(inst)
	case insts.ClassEnv:
		return e.syscallHandler.Handle(inst.Code(), e.regFile, e.memory)
	default:
		return SyscallResult{}, &DecodeError{Word: inst.Word}
	}
}

// executeALUReg executes register-register arithmetic, logic and shifts.
func (e *Emulator) executeALUReg(inst *insts.Instruction) error {
	rd, rs, rt := inst.Rd(), inst.Rs(), inst.Rt()

	switch inst.Op {
	case insts.OpADD:
		return e.alu.ADD(rd, rs, rt)
	case insts.OpADDU:
		return e.alu.ADDU(rd, rs, rt)
	case insts.OpSUB:
		return e.alu.SUB(rd, rs, rt)
	case insts.OpSUBU:
		return e.alu.SUBU(rd, rs, rt)
	case insts.OpAND:
		return e.alu.AND(rd, rs, rt)
	case insts.OpOR:
		return e.alu.OR(rd, rs, rt)
	case insts.OpXOR:
		return e.alu.XOR(rd, rs, rt)
	case insts.OpNOR:
		return e.alu.NOR(rd, rs, rt)
	case insts.OpSLT:
		return e.alu.SLT(rd, rs, rt)
	case insts.OpSLTU:
		return e.alu.SLTU(rd, rs, rt)
	case insts.OpSLL:
		return e.alu.SLL(rd, rt, inst.Shamt())
	case insts.OpSRL:
		return e.alu.SRL(rd, rt, inst.Shamt())
	case insts.OpSRA:
		return e.alu.SRA(rd, rt, inst.Shamt())
	case insts.OpSLLV:
		return e.alu.SLLV(rd, rt, rs)
	case insts.OpSRLV:
		return e.alu.SRLV(rd, rt, rs)
	case insts.OpSRAV:
		return e.alu.SRAV(rd, rt, rs)
	default:
		return &DecodeError{Word: inst.Word}
	}
}

// executeALUImm executes register-immediate arithmetic and logic.
func (e *Emulator) executeALUImm(inst *insts.Instruction) error {
	rt, rs := inst.Rt(), inst.Rs()

	switch inst.Op {
	case insts.OpADDI:
		return e.alu.ADDI(rt, rs, inst.Imm())
	case insts.OpADDIU:
		return e.alu.ADDIU(rt, rs, inst.Imm())
	case insts.OpSLTI:
		return e.alu.SLTI(rt, rs, inst.Imm())
	case insts.OpSLTIU:
		return e.alu.SLTIU(rt, rs, inst.Imm())
	case insts.OpANDI:
		return e.alu.ANDI(rt, rs, inst.UImm())
	case insts.OpORI:
		return e.alu.ORI(rt, rs, inst.UImm())
	case insts.OpXORI:
		return e.alu.XORI(rt, rs, inst.UImm())
	case insts.OpLUI:
		return e.alu.LUI(rt, inst.UImm())
	default:
		return &DecodeError{Word: inst.Word}
	}
}

// executeTransfer executes loads and stores. Only full words are supported.
func (e *Emulator) executeTransfer(inst *insts.Instruction) error {
	switch inst.Op {
	case insts.OpLW:
		return e.lsu.LW(inst.Rt(), inst.Rs(), inst.Imm())
	case insts.OpSW:
		return e.lsu.SW(inst.Rt(), inst.Rs(), inst.Imm())
	case insts.OpLB, insts.OpLH, insts.OpLWL, insts.OpLBU, insts.OpLHU, insts.OpLWR,
		insts.OpSB, insts.OpSH, insts.OpSWL, insts.OpSWR:
		return fmt.Errorf("%w: %v", ErrUnimplemented, inst.Op)
	default:
		return &DecodeError{Word: inst.Word}
	}
}

// executeControl executes jumps and branches.
func (e *Emulator) executeControl(inst *insts.Instruction) error {
	var err error

	switch inst.Op {
	case insts.OpJ:
		e.branchUnit.J(e.pc, inst.Address())
	case insts.OpJAL:
		err = e.branchUnit.JAL(e.pc, inst.Address())
	case insts.OpJR:
		err = e.branchUnit.JR(inst.Rs())
	case insts.OpJALR:
		err = e.branchUnit.JALR(e.pc, inst.Rd(), inst.Rs())
	case insts.OpBEQ:
		_, err = e.branchUnit.BEQ(e.pc, inst.Rs(), inst.Rt(), inst.Imm())
	case insts.OpBNE:
		_, err = e.branchUnit.BNE(e.pc, inst.Rs(), inst.Rt(), inst.Imm())
	case insts.OpBLEZ:
		_, err = e.branchUnit.BLEZ(e.pc, inst.Rs(), inst.Imm())
	case insts.OpBGTZ:
		_, err = e.branchUnit.BGTZ(e.pc, inst.Rs(), inst.Imm())
	default:
		err = &DecodeError{Word: inst.Word}
	}

	return err
}

// executeMove executes HI/LO moves.
func (e *Emulator) executeMove(inst *insts.Instruction) error {
	switch inst.Op {
	case insts.OpMFHI:
		return e.alu.MFHI(inst.Rd())
	case insts.OpMTHI:
		return e.alu.MTHI(inst.Rs())
	case insts.OpMFLO:
		return e.alu.MFLO(inst.Rd())
	case insts.OpMTLO:
		return e.alu.MTLO(inst.Rs())
	default:
		return &DecodeError{Word: inst.Word}
	}
}
