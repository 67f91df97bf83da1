// Package main provides the entry point for mipsim, a functional MIPS32
// instruction-set simulator.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sarchlab/mipsim/asm"
	"github.com/sarchlab/mipsim/config"
	"github.com/sarchlab/mipsim/emu"
	"github.com/sarchlab/mipsim/insts"
	"github.com/sarchlab/mipsim/loader"
)

// defaultGP is the SPIM global pointer, used for assembled programs.
const defaultGP uint32 = 0x10008000

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// image is a program placed in memory together with its boot state.
type image struct {
	memory    *emu.StorageMemory
	boot      emu.Boot
	heapStart uint32
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("mipsim", flag.ContinueOnError)
	flags.SetOutput(stderr)

	configPath := flags.String("config", "", "Path to run configuration JSON file")
	trace := flags.Bool("trace", false, "Print the register file and decoded fields every cycle")
	legacy := flags.Bool("legacy", false, "Use legacy course-simulator semantics")
	decode := flags.String("decode", "", "Decode one instruction word and exit")
	verbose := flags.Bool("v", false, "Verbose output")

	flags.Usage = func() {
		fmt.Fprintf(stderr, "Usage: mipsim [options] <program.elf|program.s> [max-instructions]\n")
		fmt.Fprintf(stderr, "\nOptions:\n")
		flags.PrintDefaults()
	}

	if err := flags.Parse(args); err != nil {
		return 2
	}

	if *decode != "" {
		return decodeWord(*decode, stdout, stderr)
	}

	if flags.NArg() < 1 {
		flags.Usage()
		return 1
	}

	cfg := config.DefaultConfig()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(stderr, "Error loading config: %v\n", err)
			return 1
		}
	}

	if *trace {
		cfg.Trace = true
	}
	if *legacy {
		cfg.LegacySemantics = true
	}
	var budget []emu.EmulatorOption
	if flags.NArg() > 1 {
		limit, err := strconv.ParseUint(flags.Arg(1), 0, 64)
		if err != nil {
			fmt.Fprintf(stderr, "Error: invalid max-instructions %q\n", flags.Arg(1))
			return 1
		}
		cfg.MaxInstructions = limit
		budget = append(budget, emu.WithInstructionBudget(limit))
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "Error: invalid config: %v\n", err)
		return 1
	}

	programPath := flags.Arg(0)
	img, err := loadImage(programPath, cfg)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading program: %v\n", err)
		return 1
	}

	if *verbose {
		fmt.Fprintf(stdout, "Loaded: %s\n", programPath)
		fmt.Fprintf(stdout, "Entry point: 0x%08X\n", img.boot.Entry)
		fmt.Fprintf(stdout, "Heap start: 0x%08X\n", img.heapStart)
	}

	handler := emu.NewDefaultSyscallHandler(stdout, stderr)
	handler.SetStdin(stdin)
	handler.SetHeapStart(img.heapStart)
	defer handler.Close()

	opts := append(cfg.EmulatorOptions(),
		emu.WithStdout(stdout),
		emu.WithStderr(stderr),
		emu.WithMemory(img.memory),
		emu.WithSyscallHandler(handler),
		emu.WithBoot(img.boot),
	)
	opts = append(opts, budget...)
	if cfg.Trace {
		opts = append(opts, emu.WithTracer(emu.NewTextTracer(stdout)))
	}
	emulator := emu.NewEmulator(opts...)

	columns := emu.RegisterColumns(stdout)

	fmt.Fprintf(stdout, "\n ----- BOOT Sequence ----- \n")
	fmt.Fprintf(stdout, "Initializing sp=0x%08x; gp=0x%08x; start=0x%08x\n",
		img.boot.SP, img.boot.GP, img.boot.Entry)
	emu.WriteRegisters(stdout, emulator.RegFile().Values(), columns)

	fmt.Fprintf(stdout, "\n ----- Execute Program ----- \n")
	fmt.Fprintf(stdout, "Max Instruction to run = %d \n", cfg.MaxInstructions)

	result := emulator.Run()

	fmt.Fprintf(stdout, "\n ----- Final Register File ----- \n")
	emu.WriteRegisters(stdout, emulator.RegFile().Values(), columns)

	if *verbose {
		fmt.Fprintf(stdout, "\nProgram: %s\n", programPath)
		fmt.Fprintf(stdout, "Halt reason: %v\n", result.Reason)
		fmt.Fprintf(stdout, "Instructions executed: %d\n", result.Cycles)
		fmt.Fprintf(stdout, "Final PC: 0x%08X\n", emulator.PC())
	}

	switch result.Reason {
	case emu.HaltFault:
		return 1
	case emu.HaltExit:
		return int(result.ExitCode)
	default:
		return 0
	}
}

// loadImage loads an ELF binary, or assembles a .s/.asm source file.
func loadImage(path string, cfg *config.Config) (*image, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".s", ".asm":
		return assembleImage(path, cfg)
	default:
		return elfImage(path, cfg)
	}
}

func elfImage(path string, cfg *config.Config) (*image, error) {
	prog, err := loader.Load(path)
	if err != nil {
		return nil, err
	}

	memory := emu.NewMemoryWithByteOrder(prog.ByteOrder)
	if err := prog.LoadInto(memory); err != nil {
		return nil, err
	}

	boot := prog.Boot()
	boot.SP = cfg.StackPointer

	return &image{memory: memory, boot: boot, heapStart: prog.HeapStart}, nil
}

func assembleImage(path string, cfg *config.Config) (*image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open source file: %w", err)
	}
	defer func() { _ = file.Close() }()

	assembler := &asm.Assembler{Origin: asm.TextBase}
	prog, err := assembler.Parse(file)
	if err != nil {
		return nil, err
	}

	memory := emu.NewMemory()
	if err := prog.LoadInto(memory); err != nil {
		return nil, err
	}

	entry := prog.Entry()
	boot := emu.Boot{Entry: entry, GP: defaultGP, SP: cfg.StackPointer, RA: entry}

	return &image{memory: memory, boot: boot, heapStart: cfg.HeapStart}, nil
}

// decodeWord prints the fields of one instruction word.
func decodeWord(text string, stdout, stderr io.Writer) int {
	value, err := strconv.ParseUint(text, 0, 32)
	if err != nil {
		fmt.Fprintf(stderr, "Error: invalid instruction word %q\n", text)
		return 1
	}

	inst := insts.NewDecoder().Decode(uint32(value))
	w := inst.Word

	fmt.Fprintf(stdout, "word:    0x%08x\n", uint32(w))
	fmt.Fprintf(stdout, "op:      %v\n", inst.Op)
	fmt.Fprintf(stdout, "opcode:  %d\n", uint8(w.Opcode()))
	fmt.Fprintf(stdout, "rs:      %d\n", w.Rs())
	fmt.Fprintf(stdout, "rt:      %d\n", w.Rt())
	fmt.Fprintf(stdout, "rd:      %d\n", w.Rd())
	fmt.Fprintf(stdout, "shamt:   %d\n", w.Shamt())
	fmt.Fprintf(stdout, "funct:   %d\n", uint8(w.Funct()))
	fmt.Fprintf(stdout, "imm:     %d\n", w.Imm())
	fmt.Fprintf(stdout, "address: 0x%07x\n", w.Address())
	fmt.Fprintf(stdout, "code:    0x%05x\n", w.Code())

	return 0
}
