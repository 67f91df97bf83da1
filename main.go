// Package main provides the entry point for mipsim.
// mipsim is a functional MIPS32 instruction-set simulator.
//
// For the full CLI, use: go run ./cmd/mipsim
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("mipsim - MIPS32 Instruction-Set Simulator")
	fmt.Println("")
	fmt.Println("Usage: mipsim [options] <program.elf|program.s> [max-instructions]")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -config    Path to run configuration JSON file")
	fmt.Println("  -trace     Print the register file and decoded fields every cycle")
	fmt.Println("  -legacy    Use legacy course-simulator semantics")
	fmt.Println("  -decode    Decode one instruction word and exit")
	fmt.Println("  -v         Verbose output")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/mipsim' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/mipsim' instead.")
	}
}
