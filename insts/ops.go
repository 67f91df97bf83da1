package insts

import "fmt"

// Opcode is the primary 6-bit opcode field.
type Opcode uint8

// MIPS primary opcodes.
const (
	OpcodeSpecial Opcode = 0x00 // R-type, selected by Funct
	OpcodeRegImm  Opcode = 0x01 // BLTZ/BGEZ family (not modeled)
	OpcodeJ       Opcode = 0x02
	OpcodeJAL     Opcode = 0x03
	OpcodeBEQ     Opcode = 0x04
	OpcodeBNE     Opcode = 0x05
	OpcodeBLEZ    Opcode = 0x06
	OpcodeBGTZ    Opcode = 0x07
	OpcodeADDI    Opcode = 0x08
	OpcodeADDIU   Opcode = 0x09
	OpcodeSLTI    Opcode = 0x0A
	OpcodeSLTIU   Opcode = 0x0B
	OpcodeANDI    Opcode = 0x0C
	OpcodeORI     Opcode = 0x0D
	OpcodeXORI    Opcode = 0x0E
	OpcodeLUI     Opcode = 0x0F
	OpcodeLB      Opcode = 0x20
	OpcodeLH      Opcode = 0x21
	OpcodeLWL     Opcode = 0x22
	OpcodeLW      Opcode = 0x23
	OpcodeLBU     Opcode = 0x24
	OpcodeLHU     Opcode = 0x25
	OpcodeLWR     Opcode = 0x26
	OpcodeSB      Opcode = 0x28
	OpcodeSH      Opcode = 0x29
	OpcodeSWL     Opcode = 0x2A
	OpcodeSW      Opcode = 0x2B
	OpcodeSWR     Opcode = 0x2E
)

// Funct selects the operation for OpcodeSpecial words.
type Funct uint8

// MIPS SPECIAL function codes.
const (
	FunctSLL     Funct = 0x00
	FunctSRL     Funct = 0x02
	FunctSRA     Funct = 0x03
	FunctSLLV    Funct = 0x04
	FunctSRLV    Funct = 0x06
	FunctSRAV    Funct = 0x07
	FunctJR      Funct = 0x08
	FunctJALR    Funct = 0x09
	FunctSYSCALL Funct = 0x0C
	FunctBREAK   Funct = 0x0D
	FunctMFHI    Funct = 0x10
	FunctMTHI    Funct = 0x11
	FunctMFLO    Funct = 0x12
	FunctMTLO    Funct = 0x13
	FunctMULT    Funct = 0x18
	FunctMULTU   Funct = 0x19
	FunctDIV     Funct = 0x1A
	FunctDIVU    Funct = 0x1B
	FunctADD     Funct = 0x20
	FunctADDU    Funct = 0x21
	FunctSUB     Funct = 0x22
	FunctSUBU    Funct = 0x23
	FunctAND     Funct = 0x24
	FunctOR      Funct = 0x25
	FunctXOR     Funct = 0x26
	FunctNOR     Funct = 0x27
	FunctSLT     Funct = 0x2A
	FunctSLTU    Funct = 0x2B
)

// Op represents a decoded MIPS operation.
type Op uint16

// MIPS operations.
const (
	OpUnknown Op = iota

	// ALU register-register
	OpADD
	OpADDU
	OpSUB
	OpSUBU
	OpAND
	OpOR
	OpXOR
	OpNOR
	OpSLT
	OpSLTU
	OpSLL
	OpSRL
	OpSRA
	OpSLLV
	OpSRLV
	OpSRAV

	// ALU register-immediate
	OpADDI
	OpADDIU
	OpSLTI
	OpSLTIU
	OpANDI
	OpORI
	OpXORI
	OpLUI

	// Data transfer
	OpLB
	OpLH
	OpLWL
	OpLW
	OpLBU
	OpLHU
	OpLWR
	OpSB
	OpSH
	OpSWL
	OpSW
	OpSWR

	// Control transfer
	OpJ
	OpJAL
	OpJR
	OpJALR
	OpBEQ
	OpBNE
	OpBLEZ
	OpBGTZ

	// HI/LO moves
	OpMFHI
	OpMTHI
	OpMFLO
	OpMTLO

	// Environment
	OpSYSCALL

	numOps
)

var opNames = [numOps]string{
	OpUnknown: "unknown",
	OpADD:     "add",
	OpADDU:    "addu",
	OpSUB:     "sub",
	OpSUBU:    "subu",
	OpAND:     "and",
	OpOR:      "or",
	OpXOR:     "xor",
	OpNOR:     "nor",
	OpSLT:     "slt",
	OpSLTU:    "sltu",
	OpSLL:     "sll",
	OpSRL:     "srl",
	OpSRA:     "sra",
	OpSLLV:    "sllv",
	OpSRLV:    "srlv",
	OpSRAV:    "srav",
	OpADDI:    "addi",
	OpADDIU:   "addiu",
	OpSLTI:    "slti",
	OpSLTIU:   "sltiu",
	OpANDI:    "andi",
	OpORI:     "ori",
	OpXORI:    "xori",
	OpLUI:     "lui",
	OpLB:      "lb",
	OpLH:      "lh",
	OpLWL:     "lwl",
	OpLW:      "lw",
	OpLBU:     "lbu",
	OpLHU:     "lhu",
	OpLWR:     "lwr",
	OpSB:      "sb",
	OpSH:      "sh",
	OpSWL:     "swl",
	OpSW:      "sw",
	OpSWR:     "swr",
	OpJ:       "j",
	OpJAL:     "jal",
	OpJR:      "jr",
	OpJALR:    "jalr",
	OpBEQ:     "beq",
	OpBNE:     "bne",
	OpBLEZ:    "blez",
	OpBGTZ:    "bgtz",
	OpMFHI:    "mfhi",
	OpMTHI:    "mthi",
	OpMFLO:    "mflo",
	OpMTLO:    "mtlo",
	OpSYSCALL: "syscall",
}

// String returns the assembler mnemonic of the operation.
func (op Op) String() string {
	if op < numOps {
		return opNames[op]
	}
	return fmt.Sprintf("Op(%d)", uint16(op))
}

// OpByName returns the operation with the given lower-case mnemonic.
func OpByName(name string) (Op, bool) {
	for op := OpUnknown + 1; op < numOps; op++ {
		if opNames[op] == name {
			return op, true
		}
	}
	return OpUnknown, false
}

// Class groups operations by the kind of architectural effect they have.
type Class uint8

// Operation classes.
const (
	ClassUnknown  Class = iota
	ClassALUReg         // register-register arithmetic, logic and shifts
	ClassALUImm         // register-immediate arithmetic and logic
	ClassTransfer       // loads and stores
	ClassControl        // jumps and branches
	ClassMove           // HI/LO moves
	ClassEnv            // SYSCALL
)

// Format represents an instruction encoding format.
type Format uint8

// Instruction formats.
const (
	FormatUnknown Format = iota
	FormatR              // opcode | rs | rt | rd | shamt | funct
	FormatI              // opcode | rs | rt | imm16
	FormatJ              // opcode | addr26
)
