// Package insts provides MIPS32 instruction definitions and decoding.
//
// This package implements decoding of MIPS machine code into structured
// instruction representations. It supports the fixed R/I/J encodings:
//   - ALU register-register: ADD, ADDU, SUB, SUBU, AND, OR, XOR, NOR, SLT,
//     SLTU and the shift family SLL, SRL, SRA, SLLV, SRLV, SRAV
//   - ALU register-immediate: ADDI, ADDIU, SLTI, SLTIU, ANDI, ORI, XORI, LUI
//   - Data transfer: LB, LH, LWL, LW, LBU, LHU, LWR, SB, SH, SWL, SW, SWR
//   - Control transfer: J, JAL, JR, JALR, BEQ, BNE, BLEZ, BGTZ
//   - HI/LO moves: MFHI, MTHI, MFLO, MTLO
//   - SYSCALL
//
// Usage:
//
//	decoder := insts.NewDecoder()
//	inst := decoder.Decode(0x20420005) // ADDI $2, $2, 5
//	fmt.Printf("Op: %v, Rs: %d, Rt: %d, Imm: %d\n", inst.Op, inst.Rs(), inst.Rt(), inst.Imm())
package insts
