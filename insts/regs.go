package insts

import (
	"strconv"
	"strings"
)

// Conventional MIPS register numbers.
const (
	RegZero uint8 = 0
	RegAT   uint8 = 1
	RegV0   uint8 = 2
	RegV1   uint8 = 3
	RegA0   uint8 = 4
	RegA1   uint8 = 5
	RegA2   uint8 = 6
	RegA3   uint8 = 7
	RegGP   uint8 = 28
	RegSP   uint8 = 29
	RegFP   uint8 = 30
	RegRA   uint8 = 31
)

// RegNames holds the ABI names of the 32 general-purpose registers.
var RegNames = [32]string{
	"zero", "at", "v0", "v1", "a0", "a1", "a2", "a3",
	"t0", "t1", "t2", "t3", "t4", "t5", "t6", "t7",
	"s0", "s1", "s2", "s3", "s4", "s5", "s6", "s7",
	"t8", "t9", "k0", "k1", "gp", "sp", "fp", "ra",
}

// RegisterByName resolves "$t0", "t0", "$8" or "8" to a register number.
func RegisterByName(name string) (uint8, bool) {
	name = strings.TrimPrefix(strings.ToLower(name), "$")

	if n, err := strconv.Atoi(name); err == nil {
		if n < 0 || n > 31 {
			return 0, false
		}
		return uint8(n), true
	}

	if name == "s8" {
		return RegFP, true
	}

	for i, reg := range RegNames {
		if reg == name {
			return uint8(i), true
		}
	}

	return 0, false
}
