// Package emu provides functional 32-bit ARM emulation.
package emu

import (
	"fmt"
	"strings"
)

// Register aliases.
const (
	NumRegs = 16

	SP uint8 = 13 // Stack pointer
	LR uint8 = 14 // Link register
	PC uint8 = 15 // Program counter
)

// Condition flag bits of the CPSR.
const (
	FlagN uint32 = 1 << 31 // Negative
	FlagZ uint32 = 1 << 30 // Zero
	FlagC uint32 = 1 << 29 // Carry
	FlagV uint32 = 1 << 28 // Overflow

	flagMask = FlagN | FlagZ | FlagC | FlagV
)

// RegFile represents the ARM architectural state.
// It contains 16 general-purpose registers (R15 is the program counter)
// and the current program status register.
//
// RegFile is a plain value: copying it snapshots the whole state, which is
// how the emulator keeps the current and next state of a cycle apart.
type RegFile struct {
	// R holds general-purpose registers R0-R15.
	R [NumRegs]uint32

	// CPSR holds the N, Z, C, V flags in bits [31:28]. The remaining bits are
	// preserved but unused.
	CPSR uint32
}

// PSTATE is a decoded view of the condition flags.
type PSTATE struct {
	// N is the negative flag.
	N bool
	// Z is the zero flag.
	Z bool
	// C is the carry flag.
	C bool
	// V is the overflow flag.
	V bool
}

// ReadReg reads a register value. Only the low 4 bits of reg are used.
func (r *RegFile) ReadReg(reg uint8) uint32 {
	return r.R[reg&0xF]
}

// WriteReg writes a value to a register. Only the low 4 bits of reg are used.
func (r *RegFile) WriteReg(reg uint8, value uint32) {
	r.R[reg&0xF] = value
}

// PC returns the program counter.
func (r *RegFile) PC() uint32 {
	return r.R[PC]
}

// SetPC sets the program counter.
func (r *RegFile) SetPC(pc uint32) {
	r.R[PC] = pc
}

// PSTATE returns the condition flags.
func (r *RegFile) PSTATE() PSTATE {
	return PSTATE{
		N: r.CPSR&FlagN != 0,
		Z: r.CPSR&FlagZ != 0,
		C: r.CPSR&FlagC != 0,
		V: r.CPSR&FlagV != 0,
	}
}

// SetPSTATE writes the condition flags, leaving the other CPSR bits alone.
func (r *RegFile) SetPSTATE(p PSTATE) {
	cpsr := r.CPSR &^ flagMask
	if p.N {
		cpsr |= FlagN
	}
	if p.Z {
		cpsr |= FlagZ
	}
	if p.C {
		cpsr |= FlagC
	}
	if p.V {
		cpsr |= FlagV
	}
	r.CPSR = cpsr
}

// Carry returns the C flag.
func (r *RegFile) Carry() bool {
	return r.CPSR&FlagC != 0
}

// readOperand reads a register as an instruction operand. R15 reads as the
// address of the instruction plus pcAhead (8 normally, 12 when the
// instruction also uses a register-specified shift).
func (r *RegFile) readOperand(reg uint8, pcAhead uint32) uint32 {
	if reg&0xF == PC {
		return r.R[PC] + pcAhead
	}
	return r.R[reg&0xF]
}

func (p PSTATE) String() string {
	s := strings.Builder{}
	for _, f := range []struct {
		set      bool
		up, down rune
	}{{p.N, 'N', 'n'}, {p.Z, 'Z', 'z'}, {p.C, 'C', 'c'}, {p.V, 'V', 'v'}} {
		if f.set {
			s.WriteRune(f.up)
		} else {
			s.WriteRune(f.down)
		}
	}
	return s.String()
}

// String renders a register dump, four registers per line followed by the
// CPSR and its flags.
func (r *RegFile) String() string {
	s := strings.Builder{}
	for i := 0; i < NumRegs; i++ {
		fmt.Fprintf(&s, "R%-2d: 0x%08X", i, r.R[i])
		if i%4 == 3 {
			s.WriteString("\n")
		} else {
			s.WriteString("  ")
		}
	}
	fmt.Fprintf(&s, "CPSR: 0x%08X [%s]\n", r.CPSR, r.PSTATE())
	return s.String()
}
