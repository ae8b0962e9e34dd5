// Package emu provides functional 32-bit ARM emulation.
package emu

import "github.com/sarchlab/armsim/insts"

// ALU implements the 16 ARM data-processing operations.
//
// Operands are read from the current state and results are written to the
// next state, so an instruction never observes its own writes.
type ALU struct{}

// NewALU creates a new ALU.
func NewALU() *ALU {
	return &ALU{}
}

// Execute runs a data-processing instruction. It returns true when the
// result was written to the program counter.
func (a *ALU) Execute(inst *insts.Instruction, cur, next *RegFile) bool {
	pcAhead := uint32(8)
	if !inst.Immediate && inst.ShiftByRegister {
		pcAhead = 12
	}

	op1 := cur.readOperand(inst.Rn, pcAhead)
	op2, shifterCarry := DecodeOperand2(inst.Operand2, inst.Immediate, cur)

	result, pstate := a.Evaluate(inst.Op, op1, op2, shifterCarry, cur.PSTATE())

	if inst.SetFlags || inst.Op.IsTest() {
		next.SetPSTATE(pstate)
	}

	if inst.Op.IsTest() {
		return false
	}

	next.WriteReg(inst.Rd, result)

	return inst.Rd == PC
}

// Evaluate computes op(op1, op2) and the flags it would produce. N and Z
// follow the result; C comes from the shifter for logical operations and
// from the 33-bit sum for arithmetic ones; V changes only for arithmetic.
func (a *ALU) Evaluate(op insts.Op, op1, op2 uint32, shifterCarry bool, flags PSTATE) (uint32, PSTATE) {
	var result uint32
	carry, overflow := flags.C, flags.V

	switch op {
	case insts.OpAND, insts.OpTST:
		result, carry = op1&op2, shifterCarry
	case insts.OpEOR, insts.OpTEQ:
		result, carry = op1^op2, shifterCarry
	case insts.OpORR:
		result, carry = op1|op2, shifterCarry
	case insts.OpMOV:
		result, carry = op2, shifterCarry
	case insts.OpBIC:
		result, carry = op1&^op2, shifterCarry
	case insts.OpMVN:
		result, carry = ^op2, shifterCarry
	case insts.OpADD, insts.OpCMN:
		result, carry, overflow = addWithCarry(op1, op2, false)
	case insts.OpADC:
		result, carry, overflow = addWithCarry(op1, op2, flags.C)
	case insts.OpSUB, insts.OpCMP:
		result, carry, overflow = addWithCarry(op1, ^op2, true)
	case insts.OpSBC:
		result, carry, overflow = addWithCarry(op1, ^op2, flags.C)
	case insts.OpRSB:
		result, carry, overflow = addWithCarry(op2, ^op1, true)
	case insts.OpRSC:
		result, carry, overflow = addWithCarry(op2, ^op1, flags.C)
	}

	return result, PSTATE{
		N: result>>31 == 1,
		Z: result == 0,
		C: carry,
		V: overflow,
	}
}

// addWithCarry returns a + b + carryIn together with the unsigned carry out
// of bit 31 and the signed overflow. Subtraction a - b is expressed as
// a + ^b + 1, so the carry is NOT borrow.
func addWithCarry(a, b uint32, carryIn bool) (uint32, bool, bool) {
	sum := uint64(a) + uint64(b)
	if carryIn {
		sum++
	}
	result := uint32(sum)

	carry := sum>>32 != 0

	// Overflow occurs when both addends share a sign that the result lacks
	overflow := ((a^result)&(b^result))>>31 == 1

	return result, carry, overflow
}
