package emu

import (
	"math/bits"

	"github.com/sarchlab/armsim/insts"
)

// DecodeOperand2 computes the second operand of a data-processing or
// register-offset transfer instruction from its raw 12-bit field, returning
// the value and the shifter carry-out. Every consumer goes through here.
//
// With immediate set, the field is an 8-bit value rotated right by twice the
// 4-bit rotate amount. Otherwise it is Rm shifted by a 5-bit immediate
// (bit 4 clear) or by the bottom byte of Rs (bit 4 set).
func DecodeOperand2(op2 uint16, immediate bool, regs *RegFile) (uint32, bool) {
	carry := regs.Carry()

	if immediate {
		imm8 := uint32(op2 & 0xFF)
		rotate := int(op2>>8) & 0xF
		if rotate == 0 {
			return imm8, carry
		}
		value := bits.RotateLeft32(imm8, -2*rotate)
		return value, value>>31 == 1
	}

	rm := uint8(op2 & 0xF)
	shiftType := insts.ShiftType((op2 >> 5) & 0x3)

	if (op2>>4)&0x1 == 1 {
		rs := uint8((op2 >> 8) & 0xF)
		amount := regs.readOperand(rs, 8) & 0xFF
		return Shift(regs.readOperand(rm, 12), shiftType, amount, carry)
	}

	amount := uint32((op2 >> 7) & 0x1F)
	return ShiftImmediate(regs.readOperand(rm, 8), shiftType, amount, carry)
}

// ShiftImmediate applies an immediate-encoded shift. ROR #0 encodes RRX;
// every other shift by 0 passes the value and carry through.
func ShiftImmediate(value uint32, shiftType insts.ShiftType, amount uint32, carryIn bool) (uint32, bool) {
	if amount == 0 && shiftType == insts.ShiftROR {
		return rrx(value, carryIn)
	}
	return Shift(value, shiftType, amount, carryIn)
}

// Shift applies a barrel shift by an arbitrary amount, as used for
// register-specified shifts. An amount of 0 passes the value and carry
// through unchanged for every shift type. LSL and LSR by more than 32 give 0
// and keep the carry.
func Shift(value uint32, shiftType insts.ShiftType, amount uint32, carryIn bool) (uint32, bool) {
	if amount == 0 {
		return value, carryIn
	}

	switch shiftType {
	case insts.ShiftLSL:
		switch {
		case amount < 32:
			return value << amount, (value>>(32-amount))&1 == 1
		case amount == 32:
			return 0, value&1 == 1
		default:
			return 0, carryIn
		}
	case insts.ShiftLSR:
		switch {
		case amount < 32:
			return value >> amount, (value>>(amount-1))&1 == 1
		case amount == 32:
			return 0, value>>31 == 1
		default:
			return 0, carryIn
		}
	case insts.ShiftASR:
		if amount >= 32 {
			if value>>31 == 1 {
				return 0xFFFFFFFF, true
			}
			return 0, false
		}
		return uint32(int32(value) >> amount), (value>>(amount-1))&1 == 1
	default:
		rotate := amount & 31
		if rotate == 0 {
			return value, value>>31 == 1
		}
		return bits.RotateLeft32(value, -int(rotate)), (value>>(rotate-1))&1 == 1
	}
}

// rrx is a 33-bit rotate right by one through the carry flag.
func rrx(value uint32, carryIn bool) (uint32, bool) {
	result := value >> 1
	if carryIn {
		result |= 1 << 31
	}
	return result, value&1 == 1
}
