package insts

import (
	"fmt"
	"strings"
)

// Encode assembles the fields of an instruction back into a 32-bit word. It
// is the inverse of Decode for every supported family: decoding the result
// yields the same field values. Instructions of FamilyUnknown, and data
// processing instructions whose Op is not an ALU opcode, encode to Raw.
func Encode(inst *Instruction) uint32 {
	word := uint32(inst.Cond&0xF) << 28

	switch inst.Family {
	case FamilyDataProcessing:
		if !inst.Op.IsDataProcessing() {
			return inst.Raw
		}
		word |= uint32(inst.Op-OpAND) << 21
		word |= boolBit(inst.Immediate) << 25
		word |= boolBit(inst.SetFlags) << 20
		word |= uint32(inst.Rn&0xF) << 16
		word |= uint32(inst.Rd&0xF) << 12
		if inst.Immediate {
			word |= uint32(inst.Rotate&0xF)<<8 | inst.Imm&0xFF
		} else {
			word |= encodeShiftedRegister(inst)
		}
	case FamilyMultiply:
		word |= 0b1001 << 4
		word |= boolBit(inst.Accumulate) << 21
		word |= boolBit(inst.SetFlags) << 20
		word |= uint32(inst.Rs&0xF) << 8
		word |= uint32(inst.Rm & 0xF)
		switch inst.Op {
		case OpUMULL, OpUMLAL, OpSMULL, OpSMLAL:
			word |= 1 << 23
			word |= boolBit(inst.Signed) << 22
			word |= uint32(inst.RdHi&0xF) << 16
			word |= uint32(inst.RdLo&0xF) << 12
		default:
			word |= uint32(inst.Rd&0xF) << 16
			word |= uint32(inst.Rn&0xF) << 12
		}
	case FamilyBranch:
		word |= 0b101 << 25
		word |= boolBit(inst.Link) << 24
		word |= (uint32(inst.BranchOffset) >> 2) & 0xFFFFFF
	case FamilySingleDataTransfer:
		word |= 0b01 << 26
		word |= boolBit(!inst.Immediate) << 25
		word |= boolBit(inst.PreIndex) << 24
		word |= boolBit(inst.Up) << 23
		word |= boolBit(inst.Byte) << 22
		word |= boolBit(inst.WriteBack) << 21
		word |= boolBit(inst.Load) << 20
		word |= uint32(inst.Rn&0xF) << 16
		word |= uint32(inst.Rd&0xF) << 12
		if inst.Immediate {
			word |= inst.Imm & 0xFFF
		} else {
			word |= encodeShiftedRegister(inst)
		}
	case FamilySoftwareInterrupt:
		word |= 0xF << 24
		word |= inst.Imm & 0xFFFFFF
	default:
		return inst.Raw
	}

	return word
}

func encodeShiftedRegister(inst *Instruction) uint32 {
	op2 := uint32(inst.Rm&0xF) | uint32(inst.ShiftType&0x3)<<5
	if inst.ShiftByRegister {
		op2 |= 1<<4 | uint32(inst.Rs&0xF)<<8
	} else {
		op2 |= uint32(inst.ShiftAmount&0x1F) << 7
	}
	return op2
}

func boolBit(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

// String returns an assembler-style rendering of the instruction.
func (inst *Instruction) String() string {
	cond := ""
	if inst.Cond != CondAL {
		cond = inst.Cond.String()
	}
	s := ""
	if inst.SetFlags && !inst.Op.IsTest() {
		s = "S"
	}

	switch inst.Family {
	case FamilyDataProcessing:
		switch {
		case inst.Op == OpMOV || inst.Op == OpMVN:
			return fmt.Sprintf("%s%s%s R%d, %s", inst.Op, cond, s, inst.Rd, inst.operand2String())
		case inst.Op.IsTest():
			return fmt.Sprintf("%s%s R%d, %s", inst.Op, cond, inst.Rn, inst.operand2String())
		default:
			return fmt.Sprintf("%s%s%s R%d, R%d, %s", inst.Op, cond, s, inst.Rd, inst.Rn, inst.operand2String())
		}
	case FamilyMultiply:
		switch inst.Op {
		case OpMUL:
			return fmt.Sprintf("MUL%s%s R%d, R%d, R%d", cond, s, inst.Rd, inst.Rm, inst.Rs)
		case OpMLA:
			return fmt.Sprintf("MLA%s%s R%d, R%d, R%d, R%d", cond, s, inst.Rd, inst.Rm, inst.Rs, inst.Rn)
		default:
			return fmt.Sprintf("%s%s%s R%d, R%d, R%d, R%d", inst.Op, cond, s, inst.RdLo, inst.RdHi, inst.Rm, inst.Rs)
		}
	case FamilyBranch:
		return fmt.Sprintf("%s%s %+d", inst.Op, cond, inst.BranchOffset)
	case FamilySingleDataTransfer:
		return fmt.Sprintf("%s%s R%d, %s", inst.Op, cond, inst.Rd, inst.addressString())
	case FamilySoftwareInterrupt:
		return fmt.Sprintf("SWI%s #0x%06X", cond, inst.Imm)
	default:
		return fmt.Sprintf("UNDEFINED 0x%08X", inst.Raw)
	}
}

func (inst *Instruction) operand2String() string {
	if inst.Immediate {
		rot := uint(inst.Rotate) * 2
		value := inst.Imm>>rot | inst.Imm<<((32-rot)&31)
		return fmt.Sprintf("#%d", value)
	}
	return inst.shiftedRegisterString()
}

func (inst *Instruction) shiftedRegisterString() string {
	switch {
	case inst.ShiftByRegister:
		return fmt.Sprintf("R%d, %s R%d", inst.Rm, inst.ShiftType, inst.Rs)
	case inst.ShiftType == ShiftROR && inst.ShiftAmount == 0:
		return fmt.Sprintf("R%d, RRX", inst.Rm)
	case inst.ShiftType == ShiftLSL && inst.ShiftAmount == 0:
		return fmt.Sprintf("R%d", inst.Rm)
	default:
		return fmt.Sprintf("R%d, %s #%d", inst.Rm, inst.ShiftType, inst.ShiftAmount)
	}
}

func (inst *Instruction) addressString() string {
	sign := ""
	if !inst.Up {
		sign = "-"
	}

	var offset string
	if inst.Immediate {
		offset = fmt.Sprintf("#%s%d", sign, inst.Imm)
	} else {
		offset = sign + inst.shiftedRegisterString()
	}

	var b strings.Builder
	if inst.PreIndex {
		fmt.Fprintf(&b, "[R%d, %s]", inst.Rn, offset)
		if inst.WriteBack {
			b.WriteString("!")
		}
	} else {
		fmt.Fprintf(&b, "[R%d], %s", inst.Rn, offset)
	}
	return b.String()
}
