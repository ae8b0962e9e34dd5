package emu

import "github.com/sarchlab/armsim/insts"

// MultiplyUnit implements MUL, MLA and the 64-bit long multiplies.
// S sets N and Z from the result; C and V are left unchanged.
type MultiplyUnit struct{}

// NewMultiplyUnit creates a new MultiplyUnit.
func NewMultiplyUnit() *MultiplyUnit {
	return &MultiplyUnit{}
}

// Execute runs a multiply instruction. It returns true when a destination
// register was the program counter.
func (m *MultiplyUnit) Execute(inst *insts.Instruction, cur, next *RegFile) bool {
	rm := cur.ReadReg(inst.Rm)
	rs := cur.ReadReg(inst.Rs)

	switch inst.Op {
	case insts.OpMUL, insts.OpMLA:
		result := rm * rs
		if inst.Op == insts.OpMLA {
			result += cur.ReadReg(inst.Rn)
		}
		next.WriteReg(inst.Rd, result)
		if inst.SetFlags {
			m.setFlags(cur, next, result>>31 == 1, result == 0)
		}
		return inst.Rd == PC
	}

	var result uint64
	if inst.Signed {
		result = uint64(int64(int32(rm)) * int64(int32(rs)))
	} else {
		result = uint64(rm) * uint64(rs)
	}

	if inst.Accumulate {
		result += uint64(cur.ReadReg(inst.RdHi))<<32 | uint64(cur.ReadReg(inst.RdLo))
	}

	next.WriteReg(inst.RdLo, uint32(result))
	next.WriteReg(inst.RdHi, uint32(result>>32))
	if inst.SetFlags {
		m.setFlags(cur, next, result>>63 == 1, result == 0)
	}

	return inst.RdLo == PC || inst.RdHi == PC
}

func (m *MultiplyUnit) setFlags(cur, next *RegFile, negative, zero bool) {
	pstate := cur.PSTATE()
	pstate.N = negative
	pstate.Z = zero
	next.SetPSTATE(pstate)
}
