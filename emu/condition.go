package emu

import "github.com/sarchlab/armsim/insts"

// ConditionPassed evaluates an ARM condition code against the given flags.
// The reserved code NV is treated as always.
func ConditionPassed(cond insts.Cond, pstate PSTATE) bool {
	switch cond & 0xF {
	case insts.CondEQ:
		// Equal: Z == 1
		return pstate.Z
	case insts.CondNE:
		// Not Equal: Z == 0
		return !pstate.Z
	case insts.CondCS:
		// Carry Set / Unsigned higher or same: C == 1
		return pstate.C
	case insts.CondCC:
		// Carry Clear / Unsigned lower: C == 0
		return !pstate.C
	case insts.CondMI:
		return pstate.N
	case insts.CondPL:
		return !pstate.N
	case insts.CondVS:
		return pstate.V
	case insts.CondVC:
		return !pstate.V
	case insts.CondHI:
		// Unsigned higher: C == 1 && Z == 0
		return pstate.C && !pstate.Z
	case insts.CondLS:
		// Unsigned lower or same: C == 0 || Z == 1
		return !pstate.C || pstate.Z
	case insts.CondGE:
		return pstate.N == pstate.V
	case insts.CondLT:
		return pstate.N != pstate.V
	case insts.CondGT:
		// Signed greater than: Z == 0 && N == V
		return !pstate.Z && (pstate.N == pstate.V)
	case insts.CondLE:
		// Signed less than or equal: Z == 1 || N != V
		return pstate.Z || (pstate.N != pstate.V)
	default:
		// AL and NV
		return true
	}
}
