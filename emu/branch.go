// Package emu provides functional 32-bit ARM emulation.
package emu

import "github.com/sarchlab/armsim/insts"

// pipelineOffset is how far ahead of the executing instruction the PC reads
// in the ARM programmer's model. Branch offsets are relative to it.
const pipelineOffset = 8

// BranchUnit implements ARM branch operations.
type BranchUnit struct{}

// NewBranchUnit creates a new BranchUnit.
func NewBranchUnit() *BranchUnit {
	return &BranchUnit{}
}

// Execute runs B or BL. The target is always written to the next PC.
func (b *BranchUnit) Execute(inst *insts.Instruction, cur, next *RegFile) {
	if inst.Link {
		b.BL(cur, next, inst.BranchOffset)
	} else {
		b.B(cur, next, inst.BranchOffset)
	}
}

// B performs a PC-relative branch. The offset is in bytes and is added to
// the address of the instruction plus 8.
func (b *BranchUnit) B(cur, next *RegFile, offset int32) {
	next.SetPC(cur.PC() + pipelineOffset + uint32(offset))
}

// BL performs a branch with link (for function calls).
// Saves the return address (PC + 4) to R14 (link register),
// then branches like B.
func (b *BranchUnit) BL(cur, next *RegFile, offset int32) {
	next.WriteReg(LR, cur.PC()+4)
	b.B(cur, next, offset)
}
