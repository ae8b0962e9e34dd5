package benchmarks

import (
	"encoding/binary"

	"github.com/sarchlab/armsim/emu"
	"github.com/sarchlab/armsim/insts"
)

// BuildProgram assembles instruction words into a little-endian byte slice.
func BuildProgram(instrs ...uint32) []byte {
	program := make([]byte, len(instrs)*4)
	for i, inst := range instrs {
		binary.LittleEndian.PutUint32(program[i*4:], inst)
	}
	return program
}

// Instruction encoding helpers. All of them produce unconditional (AL)
// instructions unless a condition is passed in.

func dpImm(op insts.Op, rd, rn uint8, imm8 uint8, setFlags bool) uint32 {
	return insts.Encode(&insts.Instruction{
		Family:    insts.FamilyDataProcessing,
		Cond:      insts.CondAL,
		Op:        op,
		SetFlags:  setFlags || op.IsTest(),
		Rd:        rd,
		Rn:        rn,
		Immediate: true,
		Imm:       uint32(imm8),
	})
}

func dpReg(op insts.Op, rd, rn, rm uint8, setFlags bool) uint32 {
	return insts.Encode(&insts.Instruction{
		Family:    insts.FamilyDataProcessing,
		Cond:      insts.CondAL,
		Op:        op,
		SetFlags:  setFlags || op.IsTest(),
		Rd:        rd,
		Rn:        rn,
		Rm:        rm,
		ShiftType: insts.ShiftLSL,
	})
}

// EncodeMOVImm encodes MOV Rd, #imm8.
func EncodeMOVImm(rd uint8, imm uint8) uint32 {
	return dpImm(insts.OpMOV, rd, 0, imm, false)
}

// EncodeMOVReg encodes MOV Rd, Rm.
func EncodeMOVReg(rd, rm uint8) uint32 {
	return dpReg(insts.OpMOV, rd, 0, rm, false)
}

// EncodeADDImm encodes ADD/ADDS Rd, Rn, #imm8.
func EncodeADDImm(rd, rn uint8, imm uint8, setFlags bool) uint32 {
	return dpImm(insts.OpADD, rd, rn, imm, setFlags)
}

// EncodeSUBImm encodes SUB/SUBS Rd, Rn, #imm8.
func EncodeSUBImm(rd, rn uint8, imm uint8, setFlags bool) uint32 {
	return dpImm(insts.OpSUB, rd, rn, imm, setFlags)
}

// EncodeADDReg encodes ADD/ADDS Rd, Rn, Rm.
func EncodeADDReg(rd, rn, rm uint8, setFlags bool) uint32 {
	return dpReg(insts.OpADD, rd, rn, rm, setFlags)
}

// EncodeSUBReg encodes SUB/SUBS Rd, Rn, Rm.
func EncodeSUBReg(rd, rn, rm uint8, setFlags bool) uint32 {
	return dpReg(insts.OpSUB, rd, rn, rm, setFlags)
}

// EncodeEORReg encodes EOR Rd, Rn, Rm.
func EncodeEORReg(rd, rn, rm uint8) uint32 {
	return dpReg(insts.OpEOR, rd, rn, rm, false)
}

// EncodeCMPImm encodes CMP Rn, #imm8.
func EncodeCMPImm(rn uint8, imm uint8) uint32 {
	return dpImm(insts.OpCMP, 0, rn, imm, true)
}

// EncodeLSLImm encodes MOV Rd, Rm, LSL #amount.
func EncodeLSLImm(rd, rm uint8, amount uint8) uint32 {
	return insts.Encode(&insts.Instruction{
		Family:      insts.FamilyDataProcessing,
		Cond:        insts.CondAL,
		Op:          insts.OpMOV,
		Rd:          rd,
		Rm:          rm,
		ShiftType:   insts.ShiftLSL,
		ShiftAmount: amount,
	})
}

// EncodeMUL encodes MUL Rd, Rm, Rs.
func EncodeMUL(rd, rm, rs uint8) uint32 {
	return insts.Encode(&insts.Instruction{
		Family: insts.FamilyMultiply,
		Cond:   insts.CondAL,
		Op:     insts.OpMUL,
		Rd:     rd,
		Rm:     rm,
		Rs:     rs,
	})
}

// EncodeMLA encodes MLA Rd, Rm, Rs, Rn.
func EncodeMLA(rd, rm, rs, rn uint8) uint32 {
	return insts.Encode(&insts.Instruction{
		Family:     insts.FamilyMultiply,
		Cond:       insts.CondAL,
		Op:         insts.OpMLA,
		Accumulate: true,
		Rd:         rd,
		Rn:         rn,
		Rm:         rm,
		Rs:         rs,
	})
}

// EncodeUMULL encodes UMULL RdLo, RdHi, Rm, Rs.
func EncodeUMULL(rdLo, rdHi, rm, rs uint8) uint32 {
	return insts.Encode(&insts.Instruction{
		Family: insts.FamilyMultiply,
		Cond:   insts.CondAL,
		Op:     insts.OpUMULL,
		RdLo:   rdLo,
		RdHi:   rdHi,
		Rm:     rm,
		Rs:     rs,
	})
}

// EncodeBCond encodes a conditional branch. The offset is in bytes relative
// to the branch instruction itself.
func EncodeBCond(cond insts.Cond, offset int32) uint32 {
	return insts.Encode(&insts.Instruction{
		Family:       insts.FamilyBranch,
		Cond:         cond,
		Op:           insts.OpB,
		BranchOffset: offset - 8,
	})
}

// EncodeB encodes an unconditional branch relative to the branch itself.
func EncodeB(offset int32) uint32 {
	return EncodeBCond(insts.CondAL, offset)
}

// EncodeBL encodes a branch with link relative to the branch itself.
func EncodeBL(offset int32) uint32 {
	return insts.Encode(&insts.Instruction{
		Family:       insts.FamilyBranch,
		Cond:         insts.CondAL,
		Op:           insts.OpBL,
		Link:         true,
		BranchOffset: offset - 8,
	})
}

// EncodeRET encodes MOV PC, LR.
func EncodeRET() uint32 {
	return EncodeMOVReg(emu.PC, emu.LR)
}

func sdt(load, byteAccess bool, rd, rn uint8, offset int16, pre, writeBack bool) uint32 {
	up := offset >= 0
	if !up {
		offset = -offset
	}
	op := insts.OpSTR
	switch {
	case load && byteAccess:
		op = insts.OpLDRB
	case load:
		op = insts.OpLDR
	case byteAccess:
		op = insts.OpSTRB
	}
	return insts.Encode(&insts.Instruction{
		Family:    insts.FamilySingleDataTransfer,
		Cond:      insts.CondAL,
		Op:        op,
		Load:      load,
		Byte:      byteAccess,
		Rd:        rd,
		Rn:        rn,
		Immediate: true,
		Imm:       uint32(offset) & 0xFFF,
		PreIndex:  pre,
		Up:        up,
		WriteBack: writeBack,
	})
}

// EncodeLDR encodes LDR Rd, [Rn, #offset].
func EncodeLDR(rd, rn uint8, offset int16) uint32 {
	return sdt(true, false, rd, rn, offset, true, false)
}

// EncodeSTR encodes STR Rd, [Rn, #offset].
func EncodeSTR(rd, rn uint8, offset int16) uint32 {
	return sdt(false, false, rd, rn, offset, true, false)
}

// EncodeLDRB encodes LDRB Rd, [Rn, #offset].
func EncodeLDRB(rd, rn uint8, offset int16) uint32 {
	return sdt(true, true, rd, rn, offset, true, false)
}

// EncodeSTRB encodes STRB Rd, [Rn, #offset].
func EncodeSTRB(rd, rn uint8, offset int16) uint32 {
	return sdt(false, true, rd, rn, offset, true, false)
}

// EncodeLDRPost encodes LDR Rd, [Rn], #offset.
func EncodeLDRPost(rd, rn uint8, offset int16) uint32 {
	return sdt(true, false, rd, rn, offset, false, false)
}

// EncodePUSH encodes STR Rd, [SP, #-4]!.
func EncodePUSH(rd uint8) uint32 {
	return sdt(false, false, rd, emu.SP, -4, true, true)
}

// EncodePOP encodes LDR Rd, [SP], #4.
func EncodePOP(rd uint8) uint32 {
	return sdt(true, false, rd, emu.SP, 4, false, false)
}

// EncodeSWI encodes SWI #comment.
func EncodeSWI(comment uint32) uint32 {
	return insts.Encode(&insts.Instruction{
		Family: insts.FamilySoftwareInterrupt,
		Cond:   insts.CondAL,
		Op:     insts.OpSWI,
		Imm:    comment,
	})
}
