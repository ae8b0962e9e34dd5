// Package emu provides functional 32-bit ARM emulation.
package emu

import (
	"fmt"

	"github.com/sarchlab/armsim/insts"
)

// LoadStoreUnit implements LDR, STR, LDRB and STRB.
//
// All memory traffic goes through the word-granular Memory interface. Byte
// loads read the containing word and extract the addressed byte; byte stores
// read, modify and write back the containing word. Memory is little-endian.
type LoadStoreUnit struct {
	memory Memory
}

// NewLoadStoreUnit creates a new LoadStoreUnit connected to the given memory.
func NewLoadStoreUnit(memory Memory) *LoadStoreUnit {
	return &LoadStoreUnit{memory: memory}
}

// Execute runs a single data transfer. It returns true when the program
// counter was loaded or written back. On error nothing has been written.
func (lsu *LoadStoreUnit) Execute(inst *insts.Instruction, cur, next *RegFile) (bool, error) {
	base := cur.readOperand(inst.Rn, 8)

	var offset uint32
	if inst.Immediate {
		offset = inst.Imm
	} else {
		offset, _ = DecodeOperand2(inst.Operand2, false, cur)
	}

	indexed := base - offset
	if inst.Up {
		indexed = base + offset
	}

	addr := base
	if inst.PreIndex {
		addr = indexed
	}
	writeBack := !inst.PreIndex || inst.WriteBack

	if inst.Load {
		value, err := lsu.load(addr, inst.Byte)
		if err != nil {
			return false, err
		}
		if writeBack {
			next.WriteReg(inst.Rn, indexed)
		}
		// The loaded value wins when Rd == Rn
		next.WriteReg(inst.Rd, value)
		return inst.Rd == PC || (writeBack && inst.Rn == PC), nil
	}

	if err := lsu.store(addr, cur.readOperand(inst.Rd, 12), inst.Byte); err != nil {
		return false, err
	}
	if writeBack {
		next.WriteReg(inst.Rn, indexed)
	}

	return writeBack && inst.Rn == PC, nil
}

// LDR loads a word: Rd = mem[addr]
func (lsu *LoadStoreUnit) LDR(addr uint32) (uint32, error) {
	return lsu.load(addr, false)
}

// LDRB loads a byte with zero extension: Rd = zero_extend(mem[addr])
func (lsu *LoadStoreUnit) LDRB(addr uint32) (uint32, error) {
	return lsu.load(addr, true)
}

// STR stores a word: mem[addr] = value
func (lsu *LoadStoreUnit) STR(addr, value uint32) error {
	return lsu.store(addr, value, false)
}

// STRB stores a byte: mem[addr] = value[7:0]
func (lsu *LoadStoreUnit) STRB(addr, value uint32) error {
	return lsu.store(addr, value, true)
}

func (lsu *LoadStoreUnit) load(addr uint32, byteAccess bool) (uint32, error) {
	if !byteAccess {
		if err := checkAligned(addr); err != nil {
			return 0, err
		}
		return lsu.memory.ReadWord(addr)
	}

	word, err := lsu.memory.ReadWord(addr &^ 0x3)
	if err != nil {
		return 0, err
	}
	return (word >> byteShift(addr)) & 0xFF, nil
}

func (lsu *LoadStoreUnit) store(addr, value uint32, byteAccess bool) error {
	if !byteAccess {
		if err := checkAligned(addr); err != nil {
			return err
		}
		return lsu.memory.WriteWord(addr, value)
	}

	aligned := addr &^ 0x3
	word, err := lsu.memory.ReadWord(aligned)
	if err != nil {
		return err
	}
	shift := byteShift(addr)
	word = word&^(0xFF<<shift) | (value&0xFF)<<shift
	return lsu.memory.WriteWord(aligned, word)
}

func byteShift(addr uint32) uint32 {
	return (addr & 0x3) * 8
}

func checkAligned(addr uint32) error {
	if addr&0x3 != 0 {
		return fmt.Errorf("%w: 0x%08X", ErrUnalignedAccess, addr)
	}
	return nil
}
