package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/armsim/emu"
	"github.com/sarchlab/armsim/insts"
)

var _ = Describe("BranchUnit", func() {
	var (
		cur, next  emu.RegFile
		branchUnit *emu.BranchUnit
	)

	BeforeEach(func() {
		cur = emu.RegFile{}
		cur.SetPC(0x1000) // Start at address 0x1000
		next = cur
		branchUnit = emu.NewBranchUnit()
	})

	Describe("B (unconditional branch)", func() {
		It("should branch forward relative to PC+8", func() {
			branchUnit.B(&cur, &next, 100)

			Expect(next.PC()).To(Equal(uint32(0x1000 + 8 + 100)))
		})

		It("should branch backward", func() {
			branchUnit.B(&cur, &next, -100)

			Expect(next.PC()).To(Equal(uint32(0x1000 + 8 - 100)))
		})

		It("should branch to itself with offset -8", func() {
			branchUnit.B(&cur, &next, -8)

			Expect(next.PC()).To(Equal(uint32(0x1000)))
		})

		It("should not touch the link register", func() {
			cur.WriteReg(emu.LR, 0xDEAD)
			next = cur

			branchUnit.B(&cur, &next, 16)

			Expect(next.ReadReg(emu.LR)).To(Equal(uint32(0xDEAD)))
		})
	})

	Describe("BL (branch with link)", func() {
		It("should save the return address in LR and branch", func() {
			branchUnit.BL(&cur, &next, 0x100)

			Expect(next.ReadReg(emu.LR)).To(Equal(uint32(0x1004)))
			Expect(next.PC()).To(Equal(uint32(0x1108)))
		})

		It("should leave the current state untouched", func() {
			branchUnit.BL(&cur, &next, 0x100)

			Expect(cur.ReadReg(emu.LR)).To(Equal(uint32(0)))
			Expect(cur.PC()).To(Equal(uint32(0x1000)))
		})
	})

	Describe("Execute", func() {
		decoder := insts.NewDecoder()

		It("should decode imm24 = -2 as a branch to itself", func() {
			branchUnit.Execute(decoder.Decode(0xEAFFFFFE), &cur, &next)

			Expect(next.PC()).To(Equal(uint32(0x1000)))
		})

		It("should execute BL from the link bit", func() {
			// BL +4 words
			branchUnit.Execute(decoder.Decode(0xEB000004), &cur, &next)

			Expect(next.ReadReg(emu.LR)).To(Equal(uint32(0x1004)))
			Expect(next.PC()).To(Equal(uint32(0x1000 + 8 + 16)))
		})
	})
})
