package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/armsim/emu"
	"github.com/sarchlab/armsim/insts"
)

var _ = Describe("ALU", func() {
	var alu *emu.ALU

	BeforeEach(func() {
		alu = emu.NewALU()
	})

	DescribeTable("Evaluate",
		func(op insts.Op, op1, op2 uint32, shifterCarry bool, in emu.PSTATE,
			expected uint32, out emu.PSTATE) {
			result, flags := alu.Evaluate(op, op1, op2, shifterCarry, in)
			Expect(result).To(Equal(expected))
			Expect(flags).To(Equal(out))
		},
		Entry("ADD signed overflow", insts.OpADD,
			uint32(0x7FFFFFFF), uint32(1), false, emu.PSTATE{},
			uint32(0x80000000), emu.PSTATE{N: true, V: true}),
		Entry("ADD unsigned carry to zero", insts.OpADD,
			uint32(0xFFFFFFFF), uint32(1), false, emu.PSTATE{},
			uint32(0), emu.PSTATE{Z: true, C: true}),
		Entry("ADD of two negatives overflowing", insts.OpADD,
			uint32(0x80000000), uint32(0x80000000), false, emu.PSTATE{},
			uint32(0), emu.PSTATE{Z: true, C: true, V: true}),
		Entry("ADC folds in the carry", insts.OpADC,
			uint32(1), uint32(2), false, emu.PSTATE{C: true},
			uint32(4), emu.PSTATE{}),
		Entry("SUB of equal values", insts.OpSUB,
			uint32(5), uint32(5), false, emu.PSTATE{},
			uint32(0), emu.PSTATE{Z: true, C: true}),
		Entry("SUB with borrow", insts.OpSUB,
			uint32(3), uint32(5), false, emu.PSTATE{},
			uint32(0xFFFFFFFE), emu.PSTATE{N: true}),
		Entry("SUB signed overflow", insts.OpSUB,
			uint32(0x80000000), uint32(1), false, emu.PSTATE{},
			uint32(0x7FFFFFFF), emu.PSTATE{C: true, V: true}),
		Entry("SBC with carry set subtracts nothing extra", insts.OpSBC,
			uint32(10), uint32(3), false, emu.PSTATE{C: true},
			uint32(7), emu.PSTATE{C: true}),
		Entry("SBC with carry clear subtracts one more", insts.OpSBC,
			uint32(10), uint32(3), false, emu.PSTATE{},
			uint32(6), emu.PSTATE{C: true}),
		Entry("RSB reverses operands", insts.OpRSB,
			uint32(3), uint32(10), false, emu.PSTATE{},
			uint32(7), emu.PSTATE{C: true}),
		Entry("RSC with carry clear", insts.OpRSC,
			uint32(3), uint32(10), false, emu.PSTATE{},
			uint32(6), emu.PSTATE{C: true}),
		Entry("CMP less than", insts.OpCMP,
			uint32(1), uint32(2), false, emu.PSTATE{},
			uint32(0xFFFFFFFF), emu.PSTATE{N: true}),
		Entry("CMN to zero", insts.OpCMN,
			uint32(1), uint32(0xFFFFFFFF), false, emu.PSTATE{},
			uint32(0), emu.PSTATE{Z: true, C: true}),
		Entry("AND takes carry from the shifter and keeps V", insts.OpAND,
			uint32(0xF0), uint32(0x0F), true, emu.PSTATE{V: true},
			uint32(0), emu.PSTATE{Z: true, C: true, V: true}),
		Entry("EOR", insts.OpEOR,
			uint32(0xFF00FF00), uint32(0x0F0F0F0F), false, emu.PSTATE{C: true},
			uint32(0xF00FF00F), emu.PSTATE{N: true}),
		Entry("ORR", insts.OpORR,
			uint32(0xF0), uint32(0x0F), false, emu.PSTATE{},
			uint32(0xFF), emu.PSTATE{}),
		Entry("BIC", insts.OpBIC,
			uint32(0xFF), uint32(0x0F), false, emu.PSTATE{},
			uint32(0xF0), emu.PSTATE{}),
		Entry("MOV ignores the first operand", insts.OpMOV,
			uint32(0x1234), uint32(0x80000000), true, emu.PSTATE{},
			uint32(0x80000000), emu.PSTATE{N: true, C: true}),
		Entry("MVN", insts.OpMVN,
			uint32(0), uint32(0), false, emu.PSTATE{},
			uint32(0xFFFFFFFF), emu.PSTATE{N: true}),
		Entry("TST", insts.OpTST,
			uint32(0x1), uint32(0x2), false, emu.PSTATE{},
			uint32(0), emu.PSTATE{Z: true}),
		Entry("TEQ", insts.OpTEQ,
			uint32(0x5), uint32(0x5), false, emu.PSTATE{},
			uint32(0), emu.PSTATE{Z: true}),
	)

	Describe("Execute", func() {
		var cur, next emu.RegFile

		BeforeEach(func() {
			cur = emu.RegFile{}
			cur.SetPC(0x1000)
			next = cur
		})

		It("should read operands from the current state only", func() {
			cur.WriteReg(1, 3)
			next = cur
			// ADD R1, R1, R1
			inst := insts.NewDecoder().Decode(dpReg(insts.OpADD, false, 1, 1, 1, insts.ShiftLSL, 0))

			alu.Execute(inst, &cur, &next)

			Expect(cur.ReadReg(1)).To(Equal(uint32(3)))
			Expect(next.ReadReg(1)).To(Equal(uint32(6)))
		})

		It("should not write Rd for test operations", func() {
			cur.WriteReg(0, 0xAA)
			cur.WriteReg(1, 7)
			next = cur
			// CMP R1, #7 with Rd field pointing at R0
			inst := insts.NewDecoder().Decode(dpImm(insts.OpCMP, true, 0, 1, 0, 7))

			jumped := alu.Execute(inst, &cur, &next)

			Expect(jumped).To(BeFalse())
			Expect(next.ReadReg(0)).To(Equal(uint32(0xAA)))
			Expect(next.PSTATE()).To(Equal(emu.PSTATE{Z: true, C: true}))
		})

		It("should leave flags alone without S", func() {
			cur.SetPSTATE(emu.PSTATE{V: true})
			next = cur
			inst := insts.NewDecoder().Decode(dpImm(insts.OpMOV, false, 0, 0, 0, 0))

			alu.Execute(inst, &cur, &next)

			Expect(next.PSTATE()).To(Equal(emu.PSTATE{V: true}))
		})

		It("should report a write to the PC", func() {
			cur.WriteReg(emu.LR, 0x2000)
			next = cur
			// MOV PC, LR
			inst := insts.NewDecoder().Decode(dpReg(insts.OpMOV, false, 15, 0, 14, insts.ShiftLSL, 0))

			jumped := alu.Execute(inst, &cur, &next)

			Expect(jumped).To(BeTrue())
			Expect(next.PC()).To(Equal(uint32(0x2000)))
		})

		It("should read R15 as the instruction address plus 8", func() {
			// ADD R0, PC, #0
			inst := insts.NewDecoder().Decode(dpImm(insts.OpADD, false, 0, 15, 0, 0))

			alu.Execute(inst, &cur, &next)

			Expect(next.ReadReg(0)).To(Equal(uint32(0x1008)))
		})
	})
})
