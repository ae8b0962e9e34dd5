// Package insts provides 32-bit ARM instruction definitions and decoding.
package insts

// Op represents an ARM opcode.
type Op uint16

// ARM opcodes. The data-processing opcodes are declared in encoding order so
// that Op - OpAND equals the 4-bit opcode field.
const (
	OpUnknown Op = iota
	OpAND
	OpEOR
	OpSUB
	OpRSB
	OpADD
	OpADC
	OpSBC
	OpRSC
	OpTST
	OpTEQ
	OpCMP
	OpCMN
	OpORR
	OpMOV
	OpBIC
	OpMVN
	OpMUL
	OpMLA
	OpUMULL
	OpUMLAL
	OpSMULL
	OpSMLAL
	OpB
	OpBL
	OpLDR
	OpSTR
	OpLDRB
	OpSTRB
	OpSWI
)

var opNames = [...]string{
	OpUnknown: "???",
	OpAND:     "AND",
	OpEOR:     "EOR",
	OpSUB:     "SUB",
	OpRSB:     "RSB",
	OpADD:     "ADD",
	OpADC:     "ADC",
	OpSBC:     "SBC",
	OpRSC:     "RSC",
	OpTST:     "TST",
	OpTEQ:     "TEQ",
	OpCMP:     "CMP",
	OpCMN:     "CMN",
	OpORR:     "ORR",
	OpMOV:     "MOV",
	OpBIC:     "BIC",
	OpMVN:     "MVN",
	OpMUL:     "MUL",
	OpMLA:     "MLA",
	OpUMULL:   "UMULL",
	OpUMLAL:   "UMLAL",
	OpSMULL:   "SMULL",
	OpSMLAL:   "SMLAL",
	OpB:       "B",
	OpBL:      "BL",
	OpLDR:     "LDR",
	OpSTR:     "STR",
	OpLDRB:    "LDRB",
	OpSTRB:    "STRB",
	OpSWI:     "SWI",
}

func (o Op) String() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}
	return opNames[OpUnknown]
}

// IsDataProcessing reports whether the op is one of the 16 ALU opcodes.
func (o Op) IsDataProcessing() bool {
	return o >= OpAND && o <= OpMVN
}

// IsTest reports whether the op only sets flags (TST, TEQ, CMP, CMN).
func (o Op) IsTest() bool {
	return o >= OpTST && o <= OpCMN
}

// IsLogical reports whether the op takes its carry from the barrel shifter.
func (o Op) IsLogical() bool {
	switch o {
	case OpAND, OpEOR, OpTST, OpTEQ, OpORR, OpMOV, OpBIC, OpMVN:
		return true
	}
	return false
}

// Family represents the instruction class selected by the classifier.
type Family uint8

// Instruction families.
const (
	FamilyUnknown Family = iota
	FamilyDataProcessing
	FamilyMultiply
	FamilyBranch
	FamilySingleDataTransfer
	FamilySoftwareInterrupt
)

func (f Family) String() string {
	switch f {
	case FamilyDataProcessing:
		return "data-processing"
	case FamilyMultiply:
		return "multiply"
	case FamilyBranch:
		return "branch"
	case FamilySingleDataTransfer:
		return "single-data-transfer"
	case FamilySoftwareInterrupt:
		return "software-interrupt"
	default:
		return "unknown"
	}
}

// Cond represents an ARM condition code.
type Cond uint8

// ARM condition codes.
const (
	CondEQ Cond = 0b0000 // Equal (Z == 1)
	CondNE Cond = 0b0001 // Not Equal (Z == 0)
	CondCS Cond = 0b0010 // Carry Set / Unsigned higher or same (C == 1)
	CondCC Cond = 0b0011 // Carry Clear / Unsigned lower (C == 0)
	CondMI Cond = 0b0100 // Minus / Negative (N == 1)
	CondPL Cond = 0b0101 // Plus / Positive or zero (N == 0)
	CondVS Cond = 0b0110 // Overflow (V == 1)
	CondVC Cond = 0b0111 // No overflow (V == 0)
	CondHI Cond = 0b1000 // Unsigned higher (C == 1 && Z == 0)
	CondLS Cond = 0b1001 // Unsigned lower or same (C == 0 || Z == 1)
	CondGE Cond = 0b1010 // Signed greater than or equal (N == V)
	CondLT Cond = 0b1011 // Signed less than (N != V)
	CondGT Cond = 0b1100 // Signed greater than (Z == 0 && N == V)
	CondLE Cond = 0b1101 // Signed less than or equal (Z == 1 || N != V)
	CondAL Cond = 0b1110 // Always (unconditional)
	CondNV Cond = 0b1111 // Reserved, executed as always
)

var condNames = [16]string{
	"EQ", "NE", "CS", "CC", "MI", "PL", "VS", "VC",
	"HI", "LS", "GE", "LT", "GT", "LE", "AL", "NV",
}

func (c Cond) String() string {
	return condNames[c&0xF]
}

// ShiftType represents a barrel shifter operation.
type ShiftType uint8

// Shift types.
const (
	ShiftLSL ShiftType = 0b00 // Logical shift left
	ShiftLSR ShiftType = 0b01 // Logical shift right
	ShiftASR ShiftType = 0b10 // Arithmetic shift right
	ShiftROR ShiftType = 0b11 // Rotate right (RRX when the immediate amount is 0)
)

var shiftNames = [4]string{"LSL", "LSR", "ASR", "ROR"}

func (s ShiftType) String() string {
	return shiftNames[s&0x3]
}

// Instruction represents a decoded 32-bit ARM instruction.
type Instruction struct {
	Raw    uint32 // Instruction word as fetched
	Op     Op     // Operation code
	Family Family // Instruction family
	Cond   Cond   // Condition field, bits [31:28]

	// Common fields
	SetFlags bool  // S bit
	Rd       uint8 // Destination register (source register for STR)
	Rn       uint8 // First operand / base register
	Rm       uint8 // Register operand of operand 2, or multiplicand
	Rs       uint8 // Shift-amount register, or multiplier

	// Operand 2 / offset. Immediate is true when the operand is an immediate
	// value. For data processing this is the I bit; for single data transfer
	// the encoding is inverted (bit 25 clear means immediate offset).
	Immediate bool
	Operand2  uint16 // Raw 12-bit operand-2 / offset field
	Imm       uint32 // imm8 (data processing), imm12 (transfer), imm24 (branch, SWI)
	Rotate    uint8  // 4-bit rotate field of an immediate operand 2

	// Shift for register operand
	ShiftType       ShiftType
	ShiftAmount     uint8 // 5-bit immediate shift amount
	ShiftByRegister bool  // bit 4: shift amount taken from Rs

	// Branch fields
	Link         bool  // L bit of B/BL
	BranchOffset int32 // Sign-extended imm24 << 2, in bytes

	// Single data transfer fields
	PreIndex  bool // P bit
	Up        bool // U bit
	Byte      bool // B bit
	WriteBack bool // W bit
	Load      bool // L bit

	// Multiply fields
	Accumulate bool  // A bit
	Signed     bool  // U bit of long multiplies (set means signed)
	RdHi       uint8 // High destination of long multiplies
	RdLo       uint8 // Low destination (and accumulator) of long multiplies
}

// Decoder decodes 32-bit ARM machine code into instructions.
type Decoder struct{}

// NewDecoder creates a new ARM instruction decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Classify determines the family of a raw instruction word. Checks run in
// priority order: Branch, Multiply, Software Interrupt, Single Data Transfer,
// Data Processing. Words matching none are FamilyUnknown.
func Classify(word uint32) Family {
	switch {
	case isBranch(word):
		return FamilyBranch
	case isMultiply(word), isMultiplyLong(word):
		return FamilyMultiply
	case isSoftwareInterrupt(word):
		return FamilySoftwareInterrupt
	case isSingleDataTransfer(word):
		return FamilySingleDataTransfer
	case isDataProcessing(word):
		return FamilyDataProcessing
	default:
		return FamilyUnknown
	}
}

// Decode decodes a 32-bit ARM instruction word.
func (d *Decoder) Decode(word uint32) *Instruction {
	inst := &Instruction{
		Raw:    word,
		Op:     OpUnknown,
		Family: FamilyUnknown,
		Cond:   Cond(word >> 28),
	}

	switch Classify(word) {
	case FamilyBranch:
		d.decodeBranch(word, inst)
	case FamilyMultiply:
		if isMultiplyLong(word) {
			d.decodeMultiplyLong(word, inst)
		} else {
			d.decodeMultiply(word, inst)
		}
	case FamilySoftwareInterrupt:
		d.decodeSoftwareInterrupt(word, inst)
	case FamilySingleDataTransfer:
		d.decodeSingleDataTransfer(word, inst)
	case FamilyDataProcessing:
		d.decodeDataProcessing(word, inst)
	}

	return inst
}

// isBranch checks for B/BL: bits [27:25] == 0b101
func isBranch(word uint32) bool {
	return (word>>25)&0x7 == 0b101
}

// isMultiply checks for MUL/MLA: bits [27:22] == 0 and bits [7:4] == 0b1001
func isMultiply(word uint32) bool {
	return (word>>22)&0x3F == 0 && (word>>4)&0xF == 0b1001
}

// isMultiplyLong checks for the long multiplies: bits [27:23] == 0b00001
// and bits [7:4] == 0b1001
func isMultiplyLong(word uint32) bool {
	return (word>>23)&0x1F == 0b00001 && (word>>4)&0xF == 0b1001
}

// isSoftwareInterrupt checks for SWI: bits [27:24] == 0b1111
func isSoftwareInterrupt(word uint32) bool {
	return (word>>24)&0xF == 0xF
}

// isSingleDataTransfer checks for LDR/STR: bits [27:26] == 0b01.
// A register offset (bit 25) with bit 4 set is the undefined space.
func isSingleDataTransfer(word uint32) bool {
	if (word>>26)&0x3 != 0b01 {
		return false
	}
	return !((word>>25)&1 == 1 && (word>>4)&1 == 1)
}

// isDataProcessing checks for ALU instructions: bits [27:26] == 0b00,
// excluding the PSR transfer space (test opcodes without S) and the
// multiply/halfword extension space (register operand with bits 7 and 4 set).
func isDataProcessing(word uint32) bool {
	if (word>>26)&0x3 != 0 {
		return false
	}

	opcode := (word >> 21) & 0xF
	s := (word >> 20) & 0x1
	if opcode >= 0b1000 && opcode <= 0b1011 && s == 0 {
		return false
	}

	i := (word >> 25) & 0x1
	if i == 0 && (word>>7)&1 == 1 && (word>>4)&1 == 1 {
		return false
	}

	return true
}

// decodeDataProcessing decodes ALU instructions.
// Format: cond | 00 | I | opcode | S | Rn | Rd | operand2
func (d *Decoder) decodeDataProcessing(word uint32, inst *Instruction) {
	inst.Family = FamilyDataProcessing

	opcode := (word >> 21) & 0xF // bits [24:21]

	inst.Op = OpAND + Op(opcode)
	inst.Immediate = (word>>25)&0x1 == 1
	inst.SetFlags = (word>>20)&0x1 == 1
	inst.Rn = uint8((word >> 16) & 0xF)
	inst.Rd = uint8((word >> 12) & 0xF)

	d.decodeOperand2(word, inst, inst.Immediate)
}

// decodeOperand2 splits the 12-bit operand-2 field into its immediate or
// shifted-register parts.
func (d *Decoder) decodeOperand2(word uint32, inst *Instruction, rotatedImm bool) {
	op2 := word & 0xFFF
	inst.Operand2 = uint16(op2)

	if rotatedImm {
		inst.Rotate = uint8(op2 >> 8)
		inst.Imm = op2 & 0xFF
		return
	}

	inst.Rm = uint8(op2 & 0xF)
	inst.ShiftType = ShiftType((op2 >> 5) & 0x3)
	inst.ShiftByRegister = (op2>>4)&0x1 == 1
	if inst.ShiftByRegister {
		inst.Rs = uint8((op2 >> 8) & 0xF)
	} else {
		inst.ShiftAmount = uint8((op2 >> 7) & 0x1F)
	}
}

// decodeMultiply decodes MUL and MLA.
// Format: cond | 000000 | A | S | Rd | Rn | Rs | 1001 | Rm
func (d *Decoder) decodeMultiply(word uint32, inst *Instruction) {
	inst.Family = FamilyMultiply

	inst.Accumulate = (word>>21)&0x1 == 1
	inst.SetFlags = (word>>20)&0x1 == 1
	inst.Rd = uint8((word >> 16) & 0xF)
	inst.Rn = uint8((word >> 12) & 0xF)
	inst.Rs = uint8((word >> 8) & 0xF)
	inst.Rm = uint8(word & 0xF)

	if inst.Accumulate {
		inst.Op = OpMLA
	} else {
		inst.Op = OpMUL
	}
}

// decodeMultiplyLong decodes UMULL, UMLAL, SMULL and SMLAL.
// Format: cond | 00001 | U | A | S | RdHi | RdLo | Rs | 1001 | Rm
func (d *Decoder) decodeMultiplyLong(word uint32, inst *Instruction) {
	inst.Family = FamilyMultiply

	inst.Signed = (word>>22)&0x1 == 1
	inst.Accumulate = (word>>21)&0x1 == 1
	inst.SetFlags = (word>>20)&0x1 == 1
	inst.RdHi = uint8((word >> 16) & 0xF)
	inst.RdLo = uint8((word >> 12) & 0xF)
	inst.Rs = uint8((word >> 8) & 0xF)
	inst.Rm = uint8(word & 0xF)

	switch {
	case !inst.Signed && !inst.Accumulate:
		inst.Op = OpUMULL
	case !inst.Signed && inst.Accumulate:
		inst.Op = OpUMLAL
	case inst.Signed && !inst.Accumulate:
		inst.Op = OpSMULL
	default:
		inst.Op = OpSMLAL
	}
}

// decodeBranch decodes B and BL.
// Format: cond | 101 | L | imm24
func (d *Decoder) decodeBranch(word uint32, inst *Instruction) {
	inst.Family = FamilyBranch

	imm24 := word & 0xFFFFFF
	inst.Imm = imm24
	inst.Link = (word>>24)&0x1 == 1

	// Sign-extend imm24 and multiply by 4
	inst.BranchOffset = int32(imm24<<8) >> 6

	if inst.Link {
		inst.Op = OpBL
	} else {
		inst.Op = OpB
	}
}

// decodeSingleDataTransfer decodes LDR, STR, LDRB and STRB.
// Format: cond | 01 | I | P | U | B | W | L | Rn | Rd | offset
func (d *Decoder) decodeSingleDataTransfer(word uint32, inst *Instruction) {
	inst.Family = FamilySingleDataTransfer

	inst.Immediate = (word>>25)&0x1 == 0
	inst.PreIndex = (word>>24)&0x1 == 1
	inst.Up = (word>>23)&0x1 == 1
	inst.Byte = (word>>22)&0x1 == 1
	inst.WriteBack = (word>>21)&0x1 == 1
	inst.Load = (word>>20)&0x1 == 1
	inst.Rn = uint8((word >> 16) & 0xF)
	inst.Rd = uint8((word >> 12) & 0xF)

	if inst.Immediate {
		inst.Operand2 = uint16(word & 0xFFF)
		inst.Imm = word & 0xFFF
	} else {
		d.decodeOperand2(word, inst, false)
	}

	switch {
	case inst.Load && inst.Byte:
		inst.Op = OpLDRB
	case inst.Load:
		inst.Op = OpLDR
	case inst.Byte:
		inst.Op = OpSTRB
	default:
		inst.Op = OpSTR
	}
}

// decodeSoftwareInterrupt decodes SWI.
// Format: cond | 1111 | comment24
func (d *Decoder) decodeSoftwareInterrupt(word uint32, inst *Instruction) {
	inst.Family = FamilySoftwareInterrupt
	inst.Op = OpSWI
	inst.Imm = word & 0xFFFFFF
}
