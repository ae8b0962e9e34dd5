// Package insts provides 32-bit ARM instruction definitions and decoding.
//
// This package classifies raw 32-bit ARM instruction words into families and
// extracts their fields with plain bit masking. It supports:
//   - Data Processing: AND, EOR, SUB, RSB, ADD, ADC, SBC, RSC, TST, TEQ, CMP,
//     CMN, ORR, MOV, BIC, MVN with immediate or shifted-register operand 2
//   - Multiply: MUL, MLA, UMULL, UMLAL, SMULL, SMLAL
//   - Branch: B, BL
//   - Single Data Transfer: LDR, STR, LDRB, STRB
//   - Software Interrupt: SWI
//
// Anything else decodes to OpUnknown / FamilyUnknown.
//
// Usage:
//
//	decoder := insts.NewDecoder()
//	inst := decoder.Decode(0xE0810002) // ADD R0, R1, R2
//	fmt.Printf("Op: %v, Rd: %d, Rn: %d, Rm: %d\n", inst.Op, inst.Rd, inst.Rn, inst.Rm)
package insts
