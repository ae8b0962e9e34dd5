// Package benchmarks provides a suite of small ARM programs with known
// results, and a harness that runs them on the functional emulator.
package benchmarks

import (
	"github.com/sarchlab/armsim/emu"
	"github.com/sarchlab/armsim/insts"
)

// Data addresses used by the memory benchmarks.
const (
	bufferBase = 0x8000
	matrixA    = 0x8000
	matrixB    = 0x8010
	matrixC    = 0x8020
	copyDst    = 0x8100
)

// GetMicrobenchmarks returns the standard set of microbenchmarks. Each one
// exercises a different instruction family and halts with its result in R0.
func GetMicrobenchmarks() []Benchmark {
	return []Benchmark{
		arithmeticSequential(),
		dependencyChain(),
		memorySequential(),
		functionCalls(),
		branchTaken(),
		mixedOperations(),
		matrixMultiply2x2(),
		loopSimulation(),
		recursiveFactorial(),
		byteCopy(),
	}
}

// GetCoreBenchmarks returns a minimal set of 3 core benchmarks for quick
// validation: a loop, a matrix multiply and branch-heavy code.
func GetCoreBenchmarks() []Benchmark {
	return []Benchmark{
		loopSimulation(),
		matrixMultiply2x2(),
		branchTaken(),
	}
}

// 1. Arithmetic Sequential - independent ALU operations
func arithmeticSequential() Benchmark {
	program := make([]uint32, 0, 25)
	for i := 0; i < 20; i++ {
		program = append(program, EncodeADDImm(uint8(i%5), uint8(i%5), 1, false))
	}
	program = append(program,
		EncodeADDReg(0, 0, 1, false),
		EncodeADDReg(0, 0, 2, false),
		EncodeADDReg(0, 0, 3, false),
		EncodeADDReg(0, 0, 4, false),
		EncodeSWI(0),
	)

	return Benchmark{
		Name:         "arithmetic_sequential",
		Description:  "20 independent ADDs over R0-R4, then a reduction",
		Program:      BuildProgram(program...),
		ExpectedExit: 20,
	}
}

// 2. Dependency Chain - every ADD reads the previous result
func dependencyChain() Benchmark {
	program := make([]uint32, 0, 21)
	for i := 0; i < 20; i++ {
		program = append(program, EncodeADDImm(0, 0, 1, false))
	}
	program = append(program, EncodeSWI(0))

	return Benchmark{
		Name:         "dependency_chain",
		Description:  "20 dependent ADDs on R0",
		Program:      BuildProgram(program...),
		ExpectedExit: 20,
	}
}

// 3. Memory Sequential - store/load pairs through consecutive words
func memorySequential() Benchmark {
	program := make([]uint32, 0, 11)
	for i := int16(0); i < 5; i++ {
		program = append(program,
			EncodeSTR(0, 1, i*4),
			EncodeLDR(0, 1, i*4),
		)
	}
	program = append(program, EncodeSWI(0))

	return Benchmark{
		Name:        "memory_sequential",
		Description: "5 STR/LDR pairs to consecutive words",
		Setup: func(regFile *emu.RegFile, _ *emu.StorageMemory) {
			regFile.WriteReg(0, 42)
			regFile.WriteReg(1, bufferBase)
		},
		Program:      BuildProgram(program...),
		ExpectedExit: 42,
	}
}

// 4. Function Calls - BL and MOV PC, LR pairs
func functionCalls() Benchmark {
	return Benchmark{
		Name:        "function_calls",
		Description: "5 calls to a leaf function",
		Program: BuildProgram(
			EncodeBL(24), // add_one is 6 instructions ahead
			EncodeBL(20),
			EncodeBL(16),
			EncodeBL(12),
			EncodeBL(8),
			EncodeSWI(0),

			// add_one
			EncodeADDImm(0, 0, 1, false),
			EncodeRET(),
		),
		ExpectedExit: 5,
	}
}

// 5. Branch Taken - unconditional forward branches
func branchTaken() Benchmark {
	program := make([]uint32, 0, 16)
	for i := 0; i < 5; i++ {
		program = append(program,
			EncodeB(8),                    // skip the next instruction
			EncodeADDImm(1, 1, 99, false), // skipped
			EncodeADDImm(0, 0, 1, false),
		)
	}
	program = append(program, EncodeSWI(0))

	return Benchmark{
		Name:         "branch_taken",
		Description:  "5 taken B instructions each skipping one ADD",
		Program:      BuildProgram(program...),
		ExpectedExit: 5,
	}
}

// 6. Mixed Operations - ALU, memory and calls together
func mixedOperations() Benchmark {
	return Benchmark{
		Name:        "mixed_operations",
		Description: "Mix of ADD, STR/LDR and BL",
		Setup: func(regFile *emu.RegFile, _ *emu.StorageMemory) {
			regFile.WriteReg(1, bufferBase)
		},
		Program: BuildProgram(
			// Iteration 1
			EncodeADDImm(2, 0, 10, false),
			EncodeSTR(2, 1, 0),
			EncodeLDR(3, 1, 0),
			EncodeADDReg(0, 0, 3, false),
			EncodeBL(44), // add_five

			// Iteration 2
			EncodeADDImm(2, 0, 10, false),
			EncodeSTR(2, 1, 4),
			EncodeLDR(3, 1, 4),
			EncodeADDReg(0, 0, 3, false),
			EncodeBL(24),

			// Iteration 3
			EncodeADDImm(2, 0, 10, false),
			EncodeSTR(2, 1, 8),
			EncodeLDR(3, 1, 8),
			EncodeADDReg(0, 0, 3, false),

			EncodeSWI(0),

			// add_five
			EncodeADDImm(0, 0, 5, false),
			EncodeRET(),
		),
		// iter1: R0=10, +5 -> 15
		// iter2: R0=15+25=40, +5 -> 45
		// iter3: R0=45+55=100
		ExpectedExit: 100,
	}
}

// 7. Matrix Multiply - C = A x B for 2x2 word matrices with MUL and MLA
func matrixMultiply2x2() Benchmark {
	return Benchmark{
		Name:        "matrix_multiply_2x2",
		Description: "2x2 matrix multiply with MUL/MLA, result summed into R0",
		Setup: func(regFile *emu.RegFile, memory *emu.StorageMemory) {
			regFile.WriteReg(1, matrixA)
			regFile.WriteReg(2, matrixB)
			regFile.WriteReg(3, matrixC)

			a := []uint32{1, 2, 3, 4}
			b := []uint32{5, 6, 7, 8}
			for i := range a {
				_ = memory.WriteWord(matrixA+uint32(i)*4, a[i])
				_ = memory.WriteWord(matrixB+uint32(i)*4, b[i])
			}
		},
		Program: BuildProgram(
			EncodeLDR(4, 1, 0), // a00
			EncodeLDR(5, 1, 4), // a01
			EncodeLDR(6, 1, 8), // a10
			EncodeLDR(7, 1, 12),
			EncodeLDR(8, 2, 0), // b00
			EncodeLDR(9, 2, 4), // b01
			EncodeLDR(10, 2, 8),
			EncodeLDR(11, 2, 12),

			// c00 = a00*b00 + a01*b10 = 19
			EncodeMUL(12, 4, 8),
			EncodeMLA(12, 5, 10, 12),
			EncodeSTR(12, 3, 0),
			EncodeMOVReg(0, 12),

			// c01 = a00*b01 + a01*b11 = 22
			EncodeMUL(12, 4, 9),
			EncodeMLA(12, 5, 11, 12),
			EncodeSTR(12, 3, 4),
			EncodeADDReg(0, 0, 12, false),

			// c10 = a10*b00 + a11*b10 = 43
			EncodeMUL(12, 6, 8),
			EncodeMLA(12, 7, 10, 12),
			EncodeSTR(12, 3, 8),
			EncodeADDReg(0, 0, 12, false),

			// c11 = a10*b01 + a11*b11 = 50
			EncodeMUL(12, 6, 9),
			EncodeMLA(12, 7, 11, 12),
			EncodeSTR(12, 3, 12),
			EncodeADDReg(0, 0, 12, false),

			EncodeSWI(0),
		),
		ExpectedExit: 134,
	}
}

// 8. Loop Simulation - for i := 0; i < 10; i++ { sum += i }
func loopSimulation() Benchmark {
	return Benchmark{
		Name:        "loop_simulation",
		Description: "10-iteration counted loop closed by CMP/BNE",
		Program: BuildProgram(
			EncodeMOVImm(0, 0),
			EncodeMOVImm(1, 0),

			// loop
			EncodeADDReg(0, 0, 1, false),
			EncodeADDImm(1, 1, 1, false),
			EncodeCMPImm(1, 10),
			EncodeBCond(insts.CondNE, -12),

			EncodeSWI(0),
		),
		ExpectedExit: 45,
	}
}

// 9. Recursive Factorial - stack traffic through nested calls
func recursiveFactorial() Benchmark {
	return Benchmark{
		Name:        "recursive_factorial",
		Description: "Recursive 5! with PUSH/POP of R0 and LR",
		Program: BuildProgram(
			EncodeMOVImm(0, 5),
			EncodeBL(8), // fact
			EncodeSWI(0),

			// fact
			EncodeCMPImm(0, 1),
			EncodeBCond(insts.CondGT, 8),
			EncodeRET(),
			EncodePUSH(0),
			EncodePUSH(emu.LR),
			EncodeSUBImm(0, 0, 1, false),
			EncodeBL(-24), // fact
			EncodePOP(emu.LR),
			EncodePOP(1),
			EncodeMUL(0, 1, 0),
			EncodeRET(),
		),
		ExpectedExit: 120,
	}
}

// 10. Byte Copy - LDRB/STRB loop over an 8-byte buffer
func byteCopy() Benchmark {
	return Benchmark{
		Name:        "byte_copy",
		Description: "Copy 8 bytes with LDRB/STRB and sum them",
		Setup: func(regFile *emu.RegFile, memory *emu.StorageMemory) {
			regFile.WriteReg(1, bufferBase)
			regFile.WriteReg(2, copyDst)
			regFile.WriteReg(3, 8)
			_ = memory.LoadBytes(bufferBase, []byte{1, 2, 3, 4, 5, 6, 7, 8})
		},
		Program: BuildProgram(
			// loop
			EncodeLDRB(4, 1, 0),
			EncodeSTRB(4, 2, 0),
			EncodeADDReg(0, 0, 4, false),
			EncodeADDImm(1, 1, 1, false),
			EncodeADDImm(2, 2, 1, false),
			EncodeSUBImm(3, 3, 1, true),
			EncodeBCond(insts.CondNE, -24),

			EncodeSWI(0),
		),
		ExpectedExit: 36,
	}
}
