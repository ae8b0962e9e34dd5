// Package emu provides functional 32-bit ARM emulation.
package emu

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/armsim/insts"
)

// StepResult represents the result of executing a single instruction.
type StepResult struct {
	// Halted is true if the program stopped via a software interrupt.
	Halted bool

	// Skipped is true if the instruction's condition failed and it only
	// advanced the PC.
	Skipped bool

	// Err is set if an error occurred during execution.
	Err error
}

// Emulator executes 32-bit ARM instructions functionally.
//
// Each cycle reads only the current state and writes only a copy of it (the
// next state). The copy replaces the current state once the cycle completes.
type Emulator struct {
	current          RegFile
	memory           Memory
	decoder          *insts.Decoder
	interruptHandler InterruptHandler
	logger           *logrus.Logger

	// Execution units
	alu        *ALU
	mul        *MultiplyUnit
	lsu        *LoadStoreUnit
	branchUnit *BranchUnit

	// Execution state
	running          bool
	conditionGating  bool
	instructionCount uint64
	maxInstructions  uint64 // 0 means no limit
}

// EmulatorOption is a functional option for configuring the Emulator.
type EmulatorOption func(*Emulator)

// WithMemory sets the memory the core fetches from and transfers to.
func WithMemory(memory Memory) EmulatorOption {
	return func(e *Emulator) {
		e.memory = memory
	}
}

// WithInterruptHandler sets a custom software interrupt handler.
func WithInterruptHandler(handler InterruptHandler) EmulatorOption {
	return func(e *Emulator) {
		e.interruptHandler = handler
	}
}

// WithLogger sets the logger used for execution tracing and faults.
func WithLogger(logger *logrus.Logger) EmulatorOption {
	return func(e *Emulator) {
		e.logger = logger
	}
}

// WithStackPointer sets the initial stack pointer value.
func WithStackPointer(sp uint32) EmulatorOption {
	return func(e *Emulator) {
		e.current.WriteReg(SP, sp)
	}
}

// WithMaxInstructions sets the maximum number of instructions to execute.
// A value of 0 means no limit.
func WithMaxInstructions(max uint64) EmulatorOption {
	return func(e *Emulator) {
		e.maxInstructions = max
	}
}

// WithConditionGating controls whether condition codes are honoured. When
// disabled every instruction executes as if its condition were AL.
func WithConditionGating(enabled bool) EmulatorOption {
	return func(e *Emulator) {
		e.conditionGating = enabled
	}
}

// NewEmulator creates a new ARM emulator.
func NewEmulator(opts ...EmulatorOption) *Emulator {
	e := &Emulator{
		decoder:         insts.NewDecoder(),
		running:         true,
		conditionGating: true,
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.memory == nil {
		e.memory = NewMemory(DefaultMemorySize)
	}
	if e.interruptHandler == nil {
		e.interruptHandler = NewHaltHandler()
	}
	if e.logger == nil {
		e.logger = logrus.New()
		e.logger.SetOutput(os.Stderr)
		e.logger.SetLevel(logrus.WarnLevel)
	}

	// Create execution units
	e.alu = NewALU()
	e.mul = NewMultiplyUnit()
	e.lsu = NewLoadStoreUnit(e.memory)
	e.branchUnit = NewBranchUnit()

	return e
}

// RegFile returns the current architectural state. Writes through the
// returned pointer are visible to the next Step.
func (e *Emulator) RegFile() *RegFile {
	return &e.current
}

// Memory returns the emulator's memory.
func (e *Emulator) Memory() Memory {
	return e.memory
}

// InstructionCount returns the number of instructions executed.
func (e *Emulator) InstructionCount() uint64 {
	return e.instructionCount
}

// Running reports whether the run flag is still set.
func (e *Emulator) Running() bool {
	return e.running
}

// SetRunning sets or clears the run flag.
func (e *Emulator) SetRunning(running bool) {
	e.running = running
}

// LoadProgram writes a little-endian program image at entry and points the
// PC at it. A trailing partial word is zero padded.
func (e *Emulator) LoadProgram(entry uint32, program []byte) error {
	for i := 0; i < len(program); i += 4 {
		var word uint32
		for j := 0; j < 4 && i+j < len(program); j++ {
			word |= uint32(program[i+j]) << (8 * j)
		}
		addr := entry + uint32(i)
		if err := e.memory.WriteWord(addr, word); err != nil {
			return fmt.Errorf("failed to load program at 0x%08X: %w", addr, err)
		}
	}

	e.current.SetPC(entry)
	e.running = true

	return nil
}

// Reset clears the architectural state and sets the run flag. Memory is
// kept.
func (e *Emulator) Reset() {
	e.current = RegFile{}
	e.instructionCount = 0
	e.running = true
}

// Step executes a single instruction.
// Returns a StepResult indicating whether execution should continue.
func (e *Emulator) Step() StepResult {
	if !e.running {
		return StepResult{Halted: true}
	}

	// Check instruction limit before executing
	if e.maxInstructions > 0 && e.instructionCount >= e.maxInstructions {
		return StepResult{
			Err: fmt.Errorf("%w (%d)", ErrMaxInstructions, e.maxInstructions),
		}
	}

	// 1. Fetch: Read the word at PC
	pc := e.current.PC()
	word, err := e.memory.ReadWord(pc)
	if err != nil {
		e.logger.WithFields(logrus.Fields{
			"pc": fmt.Sprintf("0x%08X", pc),
		}).Warn("instruction fetch failed")
		return StepResult{
			Err: fmt.Errorf("fetch at PC=0x%08X: %w", pc, err),
		}
	}

	// 2. Decode
	inst := e.decoder.Decode(word)

	e.logger.WithFields(logrus.Fields{
		"pc":     fmt.Sprintf("0x%08X", pc),
		"word":   fmt.Sprintf("0x%08X", word),
		"family": inst.Family,
		"op":     inst.Op,
	}).Debug("step")

	// 3. Execute against a copy, then commit it
	next, result := e.Execute(e.current, inst)
	e.current = next

	if result.Halted {
		e.running = false
	}

	e.instructionCount++

	return result
}

// Run executes instructions until the program halts or an error occurs.
// It returns nil when the program halted through a software interrupt.
func (e *Emulator) Run() error {
	for {
		result := e.Step()
		if result.Halted {
			return nil
		}
		if result.Err != nil {
			e.logger.WithError(result.Err).Error("emulation stopped")
			return result.Err
		}
	}
}

// Execute runs one decoded instruction located at cur.PC() and returns the
// resulting next state. cur is never modified. When an error is returned
// for a memory fault, the returned state equals cur.
func (e *Emulator) Execute(cur RegFile, inst *insts.Instruction) (RegFile, StepResult) {
	next := cur
	pc := cur.PC()

	if inst.Family == insts.FamilyUnknown {
		e.logger.WithFields(logrus.Fields{
			"pc":   fmt.Sprintf("0x%08X", pc),
			"word": fmt.Sprintf("0x%08X", inst.Raw),
		}).Warn("unimplemented instruction")

		next.SetPC(pc + 4)
		return next, StepResult{
			Err: fmt.Errorf("%w 0x%08X at PC=0x%08X", ErrUnimplementedInstruction, inst.Raw, pc),
		}
	}

	if e.conditionGating && !ConditionPassed(inst.Cond, cur.PSTATE()) {
		e.logger.WithFields(logrus.Fields{
			"pc":   fmt.Sprintf("0x%08X", pc),
			"cond": inst.Cond,
		}).Debug("skipped")

		next.SetPC(pc + 4)
		return next, StepResult{Skipped: true}
	}

	var (
		jumped bool
		result StepResult
	)

	switch inst.Family {
	case insts.FamilyDataProcessing:
		jumped = e.alu.Execute(inst, &cur, &next)
	case insts.FamilyMultiply:
		jumped = e.mul.Execute(inst, &cur, &next)
	case insts.FamilyBranch:
		e.branchUnit.Execute(inst, &cur, &next)
		jumped = true
	case insts.FamilySingleDataTransfer:
		var err error
		jumped, err = e.lsu.Execute(inst, &cur, &next)
		if err != nil {
			e.logger.WithFields(logrus.Fields{
				"pc":   fmt.Sprintf("0x%08X", pc),
				"inst": inst.String(),
			}).WithError(err).Warn("memory fault")
			return cur, StepResult{
				Err: fmt.Errorf("%s at PC=0x%08X: %w", inst.Op, pc, err),
			}
		}
	case insts.FamilySoftwareInterrupt:
		interrupt := e.interruptHandler.Handle(inst.Imm, &next)
		if interrupt.Halted {
			e.logger.WithFields(logrus.Fields{
				"pc":      fmt.Sprintf("0x%08X", pc),
				"comment": fmt.Sprintf("0x%06X", inst.Imm),
			}).Info("halted by software interrupt")
		}
		result.Halted = interrupt.Halted
	}

	// Advance PC by 4 (unless the instruction wrote it)
	if !jumped {
		next.SetPC(pc + 4)
	}

	return next, result
}
