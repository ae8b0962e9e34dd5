// Package emu provides functional 32-bit ARM emulation.
package emu

// InterruptResult represents the outcome of a software interrupt.
type InterruptResult struct {
	// Halted is true if the interrupt stops the simulation.
	Halted bool
}

// InterruptHandler is the interface for handling SWI instructions.
type InterruptHandler interface {
	// Handle services the software interrupt with the given 24-bit comment
	// field. regs is the next state of the current cycle and may be
	// modified.
	Handle(comment uint32, regs *RegFile) InterruptResult
}

// HaltHandler halts the simulation on every software interrupt without
// touching registers or flags.
type HaltHandler struct{}

// NewHaltHandler creates the default interrupt handler.
func NewHaltHandler() *HaltHandler {
	return &HaltHandler{}
}

// Handle halts.
func (h *HaltHandler) Handle(comment uint32, regs *RegFile) InterruptResult {
	return InterruptResult{Halted: true}
}
