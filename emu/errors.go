package emu

import "errors"

// Errors reported through StepResult.Err. Callers match them with errors.Is;
// the wrapped message carries the PC, instruction word or address.
var (
	// ErrUnimplementedInstruction is reported for words outside every
	// supported instruction family.
	ErrUnimplementedInstruction = errors.New("unimplemented instruction")

	// ErrUnalignedAccess is reported for word accesses at addresses that are
	// not a multiple of 4.
	ErrUnalignedAccess = errors.New("unaligned memory access")

	// ErrOutOfBounds is reported for accesses beyond the end of memory.
	ErrOutOfBounds = errors.New("memory access out of bounds")

	// ErrMaxInstructions is reported once the configured instruction limit
	// has been executed.
	ErrMaxInstructions = errors.New("max instructions reached")
)
