// Package main provides the entry point for armsim.
// armsim is a functional 32-bit ARM instruction set simulator built on Akita
// storage.
//
// For the full CLI, use: go run ./cmd/armsim
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("armsim - 32-bit ARM Functional Simulator")
	fmt.Println("Built on Akita simulation framework")
	fmt.Println("")
	fmt.Println("Usage: armsim [options] <program>")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -config      Path to simulator configuration (JSON or YAML)")
	fmt.Println("  -format      Image format: elf, bin or hex")
	fmt.Println("  -base        Load address for bin and hex images")
	fmt.Println("  -max         Max instructions to execute")
	fmt.Println("  -no-gating   Execute every instruction regardless of its condition")
	fmt.Println("  -v           Verbose output")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/armsim' for the full CLI.")
	fmt.Println("Run 'go run ./cmd/armdis' to disassemble a program.")
	fmt.Println("Run 'go run ./cmd/benchmark' for the benchmark suite.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/armsim' instead.")
	}
}
