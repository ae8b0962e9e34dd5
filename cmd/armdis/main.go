// Command armdis prints the instructions of a program image as armsim
// decodes them.
//
// Usage:
//
//	armdis [options] <program>
//
// Every executable segment is listed one word per line as address, raw word
// and assembler text. Words outside the supported families print as
// UNDEFINED.
package main

import (
	"encoding/binary"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/sarchlab/armsim/insts"
	"github.com/sarchlab/armsim/loader"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run disassembles the program named in args and returns the exit code.
func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("armdis", flag.ContinueOnError)
	fs.SetOutput(stderr)
	format := fs.String("format", "", "Image format: elf, bin or hex (default: by extension)")
	base := fs.Uint("base", 0, "Load address for bin and hex images")
	stats := fs.Bool("stats", false, "Print a per-family instruction count")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: armdis [options] <program>\n")
		fmt.Fprintf(stderr, "\nOptions:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return 1
	}

	f, err := loader.ParseFormat(*format)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	prog, err := loader.LoadFile(fs.Arg(0), f, uint32(*base))
	if err != nil {
		fmt.Fprintf(stderr, "Error loading program: %v\n", err)
		return 1
	}

	counts := disassemble(prog, stdout)

	if *stats {
		fmt.Fprintln(stdout, "")
		for family := insts.FamilyUnknown; family <= insts.FamilySoftwareInterrupt; family++ {
			if counts[family] > 0 {
				fmt.Fprintf(stdout, "%-22s %d\n", family.String()+":", counts[family])
			}
		}
	}

	return 0
}

// disassemble writes every executable word of prog and returns the number
// of words seen per family.
func disassemble(prog *loader.Program, w io.Writer) map[insts.Family]int {
	decoder := insts.NewDecoder()
	counts := map[insts.Family]int{}

	for _, seg := range prog.Segments {
		if seg.Flags&loader.SegmentFlagExecute == 0 {
			continue
		}

		for off := 0; off+4 <= len(seg.Data); off += 4 {
			word := binary.LittleEndian.Uint32(seg.Data[off:])
			inst := decoder.Decode(word)
			counts[inst.Family]++

			fmt.Fprintf(w, "0x%08X: %08X  %s\n", seg.VirtAddr+uint32(off), word, inst)
		}
	}

	return counts
}
