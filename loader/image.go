package loader

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Format names a program image format.
type Format string

// Supported image formats.
const (
	FormatAuto   Format = ""
	FormatELF    Format = "elf"
	FormatBinary Format = "bin"
	FormatHex    Format = "hex"
)

// ParseFormat converts a user supplied format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatAuto, FormatELF, FormatBinary, FormatHex:
		return f, nil
	default:
		return FormatAuto, fmt.Errorf("unknown image format %q", s)
	}
}

// LoadFile loads an image in the given format. FormatAuto picks the format
// from the file extension: .elf and no extension are ELF, .bin is a raw
// binary, and .hex or .x is a hex text image. Raw and hex images are placed
// at base, which is also their entry point.
func LoadFile(path string, format Format, base uint32) (*Program, error) {
	if format == FormatAuto {
		format = formatFromExtension(path)
	}

	switch format {
	case FormatBinary:
		return LoadBinary(path, base)
	case FormatHex:
		return LoadHex(path, base)
	default:
		return Load(path)
	}
}

func formatFromExtension(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".bin", ".img":
		return FormatBinary
	case ".hex", ".x":
		return FormatHex
	default:
		return FormatELF
	}
}

// LoadBinary reads a raw little-endian image to be placed at base.
func LoadBinary(path string, base uint32) (*Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read binary image: %w", err)
	}

	return newFlatProgram(base, data)
}

// LoadHex reads a hex text image to be placed at base.
func LoadHex(path string, base uint32) (*Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open hex image: %w", err)
	}
	defer func() { _ = f.Close() }()

	return ParseHex(f, base)
}

// ParseHex parses a hex text image: one 32-bit instruction word per line,
// with an optional 0x prefix. Blank lines and text after '#' or "//" are
// ignored. Consecutive words are placed 4 bytes apart starting at base.
func ParseHex(r io.Reader, base uint32) (*Program, error) {
	var data []byte

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++

		line := scanner.Text()
		if i := strings.Index(line, "#"); i >= 0 {
			line = line[:i]
		}
		if i := strings.Index(line, "//"); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		line = strings.TrimPrefix(strings.TrimPrefix(line, "0x"), "0X")
		word, err := strconv.ParseUint(line, 16, 32)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid instruction word %q", lineNo, line)
		}

		data = binary.LittleEndian.AppendUint32(data, uint32(word))
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read hex image: %w", err)
	}

	return newFlatProgram(base, data)
}

func newFlatProgram(base uint32, data []byte) (*Program, error) {
	if uint64(base)+uint64(len(data)) > 1<<32 {
		return nil, fmt.Errorf("image of %d bytes at 0x%08X exceeds the 32-bit address space",
			len(data), base)
	}

	prog := &Program{EntryPoint: base}
	if len(data) > 0 {
		prog.Segments = []Segment{{
			VirtAddr: base,
			Data:     data,
			MemSize:  uint32(len(data)),
			Flags:    SegmentFlagRead | SegmentFlagWrite | SegmentFlagExecute,
		}}
	}

	return prog, nil
}
