package benchmarks

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/armsim/emu"
)

// Layout of a benchmark run.
const (
	// ProgramBase is where every benchmark program is loaded.
	ProgramBase = 0x1000

	// StackTop is the initial stack pointer.
	StackTop = 0x10000

	// DefaultMemorySize is the memory given to each benchmark.
	DefaultMemorySize = 0x20000

	// DefaultMaxInstructions bounds a runaway benchmark.
	DefaultMaxInstructions = 1_000_000
)

// BenchmarkResult holds the results for a single benchmark run.
type BenchmarkResult struct {
	// Name identifies the benchmark
	Name string `json:"name"`

	// Description explains what the benchmark exercises
	Description string `json:"description"`

	// Instructions is the number of instructions committed, including
	// condition-failed ones and the final SWI.
	Instructions uint64 `json:"instructions"`

	// Skipped is the number of instructions whose condition failed.
	Skipped uint64 `json:"skipped"`

	// ExitCode is R0 when the program halted.
	ExitCode uint32 `json:"exit_code"`

	// ExpectedExit is the value R0 should hold.
	ExpectedExit uint32 `json:"expected_exit"`

	// Passed is true when the program halted with the expected R0.
	Passed bool `json:"passed"`

	// Error holds the run error, if any.
	Error string `json:"error,omitempty"`

	// WallTime is the actual time taken to run the program
	WallTime time.Duration `json:"wall_time_ns"`
}

// MIPS returns the emulation speed in millions of instructions per second.
func (r BenchmarkResult) MIPS() float64 {
	if r.WallTime <= 0 {
		return 0
	}
	return float64(r.Instructions) / r.WallTime.Seconds() / 1e6
}

// Benchmark defines a single benchmark program.
type Benchmark struct {
	// Name identifies the benchmark
	Name string

	// Description explains what the benchmark exercises
	Description string

	// Setup prepares registers and memory before the run. It may be nil.
	Setup func(regFile *emu.RegFile, memory *emu.StorageMemory)

	// Program is the ARM machine code, loaded at ProgramBase.
	Program []byte

	// ExpectedExit is the value of R0 when the program halts.
	ExpectedExit uint32
}

// HarnessConfig configures the benchmark harness.
type HarnessConfig struct {
	// MemorySize is the memory capacity of each run.
	MemorySize uint64

	// MaxInstructions bounds each run.
	MaxInstructions uint64

	// Output is where to write results (default: os.Stdout)
	Output io.Writer

	// Logger receives the emulator logs. Defaults to a logger that only
	// reports errors.
	Logger *logrus.Logger

	// Verbose enables detailed output
	Verbose bool
}

// DefaultConfig returns a default harness configuration.
func DefaultConfig() HarnessConfig {
	return HarnessConfig{
		MemorySize:      DefaultMemorySize,
		MaxInstructions: DefaultMaxInstructions,
		Output:          os.Stdout,
	}
}

// Harness runs benchmarks and reports results.
type Harness struct {
	config     HarnessConfig
	benchmarks []Benchmark
}

// NewHarness creates a new benchmark harness.
func NewHarness(config HarnessConfig) *Harness {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	if config.MemorySize == 0 {
		config.MemorySize = DefaultMemorySize
	}
	if config.Logger == nil {
		config.Logger = logrus.New()
		config.Logger.SetOutput(os.Stderr)
		config.Logger.SetLevel(logrus.ErrorLevel)
	}
	return &Harness{
		config:     config,
		benchmarks: []Benchmark{},
	}
}

// AddBenchmark adds a benchmark to the harness.
func (h *Harness) AddBenchmark(b Benchmark) {
	h.benchmarks = append(h.benchmarks, b)
}

// AddBenchmarks adds multiple benchmarks to the harness.
func (h *Harness) AddBenchmarks(benchmarks []Benchmark) {
	h.benchmarks = append(h.benchmarks, benchmarks...)
}

// RunAll executes all benchmarks and returns results.
func (h *Harness) RunAll() []BenchmarkResult {
	results := make([]BenchmarkResult, 0, len(h.benchmarks))

	for _, bench := range h.benchmarks {
		result := h.runBenchmark(bench)
		if h.config.Verbose {
			h.config.Logger.WithFields(logrus.Fields{
				"benchmark":    result.Name,
				"instructions": result.Instructions,
				"passed":       result.Passed,
			}).Info("benchmark finished")
		}
		results = append(results, result)
	}

	return results
}

// NewEmulator builds an emulator with the benchmark loaded and set up, ready
// to run.
func (h *Harness) NewEmulator(bench Benchmark) (*emu.Emulator, error) {
	memory := emu.NewMemory(h.config.MemorySize)
	if err := memory.LoadBytes(ProgramBase, bench.Program); err != nil {
		return nil, fmt.Errorf("loading %s: %w", bench.Name, err)
	}

	e := emu.NewEmulator(
		emu.WithMemory(memory),
		emu.WithLogger(h.config.Logger),
		emu.WithStackPointer(StackTop),
		emu.WithMaxInstructions(h.config.MaxInstructions),
	)
	e.RegFile().SetPC(ProgramBase)

	if bench.Setup != nil {
		bench.Setup(e.RegFile(), memory)
	}

	return e, nil
}

// runBenchmark executes a single benchmark.
func (h *Harness) runBenchmark(bench Benchmark) BenchmarkResult {
	result := BenchmarkResult{
		Name:         bench.Name,
		Description:  bench.Description,
		ExpectedExit: bench.ExpectedExit,
	}

	e, err := h.NewEmulator(bench)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	start := time.Now()
	for {
		step := e.Step()
		if step.Skipped {
			result.Skipped++
		}
		if step.Err != nil {
			err = step.Err
			break
		}
		if step.Halted {
			break
		}
	}
	result.WallTime = time.Since(start)

	result.Instructions = e.InstructionCount()
	result.ExitCode = e.RegFile().ReadReg(0)
	if err != nil {
		result.Error = err.Error()
	}
	result.Passed = err == nil && result.ExitCode == bench.ExpectedExit

	return result
}

// PrintResults outputs benchmark results in a human-readable format.
func (h *Harness) PrintResults(results []BenchmarkResult) {
	out := h.config.Output
	_, _ = fmt.Fprintln(out, "=== armsim Benchmark Results ===")
	_, _ = fmt.Fprintln(out, "")

	passed := 0
	for _, r := range results {
		status := "PASS"
		if r.Passed {
			passed++
		} else {
			status = "FAIL"
		}

		_, _ = fmt.Fprintf(out, "Benchmark: %s [%s]\n", r.Name, status)
		_, _ = fmt.Fprintf(out, "  Description:  %s\n", r.Description)
		_, _ = fmt.Fprintf(out, "  R0:           %d (expected %d)\n", r.ExitCode, r.ExpectedExit)
		_, _ = fmt.Fprintf(out, "  Instructions: %d\n", r.Instructions)
		_, _ = fmt.Fprintf(out, "  Skipped:      %d\n", r.Skipped)
		if r.Error != "" {
			_, _ = fmt.Fprintf(out, "  Error:        %s\n", r.Error)
		}
		if h.config.Verbose {
			_, _ = fmt.Fprintf(out, "  Wall Time:    %v\n", r.WallTime)
			_, _ = fmt.Fprintf(out, "  MIPS:         %.2f\n", r.MIPS())
		}
		_, _ = fmt.Fprintln(out, "")
	}

	_, _ = fmt.Fprintf(out, "%d/%d benchmarks passed\n", passed, len(results))
}

// PrintCSV outputs benchmark results in CSV format for easy comparison.
func (h *Harness) PrintCSV(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output,
		"name,instructions,skipped,exit_code,expected_exit,passed,wall_time_ns")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "%s,%d,%d,%d,%d,%t,%d\n",
			r.Name,
			r.Instructions,
			r.Skipped,
			r.ExitCode,
			r.ExpectedExit,
			r.Passed,
			r.WallTime.Nanoseconds(),
		)
	}
}

// PrintJSON outputs benchmark results as an indented JSON array.
func (h *Harness) PrintJSON(results []BenchmarkResult) error {
	enc := json.NewEncoder(h.config.Output)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}
