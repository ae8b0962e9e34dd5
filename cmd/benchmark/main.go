// Command benchmark runs the armsim benchmark harness.
//
// Usage:
//
//	go run ./cmd/benchmark [flags]
//
// Flags:
//
//	-csv   Output results in CSV format (default: human-readable)
//	-json  Output results as JSON
//	-core  Run only the core benchmarks
//	-max   Instruction limit per benchmark
//	-v     Verbose output (wall time and emulation speed)
//
// Example:
//
//	# Run all benchmarks with human-readable output
//	go run ./cmd/benchmark
//
//	# Output CSV for spreadsheet comparison
//	go run ./cmd/benchmark -csv > results.csv
//
// The exit status is 1 when any benchmark does not halt with its expected
// R0 value.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/armsim/benchmarks"
)

func main() {
	csvOutput := flag.Bool("csv", false, "Output results in CSV format")
	jsonOutput := flag.Bool("json", false, "Output results as JSON")
	coreOnly := flag.Bool("core", false, "Run only the core benchmarks")
	maxInstr := flag.Uint64("max", benchmarks.DefaultMaxInstructions, "Instruction limit per benchmark")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(logrus.ErrorLevel)
	if *verbose {
		logger.SetLevel(logrus.InfoLevel)
	}

	config := benchmarks.DefaultConfig()
	config.MaxInstructions = *maxInstr
	config.Output = os.Stdout
	config.Logger = logger
	config.Verbose = *verbose

	harness := benchmarks.NewHarness(config)
	if *coreOnly {
		harness.AddBenchmarks(benchmarks.GetCoreBenchmarks())
	} else {
		harness.AddBenchmarks(benchmarks.GetMicrobenchmarks())
	}

	results := harness.RunAll()

	switch {
	case *jsonOutput:
		if err := harness.PrintJSON(results); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing JSON: %v\n", err)
			os.Exit(1)
		}
	case *csvOutput:
		harness.PrintCSV(results)
	default:
		harness.PrintResults(results)
	}

	for _, r := range results {
		if !r.Passed {
			os.Exit(1)
		}
	}
}
