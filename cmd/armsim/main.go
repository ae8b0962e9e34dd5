// Package main provides the entry point for armsim.
// armsim is a functional 32-bit ARM instruction set simulator.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime/pprof"

	"github.com/rs/xid"
	"github.com/sirupsen/logrus"

	"github.com/sarchlab/armsim/config"
	"github.com/sarchlab/armsim/emu"
	"github.com/sarchlab/armsim/loader"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type options struct {
	configPath string
	verbose    bool
	maxInstr   uint64
	format     string
	base       int64
	cpuProfile string
	noGating   bool
}

func parseFlags(args []string, stderr io.Writer) (*options, []string, error) {
	opts := &options{}

	fs := flag.NewFlagSet("armsim", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.configPath, "config", "", "Path to simulator configuration (JSON or YAML)")
	fs.BoolVar(&opts.verbose, "v", false, "Verbose output (debug logging and load summary)")
	fs.Uint64Var(&opts.maxInstr, "max", 0, "Max instructions to execute (overrides config, 0 = config value)")
	fs.StringVar(&opts.format, "format", "", "Image format: elf, bin or hex (default: by extension)")
	fs.Int64Var(&opts.base, "base", -1, "Load address for bin and hex images (overrides config)")
	fs.StringVar(&opts.cpuProfile, "cpuprofile", "", "Write a CPU profile to file")
	fs.BoolVar(&opts.noGating, "no-gating", false, "Execute every instruction regardless of its condition")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: armsim [options] <program>\n")
		fmt.Fprintf(stderr, "\nOptions:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return nil, nil, errors.New("no program given")
	}

	return opts, fs.Args(), nil
}

func loadConfig(opts *options) (*config.SimConfig, error) {
	cfg := config.DefaultSimConfig()
	if opts.configPath != "" {
		var err error
		cfg, err = config.LoadConfig(opts.configPath)
		if err != nil {
			return nil, err
		}
	}

	if opts.maxInstr != 0 {
		cfg.MaxInstructions = opts.maxInstr
	}
	if opts.base >= 0 {
		cfg.LoadAddress = uint32(opts.base)
	}
	if opts.verbose {
		cfg.LogLevel = logrus.DebugLevel.String()
	}
	if opts.noGating {
		cfg.ConditionGating = false
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// run executes the simulator and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	opts, rest, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading config: %v\n", err)
		return 1
	}

	logger := logrus.New()
	logger.SetOutput(stderr)
	logger.SetLevel(cfg.Level())

	if opts.cpuProfile != "" {
		f, err := os.Create(opts.cpuProfile)
		if err != nil {
			fmt.Fprintf(stderr, "Error creating CPU profile: %v\n", err)
			return 1
		}
		defer func() { _ = f.Close() }()

		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(stderr, "Error starting CPU profile: %v\n", err)
			return 1
		}
		defer pprof.StopCPUProfile()
	}

	programPath := rest[0]

	format, err := loader.ParseFormat(opts.format)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	prog, err := loader.LoadFile(programPath, format, cfg.LoadAddress)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading program: %v\n", err)
		return 1
	}

	if opts.verbose {
		fmt.Fprintf(stdout, "Loaded: %s\n", programPath)
		fmt.Fprintf(stdout, "Entry point: 0x%08X\n", prog.EntryPoint)
		fmt.Fprintf(stdout, "Segments: %d\n", len(prog.Segments))
	}

	return runEmulation(prog, cfg, logger, stdout, stderr)
}

// runEmulation runs the program in functional emulation mode and prints the
// final register dump.
func runEmulation(
	prog *loader.Program,
	cfg *config.SimConfig,
	logger *logrus.Logger,
	stdout, stderr io.Writer,
) int {
	memory := emu.NewMemory(cfg.MemorySize)
	if err := prog.LoadInto(memory); err != nil {
		fmt.Fprintf(stderr, "Error loading program: %v\n", err)
		return 1
	}

	emulator := emu.NewEmulator(
		emu.WithMemory(memory),
		emu.WithLogger(logger),
		emu.WithStackPointer(cfg.InitialSP()),
		emu.WithMaxInstructions(cfg.MaxInstructions),
		emu.WithConditionGating(cfg.ConditionGating),
	)
	emulator.RegFile().SetPC(prog.EntryPoint)

	runLog := logger.WithField("run", xid.New().String())
	runLog.WithField("entry", fmt.Sprintf("0x%08X", prog.EntryPoint)).Info("run started")

	err := emulator.Run()

	runLog.WithField("instructions", emulator.InstructionCount()).Info("run finished")

	fmt.Fprintf(stdout, "%s", emulator.RegFile())
	fmt.Fprintf(stdout, "Instructions executed: %d\n", emulator.InstructionCount())

	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	return 0
}
