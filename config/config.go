// Package config holds the simulator configuration.
package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"go.yaml.in/yaml/v3"
)

// DefaultMemorySize is the default memory capacity (1 MiB).
const DefaultMemorySize = 1 << 20

// SimConfig holds the settings used to build and run an emulator.
type SimConfig struct {
	// MemorySize is the memory capacity in bytes. Default: 1 MiB.
	MemorySize uint64 `json:"memory_size" yaml:"memory_size"`

	// LoadAddress is where raw and hex images are placed. ELF images carry
	// their own addresses. Default: 0.
	LoadAddress uint32 `json:"load_address" yaml:"load_address"`

	// StackPointer is the initial value of R13. When unset the stack starts
	// at the top of memory.
	StackPointer *uint32 `json:"stack_pointer,omitempty" yaml:"stack_pointer,omitempty"`

	// MaxInstructions bounds a run. Zero means no limit.
	MaxInstructions uint64 `json:"max_instructions" yaml:"max_instructions"`

	// LogLevel is a logrus level name. Default: "warn".
	LogLevel string `json:"log_level" yaml:"log_level"`

	// ConditionGating enables condition codes on every instruction.
	// Default: true.
	ConditionGating bool `json:"condition_gating" yaml:"condition_gating"`
}

// DefaultSimConfig returns a SimConfig with default values.
func DefaultSimConfig() *SimConfig {
	return &SimConfig{
		MemorySize:      DefaultMemorySize,
		LoadAddress:     0,
		StackPointer:    nil,
		MaxInstructions: 0,
		LogLevel:        "warn",
		ConditionGating: true,
	}
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// LoadConfig loads a SimConfig from a JSON file, or a YAML file when the
// extension is .yaml or .yml. Missing fields keep their defaults.
func LoadConfig(path string) (*SimConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultSimConfig()
	if isYAML(path) {
		err = yaml.Unmarshal(data, config)
	} else {
		err = json.Unmarshal(data, config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// SaveConfig writes a SimConfig to a file, using YAML for .yaml and .yml
// paths and JSON otherwise.
func (c *SimConfig) SaveConfig(path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks that the configuration is usable.
func (c *SimConfig) Validate() error {
	if c.MemorySize == 0 {
		return fmt.Errorf("memory_size must be > 0")
	}
	if c.MemorySize > 1<<32 {
		return fmt.Errorf("memory_size must not exceed 4 GiB")
	}
	if c.LoadAddress&0x3 != 0 {
		return fmt.Errorf("load_address must be word aligned")
	}
	if uint64(c.LoadAddress) >= c.MemorySize {
		return fmt.Errorf("load_address must be inside memory")
	}
	if c.StackPointer != nil && uint64(*c.StackPointer) > c.MemorySize {
		return fmt.Errorf("stack_pointer must not exceed memory_size")
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	return nil
}

// Level returns the configured log level, falling back to warn.
func (c *SimConfig) Level() logrus.Level {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.WarnLevel
	}
	return level
}

// SetStackPointer sets an explicit initial stack pointer.
func (c *SimConfig) SetStackPointer(sp uint32) {
	c.StackPointer = &sp
}

// InitialSP returns the initial stack pointer, defaulting to the top of
// memory. A full 4 GiB memory has no representable top, so the stack then
// starts at the last word.
func (c *SimConfig) InitialSP() uint32 {
	if c.StackPointer != nil {
		return *c.StackPointer
	}
	if c.MemorySize > math.MaxUint32 {
		return math.MaxUint32 &^ 0x3
	}
	return uint32(c.MemorySize)
}

// Clone returns a copy of the SimConfig.
func (c *SimConfig) Clone() *SimConfig {
	clone := *c
	if c.StackPointer != nil {
		sp := *c.StackPointer
		clone.StackPointer = &sp
	}
	return &clone
}
