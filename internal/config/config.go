// Package config loads the YAML configuration shared by the ejson commands.
//
// A file is optional; Default supplies every value. Command-line flags
// registered with RegisterFlags override file values when they are set
// explicitly.
package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/wasm-ejson/arena"
	"github.com/wippyai/wasm-ejson/codec"
	"github.com/wippyai/wasm-ejson/errors"
	"github.com/wippyai/wasm-ejson/evaluator"
)

// Config is the top-level configuration.
type Config struct {
	// Format is the tag domain: "baseline" or "extended".
	Format string `yaml:"format"`

	Arena     ArenaConfig     `yaml:"arena"`
	Decode    DecodeConfig    `yaml:"decode"`
	Evaluator EvaluatorConfig `yaml:"evaluator"`
	Log       LogConfig       `yaml:"log"`
}

// ArenaConfig sizes heap arenas.
type ArenaConfig struct {
	Base            uint32 `yaml:"base"`
	InitialCapacity uint32 `yaml:"initial_capacity"`
	// MaxCapacity bounds growth. 0 means the 32-bit address space.
	MaxCapacity uint32 `yaml:"max_capacity"`
	// Growth is "fixed" or "double".
	Growth string `yaml:"growth"`
}

// DecodeConfig tunes decoding.
type DecodeConfig struct {
	MaxDepth int `yaml:"max_depth"`
	// Workers bounds parallel decodes. 0 means one goroutine per value.
	Workers int `yaml:"workers"`
}

// EvaluatorConfig sizes the memory shared with a wasm evaluator.
type EvaluatorConfig struct {
	MemoryPages    uint32 `yaml:"memory_pages"`
	MaxMemoryPages uint32 `yaml:"max_memory_pages"`
	CompareExport  string `yaml:"compare_export"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Format: codec.FormatExtended.String(),
		Arena: ArenaConfig{
			InitialCapacity: arena.DefaultInitialCapacity,
			MaxCapacity:     16 << 20,
			Growth:          arena.GrowthDouble.String(),
		},
		Decode: DecodeConfig{
			MaxDepth: codec.DefaultMaxDepth,
			Workers:  8,
		},
		Evaluator: EvaluatorConfig{
			MemoryPages:    1,
			MaxMemoryPages: 256,
			CompareExport:  evaluator.DefaultCompareExport,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// LoadFile reads path over the defaults and validates the result.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindNotFound, err, "read "+path)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result. Unknown
// keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidData, err, "parse config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks enumerations and ranges.
func (c *Config) Validate() error {
	if _, err := codec.ParseFormat(c.Format); err != nil {
		return err
	}
	if _, err := parseGrowth(c.Arena.Growth); err != nil {
		return err
	}
	if c.Arena.MaxCapacity != 0 && c.Arena.MaxCapacity < c.Arena.Base {
		return invalid("arena.max_capacity %d is below arena.base %d", c.Arena.MaxCapacity, c.Arena.Base)
	}
	if c.Decode.MaxDepth < 0 {
		return invalid("decode.max_depth must not be negative")
	}
	if c.Decode.Workers < 0 {
		return invalid("decode.workers must not be negative")
	}
	if c.Evaluator.MaxMemoryPages != 0 && c.Evaluator.MaxMemoryPages < c.Evaluator.MemoryPages {
		return invalid("evaluator.max_memory_pages %d is below evaluator.memory_pages %d",
			c.Evaluator.MaxMemoryPages, c.Evaluator.MemoryPages)
	}
	if _, err := zap.ParseAtomicLevel(c.Log.Level); err != nil {
		return invalid("log.level: %v", err)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return errors.InvalidInput(errors.PhaseConfig, fmt.Sprintf(format, args...))
}

func parseGrowth(s string) (arena.GrowthPolicy, error) {
	switch strings.ToLower(s) {
	case "", "double":
		return arena.GrowthDouble, nil
	case "fixed":
		return arena.GrowthFixed, nil
	}
	return 0, invalid("unknown arena growth %q", s)
}

// CodecFormat returns the configured tag domain.
func (c *Config) CodecFormat() codec.Format {
	f, _ := codec.ParseFormat(c.Format)
	return f
}

// ArenaOptions returns options for heap arenas.
func (c *Config) ArenaOptions() arena.Options {
	g, _ := parseGrowth(c.Arena.Growth)
	return arena.Options{
		Base:            c.Arena.Base,
		InitialCapacity: c.Arena.InitialCapacity,
		MaxCapacity:     c.Arena.MaxCapacity,
		Growth:          g,
	}
}

// DecoderOptions returns options for codec.NewDecoder.
func (c *Config) DecoderOptions() []codec.DecoderOption {
	return []codec.DecoderOption{codec.WithMaxDepth(c.Decode.MaxDepth)}
}

// EvaluatorConfig returns the configuration for evaluator.New.
func (c *Config) EvaluatorConfig() evaluator.Config {
	g, _ := parseGrowth(c.Arena.Growth)
	depth := c.Decode.MaxDepth
	if depth == 0 {
		depth = -1 // unlimited; evaluator treats 0 as its default
	}
	return evaluator.Config{
		Format:         c.CodecFormat(),
		MemoryPages:    c.Evaluator.MemoryPages,
		MaxMemoryPages: c.Evaluator.MaxMemoryPages,
		Base:           c.Arena.Base,
		Growth:         g,
		CompareExport:  c.Evaluator.CompareExport,
		MaxDepth:       depth,
	}
}

// BuildLogger creates the zap logger described by the log section.
func (c *Config) BuildLogger() (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(c.Log.Level)
	if err != nil {
		return nil, invalid("log.level: %v", err)
	}
	var zc zap.Config
	if c.Log.Development {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}
	zc.Level = level
	return zc.Build()
}
