package config

import (
	"github.com/spf13/pflag"
)

// Flag names registered by RegisterFlags.
const (
	FlagConfig      = "config"
	FlagFormat      = "format"
	FlagBase        = "base"
	FlagCapacity    = "capacity"
	FlagMaxCapacity = "max-capacity"
	FlagGrowth      = "growth"
	FlagMaxDepth    = "max-depth"
	FlagWorkers     = "workers"
	FlagLogLevel    = "log-level"
	FlagDevelopment = "dev"
)

// RegisterFlags adds the configuration flags to fs with defaults taken
// from Default.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.StringP(FlagConfig, "c", "", "path to a YAML configuration file")
	fs.StringP(FlagFormat, "f", d.Format, "tag domain: baseline or extended")
	fs.Uint32(FlagBase, d.Arena.Base, "first arena address")
	fs.Uint32(FlagCapacity, d.Arena.InitialCapacity, "initial arena capacity in bytes")
	fs.Uint32(FlagMaxCapacity, d.Arena.MaxCapacity, "maximum arena capacity in bytes (0 for no limit)")
	fs.String(FlagGrowth, d.Arena.Growth, "arena growth policy: fixed or double")
	fs.Int(FlagMaxDepth, d.Decode.MaxDepth, "maximum decode nesting (0 for no limit)")
	fs.Int(FlagWorkers, d.Decode.Workers, "parallel decode workers")
	fs.String(FlagLogLevel, d.Log.Level, "log level")
	fs.Bool(FlagDevelopment, d.Log.Development, "human-readable development logging")
}

// FromFlags loads the file named by --config, if any, then applies every
// flag the user set explicitly and validates the result.
func FromFlags(fs *pflag.FlagSet) (*Config, error) {
	cfg := Default()
	if path, _ := fs.GetString(FlagConfig); path != "" {
		loaded, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if err := cfg.ApplyFlags(fs); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyFlags copies explicitly set flags into c.
func (c *Config) ApplyFlags(fs *pflag.FlagSet) error {
	var err error
	fs.Visit(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		switch f.Name {
		case FlagFormat:
			c.Format, err = fs.GetString(f.Name)
		case FlagBase:
			c.Arena.Base, err = fs.GetUint32(f.Name)
		case FlagCapacity:
			c.Arena.InitialCapacity, err = fs.GetUint32(f.Name)
		case FlagMaxCapacity:
			c.Arena.MaxCapacity, err = fs.GetUint32(f.Name)
		case FlagGrowth:
			c.Arena.Growth, err = fs.GetString(f.Name)
		case FlagMaxDepth:
			c.Decode.MaxDepth, err = fs.GetInt(f.Name)
		case FlagWorkers:
			c.Decode.Workers, err = fs.GetInt(f.Name)
		case FlagLogLevel:
			c.Log.Level, err = fs.GetString(f.Name)
		case FlagDevelopment:
			c.Log.Development, err = fs.GetBool(f.Name)
		}
	})
	return err
}
