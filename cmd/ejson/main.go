package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	wasmejson "github.com/wippyai/wasm-ejson"
	"github.com/wippyai/wasm-ejson/arena"
	"github.com/wippyai/wasm-ejson/codec"
	"github.com/wippyai/wasm-ejson/evaluator"
	"github.com/wippyai/wasm-ejson/internal/config"
	"github.com/wippyai/wasm-ejson/internal/snapshot"
	"github.com/wippyai/wasm-ejson/internal/source"
	"github.com/wippyai/wasm-ejson/value"
)

// logger is replaced by setup once the configuration is known.
var logger = zap.NewNop()

type command struct {
	usage string
	run   func(ctx context.Context, args []string) error
}

var commands = map[string]command{
	"encode": {
		usage: "encode [flags] -o out.ejar <doc>...   encode documents into an arena snapshot",
		run:   runEncode,
	},
	"decode": {
		usage: "decode [flags] <snapshot> <addr>...   decode records back into documents",
		run:   runDecode,
	},
	"compare": {
		usage: "compare [flags] --wasm <module> <a> <b>   compare two documents with a wasm evaluator",
		run:   runCompare,
	},
	"dump": {
		usage: "dump [flags] <snapshot> [addr]...   list the records of a snapshot",
		run:   runDump,
	},
	"inspect": {
		usage: "inspect [flags] <snapshot> [addr]   browse records interactively",
		run:   runInspect,
	},
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cmd, ok := commands[os.Args[1]]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
		usage()
		os.Exit(2)
	}

	if err := cmd.run(context.Background(), os.Args[2:]); err != nil {
		if err == pflag.ErrHelp {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(os.Stderr, "Usage:")
	for _, name := range names {
		fmt.Fprintf(os.Stderr, "  ejson %s\n", commands[name].usage)
	}
	fmt.Fprintln(os.Stderr, "\nRun 'ejson <command> -h' for the flags of a command.")
}

func newFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	config.RegisterFlags(fs)
	return fs
}

// setup parses args, loads the configuration and installs the configured
// logger in every package that logs. The returned func flushes the logger.
func setup(fs *pflag.FlagSet, args []string) (*config.Config, func(), error) {
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	cfg, err := config.FromFlags(fs)
	if err != nil {
		return nil, nil, err
	}
	l, err := cfg.BuildLogger()
	if err != nil {
		return nil, nil, fmt.Errorf("build logger: %w", err)
	}
	arena.SetLogger(l.Named("arena"))
	codec.SetLogger(l.Named("codec"))
	evaluator.SetLogger(l.Named("evaluator"))
	logger = l.Named("ejson")
	return cfg, func() { _ = l.Sync() }, nil
}

// readDocuments reads every document in path. kindName overrides the kind
// derived from the file extension; "-" reads stdin and needs kindName.
func readDocuments(path, kindName string, opts source.Options) ([]value.Value, error) {
	var (
		kind source.Kind
		err  error
	)
	switch {
	case kindName != "":
		kind, err = source.ParseKind(kindName)
	case path == "-":
		return nil, fmt.Errorf("reading stdin needs --kind")
	default:
		kind, err = source.KindFromPath(path)
	}
	if err != nil {
		return nil, err
	}

	var data []byte
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	vs, err := source.Decode(data, kind, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return vs, nil
}

// loadSnapshot restores the arena saved at path.
func loadSnapshot(path string, cfg *config.Config) (*arena.Arena, codec.Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	a, format, err := snapshot.Load(f, cfg.ArenaOptions())
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", path, err)
	}
	return a, format, nil
}

// parseAddrs accepts decimal or 0x-prefixed hex addresses.
func parseAddrs(args []string) ([]wasmejson.Address, error) {
	addrs := make([]wasmejson.Address, len(args))
	for i, s := range args {
		n, err := strconv.ParseUint(s, 0, 32)
		if err != nil {
			return nil, fmt.Errorf("bad address %q: %w", s, err)
		}
		addrs[i] = wasmejson.Address(n)
	}
	return addrs, nil
}
