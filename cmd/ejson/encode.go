package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/wasm-ejson/arena"
	"github.com/wippyai/wasm-ejson/codec"
	"github.com/wippyai/wasm-ejson/internal/snapshot"
	"github.com/wippyai/wasm-ejson/internal/source"
	"github.com/wippyai/wasm-ejson/value"
)

func runEncode(_ context.Context, args []string) error {
	fs := newFlagSet("encode")
	out := fs.StringP("out", "o", "", "snapshot file to write (default stdout)")
	kindName := fs.String("kind", "", "input kind: json, yaml or cbor (default from extension)")
	ints := fs.Bool("int64", false, "encode integral numbers as int64 records (extended format)")

	cfg, done, err := setup(fs, args)
	if err != nil {
		return err
	}
	defer done()

	if fs.NArg() == 0 {
		return fmt.Errorf("encode: no input documents")
	}

	format := cfg.CodecFormat()
	opts := source.Options{Format: format, IntegersAsInt64: *ints}
	var vs []value.Value
	for _, path := range fs.Args() {
		docs, err := readDocuments(path, *kindName, opts)
		if err != nil {
			return err
		}
		vs = append(vs, docs...)
	}

	a := arena.New(cfg.ArenaOptions())
	addrs, err := codec.NewEncoder(a, format).EncodeAll(vs...)
	if err != nil {
		return err
	}

	// Addresses go to stdout unless the snapshot does.
	report := os.Stdout
	if *out != "" {
		if err := writeSnapshotFile(*out, a, format); err != nil {
			return err
		}
	} else {
		if term.IsTerminal(int(os.Stdout.Fd())) {
			return fmt.Errorf("encode: refusing to write a binary snapshot to a terminal, use --out")
		}
		if err := snapshot.Write(os.Stdout, a, format); err != nil {
			return err
		}
		report = os.Stderr
	}
	for _, addr := range addrs {
		fmt.Fprintln(report, addr)
	}

	logger.Debug("snapshot written",
		zap.Int("values", len(addrs)),
		zap.Uint32("used", a.Used()),
		zap.Stringer("format", format))
	return nil
}

// writeSnapshotFile saves a to path. A failed close is reported, since the
// file may be incomplete.
func writeSnapshotFile(path string, a *arena.Arena, format codec.Format) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	if err := snapshot.Write(f, a, format); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}
	return nil
}
