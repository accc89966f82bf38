package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/wippyai/wasm-ejson/evaluator"
	"github.com/wippyai/wasm-ejson/internal/source"
	"github.com/wippyai/wasm-ejson/value"
)

func runCompare(ctx context.Context, args []string) error {
	fs := newFlagSet("compare")
	wasmFile := fs.String("wasm", "", "precompiled evaluator module")
	export := fs.String("export", "", "comparator export (default from configuration)")
	kindName := fs.String("kind", "", "input kind: json, yaml or cbor (default from extension)")
	ints := fs.Bool("int64", false, "encode integral numbers as int64 records (extended format)")

	cfg, done, err := setup(fs, args)
	if err != nil {
		return err
	}
	defer done()

	if *wasmFile == "" || fs.NArg() != 2 {
		return fmt.Errorf("compare: need --wasm and exactly two documents")
	}
	wasm, err := os.ReadFile(*wasmFile)
	if err != nil {
		return fmt.Errorf("read module: %w", err)
	}

	opts := source.Options{Format: cfg.CodecFormat(), IntegersAsInt64: *ints}
	a, err := firstDocument(fs.Arg(0), *kindName, opts)
	if err != nil {
		return err
	}
	b, err := firstDocument(fs.Arg(1), *kindName, opts)
	if err != nil {
		return err
	}

	hcfg := cfg.EvaluatorConfig()
	if *export != "" {
		hcfg.CompareExport = *export
	}
	host, err := evaluator.New(ctx, hcfg)
	if err != nil {
		return err
	}
	defer host.Close(ctx)

	ev, err := host.Load(ctx, wasm)
	if err != nil {
		return err
	}
	defer ev.Close(ctx)

	result, err := ev.Compare(ctx, a, b)
	if err != nil {
		return err
	}
	printComparison(os.Stdout, result)
	return nil
}

func firstDocument(path, kindName string, opts source.Options) (value.Value, error) {
	vs, err := readDocuments(path, kindName, opts)
	if err != nil {
		return nil, err
	}
	if len(vs) == 0 {
		return nil, fmt.Errorf("%s: no document", path)
	}
	return vs[0], nil
}

func printComparison(w io.Writer, result int32) {
	word := "equal"
	switch {
	case result < 0:
		word = "less"
	case result > 0:
		word = "greater"
	}
	fmt.Fprintf(w, "%d %s\n", result, word)
}
