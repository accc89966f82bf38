package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/wippyai/wasm-ejson/codec"
	"github.com/wippyai/wasm-ejson/internal/source"
	"github.com/wippyai/wasm-ejson/value"
)

func runDecode(ctx context.Context, args []string) error {
	fs := newFlagSet("decode")
	to := fs.StringP("to", "t", "json", "output kind: json, yaml or cbor")

	cfg, done, err := setup(fs, args)
	if err != nil {
		return err
	}
	defer done()

	if fs.NArg() < 2 {
		return fmt.Errorf("decode: need a snapshot and at least one address")
	}
	kind, err := source.ParseKind(*to)
	if err != nil {
		return err
	}
	addrs, err := parseAddrs(fs.Args()[1:])
	if err != nil {
		return err
	}

	a, format, err := loadSnapshot(fs.Arg(0), cfg)
	if err != nil {
		return err
	}
	if format != cfg.CodecFormat() {
		logger.Info("snapshot format overrides configuration",
			zap.Stringer("snapshot", format),
			zap.Stringer("config", cfg.CodecFormat()))
	}

	dec := codec.NewDecoder(a, format, cfg.DecoderOptions()...)
	vs, err := dec.DecodeAll(ctx, addrs, cfg.Decode.Workers)
	if err != nil {
		return err
	}
	return writeDocuments(os.Stdout, vs, kind)
}

// writeDocuments renders vs one after another. YAML documents are
// separated with "---".
func writeDocuments(w io.Writer, vs []value.Value, kind source.Kind) error {
	for i, v := range vs {
		data, err := source.Encode(v, kind)
		if err != nil {
			return fmt.Errorf("value %d: %w", i, err)
		}
		if kind == source.YAML && i > 0 {
			if _, err := io.WriteString(w, "---\n"); err != nil {
				return err
			}
		}
		if _, err := w.Write(data); err != nil {
			return err
		}
	}
	return nil
}
