package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	wasmejson "github.com/wippyai/wasm-ejson"
	"github.com/wippyai/wasm-ejson/arena"
	"github.com/wippyai/wasm-ejson/codec"
	"github.com/wippyai/wasm-ejson/internal/snapshot"
)

func runDump(_ context.Context, args []string) error {
	fs := newFlagSet("dump")
	color := fs.String("color", "auto", "style output: auto, always or never")

	cfg, done, err := setup(fs, args)
	if err != nil {
		return err
	}
	defer done()

	if fs.NArg() < 1 {
		return fmt.Errorf("dump: need a snapshot")
	}
	addrs, err := parseAddrs(fs.Args()[1:])
	if err != nil {
		return err
	}

	var styled bool
	switch *color {
	case "always":
		styled = true
	case "never":
	case "auto":
		styled = term.IsTerminal(int(os.Stdout.Fd()))
	default:
		return fmt.Errorf("dump: unknown --color %q", *color)
	}

	f, err := os.Open(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()
	img, err := snapshot.Read(f)
	if err != nil {
		return fmt.Errorf("%s: %w", fs.Arg(0), err)
	}

	return dump(os.Stdout, img, cfg.ArenaOptions(), cfg.DecoderOptions(), addrs, styled)
}

// dump prints the snapshot header and the record tree at each address.
func dump(w io.Writer, img *snapshot.Image, opts arena.Options, decOpts []codec.DecoderOption, addrs []wasmejson.Address, styled bool) error {
	header := fmt.Sprintf("%s  base %d  cursor %d  blake3 %s",
		img.Format, img.Base, img.Cursor(), img.Checksum)
	if styled {
		header = titleStyle.Render("snapshot") + " " + header
	}
	fmt.Fprintln(w, header)

	a := img.Arena(opts)
	for _, addr := range addrs {
		lines, err := collectRecords(a, img.Format, addr, decOpts...)
		if err != nil {
			return err
		}
		fmt.Fprintln(w)
		for _, l := range lines {
			fmt.Fprintln(w, l.format(styled))
		}
	}
	return nil
}
