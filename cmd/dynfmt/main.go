// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command dynfmt reads a JSON document (from a file argument or stdin),
// round-trips it through package jsonstream and package dynval, and
// re-emits it, optionally pretty-printed or merged against a patch
// document. It exists to exercise the full parse/build/render path the way
// the teacher's dbm/crash and lldb/lab programs exercise dbm/lldb: a small
// standalone driver rather than a test.
package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/cznic/corekit/dynval"
	"github.com/cznic/corekit/rcstr"
)

var (
	oIndent = ""
	oMerge  = ""
)

func main() {
	root := &cobra.Command{
		Use:   "dynfmt [file]",
		Short: "Round-trip a JSON document through the corekit dynamic value system",
		Args:  cobra.MaximumNArgs(1),
		RunE:  run,
	}
	root.Flags().StringVar(&oIndent, "indent", "", "indent string for pretty-printed output (e.g. \"  \")")
	root.Flags().StringVar(&oMerge, "merge", "", "path to a JSON Merge Patch (RFC 7386) document to apply before re-emitting")

	if err := root.Execute(); err != nil {
		log.Fatal(err)
	}
}

func run(cmd *cobra.Command, args []string) error {
	data, err := readInput(args)
	if err != nil {
		return fmt.Errorf("dynfmt: reading input: %w", err)
	}

	v, err := dynval.Parse(data)
	if err != nil {
		return fmt.Errorf("dynfmt: parsing JSON: %w", err)
	}

	if oMerge != "" {
		patch, err := os.ReadFile(oMerge)
		if err != nil {
			dynval.Free(v)
			return fmt.Errorf("dynfmt: reading merge patch: %w", err)
		}
		// MergeJSON consumes v (folding it into, or replacing it with, the
		// merged result), so only the returned value is ours to free.
		v, err = dynval.MergeJSON(v, patch)
		if err != nil {
			return fmt.Errorf("dynfmt: merging patch: %w", err)
		}
	}
	defer dynval.Free(v)

	return render(cmd.OutOrStdout(), v)
}

func render(w io.Writer, v dynval.Value) error {
	var text []byte
	if oIndent != "" {
		text = dynval.ToJSONIndent(rcstr.Empty(), v, oIndent).Data()
	} else {
		text = dynval.ToJSON(rcstr.Empty(), v, false).Data()
	}
	_, err := w.Write(append(text, '\n'))
	return err
}

func readInput(args []string) ([]byte, error) {
	if len(args) == 1 {
		return os.ReadFile(args[0])
	}
	return io.ReadAll(os.Stdin)
}
