package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/zoobzio/vigil/books"
)

// runCheck parses and validates the file once and prints the library.
func runCheck(ctx context.Context, cmd CheckCmd, out io.Writer) error {
	codec, err := codecFor(cmd.Format)
	if err != nil {
		return err
	}
	parser, err := books.NewFileParser(cmd.File, codec)
	if err != nil {
		return err
	}

	lib, err := parser.Parse(ctx)
	if err != nil {
		fmt.Fprintln(out, failStyle.Render(iconFail+" "+err.Error()))
		return err
	}
	if err := books.NewValidator().Validate(lib); err != nil {
		fmt.Fprintln(out, failStyle.Render(iconFail+" invalid: "+err.Error()))
		return fmt.Errorf("validate %s: %w", cmd.File, err)
	}

	fmt.Fprintln(out, okStyle.Render(iconOK+" "+cmd.File+" is valid"))
	fmt.Fprint(out, renderLibrary(lib, time.Now()))
	return nil
}
