// Copyright (c) 2025 BVK Chaitanya

// Package console implements an interactive read-eval-print loop over
// a chatcmd command registry on the local terminal.
package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/bvk/chatcmd"

	"golang.org/x/term"
)

// Console reads lines from a terminal and dispatches them through a
// command registry.
type Console struct {
	registry *chatcmd.Registry

	prompt string
}

// New returns a console over the given registry.
func New(registry *chatcmd.Registry, prompt string) (*Console, error) {
	if registry == nil {
		return nil, os.ErrInvalid
	}
	if len(prompt) == 0 {
		prompt = "> "
	}
	return &Console{registry: registry, prompt: prompt}, nil
}

// Run serves the REPL on stdin/stdout until the input reaches EOF,
// the user types "exit", or the context is canceled. When stdin is a
// terminal it is switched into raw mode for the duration.
func (c *Console) Run(ctx context.Context) error {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		oldState, err := term.MakeRaw(fd)
		if err != nil {
			return err
		}
		defer term.Restore(fd, oldState)
	}

	rw := struct {
		io.Reader
		io.Writer
	}{os.Stdin, os.Stdout}
	return c.Serve(ctx, term.NewTerminal(rw, c.prompt))
}

// Serve runs the REPL over an existing terminal. It is split from Run
// so that tests and remote shells can drive the loop over any
// transport.
func (c *Console) Serve(ctx context.Context, t *term.Terminal) error {
	for ctx.Err() == nil {
		line, err := t.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if line == "exit" {
			return nil
		}

		result, err := c.registry.Execute(ctx, line).Wait(ctx)
		switch {
		case err != nil:
			fmt.Fprintln(t, "error:", err.Error())
		case result != nil:
			fmt.Fprintln(t, result)
		}
	}
	return context.Cause(ctx)
}
