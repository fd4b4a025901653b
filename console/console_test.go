// Copyright (c) 2025 BVK Chaitanya

package console

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/bvk/chatcmd"

	"golang.org/x/term"
)

type pipeRW struct {
	io.Reader
	io.Writer
}

func TestServe(t *testing.T) {
	ctx := context.Background()

	registry := chatcmd.NewRegistry()
	echo := chatcmd.NewCommand("echo")
	if err := echo.AddArgSet(chatcmd.NewArgument("text").Varargs(true)); err != nil {
		t.Fatal(err)
	}
	echo.Handle(func(ctx context.Context, args chatcmd.ParsedArgs, extra ...any) (any, error) {
		return strings.Join(args.Raw(), " "), nil
	})
	if err := registry.Add(echo); err != nil {
		t.Fatal(err)
	}
	registry.SetDefaultHandler(nil)

	c, err := New(registry, "> ")
	if err != nil {
		t.Fatal(err)
	}

	var output bytes.Buffer
	input := strings.NewReader("echo hello world\rbogus\rexit\r")
	if err := c.Serve(ctx, term.NewTerminal(pipeRW{input, &output}, "> ")); err != nil {
		t.Fatal(err)
	}

	text := output.String()
	if !strings.Contains(text, "hello world") {
		t.Fatalf("output misses the echoed line: %q", text)
	}
	if !strings.Contains(text, "unrecognized command") {
		t.Fatalf("output misses the dispatch error: %q", text)
	}
}

func TestServeEOF(t *testing.T) {
	ctx := context.Background()

	registry := chatcmd.NewRegistry()
	c, err := New(registry, "")
	if err != nil {
		t.Fatal(err)
	}

	var output bytes.Buffer
	if err := c.Serve(ctx, term.NewTerminal(pipeRW{strings.NewReader(""), &output}, "> ")); err != nil {
		t.Fatal(err)
	}
}
