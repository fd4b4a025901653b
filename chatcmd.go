// Copyright (c) 2025 BVK Chaitanya

// Package chatcmd implements positional-argument parsing and command
// dispatch for line-oriented text interfaces, such as chat bots and
// REPLs.
//
// Users define commands with one or more alternative ordered argument
// lists (argument sets), attach per-argument preprocessors that
// validate or transform raw string tokens into typed values, and
// route incoming command lines through a [Registry] to a handler
// function.
//
// # COMMANDS AND ARGUMENT SETS
//
// A [Command] owns one or more argument sets. Each set is one
// acceptable fixed-length shape for the command's positional
// arguments; the set whose length matches the incoming token count is
// chosen. A set may end with an optional argument or with a variadic
// argument that consumes the remaining tokens as a list.
//
//	size := chatcmd.NewArgument("size").Preprocess(parseSize)
//	units := chatcmd.NewArgument("units").Optional(true)
//
//	cmd := chatcmd.NewCommand("resize").Describe("Resizes the window")
//	if err := cmd.AddArgSet(size, units); err != nil {
//		...
//	}
//	cmd.Handle(func(ctx context.Context, args chatcmd.ParsedArgs, extra ...any) (any, error) {
//		...
//	})
//
// # SYNCHRONOUS AND DEFERRED EXECUTION
//
// Parse and Execute return a [Promise] in both modes. In the default
// synchronous mode the promise is already settled when the call
// returns and Wait never blocks. When a Command, Argument, or
// Registry is marked Asynchronous, its entry points settle the
// promise from a separate goroutine instead; the parsing algorithm is
// identical and arguments are still evaluated strictly in set order.
// The execution mode is resolved once at the entry point that was
// invoked: a registry dispatching to a command uses the registry's
// mode, and a command parsing its arguments uses the command's mode.
//
// # ERRORS
//
// Configuration mistakes (empty names, contradictory argument sets,
// duplicate command names) surface as [SetupError] values from the
// setup-time calls. All execution-time failures, including errors
// returned by user-supplied functions, surface as [CommandError]
// values carrying the originating command and the nested cause.
package chatcmd

import (
	"context"
	"fmt"
	"strings"
)

// Preprocessor validates or transforms one raw token. Returning a nil
// value with a nil error keeps the raw token unchanged. A non-nil
// error rejects the token.
type Preprocessor func(ctx context.Context, value string) (any, error)

// Handler consumes the parsed arguments of a successful command
// invocation. Extra values forwarded by the caller of Execute are
// passed through unmodified.
type Handler func(ctx context.Context, args ParsedArgs, extra ...any) (any, error)

// ErrorHandler intercepts a parse or handler failure. When a command
// has an error handler, its return value becomes the outcome of
// Execute and the original error is not re-raised.
type ErrorHandler func(ctx context.Context, cause error, extra ...any) (any, error)

// DefaultHandler is invoked by a Registry for unrecognized command
// names with the full original token list, command name included.
type DefaultHandler func(ctx context.Context, tokens []string, extra ...any) (any, error)

// HelpHandler is the handler shape of the synthesized help command.
// It receives the registry's full command mapping in addition to the
// parsed arguments.
type HelpHandler func(ctx context.Context, args ParsedArgs, commands map[string]*Command, extra ...any) (any, error)

// RawKey is the reserved ParsedArgs key holding the full token list
// as it was given, before any argument consumed it.
const RawKey = "_"

// ParsedArgs maps each argument name from the matched argument set to
// its parsed value: a single value, nil for an optional argument that
// was absent, or a []any for a variadic argument. The only other key
// is RawKey.
type ParsedArgs map[string]any

// Raw returns the full token list recorded under RawKey.
func (p ParsedArgs) Raw() []string {
	v, _ := p[RawKey].([]string)
	return v
}

// Tokenize splits a command line on runs of whitespace, discarding
// empty tokens. This is the rule used by Command.Execute and
// Registry.Execute when given a raw string.
func Tokenize(line string) []string {
	return strings.Fields(line)
}

// call invokes a user-supplied function, converting a panic into an
// error so that a failure in async mode becomes a rejection instead
// of killing the process.
func call[T any](fn func() (T, error)) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = e
				return
			}
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}

// quoteJoin renders tokens as 'a', 'b', 'c' in the given order.
func quoteJoin(tokens []string) string {
	quoted := make([]string, len(tokens))
	for i, t := range tokens {
		quoted[i] = "'" + t + "'"
	}
	return strings.Join(quoted, ", ")
}
