// Copyright (c) 2025 BVK Chaitanya

package chatcmd

import (
	"context"
	"slices"
	"strings"
)

// Command is a named, invocable unit. It owns its argument sets
// exclusively, resolves an incoming token list to the matching set by
// arity, and routes the assembled arguments to the handler (or a
// failure to the error handler).
//
// Commands are configured through builder calls before the first
// Parse or Execute and must not be modified afterwards.
type Command struct {
	name        string
	description string

	argsets [][]*Argument

	handler    Handler
	errHandler ErrorHandler

	async bool

	// Construction error, surfaced at registration or parse time.
	err *SetupError
}

// NewCommand returns a new command with no argument sets and no
// handler. The name must be non-empty; an empty name is reported as a
// SetupError when the command is registered or parsed.
func NewCommand(name string) *Command {
	c := &Command{name: name}
	if len(name) == 0 {
		c.err = setupErrorf("command name cannot be empty")
	}
	return c
}

// Name returns the command name.
func (c *Command) Name() string {
	return c.name
}

// Description returns the description text set with Describe.
func (c *Command) Description() string {
	return c.description
}

// Describe sets the one-line description used by help text.
func (c *Command) Describe(desc string) *Command {
	c.description = desc
	return c
}

// Handle installs the handler invoked with the parsed arguments.
func (c *Command) Handle(h Handler) *Command {
	c.handler = h
	return c
}

// HandleError installs the error handler. When present, it fully
// intercepts parse and handler failures; nothing is re-raised unless
// the error handler itself fails.
func (c *Command) HandleError(h ErrorHandler) *Command {
	c.errHandler = h
	return c
}

// Asynchronous selects the deferred calling convention for Parse and
// Execute on this command. Argument evaluation order and all results
// and error messages are unchanged.
func (c *Command) Asynchronous(enabled bool) *Command {
	c.async = enabled
	return c
}

// AddArgSet appends one alternative argument shape. The set is
// validated against every set added so far:
//
//  1. No two sets may have the same length.
//  2. An optional argument must be the last in its set.
//  3. A variadic argument must be the last in its set.
//  4. At most one set across the command may contain a variadic
//     argument.
//  5. A set with a variadic argument must be strictly larger than
//     every other set.
//
// Rule 5 is re-checked on every add, so adding a longer set after a
// variadic set fails even though the variadic set was accepted
// earlier. Sets are append-only and are never removed or reordered.
func (c *Command) AddArgSet(args ...*Argument) error {
	if c.err != nil {
		return c.err
	}
	if len(args) == 0 {
		return setupErrorf("argument set cannot be empty")
	}
	for i, arg := range args {
		if arg == nil {
			return setupErrorf("argument set contains a nil argument")
		}
		if arg.err != nil {
			return arg.err
		}
		if arg.optional && i != len(args)-1 {
			return setupErrorf("optional argument %s must be the last in its set", arg.name)
		}
		if arg.varargs && i != len(args)-1 {
			return setupErrorf("variadic argument %s must be the last in its set", arg.name)
		}
	}
	for _, set := range c.argsets {
		if len(set) == len(args) {
			return setupErrorf("an argument set with %d arguments already exists", len(args))
		}
	}
	if hasVarargs(args) {
		for _, set := range c.argsets {
			if hasVarargs(set) {
				return setupErrorf("command %s already has a variadic argument set", c.name)
			}
		}
	}
	candidate := append(slices.Clone(c.argsets), slices.Clone(args))
	for _, set := range candidate {
		if !hasVarargs(set) {
			continue
		}
		for _, other := range candidate {
			if len(other) >= len(set) && !hasVarargs(other) {
				return setupErrorf("variadic argument set must be larger than all other sets")
			}
		}
	}
	c.argsets = candidate
	return nil
}

func hasVarargs(set []*Argument) bool {
	return len(set) > 0 && set[len(set)-1].varargs
}

// Usage renders one line per argument set: the command name followed
// by each argument's usage. A command with no argument sets renders
// as just its name.
func (c *Command) Usage() string {
	if len(c.argsets) == 0 {
		return c.name
	}
	lines := make([]string, 0, len(c.argsets))
	for _, set := range c.argsets {
		words := []string{c.name}
		for _, arg := range set {
			words = append(words, arg.Usage())
		}
		lines = append(lines, strings.Join(words, " "))
	}
	return strings.Join(lines, "\n")
}

// Parse resolves the token list to the matching argument set and
// parses every argument in set order. The caller's slice is not
// modified. The promise resolves to the assembled ParsedArgs or
// rejects with a CommandError referencing this command.
func (c *Command) Parse(ctx context.Context, args []string) *Promise[ParsedArgs] {
	return promised(c.async, func() (ParsedArgs, error) {
		return c.parseArgs(ctx, args)
	})
}

func (c *Command) parseArgs(ctx context.Context, args []string) (ParsedArgs, error) {
	if c.err != nil {
		return nil, c.err
	}

	tokens := slices.Clone(args)
	result := ParsedArgs{RawKey: slices.Clone(args)}

	// With zero or one argument sets there is no ambiguity and no
	// arity check; the walk below reports missing or extra tokens
	// per argument. With multiple sets the length must match one of
	// them exactly, and the blame for a mismatch is deliberately
	// coarse.
	var set []*Argument
	switch len(c.argsets) {
	case 0:
	case 1:
		set = c.argsets[0]
	default:
		i := slices.IndexFunc(c.argsets, func(s []*Argument) bool {
			return len(s) == len(tokens)
		})
		if i == -1 {
			return nil, tag(c, commandErrorf(nil, "wrong number of arguments"))
		}
		set = c.argsets[i]
	}

	for _, arg := range set {
		var value any
		var err error
		if arg.varargs {
			// Guaranteed last in the set; consumes the rest.
			value, err = arg.parse(ctx, tokens)
			tokens = nil
		} else if len(tokens) == 0 {
			value, err = arg.parse(ctx, nil)
		} else {
			value, err = arg.parse(ctx, tokens[:1])
			tokens = tokens[1:]
		}
		if err != nil {
			return nil, tag(c, err)
		}
		result[arg.name] = value
	}

	if len(tokens) > 0 {
		return nil, tag(c, commandErrorf(nil, "too many arguments: %s", quoteJoin(tokens)))
	}
	return result, nil
}

// Execute tokenizes the line and executes it. See ExecuteArgs.
func (c *Command) Execute(ctx context.Context, line string, extra ...any) *Promise[any] {
	return c.ExecuteArgs(ctx, Tokenize(line), extra...)
}

// ExecuteArgs parses the tokens and, on success, invokes the handler
// with the parsed arguments and the forwarded extra values. A command
// without a handler still parses, for the validation side effect, and
// resolves to nil. Any parse or handler failure is routed through the
// error handler when one is configured; otherwise it rejects the
// promise.
func (c *Command) ExecuteArgs(ctx context.Context, args []string, extra ...any) *Promise[any] {
	return promised(c.async, func() (any, error) {
		return c.execute(ctx, args, extra)
	})
}

func (c *Command) execute(ctx context.Context, args []string, extra []any) (any, error) {
	parsed, err := c.parseArgs(ctx, args)
	if err != nil {
		return c.routeError(ctx, err, extra)
	}
	if c.handler == nil {
		return nil, nil
	}
	v, err := call(func() (any, error) {
		return c.handler(ctx, parsed, extra...)
	})
	if err != nil {
		// The extra layer distinguishes handler failures from
		// parse failures in the message text.
		return c.routeError(ctx, tag(c, commandErrorf(err, "command failed")), extra)
	}
	return v, nil
}

func (c *Command) routeError(ctx context.Context, cause error, extra []any) (any, error) {
	if c.errHandler == nil {
		return nil, cause
	}
	v, err := call(func() (any, error) {
		return c.errHandler(ctx, cause, extra...)
	})
	if err != nil {
		return nil, tag(c, commandErrorf(err, "error handler failed"))
	}
	return v, nil
}
