// Copyright (c) 2025 BVK Chaitanya

package chatcmd

import (
	"context"
	"strings"
)

// Argument is one named slot in a command's positional signature. It
// turns zero, one, or many raw tokens into final values, enforcing
// presence rules and applying an optional preprocessor per token.
//
// Arguments are configured through builder calls before being
// attached to a command and must not be modified afterwards.
type Argument struct {
	name string

	optional bool
	varargs  bool
	async    bool

	prep Preprocessor

	// Construction error, surfaced at attach or parse time.
	err *SetupError
}

// NewArgument returns a new required, single-token argument. The name
// must be non-empty; an empty name is reported as a SetupError when
// the argument is attached to a command or parsed.
func NewArgument(name string) *Argument {
	a := &Argument{name: name}
	if len(name) == 0 {
		a.err = setupErrorf("argument name cannot be empty")
	}
	return a
}

// Name returns the argument name.
func (a *Argument) Name() string {
	return a.name
}

// Optional marks the argument as optional. An absent optional
// argument parses to nil in single mode and to an empty list in
// variadic mode.
func (a *Argument) Optional(enabled bool) *Argument {
	a.optional = enabled
	return a
}

// Varargs marks the argument as variadic. A variadic argument
// consumes the remainder of the token stream as a list and runs every
// element through the preprocessor independently.
func (a *Argument) Varargs(enabled bool) *Argument {
	a.varargs = enabled
	return a
}

// Asynchronous selects the deferred calling convention for Parse. The
// parsing behavior is unchanged; only the returned promise settles
// from a separate goroutine.
func (a *Argument) Asynchronous(enabled bool) *Argument {
	a.async = enabled
	return a
}

// Preprocess installs the per-token transform/validator.
func (a *Argument) Preprocess(fn Preprocessor) *Argument {
	a.prep = fn
	return a
}

// Usage renders the argument for help text.
func (a *Argument) Usage() string {
	if a.varargs {
		first := "<" + a.name + "_1>"
		if a.optional {
			first = "[" + a.name + "_1]"
		}
		return strings.Join([]string{first, "[" + a.name + "_2]", "...", "[" + a.name + "_n]"}, " ")
	}
	if a.optional {
		return "[" + a.name + "]"
	}
	return "<" + a.name + ">"
}

// Parse runs the given tokens through the argument. No tokens means
// the argument is absent. A non-variadic argument accepts at most one
// token; a variadic argument accepts any number. The promise resolves
// to the parsed value: a single value, nil for absent-and-optional,
// or a []any in variadic mode.
func (a *Argument) Parse(ctx context.Context, values ...string) *Promise[any] {
	return promised(a.async, func() (any, error) {
		return a.parse(ctx, values)
	})
}

func (a *Argument) parse(ctx context.Context, values []string) (any, error) {
	if a.err != nil {
		return nil, a.err
	}
	if a.varargs {
		return a.parseList(ctx, values)
	}
	switch len(values) {
	case 0:
		if !a.optional {
			return nil, commandErrorf(nil, "missing argument: %s", a.name)
		}
		return nil, nil
	case 1:
		return a.preprocess(ctx, values[0], 0)
	default:
		return nil, commandErrorf(nil, "argument %s accepts a single value", a.name)
	}
}

func (a *Argument) parseList(ctx context.Context, values []string) (any, error) {
	if len(values) == 0 {
		if !a.optional {
			return nil, commandErrorf(nil, "argument %s requires at least one value", a.name)
		}
		return []any{}, nil
	}
	result := make([]any, 0, len(values))
	for i, value := range values {
		v, err := a.preprocess(ctx, value, i+1)
		if err != nil {
			return nil, err
		}
		result = append(result, v)
	}
	return result, nil
}

// preprocess runs one token through the preprocessor. An empty token
// on an optional argument short-circuits to nil, which keeps the key
// present in the output while signaling "not given". A zero pos means
// single mode; a positive pos is the 1-based position of a variadic
// element, included in the error context.
func (a *Argument) preprocess(ctx context.Context, value string, pos int) (any, error) {
	if len(value) == 0 && a.optional {
		return nil, nil
	}
	if a.prep == nil {
		return value, nil
	}
	v, err := call(func() (any, error) {
		return a.prep(ctx, value)
	})
	if err != nil {
		if pos > 0 {
			return nil, commandErrorf(err, "bad %s value '%s' (%d)", a.name, value, pos)
		}
		return nil, commandErrorf(err, "bad %s value '%s'", a.name, value)
	}
	if v == nil {
		return value, nil
	}
	return v, nil
}
