// Copyright (c) 2025 BVK Chaitanya

package chatcmd

import (
	"context"
	"strings"
)

// Registry is a uniquely-named collection of commands with
// line-oriented dispatch. The first token of an incoming line selects
// the command; remaining tokens are handed to it. Unrecognized names
// go to the default handler when one is configured.
//
// Registries are configured before the first Execute and must not be
// modified afterwards.
type Registry struct {
	names    []string
	commands map[string]*Command

	defHandler DefaultHandler

	helpCmd     *Command
	helpHandler HelpHandler

	async bool
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		commands: make(map[string]*Command),
	}
}

// Add registers a command. Command names are unique within a
// registry; adding a duplicate name is a SetupError.
func (r *Registry) Add(cmd *Command) error {
	if cmd == nil {
		return setupErrorf("command cannot be nil")
	}
	if cmd.err != nil {
		return cmd.err
	}
	if _, ok := r.commands[cmd.name]; ok {
		return setupErrorf("duplicate command: %s", cmd.name)
	}
	r.commands[cmd.name] = cmd
	r.names = append(r.names, cmd.name)
	return nil
}

// Commands returns a snapshot of the name to command mapping.
func (r *Registry) Commands() map[string]*Command {
	m := make(map[string]*Command, len(r.commands))
	for name, cmd := range r.commands {
		m[name] = cmd
	}
	return m
}

// Asynchronous selects the deferred calling convention for Execute
// and Help. The registry's mode applies to every command it
// dispatches to, regardless of the command's own setting.
func (r *Registry) Asynchronous(enabled bool) *Registry {
	r.async = enabled
	return r
}

// SetDefaultHandler installs the handler invoked for unrecognized
// command names. Passing nil installs a built-in that fails with an
// "unrecognized command" error.
func (r *Registry) SetDefaultHandler(h DefaultHandler) *Registry {
	if h == nil {
		h = func(ctx context.Context, tokens []string, extra ...any) (any, error) {
			return nil, commandErrorf(nil, "unrecognized command: %s", tokens[0])
		}
	}
	r.defHandler = h
	return r
}

// SetHelpHandler installs the handler of the synthesized "help"
// command, creating the command on first use. The help command takes
// one optional "command" argument and behaves like any other command,
// except that its handler also receives the registry's full command
// mapping. Passing nil installs a built-in that renders the named
// command's usage, or every registered command's usage when no name
// is given.
func (r *Registry) SetHelpHandler(h HelpHandler) *Registry {
	if r.helpCmd == nil {
		cmd := NewCommand("help").Describe("Describes registered commands")
		// Static configuration; cannot fail.
		_ = cmd.AddArgSet(NewArgument("command").Optional(true))
		if err := r.Add(cmd); err != nil {
			// A user-registered "help" command takes precedence.
			return r
		}
		cmd.Handle(func(ctx context.Context, args ParsedArgs, extra ...any) (any, error) {
			commands, _ := extra[0].(map[string]*Command)
			return r.helpHandler(ctx, args, commands, extra[1:]...)
		})
		r.helpCmd = cmd
	}
	if h == nil {
		h = r.builtinHelp
	}
	r.helpHandler = h
	return r
}

func (r *Registry) builtinHelp(ctx context.Context, args ParsedArgs, commands map[string]*Command, extra ...any) (any, error) {
	if name, ok := args["command"].(string); ok {
		cmd, ok := commands[name]
		if !ok {
			return "unknown command: " + name, nil
		}
		return cmd.Usage(), nil
	}
	lines := make([]string, 0, len(r.names))
	for _, name := range r.names {
		lines = append(lines, r.commands[name].Usage())
	}
	return strings.Join(lines, "\n"), nil
}

// Execute tokenizes the line and dispatches it. See ExecuteArgs.
func (r *Registry) Execute(ctx context.Context, line string, extra ...any) *Promise[any] {
	return r.ExecuteArgs(ctx, Tokenize(line), extra...)
}

// ExecuteArgs takes the first token as the command name and delegates
// to the matching command with the remaining tokens. Unrecognized
// names go to the default handler with the full token list; with no
// default handler configured, dispatch is a no-op resolving to nil.
func (r *Registry) ExecuteArgs(ctx context.Context, tokens []string, extra ...any) *Promise[any] {
	return promised(r.async, func() (any, error) {
		return r.execute(ctx, tokens, extra)
	})
}

func (r *Registry) execute(ctx context.Context, tokens []string, extra []any) (any, error) {
	if len(tokens) == 0 {
		return nil, nil
	}
	if cmd, ok := r.commands[tokens[0]]; ok {
		if cmd == r.helpCmd {
			// The help handler takes the command mapping as an
			// extra leading value.
			extra = append([]any{r.Commands()}, extra...)
		}
		return cmd.execute(ctx, tokens[1:], extra)
	}
	if r.defHandler != nil {
		v, err := call(func() (any, error) {
			return r.defHandler(ctx, tokens, extra...)
		})
		if err != nil {
			return nil, tag(nil, err)
		}
		return v, nil
	}
	return nil, nil
}

// Help dispatches "help <name>" (or bare "help" when name is empty)
// through the regular path. It is a no-op when no help handler has
// been configured.
func (r *Registry) Help(ctx context.Context, name string, extra ...any) *Promise[any] {
	if r.helpCmd == nil {
		return settled[any](nil, nil)
	}
	tokens := []string{"help"}
	if len(name) > 0 {
		tokens = append(tokens, name)
	}
	return r.ExecuteArgs(ctx, tokens, extra...)
}
