// Copyright (c) 2025 BVK Chaitanya

package chatcmd

import "fmt"

// SetupError reports an invalid configuration: an empty name, a
// contradictory argument-set rule, or a duplicate command name. Setup
// errors are returned immediately from the setup-time calls and never
// from a deferred value.
type SetupError struct {
	Message string
}

func (e *SetupError) Error() string {
	return e.Message
}

func setupErrorf(format string, args ...any) *SetupError {
	return &SetupError{Message: fmt.Sprintf(format, args...)}
}

// CommandError reports an execution-time failure: a missing or extra
// argument, a rejected token, or an error returned by a user-supplied
// function. Err holds the nested cause when there is one; Command
// references the originating command when it is known.
type CommandError struct {
	Message string
	Command *Command
	Err     error
}

// Error returns the full message, concatenating Message with the
// nested cause's message when present.
func (e *CommandError) Error() string {
	switch {
	case e.Err == nil:
		return e.Message
	case len(e.Message) == 0:
		return e.Err.Error()
	default:
		return e.Message + ": " + e.Err.Error()
	}
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

func commandErrorf(cause error, format string, args ...any) *CommandError {
	return &CommandError{Message: fmt.Sprintf(format, args...), Err: cause}
}

// tag returns err with the originating command attached. A new value
// is constructed when necessary; errors are never modified in place.
func tag(cmd *Command, err error) error {
	if err == nil {
		return nil
	}
	if ce, ok := err.(*CommandError); ok {
		if ce.Command != nil {
			return ce
		}
		return &CommandError{Message: ce.Message, Command: cmd, Err: ce.Err}
	}
	if _, ok := err.(*SetupError); ok {
		return err
	}
	return &CommandError{Command: cmd, Err: err}
}
