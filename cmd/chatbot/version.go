// Copyright (c) 2025 BVK Chaitanya

package main

import (
	"context"
	"flag"
	"fmt"
	"runtime/debug"

	"github.com/visvasity/cli"
)

type Version struct{}

func (c *Version) run(ctx context.Context, args []string) error {
	stdout := cli.Stdout(ctx)
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return fmt.Errorf("could not read build information")
	}
	fmt.Fprintln(stdout, "Go: ", info.GoVersion)
	fmt.Fprintln(stdout, "Binary Path: ", info.Path)
	fmt.Fprintln(stdout, "Binary Version: ", info.Main.Version)
	return nil
}

func (c *Version) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("version", flag.ContinueOnError)
	return "version", fset, cli.CmdFunc(c.run)
}

func (c *Version) Purpose() string {
	return "Prints the binary build version"
}
