// Copyright (c) 2025 BVK Chaitanya

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"github.com/bvk/chatcmd"
	"github.com/bvk/chatcmd/kvutil"

	"github.com/bvkgo/kv"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/process"
	"github.com/shopspring/decimal"
)

var start = time.Now()

func decimalValue(ctx context.Context, value string) (any, error) {
	return decimal.NewFromString(value)
}

// newRegistry builds the demo command registry served by all
// front-ends. Notes are persisted in the given database.
func newRegistry(db kv.Database) (*chatcmd.Registry, error) {
	registry := chatcmd.NewRegistry()

	echo := chatcmd.NewCommand("echo").Describe("Replies with the given text")
	if err := echo.AddArgSet(chatcmd.NewArgument("text").Varargs(true).Optional(true)); err != nil {
		return nil, err
	}
	echo.Handle(func(ctx context.Context, args chatcmd.ParsedArgs, extra ...any) (any, error) {
		return strings.Join(args.Raw(), " "), nil
	})

	add := chatcmd.NewCommand("add").Describe("Adds the given decimal values")
	if err := add.AddArgSet(chatcmd.NewArgument("value").Varargs(true).Preprocess(decimalValue)); err != nil {
		return nil, err
	}
	add.Handle(func(ctx context.Context, args chatcmd.ParsedArgs, extra ...any) (any, error) {
		sum := decimal.Zero
		for _, v := range args["value"].([]any) {
			sum = sum.Add(v.(decimal.Decimal))
		}
		return sum.String(), nil
	})

	mul := chatcmd.NewCommand("mul").Describe("Multiplies the given decimal values")
	if err := mul.AddArgSet(chatcmd.NewArgument("value").Varargs(true).Preprocess(decimalValue)); err != nil {
		return nil, err
	}
	mul.Handle(func(ctx context.Context, args chatcmd.ParsedArgs, extra ...any) (any, error) {
		product := decimal.NewFromInt(1)
		for _, v := range args["value"].([]any) {
			product = product.Mul(v.(decimal.Decimal))
		}
		return product.String(), nil
	})

	note := chatcmd.NewCommand("note").Describe("Saves or recalls a named note")
	if err := note.AddArgSet(chatcmd.NewArgument("name"), chatcmd.NewArgument("text").Varargs(true).Optional(true)); err != nil {
		return nil, err
	}
	note.Handle(func(ctx context.Context, args chatcmd.ParsedArgs, extra ...any) (any, error) {
		return noteHandler(ctx, db, args)
	})

	stats := chatcmd.NewCommand("stats").Describe("Prints host and process memory usage")
	stats.Handle(func(ctx context.Context, args chatcmd.ParsedArgs, extra ...any) (any, error) {
		return statsHandler(ctx)
	})

	uptime := chatcmd.NewCommand("uptime").Describe("Prints the service uptime")
	uptime.Handle(func(ctx context.Context, args chatcmd.ParsedArgs, extra ...any) (any, error) {
		const day = 24 * time.Hour
		d := time.Since(start)
		if d < day {
			return d.Round(time.Second).String(), nil
		}
		return fmt.Sprintf("%dd%v", d/day, (d % day).Round(time.Second)), nil
	})

	for _, cmd := range []*chatcmd.Command{echo, add, mul, note, stats, uptime} {
		if err := registry.Add(cmd); err != nil {
			return nil, err
		}
	}
	registry.SetDefaultHandler(nil)
	registry.SetHelpHandler(nil)
	return registry, nil
}

func noteKey(name string) string {
	return path.Join("/notes", name)
}

func noteHandler(ctx context.Context, db kv.Database, args chatcmd.ParsedArgs) (any, error) {
	name := args["name"].(string)

	raw := args.Raw()
	if len(raw) > 1 {
		text := strings.Join(raw[1:], " ")
		if err := kvutil.SetDB(ctx, db, noteKey(name), &text); err != nil {
			return nil, err
		}
		return "saved", nil
	}

	text, err := kvutil.GetDB[string](ctx, db, noteKey(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("no note named %q", name)
		}
		return nil, err
	}
	return *text, nil
}

func statsHandler(ctx context.Context) (any, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return nil, err
	}
	p, err := process.NewProcessWithContext(ctx, int32(os.Getpid()))
	if err != nil {
		return nil, err
	}
	pm, err := p.MemoryInfoWithContext(ctx)
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "host: %v/%v MiB used (%.1f%%)\n",
		vm.Used/1024/1024, vm.Total/1024/1024, vm.UsedPercent)
	fmt.Fprintf(&sb, "process: rss %v MiB, vms %v MiB",
		pm.RSS/1024/1024, pm.VMS/1024/1024)
	return sb.String(), nil
}
