// Copyright (c) 2025 BVK Chaitanya

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"path"
	"path/filepath"
	"syscall"

	"github.com/bvk/chatcmd/console"
	"github.com/bvk/chatcmd/server"
	"github.com/bvk/chatcmd/telegram"

	"github.com/bvkgo/kvbadger"
	"github.com/dgraph-io/badger/v4"
	"github.com/nightlyone/lockfile"
	"github.com/visvasity/cli"
	"github.com/visvasity/sglog"
)

type Run struct {
	port int
	ip   string

	noConsole bool
	debug     bool

	prompt      string
	secretsPath string
	dataDir     string
}

func (c *Run) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("run", flag.ContinueOnError)
	fset.IntVar(&c.port, "port", 10000, "TCP port number for the websocket console")
	fset.StringVar(&c.ip, "ip", "127.0.0.1", "TCP ip address for the websocket console")
	fset.BoolVar(&c.noConsole, "no-console", false, "when true the local console is not started")
	fset.BoolVar(&c.debug, "debug", false, "when true debug level logging is enabled")
	fset.StringVar(&c.prompt, "prompt", "> ", "local console prompt")
	fset.StringVar(&c.secretsPath, "secrets-file", "", "path to telegram credentials file")
	fset.StringVar(&c.dataDir, "data-dir", "", "path to the data directory")
	return "run", fset, cli.CmdFunc(c.run)
}

func (c *Run) Purpose() string {
	return "Runs the chatbot service in foreground"
}

func (c *Run) run(ctx context.Context, args []string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(c.dataDir) == 0 {
		c.dataDir = filepath.Join(os.Getenv("HOME"), ".chatbot")
	}
	if _, err := os.Stat(c.dataDir); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("could not stat data directory %q: %w", c.dataDir, err)
		}
		if err := os.MkdirAll(c.dataDir, 0700); err != nil {
			return fmt.Errorf("could not create data directory %q: %w", c.dataDir, err)
		}
	}
	dataDir, err := filepath.Abs(c.dataDir)
	if err != nil {
		return fmt.Errorf("could not determine data-dir %q absolute path: %w", c.dataDir, err)
	}

	logDir := filepath.Join(dataDir, "logs")
	if err := os.MkdirAll(logDir, 0700); err != nil {
		return fmt.Errorf("could not create log directory %q: %w", logDir, err)
	}
	backend := sglog.NewBackend(&sglog.Options{
		LogDirs: []string{logDir},
	})
	defer backend.Close()
	if c.debug {
		backend.SetLevel(slog.LevelDebug)
	}
	slog.SetDefault(slog.New(backend.Handler()))

	if ip := net.ParseIP(c.ip); ip == nil {
		return fmt.Errorf("invalid ip address")
	}
	if c.port <= 0 {
		return fmt.Errorf("invalid port number")
	}
	addr := &net.TCPAddr{
		IP:   net.ParseIP(c.ip),
		Port: c.port,
	}

	lockPath := filepath.Join(dataDir, "chatbot.lock")
	flock, err := lockfile.New(lockPath)
	if err != nil {
		return fmt.Errorf("could not create lock file %q: %w", lockPath, err)
	}
	if err := flock.TryLock(); err != nil {
		return fmt.Errorf("could not get lock on file %q: %w", lockPath, err)
	}
	defer flock.Unlock()

	// Open the database.
	bopts := badger.DefaultOptions(filepath.Join(dataDir, "db"))
	bdb, err := badger.Open(bopts)
	if err != nil {
		return fmt.Errorf("could not open the database: %w", err)
	}
	defer bdb.Close()
	db := kvbadger.New(bdb, isGoodKey)

	registry, err := newRegistry(db)
	if err != nil {
		return err
	}

	l, err := net.Listen("tcp", addr.String())
	if err != nil {
		return fmt.Errorf("could not listen on %s: %w", addr, err)
	}
	defer l.Close()

	s, err := server.New(registry)
	if err != nil {
		return err
	}
	defer s.Close()
	go s.Serve(ctx, l)
	slog.Info("started websocket console", "addr", addr)

	if secrets := c.telegramSecrets(dataDir); secrets != nil {
		t, err := telegram.New(ctx, db, secrets, registry)
		if err != nil {
			return fmt.Errorf("could not start telegram front-end: %w", err)
		}
		defer t.Close()
		slog.Info("started telegram front-end", "bot", t.BotUserName())
	}

	if c.noConsole {
		<-ctx.Done()
		return nil
	}

	repl, err := console.New(registry, c.prompt)
	if err != nil {
		return err
	}
	return repl.Run(ctx)
}

// telegramSecrets loads the telegram credentials, if any. A missing
// credentials file just disables the telegram front-end.
func (c *Run) telegramSecrets(dataDir string) *telegram.Secrets {
	p := c.secretsPath
	if len(p) == 0 {
		p = filepath.Join(dataDir, "telegram-creds.json")
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if len(c.secretsPath) != 0 {
			slog.Error("could not read telegram credentials file (ignored)", "file", p, "err", err)
		}
		return nil
	}
	s := new(telegram.Secrets)
	if err := json.Unmarshal(data, s); err != nil {
		slog.Error("could not parse telegram credentials file (ignored)", "file", p, "err", err)
		return nil
	}
	return s
}

func isGoodKey(k string) bool {
	return path.IsAbs(k) && k == path.Clean(k)
}
