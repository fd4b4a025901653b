// Copyright (c) 2025 BVK Chaitanya

// Command chatbot runs a demo command registry behind a local console,
// a websocket console server, and an optional Telegram front-end.
package main

import (
	"context"
	"log"
	"os"

	"github.com/visvasity/cli"
)

func main() {
	cmds := []cli.Command{
		new(Run),
		new(Version),
	}
	if err := cli.Run(context.Background(), cmds, os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}
