// Copyright (c) 2025 BVK Chaitanya

package server

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bvk/chatcmd"

	"github.com/gorilla/websocket"
)

func newTestRegistry(t *testing.T) *chatcmd.Registry {
	t.Helper()

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
	return registry
}

func TestConsoleSession(t *testing.T) {
	s, err := New(newTestRegistry(t))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	hs := httptest.NewServer(s.Handler())
	defer hs.Close()

	wsURL := "ws" + strings.TrimPrefix(hs.URL, "http")

	watch, _, err := websocket.DefaultDialer.Dial(wsURL+"/watch", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer watch.Close()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"/console", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	if err := conn.WriteMessage(websocket.TextMessage, []byte("echo hello world")); err != nil {
		t.Fatal(err)
	}
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatal(err)
	}
	if string(msg) != "hello world" {
		t.Fatalf("want %q, got %q", "hello world", msg)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte("bogus")); err != nil {
		t.Fatal(err)
	}
	_, msg, err = conn.ReadMessage()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(msg), "error: ") {
		t.Fatalf("want an error reply, got %q", msg)
	}

	watch.SetReadDeadline(time.Now().Add(5 * time.Second))

	var event Event
	if err := watch.ReadJSON(&event); err != nil {
		t.Fatal(err)
	}
	if event.Line != "echo hello world" || event.Result != "hello world" {
		t.Fatalf("unexpected first event: %+v", event)
	}
	if len(event.Session) == 0 {
		t.Fatalf("want a session id in the event")
	}

	if err := watch.ReadJSON(&event); err != nil {
		t.Fatal(err)
	}
	if event.Line != "bogus" || len(event.Error) == 0 {
		t.Fatalf("unexpected second event: %+v", event)
	}
}

func TestServerClose(t *testing.T) {
	s, err := New(newTestRegistry(t))
	if err != nil {
		t.Fatal(err)
	}

	hs := httptest.NewServer(s.Handler())
	defer hs.Close()

	wsURL := "ws" + strings.TrimPrefix(hs.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"/console", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatalf("want the session to terminate after Close")
	}
}
