// Copyright (c) 2025 BVK Chaitanya

// Package server implements a remote console over websockets. Console
// sessions send command lines as text messages and receive the result
// (or error text) of each line as the response. Every executed line is
// also published to watch sessions, which receive a JSON event stream
// of all console traffic.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/bvk/chatcmd"
	"github.com/bvk/chatcmd/ctxutil"

	"github.com/bvkgo/topic"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Event describes one executed console line. Watch sessions receive
// these as JSON text messages.
type Event struct {
	Session string    `json:"session"`
	At      time.Time `json:"at"`
	Line    string    `json:"line"`
	Result  string    `json:"result,omitempty"`
	Error   string    `json:"error,omitempty"`
}

// Server dispatches websocket console sessions through a command
// registry.
type Server struct {
	cg ctxutil.CloseGroup

	registry *chatcmd.Registry

	upgrader websocket.Upgrader

	events *topic.Topic[*Event]
}

// New returns a websocket console server over the given registry.
func New(registry *chatcmd.Registry) (*Server, error) {
	if registry == nil {
		return nil, os.ErrInvalid
	}
	s := &Server{
		registry: registry,
		events:   topic.New[*Event](),
	}
	return s, nil
}

// Close stops all live sessions and releases the server resources.
func (s *Server) Close() error {
	s.cg.Close()
	s.events.Close()
	return nil
}

// Handler returns the http handler serving the console endpoints
// "/console" and "/watch".
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/console", s.handleConsole)
	mux.HandleFunc("/watch", s.handleWatch)
	return mux
}

// Serve runs an http server for the console endpoints on the given
// listener until the context is canceled.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	hs := &http.Server{
		Handler: s.Handler(),
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}
	s.cg.Go(func(ctx context.Context) {
		<-ctx.Done()
		hs.Shutdown(context.Background())
	})
	if err := hs.Serve(l); err != nil && ctx.Err() == nil {
		return err
	}
	return context.Cause(ctx)
}

// readLine reads one text message from the connection, unblocking
// early when the context expires.
func readLine(ctx context.Context, conn *websocket.Conn) (string, error) {
	stopc := make(chan struct{})
	stop := context.AfterFunc(ctx, func() {
		conn.SetReadDeadline(time.Now())
		close(stopc)
	})

	_, msg, err := conn.ReadMessage()
	if !stop() {
		// The AfterFunc was started. Wait for it to complete, and
		// reset the Conn's deadline.
		<-stopc
		conn.SetReadDeadline(time.Time{})
		return "", context.Cause(ctx)
	}
	if err != nil {
		return "", err
	}
	return string(msg), nil
}

func (s *Server) handleConsole(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("could not upgrade console connection", "err", err)
		return
	}

	session := uuid.New().String()
	s.cg.Go(func(ctx context.Context) {
		defer conn.Close()
		if err := s.console(ctx, session, conn); err != nil && ctx.Err() == nil {
			slog.Warn("console session closed", "session", session, "err", err)
		}
	})
}

func (s *Server) console(ctx context.Context, session string, conn *websocket.Conn) error {
	for ctx.Err() == nil {
		line, err := readLine(ctx, conn)
		if err != nil {
			return err
		}

		event := &Event{
			Session: session,
			At:      time.Now(),
			Line:    line,
		}

		result, err := s.registry.Execute(ctx, line).Wait(ctx)
		var reply string
		switch {
		case err != nil:
			event.Error = err.Error()
			reply = "error: " + event.Error
		case result != nil:
			event.Result = fmt.Sprint(result)
			reply = event.Result
		default:
			reply = "ok"
		}
		s.events.Send(event)

		if err := conn.WriteMessage(websocket.TextMessage, []byte(reply)); err != nil {
			return err
		}
	}
	return context.Cause(ctx)
}

func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request) {
	// Subscribe before the upgrade handshake completes, so that a
	// client sees every event published after its dial returns.
	sub, ch, err := s.events.Subscribe(16, false /* includeRecent */)
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("could not upgrade watch connection", "err", err)
		sub.Unsubscribe()
		return
	}

	s.cg.Go(func(ctx context.Context) {
		defer conn.Close()
		defer sub.Unsubscribe()

		// Drain incoming messages so that client-side close
		// handshakes are processed.
		go func() {
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-ch:
				if !ok {
					return
				}
				if err := conn.WriteJSON(event); err != nil {
					return
				}
			}
		}
	})
}
