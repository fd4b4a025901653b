// Copyright (c) 2025 BVK Chaitanya

package chatcmd

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestPromiseSettled(t *testing.T) {
	ctx := context.Background()

	p := settled(42, nil)
	if !p.Settled() {
		t.Fatalf("want a settled promise")
	}
	v, err := p.Wait(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if v != 42 {
		t.Fatalf("want 42, got %v", v)
	}
}

func TestPromiseSpawned(t *testing.T) {
	ctx := context.Background()

	started := make(chan struct{})
	p := spawn(func() (string, error) {
		<-started
		return "done", nil
	})
	close(started)
	v, err := p.Wait(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if v != "done" {
		t.Fatalf("want done, got %v", v)
	}
	if !p.Settled() {
		t.Fatalf("promise must report settled after Wait")
	}
}

func TestPromiseWaitTimeout(t *testing.T) {
	block := make(chan struct{})
	defer close(block)

	p := spawn(func() (int, error) {
		<-block
		return 0, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := p.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("want deadline exceeded, got %v", err)
	}
}

func TestPromisePanic(t *testing.T) {
	ctx := context.Background()

	p := spawn(func() (int, error) {
		panic("spawned panic")
	})
	if _, err := p.Wait(ctx); err == nil {
		t.Fatalf("want an error, got nil")
	}
}
