// Copyright (c) 2025 BVK Chaitanya

package ctxutil

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestCloseGroup(t *testing.T) {
	var cg CloseGroup

	var done atomic.Int32
	for i := 0; i < 10; i++ {
		cg.Go(func(ctx context.Context) {
			<-ctx.Done()
			done.Add(1)
		})
	}

	cg.Close()
	if v := done.Load(); v != 10 {
		t.Fatalf("want 10 goroutines to finish, got %d", v)
	}
	if err := context.Cause(cg.Context()); err == nil {
		t.Fatalf("group context must be canceled after Close")
	}
}

func TestSleep(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	Sleep(ctx, time.Minute)
	if d := time.Since(start); d > time.Second {
		t.Fatalf("sleep did not return on canceled context: %v", d)
	}
}
