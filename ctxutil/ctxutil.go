// Copyright (c) 2025 BVK Chaitanya

// Package ctxutil implements small context helpers for managing
// background goroutines.
package ctxutil

import (
	"context"
	"os"
	"sync"
	"time"
)

// CloseGroup runs background goroutines under a shared context that
// is canceled by Close. Close waits for all goroutines to return. The
// zero value is ready to use.
type CloseGroup struct {
	once sync.Once

	ctx    context.Context
	cancel context.CancelCauseFunc

	wg sync.WaitGroup
}

func (cg *CloseGroup) init() {
	cg.once.Do(func() {
		cg.ctx, cg.cancel = context.WithCancelCause(context.Background())
	})
}

// Context returns the group context. It is canceled with os.ErrClosed
// when the group is closed.
func (cg *CloseGroup) Context() context.Context {
	cg.init()
	return cg.ctx
}

// Go runs f in a new goroutine with the group context.
func (cg *CloseGroup) Go(f func(ctx context.Context)) {
	cg.init()
	cg.wg.Add(1)
	go func() {
		defer cg.wg.Done()
		f(cg.ctx)
	}()
}

// Close cancels the group context and waits for every goroutine
// started with Go to return.
func (cg *CloseGroup) Close() {
	cg.init()
	cg.cancel(os.ErrClosed)
	cg.wg.Wait()
}

// Sleep blocks for the given duration or until the context is
// canceled, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) {
	sctx, scancel := context.WithTimeout(ctx, d)
	defer scancel()
	<-sctx.Done()
}
