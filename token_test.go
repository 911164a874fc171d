package servlin

import (
	"context"
	"testing"
	"time"
)

func TestTokenPoolBoundsConcurrency(t *testing.T) {
	pool := NewTokenPool(2)
	t1 := pool.Acquire()
	t2 := pool.Acquire()
	if _, ok := pool.TryAcquire(); ok {
		t.Fatalf("TryAcquire should fail once the pool is exhausted")
	}
	t1.Release()
	tok, ok := pool.TryAcquire()
	if !ok {
		t.Fatalf("TryAcquire should succeed after a release")
	}
	tok.Release()
	t2.Release()
	if pool.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", pool.Len())
	}
}

func TestTokenPoolAcquireContextSucceedsWhenSlotFree(t *testing.T) {
	pool := NewTokenPool(1)
	tok, err := pool.AcquireContext(context.Background())
	if err != nil {
		t.Fatalf("AcquireContext: %v", err)
	}
	tok.Release()
}

func TestTokenPoolAcquireContextUnblocksOnCancel(t *testing.T) {
	pool := NewTokenPool(1)
	held := pool.Acquire()
	defer held.Release()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := pool.AcquireContext(ctx)
		done <- err
	}()

	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Fatalf("err = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("AcquireContext did not unblock after cancellation")
	}
}

func TestTokenReleaseIsIdempotent(t *testing.T) {
	pool := NewTokenPool(1)
	tok := pool.Acquire()
	tok.Release()
	tok.Release()
	if pool.Len() != 0 {
		t.Fatalf("Len() = %d, want 0 after double release", pool.Len())
	}
}
