package servlin

import (
	"context"
	"sync"
)

// Token is a move-only admission-control capability: acquiring one from a
// TokenPool is what lets a goroutine accept and serve one connection, and
// releasing it (exactly once) returns the slot to the pool. The zero value
// is not a valid Token; every Token in circulation came from
// TokenPool.Acquire.
type Token struct {
	pool *TokenPool
	once sync.Once
}

// Release returns the token to its pool. It is safe to call more than
// once; only the first call has any effect, which is what lets a handler
// hold onto a token across a defer and an explicit early release without
// double-counting.
func (t *Token) Release() {
	if t == nil {
		return
	}
	t.once.Do(func() {
		if t.pool != nil {
			t.pool.release()
		}
	})
}

// TokenPool bounds the number of Tokens that can be outstanding at once,
// realizing the admission-control semaphore described by the connection
// engine: the accept loop blocks on Acquire (or AcquireContext, to also
// respect shutdown) before calling Accept on the listener, so the number of
// concurrently-served connections never exceeds the pool's size.
type TokenPool struct {
	slots chan struct{}
}

// NewTokenPool creates a pool with room for size concurrently outstanding
// tokens. size must be at least 1.
func NewTokenPool(size int) *TokenPool {
	if size < 1 {
		size = 1
	}
	return &TokenPool{slots: make(chan struct{}, size)}
}

// Acquire blocks until a slot is free, then returns a Token bound to this
// pool.
func (p *TokenPool) Acquire() *Token {
	p.slots <- struct{}{}
	return &Token{pool: p}
}

// AcquireContext blocks until a slot is free or ctx is done, whichever
// happens first; this is what lets the accept loop wait on a token and the
// shutdown signal at once instead of only being able to unblock on
// Accept().
func (p *TokenPool) AcquireContext(ctx context.Context) (*Token, error) {
	select {
	case p.slots <- struct{}{}:
		return &Token{pool: p}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// TryAcquire returns a Token immediately if a slot is free, or nil, false
// otherwise.
func (p *TokenPool) TryAcquire() (*Token, bool) {
	select {
	case p.slots <- struct{}{}:
		return &Token{pool: p}, true
	default:
		return nil, false
	}
}

func (p *TokenPool) release() {
	<-p.slots
}

// Len reports how many tokens are currently outstanding.
func (p *TokenPool) Len() int {
	return len(p.slots)
}
