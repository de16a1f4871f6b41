// Package lockout implements a keyed consecutive-failure lockout for
// credential-guessing endpoints. Unlike a request rate limit, the window
// is anchored to the first failure and a single success wipes the slate.
//
// The key is normally the client IP, which means users behind a shared
// NAT or proxy share a bucket. That is a documented limitation, not
// something to paper over here.
package lockout

import (
	"context"
	"sync"
	"time"
)

// Clock lets tests advance time deterministically.
type Clock func() time.Time

// Policy parameterises one limiter instance.
type Policy struct {
	MaxAttempts int
	Window      time.Duration
}

// The two policies the storefront runs with.
var (
	// LoginPolicy guards credential login: 5 failures per 15 minutes.
	LoginPolicy = Policy{MaxAttempts: 5, Window: 15 * time.Minute}

	// RecoveryPolicy guards password-recovery email requests: 3 per hour.
	RecoveryPolicy = Policy{MaxAttempts: 3, Window: time.Hour}
)

// Entry is the per-key failure counter. Created on first failure,
// deleted on success or once the window has fully elapsed.
type Entry struct {
	Attempts    int
	WindowStart time.Time
}

// Decision reports whether a request may proceed.
type Decision struct {
	Blocked    bool
	RetryAfter time.Duration
}

// Limiter tracks failure entries for one policy. All read-check-mutate
// sequences run under a single mutex so two concurrent failures from the
// same key cannot both observe "not yet blocked" and under-count.
type Limiter struct {
	policy Policy
	store  Store
	now    Clock

	mu sync.Mutex
}

// New builds a Limiter over the given store. A nil store gets the
// in-memory default; a nil clock gets time.Now.
func New(policy Policy, store Store, now Clock) *Limiter {
	if store == nil {
		store = NewMemoryStore()
	}
	if now == nil {
		now = time.Now
	}
	return &Limiter{policy: policy, store: store, now: now}
}

// Check reports whether the key is currently locked out. An entry whose
// window has fully elapsed is discarded on the spot; no background sweep
// exists or is needed.
func (l *Limiter) Check(ctx context.Context, key string) (Decision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok, err := l.load(ctx, key)
	if err != nil {
		return Decision{}, err
	}
	if !ok {
		return Decision{}, nil
	}

	if entry.Attempts >= l.policy.MaxAttempts {
		return Decision{
			Blocked:    true,
			RetryAfter: l.policy.Window - l.now().Sub(entry.WindowStart),
		}, nil
	}

	return Decision{}, nil
}

// Fail records one failed attempt. The window stays anchored to the
// first failure; later failures only bump the counter.
func (l *Limiter) Fail(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok, err := l.load(ctx, key)
	if err != nil {
		return err
	}

	if !ok {
		return l.store.Put(ctx, key, Entry{Attempts: 1, WindowStart: l.now()})
	}

	entry.Attempts++
	return l.store.Put(ctx, key, entry)
}

// Clear wipes the key's lockout state. Called on any successful
// authentication: the lockout punishes consecutive failures, it is not a
// fixed quota.
func (l *Limiter) Clear(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.store.Delete(ctx, key)
}

// load fetches the entry for key and lazily garbage-collects it if its
// window has elapsed. Caller must hold l.mu.
func (l *Limiter) load(ctx context.Context, key string) (Entry, bool, error) {
	entry, ok, err := l.store.Get(ctx, key)
	if err != nil || !ok {
		return Entry{}, false, err
	}

	if l.now().Sub(entry.WindowStart) > l.policy.Window {
		if err := l.store.Delete(ctx, key); err != nil {
			return Entry{}, false, err
		}
		return Entry{}, false, nil
	}

	return entry, true, nil
}
