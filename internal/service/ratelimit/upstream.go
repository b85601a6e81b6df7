package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	minBackoff = 100 * time.Millisecond
	maxBackoff = 2 * time.Minute
)

// Upstream paces calls to an external API and backs off after 429s.
type Upstream struct {
	limiter *rate.Limiter
	name    string

	mu      sync.Mutex
	backoff time.Duration
	until   time.Time
}

// NewUpstream allows perMinute calls per minute with a small burst.
func NewUpstream(name string, perMinute int) *Upstream {
	if perMinute < 1 {
		perMinute = 1
	}
	burst := perMinute / 10
	if burst < 1 {
		burst = 1
	}
	if burst > 5 {
		burst = 5
	}
	return &Upstream{
		limiter: rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), burst),
		name:    name,
		backoff: minBackoff,
	}
}

// Name returns the limiter name.
func (u *Upstream) Name() string { return u.name }

// Wait blocks until a token is available and any backoff has elapsed, or ctx ends.
func (u *Upstream) Wait(ctx context.Context) error {
	u.mu.Lock()
	delay := time.Until(u.until)
	u.mu.Unlock()

	if delay > 0 {
		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
	return u.limiter.Wait(ctx)
}

// SignalRateLimited doubles the backoff applied before the next call.
func (u *Upstream) SignalRateLimited() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.until = time.Now().Add(u.backoff)
	u.backoff *= 2
	if u.backoff > maxBackoff {
		u.backoff = maxBackoff
	}
}

// ResetBackoff clears the backoff after a successful call.
func (u *Upstream) ResetBackoff() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.backoff = minBackoff
	u.until = time.Time{}
}

// Backoff returns the delay the next 429 will impose.
func (u *Upstream) Backoff() time.Duration {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.backoff
}
