// Package ratelimit caps outbound provider calls with a sliding window.
//
// The window is process-global and shared by every user. It is kept in memory
// only and starts empty after a restart.
package ratelimit

import (
	"sync"
	"time"
)

const (
	DefaultLimit  = 5
	DefaultWindow = 60 * time.Second

	// pendingRetryAfter is reported when the window is full of in-flight
	// reservations and holds no committed timestamps yet.
	pendingRetryAfter = time.Second
)

// Decision is the outcome of an admission check.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
}

// Stats is a snapshot of the window.
type Stats struct {
	Used    int
	Pending int
	Limit   int
	Window  time.Duration
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock overrides time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		l.now = now
	}
}

// Limiter admits at most limit successful calls per window.
type Limiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	stamps  []time.Time
	pending int
	now     func() time.Time
}

// New creates a limiter. Non-positive values fall back to the defaults.
func New(limit int, window time.Duration, opts ...Option) *Limiter {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if window <= 0 {
		window = DefaultWindow
	}
	l := &Limiter{
		limit:  limit,
		window: window,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Admit reports whether a call would be admitted right now. It records nothing.
func (l *Limiter) Admit() Decision {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.check(l.now())
}

// Reserve holds a slot for an in-flight call. The caller must Commit on
// success or Cancel on failure. A nil reservation is returned when rejected.
func (l *Limiter) Reserve() (*Reservation, Decision) {
	l.mu.Lock()
	defer l.mu.Unlock()

	d := l.check(l.now())
	if !d.Allowed {
		return nil, d
	}
	l.pending++
	return &Reservation{l: l}, d
}

// Record appends a timestamp for a call made outside a reservation.
func (l *Limiter) Record() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stamps = append(l.stamps, l.now())
}

// Stats returns the current window usage.
func (l *Limiter) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prune(l.now())
	return Stats{
		Used:    len(l.stamps),
		Pending: l.pending,
		Limit:   l.limit,
		Window:  l.window,
	}
}

// check must be called with mu held.
func (l *Limiter) check(now time.Time) Decision {
	l.prune(now)
	if len(l.stamps)+l.pending < l.limit {
		return Decision{Allowed: true}
	}
	if len(l.stamps) == 0 {
		return Decision{RetryAfter: pendingRetryAfter}
	}
	retry := l.window - now.Sub(l.stamps[0])
	if retry <= 0 {
		retry = pendingRetryAfter
	}
	return Decision{RetryAfter: retry}
}

// prune drops timestamps that fell out of the window. Must be called with mu held.
func (l *Limiter) prune(now time.Time) {
	i := 0
	for i < len(l.stamps) && now.Sub(l.stamps[i]) >= l.window {
		i++
	}
	if i > 0 {
		l.stamps = append(l.stamps[:0], l.stamps[i:]...)
	}
}

// Reservation is a held slot in the window.
type Reservation struct {
	l    *Limiter
	once sync.Once
}

// Commit records the call's success timestamp.
func (r *Reservation) Commit() {
	r.once.Do(func() {
		r.l.mu.Lock()
		defer r.l.mu.Unlock()
		r.l.pending--
		r.l.stamps = append(r.l.stamps, r.l.now())
	})
}

// Cancel releases the slot without consuming budget.
func (r *Reservation) Cancel() {
	r.once.Do(func() {
		r.l.mu.Lock()
		defer r.l.mu.Unlock()
		r.l.pending--
	})
}
