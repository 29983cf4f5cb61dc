package engine

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// GuardrailResult is the verdict of a guardrail check.
type GuardrailResult struct {
	Allowed bool
	Warning string
}

// Guardrails decide whether a wallet may start another chat turn.
type Guardrails interface {
	Check(ctx context.Context, key string) (*GuardrailResult, error)
	RecordSuccess(ctx context.Context, key string)
}

// RateLimiter is a token bucket per key.
type RateLimiter struct {
	limit rate.Limit
	burst int

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	served   map[string]int
}

// NewRateLimiter allows perMinute turns per key with the given burst.
func NewRateLimiter(perMinute, burst int) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		limit:    rate.Every(time.Minute / time.Duration(max(perMinute, 1))),
		burst:    burst,
		limiters: make(map[string]*rate.Limiter),
		served:   make(map[string]int),
	}
}

func (r *RateLimiter) limiter(key string) *rate.Limiter {
	key = strings.ToLower(key)
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.limiters[key]
	if !ok {
		l = rate.NewLimiter(r.limit, r.burst)
		r.limiters[key] = l
	}
	return l
}

func (r *RateLimiter) Check(_ context.Context, key string) (*GuardrailResult, error) {
	if r.limiter(key).Allow() {
		return &GuardrailResult{Allowed: true}, nil
	}
	return &GuardrailResult{
		Allowed: false,
		Warning: "You're sending messages too quickly. Please wait a moment and try again.",
	}, nil
}

func (r *RateLimiter) RecordSuccess(_ context.Context, key string) {
	r.mu.Lock()
	r.served[strings.ToLower(key)]++
	r.mu.Unlock()
}

// Served returns how many turns completed for key.
func (r *RateLimiter) Served(key string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.served[strings.ToLower(key)]
}
