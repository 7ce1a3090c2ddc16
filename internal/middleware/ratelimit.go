package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"

	"connectrpc.com/connect"
	"golang.org/x/time/rate"
)

// ErrRateLimited is returned when a caller exceeds its request budget.
var ErrRateLimited = errors.New("rate limit exceeded, try again shortly")

// RateLimiter keeps one token bucket per caller.
type RateLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.Mutex
	rate     rate.Limit
	burst    int

	// procedures limits enforcement to these procedures; empty means all.
	procedures map[string]bool
}

// NewRateLimiter creates a limiter allowing perMinute requests per caller with
// the given burst. When procedures are given only those are limited.
func NewRateLimiter(perMinute, burst int, procedures ...string) *RateLimiter {
	rl := &RateLimiter{
		limiters:   make(map[string]*rate.Limiter),
		rate:       rate.Limit(float64(perMinute) / 60),
		burst:      burst,
		procedures: make(map[string]bool, len(procedures)),
	}
	for _, p := range procedures {
		rl.procedures[p] = true
	}
	return rl
}

// getLimiter returns a rate limiter for the given key (user ID or peer address)
func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	limiter, exists := rl.limiters[key]
	if !exists {
		limiter = rate.NewLimiter(rl.rate, rl.burst)
		rl.limiters[key] = limiter
	}
	return limiter
}

// Interceptor returns the rate limiting interceptor. It must run after the
// auth interceptor so authenticated callers are keyed by user ID.
func (rl *RateLimiter) Interceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			procedure := req.Spec().Procedure
			if len(rl.procedures) > 0 && !rl.procedures[procedure] {
				return next(ctx, req)
			}

			key := GetUserID(ctx)
			if key == "" {
				key = peerHost(req.Peer().Addr)
			}

			if !rl.getLimiter(key).Allow() {
				slog.Warn("Rate limit exceeded", "key", key, "procedure", procedure)
				return nil, connect.NewError(connect.CodeResourceExhausted, ErrRateLimited)
			}
			return next(ctx, req)
		}
	}
}

// Cleanup drops all limiters once the map grows past maxKeys.
func (rl *RateLimiter) Cleanup(maxKeys int) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if len(rl.limiters) > maxKeys {
		rl.limiters = make(map[string]*rate.Limiter)
	}
}

// peerHost drops the port so every connection from one host shares a bucket.
func peerHost(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}
