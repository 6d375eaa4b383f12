// Package ratelimit implements the multi-bucket token-bucket limiter
// guarding exchange interaction. Grounded on the three composed
// *rate.Limiter buckets in AlejandroRuiz99-polybot's
// internal/adapters/polymarket/client.go (clobLimiter/gammaLimiter/
// booksLimiter, each rate.NewLimiter(ratePerSec, burst)); generalized
// here from three named endpoint buckets to the request/order/weight
// triple the exchange API actually doles out quota against.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// Limiter composes independent request, order, and weight buckets.
// AcquireRequest(ctx, weight) must obtain 1 request-token AND weight
// weight-tokens before returning; AcquireOrder(ctx, weight) does the same
// against the order bucket.
type Limiter struct {
	request *rate.Limiter
	order   *rate.Limiter
	weight  *rate.Limiter
}

// New builds a Limiter from the exchange's documented per-second
// request rate (rps), per-second order rate (ops), and per-minute
// weight budget (weightPerMinute). Bucket capacities follow spec:
// request/order buckets hold 2x their refill rate; the weight bucket
// holds the full per-minute budget refilled at weightPerMinute/60.
func New(rps, ops float64, weightPerMinute int) *Limiter {
	return &Limiter{
		request: rate.NewLimiter(rate.Limit(rps), int(2*rps)),
		order:   rate.NewLimiter(rate.Limit(ops), int(2*ops)),
		weight:  rate.NewLimiter(rate.Limit(float64(weightPerMinute)/60.0), weightPerMinute),
	}
}

// AcquireRequest blocks until 1 request token and weight weight-tokens
// are both available, or ctx is cancelled.
func (l *Limiter) AcquireRequest(ctx context.Context, weight int) error {
	if err := l.request.Wait(ctx); err != nil {
		return fmt.Errorf("ratelimit: request bucket: %w", err)
	}
	if weight > 0 {
		if err := l.weight.WaitN(ctx, weight); err != nil {
			return fmt.Errorf("ratelimit: weight bucket: %w", err)
		}
	}
	return nil
}

// AcquireOrder blocks until 1 order token and weight weight-tokens are
// both available, or ctx is cancelled.
func (l *Limiter) AcquireOrder(ctx context.Context, weight int) error {
	if err := l.order.Wait(ctx); err != nil {
		return fmt.Errorf("ratelimit: order bucket: %w", err)
	}
	if weight > 0 {
		if err := l.weight.WaitN(ctx, weight); err != nil {
			return fmt.Errorf("ratelimit: weight bucket: %w", err)
		}
	}
	return nil
}

// TryAcquireRequest is the non-blocking variant; it returns false
// immediately if either bucket lacks sufficient tokens right now.
func (l *Limiter) TryAcquireRequest(weight int) bool {
	if !l.request.Allow() {
		return false
	}
	if weight > 0 && !l.weight.AllowN(time.Now(), weight) {
		return false
	}
	return true
}
