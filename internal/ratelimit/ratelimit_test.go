package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestLimiter_BurstThenRefill mirrors scenario S4: rps=10, capacity 20,
// 25 back-to-back acquires must all complete, incurring real wait time
// once the initial burst capacity is exhausted.
func TestLimiter_BurstThenRefill(t *testing.T) {
	l := New(10, 5, 1200)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	start := time.Now()
	for i := 0; i < 25; i++ {
		err := l.AcquireRequest(ctx, 0)
		assert.NoError(t, err)
	}
	elapsed := time.Since(start)

	assert.GreaterOrEqual(t, elapsed, 400*time.Millisecond)
}

func TestLimiter_TryAcquireNonBlocking(t *testing.T) {
	l := New(1, 1, 60)

	assert.True(t, l.TryAcquireRequest(0))
}

func TestLimiter_AcquireOrderRespectsContextCancellation(t *testing.T) {
	l := New(0.5, 0.5, 60)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	// Drain the small burst capacity first.
	_ = l.AcquireOrder(context.Background(), 0)

	err := l.AcquireOrder(ctx, 0)
	assert.Error(t, err)
}
