package backoff

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

type Backoff struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
	currentInterval time.Duration
}

func New(initial, max time.Duration, multiplier float64) *Backoff {
	return &Backoff{
		InitialInterval: initial,
		MaxInterval:     max,
		Multiplier:      multiplier,
	}
}

// Next returns the next wait, grown by Multiplier and capped at MaxInterval,
// with ±10% jitter.
func (b *Backoff) Next() time.Duration {
	if b.currentInterval == 0 {
		b.currentInterval = b.InitialInterval
	} else {
		b.currentInterval = time.Duration(float64(b.currentInterval) * b.Multiplier)
		if b.currentInterval > b.MaxInterval {
			b.currentInterval = b.MaxInterval
		}
	}

	jitter := time.Duration(rand.Float64()*0.2*float64(b.currentInterval)) -
		time.Duration(0.1*float64(b.currentInterval))

	return b.currentInterval + jitter
}

func (b *Backoff) Reset() {
	b.currentInterval = 0
}

// Retry calls fn until it succeeds, attempts run out, or ctx is done.
// The last error from fn is returned when every attempt fails.
func Retry(ctx context.Context, b *Backoff, attempts int, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			b.Reset()
			return nil
		}
		if i == attempts-1 {
			break
		}

		select {
		case <-time.After(b.Next()):
		case <-ctx.Done():
			return fmt.Errorf("retry aborted after %d attempts: %w", i+1, ctx.Err())
		}
	}

	return fmt.Errorf("giving up after %d attempts: %w", attempts, err)
}
