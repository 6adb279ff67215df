package store

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Latency is waited on before every medium access. Waits cannot be cancelled.
type Latency interface {
	Wait()
}

// LatencyFunc adapts a function to [Latency].
type LatencyFunc func()

func (f LatencyFunc) Wait() { f() }

type noLatency struct{}

func (noLatency) Wait() {}

// NoLatency returns immediately.
var NoLatency Latency = noLatency{}

// FixedLatency sleeps for d on every access, modelling a network round-trip.
func FixedLatency(d time.Duration) Latency {
	if d <= 0 {
		return NoLatency
	}
	return LatencyFunc(func() { time.Sleep(d) })
}

// rateLatency paces medium accesses through a token bucket.
type rateLatency struct {
	limiter *rate.Limiter
}

// RateLatency allows at most perSecond accesses per second with the given burst.
// A non-positive perSecond disables pacing.
func RateLatency(perSecond float64, burst int) Latency {
	if perSecond <= 0 {
		return NoLatency
	}
	if burst < 1 {
		burst = 1
	}
	return &rateLatency{limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

func (r *rateLatency) Wait() {
	// Background context: the wait models I/O and is never abandoned.
	_ = r.limiter.Wait(context.Background())
}

// ChainLatency waits on each strategy in order.
func ChainLatency(ls ...Latency) Latency {
	return LatencyFunc(func() {
		for _, l := range ls {
			if l != nil {
				l.Wait()
			}
		}
	})
}
