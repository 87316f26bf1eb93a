package pow

import (
	"context"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/GateproofHQ/gateproof"
	"github.com/GateproofHQ/gateproof/lib/challenge"
)

// Config tunes a solution search. The zero value asks for sane defaults.
type Config struct {
	// StartOffset is the first candidate nonce to test. Defaults to 0.
	StartOffset int64

	// Stride is the distance between consecutive candidates of one
	// worker. Defaults to Workers so that workers interleave over the
	// candidate space with no overlap and no gaps.
	Stride int64

	// Workers is the number of concurrent search workers. Defaults to
	// the detected runtime parallelism, minimum 1.
	Workers int

	// MaxNonce bounds the search so a hostile challenge cannot hang the
	// caller forever. Reaching it without success fails the search with
	// ErrSearchExhausted. Defaults to gateproof.DefaultMaxNonce.
	MaxNonce int64

	// CheckInterval is how many candidates a worker tests between
	// cancellation and expiry checks. It bounds the latency between one
	// worker finding a solution and the others stopping. Defaults to
	// gateproof.DefaultCheckInterval.
	CheckInterval int64

	// Test is the difficulty predicate. Defaults to Sha256Threshold.
	Test Test

	// Observer, when set, receives best-effort progress reports.
	Observer ProgressObserver
}

func (cfg Config) withDefaults() Config {
	if cfg.Workers < 1 {
		caps := DetectCapabilities()
		cfg.Workers = int(caps.MaxWorkers)
	}
	if cfg.Stride < 1 {
		cfg.Stride = int64(cfg.Workers)
	}
	if cfg.MaxNonce == 0 {
		cfg.MaxNonce = gateproof.DefaultMaxNonce
	}
	if cfg.CheckInterval < 1 {
		cfg.CheckInterval = gateproof.DefaultCheckInterval
	}
	if cfg.Test == nil {
		cfg.Test = Sha256Threshold
	}
	return cfg
}

// Solve searches for a nonce satisfying the challenge's difficulty
// predicate and returns it wrapped in a Response bound to the challenge.
//
// Worker i tests StartOffset+i, StartOffset+i+Stride, ... so every nonce in
// [StartOffset, MaxNonce] is tested by exactly one worker and the hot loop
// needs no shared state. The first worker to find a solution wins; the
// others observe the cancellation within one CheckInterval batch. With a
// single worker the scan is strictly ascending and deterministic; with
// more, the accepted solution is whichever satisfying candidate is found
// first in wall-clock time.
//
// Solve blocks until a solution is found, the candidate space up to
// MaxNonce is exhausted (ErrSearchExhausted), the challenge expires
// mid-search (challenge.ErrExpired), or ctx is done.
func Solve(ctx context.Context, c challenge.Challenge, cfg Config) (challenge.Response, error) {
	cfg = cfg.withDefaults()

	if err := c.Valid(); err != nil {
		return challenge.Response{}, err
	}
	if c.Expired() {
		return challenge.Response{}, challenge.ErrExpired
	}

	start := time.Now()
	parent := ctx
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg        sync.WaitGroup
		won       atomic.Bool
		winner    atomic.Int64
		expired   atomic.Bool
		errOnce   sync.Once
		workerErr error
	)

	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()

			// A predicate that panics must not leave the sibling
			// workers searching forever.
			defer func() {
				if r := recover(); r != nil {
					errOnce.Do(func() {
						workerErr = fmt.Errorf("%w: worker %d: %v", ErrWorkerPanic, worker, r)
					})
					cancel()
				}
			}()

			nonce := cfg.StartOffset + int64(worker)
			var tested int64
			var overflowed bool

			for !overflowed && nonce <= cfg.MaxNonce {
				batched := int64(0)
				for batched < cfg.CheckInterval && nonce <= cfg.MaxNonce {
					if cfg.Test(c.ChallengeParam, nonce) {
						if won.CompareAndSwap(false, true) {
							winner.Store(nonce)
						}
						cancel()
						return
					}

					batched++
					tested++

					if nonce > math.MaxInt64-cfg.Stride {
						overflowed = true
						break
					}
					nonce += cfg.Stride
				}

				candidatesTested.Add(float64(batched))
				if cfg.Observer != nil {
					cfg.Observer.Progress(worker, tested)
				}

				select {
				case <-ctx.Done():
					return
				default:
				}

				if c.Expired() {
					expired.Store(true)
					cancel()
					return
				}
			}
		}(i)
	}

	wg.Wait()
	searchDuration.Observe(time.Since(start).Seconds())

	switch {
	case won.Load():
		searchesFinished.WithLabelValues("solved").Inc()
		return challenge.NewResponse(c, winner.Load()), nil
	case workerErr != nil:
		searchesFinished.WithLabelValues("error").Inc()
		return challenge.Response{}, workerErr
	case parent.Err() != nil:
		searchesFinished.WithLabelValues("canceled").Inc()
		return challenge.Response{}, parent.Err()
	case expired.Load() || c.Expired():
		searchesFinished.WithLabelValues("expired").Inc()
		return challenge.Response{}, challenge.ErrExpired
	default:
		searchesFinished.WithLabelValues("exhausted").Inc()
		return challenge.Response{}, ErrSearchExhausted
	}
}
