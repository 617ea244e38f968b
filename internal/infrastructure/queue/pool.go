package queue

import (
	"context"
	"runtime"
	"time"

	"github.com/rs/zerolog"

	"github.com/motoconnect/auth-service/internal/api/metrics"
)

const channelBuffer = 256

type job struct {
	op   string
	fn   func()
	done chan struct{}
}

// Pool runs password derivations on a fixed set of workers so that a burst of
// logins cannot occupy every CPU. A job, once picked up, always runs to
// completion; callers may stop waiting for it but cannot interrupt it.
type Pool struct {
	workers int
	jobs    chan job
	log     zerolog.Logger
}

// NewPool creates a Pool with numWorkers workers.
// If numWorkers <= 0, GOMAXPROCS is used.
func NewPool(numWorkers int, log zerolog.Logger) *Pool {
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}
	return &Pool{
		workers: numWorkers,
		jobs:    make(chan job, channelBuffer),
		log:     log,
	}
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.workers; i++ {
		go p.runWorker(ctx, i)
	}
	p.log.Info().Int("workers", p.workers).Msg("derivation pool started")
}

// Do queues fn and blocks until it has run or ctx is done. When ctx ends
// first, ctx.Err() is returned and fn may still run later; callers must not
// read anything fn writes in that case.
func (p *Pool) Do(ctx context.Context, op string, fn func()) error {
	j := job{op: op, fn: fn, done: make(chan struct{})}

	metrics.DerivationQueueDepth.Inc()
	select {
	case p.jobs <- j:
	case <-ctx.Done():
		metrics.DerivationQueueDepth.Dec()
		return ctx.Err()
	}

	select {
	case <-j.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pool) runWorker(ctx context.Context, id int) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-p.jobs:
			metrics.DerivationQueueDepth.Dec()
			start := time.Now()
			j.fn()
			metrics.DerivationDuration.WithLabelValues(j.op).Observe(time.Since(start).Seconds())
			close(j.done)
			p.log.Trace().Int("worker_id", id).Str("op", j.op).Msg("derivation done")
		}
	}
}
