package worker

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Request is one page to process
type Request struct {
	URL        string
	Label      string
	RetryCount int
}

// Handler processes a request and returns follow-up requests to enqueue
type Handler func(ctx context.Context, req Request) ([]Request, error)

// FailedHandler is called once a request has exhausted its retries
type FailedHandler func(ctx context.Context, req Request, err error)

// Options configures the pool
type Options struct {
	Workers       int
	MaxRetries    int
	RateLimit     time.Duration
	RetryDelay    time.Duration
	MaxRetryDelay time.Duration
}

// Stats summarizes a run
type Stats struct {
	Handled int64
	Failed  int64
	Retried int64
}

// Pool manages a pool of worker goroutines draining a request queue
type Pool struct {
	opts     Options
	handler  Handler
	onFailed FailedHandler
	logger   *zap.Logger

	handled atomic.Int64
	failed  atomic.Int64
	retried atomic.Int64
}

// NewPool creates a new worker pool
func NewPool(opts Options, handler Handler, logger *zap.Logger) *Pool {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pool{
		opts:    opts,
		handler: handler,
		logger:  logger,
	}
}

// OnFailed sets the callback for requests that failed after all retries
func (p *Pool) OnFailed(fn FailedHandler) {
	p.onFailed = fn
}

// Run processes seeds and everything they enqueue until the queue drains
// or ctx is cancelled. Requests whose URL was already seen are dropped.
func (p *Pool) Run(ctx context.Context, seeds []Request) (Stats, error) {
	p.handled.Store(0)
	p.failed.Store(0)
	p.retried.Store(0)

	q := newQueue()
	accepted := 0
	for _, r := range seeds {
		if q.add(r) {
			accepted++
		}
	}
	if accepted == 0 {
		return Stats{}, nil
	}

	// Create a rate limiter
	var tick <-chan time.Time
	if p.opts.RateLimit > 0 {
		rateLimiter := time.NewTicker(p.opts.RateLimit)
		defer rateLimiter.Stop()
		tick = rateLimiter.C
	}

	g, gctx := errgroup.WithContext(ctx)
	stop := context.AfterFunc(gctx, q.close)
	defer stop()

	for w := 1; w <= p.opts.Workers; w++ {
		id := w
		g.Go(func() error {
			return p.worker(gctx, id, q, tick)
		})
	}
	err := g.Wait()

	stats := Stats{
		Handled: p.handled.Load(),
		Failed:  p.failed.Load(),
		Retried: p.retried.Load(),
	}
	return stats, err
}

// worker processes requests from the queue until it drains. It returns the
// context error when it stopped because the run was cancelled.
func (p *Pool) worker(ctx context.Context, id int, q *queue, tick <-chan time.Time) error {
	for {
		req, ok := q.next()
		if !ok {
			return ctx.Err()
		}

		if tick != nil {
			select {
			case <-tick:
			case <-ctx.Done():
				q.done()
				return ctx.Err()
			}
		}

		p.logger.Debug("worker processing request",
			zap.Int("worker", id), zap.String("url", req.URL), zap.Int("retry", req.RetryCount))

		next, err := p.safeHandle(ctx, req)
		switch {
		case err == nil:
			p.handled.Add(1)
			for _, n := range next {
				q.add(n)
			}
			q.done()
		case ctx.Err() != nil:
			q.done()
		case req.RetryCount < p.opts.MaxRetries:
			delay := p.retryDelay(req.RetryCount)
			p.retried.Add(1)
			p.logger.Warn("request failed, retrying",
				zap.String("url", req.URL), zap.Int("retry", req.RetryCount+1),
				zap.Duration("delay", delay), zap.Error(err))
			req.RetryCount++
			p.scheduleRetry(q, req, delay)
		default:
			p.failed.Add(1)
			if p.onFailed != nil {
				p.onFailed(ctx, req, err)
			}
			q.done()
		}
	}
}

func (p *Pool) safeHandle(ctx context.Context, req Request) (next []Request, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return p.handler(ctx, req)
}

// retryDelay returns the jittered exponential delay before retry attempt n+1
func (p *Pool) retryDelay(attempt int) time.Duration {
	if p.opts.RetryDelay <= 0 {
		return 0
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.opts.RetryDelay
	if p.opts.MaxRetryDelay > 0 {
		b.MaxInterval = p.opts.MaxRetryDelay
	}
	b.MaxElapsedTime = 0
	b.Reset()

	d := b.NextBackOff()
	for i := 0; i < attempt; i++ {
		d = b.NextBackOff()
	}
	return d
}

func (p *Pool) scheduleRetry(q *queue, req Request, delay time.Duration) {
	if delay <= 0 {
		q.requeue(req)
		return
	}
	time.AfterFunc(delay, func() { q.requeue(req) })
}
