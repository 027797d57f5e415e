// Package jobs runs recurring background sweeps, such as the pending-payment
// poll, on a small in-process worker pool.
package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Sweep is one pass of a recurring background task. Attempt counts retries
// after a failed pass.
type Sweep struct {
	Kind    string
	Attempt int
	Queued  time.Time
}

// SweepFunc executes one sweep pass.
type SweepFunc func(context.Context, Sweep) error

// PoolConfig configures worker pool behaviour.
type PoolConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
	Logger     *zap.Logger
}

// Pool dispatches sweeps to a fixed set of goroutines. Failed sweeps are
// retried with a delay up to MaxRetries times.
type Pool struct {
	name string
	run  SweepFunc

	workers    int
	bufferSize int
	maxRetries int
	retryDelay time.Duration
	logger     *zap.Logger

	sweeps  chan Sweep
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	started bool
}

// NewPool builds a pool that executes sweeps with run.
func NewPool(name string, run SweepFunc, cfg PoolConfig) *Pool {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = cfg.Workers * 4
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Pool{
		name:       name,
		run:        run,
		workers:    cfg.Workers,
		bufferSize: cfg.BufferSize,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		logger:     cfg.Logger,
		sweeps:     make(chan Sweep, cfg.BufferSize),
	}
}

// Start begins worker consumption. Safe to call once.
func (p *Pool) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	p.ctx, p.cancel = context.WithCancel(ctx)
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	p.started = true
	p.logger.Sugar().Infow("sweep pool started", "pool", p.name, "workers", p.workers)
}

// Stop cancels workers and waits for them to exit.
func (p *Pool) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.cancel()
	p.mu.Unlock()
	p.wg.Wait()
	p.logger.Sugar().Infow("sweep pool stopped", "pool", p.name)
}

// Trigger queues one sweep pass.
func (p *Pool) Trigger(sweep Sweep) error {
	p.mu.Lock()
	ctx := p.ctx
	started := p.started
	p.mu.Unlock()

	if !started {
		return fmt.Errorf("pool %s not started", p.name)
	}
	if sweep.Queued.IsZero() {
		sweep.Queued = time.Now().UTC()
	}

	select {
	case <-ctx.Done():
		return fmt.Errorf("pool %s stopped: %w", p.name, ctx.Err())
	case p.sweeps <- sweep:
		return nil
	}
}

// RunEvery triggers a sweep of the given kind on every tick until ctx is
// done, then stops the pool. It returns immediately.
func (p *Pool) RunEvery(ctx context.Context, interval time.Duration, kind string) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		defer p.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := p.Trigger(Sweep{Kind: kind}); err != nil {
					p.logger.Sugar().Warnw("sweep trigger skipped", "pool", p.name, "kind", kind, "error", err)
				}
			}
		}
	}()
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		case sweep := <-p.sweeps:
			if err := p.run(p.ctx, sweep); err != nil {
				p.retry(sweep, err)
			}
		}
	}
}

func (p *Pool) retry(sweep Sweep, err error) {
	sweep.Attempt++
	if sweep.Attempt > p.maxRetries {
		p.logger.Sugar().Errorw("sweep exceeded retries", "pool", p.name, "kind", sweep.Kind, "error", err)
		return
	}
	p.logger.Sugar().Warnw("sweep failed, retrying", "pool", p.name, "kind", sweep.Kind, "attempt", sweep.Attempt, "error", err)

	go func(s Sweep) {
		timer := time.NewTimer(p.retryDelay)
		defer timer.Stop()
		select {
		case <-p.ctx.Done():
			return
		case <-timer.C:
			if err := p.Trigger(s); err != nil {
				p.logger.Sugar().Errorw("failed to requeue sweep", "pool", p.name, "kind", s.Kind, "error", err)
			}
		}
	}(sweep)
}
