// Package pool runs background work on a fixed number of goroutines fed by a
// bounded queue. Submission never blocks: a full queue is reported to the
// caller, who is expected to try again later.
package pool

import (
	"context"
	"errors"
	"runtime"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"gps_track_render/internal/metrics"
)

var (
	ErrQueueFull = errors.New("pool: queue full")
	ErrClosed    = errors.New("pool: closed")
)

// Task is a unit of background work. ctx is done when the pool closes.
type Task func(ctx context.Context)

type Config struct {
	Workers   int
	QueueSize int
}

func DefaultConfig() Config {
	return Config{
		Workers:   max(2, min(runtime.NumCPU()-1, 4)),
		QueueSize: 128,
	}
}

type Pool struct {
	queue  chan Task
	ctx    context.Context
	cancel context.CancelFunc
	eg     *errgroup.Group
	logger *zap.Logger

	mu     sync.RWMutex
	closed bool
}

// New starts cfg.Workers goroutines. Non-positive values fall back to
// DefaultConfig.
func New(cfg Config, logger *zap.Logger) *Pool {
	def := DefaultConfig()
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = def.QueueSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	eg, ctx := errgroup.WithContext(ctx)
	p := &Pool{
		queue:  make(chan Task, cfg.QueueSize),
		ctx:    ctx,
		cancel: cancel,
		eg:     eg,
		logger: logger,
	}

	for i := 0; i < cfg.Workers; i++ {
		workerID := i
		p.eg.Go(func() error {
			p.worker(workerID)
			return nil
		})
	}
	metrics.PoolActiveWorkers.Add(float64(cfg.Workers))

	logger.Debug("Worker pool started",
		zap.Int("workers", cfg.Workers),
		zap.Int("queue_size", cfg.QueueSize))
	return p
}

// TrySubmit queues t without blocking.
func (p *Pool) TrySubmit(t Task) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}

	select {
	case p.queue <- t:
		metrics.PoolQueueDepth.Inc()
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops accepting work, cancels the context handed to tasks, lets the
// workers drain the queue and waits for them.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	p.cancel()
	return p.eg.Wait()
}

func (p *Pool) worker(workerID int) {
	defer metrics.PoolActiveWorkers.Dec()

	// the queue is drained even after cancellation so that queued tasks see
	// the done context and release whatever they hold
	for t := range p.queue {
		metrics.PoolQueueDepth.Dec()
		p.run(workerID, t)
	}
}

func (p *Pool) run(workerID int, t Task) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("Background task panicked",
				zap.Int("worker_id", workerID),
				zap.Any("panic", r))
		}
	}()
	t(p.ctx)
}

var (
	defaultOnce sync.Once
	defaultPool *Pool
)

// Default returns the process wide pool, built on first use with
// DefaultConfig and no logging.
func Default() *Pool {
	defaultOnce.Do(func() {
		defaultPool = New(DefaultConfig(), nil)
	})
	return defaultPool
}
