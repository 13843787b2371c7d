// Package worker provides an asynchronous worker pool for persisting finished
// chat turns with the provided storage.Driver and announcing them on the
// provided eventstream.Publisher.
//
// The pool decouples storage from the chat loop so that a slow database or
// broker never delays the next question.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/papercomputeco/botconsole/pkg/eventstream"
	"github.com/papercomputeco/botconsole/pkg/logger"
	"github.com/papercomputeco/botconsole/pkg/storage"
)

var (
	defaultNumWorkers   uint = 2
	defaultJobQueueSize uint = 64
)

// Job is a unit of work for the worker pool to execute against.
type Job struct {
	Turn *storage.Turn
}

// Config is the configuration options for the worker pool.
type Config struct {
	// Driver is the storage backend for persisting turns.
	Driver storage.Driver

	// Publisher is the optional event stream for finished turns.
	Publisher eventstream.Publisher

	// Source is stamped on every published event.
	Source eventstream.EventSource

	// NumWorkers is the number of background workers in the pool.
	NumWorkers uint

	// QueueSize is the capacity of the buffered job channel (defaults to 64).
	QueueSize uint

	Logger *slog.Logger
}

// Pool processes turn jobs asynchronously via a worker pool.
type Pool struct {
	config *Config
	queue  chan Job
	wg     sync.WaitGroup
	logger *slog.Logger

	mu     sync.RWMutex
	closed bool

	// pending counts queued and in-flight jobs; drained is closed whenever
	// it is zero.
	pendingMu sync.Mutex
	pending   int
	drained   chan struct{}
}

// NewPool creates a new Pool and starts its worker goroutines.
func NewPool(c *Config) (*Pool, error) {
	if c.Driver == nil {
		return nil, fmt.Errorf("storage driver is required")
	}

	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}

	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}

	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}

	if c.Logger == nil {
		c.Logger = logger.Nop()
	}

	wp := &Pool{
		config:  c,
		queue:   make(chan Job, c.QueueSize),
		logger:  c.Logger.With("component", "worker"),
		drained: make(chan struct{}),
	}
	close(wp.drained)

	wp.wg.Add(int(c.NumWorkers))
	for i := range c.NumWorkers {
		go wp.worker(i)
	}

	return wp, nil
}

// Enqueue submits a job for processing by the worker pool.
// Returns true if enqueued, false if the queue is full or the pool is
// closed, resulting in the job being dropped.
func (p *Pool) Enqueue(job Job) bool {
	if job.Turn == nil {
		return false
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		p.logger.Warn("job not queued, pool closed", "turn_id", job.Turn.ID)
		return false
	}

	p.track(1)
	select {
	case p.queue <- job:
		p.logger.Debug("job queued", "turn_id", job.Turn.ID)
		return true
	default:
		p.track(-1)
		p.logger.Error("job not queued, queue full, job dropped", "turn_id", job.Turn.ID)
		return false
	}
}

// Flush blocks until every job enqueued so far has been processed, without
// closing the pool. It returns ctx.Err() if ctx ends first.
func (p *Pool) Flush(ctx context.Context) error {
	p.pendingMu.Lock()
	drained := p.drained
	p.pendingMu.Unlock()

	select {
	case <-drained:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pool) track(delta int) {
	p.pendingMu.Lock()
	defer p.pendingMu.Unlock()

	if p.pending == 0 && delta > 0 {
		p.drained = make(chan struct{})
	}
	p.pending += delta
	if p.pending == 0 {
		close(p.drained)
	}
}

// Close signals workers to stop and waits for in-flight jobs to drain.
// It is safe to call more than once.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	p.wg.Wait()
}

// worker is the inner worker thread that continuously pulls jobs off the jobs queue
func (p *Pool) worker(id uint) {
	defer p.wg.Done()
	p.logger.Debug("worker started", "worker_id", id)

	for job := range p.queue {
		p.processJob(job)
		p.track(-1)
	}

	p.logger.Debug("worker stopped", "worker_id", id)
}

// processJob stores the turn and then publishes it. A failed save skips the
// publish so subscribers never see a turn that is not in storage.
func (p *Pool) processJob(job Job) {
	ctx := context.Background()

	if err := p.config.Driver.SaveTurn(ctx, job.Turn); err != nil {
		p.logger.Error("async turn storage failed",
			"turn_id", job.Turn.ID,
			"error", err,
		)
		return
	}

	p.logger.Debug("turn stored",
		"turn_id", job.Turn.ID,
		"agent", job.Turn.AgentToken,
		"outcome", job.Turn.Outcome,
	)

	if p.config.Publisher == nil {
		return
	}

	event := eventstream.NewTurnCompletedEvent(job.Turn, p.config.Source)
	if err := p.config.Publisher.PublishTurn(ctx, event); err != nil {
		p.logger.Warn("failed to publish turn event",
			"turn_id", job.Turn.ID,
			"error", err,
		)
	}
}
