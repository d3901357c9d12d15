package queue

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	// ErrQueueFull is returned by Dispatcher.Publish when the buffer is full.
	ErrQueueFull = errors.New("audit queue full")
	// ErrDispatcherStopped is returned by Publish before Start and after Stop.
	ErrDispatcherStopped = errors.New("audit dispatcher not running")
)

// Dispatcher is a Publisher that hands events to a small pool of workers,
// so request handlers never wait on the broker.  Publish never blocks: a
// full buffer drops the event.
type Dispatcher struct {
	next    Publisher
	jobs    chan AuditEvent
	workers int
	timeout time.Duration
	log     zerolog.Logger

	mu      sync.Mutex
	started bool
	stopped bool
	wg      sync.WaitGroup
}

// NewDispatcher wraps next with a buffer of size queueSize drained by
// workers goroutines.  Each delivery gets its own timeout.
func NewDispatcher(next Publisher, workers, queueSize int, timeout time.Duration, log zerolog.Logger) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Dispatcher{
		next:    next,
		jobs:    make(chan AuditEvent, queueSize),
		workers: workers,
		timeout: timeout,
		log:     log,
	}
}

// Start launches the workers.  A stopped dispatcher stays stopped.
func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started || d.stopped {
		return
	}
	d.started = true
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			d.work()
		}()
	}
}

// Stop closes the buffer and waits until every queued event was handed
// on.  It is final.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.started {
		d.stopped = true
		d.mu.Unlock()
		return
	}
	d.started, d.stopped = false, true
	close(d.jobs)
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) Publish(_ context.Context, ev AuditEvent) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.started {
		return ErrDispatcherStopped
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	select {
	case d.jobs <- ev:
		return nil
	default:
		return ErrQueueFull
	}
}

func (d *Dispatcher) work() {
	for ev := range d.jobs {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		if err := d.next.Publish(ctx, ev); err != nil {
			d.log.Error().Err(err).Str("action", ev.Action).Int64("entity_id", ev.EntityID).Msg("publish audit event")
		}
		cancel()
	}
}
