package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu     sync.Mutex
	events []AuditEvent
	block  chan struct{}
}

func (r *recorder) Publish(_ context.Context, ev AuditEvent) error {
	if r.block != nil {
		<-r.block
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func TestDispatcherDeliversBeforeStop(t *testing.T) {
	rec := &recorder{}
	d := NewDispatcher(rec, 2, 10, time.Second, zerolog.Nop())
	d.Start()

	for i := int64(1); i <= 5; i++ {
		require.NoError(t, d.Publish(context.Background(), AuditEvent{Action: ActionTheaterUpdated, EntityID: i}))
	}
	d.Stop()

	assert.Len(t, rec.events, 5)
	for _, ev := range rec.events {
		assert.False(t, ev.OccurredAt.IsZero())
	}
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	rec := &recorder{block: make(chan struct{})}
	d := NewDispatcher(rec, 1, 1, time.Second, zerolog.Nop())
	d.Start()

	// the worker holds one event, the buffer holds one more
	require.NoError(t, d.Publish(context.Background(), AuditEvent{Action: ActionLogin}))
	assert.Eventually(t, func() bool { return len(d.jobs) == 0 }, time.Second, time.Millisecond)
	require.NoError(t, d.Publish(context.Background(), AuditEvent{Action: ActionLogin}))
	assert.ErrorIs(t, d.Publish(context.Background(), AuditEvent{Action: ActionLogin}), ErrQueueFull)

	close(rec.block)
	d.Stop()
	assert.Len(t, rec.events, 2)
}

func TestDispatcherRejectsWhenStopped(t *testing.T) {
	d := NewDispatcher(NopPublisher{}, 1, 1, time.Second, zerolog.Nop())
	assert.Error(t, d.Publish(context.Background(), AuditEvent{Action: ActionLogin}))
}

func TestDispatcherRestartAfterStop(t *testing.T) {
	d := NewDispatcher(&recorder{}, 1, 4, time.Second, zerolog.Nop())
	d.Start()
	d.Stop()
	d.Start()

	assert.NotPanics(t, func() {
		err := d.Publish(context.Background(), AuditEvent{Action: ActionTheaterCreated})
		assert.ErrorIs(t, err, ErrDispatcherStopped)
	})
	d.Stop()
}
