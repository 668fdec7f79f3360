package app

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSweeper struct {
	calls atomic.Int32
}

func (s *countingSweeper) Sweep(context.Context) error {
	s.calls.Add(1)
	return nil
}

func TestJanitor_SweepsUntilCancelled(t *testing.T) {
	sweeper := &countingSweeper{}
	j := NewJanitor(sweeper, 5*time.Millisecond, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- j.Run(ctx) }()

	assert.Eventually(t, func() bool { return sweeper.calls.Load() >= 2 }, time.Second, time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop")
	}
}

func TestJanitor_DrivesCoordinatorSweep(t *testing.T) {
	h := newHarness(t)
	h.join(t, "c1", "R", "Alice")
	h.c.Dispatch(Leave{ConnRef: "c1"})
	h.registry.GetOrCreate("STALE", t0)
	h.clock.Advance(time.Hour)

	j := NewJanitor(h.c, time.Millisecond, discardLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go j.Run(ctx)

	assert.Eventually(t, func() bool { return len(h.c.inbox) > 0 }, time.Second, time.Millisecond)
	cancel()
	h.drain()

	assert.Zero(t, h.registry.Len())
}
