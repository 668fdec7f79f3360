package app

import (
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"mafia/internal/domain"
)

var t0 = time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// recordingNotifier keeps every event per connection
type recordingNotifier struct {
	mu      sync.Mutex
	sent    map[string][]*domain.GameEvent
	offline map[string]bool
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{
		sent:    make(map[string][]*domain.GameEvent),
		offline: make(map[string]bool),
	}
}

func (n *recordingNotifier) Send(connRef string, event *domain.GameEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent[connRef] = append(n.sent[connRef], event)
	return nil
}

func (n *recordingNotifier) Connected(connRef string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return !n.offline[connRef]
}

func (n *recordingNotifier) setOffline(connRef string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.offline[connRef] = true
}

func (n *recordingNotifier) events(connRef string, eventType domain.EventType) []*domain.GameEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []*domain.GameEvent
	for _, e := range n.sent[connRef] {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

func (n *recordingNotifier) last(t *testing.T, connRef string, eventType domain.EventType) *domain.GameEvent {
	t.Helper()
	events := n.events(connRef, eventType)
	require.NotEmpty(t, events, "no %s sent to %s", eventType, connRef)
	return events[len(events)-1]
}

func (n *recordingNotifier) reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = make(map[string][]*domain.GameEvent)
}

// mockNotifier is a testify mock of Notifier
type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Send(connRef string, event *domain.GameEvent) error {
	args := m.Called(connRef, event)
	return args.Error(0)
}

func (m *mockNotifier) Connected(connRef string) bool {
	args := m.Called(connRef)
	return args.Bool(0)
}

// manualScheduler holds callbacks until the test fires them
type manualScheduler struct {
	pending   []scheduled
	cancelled []string
}

type scheduled struct {
	key   string
	delay time.Duration
	fn    func()
}

func (s *manualScheduler) Schedule(key string, delay time.Duration, fn func()) {
	s.pending = append(s.pending, scheduled{key: key, delay: delay, fn: fn})
}

func (s *manualScheduler) Cancel(key string) {
	s.cancelled = append(s.cancelled, key)
	kept := s.pending[:0]
	for _, p := range s.pending {
		if p.key != key {
			kept = append(kept, p)
		}
	}
	s.pending = kept
}

func (s *manualScheduler) Stop() {
	s.pending = nil
}

// fire runs every pending callback and returns how many ran
func (s *manualScheduler) fire() int {
	due := s.pending
	s.pending = nil
	for _, p := range due {
		p.fn()
	}
	return len(due)
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// inOrder deals roles in join order
type inOrder struct{}

func (inOrder) Shuffle(int, func(i, j int)) {}

type panicShuffler struct{}

func (panicShuffler) Shuffle(int, func(i, j int)) { panic("deck on fire") }

type harness struct {
	c        *Coordinator
	registry *Registry
	notifier *recordingNotifier
	sched    *manualScheduler
	clock    *fakeClock
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger := discardLogger()
	h := &harness{
		registry: NewRegistry(domain.DefaultGameSettings(), logger),
		notifier: newRecordingNotifier(),
		sched:    &manualScheduler{},
		clock:    &fakeClock{now: t0},
	}
	h.c = NewCoordinator(h.registry, h.notifier, logger, Options{
		ChatMaxLength: 50,
		RoomExpiry:    5 * time.Minute,
		PlayerGrace:   2 * time.Minute,
		Limiter:       NewChatLimiter(2, 10*time.Second),
		Scheduler:     h.sched,
		Shuffler:      inOrder{},
		Clock:         h.clock.Now,
	})
	return h
}

// drain runs queued work the way the loop would
func (h *harness) drain() {
	for {
		select {
		case fn := <-h.c.inbox:
			h.c.safely(fn)
		default:
			return
		}
	}
}

// fireTimers runs due callbacks and the work they queue
func (h *harness) fireTimers() int {
	n := h.sched.fire()
	h.drain()
	return n
}

// join dispatches a join and returns the new player's id
func (h *harness) join(t *testing.T, connRef, roomID, name string) string {
	t.Helper()
	h.c.Dispatch(Join{ConnRef: connRef, RoomID: roomID, Name: name})
	joined := h.notifier.last(t, connRef, domain.EventJoined)
	return joined.Payload.(*domain.JoinedPayload).PlayerID
}

func (h *harness) errorCode(t *testing.T, connRef string) string {
	t.Helper()
	return h.notifier.last(t, connRef, domain.EventError).Payload.(*domain.ErrorPayload).Code
}

func (h *harness) room(t *testing.T, id string) *domain.Room {
	t.Helper()
	room, err := h.registry.Get(id)
	require.NoError(t, err)
	return room
}
