package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestChatLimiter(t *testing.T) {
	l := NewChatLimiter(5, 10*time.Second)

	for i := 0; i < 5; i++ {
		assert.True(t, l.Allow("R", "p1", t0), "message %d", i+1)
	}
	assert.False(t, l.Allow("R", "p1", t0))

	// Limits are per player and per room
	assert.True(t, l.Allow("R", "p2", t0))
	assert.True(t, l.Allow("OTHER", "p1", t0))

	// Nothing is earned back before the window closes
	assert.False(t, l.Allow("R", "p1", t0.Add(9*time.Second)))
	assert.False(t, l.Allow("R", "p1", t0.Add(10*time.Second-time.Millisecond)))

	// A new window starts with a full budget
	for i := 0; i < 5; i++ {
		assert.True(t, l.Allow("R", "p1", t0.Add(10*time.Second)), "message %d", i+1)
	}
	assert.False(t, l.Allow("R", "p1", t0.Add(10*time.Second)))

	l.Forget("R", "p1")
	assert.True(t, l.Allow("R", "p1", t0.Add(11*time.Second)))

	l.ForgetRoom("R")
	assert.Len(t, l.windows, 1)
}

func TestChatLimiter_SteadySenderGetsCountPerWindow(t *testing.T) {
	l := NewChatLimiter(5, 10*time.Second)

	allowed := 0
	for at := time.Duration(0); at < 10*time.Second; at += 100 * time.Millisecond {
		if l.Allow("R", "p1", t0.Add(at)) {
			allowed++
		}
	}
	assert.Equal(t, 5, allowed)
}

func TestChatLimiter_Disabled(t *testing.T) {
	for _, l := range []*ChatLimiter{NewChatLimiter(0, time.Second), NewChatLimiter(3, 0)} {
		for i := 0; i < 100; i++ {
			assert.True(t, l.Allow("R", "p1", t0))
		}
		assert.Empty(t, l.windows)
	}
}
