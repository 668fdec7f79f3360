package app

import (
	"time"

	"golang.org/x/time/rate"
)

type chatKey struct {
	roomID   string
	playerID string
}

// chatWindow is one player's budget for the window starting at start
type chatWindow struct {
	limiter *rate.Limiter
	start   time.Time
}

// ChatLimiter allows each player a fixed number of messages per fixed
// window. It is owned by the coordinator loop and is not safe for
// concurrent use.
type ChatLimiter struct {
	count   int
	window  time.Duration
	windows map[chatKey]*chatWindow
}

// NewChatLimiter allows count messages per window. count <= 0 disables limiting.
func NewChatLimiter(count int, window time.Duration) *ChatLimiter {
	l := &ChatLimiter{
		count:   count,
		window:  window,
		windows: make(map[chatKey]*chatWindow),
	}
	if window <= 0 {
		l.count = 0
	}
	return l
}

// Allow reports whether the player may send a message at now
func (l *ChatLimiter) Allow(roomID, playerID string, now time.Time) bool {
	if l.count <= 0 {
		return true
	}

	key := chatKey{roomID: roomID, playerID: playerID}
	w, ok := l.windows[key]
	if !ok || now.Sub(w.start) >= l.window {
		// A full bucket refilling at one token per window never earns a
		// token back before the window closes
		w = &chatWindow{
			limiter: rate.NewLimiter(rate.Every(l.window), l.count),
			start:   now,
		}
		l.windows[key] = w
	}
	return w.limiter.AllowN(now, 1)
}

// Forget drops a player's budget
func (l *ChatLimiter) Forget(roomID, playerID string) {
	delete(l.windows, chatKey{roomID: roomID, playerID: playerID})
}

// ForgetRoom drops every budget in a room
func (l *ChatLimiter) ForgetRoom(roomID string) {
	for key := range l.windows {
		if key.roomID == roomID {
			delete(l.windows, key)
		}
	}
}
