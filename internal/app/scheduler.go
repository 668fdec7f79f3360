package app

import (
	"sync"
	"time"
)

// Scheduler runs delayed callbacks grouped by key
type Scheduler interface {
	// Schedule runs fn after delay unless the key is cancelled first
	Schedule(key string, delay time.Duration, fn func())

	// Cancel stops every pending callback for key
	Cancel(key string)

	// Stop cancels everything
	Stop()
}

// TimerScheduler is a Scheduler backed by time.AfterFunc
type TimerScheduler struct {
	mu     sync.Mutex
	timers map[string]map[*time.Timer]struct{}
}

// NewTimerScheduler creates a TimerScheduler
func NewTimerScheduler() *TimerScheduler {
	return &TimerScheduler{
		timers: make(map[string]map[*time.Timer]struct{}),
	}
}

// Schedule implements Scheduler
func (s *TimerScheduler) Schedule(key string, delay time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var timer *time.Timer
	timer = time.AfterFunc(delay, func() {
		if !s.release(key, timer) {
			return
		}
		fn()
	})

	set, ok := s.timers[key]
	if !ok {
		set = make(map[*time.Timer]struct{})
		s.timers[key] = set
	}
	set[timer] = struct{}{}
}

// Cancel implements Scheduler
func (s *TimerScheduler) Cancel(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for timer := range s.timers[key] {
		timer.Stop()
	}
	delete(s.timers, key)
}

// Stop implements Scheduler
func (s *TimerScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, set := range s.timers {
		for timer := range set {
			timer.Stop()
		}
		delete(s.timers, key)
	}
}

// Pending returns the number of callbacks waiting for key
func (s *TimerScheduler) Pending(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers[key])
}

// release forgets a fired timer. It returns false if the timer was
// cancelled after it fired but before it got here.
func (s *TimerScheduler) release(key string, timer *time.Timer) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.timers[key]
	if !ok {
		return false
	}
	if _, ok := set[timer]; !ok {
		return false
	}
	delete(set, timer)
	if len(set) == 0 {
		delete(s.timers, key)
	}
	return true
}
