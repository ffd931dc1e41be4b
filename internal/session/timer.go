package session

import (
	"math"
	"sync"
	"time"
)

// RestTimer is a resumable countdown whose authoritative state is a
// wall-clock end timestamp, not a decrementing counter. Remaining time is
// recomputed from the end timestamp on every read, so elapsed time is
// recovered correctly after the process is suspended and resumed. The
// completion callback fires exactly once.
type RestTimer struct {
	mu     sync.Mutex
	clock  func() time.Time
	onFire func()

	duration time.Duration
	end      time.Time
	// pausedRemaining snapshots the remaining time while paused; the end
	// timestamp is cleared until resume.
	pausedRemaining time.Duration
	running         bool
	paused          bool
	fired           bool
	stop            chan struct{}
}

func newRestTimer(d time.Duration, clock func() time.Time, onFire func()) *RestTimer {
	if clock == nil {
		clock = time.Now
	}
	return &RestTimer{duration: d, clock: clock, onFire: onFire}
}

// Start begins the countdown: end = now + duration.
func (t *RestTimer) Start() {
	t.mu.Lock()
	if t.running {
		t.mu.Unlock()
		return
	}
	t.end = t.clock().Add(t.duration)
	t.running = true
	t.paused = false
	t.fired = false
	t.stop = make(chan struct{})
	stop := t.stop
	t.mu.Unlock()

	go t.tickLoop(stop)
}

// tickLoop wakes once a second and recomputes remaining time from the end
// timestamp. Stopping the loop is always safe: remaining time is
// recoverable from the timestamp at any future wake-up.
func (t *RestTimer) tickLoop(stop chan struct{}) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if t.fireIfExpired() {
				return
			}
		}
	}
}

// fireIfExpired fires the completion callback once the countdown reaches
// zero while running. Returns true when the timer is finished or stopped.
func (t *RestTimer) fireIfExpired() bool {
	t.mu.Lock()
	if !t.running || t.paused {
		done := !t.running
		t.mu.Unlock()
		return done
	}
	if t.clock().Before(t.end) {
		t.mu.Unlock()
		return false
	}
	t.running = false
	alreadyFired := t.fired
	t.fired = true
	onFire := t.onFire
	t.mu.Unlock()

	if onFire != nil && !alreadyFired {
		onFire()
	}
	return true
}

// Remaining returns the seconds-granularity time left: while running,
// max(0, ceil(end − now)); while paused, the pause snapshot.
func (t *RestTimer) Remaining() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.paused {
		return t.pausedRemaining
	}
	if !t.running {
		return 0
	}
	rem := t.end.Sub(t.clock())
	if rem <= 0 {
		return 0
	}
	return time.Duration(math.Ceil(rem.Seconds())) * time.Second
}

// Pause snapshots the remaining time and clears the end timestamp.
func (t *RestTimer) Pause() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running || t.paused {
		return
	}
	rem := t.end.Sub(t.clock())
	if rem < 0 {
		rem = 0
	}
	t.pausedRemaining = time.Duration(math.Ceil(rem.Seconds())) * time.Second
	t.end = time.Time{}
	t.paused = true
}

// Resume recomputes the end timestamp as now + the pause snapshot.
func (t *RestTimer) Resume() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running || !t.paused {
		return
	}
	t.end = t.clock().Add(t.pausedRemaining)
	t.pausedRemaining = 0
	t.paused = false
}

// Cancel stops the timer without firing.
func (t *RestTimer) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running {
		return
	}
	t.running = false
	t.paused = false
	if t.stop != nil {
		close(t.stop)
		t.stop = nil
	}
}

// Paused reports whether the timer is paused.
func (t *RestTimer) Paused() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.paused
}

// Running reports whether the countdown is active (paused counts as
// running; it has not fired or been cancelled).
func (t *RestTimer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}
