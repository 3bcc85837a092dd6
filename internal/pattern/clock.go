package pattern

import "time"

// Timer is a pending continuation that can be cancelled.
type Timer interface {
	// Stop prevents the continuation from running. It reports false if the
	// continuation already ran or was already stopped.
	Stop() bool
}

// Clock schedules continuations. Production code uses the wall clock;
// tests substitute a manual one.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type wallClock struct{}

func (wallClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// task is the handle stored on a playing pattern. A continuation only
// acts if its task is still the one on the pattern when it fires.
type task struct {
	timer Timer
}

func (t *task) cancel() {
	if t != nil && t.timer != nil {
		t.timer.Stop()
	}
}
