package recording

import "time"

// Backoff tracks one retry sequence as a plain value: the attempt number
// just issued, the total allowed, and the fixed delay between attempts.
type Backoff struct {
	Attempt int
	Max     int
	Delay   time.Duration
}

// Next returns the backoff for the following attempt and whether another
// attempt is allowed. Once the bound is hit the sequence is over for good.
func (b Backoff) Next() (Backoff, bool) {
	if b.Attempt >= b.Max {
		return b, false
	}
	b.Attempt++
	return b, true
}

// Scheduler abstracts timer scheduling so retry sequences can be driven
// deterministically in tests and cancelled on teardown.
type Scheduler interface {
	// AfterFunc runs fn after d and returns a cancel function. Cancelling
	// after the timer fired is a no-op.
	AfterFunc(d time.Duration, fn func()) (cancel func())
}

// TimerScheduler is the production Scheduler backed by time.AfterFunc.
type TimerScheduler struct{}

func (TimerScheduler) AfterFunc(d time.Duration, fn func()) func() {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}
