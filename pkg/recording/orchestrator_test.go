package recording

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeScheduler queues callbacks so tests drive retry ticks by hand.
type fakeScheduler struct {
	mu      sync.Mutex
	pending []*fakeTimer
}

type fakeTimer struct {
	d         time.Duration
	fn        func()
	cancelled bool
}

func (s *fakeScheduler) AfterFunc(d time.Duration, fn func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTimer{d: d, fn: fn}
	s.pending = append(s.pending, t)
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		t.cancelled = true
	}
}

// tick fires every currently queued timer exactly once.
func (s *fakeScheduler) tick() {
	s.mu.Lock()
	batch := s.pending
	s.pending = nil
	s.mu.Unlock()
	for _, t := range batch {
		if !t.cancelled {
			t.fn()
		}
	}
}

func (s *fakeScheduler) queued() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.pending {
		if !t.cancelled {
			n++
		}
	}
	return n
}

type fakeStarter struct {
	mu    sync.Mutex
	errs  map[Flavor]error
	calls map[Flavor][]StartRequest
}

func newFakeStarter(errs map[Flavor]error) *fakeStarter {
	return &fakeStarter{errs: errs, calls: make(map[Flavor][]StartRequest)}
}

func (f *fakeStarter) StartRecording(_ context.Context, req StartRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[req.Flavor] = append(f.calls[req.Flavor], req)
	return f.errs[req.Flavor]
}

func (f *fakeStarter) count(flavor Flavor) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls[flavor])
}

func TestBackoffBound(t *testing.T) {
	b := Backoff{Attempt: 1, Max: 3, Delay: time.Second}
	var ok bool
	if b, ok = b.Next(); !ok || b.Attempt != 2 {
		t.Fatalf("expected attempt 2, got %+v ok=%v", b, ok)
	}
	if b, ok = b.Next(); !ok || b.Attempt != 3 {
		t.Fatalf("expected attempt 3, got %+v ok=%v", b, ok)
	}
	if _, ok = b.Next(); ok {
		t.Fatalf("expected sequence terminated at the bound")
	}
}

func TestInstanceIDDeterministic(t *testing.T) {
	a := InstanceID("m1", FlavorRawTracks)
	b := InstanceID("m1", FlavorRawTracks)
	if a != b {
		t.Fatalf("instance id must be deterministic: %s vs %s", a, b)
	}
	if a == InstanceID("m1", FlavorCloud) {
		t.Fatalf("flavors must not collide on instance id")
	}
	if a == InstanceID("m2", FlavorRawTracks) {
		t.Fatalf("meetings must not collide on instance id")
	}
}

func TestRetryBoundExhausted(t *testing.T) {
	sched := &fakeScheduler{}
	starter := newFakeStarter(map[Flavor]error{
		FlavorCloud:     errors.New("meeting is not hosting"),
		FlavorRawTracks: errors.New("meeting is not hosting"),
	})
	o := NewOrchestrator(starter, nil, WithScheduler(sched))
	o.Begin(context.Background(), "m1")

	for i := 0; i < 10; i++ {
		sched.tick()
	}
	if got := starter.count(FlavorCloud); got != DefaultMaxAttempts {
		t.Fatalf("expected exactly %d cloud attempts, got %d", DefaultMaxAttempts, got)
	}
	if got := starter.count(FlavorRawTracks); got != DefaultMaxAttempts {
		t.Fatalf("expected exactly %d raw-track attempts, got %d", DefaultMaxAttempts, got)
	}
	if sched.queued() != 0 {
		t.Fatalf("no timers may remain after exhaustion")
	}
}

func TestDuplicateStartShortCircuits(t *testing.T) {
	sched := &fakeScheduler{}
	starter := newFakeStarter(map[Flavor]error{
		FlavorCloud: errors.New("recording already active"),
	})
	o := NewOrchestrator(starter, nil, WithScheduler(sched))
	o.Begin(context.Background(), "m1")

	for i := 0; i < 3; i++ {
		sched.tick()
	}
	if got := starter.count(FlavorCloud); got != 1 {
		t.Fatalf("already-active must stop after 1 attempt, got %d", got)
	}
	if got := starter.count(FlavorRawTracks); got != 1 {
		t.Fatalf("successful flavor issues exactly 1 attempt, got %d", got)
	}
}

func TestOtherFailureNotRetried(t *testing.T) {
	sched := &fakeScheduler{}
	starter := newFakeStarter(map[Flavor]error{
		FlavorCloud: errors.New("invalid api key"),
	})
	o := NewOrchestrator(starter, nil, WithScheduler(sched))
	o.Begin(context.Background(), "m1")

	for i := 0; i < 3; i++ {
		sched.tick()
	}
	if got := starter.count(FlavorCloud); got != 1 {
		t.Fatalf("unclassified failure must not retry, got %d attempts", got)
	}
}

func TestRetriesUseFixedDelay(t *testing.T) {
	sched := &fakeScheduler{}
	starter := newFakeStarter(map[Flavor]error{
		FlavorCloud:     errors.New("meeting is not hosting"),
		FlavorRawTracks: errors.New("meeting is not hosting"),
	})
	o := NewOrchestrator(starter, nil, WithScheduler(sched), WithDelay(2*time.Second))
	o.Begin(context.Background(), "m1")

	for round := 0; round < DefaultMaxAttempts; round++ {
		sched.mu.Lock()
		for _, timer := range sched.pending {
			if timer.d != 2*time.Second {
				sched.mu.Unlock()
				t.Fatalf("round %d: expected fixed 2s delay, got %v", round, timer.d)
			}
		}
		sched.mu.Unlock()
		sched.tick()
	}
}

func TestStopCancelsPendingRetries(t *testing.T) {
	sched := &fakeScheduler{}
	starter := newFakeStarter(map[Flavor]error{
		FlavorCloud:     errors.New("meeting is not hosting"),
		FlavorRawTracks: errors.New("meeting is not hosting"),
	})
	o := NewOrchestrator(starter, nil, WithScheduler(sched))
	o.Begin(context.Background(), "m1")

	// Two attempts in, then the room view unmounts.
	sched.tick()
	sched.tick()
	o.Stop()
	for i := 0; i < 5; i++ {
		sched.tick()
	}
	if got := starter.count(FlavorCloud); got != 2 {
		t.Fatalf("expected no attempts after Stop, got %d", got)
	}
}

func TestBeginIsOneShot(t *testing.T) {
	sched := &fakeScheduler{}
	starter := newFakeStarter(nil)
	o := NewOrchestrator(starter, nil, WithScheduler(sched))
	o.Begin(context.Background(), "m1")
	o.Begin(context.Background(), "m1")
	sched.tick()
	if got := starter.count(FlavorCloud); got != 1 {
		t.Fatalf("Begin must be one-shot per session, got %d cloud attempts", got)
	}
}
