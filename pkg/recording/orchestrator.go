package recording

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Monadical-SAS/reflector-room/pkg/errorsx"
	"github.com/Monadical-SAS/reflector-room/pkg/meeting"
)

// Flavor identifies one recording stream the orchestrator starts.
type Flavor string

const (
	// FlavorCloud is the composite room recording.
	FlavorCloud Flavor = "cloud"
	// FlavorRawTracks is the parallel per-track recording.
	FlavorRawTracks Flavor = "raw-tracks"
)

// instanceNamespace seeds the deterministic instance IDs. Every participant
// derives the same ID from the meeting alone, so whoever wins the race starts
// the one shared recording instance.
var instanceNamespace = uuid.MustParse("7b0dfa1e-3c5d-5e59-9bfb-d62c7d4a1d7d")

// InstanceID derives the shared recording instance ID for a meeting/flavor
// pair.
func InstanceID(meetingID meeting.ID, flavor Flavor) string {
	return uuid.NewSHA1(instanceNamespace, []byte(meetingID.String()+"/"+string(flavor))).String()
}

// StartRequest is one recording-start call against the backend.
type StartRequest struct {
	MeetingID  meeting.ID
	Flavor     Flavor
	InstanceID string
}

// Starter issues the recording-start call.
type Starter interface {
	StartRecording(ctx context.Context, req StartRequest) error
}

const (
	// DefaultDelay is the fixed wait before the first attempt and between
	// retries. The upstream provider takes a moment to see the call as
	// hosting after join.
	DefaultDelay = 2 * time.Second
	// DefaultMaxAttempts bounds each flavor's start sequence.
	DefaultMaxAttempts = 5
)

// Orchestrator starts the meeting's recording flavors after join. Each flavor
// runs its own bounded retry sequence; failures degrade silently because
// recording is best-effort relative to being in the meeting at all.
type Orchestrator struct {
	starter Starter
	sched   Scheduler
	log     *slog.Logger
	delay   time.Duration
	max     int

	mu      sync.Mutex
	stopped bool
	begun   bool
	timers  map[Flavor]func()
}

// Option tweaks an Orchestrator. Used by tests to shrink timings.
type Option func(*Orchestrator)

func WithDelay(d time.Duration) Option {
	return func(o *Orchestrator) { o.delay = d }
}

func WithMaxAttempts(n int) Option {
	return func(o *Orchestrator) { o.max = n }
}

func WithScheduler(s Scheduler) Option {
	return func(o *Orchestrator) { o.sched = s }
}

func NewOrchestrator(starter Starter, log *slog.Logger, opts ...Option) *Orchestrator {
	if log == nil {
		log = slog.Default()
	}
	o := &Orchestrator{
		starter: starter,
		sched:   TimerScheduler{},
		log:     log,
		delay:   DefaultDelay,
		max:     DefaultMaxAttempts,
		timers:  make(map[Flavor]func()),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Begin kicks off the start sequences for a cloud-recorded meeting. It is
// called once per successful join; repeat calls are ignored.
func (o *Orchestrator) Begin(ctx context.Context, meetingID meeting.ID) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.begun || o.stopped {
		return
	}
	o.begun = true
	for _, flavor := range []Flavor{FlavorCloud, FlavorRawTracks} {
		o.scheduleLocked(ctx, meetingID, flavor, Backoff{Attempt: 1, Max: o.max, Delay: o.delay})
	}
}

// Stop cancels every pending retry timer. After Stop no further start
// requests are issued. Safe to call more than once.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stopped = true
	for flavor, cancel := range o.timers {
		cancel()
		delete(o.timers, flavor)
	}
}

func (o *Orchestrator) scheduleLocked(ctx context.Context, meetingID meeting.ID, flavor Flavor, b Backoff) {
	o.timers[flavor] = o.sched.AfterFunc(b.Delay, func() {
		o.fire(ctx, meetingID, flavor, b)
	})
}

func (o *Orchestrator) fire(ctx context.Context, meetingID meeting.ID, flavor Flavor, b Backoff) {
	o.mu.Lock()
	if o.stopped {
		o.mu.Unlock()
		return
	}
	delete(o.timers, flavor)
	o.mu.Unlock()

	err := o.starter.StartRecording(ctx, StartRequest{
		MeetingID:  meetingID,
		Flavor:     flavor,
		InstanceID: InstanceID(meetingID, flavor),
	})
	if err == nil {
		o.log.Info("recording_started",
			"meeting_id", meetingID, "flavor", flavor, "attempt", b.Attempt)
		return
	}

	switch classify(err) {
	case outcomeAlreadyActive:
		// Another participant won the race; the shared instance exists.
		o.log.Info("recording_already_active",
			"reason", errorsx.ReasonRecordingDuplicate,
			"meeting_id", meetingID, "flavor", flavor)
	case outcomeNotHosting:
		next, ok := b.Next()
		if !ok {
			o.log.Warn("recording_start_exhausted",
				"reason", errorsx.ReasonRecordingExhausted,
				"meeting_id", meetingID, "flavor", flavor,
				"attempts", b.Attempt)
			return
		}
		o.log.Debug("recording_start_retry",
			"meeting_id", meetingID, "flavor", flavor,
			"attempt", next.Attempt, "max", next.Max)
		o.mu.Lock()
		if !o.stopped {
			o.scheduleLocked(ctx, meetingID, flavor, next)
		}
		o.mu.Unlock()
	default:
		o.log.Warn("recording_start_failed",
			"reason", errorsx.ReasonRecordingStart,
			"meeting_id", meetingID, "flavor", flavor, "error", err)
	}
}

type outcome int

const (
	outcomeFatal outcome = iota
	outcomeNotHosting
	outcomeAlreadyActive
)

// classify pattern-matches the upstream error message. The provider reports
// "not hosting" while it has not yet registered the call, and an
// already-active stream when another participant started recording first.
func classify(err error) outcome {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "not hosting"):
		return outcomeNotHosting
	case strings.Contains(msg, "already active"),
		strings.Contains(msg, "already being recorded"),
		strings.Contains(msg, "already started"):
		return outcomeAlreadyActive
	default:
		return outcomeFatal
	}
}
