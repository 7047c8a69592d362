package room

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Monadical-SAS/reflector-room/pkg/consent"
	"github.com/Monadical-SAS/reflector-room/pkg/embed"
	"github.com/Monadical-SAS/reflector-room/pkg/errorsx"
	"github.com/Monadical-SAS/reflector-room/pkg/logging"
	"github.com/Monadical-SAS/reflector-room/pkg/meeting"
	"github.com/Monadical-SAS/reflector-room/pkg/recording"
	"github.com/Monadical-SAS/reflector-room/pkg/session"
	"github.com/Monadical-SAS/reflector-room/pkg/tray"
)

// Backend is the slice of the meeting API the controller depends on.
type Backend interface {
	JoinRoom(ctx context.Context, roomName string, meetingID meeting.ID) (meeting.Room, error)
	SubmitConsent(ctx context.Context, meetingID meeting.ID, given bool) error
	StartRecording(ctx context.Context, req recording.StartRequest) error
}

// JoinError is a failed room join. It is reported before any embed lifecycle
// starts and is only retried by explicit user action.
type JoinError struct {
	Err error
}

func (e *JoinError) Error() string { return "room join failed: " + e.Err.Error() }
func (e *JoinError) Unwrap() error { return e.Err }

// Options wires a Controller.
type Options struct {
	Backend   Backend
	Embed     embed.Embed
	Store     *consent.Store
	Presenter consent.Presenter
	Keyboard  consent.Keyboard
	Log       *slog.Logger
	// OnLeft runs after an ordinary leave, typically navigation back to room
	// selection. Suppressed when a fatal error was reported first.
	OnLeft func()
	// Recording overrides the orchestrator's timing, mainly for tests.
	Recording []recording.Option
}

// Controller owns one room view's session: it joins the room, drives the
// session state machine from embed events, gates the consent UI and mirrors
// recording indicators into the embed tray.
type Controller struct {
	backend Backend
	embed   embed.Embed
	store   *consent.Store
	machine *session.Machine
	orch    *recording.Orchestrator
	dialog  *consent.DialogController
	tray    *tray.Adapter
	log     *slog.Logger

	mu       sync.Mutex
	room     meeting.Room
	joined   bool
	localRec embed.LocalRecorder
	done     chan struct{}
}

func NewController(opts Options) *Controller {
	log := logging.NewComponentLogger(opts.Log, "room-controller")
	c := &Controller{
		backend: opts.Backend,
		embed:   opts.Embed,
		store:   opts.Store,
		log:     log,
	}
	c.machine = session.NewMachine(opts.OnLeft)
	c.machine.AddListener(session.LogListener{Log: log})
	c.orch = recording.NewOrchestrator(backendStarter{opts.Backend}, log, opts.Recording...)
	c.dialog = consent.NewDialogController(opts.Store, opts.Backend, opts.Presenter, opts.Keyboard, log)
	c.tray = tray.NewAdapter(opts.Embed, log)
	c.dialog.OnChange(c.refreshIndicators)
	return c
}

// backendStarter adapts the Backend to the orchestrator's Starter.
type backendStarter struct {
	backend Backend
}

func (s backendStarter) StartRecording(ctx context.Context, req recording.StartRequest) error {
	return s.backend.StartRecording(ctx, req)
}

// Dialog exposes the consent dialog controller for UI wiring.
func (c *Controller) Dialog() *consent.DialogController { return c.dialog }

// State returns the current session state.
func (c *Controller) State() session.State { return c.machine.State() }

// Fatal returns the classified fatal error, if one was reported.
func (c *Controller) Fatal() *session.FatalError { return c.machine.Fatal() }

// Join enters the room: fetches the room descriptor, attaches the embed and
// starts processing its lifecycle events. A failure here leaves the session
// idle; the caller surfaces it with a back affordance and no automatic retry.
func (c *Controller) Join(ctx context.Context, roomName string, meetingID meeting.ID) error {
	if err := c.machine.Transition(session.StateJoining, "join requested"); err != nil {
		return err
	}

	if !c.store.Ready() {
		c.store.Load()
	}

	room, err := c.backend.JoinRoom(ctx, roomName, meetingID)
	if err != nil {
		_ = c.machine.Transition(session.StateIdle, "join failed")
		c.log.Warn("room_join_failed",
			"reason", errorsx.ReasonRoomJoin, "room", roomName, "error", err)
		return &JoinError{Err: errorsx.Wrap(err, errorsx.ReasonRoomJoin)}
	}

	if err := c.embed.Join(ctx, room.RoomURL); err != nil {
		_ = c.machine.Transition(session.StateIdle, "embed join failed")
		c.log.Warn("embed_join_failed",
			"reason", errorsx.ReasonEmbedJoin, "room", roomName, "error", err)
		return &JoinError{Err: errorsx.Wrap(fmt.Errorf("embed join: %w", err), errorsx.ReasonEmbedJoin)}
	}

	c.mu.Lock()
	c.room = room
	c.done = make(chan struct{})
	done := c.done
	c.mu.Unlock()

	c.tray.OnClick(tray.RecordingConsentID, func() {
		c.dialog.Open(room.MeetingID)
	})

	go c.eventLoop(ctx, room, done)
	return nil
}

func (c *Controller) eventLoop(ctx context.Context, room meeting.Room, done chan struct{}) {
	defer close(done)
	for ev := range c.embed.Events() {
		switch ev.Type {
		case embed.EventReady:
			// The embed stealing focus right after becoming interactive is
			// the one moment the consent dialog needs rescuing.
			c.dialog.HandleEmbedReady()
		case embed.EventJoined:
			c.handleJoined(ctx, room)
		case embed.EventLeft:
			c.stopLocalRecording()
			c.tray.HandleLeft()
			c.machine.ReportLeft()
		case embed.EventFatalError:
			c.orch.Stop()
			fatal := c.machine.ReportFatal(ev.Code, ev.Message)
			c.log.Warn("embed_fatal_error",
				"reason", errorsx.ReasonEmbedFatal,
				"kind", fatal.Kind, "recovery", fatal.Recovery(),
				"message", ev.Message)
		case embed.EventButtonClick:
			c.tray.HandleClick(ev.ButtonID)
		}
	}
}

func (c *Controller) handleJoined(ctx context.Context, room meeting.Room) {
	if err := c.machine.Transition(session.StateJoined, "embed joined"); err != nil {
		// Late joined event after a fatal error; nothing to do.
		return
	}
	c.mu.Lock()
	c.joined = true
	c.mu.Unlock()

	c.tray.HandleJoined()
	c.refreshIndicators()
	switch room.RecordingType {
	case meeting.RecordingCloud:
		c.orch.Begin(ctx, room.MeetingID)
	case meeting.RecordingLocal:
		c.startLocalRecording(ctx)
	}
}

// startLocalRecording asks the embed to record its own tracks, for embeds
// that carry the capability. Local recording never involves the backend.
func (c *Controller) startLocalRecording(ctx context.Context) {
	rec, ok := c.embed.(embed.LocalRecorder)
	if !ok {
		c.log.Debug("local_recording_unsupported", "embed", c.embed.Name())
		return
	}
	if err := rec.StartLocalRecording(ctx); err != nil {
		c.log.Warn("local_recording_start_failed",
			"reason", errorsx.ReasonRecordingStart, "error", err)
		return
	}
	c.mu.Lock()
	c.localRec = rec
	c.mu.Unlock()
	c.log.Info("local_recording_started")
}

func (c *Controller) stopLocalRecording() {
	c.mu.Lock()
	rec := c.localRec
	c.localRec = nil
	c.mu.Unlock()
	if rec == nil {
		return
	}
	if err := rec.StopLocalRecording(context.Background()); err != nil {
		c.log.Warn("local_recording_stop_failed", "error", err)
		return
	}
	c.log.Info("local_recording_stopped")
}

// refreshIndicators recomputes the tray projection from consent state.
func (c *Controller) refreshIndicators() {
	c.mu.Lock()
	room := c.room
	c.mu.Unlock()
	if room.MeetingID == "" {
		return
	}

	if c.dialog.ShouldShowButton(room.MeetingID, room.RecordingType, room.SkipConsent) {
		c.tray.SetIndicator(tray.RecordingConsentID, &embed.TrayButton{
			Icon:    "mic",
			Label:   "Recording consent",
			Tooltip: "This meeting records audio. Review your consent.",
		})
	} else {
		c.tray.SetIndicator(tray.RecordingConsentID, nil)
	}

	if c.dialog.ShowRecordingIndicator(room.MeetingID, room.RecordingType, room.SkipConsent) {
		c.tray.SetIndicator(tray.RecordingIndicatorID, &embed.TrayButton{
			Icon:    "record",
			Label:   "Recording",
			Tooltip: "Audio from this meeting is being recorded.",
		})
	} else {
		c.tray.SetIndicator(tray.RecordingIndicatorID, nil)
	}
}

// Close tears the session down: pending recording retries are cancelled and
// the embed is detached, which ends event delivery. Safe after fatal errors
// and double calls.
func (c *Controller) Close() error {
	c.orch.Stop()
	c.stopLocalRecording()
	c.dialog.Dismiss()
	err := c.embed.Leave()

	c.mu.Lock()
	done := c.done
	c.mu.Unlock()
	if done != nil {
		<-done
	}
	return err
}
