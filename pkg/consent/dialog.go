package consent

import (
	"context"
	"log/slog"
	"sync"

	"github.com/Monadical-SAS/reflector-room/pkg/errorsx"
	"github.com/Monadical-SAS/reflector-room/pkg/meeting"
)

// KeyEscape is the key name delivered by Keyboard implementations for the
// escape key.
const KeyEscape = "Escape"

// View describes the consent overlay contents.
type View struct {
	Title       string
	Body        string
	AcceptLabel string
	RejectLabel string
}

// DefaultView is the stock recording-consent prompt.
var DefaultView = View{
	Title:       "This meeting is being recorded",
	Body:        "Audio from this meeting is recorded and transcribed. Do you consent to being recorded?",
	AcceptLabel: "I consent",
	RejectLabel: "I do not consent",
}

// Presenter owns the overlay surface the dialog renders into. Implementations
// wrap whatever UI host the controller runs inside.
type Presenter interface {
	// Open shows the overlay.
	Open(view View)
	// Close hides the overlay.
	Close()
	// FocusAccept moves keyboard focus to the accept control.
	FocusAccept()
	// ActiveElement identifies the element holding focus, for restoration.
	ActiveElement() string
	// RestoreFocus returns focus to a previously active element.
	RestoreFocus(element string)
}

// Keyboard delivers key events to a subscribed handler. The returned cancel
// detaches the handler.
type Keyboard interface {
	Subscribe(fn func(key string)) (cancel func())
}

// Submitter posts a consent decision to the backend.
type Submitter interface {
	SubmitConsent(ctx context.Context, meetingID meeting.ID, given bool) error
}

// DialogController decides when the consent prompt is shown and routes the
// user's answer to the store and the backend. Opening is idempotent; the
// overlay and its keyboard handler are always torn down together.
type DialogController struct {
	store     *Store
	submitter Submitter
	presenter Presenter
	keyboard  Keyboard
	view      View
	log       *slog.Logger

	mu        sync.Mutex
	open      bool
	refocused bool
	meetingID meeting.ID
	prevFocus string
	unsubKeys func()
	onChange  func()
}

func NewDialogController(store *Store, submitter Submitter, presenter Presenter, keyboard Keyboard, log *slog.Logger) *DialogController {
	if log == nil {
		log = slog.Default()
	}
	return &DialogController{
		store:     store,
		submitter: submitter,
		presenter: presenter,
		keyboard:  keyboard,
		view:      DefaultView,
		log:       log,
	}
}

// OnChange registers a callback fired after a consent decision lands, so
// owners can recompute their projections.
func (d *DialogController) OnChange(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onChange = fn
}

// ShouldShowButton reports whether the consent trigger belongs in the tray:
// cloud recording, consent not skipped, and the user has not answered yet.
func (d *DialogController) ShouldShowButton(meetingID meeting.ID, rt meeting.RecordingType, skipConsent bool) bool {
	return rt == meeting.RecordingCloud && !skipConsent && !d.store.HasAnswered(meetingID)
}

// ShowRecordingIndicator reports whether the recording indicator is visible:
// cloud recording and either consent is skipped or the user accepted.
func (d *DialogController) ShowRecordingIndicator(meetingID meeting.ID, rt meeting.RecordingType, skipConsent bool) bool {
	return rt == meeting.RecordingCloud && (skipConsent || d.store.HasAccepted(meetingID))
}

// Open presents the consent overlay for meetingID. Calling while already open
// is a no-op so rapid re-invocation cannot stack overlays.
func (d *DialogController) Open(meetingID meeting.ID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.open {
		return
	}
	d.open = true
	d.refocused = false
	d.meetingID = meetingID
	d.prevFocus = d.presenter.ActiveElement()
	d.presenter.Open(d.view)
	if d.keyboard != nil {
		d.unsubKeys = d.keyboard.Subscribe(d.handleKey)
	}
}

// IsOpen reports whether the overlay is currently shown.
func (d *DialogController) IsOpen() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.open
}

// Accept submits a positive decision, records it, and dismisses the overlay.
func (d *DialogController) Accept(ctx context.Context) {
	d.resolve(ctx, true)
}

// Reject submits a negative decision, records it, and dismisses the overlay.
func (d *DialogController) Reject(ctx context.Context) {
	d.resolve(ctx, false)
}

func (d *DialogController) resolve(ctx context.Context, accepted bool) {
	d.mu.Lock()
	if !d.open {
		d.mu.Unlock()
		return
	}
	meetingID := d.meetingID
	d.closeLocked()
	d.mu.Unlock()

	// A submission failure must never wedge the dialog: the overlay is
	// already gone, the local answer stands.
	if d.submitter != nil {
		if err := d.submitter.SubmitConsent(ctx, meetingID, accepted); err != nil {
			d.log.Warn("consent_submit_failed",
				"reason", errorsx.ReasonConsentSubmit,
				"meeting_id", meetingID, "error", err)
		}
	}
	d.store.Touch(meetingID, accepted)

	d.mu.Lock()
	onChange := d.onChange
	d.mu.Unlock()
	if onChange != nil {
		onChange()
	}
}

// Dismiss closes the overlay without recording a decision.
func (d *DialogController) Dismiss() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.open {
		return
	}
	d.closeLocked()
}

// HandleEmbedReady refocuses the accept control after the embed becomes
// interactive and steals focus. At most once per dialog lifetime.
func (d *DialogController) HandleEmbedReady() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.open || d.refocused {
		return
	}
	d.refocused = true
	d.presenter.FocusAccept()
}

func (d *DialogController) handleKey(key string) {
	if key == KeyEscape {
		d.Dismiss()
	}
}

// closeLocked tears down the overlay and the key subscription as a unit and
// restores whatever held focus before the dialog opened.
func (d *DialogController) closeLocked() {
	d.open = false
	if d.unsubKeys != nil {
		d.unsubKeys()
		d.unsubKeys = nil
	}
	d.presenter.Close()
	d.presenter.RestoreFocus(d.prevFocus)
	d.prevFocus = ""
}
