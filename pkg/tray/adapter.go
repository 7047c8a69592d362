// Package tray projects recording indicators and the consent trigger into
// the embed's custom tray without reaching past its public update API.
package tray

import (
	"log/slog"
	"sync"

	"github.com/Monadical-SAS/reflector-room/pkg/embed"
	"github.com/Monadical-SAS/reflector-room/pkg/errorsx"
)

// Well-known indicator ids.
const (
	RecordingIndicatorID = "recording-indicator"
	RecordingConsentID   = "recording-consent"
)

// Updater is the slice of the embed surface the adapter needs.
type Updater interface {
	UpdateTrayButtons(buttons map[string]embed.TrayButton) error
}

// Adapter maintains the indicator mapping and mirrors it into the embed. The
// embed only accepts tray updates once joined, so changes made earlier are
// buffered and flushed on the joined event.
type Adapter struct {
	updater Updater
	log     *slog.Logger

	mu       sync.Mutex
	joined   bool
	buttons  map[string]embed.TrayButton
	handlers map[string]func()
}

func NewAdapter(updater Updater, log *slog.Logger) *Adapter {
	if log == nil {
		log = slog.Default()
	}
	return &Adapter{
		updater:  updater,
		log:      log,
		buttons:  make(map[string]embed.TrayButton),
		handlers: make(map[string]func()),
	}
}

// SetIndicator updates one indicator. A nil descriptor removes it. The full
// mapping is pushed to the embed if it is joined; otherwise the change waits
// for HandleJoined.
func (a *Adapter) SetIndicator(id string, button *embed.TrayButton) {
	a.mu.Lock()
	if button == nil {
		delete(a.buttons, id)
	} else {
		a.buttons[id] = *button
	}
	joined := a.joined
	snapshot := a.snapshotLocked()
	a.mu.Unlock()

	if joined {
		a.pushMapping(snapshot)
	}
}

// OnClick registers the handler invoked when the embed reports a click on id.
func (a *Adapter) OnClick(id string, fn func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.handlers[id] = fn
}

// HandleJoined marks the embed joined and flushes any buffered mapping.
func (a *Adapter) HandleJoined() {
	a.mu.Lock()
	a.joined = true
	snapshot := a.snapshotLocked()
	a.mu.Unlock()
	a.pushMapping(snapshot)
}

// HandleLeft stops pushes until the embed joins again.
func (a *Adapter) HandleLeft() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.joined = false
}

// HandleClick demultiplexes a button-click event to its owning handler.
func (a *Adapter) HandleClick(id string) {
	a.mu.Lock()
	fn := a.handlers[id]
	a.mu.Unlock()
	if fn == nil {
		a.log.Debug("tray_click_unhandled", "button_id", id)
		return
	}
	fn()
}

func (a *Adapter) snapshotLocked() map[string]embed.TrayButton {
	out := make(map[string]embed.TrayButton, len(a.buttons))
	for k, v := range a.buttons {
		out[k] = v
	}
	return out
}

func (a *Adapter) pushMapping(buttons map[string]embed.TrayButton) {
	if err := a.updater.UpdateTrayButtons(buttons); err != nil {
		a.log.Warn("tray_update_failed",
			"reason", errorsx.ReasonEmbedSend, "error", err)
	}
}
