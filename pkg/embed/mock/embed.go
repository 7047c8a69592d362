package mock

import (
	"context"
	"sync"

	"github.com/Monadical-SAS/reflector-room/pkg/embed"
)

// Embed is an in-memory embed for local testing and integration. It
// implements the embed.Embed interface without any vendor dependency.
type Embed struct {
	mu        sync.Mutex
	events    chan embed.Event
	closed    bool
	joined    string
	recording bool
	trays     []map[string]embed.TrayButton
	joinErr   error
}

func New() *Embed {
	return &Embed{events: make(chan embed.Event, 64)}
}

func (e *Embed) Name() string { return "mock" }

func (e *Embed) Join(_ context.Context, url string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.joinErr != nil {
		return e.joinErr
	}
	e.joined = url
	return nil
}

func (e *Embed) Leave() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.closed {
		e.closed = true
		close(e.events)
	}
	return nil
}

func (e *Embed) UpdateTrayButtons(buttons map[string]embed.TrayButton) error {
	snapshot := make(map[string]embed.TrayButton, len(buttons))
	for k, v := range buttons {
		snapshot[k] = v
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.trays = append(e.trays, snapshot)
	return nil
}

func (e *Embed) Events() <-chan embed.Event { return e.events }

func (e *Embed) StartLocalRecording(context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.recording = true
	return nil
}

func (e *Embed) StopLocalRecording(context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.recording = false
	return nil
}

// Push injects a lifecycle event, as the vendor SDK would. The send holds the
// same lock as Leave's close so the two never race.
func (e *Embed) Push(ev embed.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	select {
	case e.events <- ev:
	default:
	}
}

// FailJoin makes subsequent Join calls return err.
func (e *Embed) FailJoin(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.joinErr = err
}

// JoinedURL reports the url passed to Join, empty if never joined.
func (e *Embed) JoinedURL() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.joined
}

// LocalRecording reports whether a local recording is running.
func (e *Embed) LocalRecording() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.recording
}

// TrayUpdates exposes every tray push for inspection.
func (e *Embed) TrayUpdates() []map[string]embed.TrayButton {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]map[string]embed.TrayButton, len(e.trays))
	copy(out, e.trays)
	return out
}
