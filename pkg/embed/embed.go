package embed

import "context"

// EventType enumerates the lifecycle events every vendor embed must emit.
type EventType string

const (
	// EventReady fires when the embed surface is interactive. Some vendors
	// steal keyboard focus at this point.
	EventReady EventType = "ready"
	// EventJoined fires when the local participant is in the room.
	EventJoined EventType = "joined"
	// EventLeft fires when the local participant leaves normally.
	EventLeft EventType = "left"
	// EventFatalError fires on an unrecoverable embed failure.
	EventFatalError EventType = "fatal-error"
	// EventButtonClick fires when a custom tray button is pressed.
	EventButtonClick EventType = "button-click"
)

// Event is one lifecycle notification from the embed.
type Event struct {
	Type EventType
	// Code and Message are set for fatal-error events.
	Code    string
	Message string
	// ButtonID is set for button-click events.
	ButtonID string
}

// TrayButton describes one custom control rendered inside the embed surface.
type TrayButton struct {
	Icon    string `json:"icon"`
	Label   string `json:"label"`
	Tooltip string `json:"tooltip,omitempty"`
}

// Embed is the minimal event/command surface this core requires from a
// vendor video embed. Swapping vendors means re-satisfying exactly this
// interface; the session controller never sees past it.
type Embed interface {
	Name() string
	// Join attaches the embed to the room behind url. Lifecycle events start
	// flowing on Events afterwards.
	Join(ctx context.Context, url string) error
	// Leave detaches from the room and stops event delivery.
	Leave() error
	// UpdateTrayButtons replaces the full set of custom tray buttons.
	UpdateTrayButtons(buttons map[string]TrayButton) error
	// Events delivers lifecycle events in order. The channel closes when the
	// embed is destroyed.
	Events() <-chan Event
}

// LocalRecorder is an optional capability for embeds that can record the
// local media tracks themselves.
type LocalRecorder interface {
	StartLocalRecording(ctx context.Context) error
	StopLocalRecording(ctx context.Context) error
}
