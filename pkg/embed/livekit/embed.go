// Package livekit adapts the self-hosted WebRTC embed to the embed
// interface. The embed surface is a thin wrapper app around the LiveKit
// client; this adapter talks to it over a control websocket and leaves all
// media transport to the wrapper.
package livekit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/livekit/protocol/auth"

	"github.com/Monadical-SAS/reflector-room/pkg/configutil"
	"github.com/Monadical-SAS/reflector-room/pkg/embed"
)

type Config struct {
	ControlURL string `mapstructure:"control_url"`
	Identity   string `mapstructure:"identity"`
	// APIKey/APISecret let the adapter mint its own join token in
	// development setups where the room URL carries none.
	APIKey    string `mapstructure:"api_key"`
	APISecret string `mapstructure:"api_secret"`
	TokenTTL  int    `mapstructure:"token_ttl_seconds"`
}

func (c Config) withDefaults() Config {
	if c.Identity == "" {
		c.Identity = "room-controller"
	}
	if c.TokenTTL <= 0 {
		c.TokenTTL = 3600
	}
	return c
}

// SettingsSchema validates raw provider settings before decoding.
var SettingsSchema = configutil.Schema{
	Required: []string{"control_url"},
	Optional: []string{"identity", "api_key", "api_secret", "token_ttl_seconds"},
}

// command is one control message to the wrapper app.
type command struct {
	Action  string                      `json:"action"`
	RoomURL string                      `json:"room_url,omitempty"`
	Token   string                      `json:"token,omitempty"`
	Buttons map[string]embed.TrayButton `json:"buttons,omitempty"`
}

// event is one lifecycle message from the wrapper app.
type event struct {
	Type     string `json:"type"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	ButtonID string `json:"button_id"`
}

// Embed bridges the self-hosted WebRTC wrapper to the embed interface.
type Embed struct {
	cfg Config
	log *slog.Logger

	events chan embed.Event
	closed atomic.Bool

	mu       sync.Mutex
	conn     *websocket.Conn
	readDone chan struct{}
}

// FromSettings builds the adapter from a free-form settings map.
func FromSettings(settings map[string]any, log *slog.Logger) (*Embed, error) {
	if err := configutil.ValidateSettings(settings, SettingsSchema); err != nil {
		return nil, fmt.Errorf("livekit embed settings: %w", err)
	}
	var cfg Config
	if err := configutil.DecodeSettings(settings, &cfg); err != nil {
		return nil, fmt.Errorf("livekit embed settings: %w", err)
	}
	return New(cfg, log), nil
}

func New(cfg Config, log *slog.Logger) *Embed {
	if log == nil {
		log = slog.Default()
	}
	return &Embed{
		cfg:    cfg.withDefaults(),
		log:    log,
		events: make(chan embed.Event, 64),
	}
}

func (e *Embed) Name() string { return "livekit" }

func (e *Embed) Join(ctx context.Context, roomURL string) error {
	if err := configutil.RequireString(e.cfg.ControlURL, "livekit.control_url"); err != nil {
		return err
	}
	token, err := e.joinToken(roomURL)
	if err != nil {
		return err
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, e.cfg.ControlURL, nil)
	if err != nil {
		return fmt.Errorf("dial embed control socket: %w", err)
	}

	e.mu.Lock()
	e.conn = conn
	e.mu.Unlock()

	if err := e.send(command{Action: "join", RoomURL: roomURL, Token: token}); err != nil {
		e.mu.Lock()
		e.conn = nil
		e.mu.Unlock()
		_ = conn.Close()
		return err
	}

	done := make(chan struct{})
	e.mu.Lock()
	e.readDone = done
	e.mu.Unlock()
	go func() {
		defer close(done)
		e.readLoop(conn)
	}()
	return nil
}

// joinToken mints a LiveKit access token when credentials are configured.
// Production deployments embed the token in the room URL instead.
func (e *Embed) joinToken(roomURL string) (string, error) {
	if e.cfg.APIKey == "" || e.cfg.APISecret == "" {
		return "", nil
	}
	room, err := roomNameFromURL(roomURL)
	if err != nil {
		return "", err
	}
	grant := &auth.VideoGrant{
		RoomJoin: true,
		Room:     room,
	}
	at := auth.NewAccessToken(e.cfg.APIKey, e.cfg.APISecret).
		AddGrant(grant).
		SetIdentity(e.cfg.Identity).
		SetValidFor(time.Duration(e.cfg.TokenTTL) * time.Second)
	return at.ToJWT()
}

func roomNameFromURL(roomURL string) (string, error) {
	u, err := url.Parse(roomURL)
	if err != nil {
		return "", fmt.Errorf("parse room url: %w", err)
	}
	if name := u.Query().Get("room"); name != "" {
		return name, nil
	}
	if u.Path != "" && u.Path != "/" {
		parts := u.Path
		for len(parts) > 0 && parts[0] == '/' {
			parts = parts[1:]
		}
		if parts != "" {
			return parts, nil
		}
	}
	return "", errors.New("room url carries no room name")
}

func (e *Embed) readLoop(conn *websocket.Conn) {
	for {
		var ev event
		if err := conn.ReadJSON(&ev); err != nil {
			if !e.closed.Load() {
				e.push(embed.Event{
					Type:    embed.EventFatalError,
					Code:    "connection-error",
					Message: err.Error(),
				})
			}
			return
		}
		mapped, ok := translate(ev.Type)
		if !ok {
			continue
		}
		e.push(embed.Event{
			Type:     mapped,
			Code:     ev.Code,
			Message:  ev.Message,
			ButtonID: ev.ButtonID,
		})
	}
}

func translate(wireType string) (embed.EventType, bool) {
	switch wireType {
	case "ready":
		return embed.EventReady, true
	case "joined":
		return embed.EventJoined, true
	case "left", "leave":
		return embed.EventLeft, true
	case "fatal-error", "fatal_error":
		return embed.EventFatalError, true
	case "custom-button-click", "button-click":
		return embed.EventButtonClick, true
	default:
		return "", false
	}
}

// Leave closes the control socket, waits for the read loop to stop producing
// and only then closes the events channel, so no event send can race the
// close.
func (e *Embed) Leave() error {
	if !e.closed.CompareAndSwap(false, true) {
		return nil
	}
	e.mu.Lock()
	conn := e.conn
	done := e.readDone
	e.conn = nil
	e.readDone = nil
	e.mu.Unlock()

	var err error
	if conn != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		err = conn.Close()
	}
	if done != nil {
		<-done
	}
	close(e.events)
	return err
}

func (e *Embed) UpdateTrayButtons(buttons map[string]embed.TrayButton) error {
	return e.send(command{Action: "update_tray", Buttons: buttons})
}

func (e *Embed) Events() <-chan embed.Event { return e.events }

func (e *Embed) send(cmd command) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.conn == nil {
		return errors.New("livekit embed not connected")
	}
	return e.conn.WriteJSON(cmd)
}

func (e *Embed) push(ev embed.Event) {
	if e.closed.Load() {
		return
	}
	select {
	case e.events <- ev:
	default:
		e.log.Warn("livekit_event_dropped", "type", ev.Type)
	}
}
