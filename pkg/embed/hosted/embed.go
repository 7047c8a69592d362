// Package hosted adapts the hosted-iframe meeting vendor to the embed
// interface. Commands go out as REST calls against the vendor's session API;
// lifecycle events arrive on a small webhook server the adapter runs itself.
package hosted

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/Monadical-SAS/reflector-room/pkg/configutil"
	"github.com/Monadical-SAS/reflector-room/pkg/embed"
)

type Config struct {
	APIKey      string `mapstructure:"api_key"`
	BaseURL     string `mapstructure:"base_url"`
	ServerAddr  string `mapstructure:"server_addr"`
	WebhookPath string `mapstructure:"webhook_path"`
	Secret      string `mapstructure:"webhook_secret"`
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = "https://api.whereby.dev/v1"
	}
	if c.ServerAddr == "" {
		c.ServerAddr = ":8091"
	}
	if c.WebhookPath == "" {
		c.WebhookPath = "/embed/events"
	}
	return c
}

// SettingsSchema validates raw provider settings before decoding.
var SettingsSchema = configutil.Schema{
	Required: []string{"api_key"},
	Optional: []string{"base_url", "server_addr", "webhook_path", "webhook_secret"},
}

// Embed bridges the hosted-iframe vendor to the embed interface.
type Embed struct {
	cfg    Config
	log    *slog.Logger
	client *http.Client

	mu        sync.Mutex
	events    chan embed.Event
	closed    bool
	server    *http.Server
	sessionID string
}

// FromSettings builds the adapter from a free-form settings map.
func FromSettings(settings map[string]any, log *slog.Logger) (*Embed, error) {
	if err := configutil.ValidateSettings(settings, SettingsSchema); err != nil {
		return nil, fmt.Errorf("hosted embed settings: %w", err)
	}
	var cfg Config
	if err := configutil.DecodeSettings(settings, &cfg); err != nil {
		return nil, fmt.Errorf("hosted embed settings: %w", err)
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
		client: &http.Client{Timeout: 10 * time.Second},
		events: make(chan embed.Event, 64),
	}
}

func (e *Embed) Name() string { return "hosted" }

func (e *Embed) Join(ctx context.Context, url string) error {
	if err := configutil.RequireString(e.cfg.APIKey, "hosted.api_key"); err != nil {
		return err
	}

	var out struct {
		SessionID string `json:"session_id"`
	}
	if err := e.post(ctx, "/sessions", map[string]any{
		"room_url":    url,
		"webhook_url": e.cfg.WebhookPath,
	}, &out); err != nil {
		return err
	}

	e.mu.Lock()
	e.sessionID = out.SessionID
	e.mu.Unlock()

	e.startWebhookServer()
	return nil
}

// Leave marks the embed closed and closes the events channel under the same
// lock the webhook handler pushes under, then shuts the webhook server down.
func (e *Embed) Leave() error {
	e.mu.Lock()
	server := e.server
	e.server = nil
	if !e.closed {
		e.closed = true
		close(e.events)
	}
	e.mu.Unlock()
	if server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	}
	return nil
}

func (e *Embed) UpdateTrayButtons(buttons map[string]embed.TrayButton) error {
	e.mu.Lock()
	sessionID := e.sessionID
	e.mu.Unlock()
	if sessionID == "" {
		return errors.New("hosted embed has no active session")
	}
	return e.post(context.Background(), "/sessions/"+sessionID+"/tray", map[string]any{
		"buttons": buttons,
	}, nil)
}

func (e *Embed) Events() <-chan embed.Event { return e.events }

func (e *Embed) startWebhookServer() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.server != nil {
		return
	}
	mux := http.NewServeMux()
	mux.HandleFunc(e.cfg.WebhookPath, e.handleWebhook)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	e.server = &http.Server{Addr: e.cfg.ServerAddr, Handler: mux}
	server := e.server
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			e.log.Error("hosted_webhook_server_failed", "error", err)
		}
	}()
}

// handleWebhook translates the vendor's lifecycle callbacks into embed events.
func (e *Embed) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if e.cfg.Secret != "" && r.Header.Get("X-Webhook-Secret") != e.cfg.Secret {
		w.WriteHeader(http.StatusForbidden)
		return
	}
	var payload struct {
		Type     string `json:"type"`
		Code     string `json:"code"`
		Message  string `json:"message"`
		ButtonID string `json:"button_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	ev, ok := translate(payload.Type)
	if !ok {
		// Vendors send more event types than this core cares about.
		w.WriteHeader(http.StatusOK)
		return
	}
	e.push(embed.Event{
		Type:     ev,
		Code:     payload.Code,
		Message:  payload.Message,
		ButtonID: payload.ButtonID,
	})
	w.WriteHeader(http.StatusOK)
}

func translate(vendorType string) (embed.EventType, bool) {
	switch vendorType {
	case "ready":
		return embed.EventReady, true
	case "participant_joined", "joined":
		return embed.EventJoined, true
	case "leave", "left":
		return embed.EventLeft, true
	case "fatal_error", "fatal-error":
		return embed.EventFatalError, true
	case "custom_button_click", "custom-button-click":
		return embed.EventButtonClick, true
	default:
		return "", false
	}
}

func (e *Embed) push(ev embed.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	select {
	case e.events <- ev:
	default:
		e.log.Warn("hosted_event_dropped", "type", ev.Type)
	}
}

func (e *Embed) post(ctx context.Context, path string, body any, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.cfg.BaseURL+path, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.cfg.APIKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("hosted embed %s: status %d: %s", path, resp.StatusCode, bytes.TrimSpace(msg))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
