// Package api is the JSON/HTTPS client for the meeting backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Monadical-SAS/reflector-room/pkg/meeting"
	"github.com/Monadical-SAS/reflector-room/pkg/recording"
)

// Error is a failed backend call. Message carries the backend's own wording,
// which the recording orchestrator pattern-matches for retry decisions.
type Error struct {
	Status  int
	Path    string
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s: status %d", e.Path, e.Status)
}

// Client talks to the meeting backend.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// JoinRoom asks the backend for the room descriptor keyed by room name and
// meeting id.
func (c *Client) JoinRoom(ctx context.Context, roomName string, meetingID meeting.ID) (meeting.Room, error) {
	var out struct {
		RoomURL       string `json:"room_url"`
		RecordingType string `json:"recording_type"`
		SkipConsent   bool   `json:"skip_consent"`
	}
	err := c.post(ctx, "/rooms/join", map[string]any{
		"room_name":  roomName,
		"meeting_id": meetingID,
	}, &out)
	if err != nil {
		return meeting.Room{}, err
	}
	return meeting.Room{
		RoomName:      roomName,
		MeetingID:     meetingID,
		RoomURL:       out.RoomURL,
		RecordingType: meeting.ParseRecordingType(out.RecordingType),
		SkipConsent:   out.SkipConsent,
	}, nil
}

// SubmitConsent records the user's consent decision. Safe to repeat.
func (c *Client) SubmitConsent(ctx context.Context, meetingID meeting.ID, given bool) error {
	return c.post(ctx, "/meetings/"+meetingID.String()+"/consent", map[string]any{
		"meeting_id":    meetingID,
		"consent_given": given,
	}, nil)
}

// StartRecording asks the backend to start one recording flavor.
func (c *Client) StartRecording(ctx context.Context, req recording.StartRequest) error {
	return c.post(ctx, "/meetings/"+req.MeetingID.String()+"/recording/start", map[string]any{
		"meeting_id":     req.MeetingID,
		"recording_type": req.Flavor,
		"instance_id":    req.InstanceID,
	}, nil)
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return &Error{Status: resp.StatusCode, Path: path, Message: readMessage(resp.Body)}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// readMessage extracts the backend's error wording from a failure body.
func readMessage(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil {
		return ""
	}
	var payload struct {
		Message string `json:"message"`
		Detail  string `json:"detail"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil {
		for _, m := range []string{payload.Message, payload.Detail, payload.Error} {
			if m != "" {
				return m
			}
		}
	}
	return string(bytes.TrimSpace(raw))
}
