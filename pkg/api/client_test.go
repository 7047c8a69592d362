package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Monadical-SAS/reflector-room/pkg/meeting"
	"github.com/Monadical-SAS/reflector-room/pkg/recording"
)

func TestJoinRoomParsesDescriptor(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rooms/join" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if body["room_name"] != "daily-standup" || body["meeting_id"] != "m1" {
			t.Errorf("unexpected request body %v", body)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"room_url":       "https://meet.example.com/daily-standup",
			"recording_type": "cloud",
			"skip_consent":   false,
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "token123")
	room, err := c.JoinRoom(context.Background(), "daily-standup", "m1")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if room.RecordingType != meeting.RecordingCloud {
		t.Fatalf("expected cloud recording, got %s", room.RecordingType)
	}
	if room.RoomURL != "https://meet.example.com/daily-standup" {
		t.Fatalf("unexpected room url %s", room.RoomURL)
	}
	if room.SkipConsent {
		t.Fatalf("expected skip_consent false")
	}
}

func TestJoinRoomFailureSurfacesMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "meeting not found"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	_, err := c.JoinRoom(context.Background(), "gone", "m1")
	if err == nil {
		t.Fatalf("expected error")
	}
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if apiErr.Message != "meeting not found" || apiErr.Status != http.StatusNotFound {
		t.Fatalf("unexpected error %+v", apiErr)
	}
}

func TestStartRecordingPassesBackendWording(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(map[string]string{"detail": "meeting is not hosting"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	err := c.StartRecording(context.Background(), recording.StartRequest{
		MeetingID:  "m1",
		Flavor:     recording.FlavorCloud,
		InstanceID: recording.InstanceID("m1", recording.FlavorCloud),
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	// The orchestrator retries on exactly this wording, so it must survive
	// the round trip verbatim.
	if err.Error() != "meeting is not hosting" {
		t.Fatalf("expected backend wording preserved, got %q", err.Error())
	}
}

func TestSubmitConsentPostsDecision(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	if err := c.SubmitConsent(context.Background(), "m1", true); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if got["consent_given"] != true {
		t.Fatalf("expected consent_given true, got %v", got)
	}
}
