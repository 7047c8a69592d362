package meeting

import (
	"fmt"
	"strings"
)

// ID is an opaque identifier for a meeting instance. It is assigned when a
// meeting is scheduled or started and never changes afterwards.
type ID string

// ParseID validates a raw meeting identifier.
func ParseID(raw string) (ID, error) {
	if strings.TrimSpace(raw) == "" {
		return "", fmt.Errorf("meeting id is empty")
	}
	return ID(raw), nil
}

func (id ID) String() string { return string(id) }

// RecordingType selects how a meeting is recorded. Only cloud recordings
// require participant consent and retried start attempts.
type RecordingType string

const (
	RecordingNone  RecordingType = "none"
	RecordingLocal RecordingType = "local"
	RecordingCloud RecordingType = "cloud"
)

// ParseRecordingType maps a backend-provided string onto a RecordingType.
// Unknown values fall back to none so a misconfigured meeting degrades to a
// plain un-recorded call instead of failing the join.
func ParseRecordingType(raw string) RecordingType {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "local":
		return RecordingLocal
	case "cloud":
		return RecordingCloud
	default:
		return RecordingNone
	}
}

// Room is the descriptor returned by the room-join endpoint. It carries
// everything the session controller needs to enter the call.
type Room struct {
	RoomName      string
	MeetingID     ID
	RoomURL       string
	RecordingType RecordingType
	SkipConsent   bool
}
