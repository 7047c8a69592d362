package consent

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/Monadical-SAS/reflector-room/pkg/errorsx"
	"github.com/Monadical-SAS/reflector-room/pkg/meeting"
	"github.com/Monadical-SAS/reflector-room/pkg/storage"
)

// storageKey is where the store keeps its serialized record list.
const storageKey = "recording-consent"

// maxRecords caps how many meetings the store remembers. The least recently
// touched entry is evicted first.
const maxRecords = 5

// Record holds one meeting's consent answer.
type Record struct {
	MeetingID meeting.ID `json:"meeting_id"`
	Answered  bool       `json:"answered"`
	Accepted  bool       `json:"accepted"`
}

// Store remembers, per meeting, whether the user answered the audio-recording
// consent prompt. The in-memory copy is the source of truth for the process
// lifetime; the KV write is a best-effort write-behind so the answer survives
// a reload.
//
// Reads return false until Load has completed. A Touch before readiness is a
// logged no-op rather than an error.
type Store struct {
	mu      sync.RWMutex
	ready   bool
	records []Record // ordered least recently touched first
	kv      storage.KV
	log     *slog.Logger
}

func NewStore(kv storage.KV, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	if kv == nil {
		kv = storage.NewMemKV()
	}
	return &Store{kv: kv, log: log}
}

// Load restores the record list from storage and marks the store ready.
// Missing, corrupt, or non-array data resets to an empty ready state; Load
// never fails the caller.
func (s *Store) Load() {
	var records []Record
	raw, ok, err := s.kv.Get(storageKey)
	if err != nil {
		s.log.Warn("consent_load_failed",
			"reason", errorsx.ReasonConsentLoad, "error", err)
	} else if ok {
		if err := json.Unmarshal([]byte(raw), &records); err != nil {
			s.log.Warn("consent_load_corrupt",
				"reason", errorsx.ReasonConsentLoad, "error", err)
			records = nil
		}
	}
	if len(records) > maxRecords {
		records = records[len(records)-maxRecords:]
	}
	s.mu.Lock()
	s.records = records
	s.ready = true
	s.mu.Unlock()
}

// Ready reports whether Load has completed.
func (s *Store) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// Touch records that the user answered the prompt for meetingID. If the store
// is not ready yet the call is dropped with a log line.
func (s *Store) Touch(meetingID meeting.ID, accepted bool) {
	s.mu.Lock()
	if !s.ready {
		s.mu.Unlock()
		s.log.Warn("consent_store_not_ready", "meeting_id", meetingID)
		return
	}
	kept := make([]Record, 0, len(s.records)+1)
	for _, r := range s.records {
		if r.MeetingID != meetingID {
			kept = append(kept, r)
		}
	}
	kept = append(kept, Record{MeetingID: meetingID, Answered: true, Accepted: accepted})
	if len(kept) > maxRecords {
		kept = kept[len(kept)-maxRecords:]
	}
	s.records = kept
	snapshot := make([]Record, len(kept))
	copy(snapshot, kept)
	s.mu.Unlock()

	s.persist(snapshot)
}

// persist is write-behind: a failure is logged and the in-memory state stands.
func (s *Store) persist(records []Record) {
	raw, err := json.Marshal(records)
	if err != nil {
		s.log.Warn("consent_persist_failed",
			"reason", errorsx.ReasonConsentPersist, "error", err)
		return
	}
	if err := s.kv.Set(storageKey, string(raw)); err != nil {
		s.log.Warn("consent_persist_failed",
			"reason", errorsx.ReasonConsentPersist, "error", err)
	}
}

// HasAnswered reports whether the user answered the prompt for meetingID.
// Always false before readiness.
func (s *Store) HasAnswered(meetingID meeting.ID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.ready {
		return false
	}
	for _, r := range s.records {
		if r.MeetingID == meetingID {
			return r.Answered
		}
	}
	return false
}

// HasAccepted reports whether the user accepted recording for meetingID.
// Always false before readiness.
func (s *Store) HasAccepted(meetingID meeting.ID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.ready {
		return false
	}
	for _, r := range s.records {
		if r.MeetingID == meetingID {
			return r.Accepted
		}
	}
	return false
}

// Records returns a copy of the current record list, least recently touched
// first. Empty before readiness.
func (s *Store) Records() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.ready {
		return nil
	}
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}
