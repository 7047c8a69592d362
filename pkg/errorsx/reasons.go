package errorsx

// ReasonCode is a short machine-readable error reason.
type ReasonCode string

const (
	ReasonUnknown ReasonCode = "unknown"

	ReasonConsentLoad    ReasonCode = "consent_load"
	ReasonConsentPersist ReasonCode = "consent_persist"
	ReasonConsentSubmit  ReasonCode = "consent_submit"

	ReasonRecordingStart     ReasonCode = "recording_start"
	ReasonRecordingExhausted ReasonCode = "recording_start_exhausted"
	ReasonRecordingDuplicate ReasonCode = "recording_already_active"

	ReasonRoomJoin   ReasonCode = "room_join"
	ReasonEmbedJoin  ReasonCode = "embed_join"
	ReasonEmbedFatal ReasonCode = "embed_fatal"
	ReasonEmbedSend  ReasonCode = "embed_send"
)
