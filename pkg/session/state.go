package session

// State is the room-join lifecycle state.
type State int

const (
	StateIdle State = iota
	StateJoining
	StateJoined
	StateFatal
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateJoining:
		return "joining"
	case StateJoined:
		return "joined"
	case StateFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// FatalKind is the taxonomy of embed-reported fatal errors. Each kind maps to
// a distinct user-facing recovery action.
type FatalKind string

const (
	// FatalConnection is a recoverable network failure; the page reloads.
	FatalConnection FatalKind = "connection-error"
	// FatalRoomExpired means the meeting's time window elapsed.
	FatalRoomExpired FatalKind = "exp-room"
	// FatalEjected means the user was removed from the meeting.
	FatalEjected FatalKind = "ejected"
	// FatalUnknown is the generic fallback carrying the raw message.
	FatalUnknown FatalKind = "unknown"
)

// RecoveryAction is the user affordance offered for a fatal error.
type RecoveryAction string

const (
	// RecoverReload asks the user to reload the page and rejoin.
	RecoverReload RecoveryAction = "reload"
	// RecoverReturn sends the user back to room selection.
	RecoverReturn RecoveryAction = "return"
)

// Classify maps an embed error code onto the fatal taxonomy.
func Classify(code string) FatalKind {
	switch code {
	case string(FatalConnection):
		return FatalConnection
	case string(FatalRoomExpired):
		return FatalRoomExpired
	case string(FatalEjected):
		return FatalEjected
	default:
		return FatalUnknown
	}
}

// Recovery returns the recovery action for a fatal kind. Only connection
// failures are worth a reload; everything else returns to room selection.
func (k FatalKind) Recovery() RecoveryAction {
	if k == FatalConnection {
		return RecoverReload
	}
	return RecoverReturn
}

// FatalError carries the classified embed failure shown to the user.
type FatalError struct {
	Kind    FatalKind
	Message string
}

func (e FatalError) Error() string {
	if e.Message != "" {
		return string(e.Kind) + ": " + e.Message
	}
	return string(e.Kind)
}

// Recovery is the affordance for this error.
func (e FatalError) Recovery() RecoveryAction {
	return e.Kind.Recovery()
}
