package errorsx

import "testing"

func TestWrapAndReason(t *testing.T) {
	err := Wrap(assertErr{}, ReasonRoomJoin)
	if Reason(err) != ReasonRoomJoin {
		t.Fatalf("expected reason %s, got %s", ReasonRoomJoin, Reason(err))
	}
	if !HasReason(err, ReasonRoomJoin) {
		t.Fatalf("expected HasReason true")
	}
}

func TestErrorSurfacesReason(t *testing.T) {
	err := Wrap(assertErr{}, ReasonRoomJoin)
	if got := err.Error(); got != "room_join: boom" {
		t.Fatalf("expected reason-prefixed message, got %q", got)
	}
	bare := ReasonedError{Reason: ReasonConsentSubmit}
	if got := bare.Error(); got != "consent_submit" {
		t.Fatalf("expected bare reason message, got %q", got)
	}
}

func TestWrapPreservesExistingReason(t *testing.T) {
	first := Wrap(assertErr{}, ReasonConsentSubmit)
	second := Wrap(first, ReasonRoomJoin)
	if Reason(second) != ReasonConsentSubmit {
		t.Fatalf("expected reason preserved, got %s", Reason(second))
	}
}

func TestReasonOfPlainError(t *testing.T) {
	if Reason(assertErr{}) != ReasonUnknown {
		t.Fatalf("plain error must report unknown reason")
	}
	if Wrap(nil, ReasonRoomJoin) != nil {
		t.Fatalf("wrapping nil must stay nil")
	}
}

type assertErr struct{}

func (assertErr) Error() string { return "boom" }
