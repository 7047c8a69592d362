package errorsx

import "errors"

// ReasonedError carries a reason code alongside the underlying error. The
// code shows up in the message so log lines and test assertions can classify
// a failure without unwrapping.
type ReasonedError struct {
	Err    error
	Reason ReasonCode
}

func (e ReasonedError) Error() string {
	if e.Err == nil {
		return string(e.Reason)
	}
	return string(e.Reason) + ": " + e.Err.Error()
}

func (e ReasonedError) Unwrap() error {
	return e.Err
}

// Wrap tags err with reason. A nil err stays nil and an already reasoned
// error keeps its original code, so the first classification wins.
func Wrap(err error, reason ReasonCode) error {
	if err == nil {
		return nil
	}
	var re ReasonedError
	if errors.As(err, &re) {
		return err
	}
	return ReasonedError{Err: err, Reason: reason}
}

// Reason reports the code attached to err, ReasonUnknown when none is.
func Reason(err error) ReasonCode {
	var re ReasonedError
	if errors.As(err, &re) {
		return re.Reason
	}
	return ReasonUnknown
}

// HasReason reports whether err carries the given reason code.
func HasReason(err error, reason ReasonCode) bool {
	return Reason(err) == reason
}
