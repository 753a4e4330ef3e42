package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies the outcome of a remote call. Callers branch on the
// kind, never on the raw transport error.
type ErrorKind string

const (
	NetworkFailure    ErrorKind = "network"
	AuthFailure       ErrorKind = "auth"
	ConflictFailure   ErrorKind = "conflict"
	ValidationFailure ErrorKind = "validation"
	ServerFailure     ErrorKind = "server"

	// NotAuthenticated is local only: the action needs a signed-in viewer and
	// no request was sent.
	NotAuthenticated ErrorKind = "not_authenticated"
)

// Retryable reports whether the user may simply try again.
func (k ErrorKind) Retryable() bool {
	return k == NetworkFailure || k == ServerFailure
}

var (
	ErrBusy              = errors.New("another session operation is in progress")
	ErrNotAuthenticated  = errors.New("not authenticated")
	ErrStale             = errors.New("response discarded: identity changed while in flight")
	ErrInvalidTransition = errors.New("invalid session transition")
)

// Failure is the classified error returned by every remote call.
type Failure struct {
	Kind    ErrorKind
	Status  int               // HTTP status, 0 when no response was received
	Message string            // server or transport message, safe to show
	Fields  map[string]string // per-field details for ValidationFailure
	Err     error
}

func (f *Failure) Error() string {
	if f.Status != 0 {
		return fmt.Sprintf("%s failure (%d): %s", f.Kind, f.Status, f.Message)
	}
	return fmt.Sprintf("%s failure: %s", f.Kind, f.Message)
}

func (f *Failure) Unwrap() error { return f.Err }

// NewFailure builds a Failure without an underlying cause.
func NewFailure(kind ErrorKind, status int, message string) *Failure {
	return &Failure{Kind: kind, Status: status, Message: message}
}

// KindOf extracts the classification from err. Errors that carry no
// classification report false.
func KindOf(err error) (ErrorKind, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind, true
	}
	return "", false
}

// MessageOf returns the user-facing message carried by err.
func MessageOf(err error) string {
	var f *Failure
	if errors.As(err, &f) && f.Message != "" {
		return f.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
