package apiclient

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the fixed taxonomy every backend failure is folded into.  Callers
// branch on kinds, never on raw HTTP status codes.
type Kind int

const (
	KindNetwork Kind = iota + 1
	KindSessionExpired
	KindForbidden
	KindNotFound
	KindValidation
	KindServer
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindSessionExpired:
		return "session_expired"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindServer:
		return "server"
	}
	return "unknown"
}

// Sentinels for errors.Is.  An *Error matches the sentinel of its kind.
var (
	ErrNetwork        = errors.New("backend unreachable")
	ErrSessionExpired = errors.New("session expired")
	ErrForbidden      = errors.New("forbidden")
	ErrNotFound       = errors.New("not found")
	ErrValidation     = errors.New("rejected by backend")
	ErrServer         = errors.New("backend error")
)

// Error is returned by every Client method that fails.
type Error struct {
	Kind   Kind
	Status int    // HTTP status, zero for network failures
	Op     string // e.g. "POST /bookings"
	Detail string // message from the backend body, if any
	Err    error  // underlying transport error, if any
}

func (e *Error) Error() string {
	switch {
	case e.Detail != "":
		return fmt.Sprintf("%s: %s (%d): %s", e.Op, e.Kind, e.Status, e.Detail)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s (%d)", e.Op, e.Kind, e.Status)
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrNotFound) and friends match by kind.
func (e *Error) Is(target error) bool {
	return target == sentinel(e.Kind)
}

func sentinel(k Kind) error {
	switch k {
	case KindNetwork:
		return ErrNetwork
	case KindSessionExpired:
		return ErrSessionExpired
	case KindForbidden:
		return ErrForbidden
	case KindNotFound:
		return ErrNotFound
	case KindValidation:
		return ErrValidation
	}
	return ErrServer
}

// kindForStatus folds an HTTP status into the taxonomy.
func kindForStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized:
		return KindSessionExpired
	case status == http.StatusForbidden:
		return KindForbidden
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusBadRequest, status == http.StatusConflict, status == http.StatusUnprocessableEntity:
		return KindValidation
	}
	return KindServer
}

// KindOf extracts the kind of a backend error, or zero for anything else.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// Message is the single translation from a backend error to the text shown
// to the user.  Validation errors surface the backend's own wording because
// it names the offending field.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if !errors.As(err, &e) {
		return "Something went wrong. Please try again."
	}
	switch e.Kind {
	case KindNetwork:
		return "Cannot reach the server. Check your connection and try again."
	case KindSessionExpired:
		return "Your session has expired. Please log in again."
	case KindForbidden:
		return "You do not have permission to perform this action."
	case KindNotFound:
		return "The requested resource was not found."
	case KindValidation:
		if e.Detail != "" {
			return e.Detail
		}
		return "The submitted data is invalid."
	}
	return "The server encountered an error. Please try again later."
}
