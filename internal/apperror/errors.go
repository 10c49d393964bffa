package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies every failure that can reach a user.
type Kind string

const (
	KindValidation         Kind = "VALIDATION"
	KindAuthExpired        Kind = "AUTH_EXPIRED"
	KindNetworkUnreachable Kind = "NETWORK_UNREACHABLE"
	KindServerRejected     Kind = "SERVER_REJECTED"
)

const (
	MsgGeneric            = "An API error occurred"
	MsgNetworkUnreachable = "Could not connect to the server"
	MsgAuthExpired        = "Your session has expired. Please log in again."
)

// Error is the only error type whose text is shown to users.
type Error struct {
	Kind   Kind
	Status int // HTTP status for ServerRejected / AuthExpired, 0 otherwise
	Detail string
}

func (e *Error) Error() string {
	return e.Detail
}

func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Detail: fmt.Sprintf(format, args...)}
}

func AuthExpired() *Error {
	return AuthRejected("")
}

// AuthRejected is AuthExpired carrying the server's explanation, such as a
// wrong password on login.
func AuthRejected(detail string) *Error {
	if detail == "" {
		detail = MsgAuthExpired
	}
	return &Error{Kind: KindAuthExpired, Status: 401, Detail: detail}
}

func NetworkUnreachable() *Error {
	return &Error{Kind: KindNetworkUnreachable, Detail: MsgNetworkUnreachable}
}

// ServerRejected falls back to the generic message when detail is empty.
func ServerRejected(status int, detail string) *Error {
	if detail == "" {
		detail = MsgGeneric
	}
	return &Error{Kind: KindServerRejected, Status: status, Detail: detail}
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// KindOf returns the kind of err, or KindServerRejected for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindServerRejected
}

// Message returns user-safe text for err. Errors outside the taxonomy never
// leak their own text.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Detail
	}
	return MsgGeneric
}
