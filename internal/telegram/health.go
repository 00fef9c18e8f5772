package telegram

import (
	"errors"

	"github.com/gotd/td/tgerr"
)

// ErrNotAuthenticated is returned when a session connects but the login was
// never completed.
var ErrNotAuthenticated = errors.New("session is not authenticated")

// FailureClass classifies why an account could not join the pool.
type FailureClass int

const (
	FailureUnknown FailureClass = iota
	FailureRevoked
	FailureBanned
	FailureUnauthenticated
)

func (f FailureClass) String() string {
	switch f {
	case FailureRevoked:
		return "revoked"
	case FailureBanned:
		return "banned"
	case FailureUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// ClassifyConnectError maps a connect/auth error onto the failure taxonomy.
func ClassifyConnectError(err error) FailureClass {
	switch {
	case errors.Is(err, ErrNotAuthenticated):
		return FailureUnauthenticated
	case tgerr.Is(err, "SESSION_REVOKED", "SESSION_EXPIRED", "AUTH_KEY_UNREGISTERED"):
		return FailureRevoked
	case tgerr.Is(err, "PHONE_NUMBER_BANNED", "USER_DEACTIVATED", "USER_DEACTIVATED_BAN"):
		return FailureBanned
	default:
		return FailureUnknown
	}
}
