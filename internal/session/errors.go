package session

import "errors"

var (
	// ErrRelayLost means the relay connection failed mid-session.
	// Fatal: the session terminates and the close callback fires.
	ErrRelayLost = errors.New("relay connection lost")

	// ErrKicked means the relay forcibly removed this participant.
	ErrKicked = errors.New("removed from room")
)
