package client

import "errors"

// Failure classes of a run. Errors returned by this package wrap exactly one of them.
var (
	ErrConfiguration  = errors.New("configuration error")
	ErrAuth           = errors.New("unauthorized: check your API key")
	ErrProtocol       = errors.New("protocol error")
	ErrResponseFormat = errors.New("invalid session response")
	ErrTransport      = errors.New("transport error")
	// ErrLocalIO is recovered inside the message loop and reported to the peer.
	ErrLocalIO = errors.New("local io error")
)
