package realtime

import "errors"

var (
	// ErrAuthRejected is returned when a connection presents a missing or
	// invalid credential. The connection has been closed and removed.
	ErrAuthRejected = errors.New("authentication rejected")

	// ErrUnknownConnection indicates the connection id is not registered.
	ErrUnknownConnection = errors.New("unknown connection")

	// ErrNotAuthenticated indicates an operation that requires a bound user
	// was attempted on an unauthenticated connection.
	ErrNotAuthenticated = errors.New("connection not authenticated")

	// ErrAlreadyAuthenticated indicates a second authentication attempt.
	ErrAlreadyAuthenticated = errors.New("connection already authenticated")

	// ErrInvalidChannel indicates a malformed channel name.
	ErrInvalidChannel = errors.New("invalid channel")
)
