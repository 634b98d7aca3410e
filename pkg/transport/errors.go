package transport

import "errors"

// Transport errors.
var (
	// ErrClosed is returned when an operation is attempted on a stopped transport.
	ErrClosed = errors.New("transport: closed")

	// ErrNotStarted is returned when an operation requires a started transport.
	ErrNotStarted = errors.New("transport: not started")

	// ErrAlreadyStarted is returned when Start is called twice.
	ErrAlreadyStarted = errors.New("transport: already started")

	// ErrInvalidAddress is returned when no destination address is provided.
	ErrInvalidAddress = errors.New("transport: invalid address")

	// ErrShortWrite is returned when the socket accepted fewer bytes than
	// the payload. The socket is considered broken; callers must not retry.
	ErrShortWrite = errors.New("transport: short write")

	// ErrPayloadTooLarge is returned for payloads that exceed MaxDatagramSize.
	ErrPayloadTooLarge = errors.New("transport: payload exceeds maximum datagram size")

	// ErrPipeInUse is returned when a pipe endpoint is requested twice.
	ErrPipeInUse = errors.New("transport: pipe endpoint already in use")
)
