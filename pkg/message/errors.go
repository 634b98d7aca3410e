package message

import "errors"

// Wire parsing errors.
var (
	// ErrNotObject rejects datagrams whose payload is not a top-level
	// JSON object (arrays, bare values, null, empty payloads).
	ErrNotObject = errors.New("message: reply is not a JSON object")

	// ErrMalformedReply rejects datagrams that fail JSON decoding.
	ErrMalformedReply = errors.New("message: malformed reply")
)
