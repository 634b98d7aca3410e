package exchange

import (
	"fmt"
	"time"
)

// ConnectionError reports a local socket failure: the transport could not
// be acquired or the payload could not be written in full. Never retried;
// the socket is broken, not the network.
type ConnectionError struct {
	// Addr is the destination, as host:port.
	Addr string

	// Err is the underlying failure.
	Err error
}

// Error implements the error interface.
func (e *ConnectionError) Error() string {
	return fmt.Sprintf("exchange: connection to %s failed: %v", e.Addr, e.Err)
}

// Unwrap returns the underlying failure.
func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// TimeoutError reports that every attempt went unanswered.
type TimeoutError struct {
	// Addr is the peer that never replied, as host:port.
	Addr string

	// Timeout is the per-attempt reply window.
	Timeout time.Duration

	// Attempts is the number of attempts made, the initial send included.
	Attempts int
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("exchange: no reply from %s after %d attempt(s) of %s each", e.Addr, e.Attempts, e.Timeout)
}

// MethodNotSupportedError reports that the peer rejected the request
// method with the reserved method-not-found code. Deterministic; never
// retried.
type MethodNotSupportedError struct {
	// Addr is the rejecting peer, as host:port.
	Addr string

	// Method is the rejected request method.
	Method string

	// Message is the peer's error message.
	Message string
}

// Error implements the error interface.
func (e *MethodNotSupportedError) Error() string {
	return fmt.Sprintf("exchange: %s does not support method %q: %s", e.Addr, e.Method, e.Message)
}

// ResponseError reports an application-level error object returned by the
// peer, other than method-not-found. Deterministic; never retried.
type ResponseError struct {
	// Addr is the peer, as host:port.
	Addr string

	// Code is the numeric error code from the reply.
	Code int

	// Message is the peer's error message.
	Message string

	// Raw is the reply datagram for diagnostics.
	Raw []byte
}

// Error implements the error interface.
func (e *ResponseError) Error() string {
	return fmt.Sprintf("exchange: %s returned error %d: %s", e.Addr, e.Code, e.Message)
}

// ParseError reports a reply that arrived but could not be parsed as the
// wire format requires. Deterministic for this datagram; never retried.
type ParseError struct {
	// Addr is the peer, as host:port.
	Addr string

	// Raw is the unparseable datagram.
	Raw []byte

	// Err is the parse failure.
	Err error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("exchange: unparseable reply from %s: %v", e.Addr, e.Err)
}

// Unwrap returns the parse failure.
func (e *ParseError) Unwrap() error {
	return e.Err
}
