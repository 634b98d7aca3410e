package message

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net"
)

// WireError is the error object a device embeds in a reply.
type WireError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error formats the wire error for diagnostics.
func (e *WireError) Error() string {
	return fmt.Sprintf("code %d: %s", e.Code, e.Message)
}

// MethodNotFound reports whether the device rejected the method as
// unsupported.
func (e *WireError) MethodNotFound() bool {
	return e.Code == CodeMethodNotFound
}

// Reply is one parsed inbound datagram, tagged with the sender address.
// Exactly one of Result and Err is meaningful: a reply without an error
// object is a success, whatever its result contents.
type Reply struct {
	// Method echoes the request method, when the device includes it.
	Method string

	// Result is the free-form result object. May be nil on success when
	// the device omits it.
	Result map[string]any

	// Err is the device-reported error object, nil on success.
	Err *WireError

	// Source is the address the datagram arrived from.
	Source net.Addr

	raw []byte
}

// wireReply is the decode target; unknown keys are ignored.
type wireReply struct {
	Method string         `json:"method"`
	Result map[string]any `json:"result"`
	Error  *WireError     `json:"error"`
}

// ParseReply parses one datagram into a Reply. The payload must be a
// single top-level JSON object; anything else (arrays, bare values, null,
// truncated JSON) fails with ErrNotObject or ErrMalformedReply. The raw
// bytes are cloned into the Reply so the caller may reuse its read buffer.
func ParseReply(data []byte, src net.Addr) (*Reply, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, ErrNotObject
	}

	var wire wireReply
	if err := json.Unmarshal(trimmed, &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedReply, err)
	}

	return &Reply{
		Method: wire.Method,
		Result: wire.Result,
		Err:    wire.Error,
		Source: src,
		raw:    bytes.Clone(data),
	}, nil
}

// Raw returns the datagram bytes the reply was parsed from.
func (r *Reply) Raw() []byte {
	return r.raw
}

// MAC returns the device MAC from the result object. Discovery replies
// carry it; absence or a non-string value reports ok=false.
func (r *Reply) MAC() (string, bool) {
	return r.resultString("mac")
}

// ModuleName returns the device module identifier from the result object.
func (r *Reply) ModuleName() (string, bool) {
	return r.resultString("moduleName")
}

func (r *Reply) resultString(key string) (string, bool) {
	if r.Result == nil {
		return "", false
	}
	s, ok := r.Result[key].(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}
