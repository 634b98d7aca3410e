// Package message implements the Glow wire format: one newline-free UTF-8
// JSON object per UDP datagram.
//
// Outbound datagrams carry a method name and a free-form parameter map:
//
//	{"method": "setPilot", "params": {"state": true}}
//
// Inbound datagrams carry either a result object or an error object:
//
//	{"method": "setPilot", "result": {"success": true}}
//	{"error": {"code": -32601, "message": "Method not found"}}
//
// The package enforces no schema beyond that shape; interpreting result
// contents is left to callers.
package message

import (
	"encoding/json"
	"fmt"
)

// DefaultPort is the UDP port Glow devices listen on, for both unicast
// control and broadcast discovery.
const DefaultPort = 38899

// CodeMethodNotFound is the error code devices return when they do not
// support the requested method.
const CodeMethodNotFound = -32601

// Well-known method names.
const (
	// MethodRegistration is the discovery broadcast method. Devices on
	// the subnet answer with their MAC and module identifier.
	MethodRegistration = "registration"

	// MethodGetPilot reads the current light state.
	MethodGetPilot = "getPilot"

	// MethodSetPilot writes light state (on/off, brightness, color).
	MethodSetPilot = "setPilot"

	// MethodGetSystemConfig reads static device information.
	MethodGetSystemConfig = "getSystemConfig"
)

// Message is an outbound request: a method name plus an opaque parameter
// map. The zero value is not useful; construct with New.
type Message struct {
	Method string         `json:"method"`
	Params map[string]any `json:"params,omitempty"`
}

// New creates a message for the given method. params may be nil for
// parameterless methods such as getPilot.
func New(method string, params map[string]any) *Message {
	return &Message{Method: method, Params: params}
}

// NewRegistration creates the discovery broadcast request. The caller
// identity fields are fixed placeholders; devices answer regardless of
// their values, and register=false keeps the device from recording the
// caller as a home-automation hub.
func NewRegistration() *Message {
	return &Message{
		Method: MethodRegistration,
		Params: map[string]any{
			"phoneMac": "AAAAAAAAAAAA",
			"register": false,
			"phoneIp":  "1.2.3.4",
			"id":       1,
		},
	}
}

// Marshal serializes the message to a single JSON object with no trailing
// newline, ready to be sent as one datagram.
func (m *Message) Marshal() ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("message: marshal %q: %w", m.Method, err)
	}
	return data, nil
}
