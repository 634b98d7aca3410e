package discovery

import (
	"net"

	"github.com/glowproto/glow/pkg/message"
)

// Device is one light found during a discovery window.
type Device struct {
	// MAC is the device identifier from the registration reply,
	// lowercased. Devices are deduplicated on it.
	MAC string

	// ModuleName is the hardware module identifier, when the device
	// reports one.
	ModuleName string

	// Addr is the source address of the first reply.
	Addr net.Addr

	// Reply is the full first reply, for callers that decode more of the
	// result object.
	Reply *message.Reply
}

// InterfaceAddr is one local interface eligible for per-interface
// discovery fan-out.
type InterfaceAddr struct {
	// Name is the interface name, used in logs only.
	Name string

	// IP is the interface's IPv4 address; fan-out binds the discovery
	// socket to it.
	IP net.IP
}
