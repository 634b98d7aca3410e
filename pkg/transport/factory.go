package transport

import "net"

// Factory creates the packet conn a transport runs on. The default
// implementation binds real UDP sockets; tests substitute in-memory pipes.
type Factory interface {
	// CreateUDPConn binds a packet conn on localAddr. An empty localAddr
	// binds an ephemeral port on all interfaces.
	CreateUDPConn(localAddr string) (net.PacketConn, error)
}

// UDPFactory creates real IPv4 UDP sockets. Sockets from the net package
// are broadcast-capable as created, so the same conn serves unicast control
// and broadcast discovery.
type UDPFactory struct{}

// CreateUDPConn binds an IPv4 UDP socket on localAddr.
func (UDPFactory) CreateUDPConn(localAddr string) (net.PacketConn, error) {
	if localAddr == "" {
		localAddr = ":0"
	}
	return net.ListenPacket("udp4", localAddr)
}

// Verify UDPFactory implements Factory.
var _ Factory = UDPFactory{}
