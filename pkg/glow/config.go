package glow

import (
	"time"

	"github.com/pion/logging"

	"github.com/glowproto/glow/pkg/discovery"
	"github.com/glowproto/glow/pkg/message"
	"github.com/glowproto/glow/pkg/retry"
	"github.com/glowproto/glow/pkg/transport"
)

// Config holds all configuration for a Client.
type Config struct {
	// Network
	Port          int    // UDP port devices listen on (default: 38899)
	BroadcastAddr string // discovery broadcast address (default: 255.255.255.255)

	// Unicast defaults, used by Send. SendWith overrides them per call.
	SendTimeout     time.Duration // per-attempt reply window (default: 2s)
	SendRetryPolicy retry.Policy  // default: exponential, 2 retries from 500ms

	// Discovery defaults, used by Discover and DiscoverAllInterfaces.
	// DiscoverWith overrides them per call.
	DiscoverWindow      time.Duration // total collection window (default: 5s)
	DiscoverRetryPolicy retry.Policy  // re-broadcast schedule (default: 4 repeats every 750ms)

	// LoggerFactory is used to construct loggers. If nil, logging is
	// disabled.
	LoggerFactory logging.LoggerFactory

	// TransportFactory builds the UDP sockets. For virtual network
	// testing.
	TransportFactory transport.Factory
}

// Validate checks the configuration for errors. Zero values are valid;
// applyDefaults fills them in.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return ErrInvalidPort
	}
	if c.SendTimeout < 0 {
		return ErrInvalidTimeout
	}
	if c.DiscoverWindow < 0 {
		return ErrInvalidWindow
	}
	return nil
}

// applyDefaults fills in default values for unset fields.
func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = message.DefaultPort
	}
	if c.BroadcastAddr == "" {
		c.BroadcastAddr = discovery.DefaultBroadcastAddr
	}
	if c.SendTimeout == 0 {
		c.SendTimeout = 2 * time.Second
	}
	if c.SendRetryPolicy == (retry.Policy{}) {
		c.SendRetryPolicy = retry.Exponential(2, 500*time.Millisecond)
	}
	if c.DiscoverWindow == 0 {
		c.DiscoverWindow = 5 * time.Second
	}
	if c.DiscoverRetryPolicy == (retry.Policy{}) {
		c.DiscoverRetryPolicy = retry.Fixed(4, 750*time.Millisecond)
	}
}
