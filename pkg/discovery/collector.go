// Package discovery finds lights by UDP broadcast.
//
// A discovery round opens its own socket on an ephemeral port, broadcasts
// a registration message and collects every reply that arrives within one
// total time window. Replies are deduplicated by MAC; the first reply per
// device wins. A retry policy schedules re-broadcasts inside the window
// for devices that missed an earlier datagram.
//
// Unlike exchange, which times out per attempt, discovery shares a single
// deadline across the initial broadcast, every scheduled repeat and all
// collected replies.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/pion/logging"

	"github.com/glowproto/glow/pkg/message"
	"github.com/glowproto/glow/pkg/retry"
	"github.com/glowproto/glow/pkg/transport"
)

// DefaultBroadcastAddr is the limited broadcast address, used when the
// caller does not supply a subnet-directed one.
const DefaultBroadcastAddr = "255.255.255.255"

// Config collects the options for a Collector.
type Config struct {
	// Factory builds the UDP socket for each discovery round. Defaults
	// to real sockets.
	Factory transport.Factory

	// LoggerFactory is used to construct the logger. Defaults to no
	// logging.
	LoggerFactory logging.LoggerFactory

	// ListInterfaces enumerates local interfaces for
	// DiscoverAllInterfaces. Defaults to the system interface table.
	ListInterfaces func() ([]InterfaceAddr, error)
}

// Collector runs broadcast discovery rounds. A single Collector may run
// any number of rounds concurrently; each round owns its own socket and
// state.
type Collector struct {
	factory        transport.Factory
	loggerFactory  logging.LoggerFactory
	listInterfaces func() ([]InterfaceAddr, error)
	log            logging.LeveledLogger
}

// NewCollector creates a Collector.
func NewCollector(config Config) *Collector {
	c := &Collector{
		factory:        config.Factory,
		loggerFactory:  config.LoggerFactory,
		listInterfaces: config.ListInterfaces,
	}
	if c.listInterfaces == nil {
		c.listInterfaces = systemInterfaceAddrs
	}
	if config.LoggerFactory != nil {
		c.log = config.LoggerFactory.NewLogger("discovery")
	}
	return c
}

// Discover broadcasts a registration to broadcastAddr:port and returns
// the devices that replied within totalTimeout. policy schedules
// re-broadcasts inside the window; retries stop early once the window is
// spent. An empty result is a valid outcome, not an error: the only hard
// failures are failing to open the socket and failing to send the
// initial broadcast.
func (c *Collector) Discover(ctx context.Context, broadcastAddr string, totalTimeout time.Duration, policy retry.Policy, port int) ([]Device, error) {
	return c.discoverFrom(ctx, "", broadcastAddr, totalTimeout, policy, port)
}

// discoverFrom runs one discovery round with the socket bound to
// localAddr. An empty localAddr binds to all interfaces.
func (c *Collector) discoverFrom(ctx context.Context, localAddr, broadcastAddr string, totalTimeout time.Duration, policy retry.Policy, port int) ([]Device, error) {
	dst, err := net.ResolveUDPAddr("udp4", net.JoinHostPort(broadcastAddr, strconv.Itoa(port)))
	if err != nil {
		return nil, fmt.Errorf("discovery: resolve %s: %w", broadcastAddr, err)
	}

	data, err := message.NewRegistration().Marshal()
	if err != nil {
		return nil, err
	}

	tr, err := transport.NewUDP(transport.UDPConfig{
		LocalAddr:     localAddr,
		Factory:       c.factory,
		LoggerFactory: c.loggerFactory,
	})
	if err != nil {
		return nil, fmt.Errorf("discovery: open transport: %w", err)
	}
	defer tr.Stop()

	if err := tr.Start(); err != nil {
		return nil, fmt.Errorf("discovery: open transport: %w", err)
	}

	started := time.Now()
	if err := tr.Send(data, dst); err != nil {
		return nil, fmt.Errorf("discovery: broadcast to %s: %w", dst, err)
	}
	if c.log != nil {
		c.log.Debugf("broadcast %s to %s, window %s", message.MethodRegistration, dst, totalTimeout)
	}

	stop := make(chan struct{})
	defer close(stop)
	if policy.Enabled() {
		go c.rebroadcast(tr, dst, data, policy, started, totalTimeout, stop)
	}

	window := time.NewTimer(totalTimeout)
	defer window.Stop()

	seen := make(map[string]struct{})
	var devices []Device
	for {
		select {
		case <-window.C:
			return devices, nil
		case <-ctx.Done():
			return devices, ctx.Err()
		case dgram, ok := <-tr.Datagrams():
			if !ok {
				return devices, nil
			}
			if dev, ok := c.collect(seen, dgram); ok {
				devices = append(devices, dev)
			}
		}
	}
}

// collect parses one inbound datagram. Garbage and replies without a MAC
// are dropped, as is any reply from a MAC already seen this round.
func (c *Collector) collect(seen map[string]struct{}, dgram transport.Datagram) (Device, bool) {
	reply, err := message.ParseReply(dgram.Data, dgram.Source)
	if err != nil {
		if c.log != nil {
			c.log.Debugf("ignoring datagram from %s: %v", dgram.Source, err)
		}
		return Device{}, false
	}
	mac, ok := reply.MAC()
	if !ok {
		if c.log != nil {
			c.log.Debugf("ignoring reply without mac from %s", dgram.Source)
		}
		return Device{}, false
	}
	mac = strings.ToLower(mac)
	if _, dup := seen[mac]; dup {
		return Device{}, false
	}
	seen[mac] = struct{}{}

	dev := Device{MAC: mac, Addr: dgram.Source, Reply: reply}
	if name, ok := reply.ModuleName(); ok {
		dev.ModuleName = name
	}
	if c.log != nil {
		c.log.Debugf("found %s at %s", mac, dgram.Source)
	}
	return dev, true
}

// rebroadcast re-sends the registration on the retry schedule. Every
// repeat re-checks elapsed time against the window before firing, so a
// repeat that comes due as the window closes is suppressed rather than
// sent.
func (c *Collector) rebroadcast(tr *transport.UDP, dst net.Addr, data []byte, policy retry.Policy, started time.Time, totalTimeout time.Duration, stop <-chan struct{}) {
	interval := policy.BaseInterval
	for i := 0; i < policy.MaxRetries; i++ {
		timer := time.NewTimer(interval)
		select {
		case <-stop:
			timer.Stop()
			return
		case <-timer.C:
		}
		if time.Since(started) >= totalTimeout {
			return
		}
		if err := tr.Send(data, dst); err != nil {
			if errors.Is(err, transport.ErrClosed) || errors.Is(err, net.ErrClosed) {
				return
			}
			if c.log != nil {
				c.log.Warnf("re-broadcast to %s: %v", dst, err)
			}
		}
		interval = policy.NextInterval(interval)
	}
}
