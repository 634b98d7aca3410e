package glow

import (
	"context"
	"time"

	"github.com/glowproto/glow/pkg/discovery"
	"github.com/glowproto/glow/pkg/exchange"
	"github.com/glowproto/glow/pkg/message"
	"github.com/glowproto/glow/pkg/retry"
)

// Client is the high-level entry point: unicast control via Send,
// network-wide discovery via Discover, with per-client defaults from
// Config.
//
// A Client holds no per-call state. Every call opens its own socket on
// an ephemeral port and releases it on return, so any number of calls
// may run concurrently on one Client.
type Client struct {
	config    Config
	exchange  *exchange.Exchange
	collector *discovery.Collector
}

// NewClient creates a new client with the given configuration.
func NewClient(config Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	config.applyDefaults()

	return &Client{
		config: config,
		exchange: exchange.New(exchange.Config{
			Factory:       config.TransportFactory,
			LoggerFactory: config.LoggerFactory,
		}),
		collector: discovery.NewCollector(discovery.Config{
			Factory:       config.TransportFactory,
			LoggerFactory: config.LoggerFactory,
		}),
	}, nil
}

// Send delivers msg to the device at host using the client's configured
// port, timeout and retry policy, and returns the device's reply.
func (c *Client) Send(ctx context.Context, host string, msg *message.Message) (*message.Reply, error) {
	return c.exchange.Send(ctx, host, c.config.Port, msg, c.config.SendTimeout, c.config.SendRetryPolicy)
}

// SendWith is Send with an explicit per-attempt timeout and retry
// policy for this call only.
func (c *Client) SendWith(ctx context.Context, host string, msg *message.Message, timeout time.Duration, policy retry.Policy) (*message.Reply, error) {
	return c.exchange.Send(ctx, host, c.config.Port, msg, timeout, policy)
}

// Discover broadcasts a registration to the client's configured
// broadcast address and returns the devices that replied within the
// configured window. An empty result means no devices answered.
func (c *Client) Discover(ctx context.Context) ([]discovery.Device, error) {
	return c.collector.Discover(ctx, c.config.BroadcastAddr, c.config.DiscoverWindow, c.config.DiscoverRetryPolicy, c.config.Port)
}

// DiscoverWith is Discover with an explicit broadcast address, window
// and re-broadcast policy for this call only.
func (c *Client) DiscoverWith(ctx context.Context, broadcastAddr string, window time.Duration, policy retry.Policy) ([]discovery.Device, error) {
	return c.collector.Discover(ctx, broadcastAddr, window, policy, c.config.Port)
}

// DiscoverAllInterfaces runs Discover once per eligible local interface
// and merges the results. Multi-homed hosts use this when a single
// broadcast cannot reach every network.
func (c *Client) DiscoverAllInterfaces(ctx context.Context) ([]discovery.Device, error) {
	return c.collector.DiscoverAllInterfaces(ctx, c.config.BroadcastAddr, c.config.DiscoverWindow, c.config.DiscoverRetryPolicy, c.config.Port)
}
