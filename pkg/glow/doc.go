// Package glow provides a high-level API for controlling and discovering
// networked lights that speak the UDP/JSON control protocol.
//
// This package is the top-level facade over the lower-level building
// blocks (transport, exchange, discovery, retry): a Client with sane
// defaults for the timeout, retry and discovery parameters every call
// needs.
//
// # Controlling a device
//
// To talk to a known device, create a Client and send it a message:
//
//	client, err := glow.NewClient(glow.Config{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	reply, err := client.Send(ctx, "192.168.1.42",
//	    message.New(message.MethodSetPilot, map[string]any{"state": true}))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(reply.Result)
//
// Unreachable devices surface an *exchange.TimeoutError naming the peer
// and the attempt count; devices that reject the method surface an
// *exchange.MethodNotSupportedError.
//
// # Finding devices
//
// Discover broadcasts a registration and collects every answer within
// the configured window:
//
//	devices, err := client.Discover(ctx)
//	for _, d := range devices {
//	    fmt.Println(d.MAC, d.Addr, d.ModuleName)
//	}
//
// An empty result is not an error; it means nothing answered. On hosts
// with several networks, DiscoverAllInterfaces broadcasts on each one.
//
// # Testing
//
// For tests, Config.TransportFactory accepts a virtual network such as
// transport.NewPipeFactoryPair, and Config.LoggerFactory any pion
// logging factory.
package glow
