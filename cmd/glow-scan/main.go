// glow-scan discovers lights on the local network.
//
// It broadcasts a registration message and prints one line per device
// that answers within the collection window.
//
// Usage:
//
//	glow-scan [options]
//
// Options:
//
//	-broadcast       Broadcast address (default: 255.255.255.255)
//	-port            UDP port devices listen on (default: 38899)
//	-window          Total collection window (default: 5s)
//	-repeats         Re-broadcasts scheduled within the window (default: 4)
//	-interval        Delay between re-broadcasts (default: 750ms)
//	-all-interfaces  Broadcast on every eligible interface
//	-v               Verbose logging
//
// Example:
//
//	glow-scan -broadcast 192.168.1.255 -window 3s
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap/zapcore"

	"github.com/glowproto/glow/internal/zaplog"
	"github.com/glowproto/glow/pkg/discovery"
	"github.com/glowproto/glow/pkg/glow"
	"github.com/glowproto/glow/pkg/message"
	"github.com/glowproto/glow/pkg/retry"
)

func main() {
	broadcast := flag.String("broadcast", discovery.DefaultBroadcastAddr, "Broadcast address")
	port := flag.Int("port", message.DefaultPort, "UDP port devices listen on")
	window := flag.Duration("window", 5*time.Second, "Total collection window")
	repeats := flag.Int("repeats", 4, "Re-broadcasts scheduled within the window")
	interval := flag.Duration("interval", 750*time.Millisecond, "Delay between re-broadcasts")
	allInterfaces := flag.Bool("all-interfaces", false, "Broadcast on every eligible interface")
	verbose := flag.Bool("v", false, "Verbose logging")
	flag.Parse()

	config := glow.Config{
		Port:                *port,
		BroadcastAddr:       *broadcast,
		DiscoverWindow:      *window,
		DiscoverRetryPolicy: retry.Fixed(*repeats, *interval),
	}
	if *verbose {
		factory, err := zaplog.NewFactory(zapcore.DebugLevel)
		if err != nil {
			log.Fatalf("Failed to set up logging: %v", err)
		}
		defer factory.Sync()
		config.LoggerFactory = factory
	}

	client, err := glow.NewClient(config)
	if err != nil {
		log.Fatalf("Failed to create client: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var devices []discovery.Device
	if *allInterfaces {
		devices, err = client.DiscoverAllInterfaces(ctx)
	} else {
		devices, err = client.Discover(ctx)
	}
	if err != nil {
		log.Fatalf("Discovery failed: %v", err)
	}

	if len(devices) == 0 {
		fmt.Println("No devices found.")
		return
	}
	for _, d := range devices {
		fmt.Printf("%s  %-21s  %s\n", d.MAC, d.Addr, d.ModuleName)
	}
}
