package discovery

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/glowproto/glow/pkg/retry"
)

// systemInterfaceAddrs returns one IPv4 address per local interface that
// is up, not loopback and broadcast-capable.
func systemInterfaceAddrs() ([]InterfaceAddr, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}
	var out []InterfaceAddr
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 ||
			iface.Flags&net.FlagLoopback != 0 ||
			iface.Flags&net.FlagBroadcast == 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			ipNet, ok := addr.(*net.IPNet)
			if !ok {
				continue
			}
			ip := ipNet.IP.To4()
			if ip == nil {
				continue
			}
			out = append(out, InterfaceAddr{Name: iface.Name, IP: ip})
			break
		}
	}
	return out, nil
}

// DiscoverAllInterfaces runs one discovery round per eligible local
// interface, with each round's socket bound to that interface's address,
// and merges the results. Rounds run concurrently and share the window.
// A round that fails is logged and skipped; the merged set is
// deduplicated by MAC across interfaces. Multi-homed hosts use this when
// the limited broadcast address only reaches one network.
func (c *Collector) DiscoverAllInterfaces(ctx context.Context, broadcastAddr string, totalTimeout time.Duration, policy retry.Policy, port int) ([]Device, error) {
	ifaces, err := c.listInterfaces()
	if err != nil {
		return nil, fmt.Errorf("discovery: list interfaces: %w", err)
	}
	if len(ifaces) == 0 {
		return nil, ErrNoInterfaces
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		seen    = make(map[string]struct{})
		devices []Device
	)
	for _, iface := range ifaces {
		wg.Add(1)
		go func(iface InterfaceAddr) {
			defer wg.Done()
			local := net.JoinHostPort(iface.IP.String(), "0")
			found, err := c.discoverFrom(ctx, local, broadcastAddr, totalTimeout, policy, port)
			if err != nil && c.log != nil {
				c.log.Warnf("interface %s: %v", iface.Name, err)
			}
			mu.Lock()
			defer mu.Unlock()
			for _, dev := range found {
				if _, dup := seen[dev.MAC]; dup {
					continue
				}
				seen[dev.MAC] = struct{}{}
				devices = append(devices, dev)
			}
		}(iface)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return devices, err
	}
	return devices, nil
}
