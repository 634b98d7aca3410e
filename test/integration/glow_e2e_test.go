// Package integration contains end-to-end tests for the glow client.
//
// These tests exercise the full stack (facade, exchange, discovery,
// transport) against simulated devices on loopback UDP. Engine-level
// behavior is covered by the unit tests in each package; this suite
// verifies the workflows a caller actually runs: discover the network,
// then control what was found.
package integration

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/glowproto/glow/internal/devicesim"
	"github.com/glowproto/glow/pkg/exchange"
	"github.com/glowproto/glow/pkg/glow"
	"github.com/glowproto/glow/pkg/message"
	"github.com/glowproto/glow/pkg/retry"
)

func startSim(t *testing.T, respond devicesim.Responder) *devicesim.Sim {
	t.Helper()
	sim, err := devicesim.New(respond)
	if err != nil {
		t.Fatalf("devicesim.New() error: %v", err)
	}
	t.Cleanup(sim.Close)
	return sim
}

func newClient(t *testing.T, config glow.Config) *glow.Client {
	t.Helper()
	client, err := glow.NewClient(config)
	if err != nil {
		t.Fatalf("NewClient() error: %v", err)
	}
	return client
}

// TestControlRoundTrip drives a setPilot through the whole stack and
// checks the echoed state.
func TestControlRoundTrip(t *testing.T) {
	sim := startSim(t, devicesim.EchoResult())
	client := newClient(t, glow.Config{Port: sim.Port(), SendTimeout: time.Second})

	reply, err := client.Send(context.Background(), sim.Host(),
		message.New(message.MethodSetPilot, map[string]any{"state": true, "dimming": float64(60)}))
	if err != nil {
		t.Fatalf("Send() error: %v", err)
	}
	if state, ok := reply.Result["state"].(bool); !ok || !state {
		t.Errorf("Result[state] = %v, want true", reply.Result["state"])
	}
	if dimming, ok := reply.Result["dimming"].(float64); !ok || dimming != 60 {
		t.Errorf("Result[dimming] = %v, want 60", reply.Result["dimming"])
	}
}

// TestControlSurvivesPacketLoss answers only the third datagram, the way
// a busy device drops the first two.
func TestControlSurvivesPacketLoss(t *testing.T) {
	var calls int
	var mu sync.Mutex
	sim := startSim(t, func(req devicesim.Request) []devicesim.Response {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n < 3 {
			return nil
		}
		return devicesim.ReplyJSON(fmt.Sprintf(`{"method":%q,"result":{"success":true}}`, req.Method))
	})
	client := newClient(t, glow.Config{Port: sim.Port()})

	reply, err := client.SendWith(context.Background(), sim.Host(),
		message.New(message.MethodGetPilot, nil), 100*time.Millisecond, retry.Fixed(3, 50*time.Millisecond))
	if err != nil {
		t.Fatalf("SendWith() error: %v", err)
	}
	if success, ok := reply.Result["success"].(bool); !ok || !success {
		t.Errorf("Result[success] = %v, want true", reply.Result["success"])
	}
	if sim.Requests() != 3 {
		t.Errorf("device received %d requests, want 3", sim.Requests())
	}
}

// TestControlTimeoutIdentifiesPeer checks that an unreachable device
// surfaces an error naming the peer and the attempt count.
func TestControlTimeoutIdentifiesPeer(t *testing.T) {
	sim := startSim(t, devicesim.Silence)
	client := newClient(t, glow.Config{Port: sim.Port()})

	_, err := client.SendWith(context.Background(), sim.Host(),
		message.New(message.MethodGetPilot, nil), 100*time.Millisecond, retry.Fixed(1, 50*time.Millisecond))

	var timeoutErr *exchange.TimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Fatalf("SendWith() error = %v, want TimeoutError", err)
	}
	if !strings.Contains(err.Error(), sim.Addr().String()) {
		t.Errorf("error %q does not name the peer %s", err, sim.Addr())
	}
	if !strings.Contains(err.Error(), "2 attempt") {
		t.Errorf("error %q does not name the attempt count", err)
	}
}

// TestDiscoverThenControl runs the canonical workflow: find devices by
// broadcast, then address one directly.
func TestDiscoverThenControl(t *testing.T) {
	sim := startSim(t, func(req devicesim.Request) []devicesim.Response {
		switch req.Method {
		case message.MethodRegistration:
			return devicesim.ReplyJSON(`{"method":"registration","result":{"mac":"a1b2c3d4e5f6","moduleName":"ESP01_SHRGB_03"}}`)
		case message.MethodGetPilot:
			return devicesim.ReplyJSON(`{"method":"getPilot","result":{"state":true,"dimming":42}}`)
		default:
			return nil
		}
	})
	client := newClient(t, glow.Config{
		Port:           sim.Port(),
		BroadcastAddr:  sim.Host(),
		DiscoverWindow: 300 * time.Millisecond,
	})
	ctx := context.Background()

	devices, err := client.Discover(ctx)
	if err != nil {
		t.Fatalf("Discover() error: %v", err)
	}
	if len(devices) != 1 {
		t.Fatalf("Discover() returned %d devices, want 1", len(devices))
	}

	host, _, err := net.SplitHostPort(devices[0].Addr.String())
	if err != nil {
		t.Fatalf("SplitHostPort(%q) error: %v", devices[0].Addr, err)
	}
	reply, err := client.Send(ctx, host, message.New(message.MethodGetPilot, nil))
	if err != nil {
		t.Fatalf("Send() error: %v", err)
	}
	if dimming, ok := reply.Result["dimming"].(float64); !ok || dimming != 42 {
		t.Errorf("Result[dimming] = %v, want 42", reply.Result["dimming"])
	}
}

// TestParallelSends runs several control calls at once through one
// client. Every call owns its own socket, so none of them may interfere.
func TestParallelSends(t *testing.T) {
	sim := startSim(t, devicesim.EchoResult())
	client := newClient(t, glow.Config{Port: sim.Port(), SendTimeout: time.Second})

	const callers = 4
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			reply, err := client.Send(context.Background(), sim.Host(),
				message.New(message.MethodSetPilot, map[string]any{"id": float64(i)}))
			if err != nil {
				errs[i] = err
				return
			}
			if got, ok := reply.Result["id"].(float64); !ok || got != float64(i) {
				errs[i] = fmt.Errorf("caller %d got id %v", i, reply.Result["id"])
			}
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("caller %d: %v", i, err)
		}
	}
	if sim.Requests() != callers {
		t.Errorf("device received %d requests, want %d", sim.Requests(), callers)
	}
}

// TestMethodNotFoundEndToEnd checks that a firmware rejection travels
// through the facade as a MethodNotSupportedError.
func TestMethodNotFoundEndToEnd(t *testing.T) {
	sim := startSim(t, func(req devicesim.Request) []devicesim.Response {
		return devicesim.ReplyJSON(`{"method":"frobnicate","error":{"code":-32601,"message":"Method not found"}}`)
	})
	client := newClient(t, glow.Config{Port: sim.Port()})

	_, err := client.SendWith(context.Background(), sim.Host(),
		message.New("frobnicate", nil), 200*time.Millisecond, retry.Fixed(5, 50*time.Millisecond))

	var notSupported *exchange.MethodNotSupportedError
	if !errors.As(err, &notSupported) {
		t.Fatalf("SendWith() error = %v, want MethodNotSupportedError", err)
	}
	if notSupported.Method != "frobnicate" {
		t.Errorf("Method = %q, want frobnicate", notSupported.Method)
	}
	// The rejection is terminal; no retry may follow it.
	if sim.Requests() != 1 {
		t.Errorf("device received %d requests, want 1", sim.Requests())
	}
}
