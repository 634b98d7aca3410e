// Package exchange implements the point-to-point request engine: one
// message to one device, first valid reply back, with transparent retries
// over packet loss.
//
// Each attempt gets its own full reply window (per-attempt timeout). Only
// silence is retried: any explicit peer response, error responses included,
// terminates the call immediately, because a deterministic protocol error
// is not fixed by resending. Every call acquires its own ephemeral-port
// transport and releases it before returning.
package exchange

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/pion/logging"

	"github.com/glowproto/glow/pkg/message"
	"github.com/glowproto/glow/pkg/retry"
	"github.com/glowproto/glow/pkg/transport"
)

// Exchange sends requests to individual devices. It holds no per-call
// state; concurrent Send calls are independent, each owning its own
// socket.
type Exchange struct {
	factory       transport.Factory
	loggerFactory logging.LoggerFactory
	log           logging.LeveledLogger
}

// Config configures an Exchange.
type Config struct {
	// Factory creates the per-call transport conns. Defaults to real UDP
	// sockets.
	Factory transport.Factory

	// LoggerFactory is the factory for creating loggers.
	// If nil, logging is disabled.
	LoggerFactory logging.LoggerFactory
}

// New creates an Exchange.
func New(config Config) *Exchange {
	e := &Exchange{
		factory:       config.Factory,
		loggerFactory: config.LoggerFactory,
	}
	if e.factory == nil {
		e.factory = transport.UDPFactory{}
	}
	if config.LoggerFactory != nil {
		e.log = config.LoggerFactory.NewLogger("exchange")
	}
	return e
}

// Send delivers msg to host:port and returns the first reply. The payload
// is serialized once and retransmitted per policy; timeout is the reply
// window of each individual attempt, so the worst-case duration is about
// timeout times the attempt count plus the retry intervals in between.
//
// The outcome is exactly one of: the peer's reply, ConnectionError,
// ParseError, MethodNotSupportedError, ResponseError, TimeoutError, or
// ctx.Err() on cancellation.
func (e *Exchange) Send(ctx context.Context, host string, port int, msg *message.Message, timeout time.Duration, policy retry.Policy) (*message.Reply, error) {
	addr := net.JoinHostPort(host, strconv.Itoa(port))

	dest, err := net.ResolveUDPAddr("udp4", addr)
	if err != nil {
		return nil, &ConnectionError{Addr: addr, Err: err}
	}

	payload, err := msg.Marshal()
	if err != nil {
		return nil, err
	}

	tr, err := transport.NewUDP(transport.UDPConfig{
		Factory:       e.factory,
		LoggerFactory: e.loggerFactory,
	})
	if err != nil {
		return nil, &ConnectionError{Addr: addr, Err: err}
	}
	defer tr.Stop()

	if err := tr.Start(); err != nil {
		return nil, &ConnectionError{Addr: addr, Err: err}
	}

	cell := newResultCell()
	go e.listen(tr, cell, addr, msg.Method)

	attempts := policy.Attempts()
	interval := policy.BaseInterval

	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			cell.fail(err)
			break
		}

		if e.log != nil {
			e.log.Debugf("attempt %d/%d: %s to %s", attempt, attempts, msg.Method, addr)
		}

		if err := tr.Send(payload, dest); err != nil {
			cell.fail(&ConnectionError{Addr: addr, Err: err})
			break
		}

		if !e.await(ctx, cell, timeout) {
			break
		}
		if attempt == attempts {
			break
		}

		if e.log != nil {
			e.log.Debugf("no reply from %s within %s, next attempt in %s", addr, timeout, interval)
		}
		if !e.await(ctx, cell, interval) {
			break
		}
		interval = policy.NextInterval(interval)
	}

	timeoutErr := &TimeoutError{Addr: addr, Timeout: timeout, Attempts: attempts}
	cell.fail(timeoutErr)
	return cell.wait(settleGrace, timeoutErr)
}

// await blocks for d, returning early when the call reaches a terminal
// state. It reports whether the full duration elapsed.
func (e *Exchange) await(ctx context.Context, cell *resultCell, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-cell.Done():
		return false
	case <-ctx.Done():
		cell.fail(ctx.Err())
		return false
	case <-timer.C:
		return true
	}
}

// listen classifies inbound datagrams until one settles the cell or the
// transport stops. Any well-formed reply is accepted as the answer to the
// in-flight request, whatever method it names.
func (e *Exchange) listen(tr *transport.UDP, cell *resultCell, addr, method string) {
	for dgram := range tr.Datagrams() {
		reply, err := message.ParseReply(dgram.Data, dgram.Source)
		if err != nil {
			cell.fail(&ParseError{Addr: addr, Raw: dgram.Data, Err: err})
			return
		}

		if reply.Err != nil {
			if reply.Err.MethodNotFound() {
				cell.fail(&MethodNotSupportedError{Addr: addr, Method: method, Message: reply.Err.Message})
			} else {
				cell.fail(&ResponseError{Addr: addr, Code: reply.Err.Code, Message: reply.Err.Message, Raw: reply.Raw()})
			}
			return
		}

		if cell.succeed(reply) && e.log != nil {
			e.log.Debugf("reply from %v for %s", dgram.Source, addr)
		}
		return
	}
}
