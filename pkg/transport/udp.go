package transport

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/pion/logging"
)

// MaxDatagramSize is the largest payload accepted for a single datagram:
// the Ethernet MTU minus IPv4 and UDP headers. Glow datagrams are far
// smaller in practice.
const MaxDatagramSize = 1472

// DefaultQueueSize is the default capacity of the inbound datagram queue.
const DefaultQueueSize = 32

// Datagram is one raw inbound packet tagged with its sender.
type Datagram struct {
	Data   []byte
	Source net.Addr
}

// UDP owns one packet conn bound to an ephemeral local port and exposes
// inbound traffic as a datagram stream. Each protocol operation creates its
// own UDP transport, uses it for the duration of the call, and stops it;
// transports are not shared or reused.
type UDP struct {
	conn    net.PacketConn
	queue   chan Datagram
	closeCh chan struct{}
	wg      sync.WaitGroup
	log     logging.LeveledLogger

	mu      sync.RWMutex
	started bool
	closed  bool
}

// UDPConfig configures a UDP transport.
type UDPConfig struct {
	// Conn is an optional pre-existing packet conn to use. If nil, one is
	// created via Factory.
	Conn net.PacketConn

	// LocalAddr is the address to bind (e.g. "192.168.1.10:0"). Empty
	// binds an ephemeral port on all interfaces. Ignored if Conn is set.
	LocalAddr string

	// Factory creates the conn when Conn is nil. Defaults to UDPFactory.
	Factory Factory

	// QueueSize is the inbound queue capacity. Defaults to
	// DefaultQueueSize. Datagrams arriving while the queue is full are
	// dropped, matching UDP's fire-and-forget semantics.
	QueueSize int

	// LoggerFactory is the factory for creating loggers.
	// If nil, logging is disabled.
	LoggerFactory logging.LoggerFactory
}

// NewUDP creates a UDP transport with the given configuration. The conn is
// bound immediately; the read loop starts on Start.
func NewUDP(config UDPConfig) (*UDP, error) {
	queueSize := config.QueueSize
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}

	u := &UDP{
		conn:    config.Conn,
		queue:   make(chan Datagram, queueSize),
		closeCh: make(chan struct{}),
	}

	if config.LoggerFactory != nil {
		u.log = config.LoggerFactory.NewLogger("transport-udp")
	}

	if u.conn == nil {
		factory := config.Factory
		if factory == nil {
			factory = UDPFactory{}
		}
		conn, err := factory.CreateUDPConn(config.LocalAddr)
		if err != nil {
			return nil, err
		}
		u.conn = conn
	}

	return u, nil
}

// Start launches the read loop. Inbound datagrams are delivered on the
// channel returned by Datagrams.
func (u *UDP) Start() error {
	u.mu.Lock()
	if u.closed {
		u.mu.Unlock()
		return ErrClosed
	}
	if u.started {
		u.mu.Unlock()
		return ErrAlreadyStarted
	}
	u.started = true
	u.mu.Unlock()

	if u.log != nil {
		u.log.Debugf("listening on %s", u.conn.LocalAddr())
	}

	u.wg.Add(1)
	go u.readLoop()

	return nil
}

// Stop closes the transport, waits for the read loop to exit, and closes
// the datagram channel. Safe to call from a defer on every exit path.
func (u *UDP) Stop() error {
	u.mu.Lock()
	if u.closed {
		u.mu.Unlock()
		return ErrClosed
	}
	u.closed = true
	wasStarted := u.started
	u.mu.Unlock()

	if u.log != nil {
		u.log.Debugf("stopping transport on %s", u.conn.LocalAddr())
	}

	close(u.closeCh)

	// Unblock any pending read before closing
	u.conn.SetReadDeadline(time.Now())
	u.conn.Close()

	if wasStarted {
		u.wg.Wait()
	} else {
		// No read loop to close the queue for us
		close(u.queue)
	}

	return nil
}

// Send transmits one payload to addr. Unicast and broadcast destinations
// go through the same path. A partial write is surfaced as ErrShortWrite
// and means the socket is broken, not that a packet was lost.
func (u *UDP) Send(data []byte, addr net.Addr) error {
	u.mu.RLock()
	if u.closed {
		u.mu.RUnlock()
		return ErrClosed
	}
	u.mu.RUnlock()

	if addr == nil {
		return ErrInvalidAddress
	}
	if len(data) > MaxDatagramSize {
		return fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, len(data))
	}

	if u.log != nil {
		u.log.Debugf("sending %d bytes to %v", len(data), addr)
	}

	n, err := u.conn.WriteTo(data, addr)
	if err != nil {
		if u.log != nil {
			u.log.Warnf("send to %v failed: %v", addr, err)
		}
		return err
	}
	if n != len(data) {
		if u.log != nil {
			u.log.Warnf("short write to %v: %d of %d bytes", addr, n, len(data))
		}
		return fmt.Errorf("%w: sent %d of %d bytes", ErrShortWrite, n, len(data))
	}

	return nil
}

// Datagrams returns the inbound datagram stream. The channel is closed
// after Stop, once the read loop has exited.
func (u *UDP) Datagrams() <-chan Datagram {
	return u.queue
}

// LocalAddr returns the bound local address.
func (u *UDP) LocalAddr() net.Addr {
	return u.conn.LocalAddr()
}

// readLoop reads datagrams from the conn and enqueues them until the
// transport is stopped.
func (u *UDP) readLoop() {
	defer u.wg.Done()
	defer close(u.queue)

	buf := make([]byte, MaxDatagramSize)

	for {
		select {
		case <-u.closeCh:
			return
		default:
		}

		n, addr, err := u.conn.ReadFrom(buf)
		if err != nil {
			select {
			case <-u.closeCh:
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			if u.log != nil {
				u.log.Warnf("read error: %v", err)
			}
			continue
		}

		if n == 0 {
			continue
		}

		data := make([]byte, n)
		copy(data, buf[:n])

		if u.log != nil {
			u.log.Debugf("received %d bytes from %v", n, addr)
		}

		select {
		case u.queue <- Datagram{Data: data, Source: addr}:
		case <-u.closeCh:
			return
		default:
			if u.log != nil {
				u.log.Warnf("inbound queue full, dropping %d bytes from %v", n, addr)
			}
		}
	}
}
