package transport

import (
	"fmt"
	"math/rand"
	"net"
	"sync"
	"time"

	"github.com/pion/transport/v3/test"
)

// NetworkCondition configures packet-level misbehavior on a Pipe. Use it to
// exercise retry and discovery behavior under loss without real sockets.
type NetworkCondition struct {
	// DropRate is the probability of dropping a packet (0.0 - 1.0).
	DropRate float64

	// DelayMin is the minimum delay added to each packet.
	DelayMin time.Duration

	// DelayMax is the maximum delay added to each packet. The actual
	// delay is uniformly distributed between DelayMin and DelayMax.
	DelayMax time.Duration

	// DuplicateRate is the probability of delivering a packet twice
	// (0.0 - 1.0).
	DuplicateRate float64
}

// Pipe is a bidirectional in-memory packet link between two endpoints,
// wrapping pion's test.Bridge with network condition simulation. A
// background goroutine delivers queued packets every millisecond; disable
// AutoProcess for manual, deterministic delivery via Tick and Process.
type Pipe struct {
	bridge *test.Bridge

	mu        sync.Mutex
	condition NetworkCondition
	closed    bool
	rng       *rand.Rand
	stopCh    chan struct{}
	wg        sync.WaitGroup
}

// PipeConfig configures a Pipe.
type PipeConfig struct {
	// AutoProcess enables background packet delivery. Default: true via
	// NewPipe; zero value here means manual delivery.
	AutoProcess bool

	// ProcessInterval is how often the auto-processor flushes queued
	// packets. Default: 1ms.
	ProcessInterval time.Duration
}

// NewPipe creates a pipe with background delivery enabled.
func NewPipe() *Pipe {
	return NewPipeWithConfig(PipeConfig{AutoProcess: true})
}

// NewPipeWithConfig creates a pipe with the given configuration.
func NewPipeWithConfig(config PipeConfig) *Pipe {
	p := &Pipe{
		bridge: test.NewBridge(),
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		stopCh: make(chan struct{}),
	}

	if config.AutoProcess {
		interval := config.ProcessInterval
		if interval <= 0 {
			interval = time.Millisecond
		}
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-p.stopCh:
					return
				case <-ticker.C:
					p.bridge.Tick()
				}
			}
		}()
	}

	return p
}

// SetCondition configures packet misbehavior for both directions.
func (p *Pipe) SetCondition(cond NetworkCondition) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.condition = cond
}

// Tick delivers one queued packet in each direction. Only needed when
// AutoProcess is off.
func (p *Pipe) Tick() int {
	return p.bridge.Tick()
}

// Process delivers all queued packets. Only needed when AutoProcess is off.
func (p *Pipe) Process() int {
	count := 0
	for {
		n := p.Tick()
		if n == 0 {
			return count
		}
		count += n
	}
}

// Close closes both endpoints and stops background delivery.
func (p *Pipe) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	close(p.stopCh)
	p.wg.Wait()

	err0 := p.bridge.GetConn0().Close()
	err1 := p.bridge.GetConn1().Close()
	if err0 != nil {
		return err0
	}
	return err1
}

// apply runs one payload through the configured network condition,
// returning the delay to impose and how many copies to deliver (0 = drop).
// The lock also serializes rng, which is not safe for concurrent use.
func (p *Pipe) apply() (delay time.Duration, copies int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	cond := p.condition
	if cond.DropRate > 0 && p.rng.Float64() < cond.DropRate {
		return 0, 0
	}

	copies = 1
	if cond.DuplicateRate > 0 && p.rng.Float64() < cond.DuplicateRate {
		copies = 2
	}

	if cond.DelayMax > 0 {
		delay = cond.DelayMin
		if cond.DelayMax > cond.DelayMin {
			delay += time.Duration(p.rng.Int63n(int64(cond.DelayMax - cond.DelayMin)))
		}
	}

	return delay, copies
}

// PipeAddr is the net.Addr of a pipe endpoint.
type PipeAddr struct {
	ID int // endpoint id, 0 or 1
}

// Network returns "pipe".
func (a PipeAddr) Network() string { return "pipe" }

// String returns "pipe:<id>".
func (a PipeAddr) String() string { return fmt.Sprintf("pipe:%d", a.ID) }

// PipePacketConn adapts one pipe endpoint to net.PacketConn so it can back
// a UDP transport in tests.
type PipePacketConn struct {
	conn     net.Conn
	pipe     *Pipe
	localID  int
	peerAddr net.Addr
}

// ReadFrom reads one packet; the returned address is the peer endpoint.
func (c *PipePacketConn) ReadFrom(b []byte) (int, net.Addr, error) {
	n, err := c.conn.Read(b)
	return n, c.peerAddr, err
}

// WriteTo writes one packet through the pipe's network condition. The addr
// parameter is ignored; a pipe has exactly one peer.
func (c *PipePacketConn) WriteTo(b []byte, _ net.Addr) (int, error) {
	delay, copies := c.pipe.apply()

	if copies == 0 {
		// Dropped; report full delivery like a real UDP socket would.
		return len(b), nil
	}

	if delay > 0 {
		cp := make([]byte, len(b))
		copy(cp, b)
		for i := 0; i < copies; i++ {
			time.AfterFunc(delay, func() {
				c.conn.Write(cp)
			})
		}
		return len(b), nil
	}

	for i := 0; i < copies; i++ {
		if _, err := c.conn.Write(b); err != nil {
			return 0, err
		}
	}
	return len(b), nil
}

// Close closes the endpoint.
func (c *PipePacketConn) Close() error {
	return c.conn.Close()
}

// LocalAddr returns this endpoint's pipe address.
func (c *PipePacketConn) LocalAddr() net.Addr {
	return PipeAddr{ID: c.localID}
}

// SetDeadline sets the read and write deadlines.
func (c *PipePacketConn) SetDeadline(t time.Time) error {
	return c.conn.SetDeadline(t)
}

// SetReadDeadline sets the read deadline.
func (c *PipePacketConn) SetReadDeadline(t time.Time) error {
	return c.conn.SetReadDeadline(t)
}

// SetWriteDeadline sets the write deadline.
func (c *PipePacketConn) SetWriteDeadline(t time.Time) error {
	return c.conn.SetWriteDeadline(t)
}

// Verify PipePacketConn implements net.PacketConn.
var _ net.PacketConn = (*PipePacketConn)(nil)

// PipeFactory hands out one endpoint of a Pipe as a packet conn. Use
// NewPipeFactoryPair and give one factory to the code under test and the
// other to the fake peer.
type PipeFactory struct {
	pipe    *Pipe
	localID int

	mu    sync.Mutex
	taken bool
}

// NewPipeFactoryPair creates two factories joined by one Pipe with
// background delivery enabled.
func NewPipeFactoryPair() (*PipeFactory, *PipeFactory) {
	return NewPipeFactoryPairWithConfig(PipeConfig{AutoProcess: true})
}

// NewPipeFactoryPairWithConfig creates a joined factory pair with the given
// pipe configuration.
func NewPipeFactoryPairWithConfig(config PipeConfig) (*PipeFactory, *PipeFactory) {
	pipe := NewPipeWithConfig(config)
	f0 := &PipeFactory{pipe: pipe, localID: 0}
	f1 := &PipeFactory{pipe: pipe, localID: 1}
	return f0, f1
}

// Pipe returns the underlying pipe, for SetCondition and manual delivery.
func (f *PipeFactory) Pipe() *Pipe {
	return f.pipe
}

// CreateUDPConn returns this factory's pipe endpoint. The localAddr
// parameter is ignored; a pipe endpoint has a fixed synthetic address. Each
// factory's endpoint can be taken once.
func (f *PipeFactory) CreateUDPConn(string) (net.PacketConn, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.taken {
		return nil, ErrPipeInUse
	}
	f.taken = true

	var conn net.Conn
	if f.localID == 0 {
		conn = f.pipe.bridge.GetConn0()
	} else {
		conn = f.pipe.bridge.GetConn1()
	}

	return &PipePacketConn{
		conn:     conn,
		pipe:     f.pipe,
		localID:  f.localID,
		peerAddr: PipeAddr{ID: 1 - f.localID},
	}, nil
}

// Verify PipeFactory implements Factory.
var _ Factory = (*PipeFactory)(nil)
