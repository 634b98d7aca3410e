package exchange

import (
	"sync"
	"time"

	"github.com/glowproto/glow/pkg/message"
)

// settleGrace bounds how long wait blocks once the retry loop has logically
// finished. A settled cell returns immediately; the grace period only
// matters if no terminal outcome was ever recorded.
const settleGrace = 250 * time.Millisecond

// resultCell is the terminal state of one Send call: pending until the
// first success or failure is recorded, settled and immutable afterwards.
// The listener goroutine and the attempt loop race to settle it; the first
// writer wins and all later writes are discarded.
type resultCell struct {
	mu      sync.Mutex
	settled bool
	reply   *message.Reply
	err     error
	done    chan struct{}
}

func newResultCell() *resultCell {
	return &resultCell{done: make(chan struct{})}
}

// succeed records a successful reply. Reports whether this call settled
// the cell.
func (c *resultCell) succeed(reply *message.Reply) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.settled {
		return false
	}
	c.settled = true
	c.reply = reply
	close(c.done)
	return true
}

// fail records a failure. Reports whether this call settled the cell.
func (c *resultCell) fail(err error) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.settled {
		return false
	}
	c.settled = true
	c.err = err
	close(c.done)
	return true
}

// Done is closed once the cell settles.
func (c *resultCell) Done() <-chan struct{} {
	return c.done
}

// wait returns the outcome, blocking up to grace for a pending writer. A
// cell still unsettled after grace is failed with fallback, so the call
// always returns within the grace period.
func (c *resultCell) wait(grace time.Duration, fallback error) (*message.Reply, error) {
	timer := time.NewTimer(grace)
	defer timer.Stop()

	select {
	case <-c.done:
	case <-timer.C:
		c.fail(fallback)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reply, c.err
}
