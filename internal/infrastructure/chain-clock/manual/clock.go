package manualclock

import (
	"sync"

	"github.com/tesseract-network/tesseractd/internal/core/ports"
)

// Clock is a hand-driven ledger clock for tests.
type Clock struct {
	lock   sync.RWMutex
	now    int64
	height uint64
}

func NewChainClock(now int64, height uint64) *Clock {
	return &Clock{now: now, height: height}
}

var _ ports.ChainClock = (*Clock)(nil)

func (c *Clock) Now() int64 {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.now
}

func (c *Clock) Height() uint64 {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.height
}

func (c *Clock) SetNow(now int64) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.now = now
}

func (c *Clock) AdvanceTime(seconds int64) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.now += seconds
}

func (c *Clock) AdvanceHeight(blocks uint64) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.height += blocks
}
