package systemclock

import (
	"time"

	"github.com/tesseract-network/tesseractd/internal/core/ports"
)

// clock derives the ledger view from the wall clock: unix seconds for time
// and a synthetic height that advances every blockInterval seconds past
// genesis. Deployments tracking a real chain replace this with a client of
// that chain's RPC.
type clock struct {
	genesis       int64
	blockInterval int64
}

func NewChainClock(genesis, blockInterval int64) ports.ChainClock {
	if blockInterval <= 0 {
		blockInterval = 1
	}
	return &clock{genesis: genesis, blockInterval: blockInterval}
}

func (c *clock) Now() int64 {
	return time.Now().Unix()
}

func (c *clock) Height() uint64 {
	now := c.Now()
	if now <= c.genesis {
		return 0
	}
	return uint64((now - c.genesis) / c.blockInterval)
}
