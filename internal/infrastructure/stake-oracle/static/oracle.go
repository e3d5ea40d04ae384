package staticoracle

import (
	"context"
	"sync"

	"github.com/tesseract-network/tesseractd/internal/core/ports"
)

// oracle answers fee discount lookups from a fixed allowlist. A production
// deployment would query the staking contract instead.
type oracle struct {
	lock     sync.RWMutex
	accounts map[string]bool
}

func NewStakeOracle(discounted []string) ports.StakeOracle {
	accounts := make(map[string]bool, len(discounted))
	for _, account := range discounted {
		accounts[account] = true
	}
	return &oracle{accounts: accounts}
}

func (o *oracle) HasFeeDiscount(_ context.Context, account string) (bool, error) {
	o.lock.RLock()
	defer o.lock.RUnlock()
	return o.accounts[account], nil
}
