package ports

import "context"

// StakeOracle is the collaborator interface behind stake-based fee
// discounts. The coordinator only reads the flag; reward settlement and
// token balances live outside the core.
type StakeOracle interface {
	HasFeeDiscount(ctx context.Context, account string) (bool, error)
}
