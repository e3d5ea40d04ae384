package domain

import "context"

type SwapGroupRepository interface {
	AddOrUpdate(ctx context.Context, group SwapGroup) error
	Get(ctx context.Context, groupID string) (*SwapGroup, error)
	Close()
}
