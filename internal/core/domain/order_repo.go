package domain

import "context"

type OrderRepository interface {
	AddOrUpdate(ctx context.Context, order SwapOrder) error
	Get(ctx context.Context, orderID string) (*SwapOrder, error)
	GetByState(ctx context.Context, state OrderState) ([]SwapOrder, error)
	Close()
}
