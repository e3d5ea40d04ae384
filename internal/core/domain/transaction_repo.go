package domain

import "context"

type TransactionRepository interface {
	AddOrUpdate(ctx context.Context, tx Transaction) error
	// Get returns a nil transaction when the id is unknown.
	Get(ctx context.Context, txID string) (*Transaction, error)
	GetByState(ctx context.Context, state TransactionState) ([]Transaction, error)
	Close()
}
