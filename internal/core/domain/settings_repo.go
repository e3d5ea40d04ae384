package domain

import "context"

// Settings bundles the singleton aggregates that every mutating operation
// consults: the role registry, the safety state and the fee policy.
type Settings struct {
	Access *AccessRegistry
	Safety *Safety
	Fees   *FeePolicy
}

type SettingsRepository interface {
	Get(ctx context.Context) (*Settings, error)
	Save(ctx context.Context, settings Settings) error
	Close()
}
