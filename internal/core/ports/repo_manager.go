package ports

import "github.com/tesseract-network/tesseractd/internal/core/domain"

type RepoManager interface {
	Events() domain.EventRepository
	Transactions() domain.TransactionRepository
	SwapGroups() domain.SwapGroupRepository
	Orders() domain.OrderRepository
	Settings() domain.SettingsRepository
	Close()
}
