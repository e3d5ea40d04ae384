package db

import (
	"fmt"

	"github.com/tesseract-network/tesseractd/internal/core/domain"
	"github.com/tesseract-network/tesseractd/internal/core/ports"
	badgerdb "github.com/tesseract-network/tesseractd/internal/infrastructure/db/badger"
)

var (
	eventStoreTypes = map[string]func(...interface{}) (domain.EventRepository, error){
		"badger": badgerdb.NewEventRepository,
	}
	transactionStoreTypes = map[string]func(...interface{}) (domain.TransactionRepository, error){
		"badger": badgerdb.NewTransactionRepository,
	}
	swapGroupStoreTypes = map[string]func(...interface{}) (domain.SwapGroupRepository, error){
		"badger": badgerdb.NewSwapGroupRepository,
	}
	orderStoreTypes = map[string]func(...interface{}) (domain.OrderRepository, error){
		"badger": badgerdb.NewOrderRepository,
	}
	settingsStoreTypes = map[string]func(...interface{}) (domain.SettingsRepository, error){
		"badger": badgerdb.NewSettingsRepository,
	}
)

type ServiceConfig struct {
	EventStoreType string
	DataStoreType  string

	EventStoreConfig []interface{}
	DataStoreConfig  []interface{}
}

type service struct {
	eventStore       domain.EventRepository
	transactionStore domain.TransactionRepository
	swapGroupStore   domain.SwapGroupRepository
	orderStore       domain.OrderRepository
	settingsStore    domain.SettingsRepository
}

func NewService(config ServiceConfig) (ports.RepoManager, error) {
	eventStoreFactory, ok := eventStoreTypes[config.EventStoreType]
	if !ok {
		return nil, fmt.Errorf("invalid event store type: %s", config.EventStoreType)
	}

	eventStore, err := eventStoreFactory(config.EventStoreConfig...)
	if err != nil {
		return nil, fmt.Errorf("failed to create event store: %w", err)
	}

	transactionStoreFactory, ok := transactionStoreTypes[config.DataStoreType]
	if !ok {
		return nil, fmt.Errorf("invalid data store type: %s", config.DataStoreType)
	}
	swapGroupStoreFactory := swapGroupStoreTypes[config.DataStoreType]
	orderStoreFactory := orderStoreTypes[config.DataStoreType]
	settingsStoreFactory := settingsStoreTypes[config.DataStoreType]

	transactionStore, err := transactionStoreFactory(config.DataStoreConfig...)
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction store: %w", err)
	}

	swapGroupStore, err := swapGroupStoreFactory(config.DataStoreConfig...)
	if err != nil {
		return nil, fmt.Errorf("failed to create swap group store: %w", err)
	}

	orderStore, err := orderStoreFactory(config.DataStoreConfig...)
	if err != nil {
		return nil, fmt.Errorf("failed to create order store: %w", err)
	}

	settingsStore, err := settingsStoreFactory(config.DataStoreConfig...)
	if err != nil {
		return nil, fmt.Errorf("failed to create settings store: %w", err)
	}

	return &service{
		eventStore:       eventStore,
		transactionStore: transactionStore,
		swapGroupStore:   swapGroupStore,
		orderStore:       orderStore,
		settingsStore:    settingsStore,
	}, nil
}

func (s *service) Events() domain.EventRepository {
	return s.eventStore
}

func (s *service) Transactions() domain.TransactionRepository {
	return s.transactionStore
}

func (s *service) SwapGroups() domain.SwapGroupRepository {
	return s.swapGroupStore
}

func (s *service) Orders() domain.OrderRepository {
	return s.orderStore
}

func (s *service) Settings() domain.SettingsRepository {
	return s.settingsStore
}

func (s *service) Close() {
	s.eventStore.Close()
	s.transactionStore.Close()
	s.swapGroupStore.Close()
	s.orderStore.Close()
	s.settingsStore.Close()
}
