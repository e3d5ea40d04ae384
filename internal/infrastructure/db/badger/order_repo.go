package badgerdb

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/dgraph-io/badger/v4"
	"github.com/tesseract-network/tesseractd/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

const orderStoreDir = "orders"

type orderRepository struct {
	store *badgerhold.Store
}

func NewOrderRepository(config ...interface{}) (domain.OrderRepository, error) {
	if len(config) != 2 {
		return nil, fmt.Errorf("invalid config")
	}
	baseDir, ok := config[0].(string)
	if !ok {
		return nil, fmt.Errorf("invalid base directory")
	}
	var logger badger.Logger
	if config[1] != nil {
		logger, ok = config[1].(badger.Logger)
		if !ok {
			return nil, fmt.Errorf("invalid logger")
		}
	}

	var dir string
	if len(baseDir) > 0 {
		dir = filepath.Join(baseDir, orderStoreDir)
	}
	store, err := createDB(dir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open order store: %s", err)
	}

	return &orderRepository{store}, nil
}

func (r *orderRepository) AddOrUpdate(
	ctx context.Context, order domain.SwapOrder,
) error {
	if ctx.Value("tx") != nil {
		t := ctx.Value("tx").(*badger.Txn)
		return r.store.TxUpsert(t, order.OrderID, order)
	}
	return r.store.Upsert(order.OrderID, order)
}

func (r *orderRepository) Get(
	ctx context.Context, orderID string,
) (*domain.SwapOrder, error) {
	query := badgerhold.Where("OrderID").Eq(orderID)
	orders, err := r.findOrder(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(orders) <= 0 {
		return nil, nil
	}
	order := &orders[0]
	return order, nil
}

func (r *orderRepository) GetByState(
	ctx context.Context, state domain.OrderState,
) ([]domain.SwapOrder, error) {
	query := badgerhold.Where("State").Eq(state)
	return r.findOrder(ctx, query)
}

func (r *orderRepository) Close() {
	r.store.Close()
}

func (r *orderRepository) findOrder(
	ctx context.Context, query *badgerhold.Query,
) ([]domain.SwapOrder, error) {
	var orders []domain.SwapOrder
	var err error

	if ctx.Value("tx") != nil {
		tx := ctx.Value("tx").(*badger.Txn)
		err = r.store.TxFind(tx, &orders, query)
	} else {
		err = r.store.Find(&orders, query)
	}

	return orders, err
}
