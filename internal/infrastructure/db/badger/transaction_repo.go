package badgerdb

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/dgraph-io/badger/v4"
	"github.com/tesseract-network/tesseractd/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

const transactionStoreDir = "transactions"

type transactionRepository struct {
	store *badgerhold.Store
}

func NewTransactionRepository(config ...interface{}) (domain.TransactionRepository, error) {
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
		dir = filepath.Join(baseDir, transactionStoreDir)
	}
	store, err := createDB(dir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open transaction store: %s", err)
	}

	return &transactionRepository{store}, nil
}

func (r *transactionRepository) AddOrUpdate(
	ctx context.Context, tx domain.Transaction,
) error {
	if ctx.Value("tx") != nil {
		t := ctx.Value("tx").(*badger.Txn)
		return r.store.TxUpsert(t, tx.TxID, tx)
	}
	return r.store.Upsert(tx.TxID, tx)
}

func (r *transactionRepository) Get(
	ctx context.Context, txID string,
) (*domain.Transaction, error) {
	query := badgerhold.Where("TxID").Eq(txID)
	txs, err := r.findTransaction(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(txs) <= 0 {
		return nil, nil
	}
	tx := &txs[0]
	return tx, nil
}

func (r *transactionRepository) GetByState(
	ctx context.Context, state domain.TransactionState,
) ([]domain.Transaction, error) {
	query := badgerhold.Where("State").Eq(state)
	return r.findTransaction(ctx, query)
}

func (r *transactionRepository) Close() {
	r.store.Close()
}

func (r *transactionRepository) findTransaction(
	ctx context.Context, query *badgerhold.Query,
) ([]domain.Transaction, error) {
	var txs []domain.Transaction
	var err error

	if ctx.Value("tx") != nil {
		tx := ctx.Value("tx").(*badger.Txn)
		err = r.store.TxFind(tx, &txs, query)
	} else {
		err = r.store.Find(&txs, query)
	}

	return txs, err
}
