package badgerdb

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/dgraph-io/badger/v4"
	"github.com/tesseract-network/tesseractd/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

const swapGroupStoreDir = "swap-groups"

type swapGroupRepository struct {
	store *badgerhold.Store
}

func NewSwapGroupRepository(config ...interface{}) (domain.SwapGroupRepository, error) {
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
		dir = filepath.Join(baseDir, swapGroupStoreDir)
	}
	store, err := createDB(dir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open swap group store: %s", err)
	}

	return &swapGroupRepository{store}, nil
}

func (r *swapGroupRepository) AddOrUpdate(
	ctx context.Context, group domain.SwapGroup,
) error {
	if ctx.Value("tx") != nil {
		t := ctx.Value("tx").(*badger.Txn)
		return r.store.TxUpsert(t, group.ID, group)
	}
	return r.store.Upsert(group.ID, group)
}

func (r *swapGroupRepository) Get(
	ctx context.Context, groupID string,
) (*domain.SwapGroup, error) {
	var group domain.SwapGroup
	var err error

	if ctx.Value("tx") != nil {
		tx := ctx.Value("tx").(*badger.Txn)
		err = r.store.TxGet(tx, groupID, &group)
	} else {
		err = r.store.Get(groupID, &group)
	}
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, nil
		}
		return nil, err
	}

	return &group, nil
}

func (r *swapGroupRepository) Close() {
	r.store.Close()
}
