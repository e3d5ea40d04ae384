package badgerdb

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/tesseract-network/tesseractd/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

const eventStoreDir = "events"

type eventsDTO struct {
	Events [][]byte
}

type eventsUpdate struct {
	topic  string
	events []domain.Event
}

type eventRepository struct {
	store     *badgerhold.Store
	lock      *sync.Mutex
	chUpdates chan eventsUpdate
	handlers  map[string]func(events []domain.Event)
	done      chan struct{}
	wg        sync.WaitGroup
}

func NewEventRepository(config ...interface{}) (domain.EventRepository, error) {
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
		dir = filepath.Join(baseDir, eventStoreDir)
	}
	store, err := createDB(dir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open event store: %s", err)
	}
	repo := &eventRepository{
		store:     store,
		lock:      &sync.Mutex{},
		chUpdates: make(chan eventsUpdate),
		handlers:  make(map[string]func(events []domain.Event)),
		done:      make(chan struct{}),
	}
	go repo.listen()
	return repo, nil
}

func (r *eventRepository) Save(
	ctx context.Context, topic, id string, events []domain.Event,
) error {
	key := eventKey(topic, id)
	allEvents, err := r.get(ctx, key)
	if err != nil {
		return err
	}

	allEvents = append(allEvents, events...)
	if err := r.upsert(ctx, key, allEvents); err != nil {
		return err
	}
	r.wg.Add(1)
	go r.publishEvents(topic, events)
	return nil
}

func (r *eventRepository) Get(
	ctx context.Context, topic, id string,
) ([]domain.Event, error) {
	return r.get(ctx, eventKey(topic, id))
}

func (r *eventRepository) RegisterEventsHandler(
	topic string, handler func(events []domain.Event),
) {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.handlers[topic] = handler
}

func (r *eventRepository) Close() {
	close(r.done)
	r.wg.Wait()
	close(r.chUpdates)
	r.store.Close()
}

func eventKey(topic, id string) string {
	return fmt.Sprintf("%s/%s", topic, id)
}

func (r *eventRepository) get(
	ctx context.Context, key string,
) ([]domain.Event, error) {
	dto := eventsDTO{}
	var err error
	if ctx.Value("tx") != nil {
		tx := ctx.Value("tx").(*badger.Txn)
		err = r.store.TxGet(tx, key, &dto)
	} else {
		err = r.store.Get(key, &dto)
	}
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get events with key %s: %s", key, err)
	}

	return deserializeEvents(dto.Events)
}

func (r *eventRepository) upsert(
	ctx context.Context, key string, events []domain.Event,
) error {
	buf, err := serializeEvents(events)
	if err != nil {
		return err
	}
	if ctx.Value("tx") != nil {
		tx := ctx.Value("tx").(*badger.Txn)
		err = r.store.TxUpsert(tx, key, buf)
	} else {
		err = r.store.Upsert(key, buf)
	}
	if err != nil {
		return fmt.Errorf("failed to upsert events with key %s: %s", key, err)
	}
	return nil
}

func (r *eventRepository) listen() {
	for {
		select {
		case <-r.done:
			return
		case update := <-r.chUpdates:
			r.runHandler(update)
		}
	}
}

func (r *eventRepository) publishEvents(topic string, events []domain.Event) {
	defer r.wg.Done()
	select {
	case <-r.done:
		return
	case r.chUpdates <- eventsUpdate{topic, events}:
	}
}

func (r *eventRepository) runHandler(update eventsUpdate) {
	r.lock.Lock()
	defer r.lock.Unlock()

	handler, ok := r.handlers[update.topic]
	if !ok {
		return
	}
	handler(update.events)
}
