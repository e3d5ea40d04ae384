package domain

import "context"

// EventRepository is the append-only audit log external indexers rebuild
// history from. Handlers registered per topic receive events after they are
// persisted.
type EventRepository interface {
	Save(ctx context.Context, topic, id string, events []Event) error
	Get(ctx context.Context, topic, id string) ([]Event, error)
	RegisterEventsHandler(topic string, handler func(events []Event))
	Close()
}
