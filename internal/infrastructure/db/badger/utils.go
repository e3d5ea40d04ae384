package badgerdb

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/tesseract-network/tesseractd/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

func createDB(dbDir string, logger badger.Logger) (*badgerhold.Store, error) {
	isInMemory := len(dbDir) <= 0

	opts := badger.DefaultOptions(dbDir)
	opts.Logger = logger

	if isInMemory {
		opts.InMemory = true
	} else {
		opts.Compression = options.ZSTD
	}

	db, err := badgerhold.Open(badgerhold.Options{
		Encoder:          badgerhold.DefaultEncode,
		Decoder:          badgerhold.DefaultDecode,
		SequenceBandwith: 100,
		Options:          opts,
	})
	if err != nil {
		return nil, err
	}

	if !isInMemory {
		ticker := time.NewTicker(30 * time.Minute)

		go func() {
			for {
				<-ticker.C
				if err := db.Badger().RunValueLogGC(0.5); err != nil && err != badger.ErrNoRewrite {
					logger.Errorf("%s", err)
				}
			}
		}()
	}

	return db, nil
}

type eventEnvelope struct {
	Type string
	Data json.RawMessage
}

// Events are persisted as json wrapped in a typed envelope so they decode
// back into the concrete domain type on replay.
var eventDecoders = map[string]func(json.RawMessage) (domain.Event, error){
	"domain.TransactionBuffered":       decodeEvent[domain.TransactionBuffered],
	"domain.TransactionRevealed":       decodeEvent[domain.TransactionRevealed],
	"domain.TransactionGrouped":        decodeEvent[domain.TransactionGrouped],
	"domain.TransactionReady":          decodeEvent[domain.TransactionReady],
	"domain.TransactionExpired":        decodeEvent[domain.TransactionExpired],
	"domain.TransactionExecuted":       decodeEvent[domain.TransactionExecuted],
	"domain.TransactionFailed":         decodeEvent[domain.TransactionFailed],
	"domain.RefundClaimed":             decodeEvent[domain.RefundClaimed],
	"domain.OrderCreated":              decodeEvent[domain.OrderCreated],
	"domain.OrderTaken":                decodeEvent[domain.OrderTaken],
	"domain.OrderMatched":              decodeEvent[domain.OrderMatched],
	"domain.OrderCancelled":            decodeEvent[domain.OrderCancelled],
	"domain.OrderExecuted":             decodeEvent[domain.OrderExecuted],
	"domain.OrderFailed":               decodeEvent[domain.OrderFailed],
	"domain.OrderExpired":              decodeEvent[domain.OrderExpired],
	"domain.ProtocolFeeUpdated":        decodeEvent[domain.ProtocolFeeUpdated],
	"domain.EmergencyPause":            decodeEvent[domain.EmergencyPause],
	"domain.EmergencyUnpause":          decodeEvent[domain.EmergencyUnpause],
	"domain.CircuitBreakerTripped":     decodeEvent[domain.CircuitBreakerTripped],
	"domain.CircuitBreakerReset":       decodeEvent[domain.CircuitBreakerReset],
	"domain.CoordinationWindowUpdated": decodeEvent[domain.CoordinationWindowUpdated],
	"domain.MaxPayloadSizeUpdated":     decodeEvent[domain.MaxPayloadSizeUpdated],
	"domain.BreakerThresholdUpdated":   decodeEvent[domain.BreakerThresholdUpdated],
	"domain.RoleGranted":               decodeEvent[domain.RoleGranted],
	"domain.RoleRevoked":               decodeEvent[domain.RoleRevoked],
	"domain.OwnershipTransferred":      decodeEvent[domain.OwnershipTransferred],
	"domain.EmergencyAdminChanged":     decodeEvent[domain.EmergencyAdminChanged],
}

func decodeEvent[T domain.Event](data json.RawMessage) (domain.Event, error) {
	var event T
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, err
	}
	return event, nil
}

func serializeEvents(events []domain.Event) (*eventsDTO, error) {
	rawEvents := make([][]byte, 0, len(events))
	for _, event := range events {
		buf, err := serializeEvent(event)
		if err != nil {
			return nil, err
		}
		rawEvents = append(rawEvents, buf)
	}
	return &eventsDTO{rawEvents}, nil
}

func deserializeEvents(rawEvents [][]byte) ([]domain.Event, error) {
	events := make([]domain.Event, 0)
	for _, buf := range rawEvents {
		event, err := deserializeEvent(buf)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, nil
}

func serializeEvent(event domain.Event) ([]byte, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}
	return json.Marshal(eventEnvelope{
		Type: fmt.Sprintf("%T", event),
		Data: data,
	})
}

func deserializeEvent(buf []byte) (domain.Event, error) {
	var envelope eventEnvelope
	if err := json.Unmarshal(buf, &envelope); err != nil {
		return nil, err
	}
	decode, ok := eventDecoders[envelope.Type]
	if !ok {
		return nil, fmt.Errorf("unknown event type %s", envelope.Type)
	}
	return decode(envelope.Data)
}
