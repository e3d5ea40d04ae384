package domain

import (
	"crypto/sha256"
	"encoding/hex"
)

const (
	TxStateEmpty TransactionState = iota
	TxStateBuffered
	TxStateReady
	TxStateExecuted
	TxStateFailed
	TxStateExpired
	TxStateRefunded
)

const (
	// MinResolutionDelay is the number of blocks that must elapse between
	// buffering and resolving a transaction (flash-loan guard).
	MinResolutionDelay uint64 = 2
	// MaxTimestampHorizon bounds how far in the future a target timestamp
	// may lie, in seconds.
	MaxTimestampHorizon int64 = 86400
	// MaxSwapGroupSize caps the number of legs in a swap group.
	MaxSwapGroupSize = 4
	// MaxPayloadSizeCap is the hard upper bound for the configurable max
	// payload size.
	MaxPayloadSizeCap = 65536
)

type TransactionState int

func (s TransactionState) String() string {
	switch s {
	case TxStateBuffered:
		return "BUFFERED"
	case TxStateReady:
		return "READY"
	case TxStateExecuted:
		return "EXECUTED"
	case TxStateFailed:
		return "FAILED"
	case TxStateExpired:
		return "EXPIRED"
	case TxStateRefunded:
		return "REFUNDED"
	default:
		return "EMPTY"
	}
}

func (s TransactionState) IsTerminal() bool {
	switch s {
	case TxStateExecuted, TxStateFailed, TxStateRefunded:
		return true
	default:
		return false
	}
}

// Commitment is the commit-reveal variant of a transaction payload. A nil
// Commitment means the transaction carries a plain payload; a non-nil one
// always carries both the hash and the refund recipient.
type Commitment struct {
	Hash            string
	RefundRecipient string
}

// Transaction is a buffered cross-chain intent moving through the
// EMPTY -> BUFFERED -> {READY -> EXECUTED | EXPIRED -> REFUNDED} | FAILED
// state machine. All operations take the current ledger time and height as
// explicit arguments so the aggregate stays deterministic.
type Transaction struct {
	TxID             string
	Origin           string
	Target           string
	Payload          []byte
	Commitment       *Commitment
	Revealed         bool
	DependencyTxID   string
	TargetTimestamp  int64
	SwapGroupID      string
	State            TransactionState
	BufferedAtHeight uint64
	FailReason       string
	Version          uint
	changes          []Event
}

type BufferParams struct {
	TxID            string
	Origin          string
	Target          string
	Payload         []byte
	CommitmentHash  string
	RefundRecipient string
	DependencyTxID  string
	TargetTimestamp int64
	SwapGroupID     string
}

// DependencySnapshot carries the state of a dependency at resolution time.
type DependencySnapshot struct {
	TxID  string
	State TransactionState
}

func NewTransaction() *Transaction {
	return &Transaction{
		changes: make([]Event, 0),
	}
}

func NewTransactionFromEvents(events []Event) *Transaction {
	t := &Transaction{}

	for _, event := range events {
		t.On(event, true)
	}

	t.changes = append([]Event{}, events...)

	return t
}

func (t *Transaction) Events() []Event {
	return t.changes
}

func (t *Transaction) On(event Event, replayed bool) {
	switch e := event.(type) {
	case TransactionBuffered:
		t.TxID = e.TxID
		t.Origin = e.Origin
		t.Target = e.Target
		t.DependencyTxID = e.DependencyTxID
		t.SwapGroupID = e.SwapGroupID
		t.TargetTimestamp = e.TargetTimestamp
		t.BufferedAtHeight = e.Height
		if len(e.CommitmentHash) > 0 {
			t.Commitment = &Commitment{
				Hash:            e.CommitmentHash,
				RefundRecipient: e.RefundRecipient,
			}
		} else {
			t.Payload = e.Payload
		}
		t.State = TxStateBuffered
	case TransactionRevealed:
		t.Payload = e.Payload
		t.Revealed = true
	case TransactionGrouped:
		t.SwapGroupID = e.SwapGroupID
	case TransactionReady:
		t.State = TxStateReady
	case TransactionExpired:
		t.State = TxStateExpired
	case TransactionExecuted:
		t.State = TxStateExecuted
	case TransactionFailed:
		t.State = TxStateFailed
		t.FailReason = e.Reason
	case RefundClaimed:
		t.State = TxStateRefunded
	}

	if replayed {
		t.Version++
	}
}

func (t *Transaction) Buffer(
	params BufferParams, maxPayloadSize int, now int64, height uint64,
) (Event, error) {
	if t.State != TxStateEmpty {
		return nil, NewConflictError("transaction %s already buffered", t.TxID)
	}
	if err := params.validate(now, maxPayloadSize); err != nil {
		return nil, err
	}

	event := TransactionBuffered{
		TxID:            params.TxID,
		Origin:          params.Origin,
		Target:          params.Target,
		DependencyTxID:  params.DependencyTxID,
		SwapGroupID:     params.SwapGroupID,
		Payload:         params.Payload,
		CommitmentHash:  params.CommitmentHash,
		RefundRecipient: params.RefundRecipient,
		TargetTimestamp: params.TargetTimestamp,
		Timestamp:       now,
		Height:          height,
	}
	t.raise(event)

	return event, nil
}

// Resolve moves a buffered transaction to READY, or to EXPIRED when the
// coordination window has closed. The caller provides the dependency
// snapshot, if any, and the configured coordination window.
func (t *Transaction) Resolve(
	dep *DependencySnapshot, coordinationWindow int64, now int64, height uint64,
) (Event, error) {
	if t.State != TxStateBuffered {
		return nil, NewConflictError(
			"transaction %s is not in a resolvable state (%s)", t.TxID, t.State,
		)
	}
	if height < t.BufferedAtHeight+MinResolutionDelay {
		return nil, NewTimingError(
			"transaction %s resolved too soon after buffering", t.TxID,
		)
	}
	if now < t.TargetTimestamp {
		return nil, NewTimingError(
			"coordination window for transaction %s not open yet", t.TxID,
		)
	}

	if now > t.TargetTimestamp+coordinationWindow {
		event := TransactionExpired{TxID: t.TxID, Timestamp: now}
		t.raise(event)
		return event, nil
	}

	if dep != nil && dep.State != TxStateReady && dep.State != TxStateExecuted {
		return nil, NewConflictError(
			"dependency %s of transaction %s not resolved (%s)",
			dep.TxID, t.TxID, dep.State,
		)
	}

	event := TransactionReady{TxID: t.TxID, Timestamp: now}
	t.raise(event)

	return event, nil
}

func (t *Transaction) Reveal(payload, secret []byte) (Event, error) {
	if t.State != TxStateBuffered && t.State != TxStateReady {
		return nil, NewConflictError(
			"transaction %s is not in a revealable state (%s)", t.TxID, t.State,
		)
	}
	if t.Commitment == nil {
		return nil, NewConflictError(
			"transaction %s was not buffered with a commitment", t.TxID,
		)
	}
	if t.Revealed {
		return nil, NewConflictError("transaction %s already revealed", t.TxID)
	}
	if CommitmentDigest(payload, secret) != t.Commitment.Hash {
		return nil, NewIntegrityError(
			"commitment mismatch for transaction %s", t.TxID,
		)
	}

	event := TransactionRevealed{TxID: t.TxID, Payload: payload}
	t.raise(event)

	return event, nil
}

func (t *Transaction) AttachToGroup(swapGroupID string) (Event, error) {
	if t.State != TxStateBuffered && t.State != TxStateReady {
		return nil, NewConflictError(
			"transaction %s cannot join a swap group in state %s", t.TxID, t.State,
		)
	}
	if !IsZeroID(t.SwapGroupID) {
		return nil, NewConflictError(
			"transaction %s already belongs to swap group %s", t.TxID, t.SwapGroupID,
		)
	}
	if !ValidID(swapGroupID) {
		return nil, NewValidationError("invalid swap group id")
	}

	event := TransactionGrouped{TxID: t.TxID, SwapGroupID: swapGroupID}
	t.raise(event)

	return event, nil
}

func (t *Transaction) MarkExecuted(now int64) (Event, error) {
	if t.State != TxStateReady {
		return nil, NewConflictError(
			"transaction %s is not ready for execution (%s)", t.TxID, t.State,
		)
	}

	event := TransactionExecuted{TxID: t.TxID, Timestamp: now}
	t.raise(event)

	return event, nil
}

func (t *Transaction) MarkFailed(reason string, now int64) (Event, error) {
	if len(reason) <= 0 {
		return nil, NewValidationError("missing failure reason")
	}
	if t.State.IsTerminal() || t.State == TxStateExpired {
		return nil, NewConflictError(
			"transaction %s cannot fail in state %s", t.TxID, t.State,
		)
	}
	if t.State == TxStateEmpty {
		return nil, NewNotFoundError("transaction %s not found", t.TxID)
	}

	event := TransactionFailed{TxID: t.TxID, Reason: reason, Timestamp: now}
	t.raise(event)

	return event, nil
}

func (t *Transaction) ClaimRefund(claimant string, now int64) (Event, error) {
	if t.State != TxStateExpired {
		return nil, NewConflictError(
			"transaction %s is not refundable (%s)", t.TxID, t.State,
		)
	}
	if t.Commitment == nil || len(t.Commitment.RefundRecipient) <= 0 {
		return nil, NewConflictError(
			"transaction %s has no refund recipient", t.TxID,
		)
	}
	if claimant != t.Commitment.RefundRecipient {
		return nil, NewUnauthorizedError(
			"%s is not the refund recipient of transaction %s", claimant, t.TxID,
		)
	}

	event := RefundClaimed{
		TxID:      t.TxID,
		Recipient: t.Commitment.RefundRecipient,
		Timestamp: now,
	}
	t.raise(event)

	return event, nil
}

func (t *Transaction) IsReady() bool {
	return t.State == TxStateReady
}

func (t *Transaction) raise(event Event) {
	if t.changes == nil {
		t.changes = make([]Event, 0)
	}
	t.changes = append(t.changes, event)
	t.On(event, false)
}

// CommitmentDigest computes the commit-reveal hash of a payload and secret.
func CommitmentDigest(payload, secret []byte) string {
	h := sha256.New()
	h.Write(payload)
	h.Write(secret)
	return hex.EncodeToString(h.Sum(nil))
}

func (p BufferParams) validate(now int64, maxPayloadSize int) error {
	if !ValidID(p.TxID) {
		return NewValidationError("invalid transaction id")
	}
	if len(p.Origin) <= 0 {
		return NewValidationError("missing origin rollup")
	}
	if len(p.Target) <= 0 {
		return NewValidationError("missing target rollup")
	}
	if p.Origin == p.Target {
		return NewValidationError("origin and target rollup must differ")
	}
	if p.TargetTimestamp < now {
		return NewValidationError("target timestamp is in the past")
	}
	if p.TargetTimestamp > now+MaxTimestampHorizon {
		return NewValidationError("target timestamp is too far in the future")
	}
	if len(p.DependencyTxID) > 0 && !ValidID(p.DependencyTxID) {
		return NewValidationError("invalid dependency transaction id")
	}
	if len(p.SwapGroupID) > 0 && !ValidID(p.SwapGroupID) {
		return NewValidationError("invalid swap group id")
	}

	if len(p.CommitmentHash) > 0 {
		if len(p.Payload) > 0 {
			return NewValidationError(
				"payload and commitment hash are mutually exclusive",
			)
		}
		if !ValidID(p.CommitmentHash) {
			return NewValidationError("invalid commitment hash")
		}
		if len(p.RefundRecipient) <= 0 {
			return NewValidationError(
				"commitment mode requires a refund recipient",
			)
		}
		return nil
	}

	if len(p.RefundRecipient) > 0 {
		return NewValidationError(
			"refund recipient requires commitment mode",
		)
	}
	if len(p.Payload) <= 0 {
		return NewValidationError("missing payload")
	}
	if len(p.Payload) > maxPayloadSize {
		return NewValidationError(
			"payload exceeds max size of %d bytes", maxPayloadSize,
		)
	}
	return nil
}
