package domain

import "math/bits"

const (
	OrderStateUnspecified OrderState = iota
	OrderStateOpen
	OrderStateMatched
	OrderStateExecuted
	OrderStateExpired
	OrderStateFailed
	OrderStateCancelled
)

const (
	// MaxRelayerRewardBps bounds the reward a maker may promise a relayer.
	MaxRelayerRewardBps uint64 = 1000

	FeeDenominator uint64 = 10000
)

type OrderState int

func (s OrderState) String() string {
	switch s {
	case OrderStateOpen:
		return "OPEN"
	case OrderStateMatched:
		return "MATCHED"
	case OrderStateExecuted:
		return "EXECUTED"
	case OrderStateExpired:
		return "EXPIRED"
	case OrderStateFailed:
		return "FAILED"
	case OrderStateCancelled:
		return "CANCELLED"
	default:
		return "UNSPECIFIED"
	}
}

// SwapOrder is a maker intent to exchange an offer amount on one chain for
// a want amount on another. Fills accumulate monotonically; the proportional
// receive uses floor division, so the maker absorbs the rounding dust.
type SwapOrder struct {
	OrderID           string
	Maker             string
	OfferChain        string
	OfferToken        string
	OfferAmount       uint64
	WantChain         string
	WantToken         string
	WantAmount        uint64
	MinReceive        uint64
	Deadline          int64
	RelayerRewardBps  uint64
	Taker             string
	State             OrderState
	FilledOfferAmount uint64
	FilledWantAmount  uint64
	FilledBy          string
	SettlementGroupID string
	FailReason        string
	CreatedAt         int64
	Version           uint
	changes           []Event
}

type OrderParams struct {
	OrderID          string
	Maker            string
	OfferChain       string
	OfferToken       string
	OfferAmount      uint64
	WantChain        string
	WantToken        string
	WantAmount       uint64
	MinReceive       uint64
	Deadline         int64
	RelayerRewardBps uint64
	Taker            string
}

func NewSwapOrder() *SwapOrder {
	return &SwapOrder{
		changes: make([]Event, 0),
	}
}

func NewSwapOrderFromEvents(events []Event) *SwapOrder {
	o := &SwapOrder{}

	for _, event := range events {
		o.On(event, true)
	}

	o.changes = append([]Event{}, events...)

	return o
}

func (o *SwapOrder) Events() []Event {
	return o.changes
}

func (o *SwapOrder) On(event Event, replayed bool) {
	switch e := event.(type) {
	case OrderCreated:
		o.OrderID = e.OrderID
		o.Maker = e.Maker
		o.OfferChain = e.OfferChain
		o.OfferToken = e.OfferToken
		o.OfferAmount = e.OfferAmount
		o.WantChain = e.WantChain
		o.WantToken = e.WantToken
		o.WantAmount = e.WantAmount
		o.MinReceive = e.MinReceive
		o.Deadline = e.Deadline
		o.RelayerRewardBps = e.RelayerRewardBps
		o.Taker = e.Taker
		o.CreatedAt = e.Timestamp
		o.State = OrderStateOpen
	case OrderTaken:
		o.FilledOfferAmount = e.Filled
		o.FilledWantAmount += e.ExpectedReceive
		o.FilledBy = e.Taker
	case OrderMatched:
		o.State = OrderStateMatched
		o.SettlementGroupID = e.SettlementGroupID
	case OrderCancelled:
		o.State = OrderStateCancelled
	case OrderExecuted:
		o.State = OrderStateExecuted
	case OrderFailed:
		o.State = OrderStateFailed
		o.FailReason = e.Reason
	case OrderExpired:
		o.State = OrderStateExpired
	}

	if replayed {
		o.Version++
	}
}

func (o *SwapOrder) Create(params OrderParams, now int64) (Event, error) {
	if o.State != OrderStateUnspecified {
		return nil, NewConflictError("order %s already exists", o.OrderID)
	}
	if err := params.validate(now); err != nil {
		return nil, err
	}

	event := OrderCreated{
		OrderID:          params.OrderID,
		Maker:            params.Maker,
		OfferChain:       params.OfferChain,
		OfferToken:       params.OfferToken,
		OfferAmount:      params.OfferAmount,
		WantChain:        params.WantChain,
		WantToken:        params.WantToken,
		WantAmount:       params.WantAmount,
		MinReceive:       params.MinReceive,
		Deadline:         params.Deadline,
		RelayerRewardBps: params.RelayerRewardBps,
		Taker:            params.Taker,
		Timestamp:        now,
	}
	o.raise(event)

	return event, nil
}

// Take fills the order with fillAmount of the offer asset. A second event
// (OrderMatched) is raised when the fill completes the order.
func (o *SwapOrder) Take(taker string, fillAmount uint64, now int64) ([]Event, error) {
	if o.State == OrderStateUnspecified {
		return nil, NewNotFoundError("order %s not found", o.OrderID)
	}
	if o.State != OrderStateOpen {
		return nil, NewConflictError(
			"order %s is not open (%s)", o.OrderID, o.State,
		)
	}
	if now > o.Deadline {
		return nil, NewTimingError("order %s deadline has passed", o.OrderID)
	}
	if len(taker) <= 0 {
		return nil, NewValidationError("missing taker")
	}
	if len(o.Taker) > 0 && taker != o.Taker {
		return nil, NewUnauthorizedError(
			"order %s is restricted to another taker", o.OrderID,
		)
	}
	if fillAmount == 0 {
		return nil, NewValidationError("fill amount must be positive")
	}
	if remaining := o.RemainingOffer(); fillAmount > remaining {
		return nil, NewValidationError(
			"fill amount %d exceeds remaining offer %d", fillAmount, remaining,
		)
	}

	filled := o.FilledOfferAmount + fillAmount
	expected := o.ExpectedReceive(fillAmount)
	// per-fill floors never sum past the whole-order floor, so the
	// cumulative receive cannot overflow
	if filled == o.OfferAmount && o.FilledWantAmount+expected < o.MinReceive {
		return nil, NewValidationError(
			"cumulative receive %d below order minimum %d",
			o.FilledWantAmount+expected, o.MinReceive,
		)
	}
	taken := OrderTaken{
		OrderID:         o.OrderID,
		Taker:           taker,
		FillAmount:      fillAmount,
		ExpectedReceive: expected,
		Filled:          filled,
		Timestamp:       now,
	}
	o.raise(taken)

	events := []Event{taken}
	if filled == o.OfferAmount {
		matched := OrderMatched{OrderID: o.OrderID, Timestamp: now}
		o.raise(matched)
		events = append(events, matched)
	}

	return events, nil
}

func (o *SwapOrder) Cancel(caller string, now int64) (Event, error) {
	if o.State == OrderStateUnspecified {
		return nil, NewNotFoundError("order %s not found", o.OrderID)
	}
	if caller != o.Maker {
		return nil, NewUnauthorizedError(
			"only the maker may cancel order %s", o.OrderID,
		)
	}
	if o.State != OrderStateOpen {
		return nil, NewConflictError(
			"order %s is not open (%s)", o.OrderID, o.State,
		)
	}
	if o.FilledOfferAmount > 0 {
		return nil, NewConflictError(
			"order %s has a partial fill in flight", o.OrderID,
		)
	}

	event := OrderCancelled{OrderID: o.OrderID, Timestamp: now}
	o.raise(event)

	return event, nil
}

func (o *SwapOrder) DelegateSettlement(groupID string, now int64) (Event, error) {
	if o.State != OrderStateMatched {
		return nil, NewConflictError(
			"order %s is not fully matched (%s)", o.OrderID, o.State,
		)
	}
	if !ValidID(groupID) {
		return nil, NewValidationError("invalid settlement group id")
	}
	if len(o.SettlementGroupID) > 0 {
		return nil, NewConflictError(
			"order %s already delegated settlement", o.OrderID,
		)
	}

	event := OrderMatched{
		OrderID:           o.OrderID,
		SettlementGroupID: groupID,
		Timestamp:         now,
	}
	o.raise(event)

	return event, nil
}

func (o *SwapOrder) MarkExecuted(now int64) (Event, error) {
	if o.State != OrderStateMatched {
		return nil, NewConflictError(
			"order %s is not fully matched (%s)", o.OrderID, o.State,
		)
	}

	event := OrderExecuted{OrderID: o.OrderID, Timestamp: now}
	o.raise(event)

	return event, nil
}

func (o *SwapOrder) MarkFailed(reason string, now int64) (Event, error) {
	if len(reason) <= 0 {
		return nil, NewValidationError("missing failure reason")
	}
	switch o.State {
	case OrderStateOpen, OrderStateMatched:
	default:
		return nil, NewConflictError(
			"order %s cannot fail in state %s", o.OrderID, o.State,
		)
	}

	event := OrderFailed{OrderID: o.OrderID, Reason: reason, Timestamp: now}
	o.raise(event)

	return event, nil
}

func (o *SwapOrder) MarkExpired(now int64) (Event, error) {
	if o.State != OrderStateOpen {
		return nil, NewConflictError(
			"order %s is not open (%s)", o.OrderID, o.State,
		)
	}
	if now <= o.Deadline {
		return nil, NewTimingError(
			"order %s deadline has not passed yet", o.OrderID,
		)
	}

	event := OrderExpired{OrderID: o.OrderID, Timestamp: now}
	o.raise(event)

	return event, nil
}

// ExpectedReceive is the proportional want amount for a fill, floored.
// The intermediate product is computed in 128 bits so large amounts
// cannot wrap.
func (o *SwapOrder) ExpectedReceive(fillAmount uint64) uint64 {
	if o.OfferAmount == 0 {
		return 0
	}
	// a fill never exceeds the offer; capping quote inputs keeps the
	// quotient within 64 bits
	if fillAmount > o.OfferAmount {
		fillAmount = o.OfferAmount
	}
	hi, lo := bits.Mul64(fillAmount, o.WantAmount)
	quo, _ := bits.Div64(hi, lo, o.OfferAmount)
	return quo
}

func (o *SwapOrder) RemainingOffer() uint64 {
	return o.OfferAmount - o.FilledOfferAmount
}

func (o *SwapOrder) IsFillable(now int64) bool {
	return o.State == OrderStateOpen && now <= o.Deadline
}

func (o *SwapOrder) raise(event Event) {
	if o.changes == nil {
		o.changes = make([]Event, 0)
	}
	o.changes = append(o.changes, event)
	o.On(event, false)
}

func (p OrderParams) validate(now int64) error {
	if !ValidID(p.OrderID) {
		return NewValidationError("invalid order id")
	}
	if len(p.Maker) <= 0 {
		return NewValidationError("missing maker")
	}
	if len(p.OfferChain) <= 0 || len(p.WantChain) <= 0 {
		return NewValidationError("missing offer or want chain")
	}
	if p.OfferChain == p.WantChain {
		return NewValidationError("offer and want chain must differ")
	}
	if len(p.OfferToken) <= 0 || len(p.WantToken) <= 0 {
		return NewValidationError("missing offer or want token")
	}
	if p.OfferAmount == 0 {
		return NewValidationError("offer amount must be positive")
	}
	if p.WantAmount == 0 {
		return NewValidationError("want amount must be positive")
	}
	if p.Deadline <= now {
		return NewValidationError("deadline must be in the future")
	}
	if p.MinReceive > p.WantAmount {
		return NewValidationError(
			"min receive %d exceeds want amount %d", p.MinReceive, p.WantAmount,
		)
	}
	if p.RelayerRewardBps > MaxRelayerRewardBps {
		return NewValidationError(
			"relayer reward must not exceed %d bps", MaxRelayerRewardBps,
		)
	}
	return nil
}
