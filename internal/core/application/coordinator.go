package application

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"

	"github.com/tesseract-network/tesseractd/internal/core/domain"
	"github.com/tesseract-network/tesseractd/internal/core/ports"
	log "github.com/sirupsen/logrus"
)

// settlementLeadTime is how far ahead of now the settlement legs of a
// fully matched order are targeted, in seconds. It leaves relayers room
// to observe the match before the coordination window opens.
const settlementLeadTime int64 = 60

// CoordinatorService runs the atomic swap order book on top of the
// transaction buffer. A fully matched order is decomposed into two
// settlement legs, one per chain, buffered under a shared swap group; the
// order may only complete once every leg of that group is ready.
type CoordinatorService interface {
	CreateSwapOrder(ctx context.Context, caller string, params domain.OrderParams) error
	TakeSwapOrder(
		ctx context.Context, caller, orderID string, fillAmount uint64,
	) (expectedReceive uint64, err error)
	CancelSwapOrder(ctx context.Context, caller, orderID string) error
	MarkOrderExecuted(ctx context.Context, caller, orderID string) error
	MarkOrderFailed(ctx context.Context, caller, orderID, reason string) error
	MarkOrderExpired(ctx context.Context, caller, orderID string) error

	GetOrder(ctx context.Context, orderID string) (*domain.SwapOrder, error)
	GetOrderState(ctx context.Context, orderID string) (domain.OrderState, error)
	GetRemainingOffer(ctx context.Context, orderID string) (uint64, error)
	IsOrderFillable(ctx context.Context, orderID string) (bool, error)
	CalculateExpectedReceive(
		ctx context.Context, orderID string, fillAmount uint64,
	) (uint64, error)
	CalculateFeePreview(
		ctx context.Context, account string, amount uint64,
	) (fee uint64, discounted bool, err error)
	ProtocolFeeBps(ctx context.Context) (uint64, error)
	SetProtocolFee(ctx context.Context, caller string, bps uint64) error

	GetEventsChannel() <-chan domain.Event
}

type coordinatorService struct {
	repoManager       ports.RepoManager
	clock             ports.ChainClock
	stakeOracle       ports.StakeOracle
	buffer            BufferService
	settlementAccount string

	lock     sync.Mutex
	eventsCh chan domain.Event
}

// NewCoordinatorService builds the coordinator. The settlement account is
// the identity the coordinator buffers settlement legs under; it must hold
// the buffer role.
func NewCoordinatorService(
	repoManager ports.RepoManager, clock ports.ChainClock,
	stakeOracle ports.StakeOracle, buffer BufferService,
	settlementAccount string,
) CoordinatorService {
	return &coordinatorService{
		repoManager:       repoManager,
		clock:             clock,
		stakeOracle:       stakeOracle,
		buffer:            buffer,
		settlementAccount: settlementAccount,
		eventsCh:          make(chan domain.Event, 128),
	}
}

func (s *coordinatorService) CreateSwapOrder(
	ctx context.Context, caller string, params domain.OrderParams,
) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	settings, err := s.settings(ctx)
	if err != nil {
		return err
	}
	if err := settings.Safety.EnsureOperational(); err != nil {
		return err
	}
	if caller != params.Maker {
		return domain.NewUnauthorizedError("caller is not the order maker")
	}

	existing, err := s.repoManager.Orders().Get(ctx, params.OrderID)
	if err != nil {
		return err
	}
	if existing != nil {
		return errOrderIDUsed(params.OrderID)
	}

	order := domain.NewSwapOrder()
	event, err := order.Create(params, s.clock.Now())
	if err != nil {
		return err
	}

	if err := s.repoManager.Orders().AddOrUpdate(ctx, *order); err != nil {
		return err
	}
	s.saveEvents(ctx, params.OrderID, event)

	log.WithFields(log.Fields{
		"order_id":    params.OrderID,
		"maker":       params.Maker,
		"offer_chain": params.OfferChain,
		"want_chain":  params.WantChain,
	}).Debug("created swap order")

	return nil
}

// TakeSwapOrder fills an open order. When the fill completes the offer, the
// two settlement legs are buffered under a derived swap group and the order
// delegates its completion to that group.
func (s *coordinatorService) TakeSwapOrder(
	ctx context.Context, caller, orderID string, fillAmount uint64,
) (uint64, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	settings, err := s.settings(ctx)
	if err != nil {
		return 0, err
	}
	if err := settings.Safety.EnsureOperational(); err != nil {
		return 0, err
	}

	order, err := s.repoManager.Orders().Get(ctx, orderID)
	if err != nil {
		return 0, err
	}
	if order == nil {
		return 0, errOrderNotFound(orderID)
	}

	events, err := order.Take(caller, fillAmount, s.clock.Now())
	if err != nil {
		return 0, err
	}
	expected := events[0].(domain.OrderTaken).ExpectedReceive

	if err := s.repoManager.Orders().AddOrUpdate(ctx, *order); err != nil {
		return 0, err
	}
	s.saveEvents(ctx, orderID, events...)

	if order.State == domain.OrderStateMatched {
		if err := s.delegateSettlement(ctx, order); err != nil {
			// the match itself stands; relayers can retry settlement
			// composition through the buffer directly
			log.WithError(err).WithField("order_id", orderID).
				Warn("failed to compose settlement legs")
		}
	}

	return expected, nil
}

func (s *coordinatorService) CancelSwapOrder(
	ctx context.Context, caller, orderID string,
) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	settings, err := s.settings(ctx)
	if err != nil {
		return err
	}
	if err := settings.Safety.EnsureOperational(); err != nil {
		return err
	}

	order, err := s.repoManager.Orders().Get(ctx, orderID)
	if err != nil {
		return err
	}
	if order == nil {
		return errOrderNotFound(orderID)
	}

	event, err := order.Cancel(caller, s.clock.Now())
	if err != nil {
		return err
	}

	if err := s.repoManager.Orders().AddOrUpdate(ctx, *order); err != nil {
		return err
	}
	s.saveEvents(ctx, orderID, event)

	return nil
}

// MarkOrderExecuted completes a fully matched order. If settlement was
// delegated to a swap group, every leg of the group must be ready first.
func (s *coordinatorService) MarkOrderExecuted(
	ctx context.Context, caller, orderID string,
) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	settings, err := s.settings(ctx)
	if err != nil {
		return err
	}
	if err := settings.Access.Authorize(caller, domain.CapResolve); err != nil {
		return err
	}
	if err := settings.Safety.EnsureOperational(); err != nil {
		return err
	}

	order, err := s.repoManager.Orders().Get(ctx, orderID)
	if err != nil {
		return err
	}
	if order == nil {
		return errOrderNotFound(orderID)
	}

	if len(order.SettlementGroupID) > 0 {
		group, err := s.repoManager.SwapGroups().Get(ctx, order.SettlementGroupID)
		if err != nil {
			return err
		}
		if group == nil || !group.AllReady() {
			return domain.NewConflictError(
				"settlement group %s is not fully ready", order.SettlementGroupID,
			)
		}
	}

	event, err := order.MarkExecuted(s.clock.Now())
	if err != nil {
		return err
	}

	if err := s.repoManager.Orders().AddOrUpdate(ctx, *order); err != nil {
		return err
	}
	s.saveEvents(ctx, orderID, event)

	return nil
}

func (s *coordinatorService) MarkOrderFailed(
	ctx context.Context, caller, orderID, reason string,
) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	settings, err := s.settings(ctx)
	if err != nil {
		return err
	}
	if err := settings.Access.Authorize(caller, domain.CapResolve); err != nil {
		return err
	}
	if err := settings.Safety.EnsureOperational(); err != nil {
		return err
	}

	order, err := s.repoManager.Orders().Get(ctx, orderID)
	if err != nil {
		return err
	}
	if order == nil {
		return errOrderNotFound(orderID)
	}

	event, err := order.MarkFailed(reason, s.clock.Now())
	if err != nil {
		return err
	}

	if err := s.repoManager.Orders().AddOrUpdate(ctx, *order); err != nil {
		return err
	}
	s.saveEvents(ctx, orderID, event)

	return nil
}

func (s *coordinatorService) MarkOrderExpired(
	ctx context.Context, caller, orderID string,
) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	settings, err := s.settings(ctx)
	if err != nil {
		return err
	}
	if err := settings.Access.Authorize(caller, domain.CapResolve); err != nil {
		return err
	}
	if err := settings.Safety.EnsureOperational(); err != nil {
		return err
	}

	order, err := s.repoManager.Orders().Get(ctx, orderID)
	if err != nil {
		return err
	}
	if order == nil {
		return errOrderNotFound(orderID)
	}

	event, err := order.MarkExpired(s.clock.Now())
	if err != nil {
		return err
	}

	if err := s.repoManager.Orders().AddOrUpdate(ctx, *order); err != nil {
		return err
	}
	s.saveEvents(ctx, orderID, event)

	return nil
}

func (s *coordinatorService) GetOrder(
	ctx context.Context, orderID string,
) (*domain.SwapOrder, error) {
	order, err := s.repoManager.Orders().Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		// unknown ids read back as the UNSPECIFIED sentinel
		return &domain.SwapOrder{OrderID: orderID, State: domain.OrderStateUnspecified}, nil
	}
	return order, nil
}

func (s *coordinatorService) GetOrderState(
	ctx context.Context, orderID string,
) (domain.OrderState, error) {
	order, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return domain.OrderStateUnspecified, err
	}
	return order.State, nil
}

func (s *coordinatorService) GetRemainingOffer(
	ctx context.Context, orderID string,
) (uint64, error) {
	order, err := s.repoManager.Orders().Get(ctx, orderID)
	if err != nil {
		return 0, err
	}
	if order == nil {
		return 0, errOrderNotFound(orderID)
	}
	return order.RemainingOffer(), nil
}

func (s *coordinatorService) IsOrderFillable(
	ctx context.Context, orderID string,
) (bool, error) {
	order, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return false, err
	}
	return order.IsFillable(s.clock.Now()), nil
}

func (s *coordinatorService) CalculateExpectedReceive(
	ctx context.Context, orderID string, fillAmount uint64,
) (uint64, error) {
	order, err := s.repoManager.Orders().Get(ctx, orderID)
	if err != nil {
		return 0, err
	}
	if order == nil {
		return 0, errOrderNotFound(orderID)
	}
	return order.ExpectedReceive(fillAmount), nil
}

// CalculateFeePreview quotes the protocol fee for an amount. Accounts the
// stake oracle flags get half the configured rate.
func (s *coordinatorService) CalculateFeePreview(
	ctx context.Context, account string, amount uint64,
) (uint64, bool, error) {
	settings, err := s.settings(ctx)
	if err != nil {
		return 0, false, err
	}

	fee := settings.Fees.CalculateFee(amount)
	discounted := false
	if s.stakeOracle != nil && len(account) > 0 {
		discounted, err = s.stakeOracle.HasFeeDiscount(ctx, account)
		if err != nil {
			return 0, false, err
		}
		if discounted {
			fee /= 2
		}
	}

	return fee, discounted, nil
}

func (s *coordinatorService) ProtocolFeeBps(ctx context.Context) (uint64, error) {
	settings, err := s.settings(ctx)
	if err != nil {
		return 0, err
	}
	return settings.Fees.ProtocolFeeBps, nil
}

func (s *coordinatorService) SetProtocolFee(
	ctx context.Context, caller string, bps uint64,
) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	settings, err := s.settings(ctx)
	if err != nil {
		return err
	}
	if err := settings.Access.Authorize(caller, domain.CapOwner); err != nil {
		return err
	}

	event, err := settings.Fees.SetProtocolFee(bps)
	if err != nil {
		return err
	}

	if err := s.repoManager.Settings().Save(ctx, *settings); err != nil {
		return err
	}
	s.saveEvents(ctx, "fees", event)

	return nil
}

type settlementLeg struct {
	OrderID string `json:"order_id"`
	Sender  string `json:"sender"`
	Chain   string `json:"chain"`
	Token   string `json:"token"`
	Amount  uint64 `json:"amount"`
}

// delegateSettlement buffers the maker and taker legs of a matched order
// under a swap group derived from the order id. The two buffers are not
// atomic; a failure between them leaves the first leg refundable once it
// expires.
func (s *coordinatorService) delegateSettlement(
	ctx context.Context, order *domain.SwapOrder,
) error {
	groupID := DeriveSettlementID(order.OrderID, "settlement")
	makerLegID := DeriveSettlementID(order.OrderID, "leg-maker")
	takerLegID := DeriveSettlementID(order.OrderID, "leg-taker")
	target := s.clock.Now() + settlementLeadTime

	makerPayload, err := json.Marshal(settlementLeg{
		OrderID: order.OrderID,
		Sender:  order.Maker,
		Chain:   order.OfferChain,
		Token:   order.OfferToken,
		Amount:  order.OfferAmount,
	})
	if err != nil {
		return err
	}
	takerPayload, err := json.Marshal(settlementLeg{
		OrderID: order.OrderID,
		Sender:  order.FilledBy,
		Chain:   order.WantChain,
		Token:   order.WantToken,
		Amount:  order.WantAmount,
	})
	if err != nil {
		return err
	}

	if err := s.buffer.BufferTransaction(
		ctx, s.settlementAccount, makerLegID,
		order.OfferChain, order.WantChain, makerPayload, "", target,
	); err != nil {
		return err
	}
	if err := s.buffer.BufferTransaction(
		ctx, s.settlementAccount, takerLegID,
		order.WantChain, order.OfferChain, takerPayload, "", target,
	); err != nil {
		return err
	}
	if err := s.buffer.AddToSwapGroup(
		ctx, s.settlementAccount, makerLegID, groupID,
	); err != nil {
		return err
	}
	if err := s.buffer.AddToSwapGroup(
		ctx, s.settlementAccount, takerLegID, groupID,
	); err != nil {
		return err
	}

	event, err := order.DelegateSettlement(groupID, s.clock.Now())
	if err != nil {
		return err
	}
	if err := s.repoManager.Orders().AddOrUpdate(ctx, *order); err != nil {
		return err
	}
	s.saveEvents(ctx, order.OrderID, event)

	log.WithFields(log.Fields{
		"order_id": order.OrderID,
		"group_id": groupID,
	}).Debug("delegated order settlement to swap group")

	return nil
}

func (s *coordinatorService) settings(ctx context.Context) (*domain.Settings, error) {
	settings, err := s.repoManager.Settings().Get(ctx)
	if err != nil {
		return nil, err
	}
	if settings == nil {
		return nil, domain.NewOperationalError("settings store not bootstrapped")
	}
	return settings, nil
}

func (s *coordinatorService) saveEvents(
	ctx context.Context, id string, events ...domain.Event,
) {
	if err := s.repoManager.Events().Save(ctx, domain.OrderTopic, id, events); err != nil {
		log.WithError(err).WithField("id", id).Warn("failed to persist events")
		return
	}
	s.publish(events...)
}

func (s *coordinatorService) GetEventsChannel() <-chan domain.Event {
	return s.eventsCh
}

func (s *coordinatorService) publish(events ...domain.Event) {
	for _, event := range events {
		select {
		case s.eventsCh <- event:
		default:
			log.Warn("events channel full, dropping event")
		}
	}
}

// DeriveSettlementID maps an order id and a leg suffix to the identifier
// the coordinator uses for the settlement group and its transactions.
// Clients can recompute it to look up the legs of a matched order.
func DeriveSettlementID(orderID, suffix string) string {
	sum := sha256.Sum256([]byte(orderID + ":" + suffix))
	return hex.EncodeToString(sum[:])
}
