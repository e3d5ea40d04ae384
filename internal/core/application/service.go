package application

import (
	"context"
	"fmt"
	"sync"

	"github.com/tesseract-network/tesseractd/internal/core/domain"
	"github.com/tesseract-network/tesseractd/internal/core/ports"
	log "github.com/sirupsen/logrus"
)

// SwapGroupStatus is the read-only aggregate over a swap group's legs.
type SwapGroupStatus struct {
	Total      int
	ReadyCount int
	AllReady   bool
}

// BufferService is the transaction buffering and dependency-resolution
// state machine behind the buffer entry points. Every mutating call is
// serialized by a single mutex so that concurrent calls racing on the same
// record resolve deterministically, mirroring the total order a host
// ledger would impose.
type BufferService interface {
	BufferTransaction(
		ctx context.Context, caller, txID, origin, target string,
		payload []byte, dependencyTxID string, targetTimestamp int64,
	) error
	BufferTransactionWithCommitment(
		ctx context.Context, caller, txID, origin, target, commitmentHash string,
		dependencyTxID string, targetTimestamp int64,
		swapGroupID, refundRecipient string,
	) error
	ResolveDependency(ctx context.Context, caller, txID string) (domain.TransactionState, error)
	RevealTransaction(ctx context.Context, caller, txID string, payload, secret []byte) error
	AddToSwapGroup(ctx context.Context, caller, txID, swapGroupID string) error
	MarkTransactionExecuted(ctx context.Context, caller, txID string) error
	MarkTransactionFailed(ctx context.Context, caller, txID, reason string) error
	ClaimRefund(ctx context.Context, caller, txID string) error

	GrantRole(ctx context.Context, caller string, role domain.Role, account string) error
	RevokeRole(ctx context.Context, caller string, role domain.Role, account string) error
	TransferOwnership(ctx context.Context, caller, newOwner string) error
	SetEmergencyAdmin(ctx context.Context, caller, admin string) error
	EmergencyPause(ctx context.Context, caller string) error
	EmergencyUnpause(ctx context.Context, caller string) error
	ResetCircuitBreaker(ctx context.Context, caller string) error
	SetCircuitBreakerThreshold(ctx context.Context, caller string, threshold uint64) error
	SetCoordinationWindow(ctx context.Context, caller string, window int64) error
	SetMaxPayloadSize(ctx context.Context, caller string, size int) error

	GetTransaction(ctx context.Context, txID string) (*domain.Transaction, error)
	GetTransactionState(ctx context.Context, txID string) (domain.TransactionState, error)
	IsTransactionReady(ctx context.Context, txID string) (bool, error)
	GetSwapGroupStatus(ctx context.Context, swapGroupID string) (*SwapGroupStatus, error)
	Owner(ctx context.Context) (string, error)
	EmergencyAdmin(ctx context.Context) (string, error)
	Paused(ctx context.Context) (bool, error)
	CircuitBreakerActive(ctx context.Context) (bool, error)
	CircuitBreakerThreshold(ctx context.Context) (uint64, error)
	CoordinationWindow(ctx context.Context) (int64, error)
	MaxPayloadSize(ctx context.Context) (int, error)
	TransactionCount(ctx context.Context) (uint64, error)
	FailureCount(ctx context.Context) (uint64, error)
	HasRole(ctx context.Context, role domain.Role, account string) (bool, error)

	GetEventsChannel() <-chan domain.Event
	Stop()
}

type bufferService struct {
	repoManager ports.RepoManager
	clock       ports.ChainClock
	scheduler   ports.SchedulerService

	lock     sync.Mutex
	eventsCh chan domain.Event
}

// NewBufferService builds the buffer service and bootstraps the singleton
// settings with the given deployer as owner, emergency admin and admin
// role holder.
func NewBufferService(
	repoManager ports.RepoManager, clock ports.ChainClock,
	scheduler ports.SchedulerService, deployer string,
) (BufferService, error) {
	if len(deployer) <= 0 {
		return nil, fmt.Errorf("missing deployer account")
	}

	ctx := context.Background()
	settings, err := repoManager.Settings().Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %s", err)
	}
	if settings == nil {
		settings = &domain.Settings{
			Access: domain.NewAccessRegistry(deployer),
			Safety: domain.NewSafety(),
			Fees:   domain.NewFeePolicy(),
		}
		if err := repoManager.Settings().Save(ctx, *settings); err != nil {
			return nil, fmt.Errorf("failed to bootstrap settings: %s", err)
		}
		log.WithField("owner", deployer).Info("bootstrapped settings store")
	}

	svc := &bufferService{
		repoManager: repoManager,
		clock:       clock,
		scheduler:   scheduler,
		eventsCh:    make(chan domain.Event, 128),
	}
	scheduler.Start()

	return svc, nil
}

func (s *bufferService) BufferTransaction(
	ctx context.Context, caller, txID, origin, target string,
	payload []byte, dependencyTxID string, targetTimestamp int64,
) error {
	params := domain.BufferParams{
		TxID:            txID,
		Origin:          origin,
		Target:          target,
		Payload:         payload,
		DependencyTxID:  normalizeID(dependencyTxID),
		TargetTimestamp: targetTimestamp,
	}
	return s.buffer(ctx, caller, params)
}

func (s *bufferService) BufferTransactionWithCommitment(
	ctx context.Context, caller, txID, origin, target, commitmentHash string,
	dependencyTxID string, targetTimestamp int64,
	swapGroupID, refundRecipient string,
) error {
	params := domain.BufferParams{
		TxID:            txID,
		Origin:          origin,
		Target:          target,
		CommitmentHash:  commitmentHash,
		RefundRecipient: refundRecipient,
		DependencyTxID:  normalizeID(dependencyTxID),
		TargetTimestamp: targetTimestamp,
		SwapGroupID:     normalizeID(swapGroupID),
	}
	return s.buffer(ctx, caller, params)
}

func (s *bufferService) buffer(
	ctx context.Context, caller string, params domain.BufferParams,
) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	settings, err := s.settings(ctx)
	if err != nil {
		return err
	}
	if err := settings.Access.Authorize(caller, domain.CapBuffer); err != nil {
		return err
	}
	if err := settings.Safety.EnsureOperational(); err != nil {
		return err
	}

	existing, err := s.repoManager.Transactions().Get(ctx, params.TxID)
	if err != nil {
		return err
	}
	if existing != nil {
		return errTransactionIDUsed(params.TxID)
	}

	if len(params.DependencyTxID) > 0 {
		dep, err := s.repoManager.Transactions().Get(ctx, params.DependencyTxID)
		if err != nil {
			return err
		}
		if dep == nil {
			return errUnknownDependency(params.DependencyTxID)
		}
	}

	var group *domain.SwapGroup
	if len(params.SwapGroupID) > 0 {
		group, err = s.repoManager.SwapGroups().Get(ctx, params.SwapGroupID)
		if err != nil {
			return err
		}
		if group == nil {
			group = domain.NewSwapGroup(params.SwapGroupID)
		}
		if err := group.AddMember(params.TxID); err != nil {
			return err
		}
	}

	tx := domain.NewTransaction()
	event, err := tx.Buffer(
		params, settings.Safety.MaxPayloadSize, s.clock.Now(), s.clock.Height(),
	)
	if err != nil {
		return err
	}

	if err := s.repoManager.Transactions().AddOrUpdate(ctx, *tx); err != nil {
		return err
	}
	if group != nil {
		if err := s.repoManager.SwapGroups().AddOrUpdate(ctx, *group); err != nil {
			return err
		}
	}
	settings.Safety.TransactionCount++
	if err := s.repoManager.Settings().Save(ctx, *settings); err != nil {
		return err
	}
	s.saveEvents(ctx, domain.TransactionTopic, params.TxID, event)

	s.scheduleWindowNotification(params.TxID, params.TargetTimestamp)

	log.WithFields(log.Fields{
		"tx_id":  params.TxID,
		"origin": params.Origin,
		"target": params.Target,
	}).Debug("buffered transaction")
	s.publish(event)

	return nil
}

// ResolveDependency flips a buffered transaction to READY, or to EXPIRED
// when the coordination window has already closed. The returned state tells
// the relayer which of the two happened; an expiry also feeds the circuit
// breaker.
func (s *bufferService) ResolveDependency(
	ctx context.Context, caller, txID string,
) (domain.TransactionState, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	settings, err := s.settings(ctx)
	if err != nil {
		return domain.TxStateEmpty, err
	}
	if err := settings.Access.Authorize(caller, domain.CapResolve); err != nil {
		return domain.TxStateEmpty, err
	}
	if err := settings.Safety.EnsureOperational(); err != nil {
		return domain.TxStateEmpty, err
	}

	tx, err := s.repoManager.Transactions().Get(ctx, txID)
	if err != nil {
		return domain.TxStateEmpty, err
	}
	if tx == nil {
		return domain.TxStateEmpty, errTransactionNotFound(txID)
	}

	var dep *domain.DependencySnapshot
	if len(tx.DependencyTxID) > 0 {
		depTx, err := s.repoManager.Transactions().Get(ctx, tx.DependencyTxID)
		if err != nil {
			return domain.TxStateEmpty, err
		}
		if depTx == nil {
			return domain.TxStateEmpty, errUnknownDependency(tx.DependencyTxID)
		}
		dep = &domain.DependencySnapshot{TxID: depTx.TxID, State: depTx.State}
	}

	event, err := tx.Resolve(
		dep, settings.Safety.CoordinationWindow, s.clock.Now(), s.clock.Height(),
	)
	if err != nil {
		return domain.TxStateEmpty, err
	}

	if err := s.repoManager.Transactions().AddOrUpdate(ctx, *tx); err != nil {
		return domain.TxStateEmpty, err
	}

	events := []domain.Event{event}
	switch event.(type) {
	case domain.TransactionReady:
		if len(tx.SwapGroupID) > 0 {
			group, err := s.repoManager.SwapGroups().Get(ctx, tx.SwapGroupID)
			if err != nil {
				return domain.TxStateEmpty, err
			}
			if group != nil {
				group.MarkMemberReady()
				if err := s.repoManager.SwapGroups().AddOrUpdate(ctx, *group); err != nil {
					return domain.TxStateEmpty, err
				}
			}
		}
		log.WithField("tx_id", txID).Debug("transaction ready for execution")
	case domain.TransactionExpired:
		if tripped := settings.Safety.RecordFailure(s.clock.Now()); tripped != nil {
			events = append(events, tripped)
			log.WithField("failures", settings.Safety.FailureCount).
				Warn("circuit breaker tripped")
		}
		if err := s.repoManager.Settings().Save(ctx, *settings); err != nil {
			return domain.TxStateEmpty, err
		}
		log.WithField("tx_id", txID).Debug("transaction expired at resolution")
	}

	s.saveEvents(ctx, domain.TransactionTopic, txID, events...)
	s.publish(events...)

	return tx.State, nil
}

func (s *bufferService) RevealTransaction(
	ctx context.Context, caller, txID string, payload, secret []byte,
) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	settings, err := s.settings(ctx)
	if err != nil {
		return err
	}
	if err := settings.Access.Authorize(caller, domain.CapBuffer); err != nil {
		return err
	}
	if err := settings.Safety.EnsureOperational(); err != nil {
		return err
	}

	tx, err := s.repoManager.Transactions().Get(ctx, txID)
	if err != nil {
		return err
	}
	if tx == nil {
		return errTransactionNotFound(txID)
	}

	event, err := tx.Reveal(payload, secret)
	if err != nil {
		return err
	}

	if err := s.repoManager.Transactions().AddOrUpdate(ctx, *tx); err != nil {
		return err
	}
	s.saveEvents(ctx, domain.TransactionTopic, txID, event)
	s.publish(event)

	return nil
}

func (s *bufferService) AddToSwapGroup(
	ctx context.Context, caller, txID, swapGroupID string,
) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	settings, err := s.settings(ctx)
	if err != nil {
		return err
	}
	if err := settings.Access.Authorize(caller, domain.CapBuffer); err != nil {
		return err
	}
	if err := settings.Safety.EnsureOperational(); err != nil {
		return err
	}

	tx, err := s.repoManager.Transactions().Get(ctx, txID)
	if err != nil {
		return err
	}
	if tx == nil {
		return errTransactionNotFound(txID)
	}

	group, err := s.repoManager.SwapGroups().Get(ctx, swapGroupID)
	if err != nil {
		return err
	}
	if group == nil {
		group = domain.NewSwapGroup(swapGroupID)
	}
	if err := group.AddMember(txID); err != nil {
		return err
	}

	event, err := tx.AttachToGroup(swapGroupID)
	if err != nil {
		return err
	}
	if tx.State == domain.TxStateReady {
		group.MarkMemberReady()
	}

	if err := s.repoManager.Transactions().AddOrUpdate(ctx, *tx); err != nil {
		return err
	}
	if err := s.repoManager.SwapGroups().AddOrUpdate(ctx, *group); err != nil {
		return err
	}
	s.saveEvents(ctx, domain.TransactionTopic, txID, event)
	s.publish(event)

	return nil
}

func (s *bufferService) MarkTransactionExecuted(
	ctx context.Context, caller, txID string,
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

	tx, err := s.repoManager.Transactions().Get(ctx, txID)
	if err != nil {
		return err
	}
	if tx == nil {
		return errTransactionNotFound(txID)
	}

	event, err := tx.MarkExecuted(s.clock.Now())
	if err != nil {
		return err
	}

	if err := s.repoManager.Transactions().AddOrUpdate(ctx, *tx); err != nil {
		return err
	}
	s.saveEvents(ctx, domain.TransactionTopic, txID, event)
	s.publish(event)

	return nil
}

func (s *bufferService) MarkTransactionFailed(
	ctx context.Context, caller, txID, reason string,
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

	tx, err := s.repoManager.Transactions().Get(ctx, txID)
	if err != nil {
		return err
	}
	if tx == nil {
		return errTransactionNotFound(txID)
	}

	event, err := tx.MarkFailed(reason, s.clock.Now())
	if err != nil {
		return err
	}

	events := []domain.Event{event}
	if tripped := settings.Safety.RecordFailure(s.clock.Now()); tripped != nil {
		events = append(events, tripped)
		log.WithField("failures", settings.Safety.FailureCount).
			Warn("circuit breaker tripped")
	}

	if err := s.repoManager.Transactions().AddOrUpdate(ctx, *tx); err != nil {
		return err
	}
	if err := s.repoManager.Settings().Save(ctx, *settings); err != nil {
		return err
	}
	s.saveEvents(ctx, domain.TransactionTopic, txID, events...)
	s.publish(events...)

	return nil
}

func (s *bufferService) ClaimRefund(ctx context.Context, caller, txID string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	settings, err := s.settings(ctx)
	if err != nil {
		return err
	}
	if err := settings.Safety.EnsureOperational(); err != nil {
		return err
	}

	tx, err := s.repoManager.Transactions().Get(ctx, txID)
	if err != nil {
		return err
	}
	if tx == nil {
		return errTransactionNotFound(txID)
	}

	event, err := tx.ClaimRefund(caller, s.clock.Now())
	if err != nil {
		return err
	}

	if err := s.repoManager.Transactions().AddOrUpdate(ctx, *tx); err != nil {
		return err
	}
	s.saveEvents(ctx, domain.TransactionTopic, txID, event)
	s.publish(event)

	return nil
}

func (s *bufferService) GrantRole(
	ctx context.Context, caller string, role domain.Role, account string,
) error {
	return s.updateAccess(ctx, func(access *domain.AccessRegistry) (domain.Event, error) {
		return access.GrantRole(caller, role, account)
	})
}

func (s *bufferService) RevokeRole(
	ctx context.Context, caller string, role domain.Role, account string,
) error {
	return s.updateAccess(ctx, func(access *domain.AccessRegistry) (domain.Event, error) {
		return access.RevokeRole(caller, role, account)
	})
}

func (s *bufferService) TransferOwnership(ctx context.Context, caller, newOwner string) error {
	return s.updateAccess(ctx, func(access *domain.AccessRegistry) (domain.Event, error) {
		return access.TransferOwnership(caller, newOwner)
	})
}

func (s *bufferService) SetEmergencyAdmin(ctx context.Context, caller, admin string) error {
	return s.updateAccess(ctx, func(access *domain.AccessRegistry) (domain.Event, error) {
		return access.SetEmergencyAdmin(caller, admin)
	})
}

func (s *bufferService) EmergencyPause(ctx context.Context, caller string) error {
	return s.updateSafety(ctx, caller, domain.CapEmergencyPause,
		func(safety *domain.Safety) (domain.Event, error) {
			return safety.Pause(caller, s.clock.Now())
		})
}

func (s *bufferService) EmergencyUnpause(ctx context.Context, caller string) error {
	return s.updateSafety(ctx, caller, domain.CapEmergencyUnpause,
		func(safety *domain.Safety) (domain.Event, error) {
			return safety.Unpause(caller, s.clock.Now())
		})
}

func (s *bufferService) ResetCircuitBreaker(ctx context.Context, caller string) error {
	return s.updateSafety(ctx, caller, domain.CapOwner,
		func(safety *domain.Safety) (domain.Event, error) {
			return safety.ResetBreaker(caller, s.clock.Now())
		})
}

func (s *bufferService) SetCircuitBreakerThreshold(
	ctx context.Context, caller string, threshold uint64,
) error {
	return s.updateSafety(ctx, caller, domain.CapOwner,
		func(safety *domain.Safety) (domain.Event, error) {
			return safety.SetBreakerThreshold(threshold)
		})
}

func (s *bufferService) SetCoordinationWindow(
	ctx context.Context, caller string, window int64,
) error {
	return s.updateSafety(ctx, caller, domain.CapOwner,
		func(safety *domain.Safety) (domain.Event, error) {
			return safety.SetCoordinationWindow(window)
		})
}

func (s *bufferService) SetMaxPayloadSize(
	ctx context.Context, caller string, size int,
) error {
	return s.updateSafety(ctx, caller, domain.CapOwner,
		func(safety *domain.Safety) (domain.Event, error) {
			return safety.SetMaxPayloadSize(size)
		})
}

func (s *bufferService) GetTransaction(
	ctx context.Context, txID string,
) (*domain.Transaction, error) {
	tx, err := s.repoManager.Transactions().Get(ctx, txID)
	if err != nil {
		return nil, err
	}
	if tx == nil {
		// unknown ids read back as the EMPTY sentinel
		return &domain.Transaction{TxID: txID, State: domain.TxStateEmpty}, nil
	}
	return tx, nil
}

func (s *bufferService) GetTransactionState(
	ctx context.Context, txID string,
) (domain.TransactionState, error) {
	tx, err := s.GetTransaction(ctx, txID)
	if err != nil {
		return domain.TxStateEmpty, err
	}
	return tx.State, nil
}

func (s *bufferService) IsTransactionReady(
	ctx context.Context, txID string,
) (bool, error) {
	state, err := s.GetTransactionState(ctx, txID)
	if err != nil {
		return false, err
	}
	return state == domain.TxStateReady, nil
}

func (s *bufferService) GetSwapGroupStatus(
	ctx context.Context, swapGroupID string,
) (*SwapGroupStatus, error) {
	group, err := s.repoManager.SwapGroups().Get(ctx, swapGroupID)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return &SwapGroupStatus{}, nil
	}
	return &SwapGroupStatus{
		Total:      group.Total(),
		ReadyCount: group.ReadyCount,
		AllReady:   group.AllReady(),
	}, nil
}

func (s *bufferService) Owner(ctx context.Context) (string, error) {
	settings, err := s.settings(ctx)
	if err != nil {
		return "", err
	}
	return settings.Access.Owner, nil
}

func (s *bufferService) EmergencyAdmin(ctx context.Context) (string, error) {
	settings, err := s.settings(ctx)
	if err != nil {
		return "", err
	}
	return settings.Access.EmergencyAdmin, nil
}

func (s *bufferService) Paused(ctx context.Context) (bool, error) {
	settings, err := s.settings(ctx)
	if err != nil {
		return false, err
	}
	return settings.Safety.Paused, nil
}

func (s *bufferService) CircuitBreakerActive(ctx context.Context) (bool, error) {
	settings, err := s.settings(ctx)
	if err != nil {
		return false, err
	}
	return settings.Safety.BreakerActive, nil
}

func (s *bufferService) CircuitBreakerThreshold(ctx context.Context) (uint64, error) {
	settings, err := s.settings(ctx)
	if err != nil {
		return 0, err
	}
	return settings.Safety.BreakerThreshold, nil
}

func (s *bufferService) CoordinationWindow(ctx context.Context) (int64, error) {
	settings, err := s.settings(ctx)
	if err != nil {
		return 0, err
	}
	return settings.Safety.CoordinationWindow, nil
}

func (s *bufferService) MaxPayloadSize(ctx context.Context) (int, error) {
	settings, err := s.settings(ctx)
	if err != nil {
		return 0, err
	}
	return settings.Safety.MaxPayloadSize, nil
}

func (s *bufferService) TransactionCount(ctx context.Context) (uint64, error) {
	settings, err := s.settings(ctx)
	if err != nil {
		return 0, err
	}
	return settings.Safety.TransactionCount, nil
}

func (s *bufferService) FailureCount(ctx context.Context) (uint64, error) {
	settings, err := s.settings(ctx)
	if err != nil {
		return 0, err
	}
	return settings.Safety.FailureCount, nil
}

func (s *bufferService) HasRole(
	ctx context.Context, role domain.Role, account string,
) (bool, error) {
	settings, err := s.settings(ctx)
	if err != nil {
		return false, err
	}
	return settings.Access.HasRole(role, account), nil
}

func (s *bufferService) GetEventsChannel() <-chan domain.Event {
	return s.eventsCh
}

func (s *bufferService) Stop() {
	s.scheduler.Stop()
}

func (s *bufferService) settings(ctx context.Context) (*domain.Settings, error) {
	settings, err := s.repoManager.Settings().Get(ctx)
	if err != nil {
		return nil, err
	}
	if settings == nil {
		return nil, fmt.Errorf("settings store not bootstrapped")
	}
	return settings, nil
}

func (s *bufferService) updateAccess(
	ctx context.Context, apply func(*domain.AccessRegistry) (domain.Event, error),
) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	settings, err := s.settings(ctx)
	if err != nil {
		return err
	}

	event, err := apply(settings.Access)
	if err != nil {
		return err
	}

	if err := s.repoManager.Settings().Save(ctx, *settings); err != nil {
		return err
	}
	s.saveEvents(ctx, domain.AccessTopic, "access", event)
	s.publish(event)

	return nil
}

// updateSafety applies a safety mutation; pause, unpause and breaker reset
// deliberately skip EnsureOperational so the system can always be halted
// and recovered.
func (s *bufferService) updateSafety(
	ctx context.Context, caller string, capability domain.Capability,
	apply func(*domain.Safety) (domain.Event, error),
) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	settings, err := s.settings(ctx)
	if err != nil {
		return err
	}
	if err := settings.Access.Authorize(caller, capability); err != nil {
		return err
	}

	event, err := apply(settings.Safety)
	if err != nil {
		return err
	}

	if err := s.repoManager.Settings().Save(ctx, *settings); err != nil {
		return err
	}
	s.saveEvents(ctx, domain.SafetyTopic, "safety", event)
	s.publish(event)

	return nil
}

func (s *bufferService) scheduleWindowNotification(txID string, targetTimestamp int64) {
	task := func() {
		log.WithField("tx_id", txID).Debug("coordination window open")
		s.publish(CoordinationWindowOpen{
			TxID:            txID,
			TargetTimestamp: targetTimestamp,
		})
	}
	if err := s.scheduler.ScheduleTaskOnce(targetTimestamp, task); err != nil {
		log.WithError(err).WithField("tx_id", txID).
			Warn("failed to schedule coordination window notification")
	}
}

func (s *bufferService) saveEvents(
	ctx context.Context, topic, id string, events ...domain.Event,
) {
	if err := s.repoManager.Events().Save(ctx, topic, id, events); err != nil {
		log.WithError(err).WithField("id", id).Warn("failed to persist events")
	}
}

func (s *bufferService) publish(events ...domain.Event) {
	for _, event := range events {
		select {
		case s.eventsCh <- event:
		default:
			log.Warn("events channel full, dropping event")
		}
	}
}

func normalizeID(id string) string {
	if domain.IsZeroID(id) {
		return ""
	}
	return id
}
