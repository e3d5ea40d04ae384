package domain

const (
	DefaultBreakerThreshold   uint64 = 50
	DefaultCoordinationWindow int64  = 10
	DefaultMaxPayloadSize     int    = 1024

	MinCoordinationWindow int64 = 5
	MaxCoordinationWindow int64 = 300

	// BreakerResetCooldown rate-limits circuit breaker resets so a
	// misbehaving owner key cannot mask a real incident by reset-spamming.
	BreakerResetCooldown int64 = 3600
)

type EmergencyPause struct {
	Caller    string
	Timestamp int64
}

type EmergencyUnpause struct {
	Caller    string
	Timestamp int64
}

type CircuitBreakerTripped struct {
	FailureCount uint64
	Timestamp    int64
}

type CircuitBreakerReset struct {
	Caller    string
	Timestamp int64
}

type CoordinationWindowUpdated struct {
	Window int64
}

type MaxPayloadSizeUpdated struct {
	Size int
}

type BreakerThresholdUpdated struct {
	Threshold uint64
}

// Safety is the singleton pause/circuit-breaker state wrapped around every
// mutating operation, plus the owner-tunable coordination parameters and
// the global counters.
type Safety struct {
	Paused             bool
	FailureCount       uint64
	BreakerThreshold   uint64
	BreakerActive      bool
	LastBreakerReset   int64
	CoordinationWindow int64
	MaxPayloadSize     int
	TransactionCount   uint64
}

func NewSafety() *Safety {
	return &Safety{
		BreakerThreshold:   DefaultBreakerThreshold,
		CoordinationWindow: DefaultCoordinationWindow,
		MaxPayloadSize:     DefaultMaxPayloadSize,
	}
}

// EnsureOperational gates every mutating operation except pause, unpause
// and breaker reset.
func (s *Safety) EnsureOperational() error {
	if s.Paused {
		return NewOperationalError("system is paused")
	}
	if s.BreakerActive {
		return NewOperationalError("circuit breaker is active")
	}
	return nil
}

func (s *Safety) Pause(caller string, now int64) (Event, error) {
	if s.Paused {
		return nil, NewConflictError("system is already paused")
	}
	s.Paused = true

	return EmergencyPause{Caller: caller, Timestamp: now}, nil
}

func (s *Safety) Unpause(caller string, now int64) (Event, error) {
	if !s.Paused {
		return nil, NewConflictError("system is not paused")
	}
	s.Paused = false

	return EmergencyUnpause{Caller: caller, Timestamp: now}, nil
}

// RecordFailure bumps the global failure counter and trips the breaker once
// the threshold is reached. The returned event is nil until the trip.
func (s *Safety) RecordFailure(now int64) Event {
	s.FailureCount++
	if !s.BreakerActive && s.FailureCount >= s.BreakerThreshold {
		s.BreakerActive = true
		return CircuitBreakerTripped{FailureCount: s.FailureCount, Timestamp: now}
	}
	return nil
}

func (s *Safety) ResetBreaker(caller string, now int64) (Event, error) {
	if s.LastBreakerReset > 0 && now < s.LastBreakerReset+BreakerResetCooldown {
		return nil, NewTimingError("circuit breaker reset cooldown not elapsed")
	}
	s.BreakerActive = false
	s.FailureCount = 0
	s.LastBreakerReset = now

	return CircuitBreakerReset{Caller: caller, Timestamp: now}, nil
}

func (s *Safety) SetCoordinationWindow(window int64) (Event, error) {
	if window < MinCoordinationWindow || window > MaxCoordinationWindow {
		return nil, NewValidationError(
			"coordination window must be within [%d, %d]",
			MinCoordinationWindow, MaxCoordinationWindow,
		)
	}
	s.CoordinationWindow = window

	return CoordinationWindowUpdated{Window: window}, nil
}

func (s *Safety) SetMaxPayloadSize(size int) (Event, error) {
	if size <= 0 || size > MaxPayloadSizeCap {
		return nil, NewValidationError(
			"max payload size must be within (0, %d]", MaxPayloadSizeCap,
		)
	}
	s.MaxPayloadSize = size

	return MaxPayloadSizeUpdated{Size: size}, nil
}

func (s *Safety) SetBreakerThreshold(threshold uint64) (Event, error) {
	if threshold == 0 {
		return nil, NewValidationError("circuit breaker threshold must be positive")
	}
	s.BreakerThreshold = threshold

	return BreakerThresholdUpdated{Threshold: threshold}, nil
}
