package domain_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tesseract-network/tesseractd/internal/core/domain"
)

func TestSafety(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		safety := domain.NewSafety()
		require.False(t, safety.Paused)
		require.False(t, safety.BreakerActive)
		require.Equal(t, domain.DefaultBreakerThreshold, safety.BreakerThreshold)
		require.Equal(t, domain.DefaultCoordinationWindow, safety.CoordinationWindow)
		require.Equal(t, domain.DefaultMaxPayloadSize, safety.MaxPayloadSize)
		require.NoError(t, safety.EnsureOperational())
	})

	t.Run("pause_unpause", func(t *testing.T) {
		safety := domain.NewSafety()

		_, err := safety.Unpause(maker, baseTime)
		require.EqualError(t, err, "system is not paused")

		event, err := safety.Pause(maker, baseTime)
		require.NoError(t, err)
		require.True(t, safety.Paused)
		require.EqualError(t, safety.EnsureOperational(), "system is paused")

		paused, ok := event.(domain.EmergencyPause)
		require.True(t, ok)
		require.Equal(t, maker, paused.Caller)

		_, err = safety.Pause(maker, baseTime+1)
		require.EqualError(t, err, "system is already paused")

		_, err = safety.Unpause(maker, baseTime+2)
		require.NoError(t, err)
		require.False(t, safety.Paused)
		require.NoError(t, safety.EnsureOperational())
	})

	t.Run("circuit_breaker", func(t *testing.T) {
		safety := domain.NewSafety()
		_, err := safety.SetBreakerThreshold(3)
		require.NoError(t, err)

		require.Nil(t, safety.RecordFailure(baseTime))
		require.Nil(t, safety.RecordFailure(baseTime+1))
		require.NoError(t, safety.EnsureOperational())

		event := safety.RecordFailure(baseTime + 2)
		require.NotNil(t, event)
		require.True(t, safety.BreakerActive)
		require.EqualError(t, safety.EnsureOperational(), "circuit breaker is active")

		tripped, ok := event.(domain.CircuitBreakerTripped)
		require.True(t, ok)
		require.Equal(t, uint64(3), tripped.FailureCount)

		// further failures while active do not re-trip
		require.Nil(t, safety.RecordFailure(baseTime + 3))

		_, err = safety.ResetBreaker(maker, baseTime+10)
		require.NoError(t, err)
		require.False(t, safety.BreakerActive)
		require.Equal(t, uint64(0), safety.FailureCount)
		require.NoError(t, safety.EnsureOperational())

		_, err = safety.ResetBreaker(maker, baseTime+20)
		require.EqualError(t, err, "circuit breaker reset cooldown not elapsed")
		require.Equal(t, domain.ErrorKindTiming, domain.KindOf(err))

		_, err = safety.ResetBreaker(maker, baseTime+10+domain.BreakerResetCooldown)
		require.NoError(t, err)
	})

	t.Run("setters", func(t *testing.T) {
		safety := domain.NewSafety()

		_, err := safety.SetCoordinationWindow(domain.MinCoordinationWindow - 1)
		require.EqualError(t, err, fmt.Sprintf(
			"coordination window must be within [%d, %d]",
			domain.MinCoordinationWindow, domain.MaxCoordinationWindow,
		))
		_, err = safety.SetCoordinationWindow(domain.MaxCoordinationWindow + 1)
		require.Error(t, err)
		_, err = safety.SetCoordinationWindow(60)
		require.NoError(t, err)
		require.Equal(t, int64(60), safety.CoordinationWindow)

		_, err = safety.SetMaxPayloadSize(0)
		require.Error(t, err)
		_, err = safety.SetMaxPayloadSize(domain.MaxPayloadSizeCap + 1)
		require.EqualError(t, err, fmt.Sprintf(
			"max payload size must be within (0, %d]", domain.MaxPayloadSizeCap,
		))
		_, err = safety.SetMaxPayloadSize(2048)
		require.NoError(t, err)
		require.Equal(t, 2048, safety.MaxPayloadSize)

		_, err = safety.SetBreakerThreshold(0)
		require.EqualError(t, err, "circuit breaker threshold must be positive")
		_, err = safety.SetBreakerThreshold(10)
		require.NoError(t, err)
		require.Equal(t, uint64(10), safety.BreakerThreshold)
	})
}

func TestSwapGroup(t *testing.T) {
	memberIDs := []string{
		"5555555555555555555555555555555555555555555555555555555555555555",
		"6666666666666666666666666666666666666666666666666666666666666666",
		"7777777777777777777777777777777777777777777777777777777777777777",
		"8888888888888888888888888888888888888888888888888888888888888888",
	}

	t.Run("membership", func(t *testing.T) {
		group := domain.NewSwapGroup(groupID)
		require.Equal(t, 0, group.Total())
		require.False(t, group.AllReady())

		for _, id := range memberIDs {
			require.NoError(t, group.AddMember(id))
		}
		require.Equal(t, domain.MaxSwapGroupSize, group.Total())

		err := group.AddMember(txid)
		require.EqualError(t, err, fmt.Sprintf("swap group %s is full", groupID))

		err = group.AddMember(memberIDs[0])
		require.Error(t, err)
	})

	t.Run("readiness", func(t *testing.T) {
		group := domain.NewSwapGroup(groupID)
		require.NoError(t, group.AddMember(memberIDs[0]))
		require.NoError(t, group.AddMember(memberIDs[1]))

		group.MarkMemberReady()
		require.False(t, group.AllReady())

		group.MarkMemberReady()
		require.True(t, group.AllReady())
	})
}
