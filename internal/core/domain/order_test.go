package domain_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tesseract-network/tesseractd/internal/core/domain"
)

var orderID = "4444444444444444444444444444444444444444444444444444444444444444"

func orderParams() domain.OrderParams {
	return domain.OrderParams{
		OrderID:     orderID,
		Maker:       maker,
		OfferChain:  "rollup-a",
		OfferToken:  "USDC",
		OfferAmount: 1000,
		WantChain:   "rollup-b",
		WantToken:   "WETH",
		WantAmount:  500,
		Deadline:    baseTime + 600,
	}
}

func openOrder(t *testing.T, params domain.OrderParams) *domain.SwapOrder {
	order := domain.NewSwapOrder()
	_, err := order.Create(params, baseTime)
	require.NoError(t, err)
	return order
}

func matchedOrder(t *testing.T, params domain.OrderParams) *domain.SwapOrder {
	order := openOrder(t, params)
	_, err := order.Take(taker, params.OfferAmount, baseTime+10)
	require.NoError(t, err)
	require.Equal(t, domain.OrderStateMatched, order.State)
	return order
}

func TestSwapOrder(t *testing.T) {
	testCreateOrder(t)

	testTakeOrder(t)

	testCancelOrder(t)

	testDelegateSettlement(t)

	testOrderLifecycleEnd(t)
}

func testCreateOrder(t *testing.T) {
	t.Run("create", func(t *testing.T) {
		t.Run("valid", func(t *testing.T) {
			order := domain.NewSwapOrder()
			require.Equal(t, domain.OrderStateUnspecified, order.State)
			require.Empty(t, order.Events())

			event, err := order.Create(orderParams(), baseTime)
			require.NoError(t, err)
			require.Equal(t, domain.OrderStateOpen, order.State)
			require.Equal(t, uint64(1000), order.RemainingOffer())
			require.True(t, order.IsFillable(baseTime+1))
			require.False(t, order.IsFillable(baseTime+601))

			created, ok := event.(domain.OrderCreated)
			require.True(t, ok)
			require.Equal(t, orderID, created.OrderID)
			require.Equal(t, maker, created.Maker)
		})

		t.Run("invalid", func(t *testing.T) {
			mutate := func(fn func(*domain.OrderParams)) domain.OrderParams {
				params := orderParams()
				fn(&params)
				return params
			}
			fixtures := []struct {
				params      domain.OrderParams
				expectedErr string
			}{
				{
					params:      mutate(func(p *domain.OrderParams) { p.OrderID = "bad" }),
					expectedErr: "invalid order id",
				},
				{
					params:      mutate(func(p *domain.OrderParams) { p.Maker = "" }),
					expectedErr: "missing maker",
				},
				{
					params:      mutate(func(p *domain.OrderParams) { p.WantChain = "" }),
					expectedErr: "missing offer or want chain",
				},
				{
					params: mutate(func(p *domain.OrderParams) {
						p.WantChain = p.OfferChain
					}),
					expectedErr: "offer and want chain must differ",
				},
				{
					params:      mutate(func(p *domain.OrderParams) { p.OfferToken = "" }),
					expectedErr: "missing offer or want token",
				},
				{
					params:      mutate(func(p *domain.OrderParams) { p.OfferAmount = 0 }),
					expectedErr: "offer amount must be positive",
				},
				{
					params:      mutate(func(p *domain.OrderParams) { p.WantAmount = 0 }),
					expectedErr: "want amount must be positive",
				},
				{
					params: mutate(func(p *domain.OrderParams) {
						p.Deadline = baseTime
					}),
					expectedErr: "deadline must be in the future",
				},
				{
					params: mutate(func(p *domain.OrderParams) {
						p.MinReceive = p.WantAmount + 1
					}),
					expectedErr: fmt.Sprintf(
						"min receive %d exceeds want amount %d", 501, 500,
					),
				},
				{
					params: mutate(func(p *domain.OrderParams) {
						p.RelayerRewardBps = domain.MaxRelayerRewardBps + 1
					}),
					expectedErr: fmt.Sprintf(
						"relayer reward must not exceed %d bps", domain.MaxRelayerRewardBps,
					),
				},
			}

			for _, f := range fixtures {
				order := domain.NewSwapOrder()
				event, err := order.Create(f.params, baseTime)
				require.EqualError(t, err, f.expectedErr)
				require.Nil(t, event)
				require.Equal(t, domain.OrderStateUnspecified, order.State)
			}
		})
	})
}

func testTakeOrder(t *testing.T) {
	t.Run("take", func(t *testing.T) {
		t.Run("partial_fill", func(t *testing.T) {
			order := openOrder(t, orderParams())

			events, err := order.Take(taker, 400, baseTime+10)
			require.NoError(t, err)
			require.Len(t, events, 1)
			require.Equal(t, domain.OrderStateOpen, order.State)
			require.Equal(t, uint64(600), order.RemainingOffer())

			taken, ok := events[0].(domain.OrderTaken)
			require.True(t, ok)
			require.Equal(t, uint64(400), taken.FillAmount)
			require.Equal(t, uint64(200), taken.ExpectedReceive)
			require.Equal(t, uint64(400), taken.Filled)
		})

		t.Run("full_fill_matches", func(t *testing.T) {
			order := openOrder(t, orderParams())

			events, err := order.Take(taker, 400, baseTime+10)
			require.NoError(t, err)
			require.Len(t, events, 1)

			events, err = order.Take(taker, 600, baseTime+20)
			require.NoError(t, err)
			require.Len(t, events, 2)
			require.Equal(t, domain.OrderStateMatched, order.State)
			require.Equal(t, uint64(0), order.RemainingOffer())

			_, ok := events[0].(domain.OrderTaken)
			require.True(t, ok)
			matched, ok := events[1].(domain.OrderMatched)
			require.True(t, ok)
			require.Equal(t, orderID, matched.OrderID)
		})

		t.Run("expected_receive_floors", func(t *testing.T) {
			params := orderParams()
			params.OfferAmount = 3
			params.WantAmount = 10
			order := openOrder(t, params)

			// 1 * 10 / 3 floors to 3, the maker absorbs the dust
			require.Equal(t, uint64(3), order.ExpectedReceive(1))
			require.Equal(t, uint64(6), order.ExpectedReceive(2))
			require.Equal(t, uint64(10), order.ExpectedReceive(3))
		})

		t.Run("expected_receive_large_amounts", func(t *testing.T) {
			params := orderParams()
			params.OfferAmount = 1 << 32
			params.WantAmount = 1 << 33
			order := openOrder(t, params)

			require.Equal(t, uint64(8589934592), order.ExpectedReceive(1<<32))
			require.Equal(t, uint64(1)<<32, order.ExpectedReceive(1<<31))
		})

		t.Run("records_filler", func(t *testing.T) {
			order := openOrder(t, orderParams())

			_, err := order.Take(taker, 400, baseTime+10)
			require.NoError(t, err)
			require.Equal(t, taker, order.FilledBy)
			require.Equal(t, uint64(200), order.FilledWantAmount)
		})

		t.Run("min_receive_partial_then_complete", func(t *testing.T) {
			params := orderParams()
			params.MinReceive = 450
			order := openOrder(t, params)

			_, err := order.Take(taker, 900, baseTime+10)
			require.NoError(t, err)

			_, err = order.Take(taker, 100, baseTime+20)
			require.NoError(t, err)
			require.Equal(t, domain.OrderStateMatched, order.State)
			require.Equal(t, uint64(500), order.FilledWantAmount)
		})

		t.Run("min_receive_starved_by_dust", func(t *testing.T) {
			params := orderParams()
			params.WantAmount = 3
			params.MinReceive = 3
			order := openOrder(t, params)

			// the first two fills floor to 1 each, stranding the third unit
			_, err := order.Take(taker, 500, baseTime+10)
			require.NoError(t, err)
			_, err = order.Take(taker, 400, baseTime+20)
			require.NoError(t, err)

			_, err = order.Take(taker, 100, baseTime+30)
			require.EqualError(t, err, "cumulative receive 2 below order minimum 3")
			require.Equal(t, domain.OrderStateOpen, order.State)
		})

		t.Run("restricted_taker", func(t *testing.T) {
			params := orderParams()
			params.Taker = taker
			order := openOrder(t, params)

			_, err := order.Take("0xintruder", 100, baseTime+10)
			require.EqualError(t, err, fmt.Sprintf(
				"order %s is restricted to another taker", orderID,
			))

			_, err = order.Take(taker, 100, baseTime+10)
			require.NoError(t, err)
		})

		t.Run("invalid", func(t *testing.T) {
			fixtures := []struct {
				desc        string
				order       *domain.SwapOrder
				taker       string
				fill        uint64
				now         int64
				expectedErr string
			}{
				{
					desc:        "not found",
					order:       domain.NewSwapOrder(),
					taker:       taker,
					fill:        100,
					now:         baseTime + 10,
					expectedErr: "order  not found",
				},
				{
					desc:        "deadline passed",
					order:       openOrder(t, orderParams()),
					taker:       taker,
					fill:        100,
					now:         baseTime + 601,
					expectedErr: fmt.Sprintf("order %s deadline has passed", orderID),
				},
				{
					desc:        "missing taker",
					order:       openOrder(t, orderParams()),
					taker:       "",
					fill:        100,
					now:         baseTime + 10,
					expectedErr: "missing taker",
				},
				{
					desc:        "zero fill",
					order:       openOrder(t, orderParams()),
					taker:       taker,
					fill:        0,
					now:         baseTime + 10,
					expectedErr: "fill amount must be positive",
				},
				{
					desc:        "overfill",
					order:       openOrder(t, orderParams()),
					taker:       taker,
					fill:        1001,
					now:         baseTime + 10,
					expectedErr: "fill amount 1001 exceeds remaining offer 1000",
				},
				{
					desc:        "already matched",
					order:       matchedOrder(t, orderParams()),
					taker:       taker,
					fill:        100,
					now:         baseTime + 10,
					expectedErr: fmt.Sprintf("order %s is not open (MATCHED)", orderID),
				},
			}

			for _, f := range fixtures {
				events, err := f.order.Take(f.taker, f.fill, f.now)
				require.EqualError(t, err, f.expectedErr, f.desc)
				require.Empty(t, events)
			}
		})
	})
}

func testCancelOrder(t *testing.T) {
	t.Run("cancel", func(t *testing.T) {
		t.Run("valid", func(t *testing.T) {
			order := openOrder(t, orderParams())

			event, err := order.Cancel(maker, baseTime+10)
			require.NoError(t, err)
			require.Equal(t, domain.OrderStateCancelled, order.State)

			cancelled, ok := event.(domain.OrderCancelled)
			require.True(t, ok)
			require.Equal(t, orderID, cancelled.OrderID)
		})

		t.Run("invalid", func(t *testing.T) {
			t.Run("not_the_maker", func(t *testing.T) {
				order := openOrder(t, orderParams())
				_, err := order.Cancel(taker, baseTime+10)
				require.EqualError(t, err, fmt.Sprintf(
					"only the maker may cancel order %s", orderID,
				))
			})

			t.Run("partial_fill_in_flight", func(t *testing.T) {
				order := openOrder(t, orderParams())
				_, err := order.Take(taker, 100, baseTime+10)
				require.NoError(t, err)

				_, err = order.Cancel(maker, baseTime+20)
				require.EqualError(t, err, fmt.Sprintf(
					"order %s has a partial fill in flight", orderID,
				))
			})

			t.Run("already_matched", func(t *testing.T) {
				order := matchedOrder(t, orderParams())
				_, err := order.Cancel(maker, baseTime+20)
				require.EqualError(t, err, fmt.Sprintf(
					"order %s is not open (MATCHED)", orderID,
				))
			})
		})
	})
}

func testDelegateSettlement(t *testing.T) {
	t.Run("delegate_settlement", func(t *testing.T) {
		t.Run("valid", func(t *testing.T) {
			order := matchedOrder(t, orderParams())
			require.Empty(t, order.SettlementGroupID)

			event, err := order.DelegateSettlement(groupID, baseTime+20)
			require.NoError(t, err)
			require.Equal(t, groupID, order.SettlementGroupID)
			require.Equal(t, domain.OrderStateMatched, order.State)

			matched, ok := event.(domain.OrderMatched)
			require.True(t, ok)
			require.Equal(t, groupID, matched.SettlementGroupID)
		})

		t.Run("invalid", func(t *testing.T) {
			order := openOrder(t, orderParams())
			_, err := order.DelegateSettlement(groupID, baseTime+20)
			require.EqualError(t, err, fmt.Sprintf(
				"order %s is not fully matched (OPEN)", orderID,
			))

			order = matchedOrder(t, orderParams())
			_, err = order.DelegateSettlement("bad", baseTime+20)
			require.EqualError(t, err, "invalid settlement group id")

			_, err = order.DelegateSettlement(groupID, baseTime+20)
			require.NoError(t, err)
			_, err = order.DelegateSettlement(groupID, baseTime+30)
			require.EqualError(t, err, fmt.Sprintf(
				"order %s already delegated settlement", orderID,
			))
		})
	})
}

func testOrderLifecycleEnd(t *testing.T) {
	t.Run("executed", func(t *testing.T) {
		order := matchedOrder(t, orderParams())
		_, err := order.MarkExecuted(baseTime + 30)
		require.NoError(t, err)
		require.Equal(t, domain.OrderStateExecuted, order.State)

		_, err = order.MarkExecuted(baseTime + 40)
		require.EqualError(t, err, fmt.Sprintf(
			"order %s is not fully matched (EXECUTED)", orderID,
		))
	})

	t.Run("failed", func(t *testing.T) {
		order := matchedOrder(t, orderParams())
		_, err := order.MarkFailed("settlement leg reverted", baseTime+30)
		require.NoError(t, err)
		require.Equal(t, domain.OrderStateFailed, order.State)
		require.Equal(t, "settlement leg reverted", order.FailReason)

		_, err = order.MarkFailed("again", baseTime+40)
		require.EqualError(t, err, fmt.Sprintf(
			"order %s cannot fail in state FAILED", orderID,
		))

		order = openOrder(t, orderParams())
		_, err = order.MarkFailed("", baseTime+30)
		require.EqualError(t, err, "missing failure reason")
	})

	t.Run("expired", func(t *testing.T) {
		order := openOrder(t, orderParams())
		_, err := order.MarkExpired(baseTime + 10)
		require.EqualError(t, err, fmt.Sprintf(
			"order %s deadline has not passed yet", orderID,
		))

		_, err = order.MarkExpired(baseTime + 601)
		require.NoError(t, err)
		require.Equal(t, domain.OrderStateExpired, order.State)
	})

	t.Run("replay", func(t *testing.T) {
		order := matchedOrder(t, orderParams())
		_, err := order.DelegateSettlement(groupID, baseTime+20)
		require.NoError(t, err)
		_, err = order.MarkExecuted(baseTime + 30)
		require.NoError(t, err)

		replayed := domain.NewSwapOrderFromEvents(order.Events())
		require.Equal(t, order.OrderID, replayed.OrderID)
		require.Equal(t, order.State, replayed.State)
		require.Equal(t, order.FilledOfferAmount, replayed.FilledOfferAmount)
		require.Equal(t, order.SettlementGroupID, replayed.SettlementGroupID)
		require.Equal(t, uint(len(order.Events())), replayed.Version)
	})
}
