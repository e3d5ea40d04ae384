package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"github.com/tesseract-network/tesseractd/internal/core/application"
	"github.com/tesseract-network/tesseractd/internal/core/domain"
	manualclock "github.com/tesseract-network/tesseractd/internal/infrastructure/chain-clock/manual"
	"github.com/tesseract-network/tesseractd/internal/infrastructure/db"
	timescheduler "github.com/tesseract-network/tesseractd/internal/infrastructure/scheduler/gocron"
	staticoracle "github.com/tesseract-network/tesseractd/internal/infrastructure/stake-oracle/static"
	"github.com/tesseract-network/tesseractd/internal/interface/web"
)

var (
	owner      = "0xowner"
	sequencer  = "0xsequencer"
	relayer    = "0xrelayer"
	settlement = "0xsettlement"
	maker      = "0xmaker"
	taker      = "0xtaker"

	txid    = "1111111111111111111111111111111111111111111111111111111111111111"
	orderID = "4444444444444444444444444444444444444444444444444444444444444444"

	baseTime   = int64(1700000000)
	baseHeight = uint64(100)
)

type gatewayEnv struct {
	gateway *web.Gateway
	clock   *manualclock.Clock
}

func newGatewayEnv(t *testing.T) *gatewayEnv {
	repos, err := db.NewService(db.ServiceConfig{
		EventStoreType:   "badger",
		DataStoreType:    "badger",
		EventStoreConfig: []interface{}{"", nil},
		DataStoreConfig:  []interface{}{"", nil},
	})
	require.NoError(t, err)
	t.Cleanup(repos.Close)

	clock := manualclock.NewChainClock(baseTime, baseHeight)
	buffer, err := application.NewBufferService(
		repos, clock, timescheduler.NewScheduler(), owner,
	)
	require.NoError(t, err)
	t.Cleanup(buffer.Stop)

	ctx := context.Background()
	require.NoError(t, buffer.GrantRole(ctx, owner, domain.RoleBuffer, sequencer))
	require.NoError(t, buffer.GrantRole(ctx, owner, domain.RoleBuffer, settlement))
	require.NoError(t, buffer.GrantRole(ctx, owner, domain.RoleResolve, relayer))

	coordinator := application.NewCoordinatorService(
		repos, clock, staticoracle.NewStakeOracle(nil), buffer, settlement,
	)

	return &gatewayEnv{
		gateway: web.NewGateway(buffer, coordinator, "127.0.0.1:0"),
		clock:   clock,
	}
}

func (e *gatewayEnv) do(
	t *testing.T, method, path, as string, body interface{},
) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if len(as) > 0 {
		req.Header.Set("X-Tesseract-Caller", as)
	}
	w := httptest.NewRecorder()
	e.gateway.Handler().ServeHTTP(w, req)
	return w
}

func TestGateway(t *testing.T) {
	t.Run("transaction_lifecycle", func(t *testing.T) {
		env := newGatewayEnv(t)

		w := env.do(t, "POST", "/v1/transactions", sequencer, map[string]interface{}{
			"tx_id":            txid,
			"origin":           "rollup-a",
			"target":           "rollup-b",
			"payload":          []byte(`{"call":"transfer"}`),
			"target_timestamp": baseTime + 100,
		})
		require.Equal(t, http.StatusCreated, w.Code)

		w = env.do(t, "GET", "/v1/transactions/"+txid, "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var tx map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tx))
		require.Equal(t, "BUFFERED", tx["state"])

		env.clock.SetNow(baseTime + 100)
		env.clock.AdvanceHeight(domain.MinResolutionDelay)
		w = env.do(t, "POST", fmt.Sprintf("/v1/transactions/%s/resolve", txid), relayer, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var resolved map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resolved))
		require.Equal(t, "READY", resolved["state"])

		w = env.do(t, "POST", fmt.Sprintf("/v1/transactions/%s/execute", txid), relayer, nil)
		require.Equal(t, http.StatusOK, w.Code)

		w = env.do(t, "GET", "/v1/transactions/"+txid, "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tx))
		require.Equal(t, "EXECUTED", tx["state"])
	})

	t.Run("error_mapping", func(t *testing.T) {
		env := newGatewayEnv(t)

		// missing role
		w := env.do(t, "POST", "/v1/transactions", taker, map[string]interface{}{
			"tx_id":            txid,
			"origin":           "rollup-a",
			"target":           "rollup-b",
			"payload":          []byte("x"),
			"target_timestamp": baseTime + 100,
		})
		require.Equal(t, http.StatusForbidden, w.Code)

		// malformed input
		w = env.do(t, "POST", "/v1/transactions", sequencer, map[string]interface{}{
			"tx_id":            "not-hex",
			"origin":           "rollup-a",
			"target":           "rollup-b",
			"payload":          []byte("x"),
			"target_timestamp": baseTime + 100,
		})
		require.Equal(t, http.StatusBadRequest, w.Code)

		// resolving before the window opens is a conflict class error
		w = env.do(t, "POST", "/v1/transactions", sequencer, map[string]interface{}{
			"tx_id":            txid,
			"origin":           "rollup-a",
			"target":           "rollup-b",
			"payload":          []byte("x"),
			"target_timestamp": baseTime + 100,
		})
		require.Equal(t, http.StatusCreated, w.Code)
		env.clock.AdvanceHeight(domain.MinResolutionDelay)
		w = env.do(t, "POST", fmt.Sprintf("/v1/transactions/%s/resolve", txid), relayer, nil)
		require.Equal(t, http.StatusConflict, w.Code)

		// paused surfaces as unavailable
		w = env.do(t, "POST", "/v1/admin/pause", owner, nil)
		require.Equal(t, http.StatusOK, w.Code)
		w = env.do(t, "POST", fmt.Sprintf("/v1/transactions/%s/resolve", txid), relayer, nil)
		require.Equal(t, http.StatusServiceUnavailable, w.Code)
		w = env.do(t, "POST", "/v1/admin/unpause", owner, nil)
		require.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("order_endpoints", func(t *testing.T) {
		env := newGatewayEnv(t)

		w := env.do(t, "POST", "/v1/orders", maker, map[string]interface{}{
			"order_id":     orderID,
			"offer_chain":  "rollup-a",
			"offer_token":  "USDC",
			"offer_amount": 1000,
			"want_chain":   "rollup-b",
			"want_token":   "WETH",
			"want_amount":  500,
			"deadline":     baseTime + 600,
		})
		require.Equal(t, http.StatusCreated, w.Code)

		w = env.do(t, "GET", fmt.Sprintf("/v1/orders/%s/quote?fill_amount=400", orderID), "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var quote map[string]uint64
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &quote))
		require.Equal(t, uint64(200), quote["expected_receive"])

		w = env.do(t, "POST", fmt.Sprintf("/v1/orders/%s/take", orderID), taker, map[string]interface{}{
			"fill_amount": 400,
		})
		require.Equal(t, http.StatusOK, w.Code)

		w = env.do(t, "GET", "/v1/orders/"+orderID, "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var order map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &order))
		require.Equal(t, "OPEN", order["state"])
		require.Equal(t, float64(600), order["remaining_offer"])

		// only the maker cancels, and not with a fill in flight
		w = env.do(t, "POST", fmt.Sprintf("/v1/orders/%s/cancel", orderID), taker, nil)
		require.Equal(t, http.StatusForbidden, w.Code)
		w = env.do(t, "POST", fmt.Sprintf("/v1/orders/%s/cancel", orderID), maker, nil)
		require.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("event_feed_carries_order_events", func(t *testing.T) {
		env := newGatewayEnv(t)
		srv := httptest.NewServer(env.gateway.Handler())
		t.Cleanup(srv.Close)

		wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/events"
		conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
		require.NoError(t, err)
		t.Cleanup(func() { conn.Close() })

		// give the hub a beat to register the subscriber
		time.Sleep(100 * time.Millisecond)

		w := env.do(t, "POST", "/v1/orders", maker, map[string]interface{}{
			"order_id":     orderID,
			"offer_chain":  "rollup-a",
			"offer_token":  "USDC",
			"offer_amount": 1000,
			"want_chain":   "rollup-b",
			"want_token":   "WETH",
			"want_amount":  500,
			"deadline":     baseTime + 600,
		})
		require.Equal(t, http.StatusCreated, w.Code)

		// earlier role-grant frames may still be in flight, skip to the
		// order topic
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		for {
			_, buf, err := conn.ReadMessage()
			require.NoError(t, err)

			var frame struct {
				Topic string `json:"topic"`
				Event struct {
					OrderID string `json:"OrderID"`
				} `json:"event"`
			}
			require.NoError(t, json.Unmarshal(buf, &frame))
			if frame.Topic != domain.OrderTopic {
				continue
			}
			require.Equal(t, orderID, frame.Event.OrderID)
			break
		}
	})

	t.Run("status_and_fees", func(t *testing.T) {
		env := newGatewayEnv(t)

		w := env.do(t, "GET", "/v1/status", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var status map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
		require.Equal(t, owner, status["owner"])
		require.Equal(t, false, status["paused"])

		w = env.do(t, "GET", "/v1/fees", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var fees map[string]uint64
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fees))
		require.Equal(t, domain.DefaultProtocolFeeBps, fees["protocol_fee_bps"])

		w = env.do(t, "PUT", "/v1/fees", taker, map[string]uint64{"bps": 25})
		require.Equal(t, http.StatusForbidden, w.Code)
		w = env.do(t, "PUT", "/v1/fees", owner, map[string]uint64{"bps": 25})
		require.Equal(t, http.StatusOK, w.Code)

		w = env.do(t, "PUT", "/v1/admin/coordination-window", owner, map[string]int64{"window": 60})
		require.Equal(t, http.StatusOK, w.Code)
		w = env.do(t, "GET", "/v1/status", "", nil)
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
		require.Equal(t, float64(60), status["coordination_window"])
	})
}
