package e2e_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

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
	alice      = "0xalice"
	bob        = "0xbob"

	orderID = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	txid    = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"

	baseTime   = int64(1700000000)
	baseHeight = uint64(100)
)

type harness struct {
	server *httptest.Server
	clock  *manualclock.Clock
}

func newHarness(t *testing.T) *harness {
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

	gateway := web.NewGateway(buffer, coordinator, "127.0.0.1:0")
	server := httptest.NewServer(gateway.Handler())
	t.Cleanup(server.Close)

	return &harness{server: server, clock: clock}
}

func (h *harness) request(
	t *testing.T, method, path, as string, body interface{},
) (int, []byte) {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, h.server.URL+path, &buf)
	require.NoError(t, err)
	if len(as) > 0 {
		req.Header.Set("X-Tesseract-Caller", as)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, out
}

func (h *harness) getJSON(t *testing.T, path string) map[string]interface{} {
	code, body := h.request(t, "GET", path, "", nil)
	require.Equal(t, http.StatusOK, code)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

// TestAtomicSwap walks a full cross-chain swap through the gateway: the
// maker opens an order, the taker fills it, the coordinator buffers the
// two settlement legs, the relayer resolves both once their window opens
// and finally marks the order executed.
func TestAtomicSwap(t *testing.T) {
	h := newHarness(t)

	code, _ := h.request(t, "POST", "/v1/orders", alice, map[string]interface{}{
		"order_id":     orderID,
		"offer_chain":  "rollup-a",
		"offer_token":  "USDC",
		"offer_amount": 1000,
		"want_chain":   "rollup-b",
		"want_token":   "WETH",
		"want_amount":  500,
		"deadline":     baseTime + 600,
	})
	require.Equal(t, http.StatusCreated, code)

	code, body := h.request(
		t, "POST", fmt.Sprintf("/v1/orders/%s/take", orderID), bob,
		map[string]uint64{"fill_amount": 1000},
	)
	require.Equal(t, http.StatusOK, code)
	var taken map[string]uint64
	require.NoError(t, json.Unmarshal(body, &taken))
	require.Equal(t, uint64(500), taken["expected_receive"])

	order := h.getJSON(t, "/v1/orders/"+orderID)
	require.Equal(t, "MATCHED", order["state"])
	groupID, ok := order["settlement_group_id"].(string)
	require.True(t, ok)
	require.NotEmpty(t, groupID)

	group := h.getJSON(t, "/v1/groups/"+groupID)
	require.Equal(t, float64(2), group["total"])
	require.Equal(t, float64(0), group["ready_count"])

	// executing before the legs are ready must be rejected
	code, _ = h.request(
		t, "POST", fmt.Sprintf("/v1/orders/%s/execute", orderID), relayer, nil,
	)
	require.Equal(t, http.StatusConflict, code)

	// find the two settlement legs through the group's transactions and
	// resolve them once the ledger reaches their target time
	legIDs := settlementLegIDs(t, h, groupID)
	require.Len(t, legIDs, 2)

	for _, legID := range legIDs {
		leg := h.getJSON(t, "/v1/transactions/"+legID)
		h.clock.SetNow(int64(leg["target_timestamp"].(float64)))
		h.clock.AdvanceHeight(domain.MinResolutionDelay)

		code, body = h.request(
			t, "POST", fmt.Sprintf("/v1/transactions/%s/resolve", legID), relayer, nil,
		)
		require.Equal(t, http.StatusOK, code)
		var resolved map[string]string
		require.NoError(t, json.Unmarshal(body, &resolved))
		require.Equal(t, "READY", resolved["state"])
	}

	group = h.getJSON(t, "/v1/groups/"+groupID)
	require.Equal(t, true, group["all_ready"])

	code, _ = h.request(
		t, "POST", fmt.Sprintf("/v1/orders/%s/execute", orderID), relayer, nil,
	)
	require.Equal(t, http.StatusOK, code)

	order = h.getJSON(t, "/v1/orders/"+orderID)
	require.Equal(t, "EXECUTED", order["state"])
}

// TestCommitReveal buffers a commitment-mode transaction, reveals the
// payload, resolves and executes it through the gateway.
func TestCommitReveal(t *testing.T) {
	h := newHarness(t)

	payload := []byte(`{"call":"transfer","amount":100}`)
	secret := []byte("s3cret")

	code, _ := h.request(t, "POST", "/v1/transactions/commitment", sequencer, map[string]interface{}{
		"tx_id":            txid,
		"origin":           "rollup-a",
		"target":           "rollup-b",
		"commitment_hash":  domain.CommitmentDigest(payload, secret),
		"refund_recipient": alice,
		"target_timestamp": baseTime + 100,
	})
	require.Equal(t, http.StatusCreated, code)

	// a wrong secret must not reveal
	code, _ = h.request(
		t, "POST", fmt.Sprintf("/v1/transactions/%s/reveal", txid), sequencer,
		map[string]interface{}{"payload": payload, "secret": []byte("wrong")},
	)
	require.Equal(t, http.StatusUnprocessableEntity, code)

	code, _ = h.request(
		t, "POST", fmt.Sprintf("/v1/transactions/%s/reveal", txid), sequencer,
		map[string]interface{}{"payload": payload, "secret": secret},
	)
	require.Equal(t, http.StatusOK, code)

	h.clock.SetNow(baseTime + 100)
	h.clock.AdvanceHeight(domain.MinResolutionDelay)
	code, _ = h.request(
		t, "POST", fmt.Sprintf("/v1/transactions/%s/resolve", txid), relayer, nil,
	)
	require.Equal(t, http.StatusOK, code)

	code, _ = h.request(
		t, "POST", fmt.Sprintf("/v1/transactions/%s/execute", txid), relayer, nil,
	)
	require.Equal(t, http.StatusOK, code)

	tx := h.getJSON(t, "/v1/transactions/"+txid)
	require.Equal(t, "EXECUTED", tx["state"])
	require.Equal(t, true, tx["revealed"])
}

// TestExpiryRefund lets a commitment transaction miss its window and
// checks the refund path end to end.
func TestExpiryRefund(t *testing.T) {
	h := newHarness(t)

	code, _ := h.request(t, "POST", "/v1/transactions/commitment", sequencer, map[string]interface{}{
		"tx_id":            txid,
		"origin":           "rollup-a",
		"target":           "rollup-b",
		"commitment_hash":  domain.CommitmentDigest([]byte("payload"), []byte("secret")),
		"refund_recipient": alice,
		"target_timestamp": baseTime + 100,
	})
	require.Equal(t, http.StatusCreated, code)

	window := int64(domain.DefaultCoordinationWindow)
	h.clock.SetNow(baseTime + 100 + window + 1)
	h.clock.AdvanceHeight(domain.MinResolutionDelay)

	code, body := h.request(
		t, "POST", fmt.Sprintf("/v1/transactions/%s/resolve", txid), relayer, nil,
	)
	require.Equal(t, http.StatusOK, code)
	var resolved map[string]string
	require.NoError(t, json.Unmarshal(body, &resolved))
	require.Equal(t, "EXPIRED", resolved["state"])

	// only the refund recipient can claim
	code, _ = h.request(
		t, "POST", fmt.Sprintf("/v1/transactions/%s/refund", txid), bob, nil,
	)
	require.Equal(t, http.StatusForbidden, code)

	code, _ = h.request(
		t, "POST", fmt.Sprintf("/v1/transactions/%s/refund", txid), alice, nil,
	)
	require.Equal(t, http.StatusOK, code)

	tx := h.getJSON(t, "/v1/transactions/"+txid)
	require.Equal(t, "REFUNDED", tx["state"])
}

func settlementLegIDs(t *testing.T, h *harness, groupID string) []string {
	legIDs := make([]string, 0, 2)
	for _, suffix := range []string{"leg-maker", "leg-taker"} {
		legID := application.DeriveSettlementID(orderID, suffix)
		tx := h.getJSON(t, "/v1/transactions/"+legID)
		require.Equal(t, groupID, tx["swap_group_id"])
		legIDs = append(legIDs, legID)
	}
	return legIDs
}
