package web

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/tesseract-network/tesseractd/internal/core/domain"
)

type createOrderRequest struct {
	OrderID          string `json:"order_id"`
	OfferChain       string `json:"offer_chain"`
	OfferToken       string `json:"offer_token"`
	OfferAmount      uint64 `json:"offer_amount"`
	WantChain        string `json:"want_chain"`
	WantToken        string `json:"want_token"`
	WantAmount       uint64 `json:"want_amount"`
	MinReceive       uint64 `json:"min_receive"`
	Deadline         int64  `json:"deadline"`
	RelayerRewardBps uint64 `json:"relayer_reward_bps"`
	Taker            string `json:"taker"`
}

type orderResponse struct {
	OrderID           string `json:"order_id"`
	State             string `json:"state"`
	Maker             string `json:"maker,omitempty"`
	OfferChain        string `json:"offer_chain,omitempty"`
	OfferToken        string `json:"offer_token,omitempty"`
	OfferAmount       uint64 `json:"offer_amount,omitempty"`
	WantChain         string `json:"want_chain,omitempty"`
	WantToken         string `json:"want_token,omitempty"`
	WantAmount        uint64 `json:"want_amount,omitempty"`
	MinReceive        uint64 `json:"min_receive,omitempty"`
	Deadline          int64  `json:"deadline,omitempty"`
	RelayerRewardBps  uint64 `json:"relayer_reward_bps,omitempty"`
	Taker             string `json:"taker,omitempty"`
	FilledOfferAmount uint64 `json:"filled_offer_amount"`
	RemainingOffer    uint64 `json:"remaining_offer"`
	SettlementGroupID string `json:"settlement_group_id,omitempty"`
	FailReason        string `json:"fail_reason,omitempty"`
}

func newOrderResponse(order *domain.SwapOrder) orderResponse {
	return orderResponse{
		OrderID:           order.OrderID,
		State:             order.State.String(),
		Maker:             order.Maker,
		OfferChain:        order.OfferChain,
		OfferToken:        order.OfferToken,
		OfferAmount:       order.OfferAmount,
		WantChain:         order.WantChain,
		WantToken:         order.WantToken,
		WantAmount:        order.WantAmount,
		MinReceive:        order.MinReceive,
		Deadline:          order.Deadline,
		RelayerRewardBps:  order.RelayerRewardBps,
		Taker:             order.Taker,
		FilledOfferAmount: order.FilledOfferAmount,
		RemainingOffer:    order.RemainingOffer(),
		SettlementGroupID: order.SettlementGroupID,
		FailReason:        order.FailReason,
	}
}

func (g *Gateway) handlePOSTCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	params := domain.OrderParams{
		OrderID:          req.OrderID,
		Maker:            caller(r),
		OfferChain:       req.OfferChain,
		OfferToken:       req.OfferToken,
		OfferAmount:      req.OfferAmount,
		WantChain:        req.WantChain,
		WantToken:        req.WantToken,
		WantAmount:       req.WantAmount,
		MinReceive:       req.MinReceive,
		Deadline:         req.Deadline,
		RelayerRewardBps: req.RelayerRewardBps,
		Taker:            req.Taker,
	}
	if err := g.coordinator.CreateSwapOrder(r.Context(), caller(r), params); err != nil {
		httpError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (g *Gateway) handlePOSTTakeOrder(w http.ResponseWriter, r *http.Request) {
	orderID := mux.Vars(r)["orderID"]

	var req struct {
		FillAmount uint64 `json:"fill_amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	expected, err := g.coordinator.TakeSwapOrder(
		r.Context(), caller(r), orderID, req.FillAmount,
	)
	if err != nil {
		httpError(w, err)
		return
	}
	jsonResponse(w, map[string]uint64{"expected_receive": expected})
}

func (g *Gateway) handlePOSTCancelOrder(w http.ResponseWriter, r *http.Request) {
	orderID := mux.Vars(r)["orderID"]

	if err := g.coordinator.CancelSwapOrder(r.Context(), caller(r), orderID); err != nil {
		httpError(w, err)
		return
	}
}

func (g *Gateway) handlePOSTExecuteOrder(w http.ResponseWriter, r *http.Request) {
	orderID := mux.Vars(r)["orderID"]

	if err := g.coordinator.MarkOrderExecuted(r.Context(), caller(r), orderID); err != nil {
		httpError(w, err)
		return
	}
}

func (g *Gateway) handlePOSTFailOrder(w http.ResponseWriter, r *http.Request) {
	orderID := mux.Vars(r)["orderID"]

	var req struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := g.coordinator.MarkOrderFailed(
		r.Context(), caller(r), orderID, req.Reason,
	); err != nil {
		httpError(w, err)
		return
	}
}

func (g *Gateway) handlePOSTExpireOrder(w http.ResponseWriter, r *http.Request) {
	orderID := mux.Vars(r)["orderID"]

	if err := g.coordinator.MarkOrderExpired(r.Context(), caller(r), orderID); err != nil {
		httpError(w, err)
		return
	}
}

func (g *Gateway) handleGETOrder(w http.ResponseWriter, r *http.Request) {
	orderID := mux.Vars(r)["orderID"]

	order, err := g.coordinator.GetOrder(r.Context(), orderID)
	if err != nil {
		httpError(w, err)
		return
	}
	jsonResponse(w, newOrderResponse(order))
}

func (g *Gateway) handleGETQuote(w http.ResponseWriter, r *http.Request) {
	orderID := mux.Vars(r)["orderID"]

	fillAmount, err := strconv.ParseUint(r.URL.Query().Get("fill_amount"), 10, 64)
	if err != nil {
		http.Error(w, "invalid fill_amount", http.StatusBadRequest)
		return
	}

	expected, err := g.coordinator.CalculateExpectedReceive(
		r.Context(), orderID, fillAmount,
	)
	if err != nil {
		httpError(w, err)
		return
	}
	jsonResponse(w, map[string]uint64{"expected_receive": expected})
}

func (g *Gateway) handleGETFeePreview(w http.ResponseWriter, r *http.Request) {
	account := r.URL.Query().Get("account")
	amount, err := strconv.ParseUint(r.URL.Query().Get("amount"), 10, 64)
	if err != nil {
		http.Error(w, "invalid amount", http.StatusBadRequest)
		return
	}

	fee, discounted, err := g.coordinator.CalculateFeePreview(r.Context(), account, amount)
	if err != nil {
		httpError(w, err)
		return
	}
	jsonResponse(w, map[string]interface{}{
		"fee":        fee,
		"discounted": discounted,
	})
}

func (g *Gateway) handleGETFees(w http.ResponseWriter, r *http.Request) {
	bps, err := g.coordinator.ProtocolFeeBps(r.Context())
	if err != nil {
		httpError(w, err)
		return
	}
	jsonResponse(w, map[string]uint64{"protocol_fee_bps": bps})
}

func (g *Gateway) handlePUTFees(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Bps uint64 `json:"bps"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := g.coordinator.SetProtocolFee(r.Context(), caller(r), req.Bps); err != nil {
		httpError(w, err)
		return
	}
}
