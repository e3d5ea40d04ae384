package web

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/tesseract-network/tesseractd/internal/core/domain"
)

type bufferTransactionRequest struct {
	TxID            string `json:"tx_id"`
	Origin          string `json:"origin"`
	Target          string `json:"target"`
	Payload         []byte `json:"payload"`
	DependencyTxID  string `json:"dependency_tx_id"`
	TargetTimestamp int64  `json:"target_timestamp"`
}

type bufferCommitmentRequest struct {
	TxID            string `json:"tx_id"`
	Origin          string `json:"origin"`
	Target          string `json:"target"`
	CommitmentHash  string `json:"commitment_hash"`
	RefundRecipient string `json:"refund_recipient"`
	DependencyTxID  string `json:"dependency_tx_id"`
	TargetTimestamp int64  `json:"target_timestamp"`
	SwapGroupID     string `json:"swap_group_id"`
}

type transactionResponse struct {
	TxID             string `json:"tx_id"`
	State            string `json:"state"`
	Origin           string `json:"origin,omitempty"`
	Target           string `json:"target,omitempty"`
	Payload          []byte `json:"payload,omitempty"`
	CommitmentHash   string `json:"commitment_hash,omitempty"`
	RefundRecipient  string `json:"refund_recipient,omitempty"`
	Revealed         bool   `json:"revealed,omitempty"`
	DependencyTxID   string `json:"dependency_tx_id,omitempty"`
	SwapGroupID      string `json:"swap_group_id,omitempty"`
	TargetTimestamp  int64  `json:"target_timestamp,omitempty"`
	BufferedAtHeight uint64 `json:"buffered_at_height,omitempty"`
	FailReason       string `json:"fail_reason,omitempty"`
	Ready            bool   `json:"ready"`
}

func newTransactionResponse(tx *domain.Transaction) transactionResponse {
	resp := transactionResponse{
		TxID:             tx.TxID,
		State:            tx.State.String(),
		Origin:           tx.Origin,
		Target:           tx.Target,
		Payload:          tx.Payload,
		Revealed:         tx.Revealed,
		DependencyTxID:   tx.DependencyTxID,
		SwapGroupID:      tx.SwapGroupID,
		TargetTimestamp:  tx.TargetTimestamp,
		BufferedAtHeight: tx.BufferedAtHeight,
		FailReason:       tx.FailReason,
		Ready:            tx.IsReady(),
	}
	if tx.Commitment != nil {
		resp.CommitmentHash = tx.Commitment.Hash
		resp.RefundRecipient = tx.Commitment.RefundRecipient
	}
	return resp
}

func (g *Gateway) handlePOSTBufferTransaction(w http.ResponseWriter, r *http.Request) {
	var req bufferTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := g.buffer.BufferTransaction(
		r.Context(), caller(r), req.TxID, req.Origin, req.Target,
		req.Payload, req.DependencyTxID, req.TargetTimestamp,
	); err != nil {
		httpError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (g *Gateway) handlePOSTBufferCommitment(w http.ResponseWriter, r *http.Request) {
	var req bufferCommitmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := g.buffer.BufferTransactionWithCommitment(
		r.Context(), caller(r), req.TxID, req.Origin, req.Target,
		req.CommitmentHash, req.DependencyTxID, req.TargetTimestamp,
		req.SwapGroupID, req.RefundRecipient,
	); err != nil {
		httpError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (g *Gateway) handlePOSTResolve(w http.ResponseWriter, r *http.Request) {
	txID := mux.Vars(r)["txID"]

	state, err := g.buffer.ResolveDependency(r.Context(), caller(r), txID)
	if err != nil {
		httpError(w, err)
		return
	}
	jsonResponse(w, map[string]string{"state": state.String()})
}

func (g *Gateway) handlePOSTReveal(w http.ResponseWriter, r *http.Request) {
	txID := mux.Vars(r)["txID"]

	var req struct {
		Payload []byte `json:"payload"`
		Secret  []byte `json:"secret"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := g.buffer.RevealTransaction(
		r.Context(), caller(r), txID, req.Payload, req.Secret,
	); err != nil {
		httpError(w, err)
		return
	}
}

func (g *Gateway) handlePOSTAddToGroup(w http.ResponseWriter, r *http.Request) {
	txID := mux.Vars(r)["txID"]

	var req struct {
		SwapGroupID string `json:"swap_group_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := g.buffer.AddToSwapGroup(
		r.Context(), caller(r), txID, req.SwapGroupID,
	); err != nil {
		httpError(w, err)
		return
	}
}

func (g *Gateway) handlePOSTExecuteTransaction(w http.ResponseWriter, r *http.Request) {
	txID := mux.Vars(r)["txID"]

	if err := g.buffer.MarkTransactionExecuted(r.Context(), caller(r), txID); err != nil {
		httpError(w, err)
		return
	}
}

func (g *Gateway) handlePOSTFailTransaction(w http.ResponseWriter, r *http.Request) {
	txID := mux.Vars(r)["txID"]

	var req struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := g.buffer.MarkTransactionFailed(
		r.Context(), caller(r), txID, req.Reason,
	); err != nil {
		httpError(w, err)
		return
	}
}

func (g *Gateway) handlePOSTClaimRefund(w http.ResponseWriter, r *http.Request) {
	txID := mux.Vars(r)["txID"]

	if err := g.buffer.ClaimRefund(r.Context(), caller(r), txID); err != nil {
		httpError(w, err)
		return
	}
}

func (g *Gateway) handleGETTransaction(w http.ResponseWriter, r *http.Request) {
	txID := mux.Vars(r)["txID"]

	tx, err := g.buffer.GetTransaction(r.Context(), txID)
	if err != nil {
		httpError(w, err)
		return
	}
	jsonResponse(w, newTransactionResponse(tx))
}

func (g *Gateway) handleGETSwapGroup(w http.ResponseWriter, r *http.Request) {
	groupID := mux.Vars(r)["groupID"]

	status, err := g.buffer.GetSwapGroupStatus(r.Context(), groupID)
	if err != nil {
		httpError(w, err)
		return
	}
	jsonResponse(w, map[string]interface{}{
		"total":       status.Total,
		"ready_count": status.ReadyCount,
		"all_ready":   status.AllReady,
	})
}
