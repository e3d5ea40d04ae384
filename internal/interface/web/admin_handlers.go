package web

import (
	"encoding/json"
	"net/http"

	"github.com/tesseract-network/tesseractd/internal/core/domain"
)

type roleRequest struct {
	Role    string `json:"role"`
	Account string `json:"account"`
}

func (g *Gateway) handlePOSTGrantRole(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := g.buffer.GrantRole(
		r.Context(), caller(r), domain.RoleFromString(req.Role), req.Account,
	); err != nil {
		httpError(w, err)
		return
	}
}

func (g *Gateway) handlePOSTRevokeRole(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := g.buffer.RevokeRole(
		r.Context(), caller(r), domain.RoleFromString(req.Role), req.Account,
	); err != nil {
		httpError(w, err)
		return
	}
}

func (g *Gateway) handlePOSTTransferOwnership(w http.ResponseWriter, r *http.Request) {
	var req struct {
		NewOwner string `json:"new_owner"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := g.buffer.TransferOwnership(r.Context(), caller(r), req.NewOwner); err != nil {
		httpError(w, err)
		return
	}
}

func (g *Gateway) handlePOSTSetEmergencyAdmin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Admin string `json:"admin"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := g.buffer.SetEmergencyAdmin(r.Context(), caller(r), req.Admin); err != nil {
		httpError(w, err)
		return
	}
}

func (g *Gateway) handlePOSTPause(w http.ResponseWriter, r *http.Request) {
	if err := g.buffer.EmergencyPause(r.Context(), caller(r)); err != nil {
		httpError(w, err)
		return
	}
}

func (g *Gateway) handlePOSTUnpause(w http.ResponseWriter, r *http.Request) {
	if err := g.buffer.EmergencyUnpause(r.Context(), caller(r)); err != nil {
		httpError(w, err)
		return
	}
}

func (g *Gateway) handlePOSTResetBreaker(w http.ResponseWriter, r *http.Request) {
	if err := g.buffer.ResetCircuitBreaker(r.Context(), caller(r)); err != nil {
		httpError(w, err)
		return
	}
}

func (g *Gateway) handlePUTBreakerThreshold(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Threshold uint64 `json:"threshold"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := g.buffer.SetCircuitBreakerThreshold(
		r.Context(), caller(r), req.Threshold,
	); err != nil {
		httpError(w, err)
		return
	}
}

func (g *Gateway) handlePUTCoordinationWindow(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Window int64 `json:"window"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := g.buffer.SetCoordinationWindow(r.Context(), caller(r), req.Window); err != nil {
		httpError(w, err)
		return
	}
}

func (g *Gateway) handlePUTMaxPayloadSize(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Size int `json:"size"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := g.buffer.SetMaxPayloadSize(r.Context(), caller(r), req.Size); err != nil {
		httpError(w, err)
		return
	}
}

func (g *Gateway) handleGETStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	owner, err := g.buffer.Owner(ctx)
	if err != nil {
		httpError(w, err)
		return
	}
	emergencyAdmin, err := g.buffer.EmergencyAdmin(ctx)
	if err != nil {
		httpError(w, err)
		return
	}
	paused, err := g.buffer.Paused(ctx)
	if err != nil {
		httpError(w, err)
		return
	}
	breakerActive, err := g.buffer.CircuitBreakerActive(ctx)
	if err != nil {
		httpError(w, err)
		return
	}
	threshold, err := g.buffer.CircuitBreakerThreshold(ctx)
	if err != nil {
		httpError(w, err)
		return
	}
	window, err := g.buffer.CoordinationWindow(ctx)
	if err != nil {
		httpError(w, err)
		return
	}
	maxPayloadSize, err := g.buffer.MaxPayloadSize(ctx)
	if err != nil {
		httpError(w, err)
		return
	}
	txCount, err := g.buffer.TransactionCount(ctx)
	if err != nil {
		httpError(w, err)
		return
	}
	failures, err := g.buffer.FailureCount(ctx)
	if err != nil {
		httpError(w, err)
		return
	}

	jsonResponse(w, map[string]interface{}{
		"owner":                     owner,
		"emergency_admin":           emergencyAdmin,
		"paused":                    paused,
		"circuit_breaker_active":    breakerActive,
		"circuit_breaker_threshold": threshold,
		"coordination_window":       window,
		"max_payload_size":          maxPayloadSize,
		"transaction_count":         txCount,
		"failure_count":             failures,
	})
}
