package web

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"github.com/tesseract-network/tesseractd/internal/core/application"
	"github.com/tesseract-network/tesseractd/internal/core/domain"
)

// callerHeader carries the account the request acts as. A host ledger
// authenticates message senders; the gateway trusts its deployment
// perimeter for that and only transports the identity.
const callerHeader = "X-Tesseract-Caller"

// Gateway is the HTTP/JSON front of the buffer and coordinator services,
// plus a websocket feed of domain events.
type Gateway struct {
	buffer      application.BufferService
	coordinator application.CoordinatorService
	hub         *hub
	server      *http.Server
}

func NewGateway(
	buffer application.BufferService,
	coordinator application.CoordinatorService,
	addr string,
) *Gateway {
	g := &Gateway{
		buffer:      buffer,
		coordinator: coordinator,
		hub:         newHub(),
	}
	g.server = &http.Server{
		Addr:    addr,
		Handler: g.newV1Router(),
	}

	go g.hub.run()
	go g.pumpEvents(buffer.GetEventsChannel())
	go g.pumpEvents(coordinator.GetEventsChannel())

	return g
}

func (g *Gateway) newV1Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/v1/transactions", g.handlePOSTBufferTransaction).Methods("POST")
	r.HandleFunc("/v1/transactions/commitment", g.handlePOSTBufferCommitment).Methods("POST")
	r.HandleFunc("/v1/transactions/{txID}/resolve", g.handlePOSTResolve).Methods("POST")
	r.HandleFunc("/v1/transactions/{txID}/reveal", g.handlePOSTReveal).Methods("POST")
	r.HandleFunc("/v1/transactions/{txID}/group", g.handlePOSTAddToGroup).Methods("POST")
	r.HandleFunc("/v1/transactions/{txID}/execute", g.handlePOSTExecuteTransaction).Methods("POST")
	r.HandleFunc("/v1/transactions/{txID}/fail", g.handlePOSTFailTransaction).Methods("POST")
	r.HandleFunc("/v1/transactions/{txID}/refund", g.handlePOSTClaimRefund).Methods("POST")
	r.HandleFunc("/v1/transactions/{txID}", g.handleGETTransaction).Methods("GET")
	r.HandleFunc("/v1/groups/{groupID}", g.handleGETSwapGroup).Methods("GET")

	r.HandleFunc("/v1/orders", g.handlePOSTCreateOrder).Methods("POST")
	r.HandleFunc("/v1/orders/{orderID}/take", g.handlePOSTTakeOrder).Methods("POST")
	r.HandleFunc("/v1/orders/{orderID}/cancel", g.handlePOSTCancelOrder).Methods("POST")
	r.HandleFunc("/v1/orders/{orderID}/execute", g.handlePOSTExecuteOrder).Methods("POST")
	r.HandleFunc("/v1/orders/{orderID}/fail", g.handlePOSTFailOrder).Methods("POST")
	r.HandleFunc("/v1/orders/{orderID}/expire", g.handlePOSTExpireOrder).Methods("POST")
	r.HandleFunc("/v1/orders/{orderID}/quote", g.handleGETQuote).Methods("GET")
	r.HandleFunc("/v1/orders/{orderID}", g.handleGETOrder).Methods("GET")
	r.HandleFunc("/v1/fees/preview", g.handleGETFeePreview).Methods("GET")
	r.HandleFunc("/v1/fees", g.handleGETFees).Methods("GET")
	r.HandleFunc("/v1/fees", g.handlePUTFees).Methods("PUT")

	r.HandleFunc("/v1/admin/roles/grant", g.handlePOSTGrantRole).Methods("POST")
	r.HandleFunc("/v1/admin/roles/revoke", g.handlePOSTRevokeRole).Methods("POST")
	r.HandleFunc("/v1/admin/ownership", g.handlePOSTTransferOwnership).Methods("POST")
	r.HandleFunc("/v1/admin/emergency-admin", g.handlePOSTSetEmergencyAdmin).Methods("POST")
	r.HandleFunc("/v1/admin/pause", g.handlePOSTPause).Methods("POST")
	r.HandleFunc("/v1/admin/unpause", g.handlePOSTUnpause).Methods("POST")
	r.HandleFunc("/v1/admin/breaker/reset", g.handlePOSTResetBreaker).Methods("POST")
	r.HandleFunc("/v1/admin/breaker/threshold", g.handlePUTBreakerThreshold).Methods("PUT")
	r.HandleFunc("/v1/admin/coordination-window", g.handlePUTCoordinationWindow).Methods("PUT")
	r.HandleFunc("/v1/admin/max-payload-size", g.handlePUTMaxPayloadSize).Methods("PUT")
	r.HandleFunc("/v1/status", g.handleGETStatus).Methods("GET")

	r.Handle("/v1/events", newWebsocketHandler(g.hub))

	return r
}

// Serve blocks until the listener fails or Close is called.
func (g *Gateway) Serve() error {
	log.WithField("addr", g.server.Addr).Info("gateway listening")
	err := g.server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (g *Gateway) Close() error {
	return g.server.Shutdown(context.Background())
}

// Handler exposes the router for tests.
func (g *Gateway) Handler() http.Handler {
	return g.server.Handler
}

type eventFrame struct {
	Topic string       `json:"topic"`
	Event domain.Event `json:"event"`
}

func (g *Gateway) pumpEvents(events <-chan domain.Event) {
	for event := range events {
		buf, err := json.Marshal(eventFrame{
			Topic: event.GetTopic(),
			Event: event,
		})
		if err != nil {
			log.WithError(err).Warn("failed to encode event for broadcast")
			continue
		}
		g.hub.Broadcast <- buf
	}
}

func caller(r *http.Request) string {
	return r.Header.Get(callerHeader)
}

func jsonResponse(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.WithError(err).Warn("failed to write response")
	}
}

func httpError(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), statusFromError(err))
}

func statusFromError(err error) int {
	switch domain.KindOf(err) {
	case domain.ErrorKindUnauthorized:
		return http.StatusForbidden
	case domain.ErrorKindValidation:
		return http.StatusBadRequest
	case domain.ErrorKindNotFound:
		return http.StatusNotFound
	case domain.ErrorKindConflict, domain.ErrorKindTiming:
		return http.StatusConflict
	case domain.ErrorKindIntegrity:
		return http.StatusUnprocessableEntity
	case domain.ErrorKindOperational:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
