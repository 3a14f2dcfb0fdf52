package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/tardieats/payments-relay/internal/checkout"
	"github.com/tardieats/payments-relay/internal/gateway"
	"github.com/tardieats/payments-relay/internal/payments"
	"github.com/tardieats/payments-relay/internal/reconcile"
	"github.com/tardieats/payments-relay/internal/redisx"
)

// GatewayProxy covers the routes that forward a request body to the gateway
// untouched and hand its reply straight back.
type GatewayProxy interface {
	InitializeTransaction(ctx context.Context, payload json.RawMessage) (json.RawMessage, error)
	VerifyTransaction(ctx context.Context, reference string) (json.RawMessage, error)
	SubmitOTP(ctx context.Context, payload json.RawMessage) (json.RawMessage, error)
}

type PaymentsHandler struct {
	Gateway    GatewayProxy
	Checkout   *checkout.Service
	Reconciler *reconcile.Service
	Orders     payments.StatusReader
	Redis      *redis.Client // optional
}

func (h *PaymentsHandler) Register(r *chi.Mux) {
	r.Post("/v1/transactions/create", h.initializeTransaction)
	r.Get("/v1/transactions/verify/{reference}", h.verifyTransaction)
	r.Post("/v1/checkout", h.doCheckout)
	r.Post("/v1/checkout/otp", h.submitOTP)
	r.Post("/webhook", h.webhook)
	r.Get("/v1/orders/{id}", h.getOrderStatus)

	// Everything unmatched is treated as an access violation.
	r.NotFound(h.accessDenied)
	r.MethodNotAllowed(h.accessDenied)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeRaw(w http.ResponseWriter, code int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(body)
}

// writeGatewayError forwards a gateway reply verbatim; anything that never
// reached the gateway becomes a 502.
func writeGatewayError(w http.ResponseWriter, err error) {
	var apiErr *gateway.APIError
	if errors.As(err, &apiErr) {
		writeRaw(w, apiErr.StatusCode, apiErr.Body)
		return
	}
	writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
}

func (h *PaymentsHandler) initializeTransaction(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "read body"})
		return
	}
	body, err := h.Gateway.InitializeTransaction(r.Context(), payload)
	if err != nil {
		writeGatewayError(w, err)
		return
	}
	writeRaw(w, http.StatusOK, body)
}

func (h *PaymentsHandler) verifyTransaction(w http.ResponseWriter, r *http.Request) {
	reference := chi.URLParam(r, "reference")
	if reference == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing reference"})
		return
	}
	body, err := h.Gateway.VerifyTransaction(r.Context(), reference)
	if err != nil {
		writeGatewayError(w, err)
		return
	}
	writeRaw(w, http.StatusOK, body)
}

func (h *PaymentsHandler) submitOTP(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "read body"})
		return
	}
	body, err := h.Gateway.SubmitOTP(r.Context(), payload)
	if err != nil {
		writeGatewayError(w, err)
		return
	}
	writeRaw(w, http.StatusOK, body)
}

func (h *PaymentsHandler) doCheckout(w http.ResponseWriter, r *http.Request) {
	var req checkout.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	receipt, err := h.Checkout.Checkout(r.Context(), req, r.Header.Get("X-Request-Id"))
	if err != nil {
		var apiErr *gateway.APIError
		if errors.As(err, &apiErr) {
			writeRaw(w, apiErr.StatusCode, apiErr.Body)
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

func (h *PaymentsHandler) webhook(w http.ResponseWriter, r *http.Request) {
	var ev reconcile.Event
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		// Nothing recognizable to reconcile; acknowledge so the gateway
		// does not redeliver garbage forever.
		writeJSON(w, http.StatusOK, map[string]any{"received": true})
		return
	}

	applied, err := h.Reconciler.Apply(r.Context(), ev)
	if err != nil {
		// Non-2xx so the gateway redelivers; the pair may not exist yet if
		// this delivery raced its own checkout.
		log.Printf("webhook: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if !applied {
		writeJSON(w, http.StatusOK, map[string]any{"received": true})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"received": true, "reference": ev.Data.Reference})
}

func (h *PaymentsHandler) getOrderStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing id"})
		return
	}
	ctx := r.Context()

	// 1) cache
	if h.Redis != nil {
		key := fmt.Sprintf(redisx.KeyOrderStatus, id)
		if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
			writeRaw(w, http.StatusOK, []byte(s))
			return
		}
	}

	// 2) store fallback
	status, err := h.Orders.GetOrderStatus(ctx, id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	body, _ := json.Marshal(map[string]string{"status": string(status)})
	if h.Redis != nil {
		key := fmt.Sprintf(redisx.KeyOrderStatus, id)
		_ = h.Redis.Set(ctx, key, body, redisx.TTLStatusCache).Err()
	}
	writeRaw(w, http.StatusOK, body)
}

func (h *PaymentsHandler) accessDenied(w http.ResponseWriter, r *http.Request) {
	log.Printf("client access denied: %s %s", r.Method, r.URL.RequestURI())
	writeJSON(w, http.StatusUnauthorized, map[string]string{"url": r.URL.RequestURI()})
}
