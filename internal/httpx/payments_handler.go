package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/verkstad/shop-orders/internal/payment"
)

type CallbackHandler interface {
	Handle(ctx context.Context, cb payment.Callback) error
}

type PaymentsHandler struct {
	Callbacks CallbackHandler
	Logger    *zap.Logger
}

func (h *PaymentsHandler) Register(r *chi.Mux) {
	r.Post("/payments/callback", h.callback)
}

// callback always acks with 200: the provider retries on anything else and a
// retry storm does not help a reconciliation that is failing internally.
// Failures are logged for operational follow-up instead.
func (h *PaymentsHandler) callback(w http.ResponseWriter, r *http.Request) {
	var cb payment.Callback
	if err := json.NewDecoder(r.Body).Decode(&cb); err != nil {
		h.Logger.Warn("undecodable payment callback", zap.Error(err))
		w.WriteHeader(http.StatusOK)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if err := h.Callbacks.Handle(ctx, cb); err != nil {
		h.Logger.Error("payment callback reconciliation failed",
			zap.String("payment_id", cb.ID),
			zap.String("order_number", cb.PayeePaymentReference),
			zap.String("payment_status", cb.Status),
			zap.Error(err))
	}
	w.WriteHeader(http.StatusOK)
}
