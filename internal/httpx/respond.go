package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/verkstad/shop-orders/internal/shop"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors onto their HTTP status. Internal errors are
// surfaced generically; the caller is expected to have logged the detail.
func writeError(w http.ResponseWriter, err error) {
	code := shop.HTTPStatus(err)
	body := map[string]any{}

	var stockErr *shop.InsufficientStockError
	var payErr *shop.PaymentInitiationFailedError
	switch {
	case errors.As(err, &stockErr):
		body["error"] = stockErr.Error()
		body["product_id"] = stockErr.ProductID
		body["requested"] = stockErr.Requested
		body["available"] = stockErr.Available
	case errors.As(err, &payErr):
		body["error"] = "payment initiation failed, manual follow-up required"
		body["order_number"] = payErr.OrderNumber
	case code == http.StatusInternalServerError:
		body["error"] = "internal error"
	default:
		body["error"] = err.Error()
	}
	writeJSON(w, code, body)
}
