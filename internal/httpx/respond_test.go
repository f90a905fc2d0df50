package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verkstad/shop-orders/internal/shop"
)

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestWriteErrorInsufficientStock(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, &shop.InsufficientStockError{ProductID: "p1", Requested: 5, Available: 1})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "p1", body["product_id"])
	assert.Equal(t, float64(5), body["requested"])
	assert.Equal(t, float64(1), body["available"])
}

func TestWriteErrorPaymentInitiationFailed(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, &shop.PaymentInitiationFailedError{OrderNumber: "2608.001", Err: errors.New("tls handshake failed")})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "2608.001", body["order_number"])
	// the upstream cause must not leak to the client
	assert.NotContains(t, body["error"], "tls")
}

func TestWriteErrorNotFound(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, &shop.ProductNotFoundError{ProductID: "ghost"})

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["error"], "ghost")
}

func TestWriteErrorInternalIsGeneric(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, errors.New("pq: connection reset"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal error", decodeBody(t, rec)["error"])
}
