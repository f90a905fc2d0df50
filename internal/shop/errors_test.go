package shop_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/verkstad/shop-orders/internal/shop"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{&shop.ValidationError{Field: "cart", Msg: "empty"}, http.StatusBadRequest},
		{&shop.ProductNotFoundError{ProductID: "p1"}, http.StatusNotFound},
		{&shop.ProductUnavailableError{ProductID: "p1", Status: shop.ProductInactive}, http.StatusBadRequest},
		{&shop.InsufficientStockError{ProductID: "p1", Requested: 5, Available: 1}, http.StatusBadRequest},
		{&shop.PaymentInitiationFailedError{OrderNumber: "2608.001", Err: errors.New("boom")}, http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, shop.HTTPStatus(c.err), c.err.Error())
	}
}

func TestHTTPStatusWrapped(t *testing.T) {
	err := fmt.Errorf("checkout: %w", &shop.InsufficientStockError{ProductID: "p1", Requested: 2, Available: 0})
	assert.Equal(t, http.StatusBadRequest, shop.HTTPStatus(err))
}

func TestPaymentInitiationFailedUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := &shop.PaymentInitiationFailedError{OrderNumber: "2608.001", Err: cause}
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "2608.001")
}

func TestInsufficientStockErrorDetail(t *testing.T) {
	err := &shop.InsufficientStockError{ProductID: "p1", Requested: 5, Available: 1}
	assert.Contains(t, err.Error(), "p1")
	assert.Contains(t, err.Error(), "requested 5")
	assert.Contains(t, err.Error(), "available 1")
}
