package shop

import (
	"errors"
	"fmt"
	"net/http"
)

// StatusCoder is implemented by domain errors that map to an HTTP status.
// Anything else is treated as an internal error and surfaced generically.
type StatusCoder interface {
	error
	HTTPStatus() int
}

type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation: %s", e.Msg)
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Msg)
}
func (e *ValidationError) HTTPStatus() int { return http.StatusBadRequest }

type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product not found: %s", e.ProductID)
}
func (e *ProductNotFoundError) HTTPStatus() int { return http.StatusNotFound }

type ProductUnavailableError struct {
	ProductID string
	Status    ProductStatus
}

func (e *ProductUnavailableError) Error() string {
	return fmt.Sprintf("product %s is not available (status %s)", e.ProductID, e.Status)
}
func (e *ProductUnavailableError) HTTPStatus() int { return http.StatusBadRequest }

type InsufficientStockError struct {
	ProductID string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}
func (e *InsufficientStockError) HTTPStatus() int { return http.StatusBadRequest }

// PaymentInitiationFailedError means the order and its reservations are
// already committed but the payment request could not be created. The order
// is deliberately not rolled back; the sale may still be recovered manually.
type PaymentInitiationFailedError struct {
	OrderNumber string
	Err         error
}

func (e *PaymentInitiationFailedError) Error() string {
	return fmt.Sprintf("payment initiation failed for order %s: %v", e.OrderNumber, e.Err)
}
func (e *PaymentInitiationFailedError) Unwrap() error { return e.Err }
func (e *PaymentInitiationFailedError) HTTPStatus() int { return http.StatusInternalServerError }

// HTTPStatus resolves an error to its response code, defaulting to 500.
func HTTPStatus(err error) int {
	var sc StatusCoder
	if errors.As(err, &sc) {
		return sc.HTTPStatus()
	}
	return http.StatusInternalServerError
}
