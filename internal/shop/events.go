package shop

import (
	"encoding/json"
	"time"
)

const (
	EventOrderCreated       = "OrderCreated"
	EventOrderPaid          = "OrderPaid"
	EventOrderPaymentFailed = "OrderPaymentFailed"
	EventStockExpired       = "StockExpired"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order id
	Payload       json.RawMessage `json:"payload"`
}

type ItemQty struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type OrderCreatedPayload struct {
	OrderID string    `json:"order_id"`
	Number  string    `json:"number"`
	Email   string    `json:"email"`
	Items   []ItemQty `json:"items"`
	Total   int64     `json:"total"`
	Payment string    `json:"payment"`
}

type OrderPaidPayload struct {
	OrderID    string `json:"order_id"`
	Number     string `json:"number"`
	Email      string `json:"email"`
	PaymentRef string `json:"payment_ref"`
	Amount     int64  `json:"amount"`
}

type OrderPaymentFailedPayload struct {
	OrderID string `json:"order_id"`
	Number  string `json:"number"`
	Email   string `json:"email,omitempty"`
	Reason  string `json:"reason"` // DECLINED | CANCELLED | ERROR | INITIATION_FAILED
}

type StockExpiredPayload struct {
	Count   int64     `json:"count"`
	SweptAt time.Time `json:"swept_at"`
}
