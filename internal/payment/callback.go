package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	kafkax "github.com/verkstad/shop-orders/internal/kafka"
	"github.com/verkstad/shop-orders/internal/redisx"
	"github.com/verkstad/shop-orders/internal/shop"
)

// Provider payment statuses as delivered on the callback.
const (
	StatusCreated   = "CREATED"
	StatusPaid      = "PAID"
	StatusDeclined  = "DECLINED"
	StatusError     = "ERROR"
	StatusCancelled = "CANCELLED"
)

// Callback is the provider's webhook payload. payeePaymentReference carries
// the order number.
type Callback struct {
	ID                    string     `json:"id"`
	PayeePaymentReference string     `json:"payeePaymentReference"`
	Status                string     `json:"status"`
	Amount                int64      `json:"amount"`
	Currency              string     `json:"currency"`
	DateCreated           time.Time  `json:"dateCreated"`
	DatePaid              *time.Time `json:"datePaid,omitempty"`
}

type OrderStore interface {
	GetByNumber(ctx context.Context, number string) (*shop.Order, error)
	SetStatus(ctx context.Context, id string, to shop.OrderStatus, when time.Time) (bool, error)
}

type StockLedger interface {
	ConfirmOrder(ctx context.Context, orderID string) error
	CancelOrder(ctx context.Context, orderID string) (int64, error)
	ConfirmedCount(ctx context.Context, orderID string) (int64, error)
}

type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

// CallbackService reconciles asynchronous payment outcomes into order state
// and stock. Deliveries are at-least-once and unordered, so every effect is
// idempotent: redis dedup short-circuits obvious retries, and the guarded
// transitions in the store and ledger are the actual source of truth.
type CallbackService struct {
	Orders         OrderStore
	Ledger         StockLedger
	ProducerPaid   Publisher
	ProducerFailed Publisher
	Redis          *redis.Client
	Logger         *zap.Logger
	ServiceName    string
	Clock          func() time.Time
}

func (s *CallbackService) now() time.Time {
	if s.Clock != nil {
		return s.Clock().UTC()
	}
	return time.Now().UTC()
}

// Handle applies one callback. An error here means the reconciliation needs
// operator attention; the HTTP layer still acks the provider regardless.
func (s *CallbackService) Handle(ctx context.Context, cb Callback) error {
	log := s.Logger.With(
		zap.String("payment_id", cb.ID),
		zap.String("payment_status", cb.Status),
		zap.String("order_number", cb.PayeePaymentReference),
	)

	if cb.Status == StatusCreated {
		log.Debug("payment request acknowledged by provider")
		return nil
	}

	dkey := fmt.Sprintf(redisx.KeyDedup, "payments", cb.ID+":"+cb.Status)
	if s.Redis != nil {
		if seen, _ := redisx.Exists(ctx, s.Redis, dkey); seen {
			log.Debug("duplicate callback, skipping")
			return nil
		}
	}

	order, err := s.Orders.GetByNumber(ctx, cb.PayeePaymentReference)
	if err != nil {
		return fmt.Errorf("callback for order %s: %w", cb.PayeePaymentReference, err)
	}

	if cb.Amount != 0 && cb.Amount != order.Total() {
		log.Warn("callback amount differs from order total",
			zap.Int64("callback_amount", cb.Amount),
			zap.Int64("order_total", order.Total()))
	}

	switch cb.Status {
	case StatusPaid:
		if err := s.Ledger.ConfirmOrder(ctx, order.ID); err != nil {
			return fmt.Errorf("confirm reservations for order %s: %w", order.ID, err)
		}
		log.Info("payment confirmed, stock committed")
		s.publishPaid(order, cb)

	case StatusDeclined, StatusCancelled, StatusError:
		released, err := s.Ledger.CancelOrder(ctx, order.ID)
		if err != nil {
			return fmt.Errorf("release reservations for order %s: %w", order.ID, err)
		}
		if released == 0 {
			confirmed, err := s.Ledger.ConfirmedCount(ctx, order.ID)
			if err != nil {
				return fmt.Errorf("inspect reservations for order %s: %w", order.ID, err)
			}
			if confirmed > 0 {
				// a PAID delivery already committed the stock; a late decline
				// must not void the order underneath it
				log.Warn("decline received after confirmation, order left intact")
				return nil
			}
		}
		if _, err := s.Orders.SetStatus(ctx, order.ID, shop.OrderInvalid, s.now()); err != nil {
			return fmt.Errorf("invalidate order %s: %w", order.ID, err)
		}
		order.Status = shop.OrderInvalid
		if cb.Status == StatusError {
			log.Error("payment provider reported an error, manual review required",
				zap.Int64("released_reservations", released))
		} else {
			log.Info("payment not completed, reservations released",
				zap.Int64("released_reservations", released))
		}
		s.publishFailed(order, cb.Status)

	default:
		log.Warn("unknown payment status, ignoring")
		return nil
	}

	if s.Redis != nil {
		_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()
		s.cacheStatus(ctx, order)
	}
	return nil
}

func (s *CallbackService) cacheStatus(ctx context.Context, o *shop.Order) {
	key := fmt.Sprintf(redisx.KeyOrderStatus, o.ID)
	body := fmt.Sprintf(`{"id":%q,"number":%q,"status":%q}`, o.ID, o.Number, o.Status)
	if err := s.Redis.Set(ctx, key, body, redisx.TTLStatusCache).Err(); err != nil {
		s.Logger.Warn("order status cache write failed", zap.String("order_id", o.ID), zap.Error(err))
	}
}

func (s *CallbackService) publishPaid(o *shop.Order, cb Callback) {
	if s.ProducerPaid == nil {
		return
	}
	ev := shop.Envelope{
		EventID:       uuid.NewString(),
		EventType:     shop.EventOrderPaid,
		EventVersion:  1,
		OccurredAt:    s.now(),
		Producer:      s.ServiceName,
		CorrelationID: o.ID,
		Payload: kafkax.MustMarshal(shop.OrderPaidPayload{
			OrderID:    o.ID,
			Number:     o.Number,
			Email:      o.Information.Email,
			PaymentRef: cb.ID,
			Amount:     cb.Amount,
		}),
	}
	s.ProducerPaid.Publish(shop.PartitionKey(o.ID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(shop.EventOrderPaid)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func (s *CallbackService) publishFailed(o *shop.Order, reason string) {
	if s.ProducerFailed == nil {
		return
	}
	ev := shop.Envelope{
		EventID:       uuid.NewString(),
		EventType:     shop.EventOrderPaymentFailed,
		EventVersion:  1,
		OccurredAt:    s.now(),
		Producer:      s.ServiceName,
		CorrelationID: o.ID,
		Payload: kafkax.MustMarshal(shop.OrderPaymentFailedPayload{
			OrderID: o.ID,
			Number:  o.Number,
			Email:   o.Information.Email,
			Reason:  reason,
		}),
	}
	s.ProducerFailed.Publish(shop.PartitionKey(o.ID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(shop.EventOrderPaymentFailed)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
