package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	kafkax "github.com/verkstad/shop-orders/internal/kafka"
	"github.com/verkstad/shop-orders/internal/payment"
	"github.com/verkstad/shop-orders/internal/redisx"
	"github.com/verkstad/shop-orders/internal/shop"
)

// Payment methods accepted at checkout. Swish settles asynchronously through
// the callback endpoint; invoice settles out of band.
const (
	MethodSwish   = "swish"
	MethodInvoice = "invoice"
)

type ProductStore interface {
	GetMany(ctx context.Context, ids []string) (map[string]*shop.Product, error)
}

type OrderStore interface {
	Create(ctx context.Context, o *shop.Order) error
	SetStatus(ctx context.Context, id string, to shop.OrderStatus, when time.Time) (bool, error)
}

type StockLedger interface {
	Available(ctx context.Context, productID string) (int, error)
	Reserve(ctx context.Context, orderID string, items []shop.CartLine) ([]shop.StockReservation, error)
}

type NumberSource interface {
	Next(ctx context.Context) (string, error)
}

type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

// Request is the validated checkout input.
type Request struct {
	Information  shop.OrderInformation
	Cart         []shop.CartLine
	Delivery     string
	DeliveryCost int64
	Payment      string
	TraceID      string
}

// PaymentInfo describes the pending payment returned to the client.
type PaymentInfo struct {
	Method    string `json:"method"`
	Status    string `json:"status"`
	Reference string `json:"reference,omitempty"`
	SwishURL  string `json:"swishUrl,omitempty"`
}

type Result struct {
	Order   *shop.Order
	Payment PaymentInfo
}

// Service is the checkout orchestrator: it validates the cart against live
// inventory, freezes the order, reserves stock, and initiates payment.
type Service struct {
	Products       ProductStore
	Orders         OrderStore
	Ledger         StockLedger
	Numbers        NumberSource
	Gateway        payment.Gateway
	ProducerOrder  Publisher
	ProducerFailed Publisher
	Redis          *redis.Client
	Logger         *zap.Logger
	ServiceName    string
	Clock          func() time.Time
}

func (s *Service) now() time.Time {
	if s.Clock != nil {
		return s.Clock().UTC()
	}
	return time.Now().UTC()
}

// Checkout runs the full order-creation workflow. Every line is validated
// before anything is written; once the order and reservations are committed,
// a payment-initiation failure is reported but nothing is rolled back.
func (s *Service) Checkout(ctx context.Context, req Request) (*Result, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(req.Cart))
	for _, l := range req.Cart {
		ids = append(ids, l.ProductID)
	}
	products, err := s.Products.GetMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve cart products: %w", err)
	}

	for _, l := range req.Cart {
		p, ok := products[l.ProductID]
		if !ok {
			return nil, &shop.ProductNotFoundError{ProductID: l.ProductID}
		}
		if p.Status != shop.ProductActive {
			return nil, &shop.ProductUnavailableError{ProductID: p.ID, Status: p.Status}
		}
		if p.MaxOrder > 0 && l.Quantity > p.MaxOrder {
			return nil, &shop.ValidationError{Field: "cart",
				Msg: fmt.Sprintf("quantity %d exceeds max order %d for product %s", l.Quantity, p.MaxOrder, p.ID)}
		}
	}

	// availability precheck across all lines before any write
	for _, l := range req.Cart {
		avail, err := s.Ledger.Available(ctx, l.ProductID)
		if err != nil {
			return nil, err
		}
		if avail < l.Quantity {
			return nil, &shop.InsufficientStockError{
				ProductID: l.ProductID,
				Requested: l.Quantity,
				Available: avail,
			}
		}
	}

	number, err := s.Numbers.Next(ctx)
	if err != nil {
		return nil, err
	}

	order, err := shop.AssembleOrder(req.Information, req.Cart, req.Delivery, req.DeliveryCost,
		products, number, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.Orders.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("persist order %s: %w", number, err)
	}

	if _, err := s.Ledger.Reserve(ctx, order.ID, req.Cart); err != nil {
		// Lost the race between precheck and reserve: void the order so it
		// never ships without stock backing it, then surface the stock error.
		if _, verr := s.Orders.SetStatus(ctx, order.ID, shop.OrderInvalid, s.now()); verr != nil {
			s.Logger.Error("failed to void order after reservation failure",
				zap.String("order_id", order.ID), zap.Error(verr))
		}
		return nil, err
	}

	pay := PaymentInfo{Method: req.Payment, Status: "pending"}
	if req.Payment == MethodSwish {
		pr, err := s.Gateway.CreatePaymentRequest(ctx, payment.Request{
			Reference:  order.Number,
			Amount:     order.Total(),
			PayerAlias: req.Information.Phone,
			Message:    "Order " + order.Number,
		})
		if err != nil {
			s.Logger.Error("payment initiation failed, order needs manual follow-up",
				zap.String("order_id", order.ID),
				zap.String("order_number", order.Number),
				zap.Error(err))
			s.publishPaymentFailed(order, req.TraceID)
			return nil, &shop.PaymentInitiationFailedError{OrderNumber: order.Number, Err: err}
		}
		pay.Status = pr.Status
		pay.Reference = pr.ID
		pay.SwishURL = pr.Location
	}

	s.publishCreated(order, req, pay)
	s.cacheStatus(ctx, order)

	s.Logger.Info("order created",
		zap.String("order_id", order.ID),
		zap.String("order_number", order.Number),
		zap.Int64("total", order.Total()),
		zap.String("payment", req.Payment))

	return &Result{Order: order, Payment: pay}, nil
}

func (r Request) validate() error {
	if len(r.Cart) == 0 {
		return &shop.ValidationError{Field: "cart", Msg: "cart is empty"}
	}
	seen := make(map[string]bool, len(r.Cart))
	for _, l := range r.Cart {
		if l.ProductID == "" {
			return &shop.ValidationError{Field: "cart", Msg: "missing product id"}
		}
		if l.Quantity <= 0 {
			return &shop.ValidationError{Field: "cart", Msg: "quantity must be positive for product " + l.ProductID}
		}
		if seen[l.ProductID] {
			return &shop.ValidationError{Field: "cart", Msg: "duplicate cart line for product " + l.ProductID}
		}
		seen[l.ProductID] = true
	}
	switch r.Payment {
	case MethodSwish, MethodInvoice:
	default:
		return &shop.ValidationError{Field: "payment", Msg: "unsupported payment method: " + r.Payment}
	}
	if r.Delivery == "" {
		return &shop.ValidationError{Field: "delivery", Msg: "delivery method is required"}
	}
	if r.DeliveryCost < 0 {
		return &shop.ValidationError{Field: "delivery_cost", Msg: "delivery cost cannot be negative"}
	}
	if r.Information.Name == "" || r.Information.Email == "" {
		return &shop.ValidationError{Field: "order", Msg: "name and email are required"}
	}
	if r.Information.Address == "" || r.Information.Zip == "" || r.Information.City == "" {
		return &shop.ValidationError{Field: "order", Msg: "address, zip and city are required"}
	}
	return nil
}

func (s *Service) cacheStatus(ctx context.Context, o *shop.Order) {
	if s.Redis == nil {
		return
	}
	key := fmt.Sprintf(redisx.KeyOrderStatus, o.ID)
	body := fmt.Sprintf(`{"id":%q,"number":%q,"status":%q}`, o.ID, o.Number, o.Status)
	if err := s.Redis.Set(ctx, key, body, redisx.TTLStatusCache).Err(); err != nil {
		s.Logger.Warn("order status cache write failed", zap.String("order_id", o.ID), zap.Error(err))
	}
}

func (s *Service) publishCreated(o *shop.Order, req Request, pay PaymentInfo) {
	if s.ProducerOrder == nil {
		return
	}
	items := make([]shop.ItemQty, 0, len(o.Cart))
	for _, it := range o.Cart {
		items = append(items, shop.ItemQty{ProductID: it.ID, Quantity: it.Quantity})
	}
	ev := shop.Envelope{
		EventID:       uuid.NewString(),
		EventType:     shop.EventOrderCreated,
		EventVersion:  1,
		OccurredAt:    s.now(),
		Producer:      s.ServiceName,
		TraceID:       req.TraceID,
		CorrelationID: o.ID,
		Payload: kafkax.MustMarshal(shop.OrderCreatedPayload{
			OrderID: o.ID,
			Number:  o.Number,
			Email:   o.Information.Email,
			Items:   items,
			Total:   o.Total(),
			Payment: pay.Method,
		}),
	}
	s.ProducerOrder.Publish(shop.PartitionKey(o.ID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(shop.EventOrderCreated)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func (s *Service) publishPaymentFailed(o *shop.Order, traceID string) {
	if s.ProducerFailed == nil {
		return
	}
	ev := shop.Envelope{
		EventID:       uuid.NewString(),
		EventType:     shop.EventOrderPaymentFailed,
		EventVersion:  1,
		OccurredAt:    s.now(),
		Producer:      s.ServiceName,
		TraceID:       traceID,
		CorrelationID: o.ID,
		Payload: kafkax.MustMarshal(shop.OrderPaymentFailedPayload{
			OrderID: o.ID,
			Number:  o.Number,
			Email:   o.Information.Email,
			Reason:  "INITIATION_FAILED",
		}),
	}
	s.ProducerFailed.Publish(shop.PartitionKey(o.ID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(shop.EventOrderPaymentFailed)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
