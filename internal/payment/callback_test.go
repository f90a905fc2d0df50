package payment_test

import (
	"context"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/verkstad/shop-orders/internal/payment"
	"github.com/verkstad/shop-orders/internal/shop"
)

type mockOrders struct{ mock.Mock }

func (m *mockOrders) GetByNumber(ctx context.Context, number string) (*shop.Order, error) {
	args := m.Called(ctx, number)
	return args.Get(0).(*shop.Order), args.Error(1)
}

func (m *mockOrders) SetStatus(ctx context.Context, id string, to shop.OrderStatus, when time.Time) (bool, error) {
	args := m.Called(ctx, id, to, when)
	return args.Bool(0), args.Error(1)
}

type mockLedger struct{ mock.Mock }

func (m *mockLedger) ConfirmOrder(ctx context.Context, orderID string) error {
	args := m.Called(ctx, orderID)
	return args.Error(0)
}

func (m *mockLedger) CancelOrder(ctx context.Context, orderID string) (int64, error) {
	args := m.Called(ctx, orderID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockLedger) ConfirmedCount(ctx context.Context, orderID string) (int64, error) {
	args := m.Called(ctx, orderID)
	return args.Get(0).(int64), args.Error(1)
}

type recordingPublisher struct{ messages [][]byte }

func (p *recordingPublisher) Publish(key, value []byte, headers ...kafkago.Header) {
	p.messages = append(p.messages, value)
}

func paidOrder() *shop.Order {
	return &shop.Order{
		ID:           "o1",
		Number:       "2608.001",
		Status:       shop.OrderActive,
		DeliveryCost: 50,
		Information:  shop.OrderInformation{Email: "anna@example.com"},
		Cart: []shop.OrderCartItem{
			{ID: "p1", Quantity: 2, Price: 100},
		},
	}
}

func newService(o *mockOrders, l *mockLedger) (*payment.CallbackService, *recordingPublisher, *recordingPublisher) {
	paid := &recordingPublisher{}
	failed := &recordingPublisher{}
	return &payment.CallbackService{
		Orders:         o,
		Ledger:         l,
		ProducerPaid:   paid,
		ProducerFailed: failed,
		Logger:         zap.NewNop(),
		ServiceName:    "test",
	}, paid, failed
}

func TestCallbackPaid(t *testing.T) {
	orders := new(mockOrders)
	ledger := new(mockLedger)
	svc, paid, _ := newService(orders, ledger)

	orders.On("GetByNumber", mock.Anything, "2608.001").Return(paidOrder(), nil)
	ledger.On("ConfirmOrder", mock.Anything, "o1").Return(nil)

	err := svc.Handle(context.Background(), payment.Callback{
		ID:                    "PR1",
		PayeePaymentReference: "2608.001",
		Status:                payment.StatusPaid,
		Amount:                250,
		Currency:              "SEK",
	})
	require.NoError(t, err)

	ledger.AssertCalled(t, "ConfirmOrder", mock.Anything, "o1")
	orders.AssertNotCalled(t, "SetStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	assert.Len(t, paid.messages, 1)
}

// Deliveries are at-least-once; a second PAID must not error and must lean on
// the ledger's guarded transition rather than double-confirming.
func TestCallbackPaidDeliveredTwice(t *testing.T) {
	orders := new(mockOrders)
	ledger := new(mockLedger)
	svc, _, _ := newService(orders, ledger)

	orders.On("GetByNumber", mock.Anything, "2608.001").Return(paidOrder(), nil).Twice()
	// second confirm is a no-op inside the ledger, surfaced here as nil
	ledger.On("ConfirmOrder", mock.Anything, "o1").Return(nil).Twice()

	cb := payment.Callback{
		ID:                    "PR1",
		PayeePaymentReference: "2608.001",
		Status:                payment.StatusPaid,
		Amount:                250,
	}
	require.NoError(t, svc.Handle(context.Background(), cb))
	require.NoError(t, svc.Handle(context.Background(), cb))

	ledger.AssertExpectations(t)
}

func TestCallbackDeclined(t *testing.T) {
	orders := new(mockOrders)
	ledger := new(mockLedger)
	svc, _, failed := newService(orders, ledger)

	orders.On("GetByNumber", mock.Anything, "2608.001").Return(paidOrder(), nil)
	ledger.On("CancelOrder", mock.Anything, "o1").Return(int64(1), nil)
	orders.On("SetStatus", mock.Anything, "o1", shop.OrderInvalid, mock.Anything).Return(true, nil)

	err := svc.Handle(context.Background(), payment.Callback{
		ID:                    "PR2",
		PayeePaymentReference: "2608.001",
		Status:                payment.StatusDeclined,
		Amount:                250,
	})
	require.NoError(t, err)

	ledger.AssertCalled(t, "CancelOrder", mock.Anything, "o1")
	ledger.AssertNotCalled(t, "ConfirmOrder", mock.Anything, mock.Anything)
	orders.AssertCalled(t, "SetStatus", mock.Anything, "o1", shop.OrderInvalid, mock.Anything)
	assert.Len(t, failed.messages, 1)
}

func TestCallbackError(t *testing.T) {
	orders := new(mockOrders)
	ledger := new(mockLedger)
	svc, _, failed := newService(orders, ledger)

	orders.On("GetByNumber", mock.Anything, "2608.001").Return(paidOrder(), nil)
	ledger.On("CancelOrder", mock.Anything, "o1").Return(int64(1), nil)
	orders.On("SetStatus", mock.Anything, "o1", shop.OrderInvalid, mock.Anything).Return(true, nil)

	err := svc.Handle(context.Background(), payment.Callback{
		ID:                    "PR3",
		PayeePaymentReference: "2608.001",
		Status:                payment.StatusError,
	})
	require.NoError(t, err)
	assert.Len(t, failed.messages, 1)
}

// A decline landing after PAID finds nothing to release and confirmed stock
// behind the order; it must not void the order or announce a failure.
func TestCallbackDeclineAfterPaidLeavesOrder(t *testing.T) {
	orders := new(mockOrders)
	ledger := new(mockLedger)
	svc, _, failed := newService(orders, ledger)

	orders.On("GetByNumber", mock.Anything, "2608.001").Return(paidOrder(), nil)
	ledger.On("CancelOrder", mock.Anything, "o1").Return(int64(0), nil)
	ledger.On("ConfirmedCount", mock.Anything, "o1").Return(int64(1), nil)

	err := svc.Handle(context.Background(), payment.Callback{
		ID:                    "PR7",
		PayeePaymentReference: "2608.001",
		Status:                payment.StatusDeclined,
		Amount:                250,
	})
	require.NoError(t, err)

	orders.AssertNotCalled(t, "SetStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, failed.messages)
}

func TestCallbackCreatedIsInformational(t *testing.T) {
	orders := new(mockOrders)
	ledger := new(mockLedger)
	svc, paid, failed := newService(orders, ledger)

	err := svc.Handle(context.Background(), payment.Callback{
		ID:                    "PR4",
		PayeePaymentReference: "2608.001",
		Status:                payment.StatusCreated,
	})
	require.NoError(t, err)

	orders.AssertNotCalled(t, "GetByNumber", mock.Anything, mock.Anything)
	assert.Empty(t, paid.messages)
	assert.Empty(t, failed.messages)
}

func TestCallbackUnknownStatus(t *testing.T) {
	orders := new(mockOrders)
	ledger := new(mockLedger)
	svc, _, _ := newService(orders, ledger)

	orders.On("GetByNumber", mock.Anything, "2608.001").Return(paidOrder(), nil)

	err := svc.Handle(context.Background(), payment.Callback{
		ID:                    "PR5",
		PayeePaymentReference: "2608.001",
		Status:                "REFUNDED",
	})
	require.NoError(t, err)

	orders.AssertNotCalled(t, "SetStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	ledger.AssertNotCalled(t, "ConfirmOrder", mock.Anything, mock.Anything)
	ledger.AssertNotCalled(t, "CancelOrder", mock.Anything, mock.Anything)
}

func TestCallbackUnknownOrder(t *testing.T) {
	orders := new(mockOrders)
	ledger := new(mockLedger)
	svc, _, _ := newService(orders, ledger)

	orders.On("GetByNumber", mock.Anything, "9999.999").
		Return((*shop.Order)(nil), shop.ErrOrderNotFound)

	err := svc.Handle(context.Background(), payment.Callback{
		ID:                    "PR6",
		PayeePaymentReference: "9999.999",
		Status:                payment.StatusPaid,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, shop.ErrOrderNotFound)
}
