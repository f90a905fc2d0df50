package shop_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/verkstad/shop-orders/internal/shop"
)

func TestOrderTransitions(t *testing.T) {
	assert.True(t, shop.CanTransitionOrder(shop.OrderActive, shop.OrderInvalid))
	assert.True(t, shop.CanTransitionOrder(shop.OrderActive, shop.OrderInactive))
	assert.True(t, shop.CanTransitionOrder(shop.OrderInactive, shop.OrderActive))

	// invalid is terminal
	assert.False(t, shop.CanTransitionOrder(shop.OrderInvalid, shop.OrderActive))
	assert.False(t, shop.CanTransitionOrder(shop.OrderInvalid, shop.OrderInactive))
}

func TestReservationTransitions(t *testing.T) {
	for _, to := range []shop.ReservationStatus{
		shop.ReservationConfirmed, shop.ReservationCancelled, shop.ReservationExpired,
	} {
		assert.True(t, shop.CanTransitionReservation(shop.ReservationActive, to))
	}

	// every non-active state is sticky: no way out, not even back to active
	terminals := []shop.ReservationStatus{
		shop.ReservationConfirmed, shop.ReservationCancelled, shop.ReservationExpired,
	}
	for _, from := range terminals {
		assert.True(t, from.IsTerminal())
		for _, to := range []shop.ReservationStatus{
			shop.ReservationActive, shop.ReservationConfirmed, shop.ReservationCancelled, shop.ReservationExpired,
		} {
			assert.False(t, shop.CanTransitionReservation(from, to), "%s -> %s", from, to)
		}
	}

	assert.False(t, shop.ReservationActive.IsTerminal())
}
