package shop

type ProductStatus string

const (
	ProductActive   ProductStatus = "active"
	ProductInactive ProductStatus = "inactive"
)

type OrderStatus string

const (
	OrderActive   OrderStatus = "active"
	OrderInactive OrderStatus = "inactive"
	OrderInvalid  OrderStatus = "invalid"
)

var orderNext = map[OrderStatus]map[OrderStatus]bool{
	OrderActive:   {OrderInactive: true, OrderInvalid: true},
	OrderInactive: {OrderActive: true},
	OrderInvalid:  {},
}

func CanTransitionOrder(from, to OrderStatus) bool {
	return orderNext[from][to]
}

type ReservationStatus string

const (
	ReservationActive    ReservationStatus = "active"
	ReservationConfirmed ReservationStatus = "confirmed"
	ReservationCancelled ReservationStatus = "cancelled"
	ReservationExpired   ReservationStatus = "expired"
)

var reservationNext = map[ReservationStatus]map[ReservationStatus]bool{
	ReservationActive:    {ReservationConfirmed: true, ReservationCancelled: true, ReservationExpired: true},
	ReservationConfirmed: {},
	ReservationCancelled: {},
	ReservationExpired:   {},
}

func CanTransitionReservation(from, to ReservationStatus) bool {
	return reservationNext[from][to]
}

// IsTerminal reports whether a reservation can never transition again.
func (s ReservationStatus) IsTerminal() bool {
	return s != ReservationActive
}
