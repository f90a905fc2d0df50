package redisx

import "time"

const (
	// Cached order status: order:status:{order_id} -> {"id":..,"number":..,"status":..}
	KeyOrderStatus = "order:status:%s"

	// Dedup for at-least-once deliveries: dedup:{consumer}:{id}
	// id is payment_id:status for webhook calls, event_id for kafka consumers.
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLStatusCache = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
)
