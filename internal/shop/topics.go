package shop

const (
	TopicOrderCreated       = "shop.order.created"
	TopicOrderPaid          = "shop.order.paid"
	TopicOrderPaymentFailed = "shop.order.payment.failed"
	TopicStockExpired       = "shop.stock.expired"
)

// Partition key = order id, so every event for one order keeps its order.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
