package order

const (
	TopicOrderCreated    = "order.created"
	TopicPaymentCaptured = "order.payment.captured"
	TopicPaymentFailed   = "order.payment.failed"
	TopicOrderFinalized  = "order.finalized"
)

// Partition key = order_id, so every event for one order stays in order.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
