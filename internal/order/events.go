package order

import (
	"encoding/json"
	"time"
)

const (
	EventOrderCreated    = "OrderCreated"
	EventPaymentCaptured = "PaymentCaptured"
	EventPaymentFailed   = "PaymentFailed"
	EventOrderFinalized  = "OrderFinalized"
)

type Envelope struct {
	EventID       string          `json:"event_id"` // uuid
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"` // RFC3339
	Producer      string          `json:"producer"`    // e.g., "checkout-api"
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // usually order_id
	Payload       json.RawMessage `json:"payload"`
}

// ---- payload types per event ----

type ItemPrice struct {
	ProductID  string `json:"product_id"`
	Qty        int    `json:"qty"`
	PriceCents int64  `json:"price_cents"`
}

type OrderCreatedPayload struct {
	OrderID       string      `json:"order_id"`
	PropertyID    string      `json:"property_id"`
	Items         []ItemPrice `json:"items"`
	SubtotalCents int64       `json:"subtotal_cents"`
	FeeCents      int64       `json:"fee_cents"`
	TotalCents    int64       `json:"total_cents"`
}

type PaymentCapturedPayload struct {
	OrderID     string `json:"order_id"`
	PaymentRef  string `json:"payment_ref"`
	AmountCents int64  `json:"amount_cents"`
}

type PaymentFailedPayload struct {
	OrderID string `json:"order_id"`
	Reason  string `json:"reason"` // e.g., CARD_DECLINED
}

type OrderFinalizedPayload struct {
	OrderID     string `json:"order_id"`
	FinalStatus string `json:"final_status"` // completed | failed
	Reason      string `json:"reason,omitempty"`
}
