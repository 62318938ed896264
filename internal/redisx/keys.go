package redisx

import "time"

const (
	// Order status cache: order_status:{order_id} -> {"paymentStatus": "..."}
	KeyOrderStatus = "order_status:%s"

	// Guest menu cache: menu:{property_id} -> JSON array of inventory records
	KeyMenu = "menu:%s"

	// Dedup for event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"

	// Payment processor account per property: payout_account:{property_id}
	KeyPayoutAccount = "payout_account:%s"
)

var (
	TTLStatusCache = 5 * time.Minute
	TTLMenuCache   = 1 * time.Minute
	TTLDedup       = 48 * time.Hour
)
