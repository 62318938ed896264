package inventory

import "time"

// Record is the per-property stock level and price for one product.
type Record struct {
	PropertyID     string    `json:"propertyId"`
	ProductID      string    `json:"productId"`
	Name           string    `json:"name"`
	Quantity       int       `json:"quantity"`
	UnitPriceCents int64     `json:"unitPriceCents"`
	UpdatedAt      time.Time `json:"updatedAt"`
}
