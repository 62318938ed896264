package order

import "time"

type Order struct {
	ID            string
	PropertyID    string
	SubtotalCents int64
	FeeCents      int64
	TotalCents    int64
	PaymentStatus Status
	PaymentRef    string
	OrderDate     time.Time
	PaidAt        *time.Time
	Items         []Item
}

type Item struct {
	ID             string
	OrderID        string
	ProductID      string
	Name           string
	Quantity       int
	UnitPriceCents int64
}
