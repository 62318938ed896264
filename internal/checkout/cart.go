package checkout

import "github.com/shopspring/decimal"

// Line is one product+quantity+price entry submitted by a guest. It is
// untrusted client input; validateCart is the only way in.
type Line struct {
	ProductID string  `json:"productId"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
	Name      string  `json:"name"`
}

// line is a validated cart line with the price normalized to cents.
type line struct {
	ProductID  string
	Quantity   int
	PriceCents int64
	Name       string
}

var cents = decimal.NewFromInt(100)

// validateCart rejects malformed input before any storage I/O. Prices must be
// non-negative with at most two decimal places.
func validateCart(propertyID string, cart []Line) ([]line, *Error) {
	if propertyID == "" {
		return nil, &Error{Code: CodeMissingProperty}
	}
	if len(cart) == 0 {
		return nil, &Error{Code: CodeEmptyCart}
	}

	out := make([]line, 0, len(cart))
	for _, l := range cart {
		if l.ProductID == "" || l.Quantity <= 0 || l.Price < 0 {
			return nil, &Error{Code: CodeInvalidCartLine, ProductID: l.ProductID}
		}
		price := decimal.NewFromFloat(l.Price).Mul(cents)
		if !price.IsInteger() {
			return nil, &Error{Code: CodeInvalidCartLine, ProductID: l.ProductID}
		}
		out = append(out, line{
			ProductID:  l.ProductID,
			Quantity:   l.Quantity,
			PriceCents: price.IntPart(),
			Name:       l.Name,
		})
	}
	return out, nil
}
