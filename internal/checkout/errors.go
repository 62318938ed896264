package checkout

import "fmt"

type Code string

const (
	// input errors, rejected before any storage I/O
	CodeEmptyCart       Code = "EMPTY_CART"
	CodeMissingProperty Code = "MISSING_PROPERTY"
	CodeInvalidCartLine Code = "INVALID_CART_LINE"

	// availability errors, surfaced with enough detail to correct the cart
	CodeProductNotFound   Code = "PRODUCT_NOT_FOUND"
	CodeInsufficientStock Code = "INSUFFICIENT_STOCK"

	// persistence errors
	CodeOrderCreationFailed     Code = "ORDER_CREATION_FAILED"
	CodeOrderItemCreationFailed Code = "ORDER_ITEM_CREATION_FAILED"
	CodeInventoryUpdateFailed   Code = "INVENTORY_UPDATE_FAILED"
)

// ClientError reports whether the code is correctable by the client
// (HTTP 400 class) rather than a storage failure (500 class).
func (c Code) ClientError() bool {
	switch c {
	case CodeEmptyCart, CodeMissingProperty, CodeInvalidCartLine,
		CodeProductNotFound, CodeInsufficientStock:
		return true
	}
	return false
}

type Error struct {
	Code      Code
	ProductID string
	Requested int
	Available int
	Err       error
}

func (e *Error) Error() string {
	switch e.Code {
	case CodeEmptyCart:
		return "cart is empty"
	case CodeMissingProperty:
		return "propertyId is required"
	case CodeInvalidCartLine:
		return fmt.Sprintf("invalid cart line (product %q)", e.ProductID)
	case CodeProductNotFound:
		return fmt.Sprintf("product %s not found for property", e.ProductID)
	case CodeInsufficientStock:
		return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d",
			e.ProductID, e.Requested, e.Available)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return string(e.Code)
}

func (e *Error) Unwrap() error { return e.Err }
