package checkout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCart(t *testing.T) {
	valid := []Line{{ProductID: "p1", Quantity: 2, Price: 10.00, Name: "Coffee"}}

	t.Run("valid cart normalizes prices to cents", func(t *testing.T) {
		lines, err := validateCart("prop-1", valid)
		require.Nil(t, err)
		require.Len(t, lines, 1)
		assert.Equal(t, int64(1000), lines[0].PriceCents)
		assert.Equal(t, 2, lines[0].Quantity)
	})

	t.Run("missing property", func(t *testing.T) {
		_, err := validateCart("", valid)
		require.NotNil(t, err)
		assert.Equal(t, CodeMissingProperty, err.Code)
	})

	t.Run("empty cart", func(t *testing.T) {
		_, err := validateCart("prop-1", nil)
		require.NotNil(t, err)
		assert.Equal(t, CodeEmptyCart, err.Code)
	})

	t.Run("missing property reported before empty cart", func(t *testing.T) {
		_, err := validateCart("", nil)
		require.NotNil(t, err)
		assert.Equal(t, CodeMissingProperty, err.Code)
	})

	t.Run("missing product id", func(t *testing.T) {
		_, err := validateCart("prop-1", []Line{{Quantity: 1, Price: 1}})
		require.NotNil(t, err)
		assert.Equal(t, CodeInvalidCartLine, err.Code)
	})

	t.Run("non-positive quantity", func(t *testing.T) {
		_, err := validateCart("prop-1", []Line{{ProductID: "p1", Quantity: 0, Price: 1}})
		require.NotNil(t, err)
		assert.Equal(t, CodeInvalidCartLine, err.Code)
		assert.Equal(t, "p1", err.ProductID)
	})

	t.Run("negative price", func(t *testing.T) {
		_, err := validateCart("prop-1", []Line{{ProductID: "p1", Quantity: 1, Price: -0.01}})
		require.NotNil(t, err)
		assert.Equal(t, CodeInvalidCartLine, err.Code)
	})

	t.Run("sub-cent price", func(t *testing.T) {
		_, err := validateCart("prop-1", []Line{{ProductID: "p1", Quantity: 1, Price: 1.999}})
		require.NotNil(t, err)
		assert.Equal(t, CodeInvalidCartLine, err.Code)
	})

	t.Run("one bad line fails the whole cart", func(t *testing.T) {
		cart := append([]Line{}, valid...)
		cart = append(cart, Line{ProductID: "p2", Quantity: -1, Price: 5})
		_, err := validateCart("prop-1", cart)
		require.NotNil(t, err)
		assert.Equal(t, CodeInvalidCartLine, err.Code)
		assert.Equal(t, "p2", err.ProductID)
	})
}
