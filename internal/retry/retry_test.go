package retry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDo(t *testing.T) {
	t.Run("succeeds after transient failures", func(t *testing.T) {
		calls := 0
		err := Do(context.Background(), 3, func() error {
			calls++
			if calls < 3 {
				return errors.New("transient")
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		calls := 0
		boom := errors.New("still broken")
		err := Do(context.Background(), 2, func() error {
			calls++
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 2, calls)
	})

	t.Run("permanent errors stop immediately", func(t *testing.T) {
		calls := 0
		notFound := errors.New("not found")
		err := Do(context.Background(), 5, func() error {
			calls++
			return Permanent(notFound)
		})
		assert.ErrorIs(t, err, notFound)
		assert.Equal(t, 1, calls)
	})

	t.Run("cancelled context stops retrying", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		calls := 0
		err := Do(ctx, 10, func() error {
			calls++
			cancel()
			return errors.New("transient")
		})
		assert.Error(t, err)
		assert.LessOrEqual(t, calls, 2)
	})

	t.Run("attempt floor of one", func(t *testing.T) {
		calls := 0
		_ = Do(context.Background(), 0, func() error {
			calls++
			return errors.New("x")
		})
		assert.Equal(t, 1, calls)
	})
}
