package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(StatusPending, StatusCompleted))
	assert.True(t, CanTransition(StatusPending, StatusFailed))

	assert.False(t, CanTransition(StatusCompleted, StatusPending))
	assert.False(t, CanTransition(StatusCompleted, StatusFailed))
	assert.False(t, CanTransition(StatusFailed, StatusCompleted))
	assert.False(t, CanTransition(StatusPending, StatusPending))
}
