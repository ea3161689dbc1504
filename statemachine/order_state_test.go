package statemachine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cafe-pos-api/models"
)

func allow(perms ...string) func(string) bool {
	return func(p string) bool {
		for _, have := range perms {
			if have == p {
				return true
			}
		}
		return false
	}
}

func TestCanTransition(t *testing.T) {
	require.NoError(t, CanTransition(models.StatusCompleted, models.StatusRefunded, allow("sales.refund")))
	require.NoError(t, CanTransition(models.StatusCompleted, models.StatusVoided, allow("sales.void")))

	err := CanTransition(models.StatusCompleted, models.StatusRefunded, allow("sales.process"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sales.refund")

	err = CanTransition(models.StatusRefunded, models.StatusCompleted, allow("sales.refund"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "terminal")
}

func TestValidTransitionsFrom(t *testing.T) {
	assert.ElementsMatch(t,
		[]models.OrderStatus{models.StatusRefunded, models.StatusVoided},
		ValidTransitionsFrom(models.StatusCompleted))
	assert.Empty(t, ValidTransitionsFrom(models.StatusVoided))
}
