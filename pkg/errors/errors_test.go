package errors_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/carepoint-health/appointments/backend/pkg/errors"
)

func TestAsAppError(t *testing.T) {
	t.Run("finds an AppError through wrapping", func(t *testing.T) {
		inner := apperrors.NewSlotTakenError("this slot is already booked")
		wrapped := fmt.Errorf("booking failed: %w", inner)

		appErr, ok := apperrors.AsAppError(wrapped)

		require.True(t, ok)
		assert.Equal(t, apperrors.ErrorTypeConflict, appErr.Type)
		assert.Equal(t, apperrors.CodeSlotTaken, appErr.Code)
	})

	t.Run("rejects a plain error", func(t *testing.T) {
		_, ok := apperrors.AsAppError(fmt.Errorf("boom"))
		assert.False(t, ok)
	})
}

func TestConflictCodes(t *testing.T) {
	assert.Equal(t, apperrors.CodeDailyLimit, apperrors.NewDailyLimitError("quota reached").Code)
	assert.Equal(t, apperrors.CodeSlotTaken, apperrors.NewSlotTakenError("occupied").Code)

	txErr := apperrors.NewTxConflictError("could not complete booking", fmt.Errorf("serialization failure"))
	assert.Equal(t, apperrors.CodeTxConflict, txErr.Code)
	assert.Equal(t, apperrors.ErrorTypeInternal, txErr.Type)
	assert.ErrorContains(t, txErr, "serialization failure")
}
