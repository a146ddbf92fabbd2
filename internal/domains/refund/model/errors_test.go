package model

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDeadlineExpiredErrorCarriesContext(t *testing.T) {
	deadline := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	err := NewDeadlineExpiredError(42, int64Ptr(5), deadline)

	assert.True(t, errors.Is(err, ErrDeadlineExpired))
	assert.Equal(t, ErrCodeDeadlineExpired, err.Code)
	assert.Equal(t, DeadlineExpiredMessage, err.Message)
	assert.Contains(t, err.Error(), "order_id=42")
	assert.Contains(t, err.Error(), "refund_id=5")
	assert.Equal(t, map[string]interface{}{"order_id": int64(42), "refund_id": int64(5)}, err.Details())
}

func TestRefundErrorUnwrapsThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("save refund: %w", NewOrderNotFoundError(3))

	var refundErr *RefundError
	assert.True(t, errors.As(wrapped, &refundErr))
	assert.Equal(t, ErrCodeNotFound, refundErr.Code)
	assert.True(t, errors.Is(wrapped, ErrNotFound))
}

func TestInvalidRequestErrorKeepsCause(t *testing.T) {
	err := NewInvalidRequestError("order reference required", errors.New("order_id: cannot be blank"))

	assert.True(t, errors.Is(err, ErrInvalidRequest))
	assert.Contains(t, err.Error(), "cannot be blank")
	assert.Nil(t, err.Details())
}

func TestIsValidRefundStatus(t *testing.T) {
	for _, s := range ValidRefundStatuses {
		assert.True(t, IsValidRefundStatus(s), s)
	}
	assert.False(t, IsValidRefundStatus("refund_under_review"))
	assert.False(t, IsValidRefundStatus(""))
}
