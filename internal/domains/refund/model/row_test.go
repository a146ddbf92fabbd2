package model

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInStudyRow() InStudyRow {
	return InStudyRow{
		RefundID:    int64Ptr(11),
		OrderDate:   strPtr("2025-02-28T23:15:00-05:00"),
		CourierName: strPtr("Rapidisimo"),
		RefundDate:  strPtr("2025-03-02T08:00:00Z"),
		Status:      strPtr(RefundStatusUnderReview),
	}
}

func TestMapInStudyRow(t *testing.T) {
	summary, err := MapInStudyRow(validInStudyRow(), 0)
	require.NoError(t, err)

	assert.Equal(t, int64(11), summary.RefundID)
	assert.Equal(t, "2025-02-28", summary.OrderDate)
	assert.Equal(t, "Rapidisimo", summary.CourierName)
	assert.True(t, time.Date(2025, 3, 2, 8, 0, 0, 0, time.UTC).Equal(summary.RefundDate))
	assert.Equal(t, RefundStatusUnderReview, summary.Status)
}

func TestMapInStudyRowDateOnly(t *testing.T) {
	row := validInStudyRow()
	row.OrderDate = strPtr("2025-02-28")

	summary, err := MapInStudyRow(row, 0)
	require.NoError(t, err)
	assert.Equal(t, "2025-02-28", summary.OrderDate)
}

func TestMapInStudyRowMalformed(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*InStudyRow)
		column string
	}{
		{name: "missing id", mutate: func(r *InStudyRow) { r.RefundID = nil }, column: "refund_id"},
		{name: "bad order date", mutate: func(r *InStudyRow) { r.OrderDate = strPtr("28/02/2025") }, column: "order_date"},
		{name: "blank courier", mutate: func(r *InStudyRow) { r.CourierName = strPtr("  ") }, column: "courier_name"},
		{name: "refund date without offset", mutate: func(r *InStudyRow) { r.RefundDate = strPtr("2025-03-02") }, column: "refund_date"},
		{name: "unknown status", mutate: func(r *InStudyRow) { r.Status = strPtr("lost") }, column: "status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := validInStudyRow()
			tt.mutate(&row)

			_, err := MapInStudyRow(row, 3)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedRow))

			var refundErr *RefundError
			require.True(t, errors.As(err, &refundErr))
			assert.Equal(t, ErrCodeMalformedRow, refundErr.Code)
			assert.Contains(t, refundErr.Message, "row 3")
			assert.Contains(t, refundErr.Message, tt.column)
		})
	}
}

func validExpiredRow() ExpiredOrderRow {
	return ExpiredOrderRow{
		OrderID:       int64Ptr(42),
		OrderDate:     strPtr("2024-12-01T10:00:00Z"),
		Address:       strPtr("Calle 10 # 5-20"),
		InvoiceAmount: strPtr("125000.505"),
		InvoiceID:     int64Ptr(900),
		CourierName:   strPtr("Veloz"),
		CourierID:     int64Ptr(3),
		ExpiryDate:    strPtr("2024-12-31"),
	}
}

func TestMapExpiredOrderRow(t *testing.T) {
	summary, err := MapExpiredOrderRow(validExpiredRow(), 0)
	require.NoError(t, err)

	assert.Equal(t, int64(42), summary.OrderID)
	assert.Equal(t, "2024-12-01", summary.OrderDate)
	assert.Equal(t, "Calle 10 # 5-20", summary.Address)
	assert.True(t, decimal.RequireFromString("125000.505").Equal(summary.InvoiceAmount))
	assert.Equal(t, int64(900), summary.InvoiceID)
	assert.Equal(t, "Veloz", summary.CourierName)
	assert.Equal(t, int64(3), summary.CourierID)
	assert.Equal(t, "2024-12-31", summary.ExpiryDate)
}

func TestMapExpiredOrderRowMalformed(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ExpiredOrderRow)
	}{
		{name: "bad amount", mutate: func(r *ExpiredOrderRow) { r.InvoiceAmount = strPtr("12,5") }},
		{name: "missing amount", mutate: func(r *ExpiredOrderRow) { r.InvoiceAmount = nil }},
		{name: "bad expiry", mutate: func(r *ExpiredOrderRow) { r.ExpiryDate = strPtr("soon") }},
		{name: "missing courier id", mutate: func(r *ExpiredOrderRow) { r.CourierID = nil }},
		{name: "missing address", mutate: func(r *ExpiredOrderRow) { r.Address = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := validExpiredRow()
			tt.mutate(&row)

			_, err := MapExpiredOrderRow(row, 1)
			assert.ErrorIs(t, err, ErrMalformedRow)
		})
	}
}
