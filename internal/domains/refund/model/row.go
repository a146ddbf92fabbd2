package model

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar-date format used by report summaries.
const DateLayout = "2006-01-02"

// =====================================================
// STORE ROWS
// =====================================================
// Rows come straight from the reporting joins. Every column is nullable so the
// mapping step can tell a missing value apart from a zero value.

// InStudyRow is one row of the refunds-in-study join.
type InStudyRow struct {
	RefundID    *int64
	OrderDate   *string
	CourierName *string
	RefundDate  *string
	Status      *string
}

// ExpiredOrderRow is one row of the expired-orders join for a user.
type ExpiredOrderRow struct {
	OrderID       *int64
	OrderDate     *string
	Address       *string
	InvoiceAmount *string
	InvoiceID     *int64
	CourierName   *string
	CourierID     *int64
	ExpiryDate    *string
}

// =====================================================
// SUMMARIES
// =====================================================
type RefundSummary struct {
	RefundID    int64     `json:"refund_id"`
	OrderDate   string    `json:"order_date"`
	CourierName string    `json:"courier_name"`
	RefundDate  time.Time `json:"refund_date"`
	Status      string    `json:"status"`
}

type ExpiredOrderSummary struct {
	OrderID       int64           `json:"order_id"`
	OrderDate     string          `json:"order_date"`
	Address       string          `json:"address"`
	InvoiceAmount decimal.Decimal `json:"invoice_amount"`
	InvoiceID     int64           `json:"invoice_id"`
	CourierName   string          `json:"courier_name"`
	CourierID     int64           `json:"courier_id"`
	ExpiryDate    string          `json:"expiry_date"`
}

var errMissing = errors.New("value is missing")

// =====================================================
// MAPPING
// =====================================================

// MapInStudyRow types a refunds-in-study row; index is the row position in the result set.
func MapInStudyRow(row InStudyRow, index int) (RefundSummary, error) {
	malformed := func(column string, err error) (RefundSummary, error) {
		return RefundSummary{}, NewMalformedRowError(ReportInStudy, index, column, err)
	}

	if row.RefundID == nil {
		return malformed("refund_id", errMissing)
	}
	orderDate, err := parseCalendarDate(row.OrderDate)
	if err != nil {
		return malformed("order_date", err)
	}
	courier, err := requireString(row.CourierName)
	if err != nil {
		return malformed("courier_name", err)
	}
	refundDate, err := parseInstant(row.RefundDate)
	if err != nil {
		return malformed("refund_date", err)
	}
	status, err := requireString(row.Status)
	if err != nil {
		return malformed("status", err)
	}
	if !IsValidRefundStatus(status) {
		return malformed("status", fmt.Errorf("unknown refund status %q", status))
	}

	return RefundSummary{
		RefundID:    *row.RefundID,
		OrderDate:   orderDate,
		CourierName: courier,
		RefundDate:  refundDate,
		Status:      status,
	}, nil
}

// MapExpiredOrderRow types an expired-orders row.
func MapExpiredOrderRow(row ExpiredOrderRow, index int) (ExpiredOrderSummary, error) {
	malformed := func(column string, err error) (ExpiredOrderSummary, error) {
		return ExpiredOrderSummary{}, NewMalformedRowError(ReportExpiredOrders, index, column, err)
	}

	if row.OrderID == nil {
		return malformed("order_id", errMissing)
	}
	orderDate, err := parseCalendarDate(row.OrderDate)
	if err != nil {
		return malformed("order_date", err)
	}
	address, err := requireString(row.Address)
	if err != nil {
		return malformed("address", err)
	}
	if row.InvoiceAmount == nil {
		return malformed("invoice_amount", errMissing)
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(*row.InvoiceAmount))
	if err != nil {
		return malformed("invoice_amount", err)
	}
	if row.InvoiceID == nil {
		return malformed("invoice_id", errMissing)
	}
	courier, err := requireString(row.CourierName)
	if err != nil {
		return malformed("courier_name", err)
	}
	if row.CourierID == nil {
		return malformed("courier_id", errMissing)
	}
	expiry, err := parseCalendarDate(row.ExpiryDate)
	if err != nil {
		return malformed("expiry_date", err)
	}

	return ExpiredOrderSummary{
		OrderID:       *row.OrderID,
		OrderDate:     orderDate,
		Address:       address,
		InvoiceAmount: amount,
		InvoiceID:     *row.InvoiceID,
		CourierName:   courier,
		CourierID:     *row.CourierID,
		ExpiryDate:    expiry,
	}, nil
}

func requireString(v *string) (string, error) {
	if v == nil {
		return "", errMissing
	}
	s := strings.TrimSpace(*v)
	if s == "" {
		return "", errMissing
	}
	return s, nil
}

var dateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	DateLayout,
}

// parseCalendarDate accepts an ISO-8601 date or date-time and keeps the date
// part as written, without shifting time zones.
func parseCalendarDate(v *string) (string, error) {
	s, err := requireString(v)
	if err != nil {
		return "", err
	}
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(DateLayout), nil
		}
	}
	return "", fmt.Errorf("invalid ISO-8601 date %q", s)
}

// parseInstant requires a full ISO-8601 timestamp with offset.
func parseInstant(v *string) (time.Time, error) {
	s, err := requireString(v)
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid ISO-8601 instant %q", s)
	}
	return t.UTC(), nil
}
