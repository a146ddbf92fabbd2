package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// =====================================================
// PREDEFINED ERRORS
// =====================================================

var (
	ErrNotFound            = errors.New("resource not found")
	ErrInvalidRequest      = errors.New("invalid request")
	ErrDeadlineExpired     = errors.New("refund deadline expired")
	ErrUnauthenticated     = errors.New("unauthenticated")
	ErrMalformedRow        = errors.New("malformed report row")
	ErrRefundAlreadyActive = errors.New("refund already under review")

	// ErrRefundNotFound is returned by the store; services turn it into an empty result.
	ErrRefundNotFound = errors.New("refund not found")
)

// =====================================================
// CUSTOM REFUND ERROR
// =====================================================

type RefundError struct {
	Code     string
	Message  string
	Err      error
	OrderID  *int64
	RefundID *int64
}

func (e *RefundError) Error() string {
	var b strings.Builder
	b.WriteString(e.Code)
	b.WriteString(": ")
	b.WriteString(e.Message)

	var ctx []string
	if e.OrderID != nil {
		ctx = append(ctx, fmt.Sprintf("order_id=%d", *e.OrderID))
	}
	if e.RefundID != nil {
		ctx = append(ctx, fmt.Sprintf("refund_id=%d", *e.RefundID))
	}
	if len(ctx) > 0 {
		b.WriteString(" (")
		b.WriteString(strings.Join(ctx, ", "))
		b.WriteString(")")
	}

	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *RefundError) Unwrap() error {
	return e.Err
}

// Details returns the diagnostic context exposed to API clients.
func (e *RefundError) Details() map[string]interface{} {
	details := map[string]interface{}{}
	if e.OrderID != nil {
		details["order_id"] = *e.OrderID
	}
	if e.RefundID != nil {
		details["refund_id"] = *e.RefundID
	}
	if len(details) == 0 {
		return nil
	}
	return details
}

// NewRefundError creates a new refund error
func NewRefundError(code, message string, err error) *RefundError {
	return &RefundError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// =====================================================
// ERROR CONSTRUCTORS
// =====================================================

func NewOrderNotFoundError(orderID int64) *RefundError {
	e := NewRefundError(
		ErrCodeNotFound,
		fmt.Sprintf("Order %d not found", orderID),
		ErrNotFound,
	)
	e.OrderID = &orderID
	return e
}

func NewRefundNotFoundError(refundID int64) *RefundError {
	e := NewRefundError(
		ErrCodeNotFound,
		fmt.Sprintf("Refund %d not found", refundID),
		fmt.Errorf("%w: %w", ErrNotFound, ErrRefundNotFound),
	)
	e.RefundID = &refundID
	return e
}

func NewInvalidRequestError(message string, cause error) *RefundError {
	err := ErrInvalidRequest
	if cause != nil {
		err = fmt.Errorf("%w: %v", ErrInvalidRequest, cause)
	}
	return NewRefundError(ErrCodeInvalidRequest, message, err)
}

func NewDeadlineExpiredError(orderID int64, refundID *int64, deadline time.Time) *RefundError {
	e := NewRefundError(
		ErrCodeDeadlineExpired,
		DeadlineExpiredMessage,
		fmt.Errorf("%w at %s", ErrDeadlineExpired, deadline.UTC().Format(time.RFC3339)),
	)
	e.OrderID = &orderID
	e.RefundID = refundID
	return e
}

func NewUnauthenticatedError() *RefundError {
	return NewRefundError(
		ErrCodeUnauthenticated,
		"No authenticated user in request",
		ErrUnauthenticated,
	)
}

func NewMalformedRowError(report string, index int, column string, cause error) *RefundError {
	return NewRefundError(
		ErrCodeMalformedRow,
		fmt.Sprintf("%s row %d: column %s: %v", report, index, column, cause),
		ErrMalformedRow,
	)
}

func NewRefundAlreadyActiveError(orderID int64) *RefundError {
	e := NewRefundError(
		ErrCodeRefundAlreadyActive,
		fmt.Sprintf("Order %d already has a refund under review", orderID),
		ErrRefundAlreadyActive,
	)
	e.OrderID = &orderID
	return e
}
