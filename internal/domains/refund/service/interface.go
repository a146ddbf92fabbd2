package service

import (
	"context"

	"github.com/xuri/excelize/v2"

	"delivery-backend/internal/domains/refund/model"
)

// RefundService manages the refund lifecycle of an order.
type RefundService interface {
	// Save creates a refund (no id) or overwrites one (id set) after checking the order's refund window.
	Save(ctx context.Context, req model.SaveRefundRequest) (*model.RefundResponse, error)

	// PartialUpdate merges the non-empty fields of req onto the stored refund.
	// found is false when the refund does not exist.
	PartialUpdate(ctx context.Context, req model.PartialUpdateRefundRequest) (resp *model.RefundResponse, found bool, err error)

	FindAll(ctx context.Context) ([]*model.RefundResponse, error)
	FindOne(ctx context.Context, id int64) (resp *model.RefundResponse, found bool, err error)

	// Delete is idempotent.
	Delete(ctx context.Context, id int64) error
}

// ReportService builds the operator and customer refund views.
type ReportService interface {
	RefundsInStudy(ctx context.Context) ([]model.RefundSummary, error)
	ExpiredOrdersForCurrentUser(ctx context.Context) ([]model.ExpiredOrderSummary, error)
	ExportRefundsInStudy(ctx context.Context) (*excelize.File, error)
}

// CleanupService purges orders whose refund window expired long ago.
type CleanupService interface {
	CleanupExpiredOrders(ctx context.Context) (*CleanupResult, error)
}

// AuthContext resolves the caller of the current request.
type AuthContext interface {
	CurrentUserLogin(ctx context.Context) (string, bool)
}
