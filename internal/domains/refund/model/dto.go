package model

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// =====================================================
// SAVE REFUND REQUEST
// =====================================================
// ID absent creates a new refund under review; ID present overwrites the stored
// refund and the caller must then supply the status.
type SaveRefundRequest struct {
	ID          *int64     `json:"id,omitempty"`
	OrderID     *int64     `json:"order_id"`
	Status      *string    `json:"status,omitempty"`
	Description *string    `json:"description,omitempty"`
	CourierID   *int64     `json:"courier_id,omitempty"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
}

// Validate validates SaveRefundRequest
func (req SaveRefundRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.OrderID,
			validation.Required.Error("order reference required"),
			validation.Min(int64(1)),
		),
		validation.Field(&req.ID, validation.NilOrNotEmpty, validation.Min(int64(1))),
		validation.Field(&req.Status,
			validation.When(req.ID != nil, validation.Required.Error("status is required when id is supplied")),
			validation.In(refundStatusValues()...),
		),
		validation.Field(&req.Description, validation.Length(0, MaxDescriptionLength)),
		validation.Field(&req.CourierID, validation.Min(int64(1))),
	)
}

// ToEntity converts the request into a refund; OrderID must be set.
func (req SaveRefundRequest) ToEntity() *Refund {
	refund := &Refund{
		OrderID:     *req.OrderID,
		Description: req.Description,
		CourierID:   req.CourierID,
		ResolvedAt:  req.ResolvedAt,
	}
	if req.ID != nil {
		refund.ID = *req.ID
	}
	if req.Status != nil {
		refund.Status = *req.Status
	}
	return refund
}

// =====================================================
// PARTIAL UPDATE REQUEST
// =====================================================
type PartialUpdateRefundRequest struct {
	ID          int64      `json:"-"`
	OrderID     *int64     `json:"order_id,omitempty"`
	Status      *string    `json:"status,omitempty"`
	Description *string    `json:"description,omitempty"`
	CourierID   *int64     `json:"courier_id,omitempty"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
}

func (req PartialUpdateRefundRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.ID, validation.Required, validation.Min(int64(1))),
		validation.Field(&req.OrderID, validation.Min(int64(1))),
		validation.Field(&req.Status, validation.In(refundStatusValues()...)),
		validation.Field(&req.Description, validation.Length(0, MaxDescriptionLength)),
		validation.Field(&req.CourierID, validation.Min(int64(1))),
	)
}

// ApplyTo copies every non-empty field onto refund; unset fields keep their stored value.
func (req PartialUpdateRefundRequest) ApplyTo(refund *Refund) {
	if req.OrderID != nil && *req.OrderID != 0 {
		refund.OrderID = *req.OrderID
	}
	if req.Status != nil && *req.Status != "" {
		refund.Status = *req.Status
	}
	if req.Description != nil && *req.Description != "" {
		desc := *req.Description
		refund.Description = &desc
	}
	if req.CourierID != nil && *req.CourierID != 0 {
		courierID := *req.CourierID
		refund.CourierID = &courierID
	}
	if req.ResolvedAt != nil && !req.ResolvedAt.IsZero() {
		resolvedAt := *req.ResolvedAt
		refund.ResolvedAt = &resolvedAt
	}
}

// =====================================================
// RESPONSES
// =====================================================
type RefundResponse struct {
	ID          int64      `json:"id"`
	OrderID     int64      `json:"order_id"`
	Status      string     `json:"status"`
	Description *string    `json:"description,omitempty"`
	CourierID   *int64     `json:"courier_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func ToRefundResponse(r *Refund) *RefundResponse {
	if r == nil {
		return nil
	}
	return &RefundResponse{
		ID:          r.ID,
		OrderID:     r.OrderID,
		Status:      r.Status,
		Description: r.Description,
		CourierID:   r.CourierID,
		CreatedAt:   r.CreatedAt,
		ResolvedAt:  r.ResolvedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func ToRefundResponses(refunds []*Refund) []*RefundResponse {
	out := make([]*RefundResponse, 0, len(refunds))
	for _, r := range refunds {
		out = append(out, ToRefundResponse(r))
	}
	return out
}
