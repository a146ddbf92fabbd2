package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"

	"delivery-backend/internal/config"
	ordermodel "delivery-backend/internal/domains/order/model"
	orderrepo "delivery-backend/internal/domains/order/repository"
	"delivery-backend/internal/domains/refund/model"
	repo "delivery-backend/internal/domains/refund/repository"
	"delivery-backend/pkg/cache"
)

// =====================================================
// REFUND SERVICE IMPLEMENTATION
// =====================================================
type refundService struct {
	refundRepo repo.RefundRepository
	orderRepo  orderrepo.OrderRepository
	txManager  repo.TransactionManager
	cache      cache.Cache
	cfg        config.RefundConfig

	now func() time.Time
}

func NewRefundService(
	refundRepo repo.RefundRepository,
	orderRepo orderrepo.OrderRepository,
	txManager repo.TransactionManager,
	cache cache.Cache,
	cfg config.RefundConfig,
) RefundService {
	return &refundService{
		refundRepo: refundRepo,
		orderRepo:  orderRepo,
		txManager:  txManager,
		cache:      cache,
		cfg:        cfg,
		now:        time.Now,
	}
}

// =====================================================
// SAVE
// =====================================================

// Save creates or overwrites a refund.
//
// Business Logic:
// 1. Validate request (order reference required, status required on update)
// 2. Lock the order row
// 3. Move the order to refund_under_review
// 4. Deadline passed: commit the order change, reject the refund
// 5. New refund: status under_review, single-active policy
// 6. Persist refund and commit
func (s *refundService) Save(ctx context.Context, req model.SaveRefundRequest) (*model.RefundResponse, error) {
	// Step 1: Validate request
	if req.OrderID == nil {
		return nil, model.NewInvalidRequestError("order reference required", nil)
	}
	if err := req.Validate(); err != nil {
		return nil, model.NewInvalidRequestError("invalid refund request", err)
	}
	orderID := *req.OrderID

	tx, err := s.txManager.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer s.txManager.RollbackTx(ctx, tx)

	// Step 2: Lock order
	order, err := s.orderRepo.GetByIDForUpdateWithTx(ctx, tx, orderID)
	if err != nil {
		if errors.Is(err, ordermodel.ErrOrderNotFound) {
			return nil, model.NewOrderNotFoundError(orderID)
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}

	// Step 3: Order enters review before the window is checked
	if err := s.orderRepo.UpdateStatusWithTx(ctx, tx, order.ID, ordermodel.OrderStatusRefundUnderReview); err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	// Step 4: Refund window
	now := s.now()
	if order.RefundWindowClosed(now) {
		if err := s.txManager.CommitTx(ctx, tx); err != nil {
			return nil, err
		}
		s.invalidateReports(ctx, order.UserLogin)

		log.Warn().
			Int64("order_id", order.ID).
			Time("refund_deadline", order.RefundDeadline).
			Msg("refund rejected: deadline expired")
		return nil, model.NewDeadlineExpiredError(order.ID, req.ID, order.RefundDeadline)
	}

	// Step 5: Build refund
	refund := req.ToEntity()
	if refund.IsNew() {
		refund.Status = model.RefundStatusUnderReview
		refund.CreatedAt = now

		if !s.cfg.AllowMultipleActive {
			active, err := s.refundRepo.CountActiveByOrderWithTx(ctx, tx, order.ID)
			if err != nil {
				return nil, err
			}
			if active > 0 {
				return nil, model.NewRefundAlreadyActiveError(order.ID)
			}
		}
	}

	// Step 6: Persist
	if err := s.refundRepo.SaveWithTx(ctx, tx, refund); err != nil {
		if errors.Is(err, model.ErrRefundNotFound) {
			return nil, model.NewRefundNotFoundError(refund.ID)
		}
		return nil, err
	}

	if err := s.txManager.CommitTx(ctx, tx); err != nil {
		return nil, err
	}
	s.invalidateReports(ctx, order.UserLogin)

	log.Info().
		Int64("refund_id", refund.ID).
		Int64("order_id", refund.OrderID).
		Str("status", refund.Status).
		Msg("refund saved")

	return model.ToRefundResponse(refund), nil
}

// =====================================================
// PARTIAL UPDATE
// =====================================================

func (s *refundService) PartialUpdate(ctx context.Context, req model.PartialUpdateRefundRequest) (*model.RefundResponse, bool, error) {
	if err := req.Validate(); err != nil {
		return nil, false, model.NewInvalidRequestError("invalid refund update", err)
	}

	var updated *model.Refund
	err := s.txManager.WithinTx(ctx, func(tx pgx.Tx) error {
		refund, err := s.refundRepo.FindByIDWithTx(ctx, tx, req.ID)
		if err != nil {
			return err
		}

		req.ApplyTo(refund)

		if err := s.refundRepo.SaveWithTx(ctx, tx, refund); err != nil {
			return err
		}
		updated = refund
		return nil
	})
	if err != nil {
		if errors.Is(err, model.ErrRefundNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}

	s.invalidateReports(ctx)

	return model.ToRefundResponse(updated), true, nil
}

// =====================================================
// QUERIES
// =====================================================

func (s *refundService) FindAll(ctx context.Context) ([]*model.RefundResponse, error) {
	refunds, err := s.refundRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return model.ToRefundResponses(refunds), nil
}

func (s *refundService) FindOne(ctx context.Context, id int64) (*model.RefundResponse, bool, error) {
	refund, err := s.refundRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrRefundNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return model.ToRefundResponse(refund), true, nil
}

// =====================================================
// DELETE
// =====================================================

func (s *refundService) Delete(ctx context.Context, id int64) error {
	err := s.txManager.WithinTx(ctx, func(tx pgx.Tx) error {
		return s.refundRepo.DeleteWithTx(ctx, tx, id)
	})
	if err != nil {
		return err
	}

	s.invalidateReports(ctx)
	return nil
}

// invalidateReports drops the in-study report and the expired-order reports of logins.
// Cache failures only cost freshness until the TTL runs out.
func (s *refundService) invalidateReports(ctx context.Context, logins ...string) {
	if s.cache == nil {
		return
	}

	keys := []string{cacheKeyInStudy}
	for _, login := range logins {
		if login != "" {
			keys = append(keys, expiredOrdersCacheKey(login))
		}
	}

	if err := s.cache.Delete(ctx, keys...); err != nil {
		log.Warn().Err(err).Strs("keys", keys).Msg("failed to invalidate refund reports")
	}
}
