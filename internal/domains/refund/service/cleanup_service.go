package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"

	"delivery-backend/internal/config"
	orderrepo "delivery-backend/internal/domains/order/repository"
	repo "delivery-backend/internal/domains/refund/repository"
	"delivery-backend/internal/infrastructure/lock"
	"delivery-backend/pkg/cache"
)

// CleanupLockKey serialises sweeps across workers.
const CleanupLockKey = "refund:cleanup:expired_orders"

const (
	defaultCleanupBatchSize = 100
	defaultCleanupLockTTL   = 15 * time.Minute
)

// CleanupResult summarises one sweep.
type CleanupResult struct {
	RunID          string    `json:"run_id"`
	Skipped        bool      `json:"skipped"`
	Marked         int64     `json:"marked"`
	Purged         int       `json:"purged"`
	SkippedOrders  int       `json:"skipped_orders"`
	RefundsDeleted int64     `json:"refunds_deleted"`
	Cutoff         time.Time `json:"cutoff"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
}

// =====================================================
// CLEANUP SERVICE IMPLEMENTATION
// =====================================================
type cleanupService struct {
	orderRepo  orderrepo.OrderRepository
	refundRepo repo.RefundRepository
	txManager  repo.TransactionManager
	locker     lock.Locker
	cache      cache.Cache
	cfg        config.JobConfig

	now func() time.Time
}

func NewCleanupService(
	orderRepo orderrepo.OrderRepository,
	refundRepo repo.RefundRepository,
	txManager repo.TransactionManager,
	locker lock.Locker,
	cache cache.Cache,
	cfg config.JobConfig,
) CleanupService {
	return &cleanupService{
		orderRepo:  orderRepo,
		refundRepo: refundRepo,
		txManager:  txManager,
		locker:     locker,
		cache:      cache,
		cfg:        cfg,
		now:        time.Now,
	}
}

// CleanupExpiredOrders marks orders whose refund window closed and purges the
// ones that stayed expired past the retention period.
//
// Flow:
// 1. Take the cleanup lock; busy lock means another sweep is running (Skipped)
// 2. Mark created orders past their deadline as refund_expired
// 3. Page expired ids past retention, purge each in its own transaction
func (s *cleanupService) CleanupExpiredOrders(ctx context.Context) (*CleanupResult, error) {
	result := &CleanupResult{
		RunID:     uuid.NewString(),
		StartedAt: s.now(),
	}
	logger := log.With().Str("run_id", result.RunID).Logger()

	lockTTL := s.cfg.LockTTL
	if lockTTL <= 0 {
		lockTTL = defaultCleanupLockTTL
	}

	release, err := s.locker.Acquire(ctx, CleanupLockKey, lockTTL)
	if err != nil {
		if errors.Is(err, lock.ErrNotAcquired) {
			logger.Info().Msg("expired order cleanup already running, skipping")
			result.Skipped = true
			result.FinishedAt = s.now()
			return result, nil
		}
		return nil, fmt.Errorf("failed to acquire cleanup lock: %w", err)
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			logger.Warn().Err(err).Msg("failed to release cleanup lock")
		}
	}()

	now := s.now()
	result.Cutoff = now.Add(-s.cfg.Retention())

	// Step 2: Mark
	if err := s.markExpired(ctx, now, result); err != nil {
		return nil, err
	}

	// Step 3: Purge
	if err := s.purgeExpired(ctx, result); err != nil {
		logger.Error().Err(err).
			Int("purged", result.Purged).
			Msg("expired order cleanup aborted")
		return result, err
	}

	if result.Marked > 0 || result.Purged > 0 {
		if s.cache != nil {
			if err := s.cache.DeletePattern(ctx, cacheKeyReportPattern); err != nil {
				logger.Warn().Err(err).Msg("failed to invalidate refund reports")
			}
		}
	}

	result.FinishedAt = s.now()
	logger.Info().
		Int64("marked", result.Marked).
		Int("purged", result.Purged).
		Int("skipped_orders", result.SkippedOrders).
		Int64("refunds_deleted", result.RefundsDeleted).
		Dur("duration", result.FinishedAt.Sub(result.StartedAt)).
		Msg("expired order cleanup finished")

	return result, nil
}

// markExpired flips overdue orders in batches, each batch its own statement.
func (s *cleanupService) markExpired(ctx context.Context, now time.Time, result *CleanupResult) error {
	batchSize := s.batchSize()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		marked, err := s.orderRepo.MarkRefundExpired(ctx, now, batchSize)
		if err != nil {
			return err
		}
		result.Marked += marked

		if marked < int64(batchSize) {
			return nil
		}
	}
}

func (s *cleanupService) batchSize() int {
	if s.cfg.BatchSize <= 0 {
		return defaultCleanupBatchSize
	}
	return s.cfg.BatchSize
}

func (s *cleanupService) purgeExpired(ctx context.Context, result *CleanupResult) error {
	batchSize := s.batchSize()

	var afterID int64
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		ids, err := s.orderRepo.ListExpiredBefore(ctx, result.Cutoff, afterID, batchSize)
		if err != nil {
			return err
		}

		for _, id := range ids {
			purged, refunds, err := s.purgeOrder(ctx, id, result.Cutoff)
			if err != nil {
				return fmt.Errorf("failed to purge order %d: %w", id, err)
			}
			if !purged {
				result.SkippedOrders++
				continue
			}
			result.Purged++
			result.RefundsDeleted += refunds
		}

		if len(ids) < batchSize {
			return nil
		}
		afterID = ids[len(ids)-1]
	}
}

// purgeOrder deletes one order and its refunds. Orders that left the expired
// state or are locked by a live request are left alone.
func (s *cleanupService) purgeOrder(ctx context.Context, id int64, cutoff time.Time) (bool, int64, error) {
	var (
		purged  bool
		refunds int64
	)

	err := s.txManager.WithinTx(ctx, func(tx pgx.Tx) error {
		order, err := s.orderRepo.LockExpiredWithTx(ctx, tx, id, cutoff)
		if err != nil {
			return err
		}
		if order == nil || !order.EligibleForPurge(cutoff) {
			return nil
		}

		n, err := s.refundRepo.DeleteByOrderWithTx(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := s.orderRepo.DeleteWithTx(ctx, tx, id); err != nil {
			return err
		}

		purged, refunds = true, n
		return nil
	})
	if err != nil {
		return false, 0, err
	}

	return purged, refunds, nil
}
