package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"

	"delivery-backend/internal/domains/refund/model"
	repo "delivery-backend/internal/domains/refund/repository"
	"delivery-backend/pkg/cache"
)

const (
	cacheKeyInStudy       = "refund:report:in_study"
	cacheKeyExpiredPrefix = "refund:report:expired_orders:"
	cacheKeyReportPattern = "refund:report:*"
	inStudySheetName      = "Refunds in study"
)

func expiredOrdersCacheKey(login string) string {
	return cacheKeyExpiredPrefix + login
}

// =====================================================
// REPORT SERVICE IMPLEMENTATION
// =====================================================
type reportService struct {
	refundRepo repo.RefundRepository
	auth       AuthContext
	cache      cache.Cache
	cacheTTL   time.Duration
}

// NewReportService builds the reporting views. A nil cache or zero ttl disables caching.
func NewReportService(
	refundRepo repo.RefundRepository,
	auth AuthContext,
	cache cache.Cache,
	cacheTTL time.Duration,
) ReportService {
	return &reportService{
		refundRepo: refundRepo,
		auth:       auth,
		cache:      cache,
		cacheTTL:   cacheTTL,
	}
}

func (s *reportService) RefundsInStudy(ctx context.Context) ([]model.RefundSummary, error) {
	return cachedReport(ctx, s, cacheKeyInStudy, func() ([]model.RefundSummary, error) {
		rows, err := s.refundRepo.ListInStudyRows(ctx)
		if err != nil {
			return nil, err
		}

		summaries := make([]model.RefundSummary, 0, len(rows))
		for i, row := range rows {
			summary, err := model.MapInStudyRow(row, i)
			if err != nil {
				return nil, err
			}
			summaries = append(summaries, summary)
		}
		return summaries, nil
	})
}

func (s *reportService) ExpiredOrdersForCurrentUser(ctx context.Context) ([]model.ExpiredOrderSummary, error) {
	login, ok := s.auth.CurrentUserLogin(ctx)
	if !ok {
		return nil, model.NewUnauthenticatedError()
	}

	return cachedReport(ctx, s, expiredOrdersCacheKey(login), func() ([]model.ExpiredOrderSummary, error) {
		rows, err := s.refundRepo.ListExpiredRowsByUser(ctx, login)
		if err != nil {
			return nil, err
		}

		summaries := make([]model.ExpiredOrderSummary, 0, len(rows))
		for i, row := range rows {
			summary, err := model.MapExpiredOrderRow(row, i)
			if err != nil {
				return nil, err
			}
			summaries = append(summaries, summary)
		}
		return summaries, nil
	})
}

// cachedReport serves key from the cache or loads and stores it.
// Cache errors are logged and the report is loaded from the database.
func cachedReport[T any](ctx context.Context, s *reportService, key string, load func() (T, error)) (T, error) {
	useCache := s.cache != nil && s.cacheTTL > 0

	if useCache {
		var cached T
		found, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			log.Warn().Err(err).Str("key", key).Msg("report cache read failed")
		} else if found {
			return cached, nil
		}
	}

	result, err := load()
	if err != nil {
		var zero T
		return zero, err
	}

	if useCache {
		if err := s.cache.Set(ctx, key, result, s.cacheTTL); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("report cache write failed")
		}
	}

	return result, nil
}

// =====================================================
// EXCEL EXPORT
// =====================================================

func (s *reportService) ExportRefundsInStudy(ctx context.Context) (*excelize.File, error) {
	summaries, err := s.RefundsInStudy(ctx)
	if err != nil {
		return nil, err
	}

	f, err := buildInStudyExcelFile(summaries)
	if err != nil {
		return nil, fmt.Errorf("failed to build excel file: %w", err)
	}
	return f, nil
}

func buildInStudyExcelFile(summaries []model.RefundSummary) (*excelize.File, error) {
	f := excelize.NewFile()

	// Đổi tên sheet mặc định
	if err := f.SetSheetName("Sheet1", inStudySheetName); err != nil {
		return nil, err
	}

	headers := []string{"Refund ID", "Order Date", "Courier", "Refund Date", "Status"}
	for colIdx, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(colIdx+1, 1)
		f.SetCellValue(inStudySheetName, cell, header)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err == nil {
		f.SetCellStyle(inStudySheetName, "A1", "E1", headerStyle)
	}

	// Data rows bắt đầu từ row 2
	for i, sm := range summaries {
		rowNum := i + 2
		cellAt := func(col int) string {
			cell, _ := excelize.CoordinatesToCellName(col, rowNum)
			return cell
		}

		f.SetCellValue(inStudySheetName, cellAt(1), sm.RefundID)
		f.SetCellValue(inStudySheetName, cellAt(2), sm.OrderDate)
		f.SetCellValue(inStudySheetName, cellAt(3), sm.CourierName)
		f.SetCellValue(inStudySheetName, cellAt(4), sm.RefundDate.Format(time.RFC3339))
		f.SetCellValue(inStudySheetName, cellAt(5), sm.Status)
	}

	f.SetColWidth(inStudySheetName, "B", "D", 22)

	return f, nil
}
