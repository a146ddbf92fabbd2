package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"delivery-backend/internal/domains/refund/model"
	"delivery-backend/internal/domains/refund/service"
	"delivery-backend/internal/infrastructure/queue"
	"delivery-backend/internal/shared/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// CleanupEnqueuer schedules an expired order sweep on the worker.
type CleanupEnqueuer interface {
	EnqueueCleanup(ctx context.Context, requestedBy string) (taskID string, err error)
}

type RefundHandler struct {
	refundService service.RefundService
	reportService service.ReportService
	enqueuer      CleanupEnqueuer
}

func NewRefundHandler(
	refundService service.RefundService,
	reportService service.ReportService,
	enqueuer CleanupEnqueuer,
) *RefundHandler {
	return &RefundHandler{
		refundService: refundService,
		reportService: reportService,
		enqueuer:      enqueuer,
	}
}

// =====================================================
// LIFECYCLE
// =====================================================

// Create creates a refund for an order
// POST /api/v1/refunds
func (h *RefundHandler) Create(c *gin.Context) {
	var req model.SaveRefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, model.ErrCodeInvalidRequest, "Invalid request body")
		return
	}
	if req.ID != nil {
		response.ErrorResponse(c, http.StatusBadRequest, model.ErrCodeInvalidRequest, "A new refund cannot already have an id")
		return
	}

	result, err := h.refundService.Save(c.Request.Context(), req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, result)
}

// Update overwrites a refund
// PUT /api/v1/refunds/:id
func (h *RefundHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req model.SaveRefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, model.ErrCodeInvalidRequest, "Invalid request body")
		return
	}
	if req.ID != nil && *req.ID != id {
		response.ErrorResponse(c, http.StatusBadRequest, model.ErrCodeInvalidRequest, "Refund id does not match the path")
		return
	}
	req.ID = &id

	result, err := h.refundService.Save(c.Request.Context(), req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// PartialUpdate merges the supplied fields onto a refund
// PATCH /api/v1/refunds/:id
func (h *RefundHandler) PartialUpdate(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req model.PartialUpdateRefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, model.ErrCodeInvalidRequest, "Invalid request body")
		return
	}
	req.ID = id

	result, found, err := h.refundService.PartialUpdate(c.Request.Context(), req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	if !found {
		response.ErrorResponse(c, http.StatusNotFound, model.ErrCodeNotFound, "Refund not found")
		return
	}

	response.Success(c, http.StatusOK, result)
}

// List returns every refund
// GET /api/v1/refunds
func (h *RefundHandler) List(c *gin.Context) {
	refunds, err := h.refundService.FindAll(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, refunds, &response.Meta{Total: len(refunds)})
}

// Get returns one refund
// GET /api/v1/refunds/:id
func (h *RefundHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	result, found, err := h.refundService.FindOne(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	if !found {
		response.ErrorResponse(c, http.StatusNotFound, model.ErrCodeNotFound, "Refund not found")
		return
	}

	response.Success(c, http.StatusOK, result)
}

// Delete removes a refund; unknown ids succeed too
// DELETE /api/v1/refunds/:id
func (h *RefundHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.refundService.Delete(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// =====================================================
// REPORTS
// =====================================================

// InStudy lists refunds waiting for review
// GET /api/v1/refunds/in-study
func (h *RefundHandler) InStudy(c *gin.Context) {
	summaries, err := h.reportService.RefundsInStudy(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, summaries, &response.Meta{Total: len(summaries)})
}

// ExportInStudy downloads the in-study report as xlsx
// GET /api/v1/refunds/in-study/export
func (h *RefundHandler) ExportInStudy(c *gin.Context) {
	f, err := h.reportService.ExportRefundsInStudy(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	defer f.Close()

	buf, err := f.WriteToBuffer()
	if err != nil {
		log.Error().Err(err).Msg("failed to write refunds excel")
		response.InternalServerError(c, "Failed to build export")
		return
	}

	filename := fmt.Sprintf("refunds_in_study_%s.xlsx", time.Now().Format("20060102_150405"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// ExpiredOrders lists the caller's expired orders
// GET /api/v1/refunds/expired-orders
func (h *RefundHandler) ExpiredOrders(c *gin.Context) {
	summaries, err := h.reportService.ExpiredOrdersForCurrentUser(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, summaries, &response.Meta{Total: len(summaries)})
}

// =====================================================
// ADMIN
// =====================================================

// TriggerCleanup enqueues an expired order sweep
// POST /api/v1/admin/refunds/cleanup
func (h *RefundHandler) TriggerCleanup(c *gin.Context) {
	requestedBy := c.GetString("login")
	if requestedBy == "" {
		requestedBy = "admin"
	}

	taskID, err := h.enqueuer.EnqueueCleanup(c.Request.Context(), requestedBy)
	if errors.Is(err, queue.ErrCleanupAlreadyQueued) {
		response.ErrorResponse(c, http.StatusConflict, "JOB_ALREADY_QUEUED", "A cleanup run is already queued")
		return
	}
	if err != nil {
		log.Error().Err(err).Str("requested_by", requestedBy).Msg("failed to enqueue cleanup")
		response.InternalServerError(c, "Failed to enqueue cleanup")
		return
	}

	response.Success(c, http.StatusAccepted, gin.H{"task_id": taskID})
}

// =====================================================
// HELPERS
// =====================================================

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.ErrorResponse(c, http.StatusBadRequest, model.ErrCodeInvalidRequest, "Invalid refund id")
		return 0, false
	}
	return id, true
}

// handleServiceError maps service errors to HTTP responses
func (h *RefundHandler) handleServiceError(c *gin.Context, err error) {
	var refundErr *model.RefundError
	if errors.As(err, &refundErr) {
		statusCode := getHTTPStatusFromErrorCode(refundErr.Code)
		if statusCode >= http.StatusInternalServerError {
			log.Error().Err(err).Str("request_id", c.GetString("request_id")).Msg("refund request failed")
		}
		if details := refundErr.Details(); details != nil {
			response.ErrorWithDetails(c, statusCode, refundErr.Code, refundErr.Message, details)
			return
		}
		response.ErrorResponse(c, statusCode, refundErr.Code, refundErr.Message)
		return
	}

	log.Error().Err(err).Str("request_id", c.GetString("request_id")).Msg("refund request failed")
	response.InternalServerError(c, "Internal server error")
}

// getHTTPStatusFromErrorCode maps business error codes to HTTP status codes
func getHTTPStatusFromErrorCode(code string) int {
	statusMap := map[string]int{
		model.ErrCodeNotFound:            http.StatusNotFound,
		model.ErrCodeInvalidRequest:      http.StatusBadRequest,
		model.ErrCodeDeadlineExpired:     http.StatusBadRequest,
		model.ErrCodeUnauthenticated:     http.StatusUnauthorized,
		model.ErrCodeMalformedRow:        http.StatusInternalServerError,
		model.ErrCodeRefundAlreadyActive: http.StatusConflict,
	}

	if status, exists := statusMap[code]; exists {
		return status
	}
	return http.StatusInternalServerError
}
