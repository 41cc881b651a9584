package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/brightpath/coach-admin-api/internal/models"
	"github.com/brightpath/coach-admin-api/internal/service"
	appErrors "github.com/brightpath/coach-admin-api/pkg/errors"
	"github.com/brightpath/coach-admin-api/pkg/response"
)

// SettlementHandler exposes payout scheduling and batch settlement.
type SettlementHandler struct {
	settlements *service.SettlementService
}

// NewSettlementHandler constructs SettlementHandler.
func NewSettlementHandler(settlements *service.SettlementService) *SettlementHandler {
	return &SettlementHandler{settlements: settlements}
}

// ListPayouts godoc
// @Summary List payouts
// @Tags Settlements
// @Produce json
// @Param coachId query string false "Filter by coach"
// @Param status query string false "Filter by status"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /payouts [get]
func (h *SettlementHandler) ListPayouts(c *gin.Context) {
	var filter models.PayoutFilter
	filter.CoachID = c.Query("coachId")
	filter.Status = models.PayoutStatus(c.Query("status"))
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	payouts, pagination, err := h.settlements.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, payouts, pagination)
}

// SchedulePayout godoc
// @Summary Schedule a payout
// @Description Creates a scheduled payout; withholding and net amounts are derived from the gross amount.
// @Tags Settlements
// @Accept json
// @Produce json
// @Param payload body service.SchedulePayoutRequest true "Payout payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /payouts [post]
func (h *SettlementHandler) SchedulePayout(c *gin.Context) {
	var req service.SchedulePayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payout payload"))
		return
	}
	req.IP = c.ClientIP()
	req.UserAgent = c.GetHeader("User-Agent")

	payout, err := h.settlements.SchedulePayout(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, payout)
}

// ProcessBatch godoc
// @Summary Settle a payout batch
// @Description Marks a batch of payouts paid (creating withholding ledger entries) or cancels them. The batch applies atomically: one bad payout rejects the whole request.
// @Tags Settlements
// @Accept json
// @Produce json
// @Param payload body service.ProcessBatchRequest true "Batch payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /settlements/batch [post]
func (h *SettlementHandler) ProcessBatch(c *gin.Context) {
	var req service.ProcessBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid batch payload"))
		return
	}
	req.IP = c.ClientIP()
	req.UserAgent = c.GetHeader("User-Agent")

	result, err := h.settlements.ProcessBatch(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
