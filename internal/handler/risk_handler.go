package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/brightpath/coach-admin-api/internal/service"
	appErrors "github.com/brightpath/coach-admin-api/pkg/errors"
	"github.com/brightpath/coach-admin-api/pkg/response"
)

// RiskHandler exposes the derived risk classification endpoints.
type RiskHandler struct {
	risk        *service.RiskService
	enrollments *service.EnrollmentService
}

// NewRiskHandler constructs RiskHandler.
func NewRiskHandler(risk *service.RiskService, enrollments *service.EnrollmentService) *RiskHandler {
	return &RiskHandler{risk: risk, enrollments: enrollments}
}

// asOf reads the optional evaluation instant from the query string. The
// classifier is a pure function of the enrollment and this clock, so exposing
// it makes the board reproducible in support investigations.
func asOf(c *gin.Context) (time.Time, error) {
	raw := c.Query("asOf")
	if raw == "" {
		return time.Now().UTC(), nil
	}
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, "asOf must be RFC3339")
	}
	return ts.UTC(), nil
}

// Board godoc
// @Summary Risk board
// @Description Lists active enrollments with derived risk categories, most urgent first.
// @Tags Risk
// @Produce json
// @Param coachId query string false "Filter by coach"
// @Param asOf query string false "Evaluation instant (RFC3339, defaults to now)"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /risk/board [get]
func (h *RiskHandler) Board(c *gin.Context) {
	now, err := asOf(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	rows, pagination, err := h.risk.Board(c.Request.Context(), enrollmentFilterFromQuery(c), now)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, pagination)
}

// Assess godoc
// @Summary Classify a single enrollment
// @Tags Risk
// @Produce json
// @Param id path string true "Enrollment ID"
// @Param asOf query string false "Evaluation instant (RFC3339, defaults to now)"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /enrollments/{id}/risk [get]
func (h *RiskHandler) Assess(c *gin.Context) {
	now, err := asOf(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	enrollment, err := h.enrollments.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	assessment, err := h.risk.Classify(*enrollment, now)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assessment, nil)
}

// Sweep godoc
// @Summary Run a risk sweep
// @Description Classifies every active enrollment and returns per-category counts.
// @Tags Risk
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /risk/sweep [post]
func (h *RiskHandler) Sweep(c *gin.Context) {
	result, err := h.risk.Sweep(c.Request.Context(), time.Now().UTC())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
