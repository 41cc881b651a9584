package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/brightpath/coach-admin-api/internal/middleware"
	"github.com/brightpath/coach-admin-api/internal/service"
	appErrors "github.com/brightpath/coach-admin-api/pkg/errors"
	"github.com/brightpath/coach-admin-api/pkg/response"
)

// ReportHandler exposes withholding reporting endpoints.
type ReportHandler struct {
	reports *service.ReportService
}

// NewReportHandler constructs handler.
func NewReportHandler(reports *service.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

func reportPeriod(c *gin.Context) (string, string, error) {
	quarter := c.Query("quarter")
	fiscalYear := c.Query("fiscalYear")
	if quarter == "" || fiscalYear == "" {
		return "", "", appErrors.Clone(appErrors.ErrValidation, "quarter and fiscalYear required")
	}
	return quarter, fiscalYear, nil
}

// Withholding godoc
// @Summary Quarterly withholding report
// @Description Aggregates withholding ledger entries for one fiscal quarter (April-March fiscal calendar).
// @Tags Reports
// @Produce json
// @Param quarter query string true "Fiscal quarter (Q1..Q4)"
// @Param fiscalYear query string true "Fiscal year label, e.g. 2026-27"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /reports/withholding [get]
func (h *ReportHandler) Withholding(c *gin.Context) {
	quarter, fiscalYear, err := reportPeriod(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	report, cached, err := h.reports.Withholding(c.Request.Context(), quarter, fiscalYear)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cached)
	response.JSON(c, http.StatusOK, report, nil, middleware.ExtractMeta(c))
}

// WithholdingCSV godoc
// @Summary Quarterly withholding report as CSV
// @Tags Reports
// @Produce text/csv
// @Param quarter query string true "Fiscal quarter (Q1..Q4)"
// @Param fiscalYear query string true "Fiscal year label, e.g. 2026-27"
// @Success 200 {string} string "CSV payload"
// @Router /reports/withholding/csv [get]
func (h *ReportHandler) WithholdingCSV(c *gin.Context) {
	quarter, fiscalYear, err := reportPeriod(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	payload, err := h.reports.WithholdingCSV(c.Request.Context(), quarter, fiscalYear)
	if err != nil {
		response.Error(c, err)
		return
	}
	filename := fmt.Sprintf("withholding-%s-%s.csv", fiscalYear, quarter)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv", payload)
}

// WithholdingPDF godoc
// @Summary Quarterly withholding report as PDF
// @Tags Reports
// @Produce application/pdf
// @Param quarter query string true "Fiscal quarter (Q1..Q4)"
// @Param fiscalYear query string true "Fiscal year label, e.g. 2026-27"
// @Success 200 {string} string "PDF payload"
// @Router /reports/withholding/pdf [get]
func (h *ReportHandler) WithholdingPDF(c *gin.Context) {
	quarter, fiscalYear, err := reportPeriod(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	payload, err := h.reports.WithholdingPDF(c.Request.Context(), quarter, fiscalYear)
	if err != nil {
		response.Error(c, err)
		return
	}
	filename := fmt.Sprintf("withholding-%s-%s.pdf", fiscalYear, quarter)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", payload)
}
