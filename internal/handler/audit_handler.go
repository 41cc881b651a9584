package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/brightpath/coach-admin-api/internal/models"
	appErrors "github.com/brightpath/coach-admin-api/pkg/errors"
	"github.com/brightpath/coach-admin-api/pkg/response"
)

type auditTrail interface {
	ListByResource(ctx context.Context, resource string, limit int) ([]models.AuditLog, error)
}

// AuditHandler exposes the compliance audit trail.
type AuditHandler struct {
	audit auditTrail
}

// NewAuditHandler constructs AuditHandler.
func NewAuditHandler(audit auditTrail) *AuditHandler {
	return &AuditHandler{audit: audit}
}

// List godoc
// @Summary Audit trail for a resource
// @Description Returns recent audit entries for one resource, newest first.
// @Tags Audit
// @Produce json
// @Param resource query string true "Resource name (enrollments, payouts, auth)"
// @Param limit query int false "Max entries (default 50)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /audit [get]
func (h *AuditHandler) List(c *gin.Context) {
	resource := c.Query("resource")
	if resource == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "resource is required"))
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	logs, err := h.audit.ListByResource(c.Request.Context(), resource, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, logs, nil)
}
