package handler

import (
	"net/http"

	"rentalyard/internal/middleware"
	"rentalyard/internal/service"
	"rentalyard/pkg/pagination"
	"rentalyard/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuditHandler struct {
	auditService   service.AuditService
	caAuditService service.CAAuditService
	auth           *middleware.Auth
}

func NewAuditHandler(auditService service.AuditService, caAuditService service.CAAuditService, auth *middleware.Auth) *AuditHandler {
	return &AuditHandler{auditService: auditService, caAuditService: caAuditService, auth: auth}
}

func (h *AuditHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/api/audit-logs")
	group.Use(h.auth.RequireRole(middleware.RoleAdmin, middleware.RoleManager)) // Protect history logs
	{
		group.GET("", h.GetAuditLogs)
		group.GET("/ca-consistency", h.GetCAConsistency)
	}
}

// GetAuditLogs retrieves paginated audit entries, newest first
// @Summary      Get audit logs
// @Description  Retrieves the audit trail of equipment changes
// @Tags         audit
// @Security     BearerAuth
// @Produce      json
// @Param        page       query     int     false  "Page number (default 1)"
// @Param        limit      query     int     false  "Number of items per page (default 20)"
// @Param        action     query     string  false  "Filter by action, e.g. RETURN_EQUIPMENT"
// @Param        entity_id  query     string  false  "Filter by equipment ID"
// @Success      200        {object}  response.Response{data=object}
// @Router       /api/audit-logs [get]
func (h *AuditHandler) GetAuditLogs(c *gin.Context) {
	p := pagination.Parse(c)
	filter := service.AuditLogFilter{
		Action:   c.Query("action"),
		EntityID: c.Query("entity_id"),
	}

	logs, total, err := h.auditService.GetAuditLogs(c.Request.Context(), filter, p.Page, p.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to retrieve audit logs: "+err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, p.Envelope("logs", logs, total)))
}

// GetCAConsistency recomputes every stored CA without writing anything
// @Summary      CA consistency report
// @Description  Recomputes CA from each rental episode's stored inputs and lists mismatches. Read-only; corrections go through the ca-audit command.
// @Tags         audit
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=service.CAAuditReport}
// @Failure      500  {object}  response.Response
// @Router       /api/audit-logs/ca-consistency [get]
func (h *AuditHandler) GetCAConsistency(c *gin.Context) {
	report, err := h.caAuditService.Audit(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, report))
}
