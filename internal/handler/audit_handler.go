package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuditHandler struct {
	svc service.AuditService
}

func NewAuditHandler(svc service.AuditService) *AuditHandler {
	return &AuditHandler{svc: svc}
}

func (h *AuditHandler) RegisterRoutes(router *gin.RouterGroup) {
	audit := router.Group("/audit", middleware.RequireAuth())
	{
		audit.GET("", h.List)
		audit.GET("/recent", h.Recent)
	}
}

// List returns audit entries visible to the caller
// @Summary      List audit log
// @Description  Superusers see everything; other users see their own actions plus those of accounts they created.
// @Tags         audit
// @Produce      json
// @Security     BearerAuth
// @Param        user    query     string  false  "Filter by actor email substring"
// @Param        action  query     string  false  "Filter by action"
// @Param        page    query     int     false  "Page"
// @Param        limit   query     int     false  "Page size"
// @Success      200     {object}  response.Response{data=[]service.AuditLogResponse}
// @Router       /audit [get]
func (h *AuditHandler) List(c *gin.Context) {
	p := pagination.Parse(c)
	filter := service.AuditFilter{
		UserEmail: c.Query("user"),
		Action:    c.Query("action"),
		Page:      p.Page,
		Limit:     p.Limit,
	}
	logs, total, err := h.svc.List(c.Request.Context(), middleware.CurrentActor(c), filter)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{
		"results": logs,
		"total":   total,
		"page":    p.Page,
		"limit":   p.Limit,
	}))
}

// Recent returns the latest visible entries with relative timestamps
// @Summary      Recent activity
// @Tags         audit
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]service.RecentActivity}
// @Router       /audit/recent [get]
func (h *AuditHandler) Recent(c *gin.Context) {
	activity, err := h.svc.Recent(c.Request.Context(), middleware.CurrentActor(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, activity))
}
