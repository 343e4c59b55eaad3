package handler

import (
	"fmt"
	"net/http"
	"time"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AttendanceHandler struct {
	svc service.AttendanceService
}

func NewAttendanceHandler(svc service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{svc: svc}
}

func (h *AttendanceHandler) RegisterRoutes(router *gin.RouterGroup) {
	att := router.Group("/attendance", middleware.RequireAuth())
	{
		att.POST("/check-in", h.CheckIn)
		att.POST("/check-out", h.CheckOut)
		att.GET("/me", h.MyAttendance)
		att.GET("", middleware.RequireAdmin(), h.ByDate)
		att.GET("/summary", middleware.RequireAdmin(), h.MonthlySummary)
		att.GET("/report", middleware.RequireAdmin(), h.ExportCSV)
	}

	leaves := router.Group("/leaves", middleware.RequireAuth())
	{
		leaves.POST("", h.RequestLeave)
		leaves.GET("", h.ListLeaves)
		leaves.PUT("/:id/status", middleware.RequireAdmin(), h.UpdateLeaveStatus)
	}

	holidays := router.Group("/holidays", middleware.RequireAuth())
	{
		holidays.GET("", h.ListHolidays)
		holidays.POST("", middleware.RequireAdmin(), h.CreateHoliday)
	}
}

// CheckIn opens today's attendance record
// @Summary      Check in
// @Tags         attendance
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=service.AttendanceResponse}
// @Failure      400  {object}  response.Response
// @Router       /attendance/check-in [post]
func (h *AttendanceHandler) CheckIn(c *gin.Context) {
	att, err := h.svc.CheckIn(c.Request.Context(), middleware.CurrentActor(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, att))
}

// CheckOut closes today's (or yesterday's overnight) record
// @Summary      Check out
// @Tags         attendance
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=service.AttendanceResponse}
// @Router       /attendance/check-out [post]
func (h *AttendanceHandler) CheckOut(c *gin.Context) {
	att, err := h.svc.CheckOut(c.Request.Context(), middleware.CurrentActor(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, att))
}

func (h *AttendanceHandler) MyAttendance(c *gin.Context) {
	p := pagination.Parse(c)
	records, total, err := h.svc.MyAttendance(c.Request.Context(), middleware.CurrentActor(c), p.Page, p.Limit)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{
		"results": records,
		"total":   total,
		"page":    p.Page,
		"limit":   p.Limit,
	}))
}

func (h *AttendanceHandler) ByDate(c *gin.Context) {
	date, err := time.Parse("2006-01-02", c.DefaultQuery("date", time.Now().Format("2006-01-02")))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Date must be in YYYY-MM-DD format"))
		return
	}
	records, err := h.svc.ByDate(c.Request.Context(), date)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, records))
}

// parseYearMonth reads ?month=YYYY-MM, defaulting to the current month.
func parseYearMonth(c *gin.Context) (int, time.Month, error) {
	raw := c.DefaultQuery("month", time.Now().Format("2006-01"))
	parsed, err := time.Parse("2006-01", raw)
	if err != nil {
		return 0, 0, fmt.Errorf("month must be in YYYY-MM format")
	}
	return parsed.Year(), parsed.Month(), nil
}

// MonthlySummary returns per-user counters for one month
// @Summary      Monthly attendance summary
// @Tags         attendance
// @Produce      json
// @Security     BearerAuth
// @Param        month  query     string  false  "Month as YYYY-MM"
// @Success      200    {object}  response.Response{data=[]service.MonthlySummary}
// @Router       /attendance/summary [get]
func (h *AttendanceHandler) MonthlySummary(c *gin.Context) {
	year, month, err := parseYearMonth(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid month: "+err.Error()))
		return
	}
	summaries, err := h.svc.MonthlySummaries(c.Request.Context(), year, month)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, summaries))
}

func (h *AttendanceHandler) ExportCSV(c *gin.Context) {
	year, month, err := parseYearMonth(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid month: "+err.Error()))
		return
	}
	data, err := h.svc.ExportMonthlyCSV(c.Request.Context(), year, month)
	if err != nil {
		abortWithError(c, err)
		return
	}
	filename := fmt.Sprintf("attendance-%d-%02d.csv", year, month)
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "text/csv", data)
}

// --- Leaves ---

func (h *AttendanceHandler) RequestLeave(c *gin.Context) {
	var req service.LeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	leave, err := h.svc.RequestLeave(c.Request.Context(), middleware.CurrentActor(c), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, leave))
}

func (h *AttendanceHandler) ListLeaves(c *gin.Context) {
	leaves, err := h.svc.ListLeaves(c.Request.Context(), middleware.CurrentActor(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, leaves))
}

func (h *AttendanceHandler) UpdateLeaveStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid leave id"))
		return
	}
	var req service.LeaveStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	leave, err := h.svc.UpdateLeaveStatus(c.Request.Context(), middleware.CurrentActor(c), id, req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, leave))
}

// --- Holidays ---

func (h *AttendanceHandler) CreateHoliday(c *gin.Context) {
	var req service.HolidayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	holiday, err := h.svc.CreateHoliday(c.Request.Context(), middleware.CurrentActor(c), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, holiday))
}

func (h *AttendanceHandler) ListHolidays(c *gin.Context) {
	holidays, err := h.svc.ListHolidays(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, holidays))
}
