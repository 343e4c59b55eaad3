package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type TaskHandler struct {
	svc service.TaskService
}

func NewTaskHandler(svc service.TaskService) *TaskHandler {
	return &TaskHandler{svc: svc}
}

func (h *TaskHandler) RegisterRoutes(router *gin.RouterGroup) {
	tasks := router.Group("/tasks", middleware.RequireAuth())
	{
		tasks.POST("", middleware.RequireAdmin(), h.Create)
		tasks.GET("", middleware.RequireAdmin(), h.All)
		tasks.GET("/me", h.Mine)
		tasks.PUT("/:uid/status", h.UpdateStatus)
	}
}

// Create assigns a task to a staff member
// @Summary      Create task
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateTaskRequest  true  "Task"
// @Success      201      {object}  response.Response{data=service.TaskResponse}
// @Failure      400      {object}  response.Response
// @Router       /tasks [post]
func (h *TaskHandler) Create(c *gin.Context) {
	var req service.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	task, err := h.svc.Create(c.Request.Context(), middleware.CurrentActor(c), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, task))
}

func (h *TaskHandler) Mine(c *gin.Context) {
	tasks, err := h.svc.MyTasks(c.Request.Context(), middleware.CurrentActor(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, tasks))
}

func (h *TaskHandler) All(c *gin.Context) {
	p := pagination.Parse(c)
	tasks, total, err := h.svc.AllTasks(c.Request.Context(), p.Page, p.Limit)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{
		"results": tasks,
		"total":   total,
		"page":    p.Page,
		"limit":   p.Limit,
	}))
}

func (h *TaskHandler) UpdateStatus(c *gin.Context) {
	var req service.UpdateTaskStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	task, err := h.svc.UpdateStatus(c.Request.Context(), middleware.CurrentActor(c), c.Param("uid"), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, task))
}
