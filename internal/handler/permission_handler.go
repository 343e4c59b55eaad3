package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type PermissionHandler struct {
	svc service.PermissionService
}

func NewPermissionHandler(svc service.PermissionService) *PermissionHandler {
	return &PermissionHandler{svc: svc}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *PermissionHandler) RegisterRoutes(router *gin.RouterGroup) {
	roles := router.Group("/roles", middleware.RequireAuth(), middleware.RequireModelPermission("Role"))
	{
		roles.GET("", h.ListRoles)
		roles.GET("/:slug", h.GetRole)
		roles.POST("", h.CreateRole)
		roles.PUT("/:slug", h.UpdateRole)
		roles.DELETE("/:slug", h.DeleteRole)
	}

	appModels := router.Group("/app-models", middleware.RequireAuth(), middleware.RequireModelPermission("AppModel"))
	{
		appModels.GET("", h.ListAppModels)
		appModels.GET("/:slug", h.GetAppModel)
		appModels.POST("", h.CreateAppModel)
		appModels.DELETE("/:slug", h.DeleteAppModel)
	}

	permTypes := router.Group("/permission-types", middleware.RequireAuth(), middleware.RequireModelPermission("PermissionType"))
	{
		permTypes.GET("", h.ListPermissionTypes)
		permTypes.POST("", h.CreatePermissionType)
	}

	grants := router.Group("/role-permissions", middleware.RequireAuth(), middleware.RequireModelPermission("RoleModelPermission"))
	{
		grants.GET("", h.ListGrants)
		grants.POST("", h.CreateGrant)
		grants.DELETE("/:slug", h.DeleteGrant)
	}

	bulk := router.Group("/permissions/bulk", middleware.RequireAuth(), middleware.RequireAdmin())
	{
		bulk.POST("/create", h.BulkCreate)
		bulk.PUT("/update", h.BulkUpdate)
		bulk.DELETE("/delete", h.BulkDelete)
	}
}

// --- Roles ---

// ListRoles returns roles visible to the caller
// @Summary      List roles
// @Tags         rbac
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]service.RoleResponse}
// @Router       /roles [get]
func (h *PermissionHandler) ListRoles(c *gin.Context) {
	roles, err := h.svc.ListRoles(c.Request.Context(), middleware.CurrentActor(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, roles))
}

func (h *PermissionHandler) GetRole(c *gin.Context) {
	role, err := h.svc.GetRole(c.Request.Context(), c.Param("slug"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, role))
}

// CreateRole creates a role
// @Summary      Create role
// @Tags         rbac
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateRoleRequest  true  "Role"
// @Success      201      {object}  response.Response{data=service.RoleResponse}
// @Failure      400      {object}  response.Response
// @Router       /roles [post]
func (h *PermissionHandler) CreateRole(c *gin.Context) {
	var req service.CreateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	role, err := h.svc.CreateRole(c.Request.Context(), middleware.CurrentActor(c), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, role))
}

func (h *PermissionHandler) UpdateRole(c *gin.Context) {
	var req service.UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	role, err := h.svc.UpdateRole(c.Request.Context(), middleware.CurrentActor(c), c.Param("slug"), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, role))
}

func (h *PermissionHandler) DeleteRole(c *gin.Context) {
	if err := h.svc.DeleteRole(c.Request.Context(), middleware.CurrentActor(c), c.Param("slug")); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": c.Param("slug")}))
}

// --- App models ---

func (h *PermissionHandler) ListAppModels(c *gin.Context) {
	models, err := h.svc.ListAppModels(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, models))
}

func (h *PermissionHandler) GetAppModel(c *gin.Context) {
	m, err := h.svc.GetAppModel(c.Request.Context(), c.Param("slug"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, m))
}

func (h *PermissionHandler) CreateAppModel(c *gin.Context) {
	var req service.CreateAppModelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	m, err := h.svc.CreateAppModel(c.Request.Context(), middleware.CurrentActor(c), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, m))
}

func (h *PermissionHandler) DeleteAppModel(c *gin.Context) {
	if err := h.svc.DeleteAppModel(c.Request.Context(), middleware.CurrentActor(c), c.Param("slug")); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": c.Param("slug")}))
}

// --- Permission types ---

func (h *PermissionHandler) ListPermissionTypes(c *gin.Context) {
	perms, err := h.svc.ListPermissionTypes(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, perms))
}

func (h *PermissionHandler) CreatePermissionType(c *gin.Context) {
	var req service.CreatePermissionTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	p, err := h.svc.CreatePermissionType(c.Request.Context(), middleware.CurrentActor(c), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, p))
}

// --- Grants ---

func (h *PermissionHandler) ListGrants(c *gin.Context) {
	grants, err := h.svc.ListGrants(c.Request.Context(), middleware.CurrentActor(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, grants))
}

// CreateGrant assigns a single permission to a role
// @Summary      Assign permission
// @Description  Assigns one (role, model, permission) triple. Duplicates are rejected with 409.
// @Tags         rbac
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateGrantRequest  true  "Grant"
// @Success      201      {object}  response.Response{data=service.GrantResponse}
// @Failure      409      {object}  response.Response
// @Router       /role-permissions [post]
func (h *PermissionHandler) CreateGrant(c *gin.Context) {
	var req service.CreateGrantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	grant, err := h.svc.CreateGrant(c.Request.Context(), middleware.CurrentActor(c), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, grant))
}

func (h *PermissionHandler) DeleteGrant(c *gin.Context) {
	if err := h.svc.DeleteGrant(c.Request.Context(), middleware.CurrentActor(c), c.Param("slug")); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": c.Param("slug")}))
}

// --- Bulk ---

// BulkCreate assigns many permissions to one role atomically
// @Summary      Bulk assign permissions
// @Description  Creates all requested grants for a role in one transaction. Existing grants are skipped.
// @Tags         rbac
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.BulkAssignRequest  true  "Assignment"
// @Success      201      {object}  response.Response{data=service.BulkCreateResult}
// @Failure      400      {object}  response.Response
// @Router       /permissions/bulk/create [post]
func (h *PermissionHandler) BulkCreate(c *gin.Context) {
	var req service.BulkAssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	result, err := h.svc.BulkCreate(c.Request.Context(), middleware.CurrentActor(c), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, result))
}

// BulkUpdate reconciles a role's grants against the desired state
// @Summary      Bulk update permissions
// @Description  Per model, creates missing grants and revokes grants absent from the request.
// @Tags         rbac
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.BulkAssignRequest  true  "Desired state"
// @Success      200      {object}  response.Response{data=service.BulkUpdateResult}
// @Router       /permissions/bulk/update [put]
func (h *PermissionHandler) BulkUpdate(c *gin.Context) {
	var req service.BulkAssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	result, err := h.svc.BulkUpdate(c.Request.Context(), middleware.CurrentActor(c), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// BulkDelete revokes a list of grants by slug
// @Summary      Bulk revoke permissions
// @Description  Deletes the listed grants in one transaction. Unknown slugs are skipped.
// @Tags         rbac
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.BulkDeleteRequest  true  "Slugs"
// @Success      200      {object}  response.Response{data=service.BulkDeleteResult}
// @Router       /permissions/bulk/delete [delete]
func (h *PermissionHandler) BulkDelete(c *gin.Context) {
	var req service.BulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	result, err := h.svc.BulkDelete(c.Request.Context(), middleware.CurrentActor(c), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}
