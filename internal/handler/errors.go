package handler

import (
	"errors"
	"net/http"

	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

// abortWithError maps service errors onto HTTP statuses: validation
// failures are 400, authorization failures 403, missing records 404 and the
// duplicate-grant conflict 409. Everything else is a 500.
func abortWithError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case service.IsValidation(err):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrForbidden):
		status = http.StatusForbidden
	case service.IsNotFound(err):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrPermissionExists):
		status = http.StatusConflict
	}
	c.JSON(status, response.Error(status, err.Error()))
}
