package handler

import (
	"backend/internal/apperror"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

// respondError maps a service error to its HTTP status and writes the
// standard error envelope.
func respondError(c *gin.Context, err error) {
	status := apperror.HTTPStatus(err)
	c.JSON(status, response.Error(status, err.Error()))
}
