package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type ReturnHandler struct {
	returnService service.ReturnService
}

func NewReturnHandler(returnService service.ReturnService) *ReturnHandler {
	return &ReturnHandler{returnService: returnService}
}

func (h *ReturnHandler) RegisterRoutes(router *gin.RouterGroup) {
	returns := router.Group("/api/returns")
	{
		returns.GET("", middleware.RequireRole("admin", "manager", "staff"), h.ListReturns)
		returns.POST("", middleware.RequireRole("admin", "manager", "staff"), h.CreateReturn)
	}
}

// CreateReturn records a customer return, store-to-factory transfer or damage write-off
// @Summary      Create return
// @Description  Records a CUSTOMER_RETURN (bounded by the referenced sale), STORE_TO_FACTORY transfer or DAMAGED write-off
// @Tags         returns
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateReturnRequest  true  "Create Return Payload"
// @Success      201      {object}  response.Response{data=service.ReturnResponse}
// @Failure      400      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /api/returns [post]
func (h *ReturnHandler) CreateReturn(c *gin.Context) {
	var req service.CreateReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	userID := c.GetString("userID")

	ret, err := h.returnService.CreateReturn(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, ret))
}

// ListReturns lists returns with pagination
// @Summary      List returns
// @Description  Retrieves a paginated list of returns, optionally filtered by type
// @Tags         returns
// @Security     BearerAuth
// @Produce      json
// @Param        page   query     int     false  "Page number (default 1)"
// @Param        limit  query     int     false  "Number of items per page (default 20)"
// @Param        type   query     string  false  "Filter by return type"
// @Success      200    {object}  response.Response{data=object}
// @Failure      500    {object}  response.Response
// @Router       /api/returns [get]
func (h *ReturnHandler) ListReturns(c *gin.Context) {
	params := pagination.Parse(c)
	returnType := c.Query("type")

	returns, total, err := h.returnService.ListReturns(c.Request.Context(), params.Page, params.Limit, returnType)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"returns": returns,
		"meta":    pagination.NewMeta(params, total),
	}))
}
