package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type DispatchHandler struct {
	dispatchService service.DispatchService
}

func NewDispatchHandler(dispatchService service.DispatchService) *DispatchHandler {
	return &DispatchHandler{dispatchService: dispatchService}
}

func (h *DispatchHandler) RegisterRoutes(router *gin.RouterGroup) {
	dispatches := router.Group("/api/dispatches")
	{
		dispatches.GET("", middleware.RequireRole("admin", "manager", "staff"), h.ListDispatches)
		dispatches.POST("", middleware.RequireRole("admin", "manager"), h.CreateDispatch)
		dispatches.PATCH("/:id/status", middleware.RequireRole("admin", "manager", "staff"), h.UpdateStatus)
		dispatches.DELETE("/:id", middleware.RequireRole("admin", "manager"), h.DeleteDispatch)
	}
}

// CreateDispatch ships factory stock to a store
// @Summary      Create dispatch
// @Description  Debits factory stock for every line and creates a PENDING dispatch to the store
// @Tags         dispatches
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateDispatchRequest  true  "Create Dispatch Payload"
// @Success      201      {object}  response.Response{data=service.DispatchResponse}
// @Failure      400      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /api/dispatches [post]
func (h *DispatchHandler) CreateDispatch(c *gin.Context) {
	var req service.CreateDispatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	userID := c.GetString("userID")

	dispatch, err := h.dispatchService.CreateDispatch(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, dispatch))
}

// UpdateStatus marks a dispatch as received at the store
// @Summary      Update dispatch status
// @Description  Marks a PENDING dispatch RECEIVED, crediting the store's inventory; receiving twice is rejected
// @Tags         dispatches
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                               true  "Dispatch ID"
// @Param        payload  body      service.UpdateDispatchStatusRequest  true  "Status Payload"
// @Success      200      {object}  response.Response{data=service.DispatchResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/dispatches/{id}/status [patch]
func (h *DispatchHandler) UpdateStatus(c *gin.Context) {
	var req service.UpdateDispatchStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	userID := c.GetString("userID")

	dispatch, err := h.dispatchService.MarkReceived(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, dispatch))
}

// DeleteDispatch cancels a dispatch and reverses its stock effects
// @Summary      Delete dispatch
// @Description  Cancels a dispatch, refunding factory stock; a RECEIVED dispatch also drains the store credit
// @Tags         dispatches
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Dispatch ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/dispatches/{id} [delete]
func (h *DispatchHandler) DeleteDispatch(c *gin.Context) {
	userID := c.GetString("userID")

	if err := h.dispatchService.DeleteDispatch(c.Request.Context(), userID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Dispatch deleted successfully"))
}

// ListDispatches lists dispatches with pagination
// @Summary      List dispatches
// @Description  Retrieves a paginated list of dispatches with their lines
// @Tags         dispatches
// @Security     BearerAuth
// @Produce      json
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Number of items per page (default 20)"
// @Success      200    {object}  response.Response{data=object}
// @Failure      500    {object}  response.Response
// @Router       /api/dispatches [get]
func (h *DispatchHandler) ListDispatches(c *gin.Context) {
	params := pagination.Parse(c)

	dispatches, total, err := h.dispatchService.ListDispatches(c.Request.Context(), params.Page, params.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"dispatches": dispatches,
		"meta":       pagination.NewMeta(params, total),
	}))
}
