package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type FabricHandler struct {
	fabricService service.FabricService
}

func NewFabricHandler(fabricService service.FabricService) *FabricHandler {
	return &FabricHandler{fabricService: fabricService}
}

func (h *FabricHandler) RegisterRoutes(router *gin.RouterGroup) {
	fabrics := router.Group("/api/fabrics")
	{
		fabrics.GET("", middleware.RequireRole("admin", "manager", "staff"), h.ListFabrics)
		fabrics.GET("/:id", middleware.RequireRole("admin", "manager", "staff"), h.GetFabric)
		fabrics.POST("", middleware.RequireRole("admin", "manager"), h.CreateFabric)
	}
}

// CreateFabric registers a fabric purchase lot
// @Summary      Create fabric
// @Description  Registers a purchased fabric lot with its total meters
// @Tags         fabrics
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateFabricRequest  true  "Create Fabric Payload"
// @Success      201      {object}  response.Response{data=service.FabricResponse}
// @Failure      400      {object}  response.Response
// @Failure      500      {object}  response.Response
// @Router       /api/fabrics [post]
func (h *FabricHandler) CreateFabric(c *gin.Context) {
	var req service.CreateFabricRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	userID := c.GetString("userID")

	fabric, err := h.fabricService.CreateFabric(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, fabric))
}

// GetFabric fetches one fabric with remaining meters
// @Summary      Get fabric
// @Description  Fetches a fabric lot by ID including meters used and available
// @Tags         fabrics
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Fabric ID"
// @Success      200  {object}  response.Response{data=service.FabricResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/fabrics/{id} [get]
func (h *FabricHandler) GetFabric(c *gin.Context) {
	fabric, err := h.fabricService.GetFabric(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, fabric))
}

// ListFabrics lists fabric lots with pagination
// @Summary      List fabrics
// @Description  Retrieves a paginated list of fabric lots
// @Tags         fabrics
// @Security     BearerAuth
// @Produce      json
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Number of items per page (default 20)"
// @Success      200    {object}  response.Response{data=object}
// @Failure      500    {object}  response.Response
// @Router       /api/fabrics [get]
func (h *FabricHandler) ListFabrics(c *gin.Context) {
	params := pagination.Parse(c)

	fabrics, total, err := h.fabricService.ListFabrics(c.Request.Context(), params.Page, params.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"fabrics": fabrics,
		"meta":    pagination.NewMeta(params, total),
	}))
}
