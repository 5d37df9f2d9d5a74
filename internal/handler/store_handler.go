package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type StoreHandler struct {
	storeService service.StoreService
}

func NewStoreHandler(storeService service.StoreService) *StoreHandler {
	return &StoreHandler{storeService: storeService}
}

func (h *StoreHandler) RegisterRoutes(router *gin.RouterGroup) {
	stores := router.Group("/api/stores")
	{
		stores.GET("", middleware.RequireRole("admin", "manager", "staff"), h.ListStores)
		stores.GET("/:id/inventory", middleware.RequireRole("admin", "manager", "staff"), h.GetStoreInventory)
		stores.POST("", middleware.RequireRole("admin"), h.CreateStore)
		stores.PUT("/:id", middleware.RequireRole("admin"), h.UpdateStore)
	}
}

// CreateStore registers a retail store
// @Summary      Create store
// @Description  Registers a new retail store
// @Tags         stores
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateStoreRequest  true  "Create Store Payload"
// @Success      201      {object}  response.Response{data=service.StoreResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/stores [post]
func (h *StoreHandler) CreateStore(c *gin.Context) {
	var req service.CreateStoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	userID := c.GetString("userID")

	store, err := h.storeService.CreateStore(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, store))
}

// UpdateStore updates store details
// @Summary      Update store
// @Description  Updates a store's details by ID
// @Tags         stores
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                      true  "Store ID"
// @Param        payload  body      service.UpdateStoreRequest  true  "Update Store Payload"
// @Success      200      {object}  response.Response{data=service.StoreResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/stores/{id} [put]
func (h *StoreHandler) UpdateStore(c *gin.Context) {
	var req service.UpdateStoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	userID := c.GetString("userID")

	store, err := h.storeService.UpdateStore(c.Request.Context(), userID, c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, store))
}

// ListStores lists stores with pagination
// @Summary      List stores
// @Description  Retrieves a paginated list of stores
// @Tags         stores
// @Security     BearerAuth
// @Produce      json
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Number of items per page (default 20)"
// @Success      200    {object}  response.Response{data=object}
// @Failure      500    {object}  response.Response
// @Router       /api/stores [get]
func (h *StoreHandler) ListStores(c *gin.Context) {
	params := pagination.Parse(c)

	stores, total, err := h.storeService.ListStores(c.Request.Context(), params.Page, params.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"stores": stores,
		"meta":   pagination.NewMeta(params, total),
	}))
}

// GetStoreInventory lists per-product quantities at a store
// @Summary      Get store inventory
// @Description  Retrieves the per-product stock held at a store
// @Tags         stores
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Store ID"
// @Success      200  {object}  response.Response{data=object}
// @Failure      404  {object}  response.Response
// @Router       /api/stores/{id}/inventory [get]
func (h *StoreHandler) GetStoreInventory(c *gin.Context) {
	items, err := h.storeService.GetStoreInventory(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"items": items,
	}))
}
