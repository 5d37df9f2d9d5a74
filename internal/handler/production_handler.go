package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type ProductionHandler struct {
	productionService service.ProductionService
}

func NewProductionHandler(productionService service.ProductionService) *ProductionHandler {
	return &ProductionHandler{productionService: productionService}
}

func (h *ProductionHandler) RegisterRoutes(router *gin.RouterGroup) {
	production := router.Group("/api/production")
	{
		production.GET("/batches", middleware.RequireRole("admin", "manager", "staff"), h.ListBatches)
		production.POST("/batches", middleware.RequireRole("admin", "manager"), h.CreateBatch)
		production.PATCH("/batches/:id/stage", middleware.RequireRole("admin", "manager"), h.AdvanceStage)
	}

	products := router.Group("/api/products")
	{
		products.GET("", middleware.RequireRole("admin", "manager", "staff"), h.ListProducts)
	}
}

// CreateBatch starts a cutting batch against a fabric lot
// @Summary      Create production batch
// @Description  Consumes fabric meters and opens a batch in the CUTTING stage with its size breakdown
// @Tags         production
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateBatchRequest  true  "Create Batch Payload"
// @Success      201      {object}  response.Response{data=service.BatchResponse}
// @Failure      400      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /api/production/batches [post]
func (h *ProductionHandler) CreateBatch(c *gin.Context) {
	var req service.CreateBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	userID := c.GetString("userID")

	batch, err := h.productionService.CreateBatch(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, batch))
}

// AdvanceStage moves a batch forward in the pipeline
// @Summary      Advance batch stage
// @Description  Moves a batch CUTTING→FINISHING→READY; reaching READY materializes products into factory stock
// @Tags         production
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                       true  "Batch ID"
// @Param        payload  body      service.AdvanceStageRequest  true  "Advance Stage Payload"
// @Success      200      {object}  response.Response{data=object}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/production/batches/{id}/stage [patch]
func (h *ProductionHandler) AdvanceStage(c *gin.Context) {
	var req service.AdvanceStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	userID := c.GetString("userID")

	batch, products, err := h.productionService.AdvanceStage(c.Request.Context(), userID, c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"batch":    batch,
		"products": products,
	}))
}

// ListBatches lists production batches with pagination
// @Summary      List production batches
// @Description  Retrieves a paginated list of batches with their size breakdowns
// @Tags         production
// @Security     BearerAuth
// @Produce      json
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Number of items per page (default 20)"
// @Success      200    {object}  response.Response{data=object}
// @Failure      500    {object}  response.Response
// @Router       /api/production/batches [get]
func (h *ProductionHandler) ListBatches(c *gin.Context) {
	params := pagination.Parse(c)

	batches, total, err := h.productionService.ListBatches(c.Request.Context(), params.Page, params.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"batches": batches,
		"meta":    pagination.NewMeta(params, total),
	}))
}

// ListProducts lists finished goods with factory stock
// @Summary      List products
// @Description  Retrieves a paginated list of products, searchable by name or SKU
// @Tags         production
// @Security     BearerAuth
// @Produce      json
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Number of items per page (default 20)"
// @Param        search  query     string  false  "Search by product name or SKU"
// @Success      200     {object}  response.Response{data=object}
// @Failure      500     {object}  response.Response
// @Router       /api/products [get]
func (h *ProductionHandler) ListProducts(c *gin.Context) {
	params := pagination.Parse(c)
	search := c.Query("search")

	products, total, err := h.productionService.ListProducts(c.Request.Context(), params.Page, params.Limit, search)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"products": products,
		"meta":     pagination.NewMeta(params, total),
	}))
}
