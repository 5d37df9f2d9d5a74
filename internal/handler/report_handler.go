package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type ReportHandler struct {
	reportService service.ReportService
}

func NewReportHandler(reportService service.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

func (h *ReportHandler) RegisterRoutes(router *gin.RouterGroup) {
	reports := router.Group("/api/reports")
	{
		reports.GET("/stock", middleware.RequireRole("admin", "manager"), h.GetStockReport)
		reports.GET("/conservation", middleware.RequireRole("admin", "manager"), h.GetConservationReport)
	}

	router.GET("/api/stock-movements", middleware.RequireRole("admin", "manager"), h.ListStockMovements)
}

// GetStockReport summarizes stock across factory, stores and transit
// @Summary      Stock report
// @Description  Per-product stock across factory, stores, in-transit dispatches and damage write-offs
// @Tags         reports
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=model.StockReportResponse}
// @Failure      500  {object}  response.Response
// @Router       /api/reports/stock [get]
func (h *ReportHandler) GetStockReport(c *gin.Context) {
	report, err := h.reportService.GetStockReport(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, report))
}

// GetConservationReport checks that every produced unit is accounted for
// @Summary      Conservation report
// @Description  Verifies per product that factory + store + in-transit + damaged + net sold equals total produced
// @Tags         reports
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=model.ConservationReportResponse}
// @Failure      500  {object}  response.Response
// @Router       /api/reports/conservation [get]
func (h *ReportHandler) GetConservationReport(c *gin.Context) {
	report, err := h.reportService.GetConservationReport(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, report))
}

// ListStockMovements lists the append-only stock movement ledger
// @Summary      List stock movements
// @Description  Retrieves the paginated stock movement ledger, optionally filtered by product
// @Tags         reports
// @Security     BearerAuth
// @Produce      json
// @Param        page        query     int     false  "Page number (default 1)"
// @Param        limit       query     int     false  "Number of items per page (default 20)"
// @Param        product_id  query     string  false  "Filter by product ID"
// @Success      200         {object}  response.Response{data=object}
// @Failure      400         {object}  response.Response
// @Router       /api/stock-movements [get]
func (h *ReportHandler) ListStockMovements(c *gin.Context) {
	params := pagination.Parse(c)
	productID := c.Query("product_id")

	movements, total, err := h.reportService.ListMovements(c.Request.Context(), params.Page, params.Limit, productID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"movements": movements,
		"meta":      pagination.NewMeta(params, total),
	}))
}
