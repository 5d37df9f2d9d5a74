package service

import (
	"context"
	"fmt"

	"backend/internal/apperror"
	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReportService interface {
	GetStockReport(ctx context.Context) (model.StockReportResponse, error)
	GetConservationReport(ctx context.Context) (model.ConservationReportResponse, error)
	ListMovements(ctx context.Context, page, limit int, productID string) ([]model.StockMovement, int64, error)
}

type reportService struct {
	db           *gorm.DB
	movementRepo repository.StockMovementRepository
}

func NewReportService(db *gorm.DB, movementRepo repository.StockMovementRepository) ReportService {
	return &reportService{db: db, movementRepo: movementRepo}
}

// productAggregates is scanned per product from the aggregate query.
type productAggregates struct {
	ProductID     uuid.UUID
	SKU           string
	Name          string
	Size          string
	TotalProduced int
	FactoryStock  int
	StoreStock    int
	InTransit     int
	Damaged       int
	Sold          int
	Returned      int
}

// loadAggregates gathers, per product, every pool and flow the ledger
// tracks, straight from committed rows rather than cached counters.
func (s *reportService) loadAggregates(ctx context.Context) ([]productAggregates, error) {
	var rows []productAggregates
	err := s.db.WithContext(ctx).Table("products").
		Select(`products.id as product_id,
			products.sku as sku,
			products.name as name,
			products.size as size,
			products.total_produced as total_produced,
			products.factory_stock as factory_stock,
			COALESCE((SELECT SUM(sii.quantity_available) FROM store_inventory_items sii WHERE sii.product_id = products.id), 0) as store_stock,
			COALESCE((SELECT SUM(di.quantity) FROM dispatch_items di JOIN dispatches d ON d.id = di.dispatch_id WHERE di.product_id = products.id AND d.status = ?), 0) as in_transit,
			COALESCE((SELECT SUM(r.quantity) FROM returns r WHERE r.product_id = products.id AND r.type = ?), 0) as damaged,
			COALESCE((SELECT SUM(si.quantity) FROM sale_items si WHERE si.product_id = products.id), 0) as sold,
			COALESCE((SELECT SUM(r.quantity) FROM returns r WHERE r.product_id = products.id AND r.type = ?), 0) as returned`,
			model.DispatchStatusPending, model.ReturnDamaged, model.ReturnCustomer).
		Where("products.deleted_at IS NULL").
		Order("products.created_at asc").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate stock: %w", err)
	}
	return rows, nil
}

func (s *reportService) GetStockReport(ctx context.Context) (model.StockReportResponse, error) {
	rows, err := s.loadAggregates(ctx)
	if err != nil {
		return model.StockReportResponse{}, err
	}

	report := model.StockReportResponse{Products: make([]model.ProductStockRow, 0, len(rows))}
	for _, row := range rows {
		report.Products = append(report.Products, model.ProductStockRow{
			ProductID:    row.ProductID.String(),
			SKU:          row.SKU,
			Name:         row.Name,
			Size:         row.Size,
			FactoryStock: row.FactoryStock,
			StoreStock:   row.StoreStock,
			InTransit:    row.InTransit,
			Damaged:      row.Damaged,
		})
		report.TotalFactoryStock += row.FactoryStock
		report.TotalStoreStock += row.StoreStock
		report.TotalInTransit += row.InTransit
	}
	return report, nil
}

// GetConservationReport verifies, per product, that every produced unit is
// accounted for: factory + stores + in-transit + damaged + net sold must
// equal total produced. STORE_TO_FACTORY transfers move units between
// pools and cancel out of the equation.
func (s *reportService) GetConservationReport(ctx context.Context) (model.ConservationReportResponse, error) {
	rows, err := s.loadAggregates(ctx)
	if err != nil {
		return model.ConservationReportResponse{}, err
	}

	report := model.ConservationReportResponse{
		Products:    make([]model.ConservationRow, 0, len(rows)),
		AllBalanced: true,
	}
	for _, row := range rows {
		netSold := row.Sold - row.Returned
		balanced := row.FactoryStock+row.StoreStock+row.InTransit+row.Damaged+netSold == row.TotalProduced
		if !balanced {
			report.AllBalanced = false
		}
		report.Products = append(report.Products, model.ConservationRow{
			ProductID:     row.ProductID.String(),
			SKU:           row.SKU,
			TotalProduced: row.TotalProduced,
			FactoryStock:  row.FactoryStock,
			StoreStock:    row.StoreStock,
			InTransit:     row.InTransit,
			Damaged:       row.Damaged,
			NetSold:       netSold,
			Balanced:      balanced,
		})
	}
	return report, nil
}

func (s *reportService) ListMovements(ctx context.Context, page, limit int, productID string) ([]model.StockMovement, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	var pid *uuid.UUID
	if productID != "" {
		parsed, err := uuid.Parse(productID)
		if err != nil {
			return nil, 0, apperror.Validation("invalid product id: %s", productID)
		}
		pid = &parsed
	}

	return s.movementRepo.List(ctx, page, limit, pid)
}
