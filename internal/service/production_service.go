package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"backend/internal/apperror"
	"backend/internal/model"
	"backend/internal/repository"
	ws "backend/internal/websocket"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DTOs
type SizeBreakdownItem struct {
	Size     string `json:"size" binding:"required"`
	Quantity int    `json:"quantity" binding:"required,gt=0"`
}

type CreateBatchRequest struct {
	FabricID      string              `json:"fabric_id" binding:"required"`
	MeterUsed     float64             `json:"meter_used" binding:"required,gt=0"`
	SizeBreakdown []SizeBreakdownItem `json:"size_breakdown" binding:"required,min=1,dive"`
}

type ProductMetadata struct {
	Name      string `json:"name"`
	Category  string `json:"category"`
	Brand     string `json:"brand"`
	SalePrice string `json:"sale_price"`
	Color     string `json:"color"`
}

type AdvanceStageRequest struct {
	Stage           string           `json:"stage" binding:"required,oneof=CUTTING FINISHING READY"`
	ProductMetadata *ProductMetadata `json:"product_metadata"`
}

type BatchResponse struct {
	ID            string              `json:"id"`
	BatchCode     string              `json:"batch_code"`
	FabricID      string              `json:"fabric_id"`
	MeterUsed     float64             `json:"meter_used"`
	Stage         string              `json:"stage"`
	TotalPieces   int                 `json:"total_pieces"`
	SizeBreakdown []SizeBreakdownItem `json:"size_breakdown"`
}

type ProductResponse struct {
	ID            string `json:"id"`
	BatchID       string `json:"batch_id"`
	SKU           string `json:"sku"`
	Barcode       string `json:"barcode"`
	Name          string `json:"name"`
	Category      string `json:"category"`
	Brand         string `json:"brand"`
	Color         string `json:"color"`
	Size          string `json:"size"`
	SalePrice     string `json:"sale_price"`
	FactoryStock  int    `json:"factory_stock"`
	TotalProduced int    `json:"total_produced"`
}

type ProductionService interface {
	CreateBatch(ctx context.Context, userID string, req CreateBatchRequest) (BatchResponse, error)
	AdvanceStage(ctx context.Context, userID string, batchID string, req AdvanceStageRequest) (BatchResponse, []ProductResponse, error)
	ListBatches(ctx context.Context, page, limit int) ([]BatchResponse, int64, error)
	ListProducts(ctx context.Context, page, limit int, search string) ([]ProductResponse, int64, error)
}

type productionService struct {
	fabricRepo   repository.FabricRepository
	batchRepo    repository.BatchRepository
	productRepo  repository.ProductRepository
	movementRepo repository.StockMovementRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
	hub          *ws.Hub
}

func NewProductionService(
	fabricRepo repository.FabricRepository,
	batchRepo repository.BatchRepository,
	productRepo repository.ProductRepository,
	movementRepo repository.StockMovementRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	hub *ws.Hub,
) ProductionService {
	return &productionService{
		fabricRepo:   fabricRepo,
		batchRepo:    batchRepo,
		productRepo:  productRepo,
		movementRepo: movementRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
		hub:          hub,
	}
}

func toBatchResponse(b *model.ProductionBatch) BatchResponse {
	breakdown := make([]SizeBreakdownItem, 0, len(b.SizeItems))
	for _, item := range b.SizeItems {
		breakdown = append(breakdown, SizeBreakdownItem{Size: item.Size, Quantity: item.Quantity})
	}
	return BatchResponse{
		ID:            b.ID.String(),
		BatchCode:     b.BatchCode,
		FabricID:      b.FabricID.String(),
		MeterUsed:     b.MeterUsed,
		Stage:         b.Stage,
		TotalPieces:   b.TotalPieces,
		SizeBreakdown: breakdown,
	}
}

func toProductResponse(p *model.Product) ProductResponse {
	return ProductResponse{
		ID:            p.ID.String(),
		BatchID:       p.BatchID.String(),
		SKU:           p.SKU,
		Barcode:       p.Barcode,
		Name:          p.Name,
		Category:      p.Category,
		Brand:         p.Brand,
		Color:         p.Color,
		Size:          p.Size,
		SalePrice:     p.SalePrice.StringFixed(2),
		FactoryStock:  p.FactoryStock,
		TotalProduced: p.TotalProduced,
	}
}

// CreateBatch consumes fabric and opens the batch in CUTTING as one atomic
// unit: the fabric row is locked, the availability check and meter_used
// increment happen against the locked row, and the batch with its size
// breakdown commits in the same transaction.
func (s *productionService) CreateBatch(ctx context.Context, userID string, req CreateBatchRequest) (BatchResponse, error) {
	fabricID, err := uuid.Parse(req.FabricID)
	if err != nil {
		return BatchResponse{}, apperror.Validation("invalid fabric_id: %s", req.FabricID)
	}

	seen := make(map[string]bool, len(req.SizeBreakdown))
	totalPieces := 0
	for _, item := range req.SizeBreakdown {
		if seen[item.Size] {
			return BatchResponse{}, apperror.Validation("duplicate size in breakdown: %s", item.Size)
		}
		seen[item.Size] = true
		totalPieces += item.Quantity
	}

	batch := model.ProductionBatch{
		BatchCode:   generateCode("BAT"),
		FabricID:    fabricID,
		MeterUsed:   req.MeterUsed,
		Stage:       model.StageCutting,
		TotalPieces: totalPieces,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		fabric, findErr := s.fabricRepo.FindByIDForUpdate(txCtx, fabricID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return apperror.NotFound("fabric", req.FabricID)
			}
			return fmt.Errorf("failed to lock fabric %s: %w", req.FabricID, findErr)
		}

		if req.MeterUsed > fabric.MeterAvailable() {
			return apperror.InsufficientMeters(fabric.ID.String(), req.MeterUsed, fabric.MeterAvailable())
		}

		if updateErr := s.fabricRepo.UpdateMeterUsed(txCtx, fabric.ID, fabric.MeterUsed+req.MeterUsed); updateErr != nil {
			return fmt.Errorf("failed to consume fabric: %w", updateErr)
		}

		if createErr := s.batchRepo.Create(txCtx, &batch); createErr != nil {
			return fmt.Errorf("failed to create batch: %w", createErr)
		}

		for _, item := range req.SizeBreakdown {
			sizeItem := &model.BatchSizeItem{
				BatchID:  batch.ID,
				Size:     item.Size,
				Quantity: item.Quantity,
			}
			if createErr := s.batchRepo.CreateSizeItem(txCtx, sizeItem); createErr != nil {
				return fmt.Errorf("failed to create size item: %w", createErr)
			}
			batch.SizeItems = append(batch.SizeItems, *sizeItem)
		}

		details, _ := json.Marshal(req)
		if auditErr := s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:     parseUserID(userID),
			Action:     model.ActionCreateBatch,
			EntityID:   batch.ID.String(),
			EntityName: batch.BatchCode,
			Details:    string(details),
		}); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}
		return nil
	})
	if err != nil {
		return BatchResponse{}, err
	}

	return toBatchResponse(&batch), nil
}

// AdvanceStage moves the batch along CUTTING -> FINISHING -> READY. Any
// other transition is a conflict. READY additionally requires product
// metadata and materializes one product per size atomically; without valid
// metadata the transaction never starts mutating and the batch stays put.
func (s *productionService) AdvanceStage(ctx context.Context, userID string, batchID string, req AdvanceStageRequest) (BatchResponse, []ProductResponse, error) {
	id, err := uuid.Parse(batchID)
	if err != nil {
		return BatchResponse{}, nil, apperror.Validation("invalid batch id: %s", batchID)
	}

	var batch *model.ProductionBatch
	var products []ProductResponse

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var findErr error
		batch, findErr = s.batchRepo.FindByIDForUpdate(txCtx, id)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return apperror.NotFound("production batch", batchID)
			}
			return fmt.Errorf("failed to lock batch %s: %w", batchID, findErr)
		}

		if !model.CanTransitionStage(batch.Stage, req.Stage) {
			return apperror.Conflict("production batch", batchID,
				"illegal stage transition %s -> %s", batch.Stage, req.Stage)
		}

		if req.Stage == model.StageReady {
			created, readyErr := s.materializeProducts(txCtx, batch, req.ProductMetadata)
			if readyErr != nil {
				return readyErr
			}
			products = created
		}

		if updateErr := s.batchRepo.UpdateStage(txCtx, batch.ID, req.Stage); updateErr != nil {
			return fmt.Errorf("failed to update stage: %w", updateErr)
		}
		batch.Stage = req.Stage

		details, _ := json.Marshal(map[string]interface{}{
			"stage":            req.Stage,
			"products_created": len(products),
		})
		if auditErr := s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:     parseUserID(userID),
			Action:     model.ActionAdvanceBatch,
			EntityID:   batch.ID.String(),
			EntityName: batch.BatchCode,
			Details:    string(details),
		}); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}
		return nil
	})
	if err != nil {
		return BatchResponse{}, nil, err
	}

	notify(s.hub, EventBatchStage, map[string]interface{}{
		"batch_id": batch.ID.String(),
		"stage":    batch.Stage,
	})

	return toBatchResponse(batch), products, nil
}

// materializeProducts creates one product per size with generated SKU and
// barcode, factory stock credited with the breakdown quantity, plus a
// PRODUCTION_IN movement per product.
func (s *productionService) materializeProducts(ctx context.Context, batch *model.ProductionBatch, meta *ProductMetadata) ([]ProductResponse, error) {
	if meta == nil {
		return nil, apperror.Validation("product_metadata is required for the READY transition")
	}
	if meta.Name == "" || meta.Category == "" || meta.Brand == "" || meta.SalePrice == "" {
		return nil, apperror.Validation("product_metadata requires name, category, brand and sale_price")
	}

	salePrice, err := decimal.NewFromString(meta.SalePrice)
	if err != nil || salePrice.IsNegative() {
		return nil, apperror.Validation("invalid sale_price: %s", meta.SalePrice)
	}

	responses := make([]ProductResponse, 0, len(batch.SizeItems))
	for _, item := range batch.SizeItems {
		product := model.Product{
			BatchID:       batch.ID,
			SKU:           generateSKU(meta.Category, item.Size, batch.ID),
			Barcode:       generateBarcode(),
			Name:          meta.Name,
			Category:      meta.Category,
			Brand:         meta.Brand,
			Color:         meta.Color,
			Size:          item.Size,
			SalePrice:     salePrice,
			FactoryStock:  item.Quantity,
			TotalProduced: item.Quantity,
		}
		if createErr := s.productRepo.Create(ctx, &product); createErr != nil {
			return nil, fmt.Errorf("failed to create product for size %s: %w", item.Size, createErr)
		}

		batchRef := batch.ID
		if moveErr := s.movementRepo.Create(ctx, &model.StockMovement{
			ProductID:       product.ID,
			MovementType:    model.MovementProductionIn,
			QuantityChanged: item.Quantity,
			StockAfter:      item.Quantity,
			RefType:         model.MovementRefBatch,
			RefID:           &batchRef,
		}); moveErr != nil {
			return nil, fmt.Errorf("failed to record production movement: %w", moveErr)
		}

		responses = append(responses, toProductResponse(&product))
	}
	return responses, nil
}

func (s *productionService) ListBatches(ctx context.Context, page, limit int) ([]BatchResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	batches, total, err := s.batchRepo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]BatchResponse, 0, len(batches))
	for i := range batches {
		res = append(res, toBatchResponse(&batches[i]))
	}
	return res, total, nil
}

func (s *productionService) ListProducts(ctx context.Context, page, limit int, search string) ([]ProductResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	products, total, err := s.productRepo.List(ctx, page, limit, search)
	if err != nil {
		return nil, 0, err
	}

	res := make([]ProductResponse, 0, len(products))
	for i := range products {
		res = append(res, toProductResponse(&products[i]))
	}
	return res, total, nil
}
