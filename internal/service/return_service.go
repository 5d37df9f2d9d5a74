package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"backend/internal/apperror"
	"backend/internal/model"
	"backend/internal/repository"
	ws "backend/internal/websocket"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DTOs
type CreateReturnRequest struct {
	Type            string `json:"type" binding:"required,oneof=CUSTOMER_RETURN STORE_TO_FACTORY DAMAGED"`
	StoreID         string `json:"store_id" binding:"required"`
	ProductID       string `json:"product_id" binding:"required"`
	Quantity        int    `json:"quantity" binding:"required,gt=0"`
	ReferenceSaleID string `json:"reference_sale_id"`
	Reason          string `json:"reason"`
}

type ReturnResponse struct {
	ID              string    `json:"id"`
	Type            string    `json:"type"`
	StoreID         string    `json:"store_id"`
	ProductID       string    `json:"product_id"`
	Quantity        int       `json:"quantity"`
	ReferenceSaleID *string   `json:"reference_sale_id"`
	Reason          string    `json:"reason"`
	CreatedAt       time.Time `json:"created_at"`
}

type ReturnService interface {
	CreateReturn(ctx context.Context, userID string, req CreateReturnRequest) (ReturnResponse, error)
	ListReturns(ctx context.Context, page, limit int, returnType string) ([]ReturnResponse, int64, error)
}

type returnService struct {
	returnRepo   repository.ReturnRepository
	saleRepo     repository.SaleRepository
	storeRepo    repository.StoreRepository
	productRepo  repository.ProductRepository
	movementRepo repository.StockMovementRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
	hub          *ws.Hub
}

func NewReturnService(
	returnRepo repository.ReturnRepository,
	saleRepo repository.SaleRepository,
	storeRepo repository.StoreRepository,
	productRepo repository.ProductRepository,
	movementRepo repository.StockMovementRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	hub *ws.Hub,
) ReturnService {
	return &returnService{
		returnRepo:   returnRepo,
		saleRepo:     saleRepo,
		storeRepo:    storeRepo,
		productRepo:  productRepo,
		movementRepo: movementRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
		hub:          hub,
	}
}

func toReturnResponse(r *model.Return) ReturnResponse {
	var saleID *string
	if r.ReferenceSaleID != nil {
		s := r.ReferenceSaleID.String()
		saleID = &s
	}
	return ReturnResponse{
		ID:              r.ID.String(),
		Type:            r.Type,
		StoreID:         r.StoreID.String(),
		ProductID:       r.ProductID.String(),
		Quantity:        r.Quantity,
		ReferenceSaleID: saleID,
		Reason:          r.Reason,
		CreatedAt:       r.CreatedAt,
	}
}

// CreateReturn processes one of the three variants. Each runs as a single
// transaction with the touched counter rows locked; the Return row itself
// is append-only provenance for the over-return guard.
func (s *returnService) CreateReturn(ctx context.Context, userID string, req CreateReturnRequest) (ReturnResponse, error) {
	storeID, err := uuid.Parse(req.StoreID)
	if err != nil {
		return ReturnResponse{}, apperror.Validation("invalid store_id: %s", req.StoreID)
	}
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return ReturnResponse{}, apperror.Validation("invalid product_id: %s", req.ProductID)
	}

	ret := model.Return{
		Type:      req.Type,
		StoreID:   storeID,
		ProductID: productID,
		Quantity:  req.Quantity,
		Reason:    req.Reason,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var applyErr error
		switch req.Type {
		case model.ReturnCustomer:
			applyErr = s.applyCustomerReturn(txCtx, &ret, req)
		case model.ReturnStoreToFactory:
			applyErr = s.applyStoreToFactory(txCtx, &ret)
		case model.ReturnDamaged:
			applyErr = s.applyDamaged(txCtx, &ret)
		default:
			applyErr = apperror.Validation("unknown return type: %s", req.Type)
		}
		if applyErr != nil {
			return applyErr
		}

		details, _ := json.Marshal(req)
		if auditErr := s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:     parseUserID(userID),
			Action:     model.ActionCreateReturn,
			EntityID:   ret.ID.String(),
			EntityName: req.Type,
			Details:    string(details),
		}); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}
		return nil
	})
	if err != nil {
		return ReturnResponse{}, err
	}

	notify(s.hub, EventStoreStock, map[string]interface{}{
		"return_id":   ret.ID.String(),
		"return_type": ret.Type,
		"store_id":    ret.StoreID.String(),
	})

	return toReturnResponse(&ret), nil
}

// applyCustomerReturn credits the store against the referenced sale line.
// The bound is the sale line quantity minus prior customer returns against
// that same line, never inferred from dispatch history, which is what
// protects against crediting the same units twice.
func (s *returnService) applyCustomerReturn(ctx context.Context, ret *model.Return, req CreateReturnRequest) error {
	if req.ReferenceSaleID == "" {
		return apperror.Validation("reference_sale_id is required for CUSTOMER_RETURN")
	}
	saleID, err := uuid.Parse(req.ReferenceSaleID)
	if err != nil {
		return apperror.Validation("invalid reference_sale_id: %s", req.ReferenceSaleID)
	}

	sale, err := s.saleRepo.FindByIDWithItems(ctx, saleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NotFound("sale", req.ReferenceSaleID)
		}
		return fmt.Errorf("failed to find sale %s: %w", req.ReferenceSaleID, err)
	}
	if sale.StoreID != ret.StoreID {
		return apperror.Validation("sale %s does not belong to store %s", req.ReferenceSaleID, req.StoreID)
	}

	soldQuantity := 0
	for _, item := range sale.Items {
		if item.ProductID == ret.ProductID {
			soldQuantity = item.Quantity
			break
		}
	}
	if soldQuantity == 0 {
		return apperror.Validation("sale %s has no line for product %s", req.ReferenceSaleID, req.ProductID)
	}

	alreadyReturned, err := s.returnRepo.SumCustomerReturns(ctx, saleID, ret.ProductID)
	if err != nil {
		return fmt.Errorf("failed to sum prior returns: %w", err)
	}
	if ret.Quantity+alreadyReturned > soldQuantity {
		return apperror.OverReturn(saleID.String(), ret.ProductID.String(), soldQuantity, alreadyReturned, ret.Quantity)
	}

	ret.ReferenceSaleID = &saleID
	if err := s.returnRepo.Create(ctx, ret); err != nil {
		return fmt.Errorf("failed to create return: %w", err)
	}

	return s.creditStoreForReturn(ctx, ret)
}

// applyStoreToFactory moves quantity from the store pool back to the
// factory pool, conserving total units.
func (s *returnService) applyStoreToFactory(ctx context.Context, ret *model.Return) error {
	if err := s.debitStoreForReturn(ctx, ret, model.MovementTransferOut); err != nil {
		return err
	}

	product, err := s.productRepo.FindByIDForUpdate(ctx, ret.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NotFound("product", ret.ProductID.String())
		}
		return fmt.Errorf("failed to lock product %s: %w", ret.ProductID, err)
	}

	factoryAfter := product.FactoryStock + ret.Quantity
	if err := s.productRepo.UpdateFactoryStock(ctx, product.ID, factoryAfter); err != nil {
		return fmt.Errorf("failed to credit factory stock: %w", err)
	}

	retRef := ret.ID
	if err := s.movementRepo.Create(ctx, &model.StockMovement{
		ProductID:       ret.ProductID,
		MovementType:    model.MovementTransferIn,
		QuantityChanged: ret.Quantity,
		StockAfter:      factoryAfter,
		RefType:         model.MovementRefReturn,
		RefID:           &retRef,
	}); err != nil {
		return fmt.Errorf("failed to record transfer movement: %w", err)
	}
	return nil
}

// applyDamaged writes quantity off from the store pool. Nothing is
// credited anywhere; the units leave circulation.
func (s *returnService) applyDamaged(ctx context.Context, ret *model.Return) error {
	return s.debitStoreForReturn(ctx, ret, model.MovementDamageOut)
}

// debitStoreForReturn locks the (store, product) row, enforces the
// availability check, applies the debit, persists the return row and
// records the store-side movement.
func (s *returnService) debitStoreForReturn(ctx context.Context, ret *model.Return, movementType string) error {
	item, err := s.storeRepo.FindItemForUpdate(ctx, ret.StoreID, ret.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.InsufficientStock("store inventory", ret.ProductID.String(), ret.Quantity, 0)
		}
		return fmt.Errorf("failed to lock store inventory: %w", err)
	}
	if ret.Quantity > item.QuantityAvailable {
		return apperror.InsufficientStock("store inventory", ret.ProductID.String(), ret.Quantity, item.QuantityAvailable)
	}

	if err := s.returnRepo.Create(ctx, ret); err != nil {
		return fmt.Errorf("failed to create return: %w", err)
	}

	stockAfter := item.QuantityAvailable - ret.Quantity
	if err := s.storeRepo.UpdateItemQuantity(ctx, item.ID, stockAfter); err != nil {
		return fmt.Errorf("failed to debit store inventory: %w", err)
	}

	retRef := ret.ID
	sid := ret.StoreID
	if err := s.movementRepo.Create(ctx, &model.StockMovement{
		ProductID:       ret.ProductID,
		StoreID:         &sid,
		MovementType:    movementType,
		QuantityChanged: -ret.Quantity,
		StockAfter:      stockAfter,
		RefType:         model.MovementRefReturn,
		RefID:           &retRef,
	}); err != nil {
		return fmt.Errorf("failed to record return movement: %w", err)
	}
	return nil
}

// creditStoreForReturn credits the (store, product) row for a customer
// return, creating the row lazily if the store has since emptied it.
func (s *returnService) creditStoreForReturn(ctx context.Context, ret *model.Return) error {
	item, err := s.storeRepo.FindItemForUpdate(ctx, ret.StoreID, ret.ProductID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to lock store inventory: %w", err)
		}
		item = &model.StoreInventoryItem{
			StoreID:           ret.StoreID,
			ProductID:         ret.ProductID,
			QuantityAvailable: ret.Quantity,
		}
		if createErr := s.storeRepo.CreateItem(ctx, item); createErr != nil {
			return fmt.Errorf("failed to create store inventory row: %w", createErr)
		}
	} else {
		item.QuantityAvailable += ret.Quantity
		if updateErr := s.storeRepo.UpdateItemQuantity(ctx, item.ID, item.QuantityAvailable); updateErr != nil {
			return fmt.Errorf("failed to credit store inventory: %w", updateErr)
		}
	}

	retRef := ret.ID
	sid := ret.StoreID
	if err := s.movementRepo.Create(ctx, &model.StockMovement{
		ProductID:       ret.ProductID,
		StoreID:         &sid,
		MovementType:    model.MovementCustomerReturn,
		QuantityChanged: ret.Quantity,
		StockAfter:      item.QuantityAvailable,
		RefType:         model.MovementRefReturn,
		RefID:           &retRef,
	}); err != nil {
		return fmt.Errorf("failed to record return movement: %w", err)
	}
	return nil
}

func (s *returnService) ListReturns(ctx context.Context, page, limit int, returnType string) ([]ReturnResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	if returnType != "" && !model.IsValidReturnType(returnType) {
		return nil, 0, apperror.Validation("unknown return type: %s", returnType)
	}

	returns, total, err := s.returnRepo.List(ctx, page, limit, returnType)
	if err != nil {
		return nil, 0, err
	}

	res := make([]ReturnResponse, 0, len(returns))
	for i := range returns {
		res = append(res, toReturnResponse(&returns[i]))
	}
	return res, total, nil
}
