package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"backend/internal/apperror"
	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DTOs
type CreateStoreRequest struct {
	Name    string `json:"name" binding:"required"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Manager string `json:"manager"`
}

type UpdateStoreRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Manager string `json:"manager"`
}

type StoreResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Manager string `json:"manager"`
}

type StoreInventoryResponse struct {
	ProductID         string `json:"product_id"`
	SKU               string `json:"sku"`
	Name              string `json:"name"`
	Size              string `json:"size"`
	Barcode           string `json:"barcode"`
	QuantityAvailable int    `json:"quantity_available"`
}

type StoreService interface {
	CreateStore(ctx context.Context, userID string, req CreateStoreRequest) (StoreResponse, error)
	UpdateStore(ctx context.Context, userID string, id string, req UpdateStoreRequest) (StoreResponse, error)
	ListStores(ctx context.Context, page, limit int) ([]StoreResponse, int64, error)
	GetStoreInventory(ctx context.Context, id string) ([]StoreInventoryResponse, error)
}

type storeService struct {
	storeRepo repository.StoreRepository
	auditRepo repository.AuditRepository
	txManager repository.TransactionManager
}

func NewStoreService(
	storeRepo repository.StoreRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) StoreService {
	return &storeService{
		storeRepo: storeRepo,
		auditRepo: auditRepo,
		txManager: txManager,
	}
}

func toStoreResponse(s *model.Store) StoreResponse {
	return StoreResponse{
		ID:      s.ID.String(),
		Name:    s.Name,
		Address: s.Address,
		Phone:   s.Phone,
		Manager: s.Manager,
	}
}

func (s *storeService) CreateStore(ctx context.Context, userID string, req CreateStoreRequest) (StoreResponse, error) {
	store := model.Store{
		Name:    req.Name,
		Address: req.Address,
		Phone:   req.Phone,
		Manager: req.Manager,
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.storeRepo.Create(txCtx, &store); err != nil {
			return fmt.Errorf("failed to create store: %w", err)
		}

		details, _ := json.Marshal(req)
		if err := s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:     parseUserID(userID),
			Action:     model.ActionCreateStore,
			EntityID:   store.ID.String(),
			EntityName: store.Name,
			Details:    string(details),
		}); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}
		return nil
	})
	if err != nil {
		return StoreResponse{}, err
	}

	return toStoreResponse(&store), nil
}

func (s *storeService) UpdateStore(ctx context.Context, userID string, id string, req UpdateStoreRequest) (StoreResponse, error) {
	storeID, err := uuid.Parse(id)
	if err != nil {
		return StoreResponse{}, apperror.Validation("invalid store id: %s", id)
	}

	store, err := s.storeRepo.FindByID(ctx, storeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return StoreResponse{}, apperror.NotFound("store", id)
		}
		return StoreResponse{}, fmt.Errorf("database error: %w", err)
	}

	if req.Name != "" {
		store.Name = req.Name
	}
	if req.Address != "" {
		store.Address = req.Address
	}
	if req.Phone != "" {
		store.Phone = req.Phone
	}
	if req.Manager != "" {
		store.Manager = req.Manager
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.storeRepo.Update(txCtx, store); err != nil {
			return fmt.Errorf("failed to update store: %w", err)
		}

		details, _ := json.Marshal(req)
		if err := s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:     parseUserID(userID),
			Action:     model.ActionUpdateStore,
			EntityID:   store.ID.String(),
			EntityName: store.Name,
			Details:    string(details),
		}); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}
		return nil
	})
	if err != nil {
		return StoreResponse{}, err
	}

	return toStoreResponse(store), nil
}

func (s *storeService) ListStores(ctx context.Context, page, limit int) ([]StoreResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	stores, total, err := s.storeRepo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]StoreResponse, 0, len(stores))
	for i := range stores {
		res = append(res, toStoreResponse(&stores[i]))
	}
	return res, total, nil
}

func (s *storeService) GetStoreInventory(ctx context.Context, id string) ([]StoreInventoryResponse, error) {
	storeID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperror.Validation("invalid store id: %s", id)
	}

	if _, err := s.storeRepo.FindByID(ctx, storeID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("store", id)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	items, err := s.storeRepo.ListItemsByStore(ctx, storeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list store inventory: %w", err)
	}

	res := make([]StoreInventoryResponse, 0, len(items))
	for _, item := range items {
		row := StoreInventoryResponse{
			ProductID:         item.ProductID.String(),
			QuantityAvailable: item.QuantityAvailable,
		}
		if item.Product != nil {
			row.SKU = item.Product.SKU
			row.Name = item.Product.Name
			row.Size = item.Product.Size
			row.Barcode = item.Product.Barcode
		}
		res = append(res, row)
	}
	return res, nil
}
