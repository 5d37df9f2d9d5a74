package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"backend/internal/apperror"
	"backend/internal/model"
	"backend/internal/repository"
	ws "backend/internal/websocket"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DTOs
type DispatchLineRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
}

type CreateDispatchRequest struct {
	StoreID  string                `json:"store_id" binding:"required"`
	Note     string                `json:"note"`
	Products []DispatchLineRequest `json:"products" binding:"required,min=1,dive"`
}

type UpdateDispatchStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=RECEIVED"`
}

type DispatchLineResponse struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type DispatchResponse struct {
	ID           string                 `json:"id"`
	DispatchCode string                 `json:"dispatch_code"`
	StoreID      string                 `json:"store_id"`
	Status       string                 `json:"status"`
	Note         string                 `json:"note"`
	Items        []DispatchLineResponse `json:"items"`
	ReceivedAt   *time.Time             `json:"received_at"`
	CreatedAt    time.Time              `json:"created_at"`
}

type DispatchService interface {
	CreateDispatch(ctx context.Context, userID string, req CreateDispatchRequest) (DispatchResponse, error)
	MarkReceived(ctx context.Context, userID string, dispatchID string) (DispatchResponse, error)
	DeleteDispatch(ctx context.Context, userID string, dispatchID string) error
	ListDispatches(ctx context.Context, page, limit int) ([]DispatchResponse, int64, error)
}

type dispatchService struct {
	dispatchRepo repository.DispatchRepository
	productRepo  repository.ProductRepository
	storeRepo    repository.StoreRepository
	movementRepo repository.StockMovementRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
	hub          *ws.Hub
}

func NewDispatchService(
	dispatchRepo repository.DispatchRepository,
	productRepo repository.ProductRepository,
	storeRepo repository.StoreRepository,
	movementRepo repository.StockMovementRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	hub *ws.Hub,
) DispatchService {
	return &dispatchService{
		dispatchRepo: dispatchRepo,
		productRepo:  productRepo,
		storeRepo:    storeRepo,
		movementRepo: movementRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
		hub:          hub,
	}
}

func toDispatchResponse(d *model.Dispatch) DispatchResponse {
	items := make([]DispatchLineResponse, 0, len(d.Items))
	for _, item := range d.Items {
		items = append(items, DispatchLineResponse{
			ProductID: item.ProductID.String(),
			Quantity:  item.Quantity,
		})
	}
	return DispatchResponse{
		ID:           d.ID.String(),
		DispatchCode: d.DispatchCode,
		StoreID:      d.StoreID.String(),
		Status:       d.Status,
		Note:         d.Note,
		Items:        items,
		ReceivedAt:   d.ReceivedAt,
		CreatedAt:    d.CreatedAt,
	}
}

type dispatchLine struct {
	productID uuid.UUID
	quantity  int
}

// parseDispatchLines validates ids, rejects duplicate products and sorts by
// product id so every transaction locks product rows in the same order.
func parseDispatchLines(reqs []DispatchLineRequest) ([]dispatchLine, error) {
	lines := make([]dispatchLine, 0, len(reqs))
	seen := make(map[uuid.UUID]bool, len(reqs))
	for _, req := range reqs {
		pid, err := uuid.Parse(req.ProductID)
		if err != nil {
			return nil, apperror.Validation("invalid product_id: %s", req.ProductID)
		}
		if seen[pid] {
			return nil, apperror.Validation("duplicate product in dispatch: %s", req.ProductID)
		}
		seen[pid] = true
		lines = append(lines, dispatchLine{productID: pid, quantity: req.Quantity})
	}
	sort.Slice(lines, func(i, j int) bool {
		return lines[i].productID.String() < lines[j].productID.String()
	})
	return lines, nil
}

// CreateDispatch debits factory stock for every line and persists the
// dispatch in PENDING, all-or-nothing: the first line failing its stock
// check rolls back every other line's debit.
func (s *dispatchService) CreateDispatch(ctx context.Context, userID string, req CreateDispatchRequest) (DispatchResponse, error) {
	storeID, err := uuid.Parse(req.StoreID)
	if err != nil {
		return DispatchResponse{}, apperror.Validation("invalid store_id: %s", req.StoreID)
	}
	lines, err := parseDispatchLines(req.Products)
	if err != nil {
		return DispatchResponse{}, err
	}

	dispatch := model.Dispatch{
		DispatchCode: generateCode("DSP"),
		StoreID:      storeID,
		Status:       model.DispatchStatusPending,
		Note:         req.Note,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if _, findErr := s.storeRepo.FindByID(txCtx, storeID); findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return apperror.NotFound("store", req.StoreID)
			}
			return fmt.Errorf("failed to find store %s: %w", req.StoreID, findErr)
		}

		if createErr := s.dispatchRepo.Create(txCtx, &dispatch); createErr != nil {
			return fmt.Errorf("failed to create dispatch: %w", createErr)
		}

		for _, line := range lines {
			product, lockErr := s.productRepo.FindByIDForUpdate(txCtx, line.productID)
			if lockErr != nil {
				if errors.Is(lockErr, gorm.ErrRecordNotFound) {
					return apperror.NotFound("product", line.productID.String())
				}
				return fmt.Errorf("failed to lock product %s: %w", line.productID, lockErr)
			}

			if line.quantity > product.FactoryStock {
				return apperror.InsufficientStock("product", product.ID.String(), line.quantity, product.FactoryStock)
			}

			stockAfter := product.FactoryStock - line.quantity
			if updateErr := s.productRepo.UpdateFactoryStock(txCtx, product.ID, stockAfter); updateErr != nil {
				return fmt.Errorf("failed to debit factory stock for %s: %w", product.SKU, updateErr)
			}

			item := &model.DispatchItem{
				DispatchID: dispatch.ID,
				ProductID:  product.ID,
				Quantity:   line.quantity,
			}
			if createErr := s.dispatchRepo.CreateItem(txCtx, item); createErr != nil {
				return fmt.Errorf("failed to create dispatch item: %w", createErr)
			}
			dispatch.Items = append(dispatch.Items, *item)

			dispatchRef := dispatch.ID
			if moveErr := s.movementRepo.Create(txCtx, &model.StockMovement{
				ProductID:       product.ID,
				MovementType:    model.MovementDispatchOut,
				QuantityChanged: -line.quantity,
				StockAfter:      stockAfter,
				RefType:         model.MovementRefDispatch,
				RefID:           &dispatchRef,
			}); moveErr != nil {
				return fmt.Errorf("failed to record dispatch movement: %w", moveErr)
			}
		}

		details, _ := json.Marshal(req)
		if auditErr := s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:     parseUserID(userID),
			Action:     model.ActionCreateDispatch,
			EntityID:   dispatch.ID.String(),
			EntityName: dispatch.DispatchCode,
			Details:    string(details),
		}); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}
		return nil
	})
	if err != nil {
		return DispatchResponse{}, err
	}

	notify(s.hub, EventFactoryStock, map[string]interface{}{
		"dispatch_id": dispatch.ID.String(),
		"status":      dispatch.Status,
	})

	return toDispatchResponse(&dispatch), nil
}

// MarkReceived credits the store exactly once. The dispatch row is locked
// before the status check, so a concurrent second call observes RECEIVED
// and fails with a conflict instead of double-crediting.
func (s *dispatchService) MarkReceived(ctx context.Context, userID string, dispatchID string) (DispatchResponse, error) {
	id, err := uuid.Parse(dispatchID)
	if err != nil {
		return DispatchResponse{}, apperror.Validation("invalid dispatch id: %s", dispatchID)
	}

	var dispatch *model.Dispatch
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var findErr error
		dispatch, findErr = s.dispatchRepo.FindByIDForUpdate(txCtx, id)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return apperror.NotFound("dispatch", dispatchID)
			}
			return fmt.Errorf("failed to lock dispatch %s: %w", dispatchID, findErr)
		}

		if dispatch.Status == model.DispatchStatusReceived {
			return apperror.Conflict("dispatch", dispatchID, "already received")
		}

		for _, item := range dispatch.Items {
			if creditErr := s.creditStore(txCtx, dispatch.StoreID, item.ProductID, item.Quantity,
				model.MovementStoreReceiveIn, model.MovementRefDispatch, dispatch.ID); creditErr != nil {
				return creditErr
			}
		}

		now := time.Now()
		if updateErr := s.dispatchRepo.UpdateStatus(txCtx, dispatch.ID, model.DispatchStatusReceived, &now); updateErr != nil {
			return fmt.Errorf("failed to update dispatch status: %w", updateErr)
		}
		dispatch.Status = model.DispatchStatusReceived
		dispatch.ReceivedAt = &now

		details, _ := json.Marshal(map[string]interface{}{"status": model.DispatchStatusReceived})
		if auditErr := s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:     parseUserID(userID),
			Action:     model.ActionReceiveDispatch,
			EntityID:   dispatch.ID.String(),
			EntityName: dispatch.DispatchCode,
			Details:    string(details),
		}); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}
		return nil
	})
	if err != nil {
		return DispatchResponse{}, err
	}

	notify(s.hub, EventStoreStock, map[string]interface{}{
		"dispatch_id": dispatch.ID.String(),
		"store_id":    dispatch.StoreID.String(),
		"status":      dispatch.Status,
	})

	return toDispatchResponse(dispatch), nil
}

// DeleteDispatch reverses exactly what has happened so far, keyed on the
// locked row's status: PENDING refunds the factory; RECEIVED refunds the
// factory and drains the store rows (floored at zero, removed when empty).
// A second delete finds nothing and fails with NotFoundError.
func (s *dispatchService) DeleteDispatch(ctx context.Context, userID string, dispatchID string) error {
	id, err := uuid.Parse(dispatchID)
	if err != nil {
		return apperror.Validation("invalid dispatch id: %s", dispatchID)
	}

	var storeID uuid.UUID
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		dispatch, findErr := s.dispatchRepo.FindByIDForUpdate(txCtx, id)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return apperror.NotFound("dispatch", dispatchID)
			}
			return fmt.Errorf("failed to lock dispatch %s: %w", dispatchID, findErr)
		}
		storeID = dispatch.StoreID

		for _, item := range dispatch.Items {
			product, lockErr := s.productRepo.FindByIDForUpdate(txCtx, item.ProductID)
			if lockErr != nil {
				return fmt.Errorf("failed to lock product %s: %w", item.ProductID, lockErr)
			}

			stockAfter := product.FactoryStock + item.Quantity
			if updateErr := s.productRepo.UpdateFactoryStock(txCtx, product.ID, stockAfter); updateErr != nil {
				return fmt.Errorf("failed to refund factory stock for %s: %w", product.SKU, updateErr)
			}

			dispatchRef := dispatch.ID
			if moveErr := s.movementRepo.Create(txCtx, &model.StockMovement{
				ProductID:       product.ID,
				MovementType:    model.MovementDispatchCancel,
				QuantityChanged: item.Quantity,
				StockAfter:      stockAfter,
				RefType:         model.MovementRefDispatch,
				RefID:           &dispatchRef,
			}); moveErr != nil {
				return fmt.Errorf("failed to record cancel movement: %w", moveErr)
			}

			if dispatch.Status == model.DispatchStatusReceived {
				if drainErr := s.drainStore(txCtx, dispatch.StoreID, item.ProductID, item.Quantity, dispatch.ID); drainErr != nil {
					return drainErr
				}
			}
		}

		if deleteErr := s.dispatchRepo.Delete(txCtx, dispatch.ID); deleteErr != nil {
			return fmt.Errorf("failed to delete dispatch: %w", deleteErr)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"status_at_deletion": dispatch.Status,
			"dispatch_code":      dispatch.DispatchCode,
		})
		if auditErr := s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:     parseUserID(userID),
			Action:     model.ActionDeleteDispatch,
			EntityID:   dispatch.ID.String(),
			EntityName: dispatch.DispatchCode,
			Details:    string(details),
		}); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}
		return nil
	})
	if err != nil {
		return err
	}

	notify(s.hub, EventFactoryStock, map[string]interface{}{
		"dispatch_id": dispatchID,
		"store_id":    storeID.String(),
		"deleted":     true,
	})
	return nil
}

func (s *dispatchService) ListDispatches(ctx context.Context, page, limit int) ([]DispatchResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	dispatches, total, err := s.dispatchRepo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]DispatchResponse, 0, len(dispatches))
	for i := range dispatches {
		res = append(res, toDispatchResponse(&dispatches[i]))
	}
	return res, total, nil
}

// creditStore increments the (store, product) row, creating it lazily on
// first receipt, and records the movement.
func (s *dispatchService) creditStore(ctx context.Context, storeID, productID uuid.UUID, quantity int, movementType, refType string, refID uuid.UUID) error {
	item, err := s.storeRepo.FindItemForUpdate(ctx, storeID, productID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to lock store inventory: %w", err)
		}
		item = &model.StoreInventoryItem{
			StoreID:           storeID,
			ProductID:         productID,
			QuantityAvailable: quantity,
		}
		if createErr := s.storeRepo.CreateItem(ctx, item); createErr != nil {
			return fmt.Errorf("failed to create store inventory row: %w", createErr)
		}
	} else {
		item.QuantityAvailable += quantity
		if updateErr := s.storeRepo.UpdateItemQuantity(ctx, item.ID, item.QuantityAvailable); updateErr != nil {
			return fmt.Errorf("failed to credit store inventory: %w", updateErr)
		}
	}

	ref := refID
	sid := storeID
	if moveErr := s.movementRepo.Create(ctx, &model.StockMovement{
		ProductID:       productID,
		StoreID:         &sid,
		MovementType:    movementType,
		QuantityChanged: quantity,
		StockAfter:      item.QuantityAvailable,
		RefType:         refType,
		RefID:           &ref,
	}); moveErr != nil {
		return fmt.Errorf("failed to record store movement: %w", moveErr)
	}
	return nil
}

// drainStore removes up to quantity from the (store, product) row, floored
// at zero; the row disappears when it reaches zero. Units already sold out
// of the store cannot be clawed back, hence the floor.
func (s *dispatchService) drainStore(ctx context.Context, storeID, productID uuid.UUID, quantity int, dispatchID uuid.UUID) error {
	item, err := s.storeRepo.FindItemForUpdate(ctx, storeID, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("failed to lock store inventory: %w", err)
	}

	removed := quantity
	remaining := item.QuantityAvailable - quantity
	if remaining <= 0 {
		removed = item.QuantityAvailable
		remaining = 0
		if deleteErr := s.storeRepo.DeleteItem(ctx, item.ID); deleteErr != nil {
			return fmt.Errorf("failed to remove store inventory row: %w", deleteErr)
		}
	} else {
		if updateErr := s.storeRepo.UpdateItemQuantity(ctx, item.ID, remaining); updateErr != nil {
			return fmt.Errorf("failed to debit store inventory: %w", updateErr)
		}
	}

	ref := dispatchID
	sid := storeID
	if moveErr := s.movementRepo.Create(ctx, &model.StockMovement{
		ProductID:       productID,
		StoreID:         &sid,
		MovementType:    model.MovementStoreRecallOut,
		QuantityChanged: -removed,
		StockAfter:      remaining,
		RefType:         model.MovementRefDispatch,
		RefID:           &ref,
	}); moveErr != nil {
		return fmt.Errorf("failed to record recall movement: %w", moveErr)
	}
	return nil
}
