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
type CreateFabricRequest struct {
	Name                string  `json:"name" binding:"required"`
	Color               string  `json:"color"`
	Supplier            string  `json:"supplier"`
	TotalMeterPurchased float64 `json:"total_meter_purchased" binding:"required,gt=0"`
}

type FabricResponse struct {
	ID                  string  `json:"id"`
	Name                string  `json:"name"`
	Color               string  `json:"color"`
	Supplier            string  `json:"supplier"`
	TotalMeterPurchased float64 `json:"total_meter_purchased"`
	MeterUsed           float64 `json:"meter_used"`
	MeterAvailable      float64 `json:"meter_available"`
}

type FabricService interface {
	CreateFabric(ctx context.Context, userID string, req CreateFabricRequest) (FabricResponse, error)
	GetFabric(ctx context.Context, id string) (FabricResponse, error)
	ListFabrics(ctx context.Context, page, limit int) ([]FabricResponse, int64, error)
}

type fabricService struct {
	fabricRepo repository.FabricRepository
	auditRepo  repository.AuditRepository
	txManager  repository.TransactionManager
}

func NewFabricService(
	fabricRepo repository.FabricRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) FabricService {
	return &fabricService{
		fabricRepo: fabricRepo,
		auditRepo:  auditRepo,
		txManager:  txManager,
	}
}

func toFabricResponse(f *model.Fabric) FabricResponse {
	return FabricResponse{
		ID:                  f.ID.String(),
		Name:                f.Name,
		Color:               f.Color,
		Supplier:            f.Supplier,
		TotalMeterPurchased: f.TotalMeterPurchased,
		MeterUsed:           f.MeterUsed,
		MeterAvailable:      f.MeterAvailable(),
	}
}

func (s *fabricService) CreateFabric(ctx context.Context, userID string, req CreateFabricRequest) (FabricResponse, error) {
	fabric := model.Fabric{
		Name:                req.Name,
		Color:               req.Color,
		Supplier:            req.Supplier,
		TotalMeterPurchased: req.TotalMeterPurchased,
		MeterUsed:           0,
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.fabricRepo.Create(txCtx, &fabric); err != nil {
			return fmt.Errorf("failed to create fabric: %w", err)
		}

		details, _ := json.Marshal(req)
		if err := s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:     parseUserID(userID),
			Action:     model.ActionCreateFabric,
			EntityID:   fabric.ID.String(),
			EntityName: fabric.Name,
			Details:    string(details),
		}); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}
		return nil
	})
	if err != nil {
		return FabricResponse{}, err
	}

	return toFabricResponse(&fabric), nil
}

func (s *fabricService) GetFabric(ctx context.Context, id string) (FabricResponse, error) {
	fabricID, err := uuid.Parse(id)
	if err != nil {
		return FabricResponse{}, apperror.Validation("invalid fabric id: %s", id)
	}

	fabric, err := s.fabricRepo.FindByID(ctx, fabricID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return FabricResponse{}, apperror.NotFound("fabric", id)
		}
		return FabricResponse{}, fmt.Errorf("database error: %w", err)
	}

	return toFabricResponse(fabric), nil
}

func (s *fabricService) ListFabrics(ctx context.Context, page, limit int) ([]FabricResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	fabrics, total, err := s.fabricRepo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]FabricResponse, 0, len(fabrics))
	for i := range fabrics {
		res = append(res, toFabricResponse(&fabrics[i]))
	}
	return res, total, nil
}

// parseUserID tolerates missing/invalid user ids so automated callers can
// still write audit rows attributed to "System".
func parseUserID(userID string) *uuid.UUID {
	if parsed, err := uuid.Parse(userID); err == nil {
		return &parsed
	}
	return nil
}
