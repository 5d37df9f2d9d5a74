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
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DTOs
type SaleLineRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Barcode   string `json:"barcode"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
	Price     string `json:"price" binding:"required"`
}

type CreateSaleRequest struct {
	StoreID     string            `json:"store_id" binding:"required"`
	Products    []SaleLineRequest `json:"products" binding:"required,min=1,dive"`
	Discount    string            `json:"discount"`
	Tax         string            `json:"tax"`
	PaymentMode string            `json:"payment_mode" binding:"required,oneof=CASH CARD UPI"`
}

type SaleLineResponse struct {
	ProductID string `json:"product_id"`
	Barcode   string `json:"barcode"`
	Quantity  int    `json:"quantity"`
	Price     string `json:"price"`
	Total     string `json:"total"`
}

type SaleResponse struct {
	ID          string             `json:"id"`
	SaleCode    string             `json:"sale_code"`
	StoreID     string             `json:"store_id"`
	Items       []SaleLineResponse `json:"items"`
	SubTotal    string             `json:"sub_total"`
	Discount    string             `json:"discount"`
	Tax         string             `json:"tax"`
	GrandTotal  string             `json:"grand_total"`
	PaymentMode string             `json:"payment_mode"`
	CreatedAt   time.Time          `json:"created_at"`
}

type SaleService interface {
	CreateSale(ctx context.Context, userID string, req CreateSaleRequest) (SaleResponse, error)
	ListSales(ctx context.Context, page, limit int) ([]SaleResponse, int64, error)
}

type saleService struct {
	saleRepo     repository.SaleRepository
	storeRepo    repository.StoreRepository
	productRepo  repository.ProductRepository
	movementRepo repository.StockMovementRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
	hub          *ws.Hub
}

func NewSaleService(
	saleRepo repository.SaleRepository,
	storeRepo repository.StoreRepository,
	productRepo repository.ProductRepository,
	movementRepo repository.StockMovementRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	hub *ws.Hub,
) SaleService {
	return &saleService{
		saleRepo:     saleRepo,
		storeRepo:    storeRepo,
		productRepo:  productRepo,
		movementRepo: movementRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
		hub:          hub,
	}
}

func toSaleResponse(sale *model.Sale) SaleResponse {
	items := make([]SaleLineResponse, 0, len(sale.Items))
	for _, item := range sale.Items {
		items = append(items, SaleLineResponse{
			ProductID: item.ProductID.String(),
			Barcode:   item.Barcode,
			Quantity:  item.Quantity,
			Price:     item.Price.StringFixed(2),
			Total:     item.Total.StringFixed(2),
		})
	}
	return SaleResponse{
		ID:          sale.ID.String(),
		SaleCode:    sale.SaleCode,
		StoreID:     sale.StoreID.String(),
		Items:       items,
		SubTotal:    sale.SubTotal.StringFixed(2),
		Discount:    sale.Discount.StringFixed(2),
		Tax:         sale.Tax.StringFixed(2),
		GrandTotal:  sale.GrandTotal.StringFixed(2),
		PaymentMode: sale.PaymentMode,
		CreatedAt:   sale.CreatedAt,
	}
}

type saleLine struct {
	productID uuid.UUID
	barcode   string
	quantity  int
	price     decimal.Decimal
}

func parseSaleLines(reqs []SaleLineRequest) ([]saleLine, error) {
	lines := make([]saleLine, 0, len(reqs))
	seen := make(map[uuid.UUID]bool, len(reqs))
	for _, req := range reqs {
		pid, err := uuid.Parse(req.ProductID)
		if err != nil {
			return nil, apperror.Validation("invalid product_id: %s", req.ProductID)
		}
		if seen[pid] {
			return nil, apperror.Validation("duplicate product in sale: %s", req.ProductID)
		}
		seen[pid] = true

		price, err := decimal.NewFromString(req.Price)
		if err != nil || price.IsNegative() {
			return nil, apperror.Validation("invalid price for product %s: %s", req.ProductID, req.Price)
		}
		lines = append(lines, saleLine{productID: pid, barcode: req.Barcode, quantity: req.Quantity, price: price})
	}
	sort.Slice(lines, func(i, j int) bool {
		return lines[i].productID.String() < lines[j].productID.String()
	})
	return lines, nil
}

func parseOptionalAmount(field, value string) (decimal.Decimal, error) {
	if value == "" {
		return decimal.Zero, nil
	}
	amount, err := decimal.NewFromString(value)
	if err != nil || amount.IsNegative() {
		return decimal.Zero, apperror.Validation("invalid %s: %s", field, value)
	}
	return amount, nil
}

// CreateSale debits the store's quantity for every line atomically and
// persists an immutable sale. Totals are recomputed server-side; whatever
// the client thinks the total is never reaches the ledger.
func (s *saleService) CreateSale(ctx context.Context, userID string, req CreateSaleRequest) (SaleResponse, error) {
	storeID, err := uuid.Parse(req.StoreID)
	if err != nil {
		return SaleResponse{}, apperror.Validation("invalid store_id: %s", req.StoreID)
	}
	lines, err := parseSaleLines(req.Products)
	if err != nil {
		return SaleResponse{}, err
	}
	discount, err := parseOptionalAmount("discount", req.Discount)
	if err != nil {
		return SaleResponse{}, err
	}
	tax, err := parseOptionalAmount("tax", req.Tax)
	if err != nil {
		return SaleResponse{}, err
	}

	sale := model.Sale{
		SaleCode:    generateCode("SAL"),
		StoreID:     storeID,
		Discount:    discount,
		Tax:         tax,
		PaymentMode: req.PaymentMode,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if _, findErr := s.storeRepo.FindByID(txCtx, storeID); findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return apperror.NotFound("store", req.StoreID)
			}
			return fmt.Errorf("failed to find store %s: %w", req.StoreID, findErr)
		}

		type debit struct {
			line       saleLine
			item       *model.StoreInventoryItem
			stockAfter int
		}
		debits := make([]debit, 0, len(lines))

		// Check every line against the locked store rows before writing
		// anything, so a late failure cannot leave partial debits.
		subTotal := decimal.Zero
		for _, line := range lines {
			item, lockErr := s.storeRepo.FindItemForUpdate(txCtx, storeID, line.productID)
			if lockErr != nil {
				if errors.Is(lockErr, gorm.ErrRecordNotFound) {
					return apperror.InsufficientStock("store inventory", line.productID.String(), line.quantity, 0)
				}
				return fmt.Errorf("failed to lock store inventory: %w", lockErr)
			}
			if line.quantity > item.QuantityAvailable {
				return apperror.InsufficientStock("store inventory", line.productID.String(), line.quantity, item.QuantityAvailable)
			}
			debits = append(debits, debit{line: line, item: item, stockAfter: item.QuantityAvailable - line.quantity})
			subTotal = subTotal.Add(line.price.Mul(decimal.NewFromInt(int64(line.quantity))))
		}

		sale.SubTotal = subTotal
		sale.GrandTotal = subTotal.Sub(discount).Add(tax)
		if createErr := s.saleRepo.Create(txCtx, &sale); createErr != nil {
			return fmt.Errorf("failed to create sale: %w", createErr)
		}

		for _, d := range debits {
			if updateErr := s.storeRepo.UpdateItemQuantity(txCtx, d.item.ID, d.stockAfter); updateErr != nil {
				return fmt.Errorf("failed to debit store inventory: %w", updateErr)
			}

			saleItem := &model.SaleItem{
				SaleID:    sale.ID,
				ProductID: d.line.productID,
				Barcode:   d.line.barcode,
				Quantity:  d.line.quantity,
				Price:     d.line.price,
				Total:     d.line.price.Mul(decimal.NewFromInt(int64(d.line.quantity))),
			}
			if createErr := s.saleRepo.CreateItem(txCtx, saleItem); createErr != nil {
				return fmt.Errorf("failed to create sale item: %w", createErr)
			}
			sale.Items = append(sale.Items, *saleItem)

			saleRef := sale.ID
			sid := storeID
			if moveErr := s.movementRepo.Create(txCtx, &model.StockMovement{
				ProductID:       d.line.productID,
				StoreID:         &sid,
				MovementType:    model.MovementSaleOut,
				QuantityChanged: -d.line.quantity,
				StockAfter:      d.stockAfter,
				RefType:         model.MovementRefSale,
				RefID:           &saleRef,
			}); moveErr != nil {
				return fmt.Errorf("failed to record sale movement: %w", moveErr)
			}
		}

		details, _ := json.Marshal(req)
		if auditErr := s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:     parseUserID(userID),
			Action:     model.ActionCreateSale,
			EntityID:   sale.ID.String(),
			EntityName: sale.SaleCode,
			Details:    string(details),
		}); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}
		return nil
	})
	if err != nil {
		return SaleResponse{}, err
	}

	notify(s.hub, EventStoreStock, map[string]interface{}{
		"sale_id":  sale.ID.String(),
		"store_id": sale.StoreID.String(),
	})

	return toSaleResponse(&sale), nil
}

func (s *saleService) ListSales(ctx context.Context, page, limit int) ([]SaleResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	sales, total, err := s.saleRepo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]SaleResponse, 0, len(sales))
	for i := range sales {
		res = append(res, toSaleResponse(&sales[i]))
	}
	return res, total, nil
}
