package service

import (
	"context"
	"strings"
	"time"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// memState is the shared backing store for the in-memory repository fakes.
// Entities are stored by value so reads hand out copies; state only changes
// through the repository methods, mirroring how the real repos behave.
type memState struct {
	fabrics       map[uuid.UUID]model.Fabric
	batches       map[uuid.UUID]model.ProductionBatch
	sizeItems     []model.BatchSizeItem
	products      map[uuid.UUID]model.Product
	stores        map[uuid.UUID]model.Store
	storeItems    map[uuid.UUID]model.StoreInventoryItem
	dispatches    map[uuid.UUID]model.Dispatch
	dispatchItems []model.DispatchItem
	sales         map[uuid.UUID]model.Sale
	saleItems     []model.SaleItem
	returns       []model.Return
	movements     []model.StockMovement
	audits        []model.AuditLog
}

func newMemState() *memState {
	return &memState{
		fabrics:    make(map[uuid.UUID]model.Fabric),
		batches:    make(map[uuid.UUID]model.ProductionBatch),
		products:   make(map[uuid.UUID]model.Product),
		stores:     make(map[uuid.UUID]model.Store),
		storeItems: make(map[uuid.UUID]model.StoreInventoryItem),
		dispatches: make(map[uuid.UUID]model.Dispatch),
		sales:      make(map[uuid.UUID]model.Sale),
	}
}

func (s *memState) snapshot() memState {
	snap := memState{
		fabrics:       make(map[uuid.UUID]model.Fabric, len(s.fabrics)),
		batches:       make(map[uuid.UUID]model.ProductionBatch, len(s.batches)),
		sizeItems:     append([]model.BatchSizeItem(nil), s.sizeItems...),
		products:      make(map[uuid.UUID]model.Product, len(s.products)),
		stores:        make(map[uuid.UUID]model.Store, len(s.stores)),
		storeItems:    make(map[uuid.UUID]model.StoreInventoryItem, len(s.storeItems)),
		dispatches:    make(map[uuid.UUID]model.Dispatch, len(s.dispatches)),
		dispatchItems: append([]model.DispatchItem(nil), s.dispatchItems...),
		sales:         make(map[uuid.UUID]model.Sale, len(s.sales)),
		saleItems:     append([]model.SaleItem(nil), s.saleItems...),
		returns:       append([]model.Return(nil), s.returns...),
		movements:     append([]model.StockMovement(nil), s.movements...),
		audits:        append([]model.AuditLog(nil), s.audits...),
	}
	for k, v := range s.fabrics {
		snap.fabrics[k] = v
	}
	for k, v := range s.batches {
		snap.batches[k] = v
	}
	for k, v := range s.products {
		snap.products[k] = v
	}
	for k, v := range s.stores {
		snap.stores[k] = v
	}
	for k, v := range s.storeItems {
		snap.storeItems[k] = v
	}
	for k, v := range s.dispatches {
		snap.dispatches[k] = v
	}
	for k, v := range s.sales {
		snap.sales[k] = v
	}
	return snap
}

func (s *memState) restore(snap memState) {
	*s = snap
}

// fakeTxManager snapshots state before the callback and rolls back on error,
// giving the fakes the same all-or-nothing behavior as a real transaction.
type fakeTxManager struct {
	state *memState
}

func (t *fakeTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	snap := t.state.snapshot()
	if err := fn(ctx); err != nil {
		t.state.restore(snap)
		return err
	}
	return nil
}

// --- Fabric ---

type fakeFabricRepo struct{ state *memState }

func (r *fakeFabricRepo) Create(ctx context.Context, fabric *model.Fabric) error {
	if fabric.ID == uuid.Nil {
		fabric.ID = uuid.New()
	}
	fabric.CreatedAt = time.Now()
	r.state.fabrics[fabric.ID] = *fabric
	return nil
}

func (r *fakeFabricRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Fabric, error) {
	f, ok := r.state.fabrics[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &f, nil
}

func (r *fakeFabricRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Fabric, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeFabricRepo) UpdateMeterUsed(ctx context.Context, id uuid.UUID, meterUsed float64) error {
	f, ok := r.state.fabrics[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	f.MeterUsed = meterUsed
	r.state.fabrics[id] = f
	return nil
}

func (r *fakeFabricRepo) List(ctx context.Context, page, limit int) ([]model.Fabric, int64, error) {
	var out []model.Fabric
	for _, f := range r.state.fabrics {
		out = append(out, f)
	}
	return out, int64(len(out)), nil
}

// --- Batch ---

type fakeBatchRepo struct{ state *memState }

func (r *fakeBatchRepo) Create(ctx context.Context, batch *model.ProductionBatch) error {
	if batch.ID == uuid.Nil {
		batch.ID = uuid.New()
	}
	batch.CreatedAt = time.Now()
	stored := *batch
	stored.SizeItems = nil
	r.state.batches[batch.ID] = stored
	return nil
}

func (r *fakeBatchRepo) CreateSizeItem(ctx context.Context, item *model.BatchSizeItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	r.state.sizeItems = append(r.state.sizeItems, *item)
	return nil
}

func (r *fakeBatchRepo) findWithItems(id uuid.UUID) (*model.ProductionBatch, error) {
	b, ok := r.state.batches[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	for _, item := range r.state.sizeItems {
		if item.BatchID == id {
			b.SizeItems = append(b.SizeItems, item)
		}
	}
	return &b, nil
}

func (r *fakeBatchRepo) FindByIDWithItems(ctx context.Context, id uuid.UUID) (*model.ProductionBatch, error) {
	return r.findWithItems(id)
}

func (r *fakeBatchRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.ProductionBatch, error) {
	return r.findWithItems(id)
}

func (r *fakeBatchRepo) UpdateStage(ctx context.Context, id uuid.UUID, stage string) error {
	b, ok := r.state.batches[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	b.Stage = stage
	r.state.batches[id] = b
	return nil
}

func (r *fakeBatchRepo) List(ctx context.Context, page, limit int) ([]model.ProductionBatch, int64, error) {
	var out []model.ProductionBatch
	for id := range r.state.batches {
		b, _ := r.findWithItems(id)
		out = append(out, *b)
	}
	return out, int64(len(out)), nil
}

// --- Product ---

type fakeProductRepo struct{ state *memState }

func (r *fakeProductRepo) Create(ctx context.Context, product *model.Product) error {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	product.CreatedAt = time.Now()
	r.state.products[product.ID] = *product
	return nil
}

func (r *fakeProductRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	p, ok := r.state.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &p, nil
}

func (r *fakeProductRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeProductRepo) FindByBarcode(ctx context.Context, barcode string) (*model.Product, error) {
	for _, p := range r.state.products {
		if p.Barcode == barcode {
			return &p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeProductRepo) UpdateFactoryStock(ctx context.Context, id uuid.UUID, stock int) error {
	p, ok := r.state.products[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.FactoryStock = stock
	r.state.products[id] = p
	return nil
}

func (r *fakeProductRepo) List(ctx context.Context, page, limit int, search string) ([]model.Product, int64, error) {
	var out []model.Product
	for _, p := range r.state.products {
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Name), strings.ToLower(search)) &&
			!strings.Contains(strings.ToLower(p.SKU), strings.ToLower(search)) {
			continue
		}
		out = append(out, p)
	}
	return out, int64(len(out)), nil
}

// --- Store ---

type fakeStoreRepo struct{ state *memState }

func (r *fakeStoreRepo) Create(ctx context.Context, store *model.Store) error {
	if store.ID == uuid.Nil {
		store.ID = uuid.New()
	}
	store.CreatedAt = time.Now()
	r.state.stores[store.ID] = *store
	return nil
}

func (r *fakeStoreRepo) Update(ctx context.Context, store *model.Store) error {
	if _, ok := r.state.stores[store.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.state.stores[store.ID] = *store
	return nil
}

func (r *fakeStoreRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Store, error) {
	s, ok := r.state.stores[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &s, nil
}

func (r *fakeStoreRepo) List(ctx context.Context, page, limit int) ([]model.Store, int64, error) {
	var out []model.Store
	for _, s := range r.state.stores {
		out = append(out, s)
	}
	return out, int64(len(out)), nil
}

func (r *fakeStoreRepo) FindItem(ctx context.Context, storeID, productID uuid.UUID) (*model.StoreInventoryItem, error) {
	for _, item := range r.state.storeItems {
		if item.StoreID == storeID && item.ProductID == productID {
			return &item, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeStoreRepo) FindItemForUpdate(ctx context.Context, storeID, productID uuid.UUID) (*model.StoreInventoryItem, error) {
	return r.FindItem(ctx, storeID, productID)
}

func (r *fakeStoreRepo) CreateItem(ctx context.Context, item *model.StoreInventoryItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	r.state.storeItems[item.ID] = *item
	return nil
}

func (r *fakeStoreRepo) UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error {
	item, ok := r.state.storeItems[itemID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	item.QuantityAvailable = quantity
	r.state.storeItems[itemID] = item
	return nil
}

func (r *fakeStoreRepo) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	delete(r.state.storeItems, itemID)
	return nil
}

func (r *fakeStoreRepo) ListItemsByStore(ctx context.Context, storeID uuid.UUID) ([]model.StoreInventoryItem, error) {
	var out []model.StoreInventoryItem
	for _, item := range r.state.storeItems {
		if item.StoreID == storeID {
			if p, ok := r.state.products[item.ProductID]; ok {
				product := p
				item.Product = &product
			}
			out = append(out, item)
		}
	}
	return out, nil
}

// --- Dispatch ---

type fakeDispatchRepo struct{ state *memState }

func (r *fakeDispatchRepo) Create(ctx context.Context, dispatch *model.Dispatch) error {
	if dispatch.ID == uuid.Nil {
		dispatch.ID = uuid.New()
	}
	dispatch.CreatedAt = time.Now()
	stored := *dispatch
	stored.Items = nil
	r.state.dispatches[dispatch.ID] = stored
	return nil
}

func (r *fakeDispatchRepo) CreateItem(ctx context.Context, item *model.DispatchItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	r.state.dispatchItems = append(r.state.dispatchItems, *item)
	return nil
}

func (r *fakeDispatchRepo) findWithItems(id uuid.UUID) (*model.Dispatch, error) {
	d, ok := r.state.dispatches[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	for _, item := range r.state.dispatchItems {
		if item.DispatchID == id {
			d.Items = append(d.Items, item)
		}
	}
	return &d, nil
}

func (r *fakeDispatchRepo) FindByIDWithItems(ctx context.Context, id uuid.UUID) (*model.Dispatch, error) {
	return r.findWithItems(id)
}

func (r *fakeDispatchRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Dispatch, error) {
	return r.findWithItems(id)
}

func (r *fakeDispatchRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string, receivedAt *time.Time) error {
	d, ok := r.state.dispatches[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	d.Status = status
	d.ReceivedAt = receivedAt
	r.state.dispatches[id] = d
	return nil
}

func (r *fakeDispatchRepo) Delete(ctx context.Context, id uuid.UUID) error {
	var kept []model.DispatchItem
	for _, item := range r.state.dispatchItems {
		if item.DispatchID != id {
			kept = append(kept, item)
		}
	}
	r.state.dispatchItems = kept
	delete(r.state.dispatches, id)
	return nil
}

func (r *fakeDispatchRepo) List(ctx context.Context, page, limit int) ([]model.Dispatch, int64, error) {
	var out []model.Dispatch
	for id := range r.state.dispatches {
		d, _ := r.findWithItems(id)
		out = append(out, *d)
	}
	return out, int64(len(out)), nil
}

func (r *fakeDispatchRepo) SumPendingByProduct(ctx context.Context, productID uuid.UUID) (int, error) {
	total := 0
	for _, item := range r.state.dispatchItems {
		d, ok := r.state.dispatches[item.DispatchID]
		if ok && d.Status == model.DispatchStatusPending && item.ProductID == productID {
			total += item.Quantity
		}
	}
	return total, nil
}

// --- Sale ---

type fakeSaleRepo struct{ state *memState }

func (r *fakeSaleRepo) Create(ctx context.Context, sale *model.Sale) error {
	if sale.ID == uuid.Nil {
		sale.ID = uuid.New()
	}
	sale.CreatedAt = time.Now()
	stored := *sale
	stored.Items = nil
	r.state.sales[sale.ID] = stored
	return nil
}

func (r *fakeSaleRepo) CreateItem(ctx context.Context, item *model.SaleItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	r.state.saleItems = append(r.state.saleItems, *item)
	return nil
}

func (r *fakeSaleRepo) FindByIDWithItems(ctx context.Context, id uuid.UUID) (*model.Sale, error) {
	s, ok := r.state.sales[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	for _, item := range r.state.saleItems {
		if item.SaleID == id {
			s.Items = append(s.Items, item)
		}
	}
	return &s, nil
}

func (r *fakeSaleRepo) List(ctx context.Context, page, limit int) ([]model.Sale, int64, error) {
	var out []model.Sale
	for id := range r.state.sales {
		s, _ := r.FindByIDWithItems(ctx, id)
		out = append(out, *s)
	}
	return out, int64(len(out)), nil
}

// --- Return ---

type fakeReturnRepo struct{ state *memState }

func (r *fakeReturnRepo) Create(ctx context.Context, ret *model.Return) error {
	if ret.ID == uuid.Nil {
		ret.ID = uuid.New()
	}
	ret.CreatedAt = time.Now()
	r.state.returns = append(r.state.returns, *ret)
	return nil
}

func (r *fakeReturnRepo) SumCustomerReturns(ctx context.Context, saleID, productID uuid.UUID) (int, error) {
	total := 0
	for _, ret := range r.state.returns {
		if ret.Type == model.ReturnCustomer && ret.ReferenceSaleID != nil &&
			*ret.ReferenceSaleID == saleID && ret.ProductID == productID {
			total += ret.Quantity
		}
	}
	return total, nil
}

func (r *fakeReturnRepo) List(ctx context.Context, page, limit int, returnType string) ([]model.Return, int64, error) {
	var out []model.Return
	for _, ret := range r.state.returns {
		if returnType != "" && ret.Type != returnType {
			continue
		}
		out = append(out, ret)
	}
	return out, int64(len(out)), nil
}

// --- StockMovement ---

type fakeMovementRepo struct{ state *memState }

func (r *fakeMovementRepo) Create(ctx context.Context, movement *model.StockMovement) error {
	if movement.ID == uuid.Nil {
		movement.ID = uuid.New()
	}
	movement.CreatedAt = time.Now()
	r.state.movements = append(r.state.movements, *movement)
	return nil
}

func (r *fakeMovementRepo) List(ctx context.Context, page, limit int, productID *uuid.UUID) ([]model.StockMovement, int64, error) {
	var out []model.StockMovement
	for _, m := range r.state.movements {
		if productID != nil && m.ProductID != *productID {
			continue
		}
		out = append(out, m)
	}
	return out, int64(len(out)), nil
}

// --- Audit ---

type fakeAuditRepo struct{ state *memState }

func (r *fakeAuditRepo) Log(ctx context.Context, entry *model.AuditLog) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	entry.CreatedAt = time.Now()
	r.state.audits = append(r.state.audits, *entry)
	return nil
}

func (r *fakeAuditRepo) List(ctx context.Context, page, limit int) ([]model.AuditLog, int64, error) {
	return append([]model.AuditLog(nil), r.state.audits...), int64(len(r.state.audits)), nil
}

// testEnv wires every service against the shared in-memory state.
type testEnv struct {
	state *memState

	fabricRepo   *fakeFabricRepo
	batchRepo    *fakeBatchRepo
	productRepo  *fakeProductRepo
	storeRepo    *fakeStoreRepo
	dispatchRepo *fakeDispatchRepo
	saleRepo     *fakeSaleRepo
	returnRepo   *fakeReturnRepo
	movementRepo *fakeMovementRepo
	auditRepo    *fakeAuditRepo

	fabrics    FabricService
	production ProductionService
	stores     StoreService
	dispatches DispatchService
	sales      SaleService
	returns    ReturnService
}

var _ repository.TransactionManager = (*fakeTxManager)(nil)

func newTestEnv() *testEnv {
	state := newMemState()
	tx := &fakeTxManager{state: state}

	env := &testEnv{
		state:        state,
		fabricRepo:   &fakeFabricRepo{state: state},
		batchRepo:    &fakeBatchRepo{state: state},
		productRepo:  &fakeProductRepo{state: state},
		storeRepo:    &fakeStoreRepo{state: state},
		dispatchRepo: &fakeDispatchRepo{state: state},
		saleRepo:     &fakeSaleRepo{state: state},
		returnRepo:   &fakeReturnRepo{state: state},
		movementRepo: &fakeMovementRepo{state: state},
		auditRepo:    &fakeAuditRepo{state: state},
	}

	env.fabrics = NewFabricService(env.fabricRepo, env.auditRepo, tx)
	env.production = NewProductionService(env.fabricRepo, env.batchRepo, env.productRepo, env.movementRepo, env.auditRepo, tx, nil)
	env.stores = NewStoreService(env.storeRepo, env.auditRepo, tx)
	env.dispatches = NewDispatchService(env.dispatchRepo, env.productRepo, env.storeRepo, env.movementRepo, env.auditRepo, tx, nil)
	env.sales = NewSaleService(env.saleRepo, env.storeRepo, env.productRepo, env.movementRepo, env.auditRepo, tx, nil)
	env.returns = NewReturnService(env.returnRepo, env.saleRepo, env.storeRepo, env.productRepo, env.movementRepo, env.auditRepo, tx, nil)

	return env
}

// storeQuantity reads the (store, product) quantity directly from state,
// zero when the row does not exist.
func (e *testEnv) storeQuantity(storeID, productID string) int {
	sid := uuid.MustParse(storeID)
	pid := uuid.MustParse(productID)
	for _, item := range e.state.storeItems {
		if item.StoreID == sid && item.ProductID == pid {
			return item.QuantityAvailable
		}
	}
	return 0
}

func (e *testEnv) factoryStock(productID string) int {
	p := e.state.products[uuid.MustParse(productID)]
	return p.FactoryStock
}
