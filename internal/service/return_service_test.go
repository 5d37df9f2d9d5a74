package service

import (
	"context"
	"testing"

	"backend/internal/apperror"
	"backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sellFromStore seeds factory stock, stocks the store and records a sale,
// returning the product and sale involved.
func sellFromStore(t *testing.T, env *testEnv, stocked, sold int) (StoreResponse, ProductResponse, SaleResponse) {
	t.Helper()
	ctx := context.Background()

	_, products := seedReadyBatch(t, env, 100, []SizeBreakdownItem{{Size: "M", Quantity: stocked * 2}})
	store := seedStore(t, env)
	stockStore(t, env, store, []DispatchLineRequest{{ProductID: products["M"].ID, Quantity: stocked}})

	sale, err := env.sales.CreateSale(ctx, "", CreateSaleRequest{
		StoreID:     store.ID,
		Products:    []SaleLineRequest{{ProductID: products["M"].ID, Quantity: sold, Price: "899.00"}},
		PaymentMode: model.PaymentCash,
	})
	require.NoError(t, err)
	return store, products["M"], sale
}

func TestCustomerReturnBoundedBySaleLine(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	store, product, sale := sellFromStore(t, env, 40, 10)

	// 5 of 10 back: fine.
	ret, err := env.returns.CreateReturn(ctx, "", CreateReturnRequest{
		Type:            model.ReturnCustomer,
		StoreID:         store.ID,
		ProductID:       product.ID,
		Quantity:        5,
		ReferenceSaleID: sale.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, model.ReturnCustomer, ret.Type)
	assert.Equal(t, 35, env.storeQuantity(store.ID, product.ID))

	// 6 more would exceed the 10 sold.
	_, err = env.returns.CreateReturn(ctx, "", CreateReturnRequest{
		Type:            model.ReturnCustomer,
		StoreID:         store.ID,
		ProductID:       product.ID,
		Quantity:        6,
		ReferenceSaleID: sale.ID,
	})
	var overErr *apperror.OverReturnError
	require.ErrorAs(t, err, &overErr)
	assert.Equal(t, 10, overErr.Sold)
	assert.Equal(t, 5, overErr.AlreadyReturned)
	assert.Equal(t, 35, env.storeQuantity(store.ID, product.ID))

	// The remaining 5 exactly: fine.
	_, err = env.returns.CreateReturn(ctx, "", CreateReturnRequest{
		Type:            model.ReturnCustomer,
		StoreID:         store.ID,
		ProductID:       product.ID,
		Quantity:        5,
		ReferenceSaleID: sale.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, 40, env.storeQuantity(store.ID, product.ID))
}

func TestCustomerReturnRequiresSaleReference(t *testing.T) {
	env := newTestEnv()
	store, product, _ := sellFromStore(t, env, 40, 10)

	_, err := env.returns.CreateReturn(context.Background(), "", CreateReturnRequest{
		Type:      model.ReturnCustomer,
		StoreID:   store.ID,
		ProductID: product.ID,
		Quantity:  1,
	})

	var validationErr *apperror.ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestCustomerReturnWrongStoreRejected(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	_, product, sale := sellFromStore(t, env, 40, 10)
	otherStore := seedStore(t, env)

	_, err := env.returns.CreateReturn(ctx, "", CreateReturnRequest{
		Type:            model.ReturnCustomer,
		StoreID:         otherStore.ID,
		ProductID:       product.ID,
		Quantity:        1,
		ReferenceSaleID: sale.ID,
	})

	var validationErr *apperror.ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestStoreToFactoryTransferConservesUnits(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	store, product, _ := sellFromStore(t, env, 40, 10)

	factoryBefore := env.factoryStock(product.ID)
	storeBefore := env.storeQuantity(store.ID, product.ID)

	_, err := env.returns.CreateReturn(ctx, "", CreateReturnRequest{
		Type:      model.ReturnStoreToFactory,
		StoreID:   store.ID,
		ProductID: product.ID,
		Quantity:  12,
		Reason:    "end of season recall",
	})
	require.NoError(t, err)

	assert.Equal(t, storeBefore-12, env.storeQuantity(store.ID, product.ID))
	assert.Equal(t, factoryBefore+12, env.factoryStock(product.ID))

	// Both sides of the transfer land in the ledger.
	var sawOut, sawIn bool
	for _, m := range env.state.movements {
		switch m.MovementType {
		case model.MovementTransferOut:
			sawOut = true
			assert.Equal(t, -12, m.QuantityChanged)
		case model.MovementTransferIn:
			sawIn = true
			assert.Equal(t, 12, m.QuantityChanged)
		}
	}
	assert.True(t, sawOut)
	assert.True(t, sawIn)
}

func TestStoreToFactoryInsufficientStoreStock(t *testing.T) {
	env := newTestEnv()
	store, product, _ := sellFromStore(t, env, 40, 10)

	_, err := env.returns.CreateReturn(context.Background(), "", CreateReturnRequest{
		Type:      model.ReturnStoreToFactory,
		StoreID:   store.ID,
		ProductID: product.ID,
		Quantity:  31, // only 30 left after the sale
	})

	var stockErr *apperror.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 30, env.storeQuantity(store.ID, product.ID))
}

func TestDamagedWriteOffLeavesFactoryUntouched(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	store, product, _ := sellFromStore(t, env, 40, 10)

	factoryBefore := env.factoryStock(product.ID)

	_, err := env.returns.CreateReturn(ctx, "", CreateReturnRequest{
		Type:      model.ReturnDamaged,
		StoreID:   store.ID,
		ProductID: product.ID,
		Quantity:  3,
		Reason:    "water damage",
	})
	require.NoError(t, err)

	assert.Equal(t, 27, env.storeQuantity(store.ID, product.ID))
	assert.Equal(t, factoryBefore, env.factoryStock(product.ID))

	var damage *model.StockMovement
	for i := range env.state.movements {
		if env.state.movements[i].MovementType == model.MovementDamageOut {
			damage = &env.state.movements[i]
		}
	}
	require.NotNil(t, damage)
	assert.Equal(t, -3, damage.QuantityChanged)
}

func TestListReturnsFiltersByType(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	store, product, sale := sellFromStore(t, env, 40, 10)

	_, err := env.returns.CreateReturn(ctx, "", CreateReturnRequest{
		Type: model.ReturnCustomer, StoreID: store.ID, ProductID: product.ID,
		Quantity: 2, ReferenceSaleID: sale.ID,
	})
	require.NoError(t, err)
	_, err = env.returns.CreateReturn(ctx, "", CreateReturnRequest{
		Type: model.ReturnDamaged, StoreID: store.ID, ProductID: product.ID, Quantity: 1,
	})
	require.NoError(t, err)

	damaged, total, err := env.returns.ListReturns(ctx, 1, 20, model.ReturnDamaged)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, damaged, 1)
	assert.Equal(t, model.ReturnDamaged, damaged[0].Type)

	_, _, err = env.returns.ListReturns(ctx, 1, 20, "LOST")
	var validationErr *apperror.ValidationError
	require.ErrorAs(t, err, &validationErr)
}
