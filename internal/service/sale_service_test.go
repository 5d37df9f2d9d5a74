package service

import (
	"context"
	"testing"

	"backend/internal/apperror"
	"backend/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stockStore seeds a store holding the given quantities by dispatching and
// receiving in one go.
func stockStore(t *testing.T, env *testEnv, store StoreResponse, lines []DispatchLineRequest) {
	t.Helper()
	ctx := context.Background()
	dispatch, err := env.dispatches.CreateDispatch(ctx, "", CreateDispatchRequest{
		StoreID:  store.ID,
		Products: lines,
	})
	require.NoError(t, err)
	_, err = env.dispatches.MarkReceived(ctx, "", dispatch.ID)
	require.NoError(t, err)
}

func TestCreateSaleComputesTotalsServerSide(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	_, products := seedReadyBatch(t, env, 100, []SizeBreakdownItem{
		{Size: "M", Quantity: 100},
		{Size: "L", Quantity: 50},
	})
	store := seedStore(t, env)
	stockStore(t, env, store, []DispatchLineRequest{
		{ProductID: products["M"].ID, Quantity: 50},
		{ProductID: products["L"].ID, Quantity: 30},
	})

	sale, err := env.sales.CreateSale(ctx, "", CreateSaleRequest{
		StoreID: store.ID,
		Products: []SaleLineRequest{
			{ProductID: products["M"].ID, Quantity: 2, Price: "899.00"},
			{ProductID: products["L"].ID, Quantity: 1, Price: "999.50"},
		},
		Discount:    "100.00",
		Tax:         "50.25",
		PaymentMode: model.PaymentUPI,
	})
	require.NoError(t, err)

	// 2*899.00 + 1*999.50 = 2797.50; grand = 2797.50 - 100.00 + 50.25
	assert.Equal(t, "2797.50", sale.SubTotal)
	assert.Equal(t, "2747.75", sale.GrandTotal)
	assert.Equal(t, model.PaymentUPI, sale.PaymentMode)
	assert.NotEmpty(t, sale.SaleCode)
	require.Len(t, sale.Items, 2)

	assert.Equal(t, 48, env.storeQuantity(store.ID, products["M"].ID))
	assert.Equal(t, 29, env.storeQuantity(store.ID, products["L"].ID))

	saleOut := 0
	for _, m := range env.state.movements {
		if m.MovementType == model.MovementSaleOut {
			saleOut++
			assert.Equal(t, model.MovementRefSale, m.RefType)
			require.NotNil(t, m.StoreID)
		}
	}
	assert.Equal(t, 2, saleOut)
}

func TestCreateSaleInsufficientStoreStockRollsBack(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	_, products := seedReadyBatch(t, env, 100, []SizeBreakdownItem{
		{Size: "M", Quantity: 100},
		{Size: "L", Quantity: 50},
	})
	store := seedStore(t, env)
	stockStore(t, env, store, []DispatchLineRequest{
		{ProductID: products["M"].ID, Quantity: 50},
		{ProductID: products["L"].ID, Quantity: 5},
	})

	_, err := env.sales.CreateSale(ctx, "", CreateSaleRequest{
		StoreID: store.ID,
		Products: []SaleLineRequest{
			{ProductID: products["M"].ID, Quantity: 10, Price: "899.00"},
			{ProductID: products["L"].ID, Quantity: 8, Price: "999.50"},
		},
		PaymentMode: model.PaymentCash,
	})

	var stockErr *apperror.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)

	// No partial debit.
	assert.Equal(t, 50, env.storeQuantity(store.ID, products["M"].ID))
	assert.Equal(t, 5, env.storeQuantity(store.ID, products["L"].ID))
	_, total, err := env.sales.ListSales(ctx, 1, 20)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestCreateSaleProductNeverStockedAtStore(t *testing.T) {
	env := newTestEnv()

	_, products := seedReadyBatch(t, env, 100, []SizeBreakdownItem{{Size: "M", Quantity: 100}})
	store := seedStore(t, env)

	// Factory has stock but the store was never stocked; available is 0.
	_, err := env.sales.CreateSale(context.Background(), "", CreateSaleRequest{
		StoreID:     store.ID,
		Products:    []SaleLineRequest{{ProductID: products["M"].ID, Quantity: 1, Price: "899.00"}},
		PaymentMode: model.PaymentCash,
	})

	var stockErr *apperror.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 0, stockErr.Available)
}

func TestCreateSaleUnknownStore(t *testing.T) {
	env := newTestEnv()

	_, products := seedReadyBatch(t, env, 100, []SizeBreakdownItem{{Size: "M", Quantity: 100}})

	_, err := env.sales.CreateSale(context.Background(), "", CreateSaleRequest{
		StoreID:     uuid.NewString(),
		Products:    []SaleLineRequest{{ProductID: products["M"].ID, Quantity: 1, Price: "899.00"}},
		PaymentMode: model.PaymentCash,
	})

	var notFoundErr *apperror.NotFoundError
	require.ErrorAs(t, err, &notFoundErr)
}

func TestCreateSaleRejectsNegativeAmounts(t *testing.T) {
	env := newTestEnv()

	_, products := seedReadyBatch(t, env, 100, []SizeBreakdownItem{{Size: "M", Quantity: 100}})
	store := seedStore(t, env)
	stockStore(t, env, store, []DispatchLineRequest{{ProductID: products["M"].ID, Quantity: 50}})

	var validationErr *apperror.ValidationError

	_, err := env.sales.CreateSale(context.Background(), "", CreateSaleRequest{
		StoreID:     store.ID,
		Products:    []SaleLineRequest{{ProductID: products["M"].ID, Quantity: 1, Price: "-899.00"}},
		PaymentMode: model.PaymentCash,
	})
	require.ErrorAs(t, err, &validationErr)

	_, err = env.sales.CreateSale(context.Background(), "", CreateSaleRequest{
		StoreID:     store.ID,
		Products:    []SaleLineRequest{{ProductID: products["M"].ID, Quantity: 1, Price: "899.00"}},
		Discount:    "-10",
		PaymentMode: model.PaymentCash,
	})
	require.ErrorAs(t, err, &validationErr)
}
