package service

import (
	"context"
	"testing"

	"backend/internal/apperror"
	"backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedStore(t *testing.T, env *testEnv) StoreResponse {
	t.Helper()
	store, err := env.stores.CreateStore(context.Background(), "", CreateStoreRequest{
		Name:    "MG Road Outlet",
		Address: "12 MG Road",
	})
	require.NoError(t, err)
	return store
}

func TestCreateDispatchDebitsFactoryStock(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	_, products := seedReadyBatch(t, env, 100, []SizeBreakdownItem{{Size: "M", Quantity: 100}})
	store := seedStore(t, env)

	dispatch, err := env.dispatches.CreateDispatch(ctx, "", CreateDispatchRequest{
		StoreID:  store.ID,
		Products: []DispatchLineRequest{{ProductID: products["M"].ID, Quantity: 40}},
	})
	require.NoError(t, err)

	assert.Equal(t, model.DispatchStatusPending, dispatch.Status)
	assert.NotEmpty(t, dispatch.DispatchCode)
	assert.Equal(t, 60, env.factoryStock(products["M"].ID))
	// Store is not credited until RECEIVED.
	assert.Equal(t, 0, env.storeQuantity(store.ID, products["M"].ID))
}

func TestCreateDispatchInsufficientStockRollsBackAllLines(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	_, products := seedReadyBatch(t, env, 100, []SizeBreakdownItem{
		{Size: "M", Quantity: 100},
		{Size: "L", Quantity: 10},
	})
	store := seedStore(t, env)

	_, err := env.dispatches.CreateDispatch(ctx, "", CreateDispatchRequest{
		StoreID: store.ID,
		Products: []DispatchLineRequest{
			{ProductID: products["M"].ID, Quantity: 40},
			{ProductID: products["L"].ID, Quantity: 25},
		},
	})

	var stockErr *apperror.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 25, stockErr.Requested)
	assert.Equal(t, 10, stockErr.Available)

	// The M debit must have rolled back with the failing L line.
	assert.Equal(t, 100, env.factoryStock(products["M"].ID))
	assert.Equal(t, 10, env.factoryStock(products["L"].ID))
	_, total, err := env.dispatches.ListDispatches(ctx, 1, 20)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestCreateDispatchRejectsDuplicateLines(t *testing.T) {
	env := newTestEnv()

	_, products := seedReadyBatch(t, env, 100, []SizeBreakdownItem{{Size: "M", Quantity: 100}})
	store := seedStore(t, env)

	_, err := env.dispatches.CreateDispatch(context.Background(), "", CreateDispatchRequest{
		StoreID: store.ID,
		Products: []DispatchLineRequest{
			{ProductID: products["M"].ID, Quantity: 10},
			{ProductID: products["M"].ID, Quantity: 5},
		},
	})

	var validationErr *apperror.ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestMarkReceivedCreditsStoreExactlyOnce(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	_, products := seedReadyBatch(t, env, 100, []SizeBreakdownItem{{Size: "M", Quantity: 100}})
	store := seedStore(t, env)

	dispatch, err := env.dispatches.CreateDispatch(ctx, "", CreateDispatchRequest{
		StoreID:  store.ID,
		Products: []DispatchLineRequest{{ProductID: products["M"].ID, Quantity: 40}},
	})
	require.NoError(t, err)

	received, err := env.dispatches.MarkReceived(ctx, "", dispatch.ID)
	require.NoError(t, err)
	assert.Equal(t, model.DispatchStatusReceived, received.Status)
	require.NotNil(t, received.ReceivedAt)
	assert.Equal(t, 40, env.storeQuantity(store.ID, products["M"].ID))

	// Receiving again must not double-credit.
	_, err = env.dispatches.MarkReceived(ctx, "", dispatch.ID)
	var conflictErr *apperror.ConflictError
	require.ErrorAs(t, err, &conflictErr)
	assert.Equal(t, 40, env.storeQuantity(store.ID, products["M"].ID))
}

func TestDeleteDispatchPendingRefundsFactory(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	_, products := seedReadyBatch(t, env, 100, []SizeBreakdownItem{{Size: "M", Quantity: 100}})
	store := seedStore(t, env)

	dispatch, err := env.dispatches.CreateDispatch(ctx, "", CreateDispatchRequest{
		StoreID:  store.ID,
		Products: []DispatchLineRequest{{ProductID: products["M"].ID, Quantity: 40}},
	})
	require.NoError(t, err)
	assert.Equal(t, 60, env.factoryStock(products["M"].ID))

	require.NoError(t, env.dispatches.DeleteDispatch(ctx, "", dispatch.ID))
	assert.Equal(t, 100, env.factoryStock(products["M"].ID))
	assert.Equal(t, 0, env.storeQuantity(store.ID, products["M"].ID))
}

func TestDeleteDispatchReceivedDrainsStoreFlooredAtZero(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	_, products := seedReadyBatch(t, env, 100, []SizeBreakdownItem{{Size: "M", Quantity: 100}})
	store := seedStore(t, env)
	productID := products["M"].ID

	dispatch, err := env.dispatches.CreateDispatch(ctx, "", CreateDispatchRequest{
		StoreID:  store.ID,
		Products: []DispatchLineRequest{{ProductID: productID, Quantity: 40}},
	})
	require.NoError(t, err)
	_, err = env.dispatches.MarkReceived(ctx, "", dispatch.ID)
	require.NoError(t, err)

	// The store sells 15 of the 40 before the dispatch gets deleted.
	_, err = env.sales.CreateSale(ctx, "", CreateSaleRequest{
		StoreID:     store.ID,
		Products:    []SaleLineRequest{{ProductID: productID, Quantity: 15, Price: "899.00"}},
		PaymentMode: model.PaymentCash,
	})
	require.NoError(t, err)
	assert.Equal(t, 25, env.storeQuantity(store.ID, productID))

	require.NoError(t, env.dispatches.DeleteDispatch(ctx, "", dispatch.ID))

	// Factory refunded the full dispatched quantity; the store row only had
	// 25 left so the drain floors at zero and the row disappears.
	assert.Equal(t, 100, env.factoryStock(productID))
	assert.Equal(t, 0, env.storeQuantity(store.ID, productID))

	var recall *model.StockMovement
	for i := range env.state.movements {
		if env.state.movements[i].MovementType == model.MovementStoreRecallOut {
			recall = &env.state.movements[i]
		}
	}
	require.NotNil(t, recall)
	assert.Equal(t, -25, recall.QuantityChanged)
	assert.Equal(t, 0, recall.StockAfter)
}

func TestDeleteDispatchTwiceReturnsNotFound(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	_, products := seedReadyBatch(t, env, 100, []SizeBreakdownItem{{Size: "M", Quantity: 100}})
	store := seedStore(t, env)

	dispatch, err := env.dispatches.CreateDispatch(ctx, "", CreateDispatchRequest{
		StoreID:  store.ID,
		Products: []DispatchLineRequest{{ProductID: products["M"].ID, Quantity: 40}},
	})
	require.NoError(t, err)

	require.NoError(t, env.dispatches.DeleteDispatch(ctx, "", dispatch.ID))

	err = env.dispatches.DeleteDispatch(ctx, "", dispatch.ID)
	var notFoundErr *apperror.NotFoundError
	require.ErrorAs(t, err, &notFoundErr)

	// The second attempt must not refund anything again.
	assert.Equal(t, 100, env.factoryStock(products["M"].ID))
}
