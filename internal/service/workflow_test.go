package service

import (
	"context"
	"testing"

	"backend/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFullLifecycleConservation drives one complete cycle (fabric purchase,
// batch, dispatch, sale, all three return variants) and then checks that
// every produced unit is still accounted for per product.
func TestFullLifecycleConservation(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	fabric := seedFabric(t, env, 1000)

	batch, err := env.production.CreateBatch(ctx, "", CreateBatchRequest{
		FabricID:  fabric.ID,
		MeterUsed: 200,
		SizeBreakdown: []SizeBreakdownItem{
			{Size: "S", Quantity: 50},
			{Size: "M", Quantity: 100},
			{Size: "L", Quantity: 50},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 200, batch.TotalPieces)

	_, _, err = env.production.AdvanceStage(ctx, "", batch.ID, AdvanceStageRequest{Stage: model.StageFinishing})
	require.NoError(t, err)
	_, created, err := env.production.AdvanceStage(ctx, "", batch.ID, AdvanceStageRequest{
		Stage: model.StageReady,
		ProductMetadata: &ProductMetadata{
			Name: "Oxford Shirt", Category: "SHIRT", Brand: "Northline", SalePrice: "899.00", Color: "Navy",
		},
	})
	require.NoError(t, err)
	require.Len(t, created, 3)

	products := make(map[string]ProductResponse, 3)
	for _, p := range created {
		products[p.Size] = p
	}

	store := seedStore(t, env)

	dispatch, err := env.dispatches.CreateDispatch(ctx, "", CreateDispatchRequest{
		StoreID: store.ID,
		Products: []DispatchLineRequest{
			{ProductID: products["M"].ID, Quantity: 50},
			{ProductID: products["L"].ID, Quantity: 50},
		},
	})
	require.NoError(t, err)
	_, err = env.dispatches.MarkReceived(ctx, "", dispatch.ID)
	require.NoError(t, err)

	sale, err := env.sales.CreateSale(ctx, "", CreateSaleRequest{
		StoreID: store.ID,
		Products: []SaleLineRequest{
			{ProductID: products["M"].ID, Quantity: 10, Price: "899.00"},
			{ProductID: products["L"].ID, Quantity: 10, Price: "999.00"},
		},
		PaymentMode: model.PaymentCard,
	})
	require.NoError(t, err)
	assert.Equal(t, "18980.00", sale.SubTotal)

	_, err = env.returns.CreateReturn(ctx, "", CreateReturnRequest{
		Type: model.ReturnCustomer, StoreID: store.ID, ProductID: products["M"].ID,
		Quantity: 5, ReferenceSaleID: sale.ID,
	})
	require.NoError(t, err)

	_, err = env.returns.CreateReturn(ctx, "", CreateReturnRequest{
		Type: model.ReturnStoreToFactory, StoreID: store.ID, ProductID: products["L"].ID,
		Quantity: 10,
	})
	require.NoError(t, err)

	_, err = env.returns.CreateReturn(ctx, "", CreateReturnRequest{
		Type: model.ReturnDamaged, StoreID: store.ID, ProductID: products["M"].ID,
		Quantity: 3, Reason: "torn seam",
	})
	require.NoError(t, err)

	// Fabric: 1000 purchased, 200 consumed.
	f, err := env.fabrics.GetFabric(ctx, fabric.ID)
	require.NoError(t, err)
	assert.Equal(t, 800.0, f.MeterAvailable)

	// Factory: S untouched 50, M 100-50=50, L 50-50+10=10.
	assert.Equal(t, 50, env.factoryStock(products["S"].ID))
	assert.Equal(t, 50, env.factoryStock(products["M"].ID))
	assert.Equal(t, 10, env.factoryStock(products["L"].ID))

	// Store: M 50-10+5-3=42, L 50-10-10=30.
	assert.Equal(t, 42, env.storeQuantity(store.ID, products["M"].ID))
	assert.Equal(t, 30, env.storeQuantity(store.ID, products["L"].ID))

	// Every produced unit is accounted for:
	// produced = factory + store + in-transit + damaged + net sold.
	for size, p := range products {
		assertConserved(t, env, p, size)
	}
}

func assertConserved(t *testing.T, env *testEnv, p ProductResponse, label string) {
	t.Helper()
	pid := uuid.MustParse(p.ID)

	stored := env.state.products[pid]
	storeStock := 0
	for _, item := range env.state.storeItems {
		if item.ProductID == pid {
			storeStock += item.QuantityAvailable
		}
	}

	inTransit := 0
	for _, item := range env.state.dispatchItems {
		if d, ok := env.state.dispatches[item.DispatchID]; ok &&
			d.Status == model.DispatchStatusPending && item.ProductID == pid {
			inTransit += item.Quantity
		}
	}

	damaged, returned := 0, 0
	for _, ret := range env.state.returns {
		if ret.ProductID != pid {
			continue
		}
		switch ret.Type {
		case model.ReturnDamaged:
			damaged += ret.Quantity
		case model.ReturnCustomer:
			returned += ret.Quantity
		}
	}

	sold := 0
	for _, item := range env.state.saleItems {
		if item.ProductID == pid {
			sold += item.Quantity
		}
	}

	total := stored.FactoryStock + storeStock + inTransit + damaged + (sold - returned)
	assert.Equalf(t, stored.TotalProduced, total, "size %s: produced units unaccounted for", label)
}

// TestPendingDispatchCountsAsInTransit covers the window where units have
// left the factory but not yet arrived at the store.
func TestPendingDispatchCountsAsInTransit(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	_, products := seedReadyBatch(t, env, 100, []SizeBreakdownItem{{Size: "M", Quantity: 100}})
	store := seedStore(t, env)

	_, err := env.dispatches.CreateDispatch(ctx, "", CreateDispatchRequest{
		StoreID:  store.ID,
		Products: []DispatchLineRequest{{ProductID: products["M"].ID, Quantity: 40}},
	})
	require.NoError(t, err)

	pending, err := env.dispatchRepo.SumPendingByProduct(ctx, uuid.MustParse(products["M"].ID))
	require.NoError(t, err)
	assert.Equal(t, 40, pending)

	assertConserved(t, env, products["M"], "M")
}
