package persistence_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acdtunes/fleetctl/internal/adapters/persistence"
	"github.com/acdtunes/fleetctl/internal/domain/ports"
	"github.com/acdtunes/fleetctl/internal/infrastructure/database"
)

func newTestStore(t *testing.T) *persistence.Store {
	t.Helper()
	db, err := database.NewTestConnection()
	require.NoError(t, err)
	return persistence.NewStore(db)
}

func TestTradeRouteInsertAndFindUnfinishedByShip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	row := ports.TradeRouteRow{
		ID: "route-1", TradeSymbol: "IRON_ORE", ShipSymbol: "SHIP-1",
		PurchaseWaypoint: "X1-AA-1", SellWaypoint: "X1-AA-2",
		PredictedBuy: 10, PredictedSell: 40, TradeVolume: 50,
	}
	_, err := store.TradeRoutes().Insert(ctx, row)
	require.NoError(t, err)

	unfinished, err := store.TradeRoutes().FindUnfinishedByShip(ctx, "SHIP-1")
	require.NoError(t, err)
	require.Len(t, unfinished, 1)
	assert.Equal(t, "route-1", unfinished[0].ID)

	require.NoError(t, store.TradeRoutes().MarkFinished(ctx, "route-1"))

	unfinished, err = store.TradeRoutes().FindUnfinishedByShip(ctx, "SHIP-1")
	require.NoError(t, err)
	assert.Empty(t, unfinished)
}

func TestWaypointInsertBulkAndGetAllRoundTripsTraits(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rows := []ports.WaypointRow{
		{Symbol: "X1-AA-1", SystemSymbol: "X1-AA", X: 0, Y: 0, Type: "PLANET", Traits: []string{"MARKETPLACE", "SHIPYARD"}},
		{Symbol: "X1-AA-2", SystemSymbol: "X1-AA", X: 10, Y: 0, Type: "MOON"},
	}
	require.NoError(t, store.Waypoints().InsertBulk(ctx, rows))

	all, err := store.Waypoints().GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)

	row1 := findWaypoint(all, "X1-AA-1")
	require.NotNil(t, row1)
	assert.ElementsMatch(t, []string{"MARKETPLACE", "SHIPYARD"}, row1.Traits)

	row2 := findWaypoint(all, "X1-AA-2")
	require.NotNil(t, row2)
	assert.Empty(t, row2.Traits)
}

func findWaypoint(rows []ports.WaypointRow, symbol string) *ports.WaypointRow {
	for i := range rows {
		if rows[i].Symbol == symbol {
			return &rows[i]
		}
	}
	return nil
}

func TestShipRoleUpsertOverwritesExistingRow(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.ShipRoles().Upsert(ctx, ports.ShipRoleRow{ShipSymbol: "SHIP-1", RoleKind: "MANUAL", Active: true}))
	require.NoError(t, store.ShipRoles().Upsert(ctx, ports.ShipRoleRow{ShipSymbol: "SHIP-1", RoleKind: "TRADER", Active: true}))

	all, err := store.ShipRoles().GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "TRADER", all[0].RoleKind)
}

func TestReservedFundInsertAndUpdateStatus(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.ReservedFunds().Insert(ctx, ports.ReservedFundRow{ID: "fund-1", Amount: 5000, Status: "Reserved"})
	require.NoError(t, err)

	require.NoError(t, store.ReservedFunds().UpdateStatus(ctx, "fund-1", "Confirmed", 4800))

	all, err := store.ReservedFunds().GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Confirmed", all[0].Status)
	assert.Equal(t, int64(4800), all[0].ActualAmount)
}

func TestContractFindActiveExcludesFulfilledAndUnaccepted(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Contracts().Insert(ctx, ports.ContractRow{ID: "c-1", FactionSymbol: "COSMIC", Type: "PROCUREMENT", Accepted: true, Fulfilled: false})
	require.NoError(t, err)
	_, err = store.Contracts().Insert(ctx, ports.ContractRow{ID: "c-2", FactionSymbol: "COSMIC", Type: "PROCUREMENT", Accepted: false, Fulfilled: false})
	require.NoError(t, err)
	_, err = store.Contracts().Insert(ctx, ports.ContractRow{ID: "c-3", FactionSymbol: "COSMIC", Type: "PROCUREMENT", Accepted: true, Fulfilled: true})
	require.NoError(t, err)

	active, err := store.Contracts().FindActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "c-1", active[0].ID)
}
