package stockfolio

import (
	"context"
	"strings"
	"testing"
)

func TestAddHolding_Basic(t *testing.T) {
	core, market, cleanup := setupTestDB(t)
	defer cleanup()

	market.setQuote("AAPL", 150, "Technology")

	holding, err := core.AddHolding(context.Background(), "user-1", AddHoldingRequest{
		Symbol:    "aapl",
		Shares:    10,
		CostBasis: 145.5,
	}, FullEntitlements())
	assertNoError(t, err, "add holding")

	if holding.Symbol != "AAPL" {
		t.Errorf("expected symbol AAPL, got %s", holding.Symbol)
	}
	if holding.Shares != 10 {
		t.Errorf("expected 10 shares, got %d", holding.Shares)
	}
	assertFloatEquals(t, holding.CostBasis.InexactFloat64(), 145.5, "cost basis")
	if holding.Sector != "Technology" {
		t.Errorf("expected sector from quote, got %s", holding.Sector)
	}
	if holding.CustomCategory != nil {
		t.Errorf("expected no custom category, got %v", *holding.CustomCategory)
	}
	if holding.AcquiredAt == "" {
		t.Error("expected acquisition date to be set")
	}
	if holding.CreatedAt == nil {
		t.Error("expected created_at to be set")
	}
}

func TestAddHolding_SectorFallsBackToUncategorized(t *testing.T) {
	core, market, cleanup := setupTestDB(t)
	defer cleanup()

	// No quote data for NEWCO; quote for UNKN reports the provider's
	// "Unknown" placeholder.
	market.setQuote("UNKN", 10, "Unknown")

	holding, err := core.AddHolding(context.Background(), "user-1", AddHoldingRequest{
		Symbol: "NEWCO", Shares: 1, CostBasis: 5,
	}, FullEntitlements())
	assertNoError(t, err, "add holding without quote")
	if holding.Sector != SectorUncategorized {
		t.Errorf("expected %s, got %s", SectorUncategorized, holding.Sector)
	}

	holding, err = core.AddHolding(context.Background(), "user-1", AddHoldingRequest{
		Symbol: "UNKN", Shares: 1, CostBasis: 5,
	}, FullEntitlements())
	assertNoError(t, err, "add holding with Unknown sector")
	if holding.Sector != SectorUncategorized {
		t.Errorf("expected Unknown to map to %s, got %s", SectorUncategorized, holding.Sector)
	}
}

func TestAddHolding_ExplicitSectorWins(t *testing.T) {
	core, market, cleanup := setupTestDB(t)
	defer cleanup()

	market.setQuote("XOM", 110, "Technology")

	holding, err := core.AddHolding(context.Background(), "user-1", AddHoldingRequest{
		Symbol: "XOM", Shares: 3, CostBasis: 100, Sector: "Energy",
	}, FullEntitlements())
	assertNoError(t, err, "add holding with explicit sector")
	if holding.Sector != "Energy" {
		t.Errorf("expected explicit sector to win, got %s", holding.Sector)
	}
}

func TestAddHolding_Validation(t *testing.T) {
	core, _, cleanup := setupTestDB(t)
	defer cleanup()

	tests := []struct {
		name   string
		userID string
		req    AddHoldingRequest
	}{
		{"missing user", "", AddHoldingRequest{Symbol: "AAPL", Shares: 1, CostBasis: 1}},
		{"empty symbol", "user-1", AddHoldingRequest{Symbol: "  ", Shares: 1, CostBasis: 1}},
		{"symbol too long", "user-1", AddHoldingRequest{Symbol: strings.Repeat("A", 21), Shares: 1, CostBasis: 1}},
		{"zero shares", "user-1", AddHoldingRequest{Symbol: "AAPL", Shares: 0, CostBasis: 1}},
		{"negative shares", "user-1", AddHoldingRequest{Symbol: "AAPL", Shares: -5, CostBasis: 1}},
		{"zero cost", "user-1", AddHoldingRequest{Symbol: "AAPL", Shares: 1, CostBasis: 0}},
		{"sector too long", "user-1", AddHoldingRequest{Symbol: "AAPL", Shares: 1, CostBasis: 1, Sector: strings.Repeat("s", 101)}},
		{"bad acquisition date", "user-1", AddHoldingRequest{Symbol: "AAPL", Shares: 1, CostBasis: 1, AcquiredAt: "yesterday"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := core.AddHolding(context.Background(), tc.userID, tc.req, FullEntitlements())
			assertErrorCode(t, err, ErrCodeInvalidInput, tc.name)
		})
	}
}

func TestAddHolding_Duplicate(t *testing.T) {
	core, _, cleanup := setupTestDB(t)
	defer cleanup()

	testHolding(t, core, "user-1", "AAPL", 10, 150)

	_, err := core.AddHolding(context.Background(), "user-1", AddHoldingRequest{
		Symbol: "aapl", Shares: 5, CostBasis: 140,
	}, FullEntitlements())
	assertErrorCode(t, err, ErrCodeDuplicate, "duplicate symbol")

	// A different user may hold the same symbol.
	_, err = core.AddHolding(context.Background(), "user-2", AddHoldingRequest{
		Symbol: "AAPL", Shares: 5, CostBasis: 140,
	}, FullEntitlements())
	assertNoError(t, err, "same symbol for another user")
}

func TestAddHolding_QuotaExceeded(t *testing.T) {
	core, _, cleanup := setupTestDB(t)
	defer cleanup()

	ent := FullEntitlements()
	ent.MaxStocks = int64Ptr(1)

	_, err := core.AddHolding(context.Background(), "user-1", AddHoldingRequest{
		Symbol: "AAPL", Shares: 1, CostBasis: 1,
	}, ent)
	assertNoError(t, err, "first holding within quota")

	_, err = core.AddHolding(context.Background(), "user-1", AddHoldingRequest{
		Symbol: "MSFT", Shares: 1, CostBasis: 1,
	}, ent)
	assertErrorCode(t, err, ErrCodeQuotaExceeded, "second holding over quota")
}

func TestAddHolding_ValidationBeforeQuota(t *testing.T) {
	core, _, cleanup := setupTestDB(t)
	defer cleanup()

	ent := FullEntitlements()
	ent.MaxStocks = int64Ptr(1)
	testHolding(t, core, "user-1", "AAPL", 1, 1)

	// Malformed input is reported even when the quota is already full.
	_, err := core.AddHolding(context.Background(), "user-1", AddHoldingRequest{
		Symbol: "MSFT", Shares: 0, CostBasis: 1,
	}, ent)
	assertErrorCode(t, err, ErrCodeInvalidInput, "shape check precedes quota check")
}

func TestAddHolding_CustomCategoryGate(t *testing.T) {
	core, _, cleanup := setupTestDB(t)
	defer cleanup()

	category := "Growth"
	restricted := FullEntitlements()
	restricted.AllowCustomCategories = false

	_, err := core.AddHolding(context.Background(), "user-1", AddHoldingRequest{
		Symbol: "AAPL", Shares: 1, CostBasis: 1, CustomCategory: &category,
	}, restricted)
	assertErrorCode(t, err, ErrCodePlanForbidden, "category without entitlement")

	// Even a clearing value requires the entitlement.
	empty := ""
	_, err = core.AddHolding(context.Background(), "user-1", AddHoldingRequest{
		Symbol: "AAPL", Shares: 1, CostBasis: 1, CustomCategory: &empty,
	}, restricted)
	assertErrorCode(t, err, ErrCodePlanForbidden, "empty category without entitlement")

	holding, err := core.AddHolding(context.Background(), "user-1", AddHoldingRequest{
		Symbol: "AAPL", Shares: 1, CostBasis: 1, CustomCategory: &category,
	}, FullEntitlements())
	assertNoError(t, err, "category with entitlement")
	if holding.CustomCategory == nil || *holding.CustomCategory != "Growth" {
		t.Errorf("expected custom category Growth, got %v", holding.CustomCategory)
	}

	long := strings.Repeat("c", 101)
	_, err = core.AddHolding(context.Background(), "user-1", AddHoldingRequest{
		Symbol: "MSFT", Shares: 1, CostBasis: 1, CustomCategory: &long,
	}, FullEntitlements())
	assertErrorCode(t, err, ErrCodeInvalidInput, "category too long")
}

func TestUpdateHolding_Partial(t *testing.T) {
	core, _, cleanup := setupTestDB(t)
	defer cleanup()

	holding := testHolding(t, core, "user-1", "AAPL", 10, 150)

	shares := int64(25)
	updated, err := core.UpdateHolding(context.Background(), "user-1", holding.ID, UpdateHoldingRequest{
		Shares: &shares,
	}, FullEntitlements())
	assertNoError(t, err, "update shares")
	if updated.Shares != 25 {
		t.Errorf("expected 25 shares, got %d", updated.Shares)
	}
	assertFloatEquals(t, updated.CostBasis.InexactFloat64(), 150, "cost basis untouched")
	if updated.UpdatedAt == nil {
		t.Error("expected updated_at to be set")
	}

	cost := 160.25
	sector := ""
	updated, err = core.UpdateHolding(context.Background(), "user-1", holding.ID, UpdateHoldingRequest{
		CostBasis: &cost,
		Sector:    &sector,
	}, FullEntitlements())
	assertNoError(t, err, "update cost and sector")
	assertFloatEquals(t, updated.CostBasis.InexactFloat64(), 160.25, "new cost basis")
	if updated.Sector != SectorUncategorized {
		t.Errorf("expected empty sector to become %s, got %s", SectorUncategorized, updated.Sector)
	}

	acquired := "2023-06-15"
	updated, err = core.UpdateHolding(context.Background(), "user-1", holding.ID, UpdateHoldingRequest{
		AcquiredAt: &acquired,
	}, FullEntitlements())
	assertNoError(t, err, "update acquisition date")
	assertContains(t, updated.AcquiredAt, "2023-06-15", "acquisition date")
}

func TestUpdateHolding_ClearCustomCategory(t *testing.T) {
	core, _, cleanup := setupTestDB(t)
	defer cleanup()

	category := "Dividend payers"
	holding, err := core.AddHolding(context.Background(), "user-1", AddHoldingRequest{
		Symbol: "KO", Shares: 5, CostBasis: 60, CustomCategory: &category,
	}, FullEntitlements())
	assertNoError(t, err, "add holding with category")

	empty := ""
	updated, err := core.UpdateHolding(context.Background(), "user-1", holding.ID, UpdateHoldingRequest{
		CustomCategory: &empty,
	}, FullEntitlements())
	assertNoError(t, err, "clear category")
	if updated.CustomCategory != nil {
		t.Errorf("expected cleared category, got %v", *updated.CustomCategory)
	}
}

func TestUpdateHolding_NoFields(t *testing.T) {
	core, _, cleanup := setupTestDB(t)
	defer cleanup()

	holding := testHolding(t, core, "user-1", "AAPL", 10, 150)

	_, err := core.UpdateHolding(context.Background(), "user-1", holding.ID, UpdateHoldingRequest{}, FullEntitlements())
	assertErrorCode(t, err, ErrCodeInvalidInput, "empty update")
}

func TestUpdateHolding_NotFound(t *testing.T) {
	core, _, cleanup := setupTestDB(t)
	defer cleanup()

	holding := testHolding(t, core, "user-1", "AAPL", 10, 150)

	shares := int64(5)
	_, err := core.UpdateHolding(context.Background(), "user-1", 9999, UpdateHoldingRequest{Shares: &shares}, FullEntitlements())
	assertErrorCode(t, err, ErrCodeNotFound, "unknown id")

	// Another user's holding is invisible.
	_, err = core.UpdateHolding(context.Background(), "user-2", holding.ID, UpdateHoldingRequest{Shares: &shares}, FullEntitlements())
	assertErrorCode(t, err, ErrCodeNotFound, "other user's holding")
}

func TestDeleteHolding(t *testing.T) {
	core, _, cleanup := setupTestDB(t)
	defer cleanup()

	holding := testHolding(t, core, "user-1", "AAPL", 10, 150)

	err := core.DeleteHolding(context.Background(), "user-1", holding.ID)
	assertNoError(t, err, "delete holding")

	got, err := core.GetHolding(context.Background(), "user-1", "AAPL")
	assertNoError(t, err, "get deleted holding")
	if got != nil {
		t.Errorf("expected holding to be gone, got %+v", got)
	}

	err = core.DeleteHolding(context.Background(), "user-1", holding.ID)
	assertErrorCode(t, err, ErrCodeNotFound, "delete twice")
}

func TestGetHoldings_OrderedBySymbol(t *testing.T) {
	core, _, cleanup := setupTestDB(t)
	defer cleanup()

	testHolding(t, core, "user-1", "MSFT", 1, 1)
	testHolding(t, core, "user-1", "AAPL", 1, 1)
	testHolding(t, core, "user-1", "GOOG", 1, 1)
	testHolding(t, core, "user-2", "TSLA", 1, 1)

	holdings, err := core.GetHoldings(context.Background(), "user-1")
	assertNoError(t, err, "get holdings")
	if len(holdings) != 3 {
		t.Fatalf("expected 3 holdings, got %d", len(holdings))
	}
	for i, want := range []string{"AAPL", "GOOG", "MSFT"} {
		if holdings[i].Symbol != want {
			t.Errorf("position %d: expected %s, got %s", i, want, holdings[i].Symbol)
		}
	}
}

func TestGetHolding_MissingReturnsNil(t *testing.T) {
	core, _, cleanup := setupTestDB(t)
	defer cleanup()

	holding, err := core.GetHolding(context.Background(), "user-1", "AAPL")
	assertNoError(t, err, "get missing holding")
	if holding != nil {
		t.Errorf("expected nil for missing holding, got %+v", holding)
	}
}
