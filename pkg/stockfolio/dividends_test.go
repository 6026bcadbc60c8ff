package stockfolio

import (
	"context"
	"testing"
)

func TestAddDividend_Basic(t *testing.T) {
	core, _, cleanup := setupTestDB(t)
	defer cleanup()

	holding := testHolding(t, core, "user-1", "KO", 10, 55)

	dividend, err := core.AddDividend(context.Background(), "user-1", holding.ID, 4.6, "2024-03-15", FullEntitlements())
	assertNoError(t, err, "add dividend")
	if dividend.HoldingID != holding.ID {
		t.Errorf("expected holding id %d, got %d", holding.ID, dividend.HoldingID)
	}
	assertFloatEquals(t, dividend.Amount.InexactFloat64(), 4.6, "amount")
	if dividend.PayDate != "2024-03-15" {
		t.Errorf("expected pay date 2024-03-15, got %s", dividend.PayDate)
	}
	if dividend.CreatedAt == nil {
		t.Error("expected created_at to be set")
	}
}

func TestAddDividend_RequiresEntitlement(t *testing.T) {
	core, _, cleanup := setupTestDB(t)
	defer cleanup()

	holding := testHolding(t, core, "user-1", "KO", 10, 55)

	ent := FullEntitlements()
	ent.AllowDividendTracking = false
	_, err := core.AddDividend(context.Background(), "user-1", holding.ID, 4.6, "2024-03-15", ent)
	assertErrorCode(t, err, ErrCodePlanForbidden, "dividend without entitlement")
}

func TestAddDividend_Validation(t *testing.T) {
	core, _, cleanup := setupTestDB(t)
	defer cleanup()

	holding := testHolding(t, core, "user-1", "KO", 10, 55)

	_, err := core.AddDividend(context.Background(), "user-1", holding.ID, 0, "2024-03-15", FullEntitlements())
	assertErrorCode(t, err, ErrCodeInvalidInput, "zero amount")

	_, err = core.AddDividend(context.Background(), "user-1", holding.ID, -1, "2024-03-15", FullEntitlements())
	assertErrorCode(t, err, ErrCodeInvalidInput, "negative amount")

	_, err = core.AddDividend(context.Background(), "user-1", holding.ID, 1, "03/15/2024", FullEntitlements())
	assertErrorCode(t, err, ErrCodeInvalidInput, "wrong date format")

	_, err = core.AddDividend(context.Background(), "user-1", holding.ID, 1, "2024-02-30", FullEntitlements())
	assertErrorCode(t, err, ErrCodeInvalidInput, "impossible calendar date")
}

func TestAddDividend_HoldingOwnership(t *testing.T) {
	core, _, cleanup := setupTestDB(t)
	defer cleanup()

	holding := testHolding(t, core, "user-1", "KO", 10, 55)

	_, err := core.AddDividend(context.Background(), "user-2", holding.ID, 4.6, "2024-03-15", FullEntitlements())
	assertErrorCode(t, err, ErrCodeNotFound, "another user's holding")

	_, err = core.AddDividend(context.Background(), "user-1", 9999, 4.6, "2024-03-15", FullEntitlements())
	assertErrorCode(t, err, ErrCodeNotFound, "unknown holding")
}

func TestListDividends_NewestPayDateFirst(t *testing.T) {
	core, _, cleanup := setupTestDB(t)
	defer cleanup()

	holding := testHolding(t, core, "user-1", "KO", 10, 55)
	for _, payDate := range []string{"2024-03-15", "2024-09-13", "2024-06-14"} {
		_, err := core.AddDividend(context.Background(), "user-1", holding.ID, 4.6, payDate, FullEntitlements())
		assertNoError(t, err, "add dividend "+payDate)
	}

	dividends, err := core.ListDividends(context.Background(), "user-1", holding.ID, FullEntitlements())
	assertNoError(t, err, "list dividends")
	if len(dividends) != 3 {
		t.Fatalf("expected 3 dividends, got %d", len(dividends))
	}
	for i, want := range []string{"2024-09-13", "2024-06-14", "2024-03-15"} {
		if dividends[i].PayDate != want {
			t.Errorf("position %d: expected %s, got %s", i, want, dividends[i].PayDate)
		}
	}
}

func TestUpdateDividend(t *testing.T) {
	core, _, cleanup := setupTestDB(t)
	defer cleanup()

	holding := testHolding(t, core, "user-1", "KO", 10, 55)
	dividend, err := core.AddDividend(context.Background(), "user-1", holding.ID, 4.6, "2024-03-15", FullEntitlements())
	assertNoError(t, err, "add dividend")

	amount := 5.25
	updated, err := core.UpdateDividend(context.Background(), "user-1", dividend.ID, &amount, nil, FullEntitlements())
	assertNoError(t, err, "update amount")
	assertFloatEquals(t, updated.Amount.InexactFloat64(), 5.25, "new amount")
	if updated.PayDate != "2024-03-15" {
		t.Errorf("pay date should be untouched, got %s", updated.PayDate)
	}

	_, err = core.UpdateDividend(context.Background(), "user-1", dividend.ID, nil, nil, FullEntitlements())
	assertErrorCode(t, err, ErrCodeInvalidInput, "empty update")

	_, err = core.UpdateDividend(context.Background(), "user-1", 9999, &amount, nil, FullEntitlements())
	assertErrorCode(t, err, ErrCodeNotFound, "unknown dividend")
}

func TestDeleteDividend(t *testing.T) {
	core, _, cleanup := setupTestDB(t)
	defer cleanup()

	holding := testHolding(t, core, "user-1", "KO", 10, 55)
	dividend, err := core.AddDividend(context.Background(), "user-1", holding.ID, 4.6, "2024-03-15", FullEntitlements())
	assertNoError(t, err, "add dividend")

	err = core.DeleteDividend(context.Background(), "user-1", dividend.ID, FullEntitlements())
	assertNoError(t, err, "delete dividend")

	err = core.DeleteDividend(context.Background(), "user-1", dividend.ID, FullEntitlements())
	assertErrorCode(t, err, ErrCodeNotFound, "delete twice")
}

func TestDividends_CascadeOnHoldingDelete(t *testing.T) {
	core, _, cleanup := setupTestDB(t)
	defer cleanup()

	holding := testHolding(t, core, "user-1", "KO", 10, 55)
	_, err := core.AddDividend(context.Background(), "user-1", holding.ID, 4.6, "2024-03-15", FullEntitlements())
	assertNoError(t, err, "add dividend")

	err = core.DeleteHolding(context.Background(), "user-1", holding.ID)
	assertNoError(t, err, "delete holding")

	totals, err := core.dividendTotals(context.Background(), "user-1")
	assertNoError(t, err, "dividend totals after cascade")
	if len(totals) != 0 {
		t.Errorf("expected dividends to cascade away, got %d totals", len(totals))
	}
}
