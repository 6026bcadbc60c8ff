package stockfolio

import (
	"context"
	"errors"
	"testing"
)

func TestCreateAlert_Basic(t *testing.T) {
	core, _, cleanup := setupTestDB(t)
	defer cleanup()

	alert, err := core.CreateAlert(context.Background(), "user-1", CreateAlertRequest{
		Symbol:      "aapl",
		TargetPrice: 180.5,
	})
	assertNoError(t, err, "create alert")
	if alert.Symbol != "AAPL" {
		t.Errorf("expected symbol AAPL, got %s", alert.Symbol)
	}
	assertFloatEquals(t, alert.TargetPrice.InexactFloat64(), 180.5, "target price")
	if alert.Condition != "above" {
		t.Errorf("expected default condition above, got %s", alert.Condition)
	}
	if alert.Status != "active" {
		t.Errorf("expected status active, got %s", alert.Status)
	}
}

func TestCreateAlert_Validation(t *testing.T) {
	core, _, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := core.CreateAlert(context.Background(), "", CreateAlertRequest{Symbol: "AAPL", TargetPrice: 1})
	assertErrorCode(t, err, ErrCodeInvalidInput, "missing user")

	_, err = core.CreateAlert(context.Background(), "user-1", CreateAlertRequest{Symbol: "", TargetPrice: 1})
	assertErrorCode(t, err, ErrCodeInvalidInput, "missing symbol")

	_, err = core.CreateAlert(context.Background(), "user-1", CreateAlertRequest{Symbol: "AAPL", TargetPrice: 0})
	assertErrorCode(t, err, ErrCodeInvalidInput, "zero target price")

	_, err = core.CreateAlert(context.Background(), "user-1", CreateAlertRequest{Symbol: "AAPL", TargetPrice: 1, Condition: "sideways"})
	assertErrorCode(t, err, ErrCodeInvalidInput, "unknown condition")
}

func TestCreateAlert_MockProviderSkipsSymbolCheck(t *testing.T) {
	core, _, cleanup := setupTestDB(t)
	defer cleanup()

	// The fake does not validate symbols, so an unknown symbol with no
	// price data is still accepted.
	alert, err := core.CreateAlert(context.Background(), "user-1", CreateAlertRequest{
		Symbol: "NOSUCH", TargetPrice: 10,
	})
	assertNoError(t, err, "alert for unvalidated symbol")
	if alert.Symbol != "NOSUCH" {
		t.Errorf("expected NOSUCH, got %s", alert.Symbol)
	}
}

func TestCreateAlert_ValidatingProviderRejectsUnknown(t *testing.T) {
	core, market, cleanup := setupTestDB(t)
	defer cleanup()

	market.validating = true
	market.setQuote("AAPL", 150, "Technology")

	_, err := core.CreateAlert(context.Background(), "user-1", CreateAlertRequest{
		Symbol: "NOSUCH", TargetPrice: 10,
	})
	assertErrorCode(t, err, ErrCodeInvalidInput, "unknown symbol with validating provider")

	_, err = core.CreateAlert(context.Background(), "user-1", CreateAlertRequest{
		Symbol: "AAPL", TargetPrice: 10,
	})
	assertNoError(t, err, "known symbol with validating provider")
}

func TestCreateAlert_ProviderFailurePropagates(t *testing.T) {
	core, market, cleanup := setupTestDB(t)
	defer cleanup()

	market.validating = true
	market.quoteErr = errors.New("rate limit reached")

	_, err := core.CreateAlert(context.Background(), "user-1", CreateAlertRequest{
		Symbol: "AAPL", TargetPrice: 10,
	})
	assertErrorCode(t, err, ErrCodeProviderUnavailable, "provider failure during validation")
}

func TestListAlerts_ActiveOnly(t *testing.T) {
	core, _, cleanup := setupTestDB(t)
	defer cleanup()

	first, err := core.CreateAlert(context.Background(), "user-1", CreateAlertRequest{Symbol: "AAPL", TargetPrice: 100})
	assertNoError(t, err, "create first alert")
	second, err := core.CreateAlert(context.Background(), "user-1", CreateAlertRequest{Symbol: "MSFT", TargetPrice: 200, Condition: "below"})
	assertNoError(t, err, "create second alert")
	_, err = core.CreateAlert(context.Background(), "user-2", CreateAlertRequest{Symbol: "TSLA", TargetPrice: 300})
	assertNoError(t, err, "create alert for another user")

	_, err = core.UpdateAlertStatus(context.Background(), "user-1", first.ID, "cancelled")
	assertNoError(t, err, "cancel first alert")

	alerts, err := core.ListAlerts(context.Background(), "user-1")
	assertNoError(t, err, "list alerts")
	if len(alerts) != 1 {
		t.Fatalf("expected 1 active alert, got %d", len(alerts))
	}
	if alerts[0].ID != second.ID {
		t.Errorf("expected alert %d, got %d", second.ID, alerts[0].ID)
	}
}

func TestUpdateAlertStatus(t *testing.T) {
	core, _, cleanup := setupTestDB(t)
	defer cleanup()

	alert, err := core.CreateAlert(context.Background(), "user-1", CreateAlertRequest{Symbol: "AAPL", TargetPrice: 100})
	assertNoError(t, err, "create alert")

	updated, err := core.UpdateAlertStatus(context.Background(), "user-1", alert.ID, "TRIGGERED")
	assertNoError(t, err, "update status")
	if updated.Status != "triggered" {
		t.Errorf("expected triggered, got %s", updated.Status)
	}

	_, err = core.UpdateAlertStatus(context.Background(), "user-1", alert.ID, "snoozed")
	assertErrorCode(t, err, ErrCodeInvalidInput, "unknown status")

	_, err = core.UpdateAlertStatus(context.Background(), "user-2", alert.ID, "cancelled")
	assertErrorCode(t, err, ErrCodeNotFound, "another user's alert")
}

func TestDeleteAlert(t *testing.T) {
	core, _, cleanup := setupTestDB(t)
	defer cleanup()

	alert, err := core.CreateAlert(context.Background(), "user-1", CreateAlertRequest{Symbol: "AAPL", TargetPrice: 100})
	assertNoError(t, err, "create alert")

	err = core.DeleteAlert(context.Background(), "user-1", alert.ID)
	assertNoError(t, err, "delete alert")

	err = core.DeleteAlert(context.Background(), "user-1", alert.ID)
	assertErrorCode(t, err, ErrCodeNotFound, "delete twice")
}
