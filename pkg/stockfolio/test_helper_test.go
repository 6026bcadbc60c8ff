package stockfolio

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"stockfolio/pkg/marketdata"
)

// fakeMarket is a controllable market data service for tests. Unset symbols
// answer like a provider with no data for them.
type fakeMarket struct {
	quotes      map[string]marketdata.Quote
	overviews   map[string]*marketdata.Overview
	histories   map[string]marketdata.HistoricalSeries
	news        []marketdata.NewsItem
	quoteErr    error
	overviewErr error
	historyErr  error
	newsErr     error
	validating  bool
}

func newFakeMarket() *fakeMarket {
	return &fakeMarket{
		quotes:    map[string]marketdata.Quote{},
		overviews: map[string]*marketdata.Overview{},
		histories: map[string]marketdata.HistoricalSeries{},
	}
}

func (f *fakeMarket) ValidatesSymbols() bool { return f.validating }

func (f *fakeMarket) Quote(_ context.Context, symbol string) (marketdata.Quote, error) {
	if f.quoteErr != nil {
		return marketdata.Quote{}, f.quoteErr
	}
	if quote, ok := f.quotes[symbol]; ok {
		return quote, nil
	}
	return marketdata.Quote{Symbol: symbol}, nil
}

func (f *fakeMarket) Overview(_ context.Context, symbol string) (*marketdata.Overview, error) {
	if f.overviewErr != nil {
		return nil, f.overviewErr
	}
	return f.overviews[symbol], nil
}

func (f *fakeMarket) History(_ context.Context, symbol string, _ marketdata.OutputSize) (marketdata.HistoricalSeries, error) {
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	return f.histories[symbol], nil
}

func (f *fakeMarket) News(_ context.Context, _ marketdata.NewsQuery) ([]marketdata.NewsItem, error) {
	if f.newsErr != nil {
		return nil, f.newsErr
	}
	return f.news, nil
}

func (f *fakeMarket) setQuote(symbol string, price float64, sector string) {
	f.quotes[symbol] = marketdata.Quote{Symbol: symbol, Price: &price, Sector: sector}
}

// setupTestDB creates a temporary database backed by a fake market service.
// The caller should defer cleanup() to remove the temp file.
func setupTestDB(t *testing.T) (*Core, *fakeMarket, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "stockfolio-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}

	market := newFakeMarket()
	core, err := OpenWithOptions(Options{
		DBPath: filepath.Join(tmpDir, "test.db"),
		Market: market,
	})
	if err != nil {
		os.RemoveAll(tmpDir)
		t.Fatalf("failed to open test db: %v", err)
	}

	cleanup := func() {
		core.Close()
		os.RemoveAll(tmpDir)
	}

	return core, market, cleanup
}

// testHolding creates a holding with full entitlements for testing.
func testHolding(t *testing.T, core *Core, userID, symbol string, shares int64, cost float64) *Holding {
	t.Helper()
	holding, err := core.AddHolding(context.Background(), userID, AddHoldingRequest{
		Symbol:    symbol,
		Shares:    shares,
		CostBasis: cost,
	}, FullEntitlements())
	if err != nil {
		t.Fatalf("failed to create test holding: %v", err)
	}
	return holding
}

// floatEquals checks if two floats are approximately equal.
func floatEquals(a, b, epsilon float64) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff < epsilon
}

// assertFloatEquals fails the test if the floats are not approximately equal.
func assertFloatEquals(t *testing.T, got, want float64, msg string) {
	t.Helper()
	if !floatEquals(got, want, 0.001) {
		t.Errorf("%s: got %.4f, want %.4f", msg, got, want)
	}
}

// assertNoError fails the test if err is not nil.
func assertNoError(t *testing.T, err error, msg string) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: unexpected error: %v", msg, err)
	}
}

// assertErrorCode fails the test unless err carries the given code.
func assertErrorCode(t *testing.T, err error, code ErrorCode, msg string) {
	t.Helper()
	if err == nil {
		t.Fatalf("%s: expected error with code %s, got nil", msg, code)
	}
	if !IsErrorCode(err, code) {
		t.Fatalf("%s: expected error code %s, got %v", msg, code, err)
	}
}

// assertContains checks if the string contains the substring.
func assertContains(t *testing.T, s, substr, msg string) {
	t.Helper()
	found := false
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			found = true
			break
		}
	}
	if !found {
		t.Errorf("%s: string %q does not contain %q", msg, s, substr)
	}
}
