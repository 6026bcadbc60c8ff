package marketdata

import (
	"context"
	"log/slog"
	"testing"
	"time"
)

func newCachedTestService(t *testing.T, doer *mockHTTPClient) (Service, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	cache := NewCacheWithClock(clock.Now)
	svc := New(Config{
		APIKey:     "test-key",
		BaseURL:    "https://example.test/query",
		HTTPClient: doer,
		Cache:      cache,
	}, slog.Default())
	return svc, clock
}

func TestNewSelectsMockForPlaceholderKey(t *testing.T) {
	svc := New(Config{APIKey: PlaceholderAPIKey}, slog.Default())
	if ValidatesSymbols(svc) {
		t.Fatalf("placeholder key must select the mock provider")
	}
	quote, err := svc.Quote(context.Background(), "AAPL")
	assertNoError(t, err, "Quote")
	if quote.Price == nil {
		t.Fatalf("expected mock price")
	}
	assertFloatEquals(t, *quote.Price, 150.0, "mock price")
}

func TestNewSelectsMockForEmptyKey(t *testing.T) {
	svc := New(Config{}, slog.Default())
	if ValidatesSymbols(svc) {
		t.Fatalf("empty key must select the mock provider")
	}
}

func TestNewSelectsLiveForRealKey(t *testing.T) {
	svc := New(Config{APIKey: "real", HTTPClient: &mockHTTPClient{body: `{}`}}, slog.Default())
	if !ValidatesSymbols(svc) {
		t.Fatalf("real key must select the live provider")
	}
}

func TestCachedQuoteWithinTTL(t *testing.T) {
	doer := &mockHTTPClient{responses: map[string]string{
		"GLOBAL_QUOTE": quoteBody,
		"OVERVIEW":     overviewBody,
	}}
	svc, clock := newCachedTestService(t, doer)

	_, err := svc.Quote(context.Background(), "AAPL")
	assertNoError(t, err, "first quote")
	clock.Advance(4 * time.Minute)
	_, err = svc.Quote(context.Background(), "AAPL")
	assertNoError(t, err, "second quote")

	if got := doer.calls("GLOBAL_QUOTE"); got != 1 {
		t.Fatalf("expected cached quote within TTL, got %d upstream calls", got)
	}
}

func TestCachedQuoteRefetchesAfterExpiry(t *testing.T) {
	doer := &mockHTTPClient{responses: map[string]string{
		"GLOBAL_QUOTE": quoteBody,
		"OVERVIEW":     overviewBody,
	}}
	svc, clock := newCachedTestService(t, doer)

	_, err := svc.Quote(context.Background(), "AAPL")
	assertNoError(t, err, "first quote")
	clock.Advance(TTLQuote + time.Second)
	_, err = svc.Quote(context.Background(), "AAPL")
	assertNoError(t, err, "second quote")

	if got := doer.calls("GLOBAL_QUOTE"); got != 2 {
		t.Fatalf("expected refetch after TTL, got %d upstream calls", got)
	}
}

func TestCachedQuoteAbsentNotCached(t *testing.T) {
	doer := &mockHTTPClient{body: `{}`}
	svc, _ := newCachedTestService(t, doer)

	for i := 0; i < 2; i++ {
		quote, err := svc.Quote(context.Background(), "NOSUCH")
		assertNoError(t, err, "quote")
		if quote.Price != nil {
			t.Fatalf("expected absent price")
		}
	}
	if got := doer.calls("GLOBAL_QUOTE"); got != 2 {
		t.Fatalf("absent answers must not be cached, got %d upstream calls", got)
	}
}

func TestCachedHistoryBenchmarkTTLClass(t *testing.T) {
	historyBody := `{"Time Series (Daily)": {
		"2024-05-01": {"1. open": "100", "2. high": "102", "3. low": "98", "4. close": "101", "5. adjusted close": "101", "6. volume": "1000"}
	}}`
	doer := &mockHTTPClient{responses: map[string]string{"TIME_SERIES_DAILY_ADJUSTED": historyBody}}
	svc, clock := newCachedTestService(t, doer)

	_, err := svc.History(context.Background(), "SPY", OutputCompact)
	assertNoError(t, err, "spy history")
	_, err = svc.History(context.Background(), "AAPL", OutputCompact)
	assertNoError(t, err, "aapl history")

	// Two hours in: past the general TTL, inside the benchmark TTL.
	clock.Advance(2 * time.Hour)
	_, err = svc.History(context.Background(), "SPY", OutputCompact)
	assertNoError(t, err, "spy history again")
	_, err = svc.History(context.Background(), "AAPL", OutputCompact)
	assertNoError(t, err, "aapl history again")

	if got := doer.calls("TIME_SERIES_DAILY_ADJUSTED"); got != 3 {
		t.Fatalf("expected benchmark cached and regular refetched, got %d upstream calls", got)
	}
}

func TestCachedHistorySizeIsPartOfKey(t *testing.T) {
	historyBody := `{"Time Series (Daily)": {
		"2024-05-01": {"1. open": "100", "2. high": "102", "3. low": "98", "4. close": "101", "5. adjusted close": "101", "6. volume": "1000"}
	}}`
	doer := &mockHTTPClient{responses: map[string]string{"TIME_SERIES_DAILY_ADJUSTED": historyBody}}
	svc, _ := newCachedTestService(t, doer)

	_, err := svc.History(context.Background(), "AAPL", OutputCompact)
	assertNoError(t, err, "compact")
	_, err = svc.History(context.Background(), "AAPL", OutputFull)
	assertNoError(t, err, "full")

	if got := doer.calls("TIME_SERIES_DAILY_ADJUSTED"); got != 2 {
		t.Fatalf("expected compact and full cached separately, got %d upstream calls", got)
	}
}

func TestCachedNewsNormalizesLimit(t *testing.T) {
	doer := &mockHTTPClient{body: `{"feed": [{"title": "A"}]}`}
	svc, _ := newCachedTestService(t, doer)

	_, err := svc.News(context.Background(), NewsQuery{})
	assertNoError(t, err, "news default limit")
	_, err = svc.News(context.Background(), NewsQuery{Limit: defaultNewsLimit})
	assertNoError(t, err, "news explicit limit")

	// A zero limit normalizes to the default, so both calls share one entry.
	if got := doer.calls("NEWS_SENTIMENT"); got != 1 {
		t.Fatalf("expected normalized limit to share the cache entry, got %d upstream calls", got)
	}
}

func TestCachedServiceOverMock(t *testing.T) {
	clock := newFakeClock()
	cache := NewCacheWithClock(clock.Now)
	svc := New(Config{Cache: cache}, slog.Default())

	quote, err := svc.Quote(context.Background(), "AAPL")
	assertNoError(t, err, "quote")
	if quote.Price == nil {
		t.Fatalf("expected mock price through the cache")
	}
	if cache.Len() == 0 {
		t.Fatalf("expected the mock answer to land in the cache")
	}
}
