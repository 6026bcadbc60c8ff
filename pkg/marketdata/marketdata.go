// Package marketdata fetches quotes, company overviews, historical price
// series and financial news from Alpha Vantage, with a deterministic mock
// provider for development and a TTL cache in front of both.
package marketdata

import (
	"context"
	"log/slog"
	"net/http"
)

// PlaceholderAPIKey is the documented dummy key. Configurations carrying it
// (or no key at all) get the mock provider instead of the live one.
const PlaceholderAPIKey = "YOUR_ALPHA_VANTAGE_API_KEY_PLACEHOLDER"

// HTTPDoer is an interface for making HTTP requests. It enables dependency
// injection for testing without network calls.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Service is the provider-facing API. Absent data is reported as a nil or
// zero value with a nil error; errors are reserved for provider failures.
type Service interface {
	// Quote returns the latest price and, when available, the sector for a
	// symbol. A nil Price means the provider had no data for the symbol.
	Quote(ctx context.Context, symbol string) (Quote, error)
	// Overview returns company fundamentals, or nil when the provider does
	// not know the symbol.
	Overview(ctx context.Context, symbol string) (*Overview, error)
	// History returns the daily series sorted ascending by date, or nil when
	// no data exists for the symbol.
	History(ctx context.Context, symbol string, size OutputSize) (HistoricalSeries, error)
	// News returns recent articles for the query. An empty slice is a valid
	// "no results" answer, not an error.
	News(ctx context.Context, q NewsQuery) ([]NewsItem, error)
}

// SymbolValidator is implemented by services whose quote misses are
// authoritative. The mock provider accepts any symbol, so callers that
// reject unknown symbols must not do so when this returns false.
type SymbolValidator interface {
	ValidatesSymbols() bool
}

// ValidatesSymbols reports whether s gives authoritative symbol answers.
func ValidatesSymbols(s Service) bool {
	if v, ok := s.(SymbolValidator); ok {
		return v.ValidatesSymbols()
	}
	return false
}

// Config selects and tunes the provider behind New.
type Config struct {
	APIKey     string   // empty or PlaceholderAPIKey selects the mock provider
	BaseURL    string   // defaults to the Alpha Vantage query endpoint
	HTTPClient HTTPDoer // optional: inject custom client for testing
	Cache      *Cache   // optional: share or fake-clock the response cache
}

// New builds the configured provider wrapped in the response cache.
func New(cfg Config, logger *slog.Logger) Service {
	if logger == nil {
		logger = slog.Default()
	}
	cache := cfg.Cache
	if cache == nil {
		cache = NewCache()
	}
	cfg.Cache = cache
	var inner Service
	if cfg.APIKey == "" || cfg.APIKey == PlaceholderAPIKey {
		logger.Info("market data provider selected", "provider", "mock")
		inner = newMockService()
	} else {
		logger.Info("market data provider selected", "provider", "alphavantage")
		inner = newAlphaVantageClient(cfg, logger)
	}
	return newCachedService(inner, cache, logger)
}
