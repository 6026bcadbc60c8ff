package marketdata

import (
	"context"
	"log/slog"
	"strings"
)

const defaultNewsLimit = 10

// cachedService fronts a provider with the TTL cache. Only present data is
// cached; absent answers and failures always go back upstream.
type cachedService struct {
	inner  Service
	cache  *Cache
	logger *slog.Logger
}

func newCachedService(inner Service, cache *Cache, logger *slog.Logger) *cachedService {
	return &cachedService{inner: inner, cache: cache, logger: logger}
}

func (s *cachedService) ValidatesSymbols() bool {
	return ValidatesSymbols(s.inner)
}

func (s *cachedService) Quote(ctx context.Context, symbol string) (Quote, error) {
	symbol = normalizeSymbol(symbol)
	if symbol == "" {
		return Quote{}, nil
	}
	key := quoteKey(symbol)
	if v, ok := s.cache.Get(key, TTLQuote); ok {
		if quote, ok := v.(Quote); ok {
			return quote, nil
		}
	}
	quote, err := s.inner.Quote(ctx, symbol)
	if err != nil {
		return Quote{}, err
	}
	if quote.Price != nil {
		s.cache.Put(key, quote)
	}
	return quote, nil
}

func (s *cachedService) Overview(ctx context.Context, symbol string) (*Overview, error) {
	symbol = normalizeSymbol(symbol)
	if symbol == "" {
		return nil, nil
	}
	key := overviewKey(symbol)
	if v, ok := s.cache.Get(key, TTLOverview); ok {
		if ov, ok := v.(*Overview); ok {
			return ov, nil
		}
	}
	ov, err := s.inner.Overview(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if ov != nil {
		s.cache.Put(key, ov)
	}
	return ov, nil
}

func (s *cachedService) History(ctx context.Context, symbol string, size OutputSize) (HistoricalSeries, error) {
	symbol = normalizeSymbol(symbol)
	if symbol == "" {
		return nil, nil
	}
	if size != OutputFull {
		size = OutputCompact
	}
	key := historyKey(symbol, size)
	if v, ok := s.cache.Get(key, historyTTL(symbol)); ok {
		if series, ok := v.(HistoricalSeries); ok {
			return series, nil
		}
	}
	series, err := s.inner.History(ctx, symbol, size)
	if err != nil {
		return nil, err
	}
	if len(series) > 0 {
		s.cache.Put(key, series)
	}
	return series, nil
}

func (s *cachedService) News(ctx context.Context, q NewsQuery) ([]NewsItem, error) {
	if q.Limit <= 0 {
		q.Limit = defaultNewsLimit
	}
	key := newsKey(q)
	if v, ok := s.cache.Get(key, TTLNews); ok {
		if items, ok := v.([]NewsItem); ok {
			return items, nil
		}
	}
	items, err := s.inner.News(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(items) > 0 {
		s.cache.Put(key, items)
	}
	return items, nil
}

func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
