package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://www.alphavantage.co/query"

	quoteTimeout    = 10 * time.Second
	overviewTimeout = 10 * time.Second
	historyTimeout  = 15 * time.Second
	newsTimeout     = 15 * time.Second
)

// maxResponseSize limits provider responses to 1MB to prevent memory
// exhaustion from malicious/buggy upstream payloads.
const maxResponseSize = 1 << 20 // 1MB

// generalNewsTopics is requested when a news query names neither topics nor
// tickers.
const generalNewsTopics = "FINANCE,ECONOMY,TECHNOLOGY"

type alphaVantageClient struct {
	apiKey  string
	baseURL string
	client  HTTPDoer
	cache   *Cache
	logger  *slog.Logger
}

func newAlphaVantageClient(cfg Config, logger *slog.Logger) *alphaVantageClient {
	client := cfg.HTTPClient
	if client == nil {
		// Timeouts come from per-request contexts, not the client.
		client = &http.Client{}
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	cache := cfg.Cache
	if cache == nil {
		cache = NewCache()
	}
	return &alphaVantageClient{
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		client:  client,
		cache:   cache,
		logger:  logger,
	}
}

// ValidatesSymbols reports that quote misses from the live provider are
// authoritative.
func (c *alphaVantageClient) ValidatesSymbols() bool {
	return true
}

func (c *alphaVantageClient) Quote(ctx context.Context, symbol string) (Quote, error) {
	symbol = normalizeSymbol(symbol)
	if symbol == "" {
		return Quote{}, nil
	}
	quote := Quote{Symbol: symbol, Sector: c.sectorFor(ctx, symbol)}

	params := url.Values{}
	params.Set("function", "GLOBAL_QUOTE")
	params.Set("symbol", symbol)
	params.Set("apikey", c.apiKey)
	payload, err := c.getJSON(ctx, "quote", symbol, quoteTimeout, params)
	if err != nil {
		return Quote{}, err
	}

	block, _ := payload["Global Quote"].(map[string]any)
	if len(block) == 0 {
		if note, ok := payload["Note"].(string); ok && note != "" {
			return Quote{}, newProviderError(KindRateLimited, "quote", symbol, note)
		}
		if msg, ok := payload["Error Message"].(string); ok && msg != "" {
			return Quote{}, newProviderError(KindUnreachable, "quote", symbol, msg)
		}
		return quote, nil
	}
	price, err := parseFloat(block["05. price"])
	if err != nil {
		// The provider answered but without a usable price; treat as absent.
		c.logger.Debug("quote price missing or unparsable", "symbol", symbol, "error", err)
		return quote, nil
	}
	quote.Price = &price
	return quote, nil
}

// sectorFor resolves the sector for a quote via the overview endpoint,
// consulting the shared cache. Failures degrade to an empty sector and must
// never abort the price request.
func (c *alphaVantageClient) sectorFor(ctx context.Context, symbol string) string {
	if v, ok := c.cache.Get(overviewKey(symbol), TTLOverview); ok {
		if ov, ok := v.(*Overview); ok && ov != nil {
			return ov.Sector
		}
	}
	ov, err := c.Overview(ctx, symbol)
	if err != nil {
		c.logger.Debug("overview lookup failed during quote", "symbol", symbol, "error", err)
		return ""
	}
	if ov == nil {
		return ""
	}
	c.cache.Put(overviewKey(symbol), ov)
	return ov.Sector
}

func (c *alphaVantageClient) Overview(ctx context.Context, symbol string) (*Overview, error) {
	symbol = normalizeSymbol(symbol)
	if symbol == "" {
		return nil, nil
	}
	params := url.Values{}
	params.Set("function", "OVERVIEW")
	params.Set("symbol", symbol)
	params.Set("apikey", c.apiKey)
	payload, err := c.getJSON(ctx, "overview", symbol, overviewTimeout, params)
	if err != nil {
		return nil, err
	}

	got, _ := payload["Symbol"].(string)
	if got != symbol {
		if note := noteValue(payload); note != "" {
			return nil, newProviderError(KindRateLimited, "overview", symbol, note)
		}
		return nil, nil
	}
	ov := &Overview{Symbol: symbol}
	ov.Name, _ = payload["Name"].(string)
	ov.Sector, _ = payload["Sector"].(string)
	ov.Industry, _ = payload["Industry"].(string)
	return ov, nil
}

func (c *alphaVantageClient) History(ctx context.Context, symbol string, size OutputSize) (HistoricalSeries, error) {
	symbol = normalizeSymbol(symbol)
	if symbol == "" {
		return nil, nil
	}
	if size != OutputFull {
		size = OutputCompact
	}
	params := url.Values{}
	params.Set("function", "TIME_SERIES_DAILY_ADJUSTED")
	params.Set("symbol", symbol)
	params.Set("outputsize", string(size))
	params.Set("apikey", c.apiKey)
	payload, err := c.getJSON(ctx, "history", symbol, historyTimeout, params)
	if err != nil {
		return nil, err
	}

	raw, _ := payload["Time Series (Daily)"].(map[string]any)
	if len(raw) == 0 {
		if note := noteValue(payload); note != "" && strings.Contains(strings.ToLower(note), "higher subscription") {
			return nil, newProviderError(KindRateLimited, "history", symbol, note)
		}
		if msg, ok := payload["Error Message"].(string); ok && msg != "" {
			return nil, newProviderError(KindUnreachable, "history", symbol, msg)
		}
		return nil, nil
	}

	series := make(HistoricalSeries, 0, len(raw))
	for date, v := range raw {
		fields, ok := v.(map[string]any)
		if !ok {
			continue
		}
		candle, err := parseCandle(date, fields)
		if err != nil {
			c.logger.Debug("skipping unparsable day", "symbol", symbol, "date", date, "error", err)
			continue
		}
		series = append(series, candle)
	}
	if len(series) == 0 {
		return nil, nil
	}
	sort.Slice(series, func(i, j int) bool { return series[i].Date < series[j].Date })
	return series, nil
}

func parseCandle(date string, fields map[string]any) (Candle, error) {
	open, err := parseFloat(fields["1. open"])
	if err != nil {
		return Candle{}, fmt.Errorf("open: %w", err)
	}
	high, err := parseFloat(fields["2. high"])
	if err != nil {
		return Candle{}, fmt.Errorf("high: %w", err)
	}
	low, err := parseFloat(fields["3. low"])
	if err != nil {
		return Candle{}, fmt.Errorf("low: %w", err)
	}
	closePrice, err := parseFloat(fields["4. close"])
	if err != nil {
		return Candle{}, fmt.Errorf("close: %w", err)
	}
	adjusted, err := parseFloat(fields["5. adjusted close"])
	if err != nil {
		return Candle{}, fmt.Errorf("adjusted close: %w", err)
	}
	volume, err := parseFloat(fields["6. volume"])
	if err != nil {
		return Candle{}, fmt.Errorf("volume: %w", err)
	}
	return Candle{
		Date:          date,
		Open:          open,
		High:          high,
		Low:           low,
		Close:         closePrice,
		AdjustedClose: adjusted,
		Volume:        int64(volume),
	}, nil
}

func (c *alphaVantageClient) News(ctx context.Context, q NewsQuery) ([]NewsItem, error) {
	params := url.Values{}
	params.Set("function", "NEWS_SENTIMENT")
	params.Set("apikey", c.apiKey)
	params.Set("limit", strconv.Itoa(q.Limit))
	params.Set("sort", "LATEST")
	// The provider answers best with either topics or tickers, not both.
	switch {
	case len(q.Topics) > 0:
		params.Set("topics", strings.ToUpper(strings.Join(q.Topics, ",")))
	case len(q.Tickers) > 0:
		params.Set("tickers", strings.ToUpper(strings.Join(q.Tickers, ",")))
	default:
		params.Set("topics", generalNewsTopics)
	}
	payload, err := c.getJSON(ctx, "news", "", newsTimeout, params)
	if err != nil {
		return nil, err
	}

	feed, _ := payload["feed"].([]any)
	if len(feed) == 0 {
		if note := noteValue(payload); note != "" && strings.Contains(strings.ToLower(note), "higher subscription") {
			return nil, newProviderError(KindRateLimited, "news", "", note)
		}
		return []NewsItem{}, nil
	}

	items := make([]NewsItem, 0, len(feed))
	for _, raw := range feed {
		fields, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		items = append(items, NewsItem{
			Title:       stringField(fields, "title", "No Title"),
			Source:      stringField(fields, "source", "Unknown Source"),
			URL:         stringField(fields, "url", "#"),
			Summary:     stringField(fields, "summary", "No summary available."),
			PublishedAt: stringField(fields, "time_published", ""),
			BannerImage: stringField(fields, "banner_image", "https://via.placeholder.com/100x60/eee/999?text=News"),
		})
	}
	return items, nil
}

func (c *alphaVantageClient) getJSON(ctx context.Context, op, symbol string, timeout time.Duration, params url.Values) (map[string]any, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, wrapProviderError(KindUnreachable, op, symbol, "failed to build request", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, wrapProviderError(KindUnreachable, op, symbol, "request failed", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newProviderError(KindUnreachable, op, symbol, fmt.Sprintf("http status %d", resp.StatusCode))
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, wrapProviderError(KindUnreachable, op, symbol, "failed to read response", err)
	}
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, wrapProviderError(KindUnreachable, op, symbol, "failed to decode response", err)
	}
	return payload, nil
}

func noteValue(payload map[string]any) string {
	if v, ok := payload["Information"].(string); ok && v != "" {
		return v
	}
	if v, ok := payload["Note"].(string); ok && v != "" {
		return v
	}
	return ""
}

func stringField(fields map[string]any, key, fallback string) string {
	if v, ok := fields[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

func parseFloat(value any) (float64, error) {
	switch v := value.(type) {
	case nil:
		return 0, errors.New("no value")
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case json.Number:
		return v.Float64()
	case string:
		if v == "" {
			return 0, errors.New("empty")
		}
		return strconv.ParseFloat(v, 64)
	default:
		return 0, fmt.Errorf("unsupported type %T", value)
	}
}
