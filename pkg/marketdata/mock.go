package marketdata

import (
	"context"
	"sort"
	"time"
)

// mockService serves deterministic data for development and tests. It never
// fails: unknown symbols simply come back absent.
type mockService struct {
	now func() time.Time
}

func newMockService() *mockService {
	return &mockService{now: time.Now}
}

// ValidatesSymbols reports that mock answers are not authoritative; the mock
// accepts symbols it has never heard of.
func (m *mockService) ValidatesSymbols() bool {
	return false
}

func (m *mockService) Quote(ctx context.Context, symbol string) (Quote, error) {
	symbol = normalizeSymbol(symbol)
	quote := Quote{Symbol: symbol}
	switch symbol {
	case "AAPL":
		quote.Price = floatPtr(150.0)
		quote.Sector = "Technology"
	case "MSFT":
		quote.Price = floatPtr(300.0)
		quote.Sector = "Technology"
	case "JNJ":
		quote.Price = floatPtr(160.0)
		quote.Sector = "Healthcare"
	}
	return quote, nil
}

func (m *mockService) Overview(ctx context.Context, symbol string) (*Overview, error) {
	symbol = normalizeSymbol(symbol)
	if symbol == "" {
		return nil, nil
	}
	ov := &Overview{Symbol: symbol}
	switch symbol {
	case "AAPL":
		ov.Name, ov.Sector = "Apple Inc.", "Technology"
	case "MSFT":
		ov.Name, ov.Sector = "Microsoft Corp.", "Technology"
	case "JNJ":
		ov.Name, ov.Sector = "Johnson & Johnson", "Healthcare"
	default:
		ov.Name, ov.Sector = "Unknown Company", "Unknown"
	}
	return ov, nil
}

func (m *mockService) History(ctx context.Context, symbol string, size OutputSize) (HistoricalSeries, error) {
	symbol = normalizeSymbol(symbol)
	if symbol == "" {
		return nil, nil
	}
	points := 100
	if size == OutputFull {
		points = 200
	}
	base := 150.0
	switch symbol {
	case "MSFT":
		base = 300.0
	case "SPY":
		base = 400.0
	}
	today := m.now().UTC()
	series := make(HistoricalSeries, 0, points)
	for i := 0; i < points; i++ {
		day := today.AddDate(0, 0, -i)
		open := base + float64(i)*0.1
		series = append(series, Candle{
			Date:          day.Format("2006-01-02"),
			Open:          open,
			High:          open + 2,
			Low:           open - 2,
			Close:         open + 1,
			AdjustedClose: open + 1,
			Volume:        1000000 + int64(i)*1000,
		})
	}
	sort.Slice(series, func(i, j int) bool { return series[i].Date < series[j].Date })
	return series, nil
}

func (m *mockService) News(ctx context.Context, q NewsQuery) ([]NewsItem, error) {
	canned := []NewsItem{
		{
			Title:       "Market Hits Record Highs Amidst Tech Rally",
			Source:      "Mock News Service",
			URL:         "#",
			Summary:     "Major indices surged today, driven by strong earnings in the tech sector and positive economic outlook.",
			PublishedAt: "2024-03-15T10:00:00Z",
			BannerImage: "https://via.placeholder.com/150/007bff/FFFFFF?Text=Market+High",
		},
		{
			Title:       "Federal Reserve Signals Steady Interest Rates",
			Source:      "Financial Times Mock",
			URL:         "#",
			Summary:     "The Federal Reserve concluded its policy meeting today, indicating that interest rates will likely remain unchanged for the near future.",
			PublishedAt: "2024-03-15T09:30:00Z",
			BannerImage: "https://via.placeholder.com/150/28a745/FFFFFF?Text=Fed+Rates",
		},
		{
			Title:       "Global Supply Chain Challenges Easing, Report Suggests",
			Source:      "Reuters Mock",
			URL:         "#",
			Summary:     "A new report indicates that global supply chain pressures are beginning to ease, which could help reduce inflation.",
			PublishedAt: "2024-03-15T08:00:00Z",
			BannerImage: "https://via.placeholder.com/150/ffc107/000000?Text=Supply+Chain",
		},
	}
	// Repeat the canned stories to roughly honor the requested limit. A
	// limit under 3 yields nothing, matching the integer division.
	repeats := q.Limit / len(canned)
	items := make([]NewsItem, 0, repeats*len(canned))
	for i := 0; i < repeats; i++ {
		items = append(items, canned...)
	}
	return items, nil
}

func floatPtr(v float64) *float64 {
	return &v
}
