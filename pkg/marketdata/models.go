package marketdata

// OutputSize selects how much history a series request returns.
type OutputSize string

const (
	// OutputCompact returns roughly the last 100 trading days.
	OutputCompact OutputSize = "compact"
	// OutputFull returns the provider's full daily history.
	OutputFull OutputSize = "full"
)

// Quote is the latest known price for a symbol. Price is nil when the
// provider has no data; Sector is empty when unknown.
type Quote struct {
	Symbol string   `json:"symbol"`
	Price  *float64 `json:"price"`
	Sector string   `json:"sector,omitempty"`
}

// Overview holds company fundamentals.
type Overview struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Sector   string `json:"sector"`
	Industry string `json:"industry"`
}

// Candle is one day of price data. Date is formatted YYYY-MM-DD.
type Candle struct {
	Date          string  `json:"date"`
	Open          float64 `json:"open"`
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
	Close         float64 `json:"close"`
	AdjustedClose float64 `json:"adjusted_close"`
	Volume        int64   `json:"volume"`
}

// HistoricalSeries is a daily series sorted ascending by date.
type HistoricalSeries []Candle

// ClosesByDate indexes the series' close prices by date for point lookups.
func (s HistoricalSeries) ClosesByDate() map[string]float64 {
	if len(s) == 0 {
		return nil
	}
	out := make(map[string]float64, len(s))
	for _, c := range s {
		out[c.Date] = c.Close
	}
	return out
}

// NewsItem is one article from the news feed.
type NewsItem struct {
	Title       string `json:"title"`
	Source      string `json:"source"`
	URL         string `json:"url"`
	Summary     string `json:"summary"`
	PublishedAt string `json:"published_at"`
	BannerImage string `json:"banner_image"`
}

// NewsQuery narrows a news request. Topics win over Tickers when both are
// set; with neither, a general finance feed is requested.
type NewsQuery struct {
	Topics  []string
	Tickers []string
	Limit   int
}

// BenchmarkSymbols are the index ETFs accepted as performance baselines.
var BenchmarkSymbols = []string{"SPY", "QQQ", "DIA"}

// DefaultBenchmark is used when a caller does not pick a baseline.
const DefaultBenchmark = "SPY"

// IsBenchmark reports whether symbol is one of BenchmarkSymbols.
func IsBenchmark(symbol string) bool {
	for _, s := range BenchmarkSymbols {
		if s == symbol {
			return true
		}
	}
	return false
}
