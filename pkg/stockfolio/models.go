package stockfolio

// SectorUncategorized labels holdings whose sector is unknown.
const SectorUncategorized = "Uncategorized"

var AlertConditions = []string{"above", "below"}

var AlertStatuses = []string{"active", "triggered", "cancelled"}

var InsightProviders = []string{"openai", "anthropic", "gemini"}

// Entitlements describes what the calling user's plan allows. The Core
// enforces them; it never decides them. A nil MaxStocks means unlimited.
type Entitlements struct {
	MaxStocks             *int64
	AllowCustomCategories bool
	AllowDividendTracking bool
	AllowBenchmarking     bool
	AllowCSVImport        bool
	AllowGenericImport    bool
}

// FullEntitlements returns entitlements with every feature enabled and no
// holding quota. CLI runs operate under these.
func FullEntitlements() Entitlements {
	return Entitlements{
		AllowCustomCategories: true,
		AllowDividendTracking: true,
		AllowBenchmarking:     true,
		AllowCSVImport:        true,
		AllowGenericImport:    true,
	}
}

// Holding represents one user's position in one symbol.
type Holding struct {
	ID             int64   `json:"id"`
	UserID         string  `json:"user_id"`
	Symbol         string  `json:"symbol"`
	Shares         int64   `json:"shares"`
	CostBasis      Amount  `json:"cost_basis"`
	AcquiredAt     string  `json:"acquired_at"`
	Sector         string  `json:"sector"`
	CustomCategory *string `json:"custom_category"`
	CreatedAt      *string `json:"created_at"`
	UpdatedAt      *string `json:"updated_at"`
}

// AddHoldingRequest defines inputs to create a holding.
type AddHoldingRequest struct {
	Symbol         string
	Shares         int64
	CostBasis      float64
	Sector         string
	CustomCategory *string
	AcquiredAt     string
}

// UpdateHoldingRequest defines a partial holding update. Nil fields are
// left unchanged; an empty CustomCategory clears it.
type UpdateHoldingRequest struct {
	Shares         *int64
	CostBasis      *float64
	Sector         *string
	CustomCategory *string
	AcquiredAt     *string
}

// PortfolioEntry is a holding with its live valuation attached.
type PortfolioEntry struct {
	Holding
	CurrentPrice   *Amount `json:"current_price"`
	MarketValue    *Amount `json:"market_value"`
	PriceError     *string `json:"price_error,omitempty"`
	TotalDividends Amount  `json:"total_dividends"`
}

// AllocationBucket is the portfolio value attributed to one sector.
type AllocationBucket struct {
	Sector     string  `json:"sector"`
	Value      Amount  `json:"value"`
	Percentage float64 `json:"percentage"`
}

// AllocationSummary groups the portfolio's market value by sector.
type AllocationSummary struct {
	TotalValue Amount             `json:"total_value"`
	Buckets    []AllocationBucket `json:"buckets"`
}

// Period selects a performance window.
type Period string

const (
	Period1M  Period = "1M"
	Period6M  Period = "6M"
	Period1Y  Period = "1Y"
	PeriodAll Period = "ALL"
)

var Periods = []Period{Period1M, Period6M, Period1Y, PeriodAll}

// PerformancePoint is one day's portfolio or benchmark value.
type PerformancePoint struct {
	Date  string `json:"date"`
	Value Amount `json:"value"`
}

// PerformanceSummary carries descriptive statistics over the series.
type PerformanceSummary struct {
	MeanDailyReturn      float64  `json:"mean_daily_return"`
	StdDevDailyReturn    float64  `json:"std_dev_daily_return"`
	MaxDrawdown          float64  `json:"max_drawdown"`
	BenchmarkCorrelation *float64 `json:"benchmark_correlation"`
}

// PerformanceResult is the portfolio value series against a benchmark.
type PerformanceResult struct {
	Empty     bool                `json:"empty,omitempty"`
	Message   string              `json:"message,omitempty"`
	Period    Period              `json:"period,omitempty"`
	Benchmark string              `json:"benchmark,omitempty"`
	StartDate string              `json:"start_date,omitempty"`
	EndDate   string              `json:"end_date,omitempty"`
	Portfolio []PerformancePoint  `json:"portfolio,omitempty"`
	Series    []PerformancePoint  `json:"benchmark_series,omitempty"`
	Summary   *PerformanceSummary `json:"summary,omitempty"`
}

// HoldingItem is an absolute position stated by an import batch.
type HoldingItem struct {
	Symbol         string  `json:"symbol"`
	Shares         int64   `json:"shares"`
	AverageCost    float64 `json:"average_cost"`
	Sector         *string `json:"sector"`
	CustomCategory *string `json:"custom_category"`
}

// TransactionItem is a buy or sell to replay against current positions.
type TransactionItem struct {
	Symbol         string  `json:"symbol"`
	Shares         int64   `json:"shares"`
	Price          float64 `json:"price"`
	Type           string  `json:"type"`
	Date           string  `json:"date"`
	Sector         *string `json:"sector"`
	CustomCategory *string `json:"custom_category"`
}

// ImportBatch is the full payload of one bulk import.
type ImportBatch struct {
	Holdings     []HoldingItem     `json:"holdings"`
	Transactions []TransactionItem `json:"transactions"`
}

// CSVRow is one raw data line of a brokerage CSV export. Values stay
// unparsed strings; the import validates and converts them per row.
type CSVRow struct {
	Symbol        string
	Shares        string
	PurchasePrice string
	PurchaseDate  string
}

// BatchState tracks an import batch through its lifecycle.
type BatchState string

const (
	BatchValidating BatchState = "validating"
	BatchApplying   BatchState = "applying"
	BatchCommitted  BatchState = "committed"
	BatchRejected   BatchState = "rejected"
	BatchRolledBack BatchState = "rolled_back"
)

// ItemError pins a validation or apply failure to one batch item.
type ItemError struct {
	ItemType string            `json:"item_type"`
	Index    int               `json:"index"`
	Symbol   string            `json:"symbol,omitempty"`
	Fields   map[string]string `json:"fields,omitempty"`
	Reason   string            `json:"reason,omitempty"`
}

// ImportOutcome reports how a batch ended and what it touched.
type ImportOutcome struct {
	BatchID               string      `json:"batch_id"`
	State                 BatchState  `json:"state"`
	ProcessedHoldings     int         `json:"processed_holdings"`
	ProcessedTransactions int         `json:"processed_transactions"`
	ItemErrors            []ItemError `json:"item_errors,omitempty"`
}

// ImportRecord is the persisted audit row for a finished batch.
type ImportRecord struct {
	BatchID               string  `json:"batch_id"`
	UserID                string  `json:"user_id"`
	Source                string  `json:"source"`
	State                 string  `json:"state"`
	ProcessedHoldings     int     `json:"processed_holdings"`
	ProcessedTransactions int     `json:"processed_transactions"`
	ErrorCount            int     `json:"error_count"`
	ErrorDigest           *string `json:"error_digest"`
	CreatedAt             *string `json:"created_at"`
}

// Dividend is one cash payout recorded against a holding.
type Dividend struct {
	ID        int64   `json:"id"`
	HoldingID int64   `json:"holding_id"`
	UserID    string  `json:"user_id"`
	Amount    Amount  `json:"amount"`
	PayDate   string  `json:"pay_date"`
	CreatedAt *string `json:"created_at"`
}

// Alert is a target-price watch on a symbol.
type Alert struct {
	ID          int64   `json:"id"`
	UserID      string  `json:"user_id"`
	Symbol      string  `json:"symbol"`
	TargetPrice Amount  `json:"target_price"`
	Condition   string  `json:"condition"`
	Status      string  `json:"status"`
	CreatedAt   *string `json:"created_at"`
}

// CreateAlertRequest defines inputs to create an alert.
type CreateAlertRequest struct {
	Symbol      string
	TargetPrice float64
	Condition   string
}

// InsightSettings configures which model generates portfolio insights.
type InsightSettings struct {
	Provider    string  `json:"provider"`
	BaseURL     string  `json:"base_url"`
	Model       string  `json:"model"`
	RiskProfile string  `json:"risk_profile"`
	Horizon     string  `json:"horizon"`
	UpdatedAt   *string `json:"updated_at"`
}

// InsightRequest carries the per-call provider credential and optional
// overrides for one generation. Empty profile fields fall back to the
// stored settings; the API key is never persisted.
type InsightRequest struct {
	APIKey      string
	RiskProfile string
	Horizon     string
}

// InsightRecommendation is one model suggestion for one symbol.
type InsightRecommendation struct {
	Symbol    string `json:"symbol"`
	Action    string `json:"action"`
	Rationale string `json:"rationale"`
}

// InsightResult is a generated and persisted portfolio analysis.
type InsightResult struct {
	ID              int64                   `json:"id"`
	UserID          string                  `json:"user_id"`
	Provider        string                  `json:"provider"`
	Model           string                  `json:"model"`
	OverallSummary  string                  `json:"overall_summary"`
	RiskLevel       string                  `json:"risk_level"`
	KeyFindings     []string                `json:"key_findings"`
	Recommendations []InsightRecommendation `json:"recommendations"`
	Disclaimer      string                  `json:"disclaimer"`
	CreatedAt       *string                 `json:"created_at"`
}
