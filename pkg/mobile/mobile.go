// Package mobile wraps the stockfolio core for gomobile bindings.
// gomobile cannot cross struct slices or pointer-typed numerics, so
// methods exchange JSON strings.
package mobile

import (
	"context"
	"encoding/json"

	"stockfolio/pkg/marketdata"
	"stockfolio/pkg/stockfolio"
)

// Core wraps the stockfolio core for mobile hosts.
type Core struct {
	core *stockfolio.Core
}

// Open initializes the core with a database path and the mock market
// data provider.
func Open(dbPath string) (*Core, error) {
	core, err := stockfolio.Open(dbPath)
	if err != nil {
		return nil, err
	}
	return &Core{core: core}, nil
}

// OpenWithMarketKey initializes the core with a live market data key.
func OpenWithMarketKey(dbPath, apiKey string) (*Core, error) {
	core, err := stockfolio.OpenWithOptions(stockfolio.Options{
		DBPath: dbPath,
		Market: marketdata.New(marketdata.Config{APIKey: apiKey}, nil),
	})
	if err != nil {
		return nil, err
	}
	return &Core{core: core}, nil
}

// Close releases resources.
func (c *Core) Close() error {
	if c == nil || c.core == nil {
		return nil
	}
	return c.core.Close()
}

// PortfolioJSON returns holdings with live valuations as JSON.
func (c *Core) PortfolioJSON(userID string) (string, error) {
	entries, err := c.core.PortfolioView(context.Background(), userID)
	if err != nil {
		return "", err
	}
	return marshalJSON(entries)
}

// AllocationJSON returns the sector allocation summary as JSON.
func (c *Core) AllocationJSON(userID string) (string, error) {
	summary, err := c.core.Allocation(context.Background(), userID)
	if err != nil {
		return "", err
	}
	return marshalJSON(summary)
}

// PerformanceJSON returns the performance series as JSON. Empty period
// and benchmark select the defaults; empty entitlements JSON enables
// every feature.
func (c *Core) PerformanceJSON(userID, period, benchmark, entitlementsJSON string) (string, error) {
	ent, err := parseEntitlements(entitlementsJSON)
	if err != nil {
		return "", err
	}
	result, err := c.core.Performance(context.Background(), userID, stockfolio.Period(period), benchmark, ent)
	if err != nil {
		return "", err
	}
	return marshalJSON(result)
}

// AddHoldingJSON creates a holding from JSON and returns it as JSON.
func (c *Core) AddHoldingJSON(userID, payloadJSON, entitlementsJSON string) (string, error) {
	var payload holdingPayload
	if err := json.Unmarshal([]byte(payloadJSON), &payload); err != nil {
		return "", err
	}
	ent, err := parseEntitlements(entitlementsJSON)
	if err != nil {
		return "", err
	}
	holding, err := c.core.AddHolding(context.Background(), userID, stockfolio.AddHoldingRequest{
		Symbol:         payload.Symbol,
		Shares:         payload.Shares,
		CostBasis:      payload.CostBasis,
		Sector:         payload.Sector,
		CustomCategory: payload.CustomCategory,
		AcquiredAt:     payload.AcquiredAt,
	}, ent)
	if err != nil {
		return "", err
	}
	return marshalJSON(holding)
}

// DeleteHolding deletes a holding by id.
func (c *Core) DeleteHolding(userID string, id int64) error {
	return c.core.DeleteHolding(context.Background(), userID, id)
}

// ImportBatchJSON applies a bulk import batch and returns the outcome as
// JSON.
func (c *Core) ImportBatchJSON(userID, batchJSON, entitlementsJSON string) (string, error) {
	var batch stockfolio.ImportBatch
	if err := json.Unmarshal([]byte(batchJSON), &batch); err != nil {
		return "", err
	}
	ent, err := parseEntitlements(entitlementsJSON)
	if err != nil {
		return "", err
	}
	outcome, err := c.core.ImportGeneric(context.Background(), userID, batch, ent)
	if err != nil {
		return "", err
	}
	return marshalJSON(outcome)
}

// CreateAlertJSON creates a target-price alert from JSON and returns it
// as JSON.
func (c *Core) CreateAlertJSON(userID, payloadJSON string) (string, error) {
	var payload alertPayload
	if err := json.Unmarshal([]byte(payloadJSON), &payload); err != nil {
		return "", err
	}
	alert, err := c.core.CreateAlert(context.Background(), userID, stockfolio.CreateAlertRequest{
		Symbol:      payload.Symbol,
		TargetPrice: payload.TargetPrice,
		Condition:   payload.Condition,
	})
	if err != nil {
		return "", err
	}
	return marshalJSON(alert)
}

// AlertsJSON returns active alerts as JSON.
func (c *Core) AlertsJSON(userID string) (string, error) {
	alerts, err := c.core.ListAlerts(context.Background(), userID)
	if err != nil {
		return "", err
	}
	return marshalJSON(alerts)
}

// LatestInsightJSON returns the most recent stored analysis as JSON, or
// the JSON null when none exists.
func (c *Core) LatestInsightJSON(userID string) (string, error) {
	result, err := c.core.GetLatestInsight(context.Background(), userID)
	if err != nil {
		return "", err
	}
	return marshalJSON(result)
}

func marshalJSON(value any) (string, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// parseEntitlements decodes the host app's plan JSON. An empty string
// enables every feature with no quota.
func parseEntitlements(entitlementsJSON string) (stockfolio.Entitlements, error) {
	if entitlementsJSON == "" {
		return stockfolio.FullEntitlements(), nil
	}
	var payload entitlementsPayload
	if err := json.Unmarshal([]byte(entitlementsJSON), &payload); err != nil {
		return stockfolio.Entitlements{}, err
	}
	return stockfolio.Entitlements{
		MaxStocks:             payload.MaxStocks,
		AllowCustomCategories: payload.AllowCustomCategories,
		AllowDividendTracking: payload.AllowDividendTracking,
		AllowBenchmarking:     payload.AllowBenchmarking,
		AllowCSVImport:        payload.AllowCSVImport,
		AllowGenericImport:    payload.AllowGenericImport,
	}, nil
}

type holdingPayload struct {
	Symbol         string  `json:"symbol"`
	Shares         int64   `json:"shares"`
	CostBasis      float64 `json:"cost_basis"`
	Sector         string  `json:"sector"`
	CustomCategory *string `json:"custom_category"`
	AcquiredAt     string  `json:"acquired_at"`
}

type alertPayload struct {
	Symbol      string  `json:"symbol"`
	TargetPrice float64 `json:"target_price"`
	Condition   string  `json:"condition"`
}

type entitlementsPayload struct {
	MaxStocks             *int64 `json:"max_stocks"`
	AllowCustomCategories bool   `json:"allow_custom_categories"`
	AllowDividendTracking bool   `json:"allow_dividend_tracking"`
	AllowBenchmarking     bool   `json:"allow_benchmarking"`
	AllowCSVImport        bool   `json:"allow_csv_import"`
	AllowGenericImport    bool   `json:"allow_generic_import"`
}
