package stockfolio

import (
	"database/sql"
	"math"
	"strings"
)

func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

func validSymbol(symbol string) bool {
	return len(symbol) >= 1 && len(symbol) <= 20
}

// resolveSector maps blank and provider-unknown sectors to the fallback label.
func resolveSector(sector string) string {
	sector = strings.TrimSpace(sector)
	if sector == "" || sector == "Unknown" {
		return SectorUncategorized
	}
	return sector
}

func isValidAlertCondition(condition string) bool {
	for _, c := range AlertConditions {
		if c == condition {
			return true
		}
	}
	return false
}

func isValidAlertStatus(status string) bool {
	for _, s := range AlertStatuses {
		if s == status {
			return true
		}
	}
	return false
}

func isValidPeriod(p Period) bool {
	for _, v := range Periods {
		if v == p {
			return true
		}
	}
	return false
}

func isValidInsightProvider(provider string) bool {
	for _, p := range InsightProviders {
		if p == provider {
			return true
		}
	}
	return false
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}

func stringPtr(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func floatPtr(value float64) *float64 {
	return &value
}

func int64Ptr(value int64) *int64 {
	return &value
}

func nullString(value *string) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	if strings.TrimSpace(*value) == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *value, Valid: true}
}
