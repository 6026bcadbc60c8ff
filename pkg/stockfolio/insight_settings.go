package stockfolio

import (
	"context"
	"database/sql"
	"strings"
)

const (
	defaultInsightProvider    = "openai"
	defaultInsightRiskProfile = "balanced"
	defaultInsightHorizon     = "medium"
)

var validInsightRiskProfiles = map[string]struct{}{
	"conservative": {},
	"balanced":     {},
	"aggressive":   {},
}

var validInsightHorizons = map[string]struct{}{
	"short":  {},
	"medium": {},
	"long":   {},
}

func defaultInsightSettings() InsightSettings {
	return InsightSettings{
		Provider:    defaultInsightProvider,
		BaseURL:     "",
		Model:       "",
		RiskProfile: defaultInsightRiskProfile,
		Horizon:     defaultInsightHorizon,
	}
}

func trimTrailingSlash(value string) string {
	trimmed := strings.TrimSpace(value)
	return strings.TrimRight(trimmed, "/")
}

func normalizeInsightSettings(settings InsightSettings) InsightSettings {
	normalized := settings
	normalized.Provider = strings.ToLower(strings.TrimSpace(normalized.Provider))
	normalized.BaseURL = trimTrailingSlash(normalized.BaseURL)
	normalized.Model = strings.TrimSpace(normalized.Model)
	normalized.RiskProfile = strings.ToLower(strings.TrimSpace(normalized.RiskProfile))
	normalized.Horizon = strings.ToLower(strings.TrimSpace(normalized.Horizon))

	if !isValidInsightProvider(normalized.Provider) {
		normalized.Provider = defaultInsightProvider
	}
	if _, ok := validInsightRiskProfiles[normalized.RiskProfile]; !ok {
		normalized.RiskProfile = defaultInsightRiskProfile
	}
	if _, ok := validInsightHorizons[normalized.Horizon]; !ok {
		normalized.Horizon = defaultInsightHorizon
	}
	return normalized
}

// GetInsightSettings returns the persisted insight settings. The API key is
// never stored and always arrives with the generation request.
func (c *Core) GetInsightSettings(ctx context.Context) (InsightSettings, error) {
	settings := defaultInsightSettings()
	var baseURL, model, updatedAt sql.NullString

	err := c.QueryRowContext(ctx, `
		SELECT provider, base_url, model, risk_profile, horizon, updated_at
		FROM insight_settings
		WHERE id = 1
	`).Scan(&settings.Provider, &baseURL, &model, &settings.RiskProfile, &settings.Horizon, &updatedAt)
	if err == sql.ErrNoRows {
		return settings, nil
	}
	if err != nil {
		return InsightSettings{}, WrapError(ErrCodeDatabase, "failed to read insight settings", err)
	}
	if baseURL.Valid {
		settings.BaseURL = baseURL.String
	}
	if model.Valid {
		settings.Model = model.String
	}
	normalized := normalizeInsightSettings(settings)
	if updatedAt.Valid {
		normalized.UpdatedAt = &updatedAt.String
	}
	return normalized, nil
}

// SetInsightSettings persists insight settings, normalizing enum fields to
// their defaults when they carry unknown values.
func (c *Core) SetInsightSettings(ctx context.Context, settings InsightSettings) (InsightSettings, error) {
	normalized := normalizeInsightSettings(settings)

	_, err := c.ExecContext(ctx, `
		INSERT INTO insight_settings (id, provider, base_url, model, risk_profile, horizon, updated_at)
		VALUES (1, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			provider = excluded.provider,
			base_url = excluded.base_url,
			model = excluded.model,
			risk_profile = excluded.risk_profile,
			horizon = excluded.horizon,
			updated_at = CURRENT_TIMESTAMP
	`, normalized.Provider, normalized.BaseURL, normalized.Model, normalized.RiskProfile, normalized.Horizon)
	if err != nil {
		return InsightSettings{}, err
	}
	return normalized, nil
}
