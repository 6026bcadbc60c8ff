package stockfolio

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"stockfolio/pkg/marketdata"
)

const (
	insightTemperature     = 0.2
	insightMaxOutputTokens = 4096
	insightNewsLimit       = 10
	insightRequestTimeout  = 2 * time.Minute
)

const insightSystemPrompt = `You are a portfolio analysis assistant for a personal stock tracking app.
You receive a JSON snapshot of the user's holdings, sector allocation and recent headlines.
Respond with a single JSON object and nothing else. No markdown, no code fences.
The object must contain exactly these fields:
- overall_summary: string
- risk_level: string (low, moderate or high)
- key_findings: array of strings
- recommendations: array of {symbol, action, rationale} objects, action one of buy/sell/hold/diversify
- disclaimer: string
Recommendations must stay grounded in the provided snapshot. Never promise returns; always surface concentration and volatility risks.`

type insightHoldingItem struct {
	Symbol      string   `json:"symbol"`
	Shares      int64    `json:"shares"`
	CostBasis   float64  `json:"cost_basis"`
	Sector      string   `json:"sector"`
	MarketValue *float64 `json:"market_value,omitempty"`
}

type insightAllocationItem struct {
	Sector     string  `json:"sector"`
	Value      float64 `json:"value"`
	Percentage float64 `json:"percentage"`
}

type insightPromptInput struct {
	RiskProfile string                  `json:"risk_profile"`
	Horizon     string                  `json:"horizon"`
	Holdings    []insightHoldingItem    `json:"holdings"`
	Allocation  []insightAllocationItem `json:"allocation"`
	Headlines   []string                `json:"headlines,omitempty"`
}

type insightModelResponse struct {
	OverallSummary  string                  `json:"overall_summary"`
	RiskLevel       string                  `json:"risk_level"`
	KeyFindings     []string                `json:"key_findings"`
	Recommendations []InsightRecommendation `json:"recommendations"`
	Disclaimer      string                  `json:"disclaimer"`
}

// GenerateInsight builds a portfolio snapshot, sends it to the configured
// model provider and persists the parsed analysis. The API key travels with
// the request and is never stored.
func (c *Core) GenerateInsight(ctx context.Context, userID string, req InsightRequest) (*InsightResult, error) {
	if userID == "" {
		return nil, NewError(ErrCodeInvalidInput, "user id is required")
	}
	apiKey := strings.TrimSpace(req.APIKey)
	if apiKey == "" {
		return nil, NewError(ErrCodeInvalidInput, "api key is required")
	}

	settings, err := c.GetInsightSettings(ctx)
	if err != nil {
		return nil, err
	}
	if settings.Model == "" {
		return nil, NewError(ErrCodeInvalidInput, "model is not configured; set insight settings first")
	}
	riskProfile, err := normalizeEnum(req.RiskProfile, settings.RiskProfile, validInsightRiskProfiles)
	if err != nil {
		return nil, NewError(ErrCodeInvalidInput, fmt.Sprintf("invalid risk profile: %s", req.RiskProfile))
	}
	horizon, err := normalizeEnum(req.Horizon, settings.Horizon, validInsightHorizons)
	if err != nil {
		return nil, NewError(ErrCodeInvalidInput, fmt.Sprintf("invalid horizon: %s", req.Horizon))
	}

	input, err := c.buildInsightPromptInput(ctx, userID, riskProfile, horizon)
	if err != nil {
		return nil, err
	}
	userPrompt, err := buildInsightUserPrompt(input)
	if err != nil {
		return nil, WrapError(ErrCodeInternal, "failed to build insight prompt", err)
	}

	requestCtx, cancel := context.WithTimeout(ctx, insightRequestTimeout)
	defer cancel()

	c.logger.Info("generating insight", "provider", settings.Provider, "model", settings.Model, "holdings", len(input.Holdings))
	var modelUsed, content string
	switch settings.Provider {
	case "openai":
		modelUsed, content, err = openaiInsightCompletion(requestCtx, settings.BaseURL, apiKey, settings.Model, insightSystemPrompt, userPrompt)
	case "anthropic":
		modelUsed, content, err = anthropicInsightCompletion(requestCtx, settings.BaseURL, apiKey, settings.Model, insightSystemPrompt, userPrompt)
	case "gemini":
		modelUsed, content, err = geminiInsightCompletion(requestCtx, settings.BaseURL, apiKey, settings.Model, insightSystemPrompt, userPrompt)
	default:
		return nil, NewError(ErrCodeInvalidInput, fmt.Sprintf("unsupported insight provider %q", settings.Provider))
	}
	if err != nil {
		return nil, WrapError(ErrCodeInternal, "insight generation failed", err)
	}

	parsed, err := parseInsightResponse(content)
	if err != nil {
		return nil, WrapError(ErrCodeInternal, "model returned invalid JSON", err)
	}

	if modelUsed == "" {
		modelUsed = settings.Model
	}
	riskLevel := strings.TrimSpace(parsed.RiskLevel)
	if riskLevel == "" {
		riskLevel = "unknown"
	}
	summary := strings.TrimSpace(parsed.OverallSummary)
	if summary == "" {
		summary = "The model did not return a summary; retry or switch models."
	}
	disclaimer := strings.TrimSpace(parsed.Disclaimer)
	if disclaimer == "" {
		disclaimer = "This analysis is informational only and is not investment advice."
	}

	now := formatTimestamp(time.Now())
	result := &InsightResult{
		UserID:          userID,
		Provider:        settings.Provider,
		Model:           modelUsed,
		OverallSummary:  summary,
		RiskLevel:       riskLevel,
		KeyFindings:     normalizeInsightFindings(parsed.KeyFindings),
		Recommendations: normalizeInsightRecommendations(parsed.Recommendations),
		Disclaimer:      disclaimer,
		CreatedAt:       &now,
	}
	if id, err := c.saveInsight(ctx, result); err != nil {
		c.logger.Warn("failed to save insight", "error", err)
	} else {
		result.ID = id
	}
	return result, nil
}

// GetLatestInsight returns the most recent stored analysis, or nil when the
// user has none.
func (c *Core) GetLatestInsight(ctx context.Context, userID string) (*InsightResult, error) {
	results, err := c.InsightHistory(ctx, userID, 1)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return &results[0], nil
}

// InsightHistory returns up to limit stored analyses, newest first.
func (c *Core) InsightHistory(ctx context.Context, userID string, limit int) ([]InsightResult, error) {
	if userID == "" {
		return nil, NewError(ErrCodeInvalidInput, "user id is required")
	}
	if limit <= 0 {
		limit = 10
	}
	rows, err := c.QueryContext(ctx, `
		SELECT id, user_id, provider, model, overall_summary, risk_level, payload, created_at
		FROM insights
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []InsightResult
	for rows.Next() {
		var result InsightResult
		var model, summary, riskLevel, createdAt sql.NullString
		var payload string
		if err := rows.Scan(&result.ID, &result.UserID, &result.Provider, &model, &summary, &riskLevel, &payload, &createdAt); err != nil {
			return nil, WrapError(ErrCodeDatabase, "failed to scan insight", err)
		}
		result.Model = model.String
		result.OverallSummary = summary.String
		result.RiskLevel = riskLevel.String
		if createdAt.Valid {
			result.CreatedAt = &createdAt.String
		}

		var stored insightModelResponse
		if err := json.Unmarshal([]byte(payload), &stored); err == nil {
			result.KeyFindings = stored.KeyFindings
			result.Recommendations = stored.Recommendations
			result.Disclaimer = stored.Disclaimer
		}
		if result.KeyFindings == nil {
			result.KeyFindings = []string{}
		}
		if result.Recommendations == nil {
			result.Recommendations = []InsightRecommendation{}
		}
		results = append(results, result)
	}
	return results, rows.Err()
}

func (c *Core) saveInsight(ctx context.Context, result *InsightResult) (int64, error) {
	payload, err := json.Marshal(insightModelResponse{
		OverallSummary:  result.OverallSummary,
		RiskLevel:       result.RiskLevel,
		KeyFindings:     result.KeyFindings,
		Recommendations: result.Recommendations,
		Disclaimer:      result.Disclaimer,
	})
	if err != nil {
		return 0, err
	}
	res, err := c.ExecContext(ctx, `
		INSERT INTO insights (user_id, provider, model, overall_summary, risk_level, payload)
		VALUES (?, ?, ?, ?, ?, ?)
	`, result.UserID, result.Provider, result.Model, result.OverallSummary, result.RiskLevel, string(payload))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// buildInsightPromptInput snapshots the portfolio for the model. Price and
// news lookups degrade quietly; only an empty portfolio stops generation.
func (c *Core) buildInsightPromptInput(ctx context.Context, userID, riskProfile, horizon string) (*insightPromptInput, error) {
	entries, err := c.PortfolioView(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, NewError(ErrCodeInvalidInput, "no holdings to analyze")
	}

	holdings := make([]insightHoldingItem, 0, len(entries))
	tickers := make([]string, 0, len(entries))
	for _, entry := range entries {
		item := insightHoldingItem{
			Symbol:    entry.Symbol,
			Shares:    entry.Shares,
			CostBasis: entry.CostBasis.InexactFloat64(),
			Sector:    entry.Sector,
		}
		if entry.MarketValue != nil {
			item.MarketValue = floatPtr(entry.MarketValue.InexactFloat64())
		}
		holdings = append(holdings, item)
		tickers = append(tickers, entry.Symbol)
	}

	allocation, err := c.Allocation(ctx, userID)
	if err != nil {
		return nil, err
	}
	buckets := make([]insightAllocationItem, 0, len(allocation.Buckets))
	for _, bucket := range allocation.Buckets {
		buckets = append(buckets, insightAllocationItem{
			Sector:     bucket.Sector,
			Value:      bucket.Value.InexactFloat64(),
			Percentage: bucket.Percentage,
		})
	}

	var headlines []string
	news, err := c.market.News(ctx, marketdata.NewsQuery{Tickers: tickers, Limit: insightNewsLimit})
	if err != nil {
		c.logger.Warn("news fetch for insight failed", "error", err)
	} else {
		for _, item := range news {
			if title := strings.TrimSpace(item.Title); title != "" {
				headlines = append(headlines, title)
			}
		}
	}

	return &insightPromptInput{
		RiskProfile: riskProfile,
		Horizon:     horizon,
		Holdings:    holdings,
		Allocation:  buckets,
		Headlines:   headlines,
	}, nil
}

func buildInsightUserPrompt(input *insightPromptInput) (string, error) {
	payload, err := json.Marshal(input)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	sb.WriteString("Analyze this portfolio snapshot and respond with the required JSON object:\n")
	sb.Write(payload)
	sb.WriteString("\n\nGuidance:\n")
	sb.WriteString("1) Weigh sector concentration against the stated risk profile and horizon.\n")
	sb.WriteString("2) Use the headlines only as context; do not invent news.\n")
	sb.WriteString("3) Every recommendation needs a rationale tied to the snapshot.")
	return sb.String(), nil
}

func parseInsightResponse(content string) (*insightModelResponse, error) {
	cleaned := cleanupModelJSON(content)
	var parsed insightModelResponse
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return nil, err
	}
	return &parsed, nil
}

// cleanupModelJSON strips code fences and surrounding prose so the payload
// survives models that ignore the bare-JSON instruction.
func cleanupModelJSON(content string) string {
	trimmed := strings.TrimSpace(content)
	if strings.HasPrefix(trimmed, "```") {
		lines := strings.Split(trimmed, "\n")
		if len(lines) >= 2 {
			lines = lines[1:]
			if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "```" {
				lines = lines[:len(lines)-1]
			}
			trimmed = strings.Join(lines, "\n")
		}
	}
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start >= 0 && end > start {
		trimmed = trimmed[start : end+1]
	}
	return strings.TrimSpace(trimmed)
}

func normalizeEnum(raw, fallback string, allowed map[string]struct{}) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return fallback, nil
	}
	normalized := strings.ToLower(trimmed)
	if _, ok := allowed[normalized]; !ok {
		return "", fmt.Errorf("unsupported value: %s", raw)
	}
	return normalized, nil
}

func normalizeInsightFindings(findings []string) []string {
	result := make([]string, 0, len(findings))
	for _, item := range findings {
		trimmed := strings.TrimSpace(item)
		if trimmed == "" {
			continue
		}
		result = append(result, trimmed)
	}
	return result
}

func normalizeInsightRecommendations(items []InsightRecommendation) []InsightRecommendation {
	result := make([]InsightRecommendation, 0, len(items))
	for _, item := range items {
		action := strings.ToLower(strings.TrimSpace(item.Action))
		if action == "" {
			action = "hold"
		}
		rationale := strings.TrimSpace(item.Rationale)
		if rationale == "" {
			rationale = "The model did not provide a rationale."
		}
		result = append(result, InsightRecommendation{
			Symbol:    normalizeSymbol(item.Symbol),
			Action:    action,
			Rationale: rationale,
		})
	}
	return result
}
