package stockfolio

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

const maxCategoryLength = 100

// AddHolding creates a position for the user after validating shape,
// entitlements and quota. The sector falls back to the live quote's sector
// when none is given; provider failures degrade to "Uncategorized".
func (c *Core) AddHolding(ctx context.Context, userID string, req AddHoldingRequest, ent Entitlements) (*Holding, error) {
	if userID == "" {
		return nil, NewError(ErrCodeInvalidInput, "user id is required")
	}
	symbol := normalizeSymbol(req.Symbol)
	if !validSymbol(symbol) {
		return nil, NewError(ErrCodeInvalidInput, "symbol must be between 1 and 20 characters")
	}
	if req.Shares <= 0 {
		return nil, NewError(ErrCodeInvalidInput, "shares must be a positive integer")
	}
	if req.CostBasis <= 0 {
		return nil, NewError(ErrCodeInvalidInput, "cost basis must be a positive number")
	}
	if len(strings.TrimSpace(req.Sector)) > maxCategoryLength {
		return nil, NewError(ErrCodeInvalidInput, "sector must be at most 100 characters")
	}
	customCategory, err := c.resolveCustomCategory(req.CustomCategory, ent)
	if err != nil {
		return nil, err
	}

	acquiredAt := time.Now().UTC()
	if req.AcquiredAt != "" {
		acquiredAt, err = parseTimestamp(req.AcquiredAt)
		if err != nil {
			return nil, NewError(ErrCodeInvalidInput, "invalid acquisition date; use RFC3339, YYYY-MM-DD HH:MM:SS, or YYYY-MM-DD")
		}
	}

	sector := strings.TrimSpace(req.Sector)
	if sector == "" {
		sector = c.fetchSector(ctx, symbol)
	}
	sector = resolveSector(sector)

	var id int64
	err = c.WithTx(ctx, func(tx *sql.Tx) error {
		if ent.MaxStocks != nil {
			count, err := countHoldingsTx(tx, userID)
			if err != nil {
				return WrapError(ErrCodeDatabase, "failed to count holdings", err)
			}
			if count >= *ent.MaxStocks {
				return NewError(ErrCodeQuotaExceeded, fmt.Sprintf("plan allows at most %d holdings", *ent.MaxStocks))
			}
		}
		var exists int
		err := tx.QueryRow("SELECT 1 FROM holdings WHERE user_id = ? AND symbol = ?", userID, symbol).Scan(&exists)
		if err == nil {
			return NewError(ErrCodeDuplicate, fmt.Sprintf("holding for %s already exists", symbol))
		}
		if err != sql.ErrNoRows {
			return WrapError(ErrCodeDatabase, "failed to check for duplicate holding", err)
		}
		result, err := tx.Exec(`
			INSERT INTO holdings (user_id, symbol, shares, cost_basis, acquired_at, sector, custom_category)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, userID, symbol, req.Shares, NewAmount(req.CostBasis), formatTimestamp(acquiredAt), sector, nullString(customCategory))
		if err != nil {
			return WrapError(ErrCodeDatabase, "failed to insert holding", err)
		}
		id, err = result.LastInsertId()
		if err != nil {
			return WrapError(ErrCodeDatabase, "failed to read new holding id", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.getHoldingByID(ctx, userID, id)
}

// UpdateHolding applies a partial update to one of the user's holdings.
func (c *Core) UpdateHolding(ctx context.Context, userID string, id int64, req UpdateHoldingRequest, ent Entitlements) (*Holding, error) {
	if userID == "" {
		return nil, NewError(ErrCodeInvalidInput, "user id is required")
	}
	existing, err := c.getHoldingByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, NewError(ErrCodeNotFound, "holding not found")
	}

	sets := []string{}
	params := []any{}

	if req.Shares != nil {
		if *req.Shares <= 0 {
			return nil, NewError(ErrCodeInvalidInput, "shares must be a positive integer")
		}
		sets = append(sets, "shares = ?")
		params = append(params, *req.Shares)
	}
	if req.CostBasis != nil {
		if *req.CostBasis <= 0 {
			return nil, NewError(ErrCodeInvalidInput, "cost basis must be a positive number")
		}
		sets = append(sets, "cost_basis = ?")
		params = append(params, NewAmount(*req.CostBasis))
	}
	if req.Sector != nil {
		trimmed := strings.TrimSpace(*req.Sector)
		if len(trimmed) > maxCategoryLength {
			return nil, NewError(ErrCodeInvalidInput, "sector must be at most 100 characters")
		}
		sets = append(sets, "sector = ?")
		params = append(params, resolveSector(trimmed))
	}
	if req.CustomCategory != nil {
		customCategory, err := c.resolveCustomCategory(req.CustomCategory, ent)
		if err != nil {
			return nil, err
		}
		sets = append(sets, "custom_category = ?")
		params = append(params, nullString(customCategory))
	}
	if req.AcquiredAt != nil && *req.AcquiredAt != "" {
		acquiredAt, err := parseTimestamp(*req.AcquiredAt)
		if err != nil {
			return nil, NewError(ErrCodeInvalidInput, "invalid acquisition date; use RFC3339, YYYY-MM-DD HH:MM:SS, or YYYY-MM-DD")
		}
		sets = append(sets, "acquired_at = ?")
		params = append(params, formatTimestamp(acquiredAt))
	}

	if len(sets) == 0 {
		return nil, NewError(ErrCodeInvalidInput, "no fields to update")
	}

	sets = append(sets, "updated_at = ?")
	params = append(params, formatTimestamp(time.Now()))
	params = append(params, id, userID)

	query := "UPDATE holdings SET " + strings.Join(sets, ", ") + " WHERE id = ? AND user_id = ?"
	if _, err := c.ExecContext(ctx, query, params...); err != nil {
		return nil, err
	}
	return c.getHoldingByID(ctx, userID, id)
}

// DeleteHolding removes one of the user's holdings. Recorded dividends
// cascade with it.
func (c *Core) DeleteHolding(ctx context.Context, userID string, id int64) error {
	if userID == "" {
		return NewError(ErrCodeInvalidInput, "user id is required")
	}
	result, err := c.ExecContext(ctx, "DELETE FROM holdings WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return WrapError(ErrCodeDatabase, "failed to read affected rows", err)
	}
	if affected == 0 {
		return NewError(ErrCodeNotFound, "holding not found")
	}
	return nil
}

// GetHoldings returns the user's holdings ordered by symbol.
func (c *Core) GetHoldings(ctx context.Context, userID string) ([]Holding, error) {
	if userID == "" {
		return nil, NewError(ErrCodeInvalidInput, "user id is required")
	}
	rows, err := c.QueryContext(ctx, `
		SELECT id, user_id, symbol, shares, cost_basis, acquired_at, sector, custom_category, created_at, updated_at
		FROM holdings
		WHERE user_id = ?
		ORDER BY symbol
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var holdings []Holding
	for rows.Next() {
		h, err := scanHolding(rows)
		if err != nil {
			return nil, WrapError(ErrCodeDatabase, "failed to scan holding", err)
		}
		holdings = append(holdings, *h)
	}
	return holdings, rows.Err()
}

// GetHolding fetches the user's holding for a symbol, or nil when absent.
func (c *Core) GetHolding(ctx context.Context, userID, symbol string) (*Holding, error) {
	if userID == "" {
		return nil, NewError(ErrCodeInvalidInput, "user id is required")
	}
	row := c.QueryRowContext(ctx, `
		SELECT id, user_id, symbol, shares, cost_basis, acquired_at, sector, custom_category, created_at, updated_at
		FROM holdings
		WHERE user_id = ? AND symbol = ?
	`, userID, normalizeSymbol(symbol))
	h, err := scanHolding(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, WrapError(ErrCodeDatabase, "failed to scan holding", err)
	}
	return h, nil
}

func (c *Core) getHoldingByID(ctx context.Context, userID string, id int64) (*Holding, error) {
	row := c.QueryRowContext(ctx, `
		SELECT id, user_id, symbol, shares, cost_basis, acquired_at, sector, custom_category, created_at, updated_at
		FROM holdings
		WHERE id = ? AND user_id = ?
	`, id, userID)
	h, err := scanHolding(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, WrapError(ErrCodeDatabase, "failed to scan holding", err)
	}
	return h, nil
}

// resolveCustomCategory gates and normalizes a requested custom category.
// A non-nil request requires the entitlement even when it clears the value.
func (c *Core) resolveCustomCategory(value *string, ent Entitlements) (*string, error) {
	if value == nil {
		return nil, nil
	}
	if !ent.AllowCustomCategories {
		return nil, NewError(ErrCodePlanForbidden, "plan does not allow custom categories")
	}
	trimmed := strings.TrimSpace(*value)
	if len(trimmed) > maxCategoryLength {
		return nil, NewError(ErrCodeInvalidInput, "custom category must be at most 100 characters")
	}
	return stringPtr(trimmed), nil
}

// fetchSector asks the market service for a symbol's sector. Failures
// degrade to an empty string; they never abort the calling write.
func (c *Core) fetchSector(ctx context.Context, symbol string) string {
	quote, err := c.market.Quote(ctx, symbol)
	if err != nil {
		c.logger.Debug("sector lookup failed", "symbol", symbol, "err", err)
		return ""
	}
	return quote.Sector
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanHolding(row rowScanner) (*Holding, error) {
	var h Holding
	var acquiredAt string
	var customCategory, createdAt, updatedAt sql.NullString
	if err := row.Scan(
		&h.ID, &h.UserID, &h.Symbol, &h.Shares, &h.CostBasis,
		&acquiredAt, &h.Sector, &customCategory, &createdAt, &updatedAt,
	); err != nil {
		return nil, err
	}
	h.AcquiredAt = acquiredAt
	if customCategory.Valid {
		h.CustomCategory = &customCategory.String
	}
	if createdAt.Valid {
		h.CreatedAt = &createdAt.String
	}
	if updatedAt.Valid {
		h.UpdatedAt = &updatedAt.String
	}
	return &h, nil
}

func countHoldingsTx(tx *sql.Tx, userID string) (int64, error) {
	var count int64
	if err := tx.QueryRow("SELECT COUNT(*) FROM holdings WHERE user_id = ?", userID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
