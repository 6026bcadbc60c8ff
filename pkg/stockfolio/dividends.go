package stockfolio

import (
	"context"
	"database/sql"
	"strings"
)

// AddDividend records a payout against one of the user's holdings.
func (c *Core) AddDividend(ctx context.Context, userID string, holdingID int64, amount float64, payDate string, ent Entitlements) (*Dividend, error) {
	if err := c.requireDividendTracking(userID, ent); err != nil {
		return nil, err
	}
	if err := c.requireHolding(ctx, userID, holdingID); err != nil {
		return nil, err
	}
	if amount <= 0 {
		return nil, NewError(ErrCodeInvalidInput, "amount must be a positive number")
	}
	if !validDateOnly(payDate) {
		return nil, NewError(ErrCodeInvalidInput, "invalid pay date; use YYYY-MM-DD")
	}

	result, err := c.ExecContext(ctx, `
		INSERT INTO dividends (holding_id, user_id, amount, pay_date)
		VALUES (?, ?, ?, ?)
	`, holdingID, userID, NewAmount(amount), payDate)
	if err != nil {
		return nil, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, WrapError(ErrCodeDatabase, "failed to read new dividend id", err)
	}
	return c.getDividend(ctx, userID, id)
}

// ListDividends returns a holding's payouts ordered by pay date descending.
func (c *Core) ListDividends(ctx context.Context, userID string, holdingID int64, ent Entitlements) ([]Dividend, error) {
	if err := c.requireDividendTracking(userID, ent); err != nil {
		return nil, err
	}
	if err := c.requireHolding(ctx, userID, holdingID); err != nil {
		return nil, err
	}

	rows, err := c.QueryContext(ctx, `
		SELECT id, holding_id, user_id, amount, pay_date, created_at
		FROM dividends
		WHERE holding_id = ? AND user_id = ?
		ORDER BY pay_date DESC, id DESC
	`, holdingID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dividends []Dividend
	for rows.Next() {
		d, err := scanDividend(rows)
		if err != nil {
			return nil, WrapError(ErrCodeDatabase, "failed to scan dividend", err)
		}
		dividends = append(dividends, *d)
	}
	return dividends, rows.Err()
}

// UpdateDividend changes a payout's amount and/or pay date.
func (c *Core) UpdateDividend(ctx context.Context, userID string, dividendID int64, amount *float64, payDate *string, ent Entitlements) (*Dividend, error) {
	if err := c.requireDividendTracking(userID, ent); err != nil {
		return nil, err
	}
	existing, err := c.getDividend(ctx, userID, dividendID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, NewError(ErrCodeNotFound, "dividend payment not found")
	}

	sets := []string{}
	params := []any{}
	if amount != nil {
		if *amount <= 0 {
			return nil, NewError(ErrCodeInvalidInput, "amount must be a positive number")
		}
		sets = append(sets, "amount = ?")
		params = append(params, NewAmount(*amount))
	}
	if payDate != nil {
		if !validDateOnly(*payDate) {
			return nil, NewError(ErrCodeInvalidInput, "invalid pay date; use YYYY-MM-DD")
		}
		sets = append(sets, "pay_date = ?")
		params = append(params, *payDate)
	}
	if len(sets) == 0 {
		return nil, NewError(ErrCodeInvalidInput, "no fields to update")
	}

	params = append(params, dividendID, userID)
	query := "UPDATE dividends SET " + strings.Join(sets, ", ") + " WHERE id = ? AND user_id = ?"
	if _, err := c.ExecContext(ctx, query, params...); err != nil {
		return nil, err
	}
	return c.getDividend(ctx, userID, dividendID)
}

// DeleteDividend removes a payout record.
func (c *Core) DeleteDividend(ctx context.Context, userID string, dividendID int64, ent Entitlements) error {
	if err := c.requireDividendTracking(userID, ent); err != nil {
		return err
	}
	result, err := c.ExecContext(ctx, "DELETE FROM dividends WHERE id = ? AND user_id = ?", dividendID, userID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return WrapError(ErrCodeDatabase, "failed to read affected rows", err)
	}
	if affected == 0 {
		return NewError(ErrCodeNotFound, "dividend payment not found")
	}
	return nil
}

func (c *Core) requireDividendTracking(userID string, ent Entitlements) error {
	if userID == "" {
		return NewError(ErrCodeInvalidInput, "user id is required")
	}
	if !ent.AllowDividendTracking {
		return NewError(ErrCodePlanForbidden, "plan does not allow dividend tracking")
	}
	return nil
}

func (c *Core) requireHolding(ctx context.Context, userID string, holdingID int64) error {
	h, err := c.getHoldingByID(ctx, userID, holdingID)
	if err != nil {
		return err
	}
	if h == nil {
		return NewError(ErrCodeNotFound, "holding not found")
	}
	return nil
}

func (c *Core) getDividend(ctx context.Context, userID string, id int64) (*Dividend, error) {
	row := c.QueryRowContext(ctx, `
		SELECT id, holding_id, user_id, amount, pay_date, created_at
		FROM dividends
		WHERE id = ? AND user_id = ?
	`, id, userID)
	d, err := scanDividend(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, WrapError(ErrCodeDatabase, "failed to scan dividend", err)
	}
	return d, nil
}

// dividendTotals sums recorded payouts per holding for the portfolio view.
func (c *Core) dividendTotals(ctx context.Context, userID string) (map[int64]Amount, error) {
	rows, err := c.QueryContext(ctx, `
		SELECT holding_id, COALESCE(SUM(amount), 0)
		FROM dividends
		WHERE user_id = ?
		GROUP BY holding_id
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	totals := map[int64]Amount{}
	for rows.Next() {
		var holdingID int64
		var total Amount
		if err := rows.Scan(&holdingID, &total); err != nil {
			return nil, WrapError(ErrCodeDatabase, "failed to scan dividend total", err)
		}
		totals[holdingID] = total
	}
	return totals, rows.Err()
}

func scanDividend(row rowScanner) (*Dividend, error) {
	var d Dividend
	var createdAt sql.NullString
	if err := row.Scan(&d.ID, &d.HoldingID, &d.UserID, &d.Amount, &d.PayDate, &createdAt); err != nil {
		return nil, err
	}
	if createdAt.Valid {
		d.CreatedAt = &createdAt.String
	}
	return &d, nil
}
