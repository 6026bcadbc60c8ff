package stockfolio

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"stockfolio/pkg/marketdata"
)

// CreateAlert creates a price alert after validating its shape and, when
// the market data provider gives authoritative answers, confirming the
// symbol trades. The mock provider accepts any symbol, so validation is
// skipped for it.
func (c *Core) CreateAlert(ctx context.Context, userID string, req CreateAlertRequest) (*Alert, error) {
	if userID == "" {
		return nil, NewError(ErrCodeInvalidInput, "user id is required")
	}
	symbol := normalizeSymbol(req.Symbol)
	if !validSymbol(symbol) {
		return nil, NewError(ErrCodeInvalidInput, "symbol must be between 1 and 20 characters")
	}
	if req.TargetPrice <= 0 {
		return nil, NewError(ErrCodeInvalidInput, "target price must be a positive number")
	}
	condition := strings.ToLower(strings.TrimSpace(req.Condition))
	if condition == "" {
		condition = "above"
	}
	if !isValidAlertCondition(condition) {
		return nil, NewError(ErrCodeInvalidInput, "condition must be either 'above' or 'below'")
	}

	if marketdata.ValidatesSymbols(c.market) {
		quote, err := c.market.Quote(ctx, symbol)
		if err != nil {
			return nil, WrapError(ErrCodeProviderUnavailable, fmt.Sprintf("could not validate symbol %s", symbol), err)
		}
		if quote.Price == nil {
			return nil, NewError(ErrCodeInvalidInput, fmt.Sprintf("symbol %s could not be validated or found", symbol))
		}
	}

	result, err := c.ExecContext(ctx, `
		INSERT INTO alerts (user_id, symbol, target_price, condition, status)
		VALUES (?, ?, ?, ?, 'active')
	`, userID, symbol, NewAmount(req.TargetPrice), condition)
	if err != nil {
		return nil, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, WrapError(ErrCodeDatabase, "failed to get alert id", err)
	}
	return c.getAlert(ctx, userID, id)
}

// ListAlerts returns the user's active alerts, newest first.
func (c *Core) ListAlerts(ctx context.Context, userID string) ([]Alert, error) {
	if userID == "" {
		return nil, NewError(ErrCodeInvalidInput, "user id is required")
	}
	rows, err := c.QueryContext(ctx,
		"SELECT id, user_id, symbol, target_price, condition, status, created_at FROM alerts WHERE user_id = ? AND status = 'active' ORDER BY created_at DESC, id DESC",
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []Alert
	for rows.Next() {
		alert, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, *alert)
	}
	return alerts, rows.Err()
}

// UpdateAlertStatus moves an alert to any of the known statuses.
func (c *Core) UpdateAlertStatus(ctx context.Context, userID string, alertID int64, status string) (*Alert, error) {
	if userID == "" {
		return nil, NewError(ErrCodeInvalidInput, "user id is required")
	}
	status = strings.ToLower(strings.TrimSpace(status))
	if !isValidAlertStatus(status) {
		return nil, NewError(ErrCodeInvalidInput, "status must be 'active', 'triggered' or 'cancelled'")
	}
	result, err := c.ExecContext(ctx, "UPDATE alerts SET status = ? WHERE id = ? AND user_id = ?", status, alertID, userID)
	if err != nil {
		return nil, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, WrapError(ErrCodeDatabase, "failed to get affected rows", err)
	}
	if affected == 0 {
		return nil, NewError(ErrCodeNotFound, "alert not found")
	}
	return c.getAlert(ctx, userID, alertID)
}

// DeleteAlert removes an alert owned by the user.
func (c *Core) DeleteAlert(ctx context.Context, userID string, alertID int64) error {
	if userID == "" {
		return NewError(ErrCodeInvalidInput, "user id is required")
	}
	result, err := c.ExecContext(ctx, "DELETE FROM alerts WHERE id = ? AND user_id = ?", alertID, userID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return WrapError(ErrCodeDatabase, "failed to get affected rows", err)
	}
	if affected == 0 {
		return NewError(ErrCodeNotFound, "alert not found")
	}
	return nil
}

func (c *Core) getAlert(ctx context.Context, userID string, id int64) (*Alert, error) {
	row := c.QueryRowContext(ctx,
		"SELECT id, user_id, symbol, target_price, condition, status, created_at FROM alerts WHERE id = ? AND user_id = ?",
		id, userID,
	)
	alert, err := scanAlert(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return alert, err
}

func scanAlert(row rowScanner) (*Alert, error) {
	var alert Alert
	var createdAt sql.NullString
	err := row.Scan(&alert.ID, &alert.UserID, &alert.Symbol, &alert.TargetPrice, &alert.Condition, &alert.Status, &createdAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, WrapError(ErrCodeDatabase, "failed to scan alert", err)
	}
	if createdAt.Valid {
		alert.CreatedAt = &createdAt.String
	}
	return &alert, nil
}
