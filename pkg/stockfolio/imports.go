package stockfolio

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Import sources recorded in the audit table.
const (
	importSourceGeneric = "generic"
	importSourceCSV     = "csv"
)

var errImportRolledBack = errors.New("import rolled back")

// importStep is one validated batch item, ready to apply.
type importStep struct {
	itemType   string // "holding" or "transaction"
	index      int
	op         string // "upsert", "buy" or "sell"
	symbol     string
	shares     int64
	cost       float64
	date       string // buy/sell transaction date, YYYY-MM-DD
	sector     *string
	category   *string
	acquiredAt *time.Time // acquisition override for rows that carry one
}

// ImportGeneric validates and applies a bulk import batch. Validation
// covers every item before anything is written; the apply phase runs in a
// single transaction and either commits everything or nothing. The
// returned outcome reports the terminal batch state; a rejected or rolled
// back batch is not an error.
func (c *Core) ImportGeneric(ctx context.Context, userID string, batch ImportBatch, ent Entitlements) (*ImportOutcome, error) {
	if userID == "" {
		return nil, NewError(ErrCodeInvalidInput, "user id is required")
	}
	if !ent.AllowGenericImport {
		return nil, NewError(ErrCodePlanForbidden, "plan does not allow generic import")
	}
	return c.runImport(ctx, userID, importSourceGeneric, batch, nil, ent)
}

// ImportCSVRows validates raw CSV rows, maps them to holding items and
// applies them through the same all-or-nothing machinery as ImportGeneric.
// Purchase dates accept several common formats and become the acquisition
// date of newly created holdings.
func (c *Core) ImportCSVRows(ctx context.Context, userID string, rows []CSVRow, ent Entitlements) (*ImportOutcome, error) {
	if userID == "" {
		return nil, NewError(ErrCodeInvalidInput, "user id is required")
	}
	if !ent.AllowCSVImport {
		return nil, NewError(ErrCodePlanForbidden, "plan does not allow CSV import")
	}

	var itemErrors []ItemError
	var items []HoldingItem
	var acquired []*time.Time
	for idx, row := range rows {
		fields := map[string]string{}
		symbol := normalizeSymbol(row.Symbol)
		if !validSymbol(symbol) {
			fields["symbol"] = "symbol is required (1-20 characters)"
		}
		var shares int64
		if strings.TrimSpace(row.Shares) == "" {
			fields["shares"] = "shares are required"
		} else if n, err := strconv.ParseInt(strings.TrimSpace(row.Shares), 10, 64); err != nil {
			fields["shares"] = "shares must be a valid integer"
		} else if n <= 0 {
			fields["shares"] = "shares must be a positive integer"
		} else {
			shares = n
		}
		var price float64
		if strings.TrimSpace(row.PurchasePrice) == "" {
			fields["purchase_price"] = "purchase price is required"
		} else if f, err := strconv.ParseFloat(strings.TrimSpace(row.PurchasePrice), 64); err != nil {
			fields["purchase_price"] = "purchase price must be a valid number"
		} else if f <= 0 {
			fields["purchase_price"] = "purchase price must be a positive number"
		} else {
			price = f
		}
		var purchaseDate *time.Time
		if strings.TrimSpace(row.PurchaseDate) == "" {
			fields["purchase_date"] = "purchase date is required"
		} else if t, err := parseCSVDate(row.PurchaseDate); err != nil {
			fields["purchase_date"] = fmt.Sprintf("invalid date %q; use YYYY-MM-DD or MM/DD/YYYY", row.PurchaseDate)
		} else {
			purchaseDate = &t
		}

		if len(fields) > 0 {
			itemErrors = append(itemErrors, ItemError{ItemType: "holding", Index: idx, Symbol: symbol, Fields: fields})
			continue
		}
		items = append(items, HoldingItem{Symbol: symbol, Shares: shares, AverageCost: price})
		acquired = append(acquired, purchaseDate)
	}
	if len(itemErrors) > 0 {
		outcome := &ImportOutcome{BatchID: uuid.New().String(), State: BatchRejected, ItemErrors: itemErrors}
		c.recordImportOutcome(ctx, userID, importSourceCSV, outcome)
		return outcome, nil
	}
	return c.runImport(ctx, userID, importSourceCSV, ImportBatch{Holdings: items}, acquired, ent)
}

// runImport is the shared validate-then-apply engine. acquired, when
// non-nil, carries per-holding acquisition overrides parallel to
// batch.Holdings.
func (c *Core) runImport(ctx context.Context, userID, source string, batch ImportBatch, acquired []*time.Time, ent Entitlements) (*ImportOutcome, error) {
	outcome := &ImportOutcome{BatchID: uuid.New().String(), State: BatchValidating}
	c.logger.Info("import batch started", "batch_id", outcome.BatchID, "source", source,
		"holdings", len(batch.Holdings), "transactions", len(batch.Transactions))

	dbSymbols, err := c.userSymbols(ctx, userID)
	if err != nil {
		return nil, err
	}

	steps, itemErrors := validateImportBatch(batch, acquired, ent, dbSymbols)
	if len(itemErrors) > 0 {
		outcome.State = BatchRejected
		outcome.ItemErrors = itemErrors
		c.recordImportOutcome(ctx, userID, source, outcome)
		return outcome, nil
	}

	outcome.State = BatchApplying
	var applyErrors []ItemError
	holdingsApplied, transactionsApplied := 0, 0
	err = c.WithTx(ctx, func(tx *sql.Tx) error {
		for _, step := range steps {
			if err := c.applyImportStep(ctx, tx, userID, step); err != nil {
				var overdraw *sellError
				if errors.As(err, &overdraw) {
					applyErrors = append(applyErrors, ItemError{
						ItemType: step.itemType, Index: step.index, Symbol: step.symbol, Reason: overdraw.reason,
					})
					continue
				}
				return err
			}
			if step.itemType == "holding" {
				holdingsApplied++
			} else {
				transactionsApplied++
			}
		}
		if len(applyErrors) > 0 {
			return errImportRolledBack
		}
		return nil
	})
	switch {
	case err == nil:
		outcome.State = BatchCommitted
		outcome.ProcessedHoldings = holdingsApplied
		outcome.ProcessedTransactions = transactionsApplied
	case errors.Is(err, errImportRolledBack):
		outcome.State = BatchRolledBack
		outcome.ItemErrors = applyErrors
	default:
		return nil, err
	}
	c.recordImportOutcome(ctx, userID, source, outcome)
	c.logger.Info("import batch finished", "batch_id", outcome.BatchID, "state", outcome.State,
		"holdings", outcome.ProcessedHoldings, "transactions", outcome.ProcessedTransactions, "errors", len(outcome.ItemErrors))
	return outcome, nil
}

// validateImportBatch checks every item and accumulates all failures.
// Shape comes first; the quota check runs only for items that pass it.
// Symbols already held, or accepted earlier in the batch, never count
// against the quota.
func validateImportBatch(batch ImportBatch, acquired []*time.Time, ent Entitlements, dbSymbols map[string]bool) ([]importStep, []ItemError) {
	var steps []importStep
	var itemErrors []ItemError

	batchSymbols := map[string]bool{}
	newSymbols := 0
	quotaFull := func() bool {
		return ent.MaxStocks != nil && int64(len(dbSymbols))+int64(newSymbols) >= *ent.MaxStocks
	}
	accept := func(symbol string) {
		if !dbSymbols[symbol] && !batchSymbols[symbol] {
			newSymbols++
		}
		batchSymbols[symbol] = true
	}

	for idx, item := range batch.Holdings {
		symbol := normalizeSymbol(item.Symbol)
		fields := map[string]string{}
		if !validSymbol(symbol) {
			fields["symbol"] = "symbol is required (1-20 characters)"
		}
		if item.Shares <= 0 {
			fields["shares"] = "shares must be a positive integer"
		}
		if item.AverageCost <= 0 {
			fields["average_cost"] = "average cost must be a positive number"
		}
		validateCategoryFields(item.Sector, item.CustomCategory, ent, fields)
		if len(fields) > 0 {
			itemErrors = append(itemErrors, ItemError{ItemType: "holding", Index: idx, Symbol: symbol, Fields: fields})
			continue
		}

		if !dbSymbols[symbol] && !batchSymbols[symbol] && quotaFull() {
			itemErrors = append(itemErrors, ItemError{
				ItemType: "holding", Index: idx, Symbol: symbol,
				Reason: fmt.Sprintf("holding limit of %d reached", *ent.MaxStocks),
			})
			continue
		}
		accept(symbol)

		step := importStep{
			itemType: "holding", index: idx, op: "upsert",
			symbol: symbol, shares: item.Shares, cost: item.AverageCost,
			sector: item.Sector, category: item.CustomCategory,
		}
		if acquired != nil {
			step.acquiredAt = acquired[idx]
		}
		steps = append(steps, step)
	}

	for idx, item := range batch.Transactions {
		symbol := normalizeSymbol(item.Symbol)
		txType := strings.ToLower(strings.TrimSpace(item.Type))
		fields := map[string]string{}
		if !validSymbol(symbol) {
			fields["symbol"] = "symbol is required (1-20 characters)"
		}
		if item.Shares <= 0 {
			fields["shares"] = "shares must be a positive integer"
		}
		if item.Price <= 0 {
			fields["price"] = "price must be a positive number"
		}
		if txType != "buy" && txType != "sell" {
			fields["type"] = "type must be 'buy' or 'sell'"
		}
		if !validDateOnly(item.Date) {
			fields["date"] = "invalid date format (YYYY-MM-DD required)"
		}
		validateCategoryFields(item.Sector, item.CustomCategory, ent, fields)
		if len(fields) > 0 {
			itemErrors = append(itemErrors, ItemError{ItemType: "transaction", Index: idx, Symbol: symbol, Fields: fields})
			continue
		}

		known := dbSymbols[symbol] || batchSymbols[symbol]
		if txType == "sell" {
			if !known {
				itemErrors = append(itemErrors, ItemError{
					ItemType: "transaction", Index: idx, Symbol: symbol,
					Reason: "cannot sell a symbol not present in portfolio or batch",
				})
				continue
			}
			steps = append(steps, importStep{
				itemType: "transaction", index: idx, op: "sell",
				symbol: symbol, shares: item.Shares, cost: item.Price, date: item.Date,
			})
			continue
		}

		if !known && quotaFull() {
			itemErrors = append(itemErrors, ItemError{
				ItemType: "transaction", Index: idx, Symbol: symbol,
				Reason: fmt.Sprintf("holding limit of %d reached", *ent.MaxStocks),
			})
			continue
		}
		accept(symbol)
		steps = append(steps, importStep{
			itemType: "transaction", index: idx, op: "buy",
			symbol: symbol, shares: item.Shares, cost: item.Price, date: item.Date,
			sector: item.Sector, category: item.CustomCategory,
		})
	}

	return steps, itemErrors
}

func validateCategoryFields(sector, category *string, ent Entitlements, fields map[string]string) {
	if sector != nil && len(*sector) > maxCategoryLength {
		fields["sector"] = "sector must be at most 100 characters"
	}
	if category != nil {
		if !ent.AllowCustomCategories {
			fields["custom_category"] = "plan does not allow custom categories"
		} else if len(*category) > maxCategoryLength {
			fields["custom_category"] = "custom category must be at most 100 characters"
		}
	}
}

// sellError marks a sell that would overdraw a position. It aborts the
// whole batch.
type sellError struct {
	reason string
}

func (e *sellError) Error() string { return e.reason }

func (c *Core) applyImportStep(ctx context.Context, tx *sql.Tx, userID string, step importStep) error {
	var id, shares int64
	err := tx.QueryRow("SELECT id, shares FROM holdings WHERE user_id = ? AND symbol = ?", userID, step.symbol).Scan(&id, &shares)
	exists := err == nil
	if err != nil && err != sql.ErrNoRows {
		return WrapError(ErrCodeDatabase, "failed to read holding", err)
	}

	switch step.op {
	case "upsert":
		if exists {
			return c.replaceHoldingTx(tx, id, step)
		}
		acquiredAt := time.Now().UTC()
		if step.acquiredAt != nil {
			acquiredAt = *step.acquiredAt
		}
		return c.insertHoldingTx(ctx, tx, userID, step, acquiredAt)
	case "buy":
		if exists {
			return c.addSharesTx(tx, id, step)
		}
		// The lot's trade date becomes the acquisition date.
		acquiredAt, err := time.Parse(dateOnlyLayout, step.date)
		if err != nil {
			acquiredAt = time.Now().UTC()
		}
		return c.insertHoldingTx(ctx, tx, userID, step, acquiredAt)
	case "sell":
		if !exists {
			return &sellError{reason: "cannot sell a symbol not present in portfolio or batch"}
		}
		if shares < step.shares {
			return &sellError{reason: "attempted to sell more shares than owned"}
		}
		if shares == step.shares {
			_, err := tx.Exec("DELETE FROM holdings WHERE id = ?", id)
			if err != nil {
				return WrapError(ErrCodeDatabase, "failed to close holding", err)
			}
			return nil
		}
		_, err := tx.Exec("UPDATE holdings SET shares = shares - ?, updated_at = ? WHERE id = ?",
			step.shares, formatTimestamp(time.Now()), id)
		if err != nil {
			return WrapError(ErrCodeDatabase, "failed to reduce holding", err)
		}
		return nil
	}
	return NewError(ErrCodeInternal, fmt.Sprintf("unknown import operation %q", step.op))
}

// replaceHoldingTx rewrites an existing position from an absolute holding
// item. The acquisition date resets to now; sector and category are only
// touched when the item carries them, and an empty category clears it.
func (c *Core) replaceHoldingTx(tx *sql.Tx, id int64, step importStep) error {
	sets := []string{"shares = ?", "cost_basis = ?", "acquired_at = ?", "updated_at = ?"}
	now := formatTimestamp(time.Now())
	params := []any{step.shares, NewAmount(step.cost), now, now}
	if step.sector != nil && strings.TrimSpace(*step.sector) != "" {
		sets = append(sets, "sector = ?")
		params = append(params, resolveSector(*step.sector))
	}
	if step.category != nil {
		sets = append(sets, "custom_category = ?")
		params = append(params, nullString(stringPtr(strings.TrimSpace(*step.category))))
	}
	params = append(params, id)
	query := "UPDATE holdings SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	if _, err := tx.Exec(query, params...); err != nil {
		return WrapError(ErrCodeDatabase, "failed to replace holding", err)
	}
	return nil
}

// addSharesTx applies a buy lot to an existing position. The cost basis
// deliberately stays untouched.
func (c *Core) addSharesTx(tx *sql.Tx, id int64, step importStep) error {
	sets := []string{"shares = shares + ?", "updated_at = ?"}
	params := []any{step.shares, formatTimestamp(time.Now())}
	if step.sector != nil && strings.TrimSpace(*step.sector) != "" {
		sets = append(sets, "sector = ?")
		params = append(params, resolveSector(*step.sector))
	}
	if step.category != nil {
		sets = append(sets, "custom_category = ?")
		params = append(params, nullString(stringPtr(strings.TrimSpace(*step.category))))
	}
	params = append(params, id)
	query := "UPDATE holdings SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	if _, err := tx.Exec(query, params...); err != nil {
		return WrapError(ErrCodeDatabase, "failed to add shares", err)
	}
	return nil
}

func (c *Core) insertHoldingTx(ctx context.Context, tx *sql.Tx, userID string, step importStep, acquiredAt time.Time) error {
	sector := ""
	if step.sector != nil {
		sector = strings.TrimSpace(*step.sector)
	}
	if sector == "" {
		sector = c.fetchOverviewSector(ctx, step.symbol)
	}
	sector = resolveSector(sector)

	var category *string
	if step.category != nil {
		category = stringPtr(strings.TrimSpace(*step.category))
	}
	_, err := tx.Exec(`
		INSERT INTO holdings (user_id, symbol, shares, cost_basis, acquired_at, sector, custom_category)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, userID, step.symbol, step.shares, NewAmount(step.cost), formatTimestamp(acquiredAt), sector, nullString(category))
	if err != nil {
		return WrapError(ErrCodeDatabase, "failed to insert holding", err)
	}
	return nil
}

// fetchOverviewSector resolves a sector from company fundamentals.
// Failures degrade to an empty string and never fail an import.
func (c *Core) fetchOverviewSector(ctx context.Context, symbol string) string {
	overview, err := c.market.Overview(ctx, symbol)
	if err != nil {
		c.logger.Debug("overview lookup failed", "symbol", symbol, "err", err)
		return ""
	}
	if overview == nil {
		return ""
	}
	return overview.Sector
}

// userSymbols returns the set of symbols the user currently holds.
func (c *Core) userSymbols(ctx context.Context, userID string) (map[string]bool, error) {
	rows, err := c.QueryContext(ctx, "SELECT symbol FROM holdings WHERE user_id = ?", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	symbols := map[string]bool{}
	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, WrapError(ErrCodeDatabase, "failed to scan symbol", err)
		}
		symbols[symbol] = true
	}
	return symbols, rows.Err()
}
