package stockfolio

import (
	"context"
	"database/sql"
	"encoding/json"
)

// maxDigestErrors bounds how many item errors the audit row keeps.
const maxDigestErrors = 5

// recordImportOutcome persists the terminal state of a batch. Audit
// failures are logged and swallowed; the import itself already succeeded
// or failed on its own terms.
func (c *Core) recordImportOutcome(ctx context.Context, userID, source string, outcome *ImportOutcome) {
	var digest *string
	if len(outcome.ItemErrors) > 0 {
		sample := outcome.ItemErrors
		if len(sample) > maxDigestErrors {
			sample = sample[:maxDigestErrors]
		}
		if data, err := json.Marshal(sample); err == nil {
			s := string(data)
			digest = &s
		}
	}
	_, err := c.ExecContext(ctx, `
		INSERT INTO import_batches (batch_id, user_id, source, state, processed_holdings, processed_transactions, error_count, error_digest)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, outcome.BatchID, userID, source, string(outcome.State), outcome.ProcessedHoldings, outcome.ProcessedTransactions,
		len(outcome.ItemErrors), nullString(digest))
	if err != nil {
		c.logger.Warn("failed to record import batch", "batch_id", outcome.BatchID, "error", err)
	}
}

// ListImportBatches returns a user's recent import batches, newest first.
func (c *Core) ListImportBatches(ctx context.Context, userID string, limit, offset int) ([]ImportRecord, error) {
	if userID == "" {
		return nil, NewError(ErrCodeInvalidInput, "user id is required")
	}
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := c.QueryContext(ctx,
		"SELECT batch_id, user_id, source, state, processed_holdings, processed_transactions, error_count, error_digest, created_at FROM import_batches WHERE user_id = ? ORDER BY created_at DESC, rowid DESC LIMIT ? OFFSET ?",
		userID, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []ImportRecord
	for rows.Next() {
		var rec ImportRecord
		var digest, createdAt sql.NullString
		if err := rows.Scan(&rec.BatchID, &rec.UserID, &rec.Source, &rec.State, &rec.ProcessedHoldings,
			&rec.ProcessedTransactions, &rec.ErrorCount, &digest, &createdAt); err != nil {
			return nil, WrapError(ErrCodeDatabase, "failed to scan import batch", err)
		}
		if digest.Valid {
			rec.ErrorDigest = &digest.String
		}
		if createdAt.Valid {
			rec.CreatedAt = &createdAt.String
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
