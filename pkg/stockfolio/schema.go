package stockfolio

import "database/sql"

func initDatabase(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := exec(tx, `
		CREATE TABLE IF NOT EXISTS holdings (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id TEXT NOT NULL,
			symbol TEXT NOT NULL,
			shares INTEGER NOT NULL CHECK(shares > 0),
			cost_basis REAL NOT NULL CHECK(cost_basis > 0),
			acquired_at DATETIME NOT NULL,
			sector TEXT NOT NULL DEFAULT 'Uncategorized',
			custom_category TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME,
			UNIQUE(user_id, symbol)
		)
	`); err != nil {
		return err
	}

	if err := exec(tx, `
		CREATE TABLE IF NOT EXISTS dividends (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			holding_id INTEGER NOT NULL,
			user_id TEXT NOT NULL,
			amount REAL NOT NULL CHECK(amount > 0),
			pay_date DATE NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY(holding_id) REFERENCES holdings(id) ON DELETE CASCADE
		)
	`); err != nil {
		return err
	}

	if err := exec(tx, `
		CREATE TABLE IF NOT EXISTS alerts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id TEXT NOT NULL,
			symbol TEXT NOT NULL,
			target_price REAL NOT NULL CHECK(target_price > 0),
			condition TEXT NOT NULL CHECK(condition IN ('above', 'below')),
			status TEXT NOT NULL DEFAULT 'active' CHECK(status IN ('active', 'triggered', 'cancelled')),
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return err
	}

	if err := exec(tx, `
		CREATE TABLE IF NOT EXISTS import_batches (
			batch_id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			source TEXT NOT NULL CHECK(source IN ('generic', 'csv')),
			state TEXT NOT NULL CHECK(state IN ('committed', 'rejected', 'rolled_back')),
			processed_holdings INTEGER NOT NULL DEFAULT 0,
			processed_transactions INTEGER NOT NULL DEFAULT 0,
			error_count INTEGER NOT NULL DEFAULT 0,
			error_digest TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return err
	}

	if err := exec(tx, `
		CREATE TABLE IF NOT EXISTS insight_settings (
			id INTEGER PRIMARY KEY CHECK(id = 1),
			provider TEXT NOT NULL DEFAULT 'openai',
			base_url TEXT,
			model TEXT,
			risk_profile TEXT NOT NULL DEFAULT 'balanced',
			horizon TEXT NOT NULL DEFAULT 'medium',
			updated_at DATETIME
		)
	`); err != nil {
		return err
	}

	if err := exec(tx, `
		CREATE TABLE IF NOT EXISTS insights (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id TEXT NOT NULL,
			provider TEXT NOT NULL,
			model TEXT,
			overall_summary TEXT,
			risk_level TEXT,
			payload TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return err
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_holdings_user ON holdings(user_id)",
		"CREATE INDEX IF NOT EXISTS idx_dividends_holding ON dividends(holding_id)",
		"CREATE INDEX IF NOT EXISTS idx_dividends_user ON dividends(user_id)",
		"CREATE INDEX IF NOT EXISTS idx_alerts_user_status ON alerts(user_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_import_batches_user ON import_batches(user_id)",
		"CREATE INDEX IF NOT EXISTS idx_insights_user ON insights(user_id)",
	}
	for _, idx := range indexes {
		if err := exec(tx, idx); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	return nil
}

func exec(tx *sql.Tx, query string) error {
	_, err := tx.Exec(query)
	return err
}
