package stockfolio

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"stockfolio/pkg/marketdata"
)

// Options controls Core initialization.
type Options struct {
	DBPath string
	Logger *slog.Logger
	// Market supplies quotes, overviews, history and news. Nil selects the
	// built-in mock provider, which never touches the network.
	Market marketdata.Service
}

// Core provides access to Stockfolio business logic and storage.
type Core struct {
	db     *sql.DB
	logger *slog.Logger
	market marketdata.Service
	dbPath string
}

// Open initializes a Core using the provided database path.
func Open(dbPath string) (*Core, error) {
	return OpenWithOptions(Options{DBPath: dbPath})
}

// OpenWithOptions initializes a Core using the provided options.
func OpenWithOptions(opts Options) (*Core, error) {
	if opts.DBPath == "" {
		return nil, errors.New("db path is required")
	}
	cleanPath := filepath.Clean(opts.DBPath)
	if err := os.MkdirAll(filepath.Dir(cleanPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("sqlite", cleanPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// SQLite performs best with a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logger.Warn("pragma busy_timeout failed", "err", err)
	}
	// Dividends cascade on holding deletes, so foreign keys must be enforced.
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := initDatabase(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init database: %w", err)
	}

	market := opts.Market
	if market == nil {
		market = marketdata.New(marketdata.Config{}, logger)
	}

	return &Core{
		db:     db,
		logger: logger,
		market: market,
		dbPath: cleanPath,
	}, nil
}

// Close releases database resources.
func (c *Core) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// DBPath returns the underlying database path.
func (c *Core) DBPath() string {
	return c.dbPath
}

// Market returns the market data service the Core was opened with.
func (c *Core) Market() marketdata.Service {
	return c.market
}
