package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

var ErrUnsupportedDriver = errors.New("unsupported database driver")

func init() {
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// Open connects to postgres when dsn is set, otherwise to the sqlite file at
// sqlitePath, and applies the schema.
func Open(ctx context.Context, dsn, sqlitePath string) (*sqlx.DB, error) {
	driver, source := DriverPostgres, dsn
	if dsn == "" {
		driver, source = DriverSQLite, sqlitePath
	}
	db, err := sqlx.Open(driver, source)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	if driver == DriverSQLite {
		// one writer; WAL lets readers proceed during a save
		db.SetMaxOpenConns(1)
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode = WAL;"); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite wal: %w", err)
		}
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
	}

	if err := Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

var schemas = map[string][]string{
	DriverPostgres: {
		`CREATE TABLE IF NOT EXISTS holdings (
			symbol TEXT PRIMARY KEY,
			amount NUMERIC NOT NULL,
			sort_order INTEGER NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS alerts (
			id TEXT PRIMARY KEY,
			symbol TEXT NOT NULL,
			type TEXT NOT NULL,
			threshold NUMERIC NOT NULL,
			active BOOLEAN NOT NULL,
			triggered BOOLEAN NOT NULL DEFAULT FALSE,
			last_triggered TEXT,
			created_at TEXT NOT NULL
		)`,
	},
	DriverSQLite: {
		`CREATE TABLE IF NOT EXISTS holdings (
			symbol TEXT PRIMARY KEY,
			amount TEXT NOT NULL,
			sort_order INTEGER NOT NULL,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS alerts (
			id TEXT PRIMARY KEY,
			symbol TEXT NOT NULL,
			type TEXT NOT NULL,
			threshold TEXT NOT NULL,
			active INTEGER NOT NULL,
			triggered INTEGER NOT NULL DEFAULT 0,
			last_triggered TEXT,
			created_at TEXT NOT NULL
		)`,
	},
}

// Migrate creates the holdings and alerts tables if they are missing.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	stmts, ok := schemas[db.DriverName()]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedDriver, db.DriverName())
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate %s: %w", db.DriverName(), err)
		}
	}
	return nil
}
