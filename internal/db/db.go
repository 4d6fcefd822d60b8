package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

const (
	DriverLibSQL = "libsql"
	DriverSQLite = "sqlite"
)

// Driver picks the sql driver for a database url. Remote libSQL/Turso urls
// go to libsql, anything else is treated as a local sqlite file.
func Driver(dsn string) string {
	for _, p := range []string{"libsql://", "https://", "http://", "wss://", "ws://"} {
		if strings.HasPrefix(dsn, p) {
			return DriverLibSQL
		}
	}
	return DriverSQLite
}

// Connect opens the database at dsn. token is only used for libsql and is
// passed as the authToken query parameter.
func Connect(ctx context.Context, dsn, token string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("database url is not set")
	}
	driver := Driver(dsn)
	l := slog.With("function", "db.Connect", "driver", driver)

	if driver == DriverLibSQL && token != "" {
		u, err := url.Parse(dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to parse database url: %w", err)
		}
		q := u.Query()
		q.Set("authToken", token)
		u.RawQuery = q.Encode()
		dsn = u.String()
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if driver == DriverSQLite {
		// one writer; also keeps a :memory: database alive on a single connection
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if driver == DriverSQLite {
		pragmas := []string{
			"PRAGMA journal_mode=WAL",
			"PRAGMA busy_timeout=5000",
			"PRAGMA synchronous=NORMAL",
		}
		for _, p := range pragmas {
			if _, err := db.ExecContext(ctx, p); err != nil {
				db.Close()
				return nil, fmt.Errorf("exec %q: %w", p, err)
			}
		}
	}

	l.Info("database connected")
	return db, nil
}

// InitSchema creates the necessary tables if they don't exist.
func InitSchema(ctx context.Context, db *sql.DB) error {
	slog.Info("initializing database schema")

	queries := []string{
		`CREATE TABLE IF NOT EXISTS agent_history (
			timestamp INTEGER,
			symbol TEXT,
			credits INTEGER,
			ships INTEGER,
			headquarters TEXT,
			PRIMARY KEY (timestamp, symbol)
		)`,
		`CREATE TABLE IF NOT EXISTS ship_history (
			timestamp INTEGER,
			symbol TEXT,
			status TEXT,
			waypoint TEXT,
			fuel INTEGER,
			cargo INTEGER,
			PRIMARY KEY (timestamp, symbol)
		)`,
		`CREATE TABLE IF NOT EXISTS action_log (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER,
			ship TEXT,
			action TEXT,
			ok BOOLEAN,
			detail TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS action_log_ship ON action_log (ship, timestamp)`,
	}

	for _, q := range queries {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("failed to execute query %q: %w", q, err)
		}
	}

	slog.Info("database schema initialized successfully")
	return nil
}

// Tx runs fn in a transaction, committing when it returns nil.
func Tx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original: %w)", rbErr, err)
		}
		return err
	}
	return tx.Commit()
}
