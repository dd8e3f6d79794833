package meta

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"
)

// SQLite DSN parameters for safe concurrent use of the metastore file.
const (
	busyTimeoutMillis = "5000"
	synchronousMode   = "NORMAL"
	journalMode       = "WAL"
)

// OpenSQLite opens a *sql.DB for the metastore at the given path.
//
// The metastore serializes writes through a single connection: MaxOpenConns
// is 1 and the DSN takes write locks immediately, so sequence allocation
// never races. Use ":memory:" for an ephemeral store (tests, one-shot runs).
func OpenSQLite(path string) (*sql.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("metastore path must not be empty")
	}

	db, err := sql.Open("sqlite3", buildDSN(path))
	if err != nil {
		return nil, fmt.Errorf("open metastore: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping metastore: %w", err)
	}

	return db, nil
}

func buildDSN(path string) string {
	params := url.Values{}
	params.Set("_busy_timeout", busyTimeoutMillis)
	params.Set("_journal_mode", journalMode)
	params.Set("_synchronous", synchronousMode)
	params.Set("_txlock", "immediate")
	return "file:" + path + "?" + params.Encode()
}
