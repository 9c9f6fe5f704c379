package tradeindex

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // SQLite driver
)

// OpenSQLite opens a SQLite-backed trade index at path. Use ":memory:"
// for an ephemeral index.
func OpenSQLite(ctx context.Context, path string) (Repository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("tradeindex: failed to open sqlite at %s: %w", path, err)
	}

	// modernc sqlite serializes writes itself; a single connection avoids
	// SQLITE_BUSY under concurrent inserts.
	db.SetMaxOpenConns(1)

	return newSQLRepository(ctx, db, rebindQuestion)
}
