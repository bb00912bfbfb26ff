package postgres

import (
	"context"
	"database/sql"
	"time"
)

// Get returns the count for the account, inserting a zero record when none
// exists yet.
func (d *DB) Get(ctx context.Context, accountID int64) (int, error) {
	var count int
	err := d.sql.QueryRowContext(ctx,
		"SELECT count FROM badam_counts WHERE account_id = $1", accountID,
	).Scan(&count)
	if err == sql.ErrNoRows {
		_, err = d.sql.ExecContext(ctx,
			"INSERT INTO badam_counts (account_id, count, updated_at) VALUES ($1, 0, $2) ON CONFLICT (account_id) DO NOTHING",
			accountID, time.Now(),
		)
		return 0, err
	}
	if err != nil {
		return 0, err
	}
	return count, nil
}

// Set replaces the count with a single upsert statement; concurrent writers
// resolve last-write-wins at the storage layer. Negative values are clamped
// as defense-in-depth.
func (d *DB) Set(ctx context.Context, accountID int64, count int) error {
	if count < 0 {
		count = 0
	}
	_, err := d.sql.ExecContext(ctx,
		`INSERT INTO badam_counts (account_id, count, updated_at) VALUES ($1, $2, $3)
		 ON CONFLICT (account_id) DO UPDATE SET count = EXCLUDED.count, updated_at = EXCLUDED.updated_at`,
		accountID, count, time.Now(),
	)
	return err
}
