package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"badam/internal/domain"

	"github.com/lib/pq"
)

const accountColumns = "id, username, credential_hash, federated_id, email, avatar_url, created_at"

func isUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505" && pqErr.Constraint == constraint
}

func scanAccount(row *sql.Row) (*domain.Account, error) {
	var a domain.Account
	var username, hash, federatedID, email, avatarURL sql.NullString
	err := row.Scan(&a.ID, &username, &hash, &federatedID, &email, &avatarURL, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	a.Username = username.String
	a.CredentialHash = hash.String
	a.FederatedID = federatedID.String
	a.Email = email.String
	a.AvatarURL = avatarURL.String
	return &a, nil
}

// CreateLocal creates a new local-credential account.
func (d *DB) CreateLocal(ctx context.Context, username, credentialHash string) (*domain.Account, error) {
	row := d.sql.QueryRowContext(ctx,
		"INSERT INTO accounts (username, credential_hash, created_at) VALUES ($1, $2, $3) RETURNING "+accountColumns,
		username, credentialHash, time.Now(),
	)
	account, err := scanAccount(row)
	if isUniqueViolation(err, "idx_accounts_username") {
		return nil, domain.ErrDuplicateUsername
	}
	return account, err
}

// CreateFederated creates a new account backed by a federated identity. The
// display name is stored as the username; empty email and avatar become NULL.
func (d *DB) CreateFederated(ctx context.Context, federatedID, email, displayName, avatarURL string) (*domain.Account, error) {
	row := d.sql.QueryRowContext(ctx,
		"INSERT INTO accounts (username, federated_id, email, avatar_url, created_at) VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5) RETURNING "+accountColumns,
		displayName, federatedID, email, avatarURL, time.Now(),
	)
	account, err := scanAccount(row)
	if isUniqueViolation(err, "idx_accounts_username") {
		return nil, domain.ErrDuplicateUsername
	}
	return account, err
}

// GetByID retrieves an account by ID.
func (d *DB) GetByID(ctx context.Context, id int64) (*domain.Account, error) {
	row := d.sql.QueryRowContext(ctx,
		"SELECT "+accountColumns+" FROM accounts WHERE id = $1", id)
	return scanAccount(row)
}

// GetByUsername retrieves an account by username regardless of capability.
func (d *DB) GetByUsername(ctx context.Context, username string) (*domain.Account, error) {
	row := d.sql.QueryRowContext(ctx,
		"SELECT "+accountColumns+" FROM accounts WHERE username = $1", username)
	return scanAccount(row)
}

// GetLocalByUsername retrieves an account by username, restricted to rows
// that carry a credential hash.
func (d *DB) GetLocalByUsername(ctx context.Context, username string) (*domain.Account, error) {
	row := d.sql.QueryRowContext(ctx,
		"SELECT "+accountColumns+" FROM accounts WHERE username = $1 AND credential_hash IS NOT NULL", username)
	return scanAccount(row)
}

// GetByFederatedID retrieves an account by its federated identity reference.
func (d *DB) GetByFederatedID(ctx context.Context, federatedID string) (*domain.Account, error) {
	row := d.sql.QueryRowContext(ctx,
		"SELECT "+accountColumns+" FROM accounts WHERE federated_id = $1", federatedID)
	return scanAccount(row)
}

// GetByEmail retrieves an account by email.
func (d *DB) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	row := d.sql.QueryRowContext(ctx,
		"SELECT "+accountColumns+" FROM accounts WHERE email = $1 ORDER BY created_at ASC LIMIT 1", email)
	return scanAccount(row)
}

// LinkFederatedIdentity attaches a federated identity to an account that has
// none. The WHERE guard keeps an already-linked account untouched; the
// partial unique index on federated_id rejects double-link races.
func (d *DB) LinkFederatedIdentity(ctx context.Context, accountID int64, federatedID, avatarURL string) error {
	_, err := d.sql.ExecContext(ctx,
		"UPDATE accounts SET federated_id = $1, avatar_url = COALESCE(NULLIF($2, ''), avatar_url) WHERE id = $3 AND federated_id IS NULL",
		federatedID, avatarURL, accountID,
	)
	return err
}

// Top returns the leaderboard projection over accounts and counts.
func (d *DB) Top(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	rows, err := d.sql.QueryContext(ctx,
		`SELECT COALESCE(a.username, a.email, ''), COALESCE(bc.count, 0), a.created_at, COALESCE(a.avatar_url, '')
		 FROM accounts a
		 LEFT JOIN badam_counts bc ON bc.account_id = a.id
		 ORDER BY COALESCE(bc.count, 0) DESC, a.created_at ASC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.LeaderboardEntry, 0, limit)
	for rows.Next() {
		var e domain.LeaderboardEntry
		if err := rows.Scan(&e.Username, &e.Count, &e.CreatedAt, &e.AvatarURL); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
