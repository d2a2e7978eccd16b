// Package postgres provides pgx-backed UserProvider and ContactStore
// implementations.
//
// The rotation compare-and-swap is a single conditional UPDATE, so the
// single-use refresh guarantee holds across processes without advisory
// locks.
package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	gatekeeper "github.com/contactkit/gatekeeper"
)

// Schema is the DDL the provider expects. Apply it with your migration
// tooling of choice.
const Schema = `
CREATE TABLE IF NOT EXISTS users (
    id                  TEXT PRIMARY KEY,
    email               TEXT NOT NULL UNIQUE,
    username            TEXT NOT NULL DEFAULT '',
    password_hash       TEXT NOT NULL,
    role                TEXT NOT NULL DEFAULT 'user',
    confirmed           BOOLEAN NOT NULL DEFAULT FALSE,
    avatar_url          TEXT NOT NULL DEFAULT '',
    refresh_fingerprint TEXT NOT NULL DEFAULT '',
    created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at          TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS contacts (
    id         BIGSERIAL PRIMARY KEY,
    owner_id   TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    first_name TEXT NOT NULL DEFAULT '',
    last_name  TEXT NOT NULL DEFAULT '',
    email      TEXT NOT NULL DEFAULT '',
    phone      TEXT NOT NULL DEFAULT '',
    birthday   DATE,
    notes      TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS contacts_owner_idx ON contacts (owner_id, id);
`

// Provider implements gatekeeper.UserProvider, gatekeeper.ContactStore,
// and gatekeeper.PasswordUpgrader over a pgx connection pool.
type Provider struct {
	pool *pgxpool.Pool
}

func NewProvider(pool *pgxpool.Pool) *Provider {
	return &Provider{pool: pool}
}

const userColumns = `id, email, username, password_hash, role, confirmed, avatar_url, refresh_fingerprint, created_at, updated_at`

func scanIdentity(row pgx.Row) (gatekeeper.Identity, error) {
	var identity gatekeeper.Identity
	var role string
	err := row.Scan(
		&identity.ID, &identity.Email, &identity.Username, &identity.PasswordHash,
		&role, &identity.Confirmed, &identity.AvatarURL, &identity.RefreshFingerprint,
		&identity.CreatedAt, &identity.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return gatekeeper.Identity{}, gatekeeper.ErrUserNotFound
		}
		return gatekeeper.Identity{}, err
	}
	identity.Role = gatekeeper.Role(role)
	return identity, nil
}

// CreateUser inserts a new identity. Seeding and signup helper.
func (p *Provider) CreateUser(ctx context.Context, identity gatekeeper.Identity) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO users (id, email, username, password_hash, role, confirmed, avatar_url, refresh_fingerprint)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		identity.ID, identity.Email, identity.Username, identity.PasswordHash,
		string(identity.Role), identity.Confirmed, identity.AvatarURL, identity.RefreshFingerprint,
	)
	return err
}

func (p *Provider) GetUserByEmail(ctx context.Context, email string) (gatekeeper.Identity, error) {
	row := p.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanIdentity(row)
}

func (p *Provider) SetRefreshFingerprint(ctx context.Context, email, fingerprintHash string) error {
	tag, err := p.pool.Exec(ctx, `
		UPDATE users SET refresh_fingerprint = $2, updated_at = now() WHERE email = $1`,
		email, fingerprintHash,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return gatekeeper.ErrUserNotFound
	}
	return nil
}

func (p *Provider) RotateRefreshFingerprint(ctx context.Context, email, expectedHash, nextHash string) error {
	tag, err := p.pool.Exec(ctx, `
		UPDATE users SET refresh_fingerprint = $3, updated_at = now()
		WHERE email = $1 AND refresh_fingerprint = $2`,
		email, expectedHash, nextHash,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	// Zero rows: either the account is gone or another rotation won.
	var exists bool
	if err := p.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return gatekeeper.ErrUserNotFound
	}
	return gatekeeper.ErrFingerprintMismatch
}

func (p *Provider) ClearRefreshFingerprint(ctx context.Context, email string) error {
	return p.SetRefreshFingerprint(ctx, email, "")
}

func (p *Provider) MarkConfirmed(ctx context.Context, email string) error {
	tag, err := p.pool.Exec(ctx, `
		UPDATE users SET confirmed = TRUE, updated_at = now() WHERE email = $1`, email)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return gatekeeper.ErrUserNotFound
	}
	return nil
}

// UpdatePasswordHash implements gatekeeper.PasswordUpgrader.
func (p *Provider) UpdatePasswordHash(ctx context.Context, email, passwordHash string) error {
	tag, err := p.pool.Exec(ctx, `
		UPDATE users SET password_hash = $2, updated_at = now() WHERE email = $1`,
		email, passwordHash,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return gatekeeper.ErrUserNotFound
	}
	return nil
}
