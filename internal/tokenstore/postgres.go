package tokenstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nkiryanov/bookadmin/internal/apperrors"
	"github.com/nkiryanov/bookadmin/internal/models"
)

// Either pool or transaction
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Postgres backend keeps one row per console profile.
// Schema lives in internal/db migrations
type Postgres struct {
	DB      DBTX
	Profile string
}

func NewPostgres(db DBTX, profile string) *Postgres {
	return &Postgres{DB: db, Profile: profile}
}

const loadCredential = `-- name: Load credential of profile
SELECT access_token, refresh_token
FROM console_credentials
WHERE profile = $1
`

func (p *Postgres) Load(ctx context.Context) (models.Credential, error) {
	rows, _ := p.DB.Query(ctx, loadCredential, p.Profile)
	c, err := pgx.CollectOneRow(rows, func(row pgx.CollectableRow) (models.Credential, error) {
		var c models.Credential
		err := row.Scan(&c.Access, &c.Refresh)
		return c, err
	})

	switch {
	case err == nil:
		return c, nil
	case errors.Is(err, pgx.ErrNoRows):
		return c, apperrors.ErrCredentialNotFound
	default:
		return c, fmt.Errorf("db error: %w", err)
	}
}

const saveCredential = `-- name: Save credential, overwrite existing one
INSERT INTO console_credentials (profile, access_token, refresh_token, updated_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (profile) DO UPDATE
SET access_token = EXCLUDED.access_token,
    refresh_token = EXCLUDED.refresh_token,
    updated_at = EXCLUDED.updated_at
`

func (p *Postgres) Save(ctx context.Context, c models.Credential) error {
	_, err := p.DB.Exec(ctx, saveCredential, p.Profile, c.Access, c.Refresh)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

const deleteCredential = `-- name: Delete credential of profile
DELETE FROM console_credentials
WHERE profile = $1
`

func (p *Postgres) Delete(ctx context.Context) error {
	_, err := p.DB.Exec(ctx, deleteCredential, p.Profile)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
