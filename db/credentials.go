package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/socialsounds/server/models"
)

// credentialRowID is the only id the soundcloud_credentials table accepts
const credentialRowID = 1

// GetCredential returns the stored SoundCloud credential, or nil if none exists
func (db *DB) GetCredential(ctx context.Context) (*models.Credential, error) {
	row := db.QueryRowContext(ctx, `
    SELECT access_token, expires_at, scope, refresh_token, created_at
    FROM soundcloud_credentials
    WHERE id = ?`, credentialRowID)

	cred := &models.Credential{}
	var expires sql.NullTime
	err := row.Scan(&cred.AccessToken, &expires, &cred.Scope, &cred.RefreshToken, &cred.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if expires.Valid {
		cred.Expires = expires.Time
	}

	return cred, nil
}

// ReplaceCredential drops any stored credential and stores cred in its place,
// in one transaction
func (db *DB) ReplaceCredential(ctx context.Context, cred *models.Credential) error {
	if cred.CreatedAt.IsZero() {
		cred.CreatedAt = time.Now().UTC()
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM soundcloud_credentials`); err != nil {
		return err
	}

	var expires sql.NullTime
	if !cred.Expires.IsZero() {
		expires = sql.NullTime{Time: cred.Expires, Valid: true}
	}

	_, err = tx.ExecContext(ctx, `
    INSERT INTO soundcloud_credentials (id, access_token, expires_at, scope, refresh_token, created_at)
    VALUES (?, ?, ?, ?, ?, ?)`,
		credentialRowID, cred.AccessToken, expires, cred.Scope, cred.RefreshToken, cred.CreatedAt)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// DeleteCredential removes the stored credential, if any
func (db *DB) DeleteCredential(ctx context.Context) error {
	_, err := db.ExecContext(ctx, `DELETE FROM soundcloud_credentials`)
	return err
}
