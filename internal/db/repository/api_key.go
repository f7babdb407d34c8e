// Package repository holds the metastore-backed repositories.
package repository

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"sqlscope/internal/apikey"
)

// ErrNotFound is returned when a row does not exist or is no longer valid.
var ErrNotFound = errors.New("not found")

const timeLayout = "2006-01-02T15:04:05.000Z"

// APIKey is a stored project API key. The raw key is never stored.
type APIKey struct {
	ID        string
	ProjectID string
	Name      string
	ExpiresAt *time.Time
}

// APIKeyRepo stores hashed project API keys.
type APIKeyRepo struct {
	db  *sql.DB
	now func() time.Time
}

// NewAPIKeyRepo creates a new APIKeyRepo.
func NewAPIKeyRepo(db *sql.DB) *APIKeyRepo {
	return &APIKeyRepo{db: db, now: time.Now}
}

// Create mints a key for projectID and returns the stored record together
// with the raw key, which is shown only once.
func (r *APIKeyRepo) Create(ctx context.Context, projectID, name string, expiresAt *time.Time) (*APIKey, string, error) {
	if projectID == "" {
		return nil, "", fmt.Errorf("project id is required")
	}
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return nil, "", fmt.Errorf("generate key: %w", err)
	}
	raw := apikey.Prefix + hex.EncodeToString(buf)

	key := &APIKey{ID: uuid.NewString(), ProjectID: projectID, Name: name, ExpiresAt: expiresAt}
	var expires any
	if expiresAt != nil {
		expires = expiresAt.UTC().Format(timeLayout)
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO api_keys (id, key_hash, project_id, name, expires_at) VALUES (?, ?, ?, ?, ?)`,
		key.ID, apikey.Hash(raw), projectID, name, expires)
	if err != nil {
		return nil, "", fmt.Errorf("insert api key: %w", err)
	}
	return key, raw, nil
}

// LookupProjectByKeyHash returns the project bound to an unexpired,
// unrevoked key.
func (r *APIKeyRepo) LookupProjectByKeyHash(ctx context.Context, keyHash string) (string, error) {
	var projectID string
	err := r.db.QueryRowContext(ctx,
		`SELECT project_id FROM api_keys
		 WHERE key_hash = ? AND revoked_at IS NULL AND (expires_at IS NULL OR expires_at > ?)`,
		keyHash, r.now().UTC().Format(timeLayout)).Scan(&projectID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("lookup api key: %w", err)
	}
	return projectID, nil
}

// Revoke disables a key by id.
func (r *APIKeyRepo) Revoke(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE api_keys SET revoked_at = ? WHERE id = ? AND revoked_at IS NULL`,
		r.now().UTC().Format(timeLayout), id)
	if err != nil {
		return fmt.Errorf("revoke api key: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
