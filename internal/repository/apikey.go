package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// APIKey is a stored API credential. The plaintext key is held only
// encrypted at rest; lookup happens via a SHA-256 digest.
type APIKey struct {
	ID           string     `json:"id"`
	UserID       string     `json:"userId"`
	Name         string     `json:"name"`
	KeyDigest    string     `json:"-"`
	KeyEncrypted string     `json:"-"`
	CreatedAt    time.Time  `json:"createdAt"`
	LastUsedAt   *time.Time `json:"lastUsedAt,omitempty"`
}

// APIKeyRepository handles database operations for API keys.
type APIKeyRepository struct {
	db *pgxpool.Pool
}

// NewAPIKeyRepository creates a new APIKeyRepository.
func NewAPIKeyRepository(db *pgxpool.Pool) *APIKeyRepository {
	return &APIKeyRepository{db: db}
}

// Insert stores a new API key.
func (r *APIKeyRepository) Insert(ctx context.Context, k *APIKey) error {
	query := `
		INSERT INTO api_keys (id, user_id, name, key_digest, key_encrypted, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.Exec(ctx, query, k.ID, k.UserID, k.Name, k.KeyDigest, k.KeyEncrypted, k.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert api key: %w", err)
	}
	return nil
}

// FindByDigest looks up a key by its SHA-256 digest.
func (r *APIKeyRepository) FindByDigest(ctx context.Context, digest string) (*APIKey, error) {
	query := `
		SELECT id, user_id, name, key_digest, key_encrypted, created_at, last_used_at
		FROM api_keys WHERE key_digest = $1
	`
	row := r.db.QueryRow(ctx, query, digest)

	var k APIKey
	err := row.Scan(&k.ID, &k.UserID, &k.Name, &k.KeyDigest, &k.KeyEncrypted, &k.CreatedAt, &k.LastUsedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find api key: %w", err)
	}
	return &k, nil
}

// ListByUser returns a user's API keys, newest first.
func (r *APIKeyRepository) ListByUser(ctx context.Context, userID string) ([]*APIKey, error) {
	query := `
		SELECT id, user_id, name, key_digest, key_encrypted, created_at, last_used_at
		FROM api_keys WHERE user_id = $1 ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list api keys: %w", err)
	}
	defer rows.Close()

	var keys []*APIKey
	for rows.Next() {
		var k APIKey
		if err := rows.Scan(&k.ID, &k.UserID, &k.Name, &k.KeyDigest, &k.KeyEncrypted, &k.CreatedAt, &k.LastUsedAt); err != nil {
			return nil, fmt.Errorf("failed to scan api key: %w", err)
		}
		keys = append(keys, &k)
	}
	return keys, nil
}

// Delete removes an API key owned by the user.
func (r *APIKeyRepository) Delete(ctx context.Context, id, userID string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM api_keys WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete api key: %w", err)
	}
	return nil
}

// TouchLastUsed records key usage.
func (r *APIKeyRepository) TouchLastUsed(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `UPDATE api_keys SET last_used_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to touch api key: %w", err)
	}
	return nil
}
