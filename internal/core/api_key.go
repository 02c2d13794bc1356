package core

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/openclaw/clawhost/internal/model"
	"github.com/openclaw/clawhost/internal/platform"
)

// APIKeyService manages API key operations against the database.
type APIKeyService struct {
	db DB
}

// NewAPIKeyService creates a new APIKeyService.
func NewAPIKeyService(db DB) *APIKeyService {
	return &APIKeyService{db: db}
}

// Create ensures a user row for email exists, generates a new API key bound
// to it, stores the hash, and returns the model along with the raw key
// string. The raw key must be shown to the caller exactly once.
func (s *APIKeyService) Create(ctx context.Context, email, name string) (*model.APIKey, string, error) {
	userID, err := s.ensureUser(ctx, email)
	if err != nil {
		return nil, "", err
	}

	// Generate a random 32-byte key.
	rawBytes := make([]byte, 32)
	if _, err := rand.Read(rawBytes); err != nil {
		return nil, "", fmt.Errorf("generate api key: %w", err)
	}
	rawKey := "clw_" + hex.EncodeToString(rawBytes) // 68 chars total

	id := platform.NewID()
	hash := sha256.Sum256([]byte(rawKey))
	keyHash := hex.EncodeToString(hash[:])
	keyPrefix := rawKey[:12] // "clw_" + first 8 hex chars

	_, err = s.db.Exec(ctx,
		`INSERT INTO api_keys (id, user_id, name, key_hash, key_prefix, created_at) VALUES ($1, $2, $3, $4, $5, now())`,
		id, userID, name, keyHash, keyPrefix,
	)
	if err != nil {
		return nil, "", fmt.Errorf("insert api key: %w", err)
	}

	key := &model.APIKey{
		ID:        id,
		UserID:    userID,
		Name:      name,
		KeyPrefix: keyPrefix,
	}
	// Fetch the server-generated created_at.
	err = s.db.QueryRow(ctx, "SELECT created_at FROM api_keys WHERE id = $1", id).Scan(&key.CreatedAt)
	if err != nil {
		return nil, "", fmt.Errorf("get api key created_at: %w", err)
	}

	return key, rawKey, nil
}

// Revoke marks an API key as revoked. Revoked keys fail authentication but
// stay in the table for audit purposes.
func (s *APIKeyService) Revoke(ctx context.Context, id string) error {
	ct, err := s.db.Exec(ctx, `UPDATE api_keys SET revoked_at = now() WHERE id = $1 AND revoked_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("revoke api key: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *APIKeyService) ensureUser(ctx context.Context, email string) (string, error) {
	var userID string
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE email = $1`, email).Scan(&userID)
	if err == nil {
		return userID, nil
	}

	userID = platform.NewID()
	_, err = s.db.Exec(ctx,
		`INSERT INTO users (id, email, created_at) VALUES ($1, $2, now())`,
		userID, email,
	)
	if err != nil {
		return "", fmt.Errorf("insert user: %w", err)
	}
	return userID, nil
}
