package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"time"

	"github.com/civicgraph/backend/internal/domain"
	"github.com/civicgraph/backend/internal/repository"
	"github.com/civicgraph/backend/pkg/crypto"
	"github.com/google/uuid"
)

// APIKeyService issues and authenticates API keys for tiers with API
// access. Keys are stored AES-GCM encrypted; lookup uses a SHA-256
// digest so the plaintext never has to leave the row encrypted form.
type APIKeyService struct {
	entitlements *EntitlementService
	keys         *repository.APIKeyRepository
	encryptor    *crypto.Encryptor
}

// NewAPIKeyService creates an APIKeyService.
func NewAPIKeyService(entitlements *EntitlementService, keys *repository.APIKeyRepository, encryptor *crypto.Encryptor) *APIKeyService {
	return &APIKeyService{
		entitlements: entitlements,
		keys:         keys,
		encryptor:    encryptor,
	}
}

// CreatedKey is returned once at creation time with the plaintext key.
type CreatedKey struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Key       string    `json:"key"` // shown only on creation
	CreatedAt time.Time `json:"createdAt"`
}

// CreateKey issues a new API key, gated by the api_call entitlement.
func (s *APIKeyService) CreateKey(ctx context.Context, userID, name string) (*CreatedKey, domain.Decision, error) {
	decision, err := s.entitlements.CheckPermission(ctx, userID, domain.ActionAPICall)
	if err != nil {
		return nil, domain.Decision{}, err
	}
	if !decision.Allowed {
		return nil, decision, nil
	}

	raw := make([]byte, 24)
	if _, err := rand.Read(raw); err != nil {
		return nil, domain.Decision{}, fmt.Errorf("failed to generate key: %w", err)
	}
	plaintext := "cg_" + hex.EncodeToString(raw)

	encrypted, err := s.encryptor.Encrypt([]byte(plaintext))
	if err != nil {
		return nil, domain.Decision{}, fmt.Errorf("failed to encrypt key: %w", err)
	}

	key := &repository.APIKey{
		ID:           uuid.New().String(),
		UserID:       userID,
		Name:         name,
		KeyDigest:    digest(plaintext),
		KeyEncrypted: encrypted,
		CreatedAt:    time.Now(),
	}
	if err := s.keys.Insert(ctx, key); err != nil {
		return nil, domain.Decision{}, err
	}

	return &CreatedKey{
		ID:        key.ID,
		Name:      key.Name,
		Key:       plaintext,
		CreatedAt: key.CreatedAt,
	}, decision, nil
}

// Authenticate resolves an API key to its owner and re-checks the
// api_call entitlement, so a downgraded plan loses API access even with
// a valid key.
func (s *APIKeyService) Authenticate(ctx context.Context, rawKey string) (string, domain.Decision, error) {
	if rawKey == "" {
		return "", domain.Decision{}, domain.ErrUnauthorized("api key required")
	}

	key, err := s.keys.FindByDigest(ctx, digest(rawKey))
	if err != nil {
		return "", domain.Decision{}, err
	}
	if key == nil {
		return "", domain.Decision{}, domain.ErrUnauthorized("invalid api key")
	}

	decision, err := s.entitlements.CheckPermission(ctx, key.UserID, domain.ActionAPICall)
	if err != nil {
		return "", domain.Decision{}, err
	}
	if !decision.Allowed {
		return "", decision, nil
	}

	if err := s.keys.TouchLastUsed(ctx, key.ID); err != nil {
		log.Printf("apikey: failed to record key use: %v", err)
	}
	return key.UserID, decision, nil
}

// ListKeys returns the user's keys without plaintext material.
func (s *APIKeyService) ListKeys(ctx context.Context, userID string) ([]*repository.APIKey, error) {
	return s.keys.ListByUser(ctx, userID)
}

// DeleteKey removes one of the user's keys.
func (s *APIKeyService) DeleteKey(ctx context.Context, id, userID string) error {
	return s.keys.Delete(ctx, id, userID)
}

func digest(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}
