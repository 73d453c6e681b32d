package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/eventhub/eventhub-backend/internal/config"
	"github.com/eventhub/eventhub-backend/internal/security"
)

const revocationKeyPrefix = "revoked:"

// RevocationStore tracks logged-out tokens until they expire on their own.
// A nil store disables revocation; logout then only clears client state.
type RevocationStore struct {
	client *redis.Client
}

// NewRevocationStore connects to redis, or returns nil when no address is
// configured.
func NewRevocationStore(cfg config.RedisConfig) *RevocationStore {
	if cfg.Addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &RevocationStore{client: client}
}

// Revoke marks a token unusable for its remaining lifetime. Tokens past
// their expiry need no entry; validation rejects them anyway.
func (s *RevocationStore) Revoke(ctx context.Context, token string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	key := revocationKeyPrefix + security.FingerprintToken(token)
	return s.client.Set(ctx, key, "1", ttl).Err()
}

// IsRevoked reports whether the token was revoked. Redis errors fail open:
// an unreachable store must not lock every user out.
func (s *RevocationStore) IsRevoked(ctx context.Context, token string) bool {
	key := revocationKeyPrefix + security.FingerprintToken(token)
	n, errExists := s.client.Exists(ctx, key).Result()
	if errExists != nil {
		return false
	}
	return n > 0
}

// Close releases the redis connection.
func (s *RevocationStore) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}
