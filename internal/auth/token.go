package auth

import (
	"context"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const tokenPrefix = "token:"

// TokenStore wraps Redis for bearer token management. Tokens are opaque
// uuid strings mapped to the user's email (the session identifier the rest
// of the service resolves users by). No TTL is set: a token stays valid
// until logout revokes it, and a user may hold several at once.
type TokenStore struct {
	rdb *redis.Client
}

func NewTokenStore(rdb *redis.Client) *TokenStore {
	return &TokenStore{rdb: rdb}
}

// Create mints a new token bound to the user's email.
func (s *TokenStore) Create(ctx context.Context, email string) (string, error) {
	tok := uuid.New().String()
	err := s.rdb.Set(ctx, tokenPrefix+tok, email, 0).Err()
	return tok, err
}

// Lookup returns the email a token is bound to, or "" if unknown.
func (s *TokenStore) Lookup(ctx context.Context, token string) (string, error) {
	val, err := s.rdb.Get(ctx, tokenPrefix+token).Result()
	if err == redis.Nil {
		return "", nil
	}
	return val, err
}

// Revoke deletes a token. Returns false when no such token existed.
func (s *TokenStore) Revoke(ctx context.Context, token string) (bool, error) {
	n, err := s.rdb.Del(ctx, tokenPrefix+token).Result()
	return n > 0, err
}
