package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
	"golang.org/x/oauth2"
)

// CredentialStore owns the bearer credential. Get returns (nil, nil) when no
// credential is stored.
type CredentialStore interface {
	Get(ctx context.Context) (*oauth2.Token, error)
	Set(ctx context.Context, token *oauth2.Token) error
	Clear(ctx context.Context) error
}

const credentialKey = "credential"

type MemoryCredentialStore struct {
	cache *cache.Cache
}

func NewMemoryCredentialStore() *MemoryCredentialStore {
	// Credentials without an expiry never expire; expired ones are purged
	// every minute.
	return &MemoryCredentialStore{cache: cache.New(cache.NoExpiration, time.Minute)}
}

func (s *MemoryCredentialStore) Get(_ context.Context) (*oauth2.Token, error) {
	if x, found := s.cache.Get(credentialKey); found {
		return x.(*oauth2.Token), nil
	}
	return nil, nil
}

func (s *MemoryCredentialStore) Set(_ context.Context, token *oauth2.Token) error {
	s.cache.Set(credentialKey, token, ttlFor(token))
	return nil
}

func (s *MemoryCredentialStore) Clear(_ context.Context) error {
	s.cache.Delete(credentialKey)
	return nil
}

// RedisCredentialStore shares one credential between bridge instances.
type RedisCredentialStore struct {
	rdb *redis.Client
	key string
}

func NewRedisCredentialStore(rdb *redis.Client, profile string) *RedisCredentialStore {
	return &RedisCredentialStore{
		rdb: rdb,
		key: fmt.Sprintf("forecast:credential:%s", profile),
	}
}

func (s *RedisCredentialStore) Get(ctx context.Context) (*oauth2.Token, error) {
	raw, err := s.rdb.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get credential: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(raw, &token); err != nil {
		return nil, fmt.Errorf("decode credential: %w", err)
	}
	return &token, nil
}

func (s *RedisCredentialStore) Set(ctx context.Context, token *oauth2.Token) error {
	raw, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("encode credential: %w", err)
	}

	ttl := ttlFor(token)
	if ttl < 0 {
		ttl = 0 // redis: no expiry
	}
	if err := s.rdb.Set(ctx, s.key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set credential: %w", err)
	}
	return nil
}

func (s *RedisCredentialStore) Clear(ctx context.Context) error {
	if err := s.rdb.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("redis delete credential: %w", err)
	}
	return nil
}

func ttlFor(token *oauth2.Token) time.Duration {
	if token == nil || token.Expiry.IsZero() {
		return cache.NoExpiration
	}
	if ttl := time.Until(token.Expiry); ttl > 0 {
		return ttl
	}
	// Already expired: keep it briefly so the server, not the store, decides.
	return time.Second
}
