package otp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

var ErrCodeNotFound = errors.New("no outstanding code")

// Entry is one outstanding code. Hash is the bcrypt hash of the code.
type Entry struct {
	Hash      string    `json:"hash"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Store keeps at most one entry per key. Set overwrites.
type Store interface {
	Set(ctx context.Context, key string, entry Entry, ttl time.Duration) error
	Get(ctx context.Context, key string) (*Entry, error)
	Delete(ctx context.Context, key string) error
}

type memoryStore struct {
	cache *cache.Cache
}

// NewMemoryStore keeps codes in process. Codes do not survive a restart.
func NewMemoryStore(cleanupInterval time.Duration) Store {
	return &memoryStore{
		cache: cache.New(cache.NoExpiration, cleanupInterval),
	}
}

func (s *memoryStore) Set(_ context.Context, key string, entry Entry, ttl time.Duration) error {
	s.cache.Set(key, entry, ttl)
	return nil
}

func (s *memoryStore) Get(_ context.Context, key string) (*Entry, error) {
	v, ok := s.cache.Get(key)
	if !ok {
		return nil, ErrCodeNotFound
	}
	entry := v.(Entry)
	return &entry, nil
}

func (s *memoryStore) Delete(_ context.Context, key string) error {
	s.cache.Delete(key)
	return nil
}

type redisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore shares codes between API instances.
func NewRedisStore(client *redis.Client) Store {
	return &redisStore{client: client, prefix: "otp:"}
}

func (s *redisStore) Set(ctx context.Context, key string, entry Entry, ttl time.Duration) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal otp entry: %w", err)
	}
	if err := s.client.Set(ctx, s.prefix+key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store otp: %w", err)
	}
	return nil
}

func (s *redisStore) Get(ctx context.Context, key string) (*Entry, error) {
	payload, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCodeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load otp: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(payload, &entry); err != nil {
		return nil, fmt.Errorf("failed to decode otp entry: %w", err)
	}
	return &entry, nil
}

func (s *redisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("failed to delete otp: %w", err)
	}
	return nil
}
