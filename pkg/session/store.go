// Package session keeps per-conversation state between webhook calls.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"skypeconnector/pkg/config"
)

const (
	DriverMemory = "memory"
	DriverRedis  = "redis"

	defaultTTL = 24 * time.Hour
	keyPrefix  = "skypeconnector:last_question:"
)

// Store remembers the last question each conversation sent to the backend.
type Store interface {
	LastQuestion(ctx context.Context, conversationKey string) (string, error)
	SetLastQuestion(ctx context.Context, conversationKey string, question string) error
	Close() error
}

// New builds the store selected by cfg.Driver.
func New(cfg config.SessionConfig) (Store, error) {
	ttl := defaultTTL
	if cfg.TTLSeconds > 0 {
		ttl = time.Duration(cfg.TTLSeconds) * time.Second
	}

	switch driver := strings.ToLower(strings.TrimSpace(cfg.Driver)); driver {
	case "", DriverMemory:
		return NewMemoryStore(ttl), nil
	case DriverRedis:
		if strings.TrimSpace(cfg.Redis.Addr) == "" {
			return nil, errors.New("session.redis.addr is required for the redis driver")
		}
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		return NewRedisStore(client, ttl), nil
	default:
		return nil, fmt.Errorf("unsupported session driver: %s", driver)
	}
}

type memoryEntry struct {
	question  string
	expiresAt time.Time
}

// MemoryStore is a process-local Store. Expired entries are evicted on read
// and swept on every write.
type MemoryStore struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.RWMutex
	entries map[string]memoryEntry
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, now: time.Now, entries: make(map[string]memoryEntry)}
}

func (s *MemoryStore) LastQuestion(_ context.Context, conversationKey string) (string, error) {
	s.mu.RLock()
	entry, ok := s.entries[conversationKey]
	s.mu.RUnlock()

	if !ok {
		return "", nil
	}
	if s.now().After(entry.expiresAt) {
		s.mu.Lock()
		if current, ok := s.entries[conversationKey]; ok && s.now().After(current.expiresAt) {
			delete(s.entries, conversationKey)
		}
		s.mu.Unlock()
		return "", nil
	}
	return entry.question, nil
}

func (s *MemoryStore) SetLastQuestion(_ context.Context, conversationKey string, question string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for key, entry := range s.entries {
		if now.After(entry.expiresAt) {
			delete(s.entries, key)
		}
	}
	s.entries[conversationKey] = memoryEntry{question: question, expiresAt: now.Add(s.ttl)}
	return nil
}

func (s *MemoryStore) Close() error { return nil }

// RedisStore shares state across gateway replicas.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) LastQuestion(ctx context.Context, conversationKey string) (string, error) {
	question, err := s.client.Get(ctx, redisKey(conversationKey)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read last question: %w", err)
	}
	return question, nil
}

func (s *RedisStore) SetLastQuestion(ctx context.Context, conversationKey string, question string) error {
	if err := s.client.Set(ctx, redisKey(conversationKey), question, s.ttl).Err(); err != nil {
		return fmt.Errorf("store last question: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func redisKey(conversationKey string) string {
	return keyPrefix + strings.TrimSpace(conversationKey)
}
