// Package redisstore keeps the 25Live session token in Redis so several
// processes can share one login.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultKeyPrefix = "r25live:session:"
	DefaultScope     = "default"
)

type Option func(*SessionStore)

func WithScope(scope string) Option {
	return func(s *SessionStore) {
		if trimmed := strings.TrimSpace(scope); trimmed != "" {
			s.scope = trimmed
		}
	}
}

func WithKeyPrefix(prefix string) Option {
	return func(s *SessionStore) {
		if trimmed := strings.TrimSpace(prefix); trimmed != "" {
			s.prefix = trimmed
		}
	}
}

// WithTTL expires stored sessions after ttl. Zero keeps them until cleared.
func WithTTL(ttl time.Duration) Option {
	return func(s *SessionStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

type SessionStore struct {
	client redis.Cmdable
	prefix string
	scope  string
	ttl    time.Duration
	now    func() time.Time
}

type sessionEntry struct {
	Token   string    `json:"token"`
	SavedAt time.Time `json:"saved_at"`
}

func NewSessionStore(client redis.Cmdable, opts ...Option) (*SessionStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redisstore: client is required")
	}
	store := &SessionStore{
		client: client,
		prefix: DefaultKeyPrefix,
		scope:  DefaultScope,
		now:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}
	return store, nil
}

// Connect dials addr and verifies it with a ping.
func Connect(ctx context.Context, addr string, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redisstore: ping %s: %w", addr, err)
	}
	return client, nil
}

func (s *SessionStore) Key() string {
	return s.prefix + s.scope
}

func (s *SessionStore) Get(ctx context.Context) (string, error) {
	raw, err := s.client.Get(ctx, s.Key()).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("redisstore: get session: %w", err)
	}
	var entry sessionEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return "", fmt.Errorf("redisstore: decode session: %w", err)
	}
	return entry.Token, nil
}

// Set stores token under the scope key. An empty token clears the session.
func (s *SessionStore) Set(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return s.Clear(ctx)
	}
	data, err := json.Marshal(sessionEntry{Token: token, SavedAt: s.now().UTC()})
	if err != nil {
		return fmt.Errorf("redisstore: encode session: %w", err)
	}
	if err := s.client.Set(ctx, s.Key(), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redisstore: set session: %w", err)
	}
	return nil
}

func (s *SessionStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.Key()).Err(); err != nil {
		return fmt.Errorf("redisstore: clear session: %w", err)
	}
	return nil
}
