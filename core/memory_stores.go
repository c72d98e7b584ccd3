package core

import (
	"context"
	"strings"
	"sync"
)

type MemorySessionStore struct {
	mu    sync.RWMutex
	token string
}

func NewMemorySessionStore(token string) *MemorySessionStore {
	return &MemorySessionStore{token: strings.TrimSpace(token)}
}

func (s *MemorySessionStore) Get(context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, nil
}

func (s *MemorySessionStore) Set(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = strings.TrimSpace(token)
	return nil
}

func (s *MemorySessionStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	return nil
}

type MemorySettingsStore struct {
	mu         sync.RWMutex
	credential Credential
}

func NewMemorySettingsStore(credential Credential) *MemorySettingsStore {
	return &MemorySettingsStore{credential: credential.Normalized()}
}

func (s *MemorySettingsStore) Load(context.Context) (Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.credential, nil
}

func (s *MemorySettingsStore) Save(_ context.Context, credential Credential) error {
	credential = credential.Normalized()
	if err := credential.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credential = credential
	return nil
}

// StaticSettingsProvider serves a fixed credential. Useful for hosts that
// keep the record in their own configuration.
type StaticSettingsProvider struct {
	Credential Credential
}

func (p StaticSettingsProvider) Load(context.Context) (Credential, error) {
	return p.Credential.Normalized(), nil
}
