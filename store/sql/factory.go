package sqlstore

import (
	"fmt"

	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/goliatone/go-r25live/core"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
	"github.com/uptrace/bun"
)

type FactoryOption func(*RepositoryFactory)

// WithSiteKey selects the settings row, so several sites can share one
// database.
func WithSiteKey(siteKey string) FactoryOption {
	return func(f *RepositoryFactory) {
		f.siteKey = siteKey
	}
}

func WithScopeKey(scopeKey string) FactoryOption {
	return func(f *RepositoryFactory) {
		f.scopeKey = scopeKey
	}
}

// WithSettingsCache fronts settings reads with the given cache service.
func WithSettingsCache(cacheService repositorycache.CacheService) FactoryOption {
	return func(f *RepositoryFactory) {
		f.cache = cacheService
	}
}

type RepositoryFactory struct {
	db *bun.DB

	siteKey  string
	scopeKey string
	cache    repositorycache.CacheService

	settingsStore core.SettingsStore
	sessionStore  *SessionStore
}

func NewRepositoryFactory(opts ...FactoryOption) *RepositoryFactory {
	factory := &RepositoryFactory{
		siteKey:  DefaultSiteKey,
		scopeKey: DefaultScopeKey,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(factory)
		}
	}
	return factory
}

func NewRepositoryFactoryFromPersistence(client *persistence.Client, opts ...FactoryOption) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory(opts...)
	if _, err := factory.BuildStores(client); err != nil {
		return nil, err
	}
	return factory, nil
}

func NewRepositoryFactoryFromDB(db *bun.DB, opts ...FactoryOption) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory(opts...)
	if _, err := factory.BuildStores(db); err != nil {
		return nil, err
	}
	return factory, nil
}

func (f *RepositoryFactory) BuildStores(persistenceClient any) (core.StoreProvider, error) {
	if f == nil {
		return nil, fmt.Errorf("sqlstore: repository factory is nil")
	}
	if f.db == nil {
		db, err := resolveBunDB(persistenceClient)
		if err != nil {
			return nil, err
		}
		f.db = db
	}
	if f.settingsStore != nil && f.sessionStore != nil {
		return f, nil
	}
	if err := f.initStores(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *RepositoryFactory) SettingsStore() core.SettingsStore {
	if f == nil {
		return nil
	}
	return f.settingsStore
}

func (f *RepositoryFactory) SessionStore() core.SessionStore {
	if f == nil || f.sessionStore == nil {
		return nil
	}
	return f.sessionStore
}

func (f *RepositoryFactory) DB() *bun.DB {
	if f == nil {
		return nil
	}
	return f.db
}

func (f *RepositoryFactory) initStores() error {
	settings, err := NewSettingsStore(f.db, f.siteKey)
	if err != nil {
		return err
	}
	sessions, err := NewSessionStore(f.db, f.scopeKey)
	if err != nil {
		return err
	}

	f.settingsStore = settings
	if f.cache != nil {
		cached, err := NewCachedSettingsStore(settings, f.cache, f.siteKey)
		if err != nil {
			return err
		}
		f.settingsStore = cached
	}
	f.sessionStore = sessions
	return nil
}

func resolveBunDB(candidate any) (*bun.DB, error) {
	switch typed := candidate.(type) {
	case nil:
		return nil, fmt.Errorf("sqlstore: persistence client is required")
	case *bun.DB:
		return typed, nil
	case interface{ DB() *bun.DB }:
		db := typed.DB()
		if db == nil {
			return nil, fmt.Errorf("sqlstore: persistence client returned nil bun db")
		}
		return db, nil
	default:
		return nil, fmt.Errorf("sqlstore: unsupported persistence client type %T", candidate)
	}
}
