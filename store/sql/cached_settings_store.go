package sqlstore

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/goliatone/go-r25live/core"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
)

const settingsCacheKeyPrefix = "r25live::settings::v1"

// CachedSettingsStore serves credential reads from a cache and invalidates the
// entry on every write.
type CachedSettingsStore struct {
	base    core.SettingsStore
	cache   repositorycache.CacheService
	siteKey string
}

func NewCachedSettingsStore(
	base core.SettingsStore,
	cacheService repositorycache.CacheService,
	siteKey string,
) (*CachedSettingsStore, error) {
	if base == nil {
		return nil, fmt.Errorf("sqlstore: base settings store is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("sqlstore: settings cache service is required")
	}
	return &CachedSettingsStore{
		base:    base,
		cache:   cacheService,
		siteKey: normalizeKey(siteKey, DefaultSiteKey),
	}, nil
}

// SettingsCacheKey returns r25live::settings::v1::<site_key> with the site key
// path escaped.
func SettingsCacheKey(siteKey string) string {
	return strings.Join([]string{
		settingsCacheKeyPrefix,
		url.PathEscape(normalizeKey(siteKey, DefaultSiteKey)),
	}, "::")
}

func (s *CachedSettingsStore) Load(ctx context.Context) (core.Credential, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.Credential{}, fmt.Errorf("sqlstore: cached settings store is not configured")
	}
	return repositorycache.GetOrFetch(ctx, s.cache, SettingsCacheKey(s.siteKey), func(ctx context.Context) (core.Credential, error) {
		return s.base.Load(ctx)
	})
}

func (s *CachedSettingsStore) Save(ctx context.Context, credential core.Credential) error {
	if s == nil || s.base == nil || s.cache == nil {
		return fmt.Errorf("sqlstore: cached settings store is not configured")
	}
	if err := s.base.Save(ctx, credential); err != nil {
		return err
	}
	return s.cache.Delete(ctx, SettingsCacheKey(s.siteKey))
}
