package sqlstore

import "github.com/goliatone/go-r25live/core"

var (
	_ core.SettingsStore          = (*SettingsStore)(nil)
	_ core.SettingsStore          = (*CachedSettingsStore)(nil)
	_ core.SessionStore           = (*SessionStore)(nil)
	_ core.StoreProvider          = (*RepositoryFactory)(nil)
	_ core.RepositoryStoreFactory = (*RepositoryFactory)(nil)
)
