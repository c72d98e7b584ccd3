package core

import glog "github.com/goliatone/go-logger/glog"

var (
	_ SessionStore     = (*MemorySessionStore)(nil)
	_ SettingsStore    = (*MemorySettingsStore)(nil)
	_ SettingsProvider = StaticSettingsProvider{}
	_ EventsFetcher    = (*EventsRepository)(nil)
	_ EventsFetcher    = (*Service)(nil)

	_ Logger         = glog.Nop()
	_ LoggerProvider = glog.ProviderFromLogger(glog.Nop())
)
