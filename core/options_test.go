package core

import (
	"context"
	"strings"
	"testing"
	"time"
)

type fixedConfigProvider struct {
	cfg Config
}

func (p *fixedConfigProvider) Load(context.Context, Config) (Config, error) {
	return p.cfg, nil
}

type fixedOptionsResolver struct {
	cfg Config
}

func (r *fixedOptionsResolver) Resolve(Config, Config, Config) (Config, error) {
	return r.cfg, nil
}

type mapRawLoader struct {
	values map[string]any
}

func (l mapRawLoader) LoadRaw(context.Context) (map[string]any, error) {
	return StaticRawConfigLoader{Values: l.values}.LoadRaw(context.Background())
}

func newTestService(t *testing.T, baseURL string, opts ...Option) *Service {
	t.Helper()
	base := []Option{
		WithSettingsStore(NewMemorySettingsStore(testCredential())),
		WithCipher(&prefixCipher{}),
		WithTransport(&httpTestTransport{}),
	}
	svc, err := NewService(Config{BaseURL: baseURL}, append(base, opts...)...)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestNewService_DefaultDependencies(t *testing.T) {
	svc, err := NewService(Config{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	deps := svc.Dependencies()
	if deps.Logger == nil {
		t.Fatalf("expected default logger")
	}
	if deps.LoggerProvider == nil {
		t.Fatalf("expected default logger provider")
	}
	if deps.ConfigProvider == nil || deps.OptionsResolver == nil {
		t.Fatalf("expected default config provider and resolver")
	}
	if deps.SessionStore == nil || deps.SettingsProvider == nil || deps.SettingsWriter == nil {
		t.Fatalf("expected memory stores by default")
	}
	if got := svc.Config().ServiceName; got != "r25live" {
		t.Fatalf("expected default config service_name=r25live, got %q", got)
	}
	if got := svc.Config().BaseURL; got != DefaultBaseURL {
		t.Fatalf("expected default base url, got %q", got)
	}
}

func TestNewService_WithXOverrides(t *testing.T) {
	customLogger := stubLogger{}
	customProvider := stubLoggerProvider{logger: customLogger}
	configProvider := &fixedConfigProvider{cfg: Config{ServiceName: "from-provider"}}
	resolved := DefaultConfig()
	resolved.ServiceName = "resolved"
	optionsResolver := &fixedOptionsResolver{cfg: resolved}
	sessions := NewMemorySessionStore("")

	svc, err := NewService(Config{ServiceName: "runtime"},
		WithLogger(customLogger),
		WithLoggerProvider(customProvider),
		WithConfigProvider(configProvider),
		WithOptionsResolver(optionsResolver),
		WithSessionStore(sessions),
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if svc.Config().ServiceName != "resolved" {
		t.Fatalf("expected resolver output, got %q", svc.Config().ServiceName)
	}
	deps := svc.Dependencies()
	if deps.SessionStore != SessionStore(sessions) {
		t.Fatalf("expected injected session store")
	}
	if deps.ConfigProvider != ConfigProvider(configProvider) {
		t.Fatalf("expected injected config provider")
	}
}

func TestNewService_LayersDefaultsLoadedAndRuntime(t *testing.T) {
	loader := mapRawLoader{values: map[string]any{
		"timezone": "America/New_York",
		"events": map[string]any{
			"window_days": 7,
		},
	}}
	svc, err := NewService(Config{BaseURL: "https://example.test/r25ws/wrd"},
		WithConfigProvider(NewCfgxConfigProvider(loader)),
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	cfg := svc.Config()
	if cfg.BaseURL != "https://example.test/r25ws/wrd" {
		t.Fatalf("expected runtime base url, got %q", cfg.BaseURL)
	}
	if cfg.Timezone != "America/New_York" || cfg.Events.WindowDays != 7 {
		t.Fatalf("expected loaded values, got %+v", cfg)
	}
	if cfg.Events.Scope != "extended" || cfg.SessionCookiePrefix != DefaultSessionCookiePrefix {
		t.Fatalf("expected defaults to survive, got %+v", cfg)
	}
}

func TestNewService_InvalidConfig(t *testing.T) {
	if _, err := NewService(Config{BaseURL: "not a url"}); err == nil {
		t.Fatalf("expected invalid base url error")
	}
}

func TestService_FetchUpcomingEventsUsesWindow(t *testing.T) {
	fake, server := newFakeR25(t)
	fake.accept("WSSESSIONID=stored")
	svc := newTestService(t, server.URL, WithSessionStore(NewMemorySessionStore("WSSESSIONID=stored")))

	now := time.Date(2024, time.March, 4, 12, 0, 0, 0, time.UTC)
	events := svc.ListUpcomingEvents(context.Background(), now)
	if len(events) != 2 {
		t.Fatalf("expected two events, got %d", len(events))
	}
	if fake.lastQuery.Get("start_dt") != "20240304" || fake.lastQuery.Get("end_dt") != "20240307" {
		t.Fatalf("unexpected window %v", fake.lastQuery)
	}
	if fake.lastQuery.Get("event_type_id") != "22+29+33+41+44+43" {
		t.Fatalf("unexpected event types %q", fake.lastQuery.Get("event_type_id"))
	}
}

func TestService_LoginAndClearSession(t *testing.T) {
	fake, server := newFakeR25(t)
	sessions := NewMemorySessionStore("")
	svc := newTestService(t, server.URL, WithSessionStore(sessions))

	if status := svc.Login(context.Background()); status.Error {
		t.Fatalf("expected login success, got %+v", status)
	}
	if token, _ := sessions.Get(context.Background()); token == "" {
		t.Fatalf("expected stored session")
	}
	if err := svc.ClearSession(context.Background()); err != nil {
		t.Fatalf("clear session: %v", err)
	}
	if token, _ := sessions.Get(context.Background()); token != "" {
		t.Fatalf("expected cleared session, got %q", token)
	}

	events := svc.ListEvents(context.Background(), nil)
	if len(events) != 2 {
		t.Fatalf("expected events after implicit login, got %d", len(events))
	}
	_, posts, _ := fake.counts()
	if posts != 2 {
		t.Fatalf("expected a second login after clearing the session, got %d", posts)
	}
}

func TestService_SaveSettingsClearsStoredSession(t *testing.T) {
	_, server := newFakeR25(t)
	store := NewMemorySettingsStore(Credential{})
	sessions := NewMemorySessionStore("WSSESSIONID=stale")
	svc, err := NewService(Config{BaseURL: server.URL},
		WithSettingsStore(store),
		WithSessionStore(sessions),
		WithCipher(&prefixCipher{}),
		WithTransport(&httpTestTransport{}),
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	credential, err := svc.SaveSettings(context.Background(), SaveSettingsInput{
		Username:         testUsername,
		Password:         testPassword,
		OrganizationCode: testOrganization,
	})
	if err != nil {
		t.Fatalf("save settings: %v", err)
	}
	if credential.EncryptionKey == "" {
		t.Fatalf("expected generated key")
	}
	if token, _ := sessions.Get(context.Background()); token != "" {
		t.Fatalf("expected session cleared after save, got %q", token)
	}
	if events := svc.ListEvents(context.Background(), nil); len(events) != 2 {
		t.Fatalf("expected events with new credentials, got %d", len(events))
	}
}

func TestService_CookieJarDoesNotGrowAcrossCalls(t *testing.T) {
	fake, server := newFakeR25(t)
	fake.accept("WSSESSIONID=stored")
	fake.rotate = true
	svc := newTestService(t, server.URL, WithSessionStore(NewMemorySessionStore("WSSESSIONID=stored")))

	for i := 0; i < 25; i++ {
		if events := svc.ListEvents(context.Background(), nil); len(events) != 2 {
			t.Fatalf("call %d: expected two events, got %d", i, len(events))
		}
	}
	_, posts, reservations := fake.counts()
	if posts != 0 || reservations != 25 {
		t.Fatalf("expected 25 requests without login, got posts=%d reservations=%d", posts, reservations)
	}
	if got := strings.Count(fake.lastCookie, "WSSESSIONID="); got != 1 {
		t.Fatalf("expected a single session cookie, got %q", fake.lastCookie)
	}
}

func TestService_MissingTransportReportsStatus(t *testing.T) {
	svc, err := NewService(Config{}, WithCipher(&prefixCipher{}))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	result := svc.FetchEvents(context.Background(), nil)
	if !result.Failed() || len(result.Events) != 0 {
		t.Fatalf("expected failure without transport, got %+v", result)
	}
}

func TestGoOptionsResolver_RuntimeWins(t *testing.T) {
	defaults := DefaultConfig()
	loaded := Config{Timezone: "Europe/Paris", Refresh: RefreshConfig{Schedule: "@hourly"}}
	runtime := Config{Timezone: "UTC", RequestTimeoutSeconds: 5}

	resolved, err := GoOptionsResolver{}.Resolve(defaults, loaded, runtime)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.Timezone != "UTC" || resolved.RequestTimeoutSeconds != 5 {
		t.Fatalf("expected runtime overrides, got %+v", resolved)
	}
	if resolved.Refresh.Schedule != "@hourly" || resolved.Refresh.TTLSeconds != DefaultRefreshTTLSeconds {
		t.Fatalf("expected loaded schedule with default ttl, got %+v", resolved.Refresh)
	}
	if resolved.RequestTimeout() != 5*time.Second {
		t.Fatalf("unexpected timeout %s", resolved.RequestTimeout())
	}
}

func TestConfigValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("expected defaults to validate: %v", err)
	}
	cfg := DefaultConfig()
	cfg.Timezone = "Mars/Olympus"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected invalid timezone error")
	}
	cfg = DefaultConfig()
	cfg.Events.WindowDays = 0
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected invalid window error")
	}
}
