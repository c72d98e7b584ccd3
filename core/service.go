package core

import (
	"context"
	"fmt"
	"time"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
)

// Service opens a fresh Connection for every call. Only the stored session
// token carries over between calls, so cookie jars never outlive a request.
type Service struct {
	config           Config
	logger           Logger
	loggerProvider   LoggerProvider
	metricsRecorder  MetricsRecorder
	configProvider   ConfigProvider
	optionsResolver  OptionsResolver
	cipher           Cipher
	transport        TransportAdapter
	settingsProvider SettingsProvider
	settingsWriter   SettingsWriter
	sessionStore     SessionStore
	now              func() time.Time
}

type ServiceDependencies struct {
	Logger           Logger
	LoggerProvider   LoggerProvider
	MetricsRecorder  MetricsRecorder
	ConfigProvider   ConfigProvider
	OptionsResolver  OptionsResolver
	Cipher           Cipher
	Transport        TransportAdapter
	SettingsProvider SettingsProvider
	SettingsWriter   SettingsWriter
	SessionStore     SessionStore
}

func NewService(cfg Config, opts ...Option) (*Service, error) {
	builder := defaultServiceBuilder(cfg)
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	provider, logger := glog.Resolve(DefaultServiceName, builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger(DefaultServiceName); named != nil {
			logger = glog.Ensure(named)
		}
	}

	if builder.metricsRecorder == nil {
		builder.metricsRecorder = NopMetricsRecorder{}
	}
	if builder.configProvider == nil {
		builder.configProvider = NewCfgxConfigProvider(nil)
	}
	if builder.optionsResolver == nil {
		builder.optionsResolver = GoOptionsResolver{}
	}
	if builder.now == nil {
		builder.now = time.Now
	}

	defaults := DefaultConfig()
	loaded, err := builder.configProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, mapBuildError(err)
	}
	finalConfig, err := builder.optionsResolver.Resolve(defaults, loaded, builder.runtimeConfig)
	if err != nil {
		return nil, mapBuildError(err)
	}

	if err := applyRepositoryFactory(&builder); err != nil {
		return nil, mapBuildError(err)
	}
	if builder.settingsProvider == nil {
		store := NewMemorySettingsStore(Credential{})
		builder.settingsProvider = store
		if builder.settingsWriter == nil {
			builder.settingsWriter = store
		}
	}
	if builder.settingsWriter == nil {
		if writer, ok := builder.settingsProvider.(SettingsWriter); ok {
			builder.settingsWriter = writer
		}
	}
	if builder.sessionStore == nil {
		builder.sessionStore = NewMemorySessionStore("")
	}

	return &Service{
		config:           finalConfig,
		logger:           logger,
		loggerProvider:   provider,
		metricsRecorder:  builder.metricsRecorder,
		configProvider:   builder.configProvider,
		optionsResolver:  builder.optionsResolver,
		cipher:           builder.cipher,
		transport:        builder.transport,
		settingsProvider: builder.settingsProvider,
		settingsWriter:   builder.settingsWriter,
		sessionStore:     builder.sessionStore,
		now:              builder.now,
	}, nil
}

func applyRepositoryFactory(builder *serviceBuilder) error {
	if builder.repositoryFactory == nil || (builder.settingsProvider != nil && builder.sessionStore != nil) {
		return nil
	}
	var stores StoreProvider
	switch factory := builder.repositoryFactory.(type) {
	case RepositoryStoreFactory:
		built, err := factory.BuildStores(builder.persistenceClient)
		if err != nil {
			return err
		}
		stores = built
	case StoreProvider:
		stores = factory
	default:
		return fmt.Errorf("core: unsupported repository factory %T", builder.repositoryFactory)
	}
	if stores == nil {
		return nil
	}
	if builder.settingsProvider == nil {
		settings := stores.SettingsStore()
		builder.settingsProvider = settings
		if builder.settingsWriter == nil {
			builder.settingsWriter = settings
		}
	}
	if builder.sessionStore == nil {
		builder.sessionStore = stores.SessionStore()
	}
	return nil
}

func mapBuildError(err error) error {
	if err == nil {
		return nil
	}
	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		return rich
	}
	return goerrors.Wrap(err, goerrors.CategoryBadInput, "r25live: service build failed").
		WithTextCode(ErrorConfigurationInvalid)
}

func (s *Service) Config() Config {
	if s == nil {
		return Config{}
	}
	return s.config
}

func (s *Service) Dependencies() ServiceDependencies {
	if s == nil {
		return ServiceDependencies{}
	}
	return ServiceDependencies{
		Logger:           s.logger,
		LoggerProvider:   s.loggerProvider,
		MetricsRecorder:  s.metricsRecorder,
		ConfigProvider:   s.configProvider,
		OptionsResolver:  s.optionsResolver,
		Cipher:           s.cipher,
		Transport:        s.transport,
		SettingsProvider: s.settingsProvider,
		SettingsWriter:   s.settingsWriter,
		SessionStore:     s.sessionStore,
	}
}

func (s *Service) EventsWindow() EventsWindow {
	return EventsWindowFromConfig(s.Config().Events)
}

func (s *Service) ListEvents(ctx context.Context, params map[string]string) []EventRecord {
	return s.FetchEvents(ctx, params).Events
}

func (s *Service) FetchEvents(ctx context.Context, params map[string]string) EventsResult {
	if ctx == nil {
		ctx = context.Background()
	}
	startedAt := time.Now()

	var result EventsResult
	if conn, err := s.openConnection(ctx); err != nil {
		result = EventsResult{Events: []EventRecord{}, Status: StatusFromError(err)}
	} else {
		result = NewEventsRepository(conn, s.logger, s.config.Location()).FetchEvents(ctx, params)
	}
	s.observeOperation(ctx, startedAt, "events_list", result.Status, map[string]any{
		"events":   len(result.Events),
		"attempts": result.Attempts,
		"relogins": result.Relogins,
	})
	return result
}

func (s *Service) ListUpcomingEvents(ctx context.Context, now time.Time) []EventRecord {
	return s.FetchUpcomingEvents(ctx, now).Events
}

// FetchUpcomingEvents lists the configured window starting on the day of
// now. A zero now uses the service clock.
func (s *Service) FetchUpcomingEvents(ctx context.Context, now time.Time) EventsResult {
	if now.IsZero() {
		now = s.now()
	}
	now = now.In(s.config.Location())
	return s.FetchEvents(ctx, UpcomingEventsParameters(now, s.EventsWindow()))
}

// Login forces a new handshake and returns the resulting status.
func (s *Service) Login(ctx context.Context) RequestStatus {
	if ctx == nil {
		ctx = context.Background()
	}
	startedAt := time.Now()

	var status RequestStatus
	conn, err := s.buildConnection()
	if err != nil {
		status = StatusFromError(err)
	} else {
		conn.Login(ctx)
		status = conn.Status()
	}
	s.observeOperation(ctx, startedAt, "session_login", status, nil)
	return status
}

func (s *Service) ClearSession(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	startedAt := time.Now()

	err := s.sessionStore.Clear(ctx)
	if err != nil {
		err = InternalError(err, "failed to clear session")
	}
	s.observeOperation(ctx, startedAt, "session_clear", StatusFromError(err), nil)
	return err
}

func (s *Service) SaveSettings(ctx context.Context, input SaveSettingsInput) (Credential, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	startedAt := time.Now()

	settings, err := NewSettingsService(s.settingsProvider, s.settingsWriter, s.sessionStore, s.cipher)
	if err != nil {
		err = ConfigurationError(err.Error(), StatusMissingOrganization)
		s.observeOperation(ctx, startedAt, "settings_save", StatusFromError(err), nil)
		return Credential{}, err
	}
	credential, err := settings.SaveSettings(ctx, input)
	s.observeOperation(ctx, startedAt, "settings_save", StatusFromError(err), map[string]any{
		"username": credential.Username,
	})
	return credential, err
}

// openConnection seeds a new connection with the stored session, logging in
// when there is none.
func (s *Service) openConnection(ctx context.Context) (*Connection, error) {
	conn, err := s.buildConnection()
	if err != nil {
		return nil, err
	}
	if !conn.IsLoggedIn(ctx) {
		conn.Login(ctx)
	}
	return conn, nil
}

func (s *Service) buildConnection() (*Connection, error) {
	conn, err := newConnection(s.config, ConnectionDependencies{
		Settings:  s.settingsProvider,
		Sessions:  s.sessionStore,
		Cipher:    s.cipher,
		Transport: s.transport,
		Logger:    s.logger,
	})
	if err != nil {
		return nil, InternalError(err, "failed to build 25Live connection")
	}
	return conn, nil
}
