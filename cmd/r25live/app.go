package main

import (
	"context"
	"fmt"
	"io"
	"os"

	gocmd "github.com/goliatone/go-command"
	glog "github.com/goliatone/go-logger/glog"
	r25live "github.com/goliatone/go-r25live"
	"github.com/goliatone/go-r25live/adapters/gocommand"
	"github.com/goliatone/go-r25live/adapters/gologger"
	"github.com/goliatone/go-r25live/core"
	redisstore "github.com/goliatone/go-r25live/store/redis"
	"github.com/redis/go-redis/v9"
	"gopkg.in/yaml.v3"
)

type app struct {
	cfg     core.Config
	logger  glog.Logger
	service *r25live.Service
	client  *r25live.Client
	redis   *redis.Client

	closers []func()
}

func newApp(ctx context.Context, global globalFlags, logOutput io.Writer) (*app, error) {
	logger := gologger.NewLogger(global.logLevel, global.logFormat, logOutput)
	a := &app{logger: logger}

	raw, err := loadRawConfig(global.configPath)
	if err != nil {
		return nil, err
	}
	provider := core.NewCfgxConfigProvider(core.StaticRawConfigLoader{Values: raw})
	cfg, err := provider.Load(ctx, core.DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	a.cfg = cfg

	opts := []r25live.Option{
		r25live.WithLogger(logger),
		r25live.WithLoggerProvider(logger),
		r25live.WithConfigProvider(provider),
	}
	if global.dsn != "" {
		db, err := openDatabase(ctx, global.dsn)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = db.Close() })
		opts = append(opts, r25live.WithBunDB(db.DB()))
	}
	if global.redisAddr != "" {
		redisClient, err := redisstore.Connect(ctx, global.redisAddr, global.redisPassword)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = redisClient.Close() })
		a.redis = redisClient
		sessions, err := redisstore.NewSessionStore(redisClient)
		if err != nil {
			a.Close()
			return nil, err
		}
		opts = append(opts, r25live.WithSessionStore(sessions))
	}

	service, err := r25live.NewService(cfg, opts...)
	if err != nil {
		a.Close()
		return nil, err
	}
	client, err := r25live.NewClient(service)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.service = service
	a.client = client

	registry := gocommand.NewRegistryAdapter(gocmd.NewRegistry())
	subscriptions, err := gocommand.RegisterHandlers(registry, client.Handlers())
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("register handlers: %w", err)
	}
	a.closers = append(a.closers, subscriptions.Unsubscribe)
	if err := registry.Initialize(); err != nil {
		a.Close()
		return nil, fmt.Errorf("initialize handlers: %w", err)
	}
	return a, nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// loadRawConfig reads a YAML file into the raw map handed to cfgx. An empty
// path yields an empty map so defaults apply.
func loadRawConfig(path string) (map[string]any, error) {
	if path == "" {
		return map[string]any{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	raw := map[string]any{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return raw, nil
}
