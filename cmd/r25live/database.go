package main

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"strings"
	"time"

	persistence "github.com/goliatone/go-persistence-bun"
	r25migrations "github.com/goliatone/go-r25live/migrations"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

type databaseConfig struct {
	driver string
	server string
}

func (c databaseConfig) GetDebug() bool                { return false }
func (c databaseConfig) GetDriver() string             { return c.driver }
func (c databaseConfig) GetServer() string             { return c.server }
func (c databaseConfig) GetPingTimeout() time.Duration { return 5 * time.Second }
func (c databaseConfig) GetOtelIdentifier() string     { return "r25live" }

// driverForDSN picks postgres for postgres URLs and sqlite for anything else.
func driverForDSN(dsn string) string {
	lower := strings.ToLower(strings.TrimSpace(dsn))
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return "postgres"
	}
	return "sqlite3"
}

// openDatabase connects to dsn and applies the settings and session
// migrations for its dialect.
func openDatabase(ctx context.Context, dsn string) (*persistence.Client, error) {
	driver := driverForDSN(dsn)
	dialect, err := r25migrations.DialectForDriver(driver)
	if err != nil {
		return nil, err
	}

	sqlDB, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}
	cfg := databaseConfig{driver: driver, server: dsn}

	var client *persistence.Client
	if dialect == r25migrations.DialectPostgres {
		client, err = persistence.New(cfg, sqlDB, pgdialect.New())
	} else {
		sqlDB.SetMaxOpenConns(1)
		client, err = persistence.New(cfg, sqlDB, sqlitedialect.New())
	}
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("persistence client: %w", err)
	}

	_, err = r25migrations.Register(ctx, func(_ context.Context, target string, _ string, fsys fs.FS) error {
		if target == dialect {
			client.RegisterSQLMigrations(fsys)
		}
		return nil
	}, r25migrations.WithValidationTargets(dialect))
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("register migrations: %w", err)
	}
	if err := client.Migrate(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return client, nil
}
