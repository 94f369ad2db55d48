/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/uptrace/bun"
)

var supportedTypes = []string{TypeMySQL, TypePostgres, TypeSQLite}

// BaseDatabaseFactory creates and manages a configured database manager and
// provides helpers for initialization, health checks, and statistics.
type BaseDatabaseFactory struct {
	manager AbstractDatabaseManager
	logger  Logger
}

// NewDatabaseFactory returns a new database factory using the package logger.
func NewDatabaseFactory() *BaseDatabaseFactory {
	return &BaseDatabaseFactory{
		logger: GetLogger(),
	}
}

// CreateFromConfig constructs a database manager from cfg after applying
// environment overrides.
func (f *BaseDatabaseFactory) CreateFromConfig(cfg *Config) (AbstractDatabaseManager, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database configuration cannot be empty")
	}

	f.overrideFromEnv(&cfg.ConnectionConfig)

	if _, ok := lookupDialect(cfg.ConnectionConfig.Type); !ok {
		return nil, fmt.Errorf("unsupported database type: %s, supported types: %v", cfg.ConnectionConfig.Type, supportedTypes)
	}

	manager := NewDatabaseManager(cfg)
	manager.SetLogger(f.logger)

	f.manager = manager
	return manager, nil
}

// envOverrides lists the DB_* variables applied over the configuration.
// A variable that is unset, empty or unparsable leaves the field alone.
// Durations are whole seconds unless the name says otherwise.
var envOverrides = []struct {
	key   string
	apply func(c *ConnectionConfig, v string) error
}{
	{"DB_TYPE", func(c *ConnectionConfig, v string) error { c.Type = strings.ToLower(v); return nil }},
	{"DB_HOST", func(c *ConnectionConfig, v string) error { c.Host = v; return nil }},
	{"DB_PORT", intField(func(c *ConnectionConfig, n int) { c.Port = n })},
	{"DB_USERNAME", func(c *ConnectionConfig, v string) error { c.Username = v; return nil }},
	{"DB_PASSWORD", func(c *ConnectionConfig, v string) error { c.Password = v; return nil }},
	{"DB_NAME", func(c *ConnectionConfig, v string) error { c.DBName = v; return nil }},
	{"DB_SSLMODE", func(c *ConnectionConfig, v string) error { c.SSLMode = v; return nil }},
	{"DB_MAX_IDLE_CONNS", intField(func(c *ConnectionConfig, n int) { c.MaxIdleConns = n })},
	{"DB_MAX_OPEN_CONNS", intField(func(c *ConnectionConfig, n int) { c.MaxOpenConns = n })},
	{"DB_CONN_MAX_LIFETIME", intField(func(c *ConnectionConfig, n int) { c.ConnMaxLifetime = time.Duration(n) * time.Second })},
	{"DB_ENABLE_RECONNECT", boolField(func(c *ConnectionConfig, b bool) { c.EnableReconnect = b })},
	{"DB_RECONNECT_INTERVAL", intField(func(c *ConnectionConfig, n int) { c.ReconnectInterval = time.Duration(n) * time.Second })},
	{"DB_HEALTH_CHECK_INTERVAL", intField(func(c *ConnectionConfig, n int) { c.HealthCheckInterval = time.Duration(n) * time.Second })},
	{"DB_ENABLE_QUERY_LOG", boolField(func(c *ConnectionConfig, b bool) { c.EnableQueryLog = b })},
	{"DB_SLOW_QUERY_MS", intField(func(c *ConnectionConfig, n int) { c.SlowQueryTime = time.Duration(n) * time.Millisecond })},
}

func intField(set func(*ConnectionConfig, int)) func(*ConnectionConfig, string) error {
	return func(c *ConnectionConfig, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		set(c, n)
		return nil
	}
}

func boolField(set func(*ConnectionConfig, bool)) func(*ConnectionConfig, string) error {
	return func(c *ConnectionConfig, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		set(c, b)
		return nil
	}
}

func (f *BaseDatabaseFactory) overrideFromEnv(cfg *ConnectionConfig) {
	for _, o := range envOverrides {
		v := strings.TrimSpace(os.Getenv(o.key))
		if v == "" {
			continue
		}
		if err := o.apply(cfg, v); err != nil {
			f.logger.Warn("Ignoring invalid environment override", "key", o.key, "value", v)
		}
	}
}

// InitializeDatabase connects to the database and optionally runs migrations.
func (f *BaseDatabaseFactory) InitializeDatabase(ctx context.Context, runMigrations bool) error {
	if f.manager == nil {
		return fmt.Errorf("database manager not created")
	}

	if err := f.manager.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if runMigrations {
		if err := f.manager.RunMigrations(ctx); err != nil {
			return fmt.Errorf("failed to run database migrations: %w", err)
		}
	}
	f.logger.Info("Database initialization completed!")
	return nil
}

// GetManager returns the underlying database manager.
func (f *BaseDatabaseFactory) GetManager() AbstractDatabaseManager {
	return f.manager
}

// GetDB returns the Bun database instance, or nil if not initialized.
func (f *BaseDatabaseFactory) GetDB() *bun.DB {
	if f.manager == nil {
		return nil
	}
	return f.manager.GetDB()
}

// SetLogger sets the logger on the factory and the underlying manager.
func (f *BaseDatabaseFactory) SetLogger(logger Logger) {
	f.logger = loggerOrDefault(logger)
	if f.manager != nil {
		f.manager.SetLogger(f.logger)
	}
}

// Close closes the database connection managed by the factory.
func (f *BaseDatabaseFactory) Close() error {
	if f.manager == nil {
		return nil
	}
	return f.manager.Disconnect()
}

// GetHealthStatus returns the current database health status from the manager.
func (f *BaseDatabaseFactory) GetHealthStatus(ctx context.Context) *HealthStatus {
	if f.manager == nil {
		return &HealthStatus{
			Healthy:       false,
			Connected:     false,
			LastError:     "Database manager not initialized",
			LastCheckTime: time.Now(),
		}
	}
	return f.manager.HealthCheck(ctx)
}

// GetStats returns database connection statistics from the manager.
func (f *BaseDatabaseFactory) GetStats() *DBStats {
	if f.manager == nil {
		return &DBStats{}
	}
	return f.manager.GetStats()
}
