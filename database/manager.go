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
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/extra/bundebug"
)

var errNotConnected = errors.New("database not connected")

type defaultDatabaseManager struct {
	cfg    *Config
	conn   *ConnectionConfig
	logger Logger

	mu     sync.RWMutex
	db     *bun.DB
	sqlDB  *sql.DB
	status HealthStatus
	// stop is non-nil while a health monitor runs; Disconnect closes it.
	stop chan struct{}
}

// NewDatabaseManager returns an AbstractDatabaseManager backed by Bun.
// A nil cfg uses DefaultConfig.
func NewDatabaseManager(cfg *Config) AbstractDatabaseManager {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &defaultDatabaseManager{
		cfg:    cfg,
		conn:   &cfg.ConnectionConfig,
		logger: GetLogger(),
	}
}

func (m *defaultDatabaseManager) Connect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.connectLocked(ctx); err != nil {
		return err
	}
	if m.conn.HealthCheckInterval > 0 && m.stop == nil {
		m.stop = make(chan struct{})
		go m.monitor(m.stop)
	}
	return nil
}

func (m *defaultDatabaseManager) connectLocked(ctx context.Context) error {
	if m.db != nil {
		return nil
	}

	sqlDB, db, err := open(m.conn)
	if err != nil {
		m.status.LastError = err.Error()
		return fmt.Errorf("failed to create database connection: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeoutOr(m.conn.ConnectTimeout))
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		m.status.LastError = err.Error()
		return fmt.Errorf("database connection test failed: %w", err)
	}

	if m.conn.EnableQueryLog {
		db.AddQueryHook(bundebug.NewQueryHook(
			bundebug.WithVerbose(true),
			bundebug.FromEnv("BUNDEBUG"),
		))
	}
	if m.conn.SlowQueryTime > 0 {
		db.AddQueryHook(NewSlowQueryHook(m.conn.SlowQueryTime, m.logger))
	}
	db.RegisterModel(RegisteredModelInstances()...)

	m.db, m.sqlDB = db, sqlDB
	m.status = HealthStatus{Healthy: true, Connected: true, LastCheckTime: time.Now()}
	m.logger.Info("Database connected", "type", m.conn.Type, "host", m.conn.Host, "dbname", m.conn.DBName)
	return nil
}

// Disconnect stops the health monitor and closes the connection. A later
// Connect starts a new monitor.
func (m *defaultDatabaseManager) Disconnect() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stop != nil {
		close(m.stop)
		m.stop = nil
	}
	return m.closeLocked()
}

func (m *defaultDatabaseManager) closeLocked() error {
	if m.db == nil {
		return nil
	}
	err := m.db.Close()
	m.db, m.sqlDB = nil, nil
	m.status.Connected = false
	if err != nil {
		m.logger.Error("Failed to close database connection", "error", err)
		return err
	}
	m.logger.Info("Database connection closed")
	return nil
}

// Reconnect closes the current connection and opens a new one. The health
// monitor keeps running.
func (m *defaultDatabaseManager) Reconnect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reconnectLocked(ctx)
}

func (m *defaultDatabaseManager) reconnectLocked(ctx context.Context) error {
	if err := m.closeLocked(); err != nil {
		m.logger.Warn("Error closing connection before reconnect", "error", err)
	}
	return m.connectLocked(ctx)
}

// reconnectUnless reconnects unless stop was closed, so a monitor never
// reopens a connection after Disconnect.
func (m *defaultDatabaseManager) reconnectUnless(ctx context.Context, stop <-chan struct{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	select {
	case <-stop:
		return errNotConnected
	default:
	}
	return m.reconnectLocked(ctx)
}

func (m *defaultDatabaseManager) Ping(ctx context.Context) error {
	db := m.GetDB()
	if db == nil {
		return errNotConnected
	}
	return db.PingContext(ctx)
}

func (m *defaultDatabaseManager) GetDB() *bun.DB {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.db
}

func (m *defaultDatabaseManager) GetSQLDB() *sql.DB {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sqlDB
}

// HealthCheck pings the database and records the outcome. The returned
// status is a copy.
func (m *defaultDatabaseManager) HealthCheck(ctx context.Context) *HealthStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	start := time.Now()
	status := HealthStatus{LastCheckTime: start}
	if m.db == nil {
		status.LastError = errNotConnected.Error()
		m.status = status
		return &status
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	err := m.db.PingContext(pingCtx)
	status.ResponseTime = time.Since(start)
	status.Healthy = err == nil
	status.Connected = err == nil
	if err != nil {
		status.LastError = err.Error()
	}

	stats := m.sqlDB.Stats()
	status.ActiveConns = stats.InUse
	status.IdleConns = stats.Idle
	status.MaxOpenConns = stats.MaxOpenConnections

	m.status = status
	return &status
}

// monitor runs HealthCheck every HealthCheckInterval until stop is closed.
// After a failed check it reconnects, giving up after MaxReconnectTries
// consecutive failures.
func (m *defaultDatabaseManager) monitor(stop <-chan struct{}) {
	ticker := time.NewTicker(m.conn.HealthCheckInterval)
	defer ticker.Stop()

	failures := 0
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		healthy := m.HealthCheck(ctx).Healthy
		cancel()
		if healthy {
			failures = 0
			continue
		}
		if !m.conn.EnableReconnect {
			continue
		}
		if failures >= m.conn.MaxReconnectTries {
			m.logger.Error("Max reconnect attempts reached", "tries", failures)
			continue
		}
		failures++

		select {
		case <-stop:
			return
		case <-time.After(m.conn.ReconnectInterval):
		}
		ctx, cancel = context.WithTimeout(context.Background(), timeoutOr(m.conn.ConnectTimeout))
		if err := m.reconnectUnless(ctx, stop); err != nil {
			m.logger.Error("Reconnect failed", "error", err, "try", failures)
		} else {
			m.logger.Info("Reconnected", "try", failures)
			failures = 0
		}
		cancel()
	}
}

func (m *defaultDatabaseManager) GetStats() *DBStats {
	sqlDB := m.GetSQLDB()
	if sqlDB == nil {
		return &DBStats{}
	}
	s := sqlDB.Stats()
	return &DBStats{
		MaxOpenConns:      s.MaxOpenConnections,
		OpenConns:         s.OpenConnections,
		InUse:             s.InUse,
		Idle:              s.Idle,
		WaitCount:         s.WaitCount,
		WaitDuration:      s.WaitDuration,
		MaxIdleClosed:     s.MaxIdleClosed,
		MaxIdleTimeClosed: s.MaxIdleTimeClosed,
		MaxLifetimeClosed: s.MaxLifetimeClosed,
	}
}

func (m *defaultDatabaseManager) migrations() (*MigrationManager, error) {
	db := m.GetDB()
	if db == nil {
		return nil, errNotConnected
	}
	seed := m.cfg.DataInitConfig
	return NewMigrationManager(db, m.logger, MigrationOptions{
		CreateIndexes:   m.cfg.DataMigrateConfig.CreateIndexes,
		SeedOnMigration: seed.AutoInitOnMigration,
		SeedFS:          seed.SeedFS(),
		Environment:     seed.Environment,
	}), nil
}

func (m *defaultDatabaseManager) RunMigrations(ctx context.Context) error {
	mm, err := m.migrations()
	if err != nil {
		return err
	}
	return mm.RunMigrations(ctx)
}

func (m *defaultDatabaseManager) InitData(ctx context.Context) error {
	mm, err := m.migrations()
	if err != nil {
		return err
	}
	return mm.InitData(ctx)
}

func (m *defaultDatabaseManager) SetLogger(logger Logger) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logger = loggerOrDefault(logger)
}
