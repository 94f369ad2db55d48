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
	"io/fs"
	"sort"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

// MigrationManager coordinates schema migrations and data seeding.
type MigrationManager struct {
	db      *bun.DB
	logger  Logger
	options MigrationOptions
}

// MigrationOptions selects the optional migrations. A nil Models uses the
// default registry.
type MigrationOptions struct {
	Models          []SQLModel
	CreateIndexes   bool
	SeedOnMigration bool
	SeedFS          fs.FS
	Environment     string
}

// Migration represents an applied migration record stored in the database.
type Migration struct {
	bun.BaseModel `bun:"table:migrations"`

	Version     string    `bun:"version,pk" json:"version"`
	Name        string    `bun:"name" json:"name"`
	AppliedAt   time.Time `bun:"applied_at" json:"appliedAt"`
	Description string    `bun:"description" json:"description"`
}

// MigrationFunc is a migration step executed within a transaction.
type MigrationFunc func(ctx context.Context, db bun.IDB) error

// MigrationItem describes a single migration version.
type MigrationItem struct {
	Version     string
	Name        string
	Description string
	Up          MigrationFunc
}

// NewMigrationManager constructs a MigrationManager over db.
func NewMigrationManager(db *bun.DB, logger Logger, options MigrationOptions) *MigrationManager {
	if options.Models == nil {
		options.Models = GetRegisteredModels()
	}
	return &MigrationManager{
		db:      db,
		logger:  loggerOrDefault(logger),
		options: options,
	}
}

// RunMigrations creates the migration tracking table if needed and applies
// every pending migration in ascending version order.
func (mm *MigrationManager) RunMigrations(ctx context.Context) error {
	if mm.db == nil {
		return fmt.Errorf("database not initialized")
	}

	if _, err := mm.db.NewCreateTable().
		Model((*Migration)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	migrations := mm.Migrations()
	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})

	for _, migration := range migrations {
		if err := mm.runMigration(ctx, migration); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", migration.Version, err)
		}
	}

	mm.logger.Info("Database migrations completed!")
	return nil
}

// Migrations returns the migrations enabled by the options.
func (mm *MigrationManager) Migrations() []MigrationItem {
	migrations := []MigrationItem{
		{
			Version:     "001",
			Name:        "create_base_tables",
			Description: "Create base table structure",
			Up:          mm.createBaseTables,
		},
	}
	if mm.options.CreateIndexes {
		migrations = append(migrations, MigrationItem{
			Version:     "002",
			Name:        "create_vehicle_indexes",
			Description: "Create secondary indexes of registered models",
			Up:          mm.createIndexes,
		})
	}
	if mm.options.SeedOnMigration && mm.options.SeedFS != nil {
		migrations = append(migrations, MigrationItem{
			Version:     "003",
			Name:        "seed_initial_data",
			Description: "Seed initial data",
			Up:          mm.seedInitialData,
		})
	}
	return migrations
}

func (mm *MigrationManager) runMigration(ctx context.Context, migration MigrationItem) error {
	exists, err := mm.db.NewSelect().
		Model((*Migration)(nil)).
		Where("version = ?", migration.Version).
		Exists(ctx)
	if err != nil {
		return err
	}
	if exists {
		mm.logger.Debug("Migration already applied", "version", migration.Version)
		return nil
	}

	err = mm.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := migration.Up(ctx, tx); err != nil {
			return err
		}
		_, err := tx.NewInsert().
			Model(&Migration{
				Version:     migration.Version,
				Name:        migration.Name,
				AppliedAt:   time.Now(),
				Description: migration.Description,
			}).
			Exec(ctx)
		return err
	})
	if err != nil {
		return err
	}

	mm.logger.Info("Migration executed successfully", "version", migration.Version, "name", migration.Name)
	return nil
}

func (mm *MigrationManager) createBaseTables(ctx context.Context, db bun.IDB) error {
	for _, model := range mm.options.Models {
		_, err := db.NewCreateTable().
			Model(model.Instance()).
			IfNotExists().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create table %T: %w", model.Instance(), err)
		}
	}
	return nil
}

// createIndexes creates every registered secondary index. MySQL has no
// CREATE INDEX IF NOT EXISTS, so an existing index is tolerated there.
func (mm *MigrationManager) createIndexes(ctx context.Context, db bun.IDB) error {
	ifNotExists := db.Dialect().Name() != dialect.MySQL
	for _, model := range mm.options.Models {
		for _, idx := range model.Indexes() {
			q := db.NewCreateIndex().
				Model(model.Instance()).
				Index(idx.Name).
				Column(idx.Columns...)
			if idx.Unique {
				q = q.Unique()
			}
			if ifNotExists {
				q = q.IfNotExists()
			}
			if _, err := q.Exec(ctx); err != nil {
				if ok, kind := IsSqlError(err); ok && kind == ExistIndexErr {
					continue
				}
				return fmt.Errorf("failed to create index %s: %w", idx.Name, err)
			}
			mm.logger.Debug("Index ensured", "index", idx.Name, "columns", idx.Columns)
		}
	}
	return nil
}

// InitData runs the seed files in a single transaction.
func (mm *MigrationManager) InitData(ctx context.Context) error {
	if mm.db == nil {
		return fmt.Errorf("database not initialized")
	}
	if mm.options.SeedFS == nil {
		return fmt.Errorf("no seed source configured")
	}
	return mm.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return mm.seedInitialData(ctx, tx)
	})
}

func (mm *MigrationManager) seedInitialData(ctx context.Context, db bun.IDB) error {
	mm.logger.Info("Starting data initialization using SQL files", "environment", mm.options.Environment)
	results, err := NewSeedRunner(mm.options.SeedFS, mm.options.Environment, mm.logger).Run(ctx, db)
	if err != nil {
		return fmt.Errorf("SQL file initialization failed: %w", err)
	}
	mm.logger.Info("SQL file initialization completed", "files", len(results))
	return nil
}

// GetAppliedMigrations returns migration records ordered by version.
func (mm *MigrationManager) GetAppliedMigrations(ctx context.Context) ([]Migration, error) {
	var migrations []Migration
	err := mm.db.NewSelect().
		Model(&migrations).
		Order("version ASC").
		Scan(ctx)
	return migrations, err
}
