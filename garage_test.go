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

package garage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tomoncle/garage/database"
	"github.com/tomoncle/garage/model"
	"github.com/tomoncle/garage/query"
	"github.com/tomoncle/garage/repository"
	"github.com/uptrace/bun"
)

var refNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func openDB(t *testing.T) *bun.DB {
	t.Helper()
	cfg := database.DefaultConfig()
	cfg.ConnectionConfig.DBName = filepath.Join(t.TempDir(), "garage_test.db")
	cfg.ConnectionConfig.SlowQueryTime = 0
	manager := database.NewDatabaseManager(cfg)
	ctx := context.Background()
	if err := manager.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() { _ = manager.Disconnect() })
	if err := manager.RunMigrations(ctx); err != nil {
		t.Fatalf("RunMigrations: %v", err)
	}
	return manager.GetDB()
}

func newGarage(t *testing.T, opts ...Option) *Garage {
	t.Helper()
	return New(openDB(t), append([]Option{WithClock(func() time.Time { return refNow })}, opts...)...)
}

func addVehicles(t *testing.T, g *Garage, vs ...model.Vehicle) {
	t.Helper()
	for i := range vs {
		if err := g.Vehicles.Create(context.Background(), &vs[i]); err != nil {
			t.Fatalf("Create(%+v): %v", vs[i], err)
		}
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Database.ConnectionConfig.Type != database.TypeSQLite || cfg.Query.MaxPageSize != 0 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garage.yaml")
	content := `
database:
  connection:
    type: postgres
    host: db.internal
    port: 5432
    dbname: garage
    slow_query_time: 500ms
  migrate:
    create_indexes: false
  init:
    environment: prod
query:
  max_page_size: 50
log:
  level: debug
  format: json
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	conn := cfg.Database.ConnectionConfig
	if conn.Type != "postgres" || conn.Host != "db.internal" || conn.Port != 5432 {
		t.Fatalf("connection = %+v", conn)
	}
	if conn.SlowQueryTime != 500*time.Millisecond {
		t.Fatalf("slow query time = %v", conn.SlowQueryTime)
	}
	if conn.MaxOpenConns != 100 {
		t.Fatalf("unset fields must keep their defaults, max_open_conns = %d", conn.MaxOpenConns)
	}
	if cfg.Database.DataMigrateConfig.CreateIndexes || cfg.Database.DataInitConfig.Environment != "prod" {
		t.Fatalf("migrate/init = %+v %+v", cfg.Database.DataMigrateConfig, cfg.Database.DataInitConfig)
	}
	if cfg.Query.MaxPageSize != 50 || cfg.Log.Format != "json" || cfg.Log.Level != "debug" {
		t.Fatalf("query/log = %+v %+v", cfg.Query, cfg.Log)
	}
}

func TestLoadConfigRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garage.yaml")
	if err := os.WriteFile(path, []byte("query:\n  max_page: 5\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("unknown keys must be rejected")
	}
}

func TestLoadConfigRejectsNegativePageSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garage.yaml")
	if err := os.WriteFile(path, []byte("query:\n  max_page_size: -1\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("negative max_page_size must be rejected")
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("GARAGE_DOTENV_TEST=from-file\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	t.Cleanup(func() { _ = os.Unsetenv("GARAGE_DOTENV_TEST") })

	if err := LoadDotEnv(filepath.Join(dir, "missing.env"), path); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if got := os.Getenv("GARAGE_DOTENV_TEST"); got != "from-file" {
		t.Fatalf("GARAGE_DOTENV_TEST = %q", got)
	}
}

func TestVehicleCreateValidates(t *testing.T) {
	g := newGarage(t)
	err := g.Vehicles.Create(context.Background(), &model.Vehicle{Name: "", Brand: "Ford", Year: 1900})
	var verr *model.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Create = %v, want *model.ValidationError", err)
	}
	if len(verr.Messages) != 2 {
		t.Fatalf("messages = %v, want name and year violations", verr.Messages)
	}
}

func TestVehicleUpdateMissing(t *testing.T) {
	g := newGarage(t)
	err := g.Vehicles.Update(context.Background(), &model.Vehicle{ID: 42, Name: "Ka", Brand: "Ford", Year: 2005})
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("Update = %v, want ErrNotFound", err)
	}
}

func TestVehicleSearch(t *testing.T) {
	g := newGarage(t)
	addVehicles(t, g,
		model.Vehicle{Name: "Civic", Brand: "Honda", Year: 2010},
		model.Vehicle{Name: "Fit", Brand: "Honda", Year: 2015},
		model.Vehicle{Name: "Corolla", Brand: "Toyota", Year: 2012},
		model.Vehicle{Name: "Civic Type R", Brand: "Honda", Year: 2020},
	)

	page, err := g.Vehicles.Search(context.Background(), query.RawFilter{
		Name:          query.Ptr("civ"),
		SortBy:        query.Ptr("YEAR"),
		SortAscending: query.Ptr(false),
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if page.Metadata.TotalCount != 2 || len(page.Items) != 2 {
		t.Fatalf("unexpected page: %+v", page.Metadata)
	}
	if page.Items[0].Year != 2020 || page.Items[1].Year != 2010 {
		t.Fatalf("order = %d, %d; want 2020, 2010", page.Items[0].Year, page.Items[1].Year)
	}
}

func TestVehicleSearchMaxPageSize(t *testing.T) {
	g := newGarage(t, WithQueryConfig(QueryConfig{MaxPageSize: 2}))
	addVehicles(t, g,
		model.Vehicle{Name: "A", Brand: "X", Year: 2000},
		model.Vehicle{Name: "B", Brand: "X", Year: 2000},
		model.Vehicle{Name: "C", Brand: "X", Year: 2000},
	)
	page, err := g.Vehicles.Search(context.Background(), query.RawFilter{PageSize: query.Ptr(100)})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if page.Metadata.PageSize != 2 || len(page.Items) != 2 || page.Metadata.TotalPages != 2 {
		t.Fatalf("unexpected clamped page: %+v", page.Metadata)
	}
}

func TestVehicleFinders(t *testing.T) {
	g := newGarage(t)
	addVehicles(t, g,
		model.Vehicle{Name: "Civic", Brand: "Honda", Year: 2010},
		model.Vehicle{Name: "Accord", Brand: "Honda", Year: 2012},
		model.Vehicle{Name: "Corolla", Brand: "Toyota", Year: 2012},
	)
	ctx := context.Background()

	byBrand, err := g.Vehicles.ByBrand(ctx, "HON")
	if err != nil {
		t.Fatalf("ByBrand: %v", err)
	}
	if len(byBrand) != 2 || byBrand[0].Name != "Accord" {
		t.Fatalf("ByBrand = %+v", byBrand)
	}

	byYear, err := g.Vehicles.ByYear(ctx, 2012)
	if err != nil {
		t.Fatalf("ByYear: %v", err)
	}
	if len(byYear) != 2 {
		t.Fatalf("ByYear = %+v", byYear)
	}

	byName, err := g.Vehicles.ByName(ctx, "oro")
	if err != nil {
		t.Fatalf("ByName: %v", err)
	}
	if len(byName) != 1 || byName[0].Name != "Corolla" {
		t.Fatalf("ByName = %+v", byName)
	}
}

func TestVehicleFilterCombinesCriteria(t *testing.T) {
	g := newGarage(t)
	addVehicles(t, g,
		model.Vehicle{Name: "Civic", Brand: "Honda", Year: 2010},
		model.Vehicle{Name: "Civic Si", Brand: "Honda", Year: 2012},
		model.Vehicle{Name: "Corolla", Brand: "Toyota", Year: 2012},
	)
	ctx := context.Background()

	cases := []struct {
		name, brand string
		year        *int
		want        []string
	}{
		{"", "", nil, []string{"Civic", "Civic Si", "Corolla"}},
		{"CIVIC", "", nil, []string{"Civic", "Civic Si"}},
		{"civic", "hon", query.Ptr(2012), []string{"Civic Si"}},
		{"", "", query.Ptr(2012), []string{"Civic Si", "Corolla"}},
		{"civic", "toyota", nil, nil},
	}
	for _, c := range cases {
		got, err := g.Vehicles.Filter(ctx, c.name, c.brand, c.year)
		if err != nil {
			t.Fatalf("Filter(%q, %q): %v", c.name, c.brand, err)
		}
		names := make([]string, 0, len(got))
		for _, v := range got {
			names = append(names, v.Name)
		}
		if fmt.Sprint(names) != fmt.Sprint(c.want) {
			t.Errorf("Filter(%q, %q, %v) = %v, want %v", c.name, c.brand, c.year, names, c.want)
		}
	}
}

func TestVehicleList(t *testing.T) {
	g := newGarage(t)
	addVehicles(t, g,
		model.Vehicle{Name: "Zeta", Brand: "X", Year: 2000},
		model.Vehicle{Name: "Alpha", Brand: "X", Year: 2000},
	)
	page, err := g.Vehicles.List(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(page.Items) != 2 || page.Items[0].Name != "Zeta" {
		t.Fatalf("List must order by id: %+v", page.Items)
	}
}

func TestAdministrators(t *testing.T) {
	g := newGarage(t)
	ctx := context.Background()

	if err := g.Administrators.Create(ctx, &model.Administrator{Email: "not-an-email", Profile: "adm"}); err == nil {
		t.Fatalf("invalid e-mail must be rejected")
	}
	adm := &model.Administrator{Email: "adm@example.com", Profile: "adm"}
	if err := g.Administrators.Create(ctx, adm); err != nil {
		t.Fatalf("Create: %v", err)
	}
	err := g.Administrators.Create(ctx, &model.Administrator{Email: "adm@example.com", Profile: "editor"})
	if !errors.Is(err, repository.ErrDuplicate) {
		t.Fatalf("duplicate Create = %v, want ErrDuplicate", err)
	}

	got, err := g.Administrators.ByEmail(ctx, "adm@example.com")
	if err != nil || got.ID != adm.ID {
		t.Fatalf("ByEmail = %+v, %v", got, err)
	}
	if _, err := g.Administrators.ByEmail(ctx, "nobody@example.com"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("ByEmail(missing) = %v, want ErrNotFound", err)
	}

	n, err := g.Administrators.Count(ctx)
	if err != nil || n != 1 {
		t.Fatalf("Count = %d, %v", n, err)
	}
	if err := g.Administrators.Delete(ctx, adm.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
}

func TestStatistics(t *testing.T) {
	g := newGarage(t)
	addVehicles(t, g,
		model.Vehicle{Name: "Civic", Brand: "Honda", Year: 2010},
		model.Vehicle{Name: "Accord", Brand: "Honda", Year: 2012},
		model.Vehicle{Name: "Corolla", Brand: "Toyota", Year: 2012},
	)
	if err := g.Administrators.Create(context.Background(), &model.Administrator{Email: "ed@example.com", Profile: "editor"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	stats, err := g.Statistics.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if stats.TotalVehicles != 3 || stats.TotalAdministrators != 1 {
		t.Fatalf("totals = %+v", stats)
	}
	if len(stats.VehiclesByBrand) != 2 || stats.VehiclesByBrand[0].Brand != "Honda" || stats.VehiclesByBrand[0].Total != 2 {
		t.Fatalf("by brand = %+v", stats.VehiclesByBrand)
	}
	if len(stats.VehiclesByYear) != 2 || stats.VehiclesByYear[0].Year != 2012 || stats.VehiclesByYear[0].Total != 2 {
		t.Fatalf("by year = %+v", stats.VehiclesByYear)
	}
	if !stats.GeneratedAt.Equal(refNow) {
		t.Fatalf("generated at = %v, want %v", stats.GeneratedAt, refNow)
	}
}
