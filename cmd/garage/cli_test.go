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

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/tomoncle/garage/utils"
)

func run(t *testing.T, args ...string) []byte {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append(args, "--env-file", filepath.Join(t.TempDir(), "missing.env")))
	if err := cmd.Execute(); err != nil {
		t.Fatalf("garage %v: %v\n%s", args, err, errOut.String())
	}
	return out.Bytes()
}

func setupDB(t *testing.T) {
	t.Helper()
	t.Setenv("DB_TYPE", "sqlite")
	t.Setenv("DB_NAME", filepath.Join(t.TempDir(), "cli.db"))
	t.Cleanup(func() { utils.ConfigureConsoleOutput(os.Stdout) })
}

func TestMigrateSeedAndSearch(t *testing.T) {
	setupDB(t)

	var migrated struct {
		Migrations []struct {
			Version string `json:"version"`
		} `json:"migrations"`
		Seeded bool `json:"seeded"`
	}
	if err := json.Unmarshal(run(t, "migrate", "--seed"), &migrated); err != nil {
		t.Fatalf("decode migrate output: %v", err)
	}
	if len(migrated.Migrations) != 2 || !migrated.Seeded {
		t.Fatalf("migrate output = %+v, want 2 migrations and seeded", migrated)
	}

	var page struct {
		Data []struct {
			Name  string `json:"name"`
			Brand string `json:"brand"`
			Year  int    `json:"year"`
		} `json:"data"`
		Metadata struct {
			TotalCount int  `json:"totalCount"`
			TotalPages int  `json:"totalPages"`
			HasNext    bool `json:"hasNext"`
		} `json:"metadata"`
	}
	out := run(t, "vehicles", "search", "--brand", "HON", "--sort-by", "year", "--desc")
	if err := json.Unmarshal(out, &page); err != nil {
		t.Fatalf("decode search output: %v\n%s", err, out)
	}
	if page.Metadata.TotalCount != 2 || len(page.Data) != 2 {
		t.Fatalf("search = %s, want the two Honda records", out)
	}
	if page.Data[0].Name != "Civic" || page.Data[1].Name != "Fit" {
		t.Fatalf("order = %s, %s; want Civic, Fit", page.Data[0].Name, page.Data[1].Name)
	}

	out = run(t, "vehicles", "search", "--page-size", "3", "--page", "3")
	if err := json.Unmarshal(out, &page); err != nil {
		t.Fatalf("decode search output: %v", err)
	}
	if page.Metadata.TotalCount != 8 || page.Metadata.TotalPages != 3 || len(page.Data) != 2 || page.Metadata.HasNext {
		t.Fatalf("last page = %s", out)
	}
}

func TestAddAndStats(t *testing.T) {
	setupDB(t)

	var created struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}
	out := run(t, "vehicles", "add", "--name", "Uno", "--brand", "Fiat", "--year", "2011")
	if err := json.Unmarshal(out, &created); err != nil {
		t.Fatalf("decode add output: %v", err)
	}
	if created.ID == 0 || created.Name != "Uno" {
		t.Fatalf("created = %s", out)
	}

	var fetched struct {
		Brand string `json:"brand"`
		Year  int    `json:"year"`
	}
	out = run(t, "vehicles", "get", "--id", fmt.Sprint(created.ID))
	if err := json.Unmarshal(out, &fetched); err != nil {
		t.Fatalf("decode get output: %v", err)
	}
	if fetched.Brand != "Fiat" || fetched.Year != 2011 {
		t.Fatalf("get = %s", out)
	}

	var stats struct {
		TotalAdministrators int `json:"totalAdministrators"`
		TotalVehicles       int `json:"totalVehicles"`
		VehiclesByBrand     []struct {
			Brand string `json:"brand"`
			Total int    `json:"total"`
		} `json:"vehiclesByBrand"`
	}
	out = run(t, "stats")
	if err := json.Unmarshal(out, &stats); err != nil {
		t.Fatalf("decode stats output: %v", err)
	}
	if stats.TotalVehicles != 1 || stats.TotalAdministrators != 0 {
		t.Fatalf("stats = %s", out)
	}
	if len(stats.VehiclesByBrand) != 1 || stats.VehiclesByBrand[0].Brand != "Fiat" {
		t.Fatalf("by brand = %s", out)
	}
}

func TestAddRejectsInvalidYear(t *testing.T) {
	setupDB(t)

	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"vehicles", "add", "--name", "Model T", "--brand", "Ford", "--year", "1908",
		"--env-file", filepath.Join(t.TempDir(), "missing.env")})
	if err := cmd.Execute(); err == nil {
		t.Fatalf("expected a validation error for year 1908")
	}
}
