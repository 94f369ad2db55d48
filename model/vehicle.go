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

package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/tomoncle/garage/database"
	"github.com/uptrace/bun"
)

// MinVehicleYear is the oldest model year accepted for a vehicle.
const MinVehicleYear = 1950

// Vehicle is a single vehicle record. ID is assigned by storage.
type Vehicle struct {
	bun.BaseModel `bun:"table:vehicles,alias:v"`

	ID    int64  `bun:"id,pk,autoincrement" json:"id"`
	Name  string `bun:"name,notnull" json:"name"`
	Brand string `bun:"brand,notnull" json:"brand"`
	Year  int    `bun:"year,notnull" json:"year"`
}

func init() {
	database.RegisteredModel(database.NewModelAdapter((*Vehicle)(nil), 20,
		database.IndexDefinition{Name: "idx_vehicles_name", Columns: []string{"name"}},
		database.IndexDefinition{Name: "idx_vehicles_brand", Columns: []string{"brand"}},
		database.IndexDefinition{Name: "idx_vehicles_year", Columns: []string{"year"}},
	))
}

// Validate checks the vehicle against the write rules. now supplies the
// current year, which bounds Year from above (next year's models allowed).
func (v *Vehicle) Validate(now time.Time) error {
	verr := &ValidationError{}
	if strings.TrimSpace(v.Name) == "" {
		verr.add("name must not be empty")
	}
	if strings.TrimSpace(v.Brand) == "" {
		verr.add("brand must not be empty")
	}
	if v.Year < MinVehicleYear {
		verr.add(fmt.Sprintf("year must be %d or later", MinVehicleYear))
	}
	if maxYear := now.Year() + 1; v.Year > maxYear {
		verr.add(fmt.Sprintf("year must not be later than %d", maxYear))
	}
	return verr.orNil()
}
