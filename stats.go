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
	"fmt"
	"time"

	"github.com/tomoncle/garage/model"
	"github.com/tomoncle/garage/repository"
)

// Statistics summarizes the stored records.
type Statistics struct {
	TotalAdministrators int                     `json:"totalAdministrators"`
	TotalVehicles       int                     `json:"totalVehicles"`
	VehiclesByBrand     []repository.BrandCount `json:"vehiclesByBrand"`
	VehiclesByYear      []repository.YearCount  `json:"vehiclesByYear"`
	GeneratedAt         time.Time               `json:"generatedAt"`
}

// StatisticsService computes Statistics.
type StatisticsService struct {
	vehicles repository.Repository[model.Vehicle]
	admins   repository.Repository[model.Administrator]
	store    *repository.VehicleStore
	now      func() time.Time
}

// Collect gathers the totals and the per-brand and per-year breakdowns.
func (s *StatisticsService) Collect(ctx context.Context) (*Statistics, error) {
	admins, err := s.admins.Count(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to count administrators: %w", err)
	}
	vehicles, err := s.vehicles.Count(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to count vehicles: %w", err)
	}
	byBrand, err := s.store.CountByBrand(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count vehicles by brand: %w", err)
	}
	byYear, err := s.store.CountByYear(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count vehicles by year: %w", err)
	}
	return &Statistics{
		TotalAdministrators: admins,
		TotalVehicles:       vehicles,
		VehiclesByBrand:     byBrand,
		VehiclesByYear:      byYear,
		GeneratedAt:         s.now().UTC(),
	}, nil
}
