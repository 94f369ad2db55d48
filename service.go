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
	"github.com/tomoncle/garage/query"
	"github.com/tomoncle/garage/repository"
	"github.com/tomoncle/garage/types"
	"github.com/uptrace/bun"
)

// Garage bundles the services over one database.
type Garage struct {
	Vehicles       *VehicleService
	Administrators *AdministratorService
	Statistics     *StatisticsService
}

// Option configures New.
type Option func(*options)

type options struct {
	now         func() time.Time
	engineOpts  []query.EngineOption
	maxPageSize int
}

// WithClock replaces time.Now for validation and statistics timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithQueryConfig applies the query engine settings.
func WithQueryConfig(cfg QueryConfig) Option {
	return func(o *options) { o.maxPageSize = cfg.MaxPageSize }
}

// WithEngineOptions passes options through to the query engine.
func WithEngineOptions(opts ...query.EngineOption) Option {
	return func(o *options) { o.engineOpts = append(o.engineOpts, opts...) }
}

// New wires the services to db.
func New(db *bun.DB, opts ...Option) *Garage {
	o := &options{now: time.Now}
	for _, opt := range opts {
		opt(o)
	}
	engineOpts := o.engineOpts
	if o.maxPageSize > 0 {
		engineOpts = append([]query.EngineOption{query.WithMaxPageSize(o.maxPageSize)}, engineOpts...)
	}

	vehicles := repository.NewRepository[model.Vehicle](db)
	admins := repository.NewRepository[model.Administrator](db)
	store := repository.NewVehicleStore(db)

	return &Garage{
		Vehicles: &VehicleService{
			repo:   vehicles,
			store:  store,
			engine: query.NewEngine(store, engineOpts...),
			now:    o.now,
		},
		Administrators: &AdministratorService{repo: admins},
		Statistics: &StatisticsService{
			vehicles: vehicles,
			admins:   admins,
			store:    store,
			now:      o.now,
		},
	}
}

// VehicleService manages vehicle records.
type VehicleService struct {
	repo   repository.Repository[model.Vehicle]
	store  *repository.VehicleStore
	engine *query.Engine
	now    func() time.Time
}

func (s *VehicleService) Get(ctx context.Context, id int64) (*model.Vehicle, error) {
	return s.repo.GetOne(ctx, id)
}

// Create validates v and stores it. v.ID is set on success.
func (s *VehicleService) Create(ctx context.Context, v *model.Vehicle) error {
	if err := v.Validate(s.now()); err != nil {
		return err
	}
	v.ID = 0
	return s.repo.Create(ctx, v)
}

// Update validates v and replaces the stored record with the same ID.
func (s *VehicleService) Update(ctx context.Context, v *model.Vehicle) error {
	if err := v.Validate(s.now()); err != nil {
		return err
	}
	return s.repo.Update(ctx, v)
}

func (s *VehicleService) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// Search normalizes raw and runs it through the query engine.
func (s *VehicleService) Search(ctx context.Context, raw query.RawFilter) (*types.Pagination[model.Vehicle], error) {
	return s.engine.Query(ctx, query.Normalize(raw))
}

// List pages through all vehicles by ascending id.
func (s *VehicleService) List(ctx context.Context, page, pageSize int) (*types.Pagination[model.Vehicle], error) {
	return s.repo.Page(ctx, types.NewPageRequestWithOrders(page, pageSize, []string{"id ASC"}))
}

// ByBrand returns every vehicle whose brand contains brand, ignoring case,
// ordered by name.
func (s *VehicleService) ByBrand(ctx context.Context, brand string) ([]*model.Vehicle, error) {
	return s.find(ctx, query.Predicates{query.Contains(query.FieldBrand, brand)})
}

// ByName returns every vehicle whose name contains name, ignoring case,
// ordered by name.
func (s *VehicleService) ByName(ctx context.Context, name string) ([]*model.Vehicle, error) {
	return s.find(ctx, query.Predicates{query.Contains(query.FieldName, name)})
}

// ByYear returns every vehicle of model year year, ordered by name.
func (s *VehicleService) ByYear(ctx context.Context, year int) ([]*model.Vehicle, error) {
	return s.find(ctx, query.Predicates{query.AtLeast(query.FieldYear, year), query.AtMost(query.FieldYear, year)})
}

// Filter combines the finders: name and brand match as case-insensitive
// substrings unless empty, and a non-nil year matches exactly. Every
// vehicle is returned when no criterion is given. Results are ordered by
// name and not paged.
func (s *VehicleService) Filter(ctx context.Context, name, brand string, year *int) ([]*model.Vehicle, error) {
	var preds query.Predicates
	if name != "" {
		preds = append(preds, query.Contains(query.FieldName, name))
	}
	if brand != "" {
		preds = append(preds, query.Contains(query.FieldBrand, brand))
	}
	if year != nil {
		preds = append(preds, query.AtLeast(query.FieldYear, *year), query.AtMost(query.FieldYear, *year))
	}
	return s.find(ctx, preds)
}

func (s *VehicleService) find(ctx context.Context, preds query.Predicates) ([]*model.Vehicle, error) {
	vehicles, err := s.store.Find(ctx, preds, query.Order{Field: query.DefaultSortField, Ascending: true})
	if err != nil {
		return nil, fmt.Errorf("failed to find vehicles where %s: %w", preds, err)
	}
	return vehicles, nil
}

// AdministratorService manages administrator records.
type AdministratorService struct {
	repo repository.Repository[model.Administrator]
}

func (s *AdministratorService) Get(ctx context.Context, id int64) (*model.Administrator, error) {
	return s.repo.GetOne(ctx, id)
}

// ByEmail returns the administrator registered under email.
func (s *AdministratorService) ByEmail(ctx context.Context, email string) (*model.Administrator, error) {
	admins, err := s.repo.List(ctx, types.NewQueryFilter("email = ?", email))
	if err != nil {
		return nil, err
	}
	if len(admins) == 0 {
		return nil, repository.ErrNotFound
	}
	return admins[0], nil
}

// Create validates a and stores it. A second account with the same e-mail
// fails with repository.ErrDuplicate.
func (s *AdministratorService) Create(ctx context.Context, a *model.Administrator) error {
	if err := a.Validate(); err != nil {
		return err
	}
	a.ID = 0
	return s.repo.Create(ctx, a)
}

func (s *AdministratorService) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// List pages through administrators by ascending id.
func (s *AdministratorService) List(ctx context.Context, page, pageSize int) (*types.Pagination[model.Administrator], error) {
	return s.repo.Page(ctx, types.NewPageRequestWithOrders(page, pageSize, []string{"id ASC"}))
}

func (s *AdministratorService) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx, nil)
}
