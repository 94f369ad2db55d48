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

package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/tomoncle/garage/model"
	"github.com/tomoncle/garage/query"
	"github.com/uptrace/bun"
)

// likeEscape is the LIKE escape character used for substring predicates.
const likeEscape = "!"

var likeEscaper = strings.NewReplacer(likeEscape, likeEscape+likeEscape, "%", likeEscape+"%", "_", likeEscape+"_")

// VehicleStore implements query.Store over the vehicles table.
type VehicleStore struct {
	db bun.IDB
}

var _ query.Store = (*VehicleStore)(nil)

func NewVehicleStore(db bun.IDB) *VehicleStore {
	return &VehicleStore{db: db}
}

// BrandCount is the number of vehicles of one brand.
type BrandCount struct {
	Brand string `bun:"brand" json:"brand"`
	Total int    `bun:"total" json:"total"`
}

// YearCount is the number of vehicles of one model year.
type YearCount struct {
	Year  int `bun:"year" json:"year"`
	Total int `bun:"total" json:"total"`
}

func (s *VehicleStore) Count(ctx context.Context, preds query.Predicates) (int, error) {
	q, err := applyPredicates(s.db.NewSelect().Model((*model.Vehicle)(nil)), preds)
	if err != nil {
		return 0, err
	}
	return q.Count(ctx)
}

func (s *VehicleStore) Fetch(ctx context.Context, preds query.Predicates, order query.Order, offset, limit int) ([]*model.Vehicle, error) {
	vehicles := make([]*model.Vehicle, 0)
	if limit <= 0 {
		return vehicles, nil
	}
	q, err := s.ordered(&vehicles, preds, order)
	if err != nil {
		return nil, err
	}
	if err := q.Offset(offset).Limit(limit).Scan(ctx); err != nil {
		return nil, err
	}
	return vehicles, nil
}

// Find returns every vehicle matching preds under order, without paging.
func (s *VehicleStore) Find(ctx context.Context, preds query.Predicates, order query.Order) ([]*model.Vehicle, error) {
	vehicles := make([]*model.Vehicle, 0)
	q, err := s.ordered(&vehicles, preds, order)
	if err != nil {
		return nil, err
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	return vehicles, nil
}

func (s *VehicleStore) ordered(dest *[]*model.Vehicle, preds query.Predicates, order query.Order) (*bun.SelectQuery, error) {
	q, err := applyPredicates(s.db.NewSelect().Model(dest), preds)
	if err != nil {
		return nil, err
	}
	for _, key := range order.Keys() {
		dir := "ASC"
		if !key.Ascending {
			dir = "DESC"
		}
		q = q.OrderExpr("?TableAlias.? "+dir, bun.Ident(key.Field.Column()))
	}
	return q, nil
}

// CountByBrand returns vehicle totals per brand, largest first.
func (s *VehicleStore) CountByBrand(ctx context.Context) ([]BrandCount, error) {
	rows := make([]BrandCount, 0)
	err := s.db.NewSelect().
		Model((*model.Vehicle)(nil)).
		ColumnExpr("?TableAlias.brand AS brand").
		ColumnExpr("COUNT(*) AS total").
		GroupExpr("?TableAlias.brand").
		OrderExpr("total DESC, brand ASC").
		Scan(ctx, &rows)
	return rows, err
}

// CountByYear returns vehicle totals per model year, newest first.
func (s *VehicleStore) CountByYear(ctx context.Context) ([]YearCount, error) {
	rows := make([]YearCount, 0)
	err := s.db.NewSelect().
		Model((*model.Vehicle)(nil)).
		ColumnExpr("?TableAlias.year AS year").
		ColumnExpr("COUNT(*) AS total").
		GroupExpr("?TableAlias.year").
		OrderExpr("year DESC").
		Scan(ctx, &rows)
	return rows, err
}

// applyPredicates translates the conjunction into WHERE clauses. Substring
// tests compare lowercased values with the LIKE wildcards of the needle
// escaped.
func applyPredicates(q *bun.SelectQuery, preds query.Predicates) (*bun.SelectQuery, error) {
	for _, p := range preds {
		col := bun.Ident(string(p.Field))
		switch p.Op {
		case query.OpContains:
			pattern := "%" + likeEscaper.Replace(strings.ToLower(p.Text)) + "%"
			q = q.Where("LOWER(?TableAlias.?) LIKE ? ESCAPE '"+likeEscape+"'", col, pattern)
		case query.OpAtLeast:
			q = q.Where("?TableAlias.? >= ?", col, p.Number)
		case query.OpAtMost:
			q = q.Where("?TableAlias.? <= ?", col, p.Number)
		default:
			return nil, fmt.Errorf("unsupported predicate %s", p)
		}
	}
	return q, nil
}
