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

package query

import (
	"math"

	"github.com/tomoncle/garage/types"
)

// RawFilter carries the optional search parameters exactly as the caller
// supplied them. Nil means absent.
type RawFilter struct {
	Name          *string
	Brand         *string
	YearMin       *int
	YearMax       *int
	Page          *int
	PageSize      *int
	SortBy        *string
	SortAscending *bool
}

// Ptr returns a pointer to v, for filling RawFilter literals.
func Ptr[T any](v T) *T {
	return &v
}

// FilterSpec is a normalized, immutable search request. Build one with
// Normalize; the zero value is equivalent to Normalize(RawFilter{}).
type FilterSpec struct {
	name       string
	brand      string
	yearMin    int
	hasYearMin bool
	yearMax    int
	hasYearMax bool
	page       int
	pageSize   int
	sortBy     SortField
	descending bool

	requestedSort string
	sortFallback  bool
}

// Normalize applies the defaults and coercions to raw. It never fails:
// non-positive or absent page and page size become 1 and 10, an unknown
// sort key becomes name, and empty text filters are dropped.
func Normalize(raw RawFilter) FilterSpec {
	spec := FilterSpec{
		page:     types.DefaultPage,
		pageSize: types.DefaultPageSize,
		sortBy:   DefaultSortField,
	}
	if raw.Name != nil {
		spec.name = *raw.Name
	}
	if raw.Brand != nil {
		spec.brand = *raw.Brand
	}
	if raw.YearMin != nil {
		spec.yearMin, spec.hasYearMin = *raw.YearMin, true
	}
	if raw.YearMax != nil {
		spec.yearMax, spec.hasYearMax = *raw.YearMax, true
	}
	if raw.Page != nil && *raw.Page > 0 {
		spec.page = *raw.Page
	}
	if raw.PageSize != nil && *raw.PageSize > 0 {
		spec.pageSize = *raw.PageSize
	}
	if raw.SortBy != nil {
		spec.requestedSort = *raw.SortBy
		if f, ok := ParseSortField(*raw.SortBy); ok {
			spec.sortBy = f
		} else {
			spec.sortFallback = true
		}
	}
	if raw.SortAscending != nil {
		spec.descending = !*raw.SortAscending
	}
	return spec
}

// Name returns the name filter and whether it is set.
func (s FilterSpec) Name() (string, bool) { return s.name, s.name != "" }

// Brand returns the brand filter and whether it is set.
func (s FilterSpec) Brand() (string, bool) { return s.brand, s.brand != "" }

// YearMin returns the inclusive lower year bound and whether it is set.
func (s FilterSpec) YearMin() (int, bool) { return s.yearMin, s.hasYearMin }

// YearMax returns the inclusive upper year bound and whether it is set.
func (s FilterSpec) YearMax() (int, bool) { return s.yearMax, s.hasYearMax }

// Page is the 1-based page number, never below 1.
func (s FilterSpec) Page() int {
	if s.page < 1 {
		return types.DefaultPage
	}
	return s.page
}

// PageSize is the number of records per page, never below 1.
func (s FilterSpec) PageSize() int {
	if s.pageSize < 1 {
		return types.DefaultPageSize
	}
	return s.pageSize
}

// SortBy is the effective sort key.
func (s FilterSpec) SortBy() SortField {
	if !s.sortBy.IsValid() {
		return DefaultSortField
	}
	return s.sortBy
}

// SortAscending reports the sort direction.
func (s FilterSpec) SortAscending() bool { return !s.descending }

// SortFallback reports whether the requested sort key was not recognized
// and DefaultSortField was used instead.
func (s FilterSpec) SortFallback() bool { return s.sortFallback }

// RequestedSort is the sort key as the caller sent it, or "" if absent.
func (s FilterSpec) RequestedSort() string { return s.requestedSort }

// Offset is the zero-based index of the first record on the page. It
// saturates at math.MaxInt instead of overflowing.
func (s FilterSpec) Offset() int {
	page, size := s.Page(), s.PageSize()
	if page-1 > math.MaxInt/size {
		return math.MaxInt
	}
	return (page - 1) * size
}

// Order is the ordering the request asks for.
func (s FilterSpec) Order() Order {
	return Order{Field: s.SortBy(), Ascending: s.SortAscending()}
}

// Predicates returns the conjunction of every filter present in s, in a
// fixed order: name, brand, year lower bound, year upper bound.
func (s FilterSpec) Predicates() Predicates {
	preds := make(Predicates, 0, 4)
	if name, ok := s.Name(); ok {
		preds = append(preds, Contains(FieldName, name))
	}
	if brand, ok := s.Brand(); ok {
		preds = append(preds, Contains(FieldBrand, brand))
	}
	if lo, ok := s.YearMin(); ok {
		preds = append(preds, AtLeast(FieldYear, lo))
	}
	if hi, ok := s.YearMax(); ok {
		preds = append(preds, AtMost(FieldYear, hi))
	}
	return preds
}

func (s FilterSpec) withPageSize(n int) FilterSpec {
	s.pageSize = n
	return s
}
