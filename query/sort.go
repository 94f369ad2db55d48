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
	"cmp"
	"strings"

	"github.com/tomoncle/garage/model"
	"github.com/tomoncle/garage/types"
)

// SortField is a key vehicle results can be ordered by.
type SortField int

const (
	SortByName SortField = iota
	SortByBrand
	SortByYear
	SortByID
)

// DefaultSortField is used when the requested key is absent or unknown.
const DefaultSortField = SortByName

var sortFields = []SortField{SortByName, SortByBrand, SortByYear, SortByID}

var _ types.BaseEnum = SortField(0)

func (f SortField) IsValid() bool { return f >= SortByName && f <= SortByID }

func (f SortField) Number() int {
	if !f.IsValid() {
		return types.IllegalValue
	}
	return int(f)
}

func (f SortField) Name() string {
	switch f {
	case SortByName:
		return "name"
	case SortByBrand:
		return "brand"
	case SortByYear:
		return "year"
	case SortByID:
		return "id"
	default:
		return types.IllegalName
	}
}

func (f SortField) String() string { return f.Name() }

func (f SortField) Desc() string {
	switch f {
	case SortByName:
		return "vehicle name"
	case SortByBrand:
		return "vehicle brand"
	case SortByYear:
		return "model year"
	case SortByID:
		return "storage identifier"
	default:
		return types.IllegalDesc
	}
}

// Column is the storage column backing the sort key.
func (f SortField) Column() string { return f.Name() }

// ParseSortField maps name onto a SortField, ignoring case. Surrounding
// whitespace is not trimmed, so " id" is unknown. Unknown names report false.
func ParseSortField(name string) (SortField, bool) {
	return types.LookupEnum(sortFields, name)
}

// OrderKey is one column of an ORDER BY list.
type OrderKey struct {
	Field     SortField
	Ascending bool
}

// Order is the ordering applied to a result set: a primary key and
// direction. Non-unique keys are always followed by id in the same
// direction so that equal keys resolve identically on every call.
type Order struct {
	Field     SortField
	Ascending bool
}

// Keys returns the full key list, primary key first.
func (o Order) Keys() []OrderKey {
	keys := []OrderKey{{Field: o.Field, Ascending: o.Ascending}}
	if o.Field != SortByID {
		keys = append(keys, OrderKey{Field: SortByID, Ascending: o.Ascending})
	}
	return keys
}

// Compare orders a before b (negative), after b (positive) or reports them
// equal (zero) under o.
func (o Order) Compare(a, b *model.Vehicle) int {
	for _, k := range o.Keys() {
		c := compareField(k.Field, a, b)
		if !k.Ascending {
			c = -c
		}
		if c != 0 {
			return c
		}
	}
	return 0
}

func (o Order) String() string {
	parts := make([]string, 0, 2)
	for _, k := range o.Keys() {
		dir := "ASC"
		if !k.Ascending {
			dir = "DESC"
		}
		parts = append(parts, k.Field.Column()+" "+dir)
	}
	return strings.Join(parts, ", ")
}

func compareField(f SortField, a, b *model.Vehicle) int {
	switch f {
	case SortByBrand:
		return cmp.Compare(a.Brand, b.Brand)
	case SortByYear:
		return cmp.Compare(a.Year, b.Year)
	case SortByID:
		return cmp.Compare(a.ID, b.ID)
	default:
		return cmp.Compare(a.Name, b.Name)
	}
}
