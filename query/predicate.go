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
	"fmt"
	"strings"

	"github.com/tomoncle/garage/model"
)

// Field is a vehicle attribute a predicate can test.
type Field string

const (
	FieldName  Field = "name"
	FieldBrand Field = "brand"
	FieldYear  Field = "year"
)

// Op is the comparison a predicate applies.
type Op int

const (
	// OpContains is a case-insensitive substring test on a text field.
	OpContains Op = iota
	// OpAtLeast is an inclusive lower bound on a numeric field.
	OpAtLeast
	// OpAtMost is an inclusive upper bound on a numeric field.
	OpAtMost
)

func (o Op) String() string {
	switch o {
	case OpContains:
		return "contains"
	case OpAtLeast:
		return ">="
	case OpAtMost:
		return "<="
	default:
		return "unknown"
	}
}

// Predicate is a single condition over a vehicle. Text is the operand of
// OpContains and Number the operand of the bound operators.
type Predicate struct {
	Field  Field
	Op     Op
	Text   string
	Number int
}

// Contains builds a case-insensitive substring predicate.
func Contains(field Field, needle string) Predicate {
	return Predicate{Field: field, Op: OpContains, Text: needle}
}

// AtLeast builds an inclusive lower bound predicate.
func AtLeast(field Field, n int) Predicate {
	return Predicate{Field: field, Op: OpAtLeast, Number: n}
}

// AtMost builds an inclusive upper bound predicate.
func AtMost(field Field, n int) Predicate {
	return Predicate{Field: field, Op: OpAtMost, Number: n}
}

// Match reports whether v satisfies p. A predicate whose operator does not
// fit its field never matches.
func (p Predicate) Match(v *model.Vehicle) bool {
	switch p.Op {
	case OpContains:
		s, ok := textOf(p.Field, v)
		return ok && strings.Contains(strings.ToLower(s), strings.ToLower(p.Text))
	case OpAtLeast:
		n, ok := numberOf(p.Field, v)
		return ok && n >= p.Number
	case OpAtMost:
		n, ok := numberOf(p.Field, v)
		return ok && n <= p.Number
	default:
		return false
	}
}

func (p Predicate) String() string {
	if p.Op == OpContains {
		return fmt.Sprintf("%s %s %q", p.Field, p.Op, p.Text)
	}
	return fmt.Sprintf("%s %s %d", p.Field, p.Op, p.Number)
}

// Predicates is a conjunction. The empty conjunction matches everything.
type Predicates []Predicate

// Match reports whether v satisfies every predicate.
func (ps Predicates) Match(v *model.Vehicle) bool {
	for _, p := range ps {
		if !p.Match(v) {
			return false
		}
	}
	return true
}

func (ps Predicates) String() string {
	if len(ps) == 0 {
		return "true"
	}
	parts := make([]string, len(ps))
	for i, p := range ps {
		parts[i] = p.String()
	}
	return strings.Join(parts, " AND ")
}

func textOf(f Field, v *model.Vehicle) (string, bool) {
	switch f {
	case FieldName:
		return v.Name, true
	case FieldBrand:
		return v.Brand, true
	default:
		return "", false
	}
}

func numberOf(f Field, v *model.Vehicle) (int, bool) {
	if f == FieldYear {
		return v.Year, true
	}
	return 0, false
}
