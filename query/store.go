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
	"context"
	"slices"

	"github.com/tomoncle/garage/model"
)

// Store is the storage the Engine searches. Implementations must apply
// preds as a conjunction in both methods.
type Store interface {
	// Count returns the number of records matching preds.
	Count(ctx context.Context, preds Predicates) (int, error)
	// Fetch returns at most limit matching records, ordered by order,
	// skipping the first offset of them.
	Fetch(ctx context.Context, preds Predicates, order Order, offset, limit int) ([]*model.Vehicle, error)
}

// SliceStore is a Store over an in-memory snapshot of vehicles.
type SliceStore struct {
	records []model.Vehicle
}

var _ Store = (*SliceStore)(nil)

// NewSliceStore copies records into a new snapshot; later changes to the
// caller's vehicles are not seen by the store. Nil entries are skipped.
func NewSliceStore(records []*model.Vehicle) *SliceStore {
	snapshot := make([]model.Vehicle, 0, len(records))
	for _, v := range records {
		if v != nil {
			snapshot = append(snapshot, *v)
		}
	}
	return &SliceStore{records: snapshot}
}

func (s *SliceStore) Count(ctx context.Context, preds Predicates) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	n := 0
	for i := range s.records {
		if preds.Match(&s.records[i]) {
			n++
		}
	}
	return n, nil
}

func (s *SliceStore) Fetch(ctx context.Context, preds Predicates, order Order, offset, limit int) ([]*model.Vehicle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	matched := make([]*model.Vehicle, 0)
	for i := range s.records {
		if preds.Match(&s.records[i]) {
			v := s.records[i]
			matched = append(matched, &v)
		}
	}
	slices.SortStableFunc(matched, order.Compare)

	if offset < 0 {
		offset = 0
	}
	if offset >= len(matched) || limit <= 0 {
		return []*model.Vehicle{}, nil
	}
	end := len(matched)
	if limit < end-offset {
		end = offset + limit
	}
	return matched[offset:end], nil
}
