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
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tomoncle/garage/model"
	"github.com/tomoncle/garage/types"
	"github.com/tomoncle/garage/utils"
)

// Engine runs searches against a Store. It keeps no state between calls
// and is safe for concurrent use.
type Engine struct {
	store       Store
	maxPageSize int
	logger      *utils.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithMaxPageSize caps the effective page size at n. n <= 0 leaves page
// sizes unbounded, which is the default.
func WithMaxPageSize(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.maxPageSize = n
		}
	}
}

// WithLogger replaces the default QUERY logger.
func WithLogger(l *utils.Logger) EngineOption {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEngine returns an Engine searching store.
func NewEngine(store Store, opts ...EngineOption) *Engine {
	e := &Engine{store: store}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = utils.NewLogger("QUERY")
	}
	return e
}

// Query counts the vehicles matching spec, then fetches the requested page
// with the same predicates. A page past the end yields no records and no
// error. Storage failures are returned as *QueryFailedError.
func (e *Engine) Query(ctx context.Context, spec FilterSpec) (*types.Pagination[model.Vehicle], error) {
	if e.maxPageSize > 0 && spec.PageSize() > e.maxPageSize {
		spec = spec.withPageSize(e.maxPageSize)
	}
	if spec.SortFallback() {
		e.logger.WithField("sort_by", spec.RequestedSort()).
			Warnf("unknown sort key, ordering by %s", DefaultSortField)
	}

	start := time.Now()
	preds := spec.Predicates()
	order := spec.Order()
	page, size, offset := spec.Page(), spec.PageSize(), spec.Offset()

	total, err := e.store.Count(ctx, preds)
	if err != nil {
		return nil, e.fail("count", spec, err)
	}

	var items []*model.Vehicle
	if offset < total {
		items, err = e.store.Fetch(ctx, preds, order, offset, size)
		if err != nil {
			return nil, e.fail("fetch", spec, err)
		}
		if len(items) > size {
			items = items[:size]
		}
	}

	result := types.NewPagination(page, size, total, items)
	e.logger.WithFields(logrus.Fields{
		"where":       preds.String(),
		"order":       order.String(),
		"page":        page,
		"page_size":   size,
		"total_count": total,
		"total_pages": result.Metadata.TotalPages,
		"returned":    len(result.Items),
		"duration":    time.Since(start).String(),
	}).Debug("vehicle query")
	return result, nil
}

func (e *Engine) fail(op string, spec FilterSpec, cause error) error {
	e.logger.WithFields(logrus.Fields{
		"op":    op,
		"error": cause.Error(),
	}).Error("vehicle query failed")
	return &QueryFailedError{Op: op, Spec: spec, Cause: cause}
}
