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

package types

// Defaults applied when a page request carries no usable values.
const (
	DefaultPage     = 1
	DefaultPageSize = 10
)

// QueryFilter describes a WHERE clause schema and its argument values.
type QueryFilter struct {
	Schema string
	Args   []interface{}
}

// NewQueryFilter creates a new query filter with schema and args.
func NewQueryFilter(schema string, args ...interface{}) *QueryFilter {
	return &QueryFilter{schema, args}
}

// PageRequest describes pagination, optional filter, and ordering.
// Values below 1 are read back as the defaults.
type PageRequest struct {
	page     int
	pageSize int
	filter   *QueryFilter
	orders   []string // "id ASC", "name DESC"
}

func (p *PageRequest) GetPageSize() int {
	if p.pageSize < 1 {
		return DefaultPageSize
	}
	return p.pageSize
}

func (p *PageRequest) GetPage() int {
	if p.page < 1 {
		return DefaultPage
	}
	return p.page
}

func (p *PageRequest) GetOffset() int {
	return (p.GetPage() - 1) * p.GetPageSize()
}

func (p *PageRequest) GetFilter() *QueryFilter {
	return p.filter
}

func (p *PageRequest) GetOrders() []string {
	return p.orders
}

// NewPageRequest constructs a PageRequest with filter and order settings.
func NewPageRequest(page int, pageSize int, filter *QueryFilter, orders []string) *PageRequest {
	return &PageRequest{page, pageSize, filter, orders}
}

// NewPageRequestWithFilter constructs a PageRequest with a filter only.
func NewPageRequestWithFilter(page int, pageSize int, filter *QueryFilter) *PageRequest {
	return NewPageRequest(page, pageSize, filter, make([]string, 0))
}

// NewPageRequestWithOrders constructs a PageRequest with ordering only.
func NewPageRequestWithOrders(page int, pageSize int, orders []string) *PageRequest {
	return NewPageRequest(page, pageSize, nil, orders)
}

// NewDefaultPageRequest constructs a PageRequest with no filter or ordering.
func NewDefaultPageRequest(page int, pageSize int) *PageRequest {
	return NewPageRequest(page, pageSize, nil, make([]string, 0))
}

// TotalPages returns ceil(total / pageSize). It is 0 when total is 0 and
// treats a non-positive pageSize as DefaultPageSize.
func TotalPages(total, pageSize int) int {
	if total <= 0 {
		return 0
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	pages := total / pageSize
	if total%pageSize != 0 {
		pages++
	}
	return pages
}

// PageMetadata describes where a page sits inside the full result set.
type PageMetadata struct {
	CurrentPage     int  `json:"currentPage"`
	PageSize        int  `json:"pageSize"`
	TotalCount      int  `json:"totalCount"`
	TotalPages      int  `json:"totalPages"`
	HasPrevious     bool `json:"hasPrevious"`
	HasNext         bool `json:"hasNext"`
	FirstItemOnPage int  `json:"firstItemOnPage"`
	LastItemOnPage  int  `json:"lastItemOnPage"`
}

// NewPageMetadata derives the metadata of page from the total count.
// itemsOnPage is the number of records actually returned for that page and
// only drives FirstItemOnPage/LastItemOnPage, which are 0 for an empty page.
func NewPageMetadata(page, pageSize, total, itemsOnPage int) PageMetadata {
	totalPages := TotalPages(total, pageSize)
	meta := PageMetadata{
		CurrentPage: page,
		PageSize:    pageSize,
		TotalCount:  total,
		TotalPages:  totalPages,
		HasPrevious: page > 1,
		HasNext:     page < totalPages,
	}
	if itemsOnPage > 0 {
		meta.FirstItemOnPage = (page-1)*pageSize + 1
		meta.LastItemOnPage = meta.FirstItemOnPage + itemsOnPage - 1
	}
	return meta
}

// Pagination holds paged result items along with pagination metadata.
type Pagination[T any] struct {
	Items    []*T         `json:"data"`
	Metadata PageMetadata `json:"metadata"`
}

// NewPagination builds a page from its items and the total match count.
// A nil items slice is replaced by an empty one.
func NewPagination[T any](page int, pageSize int, total int, items []*T) *Pagination[T] {
	if items == nil {
		items = make([]*T, 0)
	}
	return &Pagination[T]{
		Items:    items,
		Metadata: NewPageMetadata(page, pageSize, total, len(items)),
	}
}

// NewDefaultPagination constructs an empty pagination container.
func NewDefaultPagination[T any](page int, pageSize int) *Pagination[T] {
	return NewPagination[T](page, pageSize, 0, nil)
}
