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

import (
	"math"
	"testing"
)

func TestTotalPages(t *testing.T) {
	cases := []struct {
		total, size, want int
	}{
		{0, 10, 0},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{25, 10, 3},
		{25, 1, 25},
		{7, 0, 1},
		{-3, 10, 0},
		{25, math.MaxInt, 1},
		{math.MaxInt, math.MaxInt, 1},
		{math.MaxInt, 2, math.MaxInt/2 + 1},
	}
	for _, c := range cases {
		if got := TotalPages(c.total, c.size); got != c.want {
			t.Errorf("TotalPages(%d, %d) = %d, want %d", c.total, c.size, got, c.want)
		}
	}
}

func TestNewPageMetadataLastPage(t *testing.T) {
	meta := NewPageMetadata(3, 10, 25, 5)
	if meta.TotalPages != 3 {
		t.Fatalf("total pages = %d, want 3", meta.TotalPages)
	}
	if meta.HasNext {
		t.Fatalf("last page must not report a next page")
	}
	if !meta.HasPrevious {
		t.Fatalf("page 3 must report a previous page")
	}
	if meta.FirstItemOnPage != 21 || meta.LastItemOnPage != 25 {
		t.Fatalf("items on page = %d..%d, want 21..25", meta.FirstItemOnPage, meta.LastItemOnPage)
	}
}

func TestNewPageMetadataEmpty(t *testing.T) {
	meta := NewPageMetadata(1, 10, 0, 0)
	if meta.TotalPages != 0 || meta.HasNext || meta.HasPrevious {
		t.Fatalf("unexpected metadata for empty result: %+v", meta)
	}
	if meta.FirstItemOnPage != 0 || meta.LastItemOnPage != 0 {
		t.Fatalf("empty page must report zero item positions: %+v", meta)
	}
}

func TestNewPageMetadataBeyondRange(t *testing.T) {
	meta := NewPageMetadata(9, 10, 25, 0)
	if meta.TotalCount != 25 || meta.TotalPages != 3 {
		t.Fatalf("totals must stay accurate beyond the last page: %+v", meta)
	}
	if meta.HasNext || !meta.HasPrevious {
		t.Fatalf("unexpected flags beyond range: %+v", meta)
	}
}

func TestNewPaginationReplacesNilItems(t *testing.T) {
	p := NewPagination[int](1, 10, 0, nil)
	if p.Items == nil || len(p.Items) != 0 {
		t.Fatalf("items = %v, want empty non-nil slice", p.Items)
	}
}

func TestPageRequestDefaults(t *testing.T) {
	req := NewDefaultPageRequest(0, -5)
	if req.GetPage() != DefaultPage {
		t.Fatalf("page = %d, want %d", req.GetPage(), DefaultPage)
	}
	if req.GetPageSize() != DefaultPageSize {
		t.Fatalf("page size = %d, want %d", req.GetPageSize(), DefaultPageSize)
	}
	if req.GetOffset() != 0 {
		t.Fatalf("offset = %d, want 0", req.GetOffset())
	}
	if got := NewDefaultPageRequest(3, 20).GetOffset(); got != 40 {
		t.Fatalf("offset = %d, want 40", got)
	}
}
