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
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/tomoncle/garage/model"
)

func fleet(n int) []*model.Vehicle {
	brands := []string{"Honda", "Toyota", "Ford"}
	out := make([]*model.Vehicle, n)
	for i := 0; i < n; i++ {
		out[i] = &model.Vehicle{
			ID:    int64(i + 1),
			Name:  fmt.Sprintf("Model %02d", i+1),
			Brand: brands[i%len(brands)],
			Year:  1995 + i%20,
		}
	}
	return out
}

type failingStore struct {
	countErr error
	fetchErr error
	fetches  int
}

func (s *failingStore) Count(ctx context.Context, preds Predicates) (int, error) {
	if s.countErr != nil {
		return 0, s.countErr
	}
	return 5, nil
}

func (s *failingStore) Fetch(ctx context.Context, preds Predicates, order Order, offset, limit int) ([]*model.Vehicle, error) {
	s.fetches++
	return nil, s.fetchErr
}

// recordingStore captures the predicates handed to each call.
type recordingStore struct {
	*SliceStore
	countPreds Predicates
	fetchPreds Predicates
	fetches    int
}

func (s *recordingStore) Count(ctx context.Context, preds Predicates) (int, error) {
	s.countPreds = preds
	return s.SliceStore.Count(ctx, preds)
}

func (s *recordingStore) Fetch(ctx context.Context, preds Predicates, order Order, offset, limit int) ([]*model.Vehicle, error) {
	s.fetchPreds = preds
	s.fetches++
	return s.SliceStore.Fetch(ctx, preds, order, offset, limit)
}

func TestEngineLastPartialPage(t *testing.T) {
	engine := NewEngine(NewSliceStore(fleet(25)))
	res, err := engine.Query(context.Background(), Normalize(RawFilter{Page: Ptr(3), PageSize: Ptr(10)}))
	if err != nil {
		t.Fatalf("query error: %v", err)
	}
	meta := res.Metadata
	if meta.TotalCount != 25 || meta.TotalPages != 3 {
		t.Fatalf("totals = %d/%d, want 25/3", meta.TotalCount, meta.TotalPages)
	}
	if len(res.Items) != 5 {
		t.Fatalf("items = %d, want 5", len(res.Items))
	}
	if meta.HasNext || !meta.HasPrevious {
		t.Fatalf("flags = next:%v prev:%v, want false/true", meta.HasNext, meta.HasPrevious)
	}
}

func TestEngineNoMatches(t *testing.T) {
	store := &recordingStore{SliceStore: NewSliceStore(nil)}
	res, err := NewEngine(store).Query(context.Background(), Normalize(RawFilter{Page: Ptr(1)}))
	if err != nil {
		t.Fatalf("query error: %v", err)
	}
	if res.Metadata.TotalPages != 0 || len(res.Items) != 0 {
		t.Fatalf("unexpected result: %+v", res.Metadata)
	}
	if res.Metadata.HasNext || res.Metadata.HasPrevious {
		t.Fatalf("empty result has no neighbours: %+v", res.Metadata)
	}
	if store.fetches != 0 {
		t.Fatalf("fetch must be skipped when nothing matches")
	}
}

func TestEngineNameSubstring(t *testing.T) {
	store := NewSliceStore([]*model.Vehicle{
		{ID: 1, Name: "Civic", Brand: "Honda", Year: 2020},
		{ID: 2, Name: "Corolla", Brand: "Toyota", Year: 2021},
	})
	res, err := NewEngine(store).Query(context.Background(), Normalize(RawFilter{Name: Ptr("civ")}))
	if err != nil {
		t.Fatalf("query error: %v", err)
	}
	if len(res.Items) != 1 || res.Items[0].Name != "Civic" {
		t.Fatalf("items = %+v, want only Civic", res.Items)
	}
	if res.Metadata.TotalCount != 1 {
		t.Fatalf("total = %d, want 1", res.Metadata.TotalCount)
	}
}

func TestEngineYearBounds(t *testing.T) {
	store := NewSliceStore([]*model.Vehicle{
		{ID: 1, Name: "Old", Brand: "A", Year: 1999},
		{ID: 2, Name: "Mid", Brand: "A", Year: 2005},
		{ID: 3, Name: "Edge", Brand: "A", Year: 2010},
		{ID: 4, Name: "New", Brand: "A", Year: 2011},
	})
	res, err := NewEngine(store).Query(context.Background(),
		Normalize(RawFilter{YearMin: Ptr(2000), YearMax: Ptr(2010), SortBy: Ptr("year")}))
	if err != nil {
		t.Fatalf("query error: %v", err)
	}
	if len(res.Items) != 2 || res.Items[0].Year != 2005 || res.Items[1].Year != 2010 {
		t.Fatalf("items = %+v, want years 2005 and 2010", res.Items)
	}
}

func TestEnginePageSizeProperties(t *testing.T) {
	ctx := context.Background()
	for _, n := range []int{0, 1, 9, 10, 11, 25, 40} {
		engine := NewEngine(NewSliceStore(fleet(n)))
		for _, size := range []int{1, 3, 10} {
			first, err := engine.Query(ctx, Normalize(RawFilter{PageSize: Ptr(size)}))
			if err != nil {
				t.Fatalf("query error: %v", err)
			}
			totalPages := first.Metadata.TotalPages
			if want := (n + size - 1) / size; totalPages != want {
				t.Fatalf("N=%d S=%d: totalPages = %d, want %d", n, size, totalPages, want)
			}
			if (totalPages == 0) != (n == 0) {
				t.Fatalf("N=%d S=%d: totalPages==0 iff N==0 violated", n, size)
			}
			seen := 0
			for p := 1; p <= totalPages+1; p++ {
				res, err := engine.Query(ctx, Normalize(RawFilter{Page: Ptr(p), PageSize: Ptr(size)}))
				if err != nil {
					t.Fatalf("query error: %v", err)
				}
				want := 0
				if p <= totalPages {
					want = min(size, n-(p-1)*size)
				}
				if len(res.Items) != want {
					t.Fatalf("N=%d S=%d p=%d: %d items, want %d", n, size, p, len(res.Items), want)
				}
				if res.Metadata.TotalCount != n || res.Metadata.TotalPages != totalPages {
					t.Fatalf("N=%d S=%d p=%d: metadata drifted: %+v", n, size, p, res.Metadata)
				}
				seen += len(res.Items)
			}
			if seen != n {
				t.Fatalf("N=%d S=%d: pages covered %d records", n, size, seen)
			}
		}
	}
}

func TestEnginePageBeyondRange(t *testing.T) {
	store := &recordingStore{SliceStore: NewSliceStore(fleet(25))}
	res, err := NewEngine(store).Query(context.Background(), Normalize(RawFilter{Page: Ptr(7)}))
	if err != nil {
		t.Fatalf("page beyond range must not fail: %v", err)
	}
	if len(res.Items) != 0 || res.Items == nil {
		t.Fatalf("items = %v, want empty non-nil slice", res.Items)
	}
	if res.Metadata.TotalCount != 25 || res.Metadata.TotalPages != 3 || res.Metadata.CurrentPage != 7 {
		t.Fatalf("metadata = %+v", res.Metadata)
	}
}

func TestEngineUsesSamePredicatesForCountAndFetch(t *testing.T) {
	store := &recordingStore{SliceStore: NewSliceStore(fleet(30))}
	spec := Normalize(RawFilter{Brand: Ptr("hon"), YearMin: Ptr(2000)})
	if _, err := NewEngine(store).Query(context.Background(), spec); err != nil {
		t.Fatalf("query error: %v", err)
	}
	if store.countPreds.String() != store.fetchPreds.String() {
		t.Fatalf("count used %s, fetch used %s", store.countPreds, store.fetchPreds)
	}
}

func TestEngineConjunctiveFilters(t *testing.T) {
	records := fleet(60)
	spec := Normalize(RawFilter{Brand: Ptr("TOY"), YearMin: Ptr(2000), YearMax: Ptr(2008), PageSize: Ptr(100)})
	res, err := NewEngine(NewSliceStore(records)).Query(context.Background(), spec)
	if err != nil {
		t.Fatalf("query error: %v", err)
	}
	returned := map[int64]bool{}
	for _, v := range res.Items {
		returned[v.ID] = true
	}
	for _, v := range records {
		want := v.Brand == "Toyota" && v.Year >= 2000 && v.Year <= 2008
		if returned[v.ID] != want {
			t.Errorf("vehicle %d (%s %d): returned=%v, want %v", v.ID, v.Brand, v.Year, returned[v.ID], want)
		}
	}
}

func TestEngineUnknownSortBehavesLikeName(t *testing.T) {
	engine := NewEngine(NewSliceStore(fleet(12)))
	ctx := context.Background()
	byName, err := engine.Query(ctx, Normalize(RawFilter{SortBy: Ptr("name"), SortAscending: Ptr(false)}))
	if err != nil {
		t.Fatalf("query error: %v", err)
	}
	byJunk, err := engine.Query(ctx, Normalize(RawFilter{SortBy: Ptr("horsepower"), SortAscending: Ptr(false)}))
	if err != nil {
		t.Fatalf("query error: %v", err)
	}
	for i := range byName.Items {
		if byName.Items[i].ID != byJunk.Items[i].ID {
			t.Fatalf("position %d: %d vs %d", i, byName.Items[i].ID, byJunk.Items[i].ID)
		}
	}
}

func TestEngineTieBreakIsStable(t *testing.T) {
	records := []*model.Vehicle{
		{ID: 3, Name: "C", Brand: "Honda", Year: 2020},
		{ID: 1, Name: "A", Brand: "Honda", Year: 2020},
		{ID: 2, Name: "B", Brand: "Honda", Year: 2020},
	}
	res, err := NewEngine(NewSliceStore(records)).Query(context.Background(),
		Normalize(RawFilter{SortBy: Ptr("brand")}))
	if err != nil {
		t.Fatalf("query error: %v", err)
	}
	for i, want := range []int64{1, 2, 3} {
		if res.Items[i].ID != want {
			t.Fatalf("position %d = id %d, want %d", i, res.Items[i].ID, want)
		}
	}
}

func TestEngineIdempotent(t *testing.T) {
	engine := NewEngine(NewSliceStore(fleet(33)))
	spec := Normalize(RawFilter{SortBy: Ptr("year"), Page: Ptr(2), PageSize: Ptr(7)})
	first, err := engine.Query(context.Background(), spec)
	if err != nil {
		t.Fatalf("query error: %v", err)
	}
	second, err := engine.Query(context.Background(), spec)
	if err != nil {
		t.Fatalf("query error: %v", err)
	}
	if first.Metadata != second.Metadata {
		t.Fatalf("metadata differs: %+v vs %+v", first.Metadata, second.Metadata)
	}
	for i := range first.Items {
		if *first.Items[i] != *second.Items[i] {
			t.Fatalf("item %d differs", i)
		}
	}
}

func TestEngineMaxPageSize(t *testing.T) {
	engine := NewEngine(NewSliceStore(fleet(50)), WithMaxPageSize(20))
	res, err := engine.Query(context.Background(), Normalize(RawFilter{PageSize: Ptr(100)}))
	if err != nil {
		t.Fatalf("query error: %v", err)
	}
	if res.Metadata.PageSize != 20 || len(res.Items) != 20 || res.Metadata.TotalPages != 3 {
		t.Fatalf("metadata = %+v, items = %d", res.Metadata, len(res.Items))
	}
}

func TestEngineCountFailure(t *testing.T) {
	cause := errors.New("connection reset")
	store := &failingStore{countErr: cause}
	res, err := NewEngine(store).Query(context.Background(), Normalize(RawFilter{}))
	if res != nil {
		t.Fatalf("a failed query must not return a result")
	}
	if !errors.Is(err, ErrQueryFailed) || !errors.Is(err, cause) {
		t.Fatalf("err = %v, want QueryFailed wrapping the cause", err)
	}
	var qerr *QueryFailedError
	if !errors.As(err, &qerr) || qerr.Op != "count" {
		t.Fatalf("err = %#v, want *QueryFailedError for count", err)
	}
	if store.fetches != 0 {
		t.Fatalf("fetch must not run after a failed count")
	}
}

func TestEngineFetchFailure(t *testing.T) {
	cause := errors.New("disk I/O error")
	_, err := NewEngine(&failingStore{fetchErr: cause}).Query(context.Background(), Normalize(RawFilter{}))
	var qerr *QueryFailedError
	if !errors.As(err, &qerr) || qerr.Op != "fetch" || !errors.Is(err, cause) {
		t.Fatalf("err = %v, want fetch QueryFailed", err)
	}
}

func TestEngineCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewEngine(NewSliceStore(fleet(3))).Query(ctx, Normalize(RawFilter{}))
	if !errors.Is(err, ErrQueryFailed) || !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want QueryFailed wrapping context.Canceled", err)
	}
}

func TestEngineConcurrentQueries(t *testing.T) {
	engine := NewEngine(NewSliceStore(fleet(40)))
	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 1; i <= 16; i++ {
		wg.Add(1)
		go func(page int) {
			defer wg.Done()
			res, err := engine.Query(context.Background(), Normalize(RawFilter{Page: Ptr(page%5 + 1), PageSize: Ptr(10)}))
			if err != nil {
				errs <- err
				return
			}
			if res.Metadata.CurrentPage != page%5+1 {
				errs <- fmt.Errorf("page %d reported as %d", page%5+1, res.Metadata.CurrentPage)
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestEngineIntegerExtremes(t *testing.T) {
	engine := NewEngine(NewSliceStore(fleet(25)))
	cases := []struct {
		name      string
		raw       RawFilter
		wantItems int
		wantPages int
		wantFirst int
	}{
		{"huge page size", RawFilter{PageSize: Ptr(1 << 40)}, 25, 1, 1},
		{"max page size", RawFilter{PageSize: Ptr(math.MaxInt)}, 25, 1, 1},
		{"max page", RawFilter{Page: Ptr(math.MaxInt)}, 0, 3, 0},
		{"max page and size", RawFilter{Page: Ptr(math.MaxInt), PageSize: Ptr(math.MaxInt)}, 0, 1, 0},
		{"second page of max size", RawFilter{Page: Ptr(2), PageSize: Ptr(math.MaxInt)}, 0, 1, 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			res, err := engine.Query(context.Background(), Normalize(c.raw))
			if err != nil {
				t.Fatalf("query error: %v", err)
			}
			meta := res.Metadata
			if len(res.Items) != c.wantItems || meta.TotalCount != 25 || meta.TotalPages != c.wantPages {
				t.Fatalf("items=%d total=%d pages=%d, want %d/25/%d",
					len(res.Items), meta.TotalCount, meta.TotalPages, c.wantItems, c.wantPages)
			}
			if meta.FirstItemOnPage != c.wantFirst || meta.HasNext {
				t.Fatalf("unexpected metadata: %+v", meta)
			}
		})
	}
}
