// Package query implements the filtered, sorted and paginated vehicle search.
//
// A request is normalized into an immutable FilterSpec, which yields the
// conjunction of predicates and the ordering used for both counting and
// fetching:
//
//	spec := query.Normalize(query.RawFilter{
//		Name:     query.Ptr("civ"),
//		YearMin:  query.Ptr(2000),
//		SortBy:   query.Ptr("year"),
//		PageSize: query.Ptr(20),
//	})
//	page, err := query.NewEngine(store).Query(ctx, spec)
//
// The Engine holds no per-request state. Storage is reached through the
// Store interface; SliceStore serves an in-memory snapshot and the
// repository package provides a SQL implementation.
package query
