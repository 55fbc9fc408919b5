// Package catalog stores token artifacts and answers "which crops show
// the number n".
//
// An [Index] keeps, for every value in [0, model.MaxValue], the list of
// artifacts showing it, plus the set of dedupe keys already seen. A
// [Snapshot] is a sorted, read-only copy used for assembly.
//
// A [Store] persists artifacts in SQLite (modernc.org/sqlite, no cgo).
// Each page is committed in one transaction, so an interrupted run never
// leaves a page half written:
//
//	store, err := catalog.Open(ctx, "piscan.db", logger)
//	inserted, err := store.CommitPage(ctx, book, page)
//	index, err := store.Load(ctx)
package catalog
