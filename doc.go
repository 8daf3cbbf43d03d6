// Package keypager provides keyset (cursor) pagination over relational
// stores with opaque, encrypted continuation tokens.
//
// Overview
//
// A page boundary is expressed as a predicate on the sort column and a
// unique, non-null tie-break column rather than as a numeric offset, so rows
// are neither skipped nor repeated when iterating page by page.
//
// Key concepts
//   - EntityMetadata: static descriptor of an entity (primary key, columns,
//     nullability, unique column sets). Build it by hand with
//     NewEntityMetadata or from a gorm model with EntityMetadataFromGORM.
//   - ResolveCursor: picks the tie-break column for a sort column.
//   - Predicate, Conjunction, Disjunction: filters in disjunctive normal form.
//   - BoundaryPredicate and MergeFilter: the keyset condition and its
//     distribution over the caller filter.
//   - TokenCodec: seals pagination state into an opaque token (CBCCodec,
//     SealedCodec).
//   - Paginator: ties everything together over a Store (GORMStore).
//
// Usage
//
//	meta := keypager.MustEntityMetadataFromGORM[Post](db)
//	codec, _ := keypager.NewTokenCodec(keypager.CodecConfig{Mode: keypager.CodecModeSealed})
//	pager := keypager.NewPaginator[Post, PostFilter](meta, keypager.NewGORMStore[Post](db), codec).
//		WithFilter(postFilter)
//
//	page, err := pager.Paginate(ctx, keypager.PaginateParam[PostFilter]{Size: 20}, "")
//	// ...
//	page, err = pager.Paginate(ctx, keypager.PaginateParam[PostFilter]{}, *page.NextPageToken)
package keypager
