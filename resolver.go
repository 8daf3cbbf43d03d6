package keypager

// ResolveCursor picks the tie-break column for sorting by sortBy: sortBy
// itself when it is unique and non-null, otherwise the primary key.
//
// For posts sorted by a non-unique "title" the cursor falls back to the
// primary key "slug".
func ResolveCursor[T any](meta *EntityMetadata[T], sortBy string) string {
	if meta.IsUnique(sortBy) && meta.IsNotNull(sortBy) {
		return sortBy
	}

	return meta.PrimaryKey()
}
