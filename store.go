package keypager

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// FindOptions is one page query handed to a Store.
type FindOptions struct {
	// Where restricts rows; conjunctions are ORed. Nil means no restriction.
	Where Disjunction
	// Order is applied left to right. Empty means the store's natural order.
	Order Orderings
	// Take limits the number of returned rows.
	Take int
}

// Store executes page queries. Implementations must support the operators
// of Operator and must return rows matching Where, sorted by Order, limited
// to Take.
type Store[T any] interface {
	Find(ctx context.Context, opts FindOptions) ([]T, error)
}

// StoreFunc adapts a function to Store.
type StoreFunc[T any] func(ctx context.Context, opts FindOptions) ([]T, error)

func (f StoreFunc[T]) Find(ctx context.Context, opts FindOptions) ([]T, error) {
	return f(ctx, opts)
}

// GORMStore runs page queries through gorm.
type GORMStore[T any] struct {
	db *gorm.DB
}

// NewGORMStore returns a store querying the table of model T. db may carry
// additional scopes (joins, selected columns, soft-delete handling); they are
// preserved.
func NewGORMStore[T any](db *gorm.DB) *GORMStore[T] {
	return &GORMStore[T]{db: db}
}

// Query applies opts to db without executing it.
func (s *GORMStore[T]) Query(ctx context.Context, opts FindOptions) (*gorm.DB, error) {
	err := opts.Where.validate()
	if err != nil {
		return nil, fmt.Errorf("cannot build page query: %w", err)
	}
	err = opts.Order.validate()
	if err != nil {
		return nil, fmt.Errorf("cannot build page query: %w", err)
	}

	db := s.db.WithContext(ctx).Model(new(T))
	if exp := opts.Where.Expression(); exp != nil {
		db = db.Clauses(exp)
	}
	db = opts.Order.Apply(db)
	if opts.Take > 0 {
		db = db.Limit(opts.Take)
	}

	return db, nil
}

// Find - implements Store.
func (s *GORMStore[T]) Find(ctx context.Context, opts FindOptions) ([]T, error) {
	db, err := s.Query(ctx, opts)
	if err != nil {
		return nil, err
	}

	var rows []T
	if err = db.Find(&rows).Error; err != nil {
		return nil, err
	}

	return rows, nil
}

var (
	_ Store[struct{}] = (*GORMStore[struct{}])(nil)
	_ Store[struct{}] = StoreFunc[struct{}](nil)
)
