package blog

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Alp4ka/keypager"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
)

type RepositoryConfig struct {
	Pagination keypager.Config
	Logger     *zap.Logger
	Metrics    *Metrics
}

// Repository stores entities of type T and serves them in pages filtered by
// P.
type Repository[T any, P any] struct {
	db      *gorm.DB
	meta    *keypager.EntityMetadata[T]
	pager   *keypager.Paginator[T, P]
	metrics *Metrics
}

func NewRepository[T any, P any](
	db *gorm.DB,
	codec keypager.TokenCodec,
	filter keypager.FilterFunc[P],
	cfg RepositoryConfig,
) (*Repository[T, P], error) {
	meta, err := keypager.EntityMetadataFromGORM[T](db)
	if err != nil {
		return nil, fmt.Errorf("cannot build repository: %w", err)
	}

	pager := keypager.NewPaginator[T, P](meta, keypager.NewGORMStore[T](db), codec).
		WithFilter(filter).
		WithConfig(cfg.Pagination).
		WithLogger(cfg.Logger)

	return &Repository[T, P]{
		db:      db,
		meta:    meta,
		pager:   pager,
		metrics: cfg.Metrics,
	}, nil
}

// Name returns the table name.
func (r *Repository[T, P]) Name() string {
	return r.meta.Name()
}

func (r *Repository[T, P]) Page(ctx context.Context, params keypager.PaginateParam[P], token string) (*keypager.Page[T], error) {
	page, err := r.pager.Paginate(ctx, params, token)
	if err != nil {
		return nil, err
	}

	r.metrics.ObservePage(r.meta.Name(), page.Outcome)

	return page, nil
}

func (r *Repository[T, P]) byKey(key any) clause.Expression {
	return clause.Eq{Column: clause.Column{Name: r.meta.PrimaryKey()}, Value: key}
}

func (r *Repository[T, P]) Get(ctx context.Context, key any) (*T, error) {
	return r.get(r.db.WithContext(ctx), key)
}

func (r *Repository[T, P]) get(tx *gorm.DB, key any) (*T, error) {
	row := new(T)
	err := tx.Where(r.byKey(key)).Take(row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%s %v: %w", r.meta.Name(), key, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	return row, nil
}

// Create inserts row. A row with the same primary key yields ErrConflict.
func (r *Repository[T, P]) Create(ctx context.Context, row *T) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if key, ok := r.meta.Value(*row, r.meta.PrimaryKey()); ok && !isZero(key) {
			var count int64
			if err := tx.Model(new(T)).Where(r.byKey(key)).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return fmt.Errorf("%s %v: %w", r.meta.Name(), key, ErrConflict)
			}
		}

		err := tx.Create(row).Error
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%s: %w", r.meta.Name(), ErrConflict)
		}

		return err
	})
}

// Update loads the row by key, applies fn and saves the result.
func (r *Repository[T, P]) Update(ctx context.Context, key any, fn func(row *T)) (*T, error) {
	var row *T
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		row, err = r.get(tx, key)
		if err != nil {
			return err
		}

		fn(row)

		return tx.Save(row).Error
	})
	if err != nil {
		return nil, err
	}

	return row, nil
}

func (r *Repository[T, P]) Delete(ctx context.Context, key any) error {
	res := r.db.WithContext(ctx).Where(r.byKey(key)).Delete(new(T))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%s %v: %w", r.meta.Name(), key, ErrNotFound)
	}

	return nil
}

func isZero(v any) bool {
	return v == nil || reflect.ValueOf(v).IsZero()
}
