package keypager

import (
	"context"
	"database/sql/driver"
	"fmt"
	"reflect"
	"sync"

	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// EntityMetadataFromGORM derives the static descriptor of T from its gorm
// schema. It reads the model tags once:
//
//   - `gorm:"primaryKey"` (or the implicit ID field) marks the primary key;
//   - `gorm:"not null"` marks a non-nullable column;
//   - `gorm:"unique"` and `gorm:"uniqueIndex"` declare unique column sets.
//
// Plain (non-unique) indexes do not make a column unique. Each column of a
// composite unique index is marked unique by itself, see NewEntityMetadata:
// declare a separate single-column unique index on any such column meant to
// serve as a sort column.
//
// A nullable column used for sorting must be mapped to a pointer or a
// sql.Null* field. A plain field reads NULL as its zero value, and rows
// holding NULL are then skipped past the first page.
//
// db may be nil, in which case the default naming strategy is used.
func EntityMetadataFromGORM[T any](db *gorm.DB) (*EntityMetadata[T], error) {
	var namer schema.Namer = schema.NamingStrategy{}
	if db != nil && db.Config != nil && db.NamingStrategy != nil {
		namer = db.NamingStrategy
	}

	s, err := schema.Parse(new(T), &sync.Map{}, namer)
	if err != nil {
		return nil, fmt.Errorf("cannot parse gorm schema: %w", err)
	}

	primaryKeys := lo.SliceToMap(s.PrimaryFields, func(f *schema.Field) (string, struct{}) {
		return f.DBName, struct{}{}
	})

	columns := make([]Column[T], 0, len(s.Fields))
	uniqueSets := make([][]string, 0)
	for _, f := range s.Fields {
		// Relations and `gorm:"-"` fields have no column.
		if f.DBName == "" {
			continue
		}

		field := f
		_, isPrimaryKey := primaryKeys[field.DBName]
		columns = append(columns, Column[T]{
			Name:       field.DBName,
			PrimaryKey: isPrimaryKey,
			Nullable:   !field.NotNull,
			Get: func(row T) any {
				v, _ := field.ValueOf(context.Background(), reflect.ValueOf(row))
				return columnValue(v)
			},
		})

		if field.Unique {
			uniqueSets = append(uniqueSets, []string{field.DBName})
		}
	}

	for _, idx := range s.ParseIndexes() {
		if idx.Class != "UNIQUE" {
			continue
		}

		set := make([]string, 0, len(idx.Fields))
		for _, opt := range idx.Fields {
			if opt.Field != nil && opt.Field.DBName != "" {
				set = append(set, opt.Field.DBName)
			}
		}
		uniqueSets = append(uniqueSets, set)
	}

	return NewEntityMetadata(s.Table, columns, uniqueSets...)
}

// columnValue unwraps pointers and driver.Valuer types (sql.NullString and
// the like) so that a NULL column yields nil.
func columnValue(v any) any {
	if valuer, ok := v.(driver.Valuer); ok {
		rv := reflect.ValueOf(v)
		if rv.Kind() == reflect.Ptr && rv.IsNil() {
			return nil
		}
		if value, err := valuer.Value(); err == nil {
			return value
		}

		return v
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}

		return columnValue(rv.Elem().Interface())
	}

	return v
}

// MustEntityMetadataFromGORM is like EntityMetadataFromGORM but panics on
// error.
func MustEntityMetadataFromGORM[T any](db *gorm.DB) *EntityMetadata[T] {
	m, err := EntityMetadataFromGORM[T](db)
	if err != nil {
		panic(err)
	}

	return m
}
