package keypager

import (
	"errors"
	"fmt"
	"slices"

	"github.com/samber/lo"
)

var (
	ErrNoPrimaryKey        = errors.New("entity has no primary key column")
	ErrCompositePrimaryKey = errors.New("entity has multiple primary key columns")
	ErrUnknownColumn       = errors.New("unknown column")
)

// Column describes one column of an entity T.
type Column[T any] struct {
	// Name is the column name as it appears in SQL.
	Name string
	// PrimaryKey marks the primary key column. Exactly one column must set it.
	PrimaryKey bool
	// Nullable reports whether the column accepts NULL. Ignored for the
	// primary key.
	Nullable bool
	// Get extracts the column value from a loaded entity.
	Get func(T) any
}

// EntityMetadata is a static descriptor of an entity type: its primary key,
// columns with nullability, and unique column sets. It is built once per
// entity type and is read-only afterwards, so it can be shared between
// goroutines without synchronization.
type EntityMetadata[T any] struct {
	name       string
	primaryKey string
	columns    map[string]Column[T]
	names      []string
	unique     map[string]struct{}
}

// NewEntityMetadata validates the column declarations and builds the
// descriptor. A column counts as unique if it is the primary key or belongs
// to any of uniqueColumnSets.
//
// Every column of a multi-column set is marked unique on its own, although
// only the combination is. ResolveCursor may then pick such a column as the
// tie-break, and rows sharing its value can be skipped or repeated across
// pages. Pass single-column sets only when the entity is sorted by members of
// a composite unique constraint.
//
// Returns ErrNoPrimaryKey or ErrCompositePrimaryKey unless exactly one column
// is marked as primary key.
func NewEntityMetadata[T any](name string, columns []Column[T], uniqueColumnSets ...[]string) (*EntityMetadata[T], error) {
	primaryKeys := lo.Filter(columns, func(c Column[T], _ int) bool {
		return c.PrimaryKey
	})
	switch len(primaryKeys) {
	case 0:
		return nil, fmt.Errorf("cannot register entity '%s': %w", name, ErrNoPrimaryKey)
	case 1:
	default:
		return nil, fmt.Errorf(
			"cannot register entity '%s': %w: %v",
			name,
			ErrCompositePrimaryKey,
			lo.Map(primaryKeys, func(c Column[T], _ int) string { return c.Name }),
		)
	}

	m := &EntityMetadata[T]{
		name:       name,
		primaryKey: primaryKeys[0].Name,
		columns:    make(map[string]Column[T], len(columns)),
		names:      make([]string, 0, len(columns)),
		unique:     map[string]struct{}{primaryKeys[0].Name: {}},
	}

	for _, c := range columns {
		if err := validateColumnName(c.Name); err != nil {
			return nil, fmt.Errorf("cannot register entity '%s': %w", name, err)
		}
		if _, ok := m.columns[c.Name]; ok {
			return nil, fmt.Errorf("cannot register entity '%s': duplicate column '%s'", name, c.Name)
		}
		if c.Get == nil {
			return nil, fmt.Errorf("cannot register entity '%s': column '%s' has no getter", name, c.Name)
		}

		if c.PrimaryKey {
			c.Nullable = false
		}
		m.columns[c.Name] = c
		m.names = append(m.names, c.Name)
	}

	for _, set := range uniqueColumnSets {
		for _, column := range set {
			if _, ok := m.columns[column]; !ok {
				return nil, fmt.Errorf("cannot register entity '%s': unique set references %w '%s'", name, ErrUnknownColumn, column)
			}
			m.unique[column] = struct{}{}
		}
	}

	return m, nil
}

// MustEntityMetadata is like NewEntityMetadata but panics on error. Intended
// for package-level registration.
func MustEntityMetadata[T any](name string, columns []Column[T], uniqueColumnSets ...[]string) *EntityMetadata[T] {
	m, err := NewEntityMetadata(name, columns, uniqueColumnSets...)
	if err != nil {
		panic(err)
	}

	return m
}

// Name returns the entity name used in logs and errors.
func (m *EntityMetadata[T]) Name() string {
	return m.name
}

// PrimaryKey returns the single primary key column.
func (m *EntityMetadata[T]) PrimaryKey() string {
	return m.primaryKey
}

// Columns returns column names in declaration order.
func (m *EntityMetadata[T]) Columns() []string {
	return slices.Clone(m.names)
}

func (m *EntityMetadata[T]) HasColumn(column string) bool {
	_, ok := m.columns[column]
	return ok
}

func (m *EntityMetadata[T]) IsUnique(column string) bool {
	_, ok := m.unique[column]
	return ok
}

func (m *EntityMetadata[T]) IsNotNull(column string) bool {
	c, ok := m.columns[column]
	return ok && !c.Nullable
}

// Value returns the value of column for row. The second result is false for
// unknown columns.
func (m *EntityMetadata[T]) Value(row T, column string) (any, bool) {
	c, ok := m.columns[column]
	if !ok {
		return nil, false
	}

	return c.Get(row), true
}
