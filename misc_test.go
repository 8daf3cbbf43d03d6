package keypager

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newGORMMySQLMock() (string, *gorm.DB, sqlmock.Sqlmock, error) {
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		return "", nil, nil, err
	}

	dialector := mysql.New(mysql.Config{
		Conn:                      mockDB,
		SkipInitializeWithVersion: true,
	})

	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Discard})
	if err != nil {
		return "", nil, nil, err
	}

	return "mysql", db, mock, nil
}

func newGORMPostgresMock() (string, *gorm.DB, sqlmock.Sqlmock, error) {
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		return "", nil, nil, err
	}

	dialector := postgres.New(postgres.Config{
		Conn: mockDB,
	})

	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Discard})
	if err != nil {
		return "", nil, nil, err
	}

	return "postgres", db, mock, nil
}

var sqlMockFnList = []func() (string, *gorm.DB, sqlmock.Sqlmock, error){
	newGORMMySQLMock,
	newGORMPostgresMock,
}

type post struct {
	Slug      string `gorm:"primaryKey"`
	Title     string `gorm:"not null"`
	Content   string
	Views     int
	CreatedAt time.Time
}

type postFilter struct {
	Title   string `json:"title,omitempty"`
	Content string `json:"content,omitempty"`
}

// item has a nullable sort column.
type item struct {
	ID   int
	Note *string
}

var itemMeta = MustEntityMetadata("items", []Column[item]{
	{Name: "id", PrimaryKey: true, Get: func(i item) any { return i.ID }},
	{Name: "note", Nullable: true, Get: func(i item) any {
		if i.Note == nil {
			return nil
		}
		return *i.Note
	}},
})

func ids(items []item) []int {
	return lo.Map(items, func(i item, _ int) int { return i.ID })
}

var postMeta = MustEntityMetadata("posts", []Column[post]{
	{Name: "slug", PrimaryKey: true, Get: func(p post) any { return p.Slug }},
	{Name: "title", Get: func(p post) any { return p.Title }},
	{Name: "content", Nullable: true, Get: func(p post) any { return p.Content }},
	{Name: "views", Get: func(p post) any { return p.Views }},
	{Name: "created_at", Get: func(p post) any { return p.CreatedAt }},
})

func postFilterFunc(f postFilter) Predicate {
	return Disjunction{
		{Contains("title", f.Title)},
		{Contains("content", f.Content)},
	}
}

func newTestCodec(t *testing.T) TokenCodec {
	t.Helper()

	codec, err := NewCBCCodec(bytes.Repeat([]byte{1}, 32), bytes.Repeat([]byte{2}, 16))
	require.NoError(t, err)

	return codec
}

func slugs(posts []post) []string {
	return lo.Map(posts, func(p post, _ int) string { return p.Slug })
}

// memStore is an in-memory Store evaluating page queries the way a SQL
// database would. NULL (nil) sorts before every value and fails every
// comparison.
type memStore[T any] struct {
	meta  *EntityMetadata[T]
	rows  []T
	calls []FindOptions
	err   error
}

func (s *memStore[T]) Find(_ context.Context, opts FindOptions) ([]T, error) {
	s.calls = append(s.calls, opts)
	if s.err != nil {
		return nil, s.err
	}
	if err := opts.Where.validate(); err != nil {
		return nil, err
	}

	ret := lo.Filter(s.rows, func(row T, _ int) bool {
		return s.match(row, opts.Where)
	})
	sort.SliceStable(ret, func(i, j int) bool {
		for _, o := range opts.Order {
			a, _ := s.meta.Value(ret[i], o.Column)
			b, _ := s.meta.Value(ret[j], o.Column)
			c := compareValues(a, b)
			if c == 0 {
				continue
			}
			if o.Direction == DirectionDESC {
				return c > 0
			}

			return c < 0
		}

		return false
	})
	if opts.Take > 0 && len(ret) > opts.Take {
		ret = ret[:opts.Take]
	}

	return ret, nil
}

func (s *memStore[T]) match(row T, where Disjunction) bool {
	if len(where) == 0 {
		return true
	}

	return lo.SomeBy(where, func(conj Conjunction) bool {
		return lo.EveryBy(conj, func(cond Condition) bool {
			v, ok := s.meta.Value(row, cond.Column)
			if !ok {
				return false
			}

			return matchCondition(v, cond.Operator, parseAnyValue(cond.Value))
		})
	})
}

func matchCondition(v any, op Operator, want any) bool {
	switch op {
	case OperatorIsNull:
		return lo.IsNil(v)
	case OperatorIsNotNull:
		return !lo.IsNil(v)
	}
	if lo.IsNil(v) || lo.IsNil(want) {
		return false
	}

	if op == OperatorLike {
		s, _ := v.(string)
		pattern, _ := want.(string)
		return strings.Contains(s, strings.Trim(pattern, "%"))
	}

	c := compareValues(v, want)
	switch op {
	case OperatorGT:
		return c > 0
	case OperatorGTE:
		return c >= 0
	case OperatorLT:
		return c < 0
	case OperatorLTE:
		return c <= 0
	case OperatorEQ:
		return c == 0
	default:
		return false
	}
}

func compareValues(a, b any) int {
	switch {
	case lo.IsNil(a) && lo.IsNil(b):
		return 0
	case lo.IsNil(a):
		return -1
	case lo.IsNil(b):
		return 1
	}

	switch av := a.(type) {
	case time.Time:
		bv, _ := b.(time.Time)
		return av.Compare(bv)
	case string:
		return strings.Compare(av, fmt.Sprint(b))
	default:
		return cmp.Compare(toFloat(a), toFloat(b))
	}
}

func toFloat(v any) float64 {
	switch vt := v.(type) {
	case int:
		return float64(vt)
	case int64:
		return float64(vt)
	case float64:
		return vt
	case json.Number:
		f, _ := vt.Float64()
		return f
	default:
		return 0
	}
}
