package keypager

import (
	"fmt"
	"math"
	"strings"

	"github.com/samber/lo"
	"gorm.io/gorm"
)

// Direction defines the sort direction for the requested dataset.
type Direction string

const (
	DirectionASC  Direction = "asc"
	DirectionDESC Direction = "desc"
)

// ParseDirection parses "asc"/"desc" case-insensitively. An empty string
// yields DirectionASC.
func ParseDirection(s string) (Direction, error) {
	d := Direction(strings.ToLower(strings.TrimSpace(s)))
	if d == "" {
		return DirectionASC, nil
	}
	if !d.Valid() {
		return "", fmt.Errorf("invalid direction '%s'", s)
	}

	return d, nil
}

func (o Direction) Valid() bool {
	return o == DirectionASC || o == DirectionDESC
}

// ForOperator returns the strict operator that moves past a value in this
// scan direction.
func (o Direction) ForOperator() Operator {
	switch o {
	case DirectionASC:
		return OperatorGT
	case DirectionDESC:
		return OperatorLT
	default:
		panic(fmt.Errorf("cannot map direction '%s' to operator", o))
	}
}

type (
	Orderings []OrderBy
	OrderBy   struct {
		Column    string
		Direction Direction
		// Nullable sorts NULL before every value, i.e. first in ascending and
		// last in descending order, the same way on every dialect.
		Nullable bool
	}
)

var _availableColumnNameSymbols = append([]rune("_."), lo.AlphanumericCharset...)

// validateColumnName guards against SQL injection by restricting allowed
// characters in column names. Column names reach SQL unquoted.
func validateColumnName(column string) error {
	if column == "" {
		return fmt.Errorf("empty column name")
	}
	if !lo.Every(_availableColumnNameSymbols, []rune(column)) {
		return fmt.Errorf("column name contains forbidden symbols '%s'", column)
	}

	return nil
}

func (o OrderBy) validate() error {
	if !o.Direction.Valid() {
		return fmt.Errorf("invalid ordering direction '%s'", o.Direction)
	}

	return validateColumnName(o.Column)
}

// NewOrderings builds orderings from the given columns, all sorted in the
// same direction. Repeated columns keep their first occurrence.
func NewOrderings(direction Direction, columns ...string) Orderings {
	return lo.Map(lo.Uniq(columns), func(column string, _ int) OrderBy {
		return OrderBy{Column: column, Direction: direction}
	})
}

// ToSQLSlice converts Orderings to a slice of strings in the form
// "<order_column> <ORDER_DIRECTION>" suitable for SQL query builders.
// A nullable column is preceded by "<order_column> IS NULL <DIRECTION>".
//
// Example: for Orderings: [{"a", "asc"}, {"b", "desc"}] returns ["a ASC", "b DESC"].
func (o Orderings) ToSQLSlice() []string {
	ret := make([]string, 0, len(o))
	for _, ordering := range o {
		if ordering.Nullable {
			nullsDirection := lo.Ternary(ordering.Direction == DirectionASC, DirectionDESC, DirectionASC)
			ret = append(ret, fmt.Sprintf("%s IS NULL %s", ordering.Column, strings.ToUpper(string(nullsDirection))))
		}
		ret = append(ret, fmt.Sprintf("%s %s", ordering.Column, strings.ToUpper(string(ordering.Direction))))
	}

	return ret
}

// ToSQL converts Orderings to a single string
// "<order_column_1> <ORDER_DIRECTION_1>, <order_column_2> <ORDER_DIRECTION_2>"
// suitable for embedding into an SQL query.
//
// Usage:
//
//	query := fmt.Sprintf("SELECT * FROM table ORDER BY %s", orderings.ToSQL())
func (o Orderings) ToSQL() string {
	return strings.Join(o.ToSQLSlice(), ", ")
}

// Apply applies the ordering to a gorm query. Empty orderings leave the query
// untouched.
func (o Orderings) Apply(db *gorm.DB) *gorm.DB {
	if len(o) == 0 {
		return db
	}

	return db.Order(o.ToSQL())
}

func (o Orderings) validate() error {
	var err error
	for _, ordering := range o {
		err = ordering.validate()
		if err != nil {
			return err
		}
	}

	return nil
}

func closestColumn(input string, dataSet []string) string {
	minDist := math.MaxInt
	closest := ""

	for _, column := range dataSet {
		dist := levenshtein([]rune(column), []rune(input))
		if dist < minDist {
			minDist = dist
			closest = column
		}
	}

	return closest
}

// levenshtein returns the edit distance between a and b.
func levenshtein(a, b []rune) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}

func min3(a, b, c int) int {
	return min(a, min(b, c))
}
