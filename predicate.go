package keypager

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
	"gorm.io/gorm/clause"
)

type (
	// Condition is a single comparison of the form Operator(Column, Value).
	//
	// A nil Value marks an absent filter field. Absent conditions are pruned
	// from caller filters before they reach the store. IS NULL and IS NOT NULL
	// take no Value and are never absent.
	Condition struct {
		Column   string
		Operator Operator
		Value    any
	}

	// Conjunction is a list of conditions joined by AND.
	Conjunction []Condition

	// Disjunction represents a predicate in disjunctive normal form (DNF).
	// Each element is a Conjunction, and elements are joined by OR.
	//
	// Thus:
	//
	//	DNF = X1 OR X2 ... OR Xn, where Xi = Ai1 AND Ai2 ... AND Aim.
	//	DNF = (A11 AND A12 AND A13) OR (A21 AND A22 AND A23), for n=2, m=3.
	Disjunction []Conjunction

	// Predicate is a caller-supplied filter. It is closed over two shapes:
	// a single Conjunction or a Disjunction of conjunctions.
	Predicate interface {
		isPredicate()
	}
)

func (Conjunction) isPredicate() {}
func (Disjunction) isPredicate() {}

// Eq builds an equality condition. A nil value yields an absent condition.
func Eq(column string, value any) Condition {
	return Condition{Column: column, Operator: OperatorEQ, Value: value}
}

// Contains builds a substring match condition "column LIKE %value%".
// An empty value yields an absent condition.
func Contains(column string, value string) Condition {
	return Condition{
		Column:   column,
		Operator: OperatorLike,
		Value:    lo.Ternary[any](value == "", nil, "%"+value+"%"),
	}
}

// IsNull builds the condition "column IS NULL".
func IsNull(column string) Condition {
	return Condition{Column: column, Operator: OperatorIsNull}
}

// IsNotNull builds the condition "column IS NOT NULL".
func IsNotNull(column string) Condition {
	return Condition{Column: column, Operator: OperatorIsNotNull}
}

func (c Condition) isAbsent() bool {
	return !c.Operator.unary() && lo.IsNil(c.Value)
}

func (c Condition) validate() error {
	if !c.Operator.Valid() {
		return fmt.Errorf("invalid operator '%s' for column '%s'", c.Operator, c.Column)
	}

	return validateColumnName(c.Column)
}

// toGORMExpression converts a condition of the form Operator(Column, Value)
// into an SQL condition "Column Operator ?" represented as a clause.Expression.
//
// Example:
//
//	Condition = { Column: "id", Operator: ">", Value: 123 }
//
// Result:
//
//	"id > 123"
func (c Condition) toGORMExpression() clause.Expression {
	sqlClause, args := c.toSQLClause()

	return clause.Expr{
		SQL:  sqlClause,
		Vars: lo.Map(args, func(arg driver.Value, _ int) any { return arg }),
	}
}

// toSQLClause converts a condition to an SQL condition of the form
// "Column Operator ?" with a corresponding value, or "Column IS [NOT] NULL"
// without one.
func (c Condition) toSQLClause() (string, []driver.Value) {
	if c.Operator.unary() {
		return fmt.Sprintf("%s %s", c.Column, c.Operator), nil
	}

	return fmt.Sprintf("%s %s ?", c.Column, c.Operator), []driver.Value{parseAnyValue(c.Value)}
}

// parseAnyValue restores typed values that lost their type while travelling
// through a JSON token: RFC 3339 strings become time.Time and json.Number
// becomes int64 or float64.
func parseAnyValue(v any) any {
	fnParseBytesToTimeOrValue := func(vBytes []byte) any {
		dst := time.Time{}
		err := dst.UnmarshalText(vBytes)
		if err == nil {
			return dst
		}

		return v
	}

	switch vt := v.(type) {
	case string:
		return fnParseBytesToTimeOrValue([]byte(vt))
	case []byte:
		return fnParseBytesToTimeOrValue(vt)
	case json.Number:
		if i, err := vt.Int64(); err == nil {
			return i
		}
		if f, err := vt.Float64(); err == nil {
			return f
		}

		return vt.String()
	default:
		return v
	}
}

func (c Conjunction) prune() Conjunction {
	return lo.Reject(c, func(cond Condition, _ int) bool {
		return cond.isAbsent()
	})
}

// and returns the union of both conjunctions, i.e. c AND other.
func (c Conjunction) and(other Conjunction) Conjunction {
	ret := make(Conjunction, 0, len(c)+len(other))
	ret = append(ret, c...)
	ret = append(ret, other...)

	return ret
}

// toGORMExpression converts a conjunction (K1, K2, K3) into a gorm expression
// "K1 AND K2 AND K3".
func (c Conjunction) toGORMExpression() clause.Expression {
	andExpressions := make([]clause.Expression, 0, len(c))
	for _, cond := range c {
		andExpressions = append(andExpressions, cond.toGORMExpression())
	}

	if len(andExpressions) == 1 {
		return andExpressions[0]
	} else if len(andExpressions) > 1 {
		return clause.And(andExpressions...)
	}

	return nil
}

// toSQLClause converts a conjunction (K1, K2, K3) into "(K1 AND K2 AND K3)".
//
// Example:
//
//	Conjunction = {
//		{Column: "id", Operator: ">", Value: 5},
//		{Column: "name", Operator: "<", Value: "abc"}
//	}
//
// Result:
//
//	("(id > ? AND name < ?)", [5, "abc"])
func (c Conjunction) toSQLClause() (string, []driver.Value) {
	andClauses := make([]string, 0, len(c))
	andValues := make([]driver.Value, 0, len(c))

	for _, cond := range c {
		andClause, values := cond.toSQLClause()
		andClauses = append(andClauses, andClause)
		andValues = append(andValues, values...)
	}

	if len(andClauses) >= 1 {
		return fmt.Sprintf("(%s)", strings.Join(andClauses, " AND ")), andValues
	}

	return "", nil
}

// prune drops absent conditions and then every conjunction left empty.
func (d Disjunction) prune() Disjunction {
	return lo.FilterMap(d, func(c Conjunction, _ int) (Conjunction, bool) {
		pruned := c.prune()
		return pruned, len(pruned) > 0
	})
}

// Size returns the number of conjunctions.
func (d Disjunction) Size() int {
	return len(d)
}

// Expression converts the predicate into a clause.Expression suitable for
// gorm's Clauses/Where. Returns nil for an empty predicate.
func (d Disjunction) Expression() clause.Expression {
	orExpressions := make([]clause.Expression, 0, len(d))

	for _, conj := range d {
		andExpression := conj.toGORMExpression()
		if andExpression == nil {
			continue
		}

		orExpressions = append(orExpressions, andExpression)
	}

	if len(orExpressions) == 1 {
		return orExpressions[0]
	} else if len(orExpressions) > 1 {
		return clause.Or(orExpressions...)
	}

	return nil
}

// ToSQL converts the predicate into an SQL condition. Conjunctions are joined
// with OR. Returns the SQL string and the values for its placeholders; an
// empty predicate renders as "TRUE".
//
// Usage:
//
//	cond, args := where.ToSQL()
//	query := fmt.Sprintf("SELECT * FROM posts WHERE %s", cond)
func (d Disjunction) ToSQL() (string, []driver.Value) {
	orClauses := make([]string, 0, len(d))
	values := make([]driver.Value, 0, len(d))

	for _, conj := range d {
		orClause, orValues := conj.toSQLClause()
		if orClause == "" {
			continue
		}

		orClauses = append(orClauses, orClause)
		values = append(values, orValues...)
	}

	if len(orClauses) >= 1 {
		return fmt.Sprintf("(%s)", strings.Join(orClauses, " OR ")), values
	}

	return "TRUE", nil
}

func (d Disjunction) validate() error {
	for _, conj := range d {
		for _, cond := range conj {
			if err := cond.validate(); err != nil {
				return err
			}
		}
	}

	return nil
}
