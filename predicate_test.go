package keypager

import (
	"database/sql/driver"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm/clause"
)

func Test_Condition_toGORMExpression(t *testing.T) {
	timeNow := time.Now().UTC()
	timeNowStr, _ := timeNow.MarshalText()

	tests := []struct {
		name     string
		cond     Condition
		wantSQL  string
		wantVars []interface{}
	}{
		{
			name:     "string less than",
			cond:     Condition{Column: "name", Operator: OperatorLT, Value: "abc"},
			wantSQL:  "name < ?",
			wantVars: []interface{}{"abc"},
		},
		{
			name:     "timestamp greater or equal",
			cond:     Condition{Column: "created_at", Operator: OperatorGTE, Value: timeNow},
			wantSQL:  "created_at >= ?",
			wantVars: []interface{}{timeNow},
		},
		{
			name:     "timestamp string should convert to timestamp",
			cond:     Condition{Column: "created_at", Operator: OperatorGT, Value: timeNowStr},
			wantSQL:  "created_at > ?",
			wantVars: []interface{}{timeNow},
		},
		{
			name:     "json number should convert to int64",
			cond:     Condition{Column: "id", Operator: OperatorLTE, Value: json.Number("10")},
			wantSQL:  "id <= ?",
			wantVars: []interface{}{int64(10)},
		},
		{
			name:     "like",
			cond:     Contains("title", "go"),
			wantSQL:  "title LIKE ?",
			wantVars: []interface{}{"%go%"},
		},
		{
			name:     "is null takes no value",
			cond:     IsNull("note"),
			wantSQL:  "note IS NULL",
			wantVars: nil,
		},
		{
			name:     "is not null takes no value",
			cond:     IsNotNull("note"),
			wantSQL:  "note IS NOT NULL",
			wantVars: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expr := tt.cond.toGORMExpression()
			clauseExpr := expr.(clause.Expr)

			if clauseExpr.SQL != tt.wantSQL {
				t.Errorf("unexpected SQL: got %s, want %s", clauseExpr.SQL, tt.wantSQL)
			}

			if len(clauseExpr.Vars) != len(tt.wantVars) {
				t.Errorf("unexpected vars length: got %d, want %d", len(clauseExpr.Vars), len(tt.wantVars))
			}

			for i, wantVar := range tt.wantVars {
				if clauseExpr.Vars[i] != wantVar {
					t.Errorf("unexpected var[%d]: got %v, want %v", i, clauseExpr.Vars[i], wantVar)
				}
			}
		})
	}
}

func Test_parseAnyValue(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want any
	}{
		{"plain string", "hello", "hello"},
		{"integer json number", json.Number("42"), int64(42)},
		{"float json number", json.Number("4.5"), 4.5},
		{"int passes through", 7, 7},
		{"nil passes through", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, parseAnyValue(tt.in))
		})
	}
}

func Test_Conjunction_toExpression(t *testing.T) {
	tests := []struct {
		name    string
		conj    Conjunction
		wantNil bool
	}{
		{
			name: "non-empty conjunction",
			conj: Conjunction{
				{Column: "id", Operator: OperatorGT, Value: 5},
				{Column: "created_at", Operator: OperatorGT, Value: "2024-01-02T03:04:05Z"},
			},
			wantNil: false,
		},
		{
			name:    "empty conjunction",
			conj:    Conjunction{},
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expr := tt.conj.toGORMExpression()
			if (expr == nil) != tt.wantNil {
				t.Errorf("unexpected expression result: got %v, want nil=%v", expr, tt.wantNil)
			}
		})
	}
}

func Test_Disjunction_Expression(t *testing.T) {
	tests := []struct {
		name    string
		dnf     Disjunction
		wantNil bool
	}{
		{
			name: "non-empty DNF",
			dnf: Disjunction{
				{
					{Column: "id", Operator: OperatorGT, Value: 5},
					{Column: "created_at", Operator: OperatorGT, Value: "2024-01-02T03:04:05Z"},
				},
				{{Column: "id", Operator: OperatorGT, Value: 10}},
			},
			wantNil: false,
		},
		{
			name:    "empty DNF",
			dnf:     Disjunction{},
			wantNil: true,
		},
		{
			name:    "nil DNF",
			dnf:     nil,
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expr := tt.dnf.Expression()
			if (expr == nil) != tt.wantNil {
				t.Errorf("unexpected expression result: got %v, want nil=%v", expr, tt.wantNil)
			}
		})
	}
}

func Test_Conjunction_toSQLClause(t *testing.T) {
	timeNow := time.Now().UTC()
	timeNowStr, _ := timeNow.MarshalText()

	tests := []struct {
		name     string
		conj     Conjunction
		wantSQL  string
		wantVals []driver.Value
	}{
		{
			name: "single condition",
			conj: Conjunction{
				{Column: "id", Operator: OperatorGT, Value: 5},
			},
			wantSQL:  "(id > ?)",
			wantVals: []driver.Value{5},
		},
		{
			name: "multiple conditions",
			conj: Conjunction{
				{Column: "id", Operator: OperatorGTE, Value: 5},
				{Column: "name", Operator: OperatorEQ, Value: "abc"},
				{Column: "active", Operator: OperatorGT, Value: true},
			},
			wantSQL:  "(id >= ? AND name = ? AND active > ?)",
			wantVals: []driver.Value{5, "abc", true},
		},
		{
			name: "timestamp conversion",
			conj: Conjunction{
				{Column: "created_at", Operator: OperatorGT, Value: timeNowStr},
				{Column: "updated_at", Operator: OperatorLT, Value: timeNow},
			},
			wantSQL:  "(created_at > ? AND updated_at < ?)",
			wantVals: []driver.Value{timeNow, timeNow},
		},
		{
			name: "null check between valued conditions",
			conj: Conjunction{
				{Column: "id", Operator: OperatorGT, Value: 5},
				IsNull("note"),
				{Column: "name", Operator: OperatorEQ, Value: "abc"},
			},
			wantSQL:  "(id > ? AND note IS NULL AND name = ?)",
			wantVals: []driver.Value{5, "abc"},
		},
		{
			name:     "empty conjunction",
			conj:     Conjunction{},
			wantSQL:  "",
			wantVals: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotSQL, gotVals := tt.conj.toSQLClause()

			if gotSQL != tt.wantSQL {
				t.Errorf("toSQLClause() SQL = %v, want %v", gotSQL, tt.wantSQL)
			}

			if len(gotVals) != len(tt.wantVals) {
				t.Errorf("toSQLClause() Vals length = %v, want %v", len(gotVals), len(tt.wantVals))
			}

			for i, wantVal := range tt.wantVals {
				if gotVals[i] != wantVal {
					t.Errorf("toSQLClause() Vals[%d] = %v, want %v", i, gotVals[i], wantVal)
				}
			}
		})
	}
}

func Test_Disjunction_ToSQL(t *testing.T) {
	tests := []struct {
		name     string
		dnf      Disjunction
		wantSQL  string
		wantVals []driver.Value
	}{
		{
			name: "single conjunction with single condition",
			dnf: Disjunction{
				{{Column: "id", Operator: OperatorGT, Value: 5}},
			},
			wantSQL:  "((id > ?))",
			wantVals: []driver.Value{5},
		},
		{
			name: "keyset boundary",
			dnf: Disjunction{
				{{Column: "title", Operator: OperatorGT, Value: "b"}},
				{
					{Column: "title", Operator: OperatorEQ, Value: "b"},
					{Column: "slug", Operator: OperatorGTE, Value: "x"},
				},
			},
			wantSQL:  "((title > ?) OR (title = ? AND slug >= ?))",
			wantVals: []driver.Value{"b", "b", "x"},
		},
		{
			name:     "keyset boundary on a null sort value",
			dnf:      NullableBoundaryPredicate(DirectionASC, "note", nil, "id", 3),
			wantSQL:  "((note IS NULL AND id >= ?) OR (note IS NOT NULL))",
			wantVals: []driver.Value{3},
		},
		{
			name:     "empty DNF",
			dnf:      Disjunction{},
			wantSQL:  "TRUE",
			wantVals: nil,
		},
		{
			name: "DNF with empty conjunctions",
			dnf: Disjunction{
				{},
				{{Column: "id", Operator: OperatorGT, Value: 5}},
				{},
			},
			wantSQL:  "((id > ?))",
			wantVals: []driver.Value{5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotSQL, gotVals := tt.dnf.ToSQL()

			if gotSQL != tt.wantSQL {
				t.Errorf("ToSQL() SQL = %v, want %v", gotSQL, tt.wantSQL)
			}

			if len(gotVals) != len(tt.wantVals) {
				t.Errorf("ToSQL() Vals length = %v, want %v", len(gotVals), len(tt.wantVals))
			}

			for i, wantVal := range tt.wantVals {
				if gotVals[i] != wantVal {
					t.Errorf("ToSQL() Vals[%d] = %v, want %v", i, gotVals[i], wantVal)
				}
			}
		})
	}
}

func Test_Disjunction_prune(t *testing.T) {
	var nilTitle *string

	dnf := Disjunction{
		{Contains("title", "")},
		{Contains("content", "go"), Eq("author", nil)},
		{Eq("title", nilTitle)},
		{IsNull("content"), Eq("views", nil)},
		{},
	}

	require.Equal(t, Disjunction{{Contains("content", "go")}, {IsNull("content")}}, dnf.prune())
}

func Test_Disjunction_validate(t *testing.T) {
	tests := []struct {
		name string
		dnf  Disjunction
		ok   bool
	}{
		{"valid", Disjunction{{Eq("id", 1)}}, true},
		{"forbidden symbols", Disjunction{{Eq("id; DROP TABLE posts", 1)}}, false},
		{"unknown operator", Disjunction{{{Column: "id", Operator: "~", Value: 1}}}, false},
		{"empty", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.dnf.validate(); (err == nil) != tt.ok {
				t.Errorf("%s: ok=%v err=%v", tt.name, tt.ok, err)
			}
		})
	}
}
