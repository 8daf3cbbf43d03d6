package keypager

// Operator defines a comparison operator for filtering by column.
// Used both in caller filters and in pagination boundary conditions.
type Operator string

const (
	OperatorGT   Operator = ">"
	OperatorGTE  Operator = ">="
	OperatorLT   Operator = "<"
	OperatorLTE  Operator = "<="
	OperatorEQ   Operator = "="
	OperatorLike Operator = "LIKE"

	OperatorIsNull    Operator = "IS NULL"
	OperatorIsNotNull Operator = "IS NOT NULL"
)

func (o Operator) Valid() bool {
	switch o {
	case OperatorGT, OperatorGTE, OperatorLT, OperatorLTE, OperatorEQ, OperatorLike,
		OperatorIsNull, OperatorIsNotNull:
		return true
	default:
		return false
	}
}

// unary reports whether the operator takes no value.
func (o Operator) unary() bool {
	return o == OperatorIsNull || o == OperatorIsNotNull
}

// Inclusive returns the non-strict variant of a range operator.
func (o Operator) Inclusive() Operator {
	switch o {
	case OperatorGT:
		return OperatorGTE
	case OperatorLT:
		return OperatorLTE
	default:
		return o
	}
}
