package keypager

import "github.com/samber/lo"

// BoundaryPredicate builds the keyset condition selecting rows at or after
// the cursor row in the scan direction:
//
//	(sortBy O sortValue) OR (sortBy = sortValue AND cursorBy O= cursorValue)
//
// where O is ">" for ascending and "<" for descending scans. The cursor row
// is the first row of the requested page (the over-fetched row of the previous
// one), hence the inclusive comparison on the tie-break column.
//
// When sortBy equals cursorBy the predicate reduces to "sortBy O= sortValue".
func BoundaryPredicate(
	direction Direction,
	sortBy string,
	sortValue any,
	cursorBy string,
	cursorValue any,
) Disjunction {
	op := direction.ForOperator()

	return Disjunction{
		{
			{Column: sortBy, Operator: op, Value: sortValue},
		},
		{
			{Column: sortBy, Operator: OperatorEQ, Value: sortValue},
			{Column: cursorBy, Operator: op.Inclusive(), Value: cursorValue},
		},
	}
}

// NullableBoundaryPredicate is BoundaryPredicate for a nullable sort column.
// NULL sorts before every value, i.e. first in ascending and last in
// descending scans, as ordered by an OrderBy with Nullable set.
//
// Ascending:
//
//	sortValue NULL:     (sortBy IS NULL AND cursorBy >= cursorValue) OR (sortBy IS NOT NULL)
//	sortValue not NULL: BoundaryPredicate
//
// Descending:
//
//	sortValue NULL:     (sortBy IS NULL AND cursorBy <= cursorValue)
//	sortValue not NULL: BoundaryPredicate OR (sortBy IS NULL)
func NullableBoundaryPredicate(
	direction Direction,
	sortBy string,
	sortValue any,
	cursorBy string,
	cursorValue any,
) Disjunction {
	op := direction.ForOperator()

	if lo.IsNil(sortValue) {
		ret := Disjunction{
			{
				IsNull(sortBy),
				{Column: cursorBy, Operator: op.Inclusive(), Value: cursorValue},
			},
		}
		if direction == DirectionASC {
			ret = append(ret, Conjunction{IsNotNull(sortBy)})
		}

		return ret
	}

	ret := BoundaryPredicate(direction, sortBy, sortValue, cursorBy, cursorValue)
	if direction == DirectionDESC {
		ret = append(ret, Conjunction{IsNull(sortBy)})
	}

	return ret
}
