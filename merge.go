package keypager

import "github.com/samber/lo"

// MergeFilter combines a caller filter with the boundary predicate into a
// single DNF predicate equivalent to "filter AND boundary".
//
// Absent conditions and the conjunctions they leave empty are pruned from the
// filter first. Then:
//
//   - empty boundary: the pruned filter;
//   - empty filter: the boundary;
//   - otherwise: f ∪ b for every filter conjunction f and boundary clause b.
//
// The boundary must be distributed over the filter rather than nested: the
// result is read as an OR of its elements, so m filter conjunctions and a
// two-clause boundary give 2*m conjunctions. A single Conjunction filter is
// broadcast to every boundary clause.
//
// A nil result means no restriction.
func MergeFilter(filter Predicate, boundary Disjunction) Disjunction {
	var pruned Disjunction
	switch f := filter.(type) {
	case Conjunction:
		conj := f.prune()
		if len(boundary) == 0 {
			return lo.Ternary[Disjunction](len(conj) == 0, nil, Disjunction{conj})
		}

		return lo.Map(boundary, func(b Conjunction, _ int) Conjunction {
			return conj.and(b)
		})
	case Disjunction:
		pruned = f.prune()
	}

	switch {
	case len(boundary) == 0 && len(pruned) == 0:
		return nil
	case len(boundary) == 0:
		return pruned
	case len(pruned) == 0:
		return boundary
	}

	ret := make(Disjunction, 0, len(pruned)*len(boundary))
	for _, f := range pruned {
		for _, b := range boundary {
			ret = append(ret, f.and(b))
		}
	}

	return ret
}
