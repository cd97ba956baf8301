package utils

// GroupBy repeatedly partitions elements around the current head: all
// elements equivalent to the head (under eq) are stably moved to the front
// and emitted as one group, then the walk continues with the remainder.
//
// Note this is not conventional "group by key" semantics: equivalence is
// always tested against the head of the remaining range, and the order of
// groups follows the order in which heads are first encountered. Within a
// group, the relative order of elements is preserved.
//
// The slice is reordered in place; the emitted sub-slices alias it.
func GroupBy[T any](elements []T, eq func(a, b T) bool, emit func(group []T)) {
	start := 0
	for start < len(elements) {
		head := elements[start]
		split := stablePartition(elements[start:], func(x T) bool { return eq(x, head) })
		emit(elements[start : start+split])
		start += split
	}
}

// GroupUnique is the adjacent-only variant of GroupBy: it emits the maximal
// prefix run of elements equivalent to the current head, without moving any
// element. Use it when the input order already clusters equivalent items and
// a full partition would be wasteful.
func GroupUnique[T any](elements []T, eq func(a, b T) bool, emit func(group []T)) {
	start := 0
	for start < len(elements) {
		head := elements[start]
		end := start + 1
		for end < len(elements) && eq(head, elements[end]) {
			end++
		}
		emit(elements[start:end])
		start = end
	}
}

// stablePartition moves the elements satisfying pred to the front of the
// slice, keeping their relative order on both sides, and returns the number
// of elements that satisfied it.
func stablePartition[T any](elements []T, pred func(T) bool) int {
	var rest []T
	n := 0
	for _, x := range elements {
		if pred(x) {
			elements[n] = x
			n++
		} else {
			rest = append(rest, x)
		}
	}
	copy(elements[n:], rest)
	return n
}

// TransformIf appends f(x) to the result for every x in elements that
// satisfies pred.
func TransformIf[T, R any](elements []T, pred func(T) bool, f func(T) R) []R {
	var result []R
	for _, x := range elements {
		if pred(x) {
			result = append(result, f(x))
		}
	}
	return result
}
