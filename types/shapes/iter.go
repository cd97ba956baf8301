package shapes

import "iter"

// Iter iterates in row-major order over all coordinates of the given static
// shape. To avoid allocating per step, the yielded indices slice is owned by
// the Iter() method: don't change or retain it inside the loop.
//
// Dynamic and tuple shapes yield nothing.
func (s Shape) Iter() iter.Seq[[]int] {
	return func(yield func([]int) bool) {
		if !s.Ok() || s.IsTuple() || len(s.DynDims) > 0 {
			return
		}

		rank := s.Rank()
		if rank == 0 {
			// Valid scalar: yield one empty index slice.
			_ = yield(make([]int, 0))
			return
		}
		for _, dim := range s.Dimensions {
			if dim <= 0 {
				return
			}
		}

		indices := make([]int, rank)
		for {
			if !yield(indices) {
				return
			}

			// Increment indices like an N-dimensional counter, the last
			// axis changing fastest.
			axis := rank - 1
			for ; axis >= 0; axis-- {
				indices[axis]++
				if indices[axis] < s.Dimensions[axis] {
					break
				}
				indices[axis] = 0
			}
			if axis < 0 {
				return
			}
		}
	}
}
