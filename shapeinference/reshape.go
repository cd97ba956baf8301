package shapeinference

import (
	"github.com/gomlx/tensorir/types/shapes"
	"github.com/pkg/errors"
)

// ReshapeView reinterprets the input shape with the dimensions rdims without
// moving any data, and returns the resulting strides.
//
// If the input is standard layout, any rdims work (the caller is responsible
// for checking the element counts match). Otherwise the input and target
// dimensions are walked in lock-step, greedily merging runs of input axes
// into one larger target axis ("squeeze") or splitting one input axis into a
// run of smaller target axes ("unsqueeze"). A merge is only accepted when
// memory is contiguous across the merged input axes.
//
// ok is false when no valid view exists: the reshape then requires a
// materialized contiguous copy first. A view never silently reinterprets
// memory incorrectly.
func ReshapeView(input shapes.Shape, rdims []int) (output shapes.Shape, ok bool) {
	if input.IsDynamic() || input.IsTuple() {
		return shapes.Invalid(), false
	}
	if input.IsStandard() {
		return shapes.Make(input.DType, rdims...), true
	}

	idims := input.Dimensions
	istrides := input.Strides
	rstrides := make([]int, 0, len(rdims))
	i, r := 0, 0
	for i < len(idims) && r < len(rdims) {
		idim, rdim := idims[i], rdims[r]
		switch {
		case rdim == idim:
			rstrides = append(rstrides, istrides[i])

		case rdim > idim:
			// Squeeze: merge input axes i..i+n into the single target axis r.
			n, found := spanToProduct(idims[i:], rdim)
			if !found {
				return shapes.Invalid(), false
			}
			if !canMergeStrides(idims[i:i+n+1], istrides[i:i+n+1]) {
				return shapes.Invalid(), false
			}
			i += n
			rstrides = append(rstrides, istrides[i])

		default: // rdim < idim
			// Unsqueeze: split input axis i into the target axes r..r+n.
			n, found := spanToProduct(rdims[r:], idim)
			if !found {
				return shapes.Invalid(), false
			}
			stride := istrides[i] * idim
			for _, dim := range rdims[r : r+n+1] {
				stride /= dim
				rstrides = append(rstrides, stride)
			}
			r += n
		}
		i++
		r++
	}

	// Trailing target dims of 1 keep the last computed stride.
	if len(rstrides) < len(rdims) && len(rstrides) > 0 {
		stride := rstrides[len(rstrides)-1]
		for _, d := range rdims[len(rstrides):] {
			if d != 1 {
				return shapes.Invalid(), false
			}
			rstrides = append(rstrides, stride)
		}
	}

	if len(rdims) != len(rstrides) {
		return shapes.Invalid(), false
	}
	return shapes.MakeWithStrides(input.DType, rdims, rstrides), true
}

// spanToProduct returns the smallest n > 0 such that the product of
// dims[0..n] (inclusive) equals target. found is false if the running
// product reaches or overshoots target any other way.
func spanToProduct(dims []int, target int) (n int, found bool) {
	x := 1
	for idx, d := range dims {
		x *= d
		if x >= target {
			if x == target && idx > 0 {
				return idx, true
			}
			return 0, false
		}
	}
	return 0, false
}

// canMergeStrides reports whether memory is contiguous across the run of
// axes: strides[k] == strides[k+1]*dims[k+1] for every k in the run. Only
// then can the run be replaced by a single axis without copying.
func canMergeStrides(dims, strides []int) bool {
	cstride := strides[len(strides)-1]
	for k := len(dims) - 2; k >= 0; k-- {
		cstride *= dims[k+1]
		if strides[k] != cstride {
			return false
		}
	}
	return true
}

// Reshape computes the output shape of reshaping input to the target dims
// attribute, where a dims entry of 0 copies the input dimension at the same
// position and a single -1 entry means "infer the remaining elements".
//
// Static inputs go through ReshapeView, so the output keeps a valid stride
// view of the input; if no view exists the reshape fails with
// ErrUnsupportedLayout and the caller must materialize a contiguous copy
// first.
//
// Dynamic inputs support exactly one non-fixed dimension, which must be
// aligned with a 0 or -1 dims entry and is carried over to the output; all
// fixed dimensions must account for the same total number of elements on
// both sides.
func Reshape(input shapes.Shape, dims []int64) (output shapes.Shape, err error) {
	numNegDims := 0
	for _, d := range dims {
		if d == -1 {
			numNegDims++
		} else if d < 0 {
			err = errors.Wrapf(ErrInvalidAttribute, "Reshape dimension %d is invalid, only 0 and -1 have special meaning", d)
			return
		}
	}
	if numNegDims > 1 {
		err = errors.Wrapf(ErrInvalidAttribute, "Reshape dims %v can only have one -1 dimension", dims)
		return
	}
	if input.IsDynamic() {
		return dynReshape(input, dims)
	}
	return staticReshape(input, dims, numNegDims)
}

func staticReshape(input shapes.Shape, dims []int64, numNegDims int) (output shapes.Shape, err error) {
	input = input.ToStatic() // Accept all-fixed dynamic shapes.
	rdims := make([]int, len(dims))
	for i, d := range dims {
		switch {
		case d == 0:
			if i >= input.Rank() {
				err = errors.Wrapf(ErrInvalidAttribute, "Reshape dims %v copies input dimension %d, but input %s has rank %d",
					dims, i, input, input.Rank())
				return
			}
			rdims[i] = input.Dimensions[i]
		case d == -1:
			// Placeholder, resolved below once all known dims are in.
			rdims[i] = 1
		default:
			rdims[i] = int(d)
		}
	}

	if numNegDims > 0 {
		known := 1
		for _, d := range rdims {
			known *= d
		}
		if known == 0 || input.Size()%known != 0 {
			err = errors.Wrapf(ErrShapeMismatch, "cannot infer the -1 dimension of Reshape dims %v for input %s", dims, input)
			return
		}
		missingDim := input.Size() / known
		for i := range rdims {
			if dims[i] == -1 {
				rdims[i] = missingDim
			}
		}
	}

	output, ok := ReshapeView(input, rdims)
	if !ok {
		err = errors.Wrapf(ErrUnsupportedLayout, "Reshape of %s to dimensions %v requires a copy (axes are not packed), insert a contiguous operation first",
			input, rdims)
		return
	}
	if output.Size() != input.Size() {
		err = errors.Wrapf(ErrShapeMismatch, "wrong number of elements for Reshape: reshape has %d elements whereas the input %s has %d",
			output.Size(), input, input.Size())
		return
	}
	return
}

func dynReshape(input shapes.Shape, dims []int64) (output shapes.Shape, err error) {
	dynDims := input.DynDims
	numNotFixed := 0
	for _, dd := range dynDims {
		if !dd.IsFixed() {
			numNotFixed++
		}
	}
	if numNotFixed != 1 {
		err = errors.Wrapf(ErrDynamicShapeUnsupported, "Reshape only supports one non-fixed dynamic dimension, input has %d (%s)",
			numNotFixed, input)
		return
	}

	// Count the fixed elements on both sides: they must match, the single
	// non-fixed dimension maps through unchanged.
	numDimsEle, numDynEle := 1, 1
	for i, dd := range dynDims {
		if dd.IsFixed() {
			numDynEle *= dd.Min
			if i < len(dims) {
				numDimsEle *= int(dims[i])
			}
		} else {
			if i >= len(dims) || (dims[i] != 0 && dims[i] != -1) {
				err = errors.Wrapf(ErrDynamicShapeUnsupported, "Reshape non-fixed dynamic dimension #%d of %s doesn't match a 0 or -1 output dimension",
					i, input)
				return
			}
		}
	}
	for i := len(dynDims); i < len(dims); i++ {
		numDimsEle *= int(dims[i])
	}
	if numDimsEle != numDynEle {
		err = errors.Wrapf(ErrShapeMismatch, "Reshape number of fixed elements must match: input %s has %d, output dims %v have %d",
			input, numDynEle, dims, numDimsEle)
		return
	}

	outDims := make([]shapes.Dim, len(dims))
	for i, d := range dims {
		if i < len(dynDims) && !dynDims[i].IsFixed() {
			outDims[i] = dynDims[i]
		} else {
			outDims[i] = shapes.FixedDim(int(d))
		}
	}
	return shapes.MakeDynamic(input.DType, outDims...), nil
}
