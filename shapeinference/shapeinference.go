// Package shapeinference calculates the shape resulting from operations and
// validates their inputs.
//
// Every operator in the graph satisfies the same contract: given the shapes
// of its inputs, compute the output shape (including strides for layout
// operations) or fail with a descriptive error. Errors are raised eagerly at
// inference time, never deferred to execution.
//
// It defines BinaryOp and UnaryOp for the pointwise operations, and one
// dedicated function for each operation whose output shape differs from its
// inputs (Reshape, Reduce, Transpose, SliceView, Gather, ...).
//
// All errors wrap one of the sentinel kinds (ErrShapeMismatch,
// ErrUnsupportedLayout, ErrInvalidAttribute, ErrDynamicShapeUnsupported) so
// callers can classify failures with errors.Is.
package shapeinference

import (
	"slices"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/tensorir/internal/optypes"
	"github.com/gomlx/tensorir/internal/utils"
	"github.com/gomlx/tensorir/types/shapes"
	"github.com/pkg/errors"
)

// Sentinel error kinds. Inference errors wrap one of these.
var (
	// ErrShapeMismatch indicates an element-count or rank disagreement.
	ErrShapeMismatch = errors.New("shape mismatch")

	// ErrUnsupportedLayout indicates a reshape that would require a copy,
	// while the caller demanded a view.
	ErrUnsupportedLayout = errors.New("unsupported layout")

	// ErrInvalidAttribute indicates an invalid operator configuration, e.g.
	// two -1 placeholders in a reshape, or an unknown mode string.
	ErrInvalidAttribute = errors.New("invalid attribute")

	// ErrDynamicShapeUnsupported indicates an operator fed a non-fixed
	// dimension in a position where it cannot handle one.
	ErrDynamicShapeUnsupported = errors.New("dynamic shape unsupported")
)

var (
	// PointwiseUnaryOperations take one operand and return the same shape.
	PointwiseUnaryOperations = utils.SetWith(
		optypes.Abs,
		optypes.Neg,
		optypes.Exp,
		optypes.Log,
		optypes.Sqrt,
		optypes.Rsqrt,
		optypes.Tanh,
		optypes.Ceil,
		optypes.Floor,
		optypes.Not,
	)

	// PointwiseBinaryOperations take two operands, usually named lhs and rhs.
	PointwiseBinaryOperations = utils.SetWith(
		optypes.Add,
		optypes.Sub,
		optypes.Mul,
		optypes.Div,
		optypes.Pow,
		optypes.Max,
		optypes.Min,
		optypes.And,
		optypes.Or,
		optypes.Xor,
	)

	// BooleanOrBitwiseOperations take booleans or integers as input.
	BooleanOrBitwiseOperations = utils.SetWith(
		optypes.And,
		optypes.Or,
		optypes.Xor,
		optypes.Not,
	)

	// FloatOperations operate only on floats.
	FloatOperations = utils.SetWith(
		optypes.Exp,
		optypes.Log,
		optypes.Sqrt,
		optypes.Rsqrt,
		optypes.Tanh,
		optypes.Ceil,
		optypes.Floor,
	)

	// SignedNumberOperations require a signed data type.
	SignedNumberOperations = utils.SetWith(
		optypes.Neg,
	)

	// ReduceOperations reduce one or more axes of their operand to size 1.
	ReduceOperations = utils.SetWith(
		optypes.ReduceSum,
		optypes.ReduceMean,
		optypes.ReduceMax,
		optypes.ReduceMin,
		optypes.ReduceProd,
	)
)

// BinaryOp returns the expected output shape for ops in the
// PointwiseBinaryOperations set.
//
// Either both shapes match (axes of dimension 1 broadcast), or one of the
// operands is a scalar and broadcasts against the other.
//
// It returns an error if the data type is invalid for the operation, e.g.
// non-matching dtypes, or And not having booleans/integers as input.
func BinaryOp(opType optypes.OpType, lhsShape, rhsShape shapes.Shape) (output shapes.Shape, err error) {
	if !PointwiseBinaryOperations.Has(opType) {
		err = errors.Wrapf(ErrInvalidAttribute, "operation %s is not in the PointwiseBinaryOperations set, cannot process it with BinaryOp", opType)
		return
	}
	if lhsShape.DType == dtypes.InvalidDType || rhsShape.DType == dtypes.InvalidDType {
		err = errors.Wrapf(ErrShapeMismatch, "invalid shape %s or %s for %q", lhsShape, rhsShape, opType)
		return
	}
	if lhsShape.DType != rhsShape.DType {
		err = errors.Wrapf(ErrShapeMismatch, "data types for %q must match, got %s and %s", opType, lhsShape, rhsShape)
		return
	}
	if lhsShape.IsDynamic() || rhsShape.IsDynamic() {
		err = errors.Wrapf(ErrDynamicShapeUnsupported, "BinaryOp %s does not take dynamic operands, got %s and %s", opType, lhsShape, rhsShape)
		return
	}
	if BooleanOrBitwiseOperations.Has(opType) && lhsShape.DType != dtypes.Bool && !lhsShape.DType.IsInt() {
		err = errors.Wrapf(ErrInvalidAttribute, "logical/bitwise %q must have boolean or integer data types as input, got %s", opType, lhsShape)
		return
	}
	if FloatOperations.Has(opType) && !lhsShape.DType.IsFloat() {
		err = errors.Wrapf(ErrInvalidAttribute, "float BinaryOp %s must have a float (Float32, Float64, ...) data type as input, got %s", opType, lhsShape)
		return
	}
	return binaryOpImpl(opType, lhsShape, rhsShape)
}

func binaryOpImpl(opType optypes.OpType, lhsShape, rhsShape shapes.Shape) (output shapes.Shape, err error) {
	// Trivial cases: if one of the sides is a scalar, return the other side shape.
	if lhsShape.IsScalar() {
		return rhsShape.Clone(), nil
	}
	if rhsShape.IsScalar() {
		return lhsShape.Clone(), nil
	}

	// Other cases, either the dimensions match or one of them is 1.
	if lhsShape.Rank() != rhsShape.Rank() {
		err = errors.Wrapf(ErrShapeMismatch, "if operands are not scalars, their rank must match for BinaryOp (%s), got shapes %s and %s",
			opType, lhsShape, rhsShape)
		return
	}
	dims := make([]int, lhsShape.Rank())
	for axis := range dims {
		lhsDim := lhsShape.Dimensions[axis]
		rhsDim := rhsShape.Dimensions[axis]
		if lhsDim != 1 && rhsDim != 1 && lhsDim != rhsDim {
			err = errors.Wrapf(ErrShapeMismatch, "dimension of axis #%d doesn't match and cannot be broadcast for BinaryOp (%s), got shapes %s and %s",
				axis, opType, lhsShape, rhsShape)
			return
		}
		dims[axis] = max(lhsDim, rhsDim)
	}
	output = shapes.Make(lhsShape.DType, dims...)
	return
}

// UnaryOp checks the validity of the data type for PointwiseUnaryOperations
// and returns either an error or the output shape, which is the same as the
// operand's.
func UnaryOp(opType optypes.OpType, operand shapes.Shape) (output shapes.Shape, err error) {
	if !PointwiseUnaryOperations.Has(opType) {
		err = errors.Wrapf(ErrInvalidAttribute, "operation %s is not in the PointwiseUnaryOperations set, cannot process it with UnaryOp", opType)
		return
	}
	if operand.DType == dtypes.InvalidDType {
		err = errors.Wrapf(ErrShapeMismatch, "invalid shape %s for UnaryOp %s", operand, opType)
		return
	}
	if BooleanOrBitwiseOperations.Has(opType) && operand.DType != dtypes.Bool && !operand.DType.IsInt() {
		err = errors.Wrapf(ErrInvalidAttribute, "logical UnaryOp %q must have boolean or integer data types as input, got %s", opType, operand)
		return
	}
	if SignedNumberOperations.Has(opType) && operand.DType.IsUnsigned() {
		err = errors.Wrapf(ErrInvalidAttribute, "signed UnaryOp %s must have a signed data type as input, got %s", opType, operand)
		return
	}
	if FloatOperations.Has(opType) && !operand.DType.IsFloat() {
		err = errors.Wrapf(ErrInvalidAttribute, "float UnaryOp %s must have a float (Float32, Float64, ...) data type as input, got %s", opType, operand)
		return
	}
	output = operand.Clone()
	return
}

// Reduce returns the shape of reducing the given axes of the operand to 1.
// The rank is preserved, reduced axes have dimension 1. Negative axes count
// from the end. The output is always standard layout.
func Reduce(opType optypes.OpType, operand shapes.Shape, axes []int) (output shapes.Shape, err error) {
	if !ReduceOperations.Has(opType) {
		err = errors.Wrapf(ErrInvalidAttribute, "operation %s is not in the ReduceOperations set, cannot process it with Reduce", opType)
		return
	}
	if operand.IsDynamic() {
		err = errors.Wrapf(ErrDynamicShapeUnsupported, "Reduce %s does not take a dynamic operand, got %s", opType, operand)
		return
	}
	if len(axes) == 0 {
		err = errors.Wrapf(ErrInvalidAttribute, "Reduce %s requires at least one axis", opType)
		return
	}
	dims := slices.Clone(operand.Dimensions)
	seen := utils.MakeSet[int](len(axes))
	for _, axis := range axes {
		adjusted, axisErr := AdjustAxisToRank(axis, operand.Rank())
		if axisErr != nil {
			err = errors.WithMessagef(axisErr, "Reduce %s of operand %s", opType, operand)
			return
		}
		if seen.Has(adjusted) {
			err = errors.Wrapf(ErrInvalidAttribute, "Reduce %s given duplicate axis %d", opType, axis)
			return
		}
		seen.Insert(adjusted)
		dims[adjusted] = 1
	}
	output = shapes.Make(operand.DType, dims...)
	return
}

// Transpose returns the shape of permuting the axes of the operand.
// There must be one value in permutation for each axis. The result is a
// view: dimensions and strides are permuted together, no data moves.
func Transpose(operand shapes.Shape, permutation []int) (output shapes.Shape, err error) {
	rank := operand.Rank()
	if operand.IsDynamic() {
		err = errors.Wrapf(ErrDynamicShapeUnsupported, "Transpose does not take a dynamic operand, got %s", operand)
		return
	}
	if len(permutation) != rank {
		err = errors.Wrapf(ErrInvalidAttribute, "Transpose requires all axes permutations to be defined, operand has shape %s, but %d permutations were given",
			operand, len(permutation))
		return
	}
	if rank == 0 {
		output = operand.Clone()
		return
	}
	used := make([]bool, rank)
	dims := make([]int, rank)
	strides := make([]int, rank)
	for axis, src := range permutation {
		adjusted, axisErr := AdjustAxisToRank(src, rank)
		if axisErr != nil {
			err = errors.WithMessagef(axisErr, "Transpose permutation of operand %s", operand)
			return
		}
		if used[adjusted] {
			err = errors.Wrapf(ErrInvalidAttribute, "Transpose permutation %v uses axis %d more than once", permutation, src)
			return
		}
		used[adjusted] = true
		dims[axis] = operand.Dimensions[adjusted]
		strides[axis] = operand.Strides[adjusted]
	}
	output = shapes.MakeWithStrides(operand.DType, dims, strides)
	return
}

// SliceView returns the shape of slicing the operand to [starts, limits) on
// the given axes. The result is a view: dimensions shrink, strides are kept,
// so the output is generally not standard layout.
func SliceView(operand shapes.Shape, axes, starts, limits []int) (output shapes.Shape, err error) {
	if operand.IsDynamic() {
		err = errors.Wrapf(ErrDynamicShapeUnsupported, "Slice does not take a dynamic operand, got %s", operand)
		return
	}
	if len(axes) != len(starts) || len(axes) != len(limits) {
		err = errors.Wrapf(ErrInvalidAttribute, "Slice requires axes, starts and limits of the same length, got %d, %d and %d",
			len(axes), len(starts), len(limits))
		return
	}
	dims := slices.Clone(operand.Dimensions)
	for ii, axis := range axes {
		adjusted, axisErr := AdjustAxisToRank(axis, operand.Rank())
		if axisErr != nil {
			err = errors.WithMessagef(axisErr, "Slice of operand %s", operand)
			return
		}
		start, limit := starts[ii], limits[ii]
		if start < 0 || limit > operand.Dimensions[adjusted] || start >= limit {
			err = errors.Wrapf(ErrInvalidAttribute, "Slice range [%d, %d) is invalid for axis %d of operand %s",
				start, limit, axis, operand)
			return
		}
		dims[adjusted] = limit - start
	}
	output = shapes.MakeWithStrides(operand.DType, dims, operand.Strides)
	return
}

// Gather returns the shape of gathering slices of data indexed by indices
// along the given axis of data: the axis is replaced by the indices
// dimensions.
func Gather(data, indices shapes.Shape, axis int) (output shapes.Shape, err error) {
	if data.IsDynamic() || indices.IsDynamic() {
		err = errors.Wrapf(ErrDynamicShapeUnsupported, "Gather does not take dynamic operands, got %s and %s", data, indices)
		return
	}
	if !indices.DType.IsInt() {
		err = errors.Wrapf(ErrInvalidAttribute, "Gather indices must be integers, got %s", indices)
		return
	}
	adjusted, axisErr := AdjustAxisToRank(axis, data.Rank())
	if axisErr != nil {
		err = errors.WithMessagef(axisErr, "Gather axis of operand %s", data)
		return
	}
	dims := make([]int, 0, data.Rank()-1+indices.Rank())
	dims = append(dims, data.Dimensions[:adjusted]...)
	dims = append(dims, indices.Dimensions...)
	dims = append(dims, data.Dimensions[adjusted+1:]...)
	output = shapes.Make(data.DType, dims...)
	return
}

// Concatenate returns the shape of concatenating the operands on the given
// axis. All operands must share dtype and every dimension except the
// concatenation axis.
func Concatenate(operands []shapes.Shape, axis int) (output shapes.Shape, err error) {
	if len(operands) == 0 {
		err = errors.Wrapf(ErrInvalidAttribute, "Concatenate requires at least one operand")
		return
	}
	first := operands[0]
	adjusted, axisErr := AdjustAxisToRank(axis, first.Rank())
	if axisErr != nil {
		err = errors.WithMessagef(axisErr, "Concatenate axis of operand %s", first)
		return
	}
	dims := slices.Clone(first.Dimensions)
	for _, operand := range operands[1:] {
		if operand.DType != first.DType || operand.Rank() != first.Rank() {
			err = errors.Wrapf(ErrShapeMismatch, "Concatenate operands must have the same dtype and rank, got %s and %s", first, operand)
			return
		}
		for otherAxis := range operand.Dimensions {
			if otherAxis == adjusted {
				continue
			}
			if operand.Dimensions[otherAxis] != first.Dimensions[otherAxis] {
				err = errors.Wrapf(ErrShapeMismatch, "Concatenate operands must match on all axes but the concatenation axis (%d), got %s and %s",
					adjusted, first, operand)
				return
			}
		}
		dims[adjusted] += operand.Dimensions[adjusted]
	}
	output = shapes.Make(first.DType, dims...)
	return
}

// GetTupleElement returns the shape of extracting element index from a tuple
// shape.
func GetTupleElement(tuple shapes.Shape, index int) (output shapes.Shape, err error) {
	if !tuple.IsTuple() {
		err = errors.Wrapf(ErrShapeMismatch, "GetTupleElement requires a tuple-shaped operand, got %s", tuple)
		return
	}
	if index < 0 || index >= tuple.TupleSize() {
		err = errors.Wrapf(ErrInvalidAttribute, "GetTupleElement index %d out-of-range for tuple of size %d", index, tuple.TupleSize())
		return
	}
	output = tuple.TupleShapes[index].Clone()
	return
}

// AdjustAxisToRank adjusts a possibly negative axis (counting from the end)
// to its positive value, checking it against the rank.
func AdjustAxisToRank(axis, rank int) (int, error) {
	adjusted := axis
	if adjusted < 0 {
		adjusted += rank
	}
	if adjusted < 0 || adjusted >= rank {
		return 0, errors.Wrapf(ErrInvalidAttribute, "axis %d is out-of-range for rank %d", axis, rank)
	}
	return adjusted, nil
}
