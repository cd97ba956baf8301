// Package ops defines the closed set of operators an instruction can carry.
//
// Every operator satisfies the same small contract (Op): a type tag, an
// instruction name, and shape inference from its input shapes. Operators are
// stateless apart from the configuration attributes set at construction
// (e.g. the target dims of a Reshape); all shape logic delegates to the
// shapeinference package.
package ops

import (
	"fmt"

	"github.com/gomlx/tensorir/internal/optypes"
	"github.com/gomlx/tensorir/shapeinference"
	"github.com/gomlx/tensorir/types/shapes"
	"github.com/pkg/errors"
)

// Op is the contract every operator satisfies.
//
// The set of implementations is closed: it maps one-to-one to the
// optypes.OpType enum, and the rewrite passes rely on that.
type Op interface {
	// Type returns the operator's type tag.
	Type() optypes.OpType

	// Name returns the instruction name, e.g. "reduce_sum".
	Name() string

	// ComputeShape computes the output shape from the input shapes,
	// validating illegal configurations eagerly.
	ComputeShape(inputs []shapes.Shape) (shapes.Shape, error)
}

// expectInputs fails if the operator was not given exactly n inputs.
func expectInputs(op Op, inputs []shapes.Shape, n int) error {
	if len(inputs) != n {
		return errors.Wrapf(shapeinference.ErrShapeMismatch, "%s expects %d inputs, got %d", op.Name(), n, len(inputs))
	}
	return nil
}

// Identity passes its single input through unchanged.
type Identity struct{}

func (Identity) Type() optypes.OpType { return optypes.Identity }
func (Identity) Name() string         { return optypes.Identity.IRName() }

func (op Identity) ComputeShape(inputs []shapes.Shape) (shapes.Shape, error) {
	if err := expectInputs(op, inputs, 1); err != nil {
		return shapes.Invalid(), err
	}
	return inputs[0].Clone(), nil
}

// Parameter is a graph input with a declared shape.
type Parameter struct {
	Shape shapes.Shape
}

func (Parameter) Type() optypes.OpType { return optypes.Parameter }
func (Parameter) Name() string         { return optypes.Parameter.IRName() }

func (op Parameter) ComputeShape(inputs []shapes.Shape) (shapes.Shape, error) {
	if err := expectInputs(op, inputs, 0); err != nil {
		return shapes.Invalid(), err
	}
	if !op.Shape.Ok() {
		return shapes.Invalid(), errors.Wrapf(shapeinference.ErrInvalidAttribute, "parameter has an invalid shape")
	}
	return op.Shape.Clone(), nil
}

// Constant holds a literal value.
type Constant struct {
	Value *Literal
}

func (Constant) Type() optypes.OpType { return optypes.Constant }
func (Constant) Name() string         { return optypes.Constant.IRName() }

func (op Constant) ComputeShape(inputs []shapes.Shape) (shapes.Shape, error) {
	if err := expectInputs(op, inputs, 0); err != nil {
		return shapes.Invalid(), err
	}
	if op.Value == nil {
		return shapes.Invalid(), errors.Wrapf(shapeinference.ErrInvalidAttribute, "constant has no value")
	}
	return op.Value.Shape().Clone(), nil
}

// Pointwise is an elementwise operation, unary or binary according to its
// type tag. The output has the shape of its operand(s).
type Pointwise struct {
	OpType optypes.OpType
}

func (op Pointwise) Type() optypes.OpType { return op.OpType }
func (op Pointwise) Name() string         { return op.OpType.IRName() }

// IsUnary returns whether the operation takes a single operand.
func (op Pointwise) IsUnary() bool {
	return shapeinference.PointwiseUnaryOperations.Has(op.OpType)
}

func (op Pointwise) ComputeShape(inputs []shapes.Shape) (shapes.Shape, error) {
	if op.IsUnary() {
		if err := expectInputs(op, inputs, 1); err != nil {
			return shapes.Invalid(), err
		}
		return shapeinference.UnaryOp(op.OpType, inputs[0])
	}
	if err := expectInputs(op, inputs, 2); err != nil {
		return shapes.Invalid(), err
	}
	return shapeinference.BinaryOp(op.OpType, inputs[0], inputs[1])
}

// Reshape reinterprets its input with the target Dims attribute: an entry of
// 0 copies the input dimension at the same position and a single -1 entry
// infers the remaining elements. It only succeeds as a view; a reshape that
// would require a copy fails shape inference (see Contiguous).
type Reshape struct {
	Dims []int64
}

func (Reshape) Type() optypes.OpType { return optypes.Reshape }
func (Reshape) Name() string         { return optypes.Reshape.IRName() }

func (op Reshape) ComputeShape(inputs []shapes.Shape) (shapes.Shape, error) {
	if err := expectInputs(op, inputs, 1); err != nil {
		return shapes.Invalid(), err
	}
	return shapeinference.Reshape(inputs[0], op.Dims)
}

// Contiguous materializes its input into a fresh standard-layout buffer.
// It is the remedy when Reshape reports that a view is impossible.
type Contiguous struct{}

func (Contiguous) Type() optypes.OpType { return optypes.Contiguous }
func (Contiguous) Name() string         { return optypes.Contiguous.IRName() }

func (op Contiguous) ComputeShape(inputs []shapes.Shape) (shapes.Shape, error) {
	if err := expectInputs(op, inputs, 1); err != nil {
		return shapes.Invalid(), err
	}
	input := inputs[0]
	if input.IsDynamic() {
		return input.Clone(), nil
	}
	return shapes.Make(input.DType, input.Dimensions...), nil
}

// Transpose permutes the axes of its input. The output is a strided view,
// no data moves.
type Transpose struct {
	Permutation []int
}

func (Transpose) Type() optypes.OpType { return optypes.Transpose }
func (Transpose) Name() string         { return optypes.Transpose.IRName() }

func (op Transpose) ComputeShape(inputs []shapes.Shape) (shapes.Shape, error) {
	if err := expectInputs(op, inputs, 1); err != nil {
		return shapes.Invalid(), err
	}
	return shapeinference.Transpose(inputs[0], op.Permutation)
}

// Slice takes the range [Starts, Limits) on the given Axes of its input.
// The output is a strided view into the input.
type Slice struct {
	Axes, Starts, Limits []int
}

func (Slice) Type() optypes.OpType { return optypes.Slice }
func (Slice) Name() string         { return optypes.Slice.IRName() }

func (op Slice) ComputeShape(inputs []shapes.Shape) (shapes.Shape, error) {
	if err := expectInputs(op, inputs, 1); err != nil {
		return shapes.Invalid(), err
	}
	return shapeinference.SliceView(inputs[0], op.Axes, op.Starts, op.Limits)
}

// Gather picks slices of its first input (data) indexed by its second input
// (indices) along Axis.
type Gather struct {
	Axis int
}

func (Gather) Type() optypes.OpType { return optypes.Gather }
func (Gather) Name() string         { return optypes.Gather.IRName() }

func (op Gather) ComputeShape(inputs []shapes.Shape) (shapes.Shape, error) {
	if err := expectInputs(op, inputs, 2); err != nil {
		return shapes.Invalid(), err
	}
	return shapeinference.Gather(inputs[0], inputs[1], op.Axis)
}

// Concatenate joins its inputs along Axis.
type Concatenate struct {
	Axis int
}

func (Concatenate) Type() optypes.OpType { return optypes.Concatenate }
func (Concatenate) Name() string         { return optypes.Concatenate.IRName() }

func (op Concatenate) ComputeShape(inputs []shapes.Shape) (shapes.Shape, error) {
	if len(inputs) == 0 {
		return shapes.Invalid(), errors.Wrapf(shapeinference.ErrShapeMismatch, "%s expects at least one input", op.Name())
	}
	return shapeinference.Concatenate(inputs, op.Axis)
}

// Reduce reduces the given Axes of its input to 1, with the reduction
// selected by the OpType tag (ReduceSum, ReduceMax, ...).
type Reduce struct {
	OpType optypes.OpType
	Axes   []int
}

func (op Reduce) Type() optypes.OpType { return op.OpType }
func (op Reduce) Name() string         { return op.OpType.IRName() }

func (op Reduce) ComputeShape(inputs []shapes.Shape) (shapes.Shape, error) {
	if err := expectInputs(op, inputs, 1); err != nil {
		return shapes.Invalid(), err
	}
	return shapeinference.Reduce(op.OpType, inputs[0], op.Axes)
}

// ParallelReduce applies the inner reduction Op independently to each of its
// inputs, producing a tuple with one result shape per input. It is
// synthesized by the reduction-fusion rewrite pass; see tensorir.PrepareReduce.
type ParallelReduce struct {
	Op Op
}

func (ParallelReduce) Type() optypes.OpType { return optypes.ParallelReduce }
func (ParallelReduce) Name() string         { return optypes.ParallelReduce.IRName() }

func (op ParallelReduce) ComputeShape(inputs []shapes.Shape) (shapes.Shape, error) {
	if op.Op == nil {
		return shapes.Invalid(), errors.Wrapf(shapeinference.ErrInvalidAttribute, "%s has no inner operation", op.Name())
	}
	if len(inputs) == 0 {
		return shapes.Invalid(), errors.Wrapf(shapeinference.ErrShapeMismatch, "%s expects at least one input", op.Name())
	}
	elements := make([]shapes.Shape, len(inputs))
	for i, input := range inputs {
		var err error
		elements[i], err = op.Op.ComputeShape([]shapes.Shape{input})
		if err != nil {
			return shapes.Invalid(), errors.WithMessagef(err, "%s branch #%d", op.Name(), i)
		}
	}
	return shapes.MakeTuple(elements), nil
}

// GetTupleElem extracts element Index from a tuple-shaped input.
type GetTupleElem struct {
	Index int
}

func (GetTupleElem) Type() optypes.OpType { return optypes.GetTupleElem }
func (GetTupleElem) Name() string         { return optypes.GetTupleElem.IRName() }

func (op GetTupleElem) ComputeShape(inputs []shapes.Shape) (shapes.Shape, error) {
	if err := expectInputs(op, inputs, 1); err != nil {
		return shapes.Invalid(), err
	}
	return shapeinference.GetTupleElement(inputs[0], op.Index)
}

// Precompile wraps an operation selected for ahead-of-time compilation by a
// backend; the wrapped operation still defines the shape. See
// tensorir.CompileAll.
type Precompile struct {
	Op Op
}

func (Precompile) Type() optypes.OpType { return optypes.Precompile }

func (op Precompile) Name() string {
	if op.Op == nil {
		return optypes.Precompile.IRName()
	}
	return fmt.Sprintf("%s(%s)", optypes.Precompile.IRName(), op.Op.Name())
}

func (op Precompile) ComputeShape(inputs []shapes.Shape) (shapes.Shape, error) {
	if op.Op == nil {
		return shapes.Invalid(), errors.Wrapf(shapeinference.ErrInvalidAttribute, "%s has no inner operation", op.Name())
	}
	return op.Op.ComputeShape(inputs)
}
