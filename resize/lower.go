package resize

import (
	"github.com/gomlx/tensorir"
	"github.com/gomlx/tensorir/internal/optypes"
	"github.com/gomlx/tensorir/ops"
	"github.com/gomlx/tensorir/types/shapes"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"
)

// Options configure a resize lowering.
type Options struct {
	// OutputDims has one target size per input axis.
	OutputDims []int

	// Scales has one OutputDims[i]/inputDims[i] ratio per axis.
	Scales []float64

	CoordinateMode CoordinateMode

	// RoundingMode is only used by nearest-neighbor resizing.
	RoundingMode RoundingMode
}

// prepare flattens the input to one dimension so gather tables can address
// it with linear offsets. The contiguous copy guarantees the flattening is
// a valid view.
func prepare(m *tensorir.Module, input *tensorir.Instruction) (flat *tensorir.Instruction, err error) {
	contig, err := m.AddInstruction(ops.Contiguous{}, input)
	if err != nil {
		return nil, err
	}
	size := int64(contig.Shape().Size())
	return m.AddInstruction(ops.Reshape{Dims: []int64{size}}, contig)
}

func checkLowerArgs(input *tensorir.Instruction, opts Options) error {
	shape := input.Shape()
	if shape.IsDynamic() {
		return errors.Errorf("resize lowering needs a static input, got %s", shape)
	}
	return checkTableArgs(shape, opts.OutputDims, opts.Scales)
}

// Nearest lowers a nearest-neighbor resize of input to a gather over the
// flattened input, using a precomputed index table.
func Nearest(m *tensorir.Module, input *tensorir.Instruction, opts Options) (*tensorir.Instruction, error) {
	if err := checkLowerArgs(input, opts); err != nil {
		return nil, err
	}
	shape := input.Shape()
	// Table offsets address the contiguous copy, not the original layout.
	tableShape := shapes.Make(shape.DType, shape.Dimensions...)
	indices, err := NearestIndices(tableShape, opts.OutputDims, opts.Scales, opts.CoordinateMode, opts.RoundingMode)
	if err != nil {
		return nil, err
	}
	flat, err := prepare(m, input)
	if err != nil {
		return nil, err
	}
	table, err := ops.NewLiteral(indices, opts.OutputDims...)
	if err != nil {
		return nil, err
	}
	tableIns, err := m.AddConstant(table)
	if err != nil {
		return nil, err
	}
	return m.AddInstruction(ops.Gather{Axis: 0}, flat, tableIns)
}

// Linear lowers a linear-interpolation resize of input: one gather
// collecting all 2^rank corner neighbors stacked along the leading axis,
// followed by rank slice/sub/mul/add blend steps that halve the stack until
// one value per output element remains.
func Linear(m *tensorir.Module, input *tensorir.Instruction, opts Options) (*tensorir.Instruction, error) {
	if err := checkLowerArgs(input, opts); err != nil {
		return nil, err
	}
	shape := input.Shape()
	if shape.DType != dtypes.Float32 && shape.DType != dtypes.Float64 {
		return nil, errors.Errorf("linear resize needs a Float32 or Float64 input, got %s", shape)
	}
	tableShape := shapes.Make(shape.DType, shape.Dimensions...)
	lo, hi, delta, err := LinearTables(tableShape, opts.OutputDims, opts.Scales, opts.CoordinateMode)
	if err != nil {
		return nil, err
	}
	indices := NeighborIndices(tableShape, lo, hi)
	rank := shape.Rank()

	flat, err := prepare(m, input)
	if err != nil {
		return nil, err
	}
	tableDims := append([]int{}, opts.OutputDims...)
	tableDims[0] *= 1 << rank
	table, err := ops.NewLiteral(indices, tableDims...)
	if err != nil {
		return nil, err
	}
	tableIns, err := m.AddConstant(table)
	if err != nil {
		return nil, err
	}
	data, err := m.AddInstruction(ops.Gather{Axis: 0}, flat, tableIns)
	if err != nil {
		return nil, err
	}

	outElements := 1
	for _, d := range opts.OutputDims {
		outElements *= d
	}
	blendDims := append([]int{}, opts.OutputDims...)
	blendDims[0] *= 1 << (rank - 1)
	for i := range rank {
		weightsIns, err := weightsConstant(m, shape.DType, blendDims, outElements, delta[rank-i-1])
		if err != nil {
			return nil, err
		}
		split := blendDims[0]
		low, err := m.AddInstruction(ops.Slice{Axes: []int{0}, Starts: []int{0}, Limits: []int{split}}, data)
		if err != nil {
			return nil, err
		}
		high, err := m.AddInstruction(ops.Slice{Axes: []int{0}, Starts: []int{split}, Limits: []int{2 * split}}, data)
		if err != nil {
			return nil, err
		}
		diff, err := m.AddInstruction(ops.Pointwise{OpType: optypes.Sub}, high, low)
		if err != nil {
			return nil, err
		}
		weighted, err := m.AddInstruction(ops.Pointwise{OpType: optypes.Mul}, diff, weightsIns)
		if err != nil {
			return nil, err
		}
		data, err = m.AddInstruction(ops.Pointwise{OpType: optypes.Add}, weighted, low)
		if err != nil {
			return nil, err
		}
		blendDims[0] /= 2
	}
	return data, nil
}

// weightsConstant tiles one axis' fractional weights over the current blend
// stack and adds them as a constant of the data's own element type.
func weightsConstant(m *tensorir.Module, dtype dtypes.DType, blendDims []int, outElements int, axisDelta []float32) (*tensorir.Instruction, error) {
	repeats := 1
	for _, d := range blendDims {
		repeats *= d
	}
	repeats /= outElements
	dims := append([]int{}, blendDims...)

	var lit *ops.Literal
	var err error
	switch dtype {
	case dtypes.Float32:
		weights := make([]float32, 0, repeats*outElements)
		for range repeats {
			weights = append(weights, axisDelta...)
		}
		lit, err = ops.NewLiteral(weights, dims...)
	case dtypes.Float64:
		weights := make([]float64, 0, repeats*outElements)
		for range repeats {
			for _, w := range axisDelta {
				weights = append(weights, float64(w))
			}
		}
		lit, err = ops.NewLiteral(weights, dims...)
	default:
		return nil, errors.Errorf("unsupported blend weight type %s", dtype)
	}
	if err != nil {
		return nil, err
	}
	return m.AddConstant(lit)
}
