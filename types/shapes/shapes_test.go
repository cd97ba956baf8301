package shapes

import (
	"slices"
	"testing"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShape(t *testing.T) {
	invalidShape := Invalid()
	if invalidShape.Ok() {
		t.Error("Invalid().Ok() should be false")
	}

	shape0 := Make(dtypes.Float64)
	if !shape0.Ok() {
		t.Error("shape0.Ok() should be true")
	}
	if !shape0.IsScalar() {
		t.Error("shape0.IsScalar() should be true")
	}
	if shape0.IsTuple() || shape0.IsDynamic() {
		t.Error("a scalar shape is neither a tuple nor dynamic")
	}
	if shape0.Rank() != 0 {
		t.Errorf("scalar rank = %d, want 0", shape0.Rank())
	}
	if shape0.Size() != 1 {
		t.Errorf("scalar size = %d, want 1", shape0.Size())
	}

	shape1 := Make(dtypes.Float32, 2, 3, 4)
	assert.Equal(t, 3, shape1.Rank())
	assert.Equal(t, 24, shape1.Size())
	assert.Equal(t, []int{12, 4, 1}, shape1.Strides)
	assert.True(t, shape1.IsStandard())
	assert.Equal(t, 4, shape1.Dim(-1))
	assert.Equal(t, 2, shape1.Dim(0))
	assert.True(t, shape1.Equal(Make(dtypes.Float32, 2, 3, 4)))
	assert.False(t, shape1.Equal(Make(dtypes.Float64, 2, 3, 4)))
	assert.False(t, shape1.Equal(Make(dtypes.Float32, 2, 3)))

	scalar := Scalar[float32]()
	assert.True(t, scalar.IsScalar())
	assert.Equal(t, dtypes.Float32, scalar.DType)
}

func TestMakeWithStrides(t *testing.T) {
	transposed := MakeWithStrides(dtypes.Float32, []int{3, 2}, []int{1, 3})
	assert.False(t, transposed.IsStandard())
	assert.Equal(t, 6, transposed.Size())
	// Row-major walk of the transposed view visits the original columns.
	assert.Equal(t, 0, transposed.LinearIndex(0, 0))
	assert.Equal(t, 3, transposed.LinearIndex(0, 1))
	assert.Equal(t, 1, transposed.LinearIndex(1, 0))
	assert.Equal(t, 5, transposed.LinearIndex(2, 1))

	standard := MakeWithStrides(dtypes.Float32, []int{2, 3}, []int{3, 1})
	assert.True(t, standard.IsStandard())
	assert.True(t, standard.Equal(Make(dtypes.Float32, 2, 3)))
}

func TestDynamicShape(t *testing.T) {
	batch := DimRange(1, 8)
	assert.False(t, batch.IsFixed())
	assert.Equal(t, "1..8", batch.String())
	assert.True(t, FixedDim(3).IsFixed())

	dyn := MakeDynamic(dtypes.Float32, batch, FixedDim(3), FixedDim(4))
	require.True(t, dyn.Ok())
	assert.True(t, dyn.IsDynamic())
	assert.Equal(t, 3, dyn.Rank())
	// Size of a dynamic shape uses the upper bounds.
	assert.Equal(t, 8*3*4, dyn.Size())

	static := dyn.ToStatic()
	assert.False(t, static.IsDynamic())
	assert.Equal(t, []int{1, 3, 4}, static.Dimensions)

	back := Make(dtypes.Float32, 2, 3).ToDynamic()
	assert.True(t, slices.Equal([]Dim{FixedDim(2), FixedDim(3)}, back.DynDims))
	assert.False(t, back.IsDynamic())
}

func TestTupleShape(t *testing.T) {
	tuple := MakeTuple([]Shape{Make(dtypes.Float32, 2), Make(dtypes.Int32, 3, 4)})
	require.True(t, tuple.IsTuple())
	assert.Equal(t, 2, tuple.TupleSize())
	assert.True(t, tuple.Equal(MakeTuple([]Shape{Make(dtypes.Float32, 2), Make(dtypes.Int32, 3, 4)})))
	assert.False(t, tuple.Equal(MakeTuple([]Shape{Make(dtypes.Float32, 2)})))
}

func TestClone(t *testing.T) {
	shape := Make(dtypes.Float32, 2, 3)
	clone := shape.Clone()
	require.True(t, shape.Equal(clone))
	clone.Dimensions[0] = 7
	assert.Equal(t, 2, shape.Dimensions[0])
}

func TestIter(t *testing.T) {
	shape := Make(dtypes.Int32, 2, 3)
	var visited [][]int
	for indices := range shape.Iter() {
		visited = append(visited, slices.Clone(indices))
	}
	require.Len(t, visited, 6)
	assert.Equal(t, []int{0, 0}, visited[0])
	assert.Equal(t, []int{0, 1}, visited[1])
	assert.Equal(t, []int{1, 2}, visited[5])

	// The linear index follows the iteration order for standard layouts.
	for i, indices := range visited {
		assert.Equal(t, i, shape.LinearIndex(indices...))
	}

	count := 0
	for range Make(dtypes.Float32).Iter() {
		count++
	}
	assert.Equal(t, 1, count, "a scalar has exactly one (empty) coordinate")
}

func TestFromAnyValue(t *testing.T) {
	shape, err := FromAnyValue([][]float32{{1, 2, 3}, {4, 5, 6}})
	require.NoError(t, err)
	assert.True(t, shape.Equal(Make(dtypes.Float32, 2, 3)))

	_, err = FromAnyValue([][]float64{{1, 2}, {3}})
	require.Error(t, err, "irregular nesting must be rejected")
}
