// Package shapes defines Shape, the value type describing a tensor's element
// type (DType), dimensions and linear memory strides.
//
// A Shape can be:
//
//   - Static: Dimensions and Strides are set, len(Dimensions) == len(Strides).
//     Strides map a logical coordinate to a linear memory offset, so a shape
//     can describe non-packed views (transposed or sliced tensors) without
//     touching the data.
//   - Dynamic: DynDims is set, each axis being a [Dim] range resolved only at
//     execution time. Dynamic shapes carry no strides.
//   - Tuple: TupleShapes is set, used by operations with multiple results.
//
// Shapes are immutable values: operations that derive new shapes always return
// a new Shape, they never mutate in place. They can be freely shared across
// goroutines.
//
// ## Glossary
//
//   - Rank: number of axes (dimensions) of a tensor.
//   - Axis: the index of a dimension. Negative axes count from the end.
//   - Standard (or packed) layout: row-major strides, each stride being the
//     product of the trailing dimensions, no gaps.
//   - DType: the data type of the unit element, defined in
//     github.com/gomlx/gopjrt/dtypes.
package shapes

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
)

// Dim is one dynamic dimension, a range of sizes resolved at execution time.
// It is fixed when Min == Max.
type Dim struct {
	Min, Max int
}

// FixedDim returns a Dim with a fixed size.
func FixedDim(size int) Dim {
	return Dim{Min: size, Max: size}
}

// DimRange returns a Dim spanning [min, max].
func DimRange(min, max int) Dim {
	if min > max || min < 0 {
		exceptions.Panicf("shapes.DimRange(%d, %d): invalid range", min, max)
	}
	return Dim{Min: min, Max: max}
}

// IsFixed returns whether the dimension has a single possible size.
func (d Dim) IsFixed() bool { return d.Min == d.Max }

// String implements fmt.Stringer.
func (d Dim) String() string {
	if d.IsFixed() {
		return fmt.Sprintf("%d", d.Min)
	}
	return fmt.Sprintf("%d..%d", d.Min, d.Max)
}

// Shape represents the shape of a tensor or of the value produced by an
// instruction in a computation graph.
//
// Use Make, MakeWithStrides, MakeDynamic or MakeTuple to create one.
type Shape struct {
	DType      dtypes.DType
	Dimensions []int

	// Strides per axis, in elements (not bytes). Always set for static
	// shapes; Make fills in the standard row-major values.
	Strides []int

	// DynDims is set instead of Dimensions/Strides for dynamic shapes.
	DynDims []Dim

	// TupleShapes of the tuple, if this is a tuple.
	TupleShapes []Shape
}

// Make returns a static Shape with the given dimensions and standard
// (packed, row-major) strides.
func Make(dtype dtypes.DType, dimensions ...int) Shape {
	s := Shape{
		DType:      dtype,
		Dimensions: slices.Clone(dimensions),
		Strides:    StandardStrides(dimensions),
	}
	for _, dim := range dimensions {
		if dim <= 0 {
			exceptions.Panicf("shapes.Make(%s): cannot create a shape with an axis with dimension <= 0", s)
		}
	}
	return s
}

// MakeWithStrides returns a static Shape with explicit strides, describing a
// (possibly non-packed) view over memory.
func MakeWithStrides(dtype dtypes.DType, dimensions, strides []int) Shape {
	if len(dimensions) != len(strides) {
		exceptions.Panicf("shapes.MakeWithStrides: %d dimensions but %d strides", len(dimensions), len(strides))
	}
	return Shape{
		DType:      dtype,
		Dimensions: slices.Clone(dimensions),
		Strides:    slices.Clone(strides),
	}
}

// MakeDynamic returns a dynamic Shape from the given dimension ranges.
func MakeDynamic(dtype dtypes.DType, dims ...Dim) Shape {
	return Shape{
		DType:   dtype,
		DynDims: slices.Clone(dims),
	}
}

// MakeTuple returns a shape representing a tuple of elements with the given shapes.
func MakeTuple(elements []Shape) Shape {
	return Shape{DType: dtypes.InvalidDType, TupleShapes: slices.Clone(elements)}
}

// Scalar returns a static scalar Shape for the given Go type.
func Scalar[T dtypes.Number]() Shape {
	return Shape{DType: dtypes.FromGenericsType[T]()}
}

// Invalid returns an invalid shape: Invalid().Ok() == false.
func Invalid() Shape { return Shape{DType: dtypes.InvalidDType} }

// StandardStrides returns the packed row-major strides for the given
// dimensions: each stride is the product of the trailing dimensions.
func StandardStrides(dimensions []int) []int {
	strides := make([]int, len(dimensions))
	stride := 1
	for axis := len(dimensions) - 1; axis >= 0; axis-- {
		strides[axis] = stride
		stride *= dimensions[axis]
	}
	return strides
}

// Ok returns whether this is a valid Shape.
// The zero value Shape{} is invalid.
func (s Shape) Ok() bool {
	return s.DType != dtypes.InvalidDType || len(s.TupleShapes) > 0
}

// IsTuple returns whether the shape represents a tuple.
func (s Shape) IsTuple() bool { return len(s.TupleShapes) > 0 }

// TupleSize returns the number of elements in the tuple, if it is a tuple.
func (s Shape) TupleSize() int { return len(s.TupleShapes) }

// IsDynamic returns whether any dimension of the shape is an unresolved
// range. A shape built only from fixed Dims is not considered dynamic.
func (s Shape) IsDynamic() bool {
	for _, d := range s.DynDims {
		if !d.IsFixed() {
			return true
		}
	}
	return false
}

// Rank of the shape, that is, the number of axes.
func (s Shape) Rank() int {
	if len(s.DynDims) > 0 {
		return len(s.DynDims)
	}
	return len(s.Dimensions)
}

// IsScalar returns whether the shape represents a scalar: rank 0 and valid.
func (s Shape) IsScalar() bool { return s.Ok() && !s.IsTuple() && s.Rank() == 0 }

// Dim returns the dimension of the given axis. The axis can be negative, in
// which case it counts from the end: Dim(-1) is the last axis.
// It panics for an out-of-bounds axis or a dynamic shape.
func (s Shape) Dim(axis int) int {
	adjustedAxis := axis
	if adjustedAxis < 0 {
		adjustedAxis += s.Rank()
	}
	if adjustedAxis < 0 || adjustedAxis >= len(s.Dimensions) {
		exceptions.Panicf("Shape.Dim(%d) out-of-bounds for rank %d (shape=%s)", axis, s.Rank(), s)
	}
	return s.Dimensions[adjustedAxis]
}

// Size returns the number of elements of DType needed for this shape, the
// product of all dimensions. For dynamic shapes, it uses the Max of each
// range.
func (s Shape) Size() int {
	size := 1
	if len(s.DynDims) > 0 {
		for _, d := range s.DynDims {
			size *= d.Max
		}
		return size
	}
	for _, d := range s.Dimensions {
		size *= d
	}
	return size
}

// Memory returns the number of bytes needed to store a packed tensor of this
// shape.
func (s Shape) Memory() uintptr {
	return s.DType.Memory() * uintptr(s.Size())
}

// IsStandard returns whether the strides are the canonical packed row-major
// values: no gaps and no custom axis ordering. Dynamic and tuple shapes are
// never standard.
func (s Shape) IsStandard() bool {
	if !s.Ok() || s.IsTuple() || len(s.DynDims) > 0 {
		return false
	}
	return slices.Equal(s.Strides, StandardStrides(s.Dimensions))
}

// LinearIndex converts a logical coordinate to the linear memory offset (in
// elements) under the shape's strides. It panics on rank mismatch.
func (s Shape) LinearIndex(indices ...int) int {
	if len(indices) != len(s.Dimensions) {
		exceptions.Panicf("Shape.LinearIndex: got %d indices for shape %s", len(indices), s)
	}
	offset := 0
	for axis, idx := range indices {
		offset += idx * s.Strides[axis]
	}
	return offset
}

// ToStatic resolves a dynamic shape to a static one, taking the Min of each
// dimension range. Static shapes are returned unchanged.
func (s Shape) ToStatic() Shape {
	if len(s.DynDims) == 0 {
		return s
	}
	dims := make([]int, len(s.DynDims))
	for axis, d := range s.DynDims {
		dims[axis] = d.Min
	}
	return Make(s.DType, dims...)
}

// ToDynamic converts a static shape to a dynamic one with every dimension
// fixed. Dynamic shapes are returned unchanged.
func (s Shape) ToDynamic() Shape {
	if len(s.DynDims) > 0 {
		return s
	}
	dims := make([]Dim, len(s.Dimensions))
	for axis, d := range s.Dimensions {
		dims[axis] = FixedDim(d)
	}
	return MakeDynamic(s.DType, dims...)
}

// Equal compares two shapes for full equality: dtype, dimensions, strides,
// dynamic ranges and tuple elements.
func (s Shape) Equal(s2 Shape) bool {
	if s.DType != s2.DType {
		return false
	}
	if s.IsTuple() || s2.IsTuple() {
		if s.TupleSize() != s2.TupleSize() {
			return false
		}
		for ii, element := range s.TupleShapes {
			if !element.Equal(s2.TupleShapes[ii]) {
				return false
			}
		}
		return true
	}
	return slices.Equal(s.Dimensions, s2.Dimensions) &&
		slices.Equal(s.Strides, s2.Strides) &&
		slices.Equal(s.DynDims, s2.DynDims)
}

// EqualDimensions compares two shapes for equality of dimensions only:
// dtypes and strides can differ.
func (s Shape) EqualDimensions(s2 Shape) bool {
	if s.IsTuple() || s2.IsTuple() {
		if s.TupleSize() != s2.TupleSize() {
			return false
		}
		for ii, element := range s.TupleShapes {
			if !element.EqualDimensions(s2.TupleShapes[ii]) {
				return false
			}
		}
		return true
	}
	return slices.Equal(s.Dimensions, s2.Dimensions) &&
		slices.Equal(s.DynDims, s2.DynDims)
}

// Clone returns a new deep copy of the shape.
func (s Shape) Clone() (s2 Shape) {
	s2.DType = s.DType
	s2.Dimensions = slices.Clone(s.Dimensions)
	s2.Strides = slices.Clone(s.Strides)
	s2.DynDims = slices.Clone(s.DynDims)
	if s.TupleSize() > 0 {
		s2.TupleShapes = make([]Shape, 0, len(s.TupleShapes))
		for _, subShape := range s.TupleShapes {
			s2.TupleShapes = append(s2.TupleShapes, subShape.Clone())
		}
	}
	return
}

// Shape returns a shallow copy of itself. It implements the HasShape interface.
func (s Shape) Shape() Shape { return s }

// String implements fmt.Stringer, pretty-prints the shape.
// Non-standard strides are included, since they change the meaning of the
// shape.
func (s Shape) String() string {
	if s.TupleSize() > 0 {
		parts := make([]string, 0, s.TupleSize())
		for _, element := range s.TupleShapes {
			parts = append(parts, element.String())
		}
		return fmt.Sprintf("Tuple<%s>", strings.Join(parts, ", "))
	}
	if len(s.DynDims) > 0 {
		parts := make([]string, 0, len(s.DynDims))
		for _, d := range s.DynDims {
			parts = append(parts, d.String())
		}
		return fmt.Sprintf("(%s)[%s]", s.DType, strings.Join(parts, " "))
	}
	if s.Rank() == 0 {
		return fmt.Sprintf("(%s)", s.DType)
	}
	if !s.IsStandard() {
		return fmt.Sprintf("(%s)%v strides=%v", s.DType, s.Dimensions, s.Strides)
	}
	return fmt.Sprintf("(%s)%v", s.DType, s.Dimensions)
}
