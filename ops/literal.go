package ops

import (
	"reflect"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/tensorir/types/shapes"
	"github.com/pkg/errors"
	"github.com/x448/float16"
)

// Literal is a typed tensor value carried by a Constant operation: a flat
// slice with the raw values plus the shape describing its dimensions.
// Literals are always standard layout.
type Literal struct {
	shape shapes.Shape
	flat  any
}

// NewLiteral creates a Literal from a flat slice with the raw values and the
// dimensions of the shape. The dtype is taken from the slice's element type.
func NewLiteral(flat any, dimensions ...int) (*Literal, error) {
	flatV := reflect.ValueOf(flat)
	if flatV.Kind() != reflect.Slice {
		return nil, errors.Errorf("literal flat values must be a slice, got %T", flat)
	}
	dtype := dtypes.FromGoType(flatV.Type().Elem())
	if dtype == dtypes.InvalidDType {
		return nil, errors.Errorf("unsupported literal flat values type %T -- expected a slice of a basic data type", flat)
	}
	shape := shapes.Make(dtype, dimensions...)
	if shape.Size() != flatV.Len() {
		return nil, errors.Errorf("literal flat values size %d doesn't match shape size %d (%s)", flatV.Len(), shape.Size(), shape)
	}
	return &Literal{shape: shape, flat: flat}, nil
}

// NewLiteralFromAny creates a Literal from a Go scalar or (nested) slices,
// inferring the shape. E.g. [][]float32{{1, 2}, {3, 4}} has shape
// (Float32)[2 2].
func NewLiteralFromAny(value any) (*Literal, error) {
	shape, err := shapes.FromAnyValue(value)
	if err != nil {
		return nil, err
	}
	if shape.IsScalar() {
		return &Literal{shape: shape, flat: value}, nil
	}
	flat := reflect.MakeSlice(reflect.SliceOf(baseElemType(reflect.TypeOf(value))), 0, shape.Size())
	flat = flattenInto(flat, reflect.ValueOf(value))
	return &Literal{shape: shape, flat: flat.Interface()}, nil
}

// NewLiteralF16 creates a float16 Literal from float32 values, converting
// them element by element.
func NewLiteralF16(values []float32, dimensions ...int) (*Literal, error) {
	flat := make([]float16.Float16, len(values))
	for i, v := range values {
		flat[i] = float16.Fromfloat32(v)
	}
	return NewLiteral(flat, dimensions...)
}

func baseElemType(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Slice {
		t = t.Elem()
	}
	return t
}

func flattenInto(flat reflect.Value, v reflect.Value) reflect.Value {
	if v.Kind() != reflect.Slice {
		return reflect.Append(flat, v)
	}
	for i := 0; i < v.Len(); i++ {
		flat = flattenInto(flat, v.Index(i))
	}
	return flat
}

// Shape returns the shape of the literal.
func (l *Literal) Shape() shapes.Shape { return l.shape }

// Flat returns the flat slice with the literal's raw values (or the scalar
// itself for scalar literals). Callers must not modify it.
func (l *Literal) Flat() any { return l.flat }
