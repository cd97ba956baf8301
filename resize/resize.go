// Package resize computes the coordinate remapping tables used to lower
// image resizing to gather and blend instructions: for every output
// coordinate it finds the matching (generally fractional) input coordinate
// under a coordinate-transform policy and snaps or interpolates it.
package resize

import (
	"math"

	"github.com/gomlx/tensorir/types/shapes"
	"github.com/pkg/errors"
)

// CoordinateMode maps an output coordinate to its source coordinate in the
// input, before any rounding.
type CoordinateMode int

const (
	HalfPixel CoordinateMode = iota
	PytorchHalfPixel
	AlignCorners
	Asymmetric
	TFHalfPixelForNN
)

var coordinateModeNames = map[string]CoordinateMode{
	"half_pixel":           HalfPixel,
	"pytorch_half_pixel":   PytorchHalfPixel,
	"align_corners":        AlignCorners,
	"asymmetric":           Asymmetric,
	"tf_half_pixel_for_nn": TFHalfPixelForNN,
}

// CoordinateModeFromString resolves the ONNX-style mode name. Unknown names
// are an error, never a silent default.
func CoordinateModeFromString(name string) (CoordinateMode, error) {
	mode, found := coordinateModeNames[name]
	if !found {
		return 0, errors.Errorf("coordinate transformation mode %q not supported", name)
	}
	return mode, nil
}

func (m CoordinateMode) String() string {
	for name, mode := range coordinateModeNames {
		if mode == m {
			return name
		}
	}
	return "invalid"
}

// SourceCoordinate returns the input coordinate matching output coordinate
// idx, for an axis going from inExtent to outExtent elements with the given
// scale (outExtent/inExtent).
func (m CoordinateMode) SourceCoordinate(inExtent, outExtent, idx int, scale float64) float64 {
	switch m {
	case HalfPixel:
		return (float64(idx)+0.5)/scale - 0.5
	case PytorchHalfPixel:
		if outExtent > 1 {
			return (float64(idx)+0.5)/scale - 0.5
		}
		return 0
	case AlignCorners:
		if outExtent == 1 {
			return 0
		}
		return float64(idx) * float64(inExtent-1) / float64(outExtent-1)
	case Asymmetric:
		return float64(idx) / scale
	case TFHalfPixelForNN:
		return (float64(idx) + 0.5) / scale
	}
	return math.NaN()
}

// RoundingMode snaps a fractional input coordinate to an integer index.
type RoundingMode int

const (
	RoundPreferFloor RoundingMode = iota
	RoundPreferCeil
	Floor
	Ceil
)

var roundingModeNames = map[string]RoundingMode{
	"round_prefer_floor": RoundPreferFloor,
	"round_prefer_ceil":  RoundPreferCeil,
	"floor":              Floor,
	"ceil":               Ceil,
}

// RoundingModeFromString resolves the ONNX-style nearest-mode name.
func RoundingModeFromString(name string) (RoundingMode, error) {
	mode, found := roundingModeNames[name]
	if !found {
		return 0, errors.Errorf("nearest mode %q not supported", name)
	}
	return mode, nil
}

func (m RoundingMode) String() string {
	for name, mode := range roundingModeNames {
		if mode == m {
			return name
		}
	}
	return "invalid"
}

// Round snaps val to an integer input index, clamped to [0, inExtent-1].
func (m RoundingMode) Round(inExtent int, val float64) int {
	val = math.Max(0, math.Min(float64(inExtent-1), val))
	switch m {
	case RoundPreferFloor:
		return int(math.Ceil(val - 0.5))
	case RoundPreferCeil:
		return int(math.Round(val))
	case Floor:
		return int(math.Floor(val))
	case Ceil:
		return int(math.Ceil(val))
	}
	return 0
}

func checkTableArgs(input shapes.Shape, outDims []int, scales []float64) error {
	if input.IsDynamic() || input.IsTuple() {
		return errors.Errorf("resize tables need a static array input, got %s", input)
	}
	if len(outDims) != input.Rank() || len(scales) != input.Rank() {
		return errors.Errorf("resize needs one output size and one scale per input axis, got %d sizes and %d scales for %s",
			len(outDims), len(scales), input)
	}
	return nil
}

// NearestIndices builds the gather table for nearest-neighbor resizing: for
// every output coordinate in row-major order, the linear offset of the
// nearest input element. The offsets follow the input shape's strides.
func NearestIndices(input shapes.Shape, outDims []int, scales []float64, cmode CoordinateMode, rmode RoundingMode) ([]int32, error) {
	if err := checkTableArgs(input, outDims, scales); err != nil {
		return nil, err
	}
	outShape := shapes.Make(input.DType, outDims...)
	indices := make([]int32, 0, outShape.Size())
	inIdx := make([]int, input.Rank())
	for outIdx := range outShape.Iter() {
		for axis := range inIdx {
			val := cmode.SourceCoordinate(input.Dim(axis), outDims[axis], outIdx[axis], scales[axis])
			inIdx[axis] = rmode.Round(input.Dim(axis), val)
		}
		indices = append(indices, int32(input.LinearIndex(inIdx...)))
	}
	return indices, nil
}

// LinearTables builds the per-axis neighbor tables for linear resizing: for
// every output coordinate (row-major, one entry per output element) the
// floor and ceil input indices along each axis, plus the fractional
// distance from the floor neighbor.
func LinearTables(input shapes.Shape, outDims []int, scales []float64, cmode CoordinateMode) (lo, hi [][]int, delta [][]float32, err error) {
	if err = checkTableArgs(input, outDims, scales); err != nil {
		return
	}
	rank := input.Rank()
	outShape := shapes.Make(input.DType, outDims...)
	outElements := outShape.Size()
	lo = make([][]int, rank)
	hi = make([][]int, rank)
	delta = make([][]float32, rank)
	for axis := range rank {
		lo[axis] = make([]int, 0, outElements)
		hi[axis] = make([]int, 0, outElements)
		delta[axis] = make([]float32, 0, outElements)
	}
	for outIdx := range outShape.Iter() {
		for axis := range rank {
			val := cmode.SourceCoordinate(input.Dim(axis), outDims[axis], outIdx[axis], scales[axis])
			floorIdx := Floor.Round(input.Dim(axis), val)
			lo[axis] = append(lo[axis], floorIdx)
			hi[axis] = append(hi[axis], Ceil.Round(input.Dim(axis), val))
			delta[axis] = append(delta[axis], float32(val-float64(floorIdx)))
		}
	}
	return
}

// NeighborIndices expands the per-axis floor/ceil tables into the full
// gather table over all 2^rank corner combinations. Axis by axis each
// partial coordinate block is extended twice, first with the floor indices
// and then with the ceil indices, doubling the table; the final coordinates
// are flattened to linear offsets with the input shape's strides.
func NeighborIndices(input shapes.Shape, lo, hi [][]int) []int32 {
	if len(lo) == 0 {
		return nil
	}
	outElements := len(lo[0])
	coords := make([][]int, outElements)
	for axis := range lo {
		next := make([][]int, 0, 2*len(coords))
		for start := 0; start < len(coords); start += outElements {
			for k, idx := range lo[axis] {
				coord := append(append([]int{}, coords[start+k]...), idx)
				next = append(next, coord)
			}
		}
		for start := 0; start < len(coords); start += outElements {
			for k, idx := range hi[axis] {
				coord := append(append([]int{}, coords[start+k]...), idx)
				next = append(next, coord)
			}
		}
		coords = next
	}
	indices := make([]int32, len(coords))
	for i, coord := range coords {
		indices[i] = int32(input.LinearIndex(coord...))
	}
	return indices
}

// Lerp blends the gathered corner samples down to one value per output
// element: the data holds 2^rank stacked corner blocks, and each of the
// rank blend steps halves it by interpolating the upper half against the
// lower half with the (tiled) fractional weights of one axis, innermost
// axis first.
func Lerp(data []float32, delta [][]float32) []float32 {
	rank := len(delta)
	for i := range rank {
		half := len(data) / 2
		weights := delta[rank-i-1]
		next := make([]float32, half)
		for j := range half {
			w := weights[j%len(weights)]
			next[j] = (data[half+j]-data[j])*w + data[j]
		}
		data = next
	}
	return data
}
