// Package optypes defines OpType, the closed set of operations the
// instruction graph supports.
package optypes

import (
	"github.com/gomlx/tensorir/internal/utils"
)

// OpType is an enum of all operations an instruction can carry.
// The set is closed: shape inference and the rewrite passes know every
// member.
type OpType int

//go:generate go tool enumer -type=OpType optypes.go

const (
	Invalid OpType = iota
	Identity
	Constant
	Parameter

	// Pointwise operations: elementwise, output shaped like the operands.
	Add
	Sub
	Mul
	Div
	Pow
	Max
	Min
	Abs
	Neg
	Exp
	Log
	Sqrt
	Rsqrt
	Tanh
	Ceil
	Floor
	And
	Or
	Xor
	Not

	// Layout and data-movement operations.
	Reshape
	Contiguous
	Transpose
	Slice
	Gather
	Concatenate

	// Reductions.
	ReduceSum
	ReduceMean
	ReduceMax
	ReduceMin
	ReduceProd

	// Operations synthesized by the rewrite passes.
	ParallelReduce
	GetTupleElem
	Precompile

	// Last should always be kept the last, it is used as a counter/marker.
	Last
)

// irNameMappings maps OpType to the instruction name used in the graph, when
// the default snake case of the Go identifier doesn't work.
var irNameMappings = map[OpType]string{}

// IRName returns the instruction name of the operation as it appears in the
// graph, e.g. ReduceSum -> "reduce_sum", GetTupleElem -> "get_tuple_elem".
func (op OpType) IRName() string {
	name, ok := irNameMappings[op]
	if !ok {
		name = utils.ToSnakeCase(op.String())
	}
	return name
}
