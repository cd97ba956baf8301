package tensorir

import (
	"testing"

	"github.com/gomlx/tensorir/internal/optypes"
	"github.com/gomlx/tensorir/ops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countOps(m *Module, opType optypes.OpType) int {
	n := 0
	for ins := range m.Instructions() {
		if ins.Op().Type() == opType {
			n++
		}
	}
	return n
}

func TestPrepareReduceFusesTwinReduces(t *testing.T) {
	m := New("twin_reduces")
	param := must1(m.AddParameter(S(F32, 4, 8)))
	branch := must1(m.AddInstruction(ops.Pointwise{OpType: optypes.Abs}, param))
	r1 := must1(m.AddInstruction(ops.Reduce{OpType: optypes.ReduceSum, Axes: []int{1}}, branch))
	r2 := must1(m.AddInstruction(ops.Reduce{OpType: optypes.ReduceSum, Axes: []int{1}}, branch))

	require.NoError(t, PrepareReduce(m))
	require.NoError(t, m.Validate())

	assert.Equal(t, 1, countOps(m, optypes.ParallelReduce))
	assert.Equal(t, 2, countOps(m, optypes.GetTupleElem))
	assert.Equal(t, 0, countOps(m, optypes.ReduceSum))
	assert.Equal(t, -1, m.Position(r1))
	assert.Equal(t, -1, m.Position(r2))

	var preduce *Instruction
	var extracts []*Instruction
	for ins := range m.Instructions() {
		switch ins.Op().Type() {
		case optypes.ParallelReduce:
			preduce = ins
		case optypes.GetTupleElem:
			extracts = append(extracts, ins)
		}
	}
	require.NotNil(t, preduce)
	assert.Equal(t, []*Instruction{branch, branch}, preduce.Inputs())
	require.True(t, preduce.Shape().IsTuple())
	assert.Equal(t, 2, preduce.Shape().TupleSize())

	require.Len(t, extracts, 2)
	for i, extract := range extracts {
		assert.Equal(t, i, extract.Op().(ops.GetTupleElem).Index)
		assert.Equal(t, []*Instruction{preduce}, extract.Inputs())
		assert.Equal(t, []int{4, 1}, extract.Shape().Dimensions)
	}
}

func TestPrepareReduceLeavesSingleReduce(t *testing.T) {
	m := New("single_reduce")
	param := must1(m.AddParameter(S(F32, 4, 8)))
	branch := must1(m.AddInstruction(ops.Pointwise{OpType: optypes.Abs}, param))
	reduce := must1(m.AddInstruction(ops.Reduce{OpType: optypes.ReduceSum, Axes: []int{1}}, branch))

	require.NoError(t, PrepareReduce(m))
	require.NoError(t, m.Validate())
	assert.Equal(t, 0, countOps(m, optypes.ParallelReduce))
	assert.Equal(t, 2, m.Position(reduce), "a single reduce stays untouched")
}

func TestPrepareReduceThroughPointwise(t *testing.T) {
	// One chain goes through a single-input single-consumer pointwise op
	// before reaching its reduction; both reductions still fuse.
	m := New("chained_reduce")
	param := must1(m.AddParameter(S(F32, 4, 8)))
	branch := must1(m.AddInstruction(ops.Pointwise{OpType: optypes.Abs}, param))
	neg := must1(m.AddInstruction(ops.Pointwise{OpType: optypes.Neg}, branch))
	must1(m.AddInstruction(ops.Reduce{OpType: optypes.ReduceSum, Axes: []int{1}}, neg))
	must1(m.AddInstruction(ops.Reduce{OpType: optypes.ReduceSum, Axes: []int{1}}, branch))

	require.NoError(t, PrepareReduce(m))
	require.NoError(t, m.Validate())

	assert.Equal(t, 1, countOps(m, optypes.ParallelReduce))
	assert.Equal(t, 2, countOps(m, optypes.GetTupleElem))

	var preduce *Instruction
	for ins := range m.Instructions() {
		if ins.Op().Type() == optypes.ParallelReduce {
			preduce = ins
		}
	}
	require.NotNil(t, preduce)
	assert.Equal(t, []*Instruction{neg, branch}, preduce.Inputs())
}

func TestPrepareReduceHoistsWholeChain(t *testing.T) {
	// One chain has two pointwise hops before its reduction: hoisting must
	// carry the whole chain, keeping neg ahead of exp.
	m := New("deep_chain")
	param := must1(m.AddParameter(S(F32, 4, 8)))
	branch := must1(m.AddInstruction(ops.Pointwise{OpType: optypes.Abs}, param))
	must1(m.AddInstruction(ops.Reduce{OpType: optypes.ReduceSum, Axes: []int{1}}, branch))
	neg := must1(m.AddInstruction(ops.Pointwise{OpType: optypes.Neg}, branch))
	exp := must1(m.AddInstruction(ops.Pointwise{OpType: optypes.Exp}, neg))
	must1(m.AddInstruction(ops.Reduce{OpType: optypes.ReduceSum, Axes: []int{1}}, exp))

	require.NoError(t, PrepareReduce(m))
	require.NoError(t, m.Validate())

	assert.Equal(t, 1, countOps(m, optypes.ParallelReduce))
	assert.Equal(t, 2, countOps(m, optypes.GetTupleElem))
	assert.Equal(t, 0, countOps(m, optypes.ReduceSum))

	var preduce *Instruction
	for ins := range m.Instructions() {
		if ins.Op().Type() == optypes.ParallelReduce {
			preduce = ins
		}
	}
	require.NotNil(t, preduce)
	assert.Equal(t, []*Instruction{branch, exp}, preduce.Inputs())
	assert.Less(t, m.Position(neg), m.Position(exp))
	assert.Less(t, m.Position(exp), m.Position(preduce))
}

func TestPrepareReduceGroupsBySignature(t *testing.T) {
	// Reductions with different output shapes (or operators) don't fuse
	// with each other: each signature group of size 1 stays untouched.
	m := New("mixed_reduces")
	param := must1(m.AddParameter(S(F32, 4, 8)))
	branch := must1(m.AddInstruction(ops.Pointwise{OpType: optypes.Abs}, param))
	must1(m.AddInstruction(ops.Reduce{OpType: optypes.ReduceSum, Axes: []int{1}}, branch))
	must1(m.AddInstruction(ops.Reduce{OpType: optypes.ReduceMax, Axes: []int{1}}, branch))

	require.NoError(t, PrepareReduce(m))
	require.NoError(t, m.Validate())
	assert.Equal(t, 0, countOps(m, optypes.ParallelReduce))
	assert.Equal(t, 1, countOps(m, optypes.ReduceSum))
	assert.Equal(t, 1, countOps(m, optypes.ReduceMax))

	// Same operator on different axes has a different shape signature.
	m2 := New("mixed_axes")
	param2 := must1(m2.AddParameter(S(F32, 4, 8)))
	branch2 := must1(m2.AddInstruction(ops.Pointwise{OpType: optypes.Abs}, param2))
	must1(m2.AddInstruction(ops.Reduce{OpType: optypes.ReduceSum, Axes: []int{0}}, branch2))
	must1(m2.AddInstruction(ops.Reduce{OpType: optypes.ReduceSum, Axes: []int{1}}, branch2))
	require.NoError(t, PrepareReduce(m2))
	assert.Equal(t, 0, countOps(m2, optypes.ParallelReduce))
}

func TestPrepareReduceSkipsReduceMean(t *testing.T) {
	m := New("mean_reduces")
	param := must1(m.AddParameter(S(F32, 4, 8)))
	branch := must1(m.AddInstruction(ops.Pointwise{OpType: optypes.Abs}, param))
	must1(m.AddInstruction(ops.Reduce{OpType: optypes.ReduceMean, Axes: []int{1}}, branch))
	must1(m.AddInstruction(ops.Reduce{OpType: optypes.ReduceMean, Axes: []int{1}}, branch))

	require.NoError(t, PrepareReduce(m))
	assert.Equal(t, 0, countOps(m, optypes.ParallelReduce))
	assert.Equal(t, 2, countOps(m, optypes.ReduceMean))
}
