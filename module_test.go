package tensorir

import (
	"testing"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/tensorir/internal/optypes"
	"github.com/gomlx/tensorir/ops"
	"github.com/gomlx/tensorir/types/shapes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	F32 = dtypes.Float32
	S   = shapes.Make
)

func must1[T any](value T, err error) T {
	if err != nil {
		panic(err)
	}
	return value
}

// addChain builds a parameter feeding a small pointwise chain, for tests.
func addChain(t *testing.T, m *Module) (param, abs, exp *Instruction) {
	t.Helper()
	param = must1(m.AddParameter(S(F32, 2, 3)))
	abs = must1(m.AddInstruction(ops.Pointwise{OpType: optypes.Abs}, param))
	exp = must1(m.AddInstruction(ops.Pointwise{OpType: optypes.Exp}, abs))
	return
}

func TestAddInstruction(t *testing.T) {
	m := New("test")
	param, abs, exp := addChain(t, m)

	assert.Equal(t, 3, m.NumInstructions())
	assert.Equal(t, 0, m.Position(param))
	assert.Equal(t, 2, m.Position(exp))
	assert.Equal(t, []*Instruction{abs}, param.Consumers())
	assert.Equal(t, []*Instruction{param}, abs.Inputs())
	assert.True(t, S(F32, 2, 3).Equal(exp.Shape()))
	require.NoError(t, m.Validate())

	// Shape inference failures surface at insertion time.
	_, err := m.AddInstruction(ops.Pointwise{OpType: optypes.Add}, exp)
	require.Error(t, err)
	assert.Equal(t, 3, m.NumInstructions())

	// Inputs must belong to the same module.
	other := New("other")
	foreign := must1(other.AddParameter(S(F32, 2, 3)))
	_, err = m.AddInstruction(ops.Pointwise{OpType: optypes.Abs}, foreign)
	require.Error(t, err)
}

func TestInsertBefore(t *testing.T) {
	m := New("test")
	param, abs, _ := addChain(t, m)

	neg, err := m.InsertBefore(abs, ops.Pointwise{OpType: optypes.Neg}, param)
	require.NoError(t, err)
	assert.Equal(t, 1, m.Position(neg))
	assert.Equal(t, 2, m.Position(abs))
	require.NoError(t, m.Validate())

	// The input must precede the insertion point.
	_, err = m.InsertBefore(param, ops.Pointwise{OpType: optypes.Neg}, abs)
	require.Error(t, err)
}

func TestReplaceInstruction(t *testing.T) {
	m := New("test")
	param, abs, exp := addChain(t, m)

	// Replace abs with neg: exp is rewired, abs disappears.
	neg, err := m.ReplaceInstruction(abs, ops.Pointwise{OpType: optypes.Neg}, param)
	require.NoError(t, err)
	assert.Equal(t, []*Instruction{neg}, exp.Inputs())
	assert.Equal(t, []*Instruction{exp}, neg.Consumers())
	assert.Equal(t, -1, m.Position(abs), "the replaced instruction leaves the module")
	assert.Equal(t, []*Instruction{neg}, param.Consumers())
	assert.Equal(t, 3, m.NumInstructions())
	require.NoError(t, m.Validate())

	// A replacement with a different shape is rejected and rolled back.
	n := m.NumInstructions()
	_, err = m.ReplaceInstruction(neg, ops.Reduce{OpType: optypes.ReduceSum, Axes: []int{0}}, param)
	require.Error(t, err)
	assert.Equal(t, n, m.NumInstructions())
	assert.Equal(t, []*Instruction{neg}, exp.Inputs())
	require.NoError(t, m.Validate())
}

func TestReplaceWithKeepsSharedConsumers(t *testing.T) {
	m := New("test")
	param := must1(m.AddParameter(S(F32, 2, 3)))
	abs := must1(m.AddInstruction(ops.Pointwise{OpType: optypes.Abs}, param))
	// add uses abs for both operands: both edges must be rewired.
	add := must1(m.AddInstruction(ops.Pointwise{OpType: optypes.Add}, abs, abs))
	neg := must1(m.AddInstruction(ops.Pointwise{OpType: optypes.Neg}, param))

	require.NoError(t, m.ReplaceWith(abs, neg))
	assert.Equal(t, []*Instruction{neg, neg}, add.Inputs())
	assert.Equal(t, 2, neg.NumConsumers())
	assert.Equal(t, -1, m.Position(abs))
	// neg was appended after add; the replacement must hoist it above its
	// new consumer.
	assert.Less(t, m.Position(neg), m.Position(add))
	require.NoError(t, m.Validate())
}

func TestReplaceWithRejectsDependentReplacement(t *testing.T) {
	m := New("test")
	param := must1(m.AddParameter(S(F32, 2, 3)))
	abs := must1(m.AddInstruction(ops.Pointwise{OpType: optypes.Abs}, param))
	add := must1(m.AddInstruction(ops.Pointwise{OpType: optypes.Add}, abs, abs))
	// neg depends on add, a consumer of abs: rewiring would create a cycle.
	neg := must1(m.AddInstruction(ops.Pointwise{OpType: optypes.Neg}, add))

	err := m.ReplaceWith(abs, neg)
	require.Error(t, err)
	assert.Equal(t, []*Instruction{abs, abs}, add.Inputs())
	require.NoError(t, m.Validate())
}

func TestMoveBefore(t *testing.T) {
	m := New("test")
	a := must1(m.AddParameter(S(F32, 2)))
	b := must1(m.AddParameter(S(F32, 2)))
	c := must1(m.AddParameter(S(F32, 2)))

	require.NoError(t, m.MoveBefore(c, a))
	assert.Equal(t, 0, m.Position(c))
	assert.Equal(t, 1, m.Position(a))
	assert.Equal(t, 2, m.Position(b))

	require.NoError(t, m.MoveBefore(c, b))
	assert.Equal(t, []int{0, 1, 2}, []int{m.Position(a), m.Position(c), m.Position(b)})
	require.NoError(t, m.Validate())
}

func TestRemove(t *testing.T) {
	m := New("test")
	param, abs, exp := addChain(t, m)

	// abs still feeds exp.
	require.Error(t, m.Remove(abs))

	require.NoError(t, m.Remove(exp))
	require.NoError(t, m.Remove(abs))
	assert.Equal(t, 1, m.NumInstructions())
	assert.Equal(t, 0, param.NumConsumers())
	require.NoError(t, m.Validate())
}

func TestValidateCatchesBadOrder(t *testing.T) {
	m := New("test")
	_, _, _ = addChain(t, m)
	require.NoError(t, m.Validate())

	// Force a producer after its consumer.
	m.instructions[0], m.instructions[1] = m.instructions[1], m.instructions[0]
	require.Error(t, m.Validate())
}

func TestStringListing(t *testing.T) {
	m := New("listing")
	param := must1(m.AddParameter(S(F32, 2, 3)))
	must1(m.AddInstruction(ops.Pointwise{OpType: optypes.Abs}, param))

	listing := m.String()
	assert.Contains(t, listing, `module "listing"`)
	assert.Contains(t, listing, "%0 = parameter() : (Float32)[2 3]")
	assert.Contains(t, listing, "%1 = abs(%0) : (Float32)[2 3]")
}

func TestApplyRules(t *testing.T) {
	m := New("test")
	param := must1(m.AddParameter(S(F32, 2, 3)))
	abs := must1(m.AddInstruction(ops.Pointwise{OpType: optypes.Abs}, param))
	must1(m.AddInstruction(ops.Pointwise{OpType: optypes.Exp}, abs))

	// First matching rule wins; the second never fires on abs.
	var matched []string
	rules := []Rule{
		{
			Name:  "abs",
			Match: And(OfType(optypes.Abs), NArgs(1)),
			Apply: func(m *Module, ins *Instruction) error {
				matched = append(matched, "abs")
				return nil
			},
		},
		{
			Name:  "unary",
			Match: Or(OfType(optypes.Abs), OfType(optypes.Exp)),
			Apply: func(m *Module, ins *Instruction) error {
				matched = append(matched, "unary:"+ins.Op().Name())
				return nil
			},
		},
	}
	require.NoError(t, m.ApplyRules(rules))
	assert.Equal(t, []string{"abs", "unary:exp"}, matched)
}

func TestPredicates(t *testing.T) {
	m := New("test")
	param := must1(m.AddParameter(S(F32, 2, 3)))
	abs := must1(m.AddInstruction(ops.Pointwise{OpType: optypes.Abs}, param))
	must1(m.AddInstruction(ops.Pointwise{OpType: optypes.Exp}, abs))
	must1(m.AddInstruction(ops.Pointwise{OpType: optypes.Neg}, abs))

	assert.True(t, OfType(optypes.Abs)(abs))
	assert.False(t, OfType(optypes.Exp)(abs))
	assert.True(t, AnyType(optypes.Exp, optypes.Abs)(abs))
	assert.True(t, MinConsumers(2)(abs))
	assert.False(t, MinConsumers(2)(param))
	assert.True(t, Not(OfType(optypes.Exp))(abs))
	assert.True(t, And(OfType(optypes.Abs), MinConsumers(2))(abs))
	assert.False(t, And(OfType(optypes.Abs), MinConsumers(3))(abs))
	assert.True(t, Or(OfType(optypes.Exp), MinConsumers(2))(abs))
	assert.True(t, NArgs(0)(param))
}
