package tensorir

import (
	"github.com/gomlx/tensorir/internal/optypes"
	"github.com/gomlx/tensorir/internal/utils"
	"github.com/gomlx/tensorir/ops"
	"github.com/gomlx/tensorir/shapeinference"
	"k8s.io/klog/v2"
)

// getReduce follows a consumer chain to the reduction it feeds, if any:
// either ins is a reduction itself, or it is a single-input pointwise
// instruction whose single consumer chain ends in one. ReduceMean and
// already-fused ParallelReduce instructions are not batched.
func getReduce(ins *Instruction) *Instruction {
	opType := ins.op.Type()
	if opType == optypes.ParallelReduce || opType == optypes.ReduceMean {
		return nil
	}
	if shapeinference.ReduceOperations.Has(opType) {
		return ins
	}
	if shapeinference.PointwiseUnaryOperations.Has(opType) || shapeinference.PointwiseBinaryOperations.Has(opType) {
		if len(ins.inputs) == 1 && ins.NumConsumers() == 1 {
			return getReduce(ins.consumers[0])
		}
	}
	return nil
}

// splitReduce matches an instruction whose consumers fan out into more than
// one reduction chain. It is the candidate branch point for reduction
// batching.
func splitReduce(ins *Instruction) bool {
	if ins.NumConsumers() < 2 {
		return false
	}
	n := 0
	for _, consumer := range ins.consumers {
		if getReduce(consumer) != nil {
			n++
		}
	}
	return n > 1
}

// hoistChain compacts the pointwise chain between branch and input so that
// it sits immediately after branch in program order, producer first. The
// chain is single-input and single-consumer all the way down (getReduce
// checked that), so each member only needs its predecessor before it.
func hoistChain(m *Module, branch, input *Instruction) error {
	var chain []*Instruction
	for cur := input; cur != branch; cur = cur.inputs[0] {
		chain = append(chain, cur)
	}
	prev := branch
	for i := len(chain) - 1; i >= 0; i-- {
		cur := chain[i]
		at := m.Position(prev) + 1
		if m.Position(cur) != at {
			if err := m.MoveBefore(cur, m.instructions[at]); err != nil {
				return err
			}
		}
		prev = cur
	}
	return nil
}

// fuseReduces rewrites the reduction chains branching off ins: chains whose
// reductions share the same operator and output shape are replaced by one
// ParallelReduce over all their inputs, with each original reduction turned
// into a GetTupleElem on the fused result.
func fuseReduces(m *Module, ins *Instruction) error {
	var reduces []*Instruction
	for _, consumer := range ins.consumers {
		if reduce := getReduce(consumer); reduce != nil {
			reduces = append(reduces, reduce)
		}
	}

	var fuseErr error
	utils.GroupBy(reduces, func(a, b *Instruction) bool {
		return a.op.Name() == b.op.Name() && a.shape.Equal(b.shape)
	}, func(group []*Instruction) {
		if fuseErr != nil || len(group) < 2 {
			return
		}
		inputs := make([]*Instruction, len(group))
		for i, reduce := range group {
			inputs[i] = reduce.inputs[0]
		}
		for _, input := range inputs {
			// The branch point feeds a reduction directly, nothing to hoist.
			if input == ins {
				continue
			}
			if err := hoistChain(m, ins, input); err != nil {
				fuseErr = err
				return
			}
		}
		// The fused instruction goes right after the branch point and after
		// every hoisted input.
		at := m.Position(ins) + 1
		for _, input := range inputs {
			at = max(at, m.Position(input)+1)
		}
		preduce, err := m.insertAt(at, ops.ParallelReduce{Op: group[0].op}, inputs)
		if err != nil {
			fuseErr = err
			return
		}
		for i, reduce := range group {
			if _, err := m.ReplaceInstruction(reduce, ops.GetTupleElem{Index: i}, preduce); err != nil {
				fuseErr = err
				return
			}
		}
		if klog.V(1).Enabled() {
			klog.Infof("module %q: batched %d reductions into %s", m.Name, len(group), preduce)
		}
	})
	return fuseErr
}

// PrepareReduce batches independent reductions that branch off a common
// instruction into ParallelReduce instructions, so the backend can compute
// them in one pass over the shared input.
func PrepareReduce(m *Module) error {
	rules := []Rule{{
		Name:  "multi_reduce",
		Match: splitReduce,
		Apply: fuseReduces,
	}}
	return m.ApplyRules(rules)
}
