package tensorir

import (
	"fmt"
	"iter"
	"slices"
	"strings"

	"github.com/gomlx/tensorir/ops"
	"github.com/gomlx/tensorir/types/shapes"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Module owns an ordered sequence of instructions forming one compiled graph
// (or sub-graph). The insertion order is the program order and is always a
// valid topological order: producers precede their consumers. All
// instructions live in the module's arena; edges between them are plain
// references into it.
//
// Modules are not safe for concurrent mutation; see CompileAll for the
// parallel stage that runs once a module is frozen.
type Module struct {
	// Name of the module, for logging and debugging only.
	Name string

	// instructions is the arena, in program order.
	instructions []*Instruction

	// nextID distinguishes instructions in listings; IDs are never reused.
	nextID int
}

// New creates a new empty Module.
func New(name string) *Module {
	return &Module{Name: name}
}

// NumInstructions returns the number of instructions in the module.
func (m *Module) NumInstructions() int { return len(m.instructions) }

// Instructions iterates over the instructions in program order.
//
// The iteration is over a snapshot: the module may be mutated while
// iterating, but instructions removed after the snapshot are still yielded.
func (m *Module) Instructions() iter.Seq[*Instruction] {
	snapshot := slices.Clone(m.instructions)
	return slices.Values(snapshot)
}

// Position returns the program-order position of the instruction, or -1 if
// it is not part of the module.
func (m *Module) Position(ins *Instruction) int {
	return slices.Index(m.instructions, ins)
}

// AddParameter appends a graph input with the given shape.
func (m *Module) AddParameter(shape shapes.Shape) (*Instruction, error) {
	return m.AddInstruction(ops.Parameter{Shape: shape})
}

// AddConstant appends a Constant instruction holding the given literal.
func (m *Module) AddConstant(value *ops.Literal) (*Instruction, error) {
	return m.AddInstruction(ops.Constant{Value: value})
}

// AddInstruction appends an instruction at the end of the program, running
// shape inference on the operator to resolve its output shape.
//
// All inputs must already belong to the module.
func (m *Module) AddInstruction(op ops.Op, inputs ...*Instruction) (*Instruction, error) {
	return m.insertAt(len(m.instructions), op, inputs)
}

// InsertBefore inserts an instruction just before pos in program order,
// running shape inference on the operator to resolve its output shape.
// A nil pos appends at the end.
//
// The inputs must precede pos, otherwise the program-order invariant would
// break.
func (m *Module) InsertBefore(pos *Instruction, op ops.Op, inputs ...*Instruction) (*Instruction, error) {
	at := len(m.instructions)
	if pos != nil {
		at = m.Position(pos)
		if at < 0 {
			return nil, errors.Errorf("module %q: insertion position is not part of the module", m.Name)
		}
	}
	for _, input := range inputs {
		if p := m.Position(input); p >= at {
			return nil, errors.Errorf("module %q: input %s does not precede the insertion point, move it first", m.Name, input)
		}
	}
	return m.insertAt(at, op, inputs)
}

func (m *Module) insertAt(at int, op ops.Op, inputs []*Instruction) (*Instruction, error) {
	for _, input := range inputs {
		if input.module != m {
			return nil, errors.Errorf("module %q: input %s belongs to another module", m.Name, input)
		}
	}
	shape, err := op.ComputeShape(inputShapes(inputs))
	if err != nil {
		return nil, errors.WithMessagef(err, "module %q: cannot add %s instruction", m.Name, op.Name())
	}
	ins := &Instruction{
		module: m,
		id:     m.nextID,
		op:     op,
		shape:  shape,
		inputs: slices.Clone(inputs),
	}
	m.nextID++
	for _, input := range inputs {
		input.consumers = append(input.consumers, ins)
	}
	m.instructions = slices.Insert(m.instructions, at, ins)
	return ins, nil
}

// MoveBefore relocates the instruction to just before pos in program order,
// without changing any edges. It is used to hoist the inputs of a fused
// replacement above its insertion point, so producers keep preceding
// consumers.
//
// Only the instruction moves, not its own producers: the caller is
// responsible for moving an instruction only to a position after all of its
// inputs.
func (m *Module) MoveBefore(ins, pos *Instruction) error {
	from := m.Position(ins)
	to := m.Position(pos)
	if from < 0 || to < 0 {
		return errors.Errorf("module %q: both instructions of a move must be part of the module", m.Name)
	}
	if from == to {
		return nil
	}
	m.instructions = slices.Delete(m.instructions, from, from+1)
	if from < to {
		to--
	}
	m.instructions = slices.Insert(m.instructions, to, ins)
	return nil
}

// ReplaceInstruction builds a new instruction from op and inputs at old's
// position and rewires every consumer of old to the new instruction. Shape
// inference runs on the new operator; old is removed once it has no
// consumers left (its own producers are detached then too).
//
// The consumers of old keep their own shapes: the replacement must produce
// an equivalent shape, which is checked.
func (m *Module) ReplaceInstruction(old *Instruction, op ops.Op, inputs ...*Instruction) (*Instruction, error) {
	at := m.Position(old)
	if at < 0 {
		return nil, errors.Errorf("module %q: cannot replace an instruction that is not part of the module", m.Name)
	}
	ins, err := m.insertAt(at, op, inputs)
	if err != nil {
		return nil, err
	}
	if err := m.ReplaceWith(old, ins); err != nil {
		// Roll back: the new instruction has no consumers yet.
		_ = m.Remove(ins)
		return nil, err
	}
	return ins, nil
}

// ReplaceWith rewires every consumer of old to use rep instead, and removes
// old once it has no consumers left. Both must belong to the module and rep
// must produce a shape equivalent to old's, so consumer shapes stay correct.
//
// If rep comes after old in program order it is first moved to old's slot;
// this fails if rep depends on instructions that do not precede old.
func (m *Module) ReplaceWith(old, rep *Instruction) error {
	if old.module != m || rep.module != m {
		return errors.Errorf("module %q: both instructions of a replacement must be part of the module", m.Name)
	}
	if old == rep {
		return nil
	}
	if !old.shape.EqualDimensions(rep.shape) || old.shape.DType != rep.shape.DType {
		return errors.Errorf("module %q: cannot replace %s with %s, the output shapes disagree (%s vs %s)",
			m.Name, old, rep, old.shape, rep.shape)
	}
	// Consumers of old may sit anywhere after it, so rep must not come later
	// than old. When it does, pull it up to old's slot, which requires rep's
	// own producers to already precede that slot.
	oldAt := m.Position(old)
	if m.Position(rep) > oldAt {
		for _, input := range rep.inputs {
			if m.Position(input) >= oldAt {
				return errors.Errorf("module %q: cannot replace %s with %s, the replacement depends on %s which does not precede the replaced instruction",
					m.Name, old, rep, input)
			}
		}
		if err := m.MoveBefore(rep, old); err != nil {
			return err
		}
	}
	for _, consumer := range slices.Clone(old.consumers) {
		for i, input := range consumer.inputs {
			if input == old {
				consumer.inputs[i] = rep
				old.removeConsumer(consumer)
				rep.consumers = append(rep.consumers, consumer)
			}
		}
	}
	if klog.V(2).Enabled() {
		klog.Infof("module %q: replaced %s with %s", m.Name, old, rep)
	}
	if old.NumConsumers() == 0 {
		return m.Remove(old)
	}
	return nil
}

// Remove deletes the instruction from the module. It fails while the
// instruction still has consumers: those must be rewired (or removed)
// first.
func (m *Module) Remove(ins *Instruction) error {
	at := m.Position(ins)
	if at < 0 {
		return errors.Errorf("module %q: cannot remove an instruction that is not part of the module", m.Name)
	}
	if n := ins.NumConsumers(); n > 0 {
		return errors.Errorf("module %q: cannot remove %s, it still has %d consumers", m.Name, ins, n)
	}
	ins.detachFromInputs()
	ins.module = nil
	m.instructions = slices.Delete(m.instructions, at, at+1)
	return nil
}

// Validate checks the module invariants: every edge stays inside the
// module, consumer lists mirror input lists, and producers precede their
// consumers in program order.
func (m *Module) Validate() error {
	position := make(map[*Instruction]int, len(m.instructions))
	for i, ins := range m.instructions {
		position[ins] = i
	}
	for i, ins := range m.instructions {
		if ins.module != m {
			return errors.Errorf("module %q: instruction %s does not point back at its module", m.Name, ins)
		}
		for _, input := range ins.inputs {
			p, found := position[input]
			if !found {
				return errors.Errorf("module %q: instruction %s has an input outside of the module", m.Name, ins)
			}
			if p >= i {
				return errors.Errorf("module %q: producer %s does not precede consumer %s", m.Name, input, ins)
			}
			if countEdges(input.consumers, ins) != countEdges(ins.inputs, input) {
				return errors.Errorf("module %q: consumer list of %s disagrees with the inputs of %s", m.Name, input, ins)
			}
		}
		for _, consumer := range ins.consumers {
			if _, found := position[consumer]; !found {
				return errors.Errorf("module %q: instruction %s has a consumer outside of the module", m.Name, ins)
			}
		}
	}
	return nil
}

func countEdges(list []*Instruction, target *Instruction) int {
	n := 0
	for _, ins := range list {
		if ins == target {
			n++
		}
	}
	return n
}

// String returns the program listing, one instruction per line.
func (m *Module) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "module %q {\n", m.Name)
	for _, ins := range m.instructions {
		fmt.Fprintf(&b, "  %s\n", ins)
	}
	b.WriteString("}\n")
	return b.String()
}

func inputShapes(inputs []*Instruction) []shapes.Shape {
	s := make([]shapes.Shape, len(inputs))
	for i, input := range inputs {
		s[i] = input.shape
	}
	return s
}
