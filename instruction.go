package tensorir

import (
	"fmt"
	"strings"

	"github.com/gomlx/tensorir/ops"
	"github.com/gomlx/tensorir/types/shapes"
)

// Instruction is one node of the computation graph: an operator plus its
// input edges and resolved output shape.
//
// Instructions are owned by exactly one Module and live in its arena; the
// input and consumer edges are plain references to other instructions of the
// same module, never independent ownership. Create them with
// Module.AddInstruction (and friends), never directly.
type Instruction struct {
	module *Module
	id     int

	op    ops.Op
	shape shapes.Shape

	// inputs are the producers of this instruction's operands, in operand
	// order. consumers is the reverse index: every instruction that lists
	// this one as an input, maintained by the module.
	inputs    []*Instruction
	consumers []*Instruction
}

// Op returns the operator the instruction carries.
func (ins *Instruction) Op() ops.Op { return ins.op }

// Shape returns the instruction's resolved output shape.
func (ins *Instruction) Shape() shapes.Shape { return ins.shape }

// Module returns the module owning the instruction.
func (ins *Instruction) Module() *Module { return ins.module }

// Inputs returns the producers of the instruction's operands, in operand
// order. Callers must not modify the returned slice.
func (ins *Instruction) Inputs() []*Instruction { return ins.inputs }

// Consumers returns the instructions using this one as an input. An input
// used for more than one operand of the same consumer appears once per use.
// Callers must not modify the returned slice.
func (ins *Instruction) Consumers() []*Instruction { return ins.consumers }

// NumConsumers returns how many instruction operands reference this
// instruction.
func (ins *Instruction) NumConsumers() int { return len(ins.consumers) }

// String implements fmt.Stringer: one program line, e.g.
// "%2 = add(%0, %1) : (Float32)[2 3]".
func (ins *Instruction) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%%%d = %s(", ins.id, ins.op.Name())
	for i, input := range ins.inputs {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%%%d", input.id)
	}
	fmt.Fprintf(&b, ") : %s", ins.shape)
	return b.String()
}

// detachFromInputs removes the instruction from its producers' consumer
// lists. It must only be called when removing the instruction from the
// module.
func (ins *Instruction) detachFromInputs() {
	for _, input := range ins.inputs {
		input.removeConsumer(ins)
	}
	ins.inputs = nil
}

// removeConsumer drops one (and only one) reference to consumer from the
// consumer list.
func (ins *Instruction) removeConsumer(consumer *Instruction) {
	for i, c := range ins.consumers {
		if c == consumer {
			ins.consumers = append(ins.consumers[:i], ins.consumers[i+1:]...)
			return
		}
	}
}
