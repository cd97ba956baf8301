package tensorir

import (
	"github.com/gomlx/tensorir/internal/optypes"
	"k8s.io/klog/v2"
)

// Predicate decides whether an instruction is a candidate for a rewrite.
type Predicate func(ins *Instruction) bool

// OfType matches instructions with the given operator type.
func OfType(opType optypes.OpType) Predicate {
	return func(ins *Instruction) bool { return ins.op.Type() == opType }
}

// AnyType matches instructions whose operator type is any of the given ones.
func AnyType(opTypes ...optypes.OpType) Predicate {
	return func(ins *Instruction) bool {
		for _, opType := range opTypes {
			if ins.op.Type() == opType {
				return true
			}
		}
		return false
	}
}

// NArgs matches instructions with exactly n inputs.
func NArgs(n int) Predicate {
	return func(ins *Instruction) bool { return len(ins.inputs) == n }
}

// MinConsumers matches instructions with at least n consumers.
func MinConsumers(n int) Predicate {
	return func(ins *Instruction) bool { return ins.NumConsumers() >= n }
}

// And matches when every given predicate matches.
func And(predicates ...Predicate) Predicate {
	return func(ins *Instruction) bool {
		for _, p := range predicates {
			if !p(ins) {
				return false
			}
		}
		return true
	}
}

// Or matches when any of the given predicates matches.
func Or(predicates ...Predicate) Predicate {
	return func(ins *Instruction) bool {
		for _, p := range predicates {
			if p(ins) {
				return true
			}
		}
		return false
	}
}

// Not inverts a predicate.
func Not(p Predicate) Predicate {
	return func(ins *Instruction) bool { return !p(ins) }
}

// Rule pairs a predicate with the rewrite to apply at each match. Apply may
// freely mutate the module, including removing the matched instruction.
type Rule struct {
	// Name of the rule, for logging only.
	Name string

	Match Predicate
	Apply func(m *Module, ins *Instruction) error
}

// ApplyRules scans the module in program order and applies each matching
// rule to each instruction. The scan runs over a snapshot of the program
// taken up front: instructions inserted by a rewrite are not revisited in
// the same pass, and instructions removed by one are skipped. At most one
// rule fires per instruction, the first whose predicate matches.
func (m *Module) ApplyRules(rules []Rule) error {
	for ins := range m.Instructions() {
		if ins.module != m {
			// Removed by an earlier rewrite in this pass.
			continue
		}
		for _, rule := range rules {
			if !rule.Match(ins) {
				continue
			}
			if klog.V(2).Enabled() {
				klog.Infof("module %q: rule %q matched %s", m.Name, rule.Name, ins)
			}
			if err := rule.Apply(m, ins); err != nil {
				return err
			}
			break
		}
	}
	return nil
}
