package tensorir

import (
	"runtime"
	"slices"

	"github.com/gomlx/tensorir/internal/optypes"
	"github.com/gomlx/tensorir/internal/utils"
	"github.com/gomlx/tensorir/ops"
	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"
)

// TuningConfig enumerates the candidate solutions to try when compiling one
// instruction. An empty Solutions list means the backend has a single
// canonical compilation for the operator.
type TuningConfig struct {
	Solutions []any
}

// Replacement is the outcome of compiling one instruction: applied
// sequentially after the parallel phase, it rewrites the instruction into
// its compiled form.
type Replacement func(m *Module, ins *Instruction) error

// Compiler is the backend that turns a Precompile-wrapped operator into an
// executable replacement. Implementations must be safe for concurrent use:
// both methods are called from multiple goroutines at once.
type Compiler interface {
	// TuningConfig returns the candidate solutions for the instruction,
	// or nil when there is nothing to tune.
	TuningConfig(ins *Instruction, op ops.Op) (*TuningConfig, error)

	// Compile compiles the instruction with the given solution. The
	// solution is nil when no tuning config was returned.
	Compile(ins *Instruction, op ops.Op, solution any) (Replacement, error)
}

type compiledResult struct {
	replace Replacement
	ins     *Instruction
}

// compilePlan tracks the compilation of one Precompile instruction: its
// tuning config, then one compiled result per candidate solution. The
// results slice is pre-sized so each worker writes its own slot.
type compilePlan struct {
	compiler Compiler
	op       ops.Op
	ins      *Instruction
	config   *TuningConfig
	results  []compiledResult
}

func (cp *compilePlan) updateConfig() error {
	config, err := cp.compiler.TuningConfig(cp.ins, cp.op)
	if err != nil {
		return err
	}
	cp.config = config
	return nil
}

func (cp *compilePlan) addCompiles(group *errgroup.Group) {
	if cp.config != nil && len(cp.config.Solutions) > 0 {
		cp.results = make([]compiledResult, len(cp.config.Solutions))
		for i, solution := range cp.config.Solutions {
			group.Go(func() error {
				replace, err := cp.compiler.Compile(cp.ins, cp.op, solution)
				if err != nil {
					return err
				}
				cp.results[i] = compiledResult{replace: replace, ins: cp.ins}
				return nil
			})
		}
		return
	}
	cp.results = make([]compiledResult, 1)
	group.Go(func() error {
		replace, err := cp.compiler.Compile(cp.ins, cp.op, nil)
		if err != nil {
			return err
		}
		cp.results[0] = compiledResult{replace: replace, ins: cp.ins}
		return nil
	})
}

func (cp *compilePlan) replace(m *Module) error {
	// TODO: benchmark the candidates and keep the fastest one.
	best := cp.results[0]
	return best.replace(m, best.ins)
}

// CompileAll compiles every Precompile instruction of the module. The
// tuning configs and the per-solution compilations run in parallel, limited
// to the given number of goroutines (the number of CPUs when parallel <= 0);
// the resulting replacements are applied sequentially in program order. Any
// failure aborts the whole compilation.
func CompileAll(m *Module, compiler Compiler, parallel int) error {
	if parallel <= 0 {
		parallel = runtime.NumCPU()
	}

	plans := utils.TransformIf(slices.Collect(m.Instructions()),
		func(ins *Instruction) bool { return ins.op.Type() == optypes.Precompile },
		func(ins *Instruction) *compilePlan {
			return &compilePlan{compiler: compiler, op: ins.op.(ops.Precompile).Op, ins: ins}
		})
	if len(plans) == 0 {
		return nil
	}
	if klog.V(1).Enabled() {
		klog.Infof("module %q: compiling %d instructions with up to %d workers", m.Name, len(plans), parallel)
	}

	var group errgroup.Group
	group.SetLimit(parallel)
	for _, cp := range plans {
		group.Go(cp.updateConfig)
	}
	if err := group.Wait(); err != nil {
		return err
	}

	for _, cp := range plans {
		cp.addCompiles(&group)
	}
	if err := group.Wait(); err != nil {
		return err
	}

	for _, cp := range plans {
		if err := cp.replace(m); err != nil {
			return err
		}
	}
	return nil
}
