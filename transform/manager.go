package transform

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/gogpu/shir/ir"
)

// ValidationFailure is returned when the module is invalid before the
// pipeline starts or after one of its passes.
type ValidationFailure struct {
	// Pass is the name of the pass that produced the invalid module,
	// or "input" if the module was invalid to begin with.
	Pass   string
	Errors []ir.ValidationError
}

func (e *ValidationFailure) Error() string {
	var sb strings.Builder
	if e.Pass == inputStage {
		sb.WriteString("invalid input module")
	} else {
		fmt.Fprintf(&sb, "module invalid after pass %s", e.Pass)
	}
	for _, ve := range e.Errors {
		sb.WriteString("\n  ")
		sb.WriteString(ve.Error())
	}
	return sb.String()
}

const inputStage = "input"

// ManagerOptions configures a Manager.
type ManagerOptions struct {
	// SkipValidation disables validation before and between passes.
	SkipValidation bool
	// PrintIRAfterAll captures the disassembled module after every pass.
	PrintIRAfterAll bool
}

// PassStats describes one pass execution.
type PassStats struct {
	Name               string
	InstructionsBefore int
	InstructionsAfter  int
	Duration           time.Duration
	// IR is the disassembled module after the pass when PrintIRAfterAll is set.
	IR string
}

// Report collects the statistics of a pipeline run.
type Report struct {
	Passes []PassStats
}

// Manager runs a sequence of passes.
type Manager struct {
	opts   ManagerOptions
	passes []Pass
}

// NewManager creates a manager that runs passes in order.
func NewManager(opts ManagerOptions, passes ...Pass) *Manager {
	return &Manager{opts: opts, passes: passes}
}

// Add appends a pass to the pipeline.
func (m *Manager) Add(p Pass) {
	m.passes = append(m.passes, p)
}

// Passes returns the pipeline.
func (m *Manager) Passes() []Pass {
	return m.passes
}

// Run applies the pipeline to mod. The report is returned even when a pass
// fails and covers the passes that ran.
func (m *Manager) Run(ctx context.Context, mod *ir.Module) (_ *Report, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "transform: run pipeline", "passes", len(m.passes))
	defer tr.Finish("err", &err)

	report := &Report{}

	if err := m.validate(inputStage, mod); err != nil {
		return report, err
	}

	for _, p := range m.passes {
		if err := ctx.Err(); err != nil {
			return report, errors.Wrap(err, "before pass %v", p.Name())
		}

		stats, err := m.runPass(ctx, p, mod)
		report.Passes = append(report.Passes, stats)
		if err != nil {
			return report, err
		}
	}

	return report, nil
}

func (m *Manager) runPass(ctx context.Context, p Pass, mod *ir.Module) (stats PassStats, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "transform: pass", "name", p.Name())
	defer tr.Finish("err", &err)

	stats = PassStats{
		Name:               p.Name(),
		InstructionsBefore: mod.InstructionCount(),
	}

	start := time.Now()
	if err := p.Run(ctx, mod); err != nil {
		return stats, errors.Wrap(err, "pass %v", p.Name())
	}
	stats.Duration = time.Since(start)
	stats.InstructionsAfter = mod.InstructionCount()

	tr.Printw("pass done", "before", stats.InstructionsBefore, "after", stats.InstructionsAfter, "took", stats.Duration)

	if m.opts.PrintIRAfterAll {
		stats.IR = ir.Disassemble(mod)
	}

	return stats, m.validate(p.Name(), mod)
}

func (m *Manager) validate(stage string, mod *ir.Module) error {
	if m.opts.SkipValidation {
		return nil
	}
	errs, err := ir.Validate(mod)
	if err != nil {
		return errors.Wrap(err, "validate")
	}
	if len(errs) != 0 {
		return &ValidationFailure{Pass: stage, Errors: errs}
	}
	return nil
}

// ForTarget returns the pipeline that prepares a module for the named
// backend: wgsl, hlsl, msl or spirv.
func ForTarget(target string) ([]Pass, error) {
	var names []string
	switch target {
	case "wgsl":
		names = []string{"value_to_let"}
	case "hlsl", "msl":
		names = []string{"polyfill", "simplify_pointers", "remove_phonies", "value_to_let"}
	case "spirv":
		names = []string{"polyfill", "simplify_pointers", "remove_phonies"}
	default:
		return nil, errors.New("no pipeline for target %q", target)
	}

	passes := make([]Pass, len(names))
	for i, n := range names {
		p, err := New(n, nil)
		if err != nil {
			return nil, err
		}
		passes[i] = p
	}
	return passes, nil
}
