// Package shir lowers shader IR modules to target shading languages.
//
// A module is read from its textual form, prepared for a target by the
// target's pass pipeline and handed to one of the backends:
//   - WGSL for WebGPU
//   - HLSL for Direct3D
//   - MSL for Metal
//   - SPIR-V binary for Vulkan
//
// Example usage:
//
//	src := `
//	@fragment
//	func %main(%color: vec4<f32> @location(0)) -> vec4<f32> @location(0) {
//	  ret %color
//	}
//	`
//	out, err := shir.Compile(ctx, src, shir.TargetMSL, shir.DefaultOptions())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// The stages are also available separately as Parse, Validate, Lower and
// Generate. Lower mutates the module in place.
package shir

import (
	"context"
	"strconv"
	"strings"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/gogpu/shir/hlsl"
	"github.com/gogpu/shir/ir"
	"github.com/gogpu/shir/irtext"
	"github.com/gogpu/shir/msl"
	"github.com/gogpu/shir/spirv"
	"github.com/gogpu/shir/transform"
	"github.com/gogpu/shir/wgsl"
)

// Target is an output language.
type Target int

const (
	TargetWGSL Target = iota
	TargetHLSL
	TargetMSL
	TargetSPIRV
)

var targetNames = [...]string{
	TargetWGSL:  "wgsl",
	TargetHLSL:  "hlsl",
	TargetMSL:   "msl",
	TargetSPIRV: "spirv",
}

// Targets lists every supported target.
func Targets() []Target {
	return []Target{TargetWGSL, TargetHLSL, TargetMSL, TargetSPIRV}
}

func (t Target) String() string {
	if t >= 0 && int(t) < len(targetNames) {
		return targetNames[t]
	}
	return "Target(" + strconv.Itoa(int(t)) + ")"
}

// ParseTarget parses a target name. "spv" is accepted for SPIR-V.
func ParseTarget(s string) (Target, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "spv" {
		return TargetSPIRV, nil
	}
	for t, n := range targetNames {
		if n == name {
			return Target(t), nil
		}
	}
	return 0, errors.New("unknown target %q", s)
}

// Binary reports whether the target produces binary output.
func (t Target) Binary() bool {
	return t == TargetSPIRV
}

// Options configures lowering and code generation.
type Options struct {
	// Pipeline replaces the target's pass pipeline when set. Its own
	// validation settings apply instead of the fields below.
	Pipeline *transform.Config

	// SkipValidation disables validation before and between passes.
	SkipValidation bool

	// PrintIRAfterAll records the module after every pass in the report.
	PrintIRAfterAll bool

	WGSL  wgsl.Options
	HLSL  *hlsl.Options
	MSL   msl.Options
	SPIRV spirv.Options
}

// DefaultOptions returns the default options of every backend.
func DefaultOptions() Options {
	return Options{
		WGSL:  wgsl.DefaultOptions(),
		HLSL:  hlsl.DefaultOptions(),
		MSL:   msl.DefaultOptions(),
		SPIRV: spirv.DefaultOptions(),
	}
}

// Parse reads a module in the textual IR form. It does not validate.
func Parse(src string) (*ir.Module, error) {
	m, err := irtext.Parse(src)
	if err != nil {
		return nil, errors.Wrap(err, "parse")
	}
	return m, nil
}

// Validate checks m and returns a *transform.ValidationFailure listing
// every problem found.
func Validate(m *ir.Module) error {
	errs, err := ir.Validate(m)
	if err != nil {
		return errors.Wrap(err, "validate")
	}
	if len(errs) != 0 {
		return &transform.ValidationFailure{Pass: "input", Errors: errs}
	}
	return nil
}

// Lower runs the pass pipeline of target over m, or opts.Pipeline when set.
func Lower(ctx context.Context, m *ir.Module, target Target, opts Options) (_ *transform.Report, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "shir: lower", "target", target)
	defer tr.Finish("err", &err)

	mgr, err := pipeline(target, opts)
	if err != nil {
		return nil, err
	}

	return mgr.Run(ctx, m)
}

func pipeline(target Target, opts Options) (*transform.Manager, error) {
	mopts := transform.ManagerOptions{
		SkipValidation:  opts.SkipValidation,
		PrintIRAfterAll: opts.PrintIRAfterAll,
	}

	if opts.Pipeline != nil {
		mgr, err := opts.Pipeline.Manager()
		if err != nil {
			return nil, errors.Wrap(err, "pipeline config")
		}
		return mgr, nil
	}

	passes, err := transform.ForTarget(target.String())
	if err != nil {
		return nil, err
	}
	return transform.NewManager(mopts, passes...), nil
}

// Generate emits m in the target language. The module must already have
// gone through the target's pipeline.
func Generate(m *ir.Module, target Target, opts Options) ([]byte, error) {
	switch target {
	case TargetWGSL:
		code, _, err := wgsl.Compile(m, opts.WGSL)
		return []byte(code), err
	case TargetHLSL:
		hopts := opts.HLSL
		if hopts == nil {
			hopts = hlsl.DefaultOptions()
		}
		code, _, err := hlsl.Compile(m, hopts)
		return []byte(code), err
	case TargetMSL:
		code, _, err := msl.Compile(m, opts.MSL)
		return []byte(code), err
	case TargetSPIRV:
		bin, _, err := spirv.Compile(m, opts.SPIRV)
		return bin, err
	}
	return nil, errors.New("unknown target %v", target)
}

// Compile parses src, lowers it for target and generates the output.
func Compile(ctx context.Context, src string, target Target, opts Options) (_ []byte, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "shir: compile", "target", target, "src_len", len(src))
	defer tr.Finish("err", &err)

	m, err := Parse(src)
	if err != nil {
		return nil, err
	}

	report, err := Lower(ctx, m, target, opts)
	if err != nil {
		return nil, errors.Wrap(err, "lower")
	}

	out, err := Generate(m, target, opts)
	if err != nil {
		return nil, errors.Wrap(err, "generate %v", target)
	}

	tr.Printw("compiled", "passes", len(report.Passes), "out_len", len(out))

	return out, nil
}
