package transform

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/chewxy/math32"

	"github.com/gogpu/shir/ir"
)

// helperPrefix starts the name of every function generated by the polyfill.
const helperPrefix = "tint_"

// PolyfillOptions selects the polyfills to apply.
type PolyfillOptions struct {
	// ConvF32ToIU32 replaces float to integer conversions with clamping helpers.
	ConvF32ToIU32 bool `yaml:"conv_f32_to_iu32" toml:"conv_f32_to_iu32"`
	// IntDivMod replaces integer division and modulo with helpers that
	// avoid division by zero and INT_MIN / -1.
	IntDivMod bool `yaml:"int_div_mod" toml:"int_div_mod"`
}

// DefaultPolyfillOptions enables every polyfill.
func DefaultPolyfillOptions() PolyfillOptions {
	return PolyfillOptions{ConvF32ToIU32: true, IntDivMod: true}
}

type polyfillPass struct {
	opts PolyfillOptions
}

func newPolyfillPass(opts Options) (Pass, error) {
	p := &polyfillPass{opts: DefaultPolyfillOptions()}
	if err := decodeOptions(opts, &p.opts); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *polyfillPass) Name() string { return "polyfill" }

func (p *polyfillPass) Run(ctx context.Context, m *ir.Module) error {
	return Polyfill(m, p.opts)
}

// Polyfill replaces operations whose behavior differs between targets with
// calls to generated helper functions. Helpers are created once per
// signature and reused.
func Polyfill(m *ir.Module, opts PolyfillOptions) error {
	p := &polyfill{
		module:  m,
		types:   m.Types,
		builder: ir.NewBuilder(m),
		opts:    opts,
	}
	for _, f := range slices.Clone(m.Functions) {
		if strings.HasPrefix(f.Name, helperPrefix) {
			continue
		}
		ir.Walk(f.Block, func(inst ir.Instruction) bool {
			switch inst := inst.(type) {
			case *ir.Convert:
				if opts.ConvF32ToIU32 {
					p.convert(inst)
				}
			case *ir.Binary:
				if opts.IntDivMod && (inst.Op == ir.BinaryDivide || inst.Op == ir.BinaryModulo) {
					p.divMod(inst)
				}
			}
			return true
		})
	}
	return nil
}

type polyfill struct {
	module  *ir.Module
	types   *ir.TypeRegistry
	builder *ir.Builder
	opts    PolyfillOptions
}

// typeSuffix spells t in helper names: f32, v3u32.
func (p *polyfill) typeSuffix(t ir.TypeHandle) string {
	s, _ := p.types.ScalarOf(t)
	if n := p.types.VectorSizeOf(t); n != 0 {
		return fmt.Sprintf("v%d%s", n, ir.ScalarName(s))
	}
	return ir.ScalarName(s)
}

// helper returns the helper called name, building it with body on first use.
func (p *polyfill) helper(name string, ret ir.TypeHandle, params []ir.TypeHandle, paramNames []string,
	body func(b *ir.Builder, f *ir.Function)) *ir.Function {
	if f := p.module.Function(name); f != nil {
		return f
	}
	f := p.module.NewFunction(name, ret)
	for i, t := range params {
		f.AddParam(paramNames[i], t)
	}
	b := ir.NewBuilder(p.module)
	b.SetBlock(f.Block)
	body(b, f)
	return f
}

// replaceWithCall swaps inst for a call to f with args.
func (p *polyfill) replaceWithCall(inst ir.Instruction, f *ir.Function, args ...ir.Value) {
	p.builder.SetBefore(inst)
	call := p.builder.Call(f, args...)
	r := inst.Result()
	call.Result().SetName(r.Name())
	ir.ReplaceAllUsesWith(r, call.Result())
	ir.Destroy(inst)
}

// convLimits returns the range of src values that convert to dst without
// overflow. The bounds are the representable src values closest to the
// limits of dst.
func convLimits(src, dst ir.ScalarType) (lo, hi float64) {
	if src.Width == 2 {
		if dst.Kind == ir.ScalarSint {
			return -65504, 65504
		}
		return 0, 65504
	}
	if dst.Kind == ir.ScalarSint {
		return math.MinInt32, float64(math32.Nextafter(float32(1<<31), 0))
	}
	return 0, float64(math32.Nextafter(float32(1<<32), 0))
}

func (p *polyfill) convert(inst *ir.Convert) {
	src, dst := inst.Value().Type(), inst.Result().Type()
	ss, _ := p.types.ScalarOf(src)
	ds, _ := p.types.ScalarOf(dst)
	if ss.Kind != ir.ScalarFloat || !ds.IsInteger() {
		return
	}

	name := helperPrefix + p.typeSuffix(src) + "_to_" + p.typeSuffix(dst)
	f := p.helper(name, dst, []ir.TypeHandle{src}, []string{"value"}, func(b *ir.Builder, f *ir.Function) {
		lo, hi := convLimits(ss, ds)
		low := p.module.Splat(src, p.module.ConstScalar(ss, lo))
		high := p.module.Splat(src, p.module.ConstScalar(ss, hi))
		clamped := b.CallBuiltin(ir.BuiltinClamp, src, f.Params[0], low, high)
		conv := b.Convert(dst, clamped.Result())
		b.Return(f, conv.Result())
	})
	p.replaceWithCall(inst, f, inst.Value())
}

func (p *polyfill) divMod(inst *ir.Binary) {
	t := inst.Result().Type()
	s, ok := p.types.ScalarOf(t)
	if !ok || !s.IsInteger() {
		return
	}

	lhs, rhs := inst.LHS(), inst.RHS()
	p.builder.SetBefore(inst)
	if lhs.Type() != t {
		lhs = p.builder.Construct(t, lhs).Result()
	}
	if rhs.Type() != t {
		rhs = p.builder.Construct(t, rhs).Result()
	}

	op := "div"
	if inst.Op == ir.BinaryModulo {
		op = "mod"
	}
	name := helperPrefix + op + "_" + p.typeSuffix(t)
	f := p.helper(name, t, []ir.TypeHandle{t, t}, []string{"lhs", "rhs"}, func(b *ir.Builder, f *ir.Function) {
		p.divModBody(b, f, t, s, inst.Op)
	})
	p.replaceWithCall(inst, f, lhs, rhs)
}

// divModBody substitutes a divisor of 1 when the divisor is zero or, for
// signed integers, when dividing INT_MIN by -1.
func (p *polyfill) divModBody(b *ir.Builder, f *ir.Function, t ir.TypeHandle, s ir.ScalarType, op ir.BinaryOp) {
	m := p.module
	lhs, rhs := f.Params[0], f.Params[1]
	boolT := p.types.WithScalar(t, ir.Bool)

	cond := b.Binary(ir.BinaryEqual, boolT, rhs, m.Splat(t, m.ConstScalar(s, 0))).Result()
	if s.Kind == ir.ScalarSint {
		isMin := b.Binary(ir.BinaryEqual, boolT, lhs, m.Splat(t, m.ConstI32(math.MinInt32)))
		isNegOne := b.Binary(ir.BinaryEqual, boolT, rhs, m.Splat(t, m.ConstI32(-1)))
		overflow := b.Binary(ir.BinaryAnd, boolT, isMin.Result(), isNegOne.Result())
		cond = b.Binary(ir.BinaryOr, boolT, cond, overflow.Result()).Result()
	}
	divisor := b.CallBuiltin(ir.BuiltinSelect, t, rhs, m.Splat(t, m.ConstScalar(s, 1)), cond)
	quot := b.Binary(ir.BinaryDivide, t, lhs, divisor.Result())
	if op == ir.BinaryDivide {
		b.Return(f, quot.Result())
		return
	}
	prod := b.Binary(ir.BinaryMultiply, t, quot.Result(), divisor.Result())
	rem := b.Binary(ir.BinarySubtract, t, lhs, prod.Result())
	b.Return(f, rem.Result())
}
