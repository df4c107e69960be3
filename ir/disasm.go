package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// Disassemble returns the canonical text form of m. The output can be read
// back by the irtext package.
func Disassemble(m *Module) string {
	d := newDisassembler(m)
	d.module()
	return d.out.String()
}

// ValueName returns the name a value would get in the text form when it is
// printed without module context: its name if it has one, its id otherwise.
func ValueName(v Value) string {
	if v.Name() != "" {
		return "%" + v.Name()
	}
	return "%" + strconv.FormatUint(uint64(v.ID()), 10)
}

// disassembler prints a module in the canonical text form.
type disassembler struct {
	m      *Module
	out    strings.Builder
	indent int

	names map[Value]string
	used  map[string]bool
	next  int
}

func newDisassembler(m *Module) *disassembler {
	return &disassembler{
		m:     m,
		names: make(map[Value]string),
		used:  make(map[string]bool),
		next:  1,
	}
}

func (d *disassembler) write(format string, args ...any) {
	if len(args) == 0 {
		d.out.WriteString(format)
	} else {
		fmt.Fprintf(&d.out, format, args...)
	}
}

func (d *disassembler) writeLine(format string, args ...any) {
	d.writeIndent()
	d.write(format, args...)
	d.out.WriteByte('\n')
}

func (d *disassembler) writeIndent() {
	for i := 0; i < d.indent; i++ {
		d.out.WriteString("  ")
	}
}

// name assigns a printable unique name to v. Anonymous values are numbered
// in print order so the output does not depend on value ids.
func (d *disassembler) name(v Value) string {
	if n, ok := d.names[v]; ok {
		return n
	}
	var n string
	if base := v.Name(); base != "" {
		n = base
		for i := 1; d.used[n]; i++ {
			n = base + "_" + strconv.Itoa(i)
		}
	} else {
		for {
			n = strconv.Itoa(d.next)
			d.next++
			if !d.used[n] {
				break
			}
		}
	}
	d.used[n] = true
	d.names[v] = "%" + n
	return "%" + n
}

func (d *disassembler) typ(t TypeHandle) string {
	return d.m.Types.Format(t)
}

func (d *disassembler) module() {
	first := true
	sep := func() {
		if !first {
			d.out.WriteByte('\n')
		}
		first = false
	}

	for _, t := range d.m.Types.Types() {
		st, ok := t.Inner.(StructType)
		if !ok {
			continue
		}
		sep()
		d.writeLine("struct %s {", t.Name)
		d.indent++
		for _, mem := range st.Members {
			if mem.Binding != nil {
				d.writeLine("%s: %s %s,", mem.Name, d.typ(mem.Type), FormatBinding(mem.Binding))
			} else {
				d.writeLine("%s: %s,", mem.Name, d.typ(mem.Type))
			}
		}
		d.indent--
		d.writeLine("}")
	}

	// Function names are reserved first so that calls can refer forward.
	for _, f := range d.m.Functions {
		d.used[f.Name] = true
	}

	if d.m.Root.Len() > 0 {
		sep()
		for _, inst := range d.m.Root.Instructions() {
			d.instruction(inst)
		}
	}

	for _, f := range d.m.Functions {
		sep()
		d.function(f)
	}
}

func (d *disassembler) function(f *Function) {
	switch f.Stage {
	case StageCompute:
		d.writeLine("@compute @workgroup_size(%d, %d, %d)", f.WorkgroupSize[0], f.WorkgroupSize[1], f.WorkgroupSize[2])
	case StageVertex, StageFragment:
		d.writeLine("@%s", f.Stage)
	}

	d.writeIndent()
	d.write("func %%%s(", f.Name)
	for i, p := range f.Params {
		if i > 0 {
			d.write(", ")
		}
		d.write("%s: %s", d.name(p), d.typ(p.Type()))
		if p.Binding != nil {
			d.write(" %s", FormatBinding(p.Binding))
		}
	}
	d.write(")")
	if !d.m.Types.IsVoid(f.ReturnType) {
		d.write(" -> %s", d.typ(f.ReturnType))
		if f.ReturnBinding != nil {
			d.write(" %s", FormatBinding(f.ReturnBinding))
		}
	}
	d.write(" {\n")
	d.indent++
	d.block(f.Block)
	d.indent--
	d.writeLine("}")
}

func (d *disassembler) block(b *Block) {
	for _, inst := range b.Instructions() {
		d.instruction(inst)
	}
}

// operand formats a value reference or an inline constant.
func (d *disassembler) operand(v Value) string {
	if v == nil {
		return "<nil>"
	}
	if c, ok := v.(*Constant); ok {
		return d.constant(c)
	}
	return d.name(v)
}

func (d *disassembler) constant(c *Constant) string {
	switch val := c.Value.(type) {
	case ScalarValue:
		s, _ := d.m.Types.Inner(c.Type()).(ScalarType)
		return FormatConstant(val, s)
	case CompositeValue:
		parts := make([]string, len(val.Components))
		for i, comp := range val.Components {
			parts[i] = d.constant(comp)
		}
		return d.typ(c.Type()) + "(" + strings.Join(parts, ", ") + ")"
	case ZeroValue:
		return d.typ(c.Type()) + "()"
	}
	return "<invalid constant>"
}

func (d *disassembler) operands(vals []Value) string {
	parts := make([]string, 0, len(vals))
	for _, v := range vals {
		if v == nil {
			continue
		}
		parts = append(parts, d.operand(v))
	}
	return strings.Join(parts, ", ")
}

// swizzleLetters maps component indices to their names.
const swizzleLetters = "xyzw"

//nolint:gocyclo,cyclop // one case per instruction kind
func (d *disassembler) instruction(inst Instruction) {
	var lhs string
	if r := inst.Result(); r != nil {
		lhs = fmt.Sprintf("%s: %s = ", d.name(r), d.typ(r.Type()))
	}

	switch i := inst.(type) {
	case *Var:
		text := lhs + "var"
		if init := i.Initializer(); init != nil {
			text += " " + d.operand(init)
		}
		if i.Binding != nil {
			text += fmt.Sprintf(" @group(%d) @binding(%d)", i.Binding.Group, i.Binding.Binding)
		}
		d.writeLine("%s", text)

	case *Swizzle:
		var sb strings.Builder
		for _, idx := range i.Indices {
			if int(idx) < len(swizzleLetters) {
				sb.WriteByte(swizzleLetters[idx])
			}
		}
		d.writeLine("%sswizzle %s, %s", lhs, d.operand(i.Value()), sb.String())

	case *Call:
		args := d.operands(i.Args())
		if args != "" {
			d.writeLine("%scall %%%s, %s", lhs, i.Target.Name, args)
		} else {
			d.writeLine("%scall %%%s", lhs, i.Target.Name)
		}

	case *If:
		d.writeLine("if %s {", d.operand(i.Condition()))
		d.indent++
		d.block(i.True)
		d.indent--
		d.writeLine("} else {")
		d.indent++
		d.block(i.False)
		d.indent--
		d.writeLine("}")

	case *Loop:
		d.writeLine("loop {")
		d.indent++
		d.block(i.Body)
		d.indent--
		d.writeLine("} continuing {")
		d.indent++
		d.block(i.Continuing)
		d.indent--
		d.writeLine("}")

	case *Switch:
		d.writeLine("switch %s {", d.operand(i.Selector()))
		d.indent++
		var sel ScalarType
		if i.Selector() != nil {
			sel, _ = d.m.Types.Inner(i.Selector().Type()).(ScalarType)
		}
		for _, c := range i.Cases {
			d.writeLine("%s {", d.caseLabel(c, sel))
			d.indent++
			d.block(c.Block)
			d.indent--
			d.writeLine("}")
		}
		d.indent--
		d.writeLine("}")

	default:
		ops := d.operands(inst.Operands())
		if ops != "" {
			d.writeLine("%s%s %s", lhs, inst.Opcode(), ops)
		} else {
			d.writeLine("%s%s", lhs, inst.Opcode())
		}
	}
}

func (d *disassembler) caseLabel(c *SwitchCase, sel ScalarType) string {
	if len(c.Selectors) == 1 && c.Selectors[0].Default {
		return "default"
	}
	parts := make([]string, len(c.Selectors))
	for i, s := range c.Selectors {
		if s.Default {
			parts[i] = "default"
			continue
		}
		parts[i] = FormatConstant(ScalarValue{Bits: uint64(s.Value), Kind: sel.Kind}, sel)
	}
	return "case " + strings.Join(parts, ", ")
}
