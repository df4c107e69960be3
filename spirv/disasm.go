package spirv

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/chewxy/math32"
	"github.com/x448/float16"
)

type rawInstruction struct {
	op    OpCode
	words []uint32
}

// numericType is an OpTypeInt or OpTypeFloat.
type numericType struct {
	float  bool
	signed bool
	width  uint32
}

type disassembler struct {
	insts      []rawInstruction
	names      map[uint32]string
	used       map[string]bool
	numerics   map[uint32]numericType
	valueTypes map[uint32]uint32
}

// Disassemble renders a SPIR-V binary as assembly text, one instruction per
// line. Ids are shown by their debug name when the module carries one, and
// by a name derived from the declaration for types and constants.
func Disassemble(data []byte) (string, error) {
	if len(data) < 20 || len(data)%4 != 0 {
		return "", newError(ErrInvalidModule, "%d bytes is not a SPIR-V module", len(data))
	}
	words := make([]uint32, len(data)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(data[i*4:])
	}
	if words[0] != MagicNumber {
		return "", newError(ErrInvalidModule, "bad magic number %#08x", words[0])
	}

	d := &disassembler{
		names:      make(map[uint32]string),
		used:       make(map[string]bool),
		numerics:   make(map[uint32]numericType),
		valueTypes: make(map[uint32]uint32),
	}
	if err := d.decode(words[5:]); err != nil {
		return "", err
	}
	d.nameIDs()

	var sb strings.Builder
	fmt.Fprintf(&sb, "; SPIR-V\n; Version: %d.%d\n; Generator: %d\n; Bound: %d\n; Schema: %d\n",
		words[1]>>16&0xff, words[1]>>8&0xff, words[2], words[3], words[4])
	for _, inst := range d.insts {
		line, err := d.format(inst)
		if err != nil {
			return "", err
		}
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	return sb.String(), nil
}

func (d *disassembler) decode(words []uint32) error {
	for len(words) > 0 {
		count := int(words[0] >> 16)
		op := OpCode(words[0] & 0xffff)
		if count == 0 || count > len(words) {
			return newError(ErrInvalidModule, "%s has a bad word count %d", op, count)
		}
		info, ok := opcodes[op]
		if !ok {
			return newError(ErrInvalidModule, "unknown opcode %d", uint16(op))
		}
		inst := rawInstruction{op: op, words: words[1:count]}
		if need := int(info.result) + requiredOperands(info.operands); len(inst.words) < need {
			return newError(ErrInvalidModule, "%s is truncated", op)
		}
		d.insts = append(d.insts, inst)
		words = words[count:]
	}
	return nil
}

// nameIDs assigns debug names first, then derived names for types and
// constants, keeping every name unique.
func (d *disassembler) nameIDs() {
	for _, inst := range d.insts {
		if inst.op != OpName || len(inst.words) < 2 {
			continue
		}
		id := inst.words[0]
		if _, ok := d.names[id]; ok {
			continue
		}
		if name, _ := decodeString(inst.words[1:]); name != "" {
			d.names[id] = d.unique(name)
		}
	}

	for _, inst := range d.insts {
		w := inst.words
		switch inst.op {
		case OpTypeInt:
			d.numerics[w[0]] = numericType{signed: w[2] == 1, width: w[1]}
		case OpTypeFloat:
			d.numerics[w[0]] = numericType{float: true, width: w[1]}
		}
		if opcodes[inst.op].result == typedResult {
			d.valueTypes[w[1]] = w[0]
		}

		var id uint32
		var name string
		switch inst.op {
		case OpTypeVoid:
			id, name = w[0], "void"
		case OpTypeBool:
			id, name = w[0], "bool"
		case OpTypeInt, OpTypeFloat:
			id, name = w[0], d.numerics[w[0]].String()
		case OpTypeVector:
			id, name = w[0], fmt.Sprintf("v%d%s", w[2], d.name(w[1]))
		case OpTypeMatrix:
			id, name = w[0], fmt.Sprintf("mat%d%s", w[2], d.name(w[1]))
		case OpTypeArray:
			id, name = w[0], fmt.Sprintf("_arr_%s_%s", d.name(w[1]), d.name(w[2]))
		case OpTypeRuntimeArray:
			id, name = w[0], "_runtimearr_"+d.name(w[1])
		case OpTypeStruct:
			id, name = w[0], fmt.Sprintf("_struct_%d", w[0])
		case OpTypePointer:
			id, name = w[0], fmt.Sprintf("_ptr_%s_%s", StorageClass(w[1]), d.name(w[2]))
		case OpConstantTrue:
			id, name = w[1], "true"
		case OpConstantFalse:
			id, name = w[1], "false"
		case OpConstant:
			if len(w) > 2 {
				id, name = w[1], d.name(w[0])+"_"+mangle(d.literal(w[0], w[2]))
			}
		}
		if name != "" {
			if _, ok := d.names[id]; !ok {
				d.names[id] = d.unique(name)
			}
		}
	}
}

func (d *disassembler) unique(name string) string {
	if !d.used[name] {
		d.used[name] = true
		return name
	}
	for i := 0; ; i++ {
		candidate := fmt.Sprintf("%s_%d", name, i)
		if !d.used[candidate] {
			d.used[candidate] = true
			return candidate
		}
	}
}

func (d *disassembler) name(id uint32) string {
	if n, ok := d.names[id]; ok {
		return n
	}
	return strconv.FormatUint(uint64(id), 10)
}

func (d *disassembler) format(inst rawInstruction) (string, error) {
	info := opcodes[inst.op]
	w := inst.words
	var result uint32
	parts := []string{info.name}
	switch info.result {
	case hasResult:
		result, w = w[0], w[1:]
	case typedResult:
		parts = append(parts, "%"+d.name(w[0]))
		result, w = w[1], w[2:]
	}

	operands, err := d.operands(inst, info.operands, w)
	if err != nil {
		return "", err
	}
	body := strings.Join(append(parts, operands...), " ")
	if info.result == noResult {
		return strings.Repeat(" ", 15) + body, nil
	}
	return fmt.Sprintf("%12s = %s", "%"+d.name(result), body), nil
}

func (d *disassembler) operands(inst rawInstruction, kinds string, w []uint32) ([]string, error) {
	var out []string
	for k := 0; k < len(kinds); k++ {
		kind := kinds[k]
		if k+1 < len(kinds) && kinds[k+1] == '*' {
			for len(w) > 0 {
				s, rest := d.operand(inst, kind, w)
				out, w = append(out, s), rest
			}
			k++
			continue
		}
		if len(w) == 0 {
			return nil, newError(ErrInvalidModule, "%s is missing operands", inst.op)
		}
		s, rest := d.operand(inst, kind, w)
		out, w = append(out, s), rest
	}
	if len(w) > 0 {
		return nil, newError(ErrInvalidModule, "%s has %d extra operand words", inst.op, len(w))
	}
	return out, nil
}

// operand formats the operand at the start of w and returns the words
// that follow it.
func (d *disassembler) operand(inst rawInstruction, kind byte, w []uint32) (string, []uint32) {
	switch kind {
	case 'i':
		return "%" + d.name(w[0]), w[1:]
	case 's':
		s, n := decodeString(w)
		return strconv.Quote(s), w[n:]
	case 'c':
		return d.literal(inst.words[0], w[0]), w[1:]
	case 'C':
		return Capability(w[0]).String(), w[1:]
	case 'A':
		if AddressingModel(w[0]) == AddressingModelLogical {
			return "Logical", w[1:]
		}
	case 'M':
		if MemoryModel(w[0]) == MemoryModelGLSL450 {
			return "GLSL450", w[1:]
		}
	case 'E':
		return ExecutionModel(w[0]).String(), w[1:]
	case 'X':
		return joinLiterals(ExecutionMode(w[0]).String(), w[1:]), nil
	case 'S':
		return StorageClass(w[0]).String(), w[1:]
	case 'D':
		dec := Decoration(w[0])
		if dec == DecorationBuiltIn && len(w) > 1 {
			return "BuiltIn " + BuiltIn(w[1]).String(), w[2:]
		}
		return joinLiterals(dec.String(), w[1:]), nil
	case 'F', 'L', 'P':
		if w[0] == 0 {
			return "None", w[1:]
		}
	case 'G':
		if n, ok := glslNames[w[0]]; ok {
			return n, w[1:]
		}
	case 'p':
		parts := make([]string, 0, len(w))
		selectorType := d.valueTypes[inst.words[0]]
		for len(w) >= 2 {
			parts = append(parts, d.literal(selectorType, w[0]), "%"+d.name(w[1]))
			w = w[2:]
		}
		if len(w) == 1 {
			parts = append(parts, d.literal(selectorType, w[0]))
		}
		return strings.Join(parts, " "), nil
	}
	return strconv.FormatUint(uint64(w[0]), 10), w[1:]
}

// requiredOperands counts the operand kinds that must be present.
func requiredOperands(kinds string) int {
	n := 0
	for k := 0; k < len(kinds); k++ {
		if k+1 < len(kinds) && kinds[k+1] == '*' {
			k++
			continue
		}
		n++
	}
	return n
}

func joinLiterals(head string, w []uint32) string {
	parts := []string{head}
	for _, v := range w {
		parts = append(parts, strconv.FormatUint(uint64(v), 10))
	}
	return strings.Join(parts, " ")
}

// literal formats a 32-bit literal as a value of the numeric type t.
func (d *disassembler) literal(t, v uint32) string {
	nt := d.numerics[t]
	switch {
	case nt.float && nt.width == 16:
		return strconv.FormatFloat(float64(float16.Frombits(uint16(v)).Float32()), 'g', -1, 32) //nolint:gosec // G115: half literals occupy the low 16 bits
	case nt.float:
		return strconv.FormatFloat(float64(math32.Float32frombits(v)), 'g', -1, 32)
	case nt.signed:
		return strconv.FormatInt(int64(int32(v)), 10) //nolint:gosec // G115: reinterpreting the literal bits
	}
	return strconv.FormatUint(uint64(v), 10)
}

func (t numericType) String() string {
	switch {
	case t.float && t.width == 16:
		return "half"
	case t.float && t.width == 64:
		return "double"
	case t.float:
		return "float"
	case t.width != 32 && t.signed:
		return fmt.Sprintf("int%d", t.width)
	case t.width != 32:
		return fmt.Sprintf("uint%d", t.width)
	case t.signed:
		return "int"
	}
	return "uint"
}

// mangle makes a literal usable in an id name.
func mangle(s string) string {
	return strings.NewReplacer("-", "n", ".", "_", "+", "p").Replace(s)
}

// decodeString decodes a null-terminated literal string and returns the
// number of words it occupies.
func decodeString(w []uint32) (string, int) {
	var sb strings.Builder
	for i, word := range w {
		for shift := 0; shift < 32; shift += 8 {
			c := byte(word >> shift)
			if c == 0 {
				return sb.String(), i + 1
			}
			sb.WriteByte(c)
		}
	}
	return sb.String(), len(w)
}
