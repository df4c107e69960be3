package irtext

import (
	"strconv"
	"strings"

	"github.com/gogpu/shir/ir"
)

// Parse parses IR text into a module.
// The returned error is a *SourceError.
func Parse(source string) (*ir.Module, error) {
	tokens, err := NewLexer(source).Tokenize()
	if err != nil {
		return nil, err
	}
	p := NewParser(tokens, source)
	return p.Parse()
}

// Parser builds an ir.Module from tokens.
type Parser struct {
	tokens  []Token
	current int
	source  string

	module *ir.Module
	b      *ir.Builder

	globals map[string]ir.Value
	funcs   map[string]*ir.Function
	bodies  []pendingBody
	// textual parameter names, including anonymous ones
	paramNames map[*ir.Function][]string

	scopes   []map[string]ir.Value
	controls []ir.ControlInstruction
	fn       *ir.Function
}

// pendingBody is a function whose body is parsed after all headers are
// known, so that calls can refer to functions declared later.
type pendingBody struct {
	fn    *ir.Function
	start int // index of the opening brace
}

// NewParser creates a new parser for the given tokens. source is used for
// error context only.
func NewParser(tokens []Token, source string) *Parser {
	return &Parser{
		tokens:  tokens,
		source:  source,
		globals: make(map[string]ir.Value),
		funcs:   make(map[string]*ir.Function),

		paramNames: make(map[*ir.Function][]string),
	}
}

// Parse parses the tokens and returns the module.
func (p *Parser) Parse() (*ir.Module, error) {
	p.module = ir.NewModule()
	p.b = ir.NewBuilder(p.module)

	for !p.isAtEnd() {
		if err := p.declaration(); err != nil {
			return nil, err
		}
	}

	for _, body := range p.bodies {
		p.current = body.start
		if err := p.functionBody(body.fn); err != nil {
			return nil, err
		}
	}
	return p.module, nil
}

// declaration parses a top-level declaration.
func (p *Parser) declaration() error {
	switch tok := p.peek(); {
	case tok.Kind == TokenIdent && tok.Lexeme == "struct":
		return p.structDecl()
	case tok.Kind == TokenValue:
		p.b.SetBlock(p.module.Root)
		inst, err := p.resultInstruction()
		if err != nil {
			return err
		}
		if _, ok := inst.(*ir.Var); !ok {
			return p.errorAt(tok, "only var instructions may appear at module scope")
		}
		r := inst.Result()
		p.globals[strings.TrimPrefix(tok.Lexeme, "%")] = r
		return nil
	case tok.Kind == TokenAt || (tok.Kind == TokenIdent && tok.Lexeme == "func"):
		return p.functionDecl()
	default:
		return p.errorAt(tok, "unexpected token %q, expected declaration", tok.Lexeme)
	}
}

// structDecl parses: struct Name { member: type [bindings], ... }
func (p *Parser) structDecl() error {
	p.advance() // struct
	name, err := p.expect(TokenIdent, "struct name")
	if err != nil {
		return err
	}
	if _, exists := p.module.Types.Struct(name.Lexeme); exists {
		return p.errorAt(name, "struct %s redeclared", name.Lexeme)
	}
	if _, err := p.expect(TokenLeftBrace, "'{'"); err != nil {
		return err
	}

	var members []ir.StructMember
	for !p.check(TokenRightBrace) && !p.isAtEnd() {
		mname, err := p.expect(TokenIdent, "member name")
		if err != nil {
			return err
		}
		if _, err := p.expect(TokenColon, "':'"); err != nil {
			return err
		}
		t, err := p.parseType()
		if err != nil {
			return err
		}
		binding, err := p.ioBinding()
		if err != nil {
			return err
		}
		members = append(members, ir.StructMember{Name: mname.Lexeme, Type: t, Binding: binding})
		if !p.match(TokenComma) {
			break
		}
	}
	if _, err := p.expect(TokenRightBrace, "'}'"); err != nil {
		return err
	}
	p.module.Types.GetOrCreate(name.Lexeme, ir.StructType{Members: members})
	return nil
}

// functionDecl parses a function header and records its body for later.
func (p *Parser) functionDecl() error {
	stage := ir.StageNone
	var wgSize [3]uint32
	for p.check(TokenAt) {
		at := p.advance()
		attr, err := p.expect(TokenIdent, "attribute name")
		if err != nil {
			return err
		}
		switch attr.Lexeme {
		case "vertex", "fragment", "compute":
			stage, _ = ir.ParseShaderStage(attr.Lexeme)
		case "workgroup_size":
			args, err := p.attributeArgs()
			if err != nil {
				return err
			}
			if len(args) == 0 || len(args) > 3 {
				return p.errorAt(attr, "workgroup_size takes 1 to 3 arguments")
			}
			wgSize = [3]uint32{1, 1, 1}
			copy(wgSize[:], args)
		default:
			return p.errorAt(at, "unknown function attribute @%s", attr.Lexeme)
		}
	}

	if tok := p.peek(); tok.Kind != TokenIdent || tok.Lexeme != "func" {
		return p.errorAt(tok, "expected 'func'")
	}
	p.advance()
	nameTok, err := p.expect(TokenValue, "function name")
	if err != nil {
		return err
	}
	name := strings.TrimPrefix(nameTok.Lexeme, "%")
	if p.funcs[name] != nil {
		return p.errorAt(nameTok, "function %s redeclared", name)
	}

	fn := p.module.NewFunction(name, p.module.Types.Void())
	fn.Stage = stage
	fn.WorkgroupSize = wgSize
	p.funcs[name] = fn

	if _, err := p.expect(TokenLeftParen, "'('"); err != nil {
		return err
	}
	for !p.check(TokenRightParen) && !p.isAtEnd() {
		ptok, err := p.expect(TokenValue, "parameter name")
		if err != nil {
			return err
		}
		if _, err := p.expect(TokenColon, "':'"); err != nil {
			return err
		}
		t, err := p.parseType()
		if err != nil {
			return err
		}
		pname := strings.TrimPrefix(ptok.Lexeme, "%")
		for _, prev := range p.paramNames[fn] {
			if prev == pname {
				return p.errorAt(ptok, "duplicate parameter %s", ptok.Lexeme)
			}
		}
		p.paramNames[fn] = append(p.paramNames[fn], pname)
		param := fn.AddParam("", t)
		if !isAnonymous(pname) {
			param.SetName(pname)
		}
		if param.Binding, err = p.ioBinding(); err != nil {
			return err
		}
		if !p.match(TokenComma) {
			break
		}
	}
	if _, err := p.expect(TokenRightParen, "')'"); err != nil {
		return err
	}

	if p.match(TokenArrow) {
		if fn.ReturnType, err = p.parseType(); err != nil {
			return err
		}
		if fn.ReturnBinding, err = p.ioBinding(); err != nil {
			return err
		}
	}

	if !p.check(TokenLeftBrace) {
		return p.errorAt(p.peek(), "expected '{' to open function body")
	}
	p.bodies = append(p.bodies, pendingBody{fn: fn, start: p.current})
	return p.skipBraces()
}

// skipBraces skips a balanced brace group starting at the current token.
func (p *Parser) skipBraces() error {
	open := p.advance()
	depth := 1
	for depth > 0 {
		if p.isAtEnd() {
			return p.errorAt(open, "unterminated block")
		}
		switch p.advance().Kind {
		case TokenLeftBrace:
			depth++
		case TokenRightBrace:
			depth--
		}
	}
	return nil
}

func (p *Parser) functionBody(fn *ir.Function) error {
	p.fn = fn
	p.scopes = p.scopes[:0]
	p.controls = p.controls[:0]

	params := make(map[string]ir.Value, len(fn.Params))
	p.scopes = append(p.scopes, params)
	for i, param := range fn.Params {
		params[p.paramNames[fn][i]] = param
	}

	err := p.block(fn.Block)
	p.fn = nil
	return err
}

// block parses '{' instructions '}' into blk.
func (p *Parser) block(blk *ir.Block) error {
	if _, err := p.expect(TokenLeftBrace, "'{'"); err != nil {
		return err
	}
	p.scopes = append(p.scopes, make(map[string]ir.Value))
	defer func() { p.scopes = p.scopes[:len(p.scopes)-1] }()

	for !p.check(TokenRightBrace) {
		if p.isAtEnd() {
			return p.errorAt(p.peek(), "unexpected end of input, expected '}'")
		}
		p.b.SetBlock(blk)
		if err := p.instruction(); err != nil {
			return err
		}
	}
	p.advance() // }
	return nil
}

// instruction parses one instruction into the current block.
//
//nolint:gocyclo,cyclop // one case per statement keyword
func (p *Parser) instruction() error {
	tok := p.peek()
	if tok.Kind == TokenValue {
		_, err := p.resultInstruction()
		return err
	}
	if tok.Kind != TokenIdent {
		return p.errorAt(tok, "expected instruction, got %q", tok.Lexeme)
	}
	p.advance()

	switch tok.Lexeme {
	case "store":
		ptr, err := p.operand()
		if err != nil {
			return err
		}
		if _, err := p.expect(TokenComma, "','"); err != nil {
			return err
		}
		val, err := p.operand()
		if err != nil {
			return err
		}
		p.b.Store(ptr, val)

	case "phony":
		val, err := p.operand()
		if err != nil {
			return err
		}
		p.b.Phony(val)

	case "call":
		target, args, err := p.callOperands()
		if err != nil {
			return err
		}
		if !p.module.Types.IsVoid(target.ReturnType) {
			return p.errorAt(tok, "call to %s must bind its result", target.Name)
		}
		p.b.Call(target, args...)

	case "if":
		return p.ifInstruction()
	case "loop":
		return p.loopInstruction()
	case "switch":
		return p.switchInstruction()

	case "ret":
		var val ir.Value
		if p.sameLine(tok) {
			v, err := p.operand()
			if err != nil {
				return err
			}
			val = v
		}
		p.b.Return(p.fn, val)

	case "exit_if":
		target, ok := findControl[*ir.If](p.controls)
		if !ok {
			return p.errorAt(tok, "exit_if outside of if")
		}
		p.b.ExitIf(target)
	case "exit_loop":
		target, ok := findControl[*ir.Loop](p.controls)
		if !ok {
			return p.errorAt(tok, "exit_loop outside of loop")
		}
		p.b.ExitLoop(target)
	case "exit_switch":
		target, ok := findControl[*ir.Switch](p.controls)
		if !ok {
			return p.errorAt(tok, "exit_switch outside of switch")
		}
		p.b.ExitSwitch(target)
	case "continue":
		target, ok := findControl[*ir.Loop](p.controls)
		if !ok {
			return p.errorAt(tok, "continue outside of loop")
		}
		p.b.Continue(target)
	case "next_iteration":
		target, ok := findControl[*ir.Loop](p.controls)
		if !ok {
			return p.errorAt(tok, "next_iteration outside of loop")
		}
		p.b.NextIteration(target)
	case "break_if":
		target, ok := findControl[*ir.Loop](p.controls)
		if !ok {
			return p.errorAt(tok, "break_if outside of loop")
		}
		cond, err := p.operand()
		if err != nil {
			return err
		}
		p.b.BreakIf(target, cond)
	case "discard":
		p.b.Discard()
	case "unreachable":
		p.b.Unreachable()

	default:
		return p.errorAt(tok, "unknown instruction %q", tok.Lexeme)
	}
	return nil
}

// findControl returns the innermost control instruction of type T.
func findControl[T ir.ControlInstruction](controls []ir.ControlInstruction) (T, bool) {
	for i := len(controls) - 1; i >= 0; i-- {
		if c, ok := controls[i].(T); ok {
			return c, true
		}
	}
	var zero T
	return zero, false
}

func (p *Parser) ifInstruction() error {
	cond, err := p.operand()
	if err != nil {
		return err
	}
	outer := p.b.Block()
	inst := p.b.If(cond)
	p.controls = append(p.controls, inst)
	defer func() { p.controls = p.controls[:len(p.controls)-1] }()

	if err := p.block(inst.True); err != nil {
		return err
	}
	if next := p.peek(); next.Kind == TokenIdent && next.Lexeme == "else" {
		p.advance()
		if err := p.block(inst.False); err != nil {
			return err
		}
	} else {
		p.b.SetBlock(inst.False)
		p.b.ExitIf(inst)
	}
	p.b.SetBlock(outer)
	return nil
}

func (p *Parser) loopInstruction() error {
	outer := p.b.Block()
	inst := p.b.Loop()
	p.controls = append(p.controls, inst)
	defer func() { p.controls = p.controls[:len(p.controls)-1] }()

	if err := p.block(inst.Body); err != nil {
		return err
	}
	if next := p.peek(); next.Kind == TokenIdent && next.Lexeme == "continuing" {
		p.advance()
		if err := p.block(inst.Continuing); err != nil {
			return err
		}
	} else {
		p.b.SetBlock(inst.Continuing)
		p.b.NextIteration(inst)
	}
	p.b.SetBlock(outer)
	return nil
}

func (p *Parser) switchInstruction() error {
	sel, err := p.operand()
	if err != nil {
		return err
	}
	outer := p.b.Block()
	inst := p.b.Switch(sel)
	p.controls = append(p.controls, inst)
	defer func() { p.controls = p.controls[:len(p.controls)-1] }()

	if _, err := p.expect(TokenLeftBrace, "'{'"); err != nil {
		return err
	}
	for !p.check(TokenRightBrace) {
		label := p.peek()
		if label.Kind != TokenIdent {
			return p.errorAt(label, "expected 'case' or 'default'")
		}
		p.advance()
		var selectors []ir.CaseSelector
		switch label.Lexeme {
		case "default":
			selectors = append(selectors, ir.CaseSelector{Default: true})
		case "case":
			for {
				s, err := p.caseSelector()
				if err != nil {
					return err
				}
				selectors = append(selectors, s)
				if !p.match(TokenComma) {
					break
				}
			}
		default:
			return p.errorAt(label, "expected 'case' or 'default', got %q", label.Lexeme)
		}
		if err := p.block(inst.AddCase(selectors...)); err != nil {
			return err
		}
	}
	p.advance() // }
	p.b.SetBlock(outer)
	return nil
}

func (p *Parser) caseSelector() (ir.CaseSelector, error) {
	tok := p.peek()
	if tok.Kind == TokenIdent && tok.Lexeme == "default" {
		p.advance()
		return ir.CaseSelector{Default: true}, nil
	}
	if tok.Kind != TokenIntLiteral {
		return ir.CaseSelector{}, p.errorAt(tok, "expected case value")
	}
	c, err := p.literal()
	if err != nil {
		return ir.CaseSelector{}, err
	}
	v, _ := ir.ConstantIndex(c)
	return ir.CaseSelector{Value: v}, nil
}

// resultInstruction parses: %name: type = opcode operands
//
//nolint:gocyclo,cyclop // one case per opcode
func (p *Parser) resultInstruction() (ir.Instruction, error) {
	nameTok := p.advance()
	name := strings.TrimPrefix(nameTok.Lexeme, "%")
	if _, err := p.expect(TokenColon, "':'"); err != nil {
		return nil, err
	}
	t, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenEqual, "'='"); err != nil {
		return nil, err
	}
	opTok, err := p.expect(TokenIdent, "opcode")
	if err != nil {
		return nil, err
	}

	var inst ir.Instruction
	switch opTok.Lexeme {
	case "var":
		var init ir.Value
		if p.sameLine(opTok) && !p.check(TokenAt) {
			if init, err = p.operand(); err != nil {
				return nil, err
			}
		}
		v := p.b.Var(t, init)
		if p.sameLine(opTok) && p.check(TokenAt) {
			if v.Binding, err = p.resourceBinding(opTok); err != nil {
				return nil, err
			}
		}
		inst = v

	case "let", "load", "convert", "bitcast":
		val, err := p.operand()
		if err != nil {
			return nil, err
		}
		switch opTok.Lexeme {
		case "let":
			inst = p.b.Let(val)
		case "load":
			inst = p.b.Load(val)
		case "convert":
			inst = p.b.Convert(t, val)
		default:
			inst = p.b.Bitcast(t, val)
		}

	case "access":
		ops, err := p.operandList(opTok)
		if err != nil {
			return nil, err
		}
		if len(ops) == 0 {
			return nil, p.errorAt(opTok, "access requires an object")
		}
		inst = p.b.Access(t, ops[0], ops[1:]...)

	case "construct":
		ops, err := p.operandList(opTok)
		if err != nil {
			return nil, err
		}
		inst = p.b.Construct(t, ops...)

	case "swizzle":
		val, err := p.operand()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenComma, "','"); err != nil {
			return nil, err
		}
		comps, err := p.expect(TokenIdent, "swizzle components")
		if err != nil {
			return nil, err
		}
		indices := make([]uint32, 0, len(comps.Lexeme))
		for _, c := range comps.Lexeme {
			idx := strings.IndexRune(swizzleComponents, c)
			if idx < 0 {
				return nil, p.errorAt(comps, "invalid swizzle component %q", c)
			}
			indices = append(indices, uint32(idx%4))
		}
		inst = p.b.Swizzle(t, val, indices...)

	case "call":
		target, args, err := p.callOperands()
		if err != nil {
			return nil, err
		}
		if p.module.Types.IsVoid(target.ReturnType) {
			return nil, p.errorAt(opTok, "call to void function %s has no result", target.Name)
		}
		inst = p.b.Call(target, args...)

	default:
		if op, ok := ir.ParseBinaryOp(opTok.Lexeme); ok {
			ops, err := p.operandCount(opTok, 2)
			if err != nil {
				return nil, err
			}
			inst = p.b.Binary(op, t, ops[0], ops[1])
			break
		}
		if op, ok := ir.ParseUnaryOp(opTok.Lexeme); ok {
			ops, err := p.operandCount(opTok, 1)
			if err != nil {
				return nil, err
			}
			inst = p.b.Unary(op, t, ops[0])
			break
		}
		if fn, ok := ir.ParseBuiltinFunc(opTok.Lexeme); ok {
			ops, err := p.operandCount(opTok, fn.Arity())
			if err != nil {
				return nil, err
			}
			inst = p.b.CallBuiltin(fn, t, ops...)
			break
		}
		return nil, p.errorAt(opTok, "unknown opcode %q", opTok.Lexeme)
	}

	r := inst.Result()
	r.SetType(t)
	if !isAnonymous(name) {
		r.SetName(name)
	}
	if err := p.define(nameTok, name, r); err != nil {
		return nil, err
	}
	return inst, nil
}

// swizzleComponents lists the accepted component letters; rgba aliases xyzw.
const swizzleComponents = "xyzwrgba"

func (p *Parser) callOperands() (*ir.Function, []ir.Value, error) {
	tok, err := p.expect(TokenValue, "function name")
	if err != nil {
		return nil, nil, err
	}
	target := p.funcs[strings.TrimPrefix(tok.Lexeme, "%")]
	if target == nil {
		return nil, nil, p.errorAt(tok, "unknown function %s", tok.Lexeme)
	}
	var args []ir.Value
	for p.match(TokenComma) {
		arg, err := p.operand()
		if err != nil {
			return nil, nil, err
		}
		args = append(args, arg)
	}
	return target, args, nil
}

// operandList parses a comma-separated operand list on the opcode's line.
func (p *Parser) operandList(opTok Token) ([]ir.Value, error) {
	var ops []ir.Value
	if !p.sameLine(opTok) {
		return nil, nil
	}
	for {
		op, err := p.operand()
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
		if !p.match(TokenComma) {
			return ops, nil
		}
	}
}

func (p *Parser) operandCount(opTok Token, n int) ([]ir.Value, error) {
	ops, err := p.operandList(opTok)
	if err != nil {
		return nil, err
	}
	if len(ops) != n {
		return nil, p.errorAt(opTok, "%s takes %d operands, got %d", opTok.Lexeme, n, len(ops))
	}
	return ops, nil
}

// operand parses a value reference or a constant.
func (p *Parser) operand() (ir.Value, error) {
	tok := p.peek()
	switch tok.Kind {
	case TokenValue:
		p.advance()
		name := strings.TrimPrefix(tok.Lexeme, "%")
		if v := p.lookup(name); v != nil {
			return v, nil
		}
		return nil, p.errorAt(tok, "undefined value %s", tok.Lexeme)
	case TokenIntLiteral, TokenFloatLiteral:
		return p.literal()
	case TokenIdent:
		if tok.Lexeme == "true" || tok.Lexeme == "false" {
			p.advance()
			return p.module.ConstBool(tok.Lexeme == "true"), nil
		}
		return p.compositeConstant()
	}
	return nil, p.errorAt(tok, "expected operand, got %q", tok.Lexeme)
}

// compositeConstant parses: type '(' constants ')'
func (p *Parser) compositeConstant() (*ir.Constant, error) {
	start := p.peek()
	t, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenLeftParen, "'('"); err != nil {
		return nil, err
	}
	var comps []*ir.Constant
	for !p.check(TokenRightParen) && !p.isAtEnd() {
		op, err := p.operand()
		if err != nil {
			return nil, err
		}
		c, ok := op.(*ir.Constant)
		if !ok {
			return nil, p.errorAt(start, "composite constant components must be constants")
		}
		comps = append(comps, c)
		if !p.match(TokenComma) {
			break
		}
	}
	if _, err := p.expect(TokenRightParen, "')'"); err != nil {
		return nil, err
	}
	if len(comps) == 0 {
		return p.module.ConstZero(t), nil
	}
	return p.module.ConstComposite(t, comps...), nil
}

// literal parses a suffixed numeric literal.
func (p *Parser) literal() (*ir.Constant, error) {
	tok := p.advance()
	text := tok.Lexeme
	suffix := text[len(text)-1]

	if tok.Kind == TokenIntLiteral {
		digits := text[:len(text)-1]
		switch suffix {
		case 'i':
			v, err := strconv.ParseInt(digits, 10, 32)
			if err != nil {
				return nil, p.errorAt(tok, "invalid i32 literal %s", text)
			}
			return p.module.ConstI32(int32(v)), nil
		case 'u':
			v, err := strconv.ParseUint(digits, 10, 32)
			if err != nil {
				return nil, p.errorAt(tok, "invalid u32 literal %s", text)
			}
			return p.module.ConstU32(uint32(v)), nil
		}
		return nil, p.errorAt(tok, "integer literal %s needs an i or u suffix", text)
	}

	digits := text
	if suffix == 'f' || suffix == 'h' {
		digits = text[:len(text)-1]
	}
	v, err := strconv.ParseFloat(digits, 32)
	if err != nil {
		return nil, p.errorAt(tok, "invalid float literal %s", text)
	}
	if suffix == 'h' {
		return p.module.ConstF16(float32(v)), nil
	}
	return p.module.ConstF32(float32(v)), nil
}

// parseType parses a type expression.
//
//nolint:gocyclo,cyclop // one case per type constructor
func (p *Parser) parseType() (ir.TypeHandle, error) {
	types := p.module.Types
	tok, err := p.expect(TokenIdent, "type")
	if err != nil {
		return 0, err
	}
	name := tok.Lexeme

	if name == "void" {
		return types.Void(), nil
	}
	if s, ok := ir.ParseScalarName(name); ok {
		return types.Scalar(s), nil
	}

	switch {
	case name == "vec2" || name == "vec3" || name == "vec4":
		s, err := p.scalarParam()
		if err != nil {
			return 0, err
		}
		return types.Vector(ir.VectorSize(name[3]-'0'), s), nil

	case len(name) == 6 && strings.HasPrefix(name, "mat") && name[4] == 'x':
		cols, rows := name[3]-'0', name[5]-'0'
		if cols < 2 || cols > 4 || rows < 2 || rows > 4 {
			return 0, p.errorAt(tok, "invalid matrix type %s", name)
		}
		s, err := p.scalarParam()
		if err != nil {
			return 0, err
		}
		return types.GetOrCreate("", ir.MatrixType{Columns: ir.VectorSize(cols), Rows: ir.VectorSize(rows), Scalar: s}), nil

	case name == "array":
		if _, err := p.expect(TokenLess, "'<'"); err != nil {
			return 0, err
		}
		base, err := p.parseType()
		if err != nil {
			return 0, err
		}
		var size uint32
		if p.match(TokenComma) {
			n, err := p.expect(TokenIntLiteral, "array size")
			if err != nil {
				return 0, err
			}
			v, perr := strconv.ParseUint(strings.TrimRight(n.Lexeme, "iu"), 10, 32)
			if perr != nil || v == 0 {
				return 0, p.errorAt(n, "invalid array size %s", n.Lexeme)
			}
			size = uint32(v)
		}
		if _, err := p.expect(TokenGreater, "'>'"); err != nil {
			return 0, err
		}
		return types.Array(base, size), nil

	case name == "ptr":
		if _, err := p.expect(TokenLess, "'<'"); err != nil {
			return 0, err
		}
		spaceTok, err := p.expect(TokenIdent, "address space")
		if err != nil {
			return 0, err
		}
		space, ok := ir.ParseAddressSpace(spaceTok.Lexeme)
		if !ok {
			return 0, p.errorAt(spaceTok, "unknown address space %s", spaceTok.Lexeme)
		}
		if _, err := p.expect(TokenComma, "','"); err != nil {
			return 0, err
		}
		base, err := p.parseType()
		if err != nil {
			return 0, err
		}
		access := ir.AccessReadWrite
		if p.match(TokenComma) {
			accTok, err := p.expect(TokenIdent, "access mode")
			if err != nil {
				return 0, err
			}
			if access, ok = ir.ParseAccessMode(accTok.Lexeme); !ok {
				return 0, p.errorAt(accTok, "unknown access mode %s", accTok.Lexeme)
			}
		}
		if _, err := p.expect(TokenGreater, "'>'"); err != nil {
			return 0, err
		}
		return types.Pointer(space, base, access), nil
	}

	if h, ok := types.Struct(name); ok {
		return h, nil
	}
	return 0, p.errorAt(tok, "unknown type %s", name)
}

func (p *Parser) scalarParam() (ir.ScalarType, error) {
	if _, err := p.expect(TokenLess, "'<'"); err != nil {
		return ir.ScalarType{}, err
	}
	tok, err := p.expect(TokenIdent, "scalar type")
	if err != nil {
		return ir.ScalarType{}, err
	}
	s, ok := ir.ParseScalarName(tok.Lexeme)
	if !ok {
		return ir.ScalarType{}, p.errorAt(tok, "expected scalar type, got %s", tok.Lexeme)
	}
	if _, err := p.expect(TokenGreater, "'>'"); err != nil {
		return ir.ScalarType{}, err
	}
	return s, nil
}

// ioBinding parses optional @builtin/@location/@interpolate attributes.
func (p *Parser) ioBinding() (ir.Binding, error) {
	var binding ir.Binding
	for p.check(TokenAt) {
		p.advance()
		attr, err := p.expect(TokenIdent, "attribute name")
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenLeftParen, "'('"); err != nil {
			return nil, err
		}
		arg := p.advance()
		if _, err := p.expect(TokenRightParen, "')'"); err != nil {
			return nil, err
		}
		switch attr.Lexeme {
		case "builtin":
			b, ok := ir.ParseBuiltinValue(arg.Lexeme)
			if !ok {
				return nil, p.errorAt(arg, "unknown builtin %s", arg.Lexeme)
			}
			binding = ir.BuiltinBinding{Builtin: b}
		case "location":
			n, err := strconv.ParseUint(strings.TrimRight(arg.Lexeme, "iu"), 10, 32)
			if err != nil {
				return nil, p.errorAt(arg, "invalid location %s", arg.Lexeme)
			}
			binding = ir.LocationBinding{Location: uint32(n)}
		case "interpolate":
			loc, ok := binding.(ir.LocationBinding)
			if !ok || arg.Lexeme != "flat" {
				return nil, p.errorAt(attr, "@interpolate(flat) must follow @location")
			}
			loc.Flat = true
			binding = loc
		default:
			return nil, p.errorAt(attr, "unknown IO attribute @%s", attr.Lexeme)
		}
	}
	return binding, nil
}

// resourceBinding parses @group(g) @binding(b) on the line of op.
func (p *Parser) resourceBinding(op Token) (*ir.ResourceBinding, error) {
	rb := &ir.ResourceBinding{}
	seen := 0
	for p.sameLine(op) && p.check(TokenAt) {
		p.advance()
		attr, err := p.expect(TokenIdent, "attribute name")
		if err != nil {
			return nil, err
		}
		args, err := p.attributeArgs()
		if err != nil {
			return nil, err
		}
		if len(args) != 1 {
			return nil, p.errorAt(attr, "@%s takes one argument", attr.Lexeme)
		}
		switch attr.Lexeme {
		case "group":
			rb.Group = args[0]
		case "binding":
			rb.Binding = args[0]
		default:
			return nil, p.errorAt(attr, "unknown variable attribute @%s", attr.Lexeme)
		}
		seen++
	}
	if seen != 2 {
		return nil, p.errorAt(p.peek(), "resource variables need both @group and @binding")
	}
	return rb, nil
}

// attributeArgs parses '(' int, ... ')'.
func (p *Parser) attributeArgs() ([]uint32, error) {
	if _, err := p.expect(TokenLeftParen, "'('"); err != nil {
		return nil, err
	}
	var args []uint32
	for !p.check(TokenRightParen) && !p.isAtEnd() {
		tok, err := p.expect(TokenIntLiteral, "integer")
		if err != nil {
			return nil, err
		}
		v, perr := strconv.ParseUint(strings.TrimRight(tok.Lexeme, "iu"), 10, 32)
		if perr != nil {
			return nil, p.errorAt(tok, "invalid integer %s", tok.Lexeme)
		}
		args = append(args, uint32(v))
		if !p.match(TokenComma) {
			break
		}
	}
	if _, err := p.expect(TokenRightParen, "')'"); err != nil {
		return nil, err
	}
	return args, nil
}

// ---------------------------------------------------------------------------
// Scopes
// ---------------------------------------------------------------------------

func (p *Parser) define(tok Token, name string, v ir.Value) error {
	if len(p.scopes) == 0 {
		if _, dup := p.globals[name]; dup {
			return p.errorAt(tok, "redefinition of %s", tok.Lexeme)
		}
		return nil // module scope, recorded by the caller
	}
	scope := p.scopes[len(p.scopes)-1]
	if _, dup := scope[name]; dup {
		return p.errorAt(tok, "redefinition of %s", tok.Lexeme)
	}
	scope[name] = v
	return nil
}

func (p *Parser) lookup(name string) ir.Value {
	for i := len(p.scopes) - 1; i >= 0; i-- {
		if v, ok := p.scopes[i][name]; ok {
			return v
		}
	}
	return p.globals[name]
}

// isAnonymous reports whether a textual value name denotes an unnamed value.
func isAnonymous(name string) bool {
	for _, r := range name {
		if r < '0' || r > '9' {
			return false
		}
	}
	return name != ""
}

// ---------------------------------------------------------------------------
// Token helpers
// ---------------------------------------------------------------------------

func (p *Parser) peek() Token {
	return p.tokens[p.current]
}

func (p *Parser) advance() Token {
	tok := p.tokens[p.current]
	if !p.isAtEnd() {
		p.current++
	}
	return tok
}

func (p *Parser) check(kind TokenKind) bool {
	return p.peek().Kind == kind
}

func (p *Parser) match(kind TokenKind) bool {
	if p.check(kind) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) expect(kind TokenKind, what string) (Token, error) {
	if p.check(kind) {
		return p.advance(), nil
	}
	tok := p.peek()
	if tok.Kind == TokenEOF {
		return tok, p.errorAt(tok, "expected %s, got end of input", what)
	}
	return tok, p.errorAt(tok, "expected %s, got %q", what, tok.Lexeme)
}

// sameLine reports whether the next token is on the same line as tok.
func (p *Parser) sameLine(tok Token) bool {
	next := p.peek()
	return next.Kind != TokenEOF && next.Line == tok.Line
}

func (p *Parser) isAtEnd() bool {
	return p.peek().Kind == TokenEOF
}

func (p *Parser) errorAt(tok Token, format string, args ...any) *SourceError {
	return NewSourceErrorf(tok.span(), p.source, format, args...)
}
