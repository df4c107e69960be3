package spirv

import (
	"encoding/binary"
)

// Instruction represents a SPIR-V instruction.
type Instruction struct {
	Opcode OpCode
	Words  []uint32 // result type ID, result ID, operands
}

// NewInstruction returns an instruction with the given operand words.
func NewInstruction(opcode OpCode, words ...uint32) Instruction {
	return Instruction{Opcode: opcode, Words: words}
}

// Encode encodes the instruction to binary words.
func (i Instruction) Encode() []uint32 {
	wordCount := uint32(len(i.Words) + 1) //nolint:gosec // G115: instructions are far below 2^16 words
	result := make([]uint32, 0, wordCount)
	result = append(result, wordCount<<16|uint32(i.Opcode))
	return append(result, i.Words...)
}

// InstructionBuilder builds SPIR-V instructions.
type InstructionBuilder struct {
	words []uint32
}

// NewInstructionBuilder creates a new instruction builder.
func NewInstructionBuilder() *InstructionBuilder {
	return &InstructionBuilder{words: make([]uint32, 0, 8)}
}

// AddWord adds a word to the instruction.
func (b *InstructionBuilder) AddWord(words ...uint32) {
	b.words = append(b.words, words...)
}

// AddString adds a null-terminated UTF-8 string padded to a word boundary.
func (b *InstructionBuilder) AddString(s string) {
	b.words = append(b.words, encodeString(s)...)
}

// Build builds the instruction with the given opcode.
func (b *InstructionBuilder) Build(opcode OpCode) Instruction {
	return Instruction{Opcode: opcode, Words: b.words}
}

func encodeString(s string) []uint32 {
	n := len(s)/4 + 1
	words := make([]uint32, n)
	for i := 0; i < len(s); i++ {
		words[i/4] |= uint32(s[i]) << (8 * (i % 4))
	}
	return words
}

// Function is a function definition under construction. Variables are
// placed at the start of the entry block, as SPIR-V requires.
type Function struct {
	Definition Instruction
	Params     []Instruction
	Variables  []Instruction
	// Body starts with the entry block's OpLabel.
	Body []Instruction
}

// Emit appends an instruction to the function body.
func (f *Function) Emit(opcode OpCode, words ...uint32) {
	f.Body = append(f.Body, NewInstruction(opcode, words...))
}

// ModuleBuilder builds complete SPIR-V modules.
type ModuleBuilder struct {
	version   Version
	generator uint32

	// Sections in the order the binary lays them out.
	capabilities   []Instruction
	extensions     []Instruction
	extInstImports []Instruction
	memoryModel    *Instruction
	entryPoints    []Instruction
	executionModes []Instruction
	debugNames     []Instruction // OpName, OpMemberName
	annotations    []Instruction // OpDecorate, OpMemberDecorate
	types          []Instruction // OpType*, OpConstant*
	globalVars     []Instruction // OpVariable (global)
	functions      []Instruction // OpFunction...OpFunctionEnd

	declared []Capability
	seenCaps map[Capability]bool
	seenExts map[string]bool
	nextID   uint32
}

// NewModuleBuilder creates a new SPIR-V module builder.
func NewModuleBuilder(version Version) *ModuleBuilder {
	return &ModuleBuilder{
		version:   version,
		generator: GeneratorID,
		seenCaps:  make(map[Capability]bool),
		seenExts:  make(map[string]bool),
		nextID:    1,
	}
}

// AllocID allocates a new SPIR-V ID.
func (b *ModuleBuilder) AllocID() uint32 {
	id := b.nextID
	b.nextID++
	return id
}

// Bound returns the current id bound.
func (b *ModuleBuilder) Bound() uint32 { return b.nextID }

// AddCapability declares a capability once.
func (b *ModuleBuilder) AddCapability(capability Capability) {
	if b.seenCaps[capability] {
		return
	}
	b.seenCaps[capability] = true
	b.declared = append(b.declared, capability)
	b.capabilities = append(b.capabilities, NewInstruction(OpCapability, uint32(capability)))
}

// Capabilities returns the declared capabilities in declaration order.
func (b *ModuleBuilder) Capabilities() []Capability { return b.declared }

// AddExtension declares an extension once.
func (b *ModuleBuilder) AddExtension(name string) {
	if b.seenExts[name] {
		return
	}
	b.seenExts[name] = true
	b.extensions = append(b.extensions, NewInstruction(OpExtension, encodeString(name)...))
}

// AddExtInstImport imports an extended instruction set.
func (b *ModuleBuilder) AddExtInstImport(name string) uint32 {
	id := b.AllocID()
	b.extInstImports = append(b.extInstImports, NewInstruction(OpExtInstImport, append([]uint32{id}, encodeString(name)...)...))
	return id
}

// SetMemoryModel sets the addressing and memory model.
func (b *ModuleBuilder) SetMemoryModel(addressing AddressingModel, memory MemoryModel) {
	inst := NewInstruction(OpMemoryModel, uint32(addressing), uint32(memory))
	b.memoryModel = &inst
}

// AddEntryPoint declares an entry point.
func (b *ModuleBuilder) AddEntryPoint(execModel ExecutionModel, funcID uint32, name string, interfaces []uint32) {
	builder := NewInstructionBuilder()
	builder.AddWord(uint32(execModel), funcID)
	builder.AddString(name)
	builder.AddWord(interfaces...)
	b.entryPoints = append(b.entryPoints, builder.Build(OpEntryPoint))
}

// AddExecutionMode adds an execution mode to an entry point.
func (b *ModuleBuilder) AddExecutionMode(entryPoint uint32, mode ExecutionMode, params ...uint32) {
	b.executionModes = append(b.executionModes, NewInstruction(OpExecutionMode, append([]uint32{entryPoint, uint32(mode)}, params...)...))
}

// AddName adds a debug name.
func (b *ModuleBuilder) AddName(id uint32, name string) {
	b.debugNames = append(b.debugNames, NewInstruction(OpName, append([]uint32{id}, encodeString(name)...)...))
}

// AddMemberName adds a debug name for a struct member.
func (b *ModuleBuilder) AddMemberName(structID, member uint32, name string) {
	b.debugNames = append(b.debugNames, NewInstruction(OpMemberName, append([]uint32{structID, member}, encodeString(name)...)...))
}

// AddDecorate adds a decoration.
func (b *ModuleBuilder) AddDecorate(id uint32, decoration Decoration, params ...uint32) {
	b.annotations = append(b.annotations, NewInstruction(OpDecorate, append([]uint32{id, uint32(decoration)}, params...)...))
}

// AddMemberDecorate adds a struct member decoration.
func (b *ModuleBuilder) AddMemberDecorate(structID, member uint32, decoration Decoration, params ...uint32) {
	b.annotations = append(b.annotations, NewInstruction(OpMemberDecorate, append([]uint32{structID, member, uint32(decoration)}, params...)...))
}

// AddType adds a type declaration and returns its id. operands follow the
// result id.
func (b *ModuleBuilder) AddType(opcode OpCode, operands ...uint32) uint32 {
	id := b.AllocID()
	b.types = append(b.types, NewInstruction(opcode, append([]uint32{id}, operands...)...))
	return id
}

// AddConstant adds a constant-declaring instruction (OpConstant,
// OpConstantComposite, OpConstantNull, OpConstantTrue/False).
func (b *ModuleBuilder) AddConstant(opcode OpCode, typeID uint32, operands ...uint32) uint32 {
	id := b.AllocID()
	b.types = append(b.types, NewInstruction(opcode, append([]uint32{typeID, id}, operands...)...))
	return id
}

// AddVariable adds a module-scope variable. initID is 0 for none.
func (b *ModuleBuilder) AddVariable(pointerType uint32, storageClass StorageClass, initID uint32) uint32 {
	id := b.AllocID()
	words := []uint32{pointerType, id, uint32(storageClass)}
	if initID != 0 {
		words = append(words, initID)
	}
	b.globalVars = append(b.globalVars, NewInstruction(OpVariable, words...))
	return id
}

// AddFunction appends a finished function definition.
func (b *ModuleBuilder) AddFunction(f *Function) {
	b.functions = append(b.functions, f.Definition)
	b.functions = append(b.functions, f.Params...)
	if len(f.Body) > 0 {
		b.functions = append(b.functions, f.Body[0])
		b.functions = append(b.functions, f.Variables...)
		b.functions = append(b.functions, f.Body[1:]...)
	}
	b.functions = append(b.functions, NewInstruction(OpFunctionEnd))
}

// Build generates the final SPIR-V binary.
func (b *ModuleBuilder) Build() []byte {
	sections := [][]Instruction{
		b.capabilities,
		b.extensions,
		b.extInstImports,
	}
	if b.memoryModel != nil {
		sections = append(sections, []Instruction{*b.memoryModel})
	}
	sections = append(sections,
		b.entryPoints,
		b.executionModes,
		b.debugNames,
		b.annotations,
		b.types,
		b.globalVars,
		b.functions,
	)

	totalWords := 5
	for _, s := range sections {
		totalWords += countWords(s)
	}
	buffer := make([]byte, totalWords*4)

	header := [5]uint32{MagicNumber, b.version.word(), b.generator, b.nextID, 0}
	offset := 0
	for _, w := range header {
		binary.LittleEndian.PutUint32(buffer[offset:], w)
		offset += 4
	}
	for _, s := range sections {
		offset = writeInstructions(buffer, offset, s)
	}
	return buffer
}

// countWords counts total words in instructions.
func countWords(instructions []Instruction) int {
	count := 0
	for _, inst := range instructions {
		count += len(inst.Words) + 1
	}
	return count
}

// writeInstructions writes instructions to buffer.
func writeInstructions(buffer []byte, offset int, instructions []Instruction) int {
	for _, inst := range instructions {
		for _, word := range inst.Encode() {
			binary.LittleEndian.PutUint32(buffer[offset:], word)
			offset += 4
		}
	}
	return offset
}
