package bytecode

import "ember/value"

// Instruction is one bytecode instruction: an opcode and its operand(s).
// Operand2 is only meaningful for OpTryBegin (the finally target); every
// other opcode leaves it zero.
type Instruction struct {
	Op       Opcode
	Operand  int32
	Operand2 int32
	Line     int
	Col      int
}

// Block is a bytecode block: an instruction sequence plus its append-only
// constant and string pools, debug positions, and the metadata a call
// frame needs (parameter count, local count).
type Block struct {
	Name          string
	Instructions  []Instruction
	Constants     []value.Value
	Strings       []string
	ParamCount    int
	ParamNames    []string
	LocalCount    int
	Flags         BlockFlags
}

// BlockFlags are compilation flags carried on a Block.
type BlockFlags uint8

const (
	FlagHasDebugInfo BlockFlags = 1 << 0
)

// NewBlock creates an empty block ready for the compiler to emit into.
func NewBlock(name string) *Block {
	return &Block{
		Name:         name,
		Instructions: make([]Instruction, 0, 32),
	}
}

// AddConstant appends v to the constant pool and returns its index. The
// constant pool does not deduplicate (values are compared by tag+payload,
// and most constants here are numbers/booleans where dedup offers little);
// the string pool below does deduplicate, per spec.md §4.3.
func (b *Block) AddConstant(v value.Value) int32 {
	b.Constants = append(b.Constants, v)
	return int32(len(b.Constants) - 1)
}

// AddString deduplicates s by linear scan and returns the index of the
// first match, appending a new entry only on a miss.
func (b *Block) AddString(s string) int32 {
	for i, existing := range b.Strings {
		if existing == s {
			return int32(i)
		}
	}
	b.Strings = append(b.Strings, s)
	return int32(len(b.Strings) - 1)
}

// Emit appends an instruction with no meaningful operand and returns its
// index.
func (b *Block) Emit(op Opcode, line, col int) int {
	return b.EmitOperand(op, 0, line, col)
}

// EmitOperand appends an instruction carrying operand and returns its
// index.
func (b *Block) EmitOperand(op Opcode, operand int32, line, col int) int {
	idx := len(b.Instructions)
	b.Instructions = append(b.Instructions, Instruction{Op: op, Operand: operand, Line: line, Col: col})
	return idx
}

// EmitJump appends a jump instruction with a placeholder operand and
// returns its index, to be patched later by PatchJump.
func (b *Block) EmitJump(op Opcode, line, col int) int {
	return b.EmitOperand(op, -1, line, col)
}

// PatchJump replaces the operand at instrIdx with the current instruction
// count — the jump target is this absolute instruction index.
func (b *Block) PatchJump(instrIdx int) {
	b.Instructions[instrIdx].Operand = int32(len(b.Instructions))
}

// PatchJumpTo replaces the operand at instrIdx with an explicit absolute
// target, used by `while`'s backward jump to the loop start.
func (b *Block) PatchJumpTo(instrIdx int, target int) {
	b.Instructions[instrIdx].Operand = int32(target)
}

// Len returns the number of instructions currently in the block.
func (b *Block) Len() int { return len(b.Instructions) }

// TraceConstants enqueues every heap-refed value in the constant pool, so
// the collector can trace a bytecode function's captured constants. This
// satisfies the interface value.Function.Trace probes for via a type
// assertion, keeping the value package free of a bytecode dependency.
func (b *Block) TraceConstants(enqueue func(value.Value)) {
	for _, c := range b.Constants {
		if c.IsHeapRef() {
			enqueue(c)
		}
	}
}
