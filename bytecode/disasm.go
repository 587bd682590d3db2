package bytecode

import (
	"fmt"
	"io"

	"ember/value"
)

// Disassemble writes a human-readable listing of b to w, one line per
// instruction, resolving LOAD_CONST/LOAD_VAR/GET_PROP/SET_PROP operands
// against the block's pools the way a debugger would.
func Disassemble(w io.Writer, b *Block) {
	fmt.Fprintf(w, "== %s (params=%d locals=%d) ==\n", b.Name, b.ParamCount, b.LocalCount)
	for i, instr := range b.Instructions {
		fmt.Fprintf(w, "%04d  %-18s", i, instr.Op)
		switch instr.Op {
		case OpLoadConst:
			fmt.Fprintf(w, "%d  ; %s", instr.Operand, describeConstant(b, instr.Operand))
		case OpLoadVar, OpStoreVar, OpGetProp, OpSetProp:
			fmt.Fprintf(w, "%d  ; %q", instr.Operand, describeString(b, instr.Operand))
		case OpJump, OpJumpIfTrue, OpJumpIfFalse:
			fmt.Fprintf(w, "-> %04d", instr.Operand)
		case OpTryBegin:
			fmt.Fprintf(w, "catch=%d finally=%d", instr.Operand, instr.Operand2)
		case OpCall, OpNew, OpNewArray:
			fmt.Fprintf(w, "%d", instr.Operand)
		}
		fmt.Fprintln(w)
	}
}

func describeConstant(b *Block, idx int32) string {
	if idx < 0 || int(idx) >= len(b.Constants) {
		return "<out of range>"
	}
	return value.ToString(b.Constants[idx])
}

func describeString(b *Block, idx int32) string {
	if idx < 0 || int(idx) >= len(b.Strings) {
		return "<out of range>"
	}
	return b.Strings[idx]
}
