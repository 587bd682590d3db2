// Package compiler lowers an ast.Program to a bytecode.Block per the
// lowering rules the engine's compiler documentation describes: one block
// per function (and one for the top-level program), instructions addressed
// by absolute index, jumps back-patched once their target is known.
package compiler

import (
	"fmt"

	"ember/ast"
	"ember/bytecode"
)

// loopContext tracks the patch lists a `while` loop needs: break jumps
// (target unknown until the loop ends) and the loop's test-start index
// (continue jumps straight there, no patching required).
type loopContext struct {
	breakPatches []int
	startIndex   int
}

// Compiler lowers one function body (or the top-level program) into a
// bytecode.Block.
type Compiler struct {
	block  *bytecode.Block
	loops  []loopContext
	errors []string
}

// Compile lowers prog into a top-level block named "<program>". The second
// return value is nil on success, or the accumulated compile errors.
func Compile(prog *ast.Program) (*bytecode.Block, []string) {
	c := &Compiler{block: bytecode.NewBlock("<program>")}
	for _, stmt := range prog.Body {
		c.compileStmt(stmt)
	}
	c.block.Emit(bytecode.OpHalt, 0, 0)
	if len(c.errors) > 0 {
		return nil, c.errors
	}
	return c.block, nil
}

// CompileFunction lowers a function literal's body into its own block,
// named after the function (or "<anonymous>"), with its parameter names
// recorded for the VM's call-time binding.
func CompileFunction(fn *ast.FunctionExpr) (*bytecode.Block, []string) {
	name := fn.Name
	if name == "" {
		name = "<anonymous>"
	}
	c := &Compiler{block: bytecode.NewBlock(name)}
	c.block.ParamCount = len(fn.Params)
	c.block.ParamNames = fn.Params
	for _, stmt := range fn.Body.Body {
		c.compileStmt(stmt)
	}
	// A function whose body falls off the end returns undefined.
	c.block.Emit(bytecode.OpPushUndefined, 0, 0)
	c.block.Emit(bytecode.OpReturn, 0, 0)
	if len(c.errors) > 0 {
		return nil, c.errors
	}
	return c.block, nil
}

func (c *Compiler) errorf(n ast.Node, format string, args ...any) {
	pos := n.Span().Start
	msg := fmt.Sprintf("line %d: %s", pos.Line, fmt.Sprintf(format, args...))
	c.errors = append(c.errors, msg)
}

func (c *Compiler) emit(op bytecode.Opcode, n ast.Node) int {
	pos := n.Span().Start
	return c.block.Emit(op, pos.Line, pos.Column)
}

func (c *Compiler) emitOperand(op bytecode.Opcode, operand int32, n ast.Node) int {
	pos := n.Span().Start
	return c.block.EmitOperand(op, operand, pos.Line, pos.Column)
}

func (c *Compiler) emitJump(op bytecode.Opcode, n ast.Node) int {
	pos := n.Span().Start
	return c.block.EmitJump(op, pos.Line, pos.Column)
}
