package compiler

import (
	"ember/ast"
	"ember/bytecode"
)

func (c *Compiler) compileStmt(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.ExprStmt:
		c.compileExpr(s.Expression)
		c.emit(bytecode.OpPop, s)
	case *ast.VarDeclStmt:
		c.compileVarDecl(s)
	case *ast.FunctionDeclStmt:
		c.compileFunctionDecl(s)
	case *ast.IfStmt:
		c.compileIf(s)
	case *ast.WhileStmt:
		c.compileWhile(s)
	case *ast.ReturnStmt:
		c.compileReturn(s)
	case *ast.BreakStmt:
		c.compileBreak(s)
	case *ast.ContinueStmt:
		c.compileContinue(s)
	case *ast.ThrowStmt:
		c.compileExpr(s.Argument)
		c.emit(bytecode.OpThrow, s)
	case *ast.TryStmt:
		c.compileTry(s)
	case *ast.BlockStmt:
		for _, inner := range s.Body {
			c.compileStmt(inner)
		}
	default:
		c.errorf(stmt, "compiler: unknown statement kind %T", stmt)
	}
}

// compileVarDecl compiles each declarator's initializer then STORE_VAR.
// STORE_VAR echoes the stored value back (so it also works as an
// assignment expression's result) — since a declaration is a statement,
// not an expression, its echoed value needs its own POP here rather than
// relying on ExprStmt's.
func (c *Compiler) compileVarDecl(s *ast.VarDeclStmt) {
	for _, decl := range s.Declarations {
		if decl.Init != nil {
			c.compileExpr(decl.Init)
		} else {
			c.emit(bytecode.OpPushUndefined, s)
		}
		idx := c.block.AddString(decl.Name)
		c.emitOperand(bytecode.OpStoreVar, idx, s)
		c.emit(bytecode.OpPop, s)
	}
}

func (c *Compiler) compileFunctionDecl(s *ast.FunctionDeclStmt) {
	fnBlock, errs := CompileFunction(s.Fn)
	if len(errs) > 0 {
		c.errors = append(c.errors, errs...)
		return
	}
	cidx := c.block.AddConstant(functionConstant(fnBlock))
	c.emitOperand(bytecode.OpLoadConst, cidx, s)
	nameIdx := c.block.AddString(s.Fn.Name)
	c.emitOperand(bytecode.OpStoreVar, nameIdx, s)
	c.emit(bytecode.OpPop, s)
}

func (c *Compiler) compileIf(s *ast.IfStmt) {
	c.compileExpr(s.Test)
	elseJump := c.emitJump(bytecode.OpJumpIfFalse, s)
	c.compileStmt(s.Consequent)
	if s.Alternate != nil {
		endJump := c.emitJump(bytecode.OpJump, s)
		c.block.PatchJump(elseJump)
		c.compileStmt(s.Alternate)
		c.block.PatchJump(endJump)
	} else {
		c.block.PatchJump(elseJump)
	}
}

func (c *Compiler) compileWhile(s *ast.WhileStmt) {
	start := c.block.Len()
	c.compileExpr(s.Test)
	exitJump := c.emitJump(bytecode.OpJumpIfFalse, s)

	c.loops = append(c.loops, loopContext{startIndex: start})
	c.compileStmt(s.Body)
	loop := c.loops[len(c.loops)-1]
	c.loops = c.loops[:len(c.loops)-1]

	backJump := c.emitJump(bytecode.OpJump, s)
	c.block.PatchJumpTo(backJump, start)
	c.block.PatchJump(exitJump)
	for _, p := range loop.breakPatches {
		c.block.PatchJump(p)
	}
}

func (c *Compiler) compileReturn(s *ast.ReturnStmt) {
	if s.Argument != nil {
		c.compileExpr(s.Argument)
	} else {
		c.emit(bytecode.OpPushUndefined, s)
	}
	c.emit(bytecode.OpReturn, s)
}

func (c *Compiler) compileBreak(s *ast.BreakStmt) {
	if len(c.loops) == 0 {
		c.errorf(s, "break outside of a loop")
		return
	}
	jmp := c.emitJump(bytecode.OpJump, s)
	top := len(c.loops) - 1
	c.loops[top].breakPatches = append(c.loops[top].breakPatches, jmp)
}

func (c *Compiler) compileContinue(s *ast.ContinueStmt) {
	if len(c.loops) == 0 {
		c.errorf(s, "continue outside of a loop")
		return
	}
	start := c.loops[len(c.loops)-1].startIndex
	jmp := c.emitJump(bytecode.OpJump, s)
	c.block.PatchJumpTo(jmp, start)
}

// compileTry lowers a try/catch/finally statement using the handler-stack
// opcodes: TRY_BEGIN carries both the catch target (Operand) and the
// finally target (Operand2), either -1 when absent. Normal completion of
// the try-block or the catch-handler both fall through the finally block
// (if present) before reaching the code after the whole statement —
// FINALLY_END decides at runtime whether to re-throw (entered via an
// unwind) or continue (entered via normal completion).
func (c *Compiler) compileTry(s *ast.TryStmt) {
	tryBegin := c.emitJump(bytecode.OpTryBegin, s)
	for _, inner := range s.Block.Body {
		c.compileStmt(inner)
	}
	c.emit(bytecode.OpTryEnd, s)
	afterTryJump := c.emitJump(bytecode.OpJump, s)

	catchTarget := int32(-1)
	afterCatchJump := -1
	if s.HasCatch {
		catchTarget = int32(c.block.Len())
		if s.CatchParam != "" {
			idx := c.block.AddString(s.CatchParam)
			c.emitOperand(bytecode.OpStoreVar, idx, s)
			c.emit(bytecode.OpPop, s)
		} else {
			c.emit(bytecode.OpPop, s)
		}
		for _, inner := range s.Handler.Body {
			c.compileStmt(inner)
		}
		c.emit(bytecode.OpCatchEnd, s)
		afterCatchJump = c.emitJump(bytecode.OpJump, s)
	}

	finallyTarget := int32(-1)
	if s.Finalizer != nil {
		finallyTarget = int32(c.block.Len())
		c.block.PatchJumpTo(afterTryJump, int(finallyTarget))
		if afterCatchJump >= 0 {
			c.block.PatchJumpTo(afterCatchJump, int(finallyTarget))
		}
		for _, inner := range s.Finalizer.Body {
			c.compileStmt(inner)
		}
		c.emit(bytecode.OpFinallyEnd, s)
	} else {
		c.block.PatchJump(afterTryJump)
		if afterCatchJump >= 0 {
			c.block.PatchJump(afterCatchJump)
		}
	}

	c.block.Instructions[tryBegin].Operand = catchTarget
	c.block.Instructions[tryBegin].Operand2 = finallyTarget
}
