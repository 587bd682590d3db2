package compiler

import (
	"ember/ast"
	"ember/bytecode"
	"ember/value"
)

func (c *Compiler) compileExpr(expr ast.Expr) {
	switch e := expr.(type) {
	case *ast.UndefinedLiteral:
		c.emit(bytecode.OpPushUndefined, e)
	case *ast.NullLiteral:
		c.emit(bytecode.OpPushNull, e)
	case *ast.BoolLiteral:
		if e.Value {
			c.emit(bytecode.OpPushTrue, e)
		} else {
			c.emit(bytecode.OpPushFalse, e)
		}
	case *ast.NumberLiteral:
		idx := c.block.AddConstant(value.NumberValue(e.Value))
		c.emitOperand(bytecode.OpLoadConst, idx, e)
	case *ast.StringLiteral:
		idx := c.block.AddConstant(value.StringValue(value.NewString(e.Value)))
		c.emitOperand(bytecode.OpLoadConst, idx, e)
	case *ast.Identifier:
		idx := c.block.AddString(e.Name)
		c.emitOperand(bytecode.OpLoadVar, idx, e)
	case *ast.ArrayLiteral:
		c.compileArrayLiteral(e)
	case *ast.ObjectLiteral:
		c.compileObjectLiteral(e)
	case *ast.FunctionExpr:
		c.compileFunctionExpr(e)
	case *ast.UnaryExpr:
		c.compileUnary(e)
	case *ast.BinaryExpr:
		c.compileBinary(e)
	case *ast.LogicalExpr:
		c.compileLogical(e)
	case *ast.AssignExpr:
		c.compileAssign(e)
	case *ast.CallExpr:
		c.compileCall(e)
	case *ast.NewExpr:
		c.compileNew(e)
	case *ast.InstanceofExpr:
		c.compileExpr(e.Left)
		c.compileExpr(e.Right)
		c.emit(bytecode.OpInstanceof, e)
	case *ast.MemberExpr:
		c.compileMemberLoad(e)
	default:
		c.errorf(expr, "compiler: unknown expression kind %T", expr)
	}
}

func (c *Compiler) compileArrayLiteral(e *ast.ArrayLiteral) {
	c.emitOperand(bytecode.OpNewArray, int32(len(e.Elements)), e)
	for _, el := range e.Elements {
		c.compileExpr(el)
		c.emit(bytecode.OpArrayPush, e)
	}
}

// compileObjectLiteral has no lowering rule of its own in the compiler
// documentation — object literals are built the same way a member
// assignment sets one property, reusing SET_PROP/SET_PROP_COMPUTED so the
// interpreter doesn't need a third property-writing path. Each property
// write leaves the object on the stack for the next one: DUP the object,
// compile the value, SWAP so the object ends on top (matching the
// [value, object(, key)] order SET_PROP expects), then POP the echoed-back
// value before moving to the next property.
func (c *Compiler) compileObjectLiteral(e *ast.ObjectLiteral) {
	c.emit(bytecode.OpNewObject, e)
	for _, prop := range e.Properties {
		c.emit(bytecode.OpDup, e)
		c.compileExpr(prop.Value)
		c.emit(bytecode.OpSwap, e)
		if prop.Computed != nil {
			c.compileExpr(prop.Computed)
			c.emit(bytecode.OpSetPropComputed, e)
		} else {
			idx := c.block.AddString(prop.Key)
			c.emitOperand(bytecode.OpSetProp, idx, e)
		}
		c.emit(bytecode.OpPop, e)
	}
}

// functionConstant wraps a compiled function body as a heap-shaped value
// sitting directly in the enclosing block's constant pool, the same way a
// string or number literal constant is built without going through a live
// heap. It stays alive for as long as the block that references it does;
// the VM never needs to GC a function template, only the call activity it
// produces.
func functionConstant(block *bytecode.Block) value.Value {
	return value.FunctionValue(value.NewBytecodeFunction(block.Name, block, block.ParamNames, nil))
}

func (c *Compiler) compileFunctionExpr(e *ast.FunctionExpr) {
	fnBlock, errs := CompileFunction(e)
	if len(errs) > 0 {
		c.errors = append(c.errors, errs...)
		return
	}
	idx := c.block.AddConstant(functionConstant(fnBlock))
	c.emitOperand(bytecode.OpLoadConst, idx, e)
}

var unaryOps = map[string]bytecode.Opcode{
	"-": bytecode.OpNeg, "+": bytecode.OpPlus, "!": bytecode.OpNot,
	"~": bytecode.OpBitNot, "typeof": bytecode.OpTypeof,
}

func (c *Compiler) compileUnary(e *ast.UnaryExpr) {
	if e.Operator == "void" {
		c.compileExpr(e.Argument)
		c.emit(bytecode.OpPop, e)
		c.emit(bytecode.OpPushUndefined, e)
		return
	}
	op, ok := unaryOps[e.Operator]
	if !ok {
		c.errorf(e, "compiler: unknown unary operator %q", e.Operator)
		return
	}
	c.compileExpr(e.Argument)
	c.emit(op, e)
}

var binaryOps = map[string]bytecode.Opcode{
	"+": bytecode.OpAdd, "-": bytecode.OpSub, "*": bytecode.OpMul,
	"/": bytecode.OpDiv, "%": bytecode.OpMod,
	"==": bytecode.OpEq, "!=": bytecode.OpNe,
	"<": bytecode.OpLt, "<=": bytecode.OpLe, ">": bytecode.OpGt, ">=": bytecode.OpGe,
	"&": bytecode.OpBitAnd, "|": bytecode.OpBitOr, "^": bytecode.OpBitXor,
	"<<": bytecode.OpShl, ">>": bytecode.OpShr,
}

func (c *Compiler) compileBinary(e *ast.BinaryExpr) {
	op, ok := binaryOps[e.Operator]
	if !ok {
		c.errorf(e, "compiler: unknown binary operator %q", e.Operator)
		return
	}
	c.compileExpr(e.Left)
	c.compileExpr(e.Right)
	c.emit(op, e)
}

// compileLogical lowers && and || as plain two-operand opcodes over both
// operands' to_boolean, not as short-circuiting jumps — the lowering
// table groups logical-and/or with the other eagerly-evaluated binary
// operators rather than giving them a jump-based rule the way `if` and
// `while` get.
func (c *Compiler) compileLogical(e *ast.LogicalExpr) {
	c.compileExpr(e.Left)
	c.compileExpr(e.Right)
	if e.Operator == "&&" {
		c.emit(bytecode.OpAnd, e)
	} else {
		c.emit(bytecode.OpOr, e)
	}
}

// compileAssign follows the lowering rule's literal order: compile the
// right-hand side first, then (for a member target) the object and,
// if computed, the property — leaving [value, object] or
// [value, object, key] for SET_PROP/SET_PROP_COMPUTED to consume.
func (c *Compiler) compileAssign(e *ast.AssignExpr) {
	c.compileExpr(e.Value)
	switch target := e.Target.(type) {
	case *ast.Identifier:
		idx := c.block.AddString(target.Name)
		c.emitOperand(bytecode.OpStoreVar, idx, e)
	case *ast.MemberExpr:
		c.compileExpr(target.Object)
		if target.Computed {
			c.compileExpr(target.Property)
			c.emit(bytecode.OpSetPropComputed, e)
		} else {
			idx := c.block.AddString(target.Property.(*ast.Identifier).Name)
			c.emitOperand(bytecode.OpSetProp, idx, e)
		}
	default:
		c.errorf(e, "compiler: invalid assignment target %T", e.Target)
	}
}

func (c *Compiler) compileMemberLoad(e *ast.MemberExpr) {
	c.compileExpr(e.Object)
	if e.Computed {
		c.compileExpr(e.Property)
		c.emit(bytecode.OpGetPropComputed, e)
	} else {
		idx := c.block.AddString(e.Property.(*ast.Identifier).Name)
		c.emitOperand(bytecode.OpGetProp, idx, e)
	}
}

func (c *Compiler) compileCall(e *ast.CallExpr) {
	c.compileExpr(e.Callee)
	for _, arg := range e.Args {
		c.compileExpr(arg)
	}
	c.emitOperand(bytecode.OpCall, int32(len(e.Args)), e)
}

func (c *Compiler) compileNew(e *ast.NewExpr) {
	c.compileExpr(e.Callee)
	for _, arg := range e.Args {
		c.compileExpr(arg)
	}
	c.emitOperand(bytecode.OpNew, int32(len(e.Args)), e)
}
