package vm

import (
	"ember/bytecode"
	"ember/value"
)

// State is the VM's lifecycle state, per spec.md §4.5's State section.
type State uint8

const (
	StateReady State = iota
	StateRunning
	StateError
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateRunning:
		return "running"
	default:
		return "error"
	}
}

const (
	maxStack    = 1024
	maxFrames   = 256
	maxHandlers = 64
)

// frame is one call-frame stack entry: a bytecode reference, program
// counter, locals-base into the operand stack, and this-value, per
// spec.md §4.5's State section. Ember has no separate local-variable
// storage — LOAD_VAR/STORE_VAR always target the context's global
// object — so `base` exists only to know where to truncate the operand
// stack back to on RETURN or on an exception unwind past this frame.
type frame struct {
	block       *bytecode.Block
	pc          int
	base        int
	this        value.Value
	isConstruct bool
}

// handler is one exception-handler stack entry, per spec.md §4.5's State
// section: a try-range (implicit — it's whatever ran between TRY_BEGIN
// and the throw), a catch offset, and a finally offset, either -1 when
// absent. frameIndex pins the handler to the call frame that installed
// it, so an exception thrown from a deeper call first unwinds the
// intervening frames.
type handler struct {
	frameIndex int
	catchPC    int32
	finallyPC  int32
	stackBase  int
}

// VM is Ember's single-threaded bytecode interpreter: one operand stack,
// one call-frame stack, one exception-handler stack, dispatching one
// instruction at a time from the top frame until it (and every frame
// below it) returns, per spec.md §4.5's Dispatch rule.
type VM struct {
	ctx *Context

	stack    []value.Value
	frames   []frame
	handlers []handler

	state State
	err   *ScriptError

	pendingException value.Value
	hasPending        bool
}

func newVM(ctx *Context) *VM {
	return &VM{
		ctx:    ctx,
		stack:  make([]value.Value, 0, maxStack),
		frames: make([]frame, 0, maxFrames),
		state:  StateReady,
	}
}

// Run executes block as a fresh outermost frame and returns its final
// value, or the fault that stopped the VM.
func (v *VM) Run(block *bytecode.Block) (value.Value, error) {
	v.frames = append(v.frames, frame{block: block, pc: 0, base: 0, this: value.UndefinedValue()})
	v.state = StateRunning
	v.err = nil

	result := value.UndefinedValue()
	for v.state == StateRunning {
		done, val, err := v.step()
		if err != nil {
			v.state = StateError
			v.err = err
			return value.UndefinedValue(), err
		}
		if done {
			result = val
			break
		}
	}
	v.state = StateReady
	v.frames = v.frames[:0]
	v.stack = v.stack[:0]
	v.handlers = v.handlers[:0]
	return result, nil
}

func (v *VM) push(val value.Value) *ScriptError {
	if len(v.stack) >= maxStack {
		return newError(ErrRuntime, "operand stack exceeded %d entries", maxStack)
	}
	v.stack = append(v.stack, val)
	return nil
}

func (v *VM) pop() value.Value {
	n := len(v.stack) - 1
	val := v.stack[n]
	v.stack = v.stack[:n]
	return val
}

func (v *VM) peek() value.Value {
	return v.stack[len(v.stack)-1]
}

func (v *VM) currentFrame() *frame {
	return &v.frames[len(v.frames)-1]
}

// step executes one instruction from the current frame. It returns
// done=true with the VM's final result once the outermost frame exits.
func (v *VM) step() (done bool, result value.Value, err *ScriptError) {
	f := v.currentFrame()
	if f.pc >= len(f.block.Instructions) {
		// A frame whose pc runs off the end is popped silently, per
		// spec.md §4.5's Dispatch rule.
		return v.popFrame(value.UndefinedValue())
	}

	instr := f.block.Instructions[f.pc]
	f.pc++

	switch instr.Op {
	case bytecode.OpPop:
		// The program's last statement keeps its value on the stack so
		// HALT can return it as the program's result.
		if f.pc < len(f.block.Instructions) && f.block.Instructions[f.pc].Op == bytecode.OpHalt {
			break
		}
		v.pop()
	case bytecode.OpDup:
		if err := v.push(v.peek()); err != nil {
			return false, value.Value{}, err
		}
	case bytecode.OpSwap:
		n := len(v.stack)
		if n < 2 {
			return false, value.Value{}, newError(ErrRuntime, "SWAP on a stack shorter than 2")
		}
		v.stack[n-1], v.stack[n-2] = v.stack[n-2], v.stack[n-1]
	case bytecode.OpPushUndefined:
		err = v.push(value.UndefinedValue())
	case bytecode.OpPushNull:
		err = v.push(value.NullValue())
	case bytecode.OpPushTrue:
		err = v.push(value.BoolValue(true))
	case bytecode.OpPushFalse:
		err = v.push(value.BoolValue(false))
	case bytecode.OpLoadConst:
		err = v.push(f.block.Constants[instr.Operand])
	case bytecode.OpLoadVar:
		name := f.block.Strings[instr.Operand]
		val, _ := v.ctx.Global.GetChain(name)
		err = v.push(val)
	case bytecode.OpStoreVar:
		name := f.block.Strings[instr.Operand]
		val := v.pop()
		v.ctx.Global.Set(v.ctx.Runtime.Heap.Strings().Intern(name), val)
		err = v.push(val)

	case bytecode.OpAdd, bytecode.OpSub, bytecode.OpMul, bytecode.OpDiv, bytecode.OpMod:
		err = v.execArith(instr.Op)
	case bytecode.OpNeg:
		err = v.push(value.NumberValue(-value.ToNumber(v.pop())))
	case bytecode.OpPlus:
		err = v.push(value.NumberValue(value.ToNumber(v.pop())))

	case bytecode.OpEq, bytecode.OpNe, bytecode.OpLt, bytecode.OpLe, bytecode.OpGt, bytecode.OpGe:
		err = v.execCompare(instr.Op)

	case bytecode.OpAnd:
		b := v.pop()
		a := v.pop()
		err = v.push(value.BoolValue(value.ToBoolean(a) && value.ToBoolean(b)))
	case bytecode.OpOr:
		b := v.pop()
		a := v.pop()
		err = v.push(value.BoolValue(value.ToBoolean(a) || value.ToBoolean(b)))
	case bytecode.OpNot:
		err = v.push(value.BoolValue(!value.ToBoolean(v.pop())))

	case bytecode.OpBitAnd, bytecode.OpBitOr, bytecode.OpBitXor, bytecode.OpShl, bytecode.OpShr:
		err = v.execBitwise(instr.Op)
	case bytecode.OpBitNot:
		err = v.push(value.NumberValue(float64(^value.ToInt32(v.pop()))))

	case bytecode.OpNewObject:
		obj, allocErr := v.ctx.Runtime.Heap.AllocObject(nil)
		if allocErr != nil {
			return false, value.Value{}, newError(ErrMemory, "%s", allocErr)
		}
		err = v.push(value.ObjectValue(obj))
	case bytecode.OpGetProp:
		name := f.block.Strings[instr.Operand]
		err = v.push(v.getProp(v.pop(), name))
	case bytecode.OpSetProp:
		name := f.block.Strings[instr.Operand]
		obj := v.pop()
		val := v.pop()
		v.setProp(obj, name, val)
		err = v.push(val)
	case bytecode.OpGetPropComputed:
		key := v.pop()
		obj := v.pop()
		err = v.push(v.getProp(obj, value.ToString(key)))
	case bytecode.OpSetPropComputed:
		key := v.pop()
		obj := v.pop()
		val := v.pop()
		v.setProp(obj, value.ToString(key), val)
		err = v.push(val)
	case bytecode.OpTypeof:
		err = v.push(value.StringValue(value.NewString(typeOf(v.pop()))))

	case bytecode.OpNewArray:
		arr, allocErr := v.ctx.Runtime.Heap.AllocArray()
		if allocErr != nil {
			return false, value.Value{}, newError(ErrMemory, "%s", allocErr)
		}
		err = v.push(value.ArrayValue(arr))
	case bytecode.OpArrayPush:
		val := v.pop()
		arr := v.pop()
		if arr.IsArray() {
			arr.Arr().Push(val)
		}
		err = v.push(arr)
	case bytecode.OpArrayPop:
		arr := v.pop()
		if arr.IsArray() {
			err = v.push(arr.Arr().Pop())
		} else {
			err = v.push(value.UndefinedValue())
		}
	case bytecode.OpArrayGet:
		idx := v.pop()
		arr := v.pop()
		if arr.IsArray() {
			err = v.push(arr.Arr().Get(int(value.ToNumber(idx))))
		} else {
			err = v.push(value.UndefinedValue())
		}
	case bytecode.OpArraySet:
		val := v.pop()
		idx := v.pop()
		arr := v.pop()
		if arr.IsArray() {
			arr.Arr().Set(int(value.ToNumber(idx)), val)
		}
		err = v.push(val)

	case bytecode.OpJump:
		f.pc = int(instr.Operand)
	case bytecode.OpJumpIfTrue:
		if value.ToBoolean(v.pop()) {
			f.pc = int(instr.Operand)
		}
	case bytecode.OpJumpIfFalse:
		if !value.ToBoolean(v.pop()) {
			f.pc = int(instr.Operand)
		}

	case bytecode.OpCall:
		err = v.execCall(int(instr.Operand), value.UndefinedValue())
	case bytecode.OpNew:
		err = v.execNew(int(instr.Operand))
	case bytecode.OpInstanceof:
		right := v.pop()
		left := v.pop()
		err = v.push(value.BoolValue(isInstanceOf(left, right)))
	case bytecode.OpReturn:
		val := v.pop()
		return v.popFrame(val)

	case bytecode.OpTryBegin:
		v.handlers = append(v.handlers, handler{
			frameIndex: len(v.frames) - 1,
			catchPC:    instr.Operand,
			finallyPC:  instr.Operand2,
			stackBase:  len(v.stack),
		})
	case bytecode.OpTryEnd:
		if len(v.handlers) > 0 {
			v.handlers = v.handlers[:len(v.handlers)-1]
		}
	case bytecode.OpThrow:
		thrown := v.pop()
		if !v.unwindTo(thrown) {
			return true, value.UndefinedValue(), newError(ErrRuntime, "%s", value.ToString(thrown))
		}
	case bytecode.OpCatchEnd:
		// Nothing to do: the handler that routed us into the catch
		// block was already consumed by unwindTo.
	case bytecode.OpFinallyEnd:
		if v.hasPending {
			pending := v.pendingException
			v.hasPending = false
			if !v.unwindTo(pending) {
				return true, value.UndefinedValue(), newError(ErrRuntime, "%s", value.ToString(pending))
			}
		}

	case bytecode.OpHalt:
		if len(v.stack) > 0 {
			return true, v.peek(), nil
		}
		return true, value.UndefinedValue(), nil

	default:
		return false, value.Value{}, newError(ErrRuntime, "unhandled opcode %s", instr.Op)
	}

	if err != nil {
		return false, value.Value{}, err
	}
	return false, value.Value{}, nil
}

// popFrame implements RETURN and fall-off-the-end frame exit: truncate
// the operand stack back to this frame's base (discarding any unbalanced
// leftovers), pop the frame, and either hand the result to the caller
// frame or, if this was the outermost frame, finish the run.
func (v *VM) popFrame(result value.Value) (done bool, out value.Value, err *ScriptError) {
	f := v.currentFrame()
	if f.isConstruct && !result.IsObject() {
		result = f.this
	}
	v.stack = v.stack[:f.base]
	v.frames = v.frames[:len(v.frames)-1]
	if len(v.frames) == 0 {
		return true, result, nil
	}
	if pushErr := v.push(result); pushErr != nil {
		return false, value.Value{}, pushErr
	}
	return false, value.Value{}, nil
}
