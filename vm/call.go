package vm

import (
	"ember/bytecode"
	"ember/value"
)

// execCall implements CALL: `[callee, arg0, …, arg(n-1)]` on the stack,
// pops them, pushes the result — per spec.md §4.5's Calls row. `this` is
// whatever the caller already resolved (undefined for a plain call; the
// freshly allocated instance for NEW).
func (v *VM) execCall(argc int, this value.Value) *ScriptError {
	args := make([]value.Value, argc)
	for i := argc - 1; i >= 0; i-- {
		args[i] = v.pop()
	}
	callee := v.pop()

	if !callee.IsFunction() {
		return v.throwType("%s is not a function", value.ToString(callee))
	}
	return v.invoke(callee.Fn(), this, args, false)
}

// execNew implements NEW: allocate a fresh instance chained off the
// callee's Prototype, invoke the callee with that instance as `this`,
// and (on RETURN) keep the instance unless the callee explicitly
// returned an object of its own — the usual `new` substitution rule.
func (v *VM) execNew(argc int) *ScriptError {
	args := make([]value.Value, argc)
	for i := argc - 1; i >= 0; i-- {
		args[i] = v.pop()
	}
	callee := v.pop()

	if !callee.IsFunction() {
		return v.throwType("%s is not a constructor", value.ToString(callee))
	}
	fn := callee.Fn()
	if fn.Prototype == nil {
		proto, err := v.ctx.Runtime.Heap.AllocObject(nil)
		if err != nil {
			return newError(ErrMemory, "%s", err)
		}
		fn.Prototype = proto
	}
	instance, err := v.ctx.Runtime.Heap.AllocObject(fn.Prototype)
	if err != nil {
		return newError(ErrMemory, "%s", err)
	}
	return v.invoke(fn, value.ObjectValue(instance), args, true)
}

// invoke dispatches to a native callback synchronously, or pushes a new
// call frame for a bytecode function so the main dispatch loop continues
// executing it. Parameters bind directly onto the context's global
// object — Ember's only variable scope — for the duration of the call;
// they are not restored on return, matching LOAD_VAR/STORE_VAR's
// always-global resolution.
func (v *VM) invoke(fn *value.Function, this value.Value, args []value.Value, isConstruct bool) *ScriptError {
	if fn.IsNative() {
		result, callErr := fn.Native(this, args)
		if callErr != nil {
			return v.throwRuntime("%s", callErr)
		}
		if isConstruct && !result.IsObject() {
			result = this
		}
		return v.push(result)
	}

	code, ok := fn.Code.(*bytecode.Block)
	if !ok {
		return newError(ErrRuntime, "function constant has no bytecode body")
	}
	if len(v.frames) >= maxFrames {
		return newError(ErrRuntime, "call stack exceeded %d frames", maxFrames)
	}

	for i, name := range code.ParamNames {
		arg := value.UndefinedValue()
		if i < len(args) {
			arg = args[i]
		}
		v.ctx.Global.Set(v.ctx.Runtime.Heap.Strings().Intern(name), arg)
	}

	v.frames = append(v.frames, frame{
		block:       code,
		pc:          0,
		base:        len(v.stack),
		this:        this,
		isConstruct: isConstruct,
	})
	return nil
}

// call is the embedding API's host-initiated call entry point
// (mjs_call_function in the original): invoke fn synchronously and run
// it to completion, independent of the normal CALL/NEW opcodes. Unlike
// invoke, which only pushes a frame and lets the surrounding dispatch
// loop keep going, call drives its own loop to completion and requires
// the VM to be idle — Ember's single-threaded model never enters a VM
// instance concurrently or reentrantly.
func (v *VM) call(fn *value.Function, this value.Value, args []value.Value) (value.Value, *ScriptError) {
	if v.state == StateRunning {
		return value.Value{}, newError(ErrRuntime, "cannot call into the VM while it is already dispatching")
	}

	if fn.IsNative() {
		result, callErr := fn.Native(this, args)
		if callErr != nil {
			return value.Value{}, newError(ErrRuntime, "%s", callErr)
		}
		return result, nil
	}

	code, ok := fn.Code.(*bytecode.Block)
	if !ok {
		return value.Value{}, newError(ErrRuntime, "function constant has no bytecode body")
	}

	for i, name := range code.ParamNames {
		arg := value.UndefinedValue()
		if i < len(args) {
			arg = args[i]
		}
		v.ctx.Global.Set(v.ctx.Runtime.Heap.Strings().Intern(name), arg)
	}

	v.frames = append(v.frames, frame{block: code, pc: 0, base: len(v.stack), this: this})
	v.state = StateRunning
	v.err = nil

	result := value.UndefinedValue()
	for v.state == StateRunning {
		done, val, err := v.step()
		if err != nil {
			v.state = StateError
			v.err = err
			return value.Value{}, err
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

func (v *VM) throwRuntime(format string, args ...any) *ScriptError {
	return v.throwWithKind(ErrRuntime, format, args...)
}

func (v *VM) throwType(format string, args ...any) *ScriptError {
	return v.throwWithKind(ErrType, format, args...)
}

// throwWithKind raises a script-level exception carrying kind's message,
// routing it through the handler stack like a user THROW would. If no
// handler takes it, the failure surfaces to the host as a ScriptError of
// the same kind rather than a generic uncaught-exception bucket.
func (v *VM) throwWithKind(kind ErrorKind, format string, args ...any) *ScriptError {
	msg := newError(kind, format, args...).Message
	obj, err := v.ctx.Runtime.Heap.AllocObject(nil)
	if err != nil {
		return newError(ErrMemory, "%s", err)
	}
	obj.Set(v.ctx.Runtime.Heap.Strings().Intern("message"), value.StringValue(value.NewString(msg)))
	if !v.unwindTo(value.ObjectValue(obj)) {
		return newError(kind, "%s", msg)
	}
	return nil
}

// unwindTo walks the handler stack outward from the current frame,
// popping call frames as it goes, until it finds a handler whose catch
// or finally target it can jump to. It returns false when no handler
// anywhere can take thrown, leaving the caller to report an uncaught
// exception.
func (v *VM) unwindTo(thrown value.Value) bool {
	for len(v.handlers) > 0 {
		h := v.handlers[len(v.handlers)-1]
		v.handlers = v.handlers[:len(v.handlers)-1]

		for len(v.frames)-1 > h.frameIndex {
			v.frames = v.frames[:len(v.frames)-1]
		}
		if len(v.frames) == 0 {
			return false
		}
		f := &v.frames[h.frameIndex]
		if h.stackBase > len(v.stack) {
			continue
		}
		v.stack = v.stack[:h.stackBase]

		switch {
		case h.catchPC >= 0:
			if err := v.push(thrown); err != nil {
				return false
			}
			f.pc = int(h.catchPC)
			return true
		case h.finallyPC >= 0:
			v.pendingException = thrown
			v.hasPending = true
			f.pc = int(h.finallyPC)
			return true
		}
	}
	return false
}
