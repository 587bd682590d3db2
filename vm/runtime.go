// Package vm implements Ember's bytecode interpreter: the operand/call-
// frame/exception-handler stack machine that executes a compiled
// bytecode.Block, plus the Runtime/Context pair an embedder creates one of
// each to run scripts against.
package vm

import (
	"github.com/google/uuid"

	"ember/bytecode"
	"ember/compiler"
	"ember/heap"
	"ember/parser"
	"ember/value"
)

// Runtime owns the resources a host shares across every Context it opens:
// the managed heap and its interned-string table. Multiple contexts may
// share one runtime (spec.md §5's concurrency model — never run two VMs
// against the same runtime's heap concurrently without external
// synchronization; a single VM instance is never entered concurrently).
type Runtime struct {
	Heap *heap.Heap
}

// NewRuntime creates a runtime with the given heap configuration.
func NewRuntime(cfg heap.Config) *Runtime {
	return &Runtime{Heap: heap.New(cfg)}
}

// Context is one isolated global scope: its own global object and VM,
// sharing the runtime's heap. LOAD_VAR/STORE_VAR always resolve against
// this Global object — Ember has no separate lexical scope.
type Context struct {
	Runtime *Runtime
	Global  *value.Object
	vm      *VM
}

// NewContext opens a fresh global scope against rt.
func NewContext(rt *Runtime) (*Context, error) {
	global, err := rt.Heap.AllocObject(nil)
	if err != nil {
		return nil, err
	}
	ctx := &Context{Runtime: rt, Global: global}
	ctx.Runtime.Heap.AddRoot(value.ObjectValue(global))
	ctx.vm = newVM(ctx)
	return ctx, nil
}

// DefineGlobalFunction installs a host-provided native function under
// name on the context's global object, the embedding surface for the
// builtins spec.md §6 and §7 describe (print, gc, memory_usage, ...).
func (ctx *Context) DefineGlobalFunction(name string, fn value.NativeFunc) error {
	f, err := ctx.Runtime.Heap.AllocNativeFunction(name, fn)
	if err != nil {
		return err
	}
	ctx.Global.Set(ctx.Runtime.Heap.Strings().Intern(name), value.FunctionValue(f))
	return nil
}

// DefineGlobal sets name to v on the context's global object, for
// embedding-provided constants.
func (ctx *Context) DefineGlobal(name string, v value.Value) {
	ctx.Global.Set(ctx.Runtime.Heap.Strings().Intern(name), v)
}

// RegisterNative installs a host-provided native function under name on
// obj, the specific-object half of native-callback registration
// (mjs_define_function in the original; DefineGlobalFunction is the
// global-object half, mjs_define_global_function). It returns a
// registration token in the same uuid.UUID-based style as
// server.HandleStore and heap.WeakReference use for their own
// bookkeeping IDs, for a host that wants to log or correlate
// registrations across calls; removal is just obj.Delete(name).
func (ctx *Context) RegisterNative(obj *value.Object, name string, fn value.NativeFunc) (uuid.UUID, error) {
	f, err := ctx.Runtime.Heap.AllocNativeFunction(name, fn)
	if err != nil {
		return uuid.UUID{}, err
	}
	obj.Set(ctx.Runtime.Heap.Strings().Intern(name), value.FunctionValue(f))
	return uuid.New(), nil
}

// Call invokes fn synchronously with the given this-value and arguments
// — the embedding API's call-into-script entry point (mjs_call_function
// in the original), for hosts that hold a function value obtained from
// a script (e.g. a callback passed to a native function) and need to
// call it back outside the normal CALL/NEW opcode path.
func (ctx *Context) Call(fn value.Value, this value.Value, args []value.Value) (value.Value, error) {
	if !fn.IsFunction() {
		return value.UndefinedValue(), newError(ErrType, "%s is not a function", value.ToString(fn))
	}
	result, err := ctx.vm.call(fn.Fn(), this, args)
	if err != nil {
		return value.UndefinedValue(), err
	}
	return result, nil
}

// Eval compiles and runs source, returning the program's final value per
// spec.md §4.5's Termination rule. filename is used only for error
// reporting.
func (ctx *Context) Eval(source, filename string) (value.Value, error) {
	block, err := ctx.Compile(source, filename)
	if err != nil {
		return value.UndefinedValue(), err
	}
	return ctx.Run(block)
}

// Compile parses and lowers source into a bytecode.Block without running
// it, for hosts that want to cache compiled scripts (spec.md's snapshot/
// persistence angle covers heap state, not bytecode — this is the other
// half: reuse the compiled form across Contexts).
func (ctx *Context) Compile(source, filename string) (*bytecode.Block, error) {
	p := parser.New(source)
	prog := p.ParseProgram()
	if errs := p.Errors(); len(errs) > 0 {
		return nil, newError(ErrSyntax, "%s: %s", filename, errs[0])
	}
	block, errs := compiler.Compile(prog)
	if len(errs) > 0 {
		return nil, newError(ErrSyntax, "%s: %s", filename, errs[0])
	}
	return block, nil
}

// Run executes a previously compiled block against this context's VM.
func (ctx *Context) Run(block *bytecode.Block) (value.Value, error) {
	return ctx.vm.Run(block)
}

// GC forces a full mark-sweep collection and returns the resulting
// statistics — the host-facing gc() builtin's implementation.
func (ctx *Context) GC() heap.Stats {
	return ctx.Runtime.Heap.CollectFull()
}

// MemoryUsage reports the heap's approximate retained byte count — the
// host-facing memory_usage() builtin's implementation.
func (ctx *Context) MemoryUsage() int {
	return ctx.Runtime.Heap.MemoryUsage()
}
