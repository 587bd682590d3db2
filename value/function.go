package value

// NativeFunc is a host-provided callback invoked by the VM's CALL opcode
// when the callee is a native function.
type NativeFunc func(this Value, args []Value) (Value, error)

// Function is either a native callback or a bytecode closure. Code is
// declared as `any` here (rather than a concrete *bytecode.Block) to keep
// this package free of a dependency on the bytecode package; the vm
// package does the type assertion when it invokes a bytecode function.
type Function struct {
	Header

	Name *String // optional

	Native NativeFunc // non-nil for native variant

	Code          any       // *bytecode.Block for the bytecode variant
	ParamNames    []string
	ClosureScope  *Object // enclosing scope object, nil for top-level/native

	// Prototype backs OP_NEW: the object a `new` call's receiver is
	// chained from. Created lazily on first access, per spec.md's
	// Design Notes — prototype traversal is an extension, not
	// mandatory — but one consistent home is needed for OP_NEW/
	// OP_INSTANCEOF to mean anything.
	Prototype *Object
}

func (f *Function) Head() *Header { return &f.Header }

func (f *Function) Trace(enqueue func(Value)) {
	if f.Name != nil {
		enqueue(StringValue(f.Name))
	}
	if f.ClosureScope != nil {
		enqueue(ObjectValue(f.ClosureScope))
	}
	if f.Prototype != nil {
		enqueue(ObjectValue(f.Prototype))
	}
	if tracer, ok := f.Code.(interface{ TraceConstants(func(Value)) }); ok {
		tracer.TraceConstants(enqueue)
	}
}

// IsNative reports whether f is a native-callback function.
func (f *Function) IsNative() bool { return f.Native != nil }

// NewNativeFunction wraps a host callback as a heap function value.
func NewNativeFunction(name string, fn NativeFunc) *Function {
	f := &Function{Native: fn}
	f.Header.TypeTag = TypeFunction
	if name != "" {
		f.Name = NewString(name)
	}
	return f
}

// NewBytecodeFunction wraps a compiled block as a heap function value.
func NewBytecodeFunction(name string, code any, paramNames []string, closure *Object) *Function {
	f := &Function{
		Code:         code,
		ParamNames:   paramNames,
		ClosureScope: closure,
	}
	f.Header.TypeTag = TypeFunction
	if name != "" {
		f.Name = NewString(name)
	}
	return f
}
