package value

// Tag identifies which of the ten Value variants a Value holds. Every
// arithmetic, equality and coercion path branches on Tag explicitly rather
// than through virtual dispatch.
type Tag uint8

const (
	Undefined Tag = iota
	Null
	Boolean
	Number
	StringTag
	ObjectTag
	FunctionTag
	ArrayTag
	BigInt
	Symbol
)

func (t Tag) String() string {
	switch t {
	case Undefined:
		return "undefined"
	case Null:
		return "null"
	case Boolean:
		return "boolean"
	case Number:
		return "number"
	case StringTag:
		return "string"
	case ObjectTag:
		return "object"
	case FunctionTag:
		return "function"
	case ArrayTag:
		return "array"
	case BigInt:
		return "bigint"
	case Symbol:
		return "symbol"
	default:
		return "?"
	}
}

// Value is a tagged union over Ember's ten value variants. Values are
// passed by copy; the heap variants carry a pointer into the managed heap.
type Value struct {
	tag Tag
	num float64 // Number payload, and 0/1 for Boolean
	ref any     // *String, *Object, *Array, *Function for heap tags
}

func (v Value) Tag() Tag { return v.tag }

var (
	undefinedValue = Value{tag: Undefined}
	nullValue      = Value{tag: Null}
	trueValue      = Value{tag: Boolean, num: 1}
	falseValue     = Value{tag: Boolean, num: 0}
)

// UndefinedValue returns the undefined value.
func UndefinedValue() Value { return undefinedValue }

// NullValue returns the null value.
func NullValue() Value { return nullValue }

// BoolValue returns the boolean value for b.
func BoolValue(b bool) Value {
	if b {
		return trueValue
	}
	return falseValue
}

// NumberValue returns a number value wrapping f.
func NumberValue(f float64) Value { return Value{tag: Number, num: f} }

// StringValue returns a value referencing the given heap string.
func StringValue(s *String) Value { return Value{tag: StringTag, ref: s} }

// ObjectValue returns a value referencing the given heap object.
func ObjectValue(o *Object) Value { return Value{tag: ObjectTag, ref: o} }

// ArrayValue returns a value referencing the given heap array.
func ArrayValue(a *Array) Value { return Value{tag: ArrayTag, ref: a} }

// FunctionValue returns a value referencing the given heap function.
func FunctionValue(f *Function) Value { return Value{tag: FunctionTag, ref: f} }

// Predicates.

func (v Value) IsUndefined() bool { return v.tag == Undefined }
func (v Value) IsNull() bool      { return v.tag == Null }
func (v Value) IsNullish() bool   { return v.tag == Undefined || v.tag == Null }
func (v Value) IsBoolean() bool   { return v.tag == Boolean }
func (v Value) IsNumber() bool    { return v.tag == Number }
func (v Value) IsString() bool    { return v.tag == StringTag }
func (v Value) IsObject() bool    { return v.tag == ObjectTag }
func (v Value) IsArray() bool     { return v.tag == ArrayTag }
func (v Value) IsFunction() bool  { return v.tag == FunctionTag }

// IsHeapRef reports whether v carries a pointer into the managed heap.
func (v Value) IsHeapRef() bool {
	switch v.tag {
	case StringTag, ObjectTag, ArrayTag, FunctionTag:
		return true
	default:
		return false
	}
}

// Heap returns the HeapObject backing a heap-tagged value, or nil.
func (v Value) Heap() HeapObject {
	switch v.tag {
	case StringTag:
		return v.ref.(*String)
	case ObjectTag:
		return v.ref.(*Object)
	case ArrayTag:
		return v.ref.(*Array)
	case FunctionTag:
		return v.ref.(*Function)
	default:
		return nil
	}
}

// Accessors. Each panics if called against the wrong tag, matching the
// engine's convention of explicit tag checks before payload access.

func (v Value) Bool() bool {
	if v.tag != Boolean {
		panic("value: Bool called on non-boolean Value")
	}
	return v.num != 0
}

func (v Value) Num() float64 {
	if v.tag != Number {
		panic("value: Num called on non-number Value")
	}
	return v.num
}

func (v Value) Str() *String {
	if v.tag != StringTag {
		panic("value: Str called on non-string Value")
	}
	return v.ref.(*String)
}

func (v Value) Obj() *Object {
	if v.tag != ObjectTag {
		panic("value: Obj called on non-object Value")
	}
	return v.ref.(*Object)
}

func (v Value) Arr() *Array {
	if v.tag != ArrayTag {
		panic("value: Arr called on non-array Value")
	}
	return v.ref.(*Array)
}

func (v Value) Fn() *Function {
	if v.tag != FunctionTag {
		panic("value: Fn called on non-function Value")
	}
	return v.ref.(*Function)
}

// StrictEquals implements the strict equality OP_EQ/OP_NE use: the type
// tag must match, NaN is never equal to itself, and heap variants compare
// by reference except strings, which compare by byte content.
func StrictEquals(a, b Value) bool {
	if a.tag != b.tag {
		return false
	}
	switch a.tag {
	case Undefined, Null:
		return true
	case Boolean:
		return a.num == b.num
	case Number:
		return a.num == b.num // NaN != NaN falls out of float comparison
	case StringTag:
		return a.Str().Equals(b.Str())
	case ObjectTag:
		return a.ref.(*Object) == b.ref.(*Object)
	case ArrayTag:
		return a.ref.(*Array) == b.ref.(*Array)
	case FunctionTag:
		return a.ref.(*Function) == b.ref.(*Function)
	default:
		return false
	}
}
