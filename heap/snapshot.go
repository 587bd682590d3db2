package heap

import (
	"github.com/fxamacker/cbor/v2"

	"ember/value"
)

// Snapshot is the serializable image of a heap: every live object, encoded
// flat with integer references standing in for pointers so the graph
// round-trips through CBOR without needing custom pointer codecs.
type Snapshot struct {
	Strings   []snapString   `cbor:"strings"`
	Objects   []snapObject   `cbor:"objects"`
	Arrays    []snapArray    `cbor:"arrays"`
	Functions []snapFunction `cbor:"functions"`
	Roots     []snapValue    `cbor:"roots"`
}

// snapValue is a heap Value flattened to a tag plus either a number payload
// or an index into one of the Snapshot's object-kind slices.
type snapValue struct {
	Tag   value.Tag `cbor:"tag"`
	Num   float64   `cbor:"num,omitempty"`
	Index int       `cbor:"index,omitempty"`
}

type snapString struct {
	Data     []byte `cbor:"data"`
	Interned bool   `cbor:"interned"`
}

type snapProperty struct {
	Key          int       `cbor:"key"` // index into Snapshot.Strings
	Value        snapValue `cbor:"value"`
	Writable     bool      `cbor:"writable"`
	Enumerable   bool      `cbor:"enumerable"`
	Configurable bool      `cbor:"configurable"`
}

type snapObject struct {
	Properties []snapProperty `cbor:"properties"`
	Prototype  int            `cbor:"prototype"` // -1 for none, else index into Objects
	Extensible bool           `cbor:"extensible"`
}

type snapArray struct {
	Elements []snapValue `cbor:"elements"`
}

type snapFunction struct {
	Name       int    `cbor:"name"` // -1 for anonymous, else index into Strings
	IsNative   bool   `cbor:"is_native"`
	ParamNames []string `cbor:"param_names"`
	Closure    int    `cbor:"closure"` // -1 for none, else index into Objects
}

// encoder walks live heap objects once and assigns each a stable index
// within its kind, so pointer-shaped fields can be written as indices.
type encoder struct {
	strIdx map[*value.String]int
	objIdx map[*value.Object]int
	arrIdx map[*value.Array]int
	fnIdx  map[*value.Function]int
	snap   Snapshot
}

func (e *encoder) internString(s *value.String) int {
	if i, ok := e.strIdx[s]; ok {
		return i
	}
	i := len(e.snap.Strings)
	e.strIdx[s] = i
	e.snap.Strings = append(e.snap.Strings, snapString{Data: s.Data, Interned: s.Interned})
	return i
}

func (e *encoder) internObject(o *value.Object) int {
	if o == nil {
		return -1
	}
	if i, ok := e.objIdx[o]; ok {
		return i
	}
	i := len(e.snap.Objects)
	e.objIdx[o] = i
	e.snap.Objects = append(e.snap.Objects, snapObject{}) // placeholder, filled below
	proto := e.internObject(o.Prototype)
	var props []snapProperty
	for p := o.Properties; p != nil; p = p.Next {
		props = append(props, snapProperty{
			Key:          e.internString(p.Key),
			Value:        e.value(p.Value),
			Writable:     p.Writable,
			Enumerable:   p.Enumerable,
			Configurable: p.Configurable,
		})
	}
	e.snap.Objects[i] = snapObject{Properties: props, Prototype: proto, Extensible: o.Extensible}
	return i
}

func (e *encoder) internArray(a *value.Array) int {
	if i, ok := e.arrIdx[a]; ok {
		return i
	}
	i := len(e.snap.Arrays)
	e.arrIdx[a] = i
	e.snap.Arrays = append(e.snap.Arrays, snapArray{})
	elems := make([]snapValue, a.Length())
	for j := range elems {
		elems[j] = e.value(a.Get(j))
	}
	e.snap.Arrays[i] = snapArray{Elements: elems}
	return i
}

func (e *encoder) internFunction(f *value.Function) int {
	if i, ok := e.fnIdx[f]; ok {
		return i
	}
	i := len(e.snap.Functions)
	e.fnIdx[f] = i
	e.snap.Functions = append(e.snap.Functions, snapFunction{})
	name := -1
	if f.Name != nil {
		name = e.internString(f.Name)
	}
	closure := e.internObject(f.ClosureScope)
	e.snap.Functions[i] = snapFunction{
		Name:       name,
		IsNative:   f.IsNative(),
		ParamNames: f.ParamNames,
		Closure:    closure,
	}
	return i
}

func (e *encoder) value(v value.Value) snapValue {
	switch v.Tag() {
	case value.Undefined, value.Null:
		return snapValue{Tag: v.Tag()}
	case value.Boolean:
		n := 0.0
		if v.Bool() {
			n = 1
		}
		return snapValue{Tag: v.Tag(), Num: n}
	case value.Number:
		return snapValue{Tag: v.Tag(), Num: v.Num()}
	case value.StringTag:
		return snapValue{Tag: v.Tag(), Index: e.internString(v.Str())}
	case value.ObjectTag:
		return snapValue{Tag: v.Tag(), Index: e.internObject(v.Obj())}
	case value.ArrayTag:
		return snapValue{Tag: v.Tag(), Index: e.internArray(v.Arr())}
	case value.FunctionTag:
		return snapValue{Tag: v.Tag(), Index: e.internFunction(v.Fn())}
	default:
		return snapValue{Tag: value.Undefined}
	}
}

// Snapshot captures every currently-rooted value and everything it
// transitively reaches into a Snapshot, for host-driven persistence.
// Functions are recorded by name, parameter names and closure scope only:
// neither a bytecode body nor a native callback is captured, and Restore
// rebuilds every function as a native function with no callback.
func (h *Heap) Snapshot() *Snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()

	enc := &encoder{
		strIdx: make(map[*value.String]int),
		objIdx: make(map[*value.Object]int),
		arrIdx: make(map[*value.Array]int),
		fnIdx:  make(map[*value.Function]int),
	}
	for _, v := range h.roots {
		enc.snap.Roots = append(enc.snap.Roots, enc.value(v))
	}
	return &enc.snap
}

// EncodeSnapshot is a convenience wrapper producing the CBOR-encoded bytes
// of Snapshot().
func (h *Heap) EncodeSnapshot() ([]byte, error) {
	return cbor.Marshal(h.Snapshot())
}

// decoder rebuilds heap objects from a Snapshot's flat index space,
// allocating through Heap's Alloc* methods so every restored object is
// properly tracked for collection.
type decoder struct {
	h        *Heap
	snap     *Snapshot
	strings  []*value.String
	objects  []*value.Object
	arrays   []*value.Array
	funcs    []*value.Function
}

// Restore rebuilds heap state from a previously-captured Snapshot and pins
// every restored root. It returns the freshly-pinned root handles in the
// same order as Snapshot.Roots.
func (h *Heap) Restore(snap *Snapshot) ([]RootHandle, error) {
	d := &decoder{h: h, snap: snap}
	d.strings = make([]*value.String, len(snap.Strings))
	for i, s := range snap.Strings {
		d.strings[i] = value.NewString(string(s.Data))
		d.strings[i].Interned = s.Interned
		h.mu.Lock()
		h.track(d.strings[i], sizeString+len(s.Data))
		h.mu.Unlock()
	}

	d.objects = make([]*value.Object, len(snap.Objects))
	for i := range snap.Objects {
		o, err := h.AllocObject(nil)
		if err != nil {
			return nil, err
		}
		d.objects[i] = o
	}
	d.arrays = make([]*value.Array, len(snap.Arrays))
	for i := range snap.Arrays {
		a, err := h.AllocArray()
		if err != nil {
			return nil, err
		}
		d.arrays[i] = a
	}
	d.funcs = make([]*value.Function, len(snap.Functions))
	for i := range snap.Functions {
		fn := snap.Functions[i]
		name := ""
		if fn.Name >= 0 {
			name = string(snap.Strings[fn.Name].Data)
		}
		f, err := h.AllocNativeFunction(name, nil)
		if err != nil {
			return nil, err
		}
		d.funcs[i] = f
	}

	for i, so := range snap.Objects {
		o := d.objects[i]
		if so.Prototype >= 0 {
			o.Prototype = d.objects[so.Prototype]
		}
		for j := len(so.Properties) - 1; j >= 0; j-- {
			p := so.Properties[j]
			o.Define(d.strings[p.Key], d.value(p.Value), p.Writable, p.Enumerable, p.Configurable)
		}
		o.Extensible = so.Extensible
	}
	for i, sa := range snap.Arrays {
		a := d.arrays[i]
		for j, v := range sa.Elements {
			a.Set(j, d.value(v))
		}
	}
	for i, sf := range snap.Functions {
		f := d.funcs[i]
		f.ParamNames = sf.ParamNames
		if sf.Closure >= 0 {
			f.ClosureScope = d.objects[sf.Closure]
		}
	}

	var handles []RootHandle
	for _, rv := range snap.Roots {
		handles = append(handles, h.AddRoot(d.value(rv)))
	}
	return handles, nil
}

func (d *decoder) value(sv snapValue) value.Value {
	switch sv.Tag {
	case value.Undefined:
		return value.UndefinedValue()
	case value.Null:
		return value.NullValue()
	case value.Boolean:
		return value.BoolValue(sv.Num != 0)
	case value.Number:
		return value.NumberValue(sv.Num)
	case value.StringTag:
		return value.StringValue(d.strings[sv.Index])
	case value.ObjectTag:
		return value.ObjectValue(d.objects[sv.Index])
	case value.ArrayTag:
		return value.ArrayValue(d.arrays[sv.Index])
	case value.FunctionTag:
		return value.FunctionValue(d.funcs[sv.Index])
	default:
		return value.UndefinedValue()
	}
}

// DecodeSnapshot unmarshals CBOR-encoded bytes into a Snapshot and restores
// it into h.
func (h *Heap) DecodeSnapshot(data []byte) ([]RootHandle, error) {
	var snap Snapshot
	if err := cbor.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	return h.Restore(&snap)
}
