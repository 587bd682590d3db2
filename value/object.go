package value

// Property is one entry in an object's singly-linked property chain.
// Chain order is insertion order, reversed by prepend (new properties go
// at the head); lookup is a linear scan by byte-wise key match.
type Property struct {
	Key          *String
	Value        Value
	Writable     bool
	Enumerable   bool
	Configurable bool
	Next         *Property
}

// Object is a heap object: a property chain, an optional prototype, and
// an extensibility flag. Extensibility transitions are one-way.
type Object struct {
	Header

	Properties    *Property
	Prototype     *Object
	Extensible    bool
	PropertyCount int
}

func (o *Object) Head() *Header { return &o.Header }

func (o *Object) Trace(enqueue func(Value)) {
	if o.Prototype != nil {
		enqueue(ObjectValue(o.Prototype))
	}
	for p := o.Properties; p != nil; p = p.Next {
		enqueue(StringValue(p.Key))
		if p.Value.IsHeapRef() {
			enqueue(p.Value)
		}
	}
}

// NewObject allocates a fresh, extensible object with no own properties.
func NewObject(prototype *Object) *Object {
	o := &Object{Prototype: prototype, Extensible: true}
	o.Header.TypeTag = TypeObject
	return o
}

func (o *Object) findProperty(key string) *Property {
	for p := o.Properties; p != nil; p = p.Next {
		if string(p.Key.Data) == key {
			return p
		}
	}
	return nil
}

// GetOwn looks up an own property by key (own-chain only; prototype
// traversal is the caller's choice via GetChain).
func (o *Object) GetOwn(key string) (Value, bool) {
	if p := o.findProperty(key); p != nil {
		return p.Value, true
	}
	return UndefinedValue(), false
}

// GetChain walks the prototype chain. The VM uses it for LOAD_VAR against
// the global object and, through getProp, for both GET_PROP and
// GET_PROP_COMPUTED on object receivers.
func (o *Object) GetChain(key string) (Value, bool) {
	for cur := o; cur != nil; cur = cur.Prototype {
		if p := cur.findProperty(key); p != nil {
			return p.Value, true
		}
	}
	return UndefinedValue(), false
}

// Set assigns an own property, creating it (writable/enumerable/
// configurable) if absent, or updating its value if present and writable.
// Writes against a non-extensible object with no matching property, or
// against a non-writable property, are silent no-ops per the VM's "no
// abort on property faults" rule.
func (o *Object) Set(keyString *String, v Value) {
	if p := o.findProperty(string(keyString.Data)); p != nil {
		if p.Writable {
			p.Value = v
		}
		return
	}
	if !o.Extensible {
		return
	}
	o.Properties = &Property{
		Key:          keyString,
		Value:        v,
		Writable:     true,
		Enumerable:   true,
		Configurable: true,
		Next:         o.Properties,
	}
	o.PropertyCount++
}

// Define installs or overwrites an own property with explicit descriptor
// flags, bypassing the writable check Set enforces.
func (o *Object) Define(keyString *String, v Value, writable, enumerable, configurable bool) {
	if p := o.findProperty(string(keyString.Data)); p != nil {
		p.Value = v
		p.Writable = writable
		p.Enumerable = enumerable
		p.Configurable = configurable
		return
	}
	o.Properties = &Property{
		Key:          keyString,
		Value:        v,
		Writable:     writable,
		Enumerable:   enumerable,
		Configurable: configurable,
		Next:         o.Properties,
	}
	o.PropertyCount++
}

// Delete removes an own property, failing only when it exists and is
// non-configurable. Deleting an absent key succeeds trivially.
func (o *Object) Delete(key string) bool {
	var prev *Property
	for p := o.Properties; p != nil; p = p.Next {
		if string(p.Key.Data) == key {
			if !p.Configurable {
				return false
			}
			if prev == nil {
				o.Properties = p.Next
			} else {
				prev.Next = p.Next
			}
			o.PropertyCount--
			return true
		}
		prev = p
	}
	return true
}

// Has reports own-chain presence only.
func (o *Object) Has(key string) bool {
	return o.findProperty(key) != nil
}

// OwnKeys returns the enumerable own property names, in chain (most
// recently defined first) order.
func (o *Object) OwnKeys() []string {
	keys := make([]string, 0, o.PropertyCount)
	for p := o.Properties; p != nil; p = p.Next {
		if p.Enumerable {
			keys = append(keys, string(p.Key.Data))
		}
	}
	return keys
}

// PreventExtensions makes the one-way true→false extensibility
// transition.
func (o *Object) PreventExtensions() { o.Extensible = false }

// Seal prevents extensions and marks every existing property
// non-configurable.
func (o *Object) Seal() {
	o.Extensible = false
	for p := o.Properties; p != nil; p = p.Next {
		p.Configurable = false
	}
}

// IsSealed reports whether the object is not extensible and every
// property is non-configurable.
func (o *Object) IsSealed() bool {
	if o.Extensible {
		return false
	}
	for p := o.Properties; p != nil; p = p.Next {
		if p.Configurable {
			return false
		}
	}
	return true
}

// Freeze seals the object and additionally marks every property
// non-writable.
func (o *Object) Freeze() {
	o.Extensible = false
	for p := o.Properties; p != nil; p = p.Next {
		p.Configurable = false
		p.Writable = false
	}
}

// IsFrozen reports whether the object is sealed and every property is
// non-writable.
func (o *Object) IsFrozen() bool {
	if !o.IsSealed() {
		return false
	}
	for p := o.Properties; p != nil; p = p.Next {
		if p.Writable {
			return false
		}
	}
	return true
}

// Clone returns a shallow copy: a fresh object with the same prototype
// and a duplicated property chain (same keys/values, independent nodes).
func (o *Object) Clone() *Object {
	clone := NewObject(o.Prototype)
	// Rebuild so the clone's chain order matches the original's.
	var props []*Property
	for p := o.Properties; p != nil; p = p.Next {
		props = append(props, p)
	}
	for i := len(props) - 1; i >= 0; i-- {
		p := props[i]
		clone.Define(p.Key, p.Value, p.Writable, p.Enumerable, p.Configurable)
	}
	return clone
}
