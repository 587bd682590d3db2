package value

import "sync"

// String is a heap string: raw bytes plus an interning flag. Interned
// strings live in a runtime-scoped chain (StringTable) rather than a hash
// table; a new intern request scans the chain linearly, returning the
// existing instance on byte equality, so identity is stable across
// repeated Intern calls on equal content.
type String struct {
	Header

	Data     []byte
	Interned bool
	Next     *String // intern-chain link, nil once unlinked from the table
}

func (s *String) Head() *Header           { return &s.Header }
func (s *String) Trace(enqueue func(Value)) {}

// NewString allocates a fresh, non-interned string copying data.
func NewString(data string) *String {
	s := &String{Data: []byte(data)}
	s.Header.TypeTag = TypeString
	s.Header.Size = len(data)
	return s
}

func (s *String) Text() string { return string(s.Data) }
func (s *String) Len() int     { return len(s.Data) }

// Equals compares two strings by byte content.
func (s *String) Equals(other *String) bool {
	if s == other {
		return true
	}
	if s == nil || other == nil {
		return false
	}
	return string(s.Data) == string(other.Data)
}

// StringTable is the runtime-scoped linked chain of interned strings.
// Intern scans the chain from head to tail; a match returns the existing
// *String, otherwise a new one is appended at the head.
type StringTable struct {
	mu   sync.Mutex
	head *String
	len  int
}

// NewStringTable creates an empty intern chain.
func NewStringTable() *StringTable {
	return &StringTable{}
}

// Intern returns the canonical *String for s, creating and chaining a new
// one if no entry with equal bytes exists yet.
func (t *StringTable) Intern(s string) *String {
	t.mu.Lock()
	defer t.mu.Unlock()

	for cur := t.head; cur != nil; cur = cur.Next {
		if string(cur.Data) == s {
			return cur
		}
	}

	fresh := NewString(s)
	fresh.Interned = true
	fresh.Next = t.head
	t.head = fresh
	t.len++
	return fresh
}

// Lookup scans the chain for s without interning it, reporting whether a
// match was found.
func (t *StringTable) Lookup(s string) (*String, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for cur := t.head; cur != nil; cur = cur.Next {
		if string(cur.Data) == s {
			return cur, true
		}
	}
	return nil, false
}

// Len returns the number of interned strings currently in the chain.
func (t *StringTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.len
}

// EvictUnreachable removes chain entries for which keep returns false,
// called by the sweeper at the end of a collection cycle (spec invariant:
// an interned string is reachable iff it's in the table or some root
// transitively reaches it — stale entries for collected strings must go).
func (t *StringTable) EvictUnreachable(keep func(*String) bool) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	var head *String
	var tail *String
	removed := 0
	for cur := t.head; cur != nil; {
		next := cur.Next
		if keep(cur) {
			cur.Next = nil
			if head == nil {
				head = cur
			} else {
				tail.Next = cur
			}
			tail = cur
		} else {
			cur.Interned = false
			removed++
			t.len--
		}
		cur = next
	}
	t.head = head
	return removed
}

// All returns every interned string in chain order (head first), for
// debugging and tests; it allocates.
func (t *StringTable) All() []*String {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*String, 0, t.len)
	for cur := t.head; cur != nil; cur = cur.Next {
		out = append(out, cur)
	}
	return out
}
