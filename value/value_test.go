package value

import (
	"math"
	"testing"
)

func TestStrictEquals(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"undefined≡undefined", UndefinedValue(), UndefinedValue(), true},
		{"null≡null", NullValue(), NullValue(), true},
		{"bool true=true", BoolValue(true), BoolValue(true), true},
		{"bool true≠false", BoolValue(true), BoolValue(false), false},
		{"number 1=1", NumberValue(1), NumberValue(1), true},
		{"number NaN≠NaN", NumberValue(math.NaN()), NumberValue(math.NaN()), false},
		{"different tags", NumberValue(0), NullValue(), false},
		{"string by content", StringValue(NewString("hi")), StringValue(NewString("hi")), true},
		{"string different content", StringValue(NewString("hi")), StringValue(NewString("bye")), false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := StrictEquals(tc.a, tc.b); got != tc.want {
				t.Errorf("StrictEquals(%v, %v) = %v, want %v", tc.a, tc.b, got, tc.want)
			}
		})
	}
}

func TestStringTableIntern(t *testing.T) {
	table := NewStringTable()
	a := table.Intern("hello")
	b := table.Intern("hello")
	if a != b {
		t.Fatalf("Intern(Intern(s)) !== Intern(s): got distinct pointers")
	}
	c := table.Intern("world")
	if a == c {
		t.Fatalf("distinct strings interned to the same instance")
	}
	if table.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", table.Len())
	}
}

func TestToBoolean(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want bool
	}{
		{"undefined", UndefinedValue(), false},
		{"null", NullValue(), false},
		{"zero", NumberValue(0), false},
		{"nan", NumberValue(math.NaN()), false},
		{"nonzero", NumberValue(1), true},
		{"empty string", StringValue(NewString("")), false},
		{"nonempty string", StringValue(NewString("x")), true},
		{"object", ObjectValue(NewObject(nil)), true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ToBoolean(tc.v); got != tc.want {
				t.Errorf("ToBoolean(%v) = %v, want %v", tc.v, got, tc.want)
			}
		})
	}
}

func TestToNumberString(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"  42  ", 42},
		{"Infinity", math.Inf(1)},
		{"-Infinity", math.Inf(-1)},
		{"NaN", math.NaN()},
		{"", 0},
		{"not-a-number", math.NaN()},
	}
	for _, tc := range tests {
		got := ToNumber(StringValue(NewString(tc.in)))
		if math.IsNaN(tc.want) {
			if !math.IsNaN(got) {
				t.Errorf("ToNumber(%q) = %v, want NaN", tc.in, got)
			}
			continue
		}
		if got != tc.want {
			t.Errorf("ToNumber(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestToStringRoundTrip(t *testing.T) {
	for _, f := range []float64{0, 1, -1, 3.5, 1e21, -1e-10} {
		s := ToString(NumberValue(f))
		back := ToNumber(StringValue(NewString(s)))
		s2 := ToString(NumberValue(back))
		if s != s2 {
			t.Errorf("to_string(to_number(to_string(%v))) unstable: %q vs %q", f, s, s2)
		}
	}
}

func TestObjectPropertyChain(t *testing.T) {
	o := NewObject(nil)
	key := NewString("x")
	o.Set(key, NumberValue(1))
	if v, ok := o.GetOwn("x"); !ok || v.Num() != 1 {
		t.Fatalf("GetOwn(x) = %v, %v", v, ok)
	}
	o.Set(key, NumberValue(2))
	if v, _ := o.GetOwn("x"); v.Num() != 2 {
		t.Fatalf("Set did not update existing property")
	}
	if !o.Delete("x") {
		t.Fatalf("Delete of configurable property failed")
	}
	if o.Has("x") {
		t.Fatalf("property still present after Delete")
	}
}

func TestObjectFreezeBlocksWrite(t *testing.T) {
	o := NewObject(nil)
	o.Set(NewString("x"), NumberValue(1))
	o.Freeze()
	o.Set(NewString("x"), NumberValue(2))
	if v, _ := o.GetOwn("x"); v.Num() != 1 {
		t.Fatalf("write succeeded against frozen object")
	}
	if !o.IsFrozen() {
		t.Fatalf("IsFrozen() = false after Freeze()")
	}
}

func TestArrayPushPop(t *testing.T) {
	a := NewArray()
	a.Push(NumberValue(1))
	a.Push(NumberValue(2))
	a.Push(NumberValue(3))
	if a.Length() != 3 {
		t.Fatalf("Length() = %d, want 3", a.Length())
	}
	before := a.Length()
	v := a.Pop()
	if v.Num() != 3 {
		t.Fatalf("Pop() = %v, want 3", v)
	}
	if a.Length() != before-1 {
		t.Fatalf("length not decremented by Pop")
	}
	if got := a.Get(0); got.Num() != 1 {
		t.Fatalf("remaining element changed: got %v", got)
	}
}

func TestArrayAutoGrowthHoles(t *testing.T) {
	a := NewArray()
	a.Set(3, NumberValue(9))
	if a.Length() != 4 {
		t.Fatalf("Length() = %d, want 4", a.Length())
	}
	for i := 0; i < 3; i++ {
		if !a.Get(i).IsUndefined() {
			t.Errorf("hole at index %d not undefined", i)
		}
	}
}

func TestArraySpliceAndSlice(t *testing.T) {
	a := NewArray()
	for i := 1; i <= 5; i++ {
		a.Push(NumberValue(float64(i)))
	}
	removed := a.Splice(1, 2, NumberValue(99))
	if removed.Length() != 2 {
		t.Fatalf("Splice removed %d elements, want 2", removed.Length())
	}
	if a.Length() != 4 {
		t.Fatalf("after splice Length() = %d, want 4", a.Length())
	}
	sl := a.Slice(-2, a.Length())
	if sl.Length() != 2 {
		t.Fatalf("negative-index Slice length = %d, want 2", sl.Length())
	}
}
