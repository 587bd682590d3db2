package value

import (
	"fmt"
	"io"
	"strings"
)

// Dump writes a debug pretty-print of v to w, recursing into objects and
// arrays. It is the Go counterpart of the original engine's
// mjs_dump_value, kept as a supplemental debugging aid for the CLI's
// `.dump` command and the LSP's hover text.
func Dump(w io.Writer, v Value) {
	dump(w, v, 0, make(map[any]bool))
}

func dump(w io.Writer, v Value, depth int, seen map[any]bool) {
	indent := strings.Repeat("  ", depth)
	switch v.Tag() {
	case Undefined, Null, Boolean, Number, StringTag:
		fmt.Fprintf(w, "%s%s(%s)\n", indent, v.Tag(), ToString(v))
	case ObjectTag:
		o := v.Obj()
		if seen[o] {
			fmt.Fprintf(w, "%sobject(<cycle>)\n", indent)
			return
		}
		seen[o] = true
		fmt.Fprintf(w, "%sobject {\n", indent)
		for p := o.Properties; p != nil; p = p.Next {
			fmt.Fprintf(w, "%s  %s:\n", indent, p.Key.Text())
			dump(w, p.Value, depth+2, seen)
		}
		fmt.Fprintf(w, "%s}\n", indent)
	case ArrayTag:
		a := v.Arr()
		if seen[a] {
			fmt.Fprintf(w, "%sarray(<cycle>)\n", indent)
			return
		}
		seen[a] = true
		fmt.Fprintf(w, "%sarray[%d] {\n", indent, a.Length())
		for i := 0; i < a.Length(); i++ {
			dump(w, a.Get(i), depth+1, seen)
		}
		fmt.Fprintf(w, "%s}\n", indent)
	case FunctionTag:
		f := v.Fn()
		name := "anonymous"
		if f.Name != nil {
			name = f.Name.Text()
		}
		kind := "bytecode"
		if f.IsNative() {
			kind = "native"
		}
		fmt.Fprintf(w, "%sfunction %s(%s)\n", indent, name, kind)
	default:
		fmt.Fprintf(w, "%s%s\n", indent, v.Tag())
	}
}
