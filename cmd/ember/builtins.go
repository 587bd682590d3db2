package main

import (
	"fmt"

	"ember/value"
	"ember/vm"
)

// installBuiltins registers the small set of native functions the CLI
// host exposes to scripts. spec.md scopes a full standard library
// (console/fs/JSON/timers) outside the engine's core subsystems; these
// three are the minimal host-provided surface spec.md §6 itself
// describes (gc/memory_usage) plus `print`, the one I/O primitive a
// REPL needs to be usable at all.
func installBuiltins(ctx *vm.Context) {
	must(ctx.DefineGlobalFunction("print", builtinPrint))
	must(ctx.DefineGlobalFunction("gc", func(this value.Value, args []value.Value) (value.Value, error) {
		stats := ctx.GC()
		return value.NumberValue(float64(stats.BytesRetained())), nil
	}))
	must(ctx.DefineGlobalFunction("memory_usage", func(this value.Value, args []value.Value) (value.Value, error) {
		return value.NumberValue(float64(ctx.MemoryUsage())), nil
	}))
}

func builtinPrint(this value.Value, args []value.Value) (value.Value, error) {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = value.ToString(a)
	}
	for i, p := range parts {
		if i > 0 {
			fmt.Print(" ")
		}
		fmt.Print(p)
	}
	fmt.Println()
	return value.UndefinedValue(), nil
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}
