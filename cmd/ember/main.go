// Command ember is the Ember script engine's CLI: a REPL with no
// positional argument, a file runner with one.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"ember"
	"ember/heap"
	"ember/manifest"
	"ember/value"
	"ember/vm"
)

func main() {
	showVersion := flag.Bool("version", false, "print the engine version and exit")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: ember [options] [script.ember]\n\n")
		fmt.Fprintf(os.Stderr, "With no script argument, starts an interactive REPL.\n")
		fmt.Fprintf(os.Stderr, "With one, compiles and runs it, then exits.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *showVersion {
		fmt.Println(ember.Version)
		return
	}

	cfg := heap.Config{}
	if m, err := manifest.FindAndLoad("."); err == nil && m != nil {
		young, max := m.HeapConfig()
		cfg.InitialYoungBytes = young
		cfg.MaxHeapBytes = max
	}

	rt := vm.NewRuntime(cfg)
	ctx, err := vm.NewContext(rt)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ember: cannot create runtime context: %v\n", err)
		os.Exit(1)
	}
	installBuiltins(ctx)

	args := flag.Args()
	if len(args) == 0 {
		runREPL(ctx)
		return
	}

	os.Exit(runFile(ctx, args[0]))
}

// runFile compiles and executes path, per spec.md §6: "treats it as a
// source file path, executes it, prints a completion notice". Non-zero
// exit code on evaluation failure.
func runFile(ctx *vm.Context, path string) int {
	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ember: %v\n", err)
		return 1
	}

	_, err = ctx.Eval(string(source), path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ember: %v\n", err)
		return 1
	}
	fmt.Printf("ember: %s completed\n", path)
	return 0
}

// runREPL reads one line at a time from stdin and executes each as a
// statement, per spec.md §6. No multi-line continuation — the simpler
// one-statement-per-line behavior is kept rather than reintroduced, same
// as the original shell it's descended from.
func runREPL(ctx *vm.Context) {
	fmt.Printf("Ember %s REPL (type 'help' for commands, 'exit' to quit)\n", ember.Version)
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch line {
		case "help":
			printHelp()
			continue
		case "clear":
			fmt.Print("\033[H\033[2J")
			continue
		case "exit", "quit":
			return
		case ".gc":
			stats := ctx.GC()
			fmt.Printf("gc: collected, %d bytes retained\n", stats.BytesRetained())
			continue
		case ".stats":
			fmt.Printf("memory_usage: %d bytes\n", ctx.MemoryUsage())
			continue
		}

		if dumped, ok := strings.CutPrefix(line, ".dump "); ok {
			evalAndDump(ctx, dumped)
			continue
		}

		evalAndPrint(ctx, line)
	}
	fmt.Println()
}

func evalAndPrint(ctx *vm.Context, source string) {
	result, err := ctx.Eval(source, "<repl>")
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return
	}
	if !result.IsUndefined() {
		fmt.Println(value.ToString(result))
	}
}

// evalAndDump implements the `.dump <expr>` shell command from
// SPEC_FULL.md's supplemented features, a debug pretty-printer lifted
// from the original engine's mjs_dump_value.
func evalAndDump(ctx *vm.Context, source string) {
	result, err := ctx.Eval(source, "<repl>")
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return
	}
	value.Dump(os.Stdout, result)
}

func printHelp() {
	fmt.Println("Shell commands:")
	fmt.Println("  help          show this message")
	fmt.Println("  clear         clear the screen")
	fmt.Println("  exit, quit    terminate the REPL")
	fmt.Println("  .gc           force a full garbage collection")
	fmt.Println("  .stats        print current memory usage")
	fmt.Println("  .dump <expr>  evaluate expr and pretty-print its value")
}
