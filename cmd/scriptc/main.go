// Command scriptc is a standalone harness for compiling and running one
// script file against a tiny demonstration parser (int out; int a, b).
// It exists to exercise the engine end to end outside of a host game
// binary — grounded on cmd/funxy/main.go's flag/arg handling, trimmed
// to this engine's narrower surface.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"

	"github.com/vantage-games/scriptvm/pkg/script"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "internal error: %v\n", r)
			os.Exit(1)
		}
	}()

	disasm := flag.Bool("disasm", false, "print the compiled bytecode listing instead of running it")
	aVal := flag.Int64("a", 0, "value bound to input register a")
	bVal := flag.Int64("b", 0, "value bound to input register b")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: scriptc [-disasm] [-a N] [-b N] <script-file>")
		os.Exit(2)
	}

	runID := uuid.New()
	colorize := isatty.IsTerminal(os.Stderr.Fd())

	source, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		reportf(colorize, "cannot read %s: %v", flag.Arg(0), err)
		os.Exit(1)
	}

	p := script.New[int64]("scriptc", "out")
	p.AddInput("a", script.Int, 8)
	p.AddInput("b", script.Int, 8)

	container, err := p.Parse(string(source))
	if err != nil {
		reportf(colorize, "[%s] compile error: %v", runID, err)
		os.Exit(1)
	}

	if *disasm {
		fmt.Println(script.Disassemble(container, flag.Arg(0)))
		return
	}

	w := script.NewWorker(p, 0)
	script.SetInput(p, w, "a", *aVal)
	script.SetInput(p, w, "b", *bVal)

	if err := script.Execute(w, container); err != nil {
		reportf(colorize, "[%s] runtime error: %v", runID, err)
		os.Exit(1)
	}

	fmt.Println(script.Output(p, w))
}

func reportf(colorize bool, format string, args ...any) {
	if colorize {
		fmt.Fprintf(os.Stderr, "\x1b[31m"+format+"\x1b[0m\n", args...)
		return
	}
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}
