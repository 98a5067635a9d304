// Command metorex is the interpreter's CLI entry point (spec.md §6 "no
// persisted state, no wire protocols — just stdin/stdout/stderr and the
// filesystem"): run a script file, or drop into the REPL when no file is
// given.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kr/pretty"
	"github.com/mattn/go-isatty"

	"github.com/metorex-lang/metorex/internal/ast"
	"github.com/metorex-lang/metorex/internal/config"
	"github.com/metorex-lang/metorex/internal/diagnostics"
	"github.com/metorex-lang/metorex/internal/evaluator"
	"github.com/metorex-lang/metorex/internal/parser"
	"github.com/metorex-lang/metorex/internal/repl"
	"github.com/metorex-lang/metorex/internal/resolver"
	"github.com/metorex-lang/metorex/internal/token"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Internal error: %v\n", r)
			fmt.Fprintln(os.Stderr, "This is a bug. Please report it.")
			os.Exit(1)
		}
	}()

	debugMode := false
	warnMode := false
	var scriptPath string

	for _, arg := range os.Args[1:] {
		switch {
		case arg == "-debug" || arg == "--debug":
			debugMode = true
		case arg == "-warn" || arg == "--warn":
			warnMode = true
		case arg == "-version" || arg == "--version":
			fmt.Println("metorex " + config.Version)
			return
		case strings.HasPrefix(arg, "-"):
			fmt.Fprintf(os.Stderr, "unknown flag: %s\n", arg)
			os.Exit(1)
		default:
			if scriptPath == "" {
				scriptPath = arg
			}
		}
	}

	if scriptPath == "" {
		interactive := isatty.IsTerminal(os.Stdin.Fd())
		repl.New(os.Stdin, os.Stdout, interactive).Run()
		return
	}

	runFile(scriptPath, debugMode, warnMode)
}

func runFile(path string, debugMode, warnMode bool) {
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading %s: %s\n", path, err)
		os.Exit(1)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}
	baseDir := filepath.Dir(absPath)

	var cfg *config.ProjectConfig
	if cfgPath, _ := config.FindProjectConfig(baseDir); cfgPath != "" {
		loaded, err := config.LoadProjectConfig(cfgPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %s\n", err)
		} else {
			cfg = loaded
		}
	}

	p, err := parser.New(string(src))
	if err != nil {
		fmt.Fprintln(os.Stderr, diagnostics.New(diagnostics.SyntaxError, err.Error(), token.Position{}))
		os.Exit(1)
	}

	prog := p.ParseProgram()
	if errs := p.Errors(); len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintln(os.Stderr, diagnostics.New(diagnostics.SyntaxError, e.Message, e.Pos))
		}
		os.Exit(1)
	}

	if warnMode {
		for _, w := range resolver.Resolve(prog) {
			fmt.Fprintln(os.Stderr, "warning: "+w.String())
		}
	}

	ev := evaluator.New()
	ev.BaseDir = baseDir
	ev.Out = os.Stdout
	if cfg != nil && cfg.MaxCallDepth > 0 {
		ev.MaxCallDepth = cfg.MaxCallDepth
	}

	if debugMode {
		runDebug(ev, prog)
		return
	}

	if sig := run(ev, prog); sig != nil {
		reportUncaught(sig)
		os.Exit(1)
	}
}

// run evaluates prog and returns the escaping Signal, if any (only
// SigException can reach here: Evaluator.Run turns a top-level return into
// the program's value and a top-level break/continue into a RuntimeError
// exception).
func run(ev *evaluator.Evaluator, prog *ast.Program) *evaluator.Signal {
	_, sig := ev.Run(prog)
	return sig
}

// runDebug evaluates one top-level statement at a time so each result can
// be pretty-printed individually with kr/pretty, the corpus's own
// debug-dumping library.
func runDebug(ev *evaluator.Evaluator, prog *ast.Program) {
	for _, stmt := range prog.Statements {
		val, sig := ev.Run(&ast.Program{Statements: []ast.Statement{stmt}})
		if sig != nil {
			reportUncaught(sig)
			os.Exit(1)
		}
		pretty.Println(val)
	}
}

func reportUncaught(sig *evaluator.Signal) {
	exc, ok := sig.Value.(*evaluator.Exception)
	if !ok {
		fmt.Fprintln(os.Stderr, "uncaught exception:", sig.Value.Inspect())
		return
	}
	d := diagnostics.NewUncaught(exc.TypeName, exc.Message, token.Position{}, nil)
	fmt.Fprintln(os.Stderr, d)
	for _, frame := range exc.Backtrace {
		fmt.Fprintln(os.Stderr, "  "+frame)
	}
	for cause := exc.Cause; cause != nil; cause = cause.Cause {
		fmt.Fprintf(os.Stderr, "Caused by %s: %s\n", cause.TypeName, cause.Message)
	}
}
