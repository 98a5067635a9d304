// Package repl implements Metorex's minimal line-at-a-time REPL, grounded
// on original_source/src/repl.rs's read-accumulate-eval loop: read a line,
// keep accumulating more input while the buffered source is missing a
// closing `end`/brace/paren, evaluate the result in one persistent
// environment, and print the result's Inspect() form.
package repl

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/metorex-lang/metorex/internal/evaluator"
	"github.com/metorex-lang/metorex/internal/parser"
)

// Prompt and ContinuePrompt are printed before reading a line; ContinuePrompt
// is used while more input is needed to complete a statement.
var (
	Prompt         = ">> "
	ContinuePrompt = ".. "
)

// REPL holds the persistent state across evaluated lines.
type REPL struct {
	ev     *evaluator.Evaluator
	out    io.Writer
	in     *bufio.Scanner
	prompt bool // whether to print prompts (interactive tty mode)
}

// New builds a REPL reading from in and writing results/prompts to out. The
// Evaluator's own Out is redirected to out so puts/print output interleaves
// correctly with REPL prompts and results.
func New(in io.Reader, out io.Writer, interactive bool) *REPL {
	ev := evaluator.New()
	ev.Out = out
	return &REPL{ev: ev, out: out, in: bufio.NewScanner(in), prompt: interactive}
}

// Run drives the read-accumulate-eval loop until input is exhausted.
func (r *REPL) Run() {
	var buf strings.Builder
	for {
		if r.prompt {
			if buf.Len() == 0 {
				fmt.Fprint(r.out, Prompt)
			} else {
				fmt.Fprint(r.out, ContinuePrompt)
			}
		}
		if !r.in.Scan() {
			return
		}
		if buf.Len() > 0 {
			buf.WriteByte('\n')
		}
		buf.WriteString(r.in.Text())

		src := buf.String()
		p, err := parser.New(src)
		if err != nil {
			fmt.Fprintln(r.out, "lex error:", err)
			buf.Reset()
			continue
		}
		prog := p.ParseProgram()
		errs := p.Errors()
		if len(errs) > 0 {
			if needsMoreInput(errs) {
				continue // keep accumulating; don't reset buf
			}
			for _, e := range errs {
				fmt.Fprintln(r.out, e.Error())
			}
			buf.Reset()
			continue
		}
		buf.Reset()

		val, sig := r.ev.Run(prog)
		if sig != nil && sig.Kind == evaluator.SigException {
			fmt.Fprintln(r.out, "uncaught exception:", sig.Value.Inspect())
			continue
		}
		if val != nil {
			fmt.Fprintln(r.out, "=> "+val.Inspect())
		}
	}
}

// needsMoreInput reports whether every accumulated error looks like the
// parser simply ran out of tokens mid-construct (an unterminated `def`,
// `class`, `if`, block, or bracket), as opposed to a genuine syntax error
// the user needs to fix rather than continue typing.
func needsMoreInput(errs []*parser.Error) bool {
	for _, e := range errs {
		if !strings.Contains(e.Message, "got EOF") {
			return false
		}
	}
	return true
}
