// Package repl implements an interactive console over the block
// builder (§4.6): each line drives one builder operation (begin a
// block, emit a call, close a block, normalize) instead of parsing and
// evaluating a source language — there is no front-end left to parse.
// It is grounded on the teacher's internal/repl/repl.go for its
// liner-backed readline loop, history file, and colorized prompt, and
// on its :command dispatch style from repl_commands.go.
package repl

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/peterh/liner"

	"github.com/sunholo/relaxir/internal/builder"
	"github.com/sunholo/relaxir/internal/diag"
	"github.com/sunholo/relaxir/internal/ir"
	"github.com/sunholo/relaxir/internal/normalize"
	"github.com/sunholo/relaxir/internal/oracle"
	"github.com/sunholo/relaxir/internal/registry"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
	dim    = color.New(color.Faint).SprintFunc()
)

// REPL drives a builder.Builder one command at a time, keeping a name
// -> bound Expr table so later commands can reference earlier results
// by their display name.
type REPL struct {
	reg     registry.Registry
	oc      oracle.Oracle
	dctx    *diag.Ctx
	b       *builder.Builder
	history []string
	vars    map[string]ir.Expr
}

// New creates a REPL with no registry wired in (every op's shape/type
// is reported unknown — §4.6 "absence of an entry is unknown, never an
// error").
func New() *REPL {
	return NewWithRegistry(registry.Empty{})
}

// NewWithRegistry creates a REPL backed by reg for eager inference.
func NewWithRegistry(reg registry.Registry) *REPL {
	dctx := diag.New()
	return &REPL{
		reg:  reg,
		oc:   oracle.NewStructural(),
		dctx: dctx,
		b:    builder.New(reg, oracle.NewStructural(), dctx),
		vars: make(map[string]ir.Expr),
	}
}

// isInteractive reports whether stdin is a real terminal, mirroring
// the teacher's readline-vs-pipe distinction: a piped script still
// needs to work, just without the fancy prompt.
func isInteractive() bool {
	return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
}

func (r *REPL) prompt() string {
	depth := r.b.Depth()
	if depth == 0 {
		return "builder> "
	}
	return fmt.Sprintf("builder[%d]> ", depth)
}

// Start begins the interactive loop, reading commands from in and
// writing output/prompts to out.
func (r *REPL) Start(in io.Reader, out io.Writer) {
	if !isInteractive() {
		color.NoColor = true
	}

	line := liner.NewLiner()
	defer line.Close()
	line.SetMultiLineMode(false)

	historyFile := filepath.Join(os.TempDir(), ".relaxir_repl_history")
	if f, err := os.Open(historyFile); err == nil {
		_, _ = line.ReadHistory(f)
		f.Close()
	}

	line.SetCompleter(func(l string) (c []string) {
		if strings.HasPrefix(l, ":") {
			for _, cmd := range commandNames {
				if strings.HasPrefix(cmd, l) {
					c = append(c, cmd)
				}
			}
		}
		return
	})

	fmt.Fprintf(out, "%s\n", bold("relaxir builder console"))
	fmt.Fprintln(out, dim("Type :help for commands, :quit to exit"))

	for {
		input, err := line.Prompt(r.prompt())
		if err == io.EOF {
			fmt.Fprintln(out, green("\nGoodbye!"))
			break
		}
		if err != nil {
			fmt.Fprintf(out, "%s: %v\n", red("Error"), err)
			continue
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)
		r.history = append(r.history, input)

		if input == ":quit" || input == ":q" || input == ":exit" {
			fmt.Fprintln(out, green("Goodbye!"))
			break
		}
		r.Eval(input, out)
	}

	if f, err := os.Create(historyFile); err == nil {
		_, _ = line.WriteHistory(f)
		f.Close()
	}
}

var commandNames = []string{
	":help", ":quit", ":begin_dataflow", ":begin_binding", ":end_block",
	":emit", ":emit_output", ":emit_match_shape", ":normalize", ":vars",
	":warnings", ":reset",
}

// Eval interprets a single line of console input (exported so an
// embedder can drive the console programmatically, e.g. from a
// non-interactive script or a test).
func (r *REPL) Eval(line string, out io.Writer) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return
	}

	switch fields[0] {
	case ":help":
		r.printHelp(out)
	case ":begin_dataflow":
		r.b.BeginDataflowBlock()
		fmt.Fprintln(out, dim("opened dataflow block"))
	case ":begin_binding":
		r.b.BeginBindingBlock()
		fmt.Fprintln(out, dim("opened binding block"))
	case ":end_block":
		blk, err := r.b.EndBlock()
		if err != nil {
			r.reportErr(out, err)
			return
		}
		fmt.Fprintln(out, blk.String())
	case ":emit":
		r.cmdEmit(fields[1:], out)
	case ":emit_output":
		r.cmdEmitOutput(fields[1:], out)
	case ":emit_match_shape":
		r.cmdEmitMatchShape(fields[1:], out)
	case ":normalize":
		r.cmdNormalize(fields[1:], out)
	case ":vars":
		r.cmdVars(out)
	case ":warnings":
		for _, w := range r.dctx.Warnings() {
			fmt.Fprintln(out, yellow(w.Error()))
		}
	case ":reset":
		r.dctx = diag.New()
		r.b = builder.New(r.reg, r.oc, r.dctx)
		r.vars = make(map[string]ir.Expr)
		fmt.Fprintln(out, green("builder reset"))
	default:
		fmt.Fprintf(out, "%s: unknown command %q (:help for a list)\n", red("Error"), fields[0])
	}
}

// cmdEmit: ":emit <hint> <op> [arg...]" builds Call{Op(op), args...}
// from previously bound names (or bare integer literals) and emits it.
func (r *REPL) cmdEmit(args []string, out io.Writer) {
	if len(args) < 2 {
		fmt.Fprintln(out, "usage: :emit <hint> <op> [arg...]")
		return
	}
	hint, op, rest := args[0], args[1], args[2:]
	callArgs := make([]ir.Expr, 0, len(rest))
	for _, a := range rest {
		callArgs = append(callArgs, r.resolveOperand(a))
	}
	bound, err := r.b.Emit(&ir.Call{Callee: &ir.Op{OpKey: op}, Args: callArgs}, hint)
	if err != nil {
		r.reportErr(out, err)
		return
	}
	r.bindVar(bound)
	fmt.Fprintf(out, "%s = %s\n", cyan(bound.String()), bound.String())
}

func (r *REPL) cmdEmitOutput(args []string, out io.Writer) {
	if len(args) < 2 {
		fmt.Fprintln(out, "usage: :emit_output <hint> <var>")
		return
	}
	bound, err := r.b.EmitOutput(r.resolveOperand(args[1]), args[0])
	if err != nil {
		r.reportErr(out, err)
		return
	}
	r.bindVar(bound)
	fmt.Fprintf(out, "%s = %s\n", cyan(bound.String()), bound.String())
}

// bindVar registers bound under its bare display name (without the "%"
// sigil a DataflowVar adds to String()), so later
// commands can refer to it by the same name they used as a hint.
func (r *REPL) bindVar(bound ir.Expr) {
	if id, ok := ir.VarIdOf(bound); ok {
		r.vars[id.Name()] = bound
		return
	}
	r.vars[bound.String()] = bound
}

// cmdEmitMatchShape: ":emit_match_shape <hint|-> <var> [dim...]"
func (r *REPL) cmdEmitMatchShape(args []string, out io.Writer) {
	if len(args) < 2 {
		fmt.Fprintln(out, "usage: :emit_match_shape <hint|-> <var> [dim...]")
		return
	}
	hint := args[0]
	if hint == "-" {
		hint = ""
	}
	val := r.resolveOperand(args[1])
	dims := make(ir.Dims, 0, len(args)-2)
	for _, d := range args[2:] {
		if n, err := strconv.ParseInt(d, 10, 64); err == nil {
			dims = append(dims, ir.IntImm{Value: n})
		} else {
			dims = append(dims, ir.SymVar{Name: d})
		}
	}
	bound, err := r.b.EmitMatchShape(val, dims, hint)
	if err != nil {
		r.reportErr(out, err)
		return
	}
	if bound == nil {
		fmt.Fprintln(out, dim("constrained (no binding)"))
		return
	}
	r.bindVar(bound)
	fmt.Fprintf(out, "%s = %s\n", cyan(bound.String()), bound.String())
}

func (r *REPL) cmdNormalize(args []string, out io.Writer) {
	if len(args) < 1 {
		fmt.Fprintln(out, "usage: :normalize <var>")
		return
	}
	expr := r.resolveOperand(args[0])
	result, err := normalize.Normalize(expr, r.reg, r.oc, r.dctx)
	if err != nil {
		r.reportErr(out, err)
		return
	}
	fmt.Fprintln(out, result.String())
}

func (r *REPL) cmdVars(out io.Writer) {
	if len(r.vars) == 0 {
		fmt.Fprintln(out, dim("(no bound vars yet)"))
		return
	}
	for name, e := range r.vars {
		fmt.Fprintf(out, "%s = %s\n", cyan(name), e.String())
	}
}

// resolveOperand maps a console token to an Expr: a previously bound
// var by name, an integer literal, or (failing both) a Var named tok
// (Id counter 0) treated as a symbolic placeholder.
func (r *REPL) resolveOperand(tok string) ir.Expr {
	if v, ok := r.vars[tok]; ok {
		return v
	}
	if n, err := strconv.ParseInt(tok, 10, 64); err == nil {
		return &ir.Constant{Value: n}
	}
	return &ir.Var{VarId: ir.NewId(tok, 0)}
}

func (r *REPL) reportErr(out io.Writer, err error) {
	if code, ok := diag.CodeOf(err); ok {
		fmt.Fprintf(out, "%s [%s]: %v\n", red("Error"), code, err)
		return
	}
	fmt.Fprintf(out, "%s: %v\n", red("Error"), err)
}

func (r *REPL) printHelp(out io.Writer) {
	fmt.Fprintln(out, bold("Commands:"))
	fmt.Fprintf(out, "  %s                          open a dataflow block\n", cyan(":begin_dataflow"))
	fmt.Fprintf(out, "  %s                           open an ordinary binding block\n", cyan(":begin_binding"))
	fmt.Fprintf(out, "  %s                              close the innermost block\n", cyan(":end_block"))
	fmt.Fprintf(out, "  %s <hint> <op> [arg...]           emit a call, binding its result to <hint>\n", cyan(":emit"))
	fmt.Fprintf(out, "  %s <hint> <var>            surface <var> as this block's output\n", cyan(":emit_output"))
	fmt.Fprintf(out, "  %s <hint|-> <var> [dim...] constrain/bind a shape match\n", cyan(":emit_match_shape"))
	fmt.Fprintf(out, "  %s <var>                    run the normalizing mutator over <var>\n", cyan(":normalize"))
	fmt.Fprintln(out, "  "+cyan(":vars")+"                              list bound vars")
	fmt.Fprintln(out, "  "+cyan(":warnings")+"                          list accumulated warnings")
	fmt.Fprintln(out, "  "+cyan(":reset")+"                             discard all state and start over")
	fmt.Fprintln(out, "  "+cyan(":quit")+"                              exit")
}
