// Command relaxdump builds a small fixed demo program through
// internal/builder and pretty-prints the resulting IR, optionally
// running it through internal/normalize first. It exists to exercise
// the block builder and normalizer end-to-end outside of a test binary,
// the way the teacher's cmd/ailang exercises the evaluator outside of
// its own test suite.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/fatih/color"

	"github.com/sunholo/relaxir/internal/builder"
	"github.com/sunholo/relaxir/internal/diag"
	"github.com/sunholo/relaxir/internal/ir"
	"github.com/sunholo/relaxir/internal/normalize"
	"github.com/sunholo/relaxir/internal/oracle"
	"github.com/sunholo/relaxir/internal/registry"
)

var (
	bold = color.New(color.Bold).SprintFunc()
	cyan = color.New(color.FgCyan).SprintFunc()
	red  = color.New(color.FgRed).SprintFunc()
)

func main() {
	var (
		normalizeFlag = flag.Bool("normalize", false, "run the built program through the normalizing mutator")
		registryPath  = flag.String("registry", "", "path to a YAML operator registry (empty: unknown-shape fallback)")
	)
	flag.Parse()

	var reg registry.Registry = registry.Empty{}
	if *registryPath != "" {
		y, err := registry.LoadYaml(*registryPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", red("Error"), err)
			os.Exit(1)
		}
		reg = y
	}

	dctx := diag.New()
	fn, err := buildDemoProgram(reg, dctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", red("build failed"), err)
		os.Exit(1)
	}
	prog := ir.NewProgram(map[string]*ir.Function{"main": fn})

	fmt.Println(bold("-- built --"))
	fmt.Println(prog.String())

	for _, w := range dctx.Warnings() {
		fmt.Fprintf(os.Stderr, "%s: %s\n", cyan("warning"), w.Error())
	}

	if *normalizeFlag {
		out, err := normalize.Normalize(fn, reg, oracle.NewStructural(), dctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", red("normalize failed"), err)
			os.Exit(1)
		}
		normalizedFn, ok := out.(*ir.Function)
		if !ok {
			fmt.Fprintf(os.Stderr, "%s: normalize returned %T, not *ir.Function\n", red("internal error"), out)
			os.Exit(1)
		}
		normalizedProg := ir.NewProgram(map[string]*ir.Function{"main": normalizedFn})
		fmt.Println()
		fmt.Println(bold("-- normalized --"))
		fmt.Println(normalizedProg.String())
	}
}

// buildDemoProgram constructs, via the block builder, the function
//
//	fn(x) {
//	  dataflow {
//	    lv = add(x, x)
//	    lv1 = relu(lv)
//	    output lv1
//	  }
//	}
func buildDemoProgram(reg registry.Registry, dctx *diag.Ctx) (*ir.Function, error) {
	b := builder.New(reg, oracle.NewStructural(), dctx)
	defer b.Close()

	x := &ir.Var{VarId: ir.NewId("x", 1)}

	b.BeginDataflowBlock()

	sum, err := b.Emit(&ir.Call{Callee: &ir.Op{OpKey: "add"}, Args: []ir.Expr{x, x}}, "lv")
	if err != nil {
		return nil, err
	}
	activated, err := b.Emit(&ir.Call{Callee: &ir.Op{OpKey: "relu"}, Args: []ir.Expr{sum}}, "lv")
	if err != nil {
		return nil, err
	}
	out, err := b.EmitOutput(activated, "gv")
	if err != nil {
		return nil, err
	}

	dataflowBlk, err := b.EndBlock()
	if err != nil {
		return nil, err
	}

	body := &ir.SeqExpr{Blocks: []ir.BindingBlock{dataflowBlk}, Body: out}
	return &ir.Function{Params: []*ir.Var{x}, Body: body}, nil
}
