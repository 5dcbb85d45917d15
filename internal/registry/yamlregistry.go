package registry

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/sunholo/relaxir/internal/diag"
	"github.com/sunholo/relaxir/internal/ir"
)

// opSpec is one operator's static inference result, as spelled in the
// YAML config file (same os.ReadFile + yaml.Unmarshal + required-field
// validation shape as the teacher's eval_harness.LoadSpec).
type opSpec struct {
	Name  string   `yaml:"name"`
	Rank  int      `yaml:"rank"`
	Dtype string   `yaml:"dtype"`
	Dims  []string `yaml:"dims"`
}

type yamlDoc struct {
	Ops []opSpec `yaml:"ops"`
}

// Yaml is a reference Registry backed by a static YAML table of
// per-operator shape/type results. It exists purely to exercise the
// block builder's eager-inference path end-to-end in tests and the
// demo tool (§1 scope explicitly treats the real registry as an
// external collaborator).
type Yaml struct {
	entries map[string]opSpec
}

// LoadYaml reads a registry config file of the form:
//
//	ops:
//	  - name: add
//	    rank: 1
//	    dtype: f32
//	    dims: ["N"]
func LoadYaml(path string) (*Yaml, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("registry: failed to read config: %w", err)
	}
	var doc yamlDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("registry: failed to parse YAML: %w", err)
	}
	entries := make(map[string]opSpec, len(doc.Ops))
	for _, op := range doc.Ops {
		if op.Name == "" {
			return nil, fmt.Errorf("registry: op entry missing required field: name")
		}
		if op.Dtype == "" {
			return nil, fmt.Errorf("registry: op %q missing required field: dtype", op.Name)
		}
		entries[op.Name] = op
	}
	return &Yaml{entries: entries}, nil
}

// NewYamlFromSpecs builds a Yaml registry directly from in-memory specs,
// for tests that would rather not write a config file to disk.
func NewYamlFromSpecs(specs map[string]struct {
	Rank  int
	Dtype string
	Dims  []string
}) *Yaml {
	entries := make(map[string]opSpec, len(specs))
	for name, s := range specs {
		entries[name] = opSpec{Name: name, Rank: s.Rank, Dtype: s.Dtype, Dims: s.Dims}
	}
	return &Yaml{entries: entries}
}

func (y *Yaml) lookup(call *ir.Call) (opSpec, bool) {
	op, ok := call.Callee.(*ir.Op)
	if !ok {
		return opSpec{}, false
	}
	s, ok := y.entries[op.OpKey]
	return s, ok
}

func (y *Yaml) InferShape(call *ir.Call, dctx *diag.Ctx) (ir.Expr, bool) {
	s, ok := y.lookup(call)
	if !ok {
		return nil, false
	}
	dims := make(ir.Dims, len(s.Dims))
	for i, d := range s.Dims {
		if n, err := strconv.ParseInt(d, 10, 64); err == nil {
			dims[i] = ir.IntImm{Value: n}
		} else {
			dims[i] = ir.SymVar{Name: d}
		}
	}
	return &ir.ShapeExpr{DimsVal: dims}, true
}

func (y *Yaml) InferType(call *ir.Call, dctx *diag.Ctx) (ir.Type, bool) {
	s, ok := y.lookup(call)
	if !ok {
		return nil, false
	}
	rank := s.Rank
	return ir.DynTensorType{Rank: &rank, Dtype: ir.DType(s.Dtype)}, true
}
