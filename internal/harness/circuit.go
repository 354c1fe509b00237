package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/fhegraph/internal/ir"
)

// Circuit is a declarative circuit description.
// Inputs are appended first, then plain inputs, then one operation per step,
// then the outputs in the order listed.
type Circuit struct {
	// Name uniquely identifies this circuit and names its golden file.
	Name string `yaml:"name"`

	// Description explains what the circuit computes.
	Description string `yaml:"description"`

	// Params is a preset name or a parameter file path, relative to the
	// description file. Empty selects the default preset.
	Params string `yaml:"params,omitempty"`

	// Type is the logical value type: signed or unsigned.
	Type string `yaml:"type"`

	Inputs      []string `yaml:"inputs"`
	PlainInputs []string `yaml:"plain_inputs,omitempty"`
	Steps       []Step   `yaml:"steps"`
	Outputs     []string `yaml:"outputs"`

	// Assertions validate the compiled graph.
	// Supported types: op_count, node_count, edge, arity, depth, traced
	Assertions []Assertion `yaml:"assertions,omitempty"`

	dir  string
	file string

	inputPos      []position
	plainInputPos []position
	outputPos     []position
}

// Step binds the result of one operation to a name.
type Step struct {
	Let  string `yaml:"let"`
	Op   string `yaml:"op"`
	Args []Arg  `yaml:"args"`

	pos position
}

// position is a 1-based line and column in a description file.
type position struct {
	line int
	col  int
}

// positionAt returns the i-th position, or the zero position for entries
// that did not come from a parsed file.
func positionAt(pos []position, i int) position {
	if i < len(pos) {
		return pos[i]
	}
	return position{}
}

// Step operations.
const (
	OpAdd     = "add"
	OpSub     = "sub"
	OpMul     = "mul"
	OpNeg     = "neg"
	OpLiteral = "literal"
)

var stepArity = map[string]int{
	OpAdd:     2,
	OpSub:     2,
	OpMul:     2,
	OpNeg:     1,
	OpLiteral: 1,
}

// Arg is a step argument: either a bound name or an integer constant.
type Arg struct {
	Name  string
	Const bool

	text     string
	intVal   int64
	uintVal  uint64
	fitsInt  bool
	fitsUint bool
}

// NameArg refers to a previously bound name.
func NameArg(name string) Arg {
	return Arg{Name: name}
}

// IntArg is an integer constant.
func IntArg(v int64) Arg {
	return Arg{
		Const:    true,
		text:     strconv.FormatInt(v, 10),
		intVal:   v,
		uintVal:  uint64(v),
		fitsInt:  true,
		fitsUint: v >= 0,
	}
}

// UnmarshalYAML reads integers as constants and every other scalar as a name.
func (a *Arg) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: argument must be a name or an integer", node.Line)
	}
	if node.ShortTag() != "!!int" {
		*a = NameArg(node.Value)
		return nil
	}

	if v, err := strconv.ParseInt(node.Value, 0, 64); err == nil {
		*a = IntArg(v)
		return nil
	}
	u, err := strconv.ParseUint(node.Value, 0, 64)
	if err != nil {
		return fmt.Errorf("line %d: integer %s out of range", node.Line, node.Value)
	}
	*a = Arg{Const: true, text: node.Value, uintVal: u, fitsUint: true}
	return nil
}

func (a Arg) String() string {
	if a.Const {
		return a.text
	}
	return a.Name
}

// Assertion validates a compiled graph.
type Assertion struct {
	// Type specifies the assertion type:
	// - "op_count": Op appears exactly Count times
	// - "node_count": the graph has exactly Count nodes
	// - "edge": To consumes From at input Position
	// - "arity": every node has as many inputs as its operation takes
	// - "depth": the multiplicative depth is exactly Count
	// - "traced": every node has a recorded stack trace
	Type string `yaml:"type"`

	Op       string `yaml:"op,omitempty"`
	Count    int    `yaml:"count,omitempty"`
	From     string `yaml:"from,omitempty"`
	To       string `yaml:"to,omitempty"`
	Position int    `yaml:"position,omitempty"`
}

// Assertion type constants.
const (
	AssertOpCount   = "op_count"
	AssertNodeCount = "node_count"
	AssertEdge      = "edge"
	AssertArity     = "arity"
	AssertDepth     = "depth"
	AssertTraced    = "traced"
)

// Value types.
const (
	TypeSigned   = "signed"
	TypeUnsigned = "unsigned"
)

// LoadCircuit reads and parses a circuit description file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or fails validation.
func LoadCircuit(path string) (*Circuit, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read circuit file: %w", err)
	}

	c, err := ParseCircuit(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	c.dir = filepath.Dir(path)
	c.file = path
	return c, nil
}

// ParseCircuit parses a circuit description. Relative parameter file paths
// resolve against the working directory.
func ParseCircuit(data []byte) (*Circuit, error) {
	var c Circuit
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&c); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err == nil {
		locate(&c, &root)
	}

	c.Type = strings.ToLower(c.Type)
	if err := validateCircuit(&c); err != nil {
		return nil, fmt.Errorf("invalid circuit: %w", err)
	}
	return &c, nil
}

// locate records where every input, step and output appears in the
// document rooted at root.
func locate(c *Circuit, root *yaml.Node) {
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		return
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i], root.Content[i+1]
		if val.Kind != yaml.SequenceNode {
			continue
		}
		pos := make([]position, len(val.Content))
		for j, item := range val.Content {
			pos[j] = position{line: item.Line, col: item.Column}
		}

		switch key.Value {
		case "inputs":
			c.inputPos = pos
		case "plain_inputs":
			c.plainInputPos = pos
		case "outputs":
			c.outputPos = pos
		case "steps":
			for j := range c.Steps {
				c.Steps[j].pos = positionAt(pos, j)
			}
		}
	}
}

// validateCircuit checks that names are bound before use and that every
// step and assertion is well formed.
func validateCircuit(c *Circuit) error {
	if c.Name == "" {
		return fmt.Errorf("name is required")
	}
	if c.Type != TypeSigned && c.Type != TypeUnsigned {
		return fmt.Errorf("type must be %q or %q, got %q", TypeSigned, TypeUnsigned, c.Type)
	}
	if len(c.Inputs) == 0 {
		return fmt.Errorf("inputs list is required and must be non-empty")
	}
	if len(c.Outputs) == 0 {
		return fmt.Errorf("outputs list is required and must be non-empty")
	}

	bound := make(map[string]bool)
	bind := func(field, name string) error {
		if name == "" {
			return fmt.Errorf("%s: name is required", field)
		}
		if bound[name] {
			return fmt.Errorf("%s: %q is already bound", field, name)
		}
		bound[name] = true
		return nil
	}

	for i, name := range c.Inputs {
		if err := bind(fmt.Sprintf("inputs[%d]", i), name); err != nil {
			return err
		}
	}
	for i, name := range c.PlainInputs {
		if err := bind(fmt.Sprintf("plain_inputs[%d]", i), name); err != nil {
			return err
		}
	}

	for i, step := range c.Steps {
		arity, ok := stepArity[step.Op]
		if !ok {
			return fmt.Errorf("steps[%d]: unknown op %q", i, step.Op)
		}
		if len(step.Args) != arity {
			return fmt.Errorf("steps[%d]: %s takes %d args, got %d", i, step.Op, arity, len(step.Args))
		}
		for j, arg := range step.Args {
			if !arg.Const && !bound[arg.Name] {
				return fmt.Errorf("steps[%d].args[%d]: %q is not bound", i, j, arg.Name)
			}
		}
		if step.Op == OpLiteral && !step.Args[0].Const {
			return fmt.Errorf("steps[%d]: literal takes an integer", i)
		}
		if err := bind(fmt.Sprintf("steps[%d].let", i), step.Let); err != nil {
			return err
		}
	}

	for i, name := range c.Outputs {
		if !bound[name] {
			return fmt.Errorf("outputs[%d]: %q is not bound", i, name)
		}
	}

	for i := range c.Assertions {
		if err := validateAssertion(i, &c.Assertions[i], bound); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion, bound map[string]bool) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertOpCount:
		if !ir.Operation(a.Op).Valid() {
			return fmt.Errorf("assertions[%d]: unknown operation %q for op_count", index, a.Op)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for op_count", index)
		}
	case AssertNodeCount, AssertDepth:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for %s", index, a.Type)
		}
	case AssertEdge:
		if !bound[a.From] || !bound[a.To] {
			return fmt.Errorf("assertions[%d]: edge needs bound from and to, got %q → %q", index, a.From, a.To)
		}
		if a.Position < 0 {
			return fmt.Errorf("assertions[%d]: position must be non-negative for edge", index)
		}
	case AssertArity, AssertTraced:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
