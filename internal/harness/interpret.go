package harness

import (
	"fmt"

	"github.com/roach88/fhegraph/internal/circuit"
	"github.com/roach88/fhegraph/internal/fhe"
	"github.com/roach88/fhegraph/internal/ir"
)

type operandKind int

const (
	kindCipher operandKind = iota
	kindPlain
	kindConst
)

type operand[T fhe.Type] struct {
	kind   operandKind
	cipher fhe.Cipher[T]
	plain  fhe.Plain[T]
	value  T
}

// binaryForms holds the typed entry points of one arithmetic operation, one
// per operand kind combination.
type binaryForms[T fhe.Type] struct {
	cc func(*circuit.Builder, fhe.Cipher[T], fhe.Cipher[T]) fhe.Cipher[T]
	cp func(*circuit.Builder, fhe.Cipher[T], fhe.Plain[T]) fhe.Cipher[T]
	pc func(*circuit.Builder, fhe.Plain[T], fhe.Cipher[T]) fhe.Cipher[T]
	ck func(*circuit.Builder, fhe.Cipher[T], T) fhe.Cipher[T]
	kc func(*circuit.Builder, T, fhe.Cipher[T]) fhe.Cipher[T]
}

func formsFor[T fhe.Type](op string) binaryForms[T] {
	switch op {
	case OpAdd:
		return binaryForms[T]{fhe.Add[T], fhe.AddPlain[T], fhe.PlainAdd[T], fhe.AddConst[T], fhe.ConstAdd[T]}
	case OpSub:
		return binaryForms[T]{fhe.Sub[T], fhe.SubPlain[T], fhe.PlainSub[T], fhe.SubConst[T], fhe.ConstSub[T]}
	default:
		return binaryForms[T]{fhe.Mul[T], fhe.MulPlain[T], fhe.PlainMul[T], fhe.MulConst[T], fhe.ConstMul[T]}
	}
}

// site tracks the description entry the interpreter is appending nodes for.
// Its frame becomes the innermost frame of each node's trace.
type site struct {
	file  string
	frame *ir.StackFrame
}

func (s *site) enter(name string, p position) {
	s.frame = &ir.StackFrame{
		CalleeName:   name,
		CalleeFile:   s.file,
		CalleeLineno: uint32(p.line),
		CalleeCol:    uint32(p.col),
	}
}

func (s *site) frames() []ir.StackFrame {
	if s.frame == nil {
		return nil
	}
	return []ir.StackFrame{*s.frame}
}

// interpreter appends a circuit description to a Builder. names records the
// node id each bound name resolved to.
type interpreter[T fhe.Type] struct {
	b      *circuit.Builder
	values map[string]operand[T]
	names  map[string]ir.NodeID
	site   *site
}

func buildFunc[T fhe.Type](c *Circuit, names map[string]ir.NodeID, loc *site) func(*circuit.Builder) error {
	return func(b *circuit.Builder) error {
		in := &interpreter[T]{b: b, values: make(map[string]operand[T]), names: names, site: loc}
		return in.run(c)
	}
}

func (in *interpreter[T]) run(c *Circuit) error {
	for i, name := range c.Inputs {
		in.site.enter("input "+name, positionAt(c.inputPos, i))
		in.bind(name, operand[T]{kind: kindCipher, cipher: fhe.Input[T](in.b)})
	}
	for i, name := range c.PlainInputs {
		in.site.enter("plain_input "+name, positionAt(c.plainInputPos, i))
		in.bind(name, operand[T]{kind: kindPlain, plain: fhe.PlainInput[T](in.b)})
	}

	for i, step := range c.Steps {
		in.site.enter("let "+step.Let, step.pos)
		v, err := in.step(step)
		if err != nil {
			return fmt.Errorf("steps[%d] (%s): %w", i, step.Let, err)
		}
		in.bind(step.Let, v)
	}

	for i, name := range c.Outputs {
		v, ok := in.values[name]
		if !ok {
			return fmt.Errorf("outputs[%d]: %q is not bound", i, name)
		}
		if v.kind != kindCipher {
			return fmt.Errorf("outputs[%d]: %q is not a ciphertext", i, name)
		}
		in.site.enter("output "+name, positionAt(c.outputPos, i))
		fhe.Output(in.b, v.cipher)
	}
	return nil
}

func (in *interpreter[T]) bind(name string, v operand[T]) {
	in.values[name] = v
	var ids []ir.NodeID
	switch v.kind {
	case kindCipher:
		ids = v.cipher.Nodes()
	case kindPlain:
		ids = v.plain.Nodes()
	}
	if len(ids) > 0 {
		in.names[name] = ids[0]
	}
}

func (in *interpreter[T]) resolve(a Arg) (operand[T], error) {
	if a.Const {
		v, err := constantOf[T](a)
		if err != nil {
			return operand[T]{}, err
		}
		return operand[T]{kind: kindConst, value: v}, nil
	}
	v, ok := in.values[a.Name]
	if !ok {
		return operand[T]{}, fmt.Errorf("%q is not bound", a.Name)
	}
	return v, nil
}

func (in *interpreter[T]) step(s Step) (operand[T], error) {
	args := make([]operand[T], len(s.Args))
	for i, a := range s.Args {
		v, err := in.resolve(a)
		if err != nil {
			return operand[T]{}, err
		}
		args[i] = v
	}

	switch s.Op {
	case OpLiteral:
		if len(args) != 1 || args[0].kind != kindConst {
			return operand[T]{}, fmt.Errorf("literal takes one integer")
		}
		return operand[T]{kind: kindPlain, plain: fhe.Literal(in.b, args[0].value)}, nil

	case OpNeg:
		if len(args) != 1 || args[0].kind != kindCipher {
			return operand[T]{}, fmt.Errorf("neg takes one ciphertext")
		}
		return operand[T]{kind: kindCipher, cipher: fhe.Neg(in.b, args[0].cipher)}, nil

	case OpAdd, OpSub, OpMul:
		if len(args) != 2 {
			return operand[T]{}, fmt.Errorf("%s takes two operands", s.Op)
		}
		c, err := in.binary(formsFor[T](s.Op), s.Op, args[0], args[1])
		if err != nil {
			return operand[T]{}, err
		}
		return operand[T]{kind: kindCipher, cipher: c}, nil
	}
	return operand[T]{}, fmt.Errorf("unknown op %q", s.Op)
}

func (in *interpreter[T]) binary(f binaryForms[T], op string, l, r operand[T]) (fhe.Cipher[T], error) {
	switch {
	case l.kind == kindCipher && r.kind == kindCipher:
		return f.cc(in.b, l.cipher, r.cipher), nil
	case l.kind == kindCipher && r.kind == kindPlain:
		return f.cp(in.b, l.cipher, r.plain), nil
	case l.kind == kindPlain && r.kind == kindCipher:
		return f.pc(in.b, l.plain, r.cipher), nil
	case l.kind == kindCipher && r.kind == kindConst:
		return f.ck(in.b, l.cipher, r.value), nil
	case l.kind == kindConst && r.kind == kindCipher:
		return f.kc(in.b, l.value, r.cipher), nil
	}
	return fhe.Cipher[T]{}, fmt.Errorf("%s needs at least one ciphertext operand", op)
}

// constantOf converts an integer argument to T, rejecting values T cannot hold.
func constantOf[T fhe.Type](a Arg) (T, error) {
	var zero T
	switch any(zero).(type) {
	case fhe.Signed:
		if !a.fitsInt {
			return zero, fmt.Errorf("constant %s overflows a signed value", a)
		}
		return T(a.intVal), nil
	default:
		if !a.fitsUint {
			return zero, fmt.Errorf("constant %s is not a valid unsigned value", a)
		}
		return T(a.uintVal), nil
	}
}
