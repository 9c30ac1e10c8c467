package formula

import (
	"math"

	apperrors "github.com/matzehuels/energyatlas/pkg/errors"
)

// Grammar:
//
//	expr    = term { ("+" | "-") term }
//	term    = unary { ("*" | "/" | "%") unary }
//	unary   = ("-" | "+") unary | power
//	power   = primary [ ("^" | "**") unary ]
//	primary = number | field | func "(" expr { "," expr } ")" | "(" expr ")"

type node interface {
	eval(env Env) (float64, error)
}

type numberNode float64

type fieldNode string

type negNode struct{ x node }

type binaryNode struct {
	op   byte
	l, r node
}

type callNode struct {
	name string
	fn   function
	args []node
}

type function struct {
	arity int // -1: at least one
	call  func(args []float64) float64
}

var functions = map[string]function{
	"abs":  {1, func(a []float64) float64 { return math.Abs(a[0]) }},
	"sqrt": {1, func(a []float64) float64 { return math.Sqrt(a[0]) }},
	"log":  {1, func(a []float64) float64 { return math.Log(a[0]) }},
	"exp":  {1, func(a []float64) float64 { return math.Exp(a[0]) }},
	"pow":  {2, func(a []float64) float64 { return math.Pow(a[0], a[1]) }},
	"min": {-1, func(a []float64) float64 {
		m := a[0]
		for _, v := range a[1:] {
			m = math.Min(m, v)
		}
		return m
	}},
	"max": {-1, func(a []float64) float64 {
		m := a[0]
		for _, v := range a[1:] {
			m = math.Max(m, v)
		}
		return m
	}},
}

type parser struct {
	toks   []token
	pos    int
	fields map[string]bool
	used   []string
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) errorf(t token, format string, args ...any) error {
	return apperrors.New(apperrors.ErrCodeInvalidFormula, "at %d: "+format, append([]any{t.pos + 1}, args...)...)
}

func (p *parser) expr() (node, error) {
	l, err := p.term()
	if err != nil {
		return nil, err
	}
	for t := p.peek(); t.kind == tokOp && (t.text == "+" || t.text == "-"); t = p.peek() {
		p.next()
		r, err := p.term()
		if err != nil {
			return nil, err
		}
		l = binaryNode{op: t.text[0], l: l, r: r}
	}
	return l, nil
}

func (p *parser) term() (node, error) {
	l, err := p.unary()
	if err != nil {
		return nil, err
	}
	for t := p.peek(); t.kind == tokOp && (t.text == "*" || t.text == "/" || t.text == "%"); t = p.peek() {
		p.next()
		r, err := p.unary()
		if err != nil {
			return nil, err
		}
		l = binaryNode{op: t.text[0], l: l, r: r}
	}
	return l, nil
}

func (p *parser) unary() (node, error) {
	if t := p.peek(); t.kind == tokOp && (t.text == "-" || t.text == "+") {
		p.next()
		x, err := p.unary()
		if err != nil {
			return nil, err
		}
		if t.text == "-" {
			return negNode{x}, nil
		}
		return x, nil
	}
	return p.power()
}

func (p *parser) power() (node, error) {
	base, err := p.primary()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind == tokOp && t.text == "^" {
		p.next()
		exp, err := p.unary()
		if err != nil {
			return nil, err
		}
		return binaryNode{op: '^', l: base, r: exp}, nil
	}
	return base, nil
}

func (p *parser) primary() (node, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		return numberNode(t.num), nil
	case tokLParen:
		x, err := p.expr()
		if err != nil {
			return nil, err
		}
		if c := p.next(); c.kind != tokRParen {
			return nil, p.errorf(c, "expected )")
		}
		return x, nil
	case tokIdent:
		if p.peek().kind == tokLParen {
			return p.call(t)
		}
		if !p.fields[t.text] {
			return nil, p.errorf(t, "unknown field %q", t.text)
		}
		p.used = append(p.used, t.text)
		return fieldNode(t.text), nil
	case tokEOF:
		return nil, p.errorf(t, "unexpected end of formula")
	}
	return nil, p.errorf(t, "unexpected %q", t.text)
}

func (p *parser) call(name token) (node, error) {
	fn, ok := functions[name.text]
	if !ok {
		return nil, p.errorf(name, "unknown function %q", name.text)
	}
	p.next() // (
	var args []node
	if p.peek().kind != tokRParen {
		for {
			a, err := p.expr()
			if err != nil {
				return nil, err
			}
			args = append(args, a)
			if p.peek().kind != tokComma {
				break
			}
			p.next()
		}
	}
	if c := p.next(); c.kind != tokRParen {
		return nil, p.errorf(c, "expected ) after arguments to %s", name.text)
	}
	if (fn.arity >= 0 && len(args) != fn.arity) || (fn.arity < 0 && len(args) == 0) {
		return nil, p.errorf(name, "wrong number of arguments to %s", name.text)
	}
	return callNode{name: name.text, fn: fn, args: args}, nil
}
