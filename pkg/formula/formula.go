// Package formula evaluates user-entered arithmetic over the metrics of one
// record.
//
// Formulas are parsed, never executed as code. The grammar covers numbers,
// the operators + - * / % ^ (and ** for ^), unary minus, parentheses, and
// the functions abs, sqrt, log, exp, pow, min and max. Identifiers must be
// one of the exposed fields (the metric keys and "year"), optionally
// written with a "d." prefix:
//
//	f, err := formula.Parse("(d.gdp + d.population) / 2", fields)
//	v, err := f.Eval(env)
package formula

import (
	"errors"
	"math"
	"strings"

	apperrors "github.com/matzehuels/energyatlas/pkg/errors"
)

// YearField is the record year, always exposed.
const YearField = "year"

// Formula is a parsed expression.
type Formula struct {
	src    string
	root   node
	fields []string
}

// Parse parses src, allowing fields and "year" as identifiers.
func Parse(src string, fields []string) (*Formula, error) {
	if strings.TrimSpace(src) == "" {
		return nil, apperrors.New(apperrors.ErrCodeInvalidFormula, "formula is empty")
	}
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}

	allowed := make(map[string]bool, len(fields)+1)
	for _, f := range fields {
		allowed[f] = true
	}
	allowed[YearField] = true

	p := &parser{toks: toks, fields: allowed}
	root, err := p.expr()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, p.errorf(t, "unexpected %q", t.text)
	}
	return &Formula{src: src, root: root, fields: p.used}, nil
}

// String returns the source text.
func (f *Formula) String() string { return f.src }

// Fields returns the fields the formula references, in order of use.
func (f *Formula) Fields() []string { return f.fields }

// Eval evaluates the formula. A missing field yields ErrAbsent; division by
// zero and non-finite results yield an INVALID_FORMULA error.
func (f *Formula) Eval(env Env) (float64, error) {
	v, err := f.root.eval(env)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, apperrors.New(apperrors.ErrCodeInvalidFormula, "%s: result is not a finite number", f.src)
	}
	return v, nil
}

// IsAbsent reports whether err means a field was missing.
func IsAbsent(err error) bool { return errors.Is(err, ErrAbsent) }
