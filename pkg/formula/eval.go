package formula

import (
	"errors"
	"math"

	apperrors "github.com/matzehuels/energyatlas/pkg/errors"
)

// ErrAbsent is returned by Eval when a referenced field has no value.
var ErrAbsent = errors.New("formula: field absent")

// Env resolves a field for one record.
type Env func(field string) (float64, bool)

func (n numberNode) eval(Env) (float64, error) { return float64(n), nil }

func (n fieldNode) eval(env Env) (float64, error) {
	v, ok := env(string(n))
	if !ok {
		return 0, ErrAbsent
	}
	return v, nil
}

func (n negNode) eval(env Env) (float64, error) {
	v, err := n.x.eval(env)
	return -v, err
}

func (n binaryNode) eval(env Env) (float64, error) {
	l, err := n.l.eval(env)
	if err != nil {
		return 0, err
	}
	r, err := n.r.eval(env)
	if err != nil {
		return 0, err
	}
	switch n.op {
	case '+':
		return l + r, nil
	case '-':
		return l - r, nil
	case '*':
		return l * r, nil
	case '/':
		if r == 0 {
			return 0, apperrors.New(apperrors.ErrCodeInvalidFormula, "division by zero")
		}
		return l / r, nil
	case '%':
		if r == 0 {
			return 0, apperrors.New(apperrors.ErrCodeInvalidFormula, "modulo by zero")
		}
		return math.Mod(l, r), nil
	case '^':
		return math.Pow(l, r), nil
	}
	return 0, apperrors.New(apperrors.ErrCodeInternal, "unknown operator %q", n.op)
}

func (n callNode) eval(env Env) (float64, error) {
	args := make([]float64, len(n.args))
	for i, a := range n.args {
		v, err := a.eval(env)
		if err != nil {
			return 0, err
		}
		args[i] = v
	}
	return n.fn.call(args), nil
}
