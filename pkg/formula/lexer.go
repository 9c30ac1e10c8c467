package formula

import (
	"strconv"
	"unicode"

	apperrors "github.com/matzehuels/energyatlas/pkg/errors"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokIdent
	tokOp
	tokLParen
	tokRParen
	tokComma
)

type token struct {
	kind tokenKind
	text string
	num  float64
	pos  int
}

// lex splits src into tokens. A "d." prefix on an identifier is dropped so
// "d.gdp" and "gdp" name the same field.
func lex(src string) ([]token, error) {
	var toks []token
	rs := []rune(src)
	for i := 0; i < len(rs); {
		r := rs[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case unicode.IsDigit(r) || (r == '.' && i+1 < len(rs) && unicode.IsDigit(rs[i+1])):
			start := i
			for i < len(rs) && (unicode.IsDigit(rs[i]) || rs[i] == '.') {
				i++
			}
			if i < len(rs) && (rs[i] == 'e' || rs[i] == 'E') {
				j := i + 1
				if j < len(rs) && (rs[j] == '+' || rs[j] == '-') {
					j++
				}
				if j < len(rs) && unicode.IsDigit(rs[j]) {
					for i = j; i < len(rs) && unicode.IsDigit(rs[i]); i++ {
					}
				}
			}
			text := string(rs[start:i])
			v, err := strconv.ParseFloat(text, 64)
			if err != nil {
				return nil, apperrors.New(apperrors.ErrCodeInvalidFormula, "bad number %q at %d", text, start+1)
			}
			toks = append(toks, token{kind: tokNumber, text: text, num: v, pos: start})
		case r == '_' || unicode.IsLetter(r):
			start := i
			for i < len(rs) && (rs[i] == '_' || unicode.IsLetter(rs[i]) || unicode.IsDigit(rs[i])) {
				i++
			}
			text := string(rs[start:i])
			if text == "d" && i < len(rs) && rs[i] == '.' {
				i++
				continue
			}
			toks = append(toks, token{kind: tokIdent, text: text, pos: start})
		case r == '(':
			toks = append(toks, token{kind: tokLParen, text: "(", pos: i})
			i++
		case r == ')':
			toks = append(toks, token{kind: tokRParen, text: ")", pos: i})
			i++
		case r == ',':
			toks = append(toks, token{kind: tokComma, text: ",", pos: i})
			i++
		case r == '*' && i+1 < len(rs) && rs[i+1] == '*':
			toks = append(toks, token{kind: tokOp, text: "^", pos: i})
			i += 2
		case r == '+' || r == '-' || r == '*' || r == '/' || r == '%' || r == '^':
			toks = append(toks, token{kind: tokOp, text: string(r), pos: i})
			i++
		default:
			return nil, apperrors.New(apperrors.ErrCodeInvalidFormula, "unexpected %q at %d", r, i+1)
		}
	}
	return append(toks, token{kind: tokEOF, pos: len(rs)}), nil
}
