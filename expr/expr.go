package expr

import (
	"errors"
	"fmt"
	"strconv"
	"unicode"
)

// Eval parses and evaluates an arithmetic formula against the supplied
// variable bindings. It returns an error for syntax errors, unknown
// variables and division by zero; it never panics on malformed input.
func Eval(formula string, vars map[string]float64) (float64, error) {
	tokens, err := tokenize(formula)
	if err != nil {
		return 0, err
	}
	p := &parser{tokens: tokens, vars: vars}
	result, err := p.parseExpr()
	if err != nil {
		return 0, err
	}
	if p.pos != len(p.tokens) {
		return 0, fmt.Errorf("unexpected token %q at end of formula", p.tokens[p.pos].text)
	}
	return result, nil
}

// Variables returns the distinct variable names referenced by the formula,
// in first-appearance order. Used by callers to pre-check bindings.
func Variables(formula string) ([]string, error) {
	tokens, err := tokenize(formula)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	var names []string
	for _, t := range tokens {
		if t.kind == tokenIdent && !seen[t.text] {
			seen[t.text] = true
			names = append(names, t.text)
		}
	}
	return names, nil
}

type tokenKind int

const (
	tokenNumber tokenKind = iota
	tokenIdent
	tokenOp
	tokenLParen
	tokenRParen
)

type token struct {
	kind tokenKind
	text string
	num  float64
}

func tokenize(input string) ([]token, error) {
	var tokens []token
	i := 0
	for i < len(input) {
		c := rune(input[i])
		switch {
		case unicode.IsSpace(c):
			i++
		case c == '(':
			tokens = append(tokens, token{kind: tokenLParen, text: "("})
			i++
		case c == ')':
			tokens = append(tokens, token{kind: tokenRParen, text: ")"})
			i++
		case c == '+' || c == '-' || c == '*' || c == '/':
			tokens = append(tokens, token{kind: tokenOp, text: string(c)})
			i++
		case unicode.IsDigit(c) || c == '.':
			j := i
			for j < len(input) && (unicode.IsDigit(rune(input[j])) || input[j] == '.') {
				j++
			}
			num, err := strconv.ParseFloat(input[i:j], 64)
			if err != nil {
				return nil, fmt.Errorf("invalid number %q", input[i:j])
			}
			tokens = append(tokens, token{kind: tokenNumber, text: input[i:j], num: num})
			i = j
		case unicode.IsLetter(c) || c == '_':
			j := i
			for j < len(input) && (unicode.IsLetter(rune(input[j])) || unicode.IsDigit(rune(input[j])) || input[j] == '_') {
				j++
			}
			tokens = append(tokens, token{kind: tokenIdent, text: input[i:j]})
			i = j
		default:
			return nil, fmt.Errorf("unexpected character %q in formula", c)
		}
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("empty formula")
	}
	return tokens, nil
}

type parser struct {
	tokens []token
	pos    int
	vars   map[string]float64
}

func (p *parser) peek() (token, bool) {
	if p.pos >= len(p.tokens) {
		return token{}, false
	}
	return p.tokens[p.pos], true
}

// parseExpr handles + and - (lowest precedence).
func (p *parser) parseExpr() (float64, error) {
	left, err := p.parseTerm()
	if err != nil {
		return 0, err
	}
	for {
		t, ok := p.peek()
		if !ok || t.kind != tokenOp || (t.text != "+" && t.text != "-") {
			return left, nil
		}
		p.pos++
		right, err := p.parseTerm()
		if err != nil {
			return 0, err
		}
		if t.text == "+" {
			left += right
		} else {
			left -= right
		}
	}
}

// parseTerm handles * and /.
func (p *parser) parseTerm() (float64, error) {
	left, err := p.parseFactor()
	if err != nil {
		return 0, err
	}
	for {
		t, ok := p.peek()
		if !ok || t.kind != tokenOp || (t.text != "*" && t.text != "/") {
			return left, nil
		}
		p.pos++
		right, err := p.parseFactor()
		if err != nil {
			return 0, err
		}
		if t.text == "*" {
			left *= right
		} else {
			if right == 0 {
				return 0, fmt.Errorf("division by zero")
			}
			left /= right
		}
	}
}

// parseFactor handles literals, variables, parentheses and unary signs.
func (p *parser) parseFactor() (float64, error) {
	t, ok := p.peek()
	if !ok {
		return 0, fmt.Errorf("unexpected end of formula")
	}

	switch {
	case t.kind == tokenOp && (t.text == "-" || t.text == "+"):
		p.pos++
		v, err := p.parseFactor()
		if err != nil {
			return 0, err
		}
		if t.text == "-" {
			return -v, nil
		}
		return v, nil
	case t.kind == tokenNumber:
		p.pos++
		return t.num, nil
	case t.kind == tokenIdent:
		p.pos++
		v, ok := p.vars[t.text]
		if !ok {
			return 0, &UnknownVariableError{Name: t.text}
		}
		return v, nil
	case t.kind == tokenLParen:
		p.pos++
		v, err := p.parseExpr()
		if err != nil {
			return 0, err
		}
		closing, ok := p.peek()
		if !ok || closing.kind != tokenRParen {
			return 0, fmt.Errorf("missing closing parenthesis")
		}
		p.pos++
		return v, nil
	default:
		return 0, fmt.Errorf("unexpected token %q", t.text)
	}
}

// UnknownVariableError reports a formula variable with no numeric binding.
type UnknownVariableError struct {
	Name string
}

func (e *UnknownVariableError) Error() string {
	return fmt.Sprintf("unknown variable %q", e.Name)
}

// IsUnknownVariable reports whether err (or any wrapped error) is an
// UnknownVariableError.
func IsUnknownVariable(err error) bool {
	var uv *UnknownVariableError
	return errors.As(err, &uv)
}
