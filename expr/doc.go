// Package expr implements a small arithmetic expression evaluator used for
// calculation-based field auto-population.
//
// The grammar is deliberately tiny: numeric literals, named variables and
// the operators + - * / with parentheses. Expressions are tokenized and
// parsed by recursive descent; nothing is ever executed as code, so rule
// files can safely carry caller-authored formulas.
package expr
