package flowgraph

import (
	"fmt"
	"strings"

	"github.com/venturekit/intakeflow/internal/util"
)

// Operator enumerates the closed set of condition operators. Operators are
// validated at configuration-load time, not at evaluation time.
type Operator string

const (
	// OpExists is satisfied when the field is present in the answer set.
	OpExists Operator = "exists"
	// OpNotExists is satisfied when the field is absent from the answer set.
	OpNotExists Operator = "not_exists"
	// OpEquals compares the answer against a configured value.
	OpEquals Operator = "equals"
	// OpNotEquals is the negation of OpEquals.
	OpNotEquals Operator = "not_equals"
	// OpContains matches substrings of string answers and members of
	// multi-select answers.
	OpContains Operator = "contains"
)

// needsValue reports whether the operator requires a comparison value.
func (o Operator) needsValue() bool {
	switch o {
	case OpEquals, OpNotEquals, OpContains:
		return true
	default:
		return false
	}
}

// valid reports whether the operator belongs to the closed set.
func (o Operator) valid() bool {
	switch o {
	case OpExists, OpNotExists, OpEquals, OpNotEquals, OpContains:
		return true
	default:
		return false
	}
}

// Condition is a declarative predicate over one answer field. Conditions are
// plain data so rule files stay serializable and unit-testable without
// executing arbitrary logic.
type Condition struct {
	Field    string   `yaml:"field"`
	Operator Operator `yaml:"operator"`
	Value    any      `yaml:"value,omitempty"`
}

// Validate checks the condition at load time.
func (c Condition) Validate() error {
	if c.Field == "" {
		return fmt.Errorf("condition is missing a field")
	}
	if !c.Operator.valid() {
		return fmt.Errorf("condition on %q uses unknown operator %q", c.Field, c.Operator)
	}
	if c.Operator.needsValue() && c.Value == nil {
		return fmt.Errorf("condition on %q with operator %q requires a value", c.Field, c.Operator)
	}
	return nil
}

// Eval evaluates the condition against an answer set. The returned error
// signals an evaluation problem (e.g. an operator/value combination that
// cannot be compared); callers decide the fail-open or fail-closed policy.
func (c Condition) Eval(answers AnswerSet) (bool, error) {
	value, present := answers[c.Field]

	switch c.Operator {
	case OpExists:
		return present && value != nil, nil
	case OpNotExists:
		return !present || value == nil, nil
	case OpEquals:
		if !present {
			return false, nil
		}
		return looseEquals(value, c.Value), nil
	case OpNotEquals:
		if !present {
			return false, nil
		}
		return !looseEquals(value, c.Value), nil
	case OpContains:
		if !present {
			return false, nil
		}
		return looseContains(value, c.Value), nil
	default:
		return false, fmt.Errorf("unknown operator %q", c.Operator)
	}
}

// looseEquals compares an answer against a configured value. Numeric values
// compare numerically regardless of concrete type; everything else compares
// by stringified form, so YAML "5" matches the numeric answer 5.
func looseEquals(answer, expected any) bool {
	if an, ok := toNumber(answer); ok {
		if en, ok := toNumber(expected); ok {
			return an == en
		}
	}
	return util.Stringify(answer) == util.Stringify(expected)
}

// looseContains implements the contains operator: membership for slice
// answers, case-insensitive substring match for everything else.
func looseContains(answer, expected any) bool {
	switch v := answer.(type) {
	case []any:
		for _, item := range v {
			if looseEquals(item, expected) {
				return true
			}
		}
		return false
	case []string:
		for _, item := range v {
			if looseEquals(item, expected) {
				return true
			}
		}
		return false
	default:
		haystack := strings.ToLower(util.Stringify(answer))
		needle := strings.ToLower(util.Stringify(expected))
		return needle != "" && strings.Contains(haystack, needle)
	}
}

// evalAll reports whether every condition holds. The first evaluation error
// aborts with that error.
func evalAll(conditions []Condition, answers AnswerSet) (bool, error) {
	for _, c := range conditions {
		ok, err := c.Eval(answers)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// evalAny reports whether at least one condition holds. An empty group is
// vacuously true.
func evalAny(conditions []Condition, answers AnswerSet) (bool, error) {
	if len(conditions) == 0 {
		return true, nil
	}
	for _, c := range conditions {
		ok, err := c.Eval(answers)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}
