package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEval_Precedence(t *testing.T) {
	tests := []struct {
		formula string
		vars    map[string]float64
		want    float64
	}{
		{"1 + 2 * 3", nil, 7},
		{"(1 + 2) * 3", nil, 9},
		{"10 - 4 - 3", nil, 3},
		{"20 / 4 / 5", nil, 1},
		{"-3 + 5", nil, 2},
		{"2 * -3", nil, -6},
		{"ltv / target_cac", map[string]float64{"ltv": 150000, "target_cac": 50000}, 3},
		{"target_cac + ltv", map[string]float64{"ltv": 150000, "target_cac": 50000}, 200000},
		{"(price - cost) * units", map[string]float64{"price": 10, "cost": 4, "units": 100}, 600},
		{"1.5 * 2", nil, 3},
	}

	for _, tt := range tests {
		got, err := Eval(tt.formula, tt.vars)
		assert.NoError(t, err, tt.formula)
		assert.InDelta(t, tt.want, got, 1e-9, tt.formula)
	}
}

func TestEval_UnknownVariable(t *testing.T) {
	_, err := Eval("ltv / target_cac", map[string]float64{"ltv": 100})
	assert.Error(t, err)
	assert.True(t, IsUnknownVariable(err))

	var uv *UnknownVariableError
	assert.ErrorAs(t, err, &uv)
	assert.Equal(t, "target_cac", uv.Name)
}

func TestEval_SyntaxErrors(t *testing.T) {
	vars := map[string]float64{"a": 1}

	for _, formula := range []string{
		"",
		"   ",
		"1 +",
		"* 2",
		"(1 + 2",
		"1 + 2)",
		"a b",
		"1..2",
		"a % 2",
	} {
		_, err := Eval(formula, vars)
		assert.Error(t, err, "formula %q should not parse", formula)
	}
}

func TestEval_DivisionByZero(t *testing.T) {
	_, err := Eval("1 / 0", nil)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "division by zero")

	_, err = Eval("1 / (2 - 2)", nil)
	assert.Error(t, err)
}

func TestVariables(t *testing.T) {
	names, err := Variables("ltv / target_cac + ltv * 2")
	assert.NoError(t, err)
	assert.Equal(t, []string{"ltv", "target_cac"}, names)

	names, err = Variables("1 + 2")
	assert.NoError(t, err)
	assert.Empty(t, names)
}
