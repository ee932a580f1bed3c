package skill

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venturekit/intakeflow/internal/util"
)

func ratioSkill() *FunctionSkill {
	return NewFunctionSkill(
		"ltv_cac_ratio",
		"Compute the LTV to CAC ratio",
		util.ObjectSchema(map[string]string{"ltv": "number", "cac": "number"}, "ltv", "cac"),
		func(_ context.Context, params map[string]any) (any, error) {
			ltv := params["ltv"].(float64)
			cac := params["cac"].(float64)
			if cac == 0 {
				return nil, errors.New("cac must be non-zero")
			}
			return ltv / cac, nil
		},
	)
}

func TestFunctionSkill_Execute(t *testing.T) {
	s := ratioSkill()

	result, err := s.Execute(context.Background(), map[string]any{"ltv": 150000.0, "cac": 50000.0})
	require.NoError(t, err)
	assert.InDelta(t, 3.0, result.(float64), 1e-9)
}

func TestFunctionSkill_ValidationError(t *testing.T) {
	s := ratioSkill()

	_, err := s.Execute(context.Background(), map[string]any{"ltv": 150000.0})
	require.Error(t, err)

	var skillErr *Error
	require.ErrorAs(t, err, &skillErr)
	assert.Equal(t, "VALIDATION_ERROR", skillErr.Code)
	assert.Equal(t, "ltv_cac_ratio", skillErr.Skill)

	_, err = s.Execute(context.Background(), map[string]any{"ltv": "lots", "cac": 1.0})
	require.ErrorAs(t, err, &skillErr)
	assert.Equal(t, "VALIDATION_ERROR", skillErr.Code)
}

func TestFunctionSkill_ExecutionErrorWrapped(t *testing.T) {
	s := ratioSkill()

	_, err := s.Execute(context.Background(), map[string]any{"ltv": 1.0, "cac": 0.0})
	var skillErr *Error
	require.ErrorAs(t, err, &skillErr)
	assert.Equal(t, "EXECUTION_ERROR", skillErr.Code)
	assert.Contains(t, skillErr.Message, "non-zero")
}

func TestRegistry_Execute(t *testing.T) {
	reg, err := NewRegistry([]Skill{ratioSkill()})
	require.NoError(t, err)

	result, err := reg.Execute(context.Background(), "ltv_cac_ratio", map[string]any{"ltv": 10.0, "cac": 2.0})
	require.NoError(t, err)
	assert.InDelta(t, 5.0, result.(float64), 1e-9)

	_, err = reg.Execute(context.Background(), "nope", nil)
	var skillErr *Error
	require.ErrorAs(t, err, &skillErr)
	assert.Equal(t, "NOT_FOUND", skillErr.Code)
}

type panickySkill struct{}

func (panickySkill) ID() string                 { return "boom" }
func (panickySkill) Description() string        { return "always panics" }
func (panickySkill) Parameters() map[string]any { return util.ObjectSchema(nil) }
func (panickySkill) Execute(context.Context, map[string]any) (any, error) {
	panic("kaboom")
}

func TestRegistry_ExecuteRecoversPanic(t *testing.T) {
	reg, err := NewRegistry([]Skill{panickySkill{}})
	require.NoError(t, err)

	_, err = reg.Execute(context.Background(), "boom", nil)
	var skillErr *Error
	require.ErrorAs(t, err, &skillErr)
	assert.Equal(t, "PANIC", skillErr.Code)
	assert.Contains(t, skillErr.Message, "kaboom")
}

func TestRegistry_ToolDefinitions(t *testing.T) {
	other := NewFunctionSkill("market_sizing", "Estimate TAM/SAM/SOM",
		util.ObjectSchema(map[string]string{"industry": "string"}, "industry"),
		func(context.Context, map[string]any) (any, error) { return nil, nil },
	)
	reg, err := NewRegistry([]Skill{ratioSkill(), other})
	require.NoError(t, err)

	defs := reg.ToolDefinitions([]string{"market_sizing", "ghost", "ltv_cac_ratio"})
	require.Len(t, defs, 2)
	assert.Equal(t, "market_sizing", defs[0].Name)
	assert.Equal(t, "ltv_cac_ratio", defs[1].Name)
	assert.Equal(t, "object", defs[0].Parameters["type"])
}

func TestNewRegistry_DuplicateID(t *testing.T) {
	_, err := NewRegistry([]Skill{ratioSkill(), ratioSkill()})
	assert.ErrorContains(t, err, "duplicate skill id")
}
