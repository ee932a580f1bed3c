package skill

import (
	"context"
	"fmt"

	"github.com/venturekit/intakeflow/internal/util"
)

// FunctionSkill is a generic adapter that exposes a plain Go function as a
// skill.
//
// Responsibilities:
//   - Holds a lightweight JSON-Schema-like parameter specification
//   - Validates supplied arguments against that schema before execution
//   - Normalizes error handling so callers receive *Error with consistent
//     codes: VALIDATION_ERROR for schema/argument mismatch, EXECUTION_ERROR
//     for an underlying function failure (custom codes are preserved when
//     the function returns *Error directly)
//
// A FunctionSkill has no internal mutable state after construction and is
// safe for concurrent use.
type FunctionSkill struct {
	id          string
	description string
	parameters  map[string]any
	fn          func(ctx context.Context, params map[string]any) (any, error)
}

// NewFunctionSkill constructs a FunctionSkill from an explicit schema and
// function.
//
// Example:
//
//	ratio := NewFunctionSkill(
//	  "ltv_cac_ratio",
//	  "Compute the LTV to CAC ratio",
//	  util.ObjectSchema(map[string]string{"ltv": "number", "cac": "number"}, "ltv", "cac"),
//	  func(_ context.Context, params map[string]any) (any, error) {
//	    return params["ltv"].(float64) / params["cac"].(float64), nil
//	  },
//	)
func NewFunctionSkill(
	id, description string,
	parameters map[string]any,
	fn func(ctx context.Context, params map[string]any) (any, error),
) *FunctionSkill {
	return &FunctionSkill{
		id:          id,
		description: description,
		parameters:  parameters,
		fn:          fn,
	}
}

// ID returns the unique skill id used in tool declarations and routing.
func (s *FunctionSkill) ID() string { return s.id }

// Description returns the short natural language description exposed to models.
func (s *FunctionSkill) Description() string { return s.description }

// Parameters returns the (minimal) JSON schema describing expected arguments.
func (s *FunctionSkill) Parameters() map[string]any { return s.parameters }

// Execute validates the provided params against the declared schema then
// invokes the underlying function. Validation or execution failures are
// wrapped (or passed through) as *Error for uniform downstream handling.
func (s *FunctionSkill) Execute(ctx context.Context, params map[string]any) (any, error) {
	if err := util.ValidateParameters(params, s.parameters); err != nil {
		return nil, &Error{
			Skill:   s.id,
			Message: fmt.Sprintf("parameter validation failed: %v", err),
			Code:    "VALIDATION_ERROR",
			Details: err,
		}
	}

	result, err := s.fn(ctx, params)
	if err != nil {
		if skillErr, ok := err.(*Error); ok {
			return nil, skillErr
		}
		return nil, &Error{
			Skill:   s.id,
			Message: err.Error(),
			Code:    "EXECUTION_ERROR",
		}
	}

	return result, nil
}
