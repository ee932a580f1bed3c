package main

import (
	"context"
	"fmt"

	"github.com/venturekit/intakeflow/internal/util"
	"github.com/venturekit/intakeflow/skill"
)

// starterSkills returns the built-in skill set agents may call as tools.
func starterSkills() []skill.Skill {
	return []skill.Skill{
		skill.NewFunctionSkill(
			"ltv_cac_ratio",
			"Compute the ratio of customer lifetime value to acquisition cost",
			util.ObjectSchema(map[string]string{
				"ltv": "number",
				"cac": "number",
			}, "ltv", "cac"),
			func(_ context.Context, params map[string]any) (any, error) {
				ltv := params["ltv"].(float64)
				cac := params["cac"].(float64)
				if cac == 0 {
					return nil, fmt.Errorf("cac must be non-zero")
				}
				return map[string]any{
					"ratio":   ltv / cac,
					"healthy": ltv/cac >= 3,
				}, nil
			},
		),
		skill.NewFunctionSkill(
			"market_sizing",
			"Estimate the serviceable market from total market size and reachable share",
			util.ObjectSchema(map[string]string{
				"tam":             "number",
				"reachable_share": "number",
			}, "tam", "reachable_share"),
			func(_ context.Context, params map[string]any) (any, error) {
				tam := params["tam"].(float64)
				share := params["reachable_share"].(float64)
				if share < 0 || share > 1 {
					return nil, fmt.Errorf("reachable_share must be between 0 and 1")
				}
				return map[string]any{"som": tam * share}, nil
			},
		),
		skill.NewFunctionSkill(
			"runway_months",
			"Compute months of runway from cash on hand and monthly burn",
			util.ObjectSchema(map[string]string{
				"cash":         "number",
				"monthly_burn": "number",
			}, "cash", "monthly_burn"),
			func(_ context.Context, params map[string]any) (any, error) {
				burn := params["monthly_burn"].(float64)
				if burn <= 0 {
					return nil, fmt.Errorf("monthly_burn must be positive")
				}
				return params["cash"].(float64) / burn, nil
			},
		),
	}
}
