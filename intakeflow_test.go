package intakeflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venturekit/intakeflow/agent"
	"github.com/venturekit/intakeflow/flowgraph"
	"github.com/venturekit/intakeflow/model"
	"github.com/venturekit/intakeflow/orchestrate"
	"github.com/venturekit/intakeflow/skill"
	"github.com/venturekit/intakeflow/trigger"
)

func testEngine(t *testing.T) *Engine {
	t.Helper()

	graph, err := flowgraph.NewGraph([]flowgraph.Phase{
		{
			ID: "business_model", Name: "Business Model", Number: 2,
			Questions: []flowgraph.Question{
				{ID: "revenue_model", Prompt: "How do you charge?", Type: flowgraph.QuestionChoice, Options: []string{"subscription", "one_time"}},
				{ID: "churn_rate", Prompt: "What is your monthly churn?", Type: flowgraph.QuestionNumber},
				{ID: "pricing_strategy", Prompt: "How do you price?", Type: flowgraph.QuestionText},
				{ID: "ltv", Prompt: "Customer lifetime value?", Type: flowgraph.QuestionNumber},
				{ID: "target_cac", Prompt: "Target acquisition cost?", Type: flowgraph.QuestionNumber},
			},
		},
	}, func(o *flowgraph.GraphOptions) {
		o.SkipRules = []flowgraph.SkipRule{
			{
				QuestionID: "churn_rate",
				Reason:     "churn only applies to recurring revenue",
				WhenAll: []flowgraph.Condition{
					{Field: "revenue_model", Operator: flowgraph.OpEquals, Value: "one_time"},
				},
			},
		}
		o.BranchPoints = []flowgraph.BranchPoint{
			{
				QuestionID: "revenue_model",
				Branches: map[string][]string{
					"subscription": {"churn_rate"},
					"one_time":     {"pricing_strategy"},
				},
			},
		}
	})
	require.NoError(t, err)

	triggers, err := trigger.NewEngine([]trigger.Rule{
		{
			Name:         "compute_ltv_cac",
			TriggerField: "target_cac",
			Conditions: []flowgraph.Condition{
				{Field: "ltv", Operator: flowgraph.OpExists},
			},
			AutoPopulate: []trigger.AutoPopulate{
				{TargetField: "ltv_cac_ratio", Source: trigger.SourceCalculation, Formula: "ltv / target_cac"},
			},
		},
	}, nil)
	require.NoError(t, err)

	agents, err := agent.NewRegistry([]agent.Definition{
		{ID: orchestrate.AgentBusinessPlannerLead, Name: "Business Planner Lead", SystemPrompt: "You are the lead business planner."},
		{ID: orchestrate.AgentContextCollector, Name: "Context Collector", SystemPrompt: "You collect business context."},
		{ID: orchestrate.AgentCustomerProfiler, Name: "Customer Profiler", SystemPrompt: "You profile target customers."},
	})
	require.NoError(t, err)

	skills, err := skill.NewRegistry(nil)
	require.NoError(t, err)

	return New(graph, triggers, model.NewMockCompleter(), agents, skills)
}

func TestEngine_ProcessAnswerSkipsAndBranches(t *testing.T) {
	e := testEngine(t)

	result := e.ProcessAnswer("revenue_model", "one_time", flowgraph.AnswerSet{})

	// churn_rate is hidden, so the flow lands on pricing_strategy.
	idx, _ := e.Graph().Index("pricing_strategy")
	assert.Equal(t, idx, result.NextQuestionIndex)
	assert.Equal(t, 3, result.RemainingCount)
	assert.InDelta(t, 25.0, result.Progress, 1e-9)
	assert.Equal(t, []string{"pricing_strategy"}, result.ActivatedBranches)
	assert.Empty(t, result.ExtractedData)
}

func TestEngine_ProcessAnswerExtractsData(t *testing.T) {
	e := testEngine(t)

	answers := flowgraph.AnswerSet{
		"revenue_model":    "subscription",
		"churn_rate":       5,
		"pricing_strategy": "tiered",
		"ltv":              150000,
	}
	result := e.ProcessAnswer("target_cac", 50000, answers)

	require.Contains(t, result.ExtractedData, "ltv_cac_ratio")
	assert.InDelta(t, 3.0, result.ExtractedData["ltv_cac_ratio"].(float64), 1e-9)

	assert.Equal(t, len(e.Graph().Questions()), result.NextQuestionIndex, "flow exhausted")
	assert.Equal(t, 0, result.RemainingCount)
	assert.InDelta(t, 100.0, result.Progress, 1e-9)

	// The caller's answer set stays untouched.
	assert.NotContains(t, answers, "target_cac")
	assert.NotContains(t, answers, "ltv_cac_ratio")
}

func TestEngine_NextQuestion(t *testing.T) {
	e := testEngine(t)

	q, ok := e.NextQuestion(0, flowgraph.AnswerSet{})
	require.True(t, ok)
	assert.Equal(t, "revenue_model", q.ID)

	q, ok = e.NextQuestion(1, flowgraph.AnswerSet{"revenue_model": "one_time"})
	require.True(t, ok)
	assert.Equal(t, "pricing_strategy", q.ID, "skipped question is passed over")

	_, ok = e.NextQuestion(len(e.Graph().Questions()), flowgraph.AnswerSet{})
	assert.False(t, ok)
}

func TestEngine_Orchestrate(t *testing.T) {
	e := testEngine(t)

	result, err := e.Orchestrate(context.Background(), "subscription sounds right", map[string]any{
		orchestrate.CtxCurrentPhase: 2,
		orchestrate.CtxNextQuestion: "What is your monthly churn?",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, result.Synthesis)
	require.NotNil(t, result.Intent)
	assert.GreaterOrEqual(t, len(result.Outputs), 1)
	for _, out := range result.Outputs {
		assert.True(t, out.Success)
	}
}
