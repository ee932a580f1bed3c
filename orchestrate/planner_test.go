package orchestrate

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venturekit/intakeflow/agent"
	"github.com/venturekit/intakeflow/internal/util"
	"github.com/venturekit/intakeflow/model"
	"github.com/venturekit/intakeflow/skill"
)

func testAgents(t *testing.T) *agent.Registry {
	t.Helper()
	reg, err := agent.NewRegistry([]agent.Definition{
		{ID: AgentBusinessPlannerLead, Name: "Business Planner Lead", SystemPrompt: "You are the lead business planner."},
		{ID: AgentContextCollector, Name: "Context Collector", SystemPrompt: "You collect business context."},
		{ID: AgentCustomerProfiler, Name: "Customer Profiler", SystemPrompt: "You profile target customers."},
		{ID: AgentMarketAnalyst, Name: "Market Analyst", SystemPrompt: "You analyze markets."},
	})
	require.NoError(t, err)
	return reg
}

func testSkills(t *testing.T) *skill.Registry {
	t.Helper()
	ratio := skill.NewFunctionSkill(
		"ltv_cac_ratio",
		"Compute the LTV to CAC ratio",
		util.ObjectSchema(map[string]string{"ltv": "number", "cac": "number"}, "ltv", "cac"),
		func(_ context.Context, params map[string]any) (any, error) {
			return params["ltv"].(float64) / params["cac"].(float64), nil
		},
	)
	reg, err := skill.NewRegistry([]skill.Skill{ratio})
	require.NoError(t, err)
	return reg
}

// routingCompleter answers by the request's system prompt, so concurrent
// tasks get deterministic responses regardless of scheduling.
type routingCompleter struct {
	mu       sync.Mutex
	bySystem map[string]*model.Response
	errs     map[string]error
	requests []model.Request
}

func (c *routingCompleter) Complete(_ context.Context, req model.Request) (*model.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests = append(c.requests, req)
	if err, ok := c.errs[req.System]; ok {
		return nil, err
	}
	if resp, ok := c.bySystem[req.System]; ok {
		return resp, nil
	}
	return &model.Response{Text: "ok", FinishReason: "stop"}, nil
}

func (c *routingCompleter) Info() model.Info {
	return model.Info{Name: "routing", Provider: "mock", SupportsTools: true}
}

func (c *routingCompleter) seen() []model.Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.Request, len(c.requests))
	copy(out, c.requests)
	return out
}

func TestApplyMinimumAgents(t *testing.T) {
	p := NewPlanner(model.NewMockCompleter(), testAgents(t))

	tests := []struct {
		name   string
		agents []string
		phase  int
		want   []string
	}{
		{
			name:   "empty roster falls back to default pairing",
			agents: nil,
			phase:  2,
			want:   []string{AgentBusinessPlannerLead, AgentContextCollector, AgentCustomerProfiler},
		},
		{
			name:   "lone lead in phase three gains profiler and analyst",
			agents: []string{AgentBusinessPlannerLead},
			phase:  3,
			want:   []string{AgentBusinessPlannerLead, AgentCustomerProfiler, AgentMarketAnalyst},
		},
		{
			name:   "lone lead in early phase gains collector",
			agents: []string{AgentBusinessPlannerLead},
			phase:  1,
			want:   []string{AgentBusinessPlannerLead, AgentContextCollector},
		},
		{
			name:   "specialist already present is not duplicated",
			agents: []string{AgentMarketAnalyst},
			phase:  3,
			want:   []string{AgentMarketAnalyst, AgentCustomerProfiler},
		},
		{
			name:   "unknown phase uses market analyst",
			agents: []string{AgentBusinessPlannerLead, AgentContextCollector},
			phase:  9,
			want:   []string{AgentBusinessPlannerLead, AgentContextCollector, AgentMarketAnalyst},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			intent := &Intent{Agents: tt.agents}
			p.applyMinimumAgents(intent, tt.phase)
			assert.Equal(t, tt.want, intent.Agents)
		})
	}
}

func TestPhaseFromContext(t *testing.T) {
	assert.Equal(t, 3, phaseFromContext(map[string]any{CtxCurrentPhase: 3}))
	assert.Equal(t, 4, phaseFromContext(map[string]any{CtxCurrentPhase: 4.0}))
	assert.Equal(t, 5, phaseFromContext(map[string]any{CtxCurrentPhase: "Phase 5"}))
	assert.Equal(t, 2, phaseFromContext(map[string]any{CtxCurrentPhase: "phase two"}))
	assert.Equal(t, 2, phaseFromContext(map[string]any{}))
	assert.Equal(t, 2, phaseFromContext(nil))
}

func TestResolveIntent_SuggestionShortcut(t *testing.T) {
	mock := model.NewMockCompleter()
	p := NewPlanner(mock, testAgents(t))

	intent, err := p.ResolveIntent(context.Background(), "give me ideas", map[string]any{
		CtxRequestType:  "suggestion",
		CtxCurrentPhase: 3,
	})
	require.NoError(t, err)

	assert.Equal(t, ModeParallel, intent.Mode)
	assert.Equal(t, []string{AgentBusinessPlannerLead, AgentCustomerProfiler, AgentMarketAnalyst}, intent.Agents)
	assert.Empty(t, mock.Requests(), "shortcut must not call the model")
}

func TestResolveIntent_OnboardingShortcut(t *testing.T) {
	mock := model.NewMockCompleter()
	p := NewPlanner(mock, testAgents(t))

	intent, err := p.ResolveIntent(context.Background(), "hi", map[string]any{CtxCurrentPhase: 1})
	require.NoError(t, err)

	assert.Equal(t, []string{AgentContextCollector}, intent.Agents)
	assert.Equal(t, ModeSequential, intent.Mode)
	assert.Empty(t, mock.Requests())
}

func TestResolveIntent_NextQuestionShortcut(t *testing.T) {
	mock := model.NewMockCompleter()
	p := NewPlanner(mock, testAgents(t))

	intent, err := p.ResolveIntent(context.Background(), "done", map[string]any{
		CtxCurrentPhase: 2,
		CtxNextQuestion: "What is your revenue model?",
	})
	require.NoError(t, err)

	assert.Contains(t, intent.Goal, "What is your revenue model?")
	assert.Equal(t, ModeSequential, intent.Mode)
	assert.Equal(t, []string{AgentBusinessPlannerLead, AgentContextCollector, AgentCustomerProfiler}, intent.Agents)
	assert.Empty(t, mock.Requests())
}

func TestResolveIntent_Inferred(t *testing.T) {
	mock := model.NewMockCompleter().QueueText("Here is my decision:\n```json\n" +
		`{"goal":"Size the market","agents":["market_analyst","ghost_agent"],"skills":["market_sizing"],"execution_mode":"sequential","reasoning":"market question"}` +
		"\n```")
	p := NewPlanner(mock, testAgents(t))

	intent, err := p.ResolveIntent(context.Background(), "how big is my market?", map[string]any{CtxCurrentPhase: 4})
	require.NoError(t, err)

	assert.Equal(t, "Size the market", intent.Goal)
	assert.Equal(t, ModeSequential, intent.Mode)
	assert.Equal(t, []string{"market_sizing"}, intent.Skills)
	// ghost_agent dropped, then the roster is refilled by the policy.
	assert.Equal(t, []string{AgentMarketAnalyst, AgentCustomerProfiler, AgentFinancialModeler}, intent.Agents)
	require.Len(t, mock.Requests(), 1)
}

func TestResolveIntent_FailureIsOrchestratorError(t *testing.T) {
	mock := model.NewMockCompleter().QueueError(assert.AnError)
	p := NewPlanner(mock, testAgents(t))

	_, err := p.ResolveIntent(context.Background(), "something unusual", map[string]any{CtxCurrentPhase: 4})
	require.Error(t, err)

	var oErr *OrchestratorError
	require.ErrorAs(t, err, &oErr)
	assert.Equal(t, ErrCodeIntentResolution, oErr.Code)

	mock = model.NewMockCompleter().QueueText("no structure here at all")
	p = NewPlanner(mock, testAgents(t))
	_, err = p.ResolveIntent(context.Background(), "something unusual", map[string]any{CtxCurrentPhase: 4})
	require.ErrorAs(t, err, &oErr)
	assert.Equal(t, ErrCodeIntentResolution, oErr.Code)
}

func TestResolveIntent_EchoedPromptIsNotAnIntent(t *testing.T) {
	// An exhausted mock echoes the prompt, whose serialized context is a
	// valid JSON object with no intent fields. That must not resolve.
	mock := model.NewMockCompleter()
	p := NewPlanner(mock, testAgents(t))

	_, err := p.ResolveIntent(context.Background(), "how big is my market?", map[string]any{CtxCurrentPhase: 3})
	var oErr *OrchestratorError
	require.ErrorAs(t, err, &oErr)
	assert.Equal(t, ErrCodeIntentResolution, oErr.Code)
	assert.ErrorContains(t, err, "neither a goal nor agents")
}

func TestCreatePlan(t *testing.T) {
	p := NewPlanner(model.NewMockCompleter(), testAgents(t))

	intent := &Intent{
		Goal:   "Profile the target customer",
		Agents: []string{AgentBusinessPlannerLead, AgentCustomerProfiler, "mystery_agent"},
		Skills: []string{"ltv_cac_ratio"},
		Mode:   ModeSequential,
	}
	plan, err := p.CreatePlan(intent)
	require.NoError(t, err)

	require.Len(t, plan.Tasks, 3)
	assert.Equal(t, ModeSequential, plan.Mode)
	assert.Equal(t, 3*perTaskEstimate, plan.EstimatedDuration)

	assert.Equal(t, "Business Planner Lead", plan.Tasks[0].AgentName)
	assert.Equal(t, "mystery_agent", plan.Tasks[2].AgentName, "unknown agents keep the id as name")
	assert.Empty(t, plan.Tasks[0].DependsOn)
	assert.Equal(t, []string{plan.Tasks[0].ID}, plan.Tasks[1].DependsOn)
	assert.Equal(t, []string{plan.Tasks[1].ID}, plan.Tasks[2].DependsOn)
	for i, task := range plan.Tasks {
		assert.Equal(t, i, task.Priority)
		assert.Equal(t, intent.Goal, task.Description)
		assert.Equal(t, intent.Skills, task.Skills)
		assert.NotEmpty(t, task.ID)
	}
}

func TestCreatePlan_ParallelHasNoDependencies(t *testing.T) {
	p := NewPlanner(model.NewMockCompleter(), testAgents(t))

	plan, err := p.CreatePlan(&Intent{
		Goal:   "Analyze",
		Agents: []string{AgentMarketAnalyst, AgentCustomerProfiler},
		Mode:   ModeParallel,
	})
	require.NoError(t, err)
	for _, task := range plan.Tasks {
		assert.Empty(t, task.DependsOn)
	}
	assert.Equal(t, 2*perTaskEstimate, plan.EstimatedDuration)
}

func TestCreatePlan_NoAgents(t *testing.T) {
	p := NewPlanner(model.NewMockCompleter(), testAgents(t))

	_, err := p.CreatePlan(&Intent{Goal: "nothing"})
	var oErr *OrchestratorError
	require.ErrorAs(t, err, &oErr)
	assert.Equal(t, ErrCodePlanCreation, oErr.Code)
}
