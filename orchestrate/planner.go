package orchestrate

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/venturekit/intakeflow/agent"
	"github.com/venturekit/intakeflow/logging"
	"github.com/venturekit/intakeflow/model"
)

// perTaskEstimate is the flat scheduling estimate attributed to one task.
const perTaskEstimate = 30 * time.Second

// phaseSpecialists maps an intake phase to the specialist that must join
// any plan running in that phase.
var phaseSpecialists = map[int]string{
	1: AgentContextCollector,
	2: AgentCustomerProfiler,
	3: AgentMarketAnalyst,
	4: AgentFinancialModeler,
	5: AgentRevenueArchitect,
	6: AgentGTMStrategist,
	7: AgentFundingStrategist,
}

// Planner resolves user requests into Intents and lays Intents out as
// executable Plans.
type Planner struct {
	completer model.Completer
	agents    *agent.Registry
	logger    logging.Logger
}

// PlannerOptions configures Planner construction.
type PlannerOptions struct {
	Logger logging.Logger
}

// NewPlanner builds a Planner over the given completion service and agent
// registry.
func NewPlanner(completer model.Completer, agents *agent.Registry, optFns ...func(o *PlannerOptions)) *Planner {
	opts := PlannerOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Planner{completer: completer, agents: agents, logger: opts.Logger}
}

// ResolveIntent determines which agents and skills should handle the
// message. Deterministic shortcuts cover the common cases without a model
// round trip; everything else is inferred by the completion service under
// a JSON-constrained prompt. Every resolved intent, regardless of origin,
// is expanded under the minimum-agent policy before it is returned.
func (p *Planner) ResolveIntent(ctx context.Context, message string, octx map[string]any) (*Intent, error) {
	phase := phaseFromContext(octx)

	if intent := p.shortcutIntent(octx, phase); intent != nil {
		p.applyMinimumAgents(intent, phase)
		p.logger.Info("planner.intent.shortcut", "goal", intent.Goal, "agents", intent.Agents)
		return intent, nil
	}

	intent, err := p.inferIntent(ctx, message, octx)
	if err != nil {
		return nil, &OrchestratorError{
			Code:    ErrCodeIntentResolution,
			Message: "could not resolve a usable intent",
			Cause:   err,
		}
	}

	p.applyMinimumAgents(intent, phase)
	p.logger.Info("planner.intent.inferred",
		"goal", intent.Goal,
		"agents", intent.Agents,
		"skills", intent.Skills,
		"mode", intent.Mode,
	)
	return intent, nil
}

// shortcutIntent returns a fixed intent for requests the planner can decide
// without model involvement, or nil when inference is required.
func (p *Planner) shortcutIntent(octx map[string]any, phase int) *Intent {
	if reqType, _ := octx[CtxRequestType].(string); reqType == "suggestion" {
		return &Intent{
			Goal:      "Suggest strong answers for the current question",
			Agents:    []string{AgentBusinessPlannerLead},
			Mode:      ModeParallel,
			Reasoning: "explicit suggestion request",
		}
	}

	if phase == 1 {
		return &Intent{
			Goal:      "Welcome the founder and start collecting business context",
			Agents:    []string{AgentContextCollector},
			Mode:      ModeSequential,
			Reasoning: "first-phase onboarding",
		}
	}

	if next, _ := octx[CtxNextQuestion].(string); next != "" {
		return &Intent{
			Goal:      fmt.Sprintf("Acknowledge the answer and lead into the next question: %s", next),
			Agents:    []string{AgentBusinessPlannerLead},
			Mode:      ModeSequential,
			Reasoning: "next question already determined by the flow",
		}
	}

	return nil
}

// inferIntent asks the completion service for a structured intent.
func (p *Planner) inferIntent(ctx context.Context, message string, octx map[string]any) (*Intent, error) {
	prompt := p.buildIntentPrompt(message, octx)

	resp, err := p.completer.Complete(ctx, model.Request{
		System:   intentSystemPrompt,
		Messages: []model.Message{model.UserMessage(prompt)},
	})
	if err != nil {
		return nil, fmt.Errorf("intent completion: %w", err)
	}

	raw := extractJSON(resp.Text)
	if raw == "" {
		return nil, fmt.Errorf("no JSON object in intent response")
	}

	var intent Intent
	if err := json.Unmarshal([]byte(raw), &intent); err != nil {
		return nil, fmt.Errorf("parse intent response: %w", err)
	}

	// A JSON object without any intent field is not a decision; without
	// this check an echoed prompt or stray JSON fragment would pass as a
	// zero-value intent.
	if intent.Goal == "" && len(intent.Agents) == 0 {
		return nil, fmt.Errorf("intent response carries neither a goal nor agents")
	}

	if intent.Mode != ModeParallel && intent.Mode != ModeSequential {
		intent.Mode = ModeParallel
	}

	// Unknown agent suggestions are dropped rather than failing the turn;
	// the minimum-agent policy refills the roster afterwards.
	known := intent.Agents[:0]
	for _, id := range intent.Agents {
		if p.agents.Has(id) {
			known = append(known, id)
		} else {
			p.logger.Warn("planner.intent.unknown_agent", "agent", id)
		}
	}
	intent.Agents = known

	return &intent, nil
}

const intentSystemPrompt = `You are the planning layer of a business-model intake engine.
Decide which specialist agents and which skills should handle the user's message.
Respond with a single JSON object and nothing else, using exactly these keys:
{"goal": string, "agents": [string], "skills": [string], "execution_mode": "parallel"|"sequential", "reasoning": string}`

func (p *Planner) buildIntentPrompt(message string, octx map[string]any) string {
	var b strings.Builder
	b.WriteString("User message:\n")
	b.WriteString(message)
	b.WriteString("\n\nAvailable agents:\n")
	for _, id := range p.agents.IDs() {
		def, _ := p.agents.Get(id)
		fmt.Fprintf(&b, "- %s (%s)\n", id, def.Name)
	}
	if len(octx) > 0 {
		b.WriteString("\nConversation context:\n")
		data, err := json.Marshal(octx)
		if err == nil {
			b.Write(data)
			b.WriteString("\n")
		}
	}
	b.WriteString("\nChoose agents only from the list above. Use \"parallel\" unless agents depend on each other's output.")
	return b.String()
}

// applyMinimumAgents enforces the roster floor on every resolved intent.
// An empty roster falls back to the lead plus the context collector; thin
// rosters are reinforced with the collector or profiler depending on how
// far the intake has progressed, and then with the phase specialist.
func (p *Planner) applyMinimumAgents(intent *Intent, phase int) {
	if len(intent.Agents) == 0 {
		intent.Agents = []string{AgentBusinessPlannerLead, AgentContextCollector}
	}

	if len(intent.Agents) < 2 {
		reinforcement := AgentContextCollector
		if phase >= 3 {
			reinforcement = AgentCustomerProfiler
		}
		intent.Agents = appendMissing(intent.Agents, reinforcement)
	}

	if len(intent.Agents) < 3 {
		specialist, ok := phaseSpecialists[phase]
		if !ok {
			specialist = AgentMarketAnalyst
		}
		intent.Agents = appendMissing(intent.Agents, specialist)
	}
}

func appendMissing(agents []string, id string) []string {
	for _, a := range agents {
		if a == id {
			return agents
		}
	}
	return append(agents, id)
}

// phaseFromContext reads the current phase out of the orchestration
// context. Accepts a plain number or a "Phase N" style string; anything
// unreadable maps to phase 2.
func phaseFromContext(octx map[string]any) int {
	switch v := octx[CtxCurrentPhase].(type) {
	case int:
		return v
	case float64:
		return int(v)
	case string:
		fields := strings.Fields(v)
		for i := len(fields) - 1; i >= 0; i-- {
			if n, err := strconv.Atoi(fields[i]); err == nil {
				return n
			}
		}
	}
	return 2
}

// CreatePlan lays the intent out as an ordered task list. In sequential
// mode each task depends on its predecessor; in parallel mode tasks are
// independent. Task order always follows the intent's agent order.
func (p *Planner) CreatePlan(intent *Intent) (*Plan, error) {
	if len(intent.Agents) == 0 {
		return nil, &OrchestratorError{
			Code:    ErrCodePlanCreation,
			Message: "intent names no agents",
		}
	}

	plan := &Plan{
		Tasks:             make([]Task, 0, len(intent.Agents)),
		Mode:              intent.Mode,
		EstimatedDuration: time.Duration(len(intent.Agents)) * perTaskEstimate,
	}

	var prevID string
	for i, agentID := range intent.Agents {
		name := agentID
		if def, ok := p.agents.Get(agentID); ok {
			name = def.Name
		}

		task := Task{
			ID:          uuid.NewString(),
			AgentID:     agentID,
			AgentName:   name,
			Description: intent.Goal,
			Skills:      intent.Skills,
			Priority:    i,
		}
		if intent.Mode == ModeSequential && prevID != "" {
			task.DependsOn = []string{prevID}
		}
		prevID = task.ID
		plan.Tasks = append(plan.Tasks, task)
	}

	p.logger.Debug("planner.plan.created", "tasks", len(plan.Tasks), "mode", plan.Mode)
	return plan, nil
}

// extractJSON pulls the outermost JSON object out of a model reply,
// tolerating surrounding prose and markdown fences.
func extractJSON(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return ""
	}
	return text[start : end+1]
}
