package orchestrate

import (
	"fmt"
	"time"
)

// ExecutionMode selects how a plan's tasks are scheduled.
type ExecutionMode string

const (
	// ModeParallel fans all tasks out concurrently.
	ModeParallel ExecutionMode = "parallel"
	// ModeSequential runs tasks in order, feeding each task's output into
	// the context of its successors.
	ModeSequential ExecutionMode = "sequential"
)

// Well-known agent ids used by the planner's deterministic policies.
const (
	AgentBusinessPlannerLead = "business_planner_lead"
	AgentContextCollector    = "context_collector"
	AgentCustomerProfiler    = "customer_profiler"
	AgentMarketAnalyst       = "market_analyst"
	AgentFinancialModeler    = "financial_modeler"
	AgentRevenueArchitect    = "revenue_architect"
	AgentGTMStrategist       = "gtm_strategist"
	AgentFundingStrategist   = "funding_strategist"
)

// Context keys the engine reads from / writes into the orchestration
// context map.
const (
	// CtxRequestType marks fast-path request types ("suggestion").
	CtxRequestType = "request_type"
	// CtxCurrentPhase carries the phase as a number or a "Phase N" string.
	CtxCurrentPhase = "current_phase"
	// CtxNextQuestion carries an already-computed next question to ask.
	CtxNextQuestion = "next_question"
	// CtxTargetLanguage carries the reply language code ("en" default).
	CtxTargetLanguage = "target_language"
)

// Intent is the resolved decision of which agents and skills to run, and
// in what mode, for one orchestration turn.
type Intent struct {
	Goal          string        `json:"goal"`
	Agents        []string      `json:"agents"`
	Skills        []string      `json:"skills"`
	Mode          ExecutionMode `json:"execution_mode"`
	Reasoning     string        `json:"reasoning"`
	ContextFields []string      `json:"context_requirements,omitempty"`
}

// Task is one individually executable unit of a plan.
type Task struct {
	ID          string   `json:"id"`
	AgentID     string   `json:"agent_id"`
	AgentName   string   `json:"agent_name"`
	Description string   `json:"description"`
	Skills      []string `json:"skills"` // allow-list inherited from the intent
	DependsOn   []string `json:"depends_on,omitempty"`
	Priority    int      `json:"priority"` // position index in the plan
}

// Plan is the ordered breakdown of an Intent into tasks. Task order always
// mirrors Intent.Agents order regardless of completion order.
type Plan struct {
	Tasks             []Task        `json:"tasks"`
	Mode              ExecutionMode `json:"execution_mode"`
	EstimatedDuration time.Duration `json:"estimated_duration"`
}

// ToolCallRecord preserves one raw tool call exchanged with the model
// during task execution.
type ToolCallRecord struct {
	CallID    string `json:"call_id"`
	Skill     string `json:"skill"`
	Arguments string `json:"arguments"`
	Result    string `json:"result"`
	IsError   bool   `json:"is_error"`
}

// AgentOutput is the outcome of one task. Exactly one AgentOutput exists
// per task, success or failure; failures are never silently dropped.
type AgentOutput struct {
	TaskID        string           `json:"task_id"`
	AgentID       string           `json:"agent_id"`
	AgentName     string           `json:"agent_name"`
	Output        string           `json:"output"`
	SkillsUsed    []string         `json:"skills_used,omitempty"`
	ToolCalls     []ToolCallRecord `json:"tool_calls,omitempty"`
	ExecutionTime time.Duration    `json:"execution_time"`
	Success       bool             `json:"success"`
	Error         string           `json:"error,omitempty"`
}

// Result is the complete outcome of one orchestration turn.
type Result struct {
	Synthesis     string        `json:"synthesis"`
	Outputs       []AgentOutput `json:"outputs"`
	Intent        *Intent       `json:"intent"`
	Plan          *Plan         `json:"plan"`
	TotalDuration time.Duration `json:"total_duration"`
}

// Error codes carried by OrchestratorError.
const (
	ErrCodeIntentResolution = "INTENT_RESOLUTION_FAILED"
	ErrCodePlanCreation     = "PLAN_CREATION_FAILED"
)

// OrchestratorError is the only fatal, propagating error kind of this
// package: intent resolution or plan creation produced no usable structure.
// Everything downstream degrades into failed AgentOutputs instead.
type OrchestratorError struct {
	Code    string
	Message string
	Cause   error
}

func (e *OrchestratorError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("orchestrator error [%s]: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("orchestrator error [%s]: %s", e.Code, e.Message)
}

// Unwrap exposes the original cause.
func (e *OrchestratorError) Unwrap() error { return e.Cause }
