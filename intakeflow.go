// Package intakeflow is a decision and execution engine for branching
// business-model intake questionnaires. It combines a question flow graph
// with skip and branch logic, a rule-trigger engine that reacts to each
// answer, and a multi-agent orchestration layer that plans, executes and
// synthesizes specialist work on top of a completion service.
//
// The engine is stateless: callers own the answer set and conversation
// context and pass them into every call. All registries and graphs are
// built once at startup and are safe for concurrent use.
package intakeflow

import (
	"context"
	"time"

	"github.com/venturekit/intakeflow/agent"
	"github.com/venturekit/intakeflow/flowgraph"
	"github.com/venturekit/intakeflow/logging"
	"github.com/venturekit/intakeflow/model"
	"github.com/venturekit/intakeflow/orchestrate"
	"github.com/venturekit/intakeflow/skill"
	"github.com/venturekit/intakeflow/translate"
	"github.com/venturekit/intakeflow/trigger"
)

// Engine bundles the three decision layers behind one entry point: the
// flow graph decides what to ask, the trigger engine decides what an
// answer implies, and the orchestrator decides who works on it.
type Engine struct {
	graph        *flowgraph.Graph
	triggers     *trigger.Engine
	orchestrator *orchestrate.Orchestrator
	logger       logging.Logger
}

// Options configures Engine construction.
type Options struct {
	Logger logging.Logger
	// Translator converts synthesized replies into the requested language.
	Translator translate.Translator
	// CallTimeout bounds each completion call during task execution.
	CallTimeout time.Duration
	// MaxToolRounds bounds tool execution rounds per task.
	MaxToolRounds int
}

// New wires an Engine from its collaborators. The flow graph, trigger
// engine and registries are built by their own packages; this constructor
// only assembles them.
func New(graph *flowgraph.Graph, triggers *trigger.Engine, completer model.Completer, agents *agent.Registry, skills *skill.Registry, optFns ...func(o *Options)) *Engine {
	opts := Options{
		Logger:        logging.NoOpLogger{},
		Translator:    translate.NoOp{},
		MaxToolRounds: 1,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Engine{
		graph:    graph,
		triggers: triggers,
		orchestrator: orchestrate.NewOrchestrator(completer, agents, skills, func(o *orchestrate.OrchestratorOptions) {
			o.Logger = opts.Logger
			o.Translator = opts.Translator
			o.CallTimeout = opts.CallTimeout
			o.MaxToolRounds = opts.MaxToolRounds
		}),
		logger: opts.Logger,
	}
}

// TurnResult is the engine's full reaction to one answered question.
type TurnResult struct {
	// ExtractedData holds the fields auto-populated by fired rules.
	ExtractedData map[string]any `json:"extracted_data"`
	// AgentsToTrigger and SkillsToExecute are queued, not yet executed.
	AgentsToTrigger []trigger.AgentInvocation `json:"agents_to_trigger,omitempty"`
	SkillsToExecute []trigger.SkillInvocation `json:"skills_to_execute,omitempty"`
	// ThinkingLog traces every rule decision for this turn.
	ThinkingLog []string `json:"thinking_log,omitempty"`
	// ValidationErrors lists non-fatal rule failures.
	ValidationErrors []string `json:"validation_errors,omitempty"`

	// NextQuestionIndex is the flattened index of the next unskipped
	// question, or the question count when the flow is exhausted.
	NextQuestionIndex int `json:"next_question_index"`
	// RemainingCount counts the unskipped questions still ahead.
	RemainingCount int `json:"remaining_count"`
	// Progress is the completion percentage over visible questions only.
	Progress float64 `json:"progress"`
	// ActivatedBranches lists follow-up question ids this answer activates.
	ActivatedBranches []string `json:"activated_branches,omitempty"`
}

// ProcessAnswer runs one questionnaire turn: fire the trigger rules for
// the answered field, then navigate the flow graph with the updated
// answers. The caller's answer set is not mutated; extracted data is
// folded into a working copy so skip logic and progress see it.
func (e *Engine) ProcessAnswer(questionID string, answer any, answers flowgraph.AnswerSet) *TurnResult {
	triggered := e.triggers.ProcessAnswer(questionID, answer, answers)

	merged := answers.Clone()
	merged[questionID] = answer
	for field, value := range triggered.AutoPopulated {
		merged[field] = value
	}

	startIndex := 0
	if idx, ok := e.graph.Index(questionID); ok {
		startIndex = idx + 1
	}
	next := e.graph.NextQuestionIndex(startIndex, merged)

	result := &TurnResult{
		ExtractedData:     triggered.AutoPopulated,
		AgentsToTrigger:   triggered.AgentsToTrigger,
		SkillsToExecute:   triggered.SkillsToExecute,
		ThinkingLog:       triggered.ThinkingLog,
		ValidationErrors:  triggered.ValidationErrors,
		NextQuestionIndex: next,
		RemainingCount:    e.graph.CountRemaining(next, merged),
		Progress:          e.graph.TrueProgress(merged),
		ActivatedBranches: e.graph.BranchQuestions(questionID, answer),
	}

	e.logger.Info("engine.turn.done",
		"question", questionID,
		"extracted", len(result.ExtractedData),
		"next_index", result.NextQuestionIndex,
		"remaining", result.RemainingCount,
	)
	return result
}

// NextQuestion returns the question at the next unskipped index at or
// after startIndex, or false when the flow is exhausted.
func (e *Engine) NextQuestion(startIndex int, answers flowgraph.AnswerSet) (flowgraph.Question, bool) {
	idx := e.graph.NextQuestionIndex(startIndex, answers)
	questions := e.graph.Questions()
	if idx >= len(questions) {
		return flowgraph.Question{}, false
	}
	return questions[idx], true
}

// Graph exposes the underlying flow graph for read-only inspection.
func (e *Engine) Graph() *flowgraph.Graph { return e.graph }

// Orchestrate runs one multi-agent turn over the user's message and
// conversation context. See orchestrate.Orchestrator.Run for the failure
// contract.
func (e *Engine) Orchestrate(ctx context.Context, message string, octx map[string]any) (*orchestrate.Result, error) {
	return e.orchestrator.Run(ctx, message, octx)
}
