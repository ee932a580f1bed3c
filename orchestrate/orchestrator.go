package orchestrate

import (
	"context"
	"time"

	"github.com/venturekit/intakeflow/agent"
	"github.com/venturekit/intakeflow/logging"
	"github.com/venturekit/intakeflow/model"
	"github.com/venturekit/intakeflow/skill"
	"github.com/venturekit/intakeflow/translate"
)

// Orchestrator wires planner, executor and synthesizer into one turn
// pipeline: resolve intent, lay out the plan, run the tasks, synthesize
// the reply.
type Orchestrator struct {
	planner     *Planner
	executor    *Executor
	synthesizer *Synthesizer
	logger      logging.Logger
}

// OrchestratorOptions configures Orchestrator construction.
type OrchestratorOptions struct {
	Logger logging.Logger
	// Translator converts synthesized replies into the requested language.
	Translator translate.Translator
	// CallTimeout bounds each completion call made while executing tasks.
	CallTimeout time.Duration
	// MaxToolRounds bounds tool execution rounds per task.
	MaxToolRounds int
}

// NewOrchestrator builds an Orchestrator over the given collaborators.
func NewOrchestrator(completer model.Completer, agents *agent.Registry, skills *skill.Registry, optFns ...func(o *OrchestratorOptions)) *Orchestrator {
	opts := OrchestratorOptions{
		Logger:        logging.NoOpLogger{},
		Translator:    translate.NoOp{},
		MaxToolRounds: 1,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Orchestrator{
		planner: NewPlanner(completer, agents, func(o *PlannerOptions) {
			o.Logger = opts.Logger
		}),
		executor: NewExecutor(completer, agents, skills, func(o *ExecutorOptions) {
			o.Logger = opts.Logger
			o.CallTimeout = opts.CallTimeout
			o.MaxToolRounds = opts.MaxToolRounds
		}),
		synthesizer: NewSynthesizer(completer, func(o *SynthesizerOptions) {
			o.Logger = opts.Logger
			o.Translator = opts.Translator
		}),
		logger: opts.Logger,
	}
}

// Run executes one orchestration turn. The returned error is always an
// *OrchestratorError; task and synthesis failures degrade inside the
// Result instead of propagating.
func (o *Orchestrator) Run(ctx context.Context, message string, octx map[string]any) (*Result, error) {
	start := time.Now()
	if octx == nil {
		octx = map[string]any{}
	}

	intent, err := o.planner.ResolveIntent(ctx, message, octx)
	if err != nil {
		return nil, err
	}

	plan, err := o.planner.CreatePlan(intent)
	if err != nil {
		return nil, err
	}

	outputs := o.executor.Execute(ctx, plan, octx)

	nextQuestion, _ := octx[CtxNextQuestion].(string)
	targetLang, _ := octx[CtxTargetLanguage].(string)
	synthesis := o.synthesizer.Synthesize(ctx, message, outputs, nextQuestion, targetLang)

	result := &Result{
		Synthesis:     synthesis,
		Outputs:       outputs,
		Intent:        intent,
		Plan:          plan,
		TotalDuration: time.Since(start),
	}
	o.logger.Info("orchestrator.run.done",
		"agents", len(intent.Agents),
		"outputs", len(outputs),
		"duration_ms", result.TotalDuration.Milliseconds(),
	)
	return result, nil
}
