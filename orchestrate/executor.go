package orchestrate

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/venturekit/intakeflow/agent"
	"github.com/venturekit/intakeflow/internal/util"
	"github.com/venturekit/intakeflow/logging"
	"github.com/venturekit/intakeflow/model"
	"github.com/venturekit/intakeflow/skill"
)

// defaultLanguage is the language replies are produced in unless the
// orchestration context requests otherwise.
const defaultLanguage = "en"

// Executor runs execution plans against the completion service and the
// skill registry. It never returns an error: every task failure is
// captured as a failed AgentOutput so one agent cannot sink the turn.
type Executor struct {
	completer     model.Completer
	agents        *agent.Registry
	skills        *skill.Registry
	logger        logging.Logger
	callTimeout   time.Duration
	maxToolRounds int
}

// ExecutorOptions configures Executor construction.
type ExecutorOptions struct {
	Logger logging.Logger
	// CallTimeout bounds each individual completion call. Zero disables
	// the per-call deadline.
	CallTimeout time.Duration
	// MaxToolRounds bounds how many rounds of tool execution a single task
	// may go through before the final completion.
	MaxToolRounds int
}

// NewExecutor builds an Executor.
func NewExecutor(completer model.Completer, agents *agent.Registry, skills *skill.Registry, optFns ...func(o *ExecutorOptions)) *Executor {
	opts := ExecutorOptions{
		Logger:        logging.NoOpLogger{},
		MaxToolRounds: 1,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.MaxToolRounds < 1 {
		opts.MaxToolRounds = 1
	}
	return &Executor{
		completer:     completer,
		agents:        agents,
		skills:        skills,
		logger:        opts.Logger,
		callTimeout:   opts.CallTimeout,
		maxToolRounds: opts.MaxToolRounds,
	}
}

// Execute runs every task in the plan and returns exactly one AgentOutput
// per task, in plan order.
func (e *Executor) Execute(ctx context.Context, plan *Plan, octx map[string]any) []AgentOutput {
	if plan == nil || len(plan.Tasks) == 0 {
		return nil
	}

	if plan.Mode == ModeSequential {
		return e.executeSequential(ctx, plan, octx)
	}
	return e.executeParallel(ctx, plan, octx)
}

// executeParallel fans all tasks out concurrently. Results land at the
// task's plan index, so output order is stable regardless of which
// goroutine finishes first.
func (e *Executor) executeParallel(ctx context.Context, plan *Plan, octx map[string]any) []AgentOutput {
	outputs := make([]AgentOutput, len(plan.Tasks))
	shared := cloneContext(octx)

	var wg sync.WaitGroup
	for i, task := range plan.Tasks {
		wg.Add(1)
		go func(i int, task Task) {
			defer wg.Done()
			outputs[i] = e.executeTask(ctx, task, shared)
		}(i, task)
	}
	wg.Wait()

	e.logger.Info("executor.parallel.done", "tasks", len(plan.Tasks))
	return outputs
}

// executeSequential runs tasks in plan order. Each completed task's output
// is injected into the working context under "<agent_id>_output" so later
// tasks can build on it.
func (e *Executor) executeSequential(ctx context.Context, plan *Plan, octx map[string]any) []AgentOutput {
	outputs := make([]AgentOutput, 0, len(plan.Tasks))
	working := cloneContext(octx)

	for _, task := range plan.Tasks {
		out := e.executeTask(ctx, task, working)
		outputs = append(outputs, out)
		if out.Success {
			working[task.AgentID+"_output"] = out.Output
		}
	}

	e.logger.Info("executor.sequential.done", "tasks", len(plan.Tasks))
	return outputs
}

// executeTask drives one agent through the completion service, executing
// at most maxToolRounds rounds of requested tool calls before the final
// completion. All failure modes collapse into a failed AgentOutput.
func (e *Executor) executeTask(ctx context.Context, task Task, octx map[string]any) AgentOutput {
	start := time.Now()
	out := AgentOutput{
		TaskID:    task.ID,
		AgentID:   task.AgentID,
		AgentName: task.AgentName,
	}
	fail := func(err error) AgentOutput {
		out.ExecutionTime = time.Since(start)
		out.Error = err.Error()
		e.logger.Warn("executor.task.failed", "task", task.ID, "agent", task.AgentID, "error", err)
		return out
	}

	def, ok := e.agents.Get(task.AgentID)
	if !ok {
		return fail(fmt.Errorf("agent not found: %s", task.AgentID))
	}

	messages := []model.Message{model.UserMessage(e.buildTaskPrompt(task, octx))}
	tools := e.skills.ToolDefinitions(task.Skills)

	resp, err := e.complete(ctx, def, messages, tools)
	if err != nil {
		return fail(fmt.Errorf("completion: %w", err))
	}

	allowed := make(map[string]bool, len(task.Skills))
	for _, id := range task.Skills {
		allowed[id] = true
	}

	for round := 0; round < e.maxToolRounds && len(resp.ToolCalls) > 0; round++ {
		results := make([]model.ToolResult, 0, len(resp.ToolCalls))
		for _, call := range resp.ToolCalls {
			result, record := e.runToolCall(ctx, call, allowed)
			results = append(results, result)
			out.ToolCalls = append(out.ToolCalls, record)
			if !record.IsError {
				out.SkillsUsed = appendMissing(out.SkillsUsed, call.Name)
			}
		}

		messages = append(messages,
			model.AssistantMessage(resp.Text, resp.ToolCalls...),
			model.ToolResultsMessage(results...),
		)
		resp, err = e.complete(ctx, def, messages, tools)
		if err != nil {
			return fail(fmt.Errorf("completion after tools: %w", err))
		}
	}

	if len(resp.ToolCalls) > 0 {
		e.logger.Warn("executor.task.tool_budget_exhausted", "task", task.ID, "agent", task.AgentID)
	}

	out.Output = resp.Text
	out.ExecutionTime = time.Since(start)
	out.Success = true
	e.logger.Info("executor.task.done",
		"task", task.ID,
		"agent", task.AgentID,
		"skills_used", len(out.SkillsUsed),
		"duration_ms", out.ExecutionTime.Milliseconds(),
	)
	return out
}

// runToolCall executes one requested tool call. Calls outside the task's
// allow-list, unparseable arguments and skill failures all come back as
// structured error payloads for the model instead of failing the task.
func (e *Executor) runToolCall(ctx context.Context, call model.ToolCall, allowed map[string]bool) (model.ToolResult, ToolCallRecord) {
	record := ToolCallRecord{CallID: call.ID, Skill: call.Name, Arguments: call.Arguments}

	content, isErr := func() (string, bool) {
		if !allowed[call.Name] || !e.skills.Has(call.Name) {
			return errorPayload(map[string]any{
				"error": "skill not available",
				"skill": call.Name,
			}), true
		}

		params := map[string]any{}
		if strings.TrimSpace(call.Arguments) != "" {
			if err := json.Unmarshal([]byte(call.Arguments), &params); err != nil {
				return errorPayload(map[string]any{
					"error": "invalid arguments: " + err.Error(),
					"skill": call.Name,
				}), true
			}
		}

		result, err := e.skills.Execute(ctx, call.Name, params)
		if err != nil {
			return errorPayload(map[string]any{
				"error": err.Error(),
				"skill": call.Name,
			}), true
		}

		data, err := json.Marshal(result)
		if err != nil {
			return util.Stringify(result), false
		}
		return string(data), false
	}()

	record.Result = content
	record.IsError = isErr
	return model.ToolResult{
		CallID:  call.ID,
		Name:    call.Name,
		Content: content,
		IsError: isErr,
	}, record
}

// complete issues one completion call under the per-call deadline.
func (e *Executor) complete(ctx context.Context, def agent.Definition, messages []model.Message, tools []model.ToolDefinition) (*model.Response, error) {
	if e.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.callTimeout)
		defer cancel()
	}
	return e.completer.Complete(ctx, model.Request{
		System:      def.SystemPrompt,
		Messages:    messages,
		Tools:       tools,
		Temperature: def.Temperature,
		MaxTokens:   def.MaxTokens,
	})
}

// buildTaskPrompt renders the task description, the orchestration context
// and the language directive into the user message for the agent.
func (e *Executor) buildTaskPrompt(task Task, octx map[string]any) string {
	var b strings.Builder

	if lang, _ := octx[CtxTargetLanguage].(string); lang != "" && lang != defaultLanguage {
		fmt.Fprintf(&b, "Respond in language %q.\n\n", lang)
	}

	b.WriteString(task.Description)

	keys := make([]string, 0, len(octx))
	for k := range octx {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) > 0 {
		b.WriteString("\n\nKnown context:\n")
		for _, k := range keys {
			fmt.Fprintf(&b, "- %s: %s\n", k, util.Stringify(octx[k]))
		}
	}
	return b.String()
}

func errorPayload(payload map[string]any) string {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Sprintf("%v", payload)
	}
	return string(data)
}

func cloneContext(octx map[string]any) map[string]any {
	clone := make(map[string]any, len(octx))
	for k, v := range octx {
		clone[k] = v
	}
	return clone
}
