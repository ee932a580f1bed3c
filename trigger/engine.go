package trigger

import (
	"fmt"
	"regexp"

	"github.com/venturekit/intakeflow/expr"
	"github.com/venturekit/intakeflow/flowgraph"
	"github.com/venturekit/intakeflow/internal/util"
	"github.com/venturekit/intakeflow/logging"
)

// AgentInvocation is a queued agent call produced by a fired rule.
type AgentInvocation struct {
	AgentID string `json:"agent_id"`
	Prompt  string `json:"prompt"`
}

// SkillInvocation is a queued skill call produced by a fired rule. Nothing
// is executed by the trigger engine; invocations accumulate for the
// orchestration layer.
type SkillInvocation struct {
	SkillID string         `json:"skill_id"`
	Params  map[string]any `json:"params"`
}

// Result is the outcome of processing one answered field.
type Result struct {
	AutoPopulated    map[string]any    `json:"auto_populated"`
	AgentsToTrigger  []AgentInvocation `json:"agents_to_trigger"`
	SkillsToExecute  []SkillInvocation `json:"skills_to_execute"`
	ThinkingLog      []string          `json:"thinking_log"`
	ValidationErrors []string          `json:"validation_errors"`
}

func newResult() *Result {
	return &Result{AutoPopulated: map[string]any{}}
}

func (r *Result) think(format string, args ...any) {
	r.ThinkingLog = append(r.ThinkingLog, fmt.Sprintf(format, args...))
}

func (r *Result) invalid(format string, args ...any) {
	r.ValidationErrors = append(r.ValidationErrors, fmt.Sprintf(format, args...))
}

// Engine holds the immutable rule and lookup registries. Built once at
// process start; ProcessAnswer is read-only and safe for concurrent use.
type Engine struct {
	rules   map[string][]Rule // trigger field -> rules in registration order
	lookups map[string]LookupTable
	logger  logging.Logger
}

// EngineOptions configures Engine construction.
type EngineOptions struct {
	Logger logging.Logger
}

// NewEngine validates every rule and builds the registries. Validation
// failures abort startup; the alternative is discovering a broken rule in
// the middle of a conversation.
func NewEngine(rules []Rule, tables []LookupTable, optFns ...func(o *EngineOptions)) (*Engine, error) {
	opts := EngineOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	e := &Engine{
		rules:   map[string][]Rule{},
		lookups: map[string]LookupTable{},
		logger:  opts.Logger,
	}

	for _, t := range tables {
		if t.ID == "" {
			return nil, fmt.Errorf("lookup table without an id")
		}
		if _, dup := e.lookups[t.ID]; dup {
			return nil, fmt.Errorf("duplicate lookup table %q", t.ID)
		}
		e.lookups[t.ID] = t
	}

	known := make(map[string]bool, len(e.lookups))
	for id := range e.lookups {
		known[id] = true
	}

	for _, r := range rules {
		if err := r.Validate(known); err != nil {
			return nil, err
		}
		e.rules[r.TriggerField] = append(e.rules[r.TriggerField], r)
	}

	return e, nil
}

// RuleCount returns the number of registered rules.
func (e *Engine) RuleCount() int {
	n := 0
	for _, rs := range e.rules {
		n += len(rs)
	}
	return n
}

// ProcessAnswer applies every rule keyed by questionID whose conditions all
// hold against the merged context (allAnswers plus the field just answered).
// The three directive kinds run independently; a failing directive records a
// validation error and never blocks its siblings.
func (e *Engine) ProcessAnswer(questionID string, answer any, allAnswers flowgraph.AnswerSet) *Result {
	result := newResult()

	rules, ok := e.rules[questionID]
	if !ok {
		return result
	}

	merged := allAnswers.Clone()
	merged[questionID] = answer

	for _, rule := range rules {
		fired, err := e.conditionsHold(rule, merged)
		if err != nil {
			// Condition evaluation failures keep the rule dormant but are
			// surfaced for diagnosis.
			result.invalid("rule %s: condition evaluation failed: %v", rule.Name, err)
			continue
		}
		if !fired {
			result.think("rule %s: conditions not met for %s", rule.Name, questionID)
			continue
		}

		result.think("rule %s fired on %s", rule.Name, questionID)
		e.logger.Debug("trigger.rule.fired", "rule", rule.Name, "field", questionID)

		e.applyAutoPopulate(rule, answer, merged, result)
		e.collectAgentTriggers(rule, merged, result)
		e.collectSkillTriggers(rule, answer, merged, result)
	}

	return result
}

func (e *Engine) conditionsHold(rule Rule, merged flowgraph.AnswerSet) (bool, error) {
	for _, c := range rule.Conditions {
		ok, err := c.Eval(merged)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// applyAutoPopulate resolves every auto-populate directive of a fired rule.
// Unresolvable directives yield no value and a validation error; they never
// panic and never block sibling directives.
func (e *Engine) applyAutoPopulate(rule Rule, answer any, merged flowgraph.AnswerSet, result *Result) {
	for _, ap := range rule.AutoPopulate {
		switch ap.Source {
		case SourceStatic:
			result.AutoPopulated[ap.TargetField] = ap.Value
			result.think("auto-populated %s with static value", ap.TargetField)

		case SourceLookup:
			table, ok := e.lookups[ap.LookupTable]
			if !ok {
				result.invalid("rule %s: lookup table %s not registered", rule.Name, ap.LookupTable)
				continue
			}
			value, found := table.Resolve(answer)
			if !found {
				result.think("lookup %s had no match for %s", ap.LookupTable, ap.TargetField)
				continue
			}
			result.AutoPopulated[ap.TargetField] = value
			result.think("auto-populated %s via lookup %s", ap.TargetField, ap.LookupTable)

		case SourceCalculation:
			value, err := e.evalFormula(ap.Formula, merged)
			if err != nil {
				result.invalid("rule %s: formula for %s unresolved: %v", rule.Name, ap.TargetField, err)
				continue
			}
			result.AutoPopulated[ap.TargetField] = value
			result.think("auto-populated %s via calculation", ap.TargetField)

		case SourceAgent, SourceSkill:
			result.think("auto-populate of %s deferred to %s execution", ap.TargetField, ap.Source)

		default:
			result.invalid("rule %s: unknown auto-populate source %q", rule.Name, ap.Source)
		}
	}
}

// evalFormula binds every numeric answer by field name and evaluates the
// formula. Missing or non-numeric variables surface as an error from the
// evaluator, which the caller records as a non-fatal validation error.
func (e *Engine) evalFormula(formula string, merged flowgraph.AnswerSet) (float64, error) {
	vars := map[string]float64{}
	for field := range merged {
		if n, ok := merged.Number(field); ok {
			vars[field] = n
		}
	}
	return expr.Eval(formula, vars)
}

// collectAgentTriggers queues agent invocations for triggers whose guard
// holds, interpolating {{field}} tokens against the merged context. Tokens
// whose field is absent stay as literal placeholders in the prompt.
func (e *Engine) collectAgentTriggers(rule Rule, merged flowgraph.AnswerSet, result *Result) {
	for _, at := range rule.Agents {
		if len(at.Guard) > 0 {
			ok, err := evalGuard(at.Guard, merged)
			if err != nil {
				result.invalid("rule %s: guard for agent %s failed: %v", rule.Name, at.AgentID, err)
				continue
			}
			if !ok {
				result.think("agent %s guard not met", at.AgentID)
				continue
			}
		}

		prompt := util.Interpolate(at.PromptTemplate, merged)
		result.AgentsToTrigger = append(result.AgentsToTrigger, AgentInvocation{
			AgentID: at.AgentID,
			Prompt:  prompt,
		})
		result.think("queued agent %s", at.AgentID)
	}
}

func evalGuard(guard []flowgraph.Condition, merged flowgraph.AnswerSet) (bool, error) {
	for _, c := range guard {
		ok, err := c.Eval(merged)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

// collectSkillTriggers queues skill invocations. A programmatic Builder
// wins over the declarative Params template. Nothing executes here.
func (e *Engine) collectSkillTriggers(rule Rule, answer any, merged flowgraph.AnswerSet, result *Result) {
	for _, st := range rule.Skills {
		var params map[string]any
		if st.Builder != nil {
			params = st.Builder(answer, merged)
		} else {
			params = buildParams(st.Params, merged)
		}
		result.SkillsToExecute = append(result.SkillsToExecute, SkillInvocation{
			SkillID: st.SkillID,
			Params:  params,
		})
		result.think("queued skill %s", st.SkillID)
	}
}

// buildParams interpolates declarative parameter templates. String values
// go through {{field}} interpolation; a value that is exactly one token
// resolves to the raw answer value so numbers stay numbers.
func buildParams(spec map[string]any, merged flowgraph.AnswerSet) map[string]any {
	params := make(map[string]any, len(spec))
	for name, value := range spec {
		s, isString := value.(string)
		if !isString {
			params[name] = value
			continue
		}
		if field, ok := singleToken(s); ok {
			if raw, present := merged[field]; present {
				params[name] = raw
				continue
			}
		}
		params[name] = util.Interpolate(s, merged)
	}
	return params
}

var singleTokenRe = regexp.MustCompile(`^\{\{\s*([a-zA-Z0-9_.]+)\s*\}\}$`)

// singleToken reports whether s is exactly one {{field}} token and returns
// the field name.
func singleToken(s string) (string, bool) {
	m := singleTokenRe.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	return m[1], true
}
