package trigger

import (
	"fmt"

	"github.com/venturekit/intakeflow/expr"
	"github.com/venturekit/intakeflow/flowgraph"
)

// Source enumerates where an auto-populated value comes from.
type Source string

const (
	// SourceStatic copies a literal value into the target field.
	SourceStatic Source = "static"
	// SourceLookup resolves the answer through a named lookup table.
	SourceLookup Source = "lookup"
	// SourceCalculation evaluates an arithmetic formula over numeric answers.
	SourceCalculation Source = "calculation"
	// SourceAgent defers the value to a later agent invocation.
	SourceAgent Source = "agent"
	// SourceSkill defers the value to a later skill invocation.
	SourceSkill Source = "skill"
)

// AutoPopulate writes a derived value into a target field when its rule fires.
type AutoPopulate struct {
	TargetField string `yaml:"target"`
	Source      Source `yaml:"source"`
	Value       any    `yaml:"value,omitempty"`        // static
	LookupTable string `yaml:"lookup_table,omitempty"` // lookup
	Formula     string `yaml:"formula,omitempty"`      // calculation
}

// AgentTrigger queues an agent invocation with an interpolated prompt. The
// optional guard must fully hold for the trigger to apply.
type AgentTrigger struct {
	AgentID        string                `yaml:"agent"`
	PromptTemplate string                `yaml:"prompt"`
	Guard          []flowgraph.Condition `yaml:"guard,omitempty"`
}

// ParamBuilder produces skill parameters from the just-given answer and the
// full answer set. Used by programmatically registered rules; declarative
// rules use the Params template map instead.
type ParamBuilder func(answer any, all flowgraph.AnswerSet) map[string]any

// SkillTrigger queues a skill invocation. Params values that are strings may
// carry {{field}} tokens interpolated against the merged answer context; a
// non-nil Builder takes precedence over Params.
type SkillTrigger struct {
	SkillID string         `yaml:"skill"`
	Params  map[string]any `yaml:"params,omitempty"`
	Builder ParamBuilder   `yaml:"-"`
}

// Rule reacts to one answered field. All conditions must hold for the rule
// to fire; multiple rules may share a trigger field and are applied in
// registration order.
type Rule struct {
	Name         string                `yaml:"name"`
	TriggerField string                `yaml:"trigger"`
	Conditions   []flowgraph.Condition `yaml:"conditions,omitempty"`
	AutoPopulate []AutoPopulate        `yaml:"auto_populate,omitempty"`
	Agents       []AgentTrigger        `yaml:"agents,omitempty"`
	Skills       []SkillTrigger        `yaml:"skills,omitempty"`
}

// conditionOperators is the closed operator set allowed in rule conditions.
var conditionOperators = map[flowgraph.Operator]bool{
	flowgraph.OpExists:   true,
	flowgraph.OpEquals:   true,
	flowgraph.OpContains: true,
}

// Validate checks the rule at load time: known operators, resolvable
// formulas and complete directives. knownTables maps lookup table ids.
func (r Rule) Validate(knownTables map[string]bool) error {
	if r.TriggerField == "" {
		return fmt.Errorf("rule %q has no trigger field", r.Name)
	}

	for _, c := range r.Conditions {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("rule %q: %w", r.Name, err)
		}
		if !conditionOperators[c.Operator] {
			return fmt.Errorf("rule %q: operator %q is not allowed in trigger conditions", r.Name, c.Operator)
		}
	}

	for _, ap := range r.AutoPopulate {
		if ap.TargetField == "" {
			return fmt.Errorf("rule %q: auto-populate directive has no target field", r.Name)
		}
		switch ap.Source {
		case SourceStatic:
			if ap.Value == nil {
				return fmt.Errorf("rule %q: static directive for %q has no value", r.Name, ap.TargetField)
			}
		case SourceLookup:
			if !knownTables[ap.LookupTable] {
				return fmt.Errorf("rule %q: directive for %q references unknown lookup table %q", r.Name, ap.TargetField, ap.LookupTable)
			}
		case SourceCalculation:
			if _, err := expr.Variables(ap.Formula); err != nil {
				return fmt.Errorf("rule %q: formula for %q does not parse: %w", r.Name, ap.TargetField, err)
			}
		case SourceAgent, SourceSkill:
			// Deferred sources are resolved during orchestration, nothing to
			// check at load.
		default:
			return fmt.Errorf("rule %q: directive for %q uses unknown source %q", r.Name, ap.TargetField, ap.Source)
		}
	}

	for _, at := range r.Agents {
		if at.AgentID == "" || at.PromptTemplate == "" {
			return fmt.Errorf("rule %q: agent trigger needs both an agent id and a prompt template", r.Name)
		}
		for _, c := range at.Guard {
			if err := c.Validate(); err != nil {
				return fmt.Errorf("rule %q: agent trigger guard: %w", r.Name, err)
			}
		}
	}

	for _, st := range r.Skills {
		if st.SkillID == "" {
			return fmt.Errorf("rule %q: skill trigger has no skill id", r.Name)
		}
	}

	return nil
}
