package flowgraph

import (
	"fmt"

	"github.com/venturekit/intakeflow/logging"
)

// SkipRule hides a question when its predicate holds over the current
// answers. Reason is surfaced in logs and explanations.
type SkipRule struct {
	QuestionID string      `yaml:"question"`
	Reason     string      `yaml:"reason"`
	WhenAll    []Condition `yaml:"when_all,omitempty"`
	WhenAny    []Condition `yaml:"when_any,omitempty"`
}

// Validate checks the rule's conditions at load time.
func (r SkipRule) Validate() error {
	if r.QuestionID == "" {
		return fmt.Errorf("skip rule is missing a question id")
	}
	if len(r.WhenAll) == 0 && len(r.WhenAny) == 0 {
		return fmt.Errorf("skip rule for %q has no conditions", r.QuestionID)
	}
	for _, c := range append(append([]Condition{}, r.WhenAll...), r.WhenAny...) {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("skip rule for %q: %w", r.QuestionID, err)
		}
	}
	return nil
}

// BranchPoint records which follow-up questions an answer value activates.
// It is bookkeeping for explanations only; skip rules remain the source of
// truth for actual inclusion.
type BranchPoint struct {
	QuestionID string              `yaml:"question"`
	Branches   map[string][]string `yaml:"branches"`
}

// Graph is the immutable question flow: phases flattened into one ordered
// question list plus the skip rule and branch point tables. Built once at
// process start; all accessors are read-only and safe for concurrent use.
type Graph struct {
	phases    []Phase
	questions []Question
	position  map[string]int // question id -> flattened index
	phaseOf   map[string]int // question id -> phase number
	skipRules map[string]SkipRule
	branches  map[string]BranchPoint
	logger    logging.Logger
}

// GraphOptions configures Graph construction.
type GraphOptions struct {
	SkipRules    []SkipRule
	BranchPoints []BranchPoint
	Logger       logging.Logger
}

// NewGraph builds a Graph from phases and optional skip/branch tables.
// Rules are validated eagerly so configuration mistakes surface at startup
// rather than mid-conversation.
func NewGraph(phases []Phase, optFns ...func(o *GraphOptions)) (*Graph, error) {
	opts := GraphOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	g := &Graph{
		phases:    phases,
		position:  map[string]int{},
		phaseOf:   map[string]int{},
		skipRules: map[string]SkipRule{},
		branches:  map[string]BranchPoint{},
		logger:    opts.Logger,
	}

	for _, phase := range phases {
		for _, q := range phase.Questions {
			if q.ID == "" {
				return nil, fmt.Errorf("phase %q contains a question without an id", phase.ID)
			}
			if _, dup := g.position[q.ID]; dup {
				return nil, fmt.Errorf("duplicate question id %q", q.ID)
			}
			g.position[q.ID] = len(g.questions)
			g.phaseOf[q.ID] = phase.Number
			g.questions = append(g.questions, q)
		}
	}

	for _, rule := range opts.SkipRules {
		if err := rule.Validate(); err != nil {
			return nil, err
		}
		if _, known := g.position[rule.QuestionID]; !known {
			return nil, fmt.Errorf("skip rule references unknown question %q", rule.QuestionID)
		}
		if _, dup := g.skipRules[rule.QuestionID]; dup {
			return nil, fmt.Errorf("duplicate skip rule for question %q", rule.QuestionID)
		}
		g.skipRules[rule.QuestionID] = rule
	}

	for _, bp := range opts.BranchPoints {
		if _, known := g.position[bp.QuestionID]; !known {
			return nil, fmt.Errorf("branch point references unknown question %q", bp.QuestionID)
		}
		g.branches[bp.QuestionID] = bp
	}

	return g, nil
}

// Questions returns the flattened, ordered question list.
func (g *Graph) Questions() []Question { return g.questions }

// Question looks up a question by id.
func (g *Graph) Question(id string) (Question, bool) {
	idx, ok := g.position[id]
	if !ok {
		return Question{}, false
	}
	return g.questions[idx], true
}

// Phases returns the configured phases in order.
func (g *Graph) Phases() []Phase { return g.phases }

// PhaseNumber returns the phase number a question belongs to.
func (g *Graph) PhaseNumber(questionID string) (int, bool) {
	n, ok := g.phaseOf[questionID]
	return n, ok
}

// Index returns the flattened position of a question id.
func (g *Graph) Index(questionID string) (int, bool) {
	idx, ok := g.position[questionID]
	return idx, ok
}

// ShouldSkip reports whether the question is hidden for the given answers.
// A question with no registered skip rule is never skipped. Predicate
// evaluation failures fail open (do not skip): silently hiding a question
// because of an evaluation bug would corrupt the questionnaire.
func (g *Graph) ShouldSkip(questionID string, answers AnswerSet) bool {
	rule, ok := g.skipRules[questionID]
	if !ok {
		return false
	}

	all, err := evalAll(rule.WhenAll, answers)
	if err != nil {
		g.logger.Warn("flowgraph.skip.eval_failed", "question", questionID, "error", err.Error())
		return false
	}
	any, err := evalAny(rule.WhenAny, answers)
	if err != nil {
		g.logger.Warn("flowgraph.skip.eval_failed", "question", questionID, "error", err.Error())
		return false
	}

	skip := all && any
	if skip {
		g.logger.Debug("flowgraph.skip", "question", questionID, "reason", rule.Reason)
	}
	return skip
}

// SkipReason returns the configured reason for a question's skip rule.
func (g *Graph) SkipReason(questionID string) (string, bool) {
	rule, ok := g.skipRules[questionID]
	if !ok {
		return "", false
	}
	return rule.Reason, true
}

// BranchQuestions returns the question ids activated when the branch-point
// question is answered with the given value. It depends only on the static
// branch table, never on session state.
func (g *Graph) BranchQuestions(questionID string, answer any) []string {
	bp, ok := g.branches[questionID]
	if !ok {
		return nil
	}
	ids, ok := bp.Branches[stringKey(answer)]
	if !ok {
		return nil
	}
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}
