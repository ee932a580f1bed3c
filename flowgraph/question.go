// Package flowgraph models the static questionnaire: phases, questions,
// skip rules and branch points, plus the navigation resolver that computes
// the next question and true progress for a given answer set.
//
// Definitions are loaded once at startup (see Load) and are read-only
// afterwards, so a Graph is safe for concurrent readers without locking.
package flowgraph

import "github.com/venturekit/intakeflow/internal/util"

// QuestionType enumerates the supported question kinds.
type QuestionType string

const (
	// QuestionText is a free-form text question.
	QuestionText QuestionType = "text"
	// QuestionChoice is a single-select question.
	QuestionChoice QuestionType = "choice"
	// QuestionMultiSelect allows multiple options to be chosen.
	QuestionMultiSelect QuestionType = "multi_select"
	// QuestionNumber expects a numeric answer.
	QuestionNumber QuestionType = "number"
	// QuestionDate expects a date answer.
	QuestionDate QuestionType = "date"
	// QuestionCheckpoint is a non-question marker used to pause and confirm.
	QuestionCheckpoint QuestionType = "checkpoint"
)

// Question is a single node of the intake flow. Immutable after load.
type Question struct {
	ID       string       `yaml:"id"`
	Prompt   string       `yaml:"prompt"`
	Type     QuestionType `yaml:"type"`
	Options  []string     `yaml:"options,omitempty"`
	Required bool         `yaml:"required"`
}

// Phase is an ordered sequence of questions with a default agent/skill set
// used when a question has none configured.
type Phase struct {
	ID            string     `yaml:"id"`
	Name          string     `yaml:"name"`
	Number        int        `yaml:"number"`
	DefaultAgents []string   `yaml:"default_agents,omitempty"`
	DefaultSkills []string   `yaml:"default_skills,omitempty"`
	Questions     []Question `yaml:"questions"`
}

// AnswerSet maps question ids to answer values for one conversation session.
// It grows monotonically; entries are only removed by an explicit Reset.
// The engine assumes a single writer per session; concurrent writers must be
// serialized by the caller.
type AnswerSet map[string]any

// Answered reports whether a question id is present in the answer set.
func (a AnswerSet) Answered(id string) bool {
	_, ok := a[id]
	return ok
}

// Number returns the answer for id coerced to float64, if it is numeric.
func (a AnswerSet) Number(id string) (float64, bool) {
	v, ok := a[id]
	if !ok {
		return 0, false
	}
	return toNumber(v)
}

// String returns the answer for id rendered as a string.
func (a AnswerSet) String(id string) (string, bool) {
	v, ok := a[id]
	if !ok {
		return "", false
	}
	return util.Stringify(v), true
}

// Clone returns a shallow copy of the answer set.
func (a AnswerSet) Clone() AnswerSet {
	out := make(AnswerSet, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Reset removes every entry. The only sanctioned way to delete answers.
func (a AnswerSet) Reset() {
	for k := range a {
		delete(a, k)
	}
}

func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	default:
		return 0, false
	}
}
