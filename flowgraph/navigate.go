package flowgraph

import "github.com/venturekit/intakeflow/internal/util"

// NextQuestionIndex scans forward from startIndex and returns the first
// index whose question is not skipped under the current answers, or
// len(questions) when every remaining question is skipped.
func (g *Graph) NextQuestionIndex(startIndex int, answers AnswerSet) int {
	if startIndex < 0 {
		startIndex = 0
	}
	for i := startIndex; i < len(g.questions); i++ {
		if !g.ShouldSkip(g.questions[i].ID, answers) {
			return i
		}
	}
	return len(g.questions)
}

// CountRemaining counts the unskipped questions at or after startIndex.
// Questions hidden by skip logic never count toward the remaining total.
func (g *Graph) CountRemaining(startIndex int, answers AnswerSet) int {
	if startIndex < 0 {
		startIndex = 0
	}
	remaining := 0
	for i := startIndex; i < len(g.questions); i++ {
		if !g.ShouldSkip(g.questions[i].ID, answers) {
			remaining++
		}
	}
	return remaining
}

// TrueProgress returns the completion percentage over the unskipped subset
// only. A question hidden by skip logic counts toward neither the numerator
// nor the denominator, so the percentage cannot drift as branches collapse.
func (g *Graph) TrueProgress(answers AnswerSet) float64 {
	visible, answered := 0, 0
	for _, q := range g.questions {
		if g.ShouldSkip(q.ID, answers) {
			continue
		}
		visible++
		if answers.Answered(q.ID) {
			answered++
		}
	}
	if visible == 0 {
		return 100
	}
	return float64(answered) / float64(visible) * 100
}

// stringKey renders an answer value as a branch-table key.
func stringKey(answer any) string {
	return util.Stringify(answer)
}
