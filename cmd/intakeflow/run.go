package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/venturekit/intakeflow"
	"github.com/venturekit/intakeflow/agent"
	"github.com/venturekit/intakeflow/flowgraph"
	"github.com/venturekit/intakeflow/logging"
	"github.com/venturekit/intakeflow/model"
	"github.com/venturekit/intakeflow/model/anthropic"
	"github.com/venturekit/intakeflow/model/openai"
	"github.com/venturekit/intakeflow/orchestrate"
	"github.com/venturekit/intakeflow/skill"
	"github.com/venturekit/intakeflow/trigger"
)

var (
	flagOffline     bool
	flagLanguage    string
	flagCallTimeout time.Duration
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the intake questionnaire interactively",
	RunE: func(cmd *cobra.Command, _ []string) error {
		logger := buildLogger()

		graph, err := flowgraph.Load(flagFlow, logger)
		if err != nil {
			return fmt.Errorf("flow: %w", err)
		}
		triggers, err := trigger.Load(flagRules, logger)
		if err != nil {
			return fmt.Errorf("rules: %w", err)
		}
		agents, err := agent.Load(flagAgents)
		if err != nil {
			return fmt.Errorf("agents: %w", err)
		}
		skills, err := skill.NewRegistry(starterSkills(), func(o *skill.RegistryOptions) {
			o.Logger = logger
		})
		if err != nil {
			return fmt.Errorf("skills: %w", err)
		}

		completer := buildCompleter(flagOffline)
		engine := intakeflow.New(graph, triggers, completer, agents, skills, func(o *intakeflow.Options) {
			o.Logger = logger
			o.CallTimeout = flagCallTimeout
		})

		cmd.Printf("intakeflow (%s provider)\n\n", completer.Info().Provider)
		return runSession(cmd, engine, graph, logger)
	},
}

func init() {
	runCmd.Flags().BoolVar(&flagOffline, "offline", false, "use the built-in mock completer instead of a provider")
	runCmd.Flags().StringVar(&flagLanguage, "language", "en", "reply language code")
	runCmd.Flags().DurationVar(&flagCallTimeout, "call-timeout", 60*time.Second, "per completion call deadline")
	rootCmd.AddCommand(runCmd)
}

func runSession(cmd *cobra.Command, engine *intakeflow.Engine, graph *flowgraph.Graph, logger logging.Logger) error {
	scanner := bufio.NewScanner(os.Stdin)
	answers := flowgraph.AnswerSet{}
	index := 0

	for {
		q, ok := engine.NextQuestion(index, answers)
		if !ok {
			break
		}

		cmd.Printf("%s\n", q.Prompt)
		if len(q.Options) > 0 {
			cmd.Printf("  options: %s\n", strings.Join(q.Options, ", "))
		}
		cmd.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		answer := parseAnswer(q, scanner.Text())

		result := engine.ProcessAnswer(q.ID, answer, answers)
		answers[q.ID] = answer
		for field, value := range result.ExtractedData {
			answers[field] = value
			cmd.Printf("  derived %s = %v\n", field, value)
		}
		for _, msg := range result.ValidationErrors {
			logger.Warn("cli.turn.validation", "error", msg)
		}

		octx := map[string]any{
			orchestrate.CtxTargetLanguage: flagLanguage,
		}
		if phase, ok := graph.PhaseNumber(q.ID); ok {
			octx[orchestrate.CtxCurrentPhase] = phase
		}
		if next, ok := engine.NextQuestion(result.NextQuestionIndex, answers); ok {
			octx[orchestrate.CtxNextQuestion] = next.Prompt
		} else {
			// Wrap-up turn: route through the suggestion shortcut so the
			// session closes deterministically on any provider.
			octx[orchestrate.CtxRequestType] = "suggestion"
		}
		for field, value := range answers {
			octx[field] = value
		}

		turn, err := engine.Orchestrate(cmd.Context(), fmt.Sprintf("%v", answer), octx)
		if err != nil {
			return err
		}
		cmd.Printf("\n%s\n", turn.Synthesis)
		cmd.Printf("  progress: %.0f%%, %d questions remaining\n\n", result.Progress, result.RemainingCount)

		index = result.NextQuestionIndex
	}

	cmd.Println("Intake complete. Thanks!")
	return nil
}

// parseAnswer coerces the raw input line into the value shape the question
// type expects.
func parseAnswer(q flowgraph.Question, line string) any {
	line = strings.TrimSpace(line)
	switch q.Type {
	case flowgraph.QuestionNumber:
		if n, err := strconv.ParseFloat(line, 64); err == nil {
			return n
		}
		return line
	case flowgraph.QuestionMultiSelect:
		parts := strings.Split(line, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if s := strings.TrimSpace(p); s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return line
	}
}

// buildCompleter picks a provider from the environment, preferring OpenAI,
// then Anthropic, then the offline mock.
func buildCompleter(offline bool) model.Completer {
	if offline {
		return model.NewMockCompleter()
	}
	if os.Getenv("OPENAI_API_KEY") != "" {
		return openai.NewCompleter()
	}
	if os.Getenv("ANTHROPIC_API_KEY") != "" {
		return anthropic.NewCompleter()
	}
	return model.NewMockCompleter()
}
