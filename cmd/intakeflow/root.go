package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/venturekit/intakeflow/logging"
)

var (
	flagFlow      string
	flagRules     string
	flagAgents    string
	flagLogLevel  string
	flagLogFormat string
)

var rootCmd = &cobra.Command{
	Use:   "intakeflow",
	Short: "Decision and execution engine for business-model intake questionnaires",
	Long: `intakeflow drives a branching business-model questionnaire: it decides
which question to ask next, reacts to answers with auto-population and
agent/skill triggers, and orchestrates specialist agents over a completion
service to produce one synthesized reply per turn.`,
	SilenceUsage: true,
	PersistentPreRun: func(*cobra.Command, []string) {
		// Missing .env is fine; environment variables still apply.
		_ = godotenv.Load()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagFlow, "flow", "flow.yaml", "path to the flow definition")
	rootCmd.PersistentFlags().StringVar(&flagRules, "rules", "rules.yaml", "path to the trigger rules")
	rootCmd.PersistentFlags().StringVar(&flagAgents, "agents", "agents.yaml", "path to the agent definitions")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "text", "log format (text, json)")
}

func buildLogger() logging.Logger {
	level := logging.LogLevelWarn
	switch flagLogLevel {
	case "debug":
		level = logging.LogLevelDebug
	case "info":
		level = logging.LogLevelInfo
	case "error":
		level = logging.LogLevelError
	}
	return logging.NewSlogLogger(level, flagLogFormat, os.Stderr)
}
