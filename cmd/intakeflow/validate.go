package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/venturekit/intakeflow/agent"
	"github.com/venturekit/intakeflow/flowgraph"
	"github.com/venturekit/intakeflow/trigger"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the flow, rules and agent configuration files",
	RunE: func(cmd *cobra.Command, _ []string) error {
		logger := buildLogger()

		graph, err := flowgraph.Load(flagFlow, logger)
		if err != nil {
			return fmt.Errorf("flow: %w", err)
		}
		engine, err := trigger.Load(flagRules, logger)
		if err != nil {
			return fmt.Errorf("rules: %w", err)
		}
		agents, err := agent.Load(flagAgents)
		if err != nil {
			return fmt.Errorf("agents: %w", err)
		}

		cmd.Printf("flow:   %d phases, %d questions\n", len(graph.Phases()), len(graph.Questions()))
		cmd.Printf("rules:  %d trigger rules\n", engine.RuleCount())
		cmd.Printf("agents: %d definitions\n", agents.Count())
		cmd.Println("configuration is valid")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
