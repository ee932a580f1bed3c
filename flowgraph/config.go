package flowgraph

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/venturekit/intakeflow/logging"
)

// File is the on-disk flow definition (flow.yaml).
type File struct {
	Version      string        `yaml:"version"`
	Phases       []Phase       `yaml:"phases"`
	SkipRules    []SkipRule    `yaml:"skip_rules,omitempty"`
	BranchPoints []BranchPoint `yaml:"branch_points,omitempty"`
}

// Load reads a flow definition from a YAML file and builds the immutable
// Graph, validating questions, skip rules and branch points eagerly.
func Load(path string, logger logging.Logger) (*Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read flow file: %w", err)
	}
	return Parse(data, logger)
}

// Parse builds a Graph from raw YAML bytes.
func Parse(data []byte, logger logging.Logger) (*Graph, error) {
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse flow file: %w", err)
	}
	if len(file.Phases) == 0 {
		return nil, fmt.Errorf("flow file defines no phases")
	}

	return NewGraph(file.Phases, func(o *GraphOptions) {
		o.SkipRules = file.SkipRules
		o.BranchPoints = file.BranchPoints
		if logger != nil {
			o.Logger = logger
		}
	})
}
