package trigger

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/venturekit/intakeflow/logging"
)

// File is the on-disk rule definition (rules.yaml).
type File struct {
	Version      string        `yaml:"version"`
	LookupTables []LookupTable `yaml:"lookup_tables,omitempty"`
	Rules        []Rule        `yaml:"rules"`
}

// Load reads trigger rules from a YAML file and builds the validated Engine.
func Load(path string, logger logging.Logger) (*Engine, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	return Parse(data, logger)
}

// Parse builds an Engine from raw YAML bytes.
func Parse(data []byte, logger logging.Logger) (*Engine, error) {
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse rules file: %w", err)
	}

	return NewEngine(file.Rules, file.LookupTables, func(o *EngineOptions) {
		if logger != nil {
			o.Logger = logger
		}
	})
}
