// Package agent holds the static definitions of the specialist personas the
// orchestration layer can invoke: system prompt, model parameters and the
// skill allow-list each agent may call as tools. Definitions are loaded
// once at startup into a read-only registry.
package agent

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Definition describes one agent persona.
type Definition struct {
	ID           string   `yaml:"id"`
	Name         string   `yaml:"name"`
	SystemPrompt string   `yaml:"system_prompt"`
	Skills       []string `yaml:"skills,omitempty"` // allowed skill ids
	Temperature  float64  `yaml:"temperature,omitempty"`
	MaxTokens    int64    `yaml:"max_tokens,omitempty"`
}

// Registry is the immutable agent definition table.
type Registry struct {
	agents map[string]Definition
	order  []string
}

// NewRegistry builds a registry from definitions. Ids must be unique and
// non-empty.
func NewRegistry(defs []Definition) (*Registry, error) {
	r := &Registry{agents: make(map[string]Definition, len(defs))}
	for _, d := range defs {
		if d.ID == "" {
			return nil, fmt.Errorf("agent definition without an id")
		}
		if _, dup := r.agents[d.ID]; dup {
			return nil, fmt.Errorf("duplicate agent id %q", d.ID)
		}
		if d.Name == "" {
			d.Name = d.ID
		}
		r.agents[d.ID] = d
		r.order = append(r.order, d.ID)
	}
	return r, nil
}

// Get returns the definition registered under id.
func (r *Registry) Get(id string) (Definition, bool) {
	d, ok := r.agents[id]
	return d, ok
}

// Has reports whether an agent id is registered.
func (r *Registry) Has(id string) bool {
	_, ok := r.agents[id]
	return ok
}

// Count returns the number of registered agents.
func (r *Registry) Count() int { return len(r.agents) }

// IDs returns the registered agent ids in registration order.
func (r *Registry) IDs() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// File is the on-disk agent definition list (agents.yaml).
type File struct {
	Version string       `yaml:"version"`
	Agents  []Definition `yaml:"agents"`
}

// Load reads agent definitions from a YAML file.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read agents file: %w", err)
	}
	return Parse(data)
}

// Parse builds a Registry from raw YAML bytes.
func Parse(data []byte) (*Registry, error) {
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse agents file: %w", err)
	}
	if len(file.Agents) == 0 {
		return nil, fmt.Errorf("agents file defines no agents")
	}
	return NewRegistry(file.Agents)
}
