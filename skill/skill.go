// Package skill implements the computation units agents can invoke as
// tools: schema-validated arguments, consistent error handling and a
// registry that exposes skills to the completion service as callable tool
// definitions.
package skill

import (
	"context"
	"fmt"
	"runtime/debug"
	"sort"
	"time"

	"github.com/venturekit/intakeflow/logging"
	"github.com/venturekit/intakeflow/model"
)

// Skill defines a computation unit invocable by id with structured
// parameters. Skills are exposed to agents as callable tools via the
// registry's ToolDefinitions.
//
// Implementations should:
//   - Provide clear, descriptive ids and descriptions (snake_case ids)
//   - Define a proper JSON schema for parameters
//   - Handle errors gracefully and respect context cancellation
//   - Be safe for concurrent use
type Skill interface {
	// ID returns the unique identifier for this skill.
	ID() string

	// Description returns a human-readable description of what this skill
	// does; it is provided to the model to guide tool selection.
	Description() string

	// Parameters returns a JSON schema describing the expected input.
	Parameters() map[string]any

	// Execute runs the skill with already-parsed parameters.
	Execute(ctx context.Context, params map[string]any) (any, error)
}

// Error represents errors that occur during skill execution.
type Error struct {
	Skill   string `json:"skill"`             // Id of the skill that failed
	Message string `json:"message"`           // Error message
	Code    string `json:"code"`              // Error code for categorization
	Details any    `json:"details,omitempty"` // Additional error details
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("skill error [%s] in %s: %s", e.Code, e.Skill, e.Message)
	}
	return fmt.Sprintf("skill error in %s: %s", e.Skill, e.Message)
}

// NewError creates a new Error with the specified details.
func NewError(skill, message, code string) *Error {
	return &Error{Skill: skill, Message: message, Code: code}
}

// Registry holds the available skills. Populated at process start and
// read-only afterwards, so lookups need no locking.
type Registry struct {
	skills map[string]Skill
	logger logging.Logger
}

// RegistryOptions configures Registry construction.
type RegistryOptions struct {
	Logger logging.Logger
}

// NewRegistry builds a registry from the given skills. Duplicate ids are a
// configuration error.
func NewRegistry(skills []Skill, optFns ...func(o *RegistryOptions)) (*Registry, error) {
	opts := RegistryOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	r := &Registry{skills: make(map[string]Skill, len(skills)), logger: opts.Logger}
	for _, s := range skills {
		if s.ID() == "" {
			return nil, fmt.Errorf("skill with empty id")
		}
		if _, dup := r.skills[s.ID()]; dup {
			return nil, fmt.Errorf("duplicate skill id %q", s.ID())
		}
		r.skills[s.ID()] = s
	}
	return r, nil
}

// Get returns the skill registered under id.
func (r *Registry) Get(id string) (Skill, bool) {
	s, ok := r.skills[id]
	return s, ok
}

// Has reports whether a skill id is registered.
func (r *Registry) Has(id string) bool {
	_, ok := r.skills[id]
	return ok
}

// IDs returns the registered skill ids in sorted order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.skills))
	for id := range r.skills {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Execute runs a skill by id. Unknown ids and panics are converted into
// *Error values so callers receive a uniform failure shape; a panic inside
// a skill never takes down the engine.
func (r *Registry) Execute(ctx context.Context, id string, params map[string]any) (result any, err error) {
	s, ok := r.skills[id]
	if !ok {
		return nil, NewError(id, "skill not registered", "NOT_FOUND")
	}

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("skill.execute.panic", "skill", id, "recover", rec, "stack", string(debug.Stack()))
			result = nil
			err = NewError(id, fmt.Sprintf("panic: %v", rec), "PANIC")
		}
	}()

	start := time.Now()
	result, err = s.Execute(ctx, params)
	r.logger.Info("skill.execute.done",
		"skill", id,
		"duration_ms", time.Since(start).Milliseconds(),
		"error", err != nil,
	)
	return result, err
}

// ToolDefinitions builds tool definitions for the given skill ids, skipping
// ids that are not registered. The result order follows ids.
func (r *Registry) ToolDefinitions(ids []string) []model.ToolDefinition {
	defs := make([]model.ToolDefinition, 0, len(ids))
	for _, id := range ids {
		s, ok := r.skills[id]
		if !ok {
			r.logger.Warn("skill.tooldef.unknown", "skill", id)
			continue
		}
		defs = append(defs, model.ToolDefinition{
			Name:        s.ID(),
			Description: s.Description(),
			Parameters:  s.Parameters(),
		})
	}
	return defs
}
