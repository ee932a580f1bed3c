package model

import (
	"context"
	"fmt"
	"sync"
)

// ToolCall represents a function call request surfaced by a model provider.
// Unified across vendors so downstream logic does not need per-provider
// branching.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"` // JSON string of arguments
}

// ToolResult carries the outcome of one executed tool call back to the
// model, keyed by the originating call id.
type ToolResult struct {
	CallID  string `json:"call_id"`
	Name    string `json:"name"`
	Content string `json:"content"`
	IsError bool   `json:"is_error"`
}

// ToolDefinition declaratively exposes a callable function to the model.
// Parameters is a JSON Schema object (draft agnostic, minimal subset).
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Message is one turn of the conversation history sent to the provider.
type Message struct {
	Role        string       `json:"role"` // "user", "assistant" or "tool"
	Text        string       `json:"text,omitempty"`
	ToolCalls   []ToolCall   `json:"tool_calls,omitempty"`   // assistant turns
	ToolResults []ToolResult `json:"tool_results,omitempty"` // tool turns
}

// UserMessage builds a user turn.
func UserMessage(text string) Message {
	return Message{Role: "user", Text: text}
}

// AssistantMessage builds an assistant turn, optionally carrying the tool
// calls the assistant requested alongside (or instead of) text.
func AssistantMessage(text string, toolCalls ...ToolCall) Message {
	return Message{Role: "assistant", Text: text, ToolCalls: toolCalls}
}

// ToolResultsMessage builds a tool turn carrying executed call results.
func ToolResultsMessage(results ...ToolResult) Message {
	return Message{Role: "tool", ToolResults: results}
}

// Request captures one normalized completion call.
type Request struct {
	System      string           `json:"system"`
	Messages    []Message        `json:"messages"`
	Tools       []ToolDefinition `json:"tools,omitempty"`
	Temperature float64          `json:"temperature,omitempty"`
	MaxTokens   int64            `json:"max_tokens,omitempty"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is the provider's answer: final text, zero or more requested
// tool calls, or both.
type Response struct {
	Text         string      `json:"text"`
	ToolCalls    []ToolCall  `json:"tool_calls,omitempty"`
	FinishReason string      `json:"finish_reason"` // "stop", "length", "tool_calls", etc.
	Usage        *TokenUsage `json:"usage,omitempty"`
}

// Info contains metadata about a completer implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "openai", "anthropic", "mock", etc.
	SupportsTools bool   `json:"supports_tools"`
}

// Completer is the minimal interface the orchestration layer needs to drive
// generation, including the tool-calling protocol: a response may carry
// named tool invocations with JSON arguments, and a follow-up request may
// carry tool results keyed by call id.
type Completer interface {
	Complete(ctx context.Context, req Request) (*Response, error)

	// Info returns information about the completer implementation.
	Info() Info
}

// MockCompleter is a lightweight in-memory Completer useful for tests, the
// CLI's offline mode and examples. Scripted responses are consumed in
// order; when the script is exhausted it echoes the last user message.
// Safe for concurrent use: parallel plans fan completion calls out from
// multiple goroutines.
type MockCompleter struct {
	info Info

	mu     sync.Mutex
	script []scriptedTurn
	calls  []Request
}

type scriptedTurn struct {
	resp *Response
	err  error
}

// NewMockCompleter constructs a MockCompleter with tool support enabled.
func NewMockCompleter() *MockCompleter {
	return &MockCompleter{
		info: Info{Name: "mock", Provider: "mock", SupportsTools: true},
	}
}

// QueueResponse appends a scripted response.
func (m *MockCompleter) QueueResponse(resp *Response) *MockCompleter {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, scriptedTurn{resp: resp})
	return m
}

// QueueText appends a scripted plain-text response.
func (m *MockCompleter) QueueText(text string) *MockCompleter {
	return m.QueueResponse(&Response{Text: text, FinishReason: "stop"})
}

// QueueError appends a scripted failure.
func (m *MockCompleter) QueueError(err error) *MockCompleter {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, scriptedTurn{err: err})
	return m
}

// Requests returns a copy of every request seen so far, in call order.
func (m *MockCompleter) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.calls))
	copy(out, m.calls)
	return out
}

// Complete implements Completer.
func (m *MockCompleter) Complete(_ context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, req)

	if len(m.script) > 0 {
		turn := m.script[0]
		m.script = m.script[1:]
		if turn.err != nil {
			return nil, turn.err
		}
		return turn.resp, nil
	}

	last := ""
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == "user" {
			last = req.Messages[i].Text
			break
		}
	}
	return &Response{
		Text:         fmt.Sprintf("Mock response to: %s", last),
		FinishReason: "stop",
	}, nil
}

// Info implements Completer.
func (m *MockCompleter) Info() Info { return m.info }
