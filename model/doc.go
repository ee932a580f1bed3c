// Package model defines the provider-agnostic completion service used by
// the orchestration layer.
//
// Core goals:
//   - Normalize the request/response tool-calling protocol (ToolDefinition,
//     ToolCall, ToolResult) across vendors
//   - Keep request/response shapes minimal and transport independent
//   - Facilitate lightweight mocking for tests (MockCompleter)
//
// Providers (OpenAI, Anthropic) implement the Completer interface from this
// package so higher layers remain decoupled from vendor SDKs.
package model
