// Package orchestrate turns a user request into a multi-agent execution:
// the planner resolves an Intent (which agents and skills, which execution
// mode), expands it under the minimum-agent policy and lays it out as an
// ordered plan of tasks; the executor runs the plan with parallel or
// sequential semantics, driving each agent through the completion service
// with a bounded tool-call loop against the skill registry; the
// synthesizer condenses all task outputs into one short reply.
//
// Failure isolation is the organizing principle: a task failure becomes a
// failed AgentOutput, a tool failure becomes an error payload returned to
// the model, and a synthesis failure degrades to a fixed fallback reply.
// Only intent resolution itself may fail the whole turn.
package orchestrate
