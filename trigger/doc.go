// Package trigger implements the rule engine that reacts to answered intake
// fields. Each rule is keyed by a trigger field and may auto-populate
// derived fields (static value, lookup table, calculated formula), queue
// agent invocations with interpolated prompts, and queue skill invocations
// with built parameters.
//
// Rules, conditions and lookup tables are declarative data validated at
// load time and held in read-only registries; processing an answer never
// mutates the engine. The three directive kinds of a fired rule run
// independently: a failure in one is recorded as a validation error and
// never blocks the others.
package trigger
