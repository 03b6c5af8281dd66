// Package op routes combat operations through a validation pipeline.
//
// Every mutating request runs the same ordered chain of checks: caller
// identity, request body, encounter access, combat-active state, operation
// preconditions, and participant lookup. The first failing check short-
// circuits the operation with a structured error; a fully passing chain
// hands a resolved context to the operation's handler.
//
// The Executor owns orchestration: pipeline, handler dispatch, the
// version-checked persist, and the single boundary where unexpected
// failures become generic internal errors.
package op
