// Package domain models combat encounters and their turn state.
//
// An Encounter is the aggregate root: it owns the participant roster and the
// combat state (round, turn, pause marker, turn history). All functions here
// are pure state transitions or in-place mutators over an already-loaded
// encounter; they perform no I/O and assume operation preconditions were
// checked by the validation pipeline in the op package.
//
// For onboarding, this package is the source of truth for what "whose turn is
// it" means: initiative ordering, round/turn arithmetic, and the delayed/ready
// flags that defer a participant's slot.
package domain
