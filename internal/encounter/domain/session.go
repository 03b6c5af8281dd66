package domain

import "time"

// StartCombat begins a combat session.
//
// The roster is snapshotted into initiative order at this moment, the round
// and turn counters reset, and any previous turn history is discarded. The
// caller guarantees combat is not already active and the roster is non-empty.
func StartCombat(enc *Encounter) {
	SortByInitiative(enc.Participants)
	enc.Combat = CombatState{
		Active: true,
		Round:  1,
		Turn:   0,
	}
}

// PauseCombat marks the active session as paused at the given time.
func PauseCombat(enc *Encounter, now time.Time) {
	paused := now.UTC()
	enc.Combat.PausedAt = &paused
}

// ResumeCombat clears the pause marker on the active session.
func ResumeCombat(enc *Encounter) {
	enc.Combat.PausedAt = nil
}

// EndCombat concludes the combat session.
//
// Counters, the pause marker, and the turn history reset. Participants are
// retained: delayed/ready flags are turn bookkeeping and drop with the
// session, while conditions represent ongoing effects and persist.
func EndCombat(enc *Encounter) {
	enc.Combat = CombatState{Round: 1}
	for i := range enc.Participants {
		enc.Participants[i].Delayed = false
		enc.Participants[i].Ready = false
	}
}
