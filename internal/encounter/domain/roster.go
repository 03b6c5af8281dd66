package domain

import (
	"slices"
	"strings"

	apperrors "github.com/hearthvale/initiative/internal/platform/errors"
)

// AddParticipant inserts a combatant into the roster at its initiative slot.
//
// The new participant goes after existing participants with an equal score,
// preserving insertion-order tie-breaking. When combat is active and the slot
// lands at or before the current turn, the turn index shifts so the acting
// participant stays current.
func AddParticipant(enc *Encounter, p Participant) error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return apperrors.New(apperrors.CodeParticipantNameEmpty, "participant name is required")
	}
	if existing := enc.Participant(p.ID); existing != nil {
		return apperrors.WithMetadata(
			apperrors.CodeParticipantDuplicate,
			"participant id is already in use",
			map[string]string{"participant_id": p.ID},
		)
	}

	idx := len(enc.Participants)
	for i := range enc.Participants {
		if enc.Participants[i].Initiative < p.Initiative {
			idx = i
			break
		}
	}
	enc.Participants = slices.Insert(enc.Participants, idx, p)

	if enc.Combat.Active && idx <= enc.Combat.Turn {
		enc.Combat.Turn++
	}
	return nil
}

// RemoveParticipant deletes a combatant from the roster.
//
// Removing the last combatant mid-combat is rejected: an active session must
// always have someone whose turn it is. The turn index is adjusted so the
// roster shrinking never strands it out of bounds; removing the acting
// participant passes the turn to the next slot.
func RemoveParticipant(enc *Encounter, participantID string) error {
	idx := -1
	for i := range enc.Participants {
		if enc.Participants[i].ID == participantID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return apperrors.New(apperrors.CodeParticipantNotFound, "participant not found in encounter")
	}
	if enc.Combat.Active && len(enc.Participants) == 1 {
		return apperrors.New(apperrors.CodeParticipantLast, "cannot remove the last participant during combat")
	}

	enc.Participants = slices.Delete(enc.Participants, idx, idx+1)

	if !enc.Combat.Active {
		return nil
	}
	if idx < enc.Combat.Turn {
		enc.Combat.Turn--
	} else if enc.Combat.Turn >= len(enc.Participants) {
		enc.Combat.Turn = 0
	}
	return nil
}
