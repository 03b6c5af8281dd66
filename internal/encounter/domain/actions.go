package domain

import (
	"slices"
	"strings"
)

// Delay marks the participant as deferring their turn.
//
// The turn engine skips delayed participants when advancing; the flag has no
// other effect on the initiative order.
func (p *Participant) Delay() {
	p.Delayed = true
	p.Ready = false
}

// MarkReady clears a deferred state so the participant acts again at their
// initiative slot on the next pass. Ready does not reorder the roster.
func (p *Participant) MarkReady() {
	p.Delayed = false
	p.Ready = true
}

// AddCondition attaches a status-effect tag to the participant.
// Returns false when the tag is empty or already present.
func (p *Participant) AddCondition(condition string) bool {
	condition = strings.TrimSpace(condition)
	if condition == "" {
		return false
	}
	if slices.Contains(p.Conditions, condition) {
		return false
	}
	p.Conditions = append(p.Conditions, condition)
	return true
}

// RemoveCondition detaches a status-effect tag from the participant.
// Returns false when the tag is not present.
func (p *Participant) RemoveCondition(condition string) bool {
	condition = strings.TrimSpace(condition)
	idx := slices.Index(p.Conditions, condition)
	if idx < 0 {
		return false
	}
	p.Conditions = slices.Delete(p.Conditions, idx, idx+1)
	return true
}

// SetInitiative updates a participant's initiative score and re-sorts the
// roster.
//
// When combat is active the turn index is recomputed so it keeps pointing at
// the same logical participant after the re-sort, not the same array slot.
func SetInitiative(enc *Encounter, participantID string, score int) {
	var currentID string
	if current := enc.CurrentParticipant(); current != nil {
		currentID = current.ID
	}

	if p := enc.Participant(participantID); p != nil {
		p.Initiative = score
	}
	SortByInitiative(enc.Participants)

	if currentID == "" {
		return
	}
	for i := range enc.Participants {
		if enc.Participants[i].ID == currentID {
			enc.Combat.Turn = i
			return
		}
	}
}
