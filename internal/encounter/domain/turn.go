package domain

import (
	"slices"

	apperrors "github.com/hearthvale/initiative/internal/platform/errors"
)

// AdvanceTurn computes the combat state after the current turn ends.
//
// The turn index advances modulo the roster size and the round increments by
// one whenever the index wraps back to zero. Delayed participants are skipped;
// when every participant is delayed the plain single-step advance stands so
// combat can never stall. The skip is folded into the single appended history
// record, so RetreatTurn restores the pre-advance state exactly.
//
// AdvanceTurn is a pure function: the input state is not modified and the
// returned state owns its history slice.
func AdvanceTurn(state CombatState, participants []Participant) CombatState {
	n := len(participants)
	if n == 0 {
		return state
	}

	turn := (state.Turn + 1) % n
	round := state.Round
	if turn == 0 {
		round++
	}

	candidate, candidateRound := turn, round
	for steps := 0; steps < n; steps++ {
		if !participants[candidate].Delayed {
			turn, round = candidate, candidateRound
			break
		}
		candidate = (candidate + 1) % n
		if candidate == 0 {
			candidateRound++
		}
	}

	record := TurnRecord{
		FromRound: state.Round,
		FromTurn:  state.Turn,
		ToRound:   round,
		ToTurn:    turn,
	}

	next := state
	next.Round = round
	next.Turn = turn
	next.History = append(slices.Clone(state.History), record)
	return next
}

// RetreatTurn restores the combat state recorded by the most recent advance.
//
// It errors when the history is empty; the validation pipeline guards this
// before the operation reaches the engine.
func RetreatTurn(state CombatState) (CombatState, error) {
	if len(state.History) == 0 {
		return state, apperrors.New(apperrors.CodeNoTurnHistory, "no turn history to rewind")
	}

	last := state.History[len(state.History)-1]

	next := state
	next.Round = last.FromRound
	next.Turn = last.FromTurn
	next.History = slices.Clone(state.History[:len(state.History)-1])
	return next, nil
}
