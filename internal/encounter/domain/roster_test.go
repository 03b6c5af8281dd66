package domain

import (
	"errors"
	"testing"

	apperrors "github.com/hearthvale/initiative/internal/platform/errors"
)

func rosterEncounter(turn int) *Encounter {
	return &Encounter{
		Combat: CombatState{Active: true, Round: 1, Turn: turn},
		Participants: []Participant{
			{ID: "p1", Name: "Ranger", Initiative: 17},
			{ID: "p2", Name: "Wolf", Initiative: 12},
			{ID: "p3", Name: "Goblin", Initiative: 8},
		},
	}
}

func TestAddParticipantInsertsAtInitiativeSlot(t *testing.T) {
	enc := rosterEncounter(0)
	if err := AddParticipant(enc, Participant{ID: "p4", Name: "Bear", Initiative: 14}); err != nil {
		t.Fatalf("add participant: %v", err)
	}

	order := []string{"p1", "p4", "p2", "p3"}
	for i, want := range order {
		if enc.Participants[i].ID != want {
			t.Fatalf("participant[%d] = %s, want %s", i, enc.Participants[i].ID, want)
		}
	}
}

func TestAddParticipantTieGoesAfterEqualScores(t *testing.T) {
	enc := rosterEncounter(0)
	if err := AddParticipant(enc, Participant{ID: "p4", Name: "Bear", Initiative: 12}); err != nil {
		t.Fatalf("add participant: %v", err)
	}

	order := []string{"p1", "p2", "p4", "p3"}
	for i, want := range order {
		if enc.Participants[i].ID != want {
			t.Fatalf("participant[%d] = %s, want %s", i, enc.Participants[i].ID, want)
		}
	}
}

func TestAddParticipantBeforeCurrentShiftsTurn(t *testing.T) {
	enc := rosterEncounter(1) // p2 is acting
	if err := AddParticipant(enc, Participant{ID: "p4", Name: "Bear", Initiative: 20}); err != nil {
		t.Fatalf("add participant: %v", err)
	}

	if enc.Combat.Turn != 2 {
		t.Fatalf("turn = %d, want 2", enc.Combat.Turn)
	}
	if current := enc.CurrentParticipant(); current == nil || current.ID != "p2" {
		t.Fatalf("current participant = %v, want p2", current)
	}
}

func TestAddParticipantDuplicateID(t *testing.T) {
	enc := rosterEncounter(0)
	err := AddParticipant(enc, Participant{ID: "p2", Name: "Impostor", Initiative: 5})
	assertCode(t, err, apperrors.CodeParticipantDuplicate)
}

func TestAddParticipantEmptyName(t *testing.T) {
	enc := rosterEncounter(0)
	err := AddParticipant(enc, Participant{ID: "p4", Name: "  ", Initiative: 5})
	assertCode(t, err, apperrors.CodeParticipantNameEmpty)
}

func TestRemoveParticipantBeforeCurrent(t *testing.T) {
	enc := rosterEncounter(2) // p3 is acting
	if err := RemoveParticipant(enc, "p1"); err != nil {
		t.Fatalf("remove participant: %v", err)
	}

	if enc.Combat.Turn != 1 {
		t.Fatalf("turn = %d, want 1", enc.Combat.Turn)
	}
	if current := enc.CurrentParticipant(); current == nil || current.ID != "p3" {
		t.Fatalf("current participant = %v, want p3", current)
	}
}

func TestRemoveActingParticipantAtEndWrapsTurn(t *testing.T) {
	enc := rosterEncounter(2) // p3 is acting, last slot
	if err := RemoveParticipant(enc, "p3"); err != nil {
		t.Fatalf("remove participant: %v", err)
	}

	if enc.Combat.Turn != 0 {
		t.Fatalf("turn = %d, want 0", enc.Combat.Turn)
	}
}

func TestRemoveLastParticipantDuringCombatRejected(t *testing.T) {
	enc := &Encounter{
		Combat:       CombatState{Active: true, Round: 1, Turn: 0},
		Participants: []Participant{{ID: "p1", Name: "Ranger", Initiative: 17}},
	}
	err := RemoveParticipant(enc, "p1")
	assertCode(t, err, apperrors.CodeParticipantLast)
}

func TestRemoveParticipantNotFound(t *testing.T) {
	enc := rosterEncounter(0)
	err := RemoveParticipant(enc, "missing")
	assertCode(t, err, apperrors.CodeParticipantNotFound)
}

func TestRemoveParticipantOutsideCombat(t *testing.T) {
	enc := &Encounter{
		Combat: CombatState{Round: 1},
		Participants: []Participant{
			{ID: "p1", Name: "Ranger", Initiative: 17},
		},
	}
	if err := RemoveParticipant(enc, "p1"); err != nil {
		t.Fatalf("remove outside combat: %v", err)
	}
	if len(enc.Participants) != 0 {
		t.Fatalf("participants = %d, want 0", len(enc.Participants))
	}
}

func assertCode(t *testing.T, err error, want apperrors.Code) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error")
	}
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *errors.Error, got %T", err)
	}
	if appErr.Code != want {
		t.Fatalf("code = %s, want %s", appErr.Code, want)
	}
}
