package domain

import (
	"sort"
	"strings"
	"time"

	apperrors "github.com/hearthvale/initiative/internal/platform/errors"
)

// TurnRecord captures a single turn transition for rewind support.
type TurnRecord struct {
	FromRound int `json:"from_round"`
	FromTurn  int `json:"from_turn"`
	ToRound   int `json:"to_round"`
	ToTurn    int `json:"to_turn"`
}

// CombatState tracks the live turn-taking state of an encounter.
//
// Round is 1-based and Turn indexes into the participant roster. PausedAt is
// set only while combat is active. History grows by one record per accepted
// turn advance and shrinks by one per rewind.
type CombatState struct {
	Active   bool         `json:"active"`
	Round    int          `json:"round"`
	Turn     int          `json:"turn"`
	PausedAt *time.Time   `json:"paused_at,omitempty"`
	History  []TurnRecord `json:"history,omitempty"`
}

// Paused reports whether combat is currently paused.
func (s CombatState) Paused() bool {
	return s.PausedAt != nil
}

// Participant is a combatant embedded in an encounter.
type Participant struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Initiative int      `json:"initiative"`
	Delayed    bool     `json:"delayed"`
	Ready      bool     `json:"ready"`
	Conditions []string `json:"conditions,omitempty"`
}

// Encounter is the aggregate root for a combat encounter.
//
// Participants are kept in initiative order: descending by initiative score,
// ties broken by insertion order. Version increments on every persisted
// mutation and backs optimistic concurrency control in storage.
type Encounter struct {
	ID           string        `json:"id"`
	OwnerID      string        `json:"owner_id"`
	Name         string        `json:"name"`
	Version      int64         `json:"version"`
	Combat       CombatState   `json:"combat"`
	Participants []Participant `json:"participants"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// Participant returns a pointer to the participant with the given id, or nil.
func (e *Encounter) Participant(id string) *Participant {
	for i := range e.Participants {
		if e.Participants[i].ID == id {
			return &e.Participants[i]
		}
	}
	return nil
}

// CurrentParticipant returns the participant whose turn it is, or nil when
// combat is inactive or the roster is empty.
func (e *Encounter) CurrentParticipant() *Participant {
	if !e.Combat.Active {
		return nil
	}
	if e.Combat.Turn < 0 || e.Combat.Turn >= len(e.Participants) {
		return nil
	}
	return &e.Participants[e.Combat.Turn]
}

// SortByInitiative orders participants descending by initiative score.
// The sort is stable so equal scores keep their insertion order.
func SortByInitiative(participants []Participant) {
	sort.SliceStable(participants, func(i, j int) bool {
		return participants[i].Initiative > participants[j].Initiative
	})
}

// CreateInput carries the fields needed to create an encounter.
// OwnerID comes from the authenticated caller, never the payload.
type CreateInput struct {
	OwnerID      string        `json:"-"`
	Name         string        `json:"name"`
	Participants []Participant `json:"participants"`
}

// NewEncounter creates an encounter in the non-combat state.
//
// Participants without ids are assigned generated ones, and the roster is
// sorted into initiative order immediately so reads are stable before combat
// ever starts.
func NewEncounter(input CreateInput, clock func() time.Time, idGen func() (string, error)) (Encounter, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return Encounter{}, apperrors.New(apperrors.CodeEncounterNameEmpty, "encounter name is required")
	}

	participants := make([]Participant, 0, len(input.Participants))
	seen := make(map[string]struct{}, len(input.Participants))
	for _, p := range input.Participants {
		p.Name = strings.TrimSpace(p.Name)
		if p.Name == "" {
			return Encounter{}, apperrors.New(apperrors.CodeParticipantNameEmpty, "participant name is required")
		}
		if p.ID == "" {
			generated, err := idGen()
			if err != nil {
				return Encounter{}, err
			}
			p.ID = generated
		}
		if _, dup := seen[p.ID]; dup {
			return Encounter{}, apperrors.WithMetadata(
				apperrors.CodeParticipantDuplicate,
				"participant id is already in use",
				map[string]string{"participant_id": p.ID},
			)
		}
		seen[p.ID] = struct{}{}
		participants = append(participants, p)
	}
	SortByInitiative(participants)

	id, err := idGen()
	if err != nil {
		return Encounter{}, err
	}

	now := clock().UTC()
	return Encounter{
		ID:           id,
		OwnerID:      input.OwnerID,
		Name:         name,
		Version:      1,
		Combat:       CombatState{Round: 1},
		Participants: participants,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}
