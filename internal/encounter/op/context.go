package op

import (
	"github.com/hearthvale/initiative/internal/encounter/domain"
)

// Request carries the raw inputs of a combat operation.
type Request struct {
	EncounterID string
	Body        []byte
}

// Body is the parsed request payload shared by all combat operations.
//
// Operations declare which fields they require; absent fields stay at their
// zero values and are only an error when declared required.
type Body struct {
	ParticipantID string              `json:"participant_id,omitempty"`
	Initiative    *int                `json:"initiative,omitempty"`
	Condition     string              `json:"condition,omitempty"`
	Participant   *domain.Participant `json:"participant,omitempty"`
}

// Context is the shared operation context threaded through the validation
// pipeline.
//
// Each validator receives the context by value and returns an augmented copy,
// so a step can only influence later steps through its returned value. The
// resolved encounter and participant are pointers into the working copy the
// handler will mutate.
type Context struct {
	Def         *Definition
	EncounterID string
	CallerID    string
	RawBody     []byte
	Body        Body
	Encounter   *domain.Encounter
	Participant *domain.Participant
}
