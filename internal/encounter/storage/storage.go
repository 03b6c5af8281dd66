// Package storage defines persistence contracts for encounters.
package storage

import (
	"context"

	"github.com/hearthvale/initiative/internal/encounter/domain"
	apperrors "github.com/hearthvale/initiative/internal/platform/errors"
)

// ErrNotFound indicates a requested persistence record is missing.
var ErrNotFound = apperrors.New(apperrors.CodeNotFound, "record not found")

// ErrVersionConflict indicates a conditional save lost a concurrent write race.
// Callers should reload the encounter and retry the operation.
var ErrVersionConflict = apperrors.New(apperrors.CodeEncounterVersionConflict, "encounter was modified concurrently")

// EncounterStore persists encounter documents.
//
// Each encounter is read and written as a whole document; there are no
// partial updates. Save is conditional on the version the encounter was
// loaded at, which serializes concurrent mutations per encounter id.
type EncounterStore interface {
	// Put writes an encounter unconditionally. Used by the create path.
	Put(ctx context.Context, enc domain.Encounter) error
	// Get loads an encounter by id, or ErrNotFound.
	Get(ctx context.Context, id string) (domain.Encounter, error)
	// Save persists a mutated encounter when its version still matches the
	// stored one, returning the encounter with the incremented version.
	// Returns ErrVersionConflict when a concurrent save won the race.
	Save(ctx context.Context, enc domain.Encounter) (domain.Encounter, error)
	// ListByOwner returns all encounters owned by a user, oldest first.
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Encounter, error)
}
