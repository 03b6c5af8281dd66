package op

import (
	"context"
	"errors"

	"github.com/hearthvale/initiative/internal/encounter/domain"
	"github.com/hearthvale/initiative/internal/encounter/storage"
	apperrors "github.com/hearthvale/initiative/internal/platform/errors"
	"github.com/hearthvale/initiative/internal/platform/requestctx"
)

// CreateEncounter builds a new encounter owned by the caller and persists it.
func (e *Executor) CreateEncounter(ctx context.Context, input domain.CreateInput) (*domain.Encounter, error) {
	userID := requestctx.UserIDFromContext(ctx)
	if userID == "" {
		return nil, apperrors.New(apperrors.CodeAuthenticationRequired, "authentication required")
	}
	input.OwnerID = userID

	enc, err := domain.NewEncounter(input, e.clock, e.newID)
	if err != nil {
		var appErr *apperrors.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, apperrors.Wrap(apperrors.CodeInternal, "an unexpected error occurred", err)
	}

	if err := e.store.Put(ctx, enc); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "an unexpected error occurred", err)
	}
	return &enc, nil
}

// GetEncounter loads an encounter the caller owns.
//
// A missing encounter and one owned by somebody else report different codes;
// the encounter id itself is not secret, only its contents.
func (e *Executor) GetEncounter(ctx context.Context, encounterID string) (*domain.Encounter, error) {
	userID := requestctx.UserIDFromContext(ctx)
	if userID == "" {
		return nil, apperrors.New(apperrors.CodeAuthenticationRequired, "authentication required")
	}

	enc, err := e.store.Get(ctx, encounterID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperrors.New(apperrors.CodeEncounterNotFound, "encounter not found")
		}
		return nil, apperrors.Wrap(apperrors.CodeInternal, "an unexpected error occurred", err)
	}
	if enc.OwnerID != userID {
		return nil, apperrors.New(apperrors.CodeAccessDenied, "access denied")
	}
	return &enc, nil
}

// ListEncounters returns the caller's encounters ordered by creation time.
func (e *Executor) ListEncounters(ctx context.Context) ([]domain.Encounter, error) {
	userID := requestctx.UserIDFromContext(ctx)
	if userID == "" {
		return nil, apperrors.New(apperrors.CodeAuthenticationRequired, "authentication required")
	}

	encounters, err := e.store.ListByOwner(ctx, userID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "an unexpected error occurred", err)
	}
	return encounters, nil
}
