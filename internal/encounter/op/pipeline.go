package op

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/hearthvale/initiative/internal/encounter/storage"
	apperrors "github.com/hearthvale/initiative/internal/platform/errors"
	"github.com/hearthvale/initiative/internal/platform/requestctx"
)

// step is a single validator in the pipeline. A step receives the operation
// context by value and either returns an augmented copy or a terminal error.
type step func(ctx context.Context, oc Context) (Context, *apperrors.Error)

// pipeline returns the fixed validator order every operation runs through.
func (e *Executor) pipeline() []step {
	return []step{
		e.checkIdentity,
		e.parseBody,
		e.loadEncounter,
		e.checkCombatActive,
		e.checkOperationState,
		e.resolveParticipant,
	}
}

// checkIdentity resolves the caller from request context.
func (e *Executor) checkIdentity(ctx context.Context, oc Context) (Context, *apperrors.Error) {
	callerID := requestctx.UserIDFromContext(ctx)
	if callerID == "" {
		return oc, apperrors.New(apperrors.CodeAuthenticationRequired, "authentication is required")
	}
	oc.CallerID = callerID
	return oc, nil
}

// parseBody decodes the request payload and enforces declared required fields.
//
// A malformed payload degrades to an empty body unless the operation declares
// required fields, in which case the missing fields are reported.
func (e *Executor) parseBody(ctx context.Context, oc Context) (Context, *apperrors.Error) {
	if len(oc.RawBody) > 0 {
		if err := json.Unmarshal(oc.RawBody, &oc.Body); err != nil {
			oc.Body = Body{}
		}
	}

	var missing []string
	for _, field := range oc.Def.RequiredFields {
		if fieldMissing(oc.Body, field) {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return oc, apperrors.WithMetadata(
			apperrors.CodeFieldRequired,
			"missing required field(s): "+strings.Join(missing, ", "),
			map[string]string{"fields": strings.Join(missing, ", ")},
		)
	}
	return oc, nil
}

// loadEncounter resolves the encounter and enforces ownership.
func (e *Executor) loadEncounter(ctx context.Context, oc Context) (Context, *apperrors.Error) {
	enc, err := e.store.Get(ctx, oc.EncounterID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return oc, apperrors.New(apperrors.CodeEncounterNotFound, "encounter not found")
		}
		return oc, apperrors.Wrap(apperrors.CodeInternal, "unexpected error", err)
	}
	if enc.OwnerID != oc.CallerID {
		return oc, apperrors.New(apperrors.CodeAccessDenied, "caller does not own this encounter")
	}
	oc.Encounter = &enc
	return oc, nil
}

// checkCombatActive rejects mutations outside an active combat session.
// Session start manages its own lifecycle and bypasses the check.
func (e *Executor) checkCombatActive(ctx context.Context, oc Context) (Context, *apperrors.Error) {
	if oc.Def.BypassActiveCheck {
		return oc, nil
	}
	if !oc.Encounter.Combat.Active {
		return oc, apperrors.New(apperrors.CodeCombatNotActive, "combat is not active")
	}
	return oc, nil
}

// checkOperationState runs the operation's own precondition, if any.
func (e *Executor) checkOperationState(ctx context.Context, oc Context) (Context, *apperrors.Error) {
	if oc.Def.StateCheck == nil {
		return oc, nil
	}
	if err := oc.Def.StateCheck(oc.Encounter); err != nil {
		return oc, err
	}
	return oc, nil
}

// resolveParticipant looks up the targeted participant for participant-scoped
// operations.
func (e *Executor) resolveParticipant(ctx context.Context, oc Context) (Context, *apperrors.Error) {
	if !oc.Def.TargetsParticipant {
		return oc, nil
	}
	participant := oc.Encounter.Participant(strings.TrimSpace(oc.Body.ParticipantID))
	if participant == nil {
		return oc, apperrors.New(apperrors.CodeParticipantNotFound, "participant not found in encounter")
	}
	oc.Participant = participant
	return oc, nil
}

// fieldMissing reports whether a declared required field is absent from the
// parsed body.
func fieldMissing(body Body, field string) bool {
	switch field {
	case "participant_id":
		return strings.TrimSpace(body.ParticipantID) == ""
	case "initiative":
		return body.Initiative == nil
	case "condition":
		return strings.TrimSpace(body.Condition) == ""
	case "participant":
		return body.Participant == nil
	default:
		return true
	}
}
