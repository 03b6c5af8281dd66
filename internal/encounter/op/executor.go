package op

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/hearthvale/initiative/internal/encounter/domain"
	"github.com/hearthvale/initiative/internal/encounter/storage"
	apperrors "github.com/hearthvale/initiative/internal/platform/errors"
	"github.com/hearthvale/initiative/internal/platform/id"
)

// Outcome is the successful result of an executed operation.
//
// Encounter is set when the operation mutated and persisted state; Payload is
// set instead when the handler short-circuited with its own response.
type Outcome struct {
	Encounter *domain.Encounter
	Payload   any
}

// Executor orchestrates combat operations: validation pipeline, handler
// dispatch, and the version-checked persist.
type Executor struct {
	store  storage.EncounterStore
	clock  func() time.Time
	newID  func() (string, error)
	tracer trace.Tracer
}

// NewExecutor creates an Executor with default dependencies.
func NewExecutor(store storage.EncounterStore) *Executor {
	return &Executor{
		store:  store,
		clock:  time.Now,
		newID:  id.NewID,
		tracer: otel.Tracer("initiative/encounter"),
	}
}

// Execute runs a named combat operation against an encounter.
//
// The pipeline failure, handler rejection, or persist conflict is returned
// verbatim as a *errors.Error; anything unexpected is logged here and
// converted to a generic internal error so details never reach the caller.
func (e *Executor) Execute(ctx context.Context, opName string, req Request) (outcome Outcome, err error) {
	ctx, span := e.tracer.Start(ctx, "encounter."+opName,
		trace.WithAttributes(
			attribute.String("encounter.id", req.EncounterID),
			attribute.String("encounter.op", opName),
		),
	)
	defer span.End()
	defer func() {
		if r := recover(); r != nil {
			err = e.internalError(span, opName, req.EncounterID, fmt.Errorf("panic: %v", r))
		}
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	def, ok := Lookup(opName)
	if !ok {
		return Outcome{}, apperrors.New(apperrors.CodeNotFound, "unknown operation")
	}

	oc := Context{Def: def, EncounterID: req.EncounterID, RawBody: req.Body}
	for _, run := range e.pipeline() {
		next, stepErr := run(ctx, oc)
		if stepErr != nil {
			if stepErr.Code == apperrors.CodeInternal {
				return Outcome{}, e.internalError(span, opName, req.EncounterID, stepErr.Cause)
			}
			return Outcome{}, stepErr
		}
		oc = next
	}

	result := def.Handler(&oc, HandlerDeps{Clock: e.clock, NewID: e.newID})
	switch result.kind {
	case resultReject:
		if result.err.Code == apperrors.CodeInternal {
			return Outcome{}, e.internalError(span, opName, req.EncounterID, result.err.Cause)
		}
		return Outcome{}, result.err
	case resultRespond:
		return Outcome{Payload: result.payload}, nil
	}

	oc.Encounter.UpdatedAt = e.clock().UTC()
	saved, saveErr := e.store.Save(ctx, *oc.Encounter)
	if saveErr != nil {
		if errors.Is(saveErr, storage.ErrVersionConflict) {
			return Outcome{}, storage.ErrVersionConflict
		}
		if errors.Is(saveErr, storage.ErrNotFound) {
			return Outcome{}, apperrors.New(apperrors.CodeEncounterNotFound, "encounter not found")
		}
		return Outcome{}, e.internalError(span, opName, req.EncounterID, saveErr)
	}

	return Outcome{Encounter: &saved}, nil
}

// internalError logs the cause and returns the generic internal error.
func (e *Executor) internalError(span trace.Span, opName, encounterID string, cause error) *apperrors.Error {
	log.Printf("encounter operation failed op=%s encounter_id=%s err=%v", opName, encounterID, cause)
	if span != nil && cause != nil {
		span.RecordError(cause)
	}
	return apperrors.New(apperrors.CodeInternal, "an unexpected error occurred")
}
