package op

import (
	"errors"
	"time"

	"github.com/hearthvale/initiative/internal/encounter/domain"
	apperrors "github.com/hearthvale/initiative/internal/platform/errors"
)

// Supported combat operation names.
const (
	OpAdvanceTurn       = "advance-turn"
	OpPreviousTurn      = "previous-turn"
	OpDelay             = "delay"
	OpReady             = "ready"
	OpSetInitiative     = "initiative"
	OpPause             = "pause"
	OpResume            = "resume"
	OpStartCombat       = "start"
	OpEndCombat         = "end"
	OpAddParticipant    = "add-participant"
	OpRemoveParticipant = "remove-participant"
	OpAddCondition      = "add-condition"
	OpRemoveCondition   = "remove-condition"
)

// HandlerDeps carries the injected collaborators handlers may use.
type HandlerDeps struct {
	Clock func() time.Time
	NewID func() (string, error)
}

// HandlerFunc applies an operation's effect to the resolved context.
type HandlerFunc func(oc *Context, deps HandlerDeps) Result

// Definition configures one combat operation over the shared pipeline.
type Definition struct {
	// Name is the operation identifier used in routes and logs.
	Name string
	// RequiredFields lists body fields the operation cannot run without.
	RequiredFields []string
	// TargetsParticipant resolves body.participant_id against the roster.
	TargetsParticipant bool
	// BypassActiveCheck skips the combat-active gate (session start only).
	BypassActiveCheck bool
	// StateCheck is the operation-specific precondition, run after the
	// combat-active gate.
	StateCheck func(enc *domain.Encounter) *apperrors.Error
	// Handler applies the operation once the pipeline has passed.
	Handler HandlerFunc
}

// Lookup returns the definition for an operation name.
func Lookup(name string) (*Definition, bool) {
	def, ok := definitions[name]
	return def, ok
}

// Names returns the registered operation names.
func Names() []string {
	names := make([]string, 0, len(definitions))
	for name := range definitions {
		names = append(names, name)
	}
	return names
}

var definitions = buildDefinitions()

func buildDefinitions() map[string]*Definition {
	defs := []*Definition{
		{
			Name:       OpAdvanceTurn,
			StateCheck: rejectWhenPaused,
			Handler:    handleAdvanceTurn,
		},
		{
			Name:       OpPreviousTurn,
			StateCheck: allChecks(rejectWhenPaused, requireHistory),
			Handler:    handlePreviousTurn,
		},
		{
			Name:               OpDelay,
			RequiredFields:     []string{"participant_id"},
			TargetsParticipant: true,
			StateCheck:         rejectWhenPaused,
			Handler:            handleDelay,
		},
		{
			Name:               OpReady,
			RequiredFields:     []string{"participant_id"},
			TargetsParticipant: true,
			StateCheck:         rejectWhenPaused,
			Handler:            handleReady,
		},
		{
			Name:               OpSetInitiative,
			RequiredFields:     []string{"participant_id", "initiative"},
			TargetsParticipant: true,
			StateCheck:         rejectWhenPaused,
			Handler:            handleSetInitiative,
		},
		{
			Name:       OpPause,
			StateCheck: rejectWhenAlreadyPaused,
			Handler:    handlePause,
		},
		{
			Name:       OpResume,
			StateCheck: requirePaused,
			Handler:    handleResume,
		},
		{
			Name:              OpStartCombat,
			BypassActiveCheck: true,
			StateCheck:        allChecks(requireInactive, requireRoster),
			Handler:           handleStartCombat,
		},
		{
			// End is legal while paused, so no pause gate here.
			Name:    OpEndCombat,
			Handler: handleEndCombat,
		},
		{
			Name:           OpAddParticipant,
			RequiredFields: []string{"participant"},
			StateCheck:     rejectWhenPaused,
			Handler:        handleAddParticipant,
		},
		{
			Name:               OpRemoveParticipant,
			RequiredFields:     []string{"participant_id"},
			TargetsParticipant: true,
			StateCheck:         rejectWhenPaused,
			Handler:            handleRemoveParticipant,
		},
		{
			Name:               OpAddCondition,
			RequiredFields:     []string{"participant_id", "condition"},
			TargetsParticipant: true,
			StateCheck:         rejectWhenPaused,
			Handler:            handleAddCondition,
		},
		{
			Name:               OpRemoveCondition,
			RequiredFields:     []string{"participant_id", "condition"},
			TargetsParticipant: true,
			StateCheck:         rejectWhenPaused,
			Handler:            handleRemoveCondition,
		},
	}

	registry := make(map[string]*Definition, len(defs))
	for _, def := range defs {
		registry[def.Name] = def
	}
	return registry
}

// allChecks combines state checks, returning the first failure.
func allChecks(checks ...func(*domain.Encounter) *apperrors.Error) func(*domain.Encounter) *apperrors.Error {
	return func(enc *domain.Encounter) *apperrors.Error {
		for _, check := range checks {
			if err := check(enc); err != nil {
				return err
			}
		}
		return nil
	}
}

func rejectWhenPaused(enc *domain.Encounter) *apperrors.Error {
	if enc.Combat.Paused() {
		return apperrors.New(apperrors.CodeCombatPaused, "combat is paused")
	}
	return nil
}

func rejectWhenAlreadyPaused(enc *domain.Encounter) *apperrors.Error {
	if enc.Combat.Paused() {
		return apperrors.New(apperrors.CodeCombatAlreadyPaused, "combat is already paused")
	}
	return nil
}

func requirePaused(enc *domain.Encounter) *apperrors.Error {
	if !enc.Combat.Paused() {
		return apperrors.New(apperrors.CodeCombatNotPaused, "combat is not paused")
	}
	return nil
}

func requireInactive(enc *domain.Encounter) *apperrors.Error {
	if enc.Combat.Active {
		return apperrors.New(apperrors.CodeCombatAlreadyActive, "combat is already active")
	}
	return nil
}

func requireRoster(enc *domain.Encounter) *apperrors.Error {
	if len(enc.Participants) == 0 {
		return apperrors.New(apperrors.CodeNoParticipants, "encounter has no participants")
	}
	return nil
}

func requireHistory(enc *domain.Encounter) *apperrors.Error {
	if len(enc.Combat.History) == 0 {
		return apperrors.New(apperrors.CodeNoTurnHistory, "no turn history to rewind")
	}
	return nil
}

func handleAdvanceTurn(oc *Context, deps HandlerDeps) Result {
	oc.Encounter.Combat = domain.AdvanceTurn(oc.Encounter.Combat, oc.Encounter.Participants)
	return Proceed()
}

func handlePreviousTurn(oc *Context, deps HandlerDeps) Result {
	state, err := domain.RetreatTurn(oc.Encounter.Combat)
	if err != nil {
		return rejectDomainError(err, "unable to rewind turn")
	}
	oc.Encounter.Combat = state
	return Proceed()
}

func handleDelay(oc *Context, deps HandlerDeps) Result {
	oc.Participant.Delay()
	return Proceed()
}

func handleReady(oc *Context, deps HandlerDeps) Result {
	oc.Participant.MarkReady()
	return Proceed()
}

func handleSetInitiative(oc *Context, deps HandlerDeps) Result {
	domain.SetInitiative(oc.Encounter, oc.Participant.ID, *oc.Body.Initiative)
	return Proceed()
}

func handlePause(oc *Context, deps HandlerDeps) Result {
	domain.PauseCombat(oc.Encounter, deps.Clock())
	return Proceed()
}

func handleResume(oc *Context, deps HandlerDeps) Result {
	domain.ResumeCombat(oc.Encounter)
	return Proceed()
}

func handleStartCombat(oc *Context, deps HandlerDeps) Result {
	domain.StartCombat(oc.Encounter)
	return Proceed()
}

func handleEndCombat(oc *Context, deps HandlerDeps) Result {
	domain.EndCombat(oc.Encounter)
	return Proceed()
}

func handleAddParticipant(oc *Context, deps HandlerDeps) Result {
	participant := *oc.Body.Participant
	if participant.ID == "" {
		generated, err := deps.NewID()
		if err != nil {
			return RejectErr(apperrors.Wrap(apperrors.CodeInternal, "unexpected error", err))
		}
		participant.ID = generated
	}
	if err := domain.AddParticipant(oc.Encounter, participant); err != nil {
		return rejectDomainError(err, "unable to add participant")
	}
	return Proceed()
}

func handleRemoveParticipant(oc *Context, deps HandlerDeps) Result {
	if err := domain.RemoveParticipant(oc.Encounter, oc.Participant.ID); err != nil {
		return rejectDomainError(err, "unable to remove participant")
	}
	return Proceed()
}

func handleAddCondition(oc *Context, deps HandlerDeps) Result {
	if !oc.Participant.AddCondition(oc.Body.Condition) {
		return RejectWith(apperrors.CodeOperationRejected, "unable to add condition")
	}
	return Proceed()
}

func handleRemoveCondition(oc *Context, deps HandlerDeps) Result {
	if !oc.Participant.RemoveCondition(oc.Body.Condition) {
		return RejectWith(apperrors.CodeOperationRejected, "unable to remove condition")
	}
	return Proceed()
}

// rejectDomainError converts a domain error into a rejection, falling back to
// a generic operation failure for unexpected error types.
func rejectDomainError(err error, fallback string) Result {
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		return RejectErr(appErr)
	}
	return RejectWith(apperrors.CodeOperationRejected, fallback)
}
