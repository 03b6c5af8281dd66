// Package errors provides structured error handling for encounter operations.
package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Identity errors
	CodeAuthenticationRequired Code = "AUTHENTICATION_REQUIRED"
	CodeAccessDenied           Code = "ACCESS_DENIED"

	// Encounter errors
	CodeEncounterNotFound        Code = "ENCOUNTER_NOT_FOUND"
	CodeEncounterNameEmpty       Code = "ENCOUNTER_NAME_EMPTY"
	CodeEncounterVersionConflict Code = "ENCOUNTER_VERSION_CONFLICT"

	// Combat state errors
	CodeCombatNotActive     Code = "COMBAT_NOT_ACTIVE"
	CodeCombatAlreadyActive Code = "COMBAT_ALREADY_ACTIVE"
	CodeCombatPaused        Code = "COMBAT_PAUSED"
	CodeCombatAlreadyPaused Code = "COMBAT_ALREADY_PAUSED"
	CodeCombatNotPaused     Code = "COMBAT_NOT_PAUSED"
	CodeNoTurnHistory       Code = "NO_TURN_HISTORY"
	CodeNoParticipants      Code = "NO_PARTICIPANTS"

	// Request validation errors
	CodeFieldRequired Code = "FIELD_REQUIRED"

	// Participant errors
	CodeParticipantNotFound  Code = "PARTICIPANT_NOT_FOUND"
	CodeParticipantDuplicate Code = "PARTICIPANT_DUPLICATE"
	CodeParticipantNameEmpty Code = "PARTICIPANT_NAME_EMPTY"
	CodeParticipantLast      Code = "PARTICIPANT_LAST"

	// Operation errors
	CodeOperationRejected Code = "OPERATION_REJECTED"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"

	// Internal errors
	CodeInternal Code = "INTERNAL"
)

// HTTPStatus maps domain codes to HTTP status codes.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeAuthenticationRequired:
		return http.StatusUnauthorized

	case CodeAccessDenied:
		return http.StatusForbidden

	case CodeEncounterNotFound,
		CodeNotFound:
		return http.StatusNotFound

	case CodeEncounterVersionConflict:
		return http.StatusConflict

	// BadRequest - validation failures and unmet state preconditions
	case CodeEncounterNameEmpty,
		CodeCombatNotActive,
		CodeCombatAlreadyActive,
		CodeCombatPaused,
		CodeCombatAlreadyPaused,
		CodeCombatNotPaused,
		CodeNoTurnHistory,
		CodeNoParticipants,
		CodeFieldRequired,
		CodeParticipantNotFound,
		CodeParticipantDuplicate,
		CodeParticipantNameEmpty,
		CodeParticipantLast,
		CodeOperationRejected:
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}
