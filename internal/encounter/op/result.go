package op

import apperrors "github.com/hearthvale/initiative/internal/platform/errors"

type resultKind int

const (
	resultProceed resultKind = iota
	resultReject
	resultRespond
)

// Result is the tagged outcome of an operation handler.
//
// Proceed means the handler mutated the encounter and it should be persisted.
// Reject aborts with a domain error and persists nothing. Respond returns a
// handler-controlled payload directly, also without persisting.
type Result struct {
	kind    resultKind
	err     *apperrors.Error
	payload any
}

// Proceed signals the mutated encounter should be persisted.
func Proceed() Result {
	return Result{kind: resultProceed}
}

// RejectWith aborts the operation with the given error code and message.
func RejectWith(code apperrors.Code, message string) Result {
	return Result{kind: resultReject, err: apperrors.New(code, message)}
}

// RejectErr aborts the operation with an existing domain error.
func RejectErr(err *apperrors.Error) Result {
	return Result{kind: resultReject, err: err}
}

// RespondWith short-circuits with a handler-controlled response payload.
func RespondWith(payload any) Result {
	return Result{kind: resultRespond, payload: payload}
}
