package timebank

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is a machine-readable rejection code. Every failed operation maps to
// exactly one code; the engine never fails with anything else.
type Code string

const (
	CodeNotAuthorized            Code = "NOT_AUTHORIZED"
	CodeUserNotFound             Code = "USER_NOT_FOUND"
	CodeSkillNotFound            Code = "SKILL_NOT_FOUND"
	CodeServiceNotFound          Code = "SERVICE_NOT_FOUND"
	CodeInvalidParameters        Code = "INVALID_PARAMETERS"
	CodeInsufficientBalance      Code = "INSUFFICIENT_BALANCE"
	CodeAlreadyExists            Code = "ALREADY_EXISTS"
	CodeNotServiceProvider       Code = "NOT_SERVICE_PROVIDER"
	CodeNotServiceReceiver       Code = "NOT_SERVICE_RECEIVER"
	CodeAlreadyVerified          Code = "ALREADY_VERIFIED"
	CodeAlreadyCompleted         Code = "ALREADY_COMPLETED"
	CodeServiceNotCompleted      Code = "SERVICE_NOT_COMPLETED"
	CodeFeedbackAlreadyGiven     Code = "FEEDBACK_ALREADY_GIVEN"
	CodeEndorsementAlreadyExists Code = "ENDORSEMENT_ALREADY_EXISTS"
	CodeSelfActionNotAllowed     Code = "SELF_ACTION_NOT_ALLOWED"
	CodeServiceAlreadyStarted    Code = "SERVICE_ALREADY_STARTED"
	CodeServiceNotStarted        Code = "SERVICE_NOT_STARTED"
	CodeServiceAlreadyCanceled   Code = "SERVICE_ALREADY_CANCELED"
	CodeDisputeAlreadyExists     Code = "DISPUTE_ALREADY_EXISTS"
	CodeDisputeNotFound          Code = "DISPUTE_NOT_FOUND"
	CodeNotDisputeParticipant    Code = "NOT_DISPUTE_PARTICIPANT"
	CodeNotArbiter               Code = "NOT_ARBITER"
	CodeDisputeAlreadyResolved   Code = "DISPUTE_ALREADY_RESOLVED"
)

// Error is a typed rejection. Operations either succeed fully or return one
// of these with no state changed.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// reject builds a typed rejection.
func reject(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// GetCode extracts the rejection code, or "" for non-engine errors.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsCode reports whether err carries the given rejection code.
func IsCode(err error, code Code) bool {
	return GetCode(err) == code
}

// HTTPStatus maps a rejection code to the HTTP status used at the API edge.
func HTTPStatus(err error) int {
	switch GetCode(err) {
	case CodeNotAuthorized, CodeNotServiceProvider, CodeNotServiceReceiver,
		CodeNotDisputeParticipant, CodeNotArbiter:
		return http.StatusForbidden
	case CodeUserNotFound, CodeSkillNotFound, CodeServiceNotFound, CodeDisputeNotFound:
		return http.StatusNotFound
	case CodeAlreadyExists, CodeAlreadyVerified, CodeAlreadyCompleted,
		CodeFeedbackAlreadyGiven, CodeEndorsementAlreadyExists,
		CodeServiceAlreadyStarted, CodeServiceAlreadyCanceled,
		CodeDisputeAlreadyExists, CodeDisputeAlreadyResolved:
		return http.StatusConflict
	case CodeInvalidParameters, CodeInsufficientBalance,
		CodeServiceNotCompleted, CodeServiceNotStarted, CodeSelfActionNotAllowed:
		return http.StatusBadRequest
	case "":
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}
