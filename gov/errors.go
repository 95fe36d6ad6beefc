package gov

import (
	"context"
	"errors"

	"xdao.co/idgov/action"
	"xdao.co/idgov/ledger"
)

// Kind is a stable category for programmatic error handling.
//
// Callers should branch on Kind/RuleID rather than matching error strings.
// Use errors.As to extract *Error for structured handling.
type Kind string

const (
	KindUnauthorized    Kind = "Unauthorized"
	KindDuplicateVote   Kind = "DuplicateVote"
	KindExpired         Kind = "Expired"
	KindThresholdNotMet Kind = "ThresholdNotMet"
	KindVersionConflict Kind = "VersionConflict"
	KindClientError     Kind = "ClientError"
	KindMalformedAction Kind = "MalformedAction"
	KindDeleted         Kind = "Deleted"
	KindConsumed        Kind = "Consumed"
)

// Error is the package's structured error type.
//
// RuleID is a stable identifier (e.g., GOV-AUTH-002, GOV-EFF-002) naming the
// rule that was violated. Message is intended for humans; do not match on it.
type Error struct {
	Kind    Kind
	RuleID  string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func newError(kind Kind, ruleID, msg string) error {
	return &Error{Kind: kind, RuleID: ruleID, Message: msg}
}

func wrapError(kind Kind, ruleID, msg string, cause error) error {
	if cause == nil {
		return newError(kind, ruleID, msg)
	}
	return &Error{Kind: kind, RuleID: ruleID, Message: msg, Cause: cause}
}

// IsKind reports whether err is (or wraps) a *Error with the given Kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// RuleID returns the stable RuleID for a structured error, or "" if unknown.
func RuleID(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.RuleID
}

// KindOf classifies err. Besides *Error it recognizes the action and ledger
// sentinels, so errors from those packages classify the same way. It returns
// "" for nil and for errors it cannot classify.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	switch {
	case errors.Is(err, action.ErrMalformed):
		return KindMalformedAction
	case errors.Is(err, ledger.ErrVersionConflict):
		return KindVersionConflict
	case errors.Is(err, ledger.ErrNotFound), errors.Is(err, ledger.ErrUnavailable):
		return KindClientError
	}
	return ""
}

// Retryable reports whether the operation may succeed if retried after
// re-reading ledger state. Context cancellation is never retryable.
func Retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	switch KindOf(err) {
	case KindVersionConflict, KindClientError:
		return true
	}
	return false
}
