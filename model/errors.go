package model

import (
	"errors"
	"fmt"

	"xdao.co/idgov/gov"
)

type ErrorCode string

const (
	ErrInvalidRequest   ErrorCode = "INVALID_REQUEST"
	ErrUnauthorized     ErrorCode = "UNAUTHORIZED"
	ErrDuplicateVote    ErrorCode = "DUPLICATE_VOTE"
	ErrExpired          ErrorCode = "EXPIRED"
	ErrThresholdNotMet  ErrorCode = "THRESHOLD_NOT_MET"
	ErrVersionConflict  ErrorCode = "VERSION_CONFLICT"
	ErrClient           ErrorCode = "CLIENT_ERROR"
	ErrMalformedAction  ErrorCode = "MALFORMED_ACTION"
	ErrIdentityDeleted  ErrorCode = "IDENTITY_DELETED"
	ErrProposalConsumed ErrorCode = "PROPOSAL_CONSUMED"
	ErrInternal         ErrorCode = "INTERNAL"
)

var kindCodes = map[gov.Kind]ErrorCode{
	gov.KindUnauthorized:    ErrUnauthorized,
	gov.KindDuplicateVote:   ErrDuplicateVote,
	gov.KindExpired:         ErrExpired,
	gov.KindThresholdNotMet: ErrThresholdNotMet,
	gov.KindVersionConflict: ErrVersionConflict,
	gov.KindClientError:     ErrClient,
	gov.KindMalformedAction: ErrMalformedAction,
	gov.KindDeleted:         ErrIdentityDeleted,
	gov.KindConsumed:        ErrProposalConsumed,
}

// CodedError is a stable error with a machine-readable code and a human message.
type CodedError struct {
	Code      ErrorCode `json:"code"`
	RuleID    string    `json:"ruleID,omitempty"`
	Message   string    `json:"message"`
	Retryable bool      `json:"retryable"`
}

func (e *CodedError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewError(code ErrorCode, message string) *CodedError {
	return &CodedError{Code: code, Message: message}
}

// FromError projects err onto a CodedError. Governance kinds map to their
// own codes; anything unclassified is INTERNAL. It returns nil for nil.
func FromError(err error) *CodedError {
	if err == nil {
		return nil
	}
	var ce *CodedError
	if errors.As(err, &ce) {
		return ce
	}
	code, ok := kindCodes[gov.KindOf(err)]
	if !ok {
		code = ErrInternal
	}
	return &CodedError{
		Code:      code,
		RuleID:    gov.RuleID(err),
		Message:   err.Error(),
		Retryable: gov.Retryable(err),
	}
}
