package gov

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"xdao.co/idgov/action"
	"xdao.co/idgov/ledger"
)

func TestKindOf(t *testing.T) {
	cases := []struct {
		err  error
		want Kind
	}{
		{nil, ""},
		{errors.New("plain"), ""},
		{newError(KindExpired, "GOV-EXP-001", "x"), KindExpired},
		{fmt.Errorf("wrapped: %w", newError(KindDuplicateVote, "GOV-VOTE-001", "x")), KindDuplicateVote},
		{fmt.Errorf("%w: bad", action.ErrMalformed), KindMalformedAction},
		{ledger.ErrVersionConflict, KindVersionConflict},
		{ledger.ErrUnavailable, KindClientError},
		{ledger.ErrNotFound, KindClientError},
	}
	for _, tc := range cases {
		if got := KindOf(tc.err); got != tc.want {
			t.Errorf("KindOf(%v)=%q want %q", tc.err, got, tc.want)
		}
	}
}

func TestRetryable(t *testing.T) {
	retryable := []Kind{KindVersionConflict, KindClientError}
	terminal := []Kind{KindUnauthorized, KindDuplicateVote, KindExpired, KindThresholdNotMet, KindMalformedAction, KindDeleted, KindConsumed}
	for _, k := range retryable {
		if !Retryable(newError(k, "R", "m")) {
			t.Errorf("%s should be retryable", k)
		}
	}
	for _, k := range terminal {
		if Retryable(newError(k, "R", "m")) {
			t.Errorf("%s should not be retryable", k)
		}
	}
	if Retryable(wrapError(KindClientError, "R", "m", context.Canceled)) {
		t.Errorf("cancellation should not be retryable")
	}
}

func TestErrorFormatting(t *testing.T) {
	cause := errors.New("boom")
	err := wrapError(KindClientError, "GOV-CLI-001", "read identity x", cause)
	if err.Error() != "read identity x: boom" {
		t.Fatalf("Error()=%q", err.Error())
	}
	if !errors.Is(err, cause) || RuleID(err) != "GOV-CLI-001" {
		t.Fatalf("unwrap/rule broken")
	}
	if RuleID(cause) != "" {
		t.Fatalf("RuleID of a plain error")
	}
	var nilErr *Error
	if nilErr.Error() != "<nil>" || nilErr.Unwrap() != nil {
		t.Fatalf("nil *Error")
	}
}
