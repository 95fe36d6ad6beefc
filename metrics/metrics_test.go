package metrics

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"xdao.co/idgov/ledger"
	"xdao.co/idgov/schema"
)

func TestOutcome(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{context.Canceled, "cancelled"},
		{fmt.Errorf("run: %w", ledger.ErrVersionConflict), "VersionConflict"},
		{errors.New("boom"), "error"},
	}
	for _, tc := range cases {
		if got := Outcome(tc.err); got != tc.want {
			t.Fatalf("Outcome(%v)=%q want %q", tc.err, got, tc.want)
		}
	}
}

func TestRecorder(t *testing.T) {
	var r Recorder
	before := testutil.ToFloat64(transactions.WithLabelValues("approve", "ok"))
	r.Observe(schema.OpApprove, nil, 5*time.Millisecond)
	r.Observe(schema.OpApprove, nil, 5*time.Millisecond)
	if got := testutil.ToFloat64(transactions.WithLabelValues("approve", "ok")); got != before+2 {
		t.Fatalf("approve/ok=%v want %v", got, before+2)
	}

	r.Observe(0, ledger.ErrUnavailable, time.Millisecond)
	if got := testutil.ToFloat64(transactions.WithLabelValues("none", "ClientError")); got < 1 {
		t.Fatalf("none/ClientError=%v", got)
	}
}

func TestRecordSubmit(t *testing.T) {
	before := testutil.ToFloat64(ledgerSubmits.WithLabelValues("ok"))
	RecordSubmit("")
	if got := testutil.ToFloat64(ledgerSubmits.WithLabelValues("ok")); got != before+1 {
		t.Fatalf("ok=%v want %v", got, before+1)
	}
}
