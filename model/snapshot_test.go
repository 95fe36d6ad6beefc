package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"xdao.co/idgov/action"
	"xdao.co/idgov/gov"
	"xdao.co/idgov/ledger"
	"xdao.co/idgov/schema"
)

func TestSnapshot_IdentityView_JSONShape(t *testing.T) {
	v := FromIdentity(gov.IdentitySnapshot{
		ID:        "bafy-identity-1",
		Version:   3,
		Committee: map[string]uint64{"bob": 1, "alice": 2},
		Threshold: 2,
	})

	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		t.Fatalf("MarshalIndent failed: %v", err)
	}

	const want = "{\n" +
		"  \"id\": \"bafy-identity-1\",\n" +
		"  \"version\": 3,\n" +
		"  \"committee\": [\n" +
		"    {\n" +
		"      \"controller\": \"alice\",\n" +
		"      \"weight\": 2\n" +
		"    },\n" +
		"    {\n" +
		"      \"controller\": \"bob\",\n" +
		"      \"weight\": 1\n" +
		"    }\n" +
		"  ],\n" +
		"  \"threshold\": 2,\n" +
		"  \"deleted\": false\n" +
		"}"

	if string(b) != want {
		t.Fatalf("snapshot mismatch:\n%s", string(b))
	}
}

func TestSnapshot_ResultView_JSONShape(t *testing.T) {
	r := ResultView{Executed: &ExecutionView{
		TxDigest:        "bafy-tx-1",
		IdentityID:      "bafy-identity-1",
		ProposalID:      "bafy-proposal-1",
		Action:          "deactivate",
		IdentityVersion: 4,
		Epoch:           9,
	}}

	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		t.Fatalf("MarshalIndent failed: %v", err)
	}

	const want = "{\n" +
		"  \"executed\": {\n" +
		"    \"txDigest\": \"bafy-tx-1\",\n" +
		"    \"identityID\": \"bafy-identity-1\",\n" +
		"    \"proposalID\": \"bafy-proposal-1\",\n" +
		"    \"action\": \"deactivate\",\n" +
		"    \"identityVersion\": 4,\n" +
		"    \"epoch\": 9\n" +
		"  }\n" +
		"}"

	if string(b) != want {
		t.Fatalf("snapshot mismatch:\n%s", string(b))
	}
}

func TestFromPayload(t *testing.T) {
	rec, err := action.ToRecord(action.Delete{})
	if err != nil {
		t.Fatalf("ToRecord: %v", err)
	}
	exp := uint64(12)
	b, err := schema.EncodePayload(schema.Payload{
		Version:    schema.PayloadVersion,
		Op:         schema.OpCreate,
		Identity:   ledger.ObjectRef{ID: "bafy-identity-1", Version: 2},
		Controller: "alice",
		Action:     &rec,
		Expiration: &exp,
		Nonce:      bytes.Repeat([]byte{0xab}, schema.NonceSize),
	})
	if err != nil {
		t.Fatalf("EncodePayload: %v", err)
	}

	v, err := FromPayload(b)
	if err != nil {
		t.Fatalf("FromPayload: %v", err)
	}
	if v.Nonce != strings.Repeat("ab", schema.NonceSize) {
		t.Fatalf("nonce %q", v.Nonce)
	}
	if v.Op != "create" || v.Action == nil || v.Action.Kind != "delete" || v.Action.IsDeactivation || *v.ExpirationEpoch != 12 || v.Digest == "" {
		t.Fatalf("view %+v", v)
	}

	if _, err := FromPayload([]byte{0xa0}); FromError(err).Code != ErrInvalidRequest {
		t.Fatalf("bad payload: %v", err)
	}
}

func TestFromError(t *testing.T) {
	if FromError(nil) != nil {
		t.Fatalf("FromError(nil) != nil")
	}
	ce := FromError(fmt.Errorf("run: %w", ledger.ErrVersionConflict))
	if ce.Code != ErrVersionConflict || !ce.Retryable {
		t.Fatalf("version conflict: %+v", ce)
	}
	if ce := FromError(fmt.Errorf("boom")); ce.Code != ErrInternal || ce.Retryable {
		t.Fatalf("plain: %+v", ce)
	}
	orig := NewError(ErrInvalidRequest, "bad flag")
	if FromError(fmt.Errorf("wrapped: %w", orig)) != orig {
		t.Fatalf("CodedError not preserved")
	}
}

func TestFromEffects(t *testing.T) {
	v := FromEffects(&ledger.Effects{
		TxDigest: "bafy-tx",
		Status:   ledger.ExecutionStatus{Success: true},
		Epoch:    4,
		Mutated:  []ledger.Object{{ID: "bafy-identity-1", Version: 5}},
		Deleted:  []ledger.ObjectRef{{ID: "bafy-proposal-1", Version: 3}},
		Events:   []ledger.Event{{Type: schema.EventActionExecuted}},
	})
	if !v.Success || v.Epoch != 4 || len(v.Mutated) != 1 || v.Deleted[0] != "bafy-proposal-1" || v.Events[0] != schema.EventActionExecuted {
		t.Fatalf("view %+v", v)
	}
	if v.Created != nil {
		t.Fatalf("created %v", v.Created)
	}
}
