package schema

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"xdao.co/idgov/action"
	"xdao.co/idgov/codec"
	"xdao.co/idgov/didoc"
	"xdao.co/idgov/ledger"
)

func updateRecord(t *testing.T) *action.Record {
	t.Helper()
	u, err := action.NewUpdateFromDocument(didoc.Document{ID: "did:xdao:s"}, didoc.Metadata{})
	if err != nil {
		t.Fatalf("NewUpdateFromDocument: %v", err)
	}
	r, err := action.ToRecord(u)
	if err != nil {
		t.Fatalf("ToRecord: %v", err)
	}
	return &r
}

func testNonce() []byte { return bytes.Repeat([]byte{0x5a}, NonceSize) }

func TestNewNonce(t *testing.T) {
	a, err := NewNonce()
	if err != nil {
		t.Fatalf("NewNonce: %v", err)
	}
	b, err := NewNonce()
	if err != nil {
		t.Fatalf("NewNonce: %v", err)
	}
	if len(a) != NonceSize || bytes.Equal(a, b) {
		t.Fatalf("nonces %x %x", a, b)
	}
}

func TestPayloadEncodingIsDeterministic(t *testing.T) {
	exp := uint64(5)
	p := Payload{
		Version:    PayloadVersion,
		Op:         OpCreate,
		Identity:   ledger.ObjectRef{ID: "id-1", Version: 3},
		Controller: "A",
		Action:     updateRecord(t),
		Expiration: &exp,
		Nonce:      testNonce(),
	}
	first, err := EncodePayload(p)
	if err != nil {
		t.Fatalf("EncodePayload: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := EncodePayload(p)
		if err != nil {
			t.Fatalf("EncodePayload: %v", err)
		}
		if !bytes.Equal(first, again) {
			t.Fatalf("payload encoding not deterministic")
		}
	}
	got, err := DecodePayload(first)
	if err != nil {
		t.Fatalf("DecodePayload: %v", err)
	}
	if got.Op != OpCreate || got.Identity.Version != 3 || *got.Expiration != 5 || !bytes.Equal(got.Nonce, testNonce()) {
		t.Fatalf("decoded payload mismatch: %+v", got)
	}
}

func TestPayloadValidate(t *testing.T) {
	ref := &ledger.ObjectRef{ID: "p", Version: 1}
	cases := []struct {
		name string
		p    Payload
		want string
	}{
		{"version", Payload{Version: 2, Op: OpCreate}, "unsupported payload version"},
		{"no identity", Payload{Version: 1, Op: OpCreate, Controller: "A"}, "missing identity"},
		{"create with proposal", Payload{Version: 1, Op: OpCreate, Identity: ledger.ObjectRef{ID: "i"}, Controller: "A", Proposal: ref, Action: updateRecord(t)}, "must not reference"},
		{"create without action", Payload{Version: 1, Op: OpCreate, Identity: ledger.ObjectRef{ID: "i"}, Controller: "A"}, "missing action"},
		{"create without nonce", Payload{Version: 1, Op: OpCreateExecute, Identity: ledger.ObjectRef{ID: "i"}, Controller: "A", Action: updateRecord(t)}, "16-byte nonce"},
		{"create with short nonce", Payload{Version: 1, Op: OpCreate, Identity: ledger.ObjectRef{ID: "i"}, Controller: "A", Action: updateRecord(t), Nonce: []byte{1}}, "16-byte nonce"},
		{"approve with nonce", Payload{Version: 1, Op: OpApprove, Identity: ledger.ObjectRef{ID: "i"}, Controller: "A", Proposal: ref, Nonce: testNonce()}, "must not carry a nonce"},
		{"approve without proposal", Payload{Version: 1, Op: OpApprove, Identity: ledger.ObjectRef{ID: "i"}, Controller: "A"}, "missing proposal"},
		{"execute with action", Payload{Version: 1, Op: OpExecute, Identity: ledger.ObjectRef{ID: "i"}, Controller: "A", Proposal: ref, Action: updateRecord(t)}, "must not carry"},
		{"unknown op", Payload{Version: 1, Op: 99, Identity: ledger.ObjectRef{ID: "i"}, Controller: "A"}, "unknown op"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.p.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("got %v, want error containing %q", err, tc.want)
			}
		})
	}
}

func TestDecodePayloadRejectsNonCanonical(t *testing.T) {
	// Same logical payload with a non-minimal integer encoding for Version.
	type loose struct {
		Version    uint16            `cbor:"1,keyasint"`
		Op         Op                `cbor:"2,keyasint"`
		Identity   ledger.ObjectRef  `cbor:"3,keyasint"`
		Proposal   *ledger.ObjectRef `cbor:"4,keyasint,omitempty"`
		Controller string            `cbor:"5,keyasint"`
	}
	good, err := codec.Marshal(loose{Version: 1, Op: OpApprove, Identity: ledger.ObjectRef{ID: "i"}, Proposal: &ledger.ObjectRef{ID: "p"}, Controller: "A"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if _, err := DecodePayload(good); err != nil {
		t.Fatalf("canonical bytes rejected: %v", err)
	}
	// Re-encode the Version field (first map value) as a two-byte integer.
	idx := bytes.Index(good, []byte{0x01, 0x01})
	if idx < 0 {
		t.Fatalf("could not locate version field")
	}
	bad := append([]byte(nil), good[:idx+1]...)
	bad = append(bad, 0x18, 0x01)
	bad = append(bad, good[idx+2:]...)
	if _, err := DecodePayload(bad); err == nil {
		t.Fatalf("non-canonical payload accepted")
	}
}

func TestProposalObjectVoters(t *testing.T) {
	v := WithVoter(nil, "B")
	v = WithVoter(v, "A")
	v = WithVoter(v, "C")
	v = WithVoter(v, "B")
	if strings.Join(v, ",") != "A,B,C" {
		t.Fatalf("WithVoter = %v", v)
	}
	p := ProposalObject{Identity: "i", Action: *updateRecord(t), Votes: 3, Voters: v}
	if !p.HasVoter("B") || p.HasVoter("D") {
		t.Fatalf("HasVoter mismatch")
	}
	b, err := EncodeProposal(p)
	if err != nil {
		t.Fatalf("EncodeProposal: %v", err)
	}
	back, err := DecodeProposal(b)
	if err != nil {
		t.Fatalf("DecodeProposal: %v", err)
	}
	if back.Votes != 3 || len(back.Voters) != 3 {
		t.Fatalf("proposal mismatch: %+v", back)
	}
	if _, err := EncodeProposal(ProposalObject{Voters: []string{"B", "A"}}); err == nil {
		t.Fatalf("unsorted voters accepted")
	}
}

func TestWeightAndExpired(t *testing.T) {
	committee := map[string]uint64{"A": 1, "B": 2}
	if got := Weight(committee, []string{"A", "B", "Z"}); got != 3 {
		t.Fatalf("Weight = %d", got)
	}
	huge := map[string]uint64{"A": math.MaxUint64 / 2, "B": math.MaxUint64 / 2, "C": 5}
	if got := Weight(huge, []string{"A", "B", "C"}); got != math.MaxUint64 {
		t.Fatalf("Weight overflowed to %d", got)
	}
	if got := Weight(map[string]uint64{"A": 1 << 63, "B": 1 << 63}, []string{"A", "B"}); got != math.MaxUint64 {
		t.Fatalf("Weight of two 2^63 weights = %d", got)
	}
	five := uint64(5)
	if Expired(&five, 5) || !Expired(&five, 6) || Expired(nil, 100) {
		t.Fatalf("Expired boundary mismatch")
	}
}
