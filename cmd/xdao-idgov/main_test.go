package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"xdao.co/idgov/action"
	"xdao.co/idgov/config"
	"xdao.co/idgov/ledger"
	"xdao.co/idgov/ledger/memledger"
	"xdao.co/idgov/model"
	"xdao.co/idgov/schema"
)

// useLedger points the CLI at an in-process ledger for the test.
func useLedger(t *testing.T, l ledger.Client) {
	t.Helper()
	prev := dialLedger
	dialLedger = func(config.LedgerConfig) (ledger.Client, func() error, error) {
		return l, func() error { return nil }, nil
	}
	t.Cleanup(func() { dialLedger = prev })
}

func publish(t *testing.T, l *memledger.Ledger, committee map[string]uint64, threshold uint64) string {
	t.Helper()
	id, err := l.PublishIdentity(schema.IdentityObject{Committee: committee, Threshold: threshold})
	if err != nil {
		t.Fatalf("PublishIdentity: %v", err)
	}
	return id
}

func runOK(t *testing.T, args ...string) []byte {
	t.Helper()
	var out, errOut bytes.Buffer
	if code := run(args, &out, &errOut); code != 0 {
		t.Fatalf("%v: exit %d: %s", args, code, errOut.String())
	}
	return out.Bytes()
}

func TestRun_UsageAndUnknown(t *testing.T) {
	var out, errOut bytes.Buffer
	if code := run(nil, &out, &errOut); code != 2 {
		t.Fatalf("no args: exit %d", code)
	}
	if code := run([]string{"help"}, &out, &errOut); code != 0 || !strings.Contains(out.String(), "xdao-idgov") {
		t.Fatalf("help: exit %d", code)
	}
	if code := run([]string{"frobnicate"}, &out, &errOut); code != 2 {
		t.Fatalf("unknown: exit %d", code)
	}
	if code := run([]string{"approve", "--proposal", "p"}, &out, &errOut); code != 2 {
		t.Fatalf("approve without controller: exit %d", code)
	}
}

func TestPropose_ApproveFlow(t *testing.T) {
	l := memledger.New()
	useLedger(t, l)
	id := publish(t, l, map[string]uint64{"alice": 1, "bob": 1, "carol": 1}, 2)

	var created model.ResultView
	if err := json.Unmarshal(runOK(t, "propose", "deactivate", "--identity", id, "--controller", "alice"), &created); err != nil {
		t.Fatalf("decode propose output: %v", err)
	}
	if created.Pending == nil || created.Pending.Votes != 1 {
		t.Fatalf("propose result %+v", created)
	}

	var shown model.ProposalView
	if err := json.Unmarshal(runOK(t, "proposal", "show", "--id", created.Pending.ID), &shown); err != nil {
		t.Fatalf("decode proposal: %v", err)
	}
	if shown.State != "pending" || len(shown.Voters) != 1 {
		t.Fatalf("proposal %+v", shown)
	}

	var approved model.ResultView
	if err := json.Unmarshal(runOK(t, "approve", "--proposal", created.Pending.ID, "--controller", "bob"), &approved); err != nil {
		t.Fatalf("decode approve output: %v", err)
	}
	if approved.Executed == nil || approved.Executed.Action != string(action.KindDeactivate) {
		t.Fatalf("approve result %+v", approved)
	}

	var identity model.IdentityView
	if err := json.Unmarshal(runOK(t, "identity", "show", "--id", id), &identity); err != nil {
		t.Fatalf("decode identity: %v", err)
	}
	if identity.Document != nil || identity.Version != approved.Executed.IdentityVersion {
		t.Fatalf("identity %+v", identity)
	}
}

func TestPropose_ErrorIsCodedJSON(t *testing.T) {
	l := memledger.New()
	useLedger(t, l)
	id := publish(t, l, map[string]uint64{"alice": 1}, 1)

	var out, errOut bytes.Buffer
	code := run([]string{"propose", "delete", "--identity", id, "--controller", "mallory", "--retries", "5"}, &out, &errOut)
	if code != 1 {
		t.Fatalf("exit %d", code)
	}
	var ce model.CodedError
	if err := json.Unmarshal(errOut.Bytes(), &ce); err != nil {
		t.Fatalf("stderr is not a coded error: %q", errOut.String())
	}
	if ce.Code != model.ErrUnauthorized || ce.Retryable {
		t.Fatalf("coded error %+v", ce)
	}
}

func TestTxDecode(t *testing.T) {
	rec, err := action.ToRecord(action.Deactivate{})
	if err != nil {
		t.Fatalf("ToRecord: %v", err)
	}
	b, err := schema.EncodePayload(schema.Payload{
		Version:    schema.PayloadVersion,
		Op:         schema.OpCreate,
		Identity:   ledger.ObjectRef{ID: "bafy-identity", Version: 1},
		Controller: "alice",
		Action:     &rec,
		Nonce:      bytes.Repeat([]byte{0x01}, schema.NonceSize),
	})
	if err != nil {
		t.Fatalf("EncodePayload: %v", err)
	}
	path := filepath.Join(t.TempDir(), "tx.cbor")
	if err := os.WriteFile(path, b, 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	var v model.TxView
	if err := json.Unmarshal(runOK(t, "tx", "decode", path), &v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if v.Op != "create" || v.Controller != "alice" || v.Action.Kind != string(action.KindDeactivate) {
		t.Fatalf("tx view %+v", v)
	}
}

func TestJournal_ListAndResubmit(t *testing.T) {
	l := memledger.New()
	useLedger(t, l)
	t.Setenv("IDGOV_JOURNAL_BACKEND", config.JournalBolt)
	t.Setenv("IDGOV_JOURNAL_BOLT", filepath.Join(t.TempDir(), "journal.db"))
	id := publish(t, l, map[string]uint64{"alice": 1}, 1)

	var res model.ResultView
	if err := json.Unmarshal(runOK(t, "propose", "delete", "--identity", id, "--controller", "alice"), &res); err != nil {
		t.Fatalf("decode propose: %v", err)
	}
	if res.Executed == nil {
		t.Fatalf("want direct execution, got %+v", res)
	}

	listed := strings.Fields(string(runOK(t, "journal", "list")))
	if len(listed) != 1 || listed[0] != res.Executed.TxDigest {
		t.Fatalf("journal list %v want [%s]", listed, res.Executed.TxDigest)
	}

	var fx model.EffectsView
	if err := json.Unmarshal(runOK(t, "journal", "resubmit", listed[0]), &fx); err != nil {
		t.Fatalf("decode effects: %v", err)
	}
	if !fx.Success || fx.TxDigest != res.Executed.TxDigest {
		t.Fatalf("resubmit effects %+v", fx)
	}

	var out, errOut bytes.Buffer
	if code := run([]string{"journal", "resubmit", "not-a-cid"}, &out, &errOut); code != 1 {
		t.Fatalf("bad cid: exit %d", code)
	}
}
