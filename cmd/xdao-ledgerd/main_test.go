package main

import (
	"bytes"
	"context"
	"testing"

	"xdao.co/idgov/ledger/memledger"
)

func TestParseFlags(t *testing.T) {
	var errOut bytes.Buffer
	o, err := parseFlags([]string{"--publish-committee", "alice=2,bob=1", "--publish-threshold", "2", "--epoch", "7"}, &errOut)
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if o.committee["alice"] != 2 || o.threshold != 2 || o.epoch != 7 {
		t.Fatalf("options %+v", o)
	}

	if _, err := parseFlags([]string{"--publish-committee", "alice=0"}, &errOut); err == nil {
		t.Fatalf("expected error for zero weight")
	}
	if code := run([]string{"--no-such-flag"}, &errOut); code != 2 {
		t.Fatalf("exit %d", code)
	}
}

func TestPublish(t *testing.T) {
	l := memledger.New()
	id, err := publish(l, map[string]int64{"alice": 1, "bob": 1}, 2)
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	obj, err := l.GetObject(context.Background(), id)
	if err != nil || obj.ID != id {
		t.Fatalf("GetObject: %+v %v", obj, err)
	}
}

func TestMetered_PassesErrorsThrough(t *testing.T) {
	m := metered{memledger.New()}
	if _, err := m.Submit(context.Background(), []byte{0x01}); err == nil {
		t.Fatalf("expected invalid payload error")
	}
}
