// Package ledgertest is a conformance suite for ledger.Reader
// implementations.
package ledgertest

import (
	"bytes"
	"context"
	"testing"

	"xdao.co/idgov/ledger"
	"xdao.co/idgov/schema"
)

// Fixture is a reader over a ledger holding one published identity.
type Fixture struct {
	Reader     ledger.Reader
	IdentityID string
	Committee  map[string]uint64
	Threshold  uint64

	// AdvanceEpoch moves the backing ledger's epoch forward by n.
	AdvanceEpoch func(n uint64)
}

// NewFixture constructs a fresh, isolated fixture for a test.
type NewFixture func(t *testing.T) Fixture

func RunReaderConformance(t *testing.T, newFixture NewFixture) {
	t.Helper()

	t.Run("GetIdentity", func(t *testing.T) {
		f := newFixture(t)
		obj, err := f.Reader.GetObject(context.Background(), f.IdentityID)
		if err != nil {
			t.Fatalf("GetObject failed: %v", err)
		}
		if obj.ID != f.IdentityID || obj.Type != ledger.TypeIdentity || obj.Version == 0 {
			t.Fatalf("unexpected object header: id=%s type=%s version=%d", obj.ID, obj.Type, obj.Version)
		}
		ident, err := schema.DecodeIdentity(obj.Bytes)
		if err != nil {
			t.Fatalf("DecodeIdentity failed: %v", err)
		}
		if ident.Threshold != f.Threshold || len(ident.Committee) != len(f.Committee) {
			t.Fatalf("identity mismatch: %+v", ident)
		}
		for c, w := range f.Committee {
			if ident.Committee[c] != w {
				t.Fatalf("weight of %s: got %d want %d", c, ident.Committee[c], w)
			}
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.Reader.GetObject(context.Background(), "bafy-missing")
		if !ledger.IsNotFound(err) {
			t.Fatalf("GetObject missing: got err=%v want ErrNotFound", err)
		}
	})

	t.Run("NoAliasing", func(t *testing.T) {
		f := newFixture(t)
		first, err := f.Reader.GetObject(context.Background(), f.IdentityID)
		if err != nil {
			t.Fatalf("GetObject failed: %v", err)
		}
		want := bytes.Clone(first.Bytes)
		for i := range first.Bytes {
			first.Bytes[i] ^= 0xff
		}
		second, err := f.Reader.GetObject(context.Background(), f.IdentityID)
		if err != nil {
			t.Fatalf("GetObject failed: %v", err)
		}
		if !bytes.Equal(second.Bytes, want) {
			t.Fatalf("caller mutation leaked into the reader")
		}
	})

	t.Run("EpochMonotonic", func(t *testing.T) {
		f := newFixture(t)
		e1, err := f.Reader.GetEpoch(context.Background())
		if err != nil {
			t.Fatalf("GetEpoch failed: %v", err)
		}
		f.AdvanceEpoch(3)
		e2, err := f.Reader.GetEpoch(context.Background())
		if err != nil {
			t.Fatalf("GetEpoch failed: %v", err)
		}
		if e2 != e1+3 {
			t.Fatalf("epoch %d after advancing 3 from %d", e2, e1)
		}
	})

	t.Run("CancelledContext", func(t *testing.T) {
		f := newFixture(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := f.Reader.GetObject(ctx, f.IdentityID); err == nil {
			t.Fatalf("GetObject should fail with a cancelled context")
		}
		if _, err := f.Reader.GetEpoch(ctx); err == nil {
			t.Fatalf("GetEpoch should fail with a cancelled context")
		}
	})
}
