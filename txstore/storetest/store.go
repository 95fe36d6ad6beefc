// Package storetest is a conformance suite for txstore.Store implementations.
package storetest

import (
	"bytes"
	"testing"

	"github.com/ipfs/go-cid"

	"xdao.co/idgov/cidutil"
	"xdao.co/idgov/txstore"
)

// NewStore constructs a fresh, empty Store for a test.
// The returned Store MUST be isolated from other tests.
type NewStore func(t *testing.T) txstore.Store

func RunStoreConformance(t *testing.T, newStore NewStore) {
	t.Helper()

	t.Run("PutGetRoundTrip", func(t *testing.T) {
		s := newStore(t)
		want := []byte("journaled payload")

		id, err := s.Put(want)
		if err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		wantID, err := cidutil.Digest(want)
		if err != nil {
			t.Fatalf("Digest failed: %v", err)
		}
		if id != wantID {
			t.Fatalf("Put digest mismatch: got %s want %s", id, wantID)
		}

		got, err := s.Get(id)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("Get bytes mismatch")
		}
	})

	t.Run("PutIdempotent", func(t *testing.T) {
		s := newStore(t)
		b := []byte("same payload")

		id1, err := s.Put(b)
		if err != nil {
			t.Fatalf("Put(1) failed: %v", err)
		}
		id2, err := s.Put(b)
		if err != nil {
			t.Fatalf("Put(2) failed: %v", err)
		}
		if id1 != id2 {
			t.Fatalf("Put not idempotent: %s vs %s", id1, id2)
		}
	})

	t.Run("HasAndNotFound", func(t *testing.T) {
		s := newStore(t)
		b := []byte("missing")
		id, err := cidutil.Digest(b)
		if err != nil {
			t.Fatalf("Digest failed: %v", err)
		}

		if s.Has(id) {
			t.Fatalf("Has returned true for missing digest")
		}
		if _, err := s.Get(id); !txstore.IsNotFound(err) {
			t.Fatalf("Get missing: got err=%v want ErrNotFound", err)
		}

		if _, err := s.Put(b); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		if !s.Has(id) {
			t.Fatalf("Has returned false after Put")
		}
	})

	t.Run("RejectEmpty", func(t *testing.T) {
		s := newStore(t)
		if _, err := s.Put(nil); err == nil {
			t.Fatalf("Put should fail for empty payload")
		}
	})

	t.Run("RejectUndefCID", func(t *testing.T) {
		s := newStore(t)
		var undef cid.Cid
		if s.Has(undef) {
			t.Fatalf("Has should be false for undefined CID")
		}
		if _, err := s.Get(undef); err == nil {
			t.Fatalf("Get should fail for undefined CID")
		}
	})

	t.Run("ListSorted", func(t *testing.T) {
		s := newStore(t)
		l, ok := s.(txstore.Lister)
		if !ok {
			t.Skip("store does not implement Lister")
		}
		var want []cid.Cid
		for _, p := range []string{"a", "b", "c"} {
			id, err := s.Put([]byte(p))
			if err != nil {
				t.Fatalf("Put(%q) failed: %v", p, err)
			}
			want = append(want, id)
		}
		txstore.SortCIDs(want)

		got, err := l.List()
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(got) != len(want) {
			t.Fatalf("List len=%d want %d", len(got), len(want))
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("List[%d]=%s want %s", i, got[i], want[i])
			}
		}
	})
}
