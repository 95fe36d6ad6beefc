package boltstore

import (
	"path/filepath"
	"testing"

	"go.etcd.io/bbolt"

	"xdao.co/idgov/txstore"
	"xdao.co/idgov/txstore/storetest"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestBolt_Conformance(t *testing.T) {
	storetest.RunStoreConformance(t, func(t *testing.T) txstore.Store {
		return openTemp(t)
	})
}

func TestBolt_RejectMutation(t *testing.T) {
	s := openTemp(t)
	id, err := s.Put([]byte("original"))
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(payloadBucket)).Put(id.Bytes(), []byte("corrupted"))
	})
	if err != nil {
		t.Fatalf("corrupt: %v", err)
	}

	if _, err := s.Get(id); err != txstore.ErrCIDMismatch {
		t.Fatalf("Get mismatch: got %v want %v", err, txstore.ErrCIDMismatch)
	}
	if _, err := s.Put([]byte("original")); err != txstore.ErrImmutable {
		t.Fatalf("Put after corruption: got %v want %v", err, txstore.ErrImmutable)
	}
}

func TestBolt_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	id, err := s.Put([]byte("durable"))
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s.Close()
	got, err := s.Get(id)
	if err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if string(got) != "durable" {
		t.Fatalf("got %q", got)
	}
}

func TestOpen_RequiresPath(t *testing.T) {
	if _, err := Open("  "); err == nil {
		t.Fatalf("expected error for blank path")
	}
}
