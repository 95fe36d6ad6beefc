// Package boltstore is a BoltDB-backed transaction journal.
package boltstore

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/ipfs/go-cid"
	"go.etcd.io/bbolt"

	"xdao.co/idgov/txstore"
)

const payloadBucket = "payloads"

// Store keeps payloads in a single bucket keyed by the binary digest.
type Store struct {
	db *bbolt.DB
}

var (
	_ txstore.Store  = (*Store)(nil)
	_ txstore.Lister = (*Store)(nil)
)

// Open opens (or creates) the database at path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("boltstore: path is required")
	}

	db, err := bbolt.Open(filepath.Clean(path), 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("boltstore: open: %w", err)
	}

	s := &Store{db: db}
	if err := s.ensureBuckets(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Put(payload []byte) (cid.Cid, error) {
	id, err := txstore.Key(payload)
	if err != nil {
		return cid.Undef, err
	}
	err = s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(payloadBucket))
		if bucket == nil {
			return fmt.Errorf("boltstore: %s bucket is missing", payloadBucket)
		}
		if existing := bucket.Get(id.Bytes()); existing != nil {
			return txstore.Reconcile(id, existing, payload)
		}
		return bucket.Put(id.Bytes(), payload)
	})
	if err != nil {
		return cid.Undef, err
	}
	return id, nil
}

func (s *Store) Get(id cid.Cid) ([]byte, error) {
	if !id.Defined() {
		return nil, txstore.ErrInvalidCID
	}
	var out []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(payloadBucket))
		if bucket == nil {
			return fmt.Errorf("boltstore: %s bucket is missing", payloadBucket)
		}
		v := bucket.Get(id.Bytes())
		if v == nil {
			return txstore.ErrNotFound
		}
		// Values are only valid for the life of the transaction.
		out = bytes.Clone(v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return txstore.Verify(id, out)
}

func (s *Store) Has(id cid.Cid) bool {
	if !id.Defined() {
		return false
	}
	var found bool
	_ = s.db.View(func(tx *bbolt.Tx) error {
		if bucket := tx.Bucket([]byte(payloadBucket)); bucket != nil {
			found = bucket.Get(id.Bytes()) != nil
		}
		return nil
	})
	return found
}

func (s *Store) List() ([]cid.Cid, error) {
	var out []cid.Cid
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(payloadBucket))
		if bucket == nil {
			return errors.New("boltstore: payload bucket is missing")
		}
		return bucket.ForEach(func(k, _ []byte) error {
			id, err := cid.Cast(k)
			if err != nil {
				return fmt.Errorf("boltstore: bad key %x: %w", k, err)
			}
			out = append(out, id)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	txstore.SortCIDs(out)
	return out, nil
}

func (s *Store) ensureBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(payloadBucket)); err != nil {
			return fmt.Errorf("boltstore: create %s bucket: %w", payloadBucket, err)
		}
		return nil
	})
}
