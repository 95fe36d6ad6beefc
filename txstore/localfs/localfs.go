// Package localfs is a filesystem-backed transaction journal.
package localfs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ipfs/go-cid"

	"xdao.co/idgov/txstore"
)

// Store keeps one read-only file per payload under a two-character fan-out
// directory. It never uses the network and never depends on wall-clock time.
type Store struct {
	root string
}

var (
	_ txstore.Store  = (*Store)(nil)
	_ txstore.Lister = (*Store)(nil)
)

// New constructs a journal rooted at root. The directory will be created if needed.
func New(root string) (*Store, error) {
	if root == "" {
		return nil, errors.New("localfs: root directory is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &Store{root: root}, nil
}

func (s *Store) Put(payload []byte) (cid.Cid, error) {
	id, err := txstore.Key(payload)
	if err != nil {
		return cid.Undef, err
	}
	path := s.pathFor(id)

	switch existing, err := os.ReadFile(path); {
	case err == nil:
		if err := txstore.Reconcile(id, existing, payload); err != nil {
			return cid.Undef, err
		}
		return id, nil
	case !os.IsNotExist(err):
		return cid.Undef, err
	}

	if err := writeReadOnly(path, payload); err != nil {
		return cid.Undef, fmt.Errorf("localfs: write %s: %w", id, err)
	}
	return id, nil
}

func (s *Store) Get(id cid.Cid) ([]byte, error) {
	if !id.Defined() {
		return nil, txstore.ErrInvalidCID
	}
	b, err := os.ReadFile(s.pathFor(id))
	if os.IsNotExist(err) {
		return nil, txstore.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return txstore.Verify(id, b)
}

func (s *Store) Has(id cid.Cid) bool {
	if !id.Defined() {
		return false
	}
	info, err := os.Stat(s.pathFor(id))
	return err == nil && info.Mode().IsRegular()
}

// writeReadOnly stages b in a temporary file beside path, syncs it, and
// renames it into place, so readers never observe a partial entry.
func writeReadOnly(path string, b []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".put-*")
	if err != nil {
		return err
	}
	name := tmp.Name()
	defer os.Remove(name)

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(name, 0o444); err != nil {
		return err
	}
	return os.Rename(name, path)
}

// List walks the journal directory. Files whose names are not digests are
// skipped.
func (s *Store) List() ([]cid.Cid, error) {
	var out []cid.Cid
	err := filepath.WalkDir(s.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		id, err := cid.Decode(d.Name())
		if err != nil {
			return nil
		}
		out = append(out, id)
		return nil
	})
	if err != nil {
		return nil, err
	}
	txstore.SortCIDs(out)
	return out, nil
}

func (s *Store) pathFor(id cid.Cid) string {
	str := id.String()
	if len(str) < 2 {
		return filepath.Join(s.root, str)
	}
	return filepath.Join(s.root, str[len(str)-2:], str)
}
