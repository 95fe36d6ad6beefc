package txstore

import (
	"bytes"

	"github.com/ipfs/go-cid"

	"xdao.co/idgov/cidutil"
)

// Key returns the journal key of payload: its transaction digest.
func Key(payload []byte) (cid.Cid, error) {
	return cidutil.Digest(payload)
}

// Verify returns b when it hashes to id and ErrCIDMismatch otherwise.
// Backends call it on every read.
func Verify(id cid.Cid, b []byte) ([]byte, error) {
	if !id.Defined() {
		return nil, ErrInvalidCID
	}
	got, err := Key(b)
	if err != nil || got != id {
		return nil, ErrCIDMismatch
	}
	return b, nil
}

// Reconcile decides a Put of payload under id when an entry already exists.
// It succeeds only when the stored bytes verify and equal payload; a corrupt
// or different entry is never repaired in place.
func Reconcile(id cid.Cid, existing, payload []byte) error {
	if _, err := Verify(id, existing); err != nil {
		return ErrImmutable
	}
	if !bytes.Equal(existing, payload) {
		return ErrImmutable
	}
	return nil
}
