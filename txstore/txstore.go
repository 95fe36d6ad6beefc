// Package txstore journals built transaction payloads so they can be
// resubmitted after a crash or a lost response.
//
// Payloads are content addressed by their transaction digest
// (cidutil.Digest), so a journal entry and the ledger's record of the
// transaction share one key.
package txstore

import "github.com/ipfs/go-cid"

// Store is a content-addressed payload journal.
//
// Contract:
// - Put MUST be idempotent.
// - Stored payloads MUST be immutable.
// - Keys MUST be cidutil.Digest of the bytes written.
// - Get MUST return ErrNotFound when the digest is absent.
// - Get MUST return ErrCIDMismatch when stored bytes no longer hash to the key.
type Store interface {
	Put(payload []byte) (cid.Cid, error)
	Get(id cid.Cid) ([]byte, error)
	Has(id cid.Cid) bool
}

// Lister is implemented by stores that can enumerate their keys.
type Lister interface {
	List() ([]cid.Cid, error)
}
