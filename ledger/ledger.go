// Package ledger defines the read-only view of the ledger that idgov consumes,
// and the execution effects a submitted transaction produces.
//
// Submission and signing belong to the caller. Submitter is declared here only
// so transports and simulators share one signature.
package ledger

import "context"

// ObjectType tags the layout of an object's Bytes.
type ObjectType string

const (
	TypeIdentity ObjectType = "identity"
	TypeProposal ObjectType = "proposal"
)

// Object is a versioned ledger object. Version increases on every mutation.
type Object struct {
	ID      string     `cbor:"1,keyasint"`
	Version uint64     `cbor:"2,keyasint"`
	Type    ObjectType `cbor:"3,keyasint"`
	Bytes   []byte     `cbor:"4,keyasint"`
}

// ObjectRef names an object at a specific version.
type ObjectRef struct {
	ID      string `cbor:"1,keyasint"`
	Version uint64 `cbor:"2,keyasint"`
}

// Reader is the read-only ledger contract.
//
// Contract:
// - GetObject MUST return ErrNotFound when the object does not exist (or was deleted).
// - Returned objects MUST NOT alias memory the implementation mutates later.
// - GetEpoch MUST be monotonically non-decreasing across calls.
type Reader interface {
	GetObject(ctx context.Context, id string) (Object, error)
	GetEpoch(ctx context.Context) (uint64, error)
}

// Submitter executes a canonical transaction payload and reports its effects.
//
// A transaction the ledger accepted but aborted is reported through
// Effects.Status, not through the error; the error is reserved for payloads
// that never reached execution.
type Submitter interface {
	Submit(ctx context.Context, payload []byte) (*Effects, error)
}

// Client is a Reader that can also submit.
type Client interface {
	Reader
	Submitter
}
