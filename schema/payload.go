package schema

import (
	"crypto/rand"
	"errors"
	"fmt"

	"xdao.co/idgov/action"
	"xdao.co/idgov/codec"
	"xdao.co/idgov/ledger"
)

// Op selects what a payload does on the ledger.
type Op uint8

const (
	// OpCreate persists a new pending proposal carrying the creator's vote.
	OpCreate Op = 1
	// OpCreateExecute applies the action directly; used when the creator's
	// weight alone meets the threshold.
	OpCreateExecute Op = 2
	// OpApprove records one vote on a pending proposal.
	OpApprove Op = 3
	// OpApproveExecute records one vote and applies the action in the same
	// transaction, consuming the proposal.
	OpApproveExecute Op = 4
	// OpExecute applies an approved proposal's action and consumes it.
	OpExecute Op = 5
)

func (o Op) String() string {
	switch o {
	case OpCreate:
		return "create"
	case OpCreateExecute:
		return "create+execute"
	case OpApprove:
		return "approve"
	case OpApproveExecute:
		return "approve+execute"
	case OpExecute:
		return "execute"
	default:
		return fmt.Sprintf("op(%d)", uint8(o))
	}
}

// Executes reports whether o applies an action to the identity.
func (o Op) Executes() bool {
	return o == OpCreateExecute || o == OpApproveExecute || o == OpExecute
}

// NonceSize is the length of the nonce every create payload carries.
const NonceSize = 16

// NewNonce returns a fresh random create nonce.
func NewNonce() ([]byte, error) {
	n := make([]byte, NonceSize)
	if _, err := rand.Read(n); err != nil {
		return nil, fmt.Errorf("schema: read nonce: %w", err)
	}
	return n, nil
}

// Payload is an unsigned governance transaction.
//
// Identity and Proposal carry the versions the builder read. The ledger
// rejects the payload with a version conflict when either has moved.
//
// Creating a proposal leaves the identity version unchanged, so create
// payloads carry a Nonce. Two creates of the same action at the same version
// are then distinct transactions with distinct proposal IDs.
type Payload struct {
	Version    uint8             `cbor:"1,keyasint"`
	Op         Op                `cbor:"2,keyasint"`
	Identity   ledger.ObjectRef  `cbor:"3,keyasint"`
	Proposal   *ledger.ObjectRef `cbor:"4,keyasint,omitempty"`
	Controller string            `cbor:"5,keyasint"`
	Action     *action.Record    `cbor:"6,keyasint,omitempty"`
	Expiration *uint64           `cbor:"7,keyasint,omitempty"`
	Nonce      []byte            `cbor:"8,keyasint,omitempty"`
}

// Validate checks the structural rules for p.Op.
func (p Payload) Validate() error {
	if p.Version != PayloadVersion {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, p.Version)
	}
	if p.Identity.ID == "" {
		return errors.New("schema: payload missing identity")
	}
	if p.Controller == "" {
		return errors.New("schema: payload missing controller")
	}
	switch p.Op {
	case OpCreate, OpCreateExecute:
		if p.Proposal != nil {
			return fmt.Errorf("schema: %s payload must not reference a proposal", p.Op)
		}
		if p.Action == nil {
			return fmt.Errorf("schema: %s payload missing action", p.Op)
		}
		if _, err := action.FromRecord(*p.Action); err != nil {
			return err
		}
		if len(p.Nonce) != NonceSize {
			return fmt.Errorf("schema: %s payload needs a %d-byte nonce, got %d", p.Op, NonceSize, len(p.Nonce))
		}
	case OpApprove, OpApproveExecute, OpExecute:
		if p.Proposal == nil || p.Proposal.ID == "" {
			return fmt.Errorf("schema: %s payload missing proposal", p.Op)
		}
		if p.Action != nil || p.Expiration != nil {
			return fmt.Errorf("schema: %s payload must not carry an action", p.Op)
		}
		if p.Nonce != nil {
			return fmt.Errorf("schema: %s payload must not carry a nonce", p.Op)
		}
	default:
		return fmt.Errorf("schema: unknown op %d", uint8(p.Op))
	}
	return nil
}

// EncodePayload validates p and returns its canonical bytes.
func EncodePayload(p Payload) ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return codec.Marshal(p)
}

// DecodePayload parses and validates canonical payload bytes. Bytes that do
// not re-encode identically are rejected, so each payload has one encoding.
func DecodePayload(b []byte) (Payload, error) {
	var p Payload
	if err := codec.UnmarshalStrict(b, &p); err != nil {
		return Payload{}, fmt.Errorf("schema: decode payload: %w", err)
	}
	if err := p.Validate(); err != nil {
		return Payload{}, err
	}
	again, err := codec.Marshal(p)
	if err != nil {
		return Payload{}, err
	}
	if string(again) != string(b) {
		return Payload{}, errors.New("schema: payload is not canonically encoded")
	}
	return p, nil
}
