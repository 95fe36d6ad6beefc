package action

import (
	"bytes"
	"fmt"
)

// Code is the wire tag of an action variant. Values are part of the payload
// schema and never change.
type Code uint8

const (
	CodeUpdate     Code = 1
	CodeDeactivate Code = 2
	CodeDelete     Code = 3
)

// Record is the encoded form of an Action inside payloads and ledger objects.
type Record struct {
	Code     Code   `cbor:"1,keyasint"`
	Document []byte `cbor:"2,keyasint,omitempty"`
}

// ToRecord converts a into its wire record.
func ToRecord(a Action) (Record, error) {
	if err := Validate(a); err != nil {
		return Record{}, err
	}
	switch v := a.(type) {
	case Update:
		return Record{Code: CodeUpdate, Document: bytes.Clone(v.doc)}, nil
	case Deactivate:
		return Record{Code: CodeDeactivate}, nil
	case Delete:
		return Record{Code: CodeDelete}, nil
	default:
		return Record{}, fmt.Errorf("%w: unknown action %T", ErrMalformed, a)
	}
}

// FromRecord rebuilds an Action from its wire record. Deactivate and Delete
// records must not carry document bytes; Update records must carry a valid
// packed document.
func FromRecord(r Record) (Action, error) {
	switch r.Code {
	case CodeUpdate:
		return NewUpdate(r.Document)
	case CodeDeactivate:
		if len(r.Document) != 0 {
			return nil, fmt.Errorf("%w: deactivate record carries document bytes", ErrMalformed)
		}
		return Deactivate{}, nil
	case CodeDelete:
		if len(r.Document) != 0 {
			return nil, fmt.Errorf("%w: delete record carries document bytes", ErrMalformed)
		}
		return Delete{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown action code %d", ErrMalformed, r.Code)
	}
}
