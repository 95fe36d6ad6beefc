// Package action defines the closed set of governance mutations that a
// proposal can carry: Update, Deactivate and Delete.
//
// Action is a sealed interface. The three concrete types are the only
// implementations, and every switch over them in this module ends in a
// default branch that reports ErrMalformed, so adding a variant fails loudly
// at every site that has not been taught about it.
package action

import (
	"bytes"
	"errors"
	"fmt"

	"xdao.co/idgov/didoc"
)

// Kind is the stable name of an action variant.
type Kind string

const (
	KindUpdate     Kind = "update"
	KindDeactivate Kind = "deactivate"
	KindDelete     Kind = "delete"
)

// ErrMalformed is wrapped by every action construction or decoding failure.
var ErrMalformed = errors.New("action: malformed")

// Action is one governance mutation request.
type Action interface {
	Kind() Kind
	sealed()
}

// Update replaces the identity's document with packed DID document bytes.
type Update struct {
	doc []byte
}

// Deactivate clears the identity's document while keeping the identity alive.
type Deactivate struct{}

// Delete clears the document and tombstones the identity. It is terminal.
type Delete struct{}

func (Update) Kind() Kind     { return KindUpdate }
func (Deactivate) Kind() Kind { return KindDeactivate }
func (Delete) Kind() Kind     { return KindDelete }

func (Update) sealed()     {}
func (Deactivate) sealed() {}
func (Delete) sealed()     {}

// NewUpdate validates packed document bytes and wraps them in an Update.
func NewUpdate(packed []byte) (Update, error) {
	if len(packed) == 0 {
		return Update{}, fmt.Errorf("%w: update requires document bytes", ErrMalformed)
	}
	if err := didoc.Validate(packed); err != nil {
		return Update{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return Update{doc: bytes.Clone(packed)}, nil
}

// NewUpdateFromDocument packs doc and meta into an Update.
func NewUpdateFromDocument(doc didoc.Document, meta didoc.Metadata) (Update, error) {
	b, err := didoc.Pack(doc, meta)
	if err != nil {
		return Update{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return Update{doc: b}, nil
}

// Bytes returns a copy of the packed document.
func (u Update) Bytes() []byte {
	return bytes.Clone(u.doc)
}

// Valid reports whether u was produced by a constructor. The zero Update is
// not a valid action.
func (u Update) Valid() bool {
	return len(u.doc) > 0
}

// IsDeactivation reports whether a is the Deactivate variant. The check is on
// the variant, never on payload length.
func IsDeactivation(a Action) bool {
	_, ok := a.(Deactivate)
	return ok
}

// Document returns the parsed document carried by an Update, or nil for the
// other variants.
func Document(a Action) (*didoc.Document, error) {
	switch v := a.(type) {
	case Update:
		if !v.Valid() {
			return nil, fmt.Errorf("%w: empty update", ErrMalformed)
		}
		doc, _, err := didoc.Unpack(v.doc)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return &doc, nil
	case Deactivate, Delete:
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: unknown action %T", ErrMalformed, a)
	}
}

// Validate checks that a is a known, well-formed variant.
func Validate(a Action) error {
	switch v := a.(type) {
	case Update:
		if !v.Valid() {
			return fmt.Errorf("%w: empty update", ErrMalformed)
		}
		return nil
	case Deactivate, Delete:
		return nil
	case nil:
		return fmt.Errorf("%w: missing action", ErrMalformed)
	default:
		return fmt.Errorf("%w: unknown action %T", ErrMalformed, a)
	}
}

// Equal reports whether a and b are the same variant with the same payload.
func Equal(a, b Action) bool {
	switch av := a.(type) {
	case Update:
		bv, ok := b.(Update)
		return ok && bytes.Equal(av.doc, bv.doc)
	case Deactivate:
		_, ok := b.(Deactivate)
		return ok
	case Delete:
		_, ok := b.(Delete)
		return ok
	default:
		return false
	}
}
