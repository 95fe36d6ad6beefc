package gov

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"sort"

	"xdao.co/idgov/ledger"
	"xdao.co/idgov/schema"
)

// Identity is the local mirror of a ledger identity object.
//
// It has no exported mutators. Its state changes only when a transaction's
// Apply consumes effects the ledger produced for it, and a deleted identity
// never changes again.
type Identity struct {
	id   string
	lock rwLock

	st identityState
}

type identityState struct {
	version   uint64
	committee map[string]uint64
	threshold uint64
	document  []byte
	deleted   bool
}

// IdentitySnapshot is a detached copy of an identity's state.
type IdentitySnapshot struct {
	ID        string
	Version   uint64
	Committee map[string]uint64
	Threshold uint64
	Document  []byte
	Deleted   bool
}

// NewIdentity builds a mirror from a ledger object the caller already holds.
func NewIdentity(obj ledger.Object) (*Identity, error) {
	st, err := decodeIdentityState(obj)
	if err != nil {
		return nil, err
	}
	return &Identity{id: obj.ID, lock: newRWLock(), st: st}, nil
}

// LoadIdentity reads identity id from the ledger into a new mirror.
func LoadIdentity(ctx context.Context, r ledger.Reader, id string) (*Identity, error) {
	obj, err := r.GetObject(ctx, id)
	if err != nil {
		return nil, readError("identity", id, err)
	}
	return NewIdentity(obj)
}

func decodeIdentityState(obj ledger.Object) (identityState, error) {
	if obj.Type != ledger.TypeIdentity {
		return identityState{}, newError(KindClientError, "GOV-CLI-002", fmt.Sprintf("object %s is a %s, not an identity", obj.ID, obj.Type))
	}
	o, err := schema.DecodeIdentity(obj.Bytes)
	if err != nil {
		return identityState{}, wrapError(KindClientError, "GOV-CLI-002", fmt.Sprintf("identity %s", obj.ID), err)
	}
	return identityState{
		version:   obj.Version,
		committee: o.Committee,
		threshold: o.Threshold,
		document:  o.Document,
		deleted:   o.Deleted,
	}, nil
}

func (i *Identity) ID() string { return i.id }

func (i *Identity) Version() uint64 {
	i.lock.rlock()
	defer i.lock.runlock()
	return i.st.version
}

// Committee returns a copy of the controller weights.
func (i *Identity) Committee() map[string]uint64 {
	i.lock.rlock()
	defer i.lock.runlock()
	return maps.Clone(i.st.committee)
}

// Controllers returns the committee members in sorted order.
func (i *Identity) Controllers() []string {
	i.lock.rlock()
	defer i.lock.runlock()
	out := make([]string, 0, len(i.st.committee))
	for c := range i.st.committee {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

func (i *Identity) WeightOf(controller string) (uint64, bool) {
	i.lock.rlock()
	defer i.lock.runlock()
	w, ok := i.st.committee[controller]
	return w, ok
}

func (i *Identity) Threshold() uint64 {
	i.lock.rlock()
	defer i.lock.runlock()
	return i.st.threshold
}

// Document returns a copy of the packed DID document, or false when the
// identity has none.
func (i *Identity) Document() ([]byte, bool) {
	i.lock.rlock()
	defer i.lock.runlock()
	if i.st.document == nil {
		return nil, false
	}
	return bytes.Clone(i.st.document), true
}

func (i *Identity) Deleted() bool {
	i.lock.rlock()
	defer i.lock.runlock()
	return i.st.deleted
}

func (i *Identity) Snapshot() IdentitySnapshot {
	i.lock.rlock()
	defer i.lock.runlock()
	return IdentitySnapshot{
		ID:        i.id,
		Version:   i.st.version,
		Committee: maps.Clone(i.st.committee),
		Threshold: i.st.threshold,
		Document:  bytes.Clone(i.st.document),
		Deleted:   i.st.deleted,
	}
}

// advance replaces the mirrored state with next unless next is older. Caller
// holds the exclusive lock.
func (i *Identity) advance(next identityState) {
	if i.st.deleted || next.version < i.st.version {
		return
	}
	i.st = next
}

func readError(what, id string, err error) error {
	if ctxErr := contextError(err); ctxErr != nil {
		return ctxErr
	}
	return wrapError(KindClientError, "GOV-CLI-001", fmt.Sprintf("read %s %s", what, id), err)
}
