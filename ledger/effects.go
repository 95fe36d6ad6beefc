package ledger

import "bytes"

// Ledger-level abort codes. Module-specific codes live with the module schema.
const (
	CodeVersionConflict = "version_conflict"
	CodeObjectNotFound  = "object_not_found"
)

// ExecutionStatus is the outcome of executing one transaction.
type ExecutionStatus struct {
	Success bool   `cbor:"1,keyasint"`
	Code    string `cbor:"2,keyasint,omitempty"`
	Message string `cbor:"3,keyasint,omitempty"`
}

// Event is an opaque module event emitted during execution.
type Event struct {
	Type string `cbor:"1,keyasint"`
	Data []byte `cbor:"2,keyasint,omitempty"`
}

// Effects is the ledger's authoritative record of what a transaction changed.
//
// Consumers remove the entries they reconcile (see the Take* methods); what
// is left is the remainder other consumers of the same transaction may still
// need.
type Effects struct {
	TxDigest string          `cbor:"1,keyasint"`
	Status   ExecutionStatus `cbor:"2,keyasint"`
	Epoch    uint64          `cbor:"3,keyasint"`
	Created  []Object        `cbor:"4,keyasint,omitempty"`
	Mutated  []Object        `cbor:"5,keyasint,omitempty"`
	Deleted  []ObjectRef     `cbor:"6,keyasint,omitempty"`
	Events   []Event         `cbor:"7,keyasint,omitempty"`
}

// Clone returns a deep copy of e.
func (e *Effects) Clone() *Effects {
	if e == nil {
		return nil
	}
	out := &Effects{
		TxDigest: e.TxDigest,
		Status:   e.Status,
		Epoch:    e.Epoch,
	}
	out.Created = cloneObjects(e.Created)
	out.Mutated = cloneObjects(e.Mutated)
	if e.Deleted != nil {
		out.Deleted = append([]ObjectRef(nil), e.Deleted...)
	}
	if e.Events != nil {
		out.Events = make([]Event, len(e.Events))
		for i, ev := range e.Events {
			out.Events[i] = Event{Type: ev.Type, Data: bytes.Clone(ev.Data)}
		}
	}
	return out
}

// Empty reports whether no object changes or events remain.
func (e *Effects) Empty() bool {
	return len(e.Created) == 0 && len(e.Mutated) == 0 && len(e.Deleted) == 0 && len(e.Events) == 0
}

// TakeMutated removes and returns the mutated entry for id.
func (e *Effects) TakeMutated(id string) (Object, bool) {
	for i, o := range e.Mutated {
		if o.ID == id {
			e.Mutated = append(e.Mutated[:i:i], e.Mutated[i+1:]...)
			return o, true
		}
	}
	return Object{}, false
}

// TakeDeleted removes and returns the deleted entry for id.
func (e *Effects) TakeDeleted(id string) (ObjectRef, bool) {
	for i, r := range e.Deleted {
		if r.ID == id {
			e.Deleted = append(e.Deleted[:i:i], e.Deleted[i+1:]...)
			return r, true
		}
	}
	return ObjectRef{}, false
}

// TakeCreated removes and returns the first created object for which match
// returns true.
func (e *Effects) TakeCreated(match func(Object) bool) (Object, bool) {
	for i, o := range e.Created {
		if match(o) {
			e.Created = append(e.Created[:i:i], e.Created[i+1:]...)
			return o, true
		}
	}
	return Object{}, false
}

// TakeEvent removes and returns the first event of the given type.
func (e *Effects) TakeEvent(typ string) (Event, bool) {
	for i, ev := range e.Events {
		if ev.Type == typ {
			e.Events = append(e.Events[:i:i], e.Events[i+1:]...)
			return ev, true
		}
	}
	return Event{}, false
}

// Clone returns a deep copy of o.
func (o Object) Clone() Object {
	o.Bytes = bytes.Clone(o.Bytes)
	return o
}

func cloneObjects(in []Object) []Object {
	if in == nil {
		return nil
	}
	out := make([]Object, len(in))
	for i, o := range in {
		out[i] = o.Clone()
	}
	return out
}
