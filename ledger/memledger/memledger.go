// Package memledger is an in-process ledger that runs the governance module
// against payloads produced by package gov.
//
// It is authoritative in the same way a real ledger is: it re-checks every
// rule against its own state, enforces optimistic version checks, and reports
// aborted transactions through ledger.ExecutionStatus. It never uses the
// wall clock; epochs advance only when told to.
package memledger

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"xdao.co/idgov/cidutil"
	"xdao.co/idgov/ledger"
	"xdao.co/idgov/schema"
)

// Ledger is safe for concurrent use.
type Ledger struct {
	mu      sync.Mutex
	objects map[string]ledger.Object
	done    map[string]*ledger.Effects
	epoch   uint64
	seq     uint64
	log     zerolog.Logger
}

type Option func(*Ledger)

func WithLogger(log zerolog.Logger) Option {
	return func(l *Ledger) { l.log = log }
}

func WithEpoch(epoch uint64) Option {
	return func(l *Ledger) { l.epoch = epoch }
}

var _ ledger.Client = (*Ledger)(nil)

func New(opts ...Option) *Ledger {
	l := &Ledger{
		objects: make(map[string]ledger.Object),
		done:    make(map[string]*ledger.Effects),
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// PublishIdentity creates a new identity object and returns its ID. This is
// the publish step that happens before any governance takes place.
func (l *Ledger) PublishIdentity(obj schema.IdentityObject) (string, error) {
	if len(obj.Committee) == 0 {
		return "", fmt.Errorf("memledger: identity needs at least one controller")
	}
	b, err := schema.EncodeIdentity(obj)
	if err != nil {
		return "", err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.seq++
	seed := binary.BigEndian.AppendUint64(append([]byte("publish:"), b...), l.seq)
	digest, err := cidutil.Digest(seed)
	if err != nil {
		return "", err
	}
	id, err := cidutil.DeriveObjectID(digest, 0)
	if err != nil {
		return "", err
	}
	l.objects[id.String()] = ledger.Object{ID: id.String(), Version: 1, Type: ledger.TypeIdentity, Bytes: b}
	l.log.Info().Str("identity", id.String()).Int("controllers", len(obj.Committee)).Uint64("threshold", obj.Threshold).Msg("identity published")
	return id.String(), nil
}

// SetCommittee replaces an identity's committee and threshold outside of the
// proposal flow, standing in for a concurrent writer.
func (l *Ledger) SetCommittee(id string, committee map[string]uint64, threshold uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	obj, ok := l.objects[id]
	if !ok || obj.Type != ledger.TypeIdentity {
		return ledger.ErrNotFound
	}
	ident, err := schema.DecodeIdentity(obj.Bytes)
	if err != nil {
		return err
	}
	ident.Committee = make(map[string]uint64, len(committee))
	for k, v := range committee {
		ident.Committee[k] = v
	}
	ident.Threshold = threshold
	b, err := schema.EncodeIdentity(ident)
	if err != nil {
		return err
	}
	l.objects[id] = ledger.Object{ID: id, Version: obj.Version + 1, Type: obj.Type, Bytes: b}
	return nil
}

// Touch bumps an object's version without changing its content.
func (l *Ledger) Touch(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	obj, ok := l.objects[id]
	if !ok {
		return ledger.ErrNotFound
	}
	obj.Version++
	l.objects[id] = obj
	return nil
}

// AdvanceEpoch moves the epoch forward by n and returns the new epoch.
func (l *Ledger) AdvanceEpoch(n uint64) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.epoch += n
	return l.epoch
}

func (l *Ledger) GetObject(ctx context.Context, id string) (ledger.Object, error) {
	if err := ctx.Err(); err != nil {
		return ledger.Object{}, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	obj, ok := l.objects[id]
	if !ok {
		return ledger.Object{}, ledger.ErrNotFound
	}
	return obj.Clone(), nil
}

func (l *Ledger) GetEpoch(ctx context.Context) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.epoch, nil
}

// Submit executes payload. Payloads that fail to decode are rejected with
// ledger.ErrInvalidPayload and never reach execution; every other outcome is
// reported through the returned effects. Submitting a payload that already
// executed returns the recorded effects without executing it again.
func (l *Ledger) Submit(ctx context.Context, payload []byte) (*ledger.Effects, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := schema.DecodePayload(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ledger.ErrInvalidPayload, err)
	}
	digest, err := cidutil.Digest(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ledger.ErrInvalidPayload, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if prev, ok := l.done[digest.String()]; ok {
		l.log.Debug().Str("tx", digest.String()).Msg("replayed transaction")
		return prev.Clone(), nil
	}

	fx := &ledger.Effects{TxDigest: digest.String(), Epoch: l.epoch}
	st := &staged{ledger: l}
	if ab := st.run(p, digest); ab != nil {
		fx.Status = ledger.ExecutionStatus{Code: ab.code, Message: ab.msg}
		l.log.Info().Str("tx", fx.TxDigest).Stringer("op", p.Op).Str("code", ab.code).Msg(ab.msg)
		// Aborted transactions may be retried once the ledger moves on.
		return fx, nil
	}

	for _, o := range st.created {
		l.objects[o.ID] = o
	}
	for _, o := range st.mutated {
		l.objects[o.ID] = o
	}
	for _, r := range st.deleted {
		delete(l.objects, r.ID)
	}
	fx.Status = ledger.ExecutionStatus{Success: true}
	fx.Created = cloneAll(st.created)
	fx.Mutated = cloneAll(st.mutated)
	fx.Deleted = st.deleted
	fx.Events = st.events
	l.done[fx.TxDigest] = fx.Clone()
	l.log.Debug().Str("tx", fx.TxDigest).Stringer("op", p.Op).Str("identity", p.Identity.ID).Msg("transaction executed")
	return fx, nil
}

func cloneAll(in []ledger.Object) []ledger.Object {
	out := make([]ledger.Object, len(in))
	for i, o := range in {
		out[i] = o.Clone()
	}
	return out
}
