package gov

import (
	"context"
	"fmt"

	"xdao.co/idgov/action"
	"xdao.co/idgov/cidutil"
	"xdao.co/idgov/ledger"
	"xdao.co/idgov/schema"
)

// CreateTx proposes an action. When the creating controller's weight alone
// meets the threshold the action executes in the same transaction.
type CreateTx struct {
	identity   *Identity
	token      ControllerToken
	action     action.Action
	expiration *uint64
	nonce      []byte

	built *Built
}

// CreateOption configures CreateProposal.
type CreateOption func(*CreateTx)

// WithNonce fixes the create nonce instead of drawing a random one. Reusing
// a nonce for the same action at the same identity version yields the same
// transaction, which the ledger treats as a replay.
func WithNonce(nonce []byte) CreateOption {
	return func(tx *CreateTx) { tx.nonce = append([]byte(nil), nonce...) }
}

var _ Transaction[ProposalResult] = (*CreateTx)(nil)

// CreateProposal returns a transaction proposing act on identity. expiration
// is the last epoch at which the proposal accepts votes; nil never expires.
//
// Each transaction carries its own nonce, so every CreateProposal persists a
// new proposal even when an identical one is already pending. Rebuilding the
// same transaction reuses its nonce.
func CreateProposal(identity *Identity, token ControllerToken, act action.Action, expiration *uint64, opts ...CreateOption) (*CreateTx, error) {
	if identity == nil {
		return nil, newError(KindClientError, "GOV-CLI-003", "nil identity")
	}
	if err := token.authorize(identity.id); err != nil {
		return nil, err
	}
	if err := action.Validate(act); err != nil {
		return nil, wrapError(KindMalformedAction, "GOV-ACT-001", "invalid action", err)
	}
	tx := &CreateTx{identity: identity, token: token, action: act}
	if expiration != nil {
		e := *expiration
		tx.expiration = &e
	}
	for _, opt := range opts {
		opt(tx)
	}
	if tx.nonce == nil {
		n, err := schema.NewNonce()
		if err != nil {
			return nil, wrapError(KindClientError, "GOV-CLI-003", "create nonce", err)
		}
		tx.nonce = n
	} else if len(tx.nonce) != schema.NonceSize {
		return nil, newError(KindClientError, "GOV-CLI-003", fmt.Sprintf("nonce must be %d bytes, got %d", schema.NonceSize, len(tx.nonce)))
	}
	return tx, nil
}

func (tx *CreateTx) Build(ctx context.Context, r ledger.Reader) (Built, error) {
	return lockedBuild[ProposalResult](ctx, tx, r)
}

func (tx *CreateTx) Apply(ctx context.Context, fx *ledger.Effects) (ProposalResult, error) {
	return lockedApply[ProposalResult](ctx, tx, fx)
}

func (tx *CreateTx) locks() []rwLock { return []rwLock{tx.identity.lock} }

func (tx *CreateTx) build(ctx context.Context, r ledger.Reader) (Built, error) {
	view, weight, err := readIdentity(ctx, r, tx.identity, tx.token.controllerID)
	if err != nil {
		return Built{}, err
	}
	if schema.Expired(tx.expiration, view.epoch) {
		return Built{}, newError(KindExpired, "GOV-EXP-002", fmt.Sprintf("expiration %d already passed (epoch %d)", *tx.expiration, view.epoch))
	}
	rec, err := action.ToRecord(tx.action)
	if err != nil {
		return Built{}, wrapError(KindMalformedAction, "GOV-ACT-001", "invalid action", err)
	}

	op := schema.OpCreate
	if weight >= view.ident.Threshold {
		op = schema.OpCreateExecute
	}
	built, err := encode(schema.Payload{
		Version:    schema.PayloadVersion,
		Op:         op,
		Identity:   ledger.ObjectRef{ID: view.identity.ID, Version: view.identity.Version},
		Controller: tx.token.controllerID,
		Action:     &rec,
		Expiration: tx.expiration,
		Nonce:      tx.nonce,
	})
	if err != nil {
		return Built{}, err
	}
	tx.built = &built
	return built, nil
}

func (tx *CreateTx) apply(fx *ledger.Effects) (ProposalResult, error) {
	if err := checkEffects(tx.built, fx); err != nil {
		return ProposalResult{}, err
	}
	work := fx.Clone()

	switch tx.built.Op {
	case schema.OpCreateExecute:
		next, err := takeExecution(work, tx.identity.id, "")
		if err != nil {
			return ProposalResult{}, err
		}
		tx.identity.advance(next)
		*fx = *work
		return executedResult(summarize(fx, tx.identity.id, "", tx.action, next)), nil

	case schema.OpCreate:
		id, err := cidutil.DeriveObjectID(tx.built.Digest, 0)
		if err != nil {
			return ProposalResult{}, wrapError(KindClientError, "GOV-EFF-003", "derive proposal id", err)
		}
		obj, ok := work.TakeCreated(func(o ledger.Object) bool { return o.ID == id.String() })
		if !ok {
			return ProposalResult{}, missingEffect("created proposal", id.String())
		}
		p, err := newProposal(obj)
		if err != nil {
			return ProposalResult{}, err
		}
		if p.identityID != tx.identity.id || !action.Equal(p.action, tx.action) {
			return ProposalResult{}, newError(KindClientError, "GOV-EFF-003", fmt.Sprintf("created proposal %s does not match the built transaction", p.id))
		}
		work.TakeEvent(schema.EventProposalCreated)
		*fx = *work
		return pendingResult(p), nil

	default:
		return ProposalResult{}, newError(KindClientError, "GOV-CLI-003", fmt.Sprintf("create cannot apply %s", tx.built.Op))
	}
}
