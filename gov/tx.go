package gov

import (
	"context"
	"fmt"

	"github.com/ipfs/go-cid"

	"xdao.co/idgov/action"
	"xdao.co/idgov/cidutil"
	"xdao.co/idgov/ledger"
	"xdao.co/idgov/schema"
)

// Built is an unsigned transaction ready for submission.
type Built struct {
	Op      schema.Op
	Payload []byte
	Digest  cid.Cid
}

// Transaction is one governance operation against the ledger.
//
// Build reads current ledger state and returns the payload to submit; it
// never changes local state. Apply reconciles local state from the effects
// of the most recently built payload, removing the entries it consumed from
// fx. Both take the handles' exclusive locks for the duration of the call;
// use Run to hold them across build, submit and apply.
type Transaction[R any] interface {
	Build(ctx context.Context, r ledger.Reader) (Built, error)
	Apply(ctx context.Context, fx *ledger.Effects) (R, error)

	locks() []rwLock
	build(ctx context.Context, r ledger.Reader) (Built, error)
	apply(fx *ledger.Effects) (R, error)
}

func lockedBuild[R any](ctx context.Context, tx Transaction[R], r ledger.Reader) (Built, error) {
	unlock, err := lockAll(ctx, tx.locks()...)
	if err != nil {
		return Built{}, err
	}
	defer unlock()
	return tx.build(ctx, r)
}

func lockedApply[R any](ctx context.Context, tx Transaction[R], fx *ledger.Effects) (R, error) {
	var zero R
	unlock, err := lockAll(ctx, tx.locks()...)
	if err != nil {
		return zero, err
	}
	defer unlock()
	return tx.apply(fx)
}

func encode(p schema.Payload) (Built, error) {
	b, err := schema.EncodePayload(p)
	if err != nil {
		return Built{}, wrapError(KindClientError, "GOV-CLI-003", "encode payload", err)
	}
	digest, err := cidutil.Digest(b)
	if err != nil {
		return Built{}, wrapError(KindClientError, "GOV-CLI-003", "digest payload", err)
	}
	return Built{Op: p.Op, Payload: b, Digest: digest}, nil
}

// ledgerView is the ledger state a build decides on.
type ledgerView struct {
	identity ledger.Object
	ident    schema.IdentityObject
	epoch    uint64
}

// readIdentity loads the current identity object and epoch, and checks the
// controller may act on it.
func readIdentity(ctx context.Context, r ledger.Reader, mirror *Identity, controller string) (ledgerView, uint64, error) {
	if mirror.st.deleted {
		return ledgerView{}, 0, newError(KindDeleted, "GOV-DEL-001", fmt.Sprintf("identity %s is deleted", mirror.id))
	}
	obj, err := r.GetObject(ctx, mirror.id)
	if err != nil {
		return ledgerView{}, 0, readError("identity", mirror.id, err)
	}
	if obj.Type != ledger.TypeIdentity {
		return ledgerView{}, 0, newError(KindClientError, "GOV-CLI-002", fmt.Sprintf("object %s is a %s, not an identity", obj.ID, obj.Type))
	}
	ident, err := schema.DecodeIdentity(obj.Bytes)
	if err != nil {
		return ledgerView{}, 0, wrapError(KindClientError, "GOV-CLI-002", fmt.Sprintf("identity %s", obj.ID), err)
	}
	if ident.Deleted {
		return ledgerView{}, 0, newError(KindDeleted, "GOV-DEL-001", fmt.Sprintf("identity %s is deleted", mirror.id))
	}
	weight, ok := ident.Committee[controller]
	if !ok {
		return ledgerView{}, 0, newError(KindUnauthorized, "GOV-AUTH-002", fmt.Sprintf("%s is not a controller of %s", controller, mirror.id))
	}
	epoch, err := r.GetEpoch(ctx)
	if err != nil {
		return ledgerView{}, 0, readError("epoch of", mirror.id, err)
	}
	return ledgerView{identity: obj, ident: ident, epoch: epoch}, weight, nil
}

// readProposal loads the current proposal object and checks it belongs to
// identityID and has not expired.
func readProposal(ctx context.Context, r ledger.Reader, mirror *Proposal, identityID string, epoch uint64) (ledger.Object, schema.ProposalObject, error) {
	if mirror.st.state == StateExecuted {
		return ledger.Object{}, schema.ProposalObject{}, newError(KindConsumed, "GOV-CON-001", fmt.Sprintf("proposal %s already executed", mirror.id))
	}
	obj, err := r.GetObject(ctx, mirror.id)
	if ledger.IsNotFound(err) {
		return ledger.Object{}, schema.ProposalObject{}, wrapError(KindConsumed, "GOV-CON-002", fmt.Sprintf("proposal %s is not on the ledger", mirror.id), err)
	}
	if err != nil {
		return ledger.Object{}, schema.ProposalObject{}, readError("proposal", mirror.id, err)
	}
	if obj.Type != ledger.TypeProposal {
		return ledger.Object{}, schema.ProposalObject{}, newError(KindClientError, "GOV-CLI-002", fmt.Sprintf("object %s is a %s, not a proposal", obj.ID, obj.Type))
	}
	p, err := schema.DecodeProposal(obj.Bytes)
	if err != nil {
		return ledger.Object{}, schema.ProposalObject{}, wrapError(KindClientError, "GOV-CLI-002", fmt.Sprintf("proposal %s", obj.ID), err)
	}
	if p.Identity != identityID {
		return ledger.Object{}, schema.ProposalObject{}, newError(KindUnauthorized, "GOV-AUTH-003", fmt.Sprintf("proposal %s belongs to identity %s", mirror.id, p.Identity))
	}
	if schema.Expired(p.Expiration, epoch) {
		return ledger.Object{}, schema.ProposalObject{}, newError(KindExpired, "GOV-EXP-001", fmt.Sprintf("proposal %s expired at epoch %d (now %d)", mirror.id, *p.Expiration, epoch))
	}
	return obj, p, nil
}

// checkEffects validates fx against the built transaction. A failed
// execution status maps to the governance kind the ledger reported.
func checkEffects(built *Built, fx *ledger.Effects) error {
	if built == nil {
		return newError(KindClientError, "GOV-CLI-003", "apply called before build")
	}
	if fx == nil {
		return newError(KindClientError, "GOV-EFF-003", "nil effects")
	}
	if fx.TxDigest != built.Digest.String() {
		return newError(KindClientError, "GOV-EFF-002", fmt.Sprintf("effects for %s do not belong to transaction %s", fx.TxDigest, built.Digest))
	}
	if fx.Status.Success {
		return nil
	}
	msg := fmt.Sprintf("ledger aborted %s: %s", built.Op, fx.Status.Message)
	switch fx.Status.Code {
	case ledger.CodeVersionConflict:
		return wrapError(KindVersionConflict, "GOV-VER-001", msg, ledger.ErrVersionConflict)
	case schema.AbortUnauthorized:
		return newError(KindUnauthorized, "GOV-AUTH-004", msg)
	case schema.AbortDuplicateVote:
		return newError(KindDuplicateVote, "GOV-VOTE-001", msg)
	case schema.AbortExpired:
		return newError(KindExpired, "GOV-EXP-001", msg)
	case schema.AbortThresholdNotMet:
		return newError(KindThresholdNotMet, "GOV-THR-001", msg)
	case schema.AbortDeleted:
		return newError(KindDeleted, "GOV-DEL-001", msg)
	case schema.AbortMalformed:
		return newError(KindMalformedAction, "GOV-ACT-001", msg)
	default:
		return newError(KindClientError, "GOV-EFF-001", fmt.Sprintf("%s (code %q)", msg, fx.Status.Code))
	}
}

func missingEffect(what, id string) error {
	return newError(KindClientError, "GOV-EFF-003", fmt.Sprintf("effects missing %s %s", what, id))
}

// takeExecution consumes the identity mutation and action event of an
// executing transaction from work. When proposalID is set the proposal
// deletion is consumed too.
func takeExecution(work *ledger.Effects, identityID, proposalID string) (identityState, error) {
	obj, ok := work.TakeMutated(identityID)
	if !ok {
		return identityState{}, missingEffect("identity mutation", identityID)
	}
	next, err := decodeIdentityState(obj)
	if err != nil {
		return identityState{}, err
	}
	if proposalID != "" {
		if _, ok := work.TakeDeleted(proposalID); !ok {
			return identityState{}, missingEffect("proposal deletion", proposalID)
		}
	}
	work.TakeEvent(schema.EventActionExecuted)
	return next, nil
}

func summarize(fx *ledger.Effects, identityID, proposalID string, act action.Action, next identityState) ExecutionSummary {
	return ExecutionSummary{
		TxDigest:        fx.TxDigest,
		IdentityID:      identityID,
		ProposalID:      proposalID,
		Action:          act.Kind(),
		IdentityVersion: next.version,
		Epoch:           fx.Epoch,
	}
}
