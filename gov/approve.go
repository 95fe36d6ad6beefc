package gov

import (
	"context"
	"fmt"

	"xdao.co/idgov/ledger"
	"xdao.co/idgov/schema"
)

// ApproveTx records one controller's vote. When the vote brings the proposal
// to its threshold the action executes in the same transaction.
type ApproveTx struct {
	proposal *Proposal
	identity *Identity
	token    ControllerToken

	built *Built
}

var _ Transaction[ProposalResult] = (*ApproveTx)(nil)

// Approve returns a transaction voting for p as token's controller.
func (p *Proposal) Approve(identity *Identity, token ControllerToken) (*ApproveTx, error) {
	if err := checkPair(p, identity, token); err != nil {
		return nil, err
	}
	return &ApproveTx{proposal: p, identity: identity, token: token}, nil
}

func checkPair(p *Proposal, identity *Identity, token ControllerToken) error {
	if p == nil || identity == nil {
		return newError(KindClientError, "GOV-CLI-003", "nil proposal or identity")
	}
	if err := token.authorize(identity.id); err != nil {
		return err
	}
	if p.identityID != identity.id {
		return newError(KindUnauthorized, "GOV-AUTH-003", fmt.Sprintf("proposal %s belongs to identity %s", p.id, p.identityID))
	}
	return nil
}

func (tx *ApproveTx) Build(ctx context.Context, r ledger.Reader) (Built, error) {
	return lockedBuild[ProposalResult](ctx, tx, r)
}

func (tx *ApproveTx) Apply(ctx context.Context, fx *ledger.Effects) (ProposalResult, error) {
	return lockedApply[ProposalResult](ctx, tx, fx)
}

func (tx *ApproveTx) locks() []rwLock { return []rwLock{tx.identity.lock, tx.proposal.lock} }

func (tx *ApproveTx) build(ctx context.Context, r ledger.Reader) (Built, error) {
	view, _, err := readIdentity(ctx, r, tx.identity, tx.token.controllerID)
	if err != nil {
		return Built{}, err
	}
	obj, prop, err := readProposal(ctx, r, tx.proposal, tx.identity.id, view.epoch)
	if err != nil {
		return Built{}, err
	}
	if prop.HasVoter(tx.token.controllerID) {
		return Built{}, newError(KindDuplicateVote, "GOV-VOTE-001", fmt.Sprintf("%s already voted on %s", tx.token.controllerID, tx.proposal.id))
	}

	votes := schema.Weight(view.ident.Committee, schema.WithVoter(prop.Voters, tx.token.controllerID))
	op := schema.OpApprove
	if votes >= view.ident.Threshold {
		op = schema.OpApproveExecute
	}
	built, err := encode(schema.Payload{
		Version:    schema.PayloadVersion,
		Op:         op,
		Identity:   ledger.ObjectRef{ID: view.identity.ID, Version: view.identity.Version},
		Proposal:   &ledger.ObjectRef{ID: obj.ID, Version: obj.Version},
		Controller: tx.token.controllerID,
	})
	if err != nil {
		return Built{}, err
	}
	tx.built = &built
	return built, nil
}

func (tx *ApproveTx) apply(fx *ledger.Effects) (ProposalResult, error) {
	if err := checkEffects(tx.built, fx); err != nil {
		return ProposalResult{}, err
	}
	work := fx.Clone()
	p := tx.proposal

	switch tx.built.Op {
	case schema.OpApprove:
		obj, ok := work.TakeMutated(p.id)
		if !ok {
			return ProposalResult{}, missingEffect("proposal mutation", p.id)
		}
		next, err := newProposal(obj)
		if err != nil {
			return ProposalResult{}, err
		}
		if next.identityID != p.identityID {
			return ProposalResult{}, newError(KindClientError, "GOV-EFF-003", fmt.Sprintf("proposal %s changed identity", p.id))
		}
		work.TakeEvent(schema.EventProposalApproved)
		if next.st.version > p.st.version {
			p.st = next.st
		}
		*fx = *work
		return pendingResult(p), nil

	case schema.OpApproveExecute:
		next, err := takeExecution(work, tx.identity.id, p.id)
		if err != nil {
			return ProposalResult{}, err
		}
		tx.identity.advance(next)
		p.st.state = StateExecuted
		*fx = *work
		return executedResult(summarize(fx, tx.identity.id, p.id, p.action, next)), nil

	default:
		return ProposalResult{}, newError(KindClientError, "GOV-CLI-003", fmt.Sprintf("approve cannot apply %s", tx.built.Op))
	}
}
