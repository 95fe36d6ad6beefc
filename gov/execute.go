package gov

import (
	"context"
	"fmt"

	"xdao.co/idgov/ledger"
	"xdao.co/idgov/schema"
)

// ExecuteTx applies an approved proposal's action and consumes the proposal.
type ExecuteTx struct {
	proposal *Proposal
	identity *Identity
	token    ControllerToken

	built *Built
}

var _ Transaction[ExecutionSummary] = (*ExecuteTx)(nil)

// Execute returns a transaction executing p. Votes are re-weighed against
// the committee current at build time.
func (p *Proposal) Execute(identity *Identity, token ControllerToken) (*ExecuteTx, error) {
	if err := checkPair(p, identity, token); err != nil {
		return nil, err
	}
	return &ExecuteTx{proposal: p, identity: identity, token: token}, nil
}

func (tx *ExecuteTx) Build(ctx context.Context, r ledger.Reader) (Built, error) {
	return lockedBuild[ExecutionSummary](ctx, tx, r)
}

func (tx *ExecuteTx) Apply(ctx context.Context, fx *ledger.Effects) (ExecutionSummary, error) {
	return lockedApply[ExecutionSummary](ctx, tx, fx)
}

func (tx *ExecuteTx) locks() []rwLock { return []rwLock{tx.identity.lock, tx.proposal.lock} }

func (tx *ExecuteTx) build(ctx context.Context, r ledger.Reader) (Built, error) {
	view, _, err := readIdentity(ctx, r, tx.identity, tx.token.controllerID)
	if err != nil {
		return Built{}, err
	}
	obj, prop, err := readProposal(ctx, r, tx.proposal, tx.identity.id, view.epoch)
	if err != nil {
		return Built{}, err
	}
	votes := schema.Weight(view.ident.Committee, prop.Voters)
	if votes < view.ident.Threshold {
		return Built{}, newError(KindThresholdNotMet, "GOV-THR-001", fmt.Sprintf("proposal %s has %d of %d", tx.proposal.id, votes, view.ident.Threshold))
	}
	built, err := encode(schema.Payload{
		Version:    schema.PayloadVersion,
		Op:         schema.OpExecute,
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

func (tx *ExecuteTx) apply(fx *ledger.Effects) (ExecutionSummary, error) {
	if err := checkEffects(tx.built, fx); err != nil {
		return ExecutionSummary{}, err
	}
	work := fx.Clone()
	p := tx.proposal

	next, err := takeExecution(work, tx.identity.id, p.id)
	if err != nil {
		return ExecutionSummary{}, err
	}
	tx.identity.advance(next)
	p.st.state = StateExecuted
	*fx = *work
	return summarize(fx, tx.identity.id, p.id, p.action, next), nil
}
