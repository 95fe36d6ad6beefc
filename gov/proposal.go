package gov

import (
	"context"
	"fmt"

	"xdao.co/idgov/action"
	"xdao.co/idgov/ledger"
	"xdao.co/idgov/schema"
)

// State is a proposal's lifecycle state. Draft proposals have no value; they
// exist only as a CreateTx that has not been applied.
type State uint8

const (
	StatePending State = iota + 1
	StateExecuted
	StateExpired
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateExecuted:
		return "executed"
	case StateExpired:
		return "expired"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// Proposal is the local mirror of a pending governance proposal.
//
// Votes always equals the committee weight of Voters as recorded by the
// ledger at each vote. The action and expiration never change.
type Proposal struct {
	id         string
	identityID string
	action     action.Action
	expiration *uint64
	lock       rwLock

	st proposalState
}

type proposalState struct {
	version uint64
	votes   uint64
	voters  []string
	state   State
}

func newProposal(obj ledger.Object) (*Proposal, error) {
	if obj.Type != ledger.TypeProposal {
		return nil, newError(KindClientError, "GOV-CLI-002", fmt.Sprintf("object %s is a %s, not a proposal", obj.ID, obj.Type))
	}
	p, err := schema.DecodeProposal(obj.Bytes)
	if err != nil {
		return nil, wrapError(KindClientError, "GOV-CLI-002", fmt.Sprintf("proposal %s", obj.ID), err)
	}
	act, err := action.FromRecord(p.Action)
	if err != nil {
		return nil, wrapError(KindMalformedAction, "GOV-ACT-001", fmt.Sprintf("proposal %s", obj.ID), err)
	}
	return &Proposal{
		id:         obj.ID,
		identityID: p.Identity,
		action:     act,
		expiration: p.Expiration,
		lock:       newRWLock(),
		st: proposalState{
			version: obj.Version,
			votes:   p.Votes,
			voters:  p.Voters,
			state:   StatePending,
		},
	}, nil
}

// LoadProposal reads a pending proposal from the ledger. A proposal that has
// already executed no longer exists on the ledger and reports Consumed.
func LoadProposal(ctx context.Context, r ledger.Reader, id string) (*Proposal, error) {
	obj, err := r.GetObject(ctx, id)
	if ledger.IsNotFound(err) {
		return nil, wrapError(KindConsumed, "GOV-CON-002", fmt.Sprintf("proposal %s is not on the ledger", id), err)
	}
	if err != nil {
		return nil, readError("proposal", id, err)
	}
	return newProposal(obj)
}

func (p *Proposal) ID() string         { return p.id }
func (p *Proposal) IdentityID() string { return p.identityID }

// Action returns the proposed action. Action values are immutable.
func (p *Proposal) Action() action.Action { return p.action }

// ExpirationEpoch returns the last epoch at which the proposal accepts
// votes, or false when it never expires.
func (p *Proposal) ExpirationEpoch() (uint64, bool) {
	if p.expiration == nil {
		return 0, false
	}
	return *p.expiration, true
}

func (p *Proposal) Version() uint64 {
	p.lock.rlock()
	defer p.lock.runlock()
	return p.st.version
}

func (p *Proposal) Votes() uint64 {
	p.lock.rlock()
	defer p.lock.runlock()
	return p.st.votes
}

// Voters returns a sorted copy of the controllers that voted.
func (p *Proposal) Voters() []string {
	p.lock.rlock()
	defer p.lock.runlock()
	return append([]string(nil), p.st.voters...)
}

func (p *Proposal) HasVoted(controller string) bool {
	p.lock.rlock()
	defer p.lock.runlock()
	return schema.ProposalObject{Voters: p.st.voters}.HasVoter(controller)
}

// State reports Pending or Executed. Expiry depends on the ledger epoch; use
// StateAt.
func (p *Proposal) State() State {
	p.lock.rlock()
	defer p.lock.runlock()
	return p.st.state
}

// StateAt reports the state as observed at epoch.
func (p *Proposal) StateAt(epoch uint64) State {
	p.lock.rlock()
	defer p.lock.runlock()
	if p.st.state == StatePending && schema.Expired(p.expiration, epoch) {
		return StateExpired
	}
	return p.st.state
}
