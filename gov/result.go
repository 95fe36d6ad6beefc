package gov

import "xdao.co/idgov/action"

// ExecutionSummary describes an action that executed on the ledger.
type ExecutionSummary struct {
	TxDigest        string
	IdentityID      string
	ProposalID      string // empty when create executed directly
	Action          action.Kind
	IdentityVersion uint64
	Epoch           uint64
}

// ProposalResult is exactly one of a pending proposal or an execution
// summary. The zero value is neither and is never returned with a nil error.
type ProposalResult struct {
	pending  *Proposal
	executed *ExecutionSummary
}

func pendingResult(p *Proposal) ProposalResult { return ProposalResult{pending: p} }

func executedResult(s ExecutionSummary) ProposalResult { return ProposalResult{executed: &s} }

// Pending returns the proposal when the result is still collecting votes.
func (r ProposalResult) Pending() (*Proposal, bool) {
	return r.pending, r.pending != nil
}

// Executed returns the summary when the action executed.
func (r ProposalResult) Executed() (ExecutionSummary, bool) {
	if r.executed == nil {
		return ExecutionSummary{}, false
	}
	return *r.executed, true
}
