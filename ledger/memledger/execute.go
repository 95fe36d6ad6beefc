package memledger

import (
	"fmt"

	"github.com/ipfs/go-cid"

	"xdao.co/idgov/action"
	"xdao.co/idgov/cidutil"
	"xdao.co/idgov/ledger"
	"xdao.co/idgov/schema"
)

type abort struct {
	code string
	msg  string
}

func abortf(code, format string, args ...any) *abort {
	return &abort{code: code, msg: fmt.Sprintf(format, args...)}
}

// staged collects the writes of one transaction. Nothing reaches the ledger
// unless run returns nil.
type staged struct {
	ledger  *Ledger
	created []ledger.Object
	mutated []ledger.Object
	deleted []ledger.ObjectRef
	events  []ledger.Event
}

func (s *staged) run(p schema.Payload, digest cid.Cid) *abort {
	l := s.ledger

	idObj, ok := l.objects[p.Identity.ID]
	if !ok || idObj.Type != ledger.TypeIdentity {
		return abortf(ledger.CodeObjectNotFound, "identity %s not found", p.Identity.ID)
	}
	if idObj.Version != p.Identity.Version {
		return abortf(ledger.CodeVersionConflict, "identity %s at version %d, payload read %d", p.Identity.ID, idObj.Version, p.Identity.Version)
	}
	ident, err := schema.DecodeIdentity(idObj.Bytes)
	if err != nil {
		return abortf(schema.AbortMalformed, "identity %s: %v", p.Identity.ID, err)
	}
	if ident.Deleted {
		return abortf(schema.AbortDeleted, "identity %s is deleted", p.Identity.ID)
	}
	weight, member := ident.Committee[p.Controller]
	if !member {
		return abortf(schema.AbortUnauthorized, "%s is not a controller of %s", p.Controller, p.Identity.ID)
	}

	switch p.Op {
	case schema.OpCreate, schema.OpCreateExecute:
		act, err := action.FromRecord(*p.Action)
		if err != nil {
			return abortf(schema.AbortMalformed, "%v", err)
		}
		if schema.Expired(p.Expiration, l.epoch) {
			return abortf(schema.AbortExpired, "expiration %d already passed at epoch %d", *p.Expiration, l.epoch)
		}
		if p.Op == schema.OpCreateExecute {
			if weight < ident.Threshold {
				return abortf(schema.AbortThresholdNotMet, "weight %d below threshold %d", weight, ident.Threshold)
			}
			return s.executeAction(idObj, ident, act, "")
		}
		prop := schema.ProposalObject{
			Identity:   p.Identity.ID,
			Action:     *p.Action,
			Expiration: p.Expiration,
			Votes:      weight,
			Voters:     []string{p.Controller},
		}
		b, err := schema.EncodeProposal(prop)
		if err != nil {
			return abortf(schema.AbortMalformed, "%v", err)
		}
		id, err := cidutil.DeriveObjectID(digest, 0)
		if err != nil {
			return abortf(schema.AbortMalformed, "%v", err)
		}
		s.created = append(s.created, ledger.Object{ID: id.String(), Version: 1, Type: ledger.TypeProposal, Bytes: b})
		s.events = append(s.events, ledger.Event{Type: schema.EventProposalCreated, Data: []byte(id.String())})
		return nil

	case schema.OpApprove, schema.OpApproveExecute, schema.OpExecute:
		propObj, ok := l.objects[p.Proposal.ID]
		if !ok || propObj.Type != ledger.TypeProposal {
			return abortf(ledger.CodeObjectNotFound, "proposal %s not found", p.Proposal.ID)
		}
		if propObj.Version != p.Proposal.Version {
			return abortf(ledger.CodeVersionConflict, "proposal %s at version %d, payload read %d", p.Proposal.ID, propObj.Version, p.Proposal.Version)
		}
		prop, err := schema.DecodeProposal(propObj.Bytes)
		if err != nil {
			return abortf(schema.AbortMalformed, "proposal %s: %v", p.Proposal.ID, err)
		}
		if prop.Identity != p.Identity.ID {
			return abortf(schema.AbortUnauthorized, "proposal %s belongs to %s", p.Proposal.ID, prop.Identity)
		}
		if schema.Expired(prop.Expiration, l.epoch) {
			return abortf(schema.AbortExpired, "proposal %s expired at epoch %d", p.Proposal.ID, *prop.Expiration)
		}

		voters := prop.Voters
		if p.Op != schema.OpExecute {
			if prop.HasVoter(p.Controller) {
				return abortf(schema.AbortDuplicateVote, "%s already voted on %s", p.Controller, p.Proposal.ID)
			}
			voters = schema.WithVoter(voters, p.Controller)
		}
		votes := schema.Weight(ident.Committee, voters)

		if p.Op == schema.OpApprove {
			prop.Voters = voters
			prop.Votes = votes
			b, err := schema.EncodeProposal(prop)
			if err != nil {
				return abortf(schema.AbortMalformed, "%v", err)
			}
			s.mutated = append(s.mutated, ledger.Object{ID: propObj.ID, Version: propObj.Version + 1, Type: ledger.TypeProposal, Bytes: b})
			s.events = append(s.events, ledger.Event{Type: schema.EventProposalApproved, Data: []byte(p.Controller)})
			return nil
		}

		if votes < ident.Threshold {
			return abortf(schema.AbortThresholdNotMet, "votes %d below threshold %d", votes, ident.Threshold)
		}
		act, err := action.FromRecord(prop.Action)
		if err != nil {
			return abortf(schema.AbortMalformed, "%v", err)
		}
		if ab := s.executeAction(idObj, ident, act, propObj.ID); ab != nil {
			return ab
		}
		s.deleted = append(s.deleted, ledger.ObjectRef{ID: propObj.ID, Version: propObj.Version + 1})
		return nil

	default:
		return abortf(schema.AbortMalformed, "unknown op %d", uint8(p.Op))
	}
}

func (s *staged) executeAction(idObj ledger.Object, ident schema.IdentityObject, act action.Action, proposalID string) *abort {
	switch a := act.(type) {
	case action.Update:
		ident.Document = a.Bytes()
	case action.Deactivate:
		ident.Document = nil
	case action.Delete:
		ident.Document = nil
		ident.Deleted = true
	default:
		return abortf(schema.AbortMalformed, "unknown action %T", act)
	}
	b, err := schema.EncodeIdentity(ident)
	if err != nil {
		return abortf(schema.AbortMalformed, "%v", err)
	}
	s.mutated = append(s.mutated, ledger.Object{ID: idObj.ID, Version: idObj.Version + 1, Type: ledger.TypeIdentity, Bytes: b})
	s.events = append(s.events, ledger.Event{Type: schema.EventActionExecuted, Data: []byte(string(act.Kind()) + ":" + proposalID)})
	return nil
}
