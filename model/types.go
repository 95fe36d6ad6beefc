package model

import (
	"encoding/hex"
	"sort"

	"xdao.co/idgov/action"
	"xdao.co/idgov/cidutil"
	"xdao.co/idgov/gov"
	"xdao.co/idgov/ledger"
	"xdao.co/idgov/schema"
)

// CommitteeMember is one weighted controller.
type CommitteeMember struct {
	Controller string `json:"controller"`
	Weight     uint64 `json:"weight"`
}

// IdentityView is the JSON projection of an identity mirror.
//
// JSON note: Document is encoded as base64 by encoding/json.
type IdentityView struct {
	ID         string            `json:"id"`
	Version    uint64            `json:"version"`
	Committee  []CommitteeMember `json:"committee"`
	Threshold  uint64            `json:"threshold"`
	Document   []byte            `json:"document,omitempty"`
	DocumentID string            `json:"documentID,omitempty"`
	Deleted    bool              `json:"deleted"`
}

type ActionView struct {
	Kind           string `json:"kind"`
	IsDeactivation bool   `json:"isDeactivation"`
	Document       []byte `json:"document,omitempty"`
}

type ProposalView struct {
	ID              string     `json:"id"`
	IdentityID      string     `json:"identityID"`
	Version         uint64     `json:"version"`
	Action          ActionView `json:"action"`
	ExpirationEpoch *uint64    `json:"expirationEpoch,omitempty"`
	Votes           uint64     `json:"votes"`
	Voters          []string   `json:"voters"`
	State           string     `json:"state"`
}

type ExecutionView struct {
	TxDigest        string `json:"txDigest"`
	IdentityID      string `json:"identityID"`
	ProposalID      string `json:"proposalID,omitempty"`
	Action          string `json:"action"`
	IdentityVersion uint64 `json:"identityVersion"`
	Epoch           uint64 `json:"epoch"`
}

// ResultView mirrors gov.ProposalResult: exactly one field is set.
type ResultView struct {
	Pending  *ProposalView  `json:"pending,omitempty"`
	Executed *ExecutionView `json:"executed,omitempty"`
}

type ObjectRefView struct {
	ID      string `json:"id"`
	Version uint64 `json:"version"`
}

// TxView describes a canonical transaction payload.
type TxView struct {
	Digest          string         `json:"digest"`
	SchemaVersion   uint8          `json:"schemaVersion"`
	Op              string         `json:"op"`
	Identity        ObjectRefView  `json:"identity"`
	Proposal        *ObjectRefView `json:"proposal,omitempty"`
	Controller      string         `json:"controller"`
	Action          *ActionView    `json:"action,omitempty"`
	ExpirationEpoch *uint64        `json:"expirationEpoch,omitempty"`
	Nonce           string         `json:"nonce,omitempty"`
}

func FromIdentity(s gov.IdentitySnapshot) IdentityView {
	v := IdentityView{
		ID:        s.ID,
		Version:   s.Version,
		Committee: make([]CommitteeMember, 0, len(s.Committee)),
		Threshold: s.Threshold,
		Document:  s.Document,
		Deleted:   s.Deleted,
	}
	for c, w := range s.Committee {
		v.Committee = append(v.Committee, CommitteeMember{Controller: c, Weight: w})
	}
	sort.Slice(v.Committee, func(i, j int) bool { return v.Committee[i].Controller < v.Committee[j].Controller })
	if len(s.Document) > 0 {
		if u, err := action.NewUpdate(s.Document); err == nil {
			if doc, err := action.Document(u); err == nil && doc != nil {
				v.DocumentID = doc.ID
			}
		}
	}
	return v
}

func FromAction(a action.Action) ActionView {
	v := ActionView{Kind: string(a.Kind()), IsDeactivation: action.IsDeactivation(a)}
	if u, ok := a.(action.Update); ok {
		v.Document = u.Bytes()
	}
	return v
}

func FromProposal(p *gov.Proposal) ProposalView {
	v := ProposalView{
		ID:         p.ID(),
		IdentityID: p.IdentityID(),
		Version:    p.Version(),
		Action:     FromAction(p.Action()),
		Votes:      p.Votes(),
		Voters:     p.Voters(),
		State:      p.State().String(),
	}
	if exp, ok := p.ExpirationEpoch(); ok {
		v.ExpirationEpoch = &exp
	}
	return v
}

func FromExecution(s gov.ExecutionSummary) ExecutionView {
	return ExecutionView{
		TxDigest:        s.TxDigest,
		IdentityID:      s.IdentityID,
		ProposalID:      s.ProposalID,
		Action:          string(s.Action),
		IdentityVersion: s.IdentityVersion,
		Epoch:           s.Epoch,
	}
}

func FromResult(r gov.ProposalResult) ResultView {
	if p, ok := r.Pending(); ok {
		v := FromProposal(p)
		return ResultView{Pending: &v}
	}
	if s, ok := r.Executed(); ok {
		v := FromExecution(s)
		return ResultView{Executed: &v}
	}
	return ResultView{}
}

// FromPayload decodes canonical payload bytes into a TxView.
func FromPayload(b []byte) (TxView, error) {
	p, err := schema.DecodePayload(b)
	if err != nil {
		return TxView{}, NewError(ErrInvalidRequest, err.Error())
	}
	v := TxView{
		Digest:          cidutil.DigestString(b),
		SchemaVersion:   p.Version,
		Op:              p.Op.String(),
		Identity:        ObjectRefView{ID: p.Identity.ID, Version: p.Identity.Version},
		Controller:      p.Controller,
		ExpirationEpoch: p.Expiration,
		Nonce:           hex.EncodeToString(p.Nonce),
	}
	if p.Proposal != nil {
		v.Proposal = &ObjectRefView{ID: p.Proposal.ID, Version: p.Proposal.Version}
	}
	if p.Action != nil {
		a, err := action.FromRecord(*p.Action)
		if err != nil {
			return TxView{}, NewError(ErrMalformedAction, err.Error())
		}
		av := FromAction(a)
		v.Action = &av
	}
	return v, nil
}

// EffectsView summarizes ledger effects.
type EffectsView struct {
	TxDigest string   `json:"txDigest"`
	Success  bool     `json:"success"`
	Code     string   `json:"code,omitempty"`
	Message  string   `json:"message,omitempty"`
	Epoch    uint64   `json:"epoch"`
	Created  []string `json:"created,omitempty"`
	Mutated  []string `json:"mutated,omitempty"`
	Deleted  []string `json:"deleted,omitempty"`
	Events   []string `json:"events,omitempty"`
}

func FromEffects(fx *ledger.Effects) EffectsView {
	v := EffectsView{
		TxDigest: fx.TxDigest,
		Success:  fx.Status.Success,
		Code:     fx.Status.Code,
		Message:  fx.Status.Message,
		Epoch:    fx.Epoch,
	}
	for _, o := range fx.Created {
		v.Created = append(v.Created, o.ID)
	}
	for _, o := range fx.Mutated {
		v.Mutated = append(v.Mutated, o.ID)
	}
	for _, r := range fx.Deleted {
		v.Deleted = append(v.Deleted, r.ID)
	}
	for _, e := range fx.Events {
		v.Events = append(v.Events, e.Type)
	}
	return v
}
