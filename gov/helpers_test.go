package gov

import (
	"context"
	"testing"

	"xdao.co/idgov/action"
	"xdao.co/idgov/didoc"
	"xdao.co/idgov/ledger/memledger"
	"xdao.co/idgov/schema"
)

type fixture struct {
	t      *testing.T
	ledger *memledger.Ledger
	ident  *Identity
	runner *Runner
}

func newFixture(t *testing.T, committee map[string]uint64, threshold uint64) *fixture {
	t.Helper()
	l := memledger.New()
	id, err := l.PublishIdentity(schema.IdentityObject{Committee: committee, Threshold: threshold})
	if err != nil {
		t.Fatalf("PublishIdentity: %v", err)
	}
	ident, err := LoadIdentity(context.Background(), l, id)
	if err != nil {
		t.Fatalf("LoadIdentity: %v", err)
	}
	return &fixture{t: t, ledger: l, ident: ident, runner: &Runner{Ledger: l}}
}

func (f *fixture) token(controller string) ControllerToken {
	f.t.Helper()
	tok, err := NewControllerToken(f.ident.ID(), controller)
	if err != nil {
		f.t.Fatalf("NewControllerToken: %v", err)
	}
	return tok
}

func (f *fixture) create(controller string, act action.Action, expiration *uint64) (ProposalResult, error) {
	f.t.Helper()
	tx, err := CreateProposal(f.ident, f.token(controller), act, expiration)
	if err != nil {
		return ProposalResult{}, err
	}
	return Run[ProposalResult](context.Background(), f.runner, tx)
}

func (f *fixture) mustPending(controller string, act action.Action, expiration *uint64) *Proposal {
	f.t.Helper()
	res, err := f.create(controller, act, expiration)
	if err != nil {
		f.t.Fatalf("create by %s: %v", controller, err)
	}
	p, ok := res.Pending()
	if !ok {
		f.t.Fatalf("create by %s: want pending result", controller)
	}
	return p
}

func (f *fixture) approve(p *Proposal, controller string) (ProposalResult, error) {
	f.t.Helper()
	tx, err := p.Approve(f.ident, f.token(controller))
	if err != nil {
		return ProposalResult{}, err
	}
	return Run[ProposalResult](context.Background(), f.runner, tx)
}

func (f *fixture) execute(p *Proposal, controller string) (ExecutionSummary, error) {
	f.t.Helper()
	tx, err := p.Execute(f.ident, f.token(controller))
	if err != nil {
		return ExecutionSummary{}, err
	}
	return Run[ExecutionSummary](context.Background(), f.runner, tx)
}

func updateOf(t *testing.T, name string) action.Update {
	t.Helper()
	u, err := action.NewUpdateFromDocument(didoc.Document{ID: "did:xdao:" + name}, didoc.Metadata{})
	if err != nil {
		t.Fatalf("NewUpdateFromDocument: %v", err)
	}
	return u
}

func epoch(v uint64) *uint64 { return &v }

func wantKind(t *testing.T, err error, kind Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("want %s error, got nil", kind)
	}
	if !IsKind(err, kind) {
		t.Fatalf("want %s error, got %v (kind %q rule %q)", kind, err, KindOf(err), RuleID(err))
	}
}

func committee3() map[string]uint64 {
	return map[string]uint64{"A": 1, "B": 1, "C": 1}
}
