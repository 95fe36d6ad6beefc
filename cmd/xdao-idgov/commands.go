package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/ipfs/go-cid"
	"github.com/spf13/pflag"

	"xdao.co/idgov/action"
	"xdao.co/idgov/gov"
	"xdao.co/idgov/model"
	"xdao.co/idgov/schema"
	"xdao.co/idgov/txstore"
)

func newFlagSet(name string, errOut io.Writer) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(errOut)
	return fs
}

func cmdIdentity(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 || args[0] != "show" {
		fmt.Fprintln(errOut, "usage: xdao-idgov identity show --id <identity>")
		return 2
	}
	fs := newFlagSet("identity show", errOut)
	var common commonFlags
	common.register(fs)
	id := fs.String("id", "", "Identity object ID")
	if err := fs.Parse(args[1:]); err != nil {
		return 2
	}
	if *id == "" {
		fmt.Fprintln(errOut, "usage: xdao-idgov identity show --id <identity>")
		return 2
	}

	s, err := openSession(common)
	if err != nil {
		return fail(errOut, err)
	}
	defer s.close()

	ctx := context.Background()
	identity, err := retry(ctx, s, func() (*gov.Identity, error) {
		return gov.LoadIdentity(ctx, s.ledger, *id)
	})
	if err != nil {
		return fail(errOut, err)
	}
	if err := writeJSON(out, model.FromIdentity(identity.Snapshot())); err != nil {
		return fail(errOut, err)
	}
	return 0
}

func cmdProposal(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 || args[0] != "show" {
		fmt.Fprintln(errOut, "usage: xdao-idgov proposal show --id <proposal>")
		return 2
	}
	fs := newFlagSet("proposal show", errOut)
	var common commonFlags
	common.register(fs)
	id := fs.String("id", "", "Proposal object ID")
	if err := fs.Parse(args[1:]); err != nil {
		return 2
	}
	if *id == "" {
		fmt.Fprintln(errOut, "usage: xdao-idgov proposal show --id <proposal>")
		return 2
	}

	s, err := openSession(common)
	if err != nil {
		return fail(errOut, err)
	}
	defer s.close()

	ctx := context.Background()
	p, err := retry(ctx, s, func() (*gov.Proposal, error) {
		return gov.LoadProposal(ctx, s.ledger, *id)
	})
	if err != nil {
		return fail(errOut, err)
	}
	v := model.FromProposal(p)
	if epoch, err := s.ledger.GetEpoch(ctx); err == nil {
		v.State = p.StateAt(epoch).String()
	}
	if err := writeJSON(out, v); err != nil {
		return fail(errOut, err)
	}
	return 0
}

func cmdPropose(args []string, out io.Writer, errOut io.Writer) int {
	const usage = "usage: xdao-idgov propose update|deactivate|delete --identity <id> --controller <c> [--doc <file>] [--expires <epoch>]"
	if len(args) == 0 {
		fmt.Fprintln(errOut, usage)
		return 2
	}
	kind := args[0]
	fs := newFlagSet("propose "+kind, errOut)
	var common commonFlags
	common.register(fs)
	identityID := fs.String("identity", "", "Identity object ID")
	controller := fs.String("controller", "", "Proposing controller")
	docPath := fs.String("doc", "", "Packed DID document (update only)")
	expires := fs.Uint64("expires", 0, "Last epoch at which the proposal may pass")
	if err := fs.Parse(args[1:]); err != nil {
		return 2
	}
	if *identityID == "" || *controller == "" {
		fmt.Fprintln(errOut, usage)
		return 2
	}

	var act action.Action
	switch kind {
	case "update":
		if *docPath == "" {
			fmt.Fprintln(errOut, "propose update requires --doc")
			return 2
		}
		b, err := os.ReadFile(*docPath)
		if err != nil {
			fmt.Fprintf(errOut, "read --doc: %v\n", err)
			return 1
		}
		u, err := action.NewUpdate(b)
		if err != nil {
			return fail(errOut, err)
		}
		act = u
	case "deactivate":
		act = action.Deactivate{}
	case "delete":
		act = action.Delete{}
	default:
		fmt.Fprintf(errOut, "unknown action: %s\n", kind)
		return 2
	}
	var expiration *uint64
	if fs.Changed("expires") {
		expiration = expires
	}

	token, err := gov.NewControllerToken(*identityID, *controller)
	if err != nil {
		return fail(errOut, err)
	}
	s, err := openSession(common)
	if err != nil {
		return fail(errOut, err)
	}
	defer s.close()

	// One nonce for every attempt: a retry after an ambiguous submit failure
	// replays the same create instead of proposing twice.
	nonce, err := schema.NewNonce()
	if err != nil {
		return fail(errOut, err)
	}
	ctx := context.Background()
	res, err := retry(ctx, s, func() (gov.ProposalResult, error) {
		identity, err := gov.LoadIdentity(ctx, s.ledger, *identityID)
		if err != nil {
			return gov.ProposalResult{}, err
		}
		tx, err := gov.CreateProposal(identity, token, act, expiration, gov.WithNonce(nonce))
		if err != nil {
			return gov.ProposalResult{}, err
		}
		return gov.Run[gov.ProposalResult](ctx, s.runner, tx)
	})
	if err != nil {
		return fail(errOut, err)
	}
	if err := writeJSON(out, model.FromResult(res)); err != nil {
		return fail(errOut, err)
	}
	return 0
}

// voteFlags parses the flags approve and execute share.
func voteFlags(name string, args []string, errOut io.Writer) (commonFlags, string, string, bool) {
	fs := newFlagSet(name, errOut)
	var common commonFlags
	common.register(fs)
	proposalID := fs.String("proposal", "", "Proposal object ID")
	controller := fs.String("controller", "", "Acting controller")
	if err := fs.Parse(args); err != nil {
		return common, "", "", false
	}
	if *proposalID == "" || *controller == "" {
		fmt.Fprintf(errOut, "usage: xdao-idgov %s --proposal <id> --controller <c>\n", name)
		return common, "", "", false
	}
	return common, *proposalID, *controller, true
}

// loadPair loads a proposal, its identity, and a token for controller.
func loadPair(ctx context.Context, s *session, proposalID, controller string) (*gov.Proposal, *gov.Identity, gov.ControllerToken, error) {
	p, err := gov.LoadProposal(ctx, s.ledger, proposalID)
	if err != nil {
		return nil, nil, gov.ControllerToken{}, err
	}
	identity, err := gov.LoadIdentity(ctx, s.ledger, p.IdentityID())
	if err != nil {
		return nil, nil, gov.ControllerToken{}, err
	}
	token, err := gov.NewControllerToken(identity.ID(), controller)
	return p, identity, token, err
}

func cmdApprove(args []string, out io.Writer, errOut io.Writer) int {
	common, proposalID, controller, ok := voteFlags("approve", args, errOut)
	if !ok {
		return 2
	}
	s, err := openSession(common)
	if err != nil {
		return fail(errOut, err)
	}
	defer s.close()

	ctx := context.Background()
	res, err := retry(ctx, s, func() (gov.ProposalResult, error) {
		p, identity, token, err := loadPair(ctx, s, proposalID, controller)
		if err != nil {
			return gov.ProposalResult{}, err
		}
		tx, err := p.Approve(identity, token)
		if err != nil {
			return gov.ProposalResult{}, err
		}
		return gov.Run[gov.ProposalResult](ctx, s.runner, tx)
	})
	if err != nil {
		return fail(errOut, err)
	}
	if err := writeJSON(out, model.FromResult(res)); err != nil {
		return fail(errOut, err)
	}
	return 0
}

func cmdExecute(args []string, out io.Writer, errOut io.Writer) int {
	common, proposalID, controller, ok := voteFlags("execute", args, errOut)
	if !ok {
		return 2
	}
	s, err := openSession(common)
	if err != nil {
		return fail(errOut, err)
	}
	defer s.close()

	ctx := context.Background()
	sum, err := retry(ctx, s, func() (gov.ExecutionSummary, error) {
		p, identity, token, err := loadPair(ctx, s, proposalID, controller)
		if err != nil {
			return gov.ExecutionSummary{}, err
		}
		tx, err := p.Execute(identity, token)
		if err != nil {
			return gov.ExecutionSummary{}, err
		}
		return gov.Run[gov.ExecutionSummary](ctx, s.runner, tx)
	})
	if err != nil {
		return fail(errOut, err)
	}
	if err := writeJSON(out, model.FromExecution(sum)); err != nil {
		return fail(errOut, err)
	}
	return 0
}

func cmdTx(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) != 2 || args[0] != "decode" {
		fmt.Fprintln(errOut, "usage: xdao-idgov tx decode <payload-file>")
		return 2
	}
	b, err := os.ReadFile(args[1])
	if err != nil {
		fmt.Fprintf(errOut, "read payload: %v\n", err)
		return 1
	}
	v, err := model.FromPayload(b)
	if err != nil {
		return fail(errOut, err)
	}
	if err := writeJSON(out, v); err != nil {
		return fail(errOut, err)
	}
	return 0
}

func cmdJournal(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(errOut, "usage: xdao-idgov journal <subcommand> ...")
		fmt.Fprintln(errOut, "subcommands: list, resubmit")
		return 2
	}
	sub := args[0]
	fs := newFlagSet("journal "+sub, errOut)
	var common commonFlags
	common.register(fs)
	if err := fs.Parse(args[1:]); err != nil {
		return 2
	}

	switch sub {
	case "list":
		if fs.NArg() != 0 {
			fmt.Fprintln(errOut, "usage: xdao-idgov journal list")
			return 2
		}
	case "resubmit":
		if fs.NArg() != 1 {
			fmt.Fprintln(errOut, "usage: xdao-idgov journal resubmit <tx-cid>")
			return 2
		}
	default:
		fmt.Fprintf(errOut, "unknown journal subcommand: %s\n", sub)
		return 2
	}

	s, err := openSession(common)
	if err != nil {
		return fail(errOut, err)
	}
	defer s.close()
	if s.journal == nil {
		fmt.Fprintln(errOut, "journal is disabled (set journal.backend)")
		return 1
	}

	if sub == "list" {
		lister, ok := s.journal.(txstore.Lister)
		if !ok {
			fmt.Fprintln(errOut, "journal backend cannot list")
			return 1
		}
		ids, err := lister.List()
		if err != nil {
			return fail(errOut, err)
		}
		for _, id := range ids {
			_, _ = fmt.Fprintln(out, id)
		}
		return 0
	}

	digest, err := cid.Decode(fs.Arg(0))
	if err != nil {
		return fail(errOut, model.NewError(model.ErrInvalidRequest, fmt.Sprintf("invalid tx cid: %v", err)))
	}
	ctx := context.Background()
	fx, err := s.runner.Resubmit(ctx, digest)
	if err != nil {
		return fail(errOut, err)
	}
	if err := writeJSON(out, model.FromEffects(fx)); err != nil {
		return fail(errOut, err)
	}
	return 0
}
