package gov

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ipfs/go-cid"
	"github.com/rs/zerolog"

	"xdao.co/idgov/ledger"
	"xdao.co/idgov/schema"
	"xdao.co/idgov/txstore"
)

// Observer is told the outcome of every attempt Run makes. op is zero when
// the attempt failed before a payload was built.
type Observer interface {
	Observe(op schema.Op, err error, elapsed time.Duration)
}

// Runner submits transactions on the caller's behalf.
type Runner struct {
	Ledger ledger.Client

	// Journal, when set, receives every payload before it is submitted.
	Journal txstore.Store

	Observer Observer
	Log      zerolog.Logger
}

// Run performs one attempt of tx: it takes the exclusive locks of every
// handle tx touches (identity before proposal), then reads ledger state,
// builds, submits and applies before releasing them.
//
// When ctx ends before the effects are applied, local state is untouched
// and ctx's error is returned. Retry policy is the caller's; see Retryable.
func Run[R any](ctx context.Context, rn *Runner, tx Transaction[R]) (R, error) {
	var zero R
	if rn == nil || rn.Ledger == nil {
		return zero, newError(KindClientError, "GOV-CLI-003", "runner has no ledger")
	}
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	start := time.Now()
	var op schema.Op
	res, err := func() (R, error) {
		unlock, err := lockAll(ctx, tx.locks()...)
		if err != nil {
			return zero, err
		}
		defer unlock()

		built, err := tx.build(ctx, rn.Ledger)
		if err != nil {
			return zero, err
		}
		op = built.Op

		if rn.Journal != nil {
			if _, err := rn.Journal.Put(built.Payload); err != nil {
				return zero, wrapError(KindClientError, "GOV-CLI-005", "journal payload", err)
			}
		}

		fx, err := rn.Ledger.Submit(ctx, built.Payload)
		if err != nil {
			return zero, submitError(built, err)
		}
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		return tx.apply(fx)
	}()

	elapsed := time.Since(start)
	if rn.Observer != nil {
		rn.Observer.Observe(op, err, elapsed)
	}
	ev := rn.Log.Debug()
	if err != nil {
		ev = rn.Log.Warn().Err(err).Str("kind", string(KindOf(err))).Str("rule", RuleID(err))
	}
	ev.Stringer("op", op).Dur("elapsed", elapsed).Msg("governance transaction")
	return res, err
}

// Resubmit replays a journaled payload and returns the ledger's effects.
// Ledgers report the original effects for a payload that already executed.
func (rn *Runner) Resubmit(ctx context.Context, digest cid.Cid) (*ledger.Effects, error) {
	if rn.Journal == nil {
		return nil, newError(KindClientError, "GOV-CLI-003", "runner has no journal")
	}
	payload, err := rn.Journal.Get(digest)
	if err != nil {
		return nil, wrapError(KindClientError, "GOV-CLI-005", fmt.Sprintf("journal entry %s", digest), err)
	}
	fx, err := rn.Ledger.Submit(ctx, payload)
	if err != nil {
		return nil, submitError(Built{Digest: digest}, err)
	}
	rn.Log.Info().Str("tx", fx.TxDigest).Bool("success", fx.Status.Success).Msg("resubmitted")
	return fx, nil
}

func submitError(built Built, err error) error {
	if ctxErr := contextError(err); ctxErr != nil {
		return ctxErr
	}
	if ledger.IsVersionConflict(err) {
		return wrapError(KindVersionConflict, "GOV-VER-001", fmt.Sprintf("submit %s", built.Digest), err)
	}
	return wrapError(KindClientError, "GOV-CLI-004", fmt.Sprintf("submit %s", built.Digest), err)
}

// contextError returns err when it reports a cancelled or expired context.
func contextError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}
