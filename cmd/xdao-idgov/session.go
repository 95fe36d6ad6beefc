package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"xdao.co/idgov/config"
	"xdao.co/idgov/gov"
	"xdao.co/idgov/ledger"
	"xdao.co/idgov/logging"
	"xdao.co/idgov/model"
	"xdao.co/idgov/txstore"
)

// commonFlags are registered on every subcommand that talks to the ledger.
type commonFlags struct {
	configPath string
	ledgerAddr string
	retries    uint
}

func (c *commonFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&c.configPath, "config", "", "TOML configuration file")
	fs.StringVar(&c.ledgerAddr, "ledger", "", "Ledger gRPC address (overrides config)")
	fs.UintVar(&c.retries, "retries", 3, "Attempts for retryable failures")
}

// session is an open ledger connection plus the optional journal.
type session struct {
	ledger  ledger.Client
	journal txstore.Store
	runner  *gov.Runner
	retries uint
	log     zerolog.Logger
	closers []func() error
}

// dialLedger is replaced in tests.
var dialLedger = func(cfg config.LedgerConfig) (ledger.Client, func() error, error) {
	c, err := cfg.Dial()
	if err != nil {
		return nil, nil, err
	}
	return c, c.Close, nil
}

func openSession(c commonFlags) (*session, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	if c.ledgerAddr != "" {
		cfg.Ledger.Address = c.ledgerAddr
	}

	log := logging.Configure(logging.ProfileRuntime, "xdao-idgov")
	if lvl, ok := logging.ParseLevel(cfg.Log.Level); ok {
		log = log.Level(lvl)
	}

	s := &session{retries: c.retries, log: log}
	journal, closeJournal, err := cfg.Journal.Open()
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	s.journal = journal
	s.closers = append(s.closers, closeJournal)

	client, closeLedger, err := dialLedger(cfg.Ledger)
	if err != nil {
		_ = s.close()
		return nil, fmt.Errorf("dial ledger %s: %w", cfg.Ledger.Address, err)
	}
	s.ledger = client
	s.closers = append(s.closers, closeLedger)

	s.runner = &gov.Runner{Ledger: client, Journal: journal, Log: log}
	return s, nil
}

func (s *session) close() error {
	var first error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// retry runs op until it succeeds, fails permanently, or the attempts run
// out. Only errors gov.Retryable accepts are retried.
func retry[T any](ctx context.Context, s *session, op func() (T, error)) (T, error) {
	tries := s.retries
	if tries == 0 {
		tries = 1
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	return backoff.Retry(ctx, func() (T, error) {
		v, err := op()
		if err == nil {
			return v, nil
		}
		if !gov.Retryable(err) {
			return v, backoff.Permanent(err)
		}
		s.log.Debug().Err(err).Msg("retrying")
		return v, err
	}, backoff.WithBackOff(b), backoff.WithMaxTries(tries))
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// fail prints err as a coded JSON error and returns the exit status.
func fail(errOut io.Writer, err error) int {
	_ = writeJSON(errOut, model.FromError(err))
	return 1
}
