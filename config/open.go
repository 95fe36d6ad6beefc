package config

import (
	"xdao.co/idgov/ledger/grpcledger"
	"xdao.co/idgov/txstore"
	"xdao.co/idgov/txstore/boltstore"
	"xdao.co/idgov/txstore/localfs"
)

// Dial connects to the configured ledger.
func (l LedgerConfig) Dial() (*grpcledger.Client, error) {
	return grpcledger.Dial(l.Address, grpcledger.DialOptions{
		Timeout:     l.DialTimeout,
		RPCTimeout:  l.RPCTimeout,
		MaxMsgBytes: l.MaxMsgBytes,
	})
}

// Open opens the configured journal. It returns a nil Store for the none
// backend. The returned close function is never nil.
func (j JournalConfig) Open() (txstore.Store, func() error, error) {
	noop := func() error { return nil }
	if err := j.Validate(); err != nil {
		return nil, noop, err
	}

	switch j.Backend {
	case JournalLocalFS:
		s, err := localfs.New(j.Dir)
		if err != nil {
			return nil, noop, err
		}
		return s, noop, nil
	case JournalBolt:
		s, err := boltstore.Open(j.BoltPath)
		if err != nil {
			return nil, noop, err
		}
		return s, s.Close, nil
	case JournalAll:
		fs, err := localfs.New(j.Dir)
		if err != nil {
			return nil, noop, err
		}
		bolt, err := boltstore.Open(j.BoltPath)
		if err != nil {
			return nil, noop, err
		}
		return txstore.Replicating{Backends: []txstore.Named{
			{Name: JournalLocalFS, Store: fs},
			{Name: JournalBolt, Store: bolt},
		}}, bolt.Close, nil
	default:
		return nil, noop, nil
	}
}
