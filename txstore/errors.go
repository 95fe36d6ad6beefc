package txstore

import "errors"

var (
	ErrNotFound    = errors.New("txstore: not found")
	ErrInvalidCID  = errors.New("txstore: invalid cid")
	ErrCIDMismatch = errors.New("txstore: cid mismatch")
	ErrImmutable   = errors.New("txstore: immutable payload mismatch")
)

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
