package ledger

import "errors"

var (
	ErrNotFound        = errors.New("ledger: object not found")
	ErrVersionConflict = errors.New("ledger: version conflict")
	ErrUnavailable     = errors.New("ledger: unavailable")
	ErrInvalidPayload  = errors.New("ledger: invalid payload")
)

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

func IsVersionConflict(err error) bool { return errors.Is(err, ErrVersionConflict) }
