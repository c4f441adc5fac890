package export

import "errors"

var (
	// ErrStoreUnavailable wraps connection and query failures of a Store.
	ErrStoreUnavailable = errors.New("export store unavailable")
	// ErrDuplicateRecord is returned by Store.Insert when the day already has a record.
	ErrDuplicateRecord = errors.New("export already recorded for this day")
	// ErrMalformedPayload marks an interactive callback that could not be decoded.
	ErrMalformedPayload = errors.New("malformed interaction payload")
)
