package reconcile

import (
	"errors"
	"fmt"
)

// ErrMalformedRecord is matched by every *MalformedRecordError.
var ErrMalformedRecord = errors.New("malformed record")

const (
	// ReasonMissingIdentifier is reported when the identifier field is absent, null or blank.
	ReasonMissingIdentifier = "missing identifier"
	// ReasonDuplicateIdentifier is reported when an identifier repeats inside one snapshot.
	ReasonDuplicateIdentifier = "duplicate identifier"
)

// MalformedRecordError reports the first record that failed snapshot validation.
type MalformedRecordError struct {
	// Side is the snapshot holding the record.
	Side Side
	// Index is the position of the record in its snapshot.
	Index int
	// Identifier is the repeated identifier; empty when it was missing.
	Identifier string
	// Reason is one of the Reason* constants.
	Reason string
}

func (e *MalformedRecordError) Error() string {
	if e.Identifier != "" {
		return fmt.Sprintf("%s snapshot record %d: %s %q", e.Side, e.Index, e.Reason, e.Identifier)
	}
	return fmt.Sprintf("%s snapshot record %d: %s", e.Side, e.Index, e.Reason)
}

func (e *MalformedRecordError) Unwrap() error {
	return ErrMalformedRecord
}
