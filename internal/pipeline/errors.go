package pipeline

import "errors"

// File-fatal errors. These abort the whole import; no transactions are
// added. Everything else in the pipeline degrades per stage instead of
// failing.
var (
	// ErrEmptyFile is returned when the input has no content at all.
	ErrEmptyFile = errors.New("empty file")

	// ErrUnmappableColumns is returned when neither the deterministic pass
	// nor the AI fallback could produce a valid column mapping.
	ErrUnmappableColumns = errors.New("could not identify date/amount columns")
)

// Failure reason codes surfaced in ImportResult.FailureReason.
const (
	ReasonEmptyFile         = "empty_file"
	ReasonUnmappableColumns = "unmappable_columns"
)
