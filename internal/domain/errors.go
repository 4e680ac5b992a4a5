package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the failure modes the pipeline distinguishes.
var (
	// ErrEmptyFile marks a zero-length or whitespace-only upload.
	ErrEmptyFile = errors.New("empty file")

	// ErrUndecodable marks bytes that none of the configured text encodings
	// could decode cleanly.
	ErrUndecodable = errors.New("undecodable text")

	// ErrInsufficientData marks a statistic requested on fewer than two
	// paired observations.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrZeroVariance marks a correlation over a constant series, which has
	// no defined coefficient.
	ErrZeroVariance = errors.New("zero variance")
)

// FileError wraps a load failure with the name of the offending upload.
// Fatal for the session: there is no partial result with a file missing.
type FileError struct {
	Name string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("file %q: %v", e.Name, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }

// SchemaError reports a required canonical column that no synonym rule could
// resolve. Fatal for the session.
type SchemaError struct {
	File  string
	Field CanonicalField
}

func (e *SchemaError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("missing required column: %s", e.Field)
	}
	return fmt.Sprintf("file %q: missing required column: %s", e.File, e.Field)
}

// GeometryError reports an unusable geometry source: archive without exactly
// one shapefile, corrupt geometry, or a failed reprojection. Fatal for
// spatial outputs; non-spatial analysis proceeds without them.
type GeometryError struct {
	Archive string
	Reason  string
	Err     error
}

func (e *GeometryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("geometry source %q: %s: %v", e.Archive, e.Reason, e.Err)
	}
	return fmt.Sprintf("geometry source %q: %s", e.Archive, e.Reason)
}

func (e *GeometryError) Unwrap() error { return e.Err }
