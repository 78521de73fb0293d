package manifest

import (
	"errors"
	"fmt"
)

var (
	// ErrNoHeader is the cause of a FormatError for input without a header row.
	ErrNoHeader = errors.New("no header row")

	// ErrNoRows is the cause of a FormatError for input with a header and no data rows.
	ErrNoRows = errors.New("no data rows")
)

// FormatError reports input that cannot be analyzed as a table at all.
// It is the only error Analyze returns.
type FormatError struct {
	Source string
	Err    error
}

func (e *FormatError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("invalid manifest: %v", e.Err)
	}
	return fmt.Sprintf("invalid manifest %s: %v", e.Source, e.Err)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// NewFormatError wraps err as a FormatError for the named source.
func NewFormatError(source string, err error) *FormatError {
	return &FormatError{Source: source, Err: err}
}

// IsFormatError reports whether err is, or wraps, a FormatError.
func IsFormatError(err error) bool {
	var fe *FormatError
	return errors.As(err, &fe)
}

// CoercionAnomaly records a numeric cell that could not be used as-is and was
// replaced with 0. It is informational only.
type CoercionAnomaly struct {
	Row    int    `json:"row" yaml:"row"`
	Column string `json:"column" yaml:"column"`
	Value  string `json:"value" yaml:"value"`
}
