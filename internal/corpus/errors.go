package corpus

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by all formats.
var (
	// ErrEndOfStream marks successful exhaustion of a Parser. It is expected
	// control flow, not a failure, and must never be surfaced to users.
	ErrEndOfStream = errors.New("end of stream")
	// ErrUnsupportedFormat is returned by the registry for file extensions it
	// does not recognize, before any I/O is attempted.
	ErrUnsupportedFormat = errors.New("unsupported file format")
)

// FormatError reports a fatal violation of a format's grammar or of the
// configured language constraints. Line is 1-based; 0 means the offending
// line is unknown (multi-line constructs, document-level problems).
type FormatError struct {
	Format  string
	Line    int
	Message string
}

func (e *FormatError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("invalid %s file at line %d: %s", e.Format, e.Line, e.Message)
	}
	return fmt.Sprintf("invalid %s file: %s", e.Format, e.Message)
}
