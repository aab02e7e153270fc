// Package corpus streams parallel-sentence corpora (bilingual phrase pairs)
// stored as TSV or as a constrained subset of TMX. Parsers and exporters are
// pull-based and single-pass: one pair is assembled at a time and no more
// than one logical record is buffered, so memory stays bounded regardless of
// input size.
package corpus

import "strings"

// Default bounds shared by all parsers.
const (
	// DefaultMaxRecordBytes caps a single logical record (one line, one <tu>).
	DefaultMaxRecordBytes = 1024 * 1024
	// DefaultMaxSkippedRecords caps tolerated invalid records before the
	// parser gives up on the whole file.
	DefaultMaxSkippedRecords = 1024
)

// Pair is one parallel phrase: source-language text and its translation.
type Pair struct {
	Source string
	Target string
}

// SkippedRecord describes one invalid record a parser tolerated instead of
// failing. Source and Target may be empty when the record never yielded them.
type SkippedRecord struct {
	Line   int
	Source string
	Target string
	Reason string
}

// Limits bounds parser memory and error tolerance.
type Limits struct {
	// MaxRecordBytes is the byte budget for one logical record.
	MaxRecordBytes int
	// MaxSkippedRecords is the tolerated-error cap when SkipInvalid is set.
	MaxSkippedRecords int
	// SkipInvalid tolerates <tu> records missing a source or target sentence
	// instead of failing the parse. Off by default.
	SkipInvalid bool
}

// DefaultLimits returns the standard bounds.
func DefaultLimits() Limits {
	return Limits{
		MaxRecordBytes:    DefaultMaxRecordBytes,
		MaxSkippedRecords: DefaultMaxSkippedRecords,
	}
}

func (l Limits) withDefaults() Limits {
	if l.MaxRecordBytes <= 0 {
		l.MaxRecordBytes = DefaultMaxRecordBytes
	}
	if l.MaxSkippedRecords <= 0 {
		l.MaxSkippedRecords = DefaultMaxSkippedRecords
	}
	return l
}

// ParseLocale reduces a BCP-47 language code to its bare language subtag:
// lowercase, truncated at the first hyphen ("en-US" → "en"). This is the only
// normalization applied anywhere; region and script subtags are ignored.
func ParseLocale(langCode string) string {
	locale, _, _ := strings.Cut(strings.ToLower(langCode), "-")
	return locale
}

// SameLanguage reports whether two already-parsed locales name the same
// language.
func SameLanguage(a, b string) bool {
	return a == b
}

// Parser produces a lazy, finite, non-restartable sequence of phrase pairs
// from a byte stream.
type Parser interface {
	// Next returns the next pair. It returns ErrEndOfStream once the source
	// is exhausted and a *FormatError when the data violates the format.
	Next() (Pair, error)
	// CurrentLineNumber is the 1-based line being parsed when the last Next
	// call was issued.
	CurrentLineNumber() int
	// SkippedRecords returns the invalid records tolerated so far.
	SkippedRecords() []SkippedRecord
}

// Exporter consumes phrase pairs. Begin is called once before the first Feed,
// Close exactly once after the last; callers guarantee Close runs even when
// iteration fails partway.
type Exporter interface {
	Begin() error
	Feed(p Pair) error
	Close() error
}
