package corpus

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

const tsvFormat = "TSV"

// TSVParser parses tab-separated parallel phrases: no header, one pair per
// line, exactly one tab between exactly two fields. A trailing \r is
// stripped.
type TSVParser struct {
	sc     *bufio.Scanner
	limits Limits
	line   int
}

// NewTSVParser creates a TSVParser over r. The language codes are accepted
// for registry uniformity; TSV carries no language information of its own.
func NewTSVParser(srcLangCode, dstLangCode string, r io.Reader, limits Limits) *TSVParser {
	limits = limits.withDefaults()
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), limits.MaxRecordBytes)
	return &TSVParser{sc: sc, limits: limits}
}

// Next returns the next pair or ErrEndOfStream.
func (p *TSVParser) Next() (Pair, error) {
	if !p.sc.Scan() {
		if err := p.sc.Err(); err != nil {
			if errors.Is(err, bufio.ErrTooLong) {
				return Pair{}, &FormatError{
					Format: tsvFormat,
					Line:   p.line + 1,
					Message: fmt.Sprintf("length of the line exceeds the %d bytes limit",
						p.limits.MaxRecordBytes),
				}
			}
			return Pair{}, fmt.Errorf("read tsv: %w", err)
		}
		return Pair{}, ErrEndOfStream
	}
	p.line++

	line := strings.TrimSuffix(p.sc.Text(), "\r")
	if p.line == 1 {
		// Tolerate a UTF-8 BOM on the first line.
		line = strings.TrimPrefix(line, "\ufeff")
	}
	fields := strings.Split(line, "\t")
	if len(fields) != 2 {
		return Pair{}, &FormatError{
			Format:  tsvFormat,
			Line:    p.line,
			Message: "each line can only contain 2 phrases",
		}
	}
	return Pair{Source: fields[0], Target: fields[1]}, nil
}

// CurrentLineNumber is the line returned by the last successful Next, 1-based.
func (p *TSVParser) CurrentLineNumber() int {
	if p.line == 0 {
		return 1
	}
	return p.line
}

// SkippedRecords is always empty for TSV; every violation is fatal.
func (p *TSVParser) SkippedRecords() []SkippedRecord { return nil }

// TSVExporter writes "source\ttarget\n" per pair, UTF-8. No quoting or
// escaping is performed: embedded tabs or newlines in the text are written
// as-is, so such pairs do not round-trip. Known format limitation.
type TSVExporter struct {
	w *bufio.Writer
}

// NewTSVExporter creates a TSVExporter over w.
func NewTSVExporter(srcLangCode, dstLangCode string, w io.Writer) *TSVExporter {
	return &TSVExporter{w: bufio.NewWriter(w)}
}

// Begin is a no-op; TSV has no preamble.
func (e *TSVExporter) Begin() error { return nil }

// Feed writes one pair.
func (e *TSVExporter) Feed(p Pair) error {
	if _, err := e.w.WriteString(p.Source + "\t" + p.Target + "\n"); err != nil {
		return fmt.Errorf("write tsv: %w", err)
	}
	return nil
}

// Close flushes buffered output.
func (e *TSVExporter) Close() error {
	if err := e.w.Flush(); err != nil {
		return fmt.Errorf("flush tsv: %w", err)
	}
	return nil
}
