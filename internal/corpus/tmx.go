package corpus

import (
	"bufio"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

const tmxFormat = "TMX"

// xmlNamespace is the URI encoding/xml may report for the reserved xml:
// prefix, depending on whether the document declares it.
const xmlNamespace = "http://www.w3.org/XML/1998/namespace"

// parentTag maps each recognized TMX tag to its required parent. The empty
// string is the document root. Tags outside this map (notes, props, metadata)
// are skipped transparently and never enter the nesting stack.
var parentTag = map[string]string{
	"tmx":    "",
	"header": "tmx",
	"body":   "tmx",
	"tu":     "body",
	"tuv":    "tu",
	"seg":    "tuv",
}

// TMXParser parses the TMX subset used for parallel corpora:
//
//	tmx > header (srclang must match the configured source language)
//	tmx > body > tu > tuv (xml:lang required) > seg (text, space-joined)
//
// Parsing is incremental over the decoder's token stream; the document is
// never held in memory. A stack of open recognized tags validates nesting as
// tokens arrive.
type TMXParser struct {
	srcLocale string
	dstLocale string
	limits    Limits

	in  *lineCountReader
	dec *xml.Decoder

	// stack holds open recognized-tag names, rooted at "".
	stack      []string
	headerSeen bool
	bodySeen   bool

	line    int
	skipped []SkippedRecord

	tu    *tuRecord
	tuv   *tuvRecord
	inSeg bool
}

type tuvRecord struct {
	locale string
	texts  []string
}

type tuRecord struct {
	tuvs []tuvRecord
}

// NewTMXParser creates a TMXParser over r for the given BCP-47 language
// codes.
func NewTMXParser(srcLangCode, dstLangCode string, r io.Reader, limits Limits) *TMXParser {
	in := newLineCountReader(r)
	dec := xml.NewDecoder(in)
	return &TMXParser{
		srcLocale: ParseLocale(srcLangCode),
		dstLocale: ParseLocale(dstLangCode),
		limits:    limits.withDefaults(),
		in:        in,
		dec:       dec,
		stack:     []string{""},
	}
}

// Next returns the next pair or ErrEndOfStream. Structural violations, a
// header language mismatch and (by default) a <tu> missing a source or
// target sentence are all fatal *FormatErrors.
func (p *TMXParser) Next() (Pair, error) {
	p.line = p.in.Line()
	startBytes := p.in.BytesRead()

	for {
		tok, err := p.dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return Pair{}, ErrEndOfStream
			}
			var syn *xml.SyntaxError
			if errors.As(err, &syn) {
				return Pair{}, &FormatError{Format: tmxFormat, Line: syn.Line, Message: syn.Msg}
			}
			return Pair{}, fmt.Errorf("read tmx: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if err := p.startElement(t); err != nil {
				return Pair{}, err
			}
		case xml.EndElement:
			pair, done, err := p.endElement(t)
			if err != nil {
				return Pair{}, err
			}
			if done {
				return pair, nil
			}
		case xml.CharData:
			if p.inSeg && p.tuv != nil {
				if text := strings.TrimSpace(string(t)); text != "" {
					p.tuv.texts = append(p.tuv.texts, text)
				}
			}
		}

		if p.in.BytesRead()-startBytes > int64(p.limits.MaxRecordBytes) {
			return Pair{}, &FormatError{
				Format: tmxFormat,
				Line:   p.in.Line(),
				Message: fmt.Sprintf("translation unit exceeds the %d bytes limit; "+
					"try breaking sentence pairs into multiple lines", p.limits.MaxRecordBytes),
			}
		}
	}
}

func (p *TMXParser) startElement(t xml.StartElement) error {
	tag := t.Name.Local
	parent, recognized := parentTag[tag]
	if !recognized {
		return nil
	}
	if top := p.stack[len(p.stack)-1]; top != parent {
		return p.formatError(fmt.Sprintf(
			"invalid tag structure: <%s> should go inside <%s>, not <%s>", tag, parent, top))
	}

	switch tag {
	case "header":
		if p.headerSeen {
			return p.formatError("duplicate header tag")
		}
		p.headerSeen = true
		if err := p.checkHeaderLang(t); err != nil {
			return err
		}
	case "body":
		if p.bodySeen {
			return p.formatError("duplicate body tag")
		}
		if !p.headerSeen {
			return p.formatError("the header tag should come before the body tag")
		}
		p.bodySeen = true
	case "tu":
		p.tu = &tuRecord{}
	case "tuv":
		p.tuv = &tuvRecord{locale: tuvLang(t)}
	case "seg":
		p.inSeg = true
	}

	p.stack = append(p.stack, tag)
	return nil
}

func (p *TMXParser) endElement(t xml.EndElement) (Pair, bool, error) {
	tag := t.Name.Local
	if _, recognized := parentTag[tag]; !recognized {
		return Pair{}, false, nil
	}
	if top := p.stack[len(p.stack)-1]; top != tag {
		return Pair{}, false, p.formatError(fmt.Sprintf("unclosed tag %s", top))
	}
	p.stack = p.stack[:len(p.stack)-1]

	switch tag {
	case "seg":
		p.inSeg = false
	case "tuv":
		if p.tu != nil && p.tuv != nil {
			p.tu.tuvs = append(p.tu.tuvs, *p.tuv)
		}
		p.tuv = nil
	case "tu":
		tu := p.tu
		p.tu = nil
		if tu == nil {
			return Pair{}, false, nil
		}
		return p.resolveTU(tu)
	}
	return Pair{}, false, nil
}

// resolveTU assigns the collected tuv texts to source and target by locale.
// A tu missing either side is fatal unless SkipInvalid tolerates it.
func (p *TMXParser) resolveTU(tu *tuRecord) (Pair, bool, error) {
	var src, dst string
	for _, tuv := range tu.tuvs {
		text := strings.Join(tuv.texts, " ")
		if text == "" || tuv.locale == "" {
			continue
		}
		switch {
		case SameLanguage(tuv.locale, p.srcLocale):
			src = text
		case SameLanguage(tuv.locale, p.dstLocale):
			dst = text
		}
	}

	var reason string
	switch {
	case src == "" && dst == "":
		reason = "no sentence found in source and target languages in this <tu>"
	case src == "":
		reason = "no sentence found in source language in this <tu>"
	case dst == "":
		reason = "no sentence found in target language in this <tu>"
	default:
		return Pair{Source: src, Target: dst}, true, nil
	}

	if !p.limits.SkipInvalid {
		return Pair{}, false, p.formatError(reason)
	}
	if len(p.skipped) >= p.limits.MaxSkippedRecords {
		return Pair{}, false, p.formatError(fmt.Sprintf(
			"too many sentence pairs (%d) skipped due to errors", len(p.skipped)))
	}
	p.skipped = append(p.skipped, SkippedRecord{
		Line:   p.in.Line(),
		Source: src,
		Target: dst,
		Reason: reason,
	})
	return Pair{}, false, nil
}

// checkHeaderLang validates the header srclang attribute against the
// configured source language. A missing attribute is tolerated; a mismatch is
// a fatal structural error, not a skippable record.
func (p *TMXParser) checkHeaderLang(t xml.StartElement) error {
	for _, attr := range t.Attr {
		if attr.Name.Local != "srclang" {
			continue
		}
		if attr.Value == "" {
			return nil
		}
		locale := ParseLocale(attr.Value)
		if !SameLanguage(locale, p.srcLocale) {
			return p.formatError(fmt.Sprintf(
				"language in header doesn't match language declared; expecting %s, found %s",
				p.srcLocale, locale))
		}
		return nil
	}
	return nil
}

func tuvLang(t xml.StartElement) string {
	for _, attr := range t.Attr {
		if attr.Name.Local == "lang" &&
			(attr.Name.Space == "xml" || attr.Name.Space == xmlNamespace) {
			return ParseLocale(attr.Value)
		}
	}
	return ""
}

func (p *TMXParser) formatError(message string) error {
	return &FormatError{Format: tmxFormat, Line: p.in.Line(), Message: message}
}

// CurrentLineNumber is the 1-based line being parsed when the last Next call
// was issued.
func (p *TMXParser) CurrentLineNumber() int {
	if p.line == 0 {
		return 1
	}
	return p.line
}

// SkippedRecords returns the tolerated invalid translation units.
func (p *TMXParser) SkippedRecords() []SkippedRecord { return p.skipped }

// lineCountReader feeds the XML decoder one byte at a time while counting
// newlines and total bytes consumed. Implementing io.ByteReader keeps the
// decoder from adding its own read-ahead buffer, so the counts stay in step
// with the token stream.
type lineCountReader struct {
	br    *bufio.Reader
	lines int
	bytes int64
}

func newLineCountReader(r io.Reader) *lineCountReader {
	return &lineCountReader{br: bufio.NewReader(r)}
}

func (r *lineCountReader) ReadByte() (byte, error) {
	b, err := r.br.ReadByte()
	if err != nil {
		return b, err
	}
	r.bytes++
	if b == '\n' {
		r.lines++
	}
	return b, nil
}

func (r *lineCountReader) Read(p []byte) (int, error) {
	n, err := r.br.Read(p)
	r.bytes += int64(n)
	for _, b := range p[:n] {
		if b == '\n' {
			r.lines++
		}
	}
	return n, err
}

// Line is the 1-based line number currently being consumed.
func (r *lineCountReader) Line() int { return r.lines + 1 }

// BytesRead is the total bytes consumed from the underlying stream.
func (r *lineCountReader) BytesRead() int64 { return r.bytes }

// TMX export templates. Byte-exact for compatibility with the other tools in
// this suite; the language codes are the original, untruncated ones.
const (
	tmxHeaderTemplate = `<?xml version="1.0" encoding="UTF-8" ?>
<tmx version="1.4">
<header srclang="%s" adminlang="en-us" o-tmf="unknown" segtype="sentence" creationtool="Uplug" creationtoolversion="unknown" datatype="PlainText" />
  <body>
`
	tmxPairTemplate = `    <tu>
      <tuv xml:lang="%s"><seg>%s</seg></tuv>
      <tuv xml:lang="%s"><seg>%s</seg></tuv>
    </tu>
`
	tmxFooter = "  </body>\n</tmx>"
)

// TMXExporter writes phrase pairs wrapped in the literal TMX header/footer.
// Text is written raw, without XML escaping: pairs containing markup
// characters produce invalid XML. Known limitation, kept for byte
// compatibility with the original exporter rather than fixed silently.
type TMXExporter struct {
	srcLangCode string
	dstLangCode string
	w           *bufio.Writer
}

// NewTMXExporter creates a TMXExporter over w for the given BCP-47 language
// codes.
func NewTMXExporter(srcLangCode, dstLangCode string, w io.Writer) *TMXExporter {
	return &TMXExporter{
		srcLangCode: srcLangCode,
		dstLangCode: dstLangCode,
		w:           bufio.NewWriter(w),
	}
}

// Begin writes the document preamble, header and body opening.
func (e *TMXExporter) Begin() error {
	if _, err := fmt.Fprintf(e.w, tmxHeaderTemplate, e.srcLangCode); err != nil {
		return fmt.Errorf("write tmx header: %w", err)
	}
	return nil
}

// Feed writes one <tu> block.
func (e *TMXExporter) Feed(p Pair) error {
	_, err := fmt.Fprintf(e.w, tmxPairTemplate, e.srcLangCode, p.Source, e.dstLangCode, p.Target)
	if err != nil {
		return fmt.Errorf("write tmx pair: %w", err)
	}
	return nil
}

// Close writes the footer and flushes buffered output.
func (e *TMXExporter) Close() error {
	if _, err := e.w.WriteString(tmxFooter); err != nil {
		return fmt.Errorf("write tmx footer: %w", err)
	}
	if err := e.w.Flush(); err != nil {
		return fmt.Errorf("flush tmx: %w", err)
	}
	return nil
}
