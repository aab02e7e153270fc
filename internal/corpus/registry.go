package corpus

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// ParserFactory builds a Parser over an input stream.
type ParserFactory func(srcLangCode, dstLangCode string, r io.Reader, limits Limits) Parser

// ExporterFactory builds an Exporter over an output stream.
type ExporterFactory func(srcLangCode, dstLangCode string, w io.Writer) Exporter

var parserFactories = map[string]ParserFactory{
	".tsv": func(src, dst string, r io.Reader, limits Limits) Parser {
		return NewTSVParser(src, dst, r, limits)
	},
	".tmx": func(src, dst string, r io.Reader, limits Limits) Parser {
		return NewTMXParser(src, dst, r, limits)
	},
}

var exporterFactories = map[string]ExporterFactory{
	".tsv": func(src, dst string, w io.Writer) Exporter {
		return NewTSVExporter(src, dst, w)
	},
	".tmx": func(src, dst string, w io.Writer) Exporter {
		return NewTMXExporter(src, dst, w)
	},
}

func fileExt(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := parserFactories[ext]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, path)
	}
	return ext, nil
}

// Supported reports whether path's extension maps to a known format,
// returning ErrUnsupportedFormat otherwise. It lets callers reject a file
// before opening it.
func Supported(path string) error {
	_, err := fileExt(path)
	return err
}

// NewParser selects a Parser for path by file extension: .tsv or .tmx. Any
// other extension fails with ErrUnsupportedFormat before the stream is
// touched.
func NewParser(path, srcLangCode, dstLangCode string, r io.Reader, limits Limits) (Parser, error) {
	ext, err := fileExt(path)
	if err != nil {
		return nil, err
	}
	return parserFactories[ext](srcLangCode, dstLangCode, r, limits), nil
}

// NewExporter selects an Exporter for path by file extension, mirroring
// NewParser.
func NewExporter(path, srcLangCode, dstLangCode string, w io.Writer) (Exporter, error) {
	ext, err := fileExt(path)
	if err != nil {
		return nil, err
	}
	return exporterFactories[ext](srcLangCode, dstLangCode, w), nil
}
