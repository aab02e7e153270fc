package app

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"os"

	"github.com/GoogleCloudPlatform/automl-translation-tools/internal/corpus"
	"github.com/GoogleCloudPlatform/automl-translation-tools/internal/corpus/autosplit"
)

// maxWarnedRecords caps per-file skipped-record log lines; the total is
// always reported.
const maxWarnedRecords = 10

// pairSink receives pairs during iteration. Satisfied by corpus.Exporter and
// autosplit.Splitter.
type pairSink interface {
	Feed(p corpus.Pair) error
}

// Commands implements the tool operations (validate, count, convert,
// autosplit) on top of the corpus parsers and exporters. Every operation is a
// single synchronous pass: pairs are pulled one at a time from the input
// parser and pushed to at most one sink before the next pull.
type Commands struct {
	log    *slog.Logger
	limits corpus.Limits
}

// NewCommands creates a Commands with the given parser limits.
func NewCommands(log *slog.Logger, limits corpus.Limits) *Commands {
	return &Commands{log: log, limits: limits}
}

// Validate parses every input file completely, failing on the first format
// violation.
func (c *Commands) Validate(inputs []string, srcLangCode, dstLangCode string) error {
	_, err := c.iterate(inputs, srcLangCode, dstLangCode, nil)
	return err
}

// Count returns the total number of parallel phrases across all input files.
func (c *Commands) Count(inputs []string, srcLangCode, dstLangCode string) (int, error) {
	return c.iterate(inputs, srcLangCode, dstLangCode, nil)
}

// Convert re-encodes all input files into output; the formats on both sides
// are chosen by file extension.
func (c *Commands) Convert(inputs []string, output, srcLangCode, dstLangCode string) error {
	if err := corpus.Supported(output); err != nil {
		return err
	}
	if err := supportedAll(inputs); err != nil {
		return err
	}

	out, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("create %s: %w", output, err)
	}
	defer out.Close()

	exporter, err := corpus.NewExporter(output, srcLangCode, dstLangCode, out)
	if err != nil {
		return err
	}
	if err := exporter.Begin(); err != nil {
		return err
	}
	closeOnce := exporterCloser(exporter)
	defer closeOnce()

	n, err := c.iterate(inputs, srcLangCode, dstLangCode, exporter)
	if err != nil {
		return err
	}
	if err := closeOnce(); err != nil {
		return err
	}
	c.log.Info("conversion finished",
		slog.String("output", output),
		slog.Int("pairs", n))
	return nil
}

// Autosplit partitions the input corpus into train/validation/test files with
// an exact 80/10/10 split. It makes two passes: one to count the corpus, one
// to assign and write each pair. The randomness source is injected so tests
// can fix the seed.
func (c *Commands) Autosplit(inputs []string, trainOut, validationOut, testOut,
	srcLangCode, dstLangCode string, rnd *rand.Rand) error {
	outputs := []string{trainOut, validationOut, testOut}
	if err := supportedAll(outputs); err != nil {
		return err
	}

	// First pass: the assigner needs the total up front.
	total, err := c.Count(inputs, srcLangCode, dstLangCode)
	if err != nil {
		return err
	}

	exporters := make([]corpus.Exporter, 0, len(outputs))
	closers := make([]func() error, 0, len(outputs))
	defer func() {
		for _, closeFn := range closers {
			closeFn() //nolint:errcheck // best-effort close on the failure path
		}
	}()
	for _, path := range outputs {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create %s: %w", path, err)
		}
		defer f.Close()
		exporter, err := corpus.NewExporter(path, srcLangCode, dstLangCode, f)
		if err != nil {
			return err
		}
		if err := exporter.Begin(); err != nil {
			return err
		}
		exporters = append(exporters, exporter)
		closers = append(closers, exporterCloser(exporter))
	}

	splitter := autosplit.NewSplitter(total, rnd, exporters[0], exporters[1], exporters[2])

	// Second pass: assign and fan out.
	if _, err := c.iterate(inputs, srcLangCode, dstLangCode, splitter); err != nil {
		return err
	}
	if err := splitter.Finish(); err != nil {
		return err
	}
	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			return err
		}
	}

	counts := splitter.Counts()
	c.log.Info("autosplit finished",
		slog.Int("total", total),
		slog.Int("train", counts[autosplit.Train]),
		slog.Int("validation", counts[autosplit.Validation]),
		slog.Int("test", counts[autosplit.Test]))
	return nil
}

// iterate pulls every pair from every input in order, forwarding to sink when
// one is given, and returns the total pair count.
func (c *Commands) iterate(inputs []string, srcLangCode, dstLangCode string, sink pairSink) (int, error) {
	if err := supportedAll(inputs); err != nil {
		return 0, err
	}
	total := 0
	for _, path := range inputs {
		n, err := c.iterateFile(path, srcLangCode, dstLangCode, sink)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func (c *Commands) iterateFile(path, srcLangCode, dstLangCode string, sink pairSink) (int, error) {
	in, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer in.Close()

	parser, err := corpus.NewParser(path, srcLangCode, dstLangCode, in, c.limits)
	if err != nil {
		return 0, err
	}

	count := 0
	for {
		pair, err := parser.Next()
		if errors.Is(err, corpus.ErrEndOfStream) {
			break
		}
		if err != nil {
			return count, fmt.Errorf("%s: %w", path, err)
		}
		count++
		if sink != nil {
			if err := sink.Feed(pair); err != nil {
				return count, err
			}
		}
	}
	c.logSkipped(path, parser.SkippedRecords())
	return count, nil
}

// logSkipped reports tolerated invalid records: a summary line plus the first
// few records in detail.
func (c *Commands) logSkipped(path string, skipped []corpus.SkippedRecord) {
	if len(skipped) == 0 {
		return
	}
	c.log.Warn("sentence pairs skipped",
		slog.String("file", path),
		slog.Int("count", len(skipped)))
	for i, rec := range skipped {
		if i == maxWarnedRecords {
			c.log.Warn("further skipped pairs omitted",
				slog.Int("omitted", len(skipped)-maxWarnedRecords))
			break
		}
		c.log.Warn("skipped pair",
			slog.Int("line", rec.Line),
			slog.String("source", rec.Source),
			slog.String("target", rec.Target),
			slog.String("reason", rec.Reason))
	}
}

func supportedAll(paths []string) error {
	for _, path := range paths {
		if err := corpus.Supported(path); err != nil {
			return err
		}
	}
	return nil
}

// exporterCloser wraps Close so deferred and explicit calls compose without
// double-closing.
func exporterCloser(e corpus.Exporter) func() error {
	closed := false
	return func() error {
		if closed {
			return nil
		}
		closed = true
		return e.Close()
	}
}
