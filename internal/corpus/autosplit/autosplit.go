// Package autosplit partitions a parallel corpus of known size into
// train/validation/test subsets online: each incoming pair is assigned by
// weighted sampling without replacement over the remaining per-class quotas,
// so the final class counts converge exactly on the precomputed split without
// buffering the corpus.
package autosplit

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/GoogleCloudPlatform/automl-translation-tools/internal/corpus"
)

// MLUse is the dataset partition a phrase pair is assigned to.
type MLUse int

const (
	// Unassigned is a sentinel that must never be the outcome of an
	// assignment; the assigner treats selecting it as an internal invariant
	// violation.
	Unassigned MLUse = iota
	Train
	Validation
	Test
)

// splitOrder is the fixed walk order of the assignment draw.
var splitOrder = [...]MLUse{Train, Validation, Test}

func (u MLUse) String() string {
	switch u {
	case Train:
		return "TRAIN"
	case Validation:
		return "VALIDATION"
	case Test:
		return "TEST"
	default:
		return "UNASSIGNED"
	}
}

func (u MLUse) IsValid() bool {
	return u == Train || u == Validation || u == Test
}

// ErrCountMismatch reports that the pair stream yielded a different number of
// pairs than the total the quotas were computed from. It indicates
// driver/splitter desynchronization, not malformed corpus data.
var ErrCountMismatch = errors.New("corpus size does not match the counted total")

// SplitCounts computes the per-class example counts for a corpus of
// totalExampleCount pairs: train = ceil(0.8*N), validation = ceil(0.9*N -
// train), test = N - train - validation. The rounding is sequential so the
// three counts always sum to N; test absorbs the remainder and is never
// rounded on its own.
func SplitCounts(totalExampleCount int) map[MLUse]int {
	train := int(math.Ceil(float64(totalExampleCount) * 0.8))
	validation := int(math.Ceil(float64(totalExampleCount)*0.9 - float64(train)))
	test := totalExampleCount - train - validation
	return map[MLUse]int{
		Train:      train,
		Validation: validation,
		Test:       test,
	}
}

// Assigner assigns incoming pairs to split classes online. The randomness
// source is injected so the exact-convergence property is testable with a
// fixed seed.
type Assigner struct {
	quota     map[MLUse]int
	remaining int
	rnd       *rand.Rand
}

// NewAssigner creates an Assigner for a corpus of totalExampleCount pairs.
func NewAssigner(totalExampleCount int, rnd *rand.Rand) *Assigner {
	quota := SplitCounts(totalExampleCount)
	return &Assigner{
		quota:     quota,
		remaining: totalExampleCount,
		rnd:       rnd,
	}
}

// Assign draws the split class for the next pair and consumes one unit of
// that class's quota. Drawing from an exhausted assigner returns
// ErrCountMismatch: the stream is longer than the counted total.
func (a *Assigner) Assign() (MLUse, error) {
	if a.remaining <= 0 {
		return Unassigned, fmt.Errorf("%w: more pairs than expected", ErrCountMismatch)
	}
	i := a.rnd.Intn(a.remaining)
	for _, use := range splitOrder {
		if i < a.quota[use] {
			a.quota[use]--
			a.remaining--
			return use, nil
		}
		i -= a.quota[use]
	}
	// Unreachable while quotas sum to remaining.
	return Unassigned, fmt.Errorf("split invariant violation: no class selected for draw")
}

// Remaining is the number of pairs not yet assigned.
func (a *Assigner) Remaining() int { return a.remaining }

// Quota returns the remaining quota for one class.
func (a *Assigner) Quota(use MLUse) int { return a.quota[use] }

// Splitter fans a pair stream out across three exporters, one per split
// class. The caller owns the exporters' Begin/Close lifecycle.
type Splitter struct {
	assigner *Assigner
	sinks    map[MLUse]corpus.Exporter
	counts   map[MLUse]int
}

// NewSplitter creates a Splitter for a corpus of totalExampleCount pairs.
func NewSplitter(totalExampleCount int, rnd *rand.Rand, train, validation, test corpus.Exporter) *Splitter {
	return &Splitter{
		assigner: NewAssigner(totalExampleCount, rnd),
		sinks: map[MLUse]corpus.Exporter{
			Train:      train,
			Validation: validation,
			Test:       test,
		},
		counts: make(map[MLUse]int, len(splitOrder)),
	}
}

// Feed assigns one pair and forwards it to the chosen class's exporter.
func (s *Splitter) Feed(p corpus.Pair) error {
	use, err := s.assigner.Assign()
	if err != nil {
		return err
	}
	if err := s.sinks[use].Feed(p); err != nil {
		return fmt.Errorf("feed %s sink: %w", use, err)
	}
	s.counts[use]++
	return nil
}

// Counts returns the number of pairs fed to each class so far.
func (s *Splitter) Counts() map[MLUse]int {
	out := make(map[MLUse]int, len(splitOrder))
	for _, use := range splitOrder {
		out[use] = s.counts[use]
	}
	return out
}

// Finish verifies that exactly the counted number of pairs was fed.
func (s *Splitter) Finish() error {
	if r := s.assigner.Remaining(); r != 0 {
		return fmt.Errorf("%w: %d pairs short", ErrCountMismatch, r)
	}
	return nil
}
