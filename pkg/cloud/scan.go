package cloud

import (
	"github.com/nbeckett/tiercloud/pkg/errors"
)

// DefaultSensitivity is the minimum score spread required to quantize.
// A range narrower than this cannot produce meaningfully distinct tiers.
const DefaultSensitivity = 0.001

// ScoreRange is the (min, max) of all observed scores. Invariant: Max >= Min
// once at least one score has been observed.
type ScoreRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Span returns Max - Min.
func (r ScoreRange) Span() float64 {
	return r.Max - r.Min
}

// Check reports whether the range is wide enough to quantize at the given
// sensitivity (the default applies when sensitivity is not positive). Callers
// holding a precomputed range must re-check it against the current
// sensitivity; a range that passed under one threshold can fail under a
// stricter one.
func (r ScoreRange) Check(sensitivity float64) error {
	if sensitivity <= 0 {
		sensitivity = DefaultSensitivity
	}
	if r.Span() < sensitivity {
		return errors.New(errors.ErrCodeInsufficientRange,
			"score range [%g, %g] is narrower than %g; not enough separation for distinct tiers",
			r.Min, r.Max, sensitivity)
	}
	return nil
}

// RangeScanner accumulates the score range over a single streaming pass.
// The zero value is ready to use.
type RangeScanner struct {
	count    int
	min, max float64
}

// Observe feeds one score into the accumulator.
func (s *RangeScanner) Observe(score float64) {
	if s.count == 0 {
		s.min, s.max = score, score
	} else {
		if score < s.min {
			s.min = score
		}
		if score > s.max {
			s.max = score
		}
	}
	s.count++
}

// Count returns the number of scores observed.
func (s *RangeScanner) Count() int {
	return s.count
}

// Range returns the accumulated score range, failing when the spread is
// below sensitivity (or nothing was observed). The computed range is
// reported in the error so callers can surface it before aborting.
func (s *RangeScanner) Range(sensitivity float64) (ScoreRange, error) {
	if s.count == 0 {
		return ScoreRange{}, errors.New(errors.ErrCodeInsufficientRange,
			"no rows scanned; cannot compute a score range")
	}
	r := ScoreRange{Min: s.min, Max: s.max}
	return r, r.Check(sensitivity)
}
