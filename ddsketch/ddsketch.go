// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License 2.0.

// Package ddsketch provides a quantile sketch with relative-error guarantees.
// The sketch computes quantile values with an approximation error that is
// relative to the actual quantile value. It works on both negative and
// non-negative input values.
//
// For instance, using a sketch with a relative accuracy guarantee set to 1%,
// if the expected quantile value is 100, the computed quantile value is
// guaranteed to be between 99 and 101. If the expected quantile value is
// 1000, the computed quantile value is guaranteed to be between 990 and 1010.
//
// The sketch works by mapping floating-point input values to bins and
// counting the number of values for each bin. The memory size of the sketch
// depends on the range that is covered by the input values: the larger that
// range, the more bins are needed to keep track of the input values. As a
// rough estimate, when working on durations with a relative accuracy of 2%,
// about 2kB (275 bins) are needed to cover values between 1 millisecond and
// 1 minute, and about 6kB (802 bins) to cover values between 1 nanosecond
// and 1 day.
//
// The size of the sketch can be given a fail-safe upper bound by using
// collapsing stores. As shown in http://www.vldb.org/pvldb/vol12/p2195-masson.pdf
// the likelihood of a store collapsing when using the default bound is
// vanishingly small for most data.
package ddsketch

import (
	"errors"
	"math"

	"github.com/tudor1805/sketches-go/ddsketch/mapping"
	"github.com/tudor1805/sketches-go/ddsketch/stat"
	"github.com/tudor1805/sketches-go/ddsketch/store"
)

const defaultBinLimit = 2048

// ErrUnequalSketchParameters is returned when merging two sketches whose
// mappings have different gamma values.
var ErrUnequalSketchParameters = errors.New("cannot merge two sketches with different parameters")

// DDSketch tracks negative values, positive values and zero values
// separately, along with exact summary statistics of everything that was
// added to it.
type DDSketch struct {
	mapping.KeyMapping
	positiveValueStore store.Store
	negativeValueStore store.Store
	zeroCount          float64
	summary            *stat.SummaryStatistics
}

// NewDDSketch composes a sketch from a key mapping and a pair of stores. The
// stores hold the bin counts for positive and negative values respectively.
func NewDDSketch(keyMapping mapping.KeyMapping, positiveValueStore store.Store, negativeValueStore store.Store) *DDSketch {
	return &DDSketch{
		KeyMapping:         keyMapping,
		positiveValueStore: positiveValueStore,
		negativeValueStore: negativeValueStore,
		summary:            stat.NewSummaryStatistics(),
	}
}

// NewDefaultDDSketch returns a sketch with memory optimized at the cost of
// ingestion speed, using an unlimited number of bins. The number of bins will
// not exceed a reasonable number unless the data is distributed with tails
// heavier than any subexponential.
func NewDefaultDDSketch(relativeAccuracy float64) (*DDSketch, error) {
	keyMapping, err := mapping.NewLogarithmicMapping(relativeAccuracy)
	if err != nil {
		return nil, err
	}
	return NewDDSketch(keyMapping, store.NewDenseStore(), store.NewDenseStore()), nil
}

// LogCollapsingLowestDenseDDSketch returns a sketch using a limited number of
// bins. When the bin limit is reached, the bins with the lowest keys are
// collapsed, which causes the relative accuracy guarantee to be lost on the
// lowest quantiles. Non-positive bin limits are replaced with the default
// limit of 2048, for which collapsing is unlikely to occur unless the data is
// distributed with tails heavier than any subexponential.
func LogCollapsingLowestDenseDDSketch(relativeAccuracy float64, binLimit int) (*DDSketch, error) {
	keyMapping, err := mapping.NewLogarithmicMapping(relativeAccuracy)
	if err != nil {
		return nil, err
	}
	binLimit = adjustBinLimit(binLimit)
	return NewDDSketch(keyMapping, store.NewCollapsingLowestDenseStore(binLimit), store.NewCollapsingLowestDenseStore(binLimit)), nil
}

// LogCollapsingHighestDenseDDSketch returns a sketch using a limited number
// of bins. When the bin limit is reached, the bins with the highest keys are
// collapsed, which causes the relative accuracy guarantee to be lost on the
// highest quantiles. Non-positive bin limits are replaced with the default
// limit of 2048.
func LogCollapsingHighestDenseDDSketch(relativeAccuracy float64, binLimit int) (*DDSketch, error) {
	keyMapping, err := mapping.NewLogarithmicMapping(relativeAccuracy)
	if err != nil {
		return nil, err
	}
	binLimit = adjustBinLimit(binLimit)
	return NewDDSketch(keyMapping, store.NewCollapsingHighestDenseStore(binLimit), store.NewCollapsingHighestDenseStore(binLimit)), nil
}

func adjustBinLimit(binLimit int) int {
	if binLimit <= 0 {
		return defaultBinLimit
	}
	return binLimit
}

// Add adds a value to the sketch with a weight of 1.
func (s *DDSketch) Add(value float64) error {
	return s.AddWithCount(value, float64(1))
}

// AddWithCount adds a value to the sketch with the given weight, which must
// be positive. Values whose magnitude is below the mapping's indexable range
// land in the zero bucket.
func (s *DDSketch) AddWithCount(value, count float64) error {
	if count <= 0 {
		return errors.New("The count cannot be zero or negative.")
	}

	if value > s.MinIndexableValue() {
		s.positiveValueStore.AddWithCount(s.Key(value), count)
	} else if value < -s.MinIndexableValue() {
		s.negativeValueStore.AddWithCount(s.Key(-value), count)
	} else {
		s.zeroCount += count
	}
	s.summary.Add(value, count)
	return nil
}

// GetValueAtQuantile returns the approximate value at the given quantile. It
// returns NaN when the quantile is outside [0, 1] or the sketch is empty.
func (s *DDSketch) GetValueAtQuantile(quantile float64) float64 {
	if quantile < 0 || quantile > 1 {
		return math.NaN()
	}
	count := s.summary.Count()
	if count == 0 {
		return math.NaN()
	}

	rank := quantile * (count - 1)
	negativeValueCount := s.negativeValueStore.TotalCount()
	if rank < negativeValueCount {
		reversedRank := negativeValueCount - rank - 1
		return -s.Value(s.negativeValueStore.KeyAtRank(reversedRank, false))
	} else if rank < s.zeroCount+negativeValueCount {
		return 0
	}
	return s.Value(s.positiveValueStore.KeyAtRank(rank-s.zeroCount-negativeValueCount, true))
}

// GetValuesAtQuantiles returns the approximate values at the given quantiles.
func (s *DDSketch) GetValuesAtQuantiles(quantiles []float64) []float64 {
	values := make([]float64, len(quantiles))
	for i, q := range quantiles {
		values[i] = s.GetValueAtQuantile(q)
	}
	return values
}

// MergeWith merges the other sketch into this one. After this operation,
// this sketch encodes the values that were added to both this and the other
// sketch. The other sketch is left unchanged.
func (s *DDSketch) MergeWith(other *DDSketch) error {
	if !s.Mergeable(other) {
		return ErrUnequalSketchParameters
	}
	if other.IsEmpty() {
		return nil
	}
	if s.IsEmpty() {
		s.copy(other)
		return nil
	}

	s.positiveValueStore.MergeWith(other.positiveValueStore)
	s.negativeValueStore.MergeWith(other.negativeValueStore)
	s.zeroCount += other.zeroCount
	s.summary.MergeWith(other.summary)
	return nil
}

// Mergeable returns true iff the two sketches share the same gamma, in which
// case they can be merged losslessly.
func (s *DDSketch) Mergeable(other *DDSketch) bool {
	return s.Gamma() == other.Gamma()
}

// Copy returns a deep copy of the sketch.
func (s *DDSketch) Copy() *DDSketch {
	return &DDSketch{
		KeyMapping:         s.KeyMapping,
		positiveValueStore: s.positiveValueStore.Copy(),
		negativeValueStore: s.negativeValueStore.Copy(),
		zeroCount:          s.zeroCount,
		summary:            s.summary.Copy(),
	}
}

func (s *DDSketch) copy(other *DDSketch) {
	s.positiveValueStore = other.positiveValueStore.Copy()
	s.negativeValueStore = other.negativeValueStore.Copy()
	s.zeroCount = other.zeroCount
	s.summary = other.summary.Copy()
}

func (s *DDSketch) IsEmpty() bool {
	return s.summary.Count() == 0
}

// NumValues returns the total weight of the values added to the sketch.
func (s *DDSketch) NumValues() float64 {
	return s.summary.Count()
}

func (s *DDSketch) Sum() float64 {
	return s.summary.Sum()
}

// Avg returns the average of the values added to the sketch, NaN when the
// sketch is empty.
func (s *DDSketch) Avg() float64 {
	return s.summary.Sum() / s.summary.Count()
}

// Min returns the exact minimum of the values added to the sketch, +Inf when
// the sketch is empty.
func (s *DDSketch) Min() float64 {
	return s.summary.Min()
}

// Max returns the exact maximum of the values added to the sketch, -Inf when
// the sketch is empty.
func (s *DDSketch) Max() float64 {
	return s.summary.Max()
}

func (s *DDSketch) ZeroCount() float64 {
	return s.zeroCount
}
