// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License 2.0.

package stat

import (
	"errors"
	"math"
)

// SummaryStatistics keeps track of the count, the sum, the minimum and the
// maximum of recorded values. Counts are weights and may be negative, which
// allows encoding removals; min and max are never unwound, so they stay
// valid bounds of every value ever recorded.
type SummaryStatistics struct {
	count float64
	sum   float64
	min   float64
	max   float64
}

func NewSummaryStatistics() *SummaryStatistics {
	return &SummaryStatistics{
		min: math.Inf(1),
		max: math.Inf(-1),
	}
}

// NewSummaryStatisticsFromData builds summary statistics from already
// aggregated data. It fails if the provided values are inconsistent with one
// another.
func NewSummaryStatisticsFromData(count, sum, min, max float64) (*SummaryStatistics, error) {
	if count < 0 {
		return nil, errors.New("count cannot be negative")
	}
	if count > 0 && min > max {
		return nil, errors.New("min cannot be greater than max")
	}
	if count == 0 && (min != math.Inf(1) || max != math.Inf(-1)) {
		return nil, errors.New("min and max must be infinities when count is zero")
	}
	return &SummaryStatistics{count: count, sum: sum, min: min, max: max}, nil
}

func (s *SummaryStatistics) Count() float64 {
	return s.count
}

func (s *SummaryStatistics) Sum() float64 {
	return s.sum
}

func (s *SummaryStatistics) Min() float64 {
	return s.min
}

func (s *SummaryStatistics) Max() float64 {
	return s.max
}

func (s *SummaryStatistics) Add(value, count float64) {
	s.count += count
	s.sum += value * count
	if value < s.min {
		s.min = value
	}
	if value > s.max {
		s.max = value
	}
}

func (s *SummaryStatistics) MergeWith(o *SummaryStatistics) {
	s.count += o.count
	s.sum += o.sum
	if o.min < s.min {
		s.min = o.min
	}
	if o.max > s.max {
		s.max = o.max
	}
}

// Reweight scales the weight of the recorded values, as if every value had
// been added with its count multiplied by the given weight. A zero weight
// clears the statistics.
func (s *SummaryStatistics) Reweight(weight float64) {
	s.count *= weight
	s.sum *= weight
	if weight == 0 {
		s.Clear()
	}
}

// Rescale multiplies the recorded values by the given scale, keeping the
// counts unchanged. A negative scale swaps the roles of min and max.
func (s *SummaryStatistics) Rescale(scale float64) {
	if s.min > s.max {
		return
	}
	s.sum *= scale
	if scale >= 0 {
		s.min *= scale
		s.max *= scale
	} else {
		s.min, s.max = s.max*scale, s.min*scale
	}
}

func (s *SummaryStatistics) Clear() {
	s.count = 0
	s.sum = 0
	s.min = math.Inf(1)
	s.max = math.Inf(-1)
}

func (s *SummaryStatistics) Copy() *SummaryStatistics {
	copied := *s
	return &copied
}
