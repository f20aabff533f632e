// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License 2.0.

package dataset

import (
	"math"
	"sort"

	"github.com/tudor1805/sketches-go/ddsketch/stat"
)

// Dataset keeps every added value and computes exact quantiles by sorting,
// as a reference for evaluating sketch accuracy.
type Dataset struct {
	Values []float64
	Count  float64
	sorted bool
}

func NewDataset() *Dataset { return &Dataset{} }

func (d *Dataset) Add(v float64) {
	d.Values = append(d.Values, v)
	d.Count++
	d.sorted = false
}

// Quantile returns the lower quantile of the dataset.
func (d *Dataset) Quantile(q float64) float64 {
	return d.LowerQuantile(q)
}

func (d *Dataset) LowerQuantile(q float64) float64 {
	if q < 0 || q > 1 || d.Count == 0 {
		return math.NaN()
	}

	d.sort()
	rank := q * (d.Count - 1)
	return d.Values[int(math.Floor(rank))]
}

func (d *Dataset) UpperQuantile(q float64) float64 {
	if q < 0 || q > 1 || d.Count == 0 {
		return math.NaN()
	}

	d.sort()
	rank := q * (d.Count - 1)
	return d.Values[int(math.Ceil(rank))]
}

// MinRank returns the number of values strictly lower than v.
func (d *Dataset) MinRank(v float64) int64 {
	d.sort()
	return int64(sort.Search(len(d.Values), func(i int) bool { return d.Values[i] >= v }))
}

// MaxRank returns the number of values lower than or equal to v.
func (d *Dataset) MaxRank(v float64) int64 {
	d.sort()
	return int64(sort.Search(len(d.Values), func(i int) bool { return d.Values[i] > v }))
}

func (d *Dataset) Min() float64 {
	d.sort()
	return d.Values[0]
}

func (d *Dataset) Max() float64 {
	d.sort()
	return d.Values[len(d.Values)-1]
}

func (d *Dataset) Sum() float64 {
	summaryStatistics := stat.NewSummaryStatistics()
	for _, v := range d.Values {
		summaryStatistics.Add(v, 1)
	}
	return summaryStatistics.Sum()
}

func (d *Dataset) Avg() float64 {
	return d.Sum() / d.Count
}

func (d *Dataset) Merge(o *Dataset) {
	for _, v := range o.Values {
		d.Add(v)
	}
}

func (d *Dataset) sort() {
	if d.sorted {
		return
	}
	sort.Float64s(d.Values)
	d.sorted = true
}
