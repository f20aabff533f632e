// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License 2.0.

package ddsketch

import (
	"math"
	"testing"

	fuzz "github.com/google/gofuzz"
	"github.com/stretchr/testify/assert"

	"github.com/tudor1805/sketches-go/dataset"
	"github.com/tudor1805/sketches-go/ddsketch/mapping"
	"github.com/tudor1805/sketches-go/ddsketch/store"
)

var (
	testAlpha    = 0.01
	testBinLimit = 1024

	testQuantiles = []float64{0, 0.1, 0.25, 0.5, 0.75, 0.9, 0.95, 0.99, 0.999, 1}
	testSizes     = []int{3, 5, 10, 100, 1000}

	floatingPointAcceptableError = 1e-10
	summationAcceptableError     = 1e-6
)

type sketchFactory func() *DDSketch

var testSketches = map[string]sketchFactory{
	"unbounded": func() *DDSketch {
		s, _ := NewDefaultDDSketch(testAlpha)
		return s
	},
	"collapsing_lowest": func() *DDSketch {
		s, _ := LogCollapsingLowestDenseDDSketch(testAlpha, testBinLimit)
		return s
	},
	"collapsing_highest": func() *DDSketch {
		s, _ := LogCollapsingHighestDenseDDSketch(testAlpha, testBinLimit)
		return s
	},
}

func EvaluateSketch(t *testing.T, n int, gen dataset.Generator) {
	for name, newSketch := range testSketches {
		t.Run(name, func(t *testing.T) {
			g := newSketch()
			d := dataset.NewDataset()
			for i := 0; i < n; i++ {
				value := gen.Generate()
				assert.NoError(t, g.Add(value))
				d.Add(value)
			}
			AssertSketchesAccurate(t, d, g)
		})
	}
}

func AssertSketchesAccurate(t *testing.T, d *dataset.Dataset, g *DDSketch) {
	assert := assert.New(t)
	for _, q := range testQuantiles {
		lowerQuantile := d.LowerQuantile(q)
		upperQuantile := d.UpperQuantile(q)
		minExpectedValue := math.Min(lowerQuantile*(1-testAlpha), lowerQuantile*(1+testAlpha))
		maxExpectedValue := math.Max(upperQuantile*(1-testAlpha), upperQuantile*(1+testAlpha))
		quantile := g.GetValueAtQuantile(q)
		assert.True(minExpectedValue-floatingPointAcceptableError <= quantile)
		assert.True(quantile <= maxExpectedValue+floatingPointAcceptableError)
	}
	assert.Equal(d.Min(), g.Min())
	assert.Equal(d.Max(), g.Max())
	// The sketch and the dataset accumulate the sum in different orders.
	assert.InDelta(d.Sum(), g.Sum(), summationAcceptableError*math.Max(1, math.Abs(d.Sum())))
	assert.Equal(d.Count, g.NumValues())
	assert.InDelta(d.Avg(), g.Avg(), summationAcceptableError*math.Max(1, math.Abs(d.Avg())))
}

func TestConstant(t *testing.T) {
	for _, n := range testSizes {
		constantGenerator := dataset.NewConstant(42)
		EvaluateSketch(t, n, constantGenerator)
	}
}

func TestLinear(t *testing.T) {
	for _, n := range testSizes {
		linearGenerator := dataset.NewLinear()
		EvaluateSketch(t, n, linearGenerator)
	}
}

func TestNegativeConstant(t *testing.T) {
	for _, n := range testSizes {
		constantGenerator := dataset.NewConstant(-8.5)
		EvaluateSketch(t, n, constantGenerator)
	}
}

func TestNormal(t *testing.T) {
	for _, n := range testSizes {
		normalGenerator := dataset.NewNormal(1234, 35, 1)
		EvaluateSketch(t, n, normalGenerator)
	}
}

// Normal(0, 2) produces negative, zero-crossing data, exercising the
// negative store and the sign handling of the quantile walk.
func TestNormalAroundZero(t *testing.T) {
	for _, n := range testSizes {
		normalGenerator := dataset.NewNormal(5678, 0, 2)
		EvaluateSketch(t, n, normalGenerator)
	}
}

func TestLognormal(t *testing.T) {
	for _, n := range testSizes {
		lognormalGenerator := dataset.NewLognormal(91011, 0, 2)
		EvaluateSketch(t, n, lognormalGenerator)
	}
}

func TestExponential(t *testing.T) {
	for _, n := range testSizes {
		expGenerator := dataset.NewExponential(121314, 2)
		EvaluateSketch(t, n, expGenerator)
	}
}

func TestPareto(t *testing.T) {
	for _, n := range testSizes {
		paretoGenerator := dataset.NewPareto(151617, 3, 1)
		EvaluateSketch(t, n, paretoGenerator)
	}
}

func TestAddWithCount(t *testing.T) {
	for name, newSketch := range testSketches {
		t.Run(name, func(t *testing.T) {
			g := newSketch()
			for i := 0; i <= 99; i++ {
				assert.NoError(t, g.AddWithCount(float64(i), 1.1))
			}
			assert.NoError(t, g.AddWithCount(100, 110.0))

			assert.InDelta(t, 220.0, g.NumValues(), floatingPointAcceptableError*220)
			assert.InDelta(t, 16445.0, g.Sum(), floatingPointAcceptableError*16445)
			assert.InDelta(t, 74.75, g.Avg(), floatingPointAcceptableError*75)
			assert.InEpsilon(t, 99, g.GetValueAtQuantile(0.5), testAlpha+floatingPointAcceptableError)
		})
	}
}

func TestInvalidCount(t *testing.T) {
	g, err := NewDefaultDDSketch(testAlpha)
	assert.NoError(t, err)
	assert.Error(t, g.AddWithCount(1, 0))
	assert.Error(t, g.AddWithCount(1, -1))
	assert.True(t, g.IsEmpty())
}

func TestInvalidRelativeAccuracy(t *testing.T) {
	_, err := NewDefaultDDSketch(0)
	assert.Error(t, err)
	_, err = LogCollapsingLowestDenseDDSketch(2, 1024)
	assert.Error(t, err)
	_, err = LogCollapsingHighestDenseDDSketch(-1, 1024)
	assert.Error(t, err)
}

// Non-positive bin limits fall back to the default.
func TestBinLimitValidation(t *testing.T) {
	for _, binLimit := range []int{-1, 0} {
		g, err := LogCollapsingLowestDenseDDSketch(testAlpha, binLimit)
		assert.NoError(t, err)
		for i := 0; i < 3*defaultBinLimit; i++ {
			assert.NoError(t, g.Add(float64(i) + 0.5))
		}
		assert.Equal(t, float64(3*defaultBinLimit), g.NumValues())
	}
}

func TestEmptySketch(t *testing.T) {
	g, _ := NewDefaultDDSketch(testAlpha)
	assert.True(t, g.IsEmpty())
	assert.Equal(t, 0.0, g.NumValues())
	assert.Equal(t, 0.0, g.Sum())
	assert.True(t, math.IsNaN(g.Avg()))
	assert.True(t, math.IsNaN(g.GetValueAtQuantile(0.5)))
	assert.Equal(t, math.Inf(1), g.Min())
	assert.Equal(t, math.Inf(-1), g.Max())
}

func TestQuantileOutOfBounds(t *testing.T) {
	g, _ := NewDefaultDDSketch(testAlpha)
	assert.NoError(t, g.Add(1))
	assert.True(t, math.IsNaN(g.GetValueAtQuantile(-0.1)))
	assert.True(t, math.IsNaN(g.GetValueAtQuantile(1.1)))
}

func TestZeroes(t *testing.T) {
	g, _ := NewDefaultDDSketch(testAlpha)
	for i := 0; i < 10; i++ {
		assert.NoError(t, g.Add(0))
	}
	assert.Equal(t, 10.0, g.NumValues())
	assert.Equal(t, 10.0, g.ZeroCount())
	assert.Equal(t, 0.0, g.GetValueAtQuantile(0))
	assert.Equal(t, 0.0, g.GetValueAtQuantile(0.5))
	assert.Equal(t, 0.0, g.GetValueAtQuantile(1))
	assert.Equal(t, 0.0, g.Min())
	assert.Equal(t, 0.0, g.Max())
}

func TestMergeNormal(t *testing.T) {
	for _, n := range testSizes {
		d := dataset.NewDataset()
		g1, _ := NewDefaultDDSketch(testAlpha)
		generator1 := dataset.NewNormal(18, 35, 1)
		for i := 0; i < n; i += 3 {
			value := generator1.Generate()
			g1.Add(value)
			d.Add(value)
		}
		g2, _ := NewDefaultDDSketch(testAlpha)
		generator2 := dataset.NewNormal(19, 50, 2)
		for i := 1; i < n; i += 3 {
			value := generator2.Generate()
			g2.Add(value)
			d.Add(value)
		}
		assert.NoError(t, g1.MergeWith(g2))

		g3, _ := NewDefaultDDSketch(testAlpha)
		generator3 := dataset.NewNormal(20, 40, 0.5)
		for i := 2; i < n; i += 3 {
			value := generator3.Generate()
			g3.Add(value)
			d.Add(value)
		}
		assert.NoError(t, g1.MergeWith(g3))
		AssertSketchesAccurate(t, d, g1)
	}
}

func TestMergeEmpty(t *testing.T) {
	for _, n := range testSizes {
		d := dataset.NewDataset()
		// Merge a non-empty sketch into an empty sketch.
		g1, _ := NewDefaultDDSketch(testAlpha)
		g2, _ := NewDefaultDDSketch(testAlpha)
		generator := dataset.NewExponential(21, 5)
		for i := 0; i < n; i++ {
			value := generator.Generate()
			g2.Add(value)
			d.Add(value)
		}
		assert.NoError(t, g1.MergeWith(g2))
		AssertSketchesAccurate(t, d, g1)

		// Merge an empty sketch into a non-empty sketch.
		g3, _ := NewDefaultDDSketch(testAlpha)
		assert.NoError(t, g2.MergeWith(g3))
		AssertSketchesAccurate(t, d, g2)
	}
}

func TestMergeBothEmpty(t *testing.T) {
	g1, _ := NewDefaultDDSketch(0.05)
	g2, _ := NewDefaultDDSketch(0.05)
	assert.NoError(t, g1.MergeWith(g2))
	assert.Equal(t, 0.0, g1.NumValues())
	assert.True(t, math.IsNaN(g1.GetValueAtQuantile(0.5)))
}

func TestMergeMixedSigns(t *testing.T) {
	for _, n := range testSizes {
		d := dataset.NewDataset()
		g1, _ := NewDefaultDDSketch(testAlpha)
		generator1 := dataset.NewNormal(22, 35, 1)
		for i := 0; i < n; i += 2 {
			value := generator1.Generate()
			g1.Add(value)
			d.Add(value)
		}
		g2, _ := NewDefaultDDSketch(testAlpha)
		generator2 := dataset.NewNormal(23, 1, 3)
		for i := 1; i < n; i += 2 {
			value := generator2.Generate()
			g2.Add(value)
			d.Add(value)
		}
		assert.NoError(t, g1.MergeWith(g2))
		AssertSketchesAccurate(t, d, g1)
	}
}

// Merging must yield the same summaries and quantiles as a single sketch
// built from the concatenated datasets, and must leave the merged-in sketch
// unchanged.
func TestMergeEquivalence(t *testing.T) {
	n := 1000
	gA, _ := NewDefaultDDSketch(testAlpha)
	gB, _ := NewDefaultDDSketch(testAlpha)
	gAll, _ := NewDefaultDDSketch(testAlpha)

	generatorA := dataset.NewNormal(24, 35, 1)
	for i := 0; i < n; i++ {
		value := generatorA.Generate()
		gA.Add(value)
		gAll.Add(value)
	}
	generatorB := dataset.NewNormal(25, 1, 3)
	for i := 0; i < n; i++ {
		value := generatorB.Generate()
		gB.Add(value)
		gAll.Add(value)
	}

	quantilesBefore := gB.GetValuesAtQuantiles(testQuantiles)
	countBefore := gB.NumValues()
	sumBefore := gB.Sum()

	assert.NoError(t, gA.MergeWith(gB))

	assert.InDelta(t, gAll.NumValues(), gA.NumValues(), floatingPointAcceptableError*gAll.NumValues())
	assert.InDelta(t, gAll.Sum(), gA.Sum(), floatingPointAcceptableError*math.Max(1, math.Abs(gAll.Sum())))
	assert.Equal(t, gAll.Min(), gA.Min())
	assert.Equal(t, gAll.Max(), gA.Max())
	mergedQuantiles := gA.GetValuesAtQuantiles(testQuantiles)
	allQuantiles := gAll.GetValuesAtQuantiles(testQuantiles)
	for i := range testQuantiles {
		assert.InDelta(t, allQuantiles[i], mergedQuantiles[i], 2*testAlpha*math.Max(1, math.Abs(allQuantiles[i])))
	}

	// The merged-in sketch is unchanged.
	assert.Equal(t, countBefore, gB.NumValues())
	assert.Equal(t, sumBefore, gB.Sum())
	assert.Equal(t, quantilesBefore, gB.GetValuesAtQuantiles(testQuantiles))
}

func TestMergeUnequalParameters(t *testing.T) {
	g1, _ := NewDefaultDDSketch(0.01)
	g2, _ := NewDefaultDDSketch(0.05)
	assert.False(t, g1.Mergeable(g2))
	assert.ErrorIs(t, g1.MergeWith(g2), ErrUnequalSketchParameters)
}

func TestMergeCollapsed(t *testing.T) {
	for _, n := range testSizes {
		d := dataset.NewDataset()
		g1, _ := LogCollapsingLowestDenseDDSketch(testAlpha, 32)
		generator := dataset.NewLognormal(26, 0, 2)
		for i := 0; i < n; i++ {
			value := generator.Generate()
			g1.Add(value)
			d.Add(value)
		}
		g2, _ := LogCollapsingLowestDenseDDSketch(testAlpha, 32)
		for i := 0; i < n; i++ {
			value := generator.Generate()
			g2.Add(value)
			d.Add(value)
		}
		assert.NoError(t, g1.MergeWith(g2))
		// Collapsing forfeits accuracy on the lowest quantiles; the maximum
		// stays within the guarantee and no mass is lost.
		assert.Equal(t, d.Count, g1.NumValues())
		assert.InEpsilon(t, d.Max(), g1.GetValueAtQuantile(1), testAlpha+floatingPointAcceptableError)
		// Reported quantiles stay monotone.
		quantiles := g1.GetValuesAtQuantiles(testQuantiles)
		for i := 1; i < len(quantiles); i++ {
			assert.LessOrEqual(t, quantiles[i-1], quantiles[i])
		}
	}
}

func TestIntegerScenario(t *testing.T) {
	alpha := 0.05
	g, err := NewDefaultDDSketch(alpha)
	assert.NoError(t, err)
	for i := 1; i <= 100; i++ {
		assert.NoError(t, g.Add(float64(i)))
	}
	assert.Equal(t, 100.0, g.NumValues())
	assert.Equal(t, 5050.0, g.Sum())
	assert.Equal(t, 50.5, g.Avg())
	assert.InEpsilon(t, 1, g.GetValueAtQuantile(0.01), alpha+floatingPointAcceptableError)
	assert.InEpsilon(t, 50, g.GetValueAtQuantile(0.5), alpha+floatingPointAcceptableError)
	assert.InEpsilon(t, 99, g.GetValueAtQuantile(0.99), alpha+floatingPointAcceptableError)
	assert.Equal(t, 1.0, g.Min())
	assert.Equal(t, 100.0, g.Max())
}

func TestCopy(t *testing.T) {
	g, _ := NewDefaultDDSketch(testAlpha)
	g.Add(1)
	g.Add(-3.5)
	copied := g.Copy()
	g.Add(100)
	assert.Equal(t, 2.0, copied.NumValues())
	assert.Equal(t, 3.0, g.NumValues())
	assert.Equal(t, 1.0, copied.Max())
	assert.Equal(t, 100.0, g.Max())
}

func TestMixedMappingStores(t *testing.T) {
	// The generic constructor accepts any mapping/store pairing.
	m, err := mapping.NewCubicallyInterpolatedMapping(testAlpha)
	assert.NoError(t, err)
	g := NewDDSketch(m, store.NewCollapsingLowestDenseStore(testBinLimit), store.NewCollapsingHighestDenseStore(testBinLimit))
	d := dataset.NewDataset()
	generator := dataset.NewNormal(27, 0, 5)
	for i := 0; i < 1000; i++ {
		value := generator.Generate()
		assert.NoError(t, g.Add(value))
		d.Add(value)
	}
	AssertSketchesAccurate(t, d, g)
}

// Successive quantile queries do not modify the sketch.
func TestConsistentQuantile(t *testing.T) {
	var vals []float64
	var q float64
	nTests := 200
	vfuzzer := fuzz.New().NilChance(0).NumElements(10, 500)
	fuzzer := fuzz.New()
	for i := 0; i < nTests; i++ {
		s, _ := NewDefaultDDSketch(testAlpha)
		vfuzzer.Fuzz(&vals)
		fuzzer.Fuzz(&q)
		for _, v := range vals {
			s.Add(v)
		}
		q1 := s.GetValueAtQuantile(q)
		q2 := s.GetValueAtQuantile(q)
		if math.IsNaN(q1) {
			assert.True(t, math.IsNaN(q2))
		} else {
			assert.Equal(t, q1, q2)
		}
	}
}
