// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License 2.0.

package dataset

import (
	"math"
	"math/rand"
)

// Generator produces a stream of values following some distribution. The
// random generators are seeded so that test runs are reproducible.
type Generator interface {
	Generate() float64
}

// Constant stream
type Constant struct{ constant float64 }

func NewConstant(constant float64) *Constant { return &Constant{constant: constant} }

func (g *Constant) Generate() float64 { return g.constant }

// Linearly increasing stream, starting at 0
type Linear struct{ currentVal float64 }

func NewLinear() *Linear { return &Linear{0} }

func (g *Linear) Generate() float64 {
	value := g.currentVal
	g.currentVal++
	return value
}

// Normal distribution
type Normal struct {
	rng          *rand.Rand
	mean, stddev float64
}

func NewNormal(seed int64, mean, stddev float64) *Normal {
	return &Normal{rng: rand.New(rand.NewSource(seed)), mean: mean, stddev: stddev}
}

func (g *Normal) Generate() float64 { return g.rng.NormFloat64()*g.stddev + g.mean }

// Lognormal distribution
type Lognormal struct {
	rng       *rand.Rand
	mu, sigma float64
}

func NewLognormal(seed int64, mu, sigma float64) *Lognormal {
	return &Lognormal{rng: rand.New(rand.NewSource(seed)), mu: mu, sigma: sigma}
}

func (g *Lognormal) Generate() float64 {
	r := g.rng.NormFloat64()
	return math.Exp(r*g.sigma + g.mu)
}

// Exponential distribution
type Exponential struct {
	rng  *rand.Rand
	rate float64
}

func NewExponential(seed int64, rate float64) *Exponential {
	return &Exponential{rng: rand.New(rand.NewSource(seed)), rate: rate}
}

func (g *Exponential) Generate() float64 { return g.rng.ExpFloat64() / g.rate }

// Pareto distribution
type Pareto struct {
	rng          *rand.Rand
	shape, scale float64
}

func NewPareto(seed int64, shape, scale float64) *Pareto {
	return &Pareto{rng: rand.New(rand.NewSource(seed)), shape: shape, scale: scale}
}

func (g *Pareto) Generate() float64 {
	r := g.rng.ExpFloat64() / g.shape
	return math.Exp(math.Log(g.scale) + r)
}
