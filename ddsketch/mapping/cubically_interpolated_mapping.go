// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License 2.0.

package mapping

import (
	"bytes"
	"fmt"
	"math"
)

const (
	// Assuming the key is written as ceil(multiplier*(e+A*s^3+B*s^2+C*s)),
	// where value = 2^e*(1+s), those are the coefficients that minimize the
	// multiplier, therefore the memory footprint of the sketch, while
	// ensuring the relative accuracy of the sketch.
	cubicA = 6.0 / 35.0
	cubicB = -3.0 / 5.0
	cubicC = 10.0 / 7.0
)

// CubicallyInterpolatedMapping is a fast KeyMapping that approximates the
// memory-optimal LogarithmicMapping by extracting the floor value of the
// logarithm to the base 2 from the binary representation of floating-point
// values and cubically interpolating the logarithm in-between. It is nearly
// as memory-optimal as the LogarithmicMapping while not requiring an exact
// logarithm evaluation.
type CubicallyInterpolatedMapping struct {
	keyMapping
}

func NewCubicallyInterpolatedMapping(relativeAccuracy float64) (*CubicallyInterpolatedMapping, error) {
	return NewCubicallyInterpolatedMappingWithOffset(relativeAccuracy, 0)
}

func NewCubicallyInterpolatedMappingWithOffset(relativeAccuracy, offset float64) (*CubicallyInterpolatedMapping, error) {
	base, err := newKeyMapping(relativeAccuracy, offset)
	if err != nil {
		return nil, err
	}
	base.multiplier /= cubicC
	return &CubicallyInterpolatedMapping{keyMapping: base}, nil
}

func (m *CubicallyInterpolatedMapping) Equals(other KeyMapping) bool {
	o, ok := other.(*CubicallyInterpolatedMapping)
	if !ok {
		return false
	}
	tol := 1e-12
	return withinTolerance(m.gamma, o.gamma, tol) && withinTolerance(m.offset, o.offset, tol)
}

func (m *CubicallyInterpolatedMapping) Key(value float64) int {
	return m.key(m.logGamma(value))
}

func (m *CubicallyInterpolatedMapping) Value(key int) float64 {
	return m.powGamma(float64(key)-m.offset) * (2 / (1 + m.gamma))
}

// cubicLog2Approx approximates log2 using a cubic polynomial of the
// significand.
func cubicLog2Approx(value float64) float64 {
	mantissa, exponent := math.Frexp(value)
	significand := 2*mantissa - 1
	return ((cubicA*significand+cubicB)*significand+cubicC)*significand + float64(exponent-1)
}

// cubicExp2Approx inverts cubicLog2Approx, solving the cubic with Cardano's
// formula. Cbrt takes the real cube root, which keeps the computation real
// when its argument is negative.
func cubicExp2Approx(value float64) float64 {
	exponent := math.Floor(value)
	delta0 := cubicB*cubicB - 3*cubicA*cubicC
	delta1 := 2*cubicB*cubicB*cubicB - 9*cubicA*cubicB*cubicC - 27*cubicA*cubicA*(value-exponent)
	cardano := math.Cbrt((delta1 - math.Sqrt(delta1*delta1-4*delta0*delta0*delta0)) / 2)
	significandPlusOne := -(cubicB+cardano+delta0/cardano)/(3*cubicA) + 1
	return math.Ldexp(significandPlusOne/2, int(exponent)+1)
}

func (m *CubicallyInterpolatedMapping) logGamma(value float64) float64 {
	return cubicLog2Approx(value) * m.multiplier
}

func (m *CubicallyInterpolatedMapping) powGamma(y float64) float64 {
	return cubicExp2Approx(y / m.multiplier)
}

func (m *CubicallyInterpolatedMapping) String() string {
	var buffer bytes.Buffer
	buffer.WriteString(fmt.Sprintf("relativeAccuracy: %v, gamma: %v, offset: %v\n", m.relativeAccuracy, m.gamma, m.offset))
	return buffer.String()
}
