// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License 2.0.

package mapping

import (
	"bytes"
	"fmt"
	"math"
)

// LinearlyInterpolatedMapping is a fast KeyMapping that approximates the
// memory-optimal one (LogarithmicMapping) by extracting the floor value of
// the logarithm to the base 2 from the binary representation of
// floating-point values and linearly interpolating the logarithm in-between.
type LinearlyInterpolatedMapping struct {
	keyMapping
}

func NewLinearlyInterpolatedMapping(relativeAccuracy float64) (*LinearlyInterpolatedMapping, error) {
	return NewLinearlyInterpolatedMappingWithOffset(relativeAccuracy, 0)
}

func NewLinearlyInterpolatedMappingWithOffset(relativeAccuracy, offset float64) (*LinearlyInterpolatedMapping, error) {
	base, err := newKeyMapping(relativeAccuracy, offset)
	if err != nil {
		return nil, err
	}
	return &LinearlyInterpolatedMapping{keyMapping: base}, nil
}

func (m *LinearlyInterpolatedMapping) Equals(other KeyMapping) bool {
	o, ok := other.(*LinearlyInterpolatedMapping)
	if !ok {
		return false
	}
	tol := 1e-12
	return withinTolerance(m.gamma, o.gamma, tol) && withinTolerance(m.offset, o.offset, tol)
}

func (m *LinearlyInterpolatedMapping) Key(value float64) int {
	return m.key(m.logGamma(value))
}

func (m *LinearlyInterpolatedMapping) Value(key int) float64 {
	return m.powGamma(float64(key)-m.offset) * (2 / (1 + m.gamma))
}

// log2Approx approximates log2 by s + e
// where value = (s+1) * 2**e for s in [0, 1).
// Frexp returns m and e such that value = m * 2**e with m in [0.5, 1),
// so m and e are adjusted accordingly.
func log2Approx(value float64) float64 {
	mantissa, exponent := math.Frexp(value)
	significand := 2*mantissa - 1
	return significand + float64(exponent-1)
}

// exp2Approx is the inverse of log2Approx.
func exp2Approx(value float64) float64 {
	exponent := math.Floor(value) + 1
	mantissa := (value - exponent + 2) / 2
	return math.Ldexp(mantissa, int(exponent))
}

func (m *LinearlyInterpolatedMapping) logGamma(value float64) float64 {
	return log2Approx(value) * m.multiplier
}

func (m *LinearlyInterpolatedMapping) powGamma(y float64) float64 {
	return exp2Approx(y / m.multiplier)
}

func (m *LinearlyInterpolatedMapping) String() string {
	var buffer bytes.Buffer
	buffer.WriteString(fmt.Sprintf("relativeAccuracy: %v, gamma: %v, offset: %v\n", m.relativeAccuracy, m.gamma, m.offset))
	return buffer.String()
}
