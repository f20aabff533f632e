// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License 2.0.

package mapping

import (
	"bytes"
	"fmt"
	"math"
)

// LogarithmicMapping is a memory-optimal KeyMapping, i.e., given a targeted
// relative accuracy, it requires the least number of keys to cover a given
// range of values. This is done by logarithmically mapping floating-point
// values to integers.
type LogarithmicMapping struct {
	keyMapping
}

func NewLogarithmicMapping(relativeAccuracy float64) (*LogarithmicMapping, error) {
	return NewLogarithmicMappingWithOffset(relativeAccuracy, 0)
}

func NewLogarithmicMappingWithOffset(relativeAccuracy, offset float64) (*LogarithmicMapping, error) {
	base, err := newKeyMapping(relativeAccuracy, offset)
	if err != nil {
		return nil, err
	}
	base.multiplier *= math.Ln2
	return &LogarithmicMapping{keyMapping: base}, nil
}

func (m *LogarithmicMapping) Equals(other KeyMapping) bool {
	o, ok := other.(*LogarithmicMapping)
	if !ok {
		return false
	}
	tol := 1e-12
	return withinTolerance(m.gamma, o.gamma, tol) && withinTolerance(m.offset, o.offset, tol)
}

func (m *LogarithmicMapping) Key(value float64) int {
	return m.key(m.logGamma(value))
}

func (m *LogarithmicMapping) Value(key int) float64 {
	return m.powGamma(float64(key)-m.offset) * (2 / (1 + m.gamma))
}

func (m *LogarithmicMapping) logGamma(value float64) float64 {
	return math.Log2(value) * m.multiplier
}

func (m *LogarithmicMapping) powGamma(y float64) float64 {
	return math.Exp2(y / m.multiplier)
}

func (m *LogarithmicMapping) String() string {
	var buffer bytes.Buffer
	buffer.WriteString(fmt.Sprintf("relativeAccuracy: %v, gamma: %v, offset: %v\n", m.relativeAccuracy, m.gamma, m.offset))
	return buffer.String()
}
