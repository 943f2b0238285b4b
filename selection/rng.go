package selection

import "math/rand/v2"

// randomSource yields successive floats in [0,1).
type randomSource interface {
	Float64() float64
}

// mulberry32 is a small fast deterministic generator: 32-bit state advanced
// by a fixed bit-mixing recurrence. Same seed, same stream, always.
type mulberry32 struct {
	state uint32
}

func newMulberry32(seed uint32) *mulberry32 {
	return &mulberry32{state: seed}
}

func (m *mulberry32) Float64() float64 {
	m.state += 0x6D2B79F5
	z := m.state
	z = (z ^ (z >> 15)) * (z | 1)
	z ^= z + (z^(z>>7))*(z|61)
	return float64(z^(z>>14)) / 4294967296.0
}

// seedFromString derives a 32-bit seed from a string by a polynomial
// character hash.
func seedFromString(s string) uint32 {
	var h uint32
	for _, c := range s {
		h = h*31 + uint32(c)
	}
	return h
}

// systemSource adapts the process-global generator to randomSource for
// unseeded selection.
type systemSource struct{}

func (systemSource) Float64() float64 {
	return rand.Float64()
}
