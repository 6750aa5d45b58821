package util

import (
	"math/rand"

	"github.com/fogleman/ease"
)

// RandomPosition returns a placeholder position in [min, max).
func RandomPosition(min float64, max float64) float64 {
	return rand.Float64()*(max-min) + min
}

// GenerateGlowLut builds a brightness falloff for pixels either side of a
// lit point. Index 0 is the lit pixel at full gain, the last index the
// outermost pixel of the halo.
func GenerateGlowLut(radius int) []float64 {
	if radius < 0 {
		radius = 0
	}
	lut := make([]float64, radius+1)
	increment := 1.0 / float64(radius+1)
	for i := 0; i <= radius; i++ {
		lut[i] = ease.InOutQuad(1.0 - float64(i)*increment)
	}
	return lut
}
