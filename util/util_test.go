package util

import "testing"

func TestRandomPositionRange(t *testing.T) {
	for i := 0; i < 1000; i++ {
		p := RandomPosition(50, 450)
		if p < 50 || p >= 450 {
			t.Fatalf("position %v outside [50, 450)", p)
		}
	}
}

func TestGenerateGlowLut(t *testing.T) {
	cases := []struct {
		name   string
		radius int
		length int
	}{
		{"no_halo", 0, 1},
		{"negative_radius", -3, 1},
		{"four", 4, 5},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			lut := GenerateGlowLut(c.radius)
			if len(lut) != c.length {
				t.Fatalf("expected length %d, got %d", c.length, len(lut))
			}
			if lut[0] != 1 {
				t.Fatalf("centre gain should be 1, got %v", lut[0])
			}
			for i := 1; i < len(lut); i++ {
				if lut[i] >= lut[i-1] || lut[i] <= 0 {
					t.Fatalf("gain should fall off monotonically: %v", lut)
				}
			}
		})
	}
}
