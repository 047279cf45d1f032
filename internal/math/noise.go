package noise

import (
	"math"
	"math/rand"
)

// NoiseGenerator is a utility for generating smooth pseudo-random noise.
// Noise functions are pure in (x, y, seed); the embedded rng only serves the
// Random* helpers.
type NoiseGenerator struct {
	rng  *rand.Rand
	seed int64
}

// NewNoiseGenerator creates a new noise generator with the given seed
func NewNoiseGenerator(seed int64) *NoiseGenerator {
	return &NoiseGenerator{
		rng:  rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Seed returns the seed the generator was created with
func (ng *NoiseGenerator) Seed() int64 {
	return ng.seed
}

// RandomFloat returns a random float in range [0.0, 1.0)
func (ng *NoiseGenerator) RandomFloat() float64 {
	return ng.rng.Float64()
}

// RandomRange returns a random float in range [min, max)
func (ng *NoiseGenerator) RandomRange(min, max float64) float64 {
	return min + ng.rng.Float64()*(max-min)
}

// Perlin1D generates 1D Perlin noise in roughly [-1, 1]
func (ng *NoiseGenerator) Perlin1D(x float64, seed int64) float64 {
	x0 := math.Floor(x)
	x1 := x0 + 1.0

	sx := smoothstep(x - x0)

	g0 := gradient1D(hash(int(x0), 0, 0, int(seed)))
	g1 := gradient1D(hash(int(x1), 0, 0, int(seed)))

	v0 := g0 * (x - x0)
	v1 := g1 * (x - x1)

	return lerp(v0, v1, sx) * 2.0
}

// Perlin2D generates 2D Perlin noise in roughly [-1, 1]
func (ng *NoiseGenerator) Perlin2D(x, y float64, seed int64) float64 {
	x0 := math.Floor(x)
	x1 := x0 + 1.0
	y0 := math.Floor(y)
	y1 := y0 + 1.0

	sx := smoothstep(x - x0)
	sy := smoothstep(y - y0)

	g00 := gradient2D(hash(int(x0), int(y0), 0, int(seed)))
	g10 := gradient2D(hash(int(x1), int(y0), 0, int(seed)))
	g01 := gradient2D(hash(int(x0), int(y1), 0, int(seed)))
	g11 := gradient2D(hash(int(x1), int(y1), 0, int(seed)))

	dp00 := dot2D(g00[0], g00[1], x-x0, y-y0)
	dp10 := dot2D(g10[0], g10[1], x-x1, y-y0)
	dp01 := dot2D(g01[0], g01[1], x-x0, y-y1)
	dp11 := dot2D(g11[0], g11[1], x-x1, y-y1)

	v0 := lerp(dp00, dp10, sx)
	v1 := lerp(dp01, dp11, sx)

	return lerp(v0, v1, sy)
}

// Sample2D returns 2D Perlin noise remapped to [0, 1] using the generator's seed.
// Lattice points sample to exactly 0.5.
func (ng *NoiseGenerator) Sample2D(x, y float64) float64 {
	n := 0.5 + 0.5*ng.Perlin2D(x, y, ng.seed)
	if n < 0 {
		return 0
	}
	if n > 1 {
		return 1
	}
	return n
}

// FBM1D sums octaves of 1D Perlin noise, normalized to roughly [-1, 1]
func (ng *NoiseGenerator) FBM1D(x float64, octaves int, lacunarity, gain float64, seed int64) float64 {
	result := 0.0
	amplitude := 1.0
	frequency := 1.0
	max := 0.0

	for i := 0; i < octaves; i++ {
		result += ng.Perlin1D(x*frequency, seed+int64(i)) * amplitude
		max += amplitude
		amplitude *= gain
		frequency *= lacunarity
	}

	if max == 0 {
		return 0
	}
	return result / max
}

// hash combines the coordinates and seed to create a unique hash
func hash(x, y, z, seed int) int {
	h := seed + x*374761393 + y*668265263 + z*374761393
	h = (h ^ (h >> 13)) * 1274126177
	return h ^ (h >> 16)
}

// gradient1D generates a 1D gradient from a hash
func gradient1D(hash int) float64 {
	if hash&1 == 0 {
		return 1.0
	}
	return -1.0
}

// gradient2D generates a 2D gradient from a hash
func gradient2D(hash int) [2]float64 {
	switch hash & 7 {
	case 0:
		return [2]float64{1, 0}
	case 1:
		return [2]float64{-1, 0}
	case 2:
		return [2]float64{0, 1}
	case 3:
		return [2]float64{0, -1}
	case 4:
		return [2]float64{1, 1}
	case 5:
		return [2]float64{-1, 1}
	case 6:
		return [2]float64{1, -1}
	default:
		return [2]float64{-1, -1}
	}
}

func dot2D(x1, y1, x2, y2 float64) float64 {
	return x1*x2 + y1*y2
}

func lerp(a, b, t float64) float64 {
	return a + t*(b-a)
}

// smoothstep applies the improved Perlin fade curve: 6t^5 - 15t^4 + 10t^3
func smoothstep(t float64) float64 {
	return t * t * t * (t*(t*6.0-15.0) + 10.0)
}
