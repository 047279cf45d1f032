package util

import (
	"math"
	"math/rand"
	"os"
)

// RandomFloat returns a random float64 between min and max drawn from rng
func RandomFloat(rng *rand.Rand, min, max float64) float64 {
	return min + rng.Float64()*(max-min)
}

// RandomIndex returns a uniform index into a collection of length n, or -1 if n <= 0
func RandomIndex(rng *rand.Rand, n int) int {
	if n <= 0 {
		return -1
	}
	return rng.Intn(n)
}

// Lerp performs linear interpolation between a and b with t in [0,1]
func Lerp(a, b, t float64) float64 {
	return a + t*(b-a)
}

// Clamp restricts a value to be between min and max
func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// Clamp01 restricts a value to [0,1]
func Clamp01(value float64) float64 {
	return Clamp(value, 0, 1)
}

// MoveTowards moves current toward target by at most maxDelta, never overshooting
func MoveTowards(current, target, maxDelta float64) float64 {
	if math.Abs(target-current) <= maxDelta {
		return target
	}
	if target > current {
		return current + maxDelta
	}
	return current - maxDelta
}

// FileExists checks if a file exists and is not a directory
func FileExists(filename string) bool {
	info, err := os.Stat(filename)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
