package engine

import (
	"fmt"
	"math"

	noise "ambiance/internal/math"
	"ambiance/pkg/config"
)

// ProceduralAudioGenerator synthesizes ambiance clips so a catalog can run
// without any audio files on disk
type ProceduralAudioGenerator struct {
	sampleRate int
}

// NewProceduralAudioGenerator creates a new procedural audio generator
func NewProceduralAudioGenerator(sampleRate int) *ProceduralAudioGenerator {
	return &ProceduralAudioGenerator{sampleRate: sampleRate}
}

// Generate renders a stereo clip of the given kind. The same seed always
// yields the same clip.
func (pag *ProceduralAudioGenerator) Generate(name, kind string, durationSeconds float64, seed int64) (*Clip, error) {
	if durationSeconds <= 0 {
		return nil, fmt.Errorf("synth %q: duration must be positive, got %g", kind, durationSeconds)
	}

	// Use a new noise generator with the provided seed for deterministic output
	ng := noise.NewNoiseGenerator(seed)

	numSamples := int(durationSeconds * float64(pag.sampleRate))
	left := make([]float32, numSamples)
	right := make([]float32, numSamples)

	switch kind {
	case config.SynthAmbient:
		pag.generateAmbient(left, right, ng)
	case config.SynthWind:
		pag.generateWind(left, right, ng)
	case config.SynthWhisper:
		pag.generateWhisper(left, right, ng)
	case config.SynthDrone:
		pag.generateDrone(left, right, ng)
	default:
		return nil, fmt.Errorf("unknown synth %q", kind)
	}

	// Normalize both sides together to keep the stereo image
	normalizeAudio(left, right)

	frames := make([][2]float32, numSamples)
	for i := range frames {
		frames[i] = [2]float32{left[i], right[i]}
	}
	return NewClip(name, frames, pag.sampleRate), nil
}

// generateAmbient renders a slow drone with wind noise and the odd creak
func (pag *ProceduralAudioGenerator) generateAmbient(left, right []float32, ng *noise.NoiseGenerator) {
	// Base frequency for the drone
	baseFreq := ng.RandomRange(50, 150)
	secondFreq := baseFreq * 1.5
	thirdFreq := baseFreq * ng.RandomRange(1.0, 1.5)

	// LFO (Low Frequency Oscillator) rate
	lfoRate := ng.RandomRange(0.1, 0.5)
	windAmount := ng.RandomRange(0.1, 0.4)
	seed := ng.Seed()

	for i := range left {
		t := float64(i) / float64(pag.sampleRate)

		lfo := 0.5 + 0.5*math.Sin(2.0*math.Pi*lfoRate*t)

		sample := math.Sin(2.0*math.Pi*baseFreq*t) * 0.3
		sample += math.Sin(2.0*math.Pi*secondFreq*t) * 0.15 * lfo
		sample += math.Sin(2.0*math.Pi*thirdFreq*t) * 0.1 * (1.0 - lfo)

		// Wind noise differs per side for width
		windL := ng.Perlin1D(t*2.0, seed) * windAmount
		windR := ng.Perlin1D(t*2.0, seed+1) * windAmount

		// Random occasional creaks
		if ng.RandomFloat() < 0.00005 {
			sample += math.Sin(2.0*math.Pi*200.0*t) * 0.2
		}

		left[i] = float32(sample + windL)
		right[i] = float32(sample + windR)
	}
}

// generateWind renders gusting noise: white noise through a one-pole
// low-pass whose cutoff and level follow fractal noise
func (pag *ProceduralAudioGenerator) generateWind(left, right []float32, ng *noise.NoiseGenerator) {
	seed := ng.Seed()
	gustRate := ng.RandomRange(0.05, 0.2)
	var lpL, lpR float64

	for i := range left {
		t := float64(i) / float64(pag.sampleRate)

		gust := 0.5 + 0.5*ng.FBM1D(t*gustRate*10.0, 4, 2.0, 0.5, seed)
		cutoff := 0.01 + gust*0.05

		lpL += (ng.RandomFloat()*2.0 - 1.0 - lpL) * cutoff
		lpR += (ng.RandomFloat()*2.0 - 1.0 - lpR) * cutoff

		level := 0.3 + 0.7*gust
		left[i] = float32(lpL * level)
		right[i] = float32(lpR * level)
	}
}

// generateWhisper renders breathy noise bursts shaped into syllables
func (pag *ProceduralAudioGenerator) generateWhisper(left, right []float32, ng *noise.NoiseGenerator) {
	numSamples := len(left)
	intensity := ng.RandomRange(0.3, 0.9)
	pan := ng.RandomRange(0.2, 0.8)

	ampModRate := 4.0 + intensity*8.0 // 4-12 Hz
	formantFreq := ng.RandomRange(300, 500)

	numSyllables := 2 + int(intensity*4) // 2-6 syllables
	syllableDuration := float64(numSamples) / float64(pag.sampleRate) / float64(numSyllables)
	seed := ng.Seed()

	var band float64
	for i := 0; i < numSamples; i++ {
		t := float64(i) / float64(pag.sampleRate)

		syllableIndex := int(t / syllableDuration)
		if syllableIndex >= numSyllables {
			syllableIndex = numSyllables - 1
		}
		syllableTime := t - float64(syllableIndex)*syllableDuration

		// Syllable envelope
		attackTime := 0.1 * syllableDuration
		releaseTime := 0.2 * syllableDuration
		envelope := 1.0
		if syllableTime < attackTime {
			envelope = syllableTime / attackTime
		} else if syllableTime > syllableDuration-releaseTime {
			envelope = (syllableDuration - syllableTime) / releaseTime
		}

		// Noise pushed through a drifting resonance
		drift := 0.8 + 0.2*ng.Perlin1D(t*3.0+float64(syllableIndex), seed)
		coeff := 2.0 * math.Pi * formantFreq * drift / float64(pag.sampleRate)
		band += ((ng.RandomFloat()*2.0 - 1.0) - band) * math.Min(coeff, 1.0)
		breath := (ng.RandomFloat()*2.0 - 1.0) * 0.3

		ampMod := 0.7 + 0.3*math.Sin(2.0*math.Pi*ampModRate*t)
		sample := (band + breath) * envelope * ampMod * (0.5 + intensity*0.5)

		left[i] = float32(sample * (1.0 - pan))
		right[i] = float32(sample * pan)
	}
}

// generateDrone renders detuned sines beating slowly against each other
func (pag *ProceduralAudioGenerator) generateDrone(left, right []float32, ng *noise.NoiseGenerator) {
	baseFreq := ng.RandomRange(40, 90)
	detune := ng.RandomRange(0.2, 1.5)
	seed := ng.Seed()

	for i := range left {
		t := float64(i) / float64(pag.sampleRate)
		swell := 0.6 + 0.4*ng.Perlin1D(t*0.2, seed)

		l := math.Sin(2.0*math.Pi*baseFreq*t) + 0.5*math.Sin(2.0*math.Pi*baseFreq*2.0*t)
		r := math.Sin(2.0*math.Pi*(baseFreq+detune)*t) + 0.5*math.Sin(2.0*math.Pi*(baseFreq+detune)*2.0*t)

		left[i] = float32(l * 0.4 * swell)
		right[i] = float32(r * 0.4 * swell)
	}
}

// normalizeAudio scales the channels so the loudest peak sits inside [-1,1]
// and boosts very quiet renders
func normalizeAudio(channels ...[]float32) {
	maxAmp := float32(0)
	for _, samples := range channels {
		for _, sample := range samples {
			if a := float32(math.Abs(float64(sample))); a > maxAmp {
				maxAmp = a
			}
		}
	}
	if maxAmp == 0 {
		return
	}

	gain := float32(1)
	if maxAmp > 1.0 {
		gain = 1.0 / maxAmp
	} else if maxAmp < 0.1 {
		gain = 0.7 / maxAmp
	}
	if gain == 1 {
		return
	}
	for _, samples := range channels {
		for i := range samples {
			samples[i] *= gain
		}
	}
}
