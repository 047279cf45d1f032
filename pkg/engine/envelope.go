package engine

import (
	"math"

	noise "ambiance/internal/math"
	"ambiance/internal/util"
)

const (
	// minFadeSeconds keeps the gate step finite for zero-length fades
	minFadeSeconds = 0.0001
	// noiseRow is the fixed second coordinate of the modulation noise
	noiseRow = 0.5
)

// EnvelopeConfig holds the volume envelope tunables shared by every track
type EnvelopeConfig struct {
	FadeIn       float64 // fraction of clip length
	FadeOut      float64 // fraction of clip length
	NoiseEnabled bool
	NoiseDepth   float64
	NoiseSpeed   float64
	Smoothing    float64 // exponential smoothing rate, 1/s
}

// Envelope computes a track's output volume each tick from a fade gate and
// slow noise modulation, smoothed toward the target.
// The smoothing state is the channel volume itself.
type Envelope struct {
	config     EnvelopeConfig
	noiseGen   *noise.NoiseGenerator
	baseVolume float64
	gate       float64
	noiseTime  float64
}

// NewEnvelope creates an envelope with a closed gate. seed selects the noise
// field so that tracks do not modulate in lockstep.
func NewEnvelope(cfg EnvelopeConfig, seed int64) *Envelope {
	return &Envelope{
		config:     cfg,
		noiseGen:   noise.NewNoiseGenerator(seed),
		baseVolume: 1,
	}
}

// Reset prepares the envelope for a new clip: the gate closes and the base
// volume changes, the noise phase carries on.
func (e *Envelope) Reset(baseVolume float64) {
	e.baseVolume = baseVolume
	e.gate = 0
}

// Gate returns the current fade gate in [0,1]
func (e *Envelope) Gate() float64 {
	return e.gate
}

// BaseVolume returns the per-clip volume multiplier
func (e *Envelope) BaseVolume() float64 {
	return e.baseVolume
}

// NoiseTime returns the accumulated noise phase
func (e *Envelope) NoiseTime() float64 {
	return e.noiseTime
}

// Update advances the envelope by dt seconds and writes the new volume to ch.
// It reports whether the clip is inside its fade-out window. A channel with
// no clip leaves the envelope untouched.
func (e *Envelope) Update(dt float64, ch Channel) (dying bool) {
	if ch == nil || ch.Clip() == nil || dt <= 0 {
		return false
	}

	length := ch.Length()
	t := ch.Elapsed()

	dying = t >= length*(1-e.config.FadeOut)

	gateTarget := 1.0
	fadeSeconds := math.Max(minFadeSeconds, length*e.config.FadeIn)
	if dying {
		gateTarget = 0
		fadeSeconds = math.Max(minFadeSeconds, length*e.config.FadeOut)
	}
	e.gate = util.Clamp01(util.MoveTowards(e.gate, gateTarget, dt/fadeSeconds))

	vol := e.baseVolume
	if e.config.NoiseEnabled {
		e.noiseTime += dt * e.config.NoiseSpeed
		n := e.noiseGen.Sample2D(e.noiseTime, noiseRow)
		vol = util.Clamp01(e.baseVolume + (n-0.5)*2*e.config.NoiseDepth)
	}

	target := vol * e.gate

	a := 1 - math.Exp(-e.config.Smoothing*dt)
	ch.SetVolume(util.Lerp(ch.Volume(), target, a))

	return dying
}
