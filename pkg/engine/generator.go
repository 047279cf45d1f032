package engine

import (
	"fmt"
	"math/rand"
	"time"

	"ambiance/internal/logger"
	"ambiance/internal/util"
	"ambiance/pkg/config"
)

// Generator orchestrates music and ambiance playback. It owns the clip pool,
// the tick scheduler and one Track per ambiance channel; everything it owns is
// touched only from the goroutine calling Update.
type Generator struct {
	config    config.GeneratorConfig
	log       *logger.Logger
	rng       *rand.Rand
	pool      *ClipPool
	scheduler *Scheduler
	tracks    []*Track

	music      Channel
	musicClips []*ClipEntry
	ambiance   []*ClipEntry
	musicEntry *ClipEntry

	started bool
	boot    *Timer
}

// NewGenerator wires a generator over the given channels. ambiance must hold
// exactly cfg.Tracks channels; a nil channel disables its slot, a nil music
// channel disables music.
func NewGenerator(cfg config.GeneratorConfig, catalog Catalog, music Channel, ambiance []Channel, log *logger.Logger) (*Generator, error) {
	if cfg.Tracks < config.MinTracks || cfg.Tracks > config.MaxTracks {
		return nil, fmt.Errorf("%w: track count %d outside [%d,%d]", config.ErrInvalidConfig, cfg.Tracks, config.MinTracks, config.MaxTracks)
	}
	if len(ambiance) != cfg.Tracks {
		return nil, fmt.Errorf("%w: %d ambiance channels for %d tracks", config.ErrInvalidConfig, len(ambiance), cfg.Tracks)
	}
	if log == nil {
		log = logger.NewNopLogger()
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	g := &Generator{
		config:     cfg,
		log:        log,
		rng:        rng,
		pool:       NewClipPool(rand.New(rand.NewSource(rng.Int63()))),
		scheduler:  NewScheduler(),
		music:      music,
		musicClips: catalog.Music,
		ambiance:   catalog.Ambiance,
	}

	envCfg := EnvelopeConfig{
		FadeIn:       cfg.FadeInPercentage,
		FadeOut:      cfg.FadeOutPercentage,
		NoiseEnabled: cfg.NoiseVolumeVariation,
		NoiseDepth:   cfg.NoiseDepth,
		NoiseSpeed:   cfg.NoiseSpeed,
		Smoothing:    cfg.Smoothing,
	}
	timing := TrackTiming{
		Delay:      cfg.DelayBetweenAmbiance,
		DelayRange: cfg.DelayRange,
	}

	g.tracks = make([]*Track, cfg.Tracks)
	for i := range g.tracks {
		env := NewEnvelope(envCfg, rng.Int63())
		trackRng := rand.New(rand.NewSource(rng.Int63()))
		g.tracks[i] = NewTrack(i, ambiance[i], env, g.pool, g.scheduler, timing, trackRng, log)
	}

	return g, nil
}

// Start begins playback: a random music clip, then the ambiance tracks one
// after another once the initial delay has passed. Calling Start twice is a no-op.
func (g *Generator) Start() {
	if g.started {
		return
	}
	g.started = true

	// Clips played by hand while stopped go back to the pool before it is reseeded
	for _, t := range g.tracks {
		t.Stop()
	}

	g.startMusic()

	if skipped := g.pool.Seed(g.ambiance); skipped > 0 {
		g.log.Warnf("skipped %d invalid or duplicate ambiance entries", skipped)
	}
	if g.pool.Len() == 0 {
		g.log.Warn("ambiance catalog is empty, no ambiance will play")
	}

	g.boot = g.scheduler.After(g.config.InitialDelay, func() { g.beginTrack(0) })
}

// beginTrack starts track i and arms the start of track i+1 after half of
// the clip just started
func (g *Generator) beginTrack(i int) {
	if i >= len(g.tracks) {
		g.boot = nil
		return
	}
	length := g.PlayRandomAmbianceClip(i, g.config.AmbianceVolume)
	g.boot = g.scheduler.After(length/2, func() { g.beginTrack(i + 1) })
}

func (g *Generator) startMusic() {
	if g.music == nil {
		g.log.Warn("no music channel configured, music disabled")
		return
	}
	idx := util.RandomIndex(g.rng, len(g.musicClips))
	if idx < 0 || g.musicClips[idx] == nil || g.musicClips[idx].Clip == nil {
		g.log.Warn("music catalog is empty, no music will play")
		return
	}

	g.musicEntry = g.musicClips[idx]
	g.music.Load(g.musicEntry.Clip)
	g.music.SetVolume(g.config.MusicVolume)
	g.music.Play()
	g.log.Infof("music: playing %q", g.musicEntry.Clip.Name)
}

// PlayRandomAmbianceClip starts a weighted-random clip on track trackIndex and
// returns its length. An invalid index is logged and ignored; an exhausted
// pool leaves the track idle. Both return 0.
func (g *Generator) PlayRandomAmbianceClip(trackIndex int, volume float64) float64 {
	t, ok := g.track(trackIndex)
	if !ok {
		return 0
	}
	length, _ := t.RequestClip(volume)
	return length
}

// StopTrack stops one track and releases its clip
func (g *Generator) StopTrack(trackIndex int) {
	if t, ok := g.track(trackIndex); ok {
		t.Stop()
	}
}

// StopMusic stops the music channel
func (g *Generator) StopMusic() {
	if g.music != nil {
		g.music.Stop()
	}
	g.musicEntry = nil
}

// Stop halts all playback and pending startup. The generator can be started
// again afterwards.
func (g *Generator) Stop() {
	g.boot.Cancel()
	g.boot = nil
	for _, t := range g.tracks {
		t.Stop()
	}
	g.StopMusic()
	g.started = false
}

// Update advances one tick: envelopes first, then due timers, so a clip
// started by a timer begins silent and fades in from the next tick.
func (g *Generator) Update(dt float64) {
	for _, t := range g.tracks {
		t.Update(dt)
	}
	g.scheduler.Update(dt)
}

// Started reports whether Start has run since the last Stop
func (g *Generator) Started() bool { return g.started }

// Tracks returns the ambiance tracks
func (g *Generator) Tracks() []*Track { return g.tracks }

// Track returns track i, or false if i is out of range
func (g *Generator) Track(i int) (*Track, bool) {
	if i < 0 || i >= len(g.tracks) {
		return nil, false
	}
	return g.tracks[i], true
}

// Pool returns the ambiance clip pool
func (g *Generator) Pool() *ClipPool { return g.pool }

// Scheduler returns the tick scheduler
func (g *Generator) Scheduler() *Scheduler { return g.scheduler }

// MusicEntry returns the music clip currently playing, or nil
func (g *Generator) MusicEntry() *ClipEntry { return g.musicEntry }

func (g *Generator) track(i int) (*Track, bool) {
	t, ok := g.Track(i)
	if !ok {
		g.log.Errorf("invalid track index %d (have %d tracks)", i, len(g.tracks))
	}
	return t, ok
}
