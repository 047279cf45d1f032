package engine

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"ambiance/internal/logger"
	"ambiance/pkg/config"
)

// ErrInvalidCommand is returned for operator input that cannot be executed
var ErrInvalidCommand = errors.New("invalid command")

// command is an operator request waiting for the tick thread
type command struct {
	line  string
	reply chan commandResult
}

type commandResult struct {
	out string
	err error
}

// Engine hosts the generator: it owns the audio output, the volume
// preferences and the tick loop. Everything the generator owns is only
// touched from the goroutine running Run (or calling Tick).
type Engine struct {
	config      *config.Config
	logger      *logger.Logger
	audioEngine *AudioEngine
	generator   *Generator
	volume      *VolumeSettings
	commands    chan command
	isRunning   bool
	lastUpdate  time.Time
	frameRate   int
}

// NewEngine creates an engine from configuration. Relative clip and
// preference paths resolve against baseDir.
func NewEngine(cfg *config.Config, log *logger.Logger, baseDir string) (*Engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: nil configuration", config.ErrInvalidConfig)
	}
	if log == nil {
		log = logger.NewNopLogger()
	}

	audioEngine := NewAudioEngine(cfg.Audio, log)
	music := audioEngine.NewChannel(BusMusic)
	ambiance := make([]Channel, cfg.Generator.Tracks)
	for i := range ambiance {
		ambiance[i] = audioEngine.NewChannel(BusAmbiance)
	}

	loader := NewClipLoader(cfg.Audio.SampleRate, cfg.Audio.ResampleQuality, log)
	catalog := loader.LoadCatalog(cfg.Catalog, baseDir)

	generator, err := NewGenerator(cfg.Generator, catalog, music, ambiance, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize generator: %w", err)
	}

	prefsPath := cfg.Preferences.Path
	var store PreferencesStore
	if prefsPath != "" {
		if !filepath.IsAbs(prefsPath) && baseDir != "" {
			prefsPath = filepath.Join(baseDir, prefsPath)
		}
		store = config.NewPreferencesFile(prefsPath)
	}
	volume := NewVolumeSettings(store, audioEngine, cfg.Preferences.DefaultPreferences(), log)

	return &Engine{
		config:      cfg,
		logger:      log,
		audioEngine: audioEngine,
		generator:   generator,
		volume:      volume,
		commands:    make(chan command, 16),
		frameRate:   cfg.Engine.FrameRate,
	}, nil
}

// Generator returns the playback orchestrator
func (e *Engine) Generator() *Generator { return e.generator }

// Audio returns the audio output
func (e *Engine) Audio() *AudioEngine { return e.audioEngine }

// Volume returns the user volume settings
func (e *Engine) Volume() *VolumeSettings { return e.volume }

// Start opens the audio output, applies the stored preferences and starts
// playback
func (e *Engine) Start() error {
	if e.isRunning {
		return nil
	}
	if err := e.audioEngine.Start(); err != nil {
		return fmt.Errorf("failed to start audio: %w", err)
	}
	prefs := e.volume.Load()
	e.logger.Infof("volume: master %.2f, music %.2f, ambiance %.2f", prefs.Master, prefs.Music, prefs.Ambiance)

	e.generator.Start()
	e.isRunning = true
	e.lastUpdate = time.Now()
	return nil
}

// Run starts playback and drives the tick loop until ctx is cancelled
func (e *Engine) Run(ctx context.Context) error {
	if err := e.Start(); err != nil {
		return err
	}
	defer e.cleanup()

	var targetFrameTime time.Duration
	if e.frameRate > 0 {
		targetFrameTime = time.Second / time.Duration(e.frameRate)
	}

	for e.isRunning {
		currentTime := time.Now()
		deltaTime := currentTime.Sub(e.lastUpdate).Seconds()
		e.lastUpdate = currentTime

		e.Tick(deltaTime)

		// Cap the frame rate
		wait := time.Millisecond
		if frameTime := time.Since(currentTime); frameTime < targetFrameTime {
			wait = targetFrameTime - frameTime
		}
		select {
		case <-ctx.Done():
			e.isRunning = false
		case <-time.After(wait):
		}
	}
	return nil
}

// Tick runs queued operator commands, then advances playback by deltaTime
// seconds
func (e *Engine) Tick(deltaTime float64) {
	for {
		select {
		case cmd := <-e.commands:
			out, err := e.handleCommand(cmd.line)
			cmd.reply <- commandResult{out: out, err: err}
		default:
			e.update(deltaTime)
			return
		}
	}
}

// Exec queues an operator command for the tick thread and waits for its
// result. It must not be called from the tick thread itself.
func (e *Engine) Exec(ctx context.Context, line string) (string, error) {
	cmd := command{line: line, reply: make(chan commandResult, 1)}
	select {
	case e.commands <- cmd:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	select {
	case res := <-cmd.reply:
		return res.out, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// update advances the generator, then the audio clock
func (e *Engine) update(deltaTime float64) {
	e.generator.Update(deltaTime)
	e.audioEngine.Update(deltaTime)
}

// handleCommand executes one operator command on the tick thread
func (e *Engine) handleCommand(line string) (string, error) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return "", nil
	}

	out, err := e.dispatch(fields)
	if err != nil {
		e.logger.Warnf("command %q: %v", line, err)
	}
	return out, err
}

func (e *Engine) dispatch(fields []string) (string, error) {
	switch fields[0] {
	case "status":
		return e.status(), nil

	case "play":
		if len(fields) != 2 {
			return "", fmt.Errorf("%w: usage: play <track>", ErrInvalidCommand)
		}
		i, err := e.trackArg(fields[1])
		if err != nil {
			return "", err
		}
		length := e.generator.PlayRandomAmbianceClip(i, e.config.Generator.AmbianceVolume)
		t, _ := e.generator.Track(i)
		if t.Entry() == nil {
			return fmt.Sprintf("track %d: nothing to play", i), nil
		}
		return fmt.Sprintf("track %d: %s (%.1fs)", i, t.Entry().Clip.Name, length), nil

	case "stop":
		if len(fields) == 1 {
			e.generator.Stop()
			return "stopped", nil
		}
		if len(fields) != 2 {
			return "", fmt.Errorf("%w: usage: stop [track]", ErrInvalidCommand)
		}
		i, err := e.trackArg(fields[1])
		if err != nil {
			return "", err
		}
		e.generator.StopTrack(i)
		return fmt.Sprintf("track %d stopped", i), nil

	case "start":
		if e.generator.Started() {
			return "already playing", nil
		}
		e.generator.Start()
		return "started", nil

	case "music":
		if len(fields) != 2 || fields[1] != "stop" {
			return "", fmt.Errorf("%w: usage: music stop", ErrInvalidCommand)
		}
		e.generator.StopMusic()
		return "music stopped", nil

	case "volume":
		if len(fields) != 3 {
			return "", fmt.Errorf("%w: usage: volume <master|music|ambiance> <0..1>", ErrInvalidCommand)
		}
		v, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return "", fmt.Errorf("%w: volume %q is not a number", ErrInvalidCommand, fields[2])
		}
		switch fields[1] {
		case "master":
			e.volume.SetMasterVolume(v)
		case "music":
			e.volume.SetMusicVolume(v)
		case "ambiance":
			e.volume.SetAmbianceVolume(v)
		default:
			return "", fmt.Errorf("%w: unknown volume group %q", ErrInvalidCommand, fields[1])
		}
		p := e.volume.Preferences()
		return fmt.Sprintf("volume: master %.2f, music %.2f, ambiance %.2f", p.Master, p.Music, p.Ambiance), nil

	default:
		return "", fmt.Errorf("%w: unknown command %q", ErrInvalidCommand, fields[0])
	}
}

func (e *Engine) trackArg(s string) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: track %q is not a number", ErrInvalidCommand, s)
	}
	if _, ok := e.generator.Track(i); !ok {
		return 0, fmt.Errorf("%w: track %d out of range [0,%d)", ErrInvalidCommand, i, len(e.generator.Tracks()))
	}
	return i, nil
}

// status renders a short human readable report
func (e *Engine) status() string {
	var b strings.Builder

	fmt.Fprintf(&b, "output: %s, clock %.1fs\n", e.audioEngine.BackendName(), e.generator.Scheduler().Now())
	if m := e.generator.MusicEntry(); m != nil {
		fmt.Fprintf(&b, "music: %s\n", m.Clip.Name)
	} else {
		b.WriteString("music: none\n")
	}

	for _, t := range e.generator.Tracks() {
		entry := t.Entry()
		if entry == nil {
			fmt.Fprintf(&b, "track %d: %s\n", t.Index(), t.State())
			continue
		}
		fmt.Fprintf(&b, "track %d: %s %s %.1f/%.1fs gate %.2f vol %.2f\n",
			t.Index(), t.State(), entry.Clip.Name,
			t.Channel().Elapsed(), entry.Clip.Length(),
			t.Envelope().Gate(), t.Channel().Volume())
	}

	usable, used := e.generator.Pool().Counts()
	fmt.Fprintf(&b, "pool: %d usable, %d in use\n", usable, used)

	p := e.volume.Preferences()
	fmt.Fprintf(&b, "volume: master %.2f, music %.2f, ambiance %.2f", p.Master, p.Music, p.Ambiance)
	return b.String()
}

// cleanup stops playback, saves preferences and closes the output
func (e *Engine) cleanup() {
	e.logger.Info("Shutting down engine...")
	e.isRunning = false
	e.generator.Stop()
	if err := e.volume.Save(); err != nil {
		e.logger.Errorf("failed to save volume preferences: %v", err)
	}
	e.audioEngine.Shutdown()
}

// Shutdown stops an engine that was started with Start instead of Run
func (e *Engine) Shutdown() {
	if !e.isRunning {
		return
	}
	e.cleanup()
}
