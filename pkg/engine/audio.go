package engine

import (
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"

	"ambiance/internal/logger"
	"ambiance/pkg/config"
)

const numChannels = 2

// Bus groups channels under a shared user volume
type Bus int

const (
	BusMusic Bus = iota
	BusAmbiance
	busCount
)

func (b Bus) String() string {
	switch b {
	case BusMusic:
		return "music"
	case BusAmbiance:
		return "ambiance"
	default:
		return fmt.Sprintf("bus(%d)", int(b))
	}
}

// outputBackend pulls mixed audio from the engine
type outputBackend interface {
	Name() string
	Start() error
	Stop() error
	// Realtime backends advance channel positions by pulling samples;
	// the others are advanced by AudioEngine.Update.
	Realtime() bool
}

// AudioEngine mixes the playing channels and feeds an output device
type AudioEngine struct {
	config      config.AudioConfig
	log         *logger.Logger
	masterMutex sync.Mutex
	channels    []*MixChannel
	master      float64
	buses       [busCount]float64
	output      outputBackend
	isRunning   bool
	carry       float64 // fractional frames owed by the headless clock
}

// NewAudioEngine creates an audio engine. The device is opened by Start.
func NewAudioEngine(cfg config.AudioConfig, log *logger.Logger) *AudioEngine {
	if log == nil {
		log = logger.NewNopLogger()
	}
	ae := &AudioEngine{
		config: cfg,
		log:    log,
		master: 1,
	}
	for i := range ae.buses {
		ae.buses[i] = 1
	}
	return ae
}

// NewChannel adds a mixer channel on the given bus
func (ae *AudioEngine) NewChannel(bus Bus) *MixChannel {
	ae.masterMutex.Lock()
	defer ae.masterMutex.Unlock()

	ch := &MixChannel{engine: ae, bus: bus}
	ae.channels = append(ae.channels, ch)
	return ch
}

// SampleRate returns the output sample rate
func (ae *AudioEngine) SampleRate() int {
	return ae.config.SampleRate
}

// Start opens the configured backend. A backend that cannot be opened is
// replaced by the headless one; only a failure of the headless backend is
// returned.
func (ae *AudioEngine) Start() error {
	if ae.isRunning {
		return nil
	}

	backend := ae.config.Backend
	if !ae.config.Enabled {
		backend = config.BackendHeadless
	}

	var out outputBackend
	switch backend {
	case config.BackendPortAudio:
		out = newPortAudioOutput(ae)
	case config.BackendOto:
		out = newOtoOutput(ae)
	default:
		out = newHeadlessOutput()
	}

	if err := out.Start(); err != nil {
		ae.log.Warnf("audio backend %s unavailable, falling back to headless: %v", out.Name(), err)
		out = newHeadlessOutput()
		if err := out.Start(); err != nil {
			return fmt.Errorf("failed to start headless audio: %w", err)
		}
	}

	ae.output = out
	ae.isRunning = true
	ae.log.Infof("audio output: %s @ %d Hz", out.Name(), ae.config.SampleRate)
	return nil
}

// BackendName returns the active backend, or "" before Start
func (ae *AudioEngine) BackendName() string {
	if ae.output == nil {
		return ""
	}
	return ae.output.Name()
}

// Update advances channel clocks for non-realtime backends
func (ae *AudioEngine) Update(deltaTime float64) {
	if !ae.isRunning || ae.output.Realtime() || deltaTime <= 0 {
		return
	}

	ae.carry += deltaTime * float64(ae.config.SampleRate)
	frames := int(ae.carry)
	ae.carry -= float64(frames)
	if frames > 0 {
		ae.advance(frames)
	}
}

// Shutdown stops all channels and closes the output device
func (ae *AudioEngine) Shutdown() {
	if !ae.isRunning {
		return
	}
	ae.isRunning = false

	ae.masterMutex.Lock()
	for _, ch := range ae.channels {
		ch.playing = false
	}
	ae.masterMutex.Unlock()

	if err := ae.output.Stop(); err != nil {
		ae.log.Warnf("error closing audio output: %v", err)
	}
}

// SetMasterVolume sets the master gain (linear)
func (ae *AudioEngine) SetMasterVolume(volume float64) {
	ae.masterMutex.Lock()
	ae.master = volume
	ae.masterMutex.Unlock()
}

// SetBusVolume sets the gain of one bus (linear)
func (ae *AudioEngine) SetBusVolume(bus Bus, volume float64) {
	if bus < 0 || bus >= busCount {
		return
	}
	ae.masterMutex.Lock()
	ae.buses[bus] = volume
	ae.masterMutex.Unlock()
}

// audioCallback fills an interleaved stereo buffer with the current mix
func (ae *AudioEngine) audioCallback(out []float32) {
	ae.masterMutex.Lock()
	defer ae.masterMutex.Unlock()

	for i := range out {
		out[i] = 0
	}

	for _, ch := range ae.channels {
		if !ch.playing || ch.clip == nil {
			continue
		}

		gain := float32(ch.volume * ae.buses[ch.bus] * ae.master)
		frames := ch.clip.Frames
		for i := 0; i+1 < len(out); i += numChannels {
			if ch.pos >= len(frames) {
				// Clip finished playing
				ch.playing = false
				break
			}
			out[i] += frames[ch.pos][0] * gain
			out[i+1] += frames[ch.pos][1] * gain
			ch.pos++
		}
	}

	// Soft clipping to avoid harsh distortion
	for i := range out {
		out[i] = softClip(out[i])
	}
}

// softClip limits a sample to [-1,1], compressing anything beyond 0.8
func softClip(v float32) float32 {
	if v > 0.8 {
		v = 0.8 + 0.2*(1.0-1.0/(1.0+(v-0.8)*5.0))
	} else if v < -0.8 {
		v = -0.8 - 0.2*(1.0-1.0/(1.0+(-v-0.8)*5.0))
	}
	if v > 1.0 {
		return 1.0
	}
	if v < -1.0 {
		return -1.0
	}
	return v
}

// advance moves every playing channel forward without producing samples
func (ae *AudioEngine) advance(frames int) {
	ae.masterMutex.Lock()
	defer ae.masterMutex.Unlock()

	for _, ch := range ae.channels {
		if !ch.playing || ch.clip == nil {
			continue
		}
		ch.pos += frames
		if ch.pos >= len(ch.clip.Frames) {
			ch.pos = len(ch.clip.Frames)
			ch.playing = false
		}
	}
}

// MixChannel is one voice of the AudioEngine mixer and implements Channel.
// Its position is advanced by the output side; all fields are guarded by the
// engine mutex.
type MixChannel struct {
	engine  *AudioEngine
	bus     Bus
	clip    *Clip
	pos     int
	playing bool
	volume  float64
}

// Load assigns a clip and rewinds; the channel stays stopped
func (c *MixChannel) Load(clip *Clip) {
	c.engine.masterMutex.Lock()
	defer c.engine.masterMutex.Unlock()
	c.clip = clip
	c.pos = 0
	c.playing = false
}

// Play starts or resumes the loaded clip
func (c *MixChannel) Play() {
	c.engine.masterMutex.Lock()
	defer c.engine.masterMutex.Unlock()
	if c.clip != nil && c.pos < len(c.clip.Frames) {
		c.playing = true
	}
}

// Stop halts playback and rewinds
func (c *MixChannel) Stop() {
	c.engine.masterMutex.Lock()
	defer c.engine.masterMutex.Unlock()
	c.playing = false
	c.pos = 0
}

// SetVolume sets the channel gain (linear)
func (c *MixChannel) SetVolume(volume float64) {
	c.engine.masterMutex.Lock()
	c.volume = volume
	c.engine.masterMutex.Unlock()
}

// Volume returns the channel gain
func (c *MixChannel) Volume() float64 {
	c.engine.masterMutex.Lock()
	defer c.engine.masterMutex.Unlock()
	return c.volume
}

// Elapsed returns the playback position in seconds
func (c *MixChannel) Elapsed() float64 {
	c.engine.masterMutex.Lock()
	defer c.engine.masterMutex.Unlock()
	if c.clip == nil || c.clip.SampleRate <= 0 {
		return 0
	}
	return float64(c.pos) / float64(c.clip.SampleRate)
}

// Length returns the loaded clip length in seconds
func (c *MixChannel) Length() float64 {
	c.engine.masterMutex.Lock()
	defer c.engine.masterMutex.Unlock()
	return c.clip.Length()
}

// Clip returns the loaded clip, or nil
func (c *MixChannel) Clip() *Clip {
	c.engine.masterMutex.Lock()
	defer c.engine.masterMutex.Unlock()
	return c.clip
}

// Playing reports whether the channel is producing sound
func (c *MixChannel) Playing() bool {
	c.engine.masterMutex.Lock()
	defer c.engine.masterMutex.Unlock()
	return c.playing
}

// Bus returns the bus the channel mixes into
func (c *MixChannel) Bus() Bus {
	return c.bus
}

// portAudioOutput plays the mix through the default PortAudio device
type portAudioOutput struct {
	engine *AudioEngine
	stream *portaudio.Stream
}

func newPortAudioOutput(ae *AudioEngine) *portAudioOutput {
	return &portAudioOutput{engine: ae}
}

func (p *portAudioOutput) Name() string   { return config.BackendPortAudio }
func (p *portAudioOutput) Realtime() bool { return true }

func (p *portAudioOutput) Start() error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize PortAudio: %w", err)
	}

	cfg := p.engine.config
	stream, err := portaudio.OpenDefaultStream(0, numChannels, float64(cfg.SampleRate), cfg.FramesPerBuffer, p.engine.audioCallback)
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("failed to open audio stream: %w", err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return fmt.Errorf("failed to start audio stream: %w", err)
	}

	p.stream = stream
	return nil
}

func (p *portAudioOutput) Stop() error {
	if p.stream == nil {
		return nil
	}
	defer portaudio.Terminate()

	if err := p.stream.Stop(); err != nil {
		p.stream.Close()
		p.stream = nil
		return fmt.Errorf("failed to stop audio stream: %w", err)
	}
	err := p.stream.Close()
	p.stream = nil
	return err
}

// headlessOutput has no device; channel clocks follow the tick loop
type headlessOutput struct{}

func newHeadlessOutput() *headlessOutput { return &headlessOutput{} }

func (headlessOutput) Name() string   { return config.BackendHeadless }
func (headlessOutput) Realtime() bool { return false }
func (headlessOutput) Start() error   { return nil }
func (headlessOutput) Stop() error    { return nil }
