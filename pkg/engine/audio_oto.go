package engine

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"ambiance/pkg/config"
)

// otoOutput plays the mix through an oto context. oto pulls bytes from Read
// on its own goroutine.
type otoOutput struct {
	engine    *AudioEngine
	ctx       *oto.Context
	player    *oto.Player
	sampleBuf []float32
	mutex     sync.Mutex
}

func newOtoOutput(ae *AudioEngine) *otoOutput {
	return &otoOutput{engine: ae}
}

func (o *otoOutput) Name() string   { return config.BackendOto }
func (o *otoOutput) Realtime() bool { return true }

func (o *otoOutput) Start() error {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	cfg := o.engine.config
	op := &oto.NewContextOptions{
		SampleRate:   cfg.SampleRate,
		ChannelCount: numChannels,
		Format:       oto.FormatFloat32LE,
	}
	if cfg.SampleRate > 0 && cfg.FramesPerBuffer > 0 {
		op.BufferSize = framesToDuration(cfg.FramesPerBuffer, cfg.SampleRate)
	}

	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return fmt.Errorf("failed to create oto context: %w", err)
	}
	<-ready

	o.ctx = ctx
	o.sampleBuf = make([]float32, cfg.FramesPerBuffer*numChannels)
	o.player = ctx.NewPlayer(o)
	o.player.Play()
	return nil
}

// Read implements io.Reader for the oto player
func (o *otoOutput) Read(p []byte) (int, error) {
	numSamples := len(p) / 4
	numSamples -= numSamples % numChannels
	if numSamples == 0 {
		return 0, nil
	}

	if len(o.sampleBuf) < numSamples {
		o.sampleBuf = make([]float32, numSamples)
	}
	samples := o.sampleBuf[:numSamples]
	o.engine.audioCallback(samples)

	for i, s := range samples {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(s))
	}
	return numSamples * 4, nil
}

func (o *otoOutput) Stop() error {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	if o.player == nil {
		return nil
	}
	err := o.player.Close()
	o.player = nil
	if err != nil {
		return fmt.Errorf("failed to close oto player: %w", err)
	}
	return nil
}

func framesToDuration(frames, sampleRate int) time.Duration {
	return time.Duration(frames) * time.Second / time.Duration(sampleRate)
}
