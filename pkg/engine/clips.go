package engine

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/gopxl/beep"

	"ambiance/internal/logger"
	"ambiance/pkg/config"
)

// ErrInvalidClip is returned for audio data that cannot become a playable clip
var ErrInvalidClip = errors.New("invalid clip")

// ClipLoader turns catalog entries into clips at the mixer sample rate.
// WAV files are decoded and resampled; synth entries are rendered.
type ClipLoader struct {
	sampleRate int
	quality    int
	synth      *ProceduralAudioGenerator
	log        *logger.Logger
}

// NewClipLoader creates a loader producing clips at sampleRate. quality is
// the resampler quality (1-64).
func NewClipLoader(sampleRate, quality int, log *logger.Logger) *ClipLoader {
	if log == nil {
		log = logger.NewNopLogger()
	}
	if quality < 1 {
		quality = 1
	}
	return &ClipLoader{
		sampleRate: sampleRate,
		quality:    quality,
		synth:      NewProceduralAudioGenerator(sampleRate),
		log:        log,
	}
}

// LoadCatalog loads every entry of the catalog. Entries that fail to load are
// logged and left out, so one bad file never stops playback.
func (l *ClipLoader) LoadCatalog(cat config.CatalogConfig, baseDir string) Catalog {
	return Catalog{
		Ambiance: l.loadAll("ambiance", cat.Ambiance, baseDir),
		Music:    l.loadAll("music", cat.Music, baseDir),
	}
}

func (l *ClipLoader) loadAll(kind string, entries []config.ClipConfig, baseDir string) []*ClipEntry {
	out := make([]*ClipEntry, 0, len(entries))
	for _, cc := range entries {
		entry, err := l.Load(cc, baseDir)
		if err != nil {
			l.log.Warnf("skipping %s clip %s: %v", kind, cc.DisplayName(), err)
			continue
		}
		out = append(out, entry)
	}
	l.log.Infof("loaded %d/%d %s clips", len(out), len(entries), kind)
	return out
}

// Load builds a single catalog entry. Relative file paths resolve against baseDir.
func (l *ClipLoader) Load(cc config.ClipConfig, baseDir string) (*ClipEntry, error) {
	var (
		clip *Clip
		err  error
	)
	switch {
	case cc.Synth != "":
		clip, err = l.synth.Generate(cc.DisplayName(), cc.Synth, cc.Duration, cc.Seed)
	case cc.File != "":
		path := cc.File
		if !filepath.IsAbs(path) && baseDir != "" {
			path = filepath.Join(baseDir, path)
		}
		clip, err = l.LoadFile(path)
		if clip != nil && cc.Name != "" {
			clip.Name = cc.Name
		}
	default:
		err = fmt.Errorf("%w: entry has neither file nor synth", ErrInvalidClip)
	}
	if err != nil {
		return nil, err
	}

	return &ClipEntry{
		Clip:     clip,
		Volume:   cc.EffectiveVolume(),
		Priority: cc.EffectivePriority(),
	}, nil
}

// LoadFile decodes a PCM WAV file into a stereo clip at the loader's rate.
// Mono files are duplicated to both sides; extra channels are dropped.
func (l *ClipLoader) LoadFile(path string) (*Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open clip: %w", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: %s is not a valid WAV file", ErrInvalidClip, path)
	}

	srcRate := int(dec.SampleRate)
	if srcRate <= 0 {
		return nil, fmt.Errorf("%w: %s has invalid sample rate %d", ErrInvalidClip, path, srcRate)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	frames, err := pcmToFrames(buf)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(frames) == 0 {
		return nil, fmt.Errorf("%w: %s has no audio frames", ErrInvalidClip, path)
	}

	if srcRate != l.sampleRate {
		frames = l.resample(frames, srcRate)
	}

	name := filepath.Base(path)
	return NewClip(name, frames, l.sampleRate), nil
}

// pcmToFrames normalizes integer PCM to [-1,1] stereo frames
func pcmToFrames(buf *audio.IntBuffer) ([][2]float32, error) {
	if buf == nil || buf.Format == nil || buf.Format.NumChannels < 1 {
		return nil, fmt.Errorf("%w: missing channel layout", ErrInvalidClip)
	}
	depth := buf.SourceBitDepth
	if depth != 8 && depth != 16 && depth != 24 && depth != 32 {
		return nil, fmt.Errorf("%w: unsupported bit depth %d", ErrInvalidClip, depth)
	}

	scale := float32(int64(1) << uint(depth-1))
	// 8-bit WAV is unsigned
	offset := 0
	if depth == 8 {
		offset = 128
	}

	chans := buf.Format.NumChannels
	n := len(buf.Data) / chans
	frames := make([][2]float32, n)
	for i := 0; i < n; i++ {
		l := float32(buf.Data[i*chans]-offset) / scale
		r := l
		if chans > 1 {
			r = float32(buf.Data[i*chans+1]-offset) / scale
		}
		frames[i] = [2]float32{l, r}
	}
	return frames, nil
}

// resample converts frames from srcRate to the loader's rate using beep's
// interpolating resampler
func (l *ClipLoader) resample(frames [][2]float32, srcRate int) [][2]float32 {
	pos := 0
	src := beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		if pos >= len(frames) {
			return 0, false
		}
		n := 0
		for n < len(samples) && pos < len(frames) {
			samples[n][0] = float64(frames[pos][0])
			samples[n][1] = float64(frames[pos][1])
			n++
			pos++
		}
		return n, true
	})

	resampler := beep.Resample(l.quality, beep.SampleRate(srcRate), beep.SampleRate(l.sampleRate), src)

	expected := int(float64(len(frames)) * float64(l.sampleRate) / float64(srcRate))
	out := make([][2]float32, 0, expected)
	chunk := make([][2]float64, 512)
	for {
		n, ok := resampler.Stream(chunk)
		for _, s := range chunk[:n] {
			out = append(out, [2]float32{float32(s[0]), float32(s[1])})
		}
		if !ok {
			break
		}
	}
	l.log.Debugf("resampled %d frames at %d Hz to %d frames at %d Hz", len(frames), srcRate, len(out), l.sampleRate)
	return out
}
